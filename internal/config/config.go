package config

import (
	"os"
	"strings"
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	// AuthSecret signs the local JWTs the mobile shell presents.
	AuthSecret string

	// FeedbackPoolPath optionally overrides the built-in feedback messages.
	FeedbackPoolPath string

	// SyncEndpoint is the server URL the outbox uploader posts events to.
	// Empty disables uploading; events just accumulate.
	SyncEndpoint string

	CORSOrigins []string
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8087"
	}
	return Config{
		HTTPAddr:         addr,
		DBDriver:         envOr("DB_DRIVER", "sqlite"),
		DBDSN:            envOr("DB_DSN", ""),
		AuthSecret:       envOr("AUTH_HMAC_SECRET", "quizcore-dev-key"),
		FeedbackPoolPath: os.Getenv("FEEDBACK_POOL_PATH"),
		SyncEndpoint:     os.Getenv("SYNC_ENDPOINT"),
		CORSOrigins:      csvOr("CORS_ORIGINS", "http://localhost:3000,capacitor://localhost"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
