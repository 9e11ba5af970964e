// Package content loads quiz definitions from local files or HTTP endpoints.
// Both paths produce the same in-memory shape.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pupilpath/quizcore/internal/quiz"
)

// ErrLoad wraps every fetch or parse failure. Terminal for the session; the
// UI surfaces it and offers no retry.
var ErrLoad = errors.New("quiz content load failed")

const maxBodyBytes = 4 << 20 // lesson files are small; cap malformed payloads

type Loader struct {
	client *http.Client
}

func NewLoader() *Loader {
	return &Loader{client: &http.Client{Timeout: 15 * time.Second}}
}

// Load fetches the URI (HTTP scheme -> network, anything else -> local file),
// decodes the quiz JSON and validates it.
func (l *Loader) Load(ctx context.Context, uri string) (*quiz.Definition, error) {
	var (
		raw []byte
		err error
	)
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		raw, err = l.fetch(ctx, uri)
	} else {
		raw, err = os.ReadFile(uri)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoad, uri, err)
	}

	var def quiz.Definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrLoad, uri, err)
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	return &def, nil
}

func (l *Loader) fetch(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}
