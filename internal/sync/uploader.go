package syncx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

type Clock func() time.Time

// Uploader drains the outbox against the classroom server. Events are posted
// one at a time in append order; the first failure stops the batch so order
// is preserved across runs.
type Uploader struct {
	Repo     *EventRepo
	Endpoint string
	Client   *http.Client
	Now      Clock
}

func NewUploader(repo *EventRepo, endpoint string) *Uploader {
	return &Uploader{
		Repo:     repo,
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: 15 * time.Second},
		Now:      time.Now,
	}
}

// RunOnce pushes up to batch pending events and returns how many were
// delivered.
func (u *Uploader) RunOnce(ctx context.Context, batch int) (int, error) {
	if u.Endpoint == "" {
		return 0, nil
	}
	pending, err := u.Repo.Pending(ctx, batch)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, e := range pending {
		if err := u.post(ctx, e); err != nil {
			return sent, fmt.Errorf("event %d (%s): %w", e.Offset, e.Type, err)
		}
		if err := u.Repo.MarkSynced(ctx, e.Offset); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// Run drains the outbox on a fixed interval until the context is cancelled.
// Delivery failures are logged and retried on the next tick.
func (u *Uploader) Run(ctx context.Context, interval time.Duration, batch int) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if sent, err := u.RunOnce(ctx, batch); err != nil {
				log.Printf("sync: upload: %v", err)
			} else if sent > 0 {
				log.Printf("sync: uploaded %d event(s)", sent)
			}
		}
	}
}

func (u *Uploader) post(ctx context.Context, e Event) error {
	body := fmt.Sprintf(`{"offset":%d,"type":%q,"key":%q,"sent_at":%d,"data":%s}`,
		e.Offset, e.Type, e.Key, u.Now().Unix(), e.DataJSON)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.Endpoint, bytes.NewReader([]byte(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}
