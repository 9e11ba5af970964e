package syncx_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	syncx "github.com/pupilpath/quizcore/internal/sync"
)

func seedEvents(t *testing.T, repo *syncx.EventRepo, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := repo.Append(context.Background(), syncx.Event{
			Type: syncx.EventScoreSaved, Key: "score", DataJSON: `{}`,
		}); err != nil {
			t.Fatal(err)
		}
	}
}

func TestUploaderDrainsInOrder(t *testing.T) {
	dbh := openTestDB(t)
	repo := syncx.NewEventRepo(dbh)
	seedEvents(t, repo, 3)

	var gotOffsets []int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Offset int64  `json:"offset"`
			Type   string `json:"type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		if body.Type != syncx.EventScoreSaved {
			t.Errorf("type = %q", body.Type)
		}
		gotOffsets = append(gotOffsets, body.Offset)
	}))
	t.Cleanup(srv.Close)

	u := syncx.NewUploader(repo, srv.URL)
	sent, err := u.RunOnce(context.Background(), 10)
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if sent != 3 || len(gotOffsets) != 3 {
		t.Fatalf("sent=%d delivered=%d", sent, len(gotOffsets))
	}
	for i := 1; i < len(gotOffsets); i++ {
		if gotOffsets[i] <= gotOffsets[i-1] {
			t.Fatalf("out of order: %v", gotOffsets)
		}
	}

	pending, err := repo.Pending(context.Background(), 10)
	if err != nil || len(pending) != 0 {
		t.Fatalf("outbox should be empty: %d err=%v", len(pending), err)
	}
}

func TestUploaderStopsBatchOnFailure(t *testing.T) {
	dbh := openTestDB(t)
	repo := syncx.NewEventRepo(dbh)
	seedEvents(t, repo, 3)

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)

	u := syncx.NewUploader(repo, srv.URL)
	sent, err := u.RunOnce(context.Background(), 10)
	if err == nil {
		t.Fatal("want delivery error")
	}
	if sent != 1 {
		t.Fatalf("only the first event should be marked, sent=%d", sent)
	}

	pending, err := repo.Pending(context.Background(), 10)
	if err != nil || len(pending) != 2 {
		t.Fatalf("want 2 still pending, got %d err=%v", len(pending), err)
	}
}

func TestUploaderWithoutEndpointIsANoop(t *testing.T) {
	dbh := openTestDB(t)
	repo := syncx.NewEventRepo(dbh)
	seedEvents(t, repo, 1)

	u := syncx.NewUploader(repo, "")
	sent, err := u.RunOnce(context.Background(), 10)
	if err != nil || sent != 0 {
		t.Fatalf("disabled uploader: sent=%d err=%v", sent, err)
	}
	pending, _ := repo.Pending(context.Background(), 10)
	if len(pending) != 1 {
		t.Fatalf("event must remain, got %d", len(pending))
	}
}
