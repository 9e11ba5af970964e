package syncx_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/pupilpath/quizcore/internal/db"
	syncx "github.com/pupilpath/quizcore/internal/sync"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	dbh.SetMaxOpenConns(1)
	t.Cleanup(func() { dbh.Close() })
	return dbh
}

func TestAppendPendingMarkSynced(t *testing.T) {
	dbh := openTestDB(t)
	repo := syncx.NewEventRepo(dbh)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		e := syncx.Event{
			Type:     syncx.EventScoreSaved,
			Key:      fmt.Sprintf("score-%d", i),
			DataJSON: `{"n":` + fmt.Sprint(i) + `}`,
		}
		if err := repo.Append(ctx, e); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	pending, err := repo.Pending(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("want 3 pending, got %d", len(pending))
	}
	for i := 1; i < len(pending); i++ {
		if pending[i].Offset <= pending[i-1].Offset {
			t.Fatalf("offsets must increase: %d then %d", pending[i-1].Offset, pending[i].Offset)
		}
	}
	if pending[0].Key != "score-0" {
		t.Fatalf("oldest first, got %q", pending[0].Key)
	}

	if err := repo.MarkSynced(ctx, pending[0].Offset, pending[1].Offset); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	left, err := repo.Pending(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 1 || left[0].Key != "score-2" {
		t.Fatalf("want only score-2 pending, got %+v", left)
	}
}

func TestAppendRidesTransaction(t *testing.T) {
	dbh := openTestDB(t)
	repo := syncx.NewEventRepo(dbh)
	ctx := context.Background()

	tx, err := dbh.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := syncx.Append(ctx, tx, syncx.Event{Type: syncx.EventRewardEarned, Key: "quiz-1", DataJSON: `{}`}); err != nil {
		t.Fatalf("append in tx: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatal(err)
	}

	pending, err := repo.Pending(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Fatalf("rolled-back event must not persist, got %d", len(pending))
	}
}

func TestPendingDefaultLimit(t *testing.T) {
	dbh := openTestDB(t)
	repo := syncx.NewEventRepo(dbh)
	ctx := context.Background()

	if err := repo.Append(ctx, syncx.Event{Type: syncx.EventScoreSaved, Key: "k", DataJSON: `{}`}); err != nil {
		t.Fatal(err)
	}
	pending, err := repo.Pending(ctx, 0)
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending with zero limit: %d err=%v", len(pending), err)
	}
}
