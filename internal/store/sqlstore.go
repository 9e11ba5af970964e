// Package store persists quiz results, answers, rewards, and lesson progress
// to the local database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/pupilpath/quizcore/internal/quiz"
	syncx "github.com/pupilpath/quizcore/internal/sync"
)

type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

// CurrentPupil resolves the active local profile. The device holds one pupil
// at a time.
func (s *SQLStore) CurrentPupil(ctx context.Context) (string, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id FROM users WHERE is_active=1 ORDER BY user_id LIMIT 1`)
	var id string
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", quiz.ErrNoPupil
		}
		return "", err
	}
	return id, nil
}

// SaveResult writes one finished attempt inside a single transaction:
// attempt-numbered score row, answer rows, the perfect-score bonus point, the
// content/lesson progress rollup, and a sync outbox event. Score and answer
// rows are all-or-nothing; the reward and lesson steps are best-effort within
// the same transaction (logged and skipped on failure). A missing pupil
// profile skips persistence silently.
func (s *SQLStore) SaveResult(ctx context.Context, r quiz.AttemptResult) error {
	pupilID, err := s.CurrentPupil(ctx)
	if errors.Is(err, quiz.ErrNoPupil) {
		log.Printf("store: no pupil profile, skipping result for quiz %s", r.QuizID)
		return nil
	}
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var last sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		`SELECT MAX(attempt_number) FROM pupil_test_scores WHERE pupil_id=$1 AND test_id=$2`,
		pupilID, r.QuizID).Scan(&last); err != nil {
		return err
	}
	attempt := 1
	if last.Valid {
		attempt = int(last.Int64) + 1
	}

	scoreID := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO pupil_test_scores (id, pupil_id, test_id, score, max_score, taken_at, grade, attempt_number)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		scoreID, pupilID, r.QuizID, r.Score, r.MaxScore, r.CompletedAt.Unix(), r.Grade, attempt); err != nil {
		return err
	}

	if r.Grade == 100 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET pupil_points = pupil_points + 1 WHERE user_id=$1`, pupilID); err != nil {
			log.Printf("store: award bonus point: %v", err)
		}
	}

	if r.Grade >= r.PassingPercent {
		if err := s.markContentDone(ctx, tx, r); err != nil {
			log.Printf("store: mark content done: %v", err)
		}
	}

	for _, a := range r.Answers {
		choiceID := sql.NullString{String: a.ChoiceID, Valid: a.ChoiceID != ""}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pupil_answers (id, pupil_id, question_id, choice_id, answer_text)
			 VALUES ($1,$2,$3,$4,$5)`,
			uuid.NewString(), pupilID, a.QuestionID, choiceID, a.Text); err != nil {
			return err
		}
	}

	payload, _ := json.Marshal(map[string]any{
		"pupil_id": pupilID,
		"test_id":  r.QuizID,
		"score":    r.Score,
		"grade":    r.Grade,
		"attempt":  attempt,
	})
	if err := syncx.Append(ctx, tx, syncx.Event{
		Type: syncx.EventScoreSaved, Key: scoreID, DataJSON: string(payload),
	}); err != nil {
		log.Printf("store: append sync event: %v", err)
	}

	return tx.Commit()
}

// markContentDone flags the quiz's content record and recomputes the parent
// lesson's aggregate progress.
func (s *SQLStore) markContentDone(ctx context.Context, tx *sql.Tx, r quiz.AttemptResult) error {
	var lessonID string
	err := tx.QueryRowContext(ctx,
		`SELECT lesson_belong FROM subject_contents WHERE content_id=$1 OR server_content_id=$1`,
		r.ContentID).Scan(&lessonID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil // quiz not linked to tracked content
	}
	if err != nil {
		return err
	}

	duration := int64(r.CompletedAt.Sub(r.StartedAt).Seconds())
	if _, err := tx.ExecContext(ctx,
		`UPDATE subject_contents SET done=1, started_at=$1, completed_at=$2, duration=$3
		 WHERE content_id=$4 OR server_content_id=$4`,
		r.StartedAt.Unix(), r.CompletedAt.Unix(), duration, r.ContentID); err != nil {
		return err
	}

	var total, done int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(done),0) FROM subject_contents WHERE lesson_belong=$1`,
		lessonID).Scan(&total, &done); err != nil {
		return err
	}
	progress := 0.0
	if total > 0 {
		progress = float64(done) / float64(total)
	}
	status := "in_progress"
	var completedAt sql.NullInt64
	if total > 0 && done == total {
		status = "completed"
		completedAt = sql.NullInt64{Int64: r.CompletedAt.Unix(), Valid: true}
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE lessons SET status=$1, progress=$2, last_accessed=$3, completed_at=$4
		 WHERE lesson_id=$5`,
		status, progress, s.now().Unix(), completedAt, lessonID)
	return err
}

// ScoreRow is one attempt history entry.
type ScoreRow struct {
	ID            string `json:"id"`
	PupilID       string `json:"pupil_id"`
	TestID        string `json:"test_id"`
	Score         int    `json:"score"`
	MaxScore      int    `json:"max_score"`
	Grade         int    `json:"grade"`
	AttemptNumber int    `json:"attempt_number"`
	TakenAt       int64  `json:"taken_at"`
}

// ListScores returns attempt history, newest first, optionally filtered by
// quiz and pupil.
func (s *SQLStore) ListScores(ctx context.Context, testID, pupilID string) ([]ScoreRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pupil_id, test_id, score, max_score, grade, attempt_number, taken_at
		 FROM pupil_test_scores
		 WHERE ($1='' OR test_id=$1) AND ($2='' OR pupil_id=$2)
		 ORDER BY taken_at DESC, attempt_number DESC`,
		testID, pupilID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScoreRow
	for rows.Next() {
		var r ScoreRow
		if err := rows.Scan(&r.ID, &r.PupilID, &r.TestID, &r.Score, &r.MaxScore,
			&r.Grade, &r.AttemptNumber, &r.TakenAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Lesson is the aggregate progress view served to the lesson list screen.
type Lesson struct {
	LessonID     string  `json:"lesson_id"`
	Title        string  `json:"title"`
	Status       string  `json:"status"`
	Progress     float64 `json:"progress"`
	LastAccessed *int64  `json:"last_accessed,omitempty"`
	CompletedAt  *int64  `json:"completed_at,omitempty"`
}

func (s *SQLStore) Lesson(ctx context.Context, lessonID string) (Lesson, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT lesson_id, title, status, progress, last_accessed, completed_at
		 FROM lessons WHERE lesson_id=$1`, lessonID)
	var l Lesson
	var accessed, completed sql.NullInt64
	if err := row.Scan(&l.LessonID, &l.Title, &l.Status, &l.Progress, &accessed, &completed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Lesson{}, errors.New("lesson not found")
		}
		return Lesson{}, err
	}
	if accessed.Valid {
		l.LastAccessed = &accessed.Int64
	}
	if completed.Valid {
		l.CompletedAt = &completed.Int64
	}
	return l, nil
}

// Credentials returns the user id and bcrypt hash for a username.
func (s *SQLStore) Credentials(ctx context.Context, username string) (userID, passwordHash string, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, password_hash FROM users WHERE username=$1 AND is_active=1`, username)
	if err := row.Scan(&userID, &passwordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", quiz.ErrNoPupil
		}
		return "", "", err
	}
	return userID, passwordHash, nil
}

// PupilPoints reads the accumulated bonus points for a profile.
func (s *SQLStore) PupilPoints(ctx context.Context, userID string) (int, error) {
	var points int
	err := s.db.QueryRowContext(ctx,
		`SELECT pupil_points FROM users WHERE user_id=$1`, userID).Scan(&points)
	return points, err
}

// UpsertPupil creates or refreshes the local profile; used by init-db.
func (s *SQLStore) UpsertPupil(ctx context.Context, username, displayName, passwordHash string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id FROM users WHERE username=$1`, username).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO users (user_id, username, display_name, password_hash) VALUES ($1,$2,$3,$4)`,
			id, username, displayName, passwordHash)
	case err == nil:
		_, err = s.db.ExecContext(ctx,
			`UPDATE users SET display_name=$1, password_hash=$2, is_active=1 WHERE user_id=$3`,
			displayName, passwordHash, id)
	}
	return id, err
}
