package quiz

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pupilpath/quizcore/internal/feedback"
)

// ContentLoader fetches and parses a quiz definition from a file path or URL.
type ContentLoader interface {
	Load(ctx context.Context, uri string) (*Definition, error)
}

// ResultStore persists finished attempts. Implementations resolve the current
// pupil themselves and treat a missing profile as a silent skip.
type ResultStore interface {
	SaveResult(ctx context.Context, r AttemptResult) error
}

// RewardSink receives the fire-and-forget perfect-score signal the
// presentation layer turns into a badge animation.
type RewardSink interface {
	RewardEarned(quizID string)
}

// Engine owns the live sessions and runs one attempt per session from load to
// persisted result.
type Engine struct {
	loader  ContentLoader
	store   ResultStore
	pool    *feedback.Pool
	rewards RewardSink
	rnd     *rand.Rand
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

type EngineOption func(*Engine)

// WithRand injects the shuffle source, for deterministic tests.
func WithRand(rnd *rand.Rand) EngineOption { return func(e *Engine) { e.rnd = rnd } }

// WithClock injects the time source, for deterministic tests.
func WithClock(now func() time.Time) EngineOption { return func(e *Engine) { e.now = now } }

// WithFeedbackPool overrides the default message pools.
func WithFeedbackPool(p *feedback.Pool) EngineOption { return func(e *Engine) { e.pool = p } }

// WithRewardSink wires the perfect-score signal.
func WithRewardSink(r RewardSink) EngineOption { return func(e *Engine) { e.rewards = r } }

func NewEngine(loader ContentLoader, store ResultStore, opts ...EngineOption) *Engine {
	e := &Engine{
		loader:   loader,
		store:    store,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, o := range opts {
		o(e)
	}
	if e.pool == nil {
		e.pool = feedback.NewPool()
	}
	return e
}

// Start loads a definition, applies the shuffle settings (questions first,
// then each question's choices), and registers a fresh session. Closed-mode
// quizzes come back locked and inert until Unlock succeeds.
func (e *Engine) Start(ctx context.Context, uri string, practice bool) (*Session, error) {
	def, err := e.loader.Load(ctx, uri)
	if err != nil {
		return nil, err
	}
	def.Shuffle(e.rnd)

	s := newSession(uuid.NewString(), def, practice, e.pool, e.now)
	e.mu.Lock()
	e.sessions[s.id] = s
	e.mu.Unlock()
	return s, nil
}

// Session looks up a live session by id.
func (e *Engine) Session(id string) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Drop forgets a session, typically when the screen is torn down.
func (e *Engine) Drop(id string) {
	e.mu.Lock()
	delete(e.sessions, id)
	e.mu.Unlock()
}

// Forward moves the session on and, on the terminal transition of a
// non-practice attempt, persists the result. Persistence is best-effort from
// the UI's perspective: failures are logged and the result still surfaces.
func (e *Engine) Forward(ctx context.Context, s *Session) error {
	finished, err := s.MoveForward()
	if err != nil {
		return err
	}
	if !finished {
		return nil
	}

	r := s.Result()
	if !s.Practice() {
		if err := e.store.SaveResult(ctx, r); err != nil {
			log.Printf("quiz %s: save result: %v", r.QuizID, err)
		}
	}
	if r.Grade == 100 && !s.Practice() && e.rewards != nil {
		e.rewards.RewardEarned(r.QuizID)
	}
	return nil
}
