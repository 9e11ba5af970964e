package quiz

import (
	"sync"
	"time"

	"github.com/pupilpath/quizcore/internal/feedback"
)

// Feedback is the transient per-question message surfaced after grading.
// Cleared on every navigation.
type Feedback struct {
	Message string `json:"message"`
	Tone    string `json:"tone"`
	Correct bool   `json:"correct"`
}

// Session drives one quiz attempt from load to the terminal transition.
// All methods are safe for the single UI goroutine plus the HTTP handlers.
type Session struct {
	mu       sync.Mutex
	id       string
	def      *Definition
	practice bool

	unlocked bool // false until the closed-mode password is accepted
	cur      int
	answers  map[string]interface{}
	locked   map[string]bool
	feedback *Feedback

	startedAt   time.Time
	completedAt time.Time
	score       int
	finished    bool

	now  func() time.Time
	pool *feedback.Pool
}

func newSession(id string, def *Definition, practice bool, pool *feedback.Pool, now func() time.Time) *Session {
	s := &Session{
		id:       id,
		def:      def,
		practice: practice,
		unlocked: def.Settings.Mode != ModeClose,
		answers:  make(map[string]interface{}),
		locked:   make(map[string]bool),
		now:      now,
		pool:     pool,
	}
	if s.unlocked {
		s.startedAt = now()
	}
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Definition() *Definition { return s.def }

func (s *Session) Practice() bool { return s.practice }

// Unlock matches the supplied password against the closed-mode gate.
// Mismatches are retryable without limit.
func (s *Session) Unlock(password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unlocked {
		return nil
	}
	if password != s.def.Settings.Password {
		return ErrWrongPassword
	}
	s.unlocked = true
	s.startedAt = s.now()
	return nil
}

// SelectAnswer records a multichoice/truefalse pick. Locked questions are a
// silent no-op. Under instant feedback the question grades and locks here.
func (s *Session) SelectAnswer(questionID, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.answerable(); err != nil {
		return err
	}
	q := s.def.Question(questionID)
	if q == nil {
		return ErrQuestionNotFound
	}
	if q.Type != Multichoice && q.Type != TrueFalse {
		return ErrWrongQuestionType
	}
	if s.locked[questionID] {
		return nil
	}
	s.answers[questionID] = value
	if s.def.Settings.InstantFeedback {
		s.gradeLocked(q, value)
	}
	return nil
}

// ToggleChoice adds or removes a choice text from a multiselect answer.
// Never locks; multiselect grades on reveal.
func (s *Session) ToggleChoice(questionID, choiceText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.answerable(); err != nil {
		return err
	}
	q := s.def.Question(questionID)
	if q == nil {
		return ErrQuestionNotFound
	}
	if q.Type != Multiselect {
		return ErrWrongQuestionType
	}
	if s.locked[questionID] {
		return nil
	}
	cur, _ := toStringSlice(s.answers[questionID])
	for i, t := range cur {
		if t == choiceText {
			s.answers[questionID] = append(cur[:i], cur[i+1:]...)
			return nil
		}
	}
	s.answers[questionID] = append(cur, choiceText)
	return nil
}

// SetEnumerationText stores the raw comma-separated response. Never locks.
func (s *Session) SetEnumerationText(questionID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.answerable(); err != nil {
		return err
	}
	q := s.def.Question(questionID)
	if q == nil {
		return ErrQuestionNotFound
	}
	if q.Type != Enumeration {
		return ErrWrongQuestionType
	}
	if s.locked[questionID] {
		return nil
	}
	s.answers[questionID] = text
	return nil
}

// NeedsReveal reports whether the current question still owes the user its
// feedback before the session may move forward. Only enumeration and
// multiselect questions reveal on an explicit step; the choice variants lock
// on select.
func (s *Session) NeedsReveal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.needsReveal()
}

func (s *Session) needsReveal() bool {
	if !s.unlocked || s.finished || !s.def.Settings.InstantFeedback {
		return false
	}
	q := s.def.Questions[s.cur]
	if q.Type != Enumeration && q.Type != Multiselect {
		return false
	}
	return !s.locked[q.ID]
}

// RevealFeedback grades the current question, locks it, and leaves the index
// in place. A no-op when the current question has nothing left to reveal.
func (s *Session) RevealFeedback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.answerable(); err != nil {
		return err
	}
	if !s.needsReveal() {
		return nil
	}
	q := s.def.Questions[s.cur]
	s.gradeLocked(&q, s.answers[q.ID])
	return nil
}

// MoveForward advances to the next question, or runs the terminal transition
// on the last one: score computed once, completion stamped. It refuses to
// skip pending feedback. Returns true exactly once, on the terminal
// transition.
func (s *Session) MoveForward() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.unlocked {
		return false, ErrQuizLocked
	}
	if s.finished {
		return false, ErrSessionFinished
	}
	if s.needsReveal() {
		return false, ErrFeedbackPending
	}
	s.feedback = nil
	if s.cur < len(s.def.Questions)-1 {
		s.cur++
		return false, nil
	}
	s.score = Score(s.def, s.answers)
	s.completedAt = s.now()
	s.finished = true
	return true, nil
}

// Retreat steps back one question when the settings allow it; otherwise a
// no-op. Instant-feedback sessions are forward-only.
func (s *Session) Retreat() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.unlocked {
		return ErrQuizLocked
	}
	if s.finished {
		return ErrSessionFinished
	}
	if !s.def.Settings.AllowBack || s.def.Settings.InstantFeedback || s.cur == 0 {
		return nil
	}
	s.cur--
	s.feedback = nil
	return nil
}

// JumpTo moves the pointer to an arbitrary question. Rejected under instant
// feedback, and without allowBack only the current index is accepted.
func (s *Session) JumpTo(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.unlocked {
		return ErrQuizLocked
	}
	if s.finished {
		return ErrSessionFinished
	}
	if index < 0 || index >= len(s.def.Questions) {
		return ErrNavigationBlocked
	}
	if s.def.Settings.InstantFeedback || (!s.def.Settings.AllowBack && index != s.cur) {
		return ErrNavigationBlocked
	}
	s.cur = index
	s.feedback = nil
	return nil
}

func (s *Session) answerable() error {
	if !s.unlocked {
		return ErrQuizLocked
	}
	if s.finished {
		return ErrSessionFinished
	}
	return nil
}

// gradeLocked computes the feedback bucket, picks a message, and locks the
// question. Caller holds the mutex.
func (s *Session) gradeLocked(q *Question, resp interface{}) {
	correct := Correct(*q, resp)
	msg, tone := s.pool.Pick(string(q.Type), correct)
	s.feedback = &Feedback{Message: msg, Tone: tone, Correct: correct}
	s.locked[q.ID] = true
}
