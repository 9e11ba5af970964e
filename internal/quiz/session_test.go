package quiz_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/pupilpath/quizcore/internal/quiz"
)

func startSession(t *testing.T, def func() *quiz.Definition) *quiz.Session {
	t.Helper()
	eng := newTestEngine(t, def, &recordStore{}, nil)
	s, err := eng.Start(context.Background(), "quiz://test", false)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return s
}

func withSettings(base func() *quiz.Definition, mut func(*quiz.Settings)) func() *quiz.Definition {
	return func() *quiz.Definition {
		d := base()
		mut(&d.Settings)
		return d
	}
}

func mixedInstant() *quiz.Definition {
	return &quiz.Definition{
		QuizID:   "quiz-mixed",
		Settings: quiz.Settings{InstantFeedback: true, MaxScore: 4},
		Questions: []quiz.Question{
			{ID: "q1", Type: quiz.Multichoice, Choices: []quiz.Choice{
				{ID: "c1", Text: "right", Points: 1},
				{ID: "c2", Text: "wrong", Points: 0},
			}},
			{ID: "q2", Type: quiz.Multiselect, Choices: []quiz.Choice{
				{ID: "c3", Text: "A", Points: 1},
				{ID: "c4", Text: "B", Points: 0},
			}},
			{ID: "q3", Type: quiz.Enumeration, Answer: quiz.AnswerKey{"red", "blue"}},
		},
	}
}

func TestNonInstantSessionNeverLocks(t *testing.T) {
	s := startSession(t, twoMultichoice)

	if err := s.SelectAnswer("q1", "3"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if v := s.View(); v.QuestionLocked || v.Feedback != nil {
		t.Fatalf("non-instant select must not lock or grade: %+v", v)
	}
	// Changing the answer stays allowed for the whole session.
	if err := s.SelectAnswer("q1", "2"); err != nil {
		t.Fatalf("re-select: %v", err)
	}
	if _, err := s.MoveForward(); err != nil {
		t.Fatalf("forward: %v", err)
	}
	if v := s.View(); v.QuestionLocked {
		t.Fatalf("q2 must be unlocked: %+v", v)
	}
}

func TestInstantFeedbackLocksOnSelect(t *testing.T) {
	s := startSession(t, mixedInstant)

	if err := s.SelectAnswer("q1", "wrong"); err != nil {
		t.Fatalf("select: %v", err)
	}
	v := s.View()
	if !v.QuestionLocked {
		t.Fatal("instant-feedback select must lock the question")
	}
	if v.Feedback == nil || v.Feedback.Correct || v.Feedback.Tone != "red" {
		t.Fatalf("want incorrect red feedback, got %+v", v.Feedback)
	}

	// Locked answers are immutable: the late pick must not overwrite.
	if err := s.SelectAnswer("q1", "right"); err != nil {
		t.Fatalf("second select: %v", err)
	}
	if _, err := s.MoveForward(); err != nil {
		t.Fatalf("forward: %v", err)
	}
	_ = s.RevealFeedback() // q2
	finish(t, s)
	if v := s.View(); v.Score != 0 {
		t.Fatalf("locked answer must keep the first pick, score %d", v.Score)
	}
}

// finish drives the session to its terminal state revealing where needed.
func finish(t *testing.T, s *quiz.Session) {
	t.Helper()
	for i := 0; i < 20; i++ {
		if s.View().Finished {
			return
		}
		if s.NeedsReveal() {
			if err := s.RevealFeedback(); err != nil {
				t.Fatalf("reveal: %v", err)
			}
			continue
		}
		if _, err := s.MoveForward(); err != nil {
			t.Fatalf("forward: %v", err)
		}
	}
	t.Fatal("session did not finish")
}

func TestTwoStepRevealForMultiselectAndEnumeration(t *testing.T) {
	s := startSession(t, mixedInstant)
	_ = s.SelectAnswer("q1", "right")
	if _, err := s.MoveForward(); err != nil {
		t.Fatalf("forward to q2: %v", err)
	}

	_ = s.ToggleChoice("q2", "A")
	if !s.NeedsReveal() {
		t.Fatal("multiselect under instant feedback owes a reveal step")
	}
	// First "Next" press must not advance.
	if _, err := s.MoveForward(); !errors.Is(err, quiz.ErrFeedbackPending) {
		t.Fatalf("want ErrFeedbackPending, got %v", err)
	}
	if s.View().Index != 1 {
		t.Fatalf("index must not move, got %d", s.View().Index)
	}
	if err := s.RevealFeedback(); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	v := s.View()
	if !v.QuestionLocked || v.Feedback == nil || !v.Feedback.Correct {
		t.Fatalf("reveal must lock and grade: %+v", v)
	}
	// Second press advances and clears feedback.
	if _, err := s.MoveForward(); err != nil {
		t.Fatalf("second press: %v", err)
	}
	if v := s.View(); v.Index != 2 || v.Feedback != nil {
		t.Fatalf("want index 2 with no feedback, got %+v", v)
	}
}

func TestLockIsMonotonic(t *testing.T) {
	s := startSession(t, mixedInstant)
	_ = s.SelectAnswer("q1", "right")
	_, _ = s.MoveForward()
	_ = s.ToggleChoice("q2", "A")
	_ = s.RevealFeedback()

	// Toggling after the lock must not mutate the answer.
	_ = s.ToggleChoice("q2", "B")
	_, _ = s.MoveForward()
	_ = s.SetEnumerationText("q3", "red")
	_ = s.RevealFeedback()
	_ = s.SetEnumerationText("q3", "red, blue") // locked, ignored
	finish(t, s)
	// q1=1, q2=A only=1, q3=red only=1
	if v := s.View(); v.Score != 3 {
		t.Fatalf("locked answers must stay frozen, score %d", v.Score)
	}
}

func TestRetreatRules(t *testing.T) {
	back := withSettings(twoMultichoice, func(s *quiz.Settings) { s.AllowBack = true })
	s := startSession(t, back)
	if err := s.Retreat(); err != nil {
		t.Fatalf("retreat at index 0 is a no-op, got %v", err)
	}
	_, _ = s.MoveForward()
	if err := s.Retreat(); err != nil {
		t.Fatalf("retreat: %v", err)
	}
	if s.View().Index != 0 {
		t.Fatalf("want index 0, got %d", s.View().Index)
	}

	// Instant-feedback sessions are forward-only even with allowBack.
	fwd := withSettings(twoMultichoice, func(st *quiz.Settings) {
		st.AllowBack = true
		st.InstantFeedback = true
	})
	s2 := startSession(t, fwd)
	_ = s2.SelectAnswer("q1", "2")
	_, _ = s2.MoveForward()
	if err := s2.Retreat(); err != nil {
		t.Fatalf("retreat should silently no-op: %v", err)
	}
	if s2.View().Index != 1 {
		t.Fatalf("instant feedback must not go back, index %d", s2.View().Index)
	}
}

func TestJumpRules(t *testing.T) {
	noBack := startSession(t, twoMultichoice)
	if err := noBack.JumpTo(1); !errors.Is(err, quiz.ErrNavigationBlocked) {
		t.Fatalf("jump without allowBack: want blocked, got %v", err)
	}
	if err := noBack.JumpTo(0); err != nil {
		t.Fatalf("jump to current index is allowed: %v", err)
	}

	back := startSession(t, withSettings(twoMultichoice, func(s *quiz.Settings) { s.AllowBack = true }))
	if err := back.JumpTo(1); err != nil {
		t.Fatalf("jump with allowBack: %v", err)
	}
	if err := back.JumpTo(5); !errors.Is(err, quiz.ErrNavigationBlocked) {
		t.Fatalf("out of range: want blocked, got %v", err)
	}

	instant := startSession(t, withSettings(twoMultichoice, func(s *quiz.Settings) { s.InstantFeedback = true }))
	if err := instant.JumpTo(0); !errors.Is(err, quiz.ErrNavigationBlocked) {
		t.Fatalf("instant feedback rejects jumps, got %v", err)
	}
}

func TestClosedModeGatesEverything(t *testing.T) {
	closed := withSettings(twoMultichoice, func(s *quiz.Settings) {
		s.Mode = quiz.ModeClose
		s.Password = "s3cret"
	})
	s := startSession(t, closed)

	v := s.View()
	if !v.Locked || v.Question != nil {
		t.Fatalf("closed quiz must hide content until unlock: %+v", v)
	}
	if _, err := s.MoveForward(); !errors.Is(err, quiz.ErrQuizLocked) {
		t.Fatalf("advance before unlock: want ErrQuizLocked, got %v", err)
	}
	if s.View().Index != 0 {
		t.Fatalf("advance before unlock must not move the index")
	}
	if err := s.SelectAnswer("q1", "2"); !errors.Is(err, quiz.ErrQuizLocked) {
		t.Fatalf("answer before unlock: want ErrQuizLocked, got %v", err)
	}

	// Wrong password keeps the gate shut, retries unlimited.
	for i := 0; i < 3; i++ {
		if err := s.Unlock("nope"); !errors.Is(err, quiz.ErrWrongPassword) {
			t.Fatalf("want ErrWrongPassword, got %v", err)
		}
	}
	if err := s.Unlock("s3cret"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if err := s.Unlock("anything"); err != nil {
		t.Fatalf("second unlock is a no-op: %v", err)
	}
	if err := s.SelectAnswer("q1", "2"); err != nil {
		t.Fatalf("answer after unlock: %v", err)
	}
}

func TestShuffleIsAPermutation(t *testing.T) {
	def := &quiz.Definition{
		QuizID:   "quiz-shuffled",
		Settings: quiz.Settings{ShuffleQuestions: true, ShuffleChoices: true},
	}
	for i := 0; i < 8; i++ {
		q := quiz.Question{
			ID:   string(rune('a' + i)),
			Type: quiz.Multichoice,
			Choices: []quiz.Choice{
				{ID: "c1", Text: "one", Points: 1},
				{ID: "c2", Text: "two"},
				{ID: "c3", Text: "three"},
			},
		}
		def.Questions = append(def.Questions, q)
	}
	// Enumeration question without choices must survive the choice pass.
	def.Questions = append(def.Questions, quiz.Question{ID: "enum", Type: quiz.Enumeration, Answer: quiz.AnswerKey{"x"}})

	before := map[string]int{}
	for _, q := range def.Questions {
		before[q.ID]++
	}

	def.Shuffle(rand.New(rand.NewSource(42)))

	after := map[string]int{}
	for _, q := range def.Questions {
		after[q.ID]++
		choiceIDs := map[string]int{}
		for _, c := range q.Choices {
			choiceIDs[c.ID]++
		}
		if q.Type == quiz.Multichoice && (len(q.Choices) != 3 || choiceIDs["c1"] != 1 || choiceIDs["c2"] != 1 || choiceIDs["c3"] != 1) {
			t.Fatalf("question %s: choices not a permutation: %+v", q.ID, q.Choices)
		}
	}
	if len(after) != len(before) {
		t.Fatalf("question multiset changed: %v vs %v", before, after)
	}
	for id, n := range before {
		if after[id] != n {
			t.Fatalf("question %s count changed", id)
		}
	}
}

func TestEnumerationAnswerRecordKeepsFreeText(t *testing.T) {
	s := startSession(t, mixedInstant)
	_ = s.SelectAnswer("q1", "right")
	_, _ = s.MoveForward()
	_ = s.ToggleChoice("q2", "A")
	_ = s.ToggleChoice("q2", "B")
	_ = s.RevealFeedback()
	_, _ = s.MoveForward()
	_ = s.SetEnumerationText("q3", "red, green")
	_ = s.RevealFeedback()
	finish(t, s)

	r := s.Result()
	// q1 one row, q2 two rows (one per selected choice), q3 one free-text row.
	if len(r.Answers) != 4 {
		t.Fatalf("want 4 answer records, got %+v", r.Answers)
	}
	last := r.Answers[3]
	if last.QuestionID != "q3" || last.ChoiceID != "" || last.Text != "red, green" {
		t.Fatalf("enumeration record: %+v", last)
	}
	if r.Answers[1].ChoiceID != "c3" || r.Answers[2].ChoiceID != "c4" {
		t.Fatalf("multiselect records: %+v", r.Answers[1:3])
	}
}
