package quiz

import (
	"math"
	"time"
)

// AnswerRecord is one persisted answer row. ChoiceID is empty when no choice
// matched (or the variant has none); the store maps that to NULL.
type AnswerRecord struct {
	QuestionID string
	ChoiceID   string
	Text       string
}

// AttemptResult is everything the result store needs to persist one finished
// attempt. The pupil id is resolved by the store itself.
type AttemptResult struct {
	QuizID         string
	ContentID      string
	Score          int
	MaxScore       int
	Grade          int // round(score/maxScore*100)
	PassingPercent int
	StartedAt      time.Time
	CompletedAt    time.Time
	Answers        []AnswerRecord
}

// Result maps the finished session onto the persistence shape. Multichoice
// and truefalse resolve the selected text back to a choice id by exact match;
// multiselect emits one record per selected choice; enumeration emits a
// single free-text record.
func (s *Session) Result() AttemptResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := AttemptResult{
		QuizID:         s.def.QuizID,
		ContentID:      s.def.ContentID,
		Score:          s.score,
		MaxScore:       s.def.Settings.MaxScore,
		PassingPercent: s.def.Settings.PassingPercent(),
		StartedAt:      s.startedAt,
		CompletedAt:    s.completedAt,
	}
	if r.MaxScore > 0 {
		r.Grade = int(math.Round(float64(r.Score) / float64(r.MaxScore) * 100))
	}

	for _, q := range s.def.Questions {
		switch q.Type {
		case Multichoice, TrueFalse:
			text, _ := s.answers[q.ID].(string)
			r.Answers = append(r.Answers, AnswerRecord{
				QuestionID: q.ID,
				ChoiceID:   matchChoiceID(q, text),
				Text:       text,
			})
		case Multiselect:
			selected, _ := toStringSlice(s.answers[q.ID])
			for _, text := range selected {
				r.Answers = append(r.Answers, AnswerRecord{
					QuestionID: q.ID,
					ChoiceID:   matchChoiceID(q, text),
					Text:       text,
				})
			}
		case Enumeration:
			text, _ := s.answers[q.ID].(string)
			r.Answers = append(r.Answers, AnswerRecord{QuestionID: q.ID, Text: text})
		}
	}
	return r
}

func matchChoiceID(q Question, text string) string {
	if text == "" {
		return ""
	}
	for _, c := range q.Choices {
		if c.Text == text {
			return c.ID
		}
	}
	return ""
}

// ChoiceView and QuestionView are the student-safe projections served to the
// UI: answer keys and per-choice points are stripped.
type ChoiceView struct {
	ID   string `json:"choice_id"`
	Text string `json:"text"`
}

type QuestionView struct {
	ID      string       `json:"id"`
	Type    QuestionType `json:"type"`
	Prompt  string       `json:"question"`
	Choices []ChoiceView `json:"choices,omitempty"`
}

type SessionView struct {
	ID              string        `json:"id"`
	QuizID          string        `json:"quizId"`
	Practice        bool          `json:"practice"`
	Locked          bool          `json:"locked"` // closed-mode gate still shut
	Index           int           `json:"index"`
	Total           int           `json:"total"`
	Question        *QuestionView `json:"question,omitempty"`
	QuestionLocked  bool          `json:"questionLocked"`
	NeedsReveal     bool          `json:"needsReveal"`
	Feedback        *Feedback     `json:"feedback,omitempty"`
	AllowBack       bool          `json:"allowBack"`
	InstantFeedback bool          `json:"instantFeedback"`
	Finished        bool          `json:"finished"`
	Score           int           `json:"score,omitempty"`
	MaxScore        int           `json:"maxScore,omitempty"`
	Grade           int           `json:"grade,omitempty"`
}

// View snapshots the session for the presentation layer. Question content is
// withheld while a closed-mode quiz is still locked.
func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := SessionView{
		ID:              s.id,
		QuizID:          s.def.QuizID,
		Practice:        s.practice,
		Locked:          !s.unlocked,
		Index:           s.cur,
		Total:           len(s.def.Questions),
		Feedback:        s.feedback,
		AllowBack:       s.def.Settings.AllowBack,
		InstantFeedback: s.def.Settings.InstantFeedback,
		Finished:        s.finished,
	}
	if s.finished {
		v.Score = s.score
		v.MaxScore = s.def.Settings.MaxScore
		if v.MaxScore > 0 {
			v.Grade = int(math.Round(float64(v.Score) / float64(v.MaxScore) * 100))
		}
		return v
	}
	if !s.unlocked {
		return v
	}

	q := s.def.Questions[s.cur]
	qv := &QuestionView{ID: q.ID, Type: q.Type, Prompt: q.Prompt}
	for _, c := range q.Choices {
		qv.Choices = append(qv.Choices, ChoiceView{ID: c.ID, Text: c.Text})
	}
	v.Question = qv
	v.QuestionLocked = s.locked[q.ID]
	v.NeedsReveal = s.needsReveal()
	return v
}
