package quiz

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// QuestionType tags the four supported question variants. Scoring and the
// session state machine switch exhaustively on this tag.
type QuestionType string

const (
	Multichoice QuestionType = "multichoice"
	TrueFalse   QuestionType = "truefalse"
	Multiselect QuestionType = "multiselect"
	Enumeration QuestionType = "enumeration"
)

func (t QuestionType) valid() bool {
	switch t {
	case Multichoice, TrueFalse, Multiselect, Enumeration:
		return true
	}
	return false
}

type Choice struct {
	ID     string `json:"choice_id"`
	Text   string `json:"text"`
	Points int    `json:"points"` // nonzero marks correctness; partial values allowed for multiselect
}

type Question struct {
	ID      string       `json:"id"`
	Type    QuestionType `json:"type"`
	Prompt  string       `json:"question"`
	Choices []Choice     `json:"choices,omitempty"` // absent for truefalse/enumeration
	Answer  AnswerKey    `json:"answer"`
	Points  int          `json:"points"`
}

// AnswerKey normalizes the variant "answer" payload (string, bool, number or
// array, depending on question type) into a string slice.
type AnswerKey []string

func (k *AnswerKey) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*k = nil
	case string:
		*k = AnswerKey{t}
	case bool:
		*k = AnswerKey{strconv.FormatBool(t)}
	case float64:
		*k = AnswerKey{strconv.FormatFloat(t, 'f', -1, 64)}
	case []interface{}:
		out := make(AnswerKey, 0, len(t))
		for _, e := range t {
			switch s := e.(type) {
			case string:
				out = append(out, s)
			case bool:
				out = append(out, strconv.FormatBool(s))
			case float64:
				out = append(out, strconv.FormatFloat(s, 'f', -1, 64))
			default:
				return fmt.Errorf("answer array element %T not supported", e)
			}
		}
		*k = out
	default:
		return fmt.Errorf("answer payload %T not supported", v)
	}
	return nil
}

const (
	ModeOpen  = "open"
	ModeClose = "close"
)

type Settings struct {
	ShuffleQuestions bool   `json:"shuffleQuestions"`
	ShuffleChoices   bool   `json:"shuffleChoices"`
	InstantFeedback  bool   `json:"instantFeedback"`
	AllowBack        bool   `json:"allowBack"`
	Mode             string `json:"mode"` // "open" | "close"
	Password         string `json:"password,omitempty"`
	MaxScore         int    `json:"maxScore"`
	PassingScore     string `json:"passingScore"` // e.g. "75%"
	Review           bool   `json:"review"`
}

// PassingPercent parses the "NN%" passing score. Unparseable values yield 0,
// which makes every finished attempt count as passing.
func (s Settings) PassingPercent() int {
	raw := strings.TrimSuffix(strings.TrimSpace(s.PassingScore), "%")
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Definition is the loaded quiz content. Immutable after load; Shuffle is the
// single permitted mutation and is applied exactly once by the engine.
type Definition struct {
	QuizID    string     `json:"quizId"`
	ContentID string     `json:"contentId"`
	Settings  Settings   `json:"settings"`
	Questions []Question `json:"questions"`
}

// Validate checks the shape produced by the content loader.
func (d *Definition) Validate() error {
	if d.QuizID == "" {
		return fmt.Errorf("missing quizId")
	}
	if len(d.Questions) == 0 {
		return fmt.Errorf("quiz %s has no questions", d.QuizID)
	}
	if d.Settings.Mode != "" && d.Settings.Mode != ModeOpen && d.Settings.Mode != ModeClose {
		return fmt.Errorf("quiz %s: unknown mode %q", d.QuizID, d.Settings.Mode)
	}
	seen := map[string]bool{}
	for i, q := range d.Questions {
		if q.ID == "" {
			return fmt.Errorf("quiz %s: question %d has no id", d.QuizID, i)
		}
		if seen[q.ID] {
			return fmt.Errorf("quiz %s: duplicate question id %q", d.QuizID, q.ID)
		}
		seen[q.ID] = true
		if !q.Type.valid() {
			return fmt.Errorf("quiz %s: question %s has unknown type %q", d.QuizID, q.ID, q.Type)
		}
		if (q.Type == Multichoice || q.Type == Multiselect) && len(q.Choices) == 0 {
			return fmt.Errorf("quiz %s: question %s of type %s has no choices", d.QuizID, q.ID, q.Type)
		}
	}
	return nil
}

// Question returns the question with the given id, or nil.
func (d *Definition) Question(id string) *Question {
	for i := range d.Questions {
		if d.Questions[i].ID == id {
			return &d.Questions[i]
		}
	}
	return nil
}

// Shuffle permutes questions and then each question's choices in place,
// honoring the shuffle settings. Questions without choices are visited but
// unaffected. Fisher-Yates on both levels.
func (d *Definition) Shuffle(rnd *rand.Rand) {
	if d.Settings.ShuffleQuestions {
		rnd.Shuffle(len(d.Questions), func(i, j int) {
			d.Questions[i], d.Questions[j] = d.Questions[j], d.Questions[i]
		})
	}
	if d.Settings.ShuffleChoices {
		for i := range d.Questions {
			cs := d.Questions[i].Choices
			rnd.Shuffle(len(cs), func(a, b int) {
				cs[a], cs[b] = cs[b], cs[a]
			})
		}
	}
}
