// Package http exposes the quiz engine to the mobile shell over a small
// local API.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pupilpath/quizcore/internal/content"
	"github.com/pupilpath/quizcore/internal/quiz"
)

// StartSessionHandler loads a quiz definition and opens a session.
// Body: { "uri": "...", "practice": false }
func StartSessionHandler(eng *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URI      string `json:"uri"`
			Practice bool   `json:"practice"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.URI == "" {
			http.Error(w, "uri required", http.StatusBadRequest)
			return
		}
		s, err := eng.Start(r.Context(), req.URI, req.Practice)
		if err != nil {
			writeError(w, err)
			return
		}
		writeView(w, s)
	}
}

func GetSessionHandler(eng *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := eng.Session(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeView(w, s)
	}
}

// DropSessionHandler forgets a session when its screen is torn down.
func DropSessionHandler(eng *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng.Drop(chi.URLParam(r, "sessionID"))
		w.WriteHeader(http.StatusNoContent)
	}
}

// UnlockHandler tries the closed-mode password. A mismatch keeps the modal
// open; retries are unlimited.
func UnlockHandler(eng *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := eng.Session(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeError(w, err)
			return
		}
		var req struct {
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := s.Unlock(req.Password); err != nil {
			writeError(w, err)
			return
		}
		writeView(w, s)
	}
}

// SelectAnswerHandler records a multichoice/truefalse pick.
func SelectAnswerHandler(eng *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := eng.Session(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeError(w, err)
			return
		}
		var req struct {
			QuestionID string `json:"question_id"`
			Value      string `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := s.SelectAnswer(req.QuestionID, req.Value); err != nil {
			writeError(w, err)
			return
		}
		writeView(w, s)
	}
}

// ToggleChoiceHandler flips one multiselect choice.
func ToggleChoiceHandler(eng *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := eng.Session(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeError(w, err)
			return
		}
		var req struct {
			QuestionID string `json:"question_id"`
			Choice     string `json:"choice"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := s.ToggleChoice(req.QuestionID, req.Choice); err != nil {
			writeError(w, err)
			return
		}
		writeView(w, s)
	}
}

// EnumerationTextHandler stores the free-text enumeration answer.
func EnumerationTextHandler(eng *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := eng.Session(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeError(w, err)
			return
		}
		var req struct {
			QuestionID string `json:"question_id"`
			Text       string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := s.SetEnumerationText(req.QuestionID, req.Text); err != nil {
			writeError(w, err)
			return
		}
		writeView(w, s)
	}
}

// NextHandler is the "Next" button. The engine exposes reveal and advance as
// separate operations; this layer picks based on the lock state, so the first
// press on an ungraded enumeration/multiselect question surfaces feedback and
// the second one moves forward.
func NextHandler(eng *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := eng.Session(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if s.NeedsReveal() {
			err = s.RevealFeedback()
		} else {
			err = eng.Forward(r.Context(), s)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeView(w, s)
	}
}

func BackHandler(eng *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := eng.Session(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if err := s.Retreat(); err != nil {
			writeError(w, err)
			return
		}
		writeView(w, s)
	}
}

func JumpHandler(eng *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := eng.Session(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeError(w, err)
			return
		}
		var req struct {
			Index int `json:"index"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := s.JumpTo(req.Index); err != nil {
			writeError(w, err)
			return
		}
		writeView(w, s)
	}
}

func writeView(w http.ResponseWriter, s *quiz.Session) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.View())
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, quiz.ErrSessionNotFound), errors.Is(err, quiz.ErrQuestionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, quiz.ErrWrongPassword):
		status = http.StatusUnauthorized
	case errors.Is(err, quiz.ErrQuizLocked),
		errors.Is(err, quiz.ErrSessionFinished),
		errors.Is(err, quiz.ErrFeedbackPending),
		errors.Is(err, quiz.ErrNavigationBlocked),
		errors.Is(err, quiz.ErrWrongQuestionType):
		status = http.StatusConflict
	case errors.Is(err, content.ErrLoad):
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}
