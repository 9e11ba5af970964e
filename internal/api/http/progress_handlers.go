package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pupilpath/quizcore/internal/auth"
	"github.com/pupilpath/quizcore/internal/store"
)

// ListScoresHandler serves attempt history. Defaults to the authenticated
// pupil; ?quiz_id= narrows to one quiz.
func ListScoresHandler(st *store.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pupilID := r.URL.Query().Get("pupil_id")
		if pupilID == "" {
			pupilID = auth.SubjectFromContext(r.Context())
		}
		scores, err := st.ListScores(r.Context(), r.URL.Query().Get("quiz_id"), pupilID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if scores == nil {
			scores = []store.ScoreRow{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(scores)
	}
}

// LessonHandler serves one lesson's aggregate progress.
func LessonHandler(st *store.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, err := st.Lesson(r.Context(), chi.URLParam(r, "lessonID"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(l)
	}
}
