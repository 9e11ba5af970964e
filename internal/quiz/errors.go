package quiz

import "errors"

var (
	// ErrQuizLocked is returned while a closed-mode quiz has not been unlocked.
	ErrQuizLocked = errors.New("quiz is password-protected and still locked")
	// ErrWrongPassword is returned on a failed unlock; the caller may retry.
	ErrWrongPassword = errors.New("wrong quiz password")
	// ErrQuestionNotFound indicates an unknown question id.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrWrongQuestionType indicates an operation applied to an incompatible variant.
	ErrWrongQuestionType = errors.New("operation not valid for this question type")
	// ErrFeedbackPending blocks forward navigation until feedback is revealed.
	ErrFeedbackPending = errors.New("reveal feedback before moving forward")
	// ErrNavigationBlocked rejects back/jump navigation the settings forbid.
	ErrNavigationBlocked = errors.New("navigation not allowed")
	// ErrSessionFinished is returned for mutations after the terminal transition.
	ErrSessionFinished = errors.New("session already finished")
	// ErrSessionNotFound indicates an unknown session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoPupil signals that no local pupil profile exists; persistence is skipped.
	ErrNoPupil = errors.New("no pupil profile")
)
