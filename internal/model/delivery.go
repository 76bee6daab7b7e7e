package model

import (
	"github.com/google/uuid"
)

// DeliveredQuestion is a question as shown to a candidate: the correct answer
// and authoring metadata (level, tags) are stripped. QuestionID stays so the
// client keys its answers by a stable identifier rather than prompt text.
type DeliveredQuestion struct {
	QuestionID   uuid.UUID `json:"question_id"`
	Prompt       string    `json:"question"`
	Options      []string  `json:"options"`
	Mark         FlexFloat `json:"mark"`
	NegativeMark FlexFloat `json:"negative_mark"`
}

// DeliveredPaper is the question subset/ordering actually served to one
// candidate for one attempt.
type DeliveredPaper struct {
	ContestID       string              `json:"contest_id"`
	AssessmentName  string              `json:"assessment_name"`
	DurationMinutes int                 `json:"duration_minutes"`
	Questions       []DeliveredQuestion `json:"questions"`
}

// AnswerSet maps question_id -> the candidate's chosen option value.
// Unanswered questions are absent and grade as incorrect.
type AnswerSet map[string]string

// SubmitRequest is a candidate's answer submission.
type SubmitRequest struct {
	Answers            AnswerSet `json:"answers" binding:"required"`
	FullscreenWarnings int       `json:"fullscreen_warnings" binding:"min=0"`
	NoiseWarnings      int       `json:"noise_warnings" binding:"min=0"`
	FaceWarnings       int       `json:"face_warnings" binding:"min=0"`
}

// GradeResult is the outcome of scoring one answer set against a contest.
type GradeResult struct {
	ContestID  string             `json:"contest_id"`
	Score      float64            `json:"score"`
	TotalMarks float64            `json:"total_marks"`
	Percentage float64            `json:"percentage"`
	Grade      Grade              `json:"grade"`
	Attended   []AttendedQuestion `json:"-"`
}
