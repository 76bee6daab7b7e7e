package model

import (
	"time"

	"github.com/google/uuid"
)

// RecordStatus tracks a candidate's progress through a contest.
// The only transition is NotStarted -> Completed; resubmission refreshes
// record content but the status tag stays Completed.
type RecordStatus string

const (
	RecordStatusNotStarted RecordStatus = "NotStarted"
	RecordStatusCompleted  RecordStatus = "Completed"
)

// Grade is the pass/fail outcome.
type Grade string

const (
	GradePass Grade = "Pass"
	GradeFail Grade = "Fail"
)

// AttendedQuestion records what a candidate saw and answered for one question.
// CandidateAnswer is nil when the question was left unanswered.
type AttendedQuestion struct {
	QuestionID      uuid.UUID `json:"question_id"`
	Prompt          string    `json:"question"`
	CandidateAnswer *string   `json:"candidate_answer"`
	CorrectAnswer   string    `json:"correct_answer"`
}

// ProctorCounters aggregates proctoring warnings observed during an attempt.
type ProctorCounters struct {
	FullscreenWarnings int `json:"fullscreen_warnings"`
	NoiseWarnings      int `json:"noise_warnings"`
	FaceWarnings       int `json:"face_warnings"`
}

// GradeRecord is one candidate's grading outcome within a contest.
// At most one exists per (contest, candidate); resubmission overwrites
// its mutable fields in place.
type GradeRecord struct {
	CandidateID string             `json:"candidate_id"`
	Status      RecordStatus       `json:"status"`
	Grade       Grade              `json:"grade"`
	Score       float64            `json:"score"`
	TotalMarks  float64            `json:"total_marks"`
	Percentage  float64            `json:"percentage"`
	Attended    []AttendedQuestion `json:"attended_questions"`
	Proctor     ProctorCounters    `json:"proctor_counters"`
	StartTime   time.Time          `json:"start_time"`
	FinishTime  time.Time          `json:"finish_time"`
}

// LedgerEntry is the per-contest collection of all grade records plus the
// publish gate. IsPublished moves false -> true exactly once.
type LedgerEntry struct {
	ContestID   string        `json:"contest_id"`
	Candidates  []GradeRecord `json:"candidates"`
	IsPublished bool          `json:"is_published"`
}

// ProctorEventKind names one class of proctoring warning.
type ProctorEventKind string

const (
	ProctorEventFullscreen ProctorEventKind = "fullscreen"
	ProctorEventNoise      ProctorEventKind = "noise"
	ProctorEventFace       ProctorEventKind = "face"
)

// ProctorEvent is a single proctoring warning emitted by a candidate's
// browser during an attempt. Events are queued and folded into counters
// asynchronously.
type ProctorEvent struct {
	ContestID   string           `json:"contest_id"`
	CandidateID string           `json:"candidate_id"`
	Kind        ProctorEventKind `json:"kind"`
	ObservedAt  time.Time        `json:"observed_at"`
}

// ProctorDelta is a batch-aggregated counter increment for one candidate
// in one contest.
type ProctorDelta struct {
	ContestID   string
	CandidateID string
	Counters    ProctorCounters
}

// AttendedQuestionView is the display form of an attended question.
type AttendedQuestionView struct {
	ID              int    `json:"id"`
	Prompt          string `json:"question"`
	CandidateAnswer string `json:"candidate_answer"`
	CorrectAnswer   string `json:"correct_answer"`
	IsCorrect       bool   `json:"is_correct"`
}

// CandidateReportView projects a GradeRecord for display. CorrectCount is
// derived by re-comparing stored answers; unanswered questions are excluded
// from the attended list.
type CandidateReportView struct {
	ContestID      string                 `json:"contest_id"`
	CandidateID    string                 `json:"candidate_id"`
	Status         RecordStatus           `json:"status"`
	Grade          Grade                  `json:"grade"`
	Score          float64                `json:"score"`
	TotalMarks     float64                `json:"total_marks"`
	Percentage     float64                `json:"percentage"`
	StartTime      time.Time              `json:"start_time"`
	FinishTime     time.Time              `json:"finish_time"`
	Proctor        ProctorCounters        `json:"proctor_counters"`
	Attended       []AttendedQuestionView `json:"attended_questions"`
	CorrectCount   int                    `json:"correct_count"`
	PassPercentage float64                `json:"pass_percentage"`
}
