package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ContestStatus enumerates the possible states of a contest.
type ContestStatus string

const (
	ContestStatusActive ContestStatus = "ACTIVE"
	ContestStatusClosed ContestStatus = "CLOSED"
)

// AssessmentOverview describes the contest to candidates.
type AssessmentOverview struct {
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	RegistrationStart time.Time `json:"registration_start"`
	RegistrationEnd   time.Time `json:"registration_end"`
}

// Duration is the test length as configured by staff.
type Duration struct {
	Hours   FlexInt `json:"hours"`
	Minutes FlexInt `json:"minutes"`
}

// Total returns the duration as a time.Duration.
func (d Duration) Total() time.Duration {
	return time.Duration(d.Hours)*time.Hour + time.Duration(d.Minutes)*time.Minute
}

// DefaultPassPercentage applies when the configuration leaves the threshold unset.
const DefaultPassPercentage = 50

// TestConfiguration holds the declarative delivery and grading rules.
type TestConfiguration struct {
	Duration         Duration  `json:"duration"`
	QuestionCount    FlexInt   `json:"questions"`
	ShuffleQuestions bool      `json:"shuffle_questions"`
	PassPercentage   FlexFloat `json:"pass_percentage"`
	// ApplyNegativeMarks controls whether a wrong answer subtracts the
	// question's negative mark from the running score. Off by default.
	ApplyNegativeMarks bool `json:"apply_negative_marks"`
}

// EffectivePassPercentage returns the configured threshold or the default.
func (c TestConfiguration) EffectivePassPercentage() float64 {
	if c.PassPercentage <= 0 {
		return DefaultPassPercentage
	}
	return float64(c.PassPercentage)
}

// Question is a single bank entry. QuestionID is assigned at authoring time
// and is the stable key for all answer correlation.
type Question struct {
	QuestionID     uuid.UUID `json:"question_id"`
	Prompt         string    `json:"question"`
	Options        []string  `json:"options"`
	CorrectAnswer  string    `json:"correct_answer"`
	Mark           FlexFloat `json:"mark"`
	NegativeMark   FlexFloat `json:"negative_mark"`
	RandomizeOrder bool      `json:"randomize_order"`
	Level          string    `json:"level,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
}

// Validate enforces authoring-time invariants. Grading trusts the stored key,
// so a bad correct answer must be rejected here, not at grading time.
func (q *Question) Validate() error {
	if q.Prompt == "" {
		return errors.New("question prompt is required")
	}
	if len(q.Options) < 2 {
		return errors.New("question needs at least two options")
	}
	if q.Mark < 0 || q.NegativeMark < 0 {
		return errors.New("marks must be non-negative")
	}
	for _, opt := range q.Options {
		if opt == q.CorrectAnswer {
			return nil
		}
	}
	return errors.New("correct answer must match one of the options")
}

// Contest is a single configured assessment instance.
type Contest struct {
	ContestID string             `json:"contest_id"`
	StaffID   string             `json:"staff_id"`
	Overview  AssessmentOverview `json:"assessment_overview"`
	Config    TestConfiguration  `json:"test_configuration"`
	Questions []Question         `json:"questions"`
	Status    ContestStatus      `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Validate enforces contest-level invariants.
func (c *Contest) Validate() error {
	if c.ContestID == "" {
		return errors.New("contest_id is required")
	}
	if c.Overview.RegistrationEnd.Before(c.Overview.RegistrationStart) {
		return errors.New("registration_start must not be after registration_end")
	}
	return nil
}

// CreateContestRequest is the payload for creating a new contest.
type CreateContestRequest struct {
	ContestID string             `json:"contest_id" binding:"required,min=3,max=64"`
	Overview  AssessmentOverview `json:"assessment_overview" binding:"required"`
	Config    TestConfiguration  `json:"test_configuration"`
}

// UpdateContestRequest is the payload for updating overview/configuration.
type UpdateContestRequest struct {
	Overview *AssessmentOverview `json:"assessment_overview" binding:"omitempty"`
	Config   *TestConfiguration  `json:"test_configuration" binding:"omitempty"`
}

// AddQuestionsRequest appends questions to the bank. Entries whose
// question_id already exists in the bank are skipped.
type AddQuestionsRequest struct {
	Questions []Question `json:"questions" binding:"required,min=1,dive"`
}

// ReplaceQuestionsRequest swaps the entire question bank.
type ReplaceQuestionsRequest struct {
	Questions []Question `json:"questions" binding:"required,dive"`
}
