package service

import (
	"github.com/ihubtech/testportal-backend/internal/model"
)

// ScoringService grades answer sets against a contest's question bank.
// Grade is a pure function of (contest, answers): no clock, no store, safe
// to recompute on resubmission.
type ScoringService struct{}

// NewScoringService creates a new ScoringService.
func NewScoringService() *ScoringService {
	return &ScoringService{}
}

// Grade walks the authoritative question bank, looks up each candidate
// answer by question_id, and compares exactly against the stored key.
// Total marks cover the whole bank regardless of how many questions the
// candidate answered; unanswered questions score zero and carry a nil
// answer in the attended list.
func (s *ScoringService) Grade(contest *model.Contest, answers model.AnswerSet) *model.GradeResult {
	var score, totalMarks float64
	attended := make([]model.AttendedQuestion, 0, len(contest.Questions))

	for _, q := range contest.Questions {
		totalMarks += float64(q.Mark)

		entry := model.AttendedQuestion{
			QuestionID:    q.QuestionID,
			Prompt:        q.Prompt,
			CorrectAnswer: q.CorrectAnswer,
		}

		answer, answered := answers[q.QuestionID.String()]
		if answered {
			entry.CandidateAnswer = &answer
			if answer == q.CorrectAnswer {
				score += float64(q.Mark)
			} else if contest.Config.ApplyNegativeMarks {
				score -= float64(q.NegativeMark)
			}
		}
		attended = append(attended, entry)
	}

	var percentage float64
	if totalMarks > 0 {
		percentage = score / totalMarks * 100
		if percentage < 0 {
			percentage = 0
		}
	}

	grade := model.GradeFail
	if percentage >= contest.Config.EffectivePassPercentage() {
		grade = model.GradePass
	}

	return &model.GradeResult{
		ContestID:  contest.ContestID,
		Score:      score,
		TotalMarks: totalMarks,
		Percentage: percentage,
		Grade:      grade,
		Attended:   attended,
	}
}
