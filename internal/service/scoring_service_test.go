package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/ihubtech/testportal-backend/internal/model"
)

func mkQuestion(prompt, correct string, options []string, mark, negative float64) model.Question {
	return model.Question{
		QuestionID:    uuid.New(),
		Prompt:        prompt,
		Options:       options,
		CorrectAnswer: correct,
		Mark:          model.FlexFloat(mark),
		NegativeMark:  model.FlexFloat(negative),
	}
}

func mkContest(questions []model.Question, cfg model.TestConfiguration) *model.Contest {
	return &model.Contest{
		ContestID: "contest-1",
		StaffID:   "staff-1",
		Config:    cfg,
		Questions: questions,
		Status:    model.ContestStatusActive,
	}
}

func answerAll(questions []model.Question, pick func(model.Question) (string, bool)) model.AnswerSet {
	answers := make(model.AnswerSet)
	for _, q := range questions {
		if v, ok := pick(q); ok {
			answers[q.QuestionID.String()] = v
		}
	}
	return answers
}

func TestGradeSingleQuestion(t *testing.T) {
	questions := []model.Question{
		mkQuestion("2+2?", "4", []string{"3", "4"}, 5, 0),
	}
	contest := mkContest(questions, model.TestConfiguration{
		QuestionCount:  1,
		PassPercentage: 50,
	})
	scoring := NewScoringService()

	correct := scoring.Grade(contest, model.AnswerSet{questions[0].QuestionID.String(): "4"})
	if correct.Score != 5 || correct.TotalMarks != 5 || correct.Percentage != 100 {
		t.Fatalf("correct answer: score=%v total=%v pct=%v", correct.Score, correct.TotalMarks, correct.Percentage)
	}
	if correct.Grade != model.GradePass {
		t.Fatalf("expected Pass, got %s", correct.Grade)
	}

	wrong := scoring.Grade(contest, model.AnswerSet{questions[0].QuestionID.String(): "3"})
	if wrong.Score != 0 || wrong.Percentage != 0 {
		t.Fatalf("wrong answer: score=%v pct=%v", wrong.Score, wrong.Percentage)
	}
	if wrong.Grade != model.GradeFail {
		t.Fatalf("expected Fail, got %s", wrong.Grade)
	}
}

func TestTotalMarksCoversWholeBank(t *testing.T) {
	questions := []model.Question{
		mkQuestion("q1", "a", []string{"a", "b"}, 2, 0),
		mkQuestion("q2", "a", []string{"a", "b"}, 3, 0),
		mkQuestion("q3", "a", []string{"a", "b"}, 5, 0),
	}
	contest := mkContest(questions, model.TestConfiguration{PassPercentage: 50})
	scoring := NewScoringService()

	// Only one question answered; total marks still cover the full bank.
	result := scoring.Grade(contest, model.AnswerSet{questions[0].QuestionID.String(): "a"})
	if result.TotalMarks != 10 {
		t.Fatalf("expected total marks 10, got %v", result.TotalMarks)
	}
	if result.Score != 2 {
		t.Fatalf("expected score 2, got %v", result.Score)
	}
	if result.Percentage != 20 {
		t.Fatalf("expected 20%%, got %v", result.Percentage)
	}
}

func TestGradeEmptyBankZeroPercentage(t *testing.T) {
	contest := mkContest(nil, model.TestConfiguration{PassPercentage: 50})
	result := NewScoringService().Grade(contest, model.AnswerSet{})
	if result.TotalMarks != 0 || result.Percentage != 0 {
		t.Fatalf("empty bank: total=%v pct=%v", result.TotalMarks, result.Percentage)
	}
	if result.Grade != model.GradeFail {
		t.Fatalf("expected Fail on empty bank, got %s", result.Grade)
	}
}

func TestNegativeMarkingToggle(t *testing.T) {
	questions := []model.Question{
		mkQuestion("q1", "a", []string{"a", "b"}, 4, 1),
		mkQuestion("q2", "a", []string{"a", "b"}, 4, 1),
	}
	wrongAll := answerAll(questions, func(model.Question) (string, bool) { return "b", true })
	scoring := NewScoringService()

	// Default policy: wrong answers add zero.
	off := mkContest(questions, model.TestConfiguration{PassPercentage: 50})
	if result := scoring.Grade(off, wrongAll); result.Score != 0 {
		t.Fatalf("negative marking off: expected score 0, got %v", result.Score)
	}

	// Opt-in policy: wrong answers subtract the question's negative mark.
	on := mkContest(questions, model.TestConfiguration{PassPercentage: 50, ApplyNegativeMarks: true})
	result := scoring.Grade(on, wrongAll)
	if result.Score != -2 {
		t.Fatalf("negative marking on: expected score -2, got %v", result.Score)
	}
	if result.Percentage != 0 {
		t.Fatalf("percentage must clamp at 0, got %v", result.Percentage)
	}
}

func TestGradeRecordsUnansweredWithNilAnswer(t *testing.T) {
	questions := []model.Question{
		mkQuestion("q1", "a", []string{"a", "b"}, 1, 0),
		mkQuestion("q2", "a", []string{"a", "b"}, 1, 0),
	}
	contest := mkContest(questions, model.TestConfiguration{PassPercentage: 50})

	result := NewScoringService().Grade(contest, model.AnswerSet{questions[0].QuestionID.String(): "a"})
	if len(result.Attended) != 2 {
		t.Fatalf("expected 2 attended entries, got %d", len(result.Attended))
	}
	if result.Attended[0].CandidateAnswer == nil || *result.Attended[0].CandidateAnswer != "a" {
		t.Fatal("answered question must carry the candidate's answer")
	}
	if result.Attended[1].CandidateAnswer != nil {
		t.Fatal("unanswered question must carry a nil answer")
	}
}

func TestDefaultPassPercentage(t *testing.T) {
	questions := []model.Question{
		mkQuestion("q1", "a", []string{"a", "b"}, 1, 0),
		mkQuestion("q2", "a", []string{"a", "b"}, 1, 0),
	}
	// Threshold unset: the 50% default applies.
	contest := mkContest(questions, model.TestConfiguration{})
	scoring := NewScoringService()

	half := scoring.Grade(contest, model.AnswerSet{questions[0].QuestionID.String(): "a"})
	if half.Grade != model.GradePass {
		t.Fatalf("50%% should pass under the default threshold, got %s", half.Grade)
	}

	none := scoring.Grade(contest, model.AnswerSet{})
	if none.Grade != model.GradeFail {
		t.Fatalf("0%% should fail, got %s", none.Grade)
	}
}
