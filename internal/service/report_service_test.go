package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/ihubtech/testportal-backend/internal/model"
)

func newReportFixture(t *testing.T, contest *model.Contest) (*ReportService, *memReportStore, *memClock) {
	t.Helper()
	reports := newMemReportStore()
	clock := newMemClock()
	svc := NewReportService(newMemContestStore(contest), reports, NewScoringService(), clock, zerolog.Nop())
	return svc, reports, clock
}

func TestRecordSubmissionMerge(t *testing.T) {
	questions := []model.Question{
		mkQuestion("q1", "a", []string{"a", "b"}, 5, 0),
	}
	contest := mkContest(questions, model.TestConfiguration{PassPercentage: 50})
	svc, reports, _ := newReportFixture(t, contest)
	ctx := context.Background()
	qid := questions[0].QuestionID.String()

	first, err := svc.RecordSubmission(ctx, "contest-1", "cand-1", &model.SubmitRequest{
		Answers: model.AnswerSet{qid: "b"},
	})
	if err != nil {
		t.Fatalf("first submission: %v", err)
	}
	if first.Grade != model.GradeFail {
		t.Fatalf("expected Fail, got %s", first.Grade)
	}

	second, err := svc.RecordSubmission(ctx, "contest-1", "cand-1", &model.SubmitRequest{
		Answers: model.AnswerSet{qid: "a"},
	})
	if err != nil {
		t.Fatalf("second submission: %v", err)
	}
	if second.Grade != model.GradePass {
		t.Fatalf("expected Pass, got %s", second.Grade)
	}

	// Exactly one record per (contest, candidate), reflecting the resubmission.
	records, _ := reports.ListByContest(ctx, "contest-1")
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Grade != model.GradePass || records[0].Score != 5 {
		t.Fatalf("record must reflect the second submission: %+v", records[0])
	}
	if records[0].Status != model.RecordStatusCompleted {
		t.Fatalf("expected Completed, got %s", records[0].Status)
	}
}

func TestRecordSubmissionOverwritesProctorCounters(t *testing.T) {
	contest := mkContest(bankOf(1), model.TestConfiguration{})
	svc, reports, _ := newReportFixture(t, contest)
	ctx := context.Background()

	submit := &model.SubmitRequest{
		Answers:            model.AnswerSet{},
		FullscreenWarnings: 1,
		NoiseWarnings:      2,
		FaceWarnings:       3,
	}
	if _, err := svc.RecordSubmission(ctx, "contest-1", "cand-1", submit); err != nil {
		t.Fatalf("first submission: %v", err)
	}
	if _, err := svc.RecordSubmission(ctx, "contest-1", "cand-1", submit); err != nil {
		t.Fatalf("second submission: %v", err)
	}

	rec, err := reports.GetRecord(ctx, "contest-1", "cand-1")
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	want := model.ProctorCounters{FullscreenWarnings: 1, NoiseWarnings: 2, FaceWarnings: 3}
	if rec.Proctor != want {
		t.Fatalf("resubmission must overwrite counters, not accumulate: got %+v", rec.Proctor)
	}
}

func TestRecordSubmissionUsesRecordedStart(t *testing.T) {
	contest := mkContest(bankOf(1), model.TestConfiguration{PassPercentage: 50})
	svc, reports, clock := newReportFixture(t, contest)
	ctx := context.Background()

	started := time.Now().Add(-20 * time.Minute)
	if err := clock.MarkStart(ctx, "cand-1", "contest-1", started, time.Hour); err != nil {
		t.Fatalf("mark start: %v", err)
	}

	if _, err := svc.RecordSubmission(ctx, "contest-1", "cand-1", &model.SubmitRequest{Answers: model.AnswerSet{}}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	rec, err := reports.GetRecord(ctx, "contest-1", "cand-1")
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if !rec.StartTime.Equal(started) {
		t.Fatalf("expected start %v, got %v", started, rec.StartTime)
	}
	if rec.FinishTime.Before(rec.StartTime) {
		t.Fatal("finish time must not precede start time")
	}
}

func TestRecordSubmissionClosedContest(t *testing.T) {
	contest := mkContest(bankOf(1), model.TestConfiguration{})
	contest.Status = model.ContestStatusClosed
	svc, _, _ := newReportFixture(t, contest)

	_, err := svc.RecordSubmission(context.Background(), "contest-1", "cand-1", &model.SubmitRequest{Answers: model.AnswerSet{}})
	if !errors.Is(err, ErrContestClosed) {
		t.Fatalf("expected ErrContestClosed, got %v", err)
	}
}

func TestPublishIdempotent(t *testing.T) {
	contest := mkContest(bankOf(1), model.TestConfiguration{})
	svc, reports, _ := newReportFixture(t, contest)
	ctx := context.Background()

	if _, err := svc.RecordSubmission(ctx, "contest-1", "cand-1", &model.SubmitRequest{Answers: model.AnswerSet{}}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	before, _ := reports.GetRecord(ctx, "contest-1", "cand-1")

	if err := svc.Publish(ctx, "staff-1", "contest-1"); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if err := svc.Publish(ctx, "staff-1", "contest-1"); err != nil {
		t.Fatalf("second publish: %v", err)
	}

	published, _ := reports.IsPublished(ctx, "contest-1")
	if !published {
		t.Fatal("expected published flag set")
	}
	after, _ := reports.GetRecord(ctx, "contest-1", "cand-1")
	if after.Grade != before.Grade || !after.FinishTime.Equal(before.FinishTime) {
		t.Fatal("publish must not alter grade records")
	}
}

func TestPublishRequiresOwnership(t *testing.T) {
	contest := mkContest(bankOf(1), model.TestConfiguration{})
	svc, _, _ := newReportFixture(t, contest)

	if err := svc.Publish(context.Background(), "staff-2", "contest-1"); !errors.Is(err, ErrNotContestOwner) {
		t.Fatalf("expected ErrNotContestOwner, got %v", err)
	}
}

func TestPublishUnknownContest(t *testing.T) {
	contest := mkContest(bankOf(1), model.TestConfiguration{})
	svc, _, _ := newReportFixture(t, contest)

	if err := svc.Publish(context.Background(), "staff-1", "ghost"); !errors.Is(err, ErrContestNotFound) {
		t.Fatalf("expected ErrContestNotFound, got %v", err)
	}
}

func TestCandidateReportGatedOnPublish(t *testing.T) {
	questions := []model.Question{
		mkQuestion("q1", "a", []string{"a", "b"}, 1, 0),
		mkQuestion("q2", "b", []string{"a", "b"}, 1, 0),
		mkQuestion("q3", "a", []string{"a", "b"}, 1, 0),
	}
	contest := mkContest(questions, model.TestConfiguration{PassPercentage: 50})
	svc, _, _ := newReportFixture(t, contest)
	ctx := context.Background()

	answers := model.AnswerSet{
		questions[0].QuestionID.String(): "a", // correct
		questions[1].QuestionID.String(): "a", // wrong
		// q3 left unanswered
	}
	if _, err := svc.RecordSubmission(ctx, "contest-1", "cand-1", &model.SubmitRequest{Answers: answers}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := svc.CandidateReport(ctx, "contest-1", "cand-1"); !errors.Is(err, ErrReportNotPublished) {
		t.Fatalf("expected ErrReportNotPublished before publish, got %v", err)
	}

	if err := svc.Publish(ctx, "staff-1", "contest-1"); err != nil {
		t.Fatalf("publish: %v", err)
	}

	view, err := svc.CandidateReport(ctx, "contest-1", "cand-1")
	if err != nil {
		t.Fatalf("candidate report: %v", err)
	}
	if len(view.Attended) != 2 {
		t.Fatalf("unanswered questions must be excluded, got %d entries", len(view.Attended))
	}
	if view.CorrectCount != 1 {
		t.Fatalf("expected 1 correct, got %d", view.CorrectCount)
	}
	if view.PassPercentage != 50 {
		t.Fatalf("expected pass threshold 50, got %v", view.PassPercentage)
	}

	if _, err := svc.CandidateReport(ctx, "contest-1", "cand-2"); !errors.Is(err, ErrCandidateNotFound) {
		t.Fatalf("expected ErrCandidateNotFound, got %v", err)
	}
}

func TestStaffCandidateReportSkipsPublishGate(t *testing.T) {
	contest := mkContest(bankOf(1), model.TestConfiguration{PassPercentage: 50})
	svc, _, _ := newReportFixture(t, contest)
	ctx := context.Background()

	if _, err := svc.RecordSubmission(ctx, "contest-1", "cand-1", &model.SubmitRequest{Answers: model.AnswerSet{}}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	view, err := svc.StaffCandidateReport(ctx, "staff-1", "contest-1", "cand-1")
	if err != nil {
		t.Fatalf("staff candidate report before publish: %v", err)
	}
	if view.CandidateID != "cand-1" {
		t.Fatalf("unexpected candidate in view: %q", view.CandidateID)
	}

	if _, err := svc.StaffCandidateReport(ctx, "staff-2", "contest-1", "cand-1"); !errors.Is(err, ErrNotContestOwner) {
		t.Fatalf("expected ErrNotContestOwner, got %v", err)
	}
	if _, err := svc.StaffCandidateReport(ctx, "staff-1", "contest-1", "cand-9"); !errors.Is(err, ErrCandidateNotFound) {
		t.Fatalf("expected ErrCandidateNotFound, got %v", err)
	}
}

func TestStaffReportSeesUnpublishedLedger(t *testing.T) {
	contest := mkContest(bankOf(1), model.TestConfiguration{})
	svc, _, _ := newReportFixture(t, contest)
	ctx := context.Background()

	if _, err := svc.RecordSubmission(ctx, "contest-1", "cand-1", &model.SubmitRequest{Answers: model.AnswerSet{}}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	ledger, err := svc.StaffReport(ctx, "staff-1", "contest-1")
	if err != nil {
		t.Fatalf("staff report: %v", err)
	}
	if ledger.IsPublished {
		t.Fatal("ledger should not be published yet")
	}
	if len(ledger.Candidates) != 1 {
		t.Fatalf("expected 1 record, got %d", len(ledger.Candidates))
	}

	if _, err := svc.StaffReport(ctx, "staff-2", "contest-1"); !errors.Is(err, ErrNotContestOwner) {
		t.Fatalf("expected ErrNotContestOwner, got %v", err)
	}
}
