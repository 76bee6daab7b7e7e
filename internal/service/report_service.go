package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/ihubtech/testportal-backend/internal/model"
	"github.com/ihubtech/testportal-backend/internal/repository"
)

// Report domain errors.
var (
	ErrCandidateNotFound  = errors.New("no record for this candidate")
	ErrReportNotPublished = errors.New("report not published")
)

// reportStore is the slice of the report repository this service depends on.
type reportStore interface {
	UpsertRecord(ctx context.Context, contestID string, rec *model.GradeRecord) error
	GetRecord(ctx context.Context, contestID, candidateID string) (*model.GradeRecord, error)
	ListByContest(ctx context.Context, contestID string) ([]model.GradeRecord, error)
	IsPublished(ctx context.Context, contestID string) (bool, error)
	Publish(ctx context.Context, contestID string) error
}

// ReportService grades submissions into the ledger and serves report views.
type ReportService struct {
	contests contestStore
	reports  reportStore
	scoring  *ScoringService
	clock    startClock
	log      zerolog.Logger
	now      func() time.Time
}

// NewReportService creates a new ReportService.
func NewReportService(contests contestStore, reports reportStore, scoring *ScoringService, clock startClock, log zerolog.Logger) *ReportService {
	return &ReportService{
		contests: contests,
		reports:  reports,
		scoring:  scoring,
		clock:    clock,
		log:      log.With().Str("component", "report_service").Logger(),
		now:      time.Now,
	}
}

// RecordSubmission grades an answer set and upserts the candidate's grade
// record. Resubmission overwrites the previous outcome in place; the store
// guarantees at most one record per (contest, candidate).
func (s *ReportService) RecordSubmission(ctx context.Context, contestID, candidateID string, req *model.SubmitRequest) (*model.GradeResult, error) {
	contest, err := s.contests.GetByID(ctx, contestID)
	if err != nil {
		return nil, mapContestErr(err)
	}
	if contest.Status == model.ContestStatusClosed {
		return nil, ErrContestClosed
	}

	result := s.scoring.Grade(contest, req.Answers)

	finish := s.now()
	start := finish
	if s.clock != nil {
		if at, ok, err := s.clock.GetStart(ctx, candidateID, contestID); err != nil {
			s.log.Warn().Err(err).Str("contest_id", contestID).Msg("Failed to read start time")
		} else if ok {
			start = at
		}
	}

	rec := &model.GradeRecord{
		CandidateID: candidateID,
		Status:      model.RecordStatusCompleted,
		Grade:       result.Grade,
		Score:       result.Score,
		TotalMarks:  result.TotalMarks,
		Percentage:  result.Percentage,
		Attended:    result.Attended,
		Proctor: model.ProctorCounters{
			FullscreenWarnings: req.FullscreenWarnings,
			NoiseWarnings:      req.NoiseWarnings,
			FaceWarnings:       req.FaceWarnings,
		},
		StartTime:  start,
		FinishTime: finish,
	}

	if err := s.reports.UpsertRecord(ctx, contestID, rec); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrContestNotFound
		}
		return nil, fmt.Errorf("record submission: %w", err)
	}

	s.log.Info().
		Str("contest_id", contestID).
		Str("candidate_id", candidateID).
		Float64("score", result.Score).
		Str("grade", string(result.Grade)).
		Msg("Submission graded")
	return result, nil
}

// Publish flips the contest's report gate to published. Idempotent; the
// staff member must own the contest.
func (s *ReportService) Publish(ctx context.Context, staffID, contestID string) error {
	contest, err := s.contests.GetByID(ctx, contestID)
	if err != nil {
		return mapContestErr(err)
	}
	if contest.StaffID != staffID {
		return ErrNotContestOwner
	}

	if err := s.reports.Publish(ctx, contestID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrContestNotFound
		}
		return fmt.Errorf("publish report: %w", err)
	}

	s.log.Info().Str("contest_id", contestID).Msg("Report published")
	return nil
}

// CandidateReport projects a candidate's grade record into its display form.
// Gated on the publish flag; unanswered questions are excluded and the
// correct count is re-derived from the stored answers.
func (s *ReportService) CandidateReport(ctx context.Context, contestID, candidateID string) (*model.CandidateReportView, error) {
	published, err := s.reports.IsPublished(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("check publish flag: %w", err)
	}
	if !published {
		return nil, ErrReportNotPublished
	}

	rec, err := s.reports.GetRecord(ctx, contestID, candidateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCandidateNotFound
		}
		return nil, fmt.Errorf("get record: %w", err)
	}

	contest, err := s.contests.GetByID(ctx, contestID)
	if err != nil {
		return nil, mapContestErr(err)
	}

	return buildReportView(contestID, rec, contest.Config.EffectivePassPercentage()), nil
}

// StaffCandidateReport projects one candidate's record for staff review.
// Ownership is required; the publish gate does not apply.
func (s *ReportService) StaffCandidateReport(ctx context.Context, staffID, contestID, candidateID string) (*model.CandidateReportView, error) {
	contest, err := s.contests.GetByID(ctx, contestID)
	if err != nil {
		return nil, mapContestErr(err)
	}
	if contest.StaffID != staffID {
		return nil, ErrNotContestOwner
	}

	rec, err := s.reports.GetRecord(ctx, contestID, candidateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCandidateNotFound
		}
		return nil, fmt.Errorf("get record: %w", err)
	}

	return buildReportView(contestID, rec, contest.Config.EffectivePassPercentage()), nil
}

// StaffReport returns the full ledger entry for a contest, publish gate
// included. Not gated on publication: staff see results before candidates.
func (s *ReportService) StaffReport(ctx context.Context, staffID, contestID string) (*model.LedgerEntry, error) {
	contest, err := s.contests.GetByID(ctx, contestID)
	if err != nil {
		return nil, mapContestErr(err)
	}
	if contest.StaffID != staffID {
		return nil, ErrNotContestOwner
	}

	records, err := s.reports.ListByContest(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	if records == nil {
		records = []model.GradeRecord{}
	}

	published, err := s.reports.IsPublished(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("check publish flag: %w", err)
	}

	return &model.LedgerEntry{
		ContestID:   contestID,
		Candidates:  records,
		IsPublished: published,
	}, nil
}

func buildReportView(contestID string, rec *model.GradeRecord, passPercentage float64) *model.CandidateReportView {
	attended := make([]model.AttendedQuestionView, 0, len(rec.Attended))
	correct := 0
	for _, a := range rec.Attended {
		if a.CandidateAnswer == nil {
			continue
		}
		isCorrect := *a.CandidateAnswer == a.CorrectAnswer
		if isCorrect {
			correct++
		}
		attended = append(attended, model.AttendedQuestionView{
			ID:              len(attended) + 1,
			Prompt:          a.Prompt,
			CandidateAnswer: *a.CandidateAnswer,
			CorrectAnswer:   a.CorrectAnswer,
			IsCorrect:       isCorrect,
		})
	}

	return &model.CandidateReportView{
		ContestID:      contestID,
		CandidateID:    rec.CandidateID,
		Status:         rec.Status,
		Grade:          rec.Grade,
		Score:          rec.Score,
		TotalMarks:     rec.TotalMarks,
		Percentage:     rec.Percentage,
		StartTime:      rec.StartTime,
		FinishTime:     rec.FinishTime,
		Proctor:        rec.Proctor,
		Attended:       attended,
		CorrectCount:   correct,
		PassPercentage: passPercentage,
	}
}
