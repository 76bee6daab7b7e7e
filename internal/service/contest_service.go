package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/ihubtech/testportal-backend/internal/model"
	"github.com/ihubtech/testportal-backend/internal/repository"
	"github.com/ihubtech/testportal-backend/internal/response"
	"github.com/ihubtech/testportal-backend/internal/token"
)

// Contest domain errors.
var (
	ErrContestNotFound  = errors.New("contest not found")
	ErrContestExists    = errors.New("contest already exists")
	ErrNotContestOwner  = errors.New("not the owner of this contest")
	ErrContestClosed    = errors.New("contest is closed")
	ErrRegistrationOver = errors.New("registration window is not open")
	ErrInvalidQuestion  = errors.New("invalid question")
)

// contestStore is the slice of the contest repository this service depends on.
type contestStore interface {
	Create(ctx context.Context, c *model.Contest) error
	GetByID(ctx context.Context, id string) (*model.Contest, error)
	ListByStaffPaginated(ctx context.Context, staffID string, limit, offset int) ([]model.Contest, int, error)
	Update(ctx context.Context, c *model.Contest) error
	ReplaceQuestions(ctx context.Context, id string, questions []model.Question) error
	SetStatus(ctx context.Context, id string, status model.ContestStatus) error
	Delete(ctx context.Context, id string) error
}

// ContestService handles contest authoring and entry token issuance.
type ContestService struct {
	contests contestStore
	tokens   *token.Service
	log      zerolog.Logger
	now      func() time.Time
}

// NewContestService creates a new ContestService.
func NewContestService(contests contestStore, tokens *token.Service, log zerolog.Logger) *ContestService {
	return &ContestService{
		contests: contests,
		tokens:   tokens,
		log:      log.With().Str("component", "contest_service").Logger(),
		now:      time.Now,
	}
}

// Create registers a new contest under the staff member's ownership.
func (s *ContestService) Create(ctx context.Context, staffID string, req *model.CreateContestRequest) (*model.Contest, error) {
	contest := &model.Contest{
		ContestID: req.ContestID,
		StaffID:   staffID,
		Overview:  req.Overview,
		Config:    req.Config,
		Questions: []model.Question{},
		Status:    model.ContestStatusActive,
	}
	if err := contest.Validate(); err != nil {
		return nil, err
	}

	if err := s.contests.Create(ctx, contest); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrContestExists
		}
		return nil, fmt.Errorf("create contest: %w", err)
	}

	s.log.Info().Str("contest_id", contest.ContestID).Str("staff_id", staffID).Msg("Contest created")
	return contest, nil
}

// Get retrieves a contest by its identifier.
func (s *ContestService) Get(ctx context.Context, id string) (*model.Contest, error) {
	contest, err := s.contests.GetByID(ctx, id)
	if err != nil {
		return nil, mapContestErr(err)
	}
	return contest, nil
}

// GetOwned retrieves a contest and verifies staff ownership.
func (s *ContestService) GetOwned(ctx context.Context, staffID, id string) (*model.Contest, error) {
	contest, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if contest.StaffID != staffID {
		return nil, ErrNotContestOwner
	}
	return contest, nil
}

// List retrieves a staff member's contests with pagination.
func (s *ContestService) List(ctx context.Context, staffID string, page, perPage int) ([]model.Contest, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	contests, total, err := s.contests.ListByStaffPaginated(ctx, staffID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if contests == nil {
		contests = []model.Contest{}
	}

	return contests, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}, nil
}

// Update modifies a contest's overview and/or configuration.
func (s *ContestService) Update(ctx context.Context, staffID, id string, req *model.UpdateContestRequest) (*model.Contest, error) {
	contest, err := s.GetOwned(ctx, staffID, id)
	if err != nil {
		return nil, err
	}

	if req.Overview != nil {
		contest.Overview = *req.Overview
	}
	if req.Config != nil {
		contest.Config = *req.Config
	}
	if err := contest.Validate(); err != nil {
		return nil, err
	}

	if err := s.contests.Update(ctx, contest); err != nil {
		return nil, mapContestErr(err)
	}
	return contest, nil
}

// Close transitions a contest to CLOSED. Closed contests stop serving papers
// and accepting submissions; reports stay available.
func (s *ContestService) Close(ctx context.Context, staffID, id string) error {
	if _, err := s.GetOwned(ctx, staffID, id); err != nil {
		return err
	}
	if err := s.contests.SetStatus(ctx, id, model.ContestStatusClosed); err != nil {
		return mapContestErr(err)
	}
	s.log.Info().Str("contest_id", id).Msg("Contest closed")
	return nil
}

// Delete removes a contest and everything hanging off it.
func (s *ContestService) Delete(ctx context.Context, staffID, id string) error {
	if _, err := s.GetOwned(ctx, staffID, id); err != nil {
		return err
	}
	if err := s.contests.Delete(ctx, id); err != nil {
		return mapContestErr(err)
	}
	s.log.Info().Str("contest_id", id).Msg("Contest deleted")
	return nil
}

// AddQuestions appends questions to the bank. Entries whose question_id is
// already present are skipped, so a retried request cannot double-insert.
// Questions arriving without an id are assigned one.
func (s *ContestService) AddQuestions(ctx context.Context, staffID, id string, questions []model.Question) (added, skipped int, err error) {
	contest, err := s.GetOwned(ctx, staffID, id)
	if err != nil {
		return 0, 0, err
	}

	existing := make(map[uuid.UUID]struct{}, len(contest.Questions))
	for _, q := range contest.Questions {
		existing[q.QuestionID] = struct{}{}
	}

	bank := contest.Questions
	for i := range questions {
		q := questions[i]
		if err := q.Validate(); err != nil {
			return 0, 0, fmt.Errorf("%w: %s", ErrInvalidQuestion, err)
		}
		if q.QuestionID == uuid.Nil {
			q.QuestionID = uuid.New()
		}
		if _, dup := existing[q.QuestionID]; dup {
			skipped++
			continue
		}
		existing[q.QuestionID] = struct{}{}
		bank = append(bank, q)
		added++
	}

	if added > 0 {
		if err := s.contests.ReplaceQuestions(ctx, id, bank); err != nil {
			return 0, 0, mapContestErr(err)
		}
	}

	s.log.Info().Str("contest_id", id).Int("added", added).Int("skipped", skipped).Msg("Questions appended")
	return added, skipped, nil
}

// ReplaceQuestions swaps the entire question bank.
func (s *ContestService) ReplaceQuestions(ctx context.Context, staffID, id string, questions []model.Question) error {
	if _, err := s.GetOwned(ctx, staffID, id); err != nil {
		return err
	}

	seen := make(map[uuid.UUID]struct{}, len(questions))
	for i := range questions {
		if err := questions[i].Validate(); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidQuestion, err)
		}
		if questions[i].QuestionID == uuid.Nil {
			questions[i].QuestionID = uuid.New()
		}
		if _, dup := seen[questions[i].QuestionID]; dup {
			return fmt.Errorf("%w: duplicate question_id %s", ErrInvalidQuestion, questions[i].QuestionID)
		}
		seen[questions[i].QuestionID] = struct{}{}
	}

	if err := s.contests.ReplaceQuestions(ctx, id, questions); err != nil {
		return mapContestErr(err)
	}
	s.log.Info().Str("contest_id", id).Int("count", len(questions)).Msg("Question bank replaced")
	return nil
}

// ListQuestions returns the full bank, answers included. Staff only.
func (s *ContestService) ListQuestions(ctx context.Context, staffID, id string) ([]model.Question, error) {
	contest, err := s.GetOwned(ctx, staffID, id)
	if err != nil {
		return nil, err
	}
	return contest.Questions, nil
}

// IssueEntryToken mints a contest-scoped delivery token. When enforceWindow
// is set (candidate self-service entry), the registration window must be
// open; staff-issued tokens skip the window check.
func (s *ContestService) IssueEntryToken(ctx context.Context, contestID string, enforceWindow bool) (string, error) {
	contest, err := s.Get(ctx, contestID)
	if err != nil {
		return "", err
	}
	if contest.Status == model.ContestStatusClosed {
		return "", ErrContestClosed
	}
	if enforceWindow {
		now := s.now()
		if now.Before(contest.Overview.RegistrationStart) || now.After(contest.Overview.RegistrationEnd) {
			return "", ErrRegistrationOver
		}
	}
	return s.tokens.IssueContestToken(contestID)
}

func mapContestErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, repository.ErrNotFound) {
		return ErrContestNotFound
	}
	return err
}
