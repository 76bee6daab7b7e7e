package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/ihubtech/testportal-backend/internal/config"
	"github.com/ihubtech/testportal-backend/internal/model"
	"github.com/ihubtech/testportal-backend/internal/token"
)

func newContestFixture(contests ...*model.Contest) (*ContestService, *memContestStore, *token.Service) {
	store := newMemContestStore(contests...)
	tokens := token.NewService(&config.Config{
		ContestTokenSecret: "contest-secret",
		ContestTokenTTL:    time.Hour,
		LoginTokenSecret:   "login-secret",
		LoginTokenTTL:      24 * time.Hour,
	})
	return NewContestService(store, tokens, zerolog.Nop()), store, tokens
}

func openWindow() model.AssessmentOverview {
	return model.AssessmentOverview{
		Name:              "Weekly Challenge",
		RegistrationStart: time.Now().Add(-time.Hour),
		RegistrationEnd:   time.Now().Add(time.Hour),
	}
}

func TestCreateContest(t *testing.T) {
	svc, _, _ := newContestFixture()
	ctx := context.Background()

	req := &model.CreateContestRequest{
		ContestID: "contest-1",
		Overview:  openWindow(),
		Config:    model.TestConfiguration{QuestionCount: 10},
	}
	contest, err := svc.Create(ctx, "staff-1", req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if contest.Status != model.ContestStatusActive {
		t.Fatalf("expected ACTIVE, got %s", contest.Status)
	}

	if _, err := svc.Create(ctx, "staff-1", req); !errors.Is(err, ErrContestExists) {
		t.Fatalf("expected ErrContestExists, got %v", err)
	}
}

func TestCreateContestRejectsInvertedWindow(t *testing.T) {
	svc, _, _ := newContestFixture()

	_, err := svc.Create(context.Background(), "staff-1", &model.CreateContestRequest{
		ContestID: "contest-1",
		Overview: model.AssessmentOverview{
			Name:              "Backwards",
			RegistrationStart: time.Now().Add(time.Hour),
			RegistrationEnd:   time.Now().Add(-time.Hour),
		},
	})
	if err == nil {
		t.Fatal("expected validation error for registration_start > registration_end")
	}
}

func TestAddQuestionsDedupe(t *testing.T) {
	contest := mkContest(nil, model.TestConfiguration{})
	contest.Overview = openWindow()
	svc, store, _ := newContestFixture(contest)
	ctx := context.Background()

	questions := []model.Question{
		mkQuestion("q1", "a", []string{"a", "b"}, 1, 0),
		mkQuestion("q2", "a", []string{"a", "b"}, 1, 0),
	}
	added, skipped, err := svc.AddQuestions(ctx, "staff-1", "contest-1", questions)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if added != 2 || skipped != 0 {
		t.Fatalf("expected 2 added, got added=%d skipped=%d", added, skipped)
	}

	// Retrying the same payload must not double-insert.
	added, skipped, err = svc.AddQuestions(ctx, "staff-1", "contest-1", questions)
	if err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if added != 0 || skipped != 2 {
		t.Fatalf("expected 2 skipped, got added=%d skipped=%d", added, skipped)
	}

	stored, _ := store.GetByID(ctx, "contest-1")
	if len(stored.Questions) != 2 {
		t.Fatalf("expected bank of 2, got %d", len(stored.Questions))
	}
}

func TestAddQuestionsAssignsIDs(t *testing.T) {
	contest := mkContest(nil, model.TestConfiguration{})
	contest.Overview = openWindow()
	svc, store, _ := newContestFixture(contest)

	q := mkQuestion("q1", "a", []string{"a", "b"}, 1, 0)
	q.QuestionID = uuid.Nil
	if _, _, err := svc.AddQuestions(context.Background(), "staff-1", "contest-1", []model.Question{q}); err != nil {
		t.Fatalf("add: %v", err)
	}

	stored, _ := store.GetByID(context.Background(), "contest-1")
	if stored.Questions[0].QuestionID == uuid.Nil {
		t.Fatal("question must be assigned an id at authoring time")
	}
}

func TestAddQuestionsRejectsBadKey(t *testing.T) {
	contest := mkContest(nil, model.TestConfiguration{})
	contest.Overview = openWindow()
	svc, _, _ := newContestFixture(contest)

	bad := mkQuestion("q1", "z", []string{"a", "b"}, 1, 0)
	_, _, err := svc.AddQuestions(context.Background(), "staff-1", "contest-1", []model.Question{bad})
	if !errors.Is(err, ErrInvalidQuestion) {
		t.Fatalf("expected ErrInvalidQuestion, got %v", err)
	}
}

func TestReplaceQuestions(t *testing.T) {
	contest := mkContest(bankOf(3), model.TestConfiguration{})
	contest.Overview = openWindow()
	svc, store, _ := newContestFixture(contest)

	replacement := []model.Question{mkQuestion("new", "a", []string{"a", "b"}, 1, 0)}
	if err := svc.ReplaceQuestions(context.Background(), "staff-1", "contest-1", replacement); err != nil {
		t.Fatalf("replace: %v", err)
	}

	stored, _ := store.GetByID(context.Background(), "contest-1")
	if len(stored.Questions) != 1 || stored.Questions[0].Prompt != "new" {
		t.Fatalf("bank not replaced: %+v", stored.Questions)
	}
}

func TestOwnershipEnforced(t *testing.T) {
	contest := mkContest(nil, model.TestConfiguration{})
	contest.Overview = openWindow()
	svc, _, _ := newContestFixture(contest)
	ctx := context.Background()

	if _, err := svc.Update(ctx, "staff-2", "contest-1", &model.UpdateContestRequest{}); !errors.Is(err, ErrNotContestOwner) {
		t.Fatalf("update: expected ErrNotContestOwner, got %v", err)
	}
	if err := svc.Close(ctx, "staff-2", "contest-1"); !errors.Is(err, ErrNotContestOwner) {
		t.Fatalf("close: expected ErrNotContestOwner, got %v", err)
	}
	if err := svc.Delete(ctx, "staff-2", "contest-1"); !errors.Is(err, ErrNotContestOwner) {
		t.Fatalf("delete: expected ErrNotContestOwner, got %v", err)
	}
}

func TestIssueEntryToken(t *testing.T) {
	contest := mkContest(bankOf(1), model.TestConfiguration{})
	contest.Overview = openWindow()
	svc, _, tokens := newContestFixture(contest)
	ctx := context.Background()

	signed, err := svc.IssueEntryToken(ctx, "contest-1", true)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := tokens.ValidateContestToken(signed)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.ContestID != "contest-1" {
		t.Fatalf("expected contest-1, got %q", claims.ContestID)
	}
}

func TestIssueEntryTokenWindowClosed(t *testing.T) {
	contest := mkContest(bankOf(1), model.TestConfiguration{})
	contest.Overview = model.AssessmentOverview{
		Name:              "Past",
		RegistrationStart: time.Now().Add(-2 * time.Hour),
		RegistrationEnd:   time.Now().Add(-time.Hour),
	}
	svc, _, _ := newContestFixture(contest)
	ctx := context.Background()

	if _, err := svc.IssueEntryToken(ctx, "contest-1", true); !errors.Is(err, ErrRegistrationOver) {
		t.Fatalf("expected ErrRegistrationOver, got %v", err)
	}

	// Staff-issued tokens bypass the window.
	if _, err := svc.IssueEntryToken(ctx, "contest-1", false); err != nil {
		t.Fatalf("staff issue: %v", err)
	}
}

func TestIssueEntryTokenClosedContest(t *testing.T) {
	contest := mkContest(bankOf(1), model.TestConfiguration{})
	contest.Overview = openWindow()
	contest.Status = model.ContestStatusClosed
	svc, _, _ := newContestFixture(contest)

	if _, err := svc.IssueEntryToken(context.Background(), "contest-1", true); !errors.Is(err, ErrContestClosed) {
		t.Fatalf("expected ErrContestClosed, got %v", err)
	}
}
