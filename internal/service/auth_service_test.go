package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/ihubtech/testportal-backend/internal/config"
	"github.com/ihubtech/testportal-backend/internal/model"
	"github.com/ihubtech/testportal-backend/internal/token"
	"golang.org/x/crypto/bcrypt"
)

// memAccountStore is an in-memory accountStore for unit tests.
type memAccountStore struct {
	staff      map[string]*model.Staff
	candidates map[string]*model.Candidate
}

func (m *memAccountStore) GetStaffByEmail(_ context.Context, email string) (*model.Staff, error) {
	s, ok := m.staff[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return s, nil
}

func (m *memAccountStore) GetStaffByID(_ context.Context, id string) (*model.Staff, error) {
	for _, s := range m.staff {
		if s.StaffID == id {
			return s, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memAccountStore) GetCandidateByID(_ context.Context, candidateID string) (*model.Candidate, error) {
	c, ok := m.candidates[candidateID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

func newAuthFixture(t *testing.T) (*AuthService, *memAccountStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{
		BcryptCost:         bcrypt.MinCost,
		ContestTokenSecret: "contest-secret",
		ContestTokenTTL:    time.Hour,
		LoginTokenSecret:   "login-secret",
		LoginTokenTTL:      24 * time.Hour,
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	accounts := &memAccountStore{
		staff: map[string]*model.Staff{
			"ops@example.com": {StaffID: "staff-1", Email: "ops@example.com", PasswordHash: string(hash)},
		},
		candidates: map[string]*model.Candidate{
			"cand-1": {CandidateID: "cand-1", PasswordHash: string(hash)},
		},
	}

	return NewAuthService(cfg, accounts, token.NewService(cfg), rdb, zerolog.Nop()), accounts
}

func TestLoginStaff(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	signed, staff, err := svc.LoginStaff(ctx, "ops@example.com", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if signed == "" || staff.StaffID != "staff-1" {
		t.Fatalf("unexpected login result: token=%q staff=%+v", signed, staff)
	}

	if _, _, err := svc.LoginStaff(ctx, "ops@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.LoginStaff(ctx, "ghost@example.com", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown account must not be distinguishable: %v", err)
	}
}

func TestCandidateSingleSession(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	if _, _, err := svc.LoginCandidate(ctx, "cand-1", "hunter22"); err != nil {
		t.Fatalf("first login: %v", err)
	}

	// Second login while a session is pinned must be refused.
	if _, _, err := svc.LoginCandidate(ctx, "cand-1", "hunter22"); !errors.Is(err, ErrSessionAlreadyActive) {
		t.Fatalf("expected ErrSessionAlreadyActive, got %v", err)
	}

	// Staff reset frees the session for a fresh login.
	if err := svc.ResetCandidateSession(ctx, "cand-1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, _, err := svc.LoginCandidate(ctx, "cand-1", "hunter22"); err != nil {
		t.Fatalf("relogin after reset: %v", err)
	}
}

func TestCandidateLogoutReleasesSession(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	if _, _, err := svc.LoginCandidate(ctx, "cand-1", "hunter22"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.LogoutCandidate(ctx, "cand-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, _, err := svc.LoginCandidate(ctx, "cand-1", "hunter22"); err != nil {
		t.Fatalf("relogin after logout: %v", err)
	}
}

func TestValidateCandidateSession(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	if err := svc.ValidateCandidateSession(ctx, "cand-1", "any"); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}

	signed, _, err := svc.LoginCandidate(ctx, "cand-1", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	cfg := &config.Config{
		ContestTokenSecret: "contest-secret",
		ContestTokenTTL:    time.Hour,
		LoginTokenSecret:   "login-secret",
		LoginTokenTTL:      24 * time.Hour,
	}
	claims, err := token.NewService(cfg).ValidateLoginToken(signed)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}

	if err := svc.ValidateCandidateSession(ctx, "cand-1", claims.ID); err != nil {
		t.Fatalf("session should match pinned jti: %v", err)
	}
	if err := svc.ValidateCandidateSession(ctx, "cand-1", "stale-jti"); !errors.Is(err, ErrSessionInvalidated) {
		t.Fatalf("expected ErrSessionInvalidated, got %v", err)
	}
}
