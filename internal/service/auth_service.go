package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/ihubtech/testportal-backend/internal/config"
	"github.com/ihubtech/testportal-backend/internal/model"
	"github.com/ihubtech/testportal-backend/internal/token"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrSessionAlreadyActive = errors.New("another session is already active")
	ErrNoActiveSession      = errors.New("no active session")
	ErrSessionInvalidated   = errors.New("session invalidated")
)

// accountStore is the slice of the account repository auth depends on.
type accountStore interface {
	GetStaffByEmail(ctx context.Context, email string) (*model.Staff, error)
	GetStaffByID(ctx context.Context, id string) (*model.Staff, error)
	GetCandidateByID(ctx context.Context, candidateID string) (*model.Candidate, error)
}

// AuthService handles login, password hashing, and candidate sessions.
// Candidates get single-device sessions: their token's JTI is pinned in
// Redis and a second login is refused until staff resets it.
type AuthService struct {
	cfg      *config.Config
	accounts accountStore
	tokens   *token.Service
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, accounts accountStore, tokens *token.Service, rdb *redis.Client, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:      cfg,
		accounts: accounts,
		tokens:   tokens,
		rdb:      rdb,
		log:      log.With().Str("component", "auth_service").Logger(),
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// LoginStaff verifies staff credentials and issues a login token.
func (s *AuthService) LoginStaff(ctx context.Context, email, password string) (string, *model.Staff, error) {
	staff, err := s.accounts.GetStaffByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("lookup staff: %w", err)
	}
	if err := s.CheckPassword(staff.PasswordHash, password); err != nil {
		return "", nil, err
	}

	signed, _, err := s.tokens.IssueLoginToken(token.PrincipalStaff, staff.StaffID)
	if err != nil {
		return "", nil, fmt.Errorf("issue staff token: %w", err)
	}

	s.log.Info().Str("staff_id", staff.StaffID).Msg("Staff logged in")
	return signed, staff, nil
}

// LoginCandidate verifies candidate credentials, rejects a second concurrent
// login, issues a login token, and pins its JTI in Redis.
func (s *AuthService) LoginCandidate(ctx context.Context, candidateID, password string) (string, *model.Candidate, error) {
	cand, err := s.accounts.GetCandidateByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("lookup candidate: %w", err)
	}
	if err := s.CheckPassword(cand.PasswordHash, password); err != nil {
		return "", nil, err
	}

	sessionKey := config.CacheKey.CandidateSessionKey(cand.CandidateID)
	existing, err := s.rdb.Get(ctx, sessionKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", nil, fmt.Errorf("check session: %w", err)
	}
	if existing != "" {
		return "", nil, ErrSessionAlreadyActive
	}

	signed, jti, err := s.tokens.IssueLoginToken(token.PrincipalCandidate, cand.CandidateID)
	if err != nil {
		return "", nil, fmt.Errorf("issue candidate token: %w", err)
	}

	if err := s.rdb.Set(ctx, sessionKey, jti, s.cfg.LoginTokenTTL).Err(); err != nil {
		return "", nil, fmt.Errorf("store session: %w", err)
	}

	s.log.Info().Str("candidate_id", cand.CandidateID).Msg("Candidate logged in")
	return signed, cand, nil
}

// StaffProfile returns the authenticated staff member's account.
func (s *AuthService) StaffProfile(ctx context.Context, staffID string) (*model.Staff, error) {
	staff, err := s.accounts.GetStaffByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup staff: %w", err)
	}
	return staff, nil
}

// CandidateProfile returns the authenticated candidate's account.
func (s *AuthService) CandidateProfile(ctx context.Context, candidateID string) (*model.Candidate, error) {
	cand, err := s.accounts.GetCandidateByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup candidate: %w", err)
	}
	return cand, nil
}

// LogoutCandidate releases the candidate's own pinned session so they can
// log in again from another device without staff intervention.
func (s *AuthService) LogoutCandidate(ctx context.Context, candidateID string) error {
	if err := s.rdb.Del(ctx, config.CacheKey.CandidateSessionKey(candidateID)).Err(); err != nil {
		return fmt.Errorf("release session: %w", err)
	}
	s.log.Info().Str("candidate_id", candidateID).Msg("Candidate logged out")
	return nil
}

// ValidateCandidateSession checks that the token's JTI matches the active
// session pinned in Redis.
func (s *AuthService) ValidateCandidateSession(ctx context.Context, candidateID, jti string) error {
	stored, err := s.rdb.Get(ctx, config.CacheKey.CandidateSessionKey(candidateID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNoActiveSession
		}
		return fmt.Errorf("check session: %w", err)
	}
	if stored != jti {
		return ErrSessionInvalidated
	}
	return nil
}

// ResetCandidateSession drops a candidate's pinned session, allowing a new
// login. Exposed to staff.
func (s *AuthService) ResetCandidateSession(ctx context.Context, candidateID string) error {
	return s.rdb.Del(ctx, config.CacheKey.CandidateSessionKey(candidateID)).Err()
}
