// Package token issues and validates the two kinds of signed credentials the
// portal uses: contest-scoped delivery tokens and staff/candidate login
// tokens. The kinds live in separate signing contexts (distinct secrets and
// claim types), so a token minted for one purpose never validates as the
// other.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ihubtech/testportal-backend/internal/config"
)

// Validation errors.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// ClaimMissingError reports a structurally valid token that lacks a
// required claim.
type ClaimMissingError struct {
	Claim string
}

func (e *ClaimMissingError) Error() string {
	return fmt.Sprintf("required claim missing: %s", e.Claim)
}

// PrincipalKind distinguishes staff from candidate login tokens.
type PrincipalKind string

const (
	PrincipalStaff     PrincipalKind = "staff"
	PrincipalCandidate PrincipalKind = "candidate"
)

// ContestClaims binds a delivery token to a single contest.
type ContestClaims struct {
	jwt.RegisteredClaims
	ContestID string `json:"contest_id"`
}

// LoginClaims identifies an authenticated staff member or candidate.
type LoginClaims struct {
	jwt.RegisteredClaims
	Kind        PrincipalKind `json:"kind"`
	PrincipalID string        `json:"principal_id"`
}

// Service signs and validates both token kinds. Tokens are stateless and
// self-contained; expiry is the only invalidation mechanism.
type Service struct {
	contestSecret []byte
	loginSecret   []byte
	contestTTL    time.Duration
	loginTTL      time.Duration
	now           func() time.Time
}

// NewService creates a token Service from configuration.
func NewService(cfg *config.Config) *Service {
	return &Service{
		contestSecret: []byte(cfg.ContestTokenSecret),
		loginSecret:   []byte(cfg.LoginTokenSecret),
		contestTTL:    cfg.ContestTokenTTL,
		loginTTL:      cfg.LoginTokenTTL,
		now:           time.Now,
	}
}

// IssueContestToken creates a contest-scoped delivery token. Expiry is fixed
// at issuance (issuedAt + TTL) and is not refreshable.
func (s *Service) IssueContestToken(contestID string) (string, error) {
	if contestID == "" {
		return "", &ClaimMissingError{Claim: "contest_id"}
	}

	now := s.now()
	claims := ContestClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.contestTTL)),
		},
		ContestID: contestID,
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.contestSecret)
	if err != nil {
		return "", fmt.Errorf("sign contest token: %w", err)
	}
	return signed, nil
}

// ValidateContestToken verifies signature, expiry, and claim presence.
func (s *Service) ValidateContestToken(tokenStr string) (*ContestClaims, error) {
	claims := &ContestClaims{}
	if err := s.parse(tokenStr, claims, s.contestSecret); err != nil {
		return nil, err
	}
	if claims.ContestID == "" {
		return nil, &ClaimMissingError{Claim: "contest_id"}
	}
	return claims, nil
}

// IssueLoginToken creates a login token for a staff member or candidate.
// The token's JTI is returned alongside so callers can register the session.
func (s *Service) IssueLoginToken(kind PrincipalKind, principalID string) (signed, jti string, err error) {
	if principalID == "" {
		return "", "", &ClaimMissingError{Claim: "principal_id"}
	}

	jti = uuid.New().String()
	now := s.now()
	claims := LoginClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   principalID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.loginTTL)),
		},
		Kind:        kind,
		PrincipalID: principalID,
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err = tok.SignedString(s.loginSecret)
	if err != nil {
		return "", "", fmt.Errorf("sign login token: %w", err)
	}
	return signed, jti, nil
}

// ValidateLoginToken verifies signature, expiry, and claim presence.
func (s *Service) ValidateLoginToken(tokenStr string) (*LoginClaims, error) {
	claims := &LoginClaims{}
	if err := s.parse(tokenStr, claims, s.loginSecret); err != nil {
		return nil, err
	}
	if claims.Kind == "" {
		return nil, &ClaimMissingError{Claim: "kind"}
	}
	if claims.PrincipalID == "" {
		return nil, &ClaimMissingError{Claim: "principal_id"}
	}
	return claims, nil
}

func (s *Service) parse(tokenStr string, claims jwt.Claims, secret []byte) error {
	tok, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return fmt.Errorf("%w: %s", ErrTokenInvalid, err)
	}
	if !tok.Valid {
		return ErrTokenInvalid
	}
	return nil
}
