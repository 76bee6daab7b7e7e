package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ihubtech/testportal-backend/internal/model"
)

// AccountRepository handles staff and candidate account access.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// GetStaffByEmail retrieves a staff account for login.
func (r *AccountRepository) GetStaffByEmail(ctx context.Context, email string) (*model.Staff, error) {
	s := &model.Staff{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, created_at
		 FROM staff WHERE email = $1`, email,
	).Scan(&s.StaffID, &s.Name, &s.Email, &s.PasswordHash, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetStaffByID retrieves a staff account by its UUID.
func (r *AccountRepository) GetStaffByID(ctx context.Context, id string) (*model.Staff, error) {
	s := &model.Staff{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, created_at
		 FROM staff WHERE id = $1`, id,
	).Scan(&s.StaffID, &s.Name, &s.Email, &s.PasswordHash, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CreateStaff inserts a new staff account. Duplicate emails return ErrConflict.
func (r *AccountRepository) CreateStaff(ctx context.Context, s *model.Staff) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO staff (name, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		s.Name, s.Email, s.PasswordHash,
	).Scan(&s.StaffID, &s.CreatedAt)
	return mapUnique(err)
}

// GetCandidateByID retrieves a candidate by the external candidate identifier.
func (r *AccountRepository) GetCandidateByID(ctx context.Context, candidateID string) (*model.Candidate, error) {
	c := &model.Candidate{}
	err := r.pool.QueryRow(ctx,
		`SELECT candidate_id, name, email, password_hash, created_at
		 FROM candidates WHERE candidate_id = $1`, candidateID,
	).Scan(&c.CandidateID, &c.Name, &c.Email, &c.PasswordHash, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CreateCandidate inserts a new candidate account.
// Duplicate identifiers return ErrConflict.
func (r *AccountRepository) CreateCandidate(ctx context.Context, c *model.Candidate) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO candidates (candidate_id, name, email, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		c.CandidateID, c.Name, c.Email, c.PasswordHash,
	).Scan(&c.CreatedAt)
	return mapUnique(err)
}

func mapUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrConflict
	}
	return err
}
