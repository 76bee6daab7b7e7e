package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ihubtech/testportal-backend/internal/model"
)

// ContestRepository handles contest persistence. Overview, configuration,
// and the question bank are stored as jsonb documents alongside relational
// metadata columns.
type ContestRepository struct {
	pool  *pgxpool.Pool
	retry RetryPolicy
}

// NewContestRepository creates a new ContestRepository.
func NewContestRepository(pool *pgxpool.Pool, retry RetryPolicy) *ContestRepository {
	return &ContestRepository{pool: pool, retry: retry}
}

// Create inserts a new contest under its staff-chosen identifier.
// A duplicate identifier returns ErrConflict.
func (r *ContestRepository) Create(ctx context.Context, c *model.Contest) error {
	overview, config, questions, err := marshalContestDocs(c)
	if err != nil {
		return err
	}

	return withRetry(ctx, r.retry, func() error {
		return mapUnique(r.pool.QueryRow(ctx,
			`INSERT INTO contests (id, staff_id, overview, config, questions, status)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING created_at, updated_at`,
			c.ContestID, c.StaffID, overview, config, questions, c.Status,
		).Scan(&c.CreatedAt, &c.UpdatedAt))
	})
}

// GetByID retrieves a contest by its identifier.
func (r *ContestRepository) GetByID(ctx context.Context, id string) (*model.Contest, error) {
	c := &model.Contest{}
	var overview, config, questions []byte

	err := r.pool.QueryRow(ctx,
		`SELECT id, staff_id, overview, config, questions, status, created_at, updated_at
		 FROM contests WHERE id = $1`, id,
	).Scan(&c.ContestID, &c.StaffID, &overview, &config, &questions,
		&c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := unmarshalContestDocs(c, overview, config, questions); err != nil {
		return nil, err
	}
	return c, nil
}

// ListByStaffPaginated retrieves contests created by a staff member,
// newest first. Question banks are included so callers can report sizes.
func (r *ContestRepository) ListByStaffPaginated(ctx context.Context, staffID string, limit, offset int) ([]model.Contest, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM contests WHERE staff_id = $1`, staffID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, staff_id, overview, config, questions, status, created_at, updated_at
		 FROM contests
		 WHERE staff_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, staffID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var contests []model.Contest
	for rows.Next() {
		var c model.Contest
		var overview, config, questions []byte
		if err := rows.Scan(&c.ContestID, &c.StaffID, &overview, &config, &questions,
			&c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if err := unmarshalContestDocs(&c, overview, config, questions); err != nil {
			return nil, 0, err
		}
		contests = append(contests, c)
	}
	return contests, total, rows.Err()
}

// Update replaces a contest's overview and configuration documents.
func (r *ContestRepository) Update(ctx context.Context, c *model.Contest) error {
	overview, config, _, err := marshalContestDocs(c)
	if err != nil {
		return err
	}

	return withRetry(ctx, r.retry, func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE contests SET overview = $1, config = $2, updated_at = NOW()
			 WHERE id = $3`,
			overview, config, c.ContestID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ReplaceQuestions overwrites the question bank document. The caller is
// responsible for dedupe and validation; this is a plain swap.
func (r *ContestRepository) ReplaceQuestions(ctx context.Context, id string, questions []model.Question) error {
	doc, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	return withRetry(ctx, r.retry, func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE contests SET questions = $1, updated_at = NOW() WHERE id = $2`,
			doc, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// SetStatus transitions a contest's lifecycle status.
func (r *ContestRepository) SetStatus(ctx context.Context, id string, status model.ContestStatus) error {
	return withRetry(ctx, r.retry, func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE contests SET status = $1, updated_at = NOW() WHERE id = $2`,
			status, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Delete removes a contest. Grade records and report flags cascade.
func (r *ContestRepository) Delete(ctx context.Context, id string) error {
	return withRetry(ctx, r.retry, func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM contests WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func marshalContestDocs(c *model.Contest) (overview, config, questions []byte, err error) {
	if overview, err = json.Marshal(c.Overview); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal overview: %w", err)
	}
	if config, err = json.Marshal(c.Config); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal config: %w", err)
	}
	if c.Questions == nil {
		c.Questions = []model.Question{}
	}
	if questions, err = json.Marshal(c.Questions); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal questions: %w", err)
	}
	return overview, config, questions, nil
}

func unmarshalContestDocs(c *model.Contest, overview, config, questions []byte) error {
	if err := json.Unmarshal(overview, &c.Overview); err != nil {
		return fmt.Errorf("unmarshal overview: %w", err)
	}
	if err := json.Unmarshal(config, &c.Config); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	if err := json.Unmarshal(questions, &c.Questions); err != nil {
		return fmt.Errorf("unmarshal questions: %w", err)
	}
	return nil
}
