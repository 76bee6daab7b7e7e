package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ihubtech/testportal-backend/internal/model"
)

// ReportRepository persists grade records and the per-contest publish flag.
// Each record is one row keyed by (contest_id, candidate_id), so the
// merge-on-resubmit semantics reduce to a single upsert.
type ReportRepository struct {
	pool  *pgxpool.Pool
	retry RetryPolicy
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(pool *pgxpool.Pool, retry RetryPolicy) *ReportRepository {
	return &ReportRepository{pool: pool, retry: retry}
}

// UpsertRecord inserts or refreshes a candidate's grade record and makes
// sure the contest's report row exists, in one transaction. On resubmit the
// earliest start time wins; everything else is replaced. The submission's
// proctoring totals are authoritative and supersede any counters streamed
// in earlier via BulkIncrementProctor.
func (r *ReportRepository) UpsertRecord(ctx context.Context, contestID string, rec *model.GradeRecord) error {
	attended, err := json.Marshal(rec.Attended)
	if err != nil {
		return fmt.Errorf("marshal attended questions: %w", err)
	}

	return withRetry(ctx, r.retry, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		if _, err := tx.Exec(ctx,
			`INSERT INTO contest_reports (contest_id) VALUES ($1)
			 ON CONFLICT (contest_id) DO NOTHING`, contestID,
		); err != nil {
			return mapForeignKey(err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO grade_records
			   (contest_id, candidate_id, status, grade, score, total_marks, percentage,
			    attended, fullscreen_warnings, noise_warnings, face_warnings,
			    start_time, finish_time)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			 ON CONFLICT (contest_id, candidate_id) DO UPDATE SET
			   status = EXCLUDED.status,
			   grade = EXCLUDED.grade,
			   score = EXCLUDED.score,
			   total_marks = EXCLUDED.total_marks,
			   percentage = EXCLUDED.percentage,
			   attended = EXCLUDED.attended,
			   fullscreen_warnings = EXCLUDED.fullscreen_warnings,
			   noise_warnings = EXCLUDED.noise_warnings,
			   face_warnings = EXCLUDED.face_warnings,
			   start_time = LEAST(grade_records.start_time, EXCLUDED.start_time),
			   finish_time = EXCLUDED.finish_time`,
			contestID, rec.CandidateID, rec.Status, rec.Grade,
			rec.Score, rec.TotalMarks, rec.Percentage, attended,
			rec.Proctor.FullscreenWarnings, rec.Proctor.NoiseWarnings, rec.Proctor.FaceWarnings,
			rec.StartTime, rec.FinishTime,
		); err != nil {
			return mapForeignKey(err)
		}

		return tx.Commit(ctx)
	})
}

// GetRecord retrieves one candidate's grade record within a contest.
func (r *ReportRepository) GetRecord(ctx context.Context, contestID string, candidateID string) (*model.GradeRecord, error) {
	rec := &model.GradeRecord{}
	var attended []byte

	err := r.pool.QueryRow(ctx,
		`SELECT candidate_id, status, grade, score, total_marks, percentage,
		        attended, fullscreen_warnings, noise_warnings, face_warnings,
		        start_time, finish_time
		 FROM grade_records
		 WHERE contest_id = $1 AND candidate_id = $2`, contestID, candidateID,
	).Scan(&rec.CandidateID, &rec.Status, &rec.Grade, &rec.Score, &rec.TotalMarks,
		&rec.Percentage, &attended,
		&rec.Proctor.FullscreenWarnings, &rec.Proctor.NoiseWarnings, &rec.Proctor.FaceWarnings,
		&rec.StartTime, &rec.FinishTime)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(attended, &rec.Attended); err != nil {
		return nil, fmt.Errorf("unmarshal attended questions: %w", err)
	}
	return rec, nil
}

// ListByContest retrieves every grade record for a contest, candidate order.
func (r *ReportRepository) ListByContest(ctx context.Context, contestID string) ([]model.GradeRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT candidate_id, status, grade, score, total_marks, percentage,
		        attended, fullscreen_warnings, noise_warnings, face_warnings,
		        start_time, finish_time
		 FROM grade_records
		 WHERE contest_id = $1
		 ORDER BY candidate_id ASC`, contestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.GradeRecord
	for rows.Next() {
		var rec model.GradeRecord
		var attended []byte
		if err := rows.Scan(&rec.CandidateID, &rec.Status, &rec.Grade,
			&rec.Score, &rec.TotalMarks, &rec.Percentage, &attended,
			&rec.Proctor.FullscreenWarnings, &rec.Proctor.NoiseWarnings, &rec.Proctor.FaceWarnings,
			&rec.StartTime, &rec.FinishTime); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(attended, &rec.Attended); err != nil {
			return nil, fmt.Errorf("unmarshal attended questions: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// IsPublished reports the contest's publish flag. A contest with no report
// row has simply never been published.
func (r *ReportRepository) IsPublished(ctx context.Context, contestID string) (bool, error) {
	var published bool
	err := r.pool.QueryRow(ctx,
		`SELECT is_published FROM contest_reports WHERE contest_id = $1`, contestID,
	).Scan(&published)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return published, nil
}

// Publish flips the contest's publish flag to true. Idempotent: publishing
// twice is a no-op. Returns ErrNotFound when the contest does not exist.
func (r *ReportRepository) Publish(ctx context.Context, contestID string) error {
	return withRetry(ctx, r.retry, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO contest_reports (contest_id, is_published)
			 VALUES ($1, TRUE)
			 ON CONFLICT (contest_id) DO UPDATE SET is_published = TRUE`,
			contestID)
		return mapForeignKey(err)
	})
}

// BulkIncrementProctor applies aggregated proctoring counter deltas in a
// single batch. Candidates without a grade record yet get a placeholder
// NotStarted row so warnings observed mid-attempt are never lost.
func (r *ReportRepository) BulkIncrementProctor(ctx context.Context, deltas []model.ProctorDelta) error {
	if len(deltas) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, d := range deltas {
		batch.Queue(
			`INSERT INTO grade_records
			   (contest_id, candidate_id, status, grade, score, total_marks, percentage,
			    attended, fullscreen_warnings, noise_warnings, face_warnings,
			    start_time, finish_time)
			 VALUES ($1, $2, $3, '', 0, 0, 0, '[]', $4, $5, $6, NOW(), NOW())
			 ON CONFLICT (contest_id, candidate_id) DO UPDATE SET
			   fullscreen_warnings = grade_records.fullscreen_warnings + EXCLUDED.fullscreen_warnings,
			   noise_warnings = grade_records.noise_warnings + EXCLUDED.noise_warnings,
			   face_warnings = grade_records.face_warnings + EXCLUDED.face_warnings`,
			d.ContestID, d.CandidateID, model.RecordStatusNotStarted,
			d.Counters.FullscreenWarnings, d.Counters.NoiseWarnings, d.Counters.FaceWarnings,
		)
	}

	return withRetry(ctx, r.retry, func() error {
		br := r.pool.SendBatch(ctx, batch)
		defer br.Close()
		for range deltas {
			if _, err := br.Exec(); err != nil {
				return mapForeignKey(err)
			}
		}
		return nil
	})
}

// mapForeignKey converts a foreign key violation (the contest row is gone)
// into ErrNotFound so callers can answer 404 instead of 500.
func mapForeignKey(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return ErrNotFound
	}
	return err
}
