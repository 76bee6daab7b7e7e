package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ihubtech/testportal-backend/internal/model"
	"github.com/ihubtech/testportal-backend/internal/repository"
)

// memContestStore is an in-memory contestStore for unit tests.
type memContestStore struct {
	contests map[string]*model.Contest
}

func newMemContestStore(contests ...*model.Contest) *memContestStore {
	m := &memContestStore{contests: make(map[string]*model.Contest)}
	for _, c := range contests {
		m.contests[c.ContestID] = c
	}
	return m
}

func (m *memContestStore) Create(_ context.Context, c *model.Contest) error {
	if _, ok := m.contests[c.ContestID]; ok {
		return repository.ErrConflict
	}
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	m.contests[c.ContestID] = c
	return nil
}

func (m *memContestStore) GetByID(_ context.Context, id string) (*model.Contest, error) {
	c, ok := m.contests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (m *memContestStore) ListByStaffPaginated(_ context.Context, staffID string, limit, offset int) ([]model.Contest, int, error) {
	var all []model.Contest
	for _, c := range m.contests {
		if c.StaffID == staffID {
			all = append(all, *c)
		}
	}
	total := len(all)
	if offset > len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (m *memContestStore) Update(_ context.Context, c *model.Contest) error {
	if _, ok := m.contests[c.ContestID]; !ok {
		return repository.ErrNotFound
	}
	m.contests[c.ContestID] = c
	return nil
}

func (m *memContestStore) ReplaceQuestions(_ context.Context, id string, questions []model.Question) error {
	c, ok := m.contests[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Questions = questions
	return nil
}

func (m *memContestStore) SetStatus(_ context.Context, id string, status model.ContestStatus) error {
	c, ok := m.contests[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Status = status
	return nil
}

func (m *memContestStore) Delete(_ context.Context, id string) error {
	if _, ok := m.contests[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.contests, id)
	return nil
}

// memReportStore is an in-memory reportStore for unit tests.
type memReportStore struct {
	records   map[string]map[string]*model.GradeRecord
	published map[string]bool
	upserts   int
}

func newMemReportStore() *memReportStore {
	return &memReportStore{
		records:   make(map[string]map[string]*model.GradeRecord),
		published: make(map[string]bool),
	}
}

func (m *memReportStore) UpsertRecord(_ context.Context, contestID string, rec *model.GradeRecord) error {
	m.upserts++
	byCandidate, ok := m.records[contestID]
	if !ok {
		byCandidate = make(map[string]*model.GradeRecord)
		m.records[contestID] = byCandidate
		if _, seen := m.published[contestID]; !seen {
			m.published[contestID] = false
		}
	}
	if prev, ok := byCandidate[rec.CandidateID]; ok {
		merged := *rec
		if prev.StartTime.Before(rec.StartTime) {
			merged.StartTime = prev.StartTime
		}
		byCandidate[rec.CandidateID] = &merged
		return nil
	}
	cp := *rec
	byCandidate[rec.CandidateID] = &cp
	return nil
}

func (m *memReportStore) GetRecord(_ context.Context, contestID, candidateID string) (*model.GradeRecord, error) {
	rec, ok := m.records[contestID][candidateID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *rec
	return &cp, nil
}

func (m *memReportStore) ListByContest(_ context.Context, contestID string) ([]model.GradeRecord, error) {
	var records []model.GradeRecord
	for _, rec := range m.records[contestID] {
		records = append(records, *rec)
	}
	return records, nil
}

func (m *memReportStore) IsPublished(_ context.Context, contestID string) (bool, error) {
	return m.published[contestID], nil
}

func (m *memReportStore) Publish(_ context.Context, contestID string) error {
	m.published[contestID] = true
	return nil
}

// memClock is an in-memory startClock.
type memClock struct {
	starts map[string]time.Time
}

func newMemClock() *memClock {
	return &memClock{starts: make(map[string]time.Time)}
}

func (c *memClock) MarkStart(_ context.Context, candidateID, contestID string, at time.Time, _ time.Duration) error {
	key := candidateID + "/" + contestID
	if _, ok := c.starts[key]; !ok {
		c.starts[key] = at
	}
	return nil
}

func (c *memClock) GetStart(_ context.Context, candidateID, contestID string) (time.Time, bool, error) {
	at, ok := c.starts[candidateID+"/"+contestID]
	return at, ok, nil
}
