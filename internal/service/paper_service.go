package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/ihubtech/testportal-backend/internal/config"
	"github.com/ihubtech/testportal-backend/internal/model"
)

// Delivery domain errors.
var (
	ErrNoQuestionsAvailable  = errors.New("contest has no questions")
	ErrInsufficientQuestions = errors.New("configured question count exceeds the bank")
)

// startClock records when a candidate first opened a contest's paper.
// Backed by Redis in production so the mark survives restarts.
type startClock interface {
	MarkStart(ctx context.Context, candidateID, contestID string, at time.Time, ttl time.Duration) error
	GetStart(ctx context.Context, candidateID, contestID string) (time.Time, bool, error)
}

// RedisStartClock pins attempt start times in Redis. SetNX keeps the first
// observation; refreshing the paper does not reset the clock.
type RedisStartClock struct {
	rdb *redis.Client
}

// NewRedisStartClock creates a RedisStartClock.
func NewRedisStartClock(rdb *redis.Client) *RedisStartClock {
	return &RedisStartClock{rdb: rdb}
}

// MarkStart records the first time a candidate opened the paper.
func (c *RedisStartClock) MarkStart(ctx context.Context, candidateID, contestID string, at time.Time, ttl time.Duration) error {
	key := config.CacheKey.CandidateContestStartKey(candidateID, contestID)
	return c.rdb.SetNX(ctx, key, at.UTC().Format(time.RFC3339Nano), ttl).Err()
}

// GetStart returns the recorded start time, or ok=false if none survives.
func (c *RedisStartClock) GetStart(ctx context.Context, candidateID, contestID string) (time.Time, bool, error) {
	key := config.CacheKey.CandidateContestStartKey(candidateID, contestID)
	raw, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get start time: %w", err)
	}
	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse start time: %w", err)
	}
	return at, true, nil
}

// PaperService assembles the per-candidate question paper: subset selection,
// ordering, option shuffling, and answer stripping.
type PaperService struct {
	contests contestStore
	clock    startClock
	log      zerolog.Logger
	now      func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewPaperService creates a new PaperService.
func NewPaperService(contests contestStore, clock startClock, log zerolog.Logger) *PaperService {
	return &PaperService{
		contests: contests,
		clock:    clock,
		log:      log.With().Str("component", "paper_service").Logger(),
		now:      time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// BuildPaper selects and shapes the questions served to one candidate.
// The selection is recomputed per call; refreshing mid-attempt may serve a
// different subset, which is why answers are keyed by question_id.
func (s *PaperService) BuildPaper(ctx context.Context, contestID, candidateID string) (*model.DeliveredPaper, error) {
	contest, err := s.contests.GetByID(ctx, contestID)
	if err != nil {
		return nil, mapContestErr(err)
	}
	if contest.Status == model.ContestStatusClosed {
		return nil, ErrContestClosed
	}
	if len(contest.Questions) == 0 {
		return nil, ErrNoQuestionsAvailable
	}

	// A zero or unset count delivers an empty paper; the bank-empty check
	// above already caught the configuration mistake worth rejecting.
	n := int(contest.Config.QuestionCount)
	if n < 0 {
		n = 0
	}
	if n > len(contest.Questions) {
		return nil, ErrInsufficientQuestions
	}

	selected := s.selectQuestions(contest, n)

	duration := contest.Config.Duration.Total()
	if s.clock != nil {
		// Keep the mark well past the attempt window so late submissions
		// still find their start time.
		ttl := duration + 12*time.Hour
		if err := s.clock.MarkStart(ctx, candidateID, contestID, s.now(), ttl); err != nil {
			s.log.Warn().Err(err).Str("contest_id", contestID).Msg("Failed to record start time")
		}
	}

	return &model.DeliveredPaper{
		ContestID:       contestID,
		AssessmentName:  contest.Overview.Name,
		DurationMinutes: int(duration.Minutes()),
		Questions:       selected,
	}, nil
}

// selectQuestions copies the bank, applies subset and ordering rules, and
// strips grading fields. The stored bank is never mutated.
func (s *PaperService) selectQuestions(contest *model.Contest, n int) []model.DeliveredQuestion {
	order := make([]int, len(contest.Questions))
	for i := range order {
		order[i] = i
	}
	if contest.Config.ShuffleQuestions {
		s.shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	delivered := make([]model.DeliveredQuestion, 0, n)
	for _, idx := range order[:n] {
		q := contest.Questions[idx]

		options := make([]string, len(q.Options))
		copy(options, q.Options)
		if q.RandomizeOrder {
			s.shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
		}

		delivered = append(delivered, model.DeliveredQuestion{
			QuestionID:   q.QuestionID,
			Prompt:       q.Prompt,
			Options:      options,
			Mark:         q.Mark,
			NegativeMark: q.NegativeMark,
		})
	}
	return delivered
}

func (s *PaperService) shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	s.rnd.Shuffle(n, swap)
	s.mu.Unlock()
}
