package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/ihubtech/testportal-backend/internal/config"
	"github.com/ihubtech/testportal-backend/internal/model"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// recordSink receives aggregated proctoring counter deltas. Implemented by
// the report repository in production.
type recordSink interface {
	BulkIncrementProctor(ctx context.Context, deltas []model.ProctorDelta) error
}

// ProctorWorker drains the proctor event queue and folds warnings into grade
// records in batches. Events for the same candidate within a batch collapse
// into a single counter delta.
type ProctorWorker struct {
	rdb  *redis.Client
	sink recordSink
	log  zerolog.Logger
}

// NewProctorWorker creates a new ProctorWorker.
func NewProctorWorker(rdb *redis.Client, sink recordSink, log zerolog.Logger) *ProctorWorker {
	return &ProctorWorker{
		rdb:  rdb,
		sink: sink,
		log:  log.With().Str("component", "proctor_worker").Logger(),
	}
}

// Enqueue pushes a proctor event onto the queue. Called from the WebSocket
// handler; the hot path never touches Postgres.
func (w *ProctorWorker) Enqueue(ctx context.Context, ev *model.ProctorEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return w.rdb.RPush(ctx, config.WorkerKey.ProctorEventsQueue, data).Err()
}

// Start runs the drain loop until ctx is cancelled. Flushes happen when the
// buffer fills or the batch timeout elapses; a final flush runs on shutdown.
func (w *ProctorWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ProctorWorker started")

	buffer := make([]*model.ProctorEvent, 0, BatchSize)
	lastFlush := time.Now()

	for {
		if len(buffer) > 0 {
			if len(buffer) >= BatchSize || time.Since(lastFlush) >= BatchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0]
				lastFlush = time.Now()
			}
		}

		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.ProctorEventsQueue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // Queue empty, loop back to check the flush timer
			}
			if ctx.Err() != nil {
				w.shutdown(buffer)
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}

		if len(result) < 2 {
			continue
		}

		var ev model.ProctorEvent
		if err := json.Unmarshal([]byte(result[1]), &ev); err != nil {
			// Malformed JSON cannot be retried. Log and discard.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed event")
			continue
		}
		if ev.ContestID == "" || ev.CandidateID == "" {
			w.log.Warn().Str("data", result[1]).Msg("Discarding event without identity")
			continue
		}

		buffer = append(buffer, &ev)
	}
}

// flushSafe aggregates and writes a batch; on failure everything goes back
// onto the queue so a store outage loses nothing.
func (w *ProctorWorker) flushSafe(ctx context.Context, batch []*model.ProctorEvent) {
	deltas := aggregate(batch)

	if err := w.sink.BulkIncrementProctor(ctx, deltas); err != nil {
		w.log.Warn().Err(err).Int("events", len(batch)).Msg("Batch write failed, requeueing")
		w.requeue(ctx, batch)
		return
	}

	w.log.Debug().Int("events", len(batch)).Int("deltas", len(deltas)).Msg("Batch flushed")
}

// aggregate collapses raw events into one counter delta per candidate,
// keeping first-seen order for deterministic writes.
func aggregate(batch []*model.ProctorEvent) []model.ProctorDelta {
	index := make(map[string]int, len(batch))
	deltas := make([]model.ProctorDelta, 0, len(batch))

	for _, ev := range batch {
		key := ev.ContestID + "\x00" + ev.CandidateID
		i, ok := index[key]
		if !ok {
			i = len(deltas)
			index[key] = i
			deltas = append(deltas, model.ProctorDelta{
				ContestID:   ev.ContestID,
				CandidateID: ev.CandidateID,
			})
		}

		switch ev.Kind {
		case model.ProctorEventFullscreen:
			deltas[i].Counters.FullscreenWarnings++
		case model.ProctorEventNoise:
			deltas[i].Counters.NoiseWarnings++
		case model.ProctorEventFace:
			deltas[i].Counters.FaceWarnings++
		}
	}
	return deltas
}

func (w *ProctorWorker) requeue(ctx context.Context, items []*model.ProctorEvent) {
	pipe := w.rdb.Pipeline()
	for _, ev := range items {
		data, _ := json.Marshal(ev)
		pipe.RPush(ctx, config.WorkerKey.ProctorEventsQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue proctor events. Data loss occurred.")
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued failed events")
	// Avoid thrashing while the store is down.
	time.Sleep(2 * time.Second)
}

func (w *ProctorWorker) shutdown(buffer []*model.ProctorEvent) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}
