package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lumilearn/assess-backend/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// ProctorWorker drains the proctor event queue and persists events into the
// proctor_events audit table in batches. The session row already holds the
// authoritative count and log; this table exists for cross-session audit
// queries, so the worker favors throughput over latency.
type ProctorWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewProctorWorker creates a new ProctorWorker.
func NewProctorWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ProctorWorker {
	return &ProctorWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "proctor_worker").Logger(),
	}
}

type proctorPayload struct {
	SessionID    string    `json:"session_id"`
	AssessmentID string    `json:"assessment_id"`
	CandidateID  int       `json:"candidate_id"`
	EventType    string    `json:"event_type"`
	Timestamp    time.Time `json:"timestamp"`
	TotalCount   int       `json:"total_count"`
}

// Start runs the drain loop until the context is cancelled, then flushes
// whatever is still buffered.
func (w *ProctorWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ProctorWorker started")

	buffer := make([]*proctorPayload, 0, BatchSize)
	lastFlushTime := time.Now()

	for {
		// 1. Check flush conditions (time or size)
		if len(buffer) > 0 {
			if len(buffer) >= BatchSize || time.Since(lastFlushTime) >= BatchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0] // Clear buffer, keep capacity
				lastFlushTime = time.Now()
			}
		}

		// 2. Check context (graceful shutdown)
		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		// 3. Fetch from Redis. BLPop blocks for 1 second and returns
		// immediately when data exists.
		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistProctorEventsQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue // Timeout (queue empty), loop back to check flush timer
			}
			if ctx.Err() != nil {
				return // Context cancelled
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}

		if len(result) < 2 {
			continue
		}

		var payload proctorPayload
		if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
			// Malformed JSON cannot be retried. Log and discard.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			continue
		}

		buffer = append(buffer, &payload)
	}
}

// flushSafe attempts bulk insert, then fallback insert, then requeue.
func (w *ProctorWorker) flushSafe(ctx context.Context, batch []*proctorPayload) {
	if err := w.bulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, batch)
	}
}

func (w *ProctorWorker) bulkInsert(ctx context.Context, batch []*proctorPayload) error {
	rows := make([][]interface{}, 0, len(batch))
	for _, p := range batch {
		sessionID, err := uuid.Parse(p.SessionID)
		if err != nil {
			// Trigger fallback, which handles the bad UUID individually.
			return err
		}
		assessmentID, err := uuid.Parse(p.AssessmentID)
		if err != nil {
			return err
		}
		rows = append(rows, []interface{}{
			sessionID, assessmentID, p.CandidateID, p.EventType, p.Timestamp,
		})
	}

	_, err := w.pool.CopyFrom(
		ctx,
		pgx.Identifier{"proctor_events"},
		[]string{"session_id", "assessment_id", "candidate_id", "event_type", "occurred_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

func (w *ProctorWorker) fallbackInsert(ctx context.Context, batch []*proctorPayload) {
	requeueList := make([]*proctorPayload, 0)

	for _, p := range batch {
		sessionID, err := uuid.Parse(p.SessionID)
		if err != nil {
			w.log.Error().Str("session_id", p.SessionID).Msg("Dropping proctor event with invalid UUID")
			continue
		}
		assessmentID, err := uuid.Parse(p.AssessmentID)
		if err != nil {
			w.log.Error().Str("assessment_id", p.AssessmentID).Msg("Dropping proctor event with invalid UUID")
			continue
		}

		_, err = w.pool.Exec(ctx,
			`INSERT INTO proctor_events (session_id, assessment_id, candidate_id, event_type, occurred_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			sessionID, assessmentID, p.CandidateID, p.EventType, p.Timestamp,
		)
		if err != nil {
			w.log.Error().Err(err).Int("candidate_id", p.CandidateID).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, p)
		}
	}

	// Items that failed SQL insert (DB was down) go back to Redis.
	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *ProctorWorker) requeue(ctx context.Context, items []*proctorPayload) {
	pipe := w.rdb.Pipeline()
	for _, p := range items {
		data, _ := json.Marshal(p)
		pipe.RPush(ctx, config.WorkerKey.PersistProctorEventsQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue items to Redis. Data loss occurred.")
	} else {
		w.log.Info().Int("count", len(items)).Msg("Requeued failed items back to Redis")
		// Sleep a bit to avoid thrashing if the DB is down hard.
		time.Sleep(2 * time.Second)
	}
}

func (w *ProctorWorker) shutdown(buffer []*proctorPayload) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}
