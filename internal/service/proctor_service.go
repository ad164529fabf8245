package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lumilearn/assess-backend/internal/config"
	"github.com/lumilearn/assess-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ProctorEvent is the flattened record pushed onto the audit queue and
// broadcast to live monitors.
type ProctorEvent struct {
	SessionID    uuid.UUID `json:"session_id"`
	AssessmentID uuid.UUID `json:"assessment_id"`
	CandidateID  int       `json:"candidate_id"`
	EventType    string    `json:"event_type"`
	Timestamp    time.Time `json:"timestamp"`
	TotalCount   int       `json:"total_count"`
}

// ProctorService records proctoring signals. The session row is the source
// of truth (count and ordered log updated atomically); Redis carries two
// best-effort side channels, a persistence queue for the audit table and a
// pub/sub feed for live monitors. Redis being down never fails a report.
type ProctorService struct {
	sessions SessionStore
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewProctorService creates a new ProctorService.
func NewProctorService(sessions SessionStore, rdb *redis.Client, log zerolog.Logger) *ProctorService {
	return &ProctorService{
		sessions: sessions,
		rdb:      rdb,
		log:      log.With().Str("component", "proctor_service").Logger(),
	}
}

// RecordTabSwitch appends a tab-hidden event to the session's log and bumps
// the counter in one conditional update, then fans the event out to the
// audit queue and the assessment's monitor channel.
func (s *ProctorService) RecordTabSwitch(ctx context.Context, sessionID uuid.UUID, candidateID int) (int, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrSessionNotActive
		}
		return 0, err
	}
	if sess.CandidateID != candidateID {
		return 0, ErrSessionNotActive
	}

	ev := model.TabSwitchEvent{
		Timestamp: time.Now(),
		EventType: model.TabSwitchEventType,
	}

	count, ok, err := s.sessions.AppendTabSwitch(ctx, sessionID, ev)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrSessionNotActive
	}

	s.fanOut(ctx, ProctorEvent{
		SessionID:    sessionID,
		AssessmentID: sess.AssessmentID,
		CandidateID:  candidateID,
		EventType:    ev.EventType,
		Timestamp:    ev.Timestamp,
		TotalCount:   count,
	})

	return count, nil
}

// GetLog returns a session's ordered tab-switch log with its total count.
// Intended for creators reviewing a finalized attempt.
func (s *ProctorService) GetLog(ctx context.Context, sessionID uuid.UUID) (int, []model.TabSwitchEvent, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil, ErrNotFound
		}
		return 0, nil, err
	}
	log := sess.TabSwitchLog
	if log == nil {
		log = []model.TabSwitchEvent{}
	}
	return sess.TabSwitchCount, log, nil
}

// fanOut pushes the event to the persistence queue and publishes it on the
// assessment's monitor channel. Failures are logged and swallowed.
func (s *ProctorService) fanOut(ctx context.Context, ev ProctorEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal proctor event")
		return
	}

	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistProctorEventsQueue, payload).Err(); err != nil {
		s.log.Warn().Err(err).Msg("proctor event queue push failed")
	}

	channel := config.CacheKey.AssessmentMonitorChannel(ev.AssessmentID.String())
	if err := s.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		s.log.Warn().Err(err).Msg("proctor event publish failed")
	}
}
