package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/relay-chat-api/internal/observability"
	"github.com/noah-isme/relay-chat-api/internal/repository"
)

// RetentionService deletes messages older than the retention age from both
// message collections. The automatic path is gated to at most one run per
// rolling window by a persisted last-run timestamp; the manual path always
// executes.
type RetentionService interface {
	Start(ctx context.Context)
	// RunAuto executes the gated automatic run. Returns the number of
	// deleted messages and whether the run actually executed.
	RunAuto(ctx context.Context) (int64, bool, error)
	// RunManual executes an ungated run on behalf of a moderator.
	RunManual(ctx context.Context, actor string) (int64, error)
}

type retentionService struct {
	messages      repository.MessageRepository
	accounts      repository.AccountRepository
	redis         *redis.Client
	lastRunKey    string
	age           time.Duration
	checkInterval time.Duration
	logger        zerolog.Logger
	tracer        trace.Tracer
}

// NewRetentionService creates the retention enforcer.
func NewRetentionService(messages repository.MessageRepository, accounts repository.AccountRepository, redisClient *redis.Client, keyBase string, age, checkInterval time.Duration, logger zerolog.Logger) RetentionService {
	if age <= 0 {
		age = 24 * time.Hour
	}
	if checkInterval <= 0 {
		checkInterval = time.Hour
	}

	lastRunKey := "retention:last_run"
	if keyBase != "" {
		lastRunKey = keyBase + ":retention:last_run"
	}

	return &retentionService{
		messages:      messages,
		accounts:      accounts,
		redis:         redisClient,
		lastRunKey:    lastRunKey,
		age:           age,
		checkInterval: checkInterval,
		logger:        logger.With().Str("component", "retention_service").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/relay-chat-api/internal/service/retention"),
	}
}

// Start launches the background scheduler: one check shortly after startup,
// then periodic checks against the persisted gate.
func (s *retentionService) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.checkInterval)
		defer ticker.Stop()

		if _, _, err := s.RunAuto(ctx); err != nil {
			s.logger.Error().Err(err).Msg("automatic retention run failed")
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, _, err := s.RunAuto(ctx); err != nil {
					s.logger.Error().Err(err).Msg("automatic retention run failed")
				}
			}
		}
	}()
}

func (s *retentionService) RunAuto(ctx context.Context) (int64, bool, error) {
	last, err := s.lastRun(ctx)
	if err != nil {
		return 0, false, err
	}
	if !last.IsZero() && time.Since(last) < s.age {
		s.logger.Debug().Time("last_run", last).Msg("retention already ran within the window")
		return 0, false, nil
	}

	deleted, err := s.run(ctx, "auto")
	if err != nil {
		return 0, false, err
	}

	// The gate moves only after a successful run.
	if err := s.recordRun(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist retention run timestamp")
	}

	return deleted, true, nil
}

func (s *retentionService) RunManual(ctx context.Context, actor string) (int64, error) {
	account, err := s.accounts.GetByUsername(ctx, actor)
	if err != nil || !account.IsModerator {
		return 0, ErrNotModerator
	}

	deleted, err := s.run(ctx, "manual")
	if err != nil {
		return 0, err
	}

	if err := s.recordRun(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist retention run timestamp")
	}

	s.logger.Info().Str("actor", actor).Int64("deleted", deleted).Msg("manual retention run completed")
	return deleted, nil
}

func (s *retentionService) run(ctx context.Context, trigger string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "retention.run", trace.WithAttributes(
		attribute.String("retention.trigger", trigger),
	))
	defer span.End()

	cutoff := time.Now().Add(-s.age)
	deleted, err := s.messages.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	observability.RetentionDeleted().WithLabelValues(trigger).Add(float64(deleted))
	if deleted > 0 {
		s.logger.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Str("trigger", trigger).Msg("retention deleted old messages")
	}

	return deleted, nil
}

func (s *retentionService) lastRun(ctx context.Context) (time.Time, error) {
	if s.redis == nil {
		return time.Time{}, nil
	}

	raw, err := s.redis.Get(ctx, s.lastRunKey).Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}

	last, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		// A corrupt gate value is treated as absent.
		s.logger.Warn().Str("value", raw).Msg("discarding unparseable retention timestamp")
		return time.Time{}, nil
	}
	return last, nil
}

func (s *retentionService) recordRun(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Set(ctx, s.lastRunKey, time.Now().UTC().Format(time.RFC3339), 0).Err()
}
