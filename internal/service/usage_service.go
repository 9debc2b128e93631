package service

import (
	"context"
	"errors"
	"time"

	"convohealth-be/internal/pkg/logger"
	"convohealth-be/pkg/events"
	"convohealth-be/pkg/metrics"
	"convohealth-be/pkg/preferences"
	"convohealth-be/pkg/usage"

	"github.com/google/uuid"
)

type IUsageService interface {
	Status(ctx context.Context, ownerId uuid.UUID) (*usage.Status, error)
	CheckAllowance(ctx context.Context, ownerId uuid.UUID) (usage.Notice, error)
	Track(ctx context.Context, ownerId uuid.UUID, minutes float64) (usage.Notice, error)
	Repair(ctx context.Context, ownerId uuid.UUID) (*usage.RepairReport, error)
	TutorialSeen(ctx context.Context, ownerId uuid.UUID) (bool, error)
	SetTutorialSeen(ctx context.Context, ownerId uuid.UUID, seen bool) error
}

type usageService struct {
	backend   preferences.Backend
	store     usage.DurationStore
	limits    usage.Limits
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    logger.ILogger
	now       func() time.Time
}

func NewUsageService(
	backend preferences.Backend,
	store usage.DurationStore,
	limits usage.Limits,
	publisher events.Publisher,
	m *metrics.Metrics,
	log logger.ILogger,
	now func() time.Time,
) IUsageService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if now == nil {
		now = time.Now
	}
	return &usageService{
		backend:   backend,
		store:     store,
		limits:    limits,
		publisher: publisher,
		metrics:   m,
		logger:    log,
		now:       now,
	}
}

func (s *usageService) meter(ownerId uuid.UUID) (*usage.Meter, error) {
	if ownerId == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	prefs := preferences.New(s.backend, ownerId.String())
	return usage.NewMeter(prefs, s.store, usage.WithLimits(s.limits), usage.WithClock(s.now)), nil
}

func (s *usageService) Status(ctx context.Context, ownerId uuid.UUID) (*usage.Status, error) {
	m, err := s.meter(ownerId)
	if err != nil {
		return nil, err
	}
	status, err := m.Status(ctx)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (s *usageService) CheckAllowance(ctx context.Context, ownerId uuid.UUID) (usage.Notice, error) {
	m, err := s.meter(ownerId)
	if err != nil {
		return usage.Notice{}, err
	}
	return m.CheckAllowance(ctx)
}

// Track adds a finished session to the meter. The notice is published only
// on the call that crosses a threshold.
func (s *usageService) Track(ctx context.Context, ownerId uuid.UUID, minutes float64) (usage.Notice, error) {
	m, err := s.meter(ownerId)
	if err != nil {
		return usage.Notice{}, err
	}

	notice, err := m.TrackUsage(ctx, minutes)
	if err != nil {
		if errors.Is(err, usage.ErrInvalidDuration) {
			s.logger.Warn("UsageService", "Rejected session duration", map[string]interface{}{
				"user_id": ownerId,
				"minutes": minutes,
			})
		}
		return usage.Notice{}, err
	}

	if notice.Crossed {
		s.metrics.UsageNotices.WithLabelValues(string(notice.Level)).Inc()
		evt := events.New(events.UsageThresholdReached, map[string]interface{}{
			"user_id":        ownerId.String(),
			"level":          string(notice.Level),
			"message":        notice.Message,
			"minutes_used":   notice.MinutesUsed,
			"limit_minutes":  notice.LimitMinutes,
			"days_remaining": notice.DaysRemaining,
		})
		if err := s.publisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("UsageService", "Failed to publish usage notice", map[string]interface{}{"error": err.Error()})
		}
	}
	return notice, nil
}

func (s *usageService) Repair(ctx context.Context, ownerId uuid.UUID) (*usage.RepairReport, error) {
	m, err := s.meter(ownerId)
	if err != nil {
		return nil, err
	}
	report, err := m.Repair(ctx)
	if err != nil {
		return nil, err
	}

	if report.Repaired > 0 {
		s.logger.Info("UsageService", "Repaired session durations", map[string]interface{}{
			"user_id":        ownerId,
			"repaired":       report.Repaired,
			"previous_total": report.PreviousTotal,
			"total":          report.Total,
		})
		evt := events.New(events.UsageSessionsRepaired, map[string]interface{}{
			"user_id":  ownerId.String(),
			"repaired": report.Repaired,
			"total":    report.Total,
		})
		if err := s.publisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("UsageService", "Failed to publish repair event", map[string]interface{}{"error": err.Error()})
		}
	}
	return &report, nil
}

func (s *usageService) TutorialSeen(ctx context.Context, ownerId uuid.UUID) (bool, error) {
	if ownerId == uuid.Nil {
		return false, ErrUnauthenticated
	}
	return preferences.New(s.backend, ownerId.String()).GetBool(ctx, preferences.KeyTutorialSeen)
}

func (s *usageService) SetTutorialSeen(ctx context.Context, ownerId uuid.UUID, seen bool) error {
	if ownerId == uuid.Nil {
		return ErrUnauthenticated
	}
	return preferences.New(s.backend, ownerId.String()).SetBool(ctx, preferences.KeyTutorialSeen, seen)
}
