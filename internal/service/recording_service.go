package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"convohealth-be/internal/dto"
	"convohealth-be/internal/pkg/logger"
	"convohealth-be/internal/repository/memory"
	"convohealth-be/pkg/events"
	"convohealth-be/pkg/recording/capture"
	"convohealth-be/pkg/recording/orchestrator"
	"convohealth-be/pkg/store"
	"convohealth-be/pkg/usage"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("recording session not found")
	ErrSessionActive   = errors.New("a recording session is already in progress")
)

type IRecordingService interface {
	Start(ctx context.Context, ownerId uuid.UUID) (*dto.StartRecordingResponse, error)
	UploadChunk(ctx context.Context, ownerId uuid.UUID, sessionId string, data []byte) (*dto.ChunkUploadResponse, error)
	Pause(ctx context.Context, ownerId uuid.UUID, sessionId string) (*dto.RecordingStatusResponse, error)
	Resume(ctx context.Context, ownerId uuid.UUID, sessionId string) (*dto.RecordingStatusResponse, error)
	Stop(ctx context.Context, ownerId uuid.UUID, sessionId string) (*dto.RecordingStatusResponse, error)
	Reset(ctx context.Context, ownerId uuid.UUID, sessionId string) (*dto.RecordingStatusResponse, error)
	Status(ctx context.Context, ownerId uuid.UUID, sessionId string) (*dto.RecordingStatusResponse, error)
	Wait(ctx context.Context, ownerId uuid.UUID, sessionId string) (*dto.RecordingStatusResponse, error)
	Abandon(ctx context.Context, ownerId uuid.UUID, sessionId string) error
	Shutdown()
}

type RecordingServiceConfig struct {
	TickInterval   time.Duration
	ChunkInterval  time.Duration
	AnalyzingDelay time.Duration
	SessionIdleTTL time.Duration
	// MaxSessionSeconds stops a session automatically once reached.
	MaxSessionSeconds float64
}

type recordingService struct {
	sessions    *memory.SessionRepository
	transcriber orchestrator.Transcriber
	generator   orchestrator.NoteGenerator
	usage       IUsageService
	relay       IPublisherService
	publisher   events.Publisher
	cfg         RecordingServiceConfig
	options     []orchestrator.Option
	logger      logger.ILogger
	now         func() time.Time
}

func NewRecordingService(
	transcriber orchestrator.Transcriber,
	generator orchestrator.NoteGenerator,
	usageService IUsageService,
	relay IPublisherService,
	publisher events.Publisher,
	cfg RecordingServiceConfig,
	log logger.ILogger,
	opts ...orchestrator.Option,
) IRecordingService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if cfg.MaxSessionSeconds <= 0 {
		cfg.MaxSessionSeconds = usage.MaxSessionMinutes * 60
	}
	s := &recordingService{
		transcriber: transcriber,
		generator:   generator,
		usage:       usageService,
		relay:       relay,
		publisher:   publisher,
		cfg:         cfg,
		options:     opts,
		logger:      log,
		now:         time.Now,
	}
	s.sessions = memory.NewSessionRepository(cfg.SessionIdleTTL, s.evicted)
	return s
}

func (s *recordingService) evicted(sess *store.RecordingSession) {
	_ = sess.Orchestrator.Close()
	s.logger.Info("RecordingService", "Recording session released", map[string]interface{}{
		"session_id": sess.ID,
		"user_id":    sess.OwnerID,
	})
}

// Start opens a fresh session for the owner. A finished or idle session is
// replaced; a capturing or processing one is a conflict.
func (s *recordingService) Start(ctx context.Context, ownerId uuid.UUID) (*dto.StartRecordingResponse, error) {
	if ownerId == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	if existing, ok := s.sessions.FindByOwner(ownerId); ok {
		switch existing.Orchestrator.Snapshot().Status {
		case orchestrator.StatusIdle, orchestrator.StatusComplete:
			s.sessions.Delete(ownerId)
		default:
			return nil, ErrSessionActive
		}
	}

	// Advisory only: an exhausted trial still records.
	notice, err := s.usage.CheckAllowance(ctx, ownerId)
	if err != nil {
		s.logger.Warn("RecordingService", "Usage check failed", map[string]interface{}{
			"user_id": ownerId,
			"error":   err.Error(),
		})
	}

	sess := &store.RecordingSession{
		ID:        uuid.NewString(),
		OwnerID:   ownerId,
		Device:    capture.NewPushDevice(),
		CreatedAt: s.now().UTC(),
	}

	opts := []orchestrator.Option{
		orchestrator.WithLogger(s.logger),
		orchestrator.WithListener(s.listener(sess)),
		orchestrator.WithMaxDuration(int(s.cfg.MaxSessionSeconds)),
	}
	if s.cfg.TickInterval > 0 {
		opts = append(opts, orchestrator.WithTickInterval(s.cfg.TickInterval))
	}
	if s.cfg.ChunkInterval > 0 {
		opts = append(opts, orchestrator.WithChunkInterval(s.cfg.ChunkInterval))
	}
	opts = append(opts, orchestrator.WithAnalyzingDelay(s.cfg.AnalyzingDelay))
	opts = append(opts, s.options...)

	sess.Orchestrator = orchestrator.New(sess.ID, sess.Device, s.transcriber, s.generator, opts...)

	if !s.sessions.Save(sess) {
		return nil, ErrSessionActive
	}
	if err := sess.Orchestrator.Start(ctx); err != nil {
		s.sessions.Delete(ownerId)
		return nil, err
	}

	return &dto.StartRecordingResponse{
		SessionId: sess.ID,
		Snapshot:  sess.Orchestrator.Snapshot(),
		Usage:     notice,
	}, nil
}

func (s *recordingService) session(ownerId uuid.UUID, sessionId string) (*store.RecordingSession, error) {
	sess, ok := s.sessions.Get(ownerId, sessionId)
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.sessions.Touch(sess)
	return sess, nil
}

// UploadChunk feeds microphone bytes into the session's device. Bytes sent
// while paused are accepted and discarded by the capture pump.
func (s *recordingService) UploadChunk(ctx context.Context, ownerId uuid.UUID, sessionId string, data []byte) (*dto.ChunkUploadResponse, error) {
	sess, err := s.session(ownerId, sessionId)
	if err != nil {
		return nil, err
	}
	n, err := sess.Device.Write(data)
	if err != nil {
		return nil, &orchestrator.TransitionError{Op: "upload", From: sess.Orchestrator.Snapshot().Status}
	}
	return &dto.ChunkUploadResponse{Bytes: n}, nil
}

func (s *recordingService) Pause(ctx context.Context, ownerId uuid.UUID, sessionId string) (*dto.RecordingStatusResponse, error) {
	sess, err := s.session(ownerId, sessionId)
	if err != nil {
		return nil, err
	}
	if err := sess.Orchestrator.Pause(); err != nil {
		return nil, err
	}
	return s.status(sess), nil
}

func (s *recordingService) Resume(ctx context.Context, ownerId uuid.UUID, sessionId string) (*dto.RecordingStatusResponse, error) {
	sess, err := s.session(ownerId, sessionId)
	if err != nil {
		return nil, err
	}
	if err := sess.Orchestrator.Resume(); err != nil {
		return nil, err
	}
	return s.status(sess), nil
}

// Stop hands the audio to the pipeline and returns at once; the pipeline is
// not tied to the request context.
func (s *recordingService) Stop(ctx context.Context, ownerId uuid.UUID, sessionId string) (*dto.RecordingStatusResponse, error) {
	sess, err := s.session(ownerId, sessionId)
	if err != nil {
		return nil, err
	}
	if err := s.stop(ctx, sess); err != nil {
		return nil, err
	}
	return s.status(sess), nil
}

func (s *recordingService) stop(ctx context.Context, sess *store.RecordingSession) error {
	if err := sess.Orchestrator.Stop(ctx); err != nil {
		return err
	}
	go s.finish(sess)
	return nil
}

// finish waits for the pipeline and meters the session. Runs once per Stop.
func (s *recordingService) finish(sess *store.RecordingSession) {
	ctx := context.Background()
	result, err := sess.Orchestrator.Wait(ctx)
	if err != nil {
		s.logger.Warn("RecordingService", "Session ended without a result", map[string]interface{}{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
		return
	}

	minutes := float64(result.DurationSeconds) / 60
	notice, err := s.usage.Track(ctx, sess.OwnerID, minutes)
	if err != nil {
		s.logger.Error("RecordingService", "Failed to track usage", map[string]interface{}{
			"session_id": sess.ID,
			"minutes":    minutes,
			"error":      err.Error(),
		})
	} else {
		sess.SetUsage(notice)
	}

	evt := events.New(events.RecordingCompleted, map[string]interface{}{
		"user_id":                sess.OwnerID.String(),
		"session_id":             sess.ID,
		"duration_seconds":       result.DurationSeconds,
		"transcription_provider": result.TranscriptionProvider,
		"note_generator":         result.NoteGenerator,
		"notices":                len(result.Notices),
	})
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("RecordingService", "Failed to publish completion", map[string]interface{}{"error": err.Error()})
	}
}

func (s *recordingService) Reset(ctx context.Context, ownerId uuid.UUID, sessionId string) (*dto.RecordingStatusResponse, error) {
	sess, err := s.session(ownerId, sessionId)
	if err != nil {
		return nil, err
	}
	if err := sess.Orchestrator.Reset(); err != nil {
		return nil, err
	}
	return s.status(sess), nil
}

func (s *recordingService) Status(ctx context.Context, ownerId uuid.UUID, sessionId string) (*dto.RecordingStatusResponse, error) {
	sess, err := s.session(ownerId, sessionId)
	if err != nil {
		return nil, err
	}
	return s.status(sess), nil
}

// Wait blocks until the session's pipeline finishes or ctx ends.
func (s *recordingService) Wait(ctx context.Context, ownerId uuid.UUID, sessionId string) (*dto.RecordingStatusResponse, error) {
	sess, err := s.session(ownerId, sessionId)
	if err != nil {
		return nil, err
	}
	if _, err := sess.Orchestrator.Wait(ctx); err != nil {
		return nil, err
	}
	return s.status(sess), nil
}

// Abandon tears the session down from any state, releasing the device.
func (s *recordingService) Abandon(ctx context.Context, ownerId uuid.UUID, sessionId string) error {
	if _, err := s.session(ownerId, sessionId); err != nil {
		return err
	}
	s.sessions.Delete(ownerId)
	return nil
}

func (s *recordingService) Shutdown() {
	s.sessions.Flush()
}

func (s *recordingService) status(sess *store.RecordingSession) *dto.RecordingStatusResponse {
	return &dto.RecordingStatusResponse{
		Snapshot: sess.Orchestrator.Snapshot(),
		Usage:    sess.Usage(),
	}
}

// listener forwards every session event to the websocket relay and enforces
// the per-session length cap.
func (s *recordingService) listener(sess *store.RecordingSession) orchestrator.Listener {
	return func(e orchestrator.Event) {
		if e.Type == orchestrator.EventTick && e.ElapsedSeconds >= s.cfg.MaxSessionSeconds {
			go s.autoStop(sess)
		}

		if s.relay == nil {
			return
		}
		payload, err := json.Marshal(dto.RecordingEventMessage{UserId: sess.OwnerID.String(), Event: e})
		if err != nil {
			return
		}
		if err := s.relay.Publish(context.Background(), payload); err != nil {
			s.logger.Debug("RecordingService", "Relay publish failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (s *recordingService) autoStop(sess *store.RecordingSession) {
	err := s.stop(context.Background(), sess)
	switch {
	case err == nil:
		s.logger.Info("RecordingService", "Session reached the length cap", map[string]interface{}{
			"session_id": sess.ID,
			"max":        fmt.Sprintf("%.0fs", s.cfg.MaxSessionSeconds),
		})
	case errors.Is(err, orchestrator.ErrAlreadyStopped), errors.Is(err, orchestrator.ErrNotRecording):
	default:
		s.logger.Warn("RecordingService", "Automatic stop failed", map[string]interface{}{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
	}
}
