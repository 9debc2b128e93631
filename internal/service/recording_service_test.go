package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"convohealth-be/internal/pkg/logger"
	"convohealth-be/pkg/events"
	"convohealth-be/pkg/recording/orchestrator"
	"convohealth-be/pkg/recording/timer"
	"convohealth-be/pkg/soap"
	"convohealth-be/pkg/transcription"
	"convohealth-be/pkg/transcription/fallback"
	"convohealth-be/pkg/usage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type relayRecorder struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (r *relayRecorder) Publish(_ context.Context, payload []byte) error {
	r.mu.Lock()
	r.payloads = append(r.payloads, payload)
	r.mu.Unlock()
	return nil
}

func (r *relayRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payloads)
}

func (r *relayRecorder) At(i int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.payloads[i]
}

type recordingFixture struct {
	svc       IRecordingService
	clock     *fakeClock
	scheduler *timer.ManualScheduler
	relay     *relayRecorder
	events    *eventRecorder
}

func newRecordingFixture(t *testing.T, maxSeconds float64) *recordingFixture {
	log := logger.NewNopLogger()
	factory := newTestFactory(t)
	clock := newFakeClock(t0)
	scheduler := timer.NewManualScheduler()
	relay := &relayRecorder{}
	rec := &eventRecorder{}

	usageSvc := NewUsageService(NewPreferenceBackend(factory), NewDurationStore(factory), usage.DefaultLimits(), rec, newTestMetrics(), log, clock.Now)

	svc := NewRecordingService(
		transcription.NewChain(log, 0, fallback.New()),
		soap.NewChain(log, 0, soap.ExtractiveGenerator{}),
		usageSvc,
		relay,
		rec,
		RecordingServiceConfig{ChunkInterval: time.Hour, MaxSessionSeconds: maxSeconds},
		log,
		orchestrator.WithClock(clock.Now),
		orchestrator.WithScheduler(scheduler),
	)
	t.Cleanup(svc.Shutdown)

	return &recordingFixture{svc: svc, clock: clock, scheduler: scheduler, relay: relay, events: rec}
}

func TestRecordingService_FullSession(t *testing.T) {
	f := newRecordingFixture(t, 0)
	ctx := context.Background()
	owner := uuid.New()

	started, err := f.svc.Start(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusRecording, started.Snapshot.Status)
	assert.Equal(t, usage.LevelOK, started.Usage.Level)

	up, err := f.svc.UploadChunk(ctx, owner, started.SessionId, []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, up.Bytes)

	f.clock.Advance(90 * time.Second)
	stopped, err := f.svc.Stop(ctx, owner, started.SessionId)
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusProcessing, stopped.Snapshot.Status)

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	done, err := f.svc.Wait(waitCtx, owner, started.SessionId)
	require.NoError(t, err)
	require.NotNil(t, done.Snapshot.Result)
	assert.Equal(t, orchestrator.StatusComplete, done.Snapshot.Status)
	assert.Equal(t, 90, done.Snapshot.Result.DurationSeconds)
	assert.Equal(t, fallback.New().Name(), done.Snapshot.Result.TranscriptionProvider)

	require.Eventually(t, func() bool {
		res, err := f.svc.Status(ctx, owner, started.SessionId)
		return err == nil && res.Usage != nil
	}, 2*time.Second, 10*time.Millisecond)

	res, err := f.svc.Status(ctx, owner, started.SessionId)
	require.NoError(t, err)
	assert.Equal(t, 1.5, res.Usage.MinutesUsed)

	require.Eventually(t, func() bool {
		for _, typ := range f.events.Types() {
			if typ == events.RecordingCompleted {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	require.Greater(t, f.relay.Len(), 0)
	var msg struct {
		UserId string             `json:"user_id"`
		Event  orchestrator.Event `json:"event"`
	}
	require.NoError(t, json.Unmarshal(f.relay.At(0), &msg))
	assert.Equal(t, owner.String(), msg.UserId)
	assert.Equal(t, started.SessionId, msg.Event.SessionID)
}

func TestRecordingService_OneActiveSessionPerOwner(t *testing.T) {
	f := newRecordingFixture(t, 0)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	first, err := f.svc.Start(ctx, alice)
	require.NoError(t, err)

	_, err = f.svc.Start(ctx, alice)
	assert.ErrorIs(t, err, ErrSessionActive)

	_, err = f.svc.Start(ctx, bob)
	require.NoError(t, err)

	_, err = f.svc.Status(ctx, bob, first.SessionId)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.svc.UploadChunk(ctx, bob, first.SessionId, []byte("x"))
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRecordingService_CompletedSessionIsReplacedOnStart(t *testing.T) {
	f := newRecordingFixture(t, 0)
	ctx := context.Background()
	owner := uuid.New()

	first, err := f.svc.Start(ctx, owner)
	require.NoError(t, err)
	_, err = f.svc.Stop(ctx, owner, first.SessionId)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err = f.svc.Wait(waitCtx, owner, first.SessionId)
	require.NoError(t, err)

	second, err := f.svc.Start(ctx, owner)
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionId, second.SessionId)

	_, err = f.svc.Status(ctx, owner, first.SessionId)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRecordingService_AbandonReleasesSession(t *testing.T) {
	f := newRecordingFixture(t, 0)
	ctx := context.Background()
	owner := uuid.New()

	started, err := f.svc.Start(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, f.scheduler.Active())

	require.NoError(t, f.svc.Abandon(ctx, owner, started.SessionId))
	assert.Equal(t, 0, f.scheduler.Active())

	_, err = f.svc.UploadChunk(ctx, owner, started.SessionId, []byte("x"))
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.svc.Start(ctx, owner)
	assert.NoError(t, err)
}

func TestRecordingService_PauseResume(t *testing.T) {
	f := newRecordingFixture(t, 0)
	ctx := context.Background()
	owner := uuid.New()

	started, err := f.svc.Start(ctx, owner)
	require.NoError(t, err)

	f.clock.Advance(10 * time.Second)
	paused, err := f.svc.Pause(ctx, owner, started.SessionId)
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusPaused, paused.Snapshot.Status)

	f.clock.Advance(time.Minute)
	resumed, err := f.svc.Resume(ctx, owner, started.SessionId)
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusRecording, resumed.Snapshot.Status)
	assert.Equal(t, 10.0, resumed.Snapshot.ElapsedSeconds)

	_, err = f.svc.Reset(ctx, owner, started.SessionId)
	require.NoError(t, err)
	res, err := f.svc.Status(ctx, owner, started.SessionId)
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusIdle, res.Snapshot.Status)
}

func TestRecordingService_StopsAtLengthCap(t *testing.T) {
	f := newRecordingFixture(t, 5)
	ctx := context.Background()
	owner := uuid.New()

	started, err := f.svc.Start(ctx, owner)
	require.NoError(t, err)

	f.clock.Advance(6 * time.Second)
	f.scheduler.Tick()

	require.Eventually(t, func() bool {
		res, err := f.svc.Status(ctx, owner, started.SessionId)
		return err == nil && res.Snapshot.Status != orchestrator.StatusRecording
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRecordingService_LateTickPastCapIsMeteredAtCap(t *testing.T) {
	f := newRecordingFixture(t, 0)
	ctx := context.Background()
	owner := uuid.New()

	started, err := f.svc.Start(ctx, owner)
	require.NoError(t, err)

	f.clock.Advance(3602 * time.Second)
	f.scheduler.Tick()

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.Eventually(t, func() bool {
		res, err := f.svc.Status(ctx, owner, started.SessionId)
		return err == nil && res.Snapshot.Status != orchestrator.StatusRecording
	}, 2*time.Second, 10*time.Millisecond)

	done, err := f.svc.Wait(waitCtx, owner, started.SessionId)
	require.NoError(t, err)
	require.NotNil(t, done.Snapshot.Result)
	assert.Equal(t, usage.MaxSessionMinutes*60, done.Snapshot.Result.DurationSeconds)

	require.Eventually(t, func() bool {
		res, err := f.svc.Status(ctx, owner, started.SessionId)
		return err == nil && res.Usage != nil
	}, 2*time.Second, 10*time.Millisecond)

	res, err := f.svc.Status(ctx, owner, started.SessionId)
	require.NoError(t, err)
	assert.Equal(t, float64(usage.MaxSessionMinutes), res.Usage.MinutesUsed)
	assert.Equal(t, usage.LevelExceeded, res.Usage.Level)
}

func TestRecordingService_RequiresOwner(t *testing.T) {
	f := newRecordingFixture(t, 0)

	_, err := f.svc.Start(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
