package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"convohealth-be/pkg/recording/capture"
	"convohealth-be/pkg/recording/timer"
	"convohealth-be/pkg/soap"
	"convohealth-be/pkg/transcription"
	"convohealth-be/pkg/transcription/fallback"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type stubTranscriber struct {
	mu      sync.Mutex
	calls   int
	audio   []byte
	gate    chan struct{}
	outcome transcription.Outcome
	err     error
	panics  bool
}

func (s *stubTranscriber) Transcribe(ctx context.Context, audio []byte) (transcription.Outcome, error) {
	s.mu.Lock()
	s.calls++
	s.audio = audio
	s.mu.Unlock()
	if s.gate != nil {
		<-s.gate
	}
	if s.panics {
		panic("decoder crashed")
	}
	return s.outcome, s.err
}

func (s *stubTranscriber) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubGenerator struct {
	mu       sync.Mutex
	received transcription.Transcript
}

func (g *stubGenerator) Generate(_ context.Context, t transcription.Transcript) (soap.Outcome, error) {
	g.mu.Lock()
	g.received = t
	g.mu.Unlock()
	return soap.Outcome{
		Note:      soap.Note{Subjective: "s", Objective: "o", Assessment: "a", Plan: "p"},
		Generator: "stub",
	}, nil
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) listen(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) phases() []Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Phase
	for _, e := range r.events {
		if e.Type == EventPhase {
			out = append(out, e.Phase)
		}
	}
	return out
}

func (r *recorder) count(t EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func liveTranscript() transcription.Transcript {
	return transcription.Transcript{
		{Id: "seg-1", Speaker: transcription.SpeakerDoctor, Text: "How are you feeling?", StartTime: 0, EndTime: 2, Confidence: 0.97},
		{Id: "seg-2", Speaker: transcription.SpeakerPatient, Text: "My back hurts.", StartTime: 2.2, EndTime: 4, Confidence: 0.95},
	}
}

type fixture struct {
	clock     *fakeClock
	scheduler *timer.ManualScheduler
	device    *capture.PushDevice
	events    *recorder
}

func newFixture() *fixture {
	return &fixture{
		clock:     newFakeClock(),
		scheduler: timer.NewManualScheduler(),
		device:    capture.NewPushDevice(),
		events:    &recorder{},
	}
}

func (f *fixture) orchestrator(tr Transcriber, gen NoteGenerator) *Orchestrator {
	return New("session-1", f.device, tr, gen,
		WithClock(f.clock.Now),
		WithScheduler(f.scheduler),
		WithAnalyzingDelay(0),
		WithChunkInterval(time.Hour),
		WithListener(f.events.listen),
	)
}

func waitResult(t *testing.T, o *Orchestrator) Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := o.Wait(ctx)
	require.NoError(t, err)
	return res
}

func TestPipelineReachesComplete(t *testing.T) {
	f := newFixture()
	tr := &stubTranscriber{outcome: transcription.Outcome{Transcript: liveTranscript(), Provider: "speech_to_text"}}
	gen := &stubGenerator{}
	o := f.orchestrator(tr, gen)

	require.NoError(t, o.Start(context.Background()))
	_, err := f.device.Write([]byte("audio-"))
	require.NoError(t, err)
	f.clock.Advance(30 * time.Second)
	_, err = f.device.Write([]byte("bytes"))
	require.NoError(t, err)
	require.NoError(t, o.Stop(context.Background()))

	res := waitResult(t, o)
	assert.Equal(t, 30, res.DurationSeconds)
	assert.Equal(t, liveTranscript(), res.Transcript)
	assert.Equal(t, "speech_to_text", res.TranscriptionProvider)
	assert.Equal(t, "stub", res.NoteGenerator)
	assert.Empty(t, res.Notices)
	assert.Equal(t, []byte("audio-bytes"), tr.audio)
	assert.Equal(t, liveTranscript(), gen.received)

	snap := o.Snapshot()
	assert.Equal(t, StatusComplete, snap.Status)
	assert.Equal(t, PhaseComplete, snap.Phase)
	require.NotNil(t, snap.Result)

	assert.Equal(t, []Phase{PhaseTranscribing, PhaseAnalyzing, PhaseGenerating}, f.events.phases())
	assert.Equal(t, 1, f.events.count(EventComplete))
	assert.False(t, f.device.InUse())
}

func TestPipelineSubstitutesFallbacks(t *testing.T) {
	f := newFixture()
	failingSTT := &failingTranscriber{}
	failingLLM := &failingGenerator{}
	o := f.orchestrator(
		transcription.NewChain(nil, 0, failingSTT, fallback.New()),
		soap.NewChain(nil, 0, failingLLM, soap.ExtractiveGenerator{}),
	)

	require.NoError(t, o.Start(context.Background()))
	_, _ = f.device.Write([]byte("audio"))
	require.NoError(t, o.Stop(context.Background()))
	res := waitResult(t, o)

	require.NotEmpty(t, res.Transcript)
	for _, seg := range res.Transcript {
		assert.NotEqual(t, transcription.SpeakerUnknown, seg.Speaker)
	}
	assert.Equal(t, fallback.Name, res.TranscriptionProvider)
	assert.Equal(t, soap.ExtractiveGeneratorName, res.NoteGenerator)

	patient := res.Transcript.TextBy(transcription.SpeakerPatient)
	doctor := res.Transcript.TextBy(transcription.SpeakerDoctor)
	assert.Contains(t, res.Note.Subjective, patient[0])
	assert.Contains(t, res.Note.Plan, doctor[len(doctor)-1])
	assert.Equal(t, soap.ObjectivePlaceholder, res.Note.Objective)
	assert.NotEmpty(t, res.Note.Assessment)

	kinds := []NoticeKind{}
	for _, n := range res.Notices {
		kinds = append(kinds, n.Kind)
	}
	assert.Equal(t, []NoticeKind{NoticeTranscriptionFallback, NoticeNoteFallback}, kinds)
	assert.Equal(t, 2, f.events.count(EventNotice))
}

type failingTranscriber struct{}

func (failingTranscriber) Name() string { return "speech_to_text" }

func (failingTranscriber) Transcribe(context.Context, []byte) (transcription.Transcript, error) {
	return nil, transcription.NewError("speech_to_text", transcription.ErrProviderError)
}

type failingGenerator struct{}

func (failingGenerator) Name() string { return "llm" }

func (failingGenerator) Generate(context.Context, transcription.Transcript) (soap.Note, error) {
	return soap.Note{}, &soap.GenerationError{Generator: "llm", Err: errors.New("401")}
}

func TestEmptyAudioProceedsWithVisibleNotice(t *testing.T) {
	f := newFixture()
	o := f.orchestrator(
		transcription.NewChain(nil, 0, failingTranscriber{}, fallback.New()),
		soap.NewChain(nil, 0, soap.ExtractiveGenerator{}),
	)

	require.NoError(t, o.Start(context.Background()))
	require.NoError(t, o.Stop(context.Background()))
	res := waitResult(t, o)

	assert.Equal(t, fallback.Transcript(), res.Transcript)
	require.NotEmpty(t, res.Notices)
	assert.Equal(t, NoticeEmptyAudio, res.Notices[0].Kind)
}

func TestPanickingTranscriberStillCompletes(t *testing.T) {
	f := newFixture()
	o := f.orchestrator(&stubTranscriber{panics: true}, &stubGenerator{})

	require.NoError(t, o.Start(context.Background()))
	_, _ = f.device.Write([]byte("audio"))
	require.NoError(t, o.Stop(context.Background()))
	res := waitResult(t, o)

	assert.Equal(t, fallback.Name, res.TranscriptionProvider)
	assert.NoError(t, res.Transcript.Validate())
	assert.Equal(t, StatusComplete, o.Snapshot().Status)
}

func TestDoubleStopRunsPipelineOnce(t *testing.T) {
	f := newFixture()
	tr := &stubTranscriber{
		gate:    make(chan struct{}),
		outcome: transcription.Outcome{Transcript: liveTranscript(), Provider: "speech_to_text"},
	}
	o := f.orchestrator(tr, &stubGenerator{})

	require.NoError(t, o.Start(context.Background()))
	_, _ = f.device.Write([]byte("audio"))

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = o.Stop(context.Background())
		}(i)
	}
	wg.Wait()

	stopped := 0
	for _, err := range errs {
		if err == nil {
			stopped++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyStopped)
		}
	}
	assert.Equal(t, 1, stopped)
	assert.Equal(t, StatusProcessing, o.Snapshot().Status)
	assert.ErrorIs(t, o.Reset(), ErrProcessing)

	close(tr.gate)
	waitResult(t, o)
	assert.ErrorIs(t, o.Stop(context.Background()), ErrAlreadyStopped)
	assert.Equal(t, 1, tr.Calls())
}

func TestStopIsNotCancelledByCallerContext(t *testing.T) {
	f := newFixture()
	tr := &stubTranscriber{
		gate:    make(chan struct{}),
		outcome: transcription.Outcome{Transcript: liveTranscript(), Provider: "speech_to_text"},
	}
	o := f.orchestrator(tr, &stubGenerator{})
	require.NoError(t, o.Start(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, o.Stop(ctx))
	cancel()
	close(tr.gate)

	res := waitResult(t, o)
	assert.Equal(t, "speech_to_text", res.TranscriptionProvider)
}

func TestTickCallbackIsCancelledOnEveryExitPath(t *testing.T) {
	f := newFixture()
	tr := &stubTranscriber{outcome: transcription.Outcome{Transcript: liveTranscript(), Provider: "p"}}
	o := f.orchestrator(tr, &stubGenerator{})

	require.NoError(t, o.Start(context.Background()))
	assert.Equal(t, 1, f.scheduler.Active())

	f.clock.Advance(2 * time.Second)
	f.scheduler.Tick()
	assert.Equal(t, 1, f.events.count(EventTick))

	require.NoError(t, o.Pause())
	assert.Equal(t, 0, f.scheduler.Active())
	f.scheduler.Tick()
	assert.Equal(t, 1, f.events.count(EventTick))

	require.NoError(t, o.Resume())
	assert.Equal(t, 1, f.scheduler.Active())

	require.NoError(t, o.Stop(context.Background()))
	assert.Equal(t, 0, f.scheduler.Active())
	waitResult(t, o)

	require.NoError(t, o.Reset())
	require.NoError(t, o.Start(context.Background()))
	assert.Equal(t, 1, f.scheduler.Active())
	require.NoError(t, o.Close())
	assert.Equal(t, 0, f.scheduler.Active())
	assert.False(t, f.device.InUse())
	assert.ErrorIs(t, o.Start(context.Background()), ErrClosed)
}

func TestPauseResumeTiming(t *testing.T) {
	f := newFixture()
	tr := &stubTranscriber{outcome: transcription.Outcome{Transcript: liveTranscript(), Provider: "p"}}
	o := f.orchestrator(tr, &stubGenerator{})

	require.NoError(t, o.Start(context.Background()))
	f.clock.Advance(10 * time.Second)
	require.NoError(t, o.Pause())
	require.NoError(t, o.Pause())
	f.clock.Advance(5 * time.Second)
	assert.InDelta(t, 10, o.Snapshot().ElapsedSeconds, 1e-9)
	require.NoError(t, o.Resume())
	require.NoError(t, o.Resume())
	f.clock.Advance(3 * time.Second)
	require.NoError(t, o.Stop(context.Background()))

	assert.Equal(t, 13, waitResult(t, o).DurationSeconds)
}

func TestStartFailsWithDeviceError(t *testing.T) {
	f := newFixture()
	f.device.Deny()
	o := f.orchestrator(&stubTranscriber{}, &stubGenerator{})

	err := o.Start(context.Background())
	var derr *capture.DeviceError
	require.ErrorAs(t, err, &derr)
	assert.ErrorIs(t, err, capture.ErrPermissionDenied)
	assert.Equal(t, StatusIdle, o.Snapshot().Status)
	assert.Equal(t, 0, f.scheduler.Active())
}

func TestInvalidTransitions(t *testing.T) {
	f := newFixture()
	o := f.orchestrator(&stubTranscriber{}, &stubGenerator{})

	var terr *TransitionError
	assert.ErrorAs(t, o.Pause(), &terr)
	assert.ErrorAs(t, o.Resume(), &terr)
	assert.ErrorIs(t, o.Stop(context.Background()), ErrNotRecording)
	_, err := o.Wait(context.Background())
	assert.ErrorIs(t, err, ErrNotRecording)

	require.NoError(t, o.Start(context.Background()))
	assert.ErrorAs(t, o.Start(context.Background()), &terr)
	assert.Equal(t, StatusRecording, terr.From)

	require.NoError(t, o.Reset())
	assert.Equal(t, StatusIdle, o.Snapshot().Status)
	assert.False(t, f.device.InUse())
}

func TestStatusStrings(t *testing.T) {
	assert.Equal(t, "processing", StatusProcessing.String())
	assert.Equal(t, "analyzing", PhaseAnalyzing.String())
	assert.Equal(t, "unknown(9)", Status(9).String())
	text, err := PhaseGenerating.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "generating", string(text))
}

func TestStopAfterCapReportsTheCap(t *testing.T) {
	f := newFixture()
	tr := &stubTranscriber{outcome: transcription.Outcome{Transcript: liveTranscript(), Provider: "p"}}
	o := New("session-1", f.device, tr, &stubGenerator{},
		WithClock(f.clock.Now),
		WithScheduler(f.scheduler),
		WithAnalyzingDelay(0),
		WithChunkInterval(time.Hour),
		WithMaxDuration(60),
	)

	require.NoError(t, o.Start(context.Background()))
	f.clock.Advance(75 * time.Second)
	require.NoError(t, o.Stop(context.Background()))

	assert.Equal(t, 60, waitResult(t, o).DurationSeconds)
}

func TestWaitKeepsResultWhenSessionIsResetAfterPipeline(t *testing.T) {
	f := newFixture()
	tr := &stubTranscriber{
		gate:    make(chan struct{}),
		outcome: transcription.Outcome{Transcript: liveTranscript(), Provider: "speech_to_text"},
	}
	o := f.orchestrator(tr, &stubGenerator{})

	require.NoError(t, o.Start(context.Background()))
	f.clock.Advance(12 * time.Second)
	require.NoError(t, o.Stop(context.Background()))

	type waited struct {
		res Result
		err error
	}
	waiting := make(chan struct{})
	out := make(chan waited, 1)
	go func() {
		close(waiting)
		res, err := o.Wait(context.Background())
		out <- waited{res, err}
	}()
	<-waiting

	close(tr.gate)
	require.Eventually(t, func() bool {
		return o.Snapshot().Status == StatusComplete
	}, 5*time.Second, time.Millisecond)
	require.NoError(t, o.Reset())

	select {
	case w := <-out:
		require.NoError(t, w.err)
		assert.Equal(t, 12, w.res.DurationSeconds)
		assert.Equal(t, "speech_to_text", w.res.TranscriptionProvider)
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return")
	}

	_, err := o.Wait(context.Background())
	assert.ErrorIs(t, err, ErrNotRecording)
}

type requestKey struct{}

type contextTranscriber struct {
	mu      sync.Mutex
	value   interface{}
	traceID trace.TraceID
}

func (c *contextTranscriber) Transcribe(ctx context.Context, _ []byte) (transcription.Outcome, error) {
	c.mu.Lock()
	c.value = ctx.Value(requestKey{})
	c.traceID = trace.SpanContextFromContext(ctx).TraceID()
	c.mu.Unlock()
	return transcription.Outcome{Transcript: liveTranscript(), Provider: "p"}, nil
}

func TestPipelineDropsRequestValuesButKeepsTrace(t *testing.T) {
	f := newFixture()
	tr := &contextTranscriber{}
	o := f.orchestrator(tr, &stubGenerator{})

	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x0a, 0x0b},
		SpanID:     trace.SpanID{0x01},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), parent)
	ctx = context.WithValue(ctx, requestKey{}, "user-locals")

	require.NoError(t, o.Start(context.Background()))
	require.NoError(t, o.Stop(ctx))
	waitResult(t, o)

	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.Nil(t, tr.value)
	assert.Equal(t, parent.TraceID(), tr.traceID)
}
