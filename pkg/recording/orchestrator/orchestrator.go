package orchestrator

import (
	"context"
	"sync"
	"time"

	"convohealth-be/internal/pkg/logger"
	"convohealth-be/pkg/metrics"
	"convohealth-be/pkg/recording/capture"
	"convohealth-be/pkg/recording/timer"
	"convohealth-be/pkg/soap"
	"convohealth-be/pkg/transcription"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Transcriber is satisfied by *transcription.Chain.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (transcription.Outcome, error)
}

// NoteGenerator is satisfied by *soap.Chain.
type NoteGenerator interface {
	Generate(ctx context.Context, transcript transcription.Transcript) (soap.Outcome, error)
}

const (
	DefaultTickInterval   = 100 * time.Millisecond
	DefaultAnalyzingDelay = 1500 * time.Millisecond
)

type Option func(*Orchestrator)

func WithClock(clock timer.Clock) Option {
	return func(o *Orchestrator) { o.clock = clock }
}

func WithScheduler(s timer.Scheduler) Option {
	return func(o *Orchestrator) { o.scheduler = s }
}

func WithTickInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.tickInterval = d
		}
	}
}

func WithChunkInterval(d time.Duration) Option {
	return func(o *Orchestrator) { o.chunkInterval = d }
}

// WithAnalyzingDelay sets the pause between transcription and generation.
// Zero skips the wait but the phase is still reported.
func WithAnalyzingDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.analyzingDelay = d }
}

// WithMaxDuration caps the recorded duration. A session stopped after the
// cap is reported at exactly the cap.
func WithMaxDuration(seconds int) Option {
	return func(o *Orchestrator) { o.maxSeconds = seconds }
}

func WithListener(l Listener) Option {
	return func(o *Orchestrator) { o.listener = l }
}

func WithLogger(l logger.ILogger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// Orchestrator owns one recording session. All methods are safe for
// concurrent use.
type Orchestrator struct {
	id          string
	device      capture.Device
	transcriber Transcriber
	generator   NoteGenerator

	clock          timer.Clock
	scheduler      timer.Scheduler
	tickInterval   time.Duration
	chunkInterval  time.Duration
	analyzingDelay time.Duration
	maxSeconds     int
	listener       Listener
	logger         logger.ILogger
	metrics        *metrics.Metrics
	tracer         trace.Tracer

	mu         sync.Mutex
	status     Status
	phase      Phase
	timer      *timer.Timer
	capture    *capture.Session
	cancelTick timer.Cancel
	result     *Result
	run        *pipelineRun
	closed     bool
}

// pipelineRun is one Stop's pipeline. result is written before done closes.
type pipelineRun struct {
	done   chan struct{}
	result Result
}

func New(id string, device capture.Device, transcriber Transcriber, generator NoteGenerator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		id:             id,
		device:         device,
		transcriber:    transcriber,
		generator:      generator,
		clock:          time.Now,
		scheduler:      timer.NewTickerScheduler(),
		tickInterval:   DefaultTickInterval,
		analyzingDelay: DefaultAnalyzingDelay,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logger.NewNopLogger()
	}
	if o.metrics == nil {
		o.metrics = metrics.DefaultMetrics
	}
	o.tracer = otel.Tracer("convohealth-be/recording")
	o.timer = timer.New(o.clock)
	return o
}

func (o *Orchestrator) ID() string {
	return o.id
}

// Start acquires the capture device and starts the timer. A device failure
// leaves the session Idle and is returned as *capture.DeviceError.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	if o.status != StatusIdle {
		from := o.status
		o.mu.Unlock()
		return &TransitionError{Op: "start", From: from}
	}

	session := capture.NewSession(o.device, capture.WithInterval(o.chunkInterval))
	if err := session.Start(ctx); err != nil {
		o.mu.Unlock()
		o.metrics.SessionsFailed.WithLabelValues("device").Inc()
		o.logger.Warn("Recording", "Capture device unavailable", map[string]interface{}{
			"session_id": o.id,
			"error":      err.Error(),
		})
		return err
	}

	o.capture = session
	o.result = nil
	o.run = nil
	o.phase = PhaseNone
	o.timer.Reset()
	o.timer.Start()
	o.status = StatusRecording
	o.cancelTick = o.scheduler.Every(o.tickInterval, o.tick)
	o.mu.Unlock()

	o.metrics.SessionsStarted.Inc()
	o.metrics.SessionsActive.Inc()
	o.logger.Info("Recording", "Recording started", map[string]interface{}{"session_id": o.id})
	o.emit(Event{Type: EventStatus, Status: StatusRecording, Phase: PhaseNone})
	return nil
}

// Pause suspends capture and freezes the timer. Pausing a paused session is
// a no-op.
func (o *Orchestrator) Pause() error {
	o.mu.Lock()
	switch o.status {
	case StatusPaused:
		o.mu.Unlock()
		return nil
	case StatusRecording:
	default:
		from := o.status
		o.mu.Unlock()
		return &TransitionError{Op: "pause", From: from}
	}

	if err := o.capture.Pause(); err != nil {
		o.mu.Unlock()
		return err
	}
	o.timer.Pause()
	o.status = StatusPaused
	cancel := o.takeTickLocked()
	elapsed := o.timer.Elapsed()
	o.mu.Unlock()

	cancel()
	o.emit(Event{Type: EventStatus, Status: StatusPaused, ElapsedSeconds: elapsed})
	return nil
}

// Resume continues capture; the timer picks up from the accumulated value.
func (o *Orchestrator) Resume() error {
	o.mu.Lock()
	switch o.status {
	case StatusRecording:
		o.mu.Unlock()
		return nil
	case StatusPaused:
	default:
		from := o.status
		o.mu.Unlock()
		return &TransitionError{Op: "resume", From: from}
	}

	if err := o.capture.Resume(); err != nil {
		o.mu.Unlock()
		return err
	}
	o.timer.Resume()
	o.status = StatusRecording
	o.cancelTick = o.scheduler.Every(o.tickInterval, o.tick)
	elapsed := o.timer.Elapsed()
	o.mu.Unlock()

	o.emit(Event{Type: EventStatus, Status: StatusRecording, ElapsedSeconds: elapsed})
	return nil
}

// Stop finalizes the duration, releases the device and starts the
// processing pipeline. The pipeline runs once per session in its own
// goroutine and is not cancelled with ctx; a second Stop returns
// ErrAlreadyStopped.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.mu.Lock()
	switch o.status {
	case StatusRecording, StatusPaused:
	case StatusProcessing, StatusComplete:
		o.mu.Unlock()
		return ErrAlreadyStopped
	default:
		o.mu.Unlock()
		return ErrNotRecording
	}

	o.status = StatusProcessing
	o.phase = PhaseTranscribing
	cancel := o.takeTickLocked()
	duration := o.timer.Stop()
	if o.maxSeconds > 0 && duration > o.maxSeconds {
		duration = o.maxSeconds
	}
	session := o.capture
	o.capture = nil
	run := &pipelineRun{done: make(chan struct{})}
	o.run = run
	o.mu.Unlock()

	cancel()
	chunks, err := session.Stop()
	if err != nil {
		o.logger.Warn("Recording", "Capture stop failed", map[string]interface{}{
			"session_id": o.id,
			"error":      err.Error(),
		})
	}
	audio := capture.Concat(chunks)

	o.metrics.RecordedSeconds.Observe(float64(duration))
	o.metrics.AudioBytes.Add(float64(len(audio)))
	o.logger.Info("Recording", "Recording stopped", map[string]interface{}{
		"session_id":       o.id,
		"duration_seconds": duration,
		"chunks":           len(chunks),
		"audio_bytes":      len(audio),
	})
	o.emit(Event{Type: EventStatus, Status: StatusProcessing, Phase: PhaseTranscribing, ElapsedSeconds: float64(duration)})

	go o.process(detach(ctx), audio, duration, run)
	return nil
}

// detach carries only the caller's span into the pipeline. The caller's
// context may be a pooled request that is reused once the handler returns.
func detach(ctx context.Context) context.Context {
	return trace.ContextWithSpan(context.Background(), trace.SpanFromContext(ctx))
}

// Wait blocks until the pipeline started by Stop has settled. The result
// belongs to that run, so a later Reset does not lose it.
func (o *Orchestrator) Wait(ctx context.Context) (Result, error) {
	o.mu.Lock()
	run := o.run
	o.mu.Unlock()
	if run == nil {
		return Result{}, ErrNotRecording
	}

	select {
	case <-run.done:
		return run.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Reset returns a finished or abandoned session to Idle, ready for a new
// recording. A session that is still processing cannot be reset.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	switch o.status {
	case StatusIdle:
		o.mu.Unlock()
		return nil
	case StatusProcessing:
		o.mu.Unlock()
		return ErrProcessing
	}
	abandoned := o.status.Capturing()
	cancel, session := o.teardownLocked()
	o.mu.Unlock()

	o.release(cancel, session, abandoned)
	o.emit(Event{Type: EventStatus, Status: StatusIdle, Phase: PhaseNone})
	return nil
}

// Close is the teardown path for a session that is being discarded. It
// releases the capture device and the tick callback on every status; a
// pipeline already running is left to settle.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	abandoned := o.status.Capturing()
	var (
		cancel  timer.Cancel = func() {}
		session *capture.Session
	)
	if o.status != StatusProcessing {
		cancel, session = o.teardownLocked()
	}
	o.mu.Unlock()

	o.release(cancel, session, abandoned)
	return nil
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	snap := Snapshot{
		ID:             o.id,
		Status:         o.status,
		Phase:          o.phase,
		ElapsedSeconds: o.timer.Elapsed(),
	}
	if o.capture != nil {
		snap.Chunks = o.capture.Chunks()
	}
	if o.result != nil {
		r := *o.result
		snap.Result = &r
	}
	return snap
}

func (o *Orchestrator) tick() {
	o.emit(Event{Type: EventTick, Status: StatusRecording, ElapsedSeconds: o.timer.Elapsed()})
}

func (o *Orchestrator) takeTickLocked() timer.Cancel {
	cancel := o.cancelTick
	o.cancelTick = nil
	if cancel == nil {
		return func() {}
	}
	return cancel
}

func (o *Orchestrator) teardownLocked() (timer.Cancel, *capture.Session) {
	cancel := o.takeTickLocked()
	session := o.capture
	o.capture = nil
	o.status = StatusIdle
	o.phase = PhaseNone
	o.result = nil
	o.run = nil
	o.timer.Reset()
	return cancel, session
}

func (o *Orchestrator) release(cancel timer.Cancel, session *capture.Session, abandoned bool) {
	cancel()
	if session != nil {
		if err := session.Close(); err != nil {
			o.logger.Warn("Recording", "Capture release failed", map[string]interface{}{
				"session_id": o.id,
				"error":      err.Error(),
			})
		}
	}
	if abandoned {
		o.metrics.SessionsActive.Dec()
		o.metrics.SessionsFailed.WithLabelValues("abandoned").Inc()
		o.logger.Info("Recording", "Recording abandoned", map[string]interface{}{"session_id": o.id})
	}
}

func (o *Orchestrator) emit(e Event) {
	if o.listener == nil {
		return
	}
	e.SessionID = o.id
	if e.At.IsZero() {
		e.At = o.clock()
	}
	o.listener(e)
}
