package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fretsense/fretsense/internal/detect"
	"github.com/fretsense/fretsense/internal/observe"
	"github.com/fretsense/fretsense/pkg/audio"
)

// DefaultInterval is the cadence of the listening loop when the config
// leaves it unset. One frame of 4096 samples at 44100 Hz spans ~93 ms, so
// consecutive cycles see mostly fresh audio.
const DefaultInterval = 100 * time.Millisecond

var (
	// ErrAlreadyRunning is returned by Start when a loop is active.
	ErrAlreadyRunning = errors.New("session: already running")

	// ErrNotRunning is returned by Stop when no loop is active.
	ErrNotRunning = errors.New("session: not running")
)

// Config holds the Controller's tunables.
type Config struct {
	// Interval between analysis cycles. Defaults to [DefaultInterval].
	Interval time.Duration

	// Analyzer configures the per-frame analysis stages.
	Analyzer detect.Config
}

// Controller drives the listening session. It owns the single goroutine
// that reads frames, analyzes them, and publishes snapshots; everything
// else observes through [Controller.Snapshot].
type Controller struct {
	cfg      Config
	source   audio.FrameSource
	analyzer *detect.Analyzer
	metrics  *observe.Metrics

	snapshot     atomic.Pointer[Snapshot]
	resetPending atomic.Bool

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// New creates a Controller reading from source. The source is not touched
// until [Controller.Start]; closing it remains the caller's responsibility.
func New(cfg Config, source audio.FrameSource, metrics *observe.Metrics) *Controller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	c := &Controller{
		cfg:      cfg,
		source:   source,
		analyzer: detect.NewAnalyzer(cfg.Analyzer),
		metrics:  metrics,
	}
	initial := newSnapshot(detect.State{}, detect.Observation{}, false, time.Now())
	c.snapshot.Store(&initial)
	return c
}

// Snapshot returns the most recently published snapshot. It never blocks
// and is safe from any goroutine.
func (c *Controller) Snapshot() Snapshot {
	return *c.snapshot.Load()
}

// Running reports whether the listening loop is active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Start launches the listening loop. It returns [ErrAlreadyRunning] if a
// loop is active. The loop stops when ctx is cancelled, when [Controller.Stop]
// is called, or when the source reports [io.EOF].
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return ErrAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true
	c.metrics.ActiveSessions.Add(ctx, 1)

	go c.run(loopCtx, c.done)
	return nil
}

// Stop cancels the listening loop and waits for it to exit. It returns
// [ErrNotRunning] if no loop is active.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return ErrNotRunning
	}
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	cancel()
	<-done
	return nil
}

// Reset discards the confirmation state. When the loop is running the
// reset takes effect at the start of the next cycle; when stopped, a
// cleared snapshot is published immediately.
func (c *Controller) Reset() {
	c.resetPending.Store(true)
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()
	if !running {
		c.resetPending.Store(false)
		cleared := newSnapshot(detect.State{}, detect.Observation{}, false, time.Now())
		c.snapshot.Store(&cleared)
	}
}

// finish marks the loop stopped and publishes a final snapshot carrying the
// last detection state with Running set to false.
func (c *Controller) finish(state detect.State, obs detect.Observation, done chan struct{}) {
	final := newSnapshot(state, obs, false, time.Now())
	c.snapshot.Store(&final)

	c.mu.Lock()
	c.running = false
	c.cancel = nil
	c.mu.Unlock()

	c.metrics.ActiveSessions.Add(context.Background(), -1)
	close(done)
}

// run is the listening loop. One analysis cycle per tick: read a frame,
// analyze it, advance the state machine, publish.
func (c *Controller) run(ctx context.Context, done chan struct{}) {
	var (
		state   detect.State
		lastObs detect.Observation
	)
	defer func() { c.finish(state, lastObs, done) }()

	log := observe.Logger(ctx)
	log.Info("listening session started", "interval", c.cfg.Interval)

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("listening session stopped")
			return
		case <-ticker.C:
		}

		if c.resetPending.Swap(false) {
			state = detect.State{}
			lastObs = detect.Observation{}
			log.Info("detection state reset")
		}

		frame, err := c.source.ReadFrame(ctx)
		switch {
		case errors.Is(err, io.EOF):
			log.Info("audio source exhausted, ending session")
			return
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return
		case err != nil:
			c.metrics.ReadFailures.Add(ctx, 1)
			log.Warn("frame read failed, skipping cycle", "error", err)
			continue
		}

		state, lastObs = c.cycle(ctx, state, frame)
	}
}

// cycle runs one frame through analysis and the state machine, records
// telemetry, and publishes the resulting snapshot.
func (c *Controller) cycle(ctx context.Context, state detect.State, frame audio.Frame) (detect.State, detect.Observation) {
	ctx, span := observe.StartSpan(ctx, "session.cycle")
	defer span.End()

	start := time.Now()
	obs := c.analyzer.Observe(frame)
	next := state.Advance(obs.Raw)
	c.metrics.AnalysisDuration.Record(ctx, time.Since(start).Seconds())

	result := "analyzed"
	if obs.Gated {
		result = "gated"
	}
	c.metrics.FramesProcessed.Add(ctx, 1,
		metric.WithAttributes(attribute.String("result", result)))
	if !obs.Gated {
		outcome := "accepted"
		if !obs.PitchOK {
			outcome = "rejected"
		}
		c.metrics.PitchDetections.Add(ctx, 1,
			metric.WithAttributes(attribute.String("outcome", outcome)))
	}

	if next.Locked != state.Locked {
		c.metrics.RecordLockTransition(ctx, state.Locked.String(), next.Locked.String())
		observe.Logger(ctx).Info("string lock changed",
			"from", state.Locked.String(),
			"to", next.Locked.String(),
			"confirmations", next.Confirmations,
		)
	}

	snap := newSnapshot(next, obs, true, time.Now())
	c.snapshot.Store(&snap)
	return next, obs
}
