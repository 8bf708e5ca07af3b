// Package session drives one streaming simulation: it owns the connection,
// the series set and the continuity store, and moves between Idle,
// Connecting, Running, Paused and Error in response to user intent and
// transport events.
//
// A Controller is not safe for concurrent use. Transport events arrive on
// Events (or a custom sink) and must be fed back through Handle from the
// goroutine that issues Start and Stop.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/san-kum/modalstream/internal/continuity"
	"github.com/san-kum/modalstream/internal/modal"
	"github.com/san-kum/modalstream/internal/series"
	"github.com/san-kum/modalstream/internal/stream"
)

// DefaultEventBuffer is the capacity of the Events channel.
const DefaultEventBuffer = 256

// ConfigSource produces the outbound configuration at start time.
// *config.Config implements it.
type ConfigSource interface {
	ModelRequest() (stream.ModelRequest, error)
	SimRequest() stream.SimRequest
}

type Options struct {
	Transport stream.Transport
	Config    ConfigSource
	Renderer  Renderer
	// Periods seeds the series set; usually replaced by ApplyModalSummary.
	Periods []float64
	Policy  *series.Policy
	// Sink overrides where transport events go. By default they are queued
	// on Events.
	Sink        stream.Sink
	EventBuffer int
	Logger      *slog.Logger
	Metrics     Metrics
}

type Controller struct {
	id        string
	transport stream.Transport
	source    ConfigSource
	renderer  Renderer
	logger    *slog.Logger
	metrics   Metrics

	set   *series.Set
	store *continuity.Store

	state   State
	conn    stream.Conn
	connID  uint64
	resume  bool
	pending stream.StartMessage
	lastErr error

	sink     stream.Sink
	events   chan stream.Event
	done     chan struct{}
	disposed bool
}

func New(opts Options) *Controller {
	c := &Controller{
		id:        uuid.NewString(),
		transport: opts.Transport,
		source:    opts.Config,
		renderer:  opts.Renderer,
		metrics:   opts.Metrics,
		set:       series.NewSet(opts.Periods, opts.Policy),
		store:     continuity.New(),
		done:      make(chan struct{}),
	}
	if c.renderer == nil {
		c.renderer = NopRenderer{}
	}
	if c.metrics == nil {
		c.metrics = nopMetrics{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c.logger = logger.With("session", c.id)

	if opts.Sink != nil {
		c.sink = opts.Sink
	} else {
		size := opts.EventBuffer
		if size <= 0 {
			size = DefaultEventBuffer
		}
		c.events = make(chan stream.Event, size)
		c.sink = c.enqueue
	}
	return c
}

func (c *Controller) enqueue(ev stream.Event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// Events delivers transport events when no custom sink was given. It is nil
// otherwise.
func (c *Controller) Events() <-chan stream.Event { return c.events }

func (c *Controller) ID() string { return c.id }

func (c *Controller) State() State { return c.state }

func (c *Controller) Series() *series.Set { return c.set }

func (c *Controller) Continuity() *continuity.Store { return c.store }

// LastError is the failure that moved the session to Error, if any.
func (c *Controller) LastError() error { return c.lastErr }

// SetConfig replaces the configuration used by the next Start.
func (c *Controller) SetConfig(src ConfigSource) { c.source = src }

// Start opens a connection. From Idle it starts fresh; from Paused or Error
// it resumes from the continuity store. An open connection is closed first.
// A configuration error is returned before anything is opened.
func (c *Controller) Start(ctx context.Context) error {
	if c.disposed {
		return ErrDisposed
	}
	if c.transport == nil {
		return fmt.Errorf("%w: no transport", ErrConfigurationInvalid)
	}
	if c.source == nil {
		return c.rejectConfig(fmt.Errorf("%w: no configuration", ErrConfigurationInvalid))
	}
	model, err := c.source.ModelRequest()
	if err != nil {
		return c.rejectConfig(fmt.Errorf("%w: %w", ErrConfigurationInvalid, err))
	}
	if c.set.Len() == 0 {
		return c.rejectConfig(fmt.Errorf("%w: no modal summary", ErrConfigurationInvalid))
	}
	if n := len(model.Hc); n != c.set.Len() {
		return c.rejectConfig(fmt.Errorf("%w: model has %d floors but %d modes are displayed",
			ErrConfigurationInvalid, n, c.set.Len()))
	}

	c.resume = c.state != Idle
	c.closeConn()
	c.lastErr = nil
	c.pending = stream.StartMessage{ModelReq: model, SimReq: c.source.SimRequest()}

	c.conn = c.transport.Open(ctx, c.sink)
	c.connID = c.conn.ID()
	c.logger.Debug("opening connection", "conn", c.connID, "resume", c.resume)
	c.transition(Connecting)
	return nil
}

func (c *Controller) rejectConfig(err error) error {
	c.logger.Warn("start rejected", "error", err)
	c.metrics.Failure("configuration")
	c.renderer.Failure(err)
	return err
}

// Stop closes the connection and keeps everything for a later resume.
func (c *Controller) Stop() error {
	if c.disposed {
		return ErrDisposed
	}
	switch c.state {
	case Running:
		c.closeConn()
		c.transition(Paused)
	case Connecting:
		c.closeConn()
		if c.store.Captured() {
			c.transition(Paused)
		} else {
			c.transition(Idle)
		}
	}
	return nil
}

// Toggle stops an active session and starts an inactive one.
func (c *Controller) Toggle(ctx context.Context) error {
	if c.state.Active() {
		return c.Stop()
	}
	return c.Start(ctx)
}

// Reset discards the connection, every buffer and the continuity store, and
// returns to Idle. It is safe to call from any state, any number of times.
func (c *Controller) Reset() error {
	if c.disposed {
		return ErrDisposed
	}
	c.closeConn()
	c.clearAll()
	c.lastErr = nil
	c.resume = false
	if c.state != Idle {
		c.transition(Idle)
	}
	return nil
}

// Dispose resets the controller and releases anything blocked on Events.
func (c *Controller) Dispose() {
	if c.disposed {
		return
	}
	c.Reset()
	c.disposed = true
	close(c.done)
}

// Scrub frames every chart at simulated time t.
func (c *Controller) Scrub(t float64) error {
	if c.disposed {
		return ErrDisposed
	}
	c.renderer.Windows(c.set.Scrub(t))
	return nil
}

// ApplyModalSummary reconciles the displayed series with a new summary. A
// summary with unusable periods still forces a rebuild; the returned error
// then wraps ErrReconciliationMismatch.
func (c *Controller) ApplyModalSummary(summary modal.Summary) (modal.Result, error) {
	if c.disposed {
		return modal.Result{}, ErrDisposed
	}
	res := modal.Reconcile(c.set, summary)
	c.metrics.Reconciled(res.Outcome.String(), res.Mismatch)

	switch res.Outcome {
	case modal.Rebuilt:
		// State vectors sized for the old model cannot seed a resume.
		c.store.Clear()
		c.set.Policy().Reset()
		c.renderer.Rebuild(res.Periods)
	case modal.Retuned:
		c.renderer.Relabel(res.Periods)
	}
	c.logger.Info("modal summary applied", "outcome", res.Outcome, "modes", len(res.Periods))

	if res.Mismatch {
		err := fmt.Errorf("%w: dropped %d invalid periods", ErrReconciliationMismatch, res.Dropped)
		c.logger.Warn("modal summary mismatch", "dropped", res.Dropped)
		return res, err
	}
	return res, nil
}

// Handle applies one transport event. Events from any connection other than
// the current one are dropped.
func (c *Controller) Handle(ev stream.Event) {
	if c.disposed {
		return
	}
	if c.conn == nil || ev.Conn != c.connID {
		c.logger.Debug("dropping stale event", "event", ev.Kind, "conn", ev.Conn, "current", c.connID)
		c.metrics.StaleEvent(ev.Kind.String())
		return
	}

	switch ev.Kind {
	case stream.EventOpened:
		c.opened()
	case stream.EventData:
		c.data(ev.Sample)
	case stream.EventInit:
		c.logger.Info("simulation initialized", "dofs", ev.Init.Dofs, "duration", ev.Init.Duration)
	case stream.EventFailure:
		c.fail(&FailureError{Kind: ev.Failure, Message: ev.Message, Err: ev.Err})
	case stream.EventClosed:
		c.closed()
	}
}

func (c *Controller) opened() {
	if c.state != Connecting {
		return
	}
	msg := c.pending
	snap, ok := continuity.Snapshot{}, false
	if c.resume {
		snap, ok = c.store.ReadForResume()
	}
	if ok {
		msg.SimReq.T0 = snap.T
		msg.SimReq.InitialConditions = stream.InitialConditions{X0: snap.AllX, V0: snap.AllV}
		c.logger.Info("resuming session", "t0", snap.T)
	} else {
		c.clearAll()
		msg.SimReq.T0 = 0
		msg.SimReq.InitialConditions = stream.InitialConditions{}
		c.logger.Info("starting fresh session", "modes", c.set.Len())
	}

	if err := c.conn.Send(msg); err != nil {
		c.fail(&FailureError{Kind: stream.FailureTransport, Message: "send start message", Err: err})
		return
	}
	c.transition(Running)
}

func (c *Controller) data(s stream.Sample) {
	if c.state != Running {
		return
	}
	if n := len(s.AllX); n > 0 && n != c.set.Len() {
		c.logger.Debug("dropping sample from another model", "t", s.T, "floors", n, "modes", c.set.Len())
		c.metrics.StaleEvent(stream.EventData.String())
		return
	}
	c.store.Capture(s.T, s.AllX, s.AllV)
	points := c.set.Append(s.T, s.X, s.V, s.A)
	for i, p := range points {
		c.renderer.Append(i, p, c.set.At(i).Window())
	}
	c.renderer.Frame(s)
	c.metrics.SampleApplied(s.T)
}

func (c *Controller) fail(err *FailureError) {
	if !c.state.Active() {
		return
	}
	c.closeConn()
	c.lastErr = err
	c.logger.Warn("session failed", "kind", err.Kind, "message", err.Message, "error", err.Err)
	c.metrics.Failure(err.Kind.String())
	c.renderer.Failure(err)
	c.transition(Error)
}

func (c *Controller) closed() {
	switch c.state {
	case Running:
		c.logger.Warn("connection closed by server")
		c.closeConn()
		c.transition(Paused)
	case Connecting:
		c.fail(&FailureError{Kind: stream.FailureTransport, Message: "connection closed before opening"})
	}
}

func (c *Controller) clearAll() {
	c.set.Clear()
	c.set.Policy().Reset()
	c.store.Clear()
	c.renderer.Clear(c.set.Windows())
}

func (c *Controller) closeConn() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil {
		c.logger.Debug("close connection", "conn", c.connID, "error", err)
	}
	c.conn = nil
	c.connID = 0
}

func (c *Controller) transition(to State) {
	from := c.state
	c.state = to
	c.logger.Debug("state transition", "from", from, "to", to)
	c.metrics.Transition(from.String(), to.String())
	c.renderer.State(to)
}
