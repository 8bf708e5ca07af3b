package session_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/modalstream/internal/modal"
	"github.com/san-kum/modalstream/internal/series"
	"github.com/san-kum/modalstream/internal/session"
	"github.com/san-kum/modalstream/internal/stream"
)

var _ = Describe("Controller", func() {
	var (
		ctx       context.Context
		transport *fakeTransport
		renderer  *recordingRenderer
		metrics   *countingMetrics
		ctrl      *session.Controller
	)

	sample := func(t float64) stream.Sample {
		return stream.Sample{
			T: t, X: 0.003 * t, V: 0.01, A: -0.2,
			AllX: []float64{0.001 * t, 0.003 * t},
			AllV: []float64{0.005, 0.01},
		}
	}

	// running opens the pending connection and leaves the controller in Running.
	running := func() *fakeConn {
		Expect(ctrl.Start(ctx)).To(Succeed())
		conn := transport.last()
		ctrl.Handle(stream.Opened(conn.id))
		Expect(ctrl.State()).To(Equal(session.Running))
		return conn
	}

	BeforeEach(func() {
		ctx = context.Background()
		transport = &fakeTransport{}
		renderer = &recordingRenderer{}
		metrics = &countingMetrics{}
		ctrl = session.New(session.Options{
			Transport: transport,
			Config:    fakeConfig{floors: 2},
			Renderer:  renderer,
			Periods:   []float64{0.5, 0.2},
			Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
			Metrics:   metrics,
		})
	})

	AfterEach(func() {
		ctrl.Dispose()
	})

	It("starts in Idle", func() {
		Expect(ctrl.State()).To(Equal(session.Idle))
		Expect(ctrl.Series().Len()).To(Equal(2))
	})

	Describe("fresh start", func() {
		It("opens exactly one connection and waits in Connecting", func() {
			Expect(ctrl.Start(ctx)).To(Succeed())
			Expect(ctrl.State()).To(Equal(session.Connecting))
			Expect(transport.conns).To(HaveLen(1))
			Expect(transport.last().sent).To(BeEmpty())
		})

		It("sends a zero start message once opened", func() {
			conn := running()
			Expect(conn.sent).To(HaveLen(1))
			msg := conn.sent[0]
			Expect(msg.SimReq.T0).To(BeZero())
			Expect(msg.SimReq.InitialConditions.IsZero()).To(BeTrue())
			Expect(msg.ModelReq.Hc).To(HaveLen(2))
		})

		It("normalizes each sample by the period of its mode", func() {
			running()
			ctrl.Handle(stream.Data(transport.last().id, sample(1.0)))

			Expect(ctrl.Series().At(0).Points()[0].T).To(BeNumerically("~", 2.0, 1e-12))
			Expect(ctrl.Series().At(1).Points()[0].T).To(BeNumerically("~", 5.0, 1e-12))
			Expect(renderer.appends).To(HaveLen(2))
			Expect(renderer.frames).To(HaveLen(1))
			Expect(metrics.samples).To(Equal(1))
		})

		It("captures every sample into the continuity store", func() {
			running()
			id := transport.last().id
			ctrl.Handle(stream.Data(id, sample(0.5)))
			ctrl.Handle(stream.Data(id, sample(1.0)))

			snap, ok := ctrl.Continuity().ReadForResume()
			Expect(ok).To(BeTrue())
			Expect(snap.T).To(Equal(1.0))
			Expect(snap.AllX).To(Equal(sample(1.0).AllX))
		})

		It("frames windows per series and follows the newest sample", func() {
			running()
			id := transport.last().id
			ctrl.Handle(stream.Data(id, sample(1.0)))
			Expect(ctrl.Series().At(0).Window()).To(Equal(series.Window{Min: 0, Max: 20}))

			ctrl.Handle(stream.Data(id, sample(6.0)))
			Expect(ctrl.Series().At(0).Window()).To(Equal(series.Window{Min: 0, Max: 20}))
			w := ctrl.Series().At(1).Window()
			Expect(w.Max).To(BeNumerically("~", 30, 1e-9))
			Expect(w.Min).To(BeNumerically("~", 10, 1e-9))
		})

		It("clears existing series and the store before sending", func() {
			conn := running()
			ctrl.Handle(stream.Data(conn.id, sample(1.0)))
			Expect(ctrl.Reset()).To(Succeed())

			running()
			Expect(ctrl.Series().At(0).Len()).To(BeZero())
			Expect(ctrl.Continuity().Captured()).To(BeFalse())
			Expect(ctrl.Series().Policy().Follow()).To(BeTrue())
		})
	})

	Describe("stop and resume", func() {
		It("pauses, keeps series and resumes from the last sample", func() {
			first := running()
			ctrl.Handle(stream.Data(first.id, sample(0.5)))
			ctrl.Handle(stream.Data(first.id, sample(1.0)))

			Expect(ctrl.Stop()).To(Succeed())
			Expect(ctrl.State()).To(Equal(session.Paused))
			Expect(first.closes).To(Equal(1))

			second := running()
			Expect(second.id).NotTo(Equal(first.id))
			msg := second.sent[0]
			Expect(msg.SimReq.T0).To(Equal(1.0))
			Expect(msg.SimReq.InitialConditions.X0).To(Equal(sample(1.0).AllX))
			Expect(msg.SimReq.InitialConditions.V0).To(Equal(sample(1.0).AllV))
			Expect(ctrl.Series().At(0).Len()).To(Equal(2))

			ctrl.Handle(stream.Data(second.id, sample(1.02)))
			Expect(ctrl.Series().At(0).Len()).To(Equal(3))
		})

		It("keeps the follow flag across a resume", func() {
			conn := running()
			ctrl.Handle(stream.Data(conn.id, sample(10)))
			Expect(ctrl.Scrub(2)).To(Succeed())
			Expect(ctrl.Series().Policy().Follow()).To(BeFalse())

			Expect(ctrl.Stop()).To(Succeed())
			running()
			Expect(ctrl.Series().Policy().Follow()).To(BeFalse())
		})

		It("starts fresh when paused without any captured sample", func() {
			running()
			Expect(ctrl.Stop()).To(Succeed())
			Expect(ctrl.State()).To(Equal(session.Paused))

			conn := running()
			Expect(conn.sent[0].SimReq.InitialConditions.IsZero()).To(BeTrue())
			Expect(conn.sent[0].SimReq.T0).To(BeZero())
		})

		It("treats an unexpected close while running as a stop", func() {
			conn := running()
			ctrl.Handle(stream.Data(conn.id, sample(1.0)))
			ctrl.Handle(stream.Closed(conn.id))

			Expect(ctrl.State()).To(Equal(session.Paused))
			Expect(conn.closes).To(Equal(1))
			Expect(ctrl.Continuity().Captured()).To(BeTrue())
		})

		It("returns to Idle when stopped while connecting with nothing captured", func() {
			Expect(ctrl.Start(ctx)).To(Succeed())
			Expect(ctrl.Stop()).To(Succeed())
			Expect(ctrl.State()).To(Equal(session.Idle))
			Expect(transport.last().closes).To(Equal(1))
		})

		It("closes the open connection before starting another", func() {
			first := running()
			Expect(ctrl.Start(ctx)).To(Succeed())
			Expect(first.closes).To(Equal(1))
			Expect(transport.conns).To(HaveLen(2))
			Expect(ctrl.State()).To(Equal(session.Connecting))
		})

		It("toggles between running and paused", func() {
			Expect(ctrl.Toggle(ctx)).To(Succeed())
			ctrl.Handle(stream.Opened(transport.last().id))
			Expect(ctrl.Toggle(ctx)).To(Succeed())
			Expect(ctrl.State()).To(Equal(session.Paused))
			Expect(ctrl.Toggle(ctx)).To(Succeed())
			Expect(ctrl.State()).To(Equal(session.Connecting))
		})
	})

	Describe("failures", func() {
		It("moves to Error on a server error frame and closes exactly once", func() {
			conn := running()
			ctrl.Handle(stream.Data(conn.id, sample(1.0)))
			ctrl.Handle(stream.Failure(conn.id, stream.FailureServer, "diverged", nil))

			Expect(ctrl.State()).To(Equal(session.Error))
			Expect(conn.closes).To(Equal(1))
			Expect(renderer.failures).To(HaveLen(1))

			err := ctrl.LastError()
			Expect(errors.Is(err, session.ErrServerReported)).To(BeTrue())
			var ferr *session.FailureError
			Expect(errors.As(err, &ferr)).To(BeTrue())
			Expect(ferr.Message).To(Equal("diverged"))

			ctrl.Handle(stream.Closed(conn.id))
			Expect(conn.closes).To(Equal(1))
			Expect(ctrl.State()).To(Equal(session.Error))
		})

		It("keeps the snapshot valid for a resume after an error", func() {
			conn := running()
			ctrl.Handle(stream.Data(conn.id, sample(1.0)))
			ctrl.Handle(stream.Failure(conn.id, stream.FailureMalformed, "unknown frame type", stream.ErrMalformedFrame))
			Expect(errors.Is(ctrl.LastError(), session.ErrTransport)).To(BeTrue())
			Expect(errors.Is(ctrl.LastError(), stream.ErrMalformedFrame)).To(BeTrue())

			next := running()
			Expect(next.sent[0].SimReq.T0).To(Equal(1.0))
			Expect(ctrl.LastError()).To(BeNil())
		})

		It("moves to Error when the dial fails", func() {
			Expect(ctrl.Start(ctx)).To(Succeed())
			conn := transport.last()
			ctrl.Handle(stream.Failure(conn.id, stream.FailureTransport, "dial", errors.New("refused")))
			ctrl.Handle(stream.Closed(conn.id))

			Expect(ctrl.State()).To(Equal(session.Error))
			Expect(conn.closes).To(Equal(1))
			Expect(metrics.failures).To(Equal(1))
		})

		It("moves to Error when the start message cannot be sent", func() {
			transport.sendErr = errors.New("broken pipe")
			Expect(ctrl.Start(ctx)).To(Succeed())
			ctrl.Handle(stream.Opened(transport.last().id))
			Expect(ctrl.State()).To(Equal(session.Error))
			Expect(errors.Is(ctrl.LastError(), session.ErrTransport)).To(BeTrue())
		})

		It("refuses an invalid configuration without opening anything", func() {
			ctrl.SetConfig(fakeConfig{err: errMissingHeights})
			err := ctrl.Start(ctx)

			Expect(errors.Is(err, session.ErrConfigurationInvalid)).To(BeTrue())
			Expect(errors.Is(err, errMissingHeights)).To(BeTrue())
			Expect(transport.conns).To(BeEmpty())
			Expect(ctrl.State()).To(Equal(session.Idle))
			Expect(renderer.failures).To(HaveLen(1))
		})

		It("refuses a model whose floors do not match the displayed modes", func() {
			ctrl.SetConfig(fakeConfig{floors: 3})
			Expect(errors.Is(ctrl.Start(ctx), session.ErrConfigurationInvalid)).To(BeTrue())
			Expect(transport.conns).To(BeEmpty())
		})
	})

	Describe("stale events", func() {
		It("drops events from a connection that was already closed", func() {
			first := running()
			ctrl.Handle(stream.Data(first.id, sample(1.0)))
			Expect(ctrl.Stop()).To(Succeed())

			second := running()
			ctrl.Handle(stream.Data(first.id, sample(9.0)))
			ctrl.Handle(stream.Failure(first.id, stream.FailureServer, "late", nil))
			ctrl.Handle(stream.Closed(first.id))

			Expect(ctrl.State()).To(Equal(session.Running))
			Expect(ctrl.Series().At(0).Len()).To(Equal(1))
			Expect(metrics.stale).To(Equal(3))
			Expect(second.closes).To(BeZero())
		})

		It("drops events after a reset", func() {
			conn := running()
			Expect(ctrl.Reset()).To(Succeed())
			ctrl.Handle(stream.Data(conn.id, sample(1.0)))
			Expect(ctrl.Series().At(0).Len()).To(BeZero())
			Expect(ctrl.Continuity().Captured()).To(BeFalse())
		})
	})

	Describe("reset", func() {
		It("is idempotent from any state", func() {
			conn := running()
			ctrl.Handle(stream.Data(conn.id, sample(1.0)))

			Expect(ctrl.Reset()).To(Succeed())
			Expect(ctrl.Reset()).To(Succeed())
			Expect(ctrl.State()).To(Equal(session.Idle))
			Expect(conn.closes).To(Equal(1))
			Expect(ctrl.Series().At(0).Len()).To(BeZero())
			Expect(ctrl.Series().At(0).Window()).To(Equal(series.Window{Min: 0, Max: 20}))
			Expect(ctrl.Continuity().Captured()).To(BeFalse())
		})

		It("recovers from Error", func() {
			conn := running()
			ctrl.Handle(stream.Failure(conn.id, stream.FailureServer, "diverged", nil))
			Expect(ctrl.Reset()).To(Succeed())
			Expect(ctrl.State()).To(Equal(session.Idle))
			Expect(ctrl.LastError()).To(BeNil())
		})

		It("refuses everything after dispose", func() {
			ctrl.Dispose()
			Expect(ctrl.Start(ctx)).To(MatchError(session.ErrDisposed))
			Expect(ctrl.Reset()).To(MatchError(session.ErrDisposed))
			_, err := ctrl.ApplyModalSummary(modal.Summary{Periods: []float64{1}})
			Expect(err).To(MatchError(session.ErrDisposed))
		})
	})

	Describe("modal summaries", func() {
		It("retunes in place when the mode count matches", func() {
			conn := running()
			ctrl.Handle(stream.Data(conn.id, sample(1.0)))
			before := ctrl.Series().At(0)

			res, err := ctrl.ApplyModalSummary(modal.Summary{Periods: []float64{0.52, 0.21}})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(modal.Retuned))
			Expect(ctrl.Series().At(0)).To(BeIdenticalTo(before))
			Expect(before.Len()).To(Equal(1))
			Expect(before.Period).To(Equal(0.52))
			Expect(renderer.relabels).To(HaveLen(1))
			Expect(ctrl.Continuity().Captured()).To(BeTrue())
		})

		It("rebuilds when the mode count changes", func() {
			conn := running()
			ctrl.Handle(stream.Data(conn.id, sample(1.0)))

			res, err := ctrl.ApplyModalSummary(modal.Summary{Periods: []float64{0.6, 0.25, 0.15}})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(modal.Rebuilt))
			Expect(ctrl.Series().Len()).To(Equal(3))
			for _, s := range ctrl.Series().All() {
				Expect(s.Len()).To(BeZero())
			}
			Expect(renderer.rebuilds).To(HaveLen(1))
			Expect(ctrl.Continuity().Captured()).To(BeFalse())
		})

		It("appends to the rebuilt series afterwards", func() {
			conn := running()
			_, err := ctrl.ApplyModalSummary(modal.Summary{Periods: []float64{1.0}})
			Expect(err).NotTo(HaveOccurred())
			ctrl.Handle(stream.Data(conn.id, stream.Sample{T: 2.0, X: 0.1, AllX: []float64{0.1}, AllV: []float64{0}}))
			Expect(ctrl.Series().At(0).Points()[0].T).To(Equal(2.0))
			Expect(ctrl.Continuity().Captured()).To(BeTrue())
		})

		It("ignores samples sized for the old model after a rebuild while running", func() {
			conn := running()
			ctrl.Handle(stream.Data(conn.id, sample(1.0)))

			_, err := ctrl.ApplyModalSummary(modal.Summary{Periods: []float64{0.6, 0.25, 0.15}})
			Expect(err).NotTo(HaveOccurred())
			ctrl.Handle(stream.Data(conn.id, sample(1.02)))

			Expect(ctrl.Series().At(0).Len()).To(BeZero())
			Expect(ctrl.Continuity().Captured()).To(BeFalse())
			Expect(metrics.stale).To(BeNumerically(">=", 1))

			Expect(ctrl.Stop()).To(Succeed())
			next := running()
			Expect(next.sent[0].SimReq.InitialConditions.IsZero()).To(BeTrue())
			Expect(next.sent[0].SimReq.T0).To(BeZero())
		})

		It("resets the scrub range on a rebuild", func() {
			conn := running()
			ctrl.Handle(stream.Data(conn.id, sample(10)))
			Expect(ctrl.Scrub(2)).To(Succeed())
			Expect(ctrl.Series().Policy().Latest()).To(BeNumerically(">", 0))

			_, err := ctrl.ApplyModalSummary(modal.Summary{Periods: []float64{0.6, 0.25, 0.15}})
			Expect(err).NotTo(HaveOccurred())
			Expect(ctrl.Series().Policy().Latest()).To(BeZero())
			Expect(ctrl.Series().Policy().Follow()).To(BeTrue())
		})

		It("forces a rebuild on invalid periods and reports a mismatch", func() {
			res, err := ctrl.ApplyModalSummary(modal.Summary{Periods: []float64{0.5, math.NaN()}})
			Expect(errors.Is(err, session.ErrReconciliationMismatch)).To(BeTrue())
			Expect(res.Outcome).To(Equal(modal.Rebuilt))
			Expect(res.Dropped).To(Equal(1))
			Expect(ctrl.Series().Len()).To(Equal(1))
			Expect(metrics.mismatches).To(Equal(1))
		})
	})

	Describe("scrub", func() {
		It("frames each series exactly like a live append at the same time", func() {
			conn := running()
			for _, t := range []float64{2, 4, 8, 12} {
				ctrl.Handle(stream.Data(conn.id, sample(t)))
			}
			live := ctrl.Series().Windows()

			Expect(ctrl.Scrub(4)).To(Succeed())
			Expect(ctrl.Series().Policy().Follow()).To(BeFalse())
			for _, s := range ctrl.Series().All() {
				Expect(s.Window()).To(Equal(ctrl.Series().Policy().Frame(s.Normalize(4))))
			}

			Expect(ctrl.Scrub(12)).To(Succeed())
			Expect(ctrl.Series().Policy().Follow()).To(BeTrue())
			Expect(ctrl.Series().Windows()).To(Equal(live))
			Expect(renderer.windows).To(HaveLen(2))
		})

		It("re-enables follow within tolerance of the newest sample", func() {
			conn := running()
			ctrl.Handle(stream.Data(conn.id, sample(12)))
			Expect(ctrl.Scrub(3)).To(Succeed())
			Expect(ctrl.Series().Policy().Follow()).To(BeFalse())

			Expect(ctrl.Scrub(11.6)).To(Succeed())
			Expect(ctrl.Series().Policy().Follow()).To(BeTrue())
		})
	})

	Describe("events channel", func() {
		It("queues sink events for the owning loop", func() {
			Expect(ctrl.Events()).NotTo(BeNil())
		})

		It("does not block the sink after dispose", func() {
			capture := &capturingTransport{}
			small := session.New(session.Options{
				Transport:   capture,
				Config:      fakeConfig{floors: 1},
				Periods:     []float64{1},
				EventBuffer: 1,
				Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
			})
			Expect(small.Start(ctx)).To(Succeed())
			sink := capture.sink

			sink(stream.Opened(1))
			Eventually(small.Events()).Should(Receive())
			sink(stream.Opened(1))
			small.Dispose()

			done := make(chan struct{})
			go func() {
				sink(stream.Closed(1))
				sink(stream.Closed(1))
				close(done)
			}()
			Eventually(done).Should(BeClosed())
		})
	})
})

type capturingTransport struct {
	fakeTransport
	sink stream.Sink
}

func (t *capturingTransport) Open(ctx context.Context, sink stream.Sink) stream.Conn {
	t.sink = sink
	return t.fakeTransport.Open(ctx, sink)
}
