package viz

import (
	"context"
	"errors"
	"math"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/modalstream/internal/config"
	"github.com/san-kum/modalstream/internal/modal"
	"github.com/san-kum/modalstream/internal/series"
	"github.com/san-kum/modalstream/internal/session"
	"github.com/san-kum/modalstream/internal/storage"
	"github.com/san-kum/modalstream/internal/stream"
)

type stubConn struct {
	id   uint64
	sent []stream.StartMessage
}

func (c *stubConn) ID() uint64 { return c.id }

func (c *stubConn) Send(msg stream.StartMessage) error {
	c.sent = append(c.sent, msg)
	return nil
}

func (c *stubConn) Close() error { return nil }

type stubTransport struct {
	conns []*stubConn
}

func (t *stubTransport) Open(context.Context, stream.Sink) stream.Conn {
	c := &stubConn{id: uint64(len(t.conns) + 1)}
	t.conns = append(t.conns, c)
	return c
}

type stubAnalyzer struct {
	analysis *modal.Analysis
	err      error
	calls    int
}

func (a *stubAnalyzer) Analyze(context.Context, stream.ModelRequest) (*modal.Analysis, error) {
	a.calls++
	return a.analysis, a.err
}

type harness struct {
	model     Model
	transport *stubTransport
	ctrl      *session.Controller
	board     *Board
	cfg       *config.Config
}

func newHarness(t *testing.T, store *storage.Store) *harness {
	t.Helper()
	cfg := config.DefaultConfig()
	board := NewBoard(series.DefaultWidth)
	tr := &stubTransport{}
	ctrl := session.New(session.Options{
		Transport: tr,
		Config:    cfg,
		Renderer:  board,
		Policy:    series.NewPolicy(series.DefaultWidth, series.DefaultTolerance),
	})
	t.Cleanup(ctrl.Dispose)
	m := NewModel(context.Background(), Options{
		Config:     cfg,
		Controller: ctrl,
		Board:      board,
		Analyzer:   &stubAnalyzer{analysis: &modal.Analysis{Frequencies: []float64{10, 25}}},
		Store:      store,
	})
	return &harness{model: m, transport: tr, ctrl: ctrl, board: board, cfg: cfg}
}

func (h *harness) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := h.model.Update(msg)
	m, ok := next.(Model)
	require.True(t, ok)
	h.model = m
	return cmd
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func (h *harness) analyze(t *testing.T) {
	t.Helper()
	h.send(t, modalMsg{analysis: &modal.Analysis{Frequencies: []float64{10, 25}}})
	require.Equal(t, 2, h.ctrl.Series().Len())
}

func TestAppStartWithoutModesFails(t *testing.T) {
	h := newHarness(t, nil)
	h.send(t, tea.KeyMsg{Type: tea.KeySpace})

	assert.ErrorIs(t, h.model.err, session.ErrConfigurationInvalid)
	assert.Equal(t, session.Idle, h.ctrl.State())
	assert.Contains(t, h.model.View(), "waiting for modal analysis")
}

func TestAppAnalysisRebuildsCharts(t *testing.T) {
	h := newHarness(t, nil)
	cmd := h.send(t, calcMsg{})
	require.NotNil(t, cmd)
	assert.True(t, h.model.analyzing)

	h.analyze(t)
	assert.False(t, h.model.analyzing)
	assert.Len(t, h.board.Periods(), 2)
	assert.InDelta(t, 2*math.Pi/10, h.board.Periods()[0], 1e-12)
	assert.Contains(t, h.model.View(), "Mode 2")
}

func TestAppAnalysisError(t *testing.T) {
	h := newHarness(t, nil)
	h.send(t, modalMsg{err: errors.New("service down")})
	assert.EqualError(t, h.model.err, "service down")
	assert.Zero(t, h.ctrl.Series().Len())
}

func TestAppStreamsSamples(t *testing.T) {
	h := newHarness(t, nil)
	h.analyze(t)

	h.send(t, tea.KeyMsg{Type: tea.KeySpace})
	require.Equal(t, session.Connecting, h.ctrl.State())
	require.Len(t, h.transport.conns, 1)
	conn := h.transport.conns[0]

	h.send(t, eventMsg(stream.Opened(conn.id)))
	require.Equal(t, session.Running, h.ctrl.State())
	require.Len(t, conn.sent, 1)
	assert.True(t, conn.sent[0].SimReq.InitialConditions.IsZero())

	h.send(t, eventMsg(stream.Data(conn.id, stream.Sample{T: 0.02, X: 0.01, AllX: []float64{0.005, 0.01}, AllV: []float64{0, 0}})))
	s, ok := h.board.Sample()
	require.True(t, ok)
	assert.Equal(t, 0.02, s.T)
	assert.Equal(t, 1, h.ctrl.Series().At(1).Len())
	assert.Contains(t, h.model.View(), "RUNNING")

	h.send(t, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, session.Paused, h.ctrl.State())

	h.send(t, tea.KeyMsg{Type: tea.KeySpace})
	h.send(t, eventMsg(stream.Opened(h.transport.conns[1].id)))
	resumed := h.transport.conns[1].sent[0].SimReq
	assert.Equal(t, 0.02, resumed.T0)
	assert.Equal(t, []float64{0.005, 0.01}, resumed.InitialConditions.X0)

	h.send(t, keys("r"))
	assert.Equal(t, session.Idle, h.ctrl.State())
	assert.Zero(t, h.ctrl.Series().At(0).Len())
}

func TestAppModeSelectionAndToggles(t *testing.T) {
	h := newHarness(t, nil)
	h.analyze(t)

	h.send(t, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 1, h.model.selected)
	h.send(t, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 0, h.model.selected)
	h.send(t, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, 1, h.model.selected)

	h.send(t, keys("2"))
	assert.False(t, h.model.show[Velocity])
	h.send(t, keys("2"))
	assert.True(t, h.model.show[Velocity])

	h.send(t, keys("f"))
	assert.InDelta(t, 25/(2*math.Pi), h.cfg.Simulation.Force.FrequencyHz, 1e-12)
}

func TestAppScrubStopsFollowing(t *testing.T) {
	h := newHarness(t, nil)
	h.analyze(t)
	h.send(t, tea.KeyMsg{Type: tea.KeySpace})
	conn := h.transport.conns[0]
	h.send(t, eventMsg(stream.Opened(conn.id)))
	for i := 1; i <= 2000; i++ {
		h.send(t, eventMsg(stream.Data(conn.id, stream.Sample{T: float64(i) * 0.02})))
	}

	h.send(t, keys("["))
	assert.False(t, h.ctrl.Series().Policy().Follow())
	assert.Contains(t, h.model.View(), "scrubbing")

	h.send(t, tea.KeyMsg{Type: tea.KeyEnd})
	assert.True(t, h.ctrl.Series().Policy().Follow())
}

func TestAppConfigReloadMarksOutdated(t *testing.T) {
	h := newHarness(t, nil)
	h.analyze(t)

	next := config.DefaultConfig()
	next.SetStories(3)
	h.send(t, ConfigMsg{Config: next})
	assert.True(t, h.model.outdated)
	assert.Contains(t, h.model.View(), "results outdated")

	h.send(t, tea.KeyMsg{Type: tea.KeySpace})
	assert.ErrorIs(t, h.model.err, session.ErrConfigurationInvalid)

	h.send(t, ConfigMsg{Err: errors.New("bad yaml")})
	assert.ErrorContains(t, h.model.err, "config reload")
}

func TestAppSchematicAndRecording(t *testing.T) {
	store := storage.New(t.TempDir())
	h := newHarness(t, store)

	var saved *Canvas
	h.model.opts.SaveSchematic = func(c *Canvas) (string, error) {
		saved = c
		return "frame.svg", nil
	}
	h.send(t, keys("s"))
	require.NotNil(t, saved)
	assert.Equal(t, "schematic saved to frame.svg", h.model.status)

	id, err := h.model.SaveRecording()
	require.NoError(t, err)
	assert.Empty(t, id)

	h.analyze(t)
	h.send(t, tea.KeyMsg{Type: tea.KeySpace})
	conn := h.transport.conns[0]
	h.send(t, eventMsg(stream.Opened(conn.id)))
	h.send(t, eventMsg(stream.Data(conn.id, stream.Sample{T: 0.02, AllX: []float64{0.1, 0.2}})))

	cmd := h.send(t, keys("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, session.Paused, h.ctrl.State())

	id, err = h.model.SaveRecording()
	require.NoError(t, err)
	meta, err := store.Load(id)
	require.NoError(t, err)
	assert.Equal(t, 2, meta.Stories)
	assert.Equal(t, 1, meta.Samples)
	assert.InDelta(t, 0.2, meta.Metrics["peak_displacement"], 1e-12)
}
