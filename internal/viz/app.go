package viz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/modalstream/internal/config"
	"github.com/san-kum/modalstream/internal/modal"
	"github.com/san-kum/modalstream/internal/session"
	"github.com/san-kum/modalstream/internal/storage"
	"github.com/san-kum/modalstream/internal/stream"
)

const (
	defaultWidth  = 110
	defaultHeight = 34
	sidePanel     = 36

	// calcDelay is how long after startup the first modal analysis runs.
	calcDelay = 500 * time.Millisecond
)

// Analyzer computes the modal properties of a building model.
// *modal.Client implements it.
type Analyzer interface {
	Analyze(ctx context.Context, req stream.ModelRequest) (*modal.Analysis, error)
}

type Options struct {
	Config     *config.Config
	Controller *session.Controller
	Board      *Board
	Analyzer   Analyzer
	// Store receives the recording on quit; nil disables recording.
	Store  *storage.Store
	Logger *slog.Logger
	// Configs delivers reloaded configurations, usually from config.Watch.
	Configs <-chan ConfigMsg
	// SaveSchematic persists the frame canvas for the s key and returns
	// where it went. Nil disables the key.
	SaveSchematic func(*Canvas) (string, error)
}

type (
	eventMsg stream.Event
	calcMsg  struct{}

	modalMsg struct {
		analysis *modal.Analysis
		err      error
	}

	// ConfigMsg carries a reloaded configuration or the reason it failed to
	// load.
	ConfigMsg struct {
		Config *config.Config
		Err    error
	}
)

// Model is the live session TUI. It hosts the session controller and is the
// only goroutine that touches it.
type Model struct {
	ctx    context.Context
	opts   Options
	cfg    *config.Config
	ctrl   *session.Controller
	board  *Board
	logger *slog.Logger

	spinner  spinner.Model
	width    int
	height   int
	selected int
	show     [3]bool
	help     bool

	analysis  *modal.Analysis
	analyzing bool
	outdated  bool

	status string
	err    error
}

func NewModel(ctx context.Context, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return Model{
		ctx:     ctx,
		opts:    opts,
		cfg:     opts.Config,
		ctrl:    opts.Controller,
		board:   opts.Board,
		logger:  logger,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		width:   defaultWidth,
		height:  defaultHeight,
		show:    [3]bool{true, true, true},
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.Tick(calcDelay, func(time.Time) tea.Msg { return calcMsg{} }),
		waitEvent(m.ctrl.Events()),
		waitConfig(m.opts.Configs),
	)
}

func waitEvent(ch <-chan stream.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func waitConfig(ch <-chan ConfigMsg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m Model) startAnalysis() (tea.Model, tea.Cmd) {
	if m.opts.Analyzer == nil || m.analyzing {
		return m, nil
	}
	m.analyzing = true
	m.status = "computing modal analysis"
	return m, tea.Batch(m.analyze(), m.spinner.Tick)
}

func (m Model) analyze() tea.Cmd {
	req, err := m.cfg.ModelRequest()
	if err != nil {
		return func() tea.Msg { return modalMsg{err: err} }
	}
	ctx, an := m.ctx, m.opts.Analyzer
	return func() tea.Msg {
		a, err := an.Analyze(ctx, req)
		return modalMsg{analysis: a, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		return m.key(msg)

	case eventMsg:
		m.ctrl.Handle(stream.Event(msg))
		return m, tea.Batch(waitEvent(m.ctrl.Events()), m.tick())

	case calcMsg:
		return m.startAnalysis()

	case modalMsg:
		m.applyModal(msg)

	case ConfigMsg:
		if msg.Err != nil {
			m.err = fmt.Errorf("config reload: %w", msg.Err)
		} else {
			m.cfg = msg.Config
			m.ctrl.SetConfig(m.cfg)
			m.outdated = true
			m.err = nil
			m.status = "configuration changed, press m to recompute"
		}
		return m, waitConfig(m.opts.Configs)

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) busy() bool {
	return m.analyzing || m.ctrl.State() == session.Connecting
}

// tick restarts the spinner when the session just became busy.
func (m Model) tick() tea.Cmd {
	if m.ctrl.State() == session.Connecting {
		return m.spinner.Tick
	}
	return nil
}

func (m *Model) applyModal(msg modalMsg) {
	m.analyzing = false
	if msg.err != nil {
		m.err = msg.err
		m.status = "modal analysis failed"
		return
	}
	m.analysis = msg.analysis
	res, err := m.ctrl.ApplyModalSummary(msg.analysis.Summary())
	m.err = err
	m.outdated = false
	if res.Outcome == modal.Rebuilt {
		m.selected = 0
	}
	m.clampSelected()
	m.status = fmt.Sprintf("%d modes (%s)", len(res.Periods), res.Outcome)
}

func (m *Model) clampSelected() {
	n := m.ctrl.Series().Len()
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m Model) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.ctrl.Stop()
		return m, tea.Quit
	case " ":
		if err := m.ctrl.Toggle(m.ctx); err != nil {
			m.err = err
		} else {
			m.err = nil
		}
		return m, m.tick()
	case "r":
		m.ctrl.Reset()
		m.err = nil
		m.status = "reset"
	case "[":
		m.scrub(-1)
	case "]":
		m.scrub(1)
	case "end":
		m.ctrl.Scrub(m.ctrl.Series().Policy().Latest())
	case "tab":
		if n := m.ctrl.Series().Len(); n > 0 {
			m.selected = (m.selected + 1) % n
		}
	case "shift+tab":
		if n := m.ctrl.Series().Len(); n > 0 {
			m.selected = (m.selected + n - 1) % n
		}
	case "1", "2", "3":
		q := int(msg.String()[0] - '1')
		m.show[q] = !m.show[q]
	case "f":
		m.forceAtMode()
	case "m":
		return m.startAnalysis()
	case "s":
		m.saveSchematic()
	case "t":
		NextTheme()
	case "?":
		m.help = !m.help
	}
	return m, nil
}

// scrub moves the selected chart by a quarter window and frames every chart
// at the same simulated time.
func (m *Model) scrub(dir float64) {
	set := m.ctrl.Series()
	if set.Len() == 0 {
		return
	}
	sr := set.At(m.selected)
	step := set.Policy().Width / 4 * sr.Period
	t := sr.Window().Max*sr.Period + dir*step
	t = math.Max(0, math.Min(t, set.Policy().Latest()))
	m.ctrl.Scrub(t)
}

func (m *Model) forceAtMode() {
	if m.analysis == nil || m.selected >= len(m.analysis.Frequencies) {
		m.status = "no modal analysis yet"
		return
	}
	m.cfg.SetForcingOmega(m.analysis.Frequencies[m.selected])
	m.ctrl.SetConfig(m.cfg)
	m.status = fmt.Sprintf("forcing at mode %d: %.3f Hz", m.selected+1, m.cfg.Simulation.Force.FrequencyHz)
}

func (m *Model) schematic(w, h int) *Canvas {
	c := NewCanvas(w, h)
	var allX []float64
	if s, ok := m.board.Sample(); ok {
		allX = s.AllX
	}
	DrawFrame(c, m.cfg.Model.Stories, allX, m.board.Scale())
	return c
}

func (m *Model) saveSchematic() {
	if m.opts.SaveSchematic == nil {
		return
	}
	path, err := m.opts.SaveSchematic(m.schematic(sidePanel-4, 12))
	if err != nil {
		m.err = err
		return
	}
	m.status = "schematic saved to " + path
}

// SaveRecording writes the current series to the store. It returns an
// empty id when recording is off or nothing was received.
func (m Model) SaveRecording() (string, error) {
	set := m.ctrl.Series()
	if m.opts.Store == nil || set.Len() == 0 || set.At(0).Len() == 0 {
		return "", nil
	}
	meta := storage.RunMetadata{
		Stories: m.cfg.Model.Stories,
		Dt:      m.cfg.Simulation.Dt,
		Force:   m.cfg.Simulation.Force.Type,
		ForceHz: m.cfg.Simulation.Force.FrequencyHz,
		Metrics: map[string]float64{},
	}
	meta.Metrics[m.board.Peak().Name()] = m.board.Peak().Value()
	for _, mt := range m.board.Metrics() {
		meta.Metrics[mt.Name()] = mt.Value()
	}
	return m.opts.Store.Save(meta, set)
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")

	set := m.ctrl.Series()
	if set.Len() == 0 {
		b.WriteString(mutedStyle().Render("waiting for modal analysis"))
		b.WriteString("\n")
	} else {
		labels := make([]string, set.Len())
		for i, sr := range set.All() {
			labels[i] = fmt.Sprintf("Mode %d  %.3fs", i+1, sr.Period)
		}
		b.WriteString(Tabs(labels, m.selected))
		b.WriteString("\n")

		chartW := m.width - sidePanel - 14
		shown := 0
		for _, on := range m.show {
			if on {
				shown++
			}
		}
		chartH := 4
		if shown > 0 {
			chartH = max(3, (m.height-16)/shown-2)
		}
		left := RenderChart(set.At(min(m.selected, set.Len()-1)), ChartOptions{
			Width:    chartW,
			Height:   chartH,
			Show:     m.show,
			PulseEnd: m.pulseEnd(),
		})
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", m.sidebar()))
		b.WriteString("\n")
	}

	b.WriteString(Separator(m.width - 2))
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle().Render(m.err.Error()))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(mutedStyle().Render(m.status))
		b.WriteString("\n")
	}
	if m.help {
		b.WriteString(m.helpView())
	} else {
		b.WriteString(KeyHints("space", "start/stop", "r", "reset", "[ ]", "scrub", "tab", "mode", "?", "help", "q", "quit"))
	}
	return b.String()
}

func (m Model) pulseEnd() float64 {
	if m.cfg.Simulation.Force.Type != config.ForcePulse {
		return 0
	}
	return m.cfg.Simulation.Force.Duration
}

func (m Model) header() string {
	state := m.ctrl.State()
	parts := []string{
		titleStyle().Render("modalstream"),
		Badge(state.String(), CurrentTheme.StateColor(state)),
	}
	if m.busy() {
		parts = append(parts, m.spinner.View())
	}
	if m.outdated {
		parts = append(parts, warnStyle().Render("results outdated"))
	}
	if !m.ctrl.Series().Policy().Follow() {
		parts = append(parts, warnStyle().Render("scrubbing"))
	}
	return strings.Join(parts, "  ")
}

func (m Model) sidebar() string {
	var b strings.Builder
	b.WriteString(m.schematic(sidePanel-4, 12).String())

	row := func(label, value string) {
		b.WriteString(labelStyle().Render(label) + valueStyle().Render(value) + "\n")
	}
	t := 0.0
	if s, ok := m.board.Sample(); ok {
		t = s.T
	}
	row("time", fmt.Sprintf("%.2f s", t))
	row("stories", fmt.Sprintf("%d", m.cfg.Model.Stories))
	row("force", m.cfg.Simulation.Force.Type)
	if m.cfg.Simulation.Force.Type != config.ForceEarthquake {
		row("freq", fmt.Sprintf("%.3f Hz", m.cfg.Simulation.Force.FrequencyHz))
	}
	row("peak x", fmt.Sprintf("%.3e m", m.board.Scale()))
	for _, mt := range m.board.Metrics() {
		row(shortName(mt.Name()), fmt.Sprintf("%.3e", mt.Value()))
	}
	if m.analysis != nil {
		for i := range m.analysis.Frequencies {
			row(fmt.Sprintf("f%d", i+1), fmt.Sprintf("%.3f Hz", m.analysis.FrequencyHz(i)))
		}
	}
	return panelStyle().Width(sidePanel).Render(strings.TrimRight(b.String(), "\n"))
}

func shortName(name string) string {
	name = strings.ReplaceAll(name, "_", " ")
	if len(name) > 11 {
		name = name[:11]
	}
	return name
}

func (m Model) helpView() string {
	lines := []string{
		KeyHints("space", "start, pause or resume"),
		KeyHints("r", "reset to a fresh session"),
		KeyHints("[ ]", "scrub a quarter window back or forward"),
		KeyHints("end", "jump to the newest sample and follow"),
		KeyHints("tab", "next mode", "shift+tab", "previous mode"),
		KeyHints("1 2 3", "toggle displacement, velocity, acceleration"),
		KeyHints("f", "force at the selected mode's frequency"),
		KeyHints("m", "recompute the modal analysis"),
		KeyHints("s", "save the frame schematic as SVG"),
		KeyHints("t", "next theme"),
		KeyHints("q", "quit"),
	}
	return panelStyle().Render(strings.Join(lines, "\n"))
}

// Run hosts the TUI until the user quits, then saves the recording when a
// store is configured.
func Run(ctx context.Context, opts Options) error {
	m := NewModel(ctx, opts)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	fm, ok := final.(Model)
	if !ok {
		return nil
	}
	id, err := fm.SaveRecording()
	if err != nil {
		return fmt.Errorf("save recording: %w", err)
	}
	if id != "" {
		fm.logger.Info("recording saved", "id", id, "dir", opts.Store.Dir())
	}
	return nil
}
