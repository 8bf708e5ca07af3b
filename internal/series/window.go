package series

const (
	// DefaultWidth is the visible window in units of the mode's own period.
	DefaultWidth = 20.0

	// DefaultTolerance is how close (in seconds of simulated time) a scrub
	// must land to the newest sample to re-enable follow.
	DefaultTolerance = 0.5
)

// Window is a visible range on the normalized time axis.
type Window struct {
	Min float64
	Max float64
}

// Policy decides which part of each series is visible. The follow flag is
// shared by every series; the framing itself is per series because each
// series has its own period.
type Policy struct {
	Width     float64
	Tolerance float64

	follow bool
	latest float64
}

func NewPolicy(width, tolerance float64) *Policy {
	if width <= 0 {
		width = DefaultWidth
	}
	if tolerance < 0 {
		tolerance = DefaultTolerance
	}
	return &Policy{Width: width, Tolerance: tolerance, follow: true}
}

func (p *Policy) Follow() bool { return p.follow }

// Latest is the greatest simulated time observed since the last reset.
func (p *Policy) Latest() float64 { return p.latest }

// Frame returns the window that ends at tau, or the initial window while tau
// still fits inside it.
func (p *Policy) Frame(tau float64) Window {
	if tau > p.Width {
		return Window{Min: tau - p.Width, Max: tau}
	}
	return p.Initial()
}

func (p *Policy) Initial() Window {
	return Window{Min: 0, Max: p.Width}
}

// Observe records the wall-clock time of a newly appended sample.
func (p *Policy) Observe(t float64) {
	if t > p.latest {
		p.latest = t
	}
}

// Scrub moves the view to simulated time t. Follow is re-enabled when t is
// within Tolerance of the newest sample and disabled otherwise.
func (p *Policy) Scrub(t float64) {
	p.follow = t >= p.latest-p.Tolerance
}

// Reset restores follow and forgets the newest observed time.
func (p *Policy) Reset() {
	p.follow = true
	p.latest = 0
}
