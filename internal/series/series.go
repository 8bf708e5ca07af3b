package series

// Point is one plotted sample. T is normalized time: simulated time divided
// by the owning series' period.
type Point struct {
	T float64
	X float64
	V float64
	A float64
}

// Series is the append-only response history of one vibration mode.
type Series struct {
	Index  int
	Period float64

	points []Point
	window Window
}

func newSeries(index int, period, width float64) *Series {
	return &Series{
		Index:  index,
		Period: period,
		points: make([]Point, 0, 256),
		window: Window{Min: 0, Max: width},
	}
}

// Normalize converts simulated time to this series' abscissa.
func (s *Series) Normalize(t float64) float64 {
	return t / s.Period
}

func (s *Series) append(t, x, v, a float64) Point {
	p := Point{T: s.Normalize(t), X: x, V: v, A: a}
	s.points = append(s.points, p)
	return p
}

func (s *Series) clear(initial Window) {
	s.points = s.points[:0]
	s.window = initial
}

func (s *Series) Len() int { return len(s.points) }

func (s *Series) Window() Window { return s.window }

// Points returns a copy of the buffered samples in arrival order.
func (s *Series) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Last returns the most recent point, if any.
func (s *Series) Last() (Point, bool) {
	if len(s.points) == 0 {
		return Point{}, false
	}
	return s.points[len(s.points)-1], true
}

// Visible returns the points whose normalized time lies inside the current
// window.
func (s *Series) Visible() []Point {
	out := make([]Point, 0, len(s.points))
	for _, p := range s.points {
		if p.T >= s.window.Min && p.T <= s.window.Max {
			out = append(out, p)
		}
	}
	return out
}
