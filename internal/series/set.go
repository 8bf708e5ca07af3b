package series

// Set owns one Series per vibration mode together with the window policy
// that frames them.
type Set struct {
	policy *Policy
	series []*Series
}

func NewSet(periods []float64, policy *Policy) *Set {
	if policy == nil {
		policy = NewPolicy(DefaultWidth, DefaultTolerance)
	}
	s := &Set{policy: policy}
	s.Rebuild(periods)
	return s
}

func (s *Set) Policy() *Policy { return s.policy }

func (s *Set) Len() int { return len(s.series) }

func (s *Set) At(i int) *Series { return s.series[i] }

func (s *Set) All() []*Series {
	out := make([]*Series, len(s.series))
	copy(out, s.series)
	return out
}

func (s *Set) Periods() []float64 {
	out := make([]float64, len(s.series))
	for i, sr := range s.series {
		out[i] = sr.Period
	}
	return out
}

// Append adds one response sample to every series, each normalized by its
// own period, and reframes windows when follow is on. The returned points
// are indexed like the series.
func (s *Set) Append(t, x, v, a float64) []Point {
	s.policy.Observe(t)
	points := make([]Point, len(s.series))
	for i, sr := range s.series {
		points[i] = sr.append(t, x, v, a)
		if s.policy.Follow() {
			sr.window = s.policy.Frame(points[i].T)
		}
	}
	return points
}

// Scrub frames every series at simulated time t exactly as a live append at
// t would, and updates the follow flag.
func (s *Set) Scrub(t float64) []Window {
	s.policy.Scrub(t)
	return s.frameAt(t)
}

func (s *Set) frameAt(t float64) []Window {
	windows := make([]Window, len(s.series))
	for i, sr := range s.series {
		sr.window = s.policy.Frame(sr.Normalize(t))
		windows[i] = sr.window
	}
	return windows
}

func (s *Set) Windows() []Window {
	windows := make([]Window, len(s.series))
	for i, sr := range s.series {
		windows[i] = sr.window
	}
	return windows
}

// Clear empties every series and resets the windows. The series objects
// themselves survive.
func (s *Set) Clear() {
	for _, sr := range s.series {
		sr.clear(s.policy.Initial())
	}
}

// Rebuild discards every series and creates a fresh one per period.
func (s *Set) Rebuild(periods []float64) {
	s.series = make([]*Series, len(periods))
	for i, p := range periods {
		s.series[i] = newSeries(i, p, s.policy.Width)
	}
}

// Retune reassigns periods in place, keeping buffers and windows. It reports
// false without changing anything when the counts differ.
func (s *Set) Retune(periods []float64) bool {
	if len(periods) != len(s.series) {
		return false
	}
	for i, p := range periods {
		s.series[i].Period = p
	}
	return true
}
