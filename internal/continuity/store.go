// Package continuity keeps the last full system state of a streaming session
// so a later start can continue from it instead of restarting at t=0.
package continuity

// Snapshot is the full-system state at one instant.
type Snapshot struct {
	T    float64
	AllX []float64
	AllV []float64
}

// Store holds at most one snapshot. The zero value is an empty store.
type Store struct {
	snap     Snapshot
	captured bool
}

func New() *Store { return &Store{} }

// Capture overwrites the stored snapshot with copies of the given vectors.
func (s *Store) Capture(t float64, allX, allV []float64) {
	s.snap = Snapshot{T: t, AllX: clone(allX), AllV: clone(allV)}
	s.captured = true
}

// ReadForResume returns the stored snapshot; ok is false when nothing was
// captured since the last Clear.
func (s *Store) ReadForResume() (snap Snapshot, ok bool) {
	if !s.captured {
		return Snapshot{}, false
	}
	return Snapshot{T: s.snap.T, AllX: clone(s.snap.AllX), AllV: clone(s.snap.AllV)}, true
}

// Peek returns the stored snapshot without copying. Callers must not retain
// or mutate the slices.
func (s *Store) Peek() Snapshot { return s.snap }

// Captured reports whether a snapshot is available.
func (s *Store) Captured() bool { return s.captured }

// Clear resets to the zero snapshot {t: 0, all_x: nil, all_v: nil}.
func (s *Store) Clear() {
	s.snap = Snapshot{}
	s.captured = false
}

func clone(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
