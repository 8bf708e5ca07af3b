package continuity

import (
	"testing"
)

func TestStoreEmpty(t *testing.T) {
	var s Store
	if _, ok := s.ReadForResume(); ok {
		t.Error("empty store should report no prior state")
	}
	if s.Captured() {
		t.Error("empty store reports captured")
	}
}

func TestStoreCaptureOverwrites(t *testing.T) {
	s := New()
	s.Capture(0.5, []float64{1, 2}, []float64{3, 4})
	s.Capture(1.0, []float64{0.001, 0.003}, []float64{0.004, 0.01})

	snap, ok := s.ReadForResume()
	if !ok {
		t.Fatal("expected snapshot")
	}
	if snap.T != 1.0 {
		t.Errorf("expected t=1.0, got %f", snap.T)
	}
	if snap.AllX[1] != 0.003 || snap.AllV[1] != 0.01 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestStoreCopiesVectors(t *testing.T) {
	s := New()
	x := []float64{1, 2}
	s.Capture(1, x, nil)
	x[0] = 99

	snap, _ := s.ReadForResume()
	if snap.AllX[0] != 1 {
		t.Error("capture did not copy all_x")
	}
	snap.AllX[1] = 42
	again, _ := s.ReadForResume()
	if again.AllX[1] != 2 {
		t.Error("read exposed internal storage")
	}
	if again.AllV != nil {
		t.Error("nil all_v should stay nil")
	}
}

func TestStoreClear(t *testing.T) {
	s := New()
	s.Capture(3, []float64{1}, []float64{1})
	s.Clear()

	if _, ok := s.ReadForResume(); ok {
		t.Error("cleared store should report no prior state")
	}
	if snap := s.Peek(); snap.T != 0 || snap.AllX != nil || snap.AllV != nil {
		t.Errorf("expected zero snapshot, got %+v", snap)
	}
}
