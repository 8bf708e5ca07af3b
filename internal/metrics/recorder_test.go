package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder()

	r.SampleApplied(0.5)
	r.SampleApplied(1.0)
	r.Transition("idle", "connecting")
	r.Transition("idle", "connecting")
	r.Failure("server")
	r.StaleEvent("data")
	r.Reconciled("rebuilt", true)
	r.Reconciled("retuned", false)

	if got := testutil.ToFloat64(r.Samples); got != 2 {
		t.Errorf("expected 2 samples, got %f", got)
	}
	if got := testutil.ToFloat64(r.SimTime); got != 1.0 {
		t.Errorf("expected sim time 1.0, got %f", got)
	}
	if got := testutil.ToFloat64(r.Transitions.WithLabelValues("idle", "connecting")); got != 2 {
		t.Errorf("expected 2 transitions, got %f", got)
	}
	if got := testutil.ToFloat64(r.Failures.WithLabelValues("server")); got != 1 {
		t.Errorf("expected 1 failure, got %f", got)
	}
	if got := testutil.ToFloat64(r.Mismatches); got != 1 {
		t.Errorf("expected 1 mismatch, got %f", got)
	}
}

func TestRecorderHandler(t *testing.T) {
	r := NewRecorder()
	r.SampleApplied(2)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), "modalstream_stream_samples_total 1") {
		t.Errorf("expected samples counter in output:\n%s", body)
	}
}
