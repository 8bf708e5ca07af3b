package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

// Validate reports every problem at once, joined.
func (c *Config) Validate() error {
	var errs []error
	bad := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	m := c.Model
	n := m.Stories
	if n < 1 {
		bad("model.stories", "must be at least 1, got %d", n)
	}
	perFloor := func(field string, v []float64, required bool) {
		if len(v) == 0 {
			if required {
				bad(field, "missing")
			}
			return
		}
		if len(v) != 1 && len(v) != n {
			bad(field, "has %d entries, want 1 or %d", len(v), n)
		}
		for i, x := range v {
			if !positive(x) {
				bad(fmt.Sprintf("%s[%d]", field, i), "must be positive, got %g", x)
			}
		}
	}
	perFloor("model.story_heights", m.StoryHeights, true)
	perFloor("model.modulus_gpa", m.Modulus, true)
	perFloor("model.floor_mass_t", m.FloorMass, true)
	perFloor("model.inertia", m.Inertia, false)

	if len(m.Inertia) == 0 {
		switch m.Profile.Shape {
		case ProfileRectangle, "":
			if !positive(m.Profile.Width) || !positive(m.Profile.Height) {
				bad("model.profile", "rectangle needs positive width and height")
			}
		case ProfileCircle:
			if !positive(m.Profile.Radius) {
				bad("model.profile", "circle needs a positive radius")
			}
		default:
			bad("model.profile.shape", "unknown shape %q", m.Profile.Shape)
		}
	}

	if len(m.Bays) == 0 {
		bad("model.bays", "at least one bay is required")
	}
	for i, b := range m.Bays {
		if !positive(b) {
			bad(fmt.Sprintf("model.bays[%d]", i), "must be positive, got %g", b)
		}
	}
	if !positive(m.Depth) {
		bad("model.depth", "must be positive, got %g", m.Depth)
	}
	if m.BaseCondition != 0 && m.BaseCondition != 1 {
		bad("model.base_condition", "must be 0 (pinned) or 1 (fixed), got %d", m.BaseCondition)
	}

	s := c.Simulation
	if !positive(s.Dt) {
		bad("simulation.dt", "must be positive, got %g", s.Dt)
	}
	switch s.Force.Type {
	case ForcePulse, ForceContinuous:
		if !positive(s.Force.FrequencyHz) {
			bad("simulation.force.frequency_hz", "must be positive, got %g", s.Force.FrequencyHz)
		}
	case ForceEarthquake:
	default:
		bad("simulation.force.type", "unknown force %q", s.Force.Type)
	}
	if math.IsNaN(s.Force.Amplitude) || math.IsInf(s.Force.Amplitude, 0) {
		bad("simulation.force.amplitude", "must be finite")
	}
	if s.Force.Type == ForcePulse && !positive(s.Force.Duration) {
		bad("simulation.force.duration", "pulse needs a positive duration, got %g", s.Force.Duration)
	}
	if len(s.DampingRatios) > 1 && len(s.DampingRatios) != n {
		bad("simulation.damping_ratios", "has %d entries, want 1 or %d", len(s.DampingRatios), n)
	}
	for i, z := range s.DampingRatios {
		if math.IsNaN(z) || z < 0 || z >= 1 {
			bad(fmt.Sprintf("simulation.damping_ratios[%d]", i), "must be in [0, 1), got %g", z)
		}
	}

	if u, err := url.Parse(c.Server.URL); err != nil || u.Host == "" {
		bad("server.url", "not an absolute URL: %q", c.Server.URL)
	}

	return errors.Join(errs...)
}

func positive(x float64) bool {
	return x > 0 && !math.IsInf(x, 0)
}
