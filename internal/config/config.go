package config

import (
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/modalstream/internal/stream"
)

const (
	DefaultStories       = 2
	DefaultStoryHeight   = 3.0
	DefaultBay           = 6.0
	DefaultDepth         = 6.0
	DefaultModulus       = 30.0 // GPa
	DefaultFloorMass     = 50.0 // t
	DefaultColumnSide    = 0.4
	DefaultDamping       = 0.02
	DefaultDt            = 0.02
	DefaultForceAmp      = 1000.0
	DefaultForceHz       = 1.0
	DefaultPulseDuration = 2.0
	DefaultServerURL     = "http://127.0.0.1:8000"
	DefaultStreamPath    = "/ws/simulate"
	DefaultModalPath     = "/shear-building/modal"
	DefaultHandshake     = 10.0
	DefaultWindow        = 20.0
	DefaultTolerance     = 0.5
)

const (
	ForcePulse      = "pulse"
	ForceContinuous = "continuous"
	ForceEarthquake = "earthquake"

	ProfileRectangle = "rectangle"
	ProfileCircle    = "circle"
)

type Config struct {
	Model      ModelConfig      `yaml:"model" toml:"model"`
	Simulation SimulationConfig `yaml:"simulation" toml:"simulation"`
	Server     ServerConfig     `yaml:"server" toml:"server"`
	View       ViewConfig       `yaml:"view" toml:"view"`
}

// ModelConfig describes a shear building floor by floor. Per-floor slices
// with a single entry apply to every floor.
type ModelConfig struct {
	Stories       int           `yaml:"stories" toml:"stories"`
	StoryHeights  []float64     `yaml:"story_heights" toml:"story_heights"`
	Modulus       []float64     `yaml:"modulus_gpa" toml:"modulus_gpa"`
	Inertia       []float64     `yaml:"inertia,omitempty" toml:"inertia,omitempty"`
	Profile       ProfileConfig `yaml:"profile" toml:"profile"`
	Bays          []float64     `yaml:"bays" toml:"bays"`
	Depth         float64       `yaml:"depth" toml:"depth"`
	FloorMass     []float64     `yaml:"floor_mass_t" toml:"floor_mass_t"`
	BaseCondition int           `yaml:"base_condition" toml:"base_condition"`
}

// ProfileConfig is the column cross-section used when Inertia is not given.
type ProfileConfig struct {
	Shape  string  `yaml:"shape" toml:"shape"`
	Width  float64 `yaml:"width,omitempty" toml:"width,omitempty"`
	Height float64 `yaml:"height,omitempty" toml:"height,omitempty"`
	Radius float64 `yaml:"radius,omitempty" toml:"radius,omitempty"`
}

type SimulationConfig struct {
	Dt            float64     `yaml:"dt" toml:"dt"`
	Force         ForceConfig `yaml:"force" toml:"force"`
	DampingRatios []float64   `yaml:"damping_ratios" toml:"damping_ratios"`
}

// ForceConfig is the external excitation. For earthquakes Amplitude is a
// scale factor on gravity and FrequencyHz is ignored.
type ForceConfig struct {
	Type        string  `yaml:"type" toml:"type"`
	Amplitude   float64 `yaml:"amplitude" toml:"amplitude"`
	FrequencyHz float64 `yaml:"frequency_hz" toml:"frequency_hz"`
	Duration    float64 `yaml:"duration" toml:"duration"`
}

type ServerConfig struct {
	URL              string  `yaml:"url" toml:"url"`
	StreamPath       string  `yaml:"stream_path" toml:"stream_path"`
	ModalPath        string  `yaml:"modal_path" toml:"modal_path"`
	HandshakeSeconds float64 `yaml:"handshake_seconds" toml:"handshake_seconds"`
}

type ViewConfig struct {
	Window    float64 `yaml:"window" toml:"window"`
	Tolerance float64 `yaml:"tolerance" toml:"tolerance"`
}

func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Stories:       DefaultStories,
			StoryHeights:  []float64{DefaultStoryHeight},
			Modulus:       []float64{DefaultModulus},
			Profile:       ProfileConfig{Shape: ProfileRectangle, Width: DefaultColumnSide, Height: DefaultColumnSide},
			Bays:          []float64{DefaultBay, DefaultBay},
			Depth:         DefaultDepth,
			FloorMass:     []float64{DefaultFloorMass},
			BaseCondition: 1,
		},
		Simulation: SimulationConfig{
			Dt: DefaultDt,
			Force: ForceConfig{
				Type:        ForcePulse,
				Amplitude:   DefaultForceAmp,
				FrequencyHz: DefaultForceHz,
				Duration:    DefaultPulseDuration,
			},
			DampingRatios: []float64{DefaultDamping},
		},
		Server: ServerConfig{
			URL:              DefaultServerURL,
			StreamPath:       DefaultStreamPath,
			ModalPath:        DefaultModalPath,
			HandshakeSeconds: DefaultHandshake,
		},
		View: ViewConfig{
			Window:    DefaultWindow,
			Tolerance: DefaultTolerance,
		},
	}
}

// Load reads a YAML or TOML file (chosen by extension) over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Model.StoryHeights = cloneFloats(c.Model.StoryHeights)
	out.Model.Modulus = cloneFloats(c.Model.Modulus)
	out.Model.Inertia = cloneFloats(c.Model.Inertia)
	out.Model.Bays = cloneFloats(c.Model.Bays)
	out.Model.FloorMass = cloneFloats(c.Model.FloorMass)
	out.Simulation.DampingRatios = cloneFloats(c.Simulation.DampingRatios)
	return &out
}

// SetStories changes the floor count, trimming or extending per-floor values
// with the last entry.
func (c *Config) SetStories(n int) {
	c.Model.Stories = n
	c.Model.StoryHeights = resize(c.Model.StoryHeights, n, DefaultStoryHeight)
	c.Model.Modulus = resize(c.Model.Modulus, n, DefaultModulus)
	c.Model.FloorMass = resize(c.Model.FloorMass, n, DefaultFloorMass)
	c.Simulation.DampingRatios = resize(c.Simulation.DampingRatios, n, DefaultDamping)
	if len(c.Model.Inertia) > 0 {
		c.Model.Inertia = resize(c.Model.Inertia, n, c.Model.Inertia[len(c.Model.Inertia)-1])
	}
}

// ColumnInertia is the second moment of area of the configured profile.
func (p ProfileConfig) ColumnInertia() float64 {
	if p.Shape == ProfileCircle {
		return CircleInertia(p.Radius)
	}
	return RectangleInertia(p.Width, p.Height)
}

// RectangleInertia returns b·h³/12.
func RectangleInertia(b, h float64) float64 { return b * h * h * h / 12 }

// CircleInertia returns π·r⁴/4.
func CircleInertia(r float64) float64 { return math.Pi * r * r * r * r / 4 }

// ForcingOmega converts the forcing frequency to rad/s.
func (c *Config) ForcingOmega() float64 {
	return c.Simulation.Force.FrequencyHz * 2 * math.Pi
}

// SetForcingOmega sets the forcing frequency from a circular frequency, e.g.
// a mode's natural frequency.
func (c *Config) SetForcingOmega(omega float64) {
	c.Simulation.Force.FrequencyHz = omega / (2 * math.Pi)
}

// ModelRequest validates the configuration and expands it into the
// per-floor request both services expect.
func (c *Config) ModelRequest() (stream.ModelRequest, error) {
	if err := c.Validate(); err != nil {
		return stream.ModelRequest{}, err
	}
	n := c.Model.Stories

	inertia := c.Model.Inertia
	if len(inertia) == 0 {
		inertia = []float64{c.Model.Profile.ColumnInertia()}
	}

	bays := make([][]float64, n)
	for i := range bays {
		bays[i] = cloneFloats(c.Model.Bays)
	}

	return stream.ModelRequest{
		Hc:            broadcast(c.Model.StoryHeights, n),
		Ec:            broadcast(c.Model.Modulus, n),
		Ic:            broadcast(inertia, n),
		Lb:            bays,
		Depth:         c.Model.Depth,
		FloorMass:     broadcast(c.Model.FloorMass, n),
		BaseCondition: c.Model.BaseCondition,
		DampingRatios: c.DampingRatios(),
	}, nil
}

// DampingRatios returns one ratio per mode.
func (c *Config) DampingRatios() []float64 {
	if len(c.Simulation.DampingRatios) == 0 {
		return broadcast([]float64{DefaultDamping}, c.Model.Stories)
	}
	return broadcast(c.Simulation.DampingRatios, c.Model.Stories)
}

// SimRequest builds the simulation part of a start message. T0 and initial
// conditions are left for the session to fill in.
func (c *Config) SimRequest() stream.SimRequest {
	f := c.Simulation.Force
	freq := c.ForcingOmega()
	if f.Type == ForceEarthquake {
		freq = 0
	}
	return stream.SimRequest{
		Dt: c.Simulation.Dt,
		ForceFunction: stream.ForceFunction{
			Type:     f.Type,
			Amp:      f.Amplitude,
			Freq:     freq,
			Duration: f.Duration,
		},
		DampingRatios: c.DampingRatios(),
	}
}

// StreamURL is the websocket endpoint derived from the server URL.
func (c *Config) StreamURL() (string, error) {
	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return "", fmt.Errorf("config: server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("config: unsupported server scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + c.Server.StreamPath
	return u.String(), nil
}

func broadcast(v []float64, n int) []float64 {
	if len(v) == n {
		return cloneFloats(v)
	}
	out := make([]float64, n)
	fill := 0.0
	if len(v) > 0 {
		fill = v[0]
	}
	for i := range out {
		out[i] = fill
	}
	return out
}

func resize(v []float64, n int, fallback float64) []float64 {
	if len(v) == 1 {
		return v
	}
	out := make([]float64, n)
	for i := range out {
		switch {
		case i < len(v):
			out[i] = v[i]
		case len(v) > 0:
			out[i] = v[len(v)-1]
		default:
			out[i] = fallback
		}
	}
	return out
}

func cloneFloats(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
