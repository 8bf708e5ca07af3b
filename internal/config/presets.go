package config

import "sort"

var Presets = map[string]func() *Config{
	"single": func() *Config {
		cfg := DefaultConfig()
		cfg.SetStories(1)
		return cfg
	},
	"two-story": DefaultConfig,
	"three-story": func() *Config {
		cfg := DefaultConfig()
		cfg.SetStories(3)
		cfg.Model.FloorMass = []float64{60, 50, 40}
		return cfg
	},
	"resonance": func() *Config {
		cfg := DefaultConfig()
		cfg.Simulation.Force.Type = ForceContinuous
		cfg.Simulation.Force.FrequencyHz = 4.5
		cfg.Simulation.Force.Amplitude = 500
		return cfg
	},
	"earthquake": func() *Config {
		cfg := DefaultConfig()
		cfg.SetStories(3)
		cfg.Simulation.Force = ForceConfig{Type: ForceEarthquake, Amplitude: 1.0}
		cfg.Simulation.DampingRatios = []float64{0.05}
		return cfg
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
