package config

import (
	"maps"
	"math"
	"slices"
)

func binaryBodies() []BodyConfig {
	v := math.Sqrt(0.5)
	return []BodyConfig{
		{Name: "a", Mass: 1, X: -0.5, VY: -v},
		{Name: "b", Mass: 1, X: 0.5, VY: v},
	}
}

var Presets = map[string]*Config{
	"binary": {
		Name: "binary", Method: "midpoint", StepSize: 0.01, RTol: DefaultRTol, ATol: DefaultATol,
		T0: 0, Tf: 2 * math.Pi * math.Sqrt2,
		Bodies: binaryBodies(),
	},
	"binary_eccentric": {
		Name: "binary_eccentric", Method: "adaptive", StepSize: 0.01, RTol: DefaultRTol, ATol: DefaultATol,
		T0: 0, Tf: 2 * math.Pi,
		Bodies: []BodyConfig{
			{Name: "a", Mass: 1, X: -0.5, VY: -math.Sqrt2 / 4},
			{Name: "b", Mass: 1, X: 0.5, VY: math.Sqrt2 / 4},
		},
	},
	"figure_eight": {
		Name: "figure_eight", Method: "adaptive", StepSize: 0.01, RTol: DefaultRTol, ATol: DefaultATol,
		T0: 0, Tf: 6.32591398,
		Bodies: []BodyConfig{
			{Name: "a", Mass: 1, X: -0.97000436, Y: 0.24308753, VX: 0.466203685, VY: 0.43236573},
			{Name: "b", Mass: 1, X: 0.97000436, Y: -0.24308753, VX: 0.466203685, VY: 0.43236573},
			{Name: "c", Mass: 1, X: 0, Y: 0, VX: -0.93240737, VY: -0.86473146},
		},
	},
	"sun_planet_probe": {
		Name: "sun_planet_probe", Method: "adaptive", StepSize: 0.01, RTol: DefaultRTol, ATol: DefaultATol,
		T0: 0, Tf: 4 * math.Pi,
		Bodies: []BodyConfig{
			{Name: "sun", Mass: 1},
			{Name: "planet", Mass: 1e-3, X: 1, VY: 1},
			{Name: "probe", Mass: 0, Y: 1.5, VX: -1 / math.Sqrt(1.5)},
		},
	},
	"pythagorean": {
		Name: "pythagorean", Method: "adaptive", StepSize: 0.01, RTol: DefaultRTol, ATol: DefaultATol,
		T0: 0, Tf: 10,
		Bodies: []BodyConfig{
			{Name: "m3", Mass: 3, X: 1, Y: 3},
			{Name: "m4", Mass: 4, X: -2, Y: -1},
			{Name: "m5", Mass: 5, X: 1, Y: -1},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	return slices.Sorted(maps.Keys(Presets))
}
