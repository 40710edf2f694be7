package config

import (
	"sort"

	"github.com/san-kum/pidctl/internal/pid"
)

var Presets = map[string]map[string]*Config{
	"first_order": {
		"gentle": {
			Plant: "first_order", Integrator: "rk4", Controller: "pid", Duration: 10.0, Setpoint: 1.0,
			PID: pid.Config{KP: 1.0, KI: 0.5, KD: 0.0, Timestep: 0.01, MinOut: -5, MaxOut: 5},
		},
		"aggressive": {
			Plant: "first_order", Integrator: "rk4", Controller: "pid", Duration: 5.0, Setpoint: 1.0,
			PID: pid.Config{KP: 8.0, KI: 6.0, KD: 0.05, Timestep: 0.01, MinOut: -20, MaxOut: 20},
		},
		"windup": {
			Plant: "first_order", Integrator: "rk4", Controller: "pid", Duration: 20.0, Setpoint: 3.0,
			PID:         pid.Config{KP: 0.5, KI: 2.0, KD: 0.0, Timestep: 0.01, MinOut: 0, MaxOut: 2},
			PlantParams: map[string]float64{"tau": 2.0},
		},
	},
	"spring_mass": {
		"position": {
			Plant: "spring_mass", Integrator: "rk4", Controller: "pid", Duration: 10.0, Setpoint: 0.5,
			PID: pid.Config{KP: 40.0, KI: 20.0, KD: 8.0, Timestep: 0.005, MinOut: -50, MaxOut: 50},
		},
		"open_loop": {
			Plant: "spring_mass", Integrator: "rk4", Controller: "none", Duration: 10.0,
			InitState: []float64{1.0, 0.0},
			PID:       pid.Config{Timestep: 0.01, MinOut: -1, MaxOut: 1},
		},
	},
	"pendulum": {
		"hold": {
			Plant: "pendulum", Integrator: "rk4", Controller: "pid", Duration: 10.0, Setpoint: 0.5,
			PID: pid.Config{KP: 30.0, KI: 15.0, KD: 6.0, Timestep: 0.005, MinOut: -20, MaxOut: 20},
		},
		"weak_actuator": {
			Plant: "pendulum", Integrator: "rk4", Controller: "pid", Duration: 15.0, Setpoint: 1.2,
			PID: pid.Config{KP: 30.0, KI: 10.0, KD: 5.0, Timestep: 0.005, MinOut: -8, MaxOut: 8},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(plant, preset string) *Config {
	plantPresets, ok := Presets[plant]
	if !ok {
		return nil
	}
	cfg, ok := plantPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(plant string) []string {
	plantPresets, ok := Presets[plant]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(plantPresets))
	for name := range plantPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
