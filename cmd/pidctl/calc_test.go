package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/pidctl/internal/pid"
)

func proportional(t *testing.T) *pid.Controller {
	t.Helper()
	c, err := pid.New(pid.Config{KP: 1, Timestep: 1, MinOut: -100, MaxOut: 100})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return c
}

func TestCalcStream(t *testing.T) {
	in := strings.NewReader("# sp m\n10 0\n\n10,5\n10\t10\n")
	var out bytes.Buffer

	if err := calcStream(in, &out, proportional(t), false, 0); err != nil {
		t.Fatalf("calc: %v", err)
	}
	if got := out.String(); got != "10\n5\n0\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestCalcStreamIntegral(t *testing.T) {
	c, _ := pid.New(pid.Config{KI: 1, Timestep: 0.5, MinOut: -10, MaxOut: 10})
	var out bytes.Buffer

	if err := calcStream(strings.NewReader("1 0\n1 0\n1 0\n"), &out, c, false, 0); err != nil {
		t.Fatalf("calc: %v", err)
	}
	if got := out.String(); got != "0.5\n1\n1.5\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestCalcStreamPeek(t *testing.T) {
	c, _ := pid.New(pid.Config{KI: 1, Timestep: 0.5, MinOut: -10, MaxOut: 10})
	var out bytes.Buffer

	if err := calcStream(strings.NewReader("1 0\n1 0\n"), &out, c, true, 0); err != nil {
		t.Fatalf("calc: %v", err)
	}
	// peek never accumulates the integral
	if got := out.String(); got != "0\n0\n" {
		t.Errorf("unexpected output %q", got)
	}
	if c.Integrator() != 0 || c.PrevError() != 0 {
		t.Error("peek mutated the controller")
	}
}

func TestCalcStreamResetEvery(t *testing.T) {
	c, _ := pid.New(pid.Config{KI: 1, Timestep: 1, MinOut: -10, MaxOut: 10})
	var out bytes.Buffer

	if err := calcStream(strings.NewReader("1 0\n1 0\n1 0\n1 0\n"), &out, c, false, 2); err != nil {
		t.Fatalf("calc: %v", err)
	}
	if got := out.String(); got != "1\n2\n1\n2\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestCalcStreamErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"one field", "1\n"},
		{"three fields", "1 2 3\n"},
		{"bad setpoint", "x 1\n"},
		{"bad measurement", "1 y\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := calcStream(strings.NewReader(tt.input), &out, proportional(t), false, 0)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "line 1") {
				t.Errorf("error should name the line: %v", err)
			}
		})
	}
}

func TestCalcStreamUninitialized(t *testing.T) {
	var c pid.Controller
	var out bytes.Buffer
	err := calcStream(strings.NewReader("1 0\n"), &out, &c, false, 0)
	if !errors.Is(err, pid.ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}
