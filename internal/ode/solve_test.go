package ode

import (
	"errors"
	"math"
	"testing"
)

func harmonic(t float64, y []float64) []float64 {
	return []float64{y[1], -y[0]}
}

func linspace(a, b float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = a + (b-a)*float64(i)/float64(n-1)
	}
	out[n-1] = b
	return out
}

func TestSolve_HarmonicOscillator(t *testing.T) {
	tEval := linspace(0, 10, 21)
	sol, err := Solve(harmonic, []float64{1, 0}, 0, 10, tEval, Options{RTol: 1e-9, ATol: 1e-12})
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	if len(sol.T) != len(tEval) || len(sol.Y) != len(tEval) {
		t.Fatalf("expected %d samples, got %d times and %d states", len(tEval), len(sol.T), len(sol.Y))
	}

	for i, te := range sol.T {
		if te != tEval[i] {
			t.Errorf("sample %d: time %g, want %g", i, te, tEval[i])
		}
		if d := math.Abs(sol.Y[i][0] - math.Cos(te)); d > 1e-7 {
			t.Errorf("t=%g: position error %e", te, d)
		}
		if d := math.Abs(sol.Y[i][1] + math.Sin(te)); d > 1e-7 {
			t.Errorf("t=%g: velocity error %e", te, d)
		}
	}
}

func TestSolve_DenseOutputBetweenSteps(t *testing.T) {
	// Many more requested samples than internal steps at loose tolerance.
	tEval := linspace(0, 2, 401)
	sol, err := Solve(func(t float64, y []float64) []float64 {
		return []float64{-y[0]}
	}, []float64{1}, 0, 2, tEval, Options{RTol: 1e-6, ATol: 1e-9})
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	if sol.Steps >= len(tEval) {
		t.Logf("steps=%d samples=%d", sol.Steps, len(tEval))
	}

	for i, te := range sol.T {
		if d := math.Abs(sol.Y[i][0] - math.Exp(-te)); d > 1e-5 {
			t.Errorf("t=%g: error %e", te, d)
		}
	}
}

func TestSolve_InitialSampleIsExact(t *testing.T) {
	y0 := []float64{0.25, -3}
	sol, err := Solve(harmonic, y0, 1, 2, []float64{1, 1.5, 2}, Options{RTol: 1e-9, ATol: 1e-12})
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	if sol.Y[0][0] != y0[0] || sol.Y[0][1] != y0[1] {
		t.Errorf("first sample %v, want %v", sol.Y[0], y0)
	}

	sol.Y[0][0] = 99
	if y0[0] == 99 {
		t.Error("solution aliases the initial state")
	}
}

func TestSolve_EmptyEvaluationGrid(t *testing.T) {
	sol, err := Solve(harmonic, []float64{1, 0}, 0, 1, nil, Options{RTol: 1e-6, ATol: 1e-9})
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if len(sol.T) != 0 {
		t.Errorf("expected no samples, got %d", len(sol.T))
	}
	if sol.Steps == 0 || sol.Evaluations == 0 {
		t.Errorf("expected integration work, got steps=%d evaluations=%d", sol.Steps, sol.Evaluations)
	}
}

func TestSolve_InvalidInput(t *testing.T) {
	good := Options{RTol: 1e-6, ATol: 1e-9}

	tests := []struct {
		name  string
		y0    []float64
		t0    float64
		tf    float64
		tEval []float64
		opts  Options
	}{
		{"empty state", nil, 0, 1, nil, good},
		{"reversed interval", []float64{1, 0}, 1, 0, nil, good},
		{"empty interval", []float64{1, 0}, 1, 1, nil, good},
		{"infinite end", []float64{1, 0}, 0, math.Inf(1), nil, good},
		{"zero rtol", []float64{1, 0}, 0, 1, nil, Options{RTol: 0, ATol: 1e-9}},
		{"negative atol", []float64{1, 0}, 0, 1, nil, Options{RTol: 1e-6, ATol: -1}},
		{"eval before t0", []float64{1, 0}, 0, 1, []float64{-0.1, 0.5}, good},
		{"eval after tf", []float64{1, 0}, 0, 1, []float64{0.5, 1.1}, good},
		{"unsorted eval", []float64{1, 0}, 0, 1, []float64{0.5, 0.2}, good},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Solve(harmonic, tt.y0, tt.t0, tt.tf, tt.tEval, tt.opts)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestSolve_DerivativeDimensionMismatch(t *testing.T) {
	_, err := Solve(func(t float64, y []float64) []float64 {
		return []float64{0}
	}, []float64{1, 2}, 0, 1, nil, Options{RTol: 1e-3, ATol: 1e-6})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSolve_FiniteTimeBlowUp(t *testing.T) {
	// y' = y^2, y(0) = 1 has the solution 1/(1-t), singular at t = 1.
	_, err := Solve(func(t float64, y []float64) []float64 {
		return []float64{y[0] * y[0]}
	}, []float64{1}, 0, 2, []float64{0, 0.5, 2}, Options{RTol: 1e-9, ATol: 1e-12})
	if !errors.Is(err, ErrStepTooSmall) && !errors.Is(err, ErrMaxSteps) {
		t.Errorf("expected solver failure, got %v", err)
	}
}

func TestSolve_MaxSteps(t *testing.T) {
	sol, err := Solve(harmonic, []float64{1, 0}, 0, 100, []float64{0, 100}, Options{RTol: 1e-10, ATol: 1e-12, MaxSteps: 5})
	if !errors.Is(err, ErrMaxSteps) {
		t.Fatalf("expected ErrMaxSteps, got %v", err)
	}
	if sol == nil || len(sol.T) != 1 {
		t.Errorf("expected partial solution with the initial sample, got %+v", sol)
	}
}

func TestSolve_MaxStepBoundsSteps(t *testing.T) {
	sol, err := Solve(harmonic, []float64{1, 0}, 0, 1, nil, Options{RTol: 1e-3, ATol: 1e-6, MaxStep: 0.01})
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if sol.Steps < 100 {
		t.Errorf("expected at least 100 steps with MaxStep=0.01, got %d", sol.Steps)
	}
}

func TestSolve_TighterToleranceIsMoreAccurate(t *testing.T) {
	errAt := func(rtol float64) float64 {
		sol, err := Solve(harmonic, []float64{1, 0}, 0, 20, []float64{20}, Options{RTol: rtol, ATol: rtol * 1e-3})
		if err != nil {
			t.Fatalf("Solve(rtol=%g) returned error: %v", rtol, err)
		}
		return math.Abs(sol.Y[0][0] - math.Cos(20))
	}

	loose, tight := errAt(1e-4), errAt(1e-10)
	if tight >= loose {
		t.Errorf("tight tolerance error %e not below loose %e", tight, loose)
	}
}
