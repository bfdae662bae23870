package experiment

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/starsys/internal/config"
	"github.com/san-kum/starsys/internal/integrators"
)

// SweepRun is one member of a step-size sweep.
type SweepRun struct {
	StepSize float64
	Outcome  *Outcome
	// MaxDeviation is the largest position difference from the reference
	// (smallest step) run over the sample times both runs share.
	MaxDeviation float64
	Shared       int
}

// Sweep runs cfg once per step size, at most workers at a time (0 means one
// per step size). Each run builds its own System. Runs are returned sorted
// by increasing step size; the first is the reference.
func Sweep(ctx context.Context, cfg *config.Config, stepSizes []float64, workers int) ([]SweepRun, error) {
	if len(stepSizes) == 0 {
		return nil, fmt.Errorf("%w: no step sizes", config.ErrInvalidConfig)
	}

	sizes := append([]float64(nil), stepSizes...)
	sort.Float64s(sizes)

	runs := make([]SweepRun, len(sizes))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, h := range sizes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			c := cfg.Clone()
			c.StepSize = h
			exp, err := New(c)
			if err != nil {
				return fmt.Errorf("step %g: %w", h, err)
			}

			out, err := exp.Run()
			if err != nil {
				return fmt.Errorf("step %g: %w", h, err)
			}
			runs[i] = SweepRun{StepSize: h, Outcome: out}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	ref := runs[0].Outcome.Result
	for i := range runs {
		runs[i].MaxDeviation, runs[i].Shared = deviation(ref, runs[i].Outcome.Result, len(cfg.Bodies))
	}
	return runs, nil
}

// deviation walks both time grids and compares body positions wherever the
// sample times coincide.
func deviation(ref, res *integrators.Result, bodies int) (float64, int) {
	const tol = 1e-9

	maxDev, shared := 0.0, 0
	i, j := 0, 0
	for i < len(ref.Times) && j < len(res.Times) {
		dt := ref.Times[i] - res.Times[j]
		switch {
		case math.Abs(dt) <= tol*math.Max(1, math.Abs(ref.Times[i])):
			for k := 0; k < bodies; k++ {
				dx := ref.States[i][2*k] - res.States[j][2*k]
				dy := ref.States[i][2*k+1] - res.States[j][2*k+1]
				maxDev = math.Max(maxDev, math.Hypot(dx, dy))
			}
			shared++
			i++
			j++
		case dt < 0:
			i++
		default:
			j++
		}
	}
	return maxDev, shared
}

// Elapsed sums the wall time of all runs.
func Elapsed(runs []SweepRun) time.Duration {
	var total time.Duration
	for _, r := range runs {
		if r.Outcome != nil {
			total += r.Outcome.Elapsed
		}
	}
	return total
}
