package experiment

import (
	"fmt"
	"time"

	"github.com/san-kum/starsys/internal/config"
	"github.com/san-kum/starsys/internal/dynamo"
	"github.com/san-kum/starsys/internal/integrators"
	"github.com/san-kum/starsys/internal/physics"
)

// Experiment binds a scenario to a ready-to-run System.
type Experiment struct {
	cfg        *config.Config
	method     integrators.Method
	integrator *integrators.Integrator
	system     *physics.System
}

// Outcome is one completed run.
type Outcome struct {
	Result  *integrators.Result
	Elapsed time.Duration
}

// New validates cfg and builds the System; the bodies are moved into the
// zero-momentum frame here.
func New(cfg *config.Config) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	method, err := integrators.ParseMethod(cfg.Method)
	if err != nil {
		return nil, err
	}

	integ, err := integrators.New(integrators.Config{
		StepSize: cfg.StepSize,
		RTol:     cfg.RTol,
		ATol:     cfg.ATol,
		MaxStep:  cfg.MaxStep,
		MaxSteps: cfg.MaxSteps,
	})
	if err != nil {
		return nil, err
	}

	sys, err := physics.NewSystemFromConditions(Conditions(cfg), dynamo.TimeSpan{T0: cfg.T0, Tf: cfg.Tf})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", cfg.Name, err)
	}

	return &Experiment{
		cfg:        cfg.Clone(),
		method:     method,
		integrator: integ,
		system:     sys,
	}, nil
}

// Conditions converts the configured bodies to initial conditions.
func Conditions(cfg *config.Config) []physics.InitialCondition {
	conds := make([]physics.InitialCondition, len(cfg.Bodies))
	for i, b := range cfg.Bodies {
		conds[i] = physics.InitialCondition{Mass: b.Mass, X: b.X, Y: b.Y, VX: b.VX, VY: b.VY}
	}
	return conds
}

func (e *Experiment) Run() (*Outcome, error) {
	start := time.Now()
	res, err := e.system.ComputeTrajectoriesWith(e.integrator, e.method)
	if err != nil {
		return nil, err
	}
	return &Outcome{Result: res, Elapsed: time.Since(start)}, nil
}

func (e *Experiment) Config() *config.Config     { return e.cfg }
func (e *Experiment) Method() integrators.Method { return e.method }

// System returns the underlying system for reading trajectories.
func (e *Experiment) System() *physics.System { return e.system }
