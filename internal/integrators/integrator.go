package integrators

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/starsys/internal/dynamo"
)

// Method selects an integration strategy.
type Method int

const (
	// Midpoint is the fixed-step explicit second-order Runge-Kutta scheme.
	Midpoint Method = iota + 1
	// Adaptive delegates to the Dormand-Prince solver in package ode.
	Adaptive
)

var methodAliases = map[string]Method{
	"midpoint":  Midpoint,
	"rk2":       Midpoint,
	"adaptive":  Adaptive,
	"solve_ivp": Adaptive,
	"rk45":      Adaptive,
}

func (m Method) String() string {
	switch m {
	case Midpoint:
		return "midpoint"
	case Adaptive:
		return "adaptive"
	}
	return fmt.Sprintf("method(%d)", int(m))
}

func (m Method) Valid() bool {
	return m == Midpoint || m == Adaptive
}

// Methods lists every supported strategy.
func Methods() []Method {
	return []Method{Midpoint, Adaptive}
}

// ParseMethod maps a strategy name (case-insensitive) to a Method.
func ParseMethod(name string) (Method, error) {
	m, ok := methodAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", dynamo.ErrUnsupportedMethod, name)
	}
	return m, nil
}

// Strategy advances an initial state across a time span.
type Strategy interface {
	Advance(y0 dynamo.State, span dynamo.TimeSpan, f dynamo.Derivative) (*Result, error)
}

// Result is the sampled state history of one integration run.
type Result struct {
	Method      Method
	States      []dynamo.State
	Times       []float64
	Evaluations int
}

func (r *Result) Len() int { return len(r.Times) }

// Final returns the last sampled state, or nil for an empty result.
func (r *Result) Final() dynamo.State {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}

func (r *Result) append(t float64, y dynamo.State) {
	r.Times = append(r.Times, t)
	r.States = append(r.States, y)
}

const (
	DefaultStepSize = 0.01
	DefaultRTol     = 1e-9
	DefaultATol     = 1e-12
)

// MaxSamples bounds the number of output samples of a single run.
const MaxSamples = 1 << 24

// Config holds the numeric parameters shared by the strategies. StepSize is
// the midpoint step and the adaptive output spacing; the rest only apply to
// Adaptive. Zero MaxStep or MaxSteps means unbounded.
type Config struct {
	StepSize float64 `yaml:"step_size" json:"step_size"`
	RTol     float64 `yaml:"rtol" json:"rtol"`
	ATol     float64 `yaml:"atol" json:"atol"`
	MaxStep  float64 `yaml:"max_step,omitempty" json:"max_step,omitempty"`
	MaxSteps int     `yaml:"max_steps,omitempty" json:"max_steps,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		StepSize: DefaultStepSize,
		RTol:     DefaultRTol,
		ATol:     DefaultATol,
	}
}

func (c Config) Validate() error {
	if !positive(c.StepSize) {
		return fmt.Errorf("%w: step size %g", dynamo.ErrInvalidStepSize, c.StepSize)
	}
	if !positive(c.RTol) || !positive(c.ATol) {
		return fmt.Errorf("%w: rtol=%g atol=%g", dynamo.ErrInvalidStepSize, c.RTol, c.ATol)
	}
	if c.MaxStep < 0 || math.IsNaN(c.MaxStep) || math.IsInf(c.MaxStep, 0) || c.MaxSteps < 0 {
		return fmt.Errorf("%w: max_step=%g max_steps=%d", dynamo.ErrInvalidStepSize, c.MaxStep, c.MaxSteps)
	}
	return nil
}

// Integrator dispatches to a strategy configured from its Config.
// It holds no mutable state and is safe for concurrent use.
type Integrator struct {
	cfg Config
}

func New(cfg Config) (*Integrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Integrator{cfg: cfg}, nil
}

// Default returns an Integrator using DefaultConfig.
func Default() *Integrator {
	return &Integrator{cfg: DefaultConfig()}
}

func (in *Integrator) Config() Config { return in.cfg }

// Strategy returns a *MidpointStrategy or *AdaptiveStrategy for m.
func (in *Integrator) Strategy(m Method) (Strategy, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrUnsupportedMethod, m)
	}
	if m == Midpoint {
		return NewMidpoint(in.cfg.StepSize), nil
	}
	a := NewAdaptive(in.cfg.StepSize, in.cfg.RTol, in.cfg.ATol)
	a.MaxStep, a.MaxSteps = in.cfg.MaxStep, in.cfg.MaxSteps
	return a, nil
}

// Integrate advances y0 over span with the strategy selected by m.
func (in *Integrator) Integrate(m Method, y0 dynamo.State, span dynamo.TimeSpan, f dynamo.Derivative) (*Result, error) {
	strategy, err := in.Strategy(m)
	if err != nil {
		return nil, err
	}
	return strategy.Advance(y0, span, f)
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func checkState(y0 dynamo.State) error {
	if len(y0) == 0 {
		return fmt.Errorf("%w: empty state", dynamo.ErrInvalidState)
	}
	if !y0.IsValid() {
		return dynamo.ErrInvalidState
	}
	return nil
}

// sampleCount returns the number of steps of size step needed to cover
// span, or ErrInvalidStepSize when that exceeds MaxSamples.
func sampleCount(span dynamo.TimeSpan, step float64) (int, error) {
	n := math.Ceil(span.Duration() / step)
	if math.IsNaN(n) || n > MaxSamples {
		return 0, fmt.Errorf("%w: step %g gives more than %d samples over %v", dynamo.ErrInvalidStepSize, step, MaxSamples, span)
	}
	return int(n), nil
}
