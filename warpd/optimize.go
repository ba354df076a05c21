// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package warpd

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"go.uber.org/zap"
)

// Config holds the tuning options of the restart scheme.
// A zero field means "not set" and resolves to the documented default.
type Config struct {
	// Output selects ergodic or non-ergodic iterates (default LastIterate).
	Output Output `yaml:"type"`
	// C1 and C2 are the sharpness constants of the problem, both required:
	//   ‖𝐱 - 𝐱*‖ ≤ C1 · (J(𝐱) - J(𝐱*) + C2 · 𝚍𝚒𝚜𝚝(𝐊𝐱, ball(𝐛, ϵ)))
	C1 float64 `yaml:"c1"`
	C2 float64 `yaml:"c2"`
	// Upsilon ∈ (0,1) is the tolerance contraction per restart (default e⁻¹).
	Upsilon float64 `yaml:"upsilon"`
	// NormA is an upper bound of ‖𝐊‖₂, estimated by power iteration when not set.
	NormA float64 `yaml:"norm_a"`
	// Tau scales the primal and dual step sizes τ/‖𝐊‖ (default 1).
	Tau float64 `yaml:"tau"`
	// Store keeps a snapshot of every inner iterate.
	Store bool `yaml:"store"`
	// Silent disables logging and progress reports.
	Silent bool `yaml:"silent"`
	// ErrFunc is evaluated on every inner iterate when set.
	ErrFunc ErrFunc `yaml:"-"`
	// OpB is an optional analysis operator with range dimension Q.
	OpB Operator `yaml:"-"`
	Q   int      `yaml:"-"`
	// Seed of the power iteration starting vector.
	Seed uint64 `yaml:"seed"`
	// PowerIterations used when NormA is estimated (default 10).
	PowerIterations int `yaml:"power_iterations"`
	// Progress is called after every inner step.
	Progress func(Progress) `yaml:"-"`
}

// Schedule specifies the number of restarts and the fixed inner iteration count.
type Schedule struct {
	Restarts int `yaml:"restarts"`
	Steps    int `yaml:"steps"`
}

// Problem specifies the basis pursuit problem
//
//	minimize J(𝐱) subject to ‖𝐀𝐱 - 𝐛‖₂ ≤ ϵ
//
// for a measurement 𝐛 known to satisfy ‖𝐀𝐱* - 𝐛‖₂ ≤ δ at the target 𝐱*.
type Problem struct {
	N, M    int      // Domain and measurement dimension of A
	A       Operator // Measurement operator
	Prox    Prox     // Proximal map of the regularizer J
	Epsilon float64  // Constraint tolerance ϵ
	Delta   float64  // Noise level δ
	Sched   Schedule // Restart schedule
	Config
}

// New creates a new optimizer for given problem.
func (p *Problem) New(logger *zap.Logger) (optimizer *Optimizer, err error) {

	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := p.Config
	n, m, q := p.N, p.M, cfg.Q

	if cfg.Output == outputUnset {
		cfg.Output = LastIterate
	}
	if cfg.Upsilon == zero {
		cfg.Upsilon = defaultUpsilon
	}
	if cfg.Tau == zero {
		cfg.Tau = one
	}
	if cfg.PowerIterations == 0 {
		cfg.PowerIterations = powerIter
	}
	if cfg.Seed == 0 {
		cfg.Seed = powerSeed
	}

	switch {
	case n <= 0:
		err = errors.New("problem dimension must greater than 0")
	case m <= 0:
		err = errors.New("measurement dimension must greater than 0")
	case p.A == nil:
		err = errors.New("measurement operator is required")
	case p.Prox == nil:
		err = errors.New("proximal operator is required")
	case !(p.Epsilon >= zero) || math.IsInf(p.Epsilon, 0):
		err = errors.New("epsilon must not less than 0")
	case !(p.Delta >= zero) || math.IsInf(p.Delta, 0):
		err = errors.New("delta must not less than 0")
	case p.Sched.Restarts <= 0:
		err = errors.New("restart number must greater than 0")
	case p.Sched.Steps <= 0:
		err = errors.New("inner iteration number must greater than 0")
	case cfg.Output < LastIterate || cfg.Output > PlainIterations:
		err = fmt.Errorf("unknown output type %d", cfg.Output)
	case !(cfg.C1 > zero) || math.IsInf(cfg.C1, 0):
		err = errors.New("C1 must greater than 0")
	case !(cfg.C2 > zero) || math.IsInf(cfg.C2, 0):
		err = errors.New("C2 must greater than 0")
	case !(cfg.Upsilon > zero && cfg.Upsilon < one):
		err = errors.New("upsilon must lie in (0,1)")
	case !(cfg.Tau > zero) || math.IsInf(cfg.Tau, 0):
		err = errors.New("tau must greater than 0")
	case !(cfg.NormA >= zero) || math.IsInf(cfg.NormA, 0):
		err = errors.New("operator norm bound must not less than 0")
	case cfg.PowerIterations < 0:
		err = errors.New("power iteration number must not less than 0")
	case q < 0:
		err = errors.New("analysis dimension must not less than 0")
	case cfg.OpB == nil && q > 0:
		err = errors.New("analysis dimension given without analysis operator")
	case cfg.OpB != nil && q == 0:
		err = errors.New("analysis operator requires analysis dimension")
	}

	if err != nil {
		return
	}

	k := p.A
	if cfg.OpB != nil {
		k = Stack(p.A, cfg.OpB, q)
	}

	if cfg.NormA == zero {
		if cfg.NormA, err = estimate(k, n, cfg); err != nil {
			return
		}
	}

	optimizer = &Optimizer{
		warpSpec{
			n: n, m: m, q: q,
			k:       k,
			prox:    p.Prox,
			epsilon: p.Epsilon,
			delta:   p.Delta,
			sched:   p.Sched,
			cfg:     cfg,
			logger:  logger,
		},
	}
	return
}

func estimate(k Operator, n int, cfg Config) (norm float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("operator norm estimation failed: %v", r)
		}
	}()
	rnd := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	norm = EstimateNorm(k, n, cfg.PowerIterations, rnd)
	if !(norm > zero) || math.IsInf(norm, 0) {
		err = fmt.Errorf("operator norm estimation yields %g", norm)
	}
	return
}

// Optimizer implements the WARPd restart scheme: a weighted, accelerated
// and restarted primal-dual method.
type Optimizer struct {
	warpSpec
}

// NormA returns the operator norm bound used for the step sizes.
func (o *Optimizer) NormA() float64 {
	return o.cfg.NormA
}

// Workspace holds the inner solver buffers.
// Given problem dimension n and dual dimension m+q,
// total work space is float64[4×n + 3×(m+q)].
type Workspace struct {
	n, m, q int
	innerCtx
}

// Result contains the final result of the optimization process.
type Result struct {
	OK     bool      // Whether all restarts were performed.
	Status Status    // Final status.
	Err    error     // Recovered callback failure.
	X, Y   []float64 // Final primal and dual solutions in user units.
	// Iterates[j][k] is the primal snapshot after step k of restart j (Store only).
	Iterates [][][]float64
	// Errors[j][k] is ErrFunc evaluated on the same snapshot (ErrFunc only).
	Errors  [][]float64
	Summary // Optimization summary.
}

// Summary contains a summary of the optimization process.
type Summary struct {
	NumRestart  int           // Number of restarts completed.
	NumIter     int           // Number of inner steps completed.
	NumForward  int           // Number of forward operator applications.
	NumAdjoint  int           // Number of adjoint operator applications.
	NumProx     int           // Number of proximal map evaluations.
	NormA       float64       // Operator norm bound.
	Scale       float64       // Rescaling factor ‖𝐛‖₂.
	InnerBudget int           // Inner iteration budget implied by C1, C2, ‖𝐊‖, τ and υ.
	Elapsed     time.Duration // Wall time of the run.
}

// Init allocate the workspace for optimizer.
// To avoid race conditions, separate workspaces need to be created for each goroutine.
// But multiple workspaces could share one optimizer.
func (o *Optimizer) Init() *Workspace {
	w := new(Workspace)
	w.n, w.m, w.q = o.n, o.m, o.q
	w.init(w.n, w.m+w.q)
	return w
}

// Fit runs the restart scheme on measurement b from the initial primal guess x0
// and the initial dual guess y0 (nil for zero) using workspace w.
func (o *Optimizer) Fit(b, x0, y0 []float64, w *Workspace) *Result {

	switch {
	case len(b) != o.m:
		panic("measurement dimension not match problem")
	case len(x0) != o.n:
		panic("initial x dimension not match problem")
	case y0 != nil && len(y0) != o.m+o.q:
		panic("initial y dimension not match problem")
	case w.n != o.n || w.m != o.m || w.q != o.q:
		panic("workspace dimension not match problem")
	}

	// the analysis term drives 𝐁𝐱 towards zero
	bb := make([]float64, o.m+o.q)
	copy(bb, b)

	y := make([]float64, o.m+o.q)
	if y0 != nil {
		copy(y, y0)
	}

	driver := warpDriver{
		optimizer: o,
		workspace: w,
		location: &warpLoc{
			b:   bb,
			psi: slices.Clone(x0),
			y:   y,
		},
	}

	return driver.mainLoop()
}

// Solve builds a problem from its arguments and runs it once.
func Solve(a Operator, epsilon float64, prox Prox, b, x0, y0 []float64, delta float64, nIter, kIter int, cfg Config) (*Result, error) {
	p := Problem{
		N: len(x0), M: len(b),
		A: a, Prox: prox,
		Epsilon: epsilon,
		Delta:   delta,
		Sched:   Schedule{Restarts: nIter, Steps: kIter},
		Config:  cfg,
	}
	o, err := p.New(nil)
	if err != nil {
		return nil, err
	}
	if y0 != nil && len(y0) != p.M+p.Q {
		return nil, errors.New("initial y dimension not match measurement")
	}
	r := o.Fit(b, x0, y0, o.Init())
	return r, r.Err
}
