// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package warpd

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

type warpSpec struct {
	// primal, measurement and analysis dimension
	n, m, q int
	// effective operator, stacked with the analysis operator if any
	k    Operator
	prox Prox

	epsilon, delta float64
	sched          Schedule
	cfg            Config
	logger         *zap.Logger
}

// warpLoc is the outer state threaded through the restarts, in rescaled units.
type warpLoc struct {
	b   []float64 // m+q
	psi []float64 // n
	y   []float64 // m+q
	eps float64
}

// warpDriver runs the restart loop of WARPd.
//
// Given sharpness constants C1 and C2, the problem is rescaled once by 𝚂𝙲𝙰𝙻𝙴 = ‖𝐛‖₂
// and the tolerance is seeded with ε₀ = C2‖𝐛‖₂. Each restart j solves the sub-problem
// rescaled by 𝛂ⱼ with a fixed number of primal-dual steps:
//
//	𝐤 = ⌈2·C1·√(C2²+q)·‖𝐊‖ / (τ·υ)⌉
//	βⱼ = C1·(δ + εⱼ) / (√(C2²+q)·𝐤)
//	𝛂ⱼ = 𝚖𝚒𝚗(1/(βⱼ·k_iter), 10¹²)
//	(𝐱ⱼ₊₁·𝛂ⱼ, 𝐲ⱼ₊₁) = InnerIt(𝛂ⱼ𝐛, 𝛂ⱼ𝐱ⱼ, 𝐲ⱼ, 𝛂ⱼϵ, τ/‖𝐊‖, τ/‖𝐊‖)
//	εⱼ₊₁ = υ·(δ + εⱼ)
//
// The rescaling 𝛂ⱼ keeps the fixed inner step sizes and iteration budget matched to
// the geometrically decreasing target error εⱼ.
//
// # Reference
//
// Matthew J. Colbrook: "WARPd: A linearly convergent first-order method for inverse
// problems with approximate sharpness conditions". SIAM J. Imaging Sci., 2022
type warpDriver struct {
	optimizer *Optimizer
	workspace *Workspace
	location  *warpLoc
}

func (d *warpDriver) mainLoop() *Result {

	o, w, loc := d.optimizer, d.workspace, d.location
	spec := &o.warpSpec
	cfg := &spec.cfg
	log := spec.logger
	display := !cfg.Silent

	start := time.Now()
	k := &counted{op: spec.k}
	w.iter, w.numProx = 0, 0

	scale := floats.Norm(loc.b, 2)
	if scale == zero {
		scale = one
	}
	floats.Scale(one/scale, loc.b)
	floats.Scale(one/scale, loc.psi)
	floats.Scale(one/scale, loc.y)
	epsilon, delta := spec.epsilon/scale, spec.delta/scale
	loc.eps = cfg.C2 * floats.Norm(loc.b, 2)

	nIter, kIter := spec.sched.Restarts, spec.sched.Steps
	normA := cfg.NormA
	sq := math.Sqrt(cfg.C2*cfg.C2 + float64(spec.q))
	budget := math.Ceil(two * cfg.C1 * sq * normA / (cfg.Tau * cfg.Upsilon))
	step := cfg.Tau / normA

	res := &Result{Status: Completed}
	if cfg.Store {
		res.Iterates = make([][][]float64, nIter)
	}
	if cfg.ErrFunc != nil {
		res.Errors = make([][]float64, nIter)
	}

	if display {
		log.Info("warpd start",
			zap.Int("n", spec.n), zap.Int("m", spec.m), zap.Int("q", spec.q),
			zap.Float64("normA", normA), zap.Float64("scale", scale),
			zap.Float64("budget", budget),
			zap.Int("restarts", nIter), zap.Int("steps", kIter))
	}

	plain := cfg.Output == PlainIterations
	for j := 0; j < nIter; j++ {

		beta := cfg.C1 * (delta + loc.eps) / (sq * budget)
		al := math.Min(one/(beta*float64(kIter)), alMax)
		if plain {
			al = one
		}

		in := innerIn{
			restart: j,
			k:       k,
			b:       loc.b,
			al:      al,
			tau1:    step,
			tau2:    step,
			epsilon: al * epsilon,
			scale:   scale,
		}
		if res.Iterates != nil {
			res.Iterates[j] = make([][]float64, kIter)
			in.store = res.Iterates[j]
		}
		if res.Errors != nil {
			res.Errors[j] = make([]float64, kIter)
			in.errs = res.Errors[j]
		}

		stepTime := time.Now()
		if err := d.restart(&in); err != nil {
			res.Status, res.Err = HaltCallbackPanic, err
			if display {
				log.Warn("warpd halted", zap.Int("restart", j+1), zap.Error(err))
			}
			break
		}

		// 𝐱ⱼ₊₁ = 𝐱ₒᵤₜ/𝛂ⱼ
		floats.ScaleTo(loc.psi, one/al, w.xOut)
		copy(loc.y, w.yOut)
		res.NumRestart++

		if display {
			log.Info("warpd restart",
				zap.Int("restart", j+1),
				zap.Float64("eps", loc.eps*scale),
				zap.Float64("beta", beta),
				zap.Float64("al", al),
				zap.Duration("elapsed", time.Since(stepTime)))
		}

		loc.eps = cfg.Upsilon * (delta + loc.eps)
	}

	res.OK = res.Status == Completed
	res.X = floats.ScaleTo(make([]float64, spec.n), scale, loc.psi)
	res.Y = floats.ScaleTo(make([]float64, spec.m+spec.q), scale, loc.y)
	res.Summary = Summary{
		NumRestart:  res.NumRestart,
		NumIter:     w.iter,
		NumForward:  k.forward,
		NumAdjoint:  k.adjoint,
		NumProx:     w.numProx,
		NormA:       normA,
		Scale:       scale,
		InnerBudget: int(budget),
		Elapsed:     time.Since(start),
	}

	if display {
		log.Info("warpd finish",
			zap.Stringer("status", res.Status),
			zap.Int("restarts", res.NumRestart),
			zap.Int("iterations", res.NumIter),
			zap.Duration("elapsed", res.Elapsed))
	}
	return res
}

// restart runs one inner solve from the current outer state, turning callback panics into an error.
func (d *warpDriver) restart(in *innerIn) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("restart %d: %v", in.restart+1, r)
		}
	}()

	o, w, loc := d.optimizer, d.workspace, d.location
	spec := &o.warpSpec

	w.reset(loc, in.al)
	w.innerIt(spec, in)
	return
}
