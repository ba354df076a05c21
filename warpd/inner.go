// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package warpd

import (
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// innerIn carries the parameters of one restart.
type innerIn struct {
	restart int
	k       Operator
	b       []float64
	// rescaling factor of the sub-problem
	al float64
	// primal and dual step sizes
	tau1, tau2 float64
	// rescaled constraint tolerance 𝛂ϵ
	epsilon float64
	// global rescaling factor ‖𝐛‖₂
	scale float64
	// history slots of this restart, nil when disabled
	store [][]float64
	errs  []float64
}

type innerCtx struct {
	xk, xSum, xOut []float64 // n
	g              []float64 // n
	yk, ySum, yOut []float64 // m+q

	iter    int
	numProx int
}

func (c *innerCtx) init(n, m int) {
	wrk := make([]float64, 4*n+3*m)
	c.xk, wrk = wrk[:n:n], wrk[n:]
	c.xSum, wrk = wrk[:n:n], wrk[n:]
	c.xOut, wrk = wrk[:n:n], wrk[n:]
	c.g, wrk = wrk[:n:n], wrk[n:]
	c.yk, wrk = wrk[:m:m], wrk[m:]
	c.ySum, wrk = wrk[:m:m], wrk[m:]
	c.yOut = wrk[:m:m]
}

// reset seeds the inner state with (𝛂𝐱, 𝐲) and clears the running sums.
func (c *innerCtx) reset(loc *warpLoc, al float64) {
	floats.ScaleTo(c.xk, al, loc.psi)
	copy(c.yk, loc.y)
	clear(c.xSum)
	clear(c.ySum)
}

// innerIt performs a fixed number of primal-dual splitting steps:
//
//	𝐱ₖ₊₁ = 𝚙𝚛𝚘𝚡ᴶ(𝐱ₖ - τ₁𝐊ᵀ𝐲ₖ, τ₁)
//	𝐲ₖ₊₁ = 𝚙𝚛𝚘𝚡ᴰ(𝐲ₖ + τ₂𝐊(2𝐱ₖ₊₁ - 𝐱ₖ) - τ₂𝛂𝐛, τ₂𝛂ϵ)
//
// where 𝚙𝚛𝚘𝚡ᴰ is ProxDual. The running sums ∑𝐱ᵢ and ∑𝐲ᵢ give the ergodic averages.
//
// # Reference
//
// Antonin Chambolle, Thomas Pock: "A first-order primal-dual algorithm for convex
// problems with applications to imaging". J. Math. Imaging Vis., 2011
func (c *innerCtx) innerIt(spec *warpSpec, in *innerIn) {

	cfg := &spec.cfg
	n, dim := spec.n, spec.m+spec.q
	steps := spec.sched.Steps
	output := cfg.Output

	display := !cfg.Silent
	log := spec.logger
	debug := display && log.Core().Enabled(zap.DebugLevel)
	record := in.store != nil || in.errs != nil

	for it := 1; it <= steps; it++ {

		// 𝐠 = 𝐱ₖ - τ₁𝐊ᵀ𝐲ₖ
		kty := in.k.Adjoint(c.yk)
		if len(kty) != n {
			panic("adjoint result dimension not match n")
		}
		floats.AddScaledTo(c.g, c.xk, -in.tau1, kty)

		xn := spec.prox(c.g, in.tau1)
		c.numProx++
		if len(xn) != n {
			panic("proximal result dimension not match n")
		}
		copy(c.xOut, xn)

		// 𝐠 = 2𝐱ₖ₊₁ - 𝐱ₖ
		floats.ScaleTo(c.g, two, c.xOut)
		floats.Sub(c.g, c.xk)

		kx := in.k.Apply(c.g)
		if len(kx) != dim {
			panic("forward result dimension not match m+q")
		}
		floats.AddScaled(c.yk, in.tau2, kx)
		floats.AddScaled(c.yk, -in.tau2*in.al, in.b)
		ProxDual(c.yk, in.tau2*in.epsilon, spec.q)

		copy(c.xk, c.xOut)
		floats.Add(c.xSum, c.xk)
		floats.Add(c.ySum, c.yk)
		c.iter++

		if record {
			snap := make([]float64, n)
			if output.averagePrimal() {
				floats.ScaleTo(snap, in.scale/(in.al*float64(it)), c.xSum)
			} else {
				floats.ScaleTo(snap, in.scale/in.al, c.xk)
			}
			if in.errs != nil {
				in.errs[it-1] = cfg.ErrFunc(snap)
			}
			if in.store != nil {
				in.store[it-1] = snap
			}
		}

		if debug {
			log.Debug("warpd step",
				zap.Int("restart", in.restart+1), zap.Int("step", it),
				zap.Float64("|y|", floats.Norm(c.yk, 2)))
		}
		if display && cfg.Progress != nil {
			cfg.Progress(Progress{
				Restart: in.restart + 1, Restarts: spec.sched.Restarts,
				Step: it, Steps: steps,
			})
		}
	}

	if output.averagePrimal() {
		floats.ScaleTo(c.xOut, one/float64(steps), c.xSum)
	} else {
		copy(c.xOut, c.xk)
	}
	if output.averageDual() {
		floats.ScaleTo(c.yOut, one/float64(steps), c.ySum)
	} else {
		copy(c.yOut, c.yk)
	}
}
