// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package prox provides proximal maps of common regularizers.
//
// Every map has the form func(x, t) returning 𝚊𝚛𝚐𝚖𝚒𝚗 𝐳 t·J(𝐳) + ½‖𝐳 - 𝐱‖²
// and allocates its result, leaving x untouched.
package prox

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Func is the proximal map of t·J.
type Func = func(x []float64, t float64) []float64

// Zero is the proximal map of J ≡ 0.
func Zero() Func {
	return func(x []float64, _ float64) []float64 {
		return append([]float64(nil), x...)
	}
}

// L1 soft-thresholds every component of x at level t·λ, the proximal map of λ‖𝐱‖₁:
//
//	𝐳ᵢ = 𝚜𝚒𝚐𝚗(𝐱ᵢ) · 𝚖𝚊𝚡(|𝐱ᵢ| - tλ, 0)
func L1(lambda float64) Func {
	if lambda < 0 {
		panic("negative l1 weight")
	}
	return func(x []float64, t float64) []float64 {
		z := make([]float64, len(x))
		for i, v := range x {
			z[i] = shrink(v, t*lambda)
		}
		return z
	}
}

// WeightedL1 is the proximal map of ∑ wᵢ|𝐱ᵢ|.
func WeightedL1(w []float64) Func {
	for _, v := range w {
		if v < 0 {
			panic("negative l1 weight")
		}
	}
	w = append([]float64(nil), w...)
	return func(x []float64, t float64) []float64 {
		if len(x) != len(w) {
			panic("weight dimension mismatch")
		}
		z := make([]float64, len(x))
		for i, v := range x {
			z[i] = shrink(v, t*w[i])
		}
		return z
	}
}

// L1NonNegative is the proximal map of λ‖𝐱‖₁ restricted to 𝐱 ≥ 0.
func L1NonNegative(lambda float64) Func {
	if lambda < 0 {
		panic("negative l1 weight")
	}
	return func(x []float64, t float64) []float64 {
		z := make([]float64, len(x))
		for i, v := range x {
			z[i] = math.Max(v-t*lambda, 0)
		}
		return z
	}
}

// NonNegative projects onto the non-negative orthant.
func NonNegative() Func {
	return func(x []float64, _ float64) []float64 {
		z := make([]float64, len(x))
		for i, v := range x {
			z[i] = math.Max(v, 0)
		}
		return z
	}
}

// Box projects onto lo ≤ 𝐱ᵢ ≤ hi. NaN disables the corresponding side.
func Box(lo, hi float64) Func {
	if lo > hi {
		panic("box has no feasible point")
	}
	return func(x []float64, _ float64) []float64 {
		z := make([]float64, len(x))
		for i, v := range x {
			if !math.IsNaN(lo) {
				v = math.Max(v, lo)
			}
			if !math.IsNaN(hi) {
				v = math.Min(v, hi)
			}
			z[i] = v
		}
		return z
	}
}

// L2Ball projects onto the ball ‖𝐱‖₂ ≤ r.
func L2Ball(r float64) Func {
	if r < 0 {
		panic("negative radius")
	}
	return func(x []float64, _ float64) []float64 {
		z := append([]float64(nil), x...)
		if nrm := floats.Norm(z, 2); nrm > r {
			floats.Scale(r/nrm, z)
		}
		return z
	}
}

func shrink(v, t float64) float64 {
	switch {
	case v > t:
		return v - t
	case v < -t:
		return v + t
	default:
		return 0
	}
}
