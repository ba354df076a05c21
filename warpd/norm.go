// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package warpd

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// EstimateNorm returns an upper estimate of the spectral norm ‖𝐊‖₂ for an operator acting on ℝⁿ.
//
// The power method is applied to 𝐊ᵀ𝐊 for a fixed number of iterations starting from
// a random unit vector 𝐥:
//
//	𝐥′ = 𝐊ᵀ𝐊𝐥
//	L = 1.01 × √‖𝐥′‖₂
//	𝐥 = 𝐥′ / ‖𝐥′‖₂
//
// Neither the iteration count nor the 1% margin is tied to a convergence test,
// so the result is a heuristic bound. If it understates ‖𝐊‖₂ the step sizes derived
// from it are no longer guaranteed to be stable.
//
// Zero iter uses 10 iterations. A nil rnd uses a fixed seed.
func EstimateNorm(k Operator, n, iter int, rnd *rand.Rand) float64 {
	if n <= 0 {
		panic("operator domain dimension must greater than 0")
	}
	if iter <= 0 {
		iter = powerIter
	}
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(powerSeed, powerSeed))
	}

	l := make([]float64, n)
	for i := range l {
		l[i] = rnd.NormFloat64()
	}
	floats.Scale(one/(floats.Norm(l, 2)+floor), l)

	est := zero
	for i := 0; i < iter; i++ {
		l2 := k.Adjoint(k.Apply(l))
		nrm := floats.Norm(l2, 2)
		est = 1.01 * math.Sqrt(nrm)
		if nrm == zero {
			break
		}
		floats.ScaleTo(l, one/nrm, l2)
	}
	return est
}
