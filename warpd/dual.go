// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package warpd

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ProxDual computes the proximal map of the dual feasibility indicator in place.
//
// The vector 𝐲 is split into a leading block 𝐮 of length len(y)-q and a trailing block 𝐯 of length q.
//
// The leading block is shrunk towards the origin by ρ:
//
//	𝐮 ← 𝚖𝚊𝚡(0, 1 - ρ/(‖𝐮‖₂ + 𝜀)) · 𝐮
//
// Each component of the trailing block is projected onto the unit ∞-ball:
//
//	𝐯ᵢ ← 𝚖𝚒𝚗(1, 1/(|𝐯ᵢ| + 𝜀)) · 𝐯ᵢ
//
// where 𝜀 = 1e-43 keeps the divisions finite at the origin.
func ProxDual(y []float64, rho float64, q int) []float64 {
	m := len(y) - q
	if m < 0 || q < 0 {
		panic("dual block size not match q")
	}

	u := y[:m]
	if len(u) > 0 {
		floats.Scale(math.Max(zero, one-rho/(floats.Norm(u, 2)+floor)), u)
	}

	for i, v := range y[m:] {
		y[m+i] = math.Min(one, one/(math.Abs(v)+floor)) * v
	}
	return y
}
