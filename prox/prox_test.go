// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package prox

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestL1(t *testing.T) {
	x := []float64{3, -0.5, 0.2, -2, 0}
	in := slices.Clone(x)

	got := L1(2)(x, 0.5)
	assert.Equal(t, []float64{2, 0, 0, -1, 0}, got)
	assert.Equal(t, in, x)

	assert.Equal(t, in, L1(0)(x, 3))
	assert.Panics(t, func() { L1(-1) })
}

// 𝚙𝚛𝚘𝚡 must minimize t·λ‖𝐳‖₁ + ½‖𝐳 - 𝐱‖²
func TestL1Optimality(t *testing.T) {
	x := []float64{1.3, -0.7, 0.05, 4}
	const lam, step = 1.5, 0.4
	obj := func(z []float64) float64 {
		return step*lam*floats.Norm(z, 1) + 0.5*math.Pow(floats.Distance(z, x, 2), 2)
	}
	z := L1(lam)(x, step)
	best := obj(z)
	for i := range z {
		for _, h := range []float64{-1e-3, 1e-3} {
			p := slices.Clone(z)
			p[i] += h
			require.GreaterOrEqual(t, obj(p), best)
		}
	}
}

func TestWeightedL1(t *testing.T) {
	w := []float64{0, 1, 2}
	f := WeightedL1(w)
	w[2] = 100

	assert.Equal(t, []float64{-1, 1, 0}, f([]float64{-1, 2, 1}, 1))
	assert.Panics(t, func() { f([]float64{1}, 1) })
	assert.Panics(t, func() { WeightedL1([]float64{-1}) })
}

func TestProjections(t *testing.T) {
	x := []float64{-2, 0.5, 3}

	assert.Equal(t, []float64{0, 0.5, 3}, NonNegative()(x, 1))
	assert.Equal(t, []float64{0, 0, 2}, L1NonNegative(1)(x, 1))
	assert.Equal(t, []float64{-1, 0.5, 1}, Box(-1, 1)(x, 1))
	assert.Equal(t, []float64{-2, 0.5, 1}, Box(math.NaN(), 1)(x, 1))
	assert.Equal(t, []float64{0, 0.5, 3}, Box(0, math.NaN())(x, 1))
	assert.Panics(t, func() { Box(1, -1) })

	z := L2Ball(1)(x, 1)
	assert.InDelta(t, 1, floats.Norm(z, 2), 1e-15)
	assert.True(t, floats.EqualApprox(z, floats.ScaleTo(make([]float64, 3), 1/floats.Norm(x, 2), x), 1e-15))
	assert.Equal(t, x, L2Ball(10)(x, 1))

	assert.Equal(t, x, Zero()(x, 7))
	assert.Equal(t, []float64{-2, 0.5, 3}, x)
}
