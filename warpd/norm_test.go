// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package warpd

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestEstimateNormDiagonal(t *testing.T) {
	diag := mat.NewDiagDense(6, []float64{4, -1, 0.5, 0.25, 2, 0.1})
	const sigma = 4.0

	op := Matrix(diag)
	for seed := uint64(1); seed <= 20; seed++ {
		rnd := rand.New(rand.NewPCG(seed, seed))
		est := EstimateNorm(op, 6, 0, rnd)
		require.GreaterOrEqual(t, est, sigma, "seed %d", seed)
		require.LessOrEqual(t, est, 1.01*sigma+1e-12, "seed %d", seed)
	}
}

func TestEstimateNormRectangular(t *testing.T) {
	rnd := rand.New(rand.NewPCG(11, 12))
	a := randDense(rnd, 5, 8)

	var svd mat.SVD
	require.True(t, svd.Factorize(a, mat.SVDNone))
	sigma := svd.Values(nil)[0]

	est := EstimateNorm(Matrix(a), 8, 50, rnd)
	assert.GreaterOrEqual(t, est, sigma)
	assert.LessOrEqual(t, est, 1.1*sigma)
}

func TestEstimateNormDeterministic(t *testing.T) {
	op := Stack(Identity(4), Identity(4), 4)
	a := EstimateNorm(op, 4, 0, nil)
	b := EstimateNorm(op, 4, 0, nil)
	assert.Equal(t, a, b)
	assert.InDelta(t, 1.01*1.4142135623730951, a, 1e-12)
}

func TestEstimateNormZero(t *testing.T) {
	op := Linear{
		Forward:   func(x []float64) []float64 { return make([]float64, 2) },
		Transpose: func(y []float64) []float64 { return make([]float64, 3) },
	}
	assert.Zero(t, EstimateNorm(op, 3, 0, nil))
	assert.Panics(t, func() { EstimateNorm(op, 0, 0, nil) })
}
