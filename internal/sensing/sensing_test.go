// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sensing

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestNoise(t *testing.T) {
	rnd := rand.New(rand.NewPCG(1, 2))
	assert.InDelta(t, 0.3, floats.Norm(Noise(10, 0.3, rnd), 2), 1e-14)
	assert.Equal(t, make([]float64, 4), Noise(4, 0, rnd))
}

func TestSparse(t *testing.T) {
	rnd := rand.New(rand.NewPCG(3, 4))
	x := Sparse(50, 7, rnd)
	nz := 0
	for _, v := range x {
		if v != 0 {
			nz++
		}
	}
	assert.Equal(t, 7, nz)
	assert.Len(t, Sparse(3, 10, rnd), 3)
}

func TestDifference(t *testing.T) {
	d := Difference(4)
	assert.Equal(t, []float64{1, 2, -4}, d.Apply([]float64{0, 1, 3, -1}))

	rnd := rand.New(rand.NewPCG(5, 6))
	for i := 0; i < 10; i++ {
		x, y := make([]float64, 4), make([]float64, 3)
		for k := range x {
			x[k] = rnd.NormFloat64()
		}
		for k := range y {
			y[k] = rnd.NormFloat64()
		}
		require.InDelta(t, floats.Dot(d.Apply(x), y), floats.Dot(x, d.Adjoint(y)), 1e-12)
	}
}

func TestRelativeError(t *testing.T) {
	assert.InDelta(t, 0.5, RelativeError([]float64{1, 0}, []float64{2, 0}), 1e-15)
	assert.InDelta(t, 5, RelativeError([]float64{3, 4}, []float64{0, 0}), 1e-15)
}

func TestBuild(t *testing.T) {
	s := Spec{N: 20, M: 10, Sparsity: 3, Noise: 0.1, Seed: 42}
	inst, err := s.Build()
	require.NoError(t, err)

	r, c := inst.A.Dims()
	assert.Equal(t, 10, r)
	assert.Equal(t, 20, c)
	assert.Len(t, inst.B, 10)
	assert.Len(t, inst.Truth, 20)
	assert.Equal(t, 0.1, inst.Delta)

	// b - A·x is the injected noise
	ax := make([]float64, 10)
	for i := range ax {
		for j := range inst.Truth {
			ax[i] += inst.A.At(i, j) * inst.Truth[j]
		}
	}
	assert.InDelta(t, 0.1, floats.Distance(ax, inst.B, 2), 1e-12)

	again, err := s.Build()
	require.NoError(t, err)
	assert.Equal(t, inst.B, again.B)

	pw, err := Spec{N: 20, M: 10, Sparsity: 3, Seed: 42, Piecewise: true}.Build()
	require.NoError(t, err)
	jumps := 0
	for i := 1; i < len(pw.Truth); i++ {
		if pw.Truth[i] != pw.Truth[i-1] {
			jumps++
		}
	}
	assert.LessOrEqual(t, jumps, 3)

	for _, bad := range []Spec{
		{N: 1, M: 1, Sparsity: 1},
		{N: 5, M: 0, Sparsity: 1},
		{N: 5, M: 2, Sparsity: 6},
		{N: 5, M: 2, Sparsity: 1, Noise: -1},
	} {
		_, err := bad.Build()
		assert.Error(t, err)
	}
}
