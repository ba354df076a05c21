// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sensing generates synthetic compressed sensing problems.
package sensing

import (
	"errors"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/warpd/warpd"
)

// Gaussian returns an m×n matrix with independent N(0, 1/m) entries.
func Gaussian(m, n int, rnd *rand.Rand) *mat.Dense {
	data := make([]float64, m*n)
	s := 1 / math.Sqrt(float64(m))
	for i := range data {
		data[i] = s * rnd.NormFloat64()
	}
	return mat.NewDense(m, n, data)
}

// Sparse returns an n-vector with s non-zero N(0,1) entries at random positions.
func Sparse(n, s int, rnd *rand.Rand) []float64 {
	x := make([]float64, n)
	for _, i := range rnd.Perm(n)[:min(s, n)] {
		x[i] = rnd.NormFloat64()
	}
	return x
}

// Noise returns a random m-vector whose 2-norm is exactly delta.
func Noise(m int, delta float64, rnd *rand.Rand) []float64 {
	e := make([]float64, m)
	if delta == 0 {
		return e
	}
	for i := range e {
		e[i] = rnd.NormFloat64()
	}
	floats.Scale(delta/floats.Norm(e, 2), e)
	return e
}

// Difference is the forward difference operator 𝐃 : ℝⁿ → ℝⁿ⁻¹ with (𝐃𝐱)ᵢ = 𝐱ᵢ₊₁ - 𝐱ᵢ.
func Difference(n int) warpd.Operator {
	return warpd.Linear{
		Forward: func(x []float64) []float64 {
			d := make([]float64, n-1)
			for i := range d {
				d[i] = x[i+1] - x[i]
			}
			return d
		},
		Transpose: func(y []float64) []float64 {
			x := make([]float64, n)
			for i, v := range y {
				x[i] -= v
				x[i+1] += v
			}
			return x
		},
	}
}

// RelativeError returns ‖𝐱 - 𝐱*‖₂ / ‖𝐱*‖₂, or the absolute error when 𝐱* = 0.
func RelativeError(x, truth []float64) float64 {
	d := floats.Distance(x, truth, 2)
	if nrm := floats.Norm(truth, 2); nrm > 0 {
		return d / nrm
	}
	return d
}

// Spec describes a synthetic problem 𝐛 = 𝐀𝐱* + 𝐞 with ‖𝐞‖₂ = δ.
type Spec struct {
	N        int     `yaml:"n"`
	M        int     `yaml:"m"`
	Sparsity int     `yaml:"sparsity"`
	Noise    float64 `yaml:"noise"`
	Seed     uint64  `yaml:"seed"`
	// Piecewise generates a piecewise constant signal whose jumps are sparse,
	// to be recovered with the difference operator as analysis term.
	Piecewise bool `yaml:"piecewise"`
}

// Instance is a generated problem together with its ground truth.
type Instance struct {
	A     *mat.Dense
	B     []float64
	Truth []float64
	Delta float64
}

// Build generates the instance described by s.
func (s Spec) Build() (*Instance, error) {
	switch {
	case s.N <= 1:
		return nil, errors.New("signal dimension must greater than 1")
	case s.M <= 0:
		return nil, errors.New("measurement dimension must greater than 0")
	case s.Sparsity <= 0 || s.Sparsity > s.N:
		return nil, errors.New("sparsity must lie in [1,n]")
	case s.Noise < 0:
		return nil, errors.New("noise level must not less than 0")
	}

	rnd := rand.New(rand.NewPCG(s.Seed, s.Seed^0x9e3779b97f4a7c15))
	a := Gaussian(s.M, s.N, rnd)

	truth := Sparse(s.N, s.Sparsity, rnd)
	if s.Piecewise {
		for i := 1; i < len(truth); i++ {
			truth[i] += truth[i-1]
		}
	}

	b := warpd.Matrix(a).Apply(truth)
	floats.Add(b, Noise(s.M, s.Noise, rnd))

	return &Instance{A: a, B: b, Truth: truth, Delta: s.Noise}, nil
}
