// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package warpd

import (
	"gonum.org/v1/gonum/mat"
)

// Operator is a linear map 𝐊 : ℝⁿ → ℝᵐ available only through its applications.
//
// Apply computes 𝐊𝐱 and Adjoint computes 𝐊ᵀ𝐲. Both must return a new slice
// and leave their argument untouched. The solver assumes, without checking,
// that the two methods are linear and mutually adjoint:
//
//	⟨𝐊𝐱, 𝐲⟩ = ⟨𝐱, 𝐊ᵀ𝐲⟩
type Operator interface {
	Apply(x []float64) []float64
	Adjoint(y []float64) []float64
}

// Linear adapts a pair of functions to an Operator.
type Linear struct {
	Forward   func(x []float64) []float64
	Transpose func(y []float64) []float64
}

func (l Linear) Apply(x []float64) []float64   { return l.Forward(x) }
func (l Linear) Adjoint(y []float64) []float64 { return l.Transpose(y) }

// Matrix wraps an explicit matrix as an Operator.
func Matrix(m mat.Matrix) Operator {
	return denseOp{m}
}

type denseOp struct {
	m mat.Matrix
}

func (d denseOp) Apply(x []float64) []float64 {
	r, _ := d.m.Dims()
	dst := mat.NewVecDense(r, nil)
	dst.MulVec(d.m, mat.NewVecDense(len(x), x))
	return dst.RawVector().Data
}

func (d denseOp) Adjoint(y []float64) []float64 {
	_, c := d.m.Dims()
	dst := mat.NewVecDense(c, nil)
	dst.MulVec(d.m.T(), mat.NewVecDense(len(y), y))
	return dst.RawVector().Data
}

// Identity is the identity map on ℝⁿ.
type Identity int

func (n Identity) Apply(x []float64) []float64 {
	if len(x) != int(n) {
		panic("identity dimension mismatch")
	}
	return append([]float64(nil), x...)
}

func (n Identity) Adjoint(y []float64) []float64 { return n.Apply(y) }

// Stack joins a measurement operator 𝐀 : ℝⁿ → ℝᵐ and an analysis operator 𝐁 : ℝⁿ → ℝᑫ
// into the single operator
//
//	𝐊𝐱 = ⎡ 𝐀𝐱 ⎤        𝐊ᵀ ⎡ 𝐮 ⎤ = 𝐀ᵀ𝐮 + 𝐁ᵀ𝐯
//	     ⎣ 𝐁𝐱 ⎦           ⎣ 𝐯 ⎦
//
// where the adjoint splits its argument into a leading block 𝐮 of length len-q
// and a trailing block 𝐯 of length q.
func Stack(a, b Operator, q int) Operator {
	return stacked{a: a, b: b, q: q}
}

type stacked struct {
	a, b Operator
	q    int
}

func (s stacked) Apply(x []float64) []float64 {
	ax, bx := s.a.Apply(x), s.b.Apply(x)
	if len(bx) != s.q {
		panic("analysis operator range not match q")
	}
	return append(ax, bx...)
}

func (s stacked) Adjoint(v []float64) []float64 {
	m := len(v) - s.q
	if m < 0 {
		panic("stacked adjoint input shorter than q")
	}
	u := s.a.Adjoint(v[:m:m])
	w := s.b.Adjoint(v[m:])
	if len(u) != len(w) {
		panic("measurement and analysis adjoint dimension mismatch")
	}
	for i := range u {
		u[i] += w[i]
	}
	return u
}

// counted tallies operator applications for the run summary.
type counted struct {
	op               Operator
	forward, adjoint int
}

func (c *counted) Apply(x []float64) []float64 {
	c.forward++
	return c.op.Apply(x)
}

func (c *counted) Adjoint(y []float64) []float64 {
	c.adjoint++
	return c.op.Adjoint(y)
}
