// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package warpd

import "math"

const (
	zero = 0.0
	one  = 1.0
	two  = 2.0

	// floor is added to every norm before it is used as a divisor.
	floor = 1e-43
	// alMax caps the per-restart rescaling factor.
	alMax = 1e12

	powerIter = 10
	powerSeed = 0x5eed
)

var defaultUpsilon = math.Exp(-1)

// Output selects which combination of ergodic and non-ergodic iterates
// the inner solver hands back to the restart loop.
//
//	| Output          | x              | y              |
//	|-----------------|----------------|----------------|
//	| LastIterate     | xₖ             | yₖ             |
//	| PrimalAverage   | ∑xᵢ / k        | yₖ             |
//	| DualAverage     | xₖ             | ∑yᵢ / k        |
//	| BothAverage     | ∑xᵢ / k        | ∑yᵢ / k        |
//	| PlainIterations | as BothAverage, without per-restart rescaling |
type Output int

const (
	outputUnset Output = iota
	LastIterate
	PrimalAverage
	DualAverage
	BothAverage
	PlainIterations
)

func (o Output) averagePrimal() bool {
	return o == PrimalAverage || o >= BothAverage
}

func (o Output) averageDual() bool {
	return o >= DualAverage
}

// Status reports how a run ended.
type Status int

const (
	// Completed all restarts have been performed.
	Completed Status = iota
	// HaltCallbackPanic an operator, proximal map or error function panicked.
	HaltCallbackPanic
)

func (s Status) String() string {
	switch s {
	case Completed:
		return "completed"
	case HaltCallbackPanic:
		return "halt on callback panic"
	default:
		return "unknown"
	}
}

// Prox evaluates the proximal map of t·J at x:
//
//	𝚙𝚛𝚘𝚡ₜⱼ(𝐱) = 𝚊𝚛𝚐𝚖𝚒𝚗 𝐳  J(𝐳) + ‖𝐳 - 𝐱‖²/(2t)
//
// It must not modify x.
type Prox func(x []float64, t float64) []float64

// ErrFunc measures an iterate in user units.
type ErrFunc func(x []float64) float64

// Progress is delivered after every inner step.
type Progress struct {
	Restart, Restarts int
	Step, Steps       int
}
