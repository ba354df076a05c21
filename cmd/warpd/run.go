// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"github.com/curioloop/warpd/internal/sensing"
	"github.com/curioloop/warpd/prox"
	"github.com/curioloop/warpd/warpd"
)

// RunConfig is the YAML document accepted by the run command.
type RunConfig struct {
	Problem sensing.Spec `yaml:"problem"`
	Solver  SolverConfig `yaml:"solver"`
}

// SolverConfig selects the tuning of the solver.
type SolverConfig struct {
	warpd.Config `yaml:",inline"`
	Schedule     warpd.Schedule `yaml:"schedule"`
	// Epsilon defaults to the noise level of the problem.
	Epsilon float64 `yaml:"epsilon"`
	// Lambda weights the l1 regularizer.
	Lambda float64 `yaml:"lambda"`
}

var (
	configPath string
	restarts   int
	steps      int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate a synthetic problem and solve it",
	Long: `Generates b = A·x + e from a Gaussian matrix A and a sparse x,
then recovers x by minimizing the l1 norm (or the total variation when
problem.piecewise is set) subject to ‖A·x - b‖ ≤ epsilon.`,
	RunE: runSolve,
}

func init() {
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML problem description (required)")
	runCmd.Flags().IntVar(&restarts, "restarts", 0, "Override the number of restarts")
	runCmd.Flags().IntVar(&steps, "steps", 0, "Override the inner iterations per restart")
	_ = runCmd.MarkFlagRequired("config")
}

func loadConfig(r io.Reader) (*RunConfig, error) {
	cfg := &RunConfig{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Solver.Lambda < 0 {
		return nil, errors.New("lambda must not less than 0")
	}
	if cfg.Solver.Lambda == 0 {
		cfg.Solver.Lambda = 1
	}
	return cfg, nil
}

// build turns a run configuration into a solver problem for the instance.
func build(cfg *RunConfig, inst *sensing.Instance) warpd.Problem {
	sc := cfg.Solver
	n := cfg.Problem.N
	m := len(inst.B)

	p := warpd.Problem{
		N: n, M: m,
		A:       warpd.Matrix(inst.A),
		Epsilon: sc.Epsilon,
		Delta:   inst.Delta,
		Sched:   sc.Schedule,
		Config:  sc.Config,
	}
	if p.Epsilon == 0 {
		p.Epsilon = inst.Delta
	}
	if cfg.Problem.Piecewise {
		// total variation ‖𝐃𝐱‖₁ enters through the analysis term
		p.Prox = prox.Zero()
		p.OpB, p.Q = sensing.Difference(n), n-1
	} else {
		p.Prox = prox.L1(sc.Lambda)
	}
	truth := inst.Truth
	p.ErrFunc = func(x []float64) float64 {
		return sensing.RelativeError(x, truth)
	}
	return p
}

func runSolve(cmd *cobra.Command, args []string) error {
	f, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	if restarts > 0 {
		cfg.Solver.Schedule.Restarts = restarts
	}
	if steps > 0 {
		cfg.Solver.Schedule.Steps = steps
	}

	inst, err := cfg.Problem.Build()
	if err != nil {
		return fmt.Errorf("build problem: %w", err)
	}

	p := build(cfg, inst)
	o, err := p.New(logger)
	if err != nil {
		return fmt.Errorf("configure solver: %w", err)
	}

	r := o.Fit(inst.B, make([]float64, p.N), nil, o.Init())
	if !r.OK {
		logger.Error("solver halted", zap.Error(r.Err))
		return r.Err
	}

	res := warpd.Matrix(inst.A).Apply(r.X)
	floats.Sub(res, inst.B)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "relative error  %12.5e\n", sensing.RelativeError(r.X, inst.Truth))
	fmt.Fprintf(out, "residual norm   %12.5e (epsilon %.5e)\n", floats.Norm(res, 2), p.Epsilon)
	fmt.Fprintf(out, "restarts        %12d\n", r.NumRestart)
	fmt.Fprintf(out, "iterations      %12d\n", r.NumIter)
	fmt.Fprintf(out, "operator calls  %12d\n", r.NumForward+r.NumAdjoint)
	fmt.Fprintf(out, "norm bound      %12.5e\n", r.NormA)
	fmt.Fprintf(out, "elapsed         %12v\n", r.Elapsed)
	return nil
}
