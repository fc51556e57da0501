/*
 * relax.go, part of evscan.
 *
 * Copyright 2024 The evscan Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package scan

import (
	"context"
	"errors"
	"fmt"
	"math"

	crystal "github.com/rmera/evscan"
	"github.com/rmera/evscan/calc"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// ErrNoForces is returned when a relaxation is requested with a calculator that
// doesn't give forces.
var ErrNoForces = errors.New("the calculator gives no forces, positions can't be relaxed")

// Defaults for Relax.
const (
	DefaultForceThreshold = 1e-3 //eV/A
	DefaultMaxIterations  = 200
)

// Relax controls the relaxation of the atomic positions, at fixed cell, done
// on each deformed crystal before its energy is recorded.
type Relax struct {
	ForceThreshold float64 //largest force component allowed at convergence, eV/A. DefaultForceThreshold if 0
	MaxIterations  int     //DefaultMaxIterations if 0
}

// RelaxStats describes a finished relaxation.
type RelaxStats struct {
	Iterations  int
	Evaluations int     //calls to the calculator
	MaxForce    float64 //largest force component at the final positions, eV/A
	Converged   bool
}

func (R *Relax) settings() (float64, int) {
	thr, it := R.ForceThreshold, R.MaxIterations
	if thr <= 0 {
		thr = DefaultForceThreshold
	}
	if it <= 0 {
		it = DefaultMaxIterations
	}
	return thr, it
}

// relaxer evaluates a crystal with the positions given as a flat slice, keeping
// the last result so energy and gradient at the same point cost one calculation.
type relaxer struct {
	ctx   context.Context
	C     *crystal.Crystal
	c     calc.Calculator
	x     []float64
	res   *calc.Result
	err   error
	evals int
}

func (r *relaxer) eval(x []float64) *calc.Result {
	if r.err != nil {
		return nil
	}
	if r.res != nil && floats.Equal(r.x, x) {
		return r.res
	}
	setFlat(r.C, x)
	res, err := r.c.Calculate(r.ctx, r.C)
	r.evals++
	if err == nil && res.Forces == nil {
		err = ErrNoForces
	}
	if err != nil {
		r.err = err
		return nil
	}
	r.x = append(r.x[:0], x...)
	r.res = res
	return res
}

func (r *relaxer) problem() optimize.Problem {
	return optimize.Problem{
		Func: func(x []float64) float64 {
			res := r.eval(x)
			if res == nil {
				return math.Inf(1)
			}
			return res.Energy
		},
		Grad: func(grad, x []float64) {
			res := r.eval(x)
			if res == nil {
				for i := range grad {
					grad[i] = 0
				}
				return
			}
			for i := 0; i < res.Forces.NVecs(); i++ {
				f := res.Forces.Vec(i)
				for k := 0; k < 3; k++ {
					grad[3*i+k] = -f[k]
				}
			}
		},
		Status: func() (optimize.Status, error) {
			if r.err != nil {
				return optimize.Failure, r.err
			}
			return optimize.NotTerminated, nil
		},
	}
}

// relax minimizes the energy of C over the atomic positions, keeping the cell fixed.
// C is modified. It returns the calculator result at the final positions.
func relax(ctx context.Context, C *crystal.Crystal, c calc.Calculator, R *Relax) (*calc.Result, RelaxStats, error) {
	thr, maxit := R.settings()
	var stats RelaxStats
	r := &relaxer{ctx: ctx, C: C, c: c}
	x0 := flat(C)
	//the starting point tells us right away whether the calculator gives forces.
	if res := r.eval(x0); res == nil {
		return nil, stats, r.err
	}
	settings := &optimize.Settings{GradientThreshold: thr, MajorIterations: maxit}
	result, err := optimize.Minimize(r.problem(), x0, settings, &optimize.LBFGS{})
	stats.Evaluations = r.evals
	if r.err != nil {
		return nil, stats, r.err
	}
	if err != nil && result == nil {
		return nil, stats, err
	}
	stats.Iterations = result.MajorIterations
	res := r.eval(result.X)
	if res == nil {
		return nil, stats, r.err
	}
	stats.Evaluations = r.evals
	stats.MaxForce = maxForce(res)
	stats.Converged = stats.MaxForce < thr
	return res, stats, nil
}

func maxForce(res *calc.Result) float64 {
	var m float64
	for i := 0; i < res.Forces.NVecs(); i++ {
		for _, v := range res.Forces.Vec(i) {
			m = math.Max(m, math.Abs(v))
		}
	}
	return m
}

func flat(C *crystal.Crystal) []float64 {
	x := make([]float64, 3*C.Len())
	for i := 0; i < C.Len(); i++ {
		r := C.Coords.Vec(i)
		copy(x[3*i:], r[:])
	}
	return x
}

func setFlat(C *crystal.Crystal, x []float64) {
	for i := 0; i < C.Len(); i++ {
		C.Coords.SetVec(i, [3]float64{x[3*i], x[3*i+1], x[3*i+2]})
	}
}

func (s RelaxStats) String() string {
	return fmt.Sprintf("%d iterations, %d evaluations, max force %.3g eV/A", s.Iterations, s.Evaluations, s.MaxForce)
}
