/*
 * scan_test.go, part of evscan.
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
	"testing"

	crystal "github.com/rmera/evscan"
	"github.com/rmera/evscan/build"
	"github.com/rmera/evscan/calc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parabola is a calculator whose energy is a parabola in the volume,
// with its minimum at V0. It fails for the volumes in fail.
type parabola struct {
	V0, K float64
	fail  map[int]bool
	calls int
}

func (p *parabola) Name() string { return "parabola" }

func (p *parabola) Calculate(ctx context.Context, C *crystal.Crystal) (*calc.Result, error) {
	p.calls++
	if p.fail[p.calls-1] {
		return nil, fmt.Errorf("no convergence")
	}
	dv := C.Volume() - p.V0
	return &calc.Result{Energy: p.K*dv*dv - 1, Stress: []float64{dv, dv, dv, 0, 0, 0}}, nil
}

func zincblende(Te *testing.T) *crystal.Crystal {
	Te.Helper()
	C, err := build.Bulk("ZnS", "zincblende", 5.4093)
	require.NoError(Te, err)
	return C
}

func TestScaleFactors(Te *testing.T) {
	f, err := ScaleFactors(1e-2, 10)
	require.NoError(Te, err)
	require.Len(Te, f, 21)
	assert.InDelta(Te, 0.99, f[0], 1e-15)
	assert.Equal(Te, 1.0, f[10])
	assert.InDelta(Te, 1.01, f[20], 1e-15)
	for i := 1; i < len(f); i++ {
		assert.Greater(Te, f[i], f[i-1])
	}
	for _, bad := range []struct {
		max float64
		n   int
	}{{0.1, 0}, {0, 5}, {-0.1, 5}, {1, 5}, {math.NaN(), 5}} {
		_, err := ScaleFactors(bad.max, bad.n)
		require.Error(Te, err)
		assert.ErrorIs(Te, err, ErrBadRange)
	}
}

func TestRun(Te *testing.T) {
	C := zincblende(Te)
	v0 := C.Volume()
	orig := C.Copy()
	factors, err := ScaleFactors(0.05, 2)
	require.NoError(Te, err)
	var seen []float64
	opts := Options{ScaleFactors: factors, OnPoint: func(s Sample, D *crystal.Crystal) error {
		seen = append(seen, D.Volume())
		return nil
	}}
	curve, err := Run(context.Background(), C, &parabola{V0: v0, K: 0.1}, opts)
	require.NoError(Te, err)
	require.Len(Te, curve.Samples, len(factors))
	assert.Equal(Te, "SZn", curve.Formula)
	assert.Equal(Te, 2, curve.NumAtoms)
	assert.Equal(Te, 2, curve.AtomsPerFormula)
	assert.Empty(Te, curve.Disclaimer)
	for i, s := range curve.Samples {
		assert.Equal(Te, i, s.Index)
		assert.InEpsilon(Te, v0*factors[i], s.Volume, 1e-12)
		assert.InEpsilon(Te, v0*factors[i], seen[i], 1e-12)
		assert.InDelta(Te, math.Cbrt(factors[i]), s.LinearScale, 1e-15)
		assert.InDelta(Te, s.Volume/2, s.VolumePerAtom, 1e-12)
		assert.InDelta(Te, s.Volume, s.VolumePerFormula, 1e-12)
		assert.InDelta(Te, s.Energy/2, s.EnergyPerAtom, 1e-12)
		assert.Len(Te, s.Stress, 6)
	}
	m, ok := curve.Minimum()
	require.True(Te, ok)
	assert.Equal(Te, 2, m.Index)
	assert.Len(Te, curve.Volumes(), 5)
	assert.Len(Te, curve.Energies(), 5)
	//the base crystal is not modified
	assert.True(Te, orig.Cell.Equal(C.Cell, 0))
	assert.True(Te, orig.Coords.Equal(C.Coords, 0))
}

func TestRunStrictFailure(Te *testing.T) {
	C := zincblende(Te)
	p := &parabola{V0: C.Volume(), K: 1, fail: map[int]bool{3: true}}
	curve, err := Run(context.Background(), C, p, Options{ScaleFactors: []float64{0.98, 0.99, 1, 1.01, 1.02}})
	require.Error(Te, err)
	assert.Nil(Te, curve)
	var perr *PointError
	require.True(Te, errors.As(err, &perr))
	assert.Equal(Te, 3, perr.Index)
	assert.Equal(Te, 1.01, perr.VolumeScale)
	assert.Contains(Te, err.Error(), "no convergence")
	assert.Equal(Te, 4, p.calls)
}

func TestRunTolerant(Te *testing.T) {
	C := zincblende(Te)
	p := &parabola{V0: C.Volume(), K: 1, fail: map[int]bool{0: true, 3: true}}
	factors := []float64{0.98, 0.99, 1, 1.01, 1.02}
	curve, err := Run(context.Background(), C, p, Options{ScaleFactors: factors, Tolerant: true})
	require.NoError(Te, err)
	require.Len(Te, curve.Samples, 3)
	assert.Equal(Te, []int{1, 2, 4}, []int{curve.Samples[0].Index, curve.Samples[1].Index, curve.Samples[2].Index})
	require.Len(Te, curve.Failures, 2)
	assert.Equal(Te, 0, curve.Failures[0].Index)
	assert.Equal(Te, Disclaimer, curve.Disclaimer)

	all := &parabola{V0: C.Volume(), K: 1, fail: map[int]bool{0: true, 1: true}}
	_, err = Run(context.Background(), C, all, Options{ScaleFactors: []float64{0.99, 1.01}, Tolerant: true})
	require.Error(Te, err)
	assert.ErrorIs(Te, err, ErrNoSamples)
	var perr *PointError
	require.True(Te, errors.As(err, &perr))
	assert.Equal(Te, 1, perr.Index)
}

func TestRunBadInput(Te *testing.T) {
	C := zincblende(Te)
	p := &parabola{V0: 1, K: 1}
	_, err := Run(context.Background(), C, p, Options{})
	assert.ErrorIs(Te, err, ErrNoFactors)
	for _, f := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err = Run(context.Background(), C, p, Options{ScaleFactors: []float64{1, f}})
		assert.ErrorIs(Te, err, ErrBadFactor)
	}
	assert.Equal(Te, 0, p.calls)
	_, err = Run(context.Background(), &crystal.Crystal{}, p, Options{ScaleFactors: []float64{1}})
	assert.Error(Te, err)
}

func TestRunOnPointError(Te *testing.T) {
	C := zincblende(Te)
	stop := errors.New("disk full")
	_, err := Run(context.Background(), C, &parabola{V0: 1, K: 1}, Options{
		ScaleFactors: []float64{1, 1.01},
		OnPoint:      func(Sample, *crystal.Crystal) error { return stop },
	})
	assert.ErrorIs(Te, err, stop)
}
