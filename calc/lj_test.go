/*
 * lj_test.go, part of evscan.
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

package calc

import (
	"context"
	"errors"
	"math"
	"testing"

	crystal "github.com/rmera/evscan"
	"github.com/rmera/evscan/build"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lj(r float64) float64 {
	return 4 * (math.Pow(r, -12) - math.Pow(r, -6))
}

func ljPrime(r float64) float64 {
	return -24 * (2*math.Pow(r, -13) - math.Pow(r, -7))
}

// With a cutoff between the first and second shells of a simple cubic lattice,
// only the 6 nearest neighbours contribute.
func TestLennardJonesSimpleCubic(Te *testing.T) {
	const a = 1.2
	C, err := build.Bulk("Ar", "sc", a)
	require.NoError(Te, err)
	L := &LennardJones{Epsilon: 1, Sigma: 1, Cutoff: 1.3}
	res, err := L.Calculate(context.Background(), C)
	require.NoError(Te, err)
	assert.InDelta(Te, 3*lj(a), res.Energy, 1e-12)
	require.True(Te, res.HasStress())
	for k := 0; k < 3; k++ {
		assert.InDelta(Te, ljPrime(a)/(a*a), res.Stress[k], 1e-10)
		assert.InDelta(Te, 0.0, res.Stress[k+3], 1e-10)
	}
	f := res.Forces.Vec(0)
	for _, v := range f {
		assert.InDelta(Te, 0.0, v, 1e-10)
	}
	//a is beyond the minimum of the potential, so the crystal is under tension.
	assert.Greater(Te, res.Stress[0], 0.0)

	L.Shift = true
	shifted, err := L.Calculate(context.Background(), C)
	require.NoError(Te, err)
	assert.InDelta(Te, 3*(lj(a)-lj(1.3)), shifted.Energy, 1e-12)
}

// The trace of the stress must agree with the derivative of the energy with respect to
// the volume, dE/dV = tr(stress)/3.
func TestLennardJonesStressMatchesEnergy(Te *testing.T) {
	C, err := build.Bulk("Ar", "fcc", 1.6, build.Cubic())
	require.NoError(Te, err)
	L := &LennardJones{Epsilon: 0.0104, Sigma: 1, Cutoff: 2.5, Shift: true}
	ctx := context.Background()
	res, err := L.Calculate(ctx, C)
	require.NoError(Te, err)
	const h = 1e-5
	plus, err := C.ScaledCopy(1 + h)
	require.NoError(Te, err)
	minus, err := C.ScaledCopy(1 - h)
	require.NoError(Te, err)
	ep, err := L.Calculate(ctx, plus)
	require.NoError(Te, err)
	em, err := L.Calculate(ctx, minus)
	require.NoError(Te, err)
	dEdV := (ep.Energy - em.Energy) / (plus.Volume() - minus.Volume())
	trace := (res.Stress[0] + res.Stress[1] + res.Stress[2]) / 3
	assert.InEpsilon(Te, dEdV, trace, 1e-5)
	//a perfect fcc lattice has no forces on the atoms.
	for i := 0; i < C.Len(); i++ {
		for _, v := range res.Forces.Vec(i) {
			assert.InDelta(Te, 0.0, v, 1e-10)
		}
	}
}

func TestLennardJonesErrors(Te *testing.T) {
	C, err := build.Bulk("Ar", "sc", 1.2)
	require.NoError(Te, err)
	_, err = (&LennardJones{Epsilon: 1, Sigma: 0, Cutoff: 3}).Calculate(context.Background(), C)
	require.Error(Te, err)
	var e Error
	require.True(Te, errors.As(err, &e))
	assert.Equal(Te, "lj", e.Program())
	assert.Contains(Te, e.Message(), ErrBadParams)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewLennardJones(1, 1).Calculate(ctx, C)
	require.Error(Te, err)
	assert.True(Te, errors.Is(err, context.Canceled))

	_, err = NewLennardJones(1, 1).Calculate(context.Background(), &crystal.Crystal{})
	require.Error(Te, err)
}

// Moving an atom by lattice vectors gives the same crystal, so nothing may change.
func TestLennardJonesUnwrappedPositions(Te *testing.T) {
	C, err := build.Bulk("Ar", "fcc", 1.6, build.Cubic())
	require.NoError(Te, err)
	//break the symmetry a bit, so the forces are not all zero
	r := C.Coords.Vec(2)
	r[0] += 0.05
	C.Coords.SetVec(2, r)
	L := &LennardJones{Epsilon: 1, Sigma: 1, Cutoff: 2.5}
	ref, err := L.Calculate(context.Background(), C)
	require.NoError(Te, err)

	moved := C.Copy()
	a, c := moved.Cell.Vec(0), moved.Cell.Vec(2)
	r = moved.Coords.Vec(1)
	for k := range r {
		r[k] += 2*a[k] - c[k]
	}
	moved.Coords.SetVec(1, r)
	res, err := L.Calculate(context.Background(), moved)
	require.NoError(Te, err)
	assert.InDelta(Te, ref.Energy, res.Energy, 1e-9)
	assert.InDeltaSlice(Te, ref.Stress, res.Stress, 1e-9)
	for i := 0; i < C.Len(); i++ {
		want, got := ref.Forces.Vec(i), res.Forces.Vec(i)
		assert.InDeltaSlice(Te, want[:], got[:], 1e-9)
	}
	assert.NotZero(Te, ref.Forces.Vec(2)[0])
}
