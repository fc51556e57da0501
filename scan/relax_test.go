/*
 * relax_test.go, part of evscan.
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
	"testing"

	"github.com/rmera/evscan/build"
	"github.com/rmera/evscan/calc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A wurtzite cell with the internal parameter u away from its equilibrium value
// has forces along c, which the relaxation must remove without touching the cell.
func TestRelaxWurtzite(Te *testing.T) {
	C, err := build.Bulk("ZnO", "wurtzite", 1.8, build.U(0.42))
	require.NoError(Te, err)
	L := &calc.LennardJones{Epsilon: 1, Sigma: 1, Cutoff: 3, Shift: true}
	ctx := context.Background()
	start, err := L.Calculate(ctx, C)
	require.NoError(Te, err)
	require.Greater(Te, maxForce(start), 1e-2)

	relaxed := C.Copy()
	R := &Relax{ForceThreshold: 1e-3, MaxIterations: 500}
	res, stats, err := relax(ctx, relaxed, L, R)
	require.NoError(Te, err)
	assert.True(Te, stats.Converged, stats.String())
	assert.Less(Te, stats.MaxForce, 1e-3)
	assert.Less(Te, res.Energy, start.Energy)
	assert.Greater(Te, stats.Evaluations, 1)
	assert.True(Te, relaxed.Cell.Equal(C.Cell, 0), "the cell must not change")
	assert.False(Te, relaxed.Coords.Equal(C.Coords, 1e-6), "the atoms should have moved")

	//the result corresponds to the positions left in the crystal
	again, err := L.Calculate(ctx, relaxed)
	require.NoError(Te, err)
	assert.InDelta(Te, res.Energy, again.Energy, 1e-12)
}

func TestRunRelax(Te *testing.T) {
	C, err := build.Bulk("ZnO", "wurtzite", 1.8, build.U(0.42))
	require.NoError(Te, err)
	L := &calc.LennardJones{Epsilon: 1, Sigma: 1, Cutoff: 2.5, Shift: true}
	factors := []float64{0.98, 1, 1.02}
	plain, err := Run(context.Background(), C, L, Options{ScaleFactors: factors})
	require.NoError(Te, err)
	relaxed, err := Run(context.Background(), C, L, Options{ScaleFactors: factors, Relax: &Relax{}})
	require.NoError(Te, err)
	require.Len(Te, relaxed.Samples, 3)
	for i, s := range relaxed.Samples {
		require.NotNil(Te, s.Relaxation)
		assert.Equal(Te, plain.Samples[i].Volume, s.Volume)
		assert.Less(Te, s.Energy, plain.Samples[i].Energy)
		assert.Nil(Te, plain.Samples[i].Relaxation)
	}
}

func TestRunRelaxWithoutForces(Te *testing.T) {
	C := zincblende(Te)
	p := &parabola{V0: C.Volume(), K: 0.1}
	_, err := Run(context.Background(), C, p, Options{ScaleFactors: []float64{0.99, 1}, Tolerant: true, Relax: &Relax{}})
	require.Error(Te, err)
	assert.ErrorIs(Te, err, ErrNoForces)
	assert.Equal(Te, 1, p.calls)
}
