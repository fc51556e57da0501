/*
 * v3_test.go, part of evscan.
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

package v3

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMatrix(Te *testing.T) {
	A, err := NewMatrix([]float64{1, 2, 3, 4, 5, 6})
	require.NoError(Te, err)
	assert.Equal(Te, 2, A.NVecs())
	assert.Equal(Te, [3]float64{4, 5, 6}, A.Vec(1))

	_, err = NewMatrix([]float64{1, 2})
	require.Error(Te, err)
	_, err = NewMatrix(nil)
	require.Error(Te, err)
}

func TestViewsShareData(Te *testing.T) {
	A := Zeros(3)
	v := A.VecView(1)
	v.Set(0, 2, 7)
	assert.Equal(Te, 7.0, A.At(1, 2))
	A.SetVec(2, [3]float64{1, 1, 1})
	assert.Equal(Te, [3]float64{1, 1, 1}, A.Vec(2))
}

func TestGeometry(Te *testing.T) {
	cell, err := NewMatrix([]float64{
		2, 0, 0,
		0, 3, 0,
		0, 0, 4,
	})
	require.NoError(Te, err)
	assert.InDelta(Te, 24.0, cell.Det(), 1e-12)
	assert.InDelta(Te, 3.0, cell.Norm(1), 1e-12)
	assert.InDelta(Te, math.Pi/2, cell.Angle(0, 2), 1e-12)
	assert.Equal(Te, [3]float64{0, 0, 6}, cell.Cross(0, 1))

	B := cell.Copy()
	B.ScaleInPlace(2)
	assert.InDelta(Te, 192.0, B.Det(), 1e-9)
	assert.False(Te, cell.Equal(B, 1e-9))
	assert.InDelta(Te, 24.0, cell.Det(), 1e-12, "the copy must not alias the original")
}

func TestDetPanicsOnWrongShape(Te *testing.T) {
	A := Zeros(2)
	assert.Panics(Te, func() { A.Det() })
}
