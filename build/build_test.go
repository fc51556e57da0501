/*
 * build_test.go, part of evscan.
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

package build

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkVolumes(Te *testing.T) {
	const a = 4.0
	hcpc := a * math.Sqrt(8.0/3.0)
	cases := []struct {
		name, structure string
		opts            []Option
		natoms          int
		volume          float64
		formula         string
	}{
		{"Po", "sc", nil, 1, a * a * a, "Po"},
		{"Cu", "fcc", nil, 1, a * a * a / 4, "Cu"},
		{"Cu", "fcc", []Option{Cubic()}, 4, a * a * a, "Cu"},
		{"Fe", "bcc", nil, 1, a * a * a / 2, "Fe"},
		{"Fe", "bcc", []Option{Cubic()}, 2, a * a * a, "Fe"},
		{"Si", "diamond", nil, 2, a * a * a / 4, "Si"},
		{"Si", "diamond", []Option{Cubic()}, 8, a * a * a, "Si"},
		{"ZnS", "zincblende", nil, 2, a * a * a / 4, "SZn"},
		{"NaCl", "rocksalt", nil, 2, a * a * a / 4, "ClNa"},
		{"NaCl", "rocksalt", []Option{Cubic()}, 8, a * a * a, "ClNa"},
		{"CsCl", "cesiumchloride", nil, 2, a * a * a, "ClCs"},
		{"CaF2", "fluorite", nil, 3, a * a * a / 4, "CaF2"},
		{"CaF2", "fluorite", []Option{Cubic()}, 12, a * a * a, "CaF2"},
		{"Mg", "hcp", nil, 2, a * a * math.Sqrt(3) / 2 * hcpc, "Mg"},
		{"ZnO", "wurtzite", nil, 4, a * a * math.Sqrt(3) / 2 * hcpc, "OZn"},
		{"ZnO", "wurtzite", []Option{CoverA(1.6)}, 4, a * a * math.Sqrt(3) / 2 * a * 1.6, "OZn"},
	}
	for _, c := range cases {
		C, err := Bulk(c.name, c.structure, a, c.opts...)
		require.NoError(Te, err, "%s %s", c.name, c.structure)
		assert.Equal(Te, c.natoms, C.Len(), "%s %s", c.name, c.structure)
		assert.InDelta(Te, c.volume, C.Volume(), 1e-9, "%s %s", c.name, c.structure)
		assert.Equal(Te, c.formula, C.Formula(), "%s %s", c.name, c.structure)
	}
}

func TestZincblendeNearestNeighbour(Te *testing.T) {
	const a = 5.4093
	C, err := Bulk("ZnS", "zincblende", a)
	require.NoError(Te, err)
	zn := C.Coords.Vec(0)
	s := C.Coords.Vec(1)
	d := math.Sqrt((s[0]-zn[0])*(s[0]-zn[0]) + (s[1]-zn[1])*(s[1]-zn[1]) + (s[2]-zn[2])*(s[2]-zn[2]))
	assert.InDelta(Te, a*math.Sqrt(3)/4, d, 1e-12)
	assert.Equal(Te, []string{"Zn", "S"}, C.Symbols())
}

func TestBulkErrors(Te *testing.T) {
	_, err := Bulk("Cu", "fcc", 0)
	require.Error(Te, err)
	_, err = Bulk("Cu", "perovskite", 4)
	require.Error(Te, err)
	_, err = Bulk("ZnS", "fcc", 4)
	require.Error(Te, err)
	_, err = Bulk("CaF2", "rocksalt", 4)
	require.Error(Te, err)
	_, err = Bulk("Mg", "hcp", 3, Cubic())
	require.Error(Te, err)
	_, err = Bulk("Xx", "fcc", 3)
	require.Error(Te, err)
}

func TestParseFormula(Te *testing.T) {
	got, err := ParseFormula("CaF2")
	require.NoError(Te, err)
	want := []Element{{"Ca", 1}, {"F", 2}}
	if diff := cmp.Diff(want, got); diff != "" {
		Te.Errorf("ParseFormula mismatch (-want +got):\n%s", diff)
	}
	for _, bad := range []string{"", "caF", "NaNa", "Na0", "Zz"} {
		_, err := ParseFormula(bad)
		assert.Error(Te, err, bad)
	}
}
