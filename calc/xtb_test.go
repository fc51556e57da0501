/*
 * xtb_test.go, part of evscan.
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
	"os"
	"path/filepath"
	"strings"
	"testing"

	crystal "github.com/rmera/evscan"
	"github.com/rmera/evscan/build"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXTBBuildInput(Te *testing.T) {
	C, err := build.Bulk("Si", "diamond", 5.43)
	require.NoError(Te, err)
	dir := Te.TempDir()
	require.NoError(Te, NewXTB().BuildInput(dir, C))
	b, err := os.ReadFile(filepath.Join(dir, "coord"))
	require.NoError(Te, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(Te, lines, 9)
	assert.Equal(Te, "$coord", lines[0])
	assert.True(Te, strings.HasSuffix(lines[1], " si"))
	assert.Equal(Te, "$periodic 3", lines[3])
	assert.Equal(Te, "$lattice bohr", lines[4])
	assert.Equal(Te, "$end", lines[8])
	//second lattice vector of the primitive fcc cell is a/2 (1, 0, 1)
	f := strings.Fields(lines[6])
	require.Len(Te, f, 3)
	assert.Equal(Te, "0.00000000000000", f[1])
	assert.True(Te, strings.HasPrefix(f[0], "5.1306"), f[0])
}

func TestXTB(Te *testing.T) {
	C, err := build.Bulk("Si", "diamond", 5.43)
	require.NoError(Te, err)
	x := NewXTB()
	x.NCPU = 1
	x.WorkDir = Te.TempDir()
	x.Command = "sh " + script(Te, "fake_xtb.sh")
	res, err := x.Calculate(context.Background(), C)
	require.NoError(Te, err)
	assert.InDelta(Te, -0.5*crystal.Hartree2EV, res.Energy, 1e-9)
	assert.False(Te, res.HasStress())
	//the working directories are removed
	entries, err := os.ReadDir(x.WorkDir)
	require.NoError(Te, err)
	assert.Empty(Te, entries)

	x.Command = "sh " + script(Te, "fake_xtb_abnormal.sh")
	_, err = x.Calculate(context.Background(), C)
	require.Error(Te, err)
	assert.Contains(Te, err.Error(), "abnormal termination")

	x.Method = "gfn7"
	_, err = x.Calculate(context.Background(), C)
	require.Error(Te, err)
}

func TestXTBOptions(Te *testing.T) {
	x := &XTB{Method: "gfnff", Charge: 1, NCPU: 4}
	opts, err := x.options()
	require.NoError(Te, err)
	assert.Equal(Te, []string{"coord", "--sp", "--gfnff", "--chrg 1", "--uhf 0", "-P 4"}, opts)
	x.Method = "gfn1"
	x.NCPU = 1
	opts, err = x.options()
	require.NoError(Te, err)
	assert.Equal(Te, []string{"coord", "--sp", "--gfn 1", "--chrg 1", "--uhf 0"}, opts)
}
