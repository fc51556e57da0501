/*
 * main_test.go, part of evscan.
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

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunShouldExit(Te *testing.T) {
	for _, args := range [][]string{{"-h"}, {}} {
		out := &bytes.Buffer{}
		err := run(context.Background(), out, &bytes.Buffer{}, args)
		require.NoError(Te, err)
		assert.Contains(Te, out.String(), "Usage:")
	}
}

func TestRunUsageErrors(Te *testing.T) {
	tests := map[string][]string{
		"unknown flag":  {"--not-a-flag", "job.hcl"},
		"two jobs":      {"a.hcl", "b.hcl"},
		"bad log level": {"-log-level", "loud", filepath.Join("testdata", "lj.hcl")},
		"missing job":   {filepath.Join("testdata", "nonexistent.hcl")},
	}
	for name, args := range tests {
		err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, args)
		require.Error(Te, err, name)
		var exitErr *ExitError
		require.True(Te, errors.As(err, &exitErr), name)
		assert.Equal(Te, 2, exitErr.Code, name)
	}
}

func TestRun(Te *testing.T) {
	dir := Te.TempDir()
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}
	args := []string{"-o", dir, "-log-format", "json", "-results", "results.json", filepath.Join("testdata", "lj.hcl")}
	require.NoError(Te, run(context.Background(), out, logs, args))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(Te, lines, 6)
	assert.True(Te, strings.HasPrefix(lines[0], "#"))
	assert.Contains(Te, logs.String(), `"msg":"Scan done"`)

	data, err := os.ReadFile(filepath.Join(dir, "results.json"))
	require.NoError(Te, err)
	assert.Contains(Te, string(data), "energy-vs-volume")
	assert.Contains(Te, string(data), "crystal-structure-npt")
	_, err = os.Stat(filepath.Join(dir, "ev-6.svg"))
	assert.NoError(Te, err)
}

func TestRunCancelled(Te *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := run(ctx, &bytes.Buffer{}, &bytes.Buffer{}, []string{"-o", Te.TempDir(), "-q", filepath.Join("testdata", "lj.hcl")})
	require.Error(Te, err)
	assert.ErrorIs(Te, err, context.Canceled)
}
