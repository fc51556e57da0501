/*
 * calc.go, part of evscan.
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
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	crystal "github.com/rmera/evscan"
	v3 "github.com/rmera/evscan/v3"
)

// Calculator obtains the potential energy (and, optionally, the stress) of a crystal.
// Implementations must not modify the crystal they are given.
type Calculator interface {
	//Calculate returns the energy and whatever other properties the
	//calculator can obtain for the crystal C. Blocking operations should
	//be cancelled if ctx is done.
	Calculate(ctx context.Context, C *crystal.Crystal) (*Result, error)

	//Name returns a short identifier for the calculator, used in logs
	//and result metadata.
	Name() string
}

// Result contains the properties obtained by a Calculator for a crystal.
type Result struct {
	Energy float64    //total potential energy of the cell, in eV
	Stress []float64  //Voigt order xx yy zz yz xz xy, in eV/A^3, nil if not computed
	Forces *v3.Matrix //in eV/A, nil if not computed
}

// HasStress returns true if the result contains a stress tensor.
func (R *Result) HasStress() bool {
	return R != nil && len(R.Stress) == 6
}

// voigt turns a 3x3 tensor, given row by row, into its Voigt form.
func voigt(t []float64) []float64 {
	return []float64{t[0], t[4], t[8], t[5], t[2], t[1]}
}

// Error is the error type for calculator problems. It fulfills crystal.Error.
type Error struct {
	message  string
	program  string //the calculator involved
	input    string //the input file or structure description, if any.
	deco     []string
	critical bool
	err      error
}

func (err Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", err.program)
	if err.input != "" {
		fmt.Fprintf(&b, " (%s)", err.input)
	}
	fmt.Fprintf(&b, ": %s", err.message)
	if err.err != nil {
		fmt.Fprintf(&b, ": %v", err.err)
	}
	return b.String()
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// Critical returns whether the error is critical.
func (err Error) Critical() bool { return err.critical }

// Program returns the name of the calculator that produced the error.
func (err Error) Program() string { return err.program }

// Message returns the error message without program or input information.
// It is one of the Err* constants for errors produced by this package.
func (err Error) Message() string { return err.message }

// Unwrap returns the underlying error, if any.
func (err Error) Unwrap() error { return err.err }

const (
	ErrBadParams   = "Invalid calculator parameters"
	ErrCantInput   = "Can't build input"
	ErrNotRunning  = "Error running program"
	ErrNoEnergy    = "Can't obtain energy"
	ErrBadReply    = "Ill formed reply from program"
	ErrCalculation = "Calculation failed"
)

// searchBackwards searches a file backwards, i.e., starting from the end, for a string.
// Returns the last line that contains the string, or an empty string.
func searchBackwards(str, filename string) string {
	f, err := os.Open(filename)
	if err != nil {
		return ""
	}
	defer f.Close()
	var last string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := scanner.Text(); strings.Contains(line, str) {
			last = line
		}
	}
	return last
}
