/*
 * xtb.go, part of evscan.
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
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	crystal "github.com/rmera/evscan"
)

// XTB runs single point calculations with the xtb program, using periodic
// boundary conditions. The coordinates are given to xtb in the Turbomole
// coord format, which is the one xtb reads lattice vectors from.
// Note that the default method is NOT considered part of the API, so it can change.
type XTB struct {
	Command   string //the xtb executable, it can contain arguments that go before the rest
	Method    string //gfn0, gfn1, gfn2 or gfnff
	NCPU      int
	Charge    int
	UHF       int    //number of unpaired electrons
	KeepFiles bool   //don't remove the working directory of each calculation
	WorkDir   string //where the working directories are created, the system temp dir if empty
}

// NewXTB returns an XTB calculator with the default settings.
func NewXTB() *XTB {
	O := new(XTB)
	O.SetDefaults()
	return O
}

// SetDefaults sets the default command, method and number of CPUs.
func (O *XTB) SetDefaults() {
	O.Command = "xtb"
	O.Method = "gfn2"
	O.NCPU = runtime.NumCPU() / 2
}

// Name returns "xtb".
func (O *XTB) Name() string { return "xtb" }

func (O *XTB) options() ([]string, error) {
	opts := []string{"coord", "--sp"}
	switch O.Method {
	case "gfnff":
		opts = append(opts, "--gfnff")
	case "gfn0", "gfn1", "gfn2":
		opts = append(opts, "--gfn "+strings.TrimPrefix(O.Method, "gfn"))
	case "":
		opts = append(opts, "--gfn 2") //default method
	default:
		return nil, Error{fmt.Sprintf("%s: unknown method %q", ErrBadParams, O.Method), O.Name(), "", []string{"options"}, true, nil}
	}
	opts = append(opts, fmt.Sprintf("--chrg %d", O.Charge))
	opts = append(opts, fmt.Sprintf("--uhf %d", O.UHF))
	if O.NCPU > 1 {
		opts = append(opts, fmt.Sprintf("-P %d", O.NCPU))
	}
	return opts, nil
}

// BuildInput writes the coord file for C in the directory dir.
func (O *XTB) BuildInput(dir string, C *crystal.Crystal) error {
	if err := C.Validate(); err != nil {
		return Error{ErrCantInput, O.Name(), "", []string{"BuildInput"}, true, err}
	}
	f, err := os.Create(filepath.Join(dir, "coord"))
	if err != nil {
		return Error{ErrCantInput, O.Name(), dir, []string{"os.Create", "BuildInput"}, true, err}
	}
	defer f.Close()
	var b strings.Builder
	b.WriteString("$coord\n")
	for i := 0; i < C.Len(); i++ {
		r := C.Coords.Vec(i)
		fmt.Fprintf(&b, "%20.14f %20.14f %20.14f %s\n", r[0]*crystal.A2Bohr, r[1]*crystal.A2Bohr, r[2]*crystal.A2Bohr, strings.ToLower(C.Atom(i).Symbol))
	}
	b.WriteString("$periodic 3\n$lattice bohr\n")
	for i := 0; i < 3; i++ {
		v := C.Cell.Vec(i)
		fmt.Fprintf(&b, "%20.14f %20.14f %20.14f\n", v[0]*crystal.A2Bohr, v[1]*crystal.A2Bohr, v[2]*crystal.A2Bohr)
	}
	b.WriteString("$end\n")
	if _, err := f.WriteString(b.String()); err != nil {
		return Error{ErrCantInput, O.Name(), dir, []string{"WriteString", "BuildInput"}, true, err}
	}
	return nil
}

// Calculate runs a single point xtb calculation for C in a new working
// directory, and returns its energy in eV.
func (O *XTB) Calculate(ctx context.Context, C *crystal.Crystal) (*Result, error) {
	opts, err := O.options()
	if err != nil {
		return nil, err
	}
	dir, err := os.MkdirTemp(O.WorkDir, "evscan-xtb-")
	if err != nil {
		return nil, Error{ErrCantInput, O.Name(), "", []string{"os.MkdirTemp", "Calculate"}, true, err}
	}
	if !O.KeepFiles {
		defer os.RemoveAll(dir)
	}
	if err := O.BuildInput(dir, C); err != nil {
		return nil, err
	}
	command := O.Command
	if command == "" {
		command = "xtb"
	}
	com := fmt.Sprintf("%s %s > xtb.out 2>&1", command, strings.Join(opts, " "))
	run := exec.CommandContext(ctx, "sh", "-c", com)
	run.Dir = dir
	if err := run.Run(); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, Error{ErrNotRunning, O.Name(), dir, []string{"exec.Run", "Calculate"}, true, err}
	}
	out := filepath.Join(dir, "xtb.out")
	if !normalTermination(out) {
		return nil, Error{ErrCalculation + ": abnormal termination of xtb", O.Name(), dir, []string{"Calculate"}, true, nil}
	}
	energy, err := xtbEnergy(out)
	if err != nil {
		return nil, err
	}
	return &Result{Energy: energy}, nil
}

// normalTermination checks that an xtb calculation has terminated normally.
func normalTermination(out string) bool {
	return searchBackwards("abnormal termination of x", out) == ""
}

// xtbEnergy reads the total energy from an xtb output, and returns it in eV.
// The line looks like:
//
//	| TOTAL ENERGY              -5.070544440612 Eh   |
func xtbEnergy(out string) (float64, error) {
	energyline := searchBackwards("TOTAL ENERGY", out)
	if energyline == "" {
		return 0, Error{ErrNoEnergy, xtbName, out, []string{"searchBackwards", "xtbEnergy"}, true, nil}
	}
	split := strings.Fields(energyline)
	for i, v := range split {
		if v != "ENERGY" || i+1 >= len(split) {
			continue
		}
		energy, err := strconv.ParseFloat(split[i+1], 64)
		if err != nil {
			return 0, Error{ErrNoEnergy, xtbName, out, []string{"strconv.ParseFloat", "xtbEnergy"}, true, err}
		}
		return energy * crystal.Hartree2EV, nil
	}
	return 0, Error{ErrNoEnergy, xtbName, out, []string{"xtbEnergy"}, true, nil}
}

// program name used in xtb errors
const xtbName = "xtb"
