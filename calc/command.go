/*
 * command.go, part of evscan.
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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	crystal "github.com/rmera/evscan"
	v3 "github.com/rmera/evscan/v3"
)

//The protocol: for each structure, the program is started, and a Request is written, as
//JSON, to its standard input. The program must write a Reply, as JSON, to its standard output
//and exit with status 0. A program that fails to compute the energy should still exit with 0
//and set the "error" field, so the problem is reported. A typical program is a short Python
//script that builds an ase.Atoms from the request and calls get_potential_energy() on it.

// Request is the message sent to an external calculator.
type Request struct {
	Structure  *crystal.Crystal `json:"structure"`
	Properties []string         `json:"properties"` //"energy", and optionally "stress"
}

// Reply is the message expected from an external calculator. Stress can be given
// in Voigt form (6 elements) or as a full 3x3 tensor (9 elements, row by row).
type Reply struct {
	Energy *float64     `json:"energy"`
	Stress []float64    `json:"stress,omitempty"`
	Forces [][3]float64 `json:"forces,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// Command is a calculator that runs an external program for each structure,
// exchanging JSON through the program's standard input and output.
type Command struct {
	Path   string   //the program to run
	Args   []string //its arguments
	Dir    string   //the working directory, the current one if empty
	Env    []string //extra environment variables, "KEY=value"
	Stress bool     //ask the program for the stress too
}

// NewCommand returns a Command calculator for the program path with the given arguments.
func NewCommand(path string, args ...string) *Command {
	return &Command{Path: path, Args: args}
}

// Name returns the base name of the program.
func (O *Command) Name() string {
	if O.Path == "" {
		return "command"
	}
	return filepath.Base(O.Path)
}

// Calculate runs the program on the crystal C and returns the energy and, if
// given by the program, the stress and forces.
func (O *Command) Calculate(ctx context.Context, C *crystal.Crystal) (*Result, error) {
	if O.Path == "" {
		return nil, Error{ErrBadParams + ": no program given", O.Name(), "", []string{"Calculate"}, true, nil}
	}
	req := Request{Structure: C, Properties: []string{"energy"}}
	if O.Stress {
		req.Properties = append(req.Properties, "stress")
	}
	in, err := json.Marshal(req)
	if err != nil {
		return nil, Error{ErrCantInput, O.Name(), C.Formula(), []string{"json.Marshal", "Calculate"}, true, err}
	}
	command := exec.CommandContext(ctx, O.Path, O.Args...)
	command.Dir = O.Dir
	if len(O.Env) > 0 {
		command.Env = append(os.Environ(), O.Env...)
	}
	var stdout, stderr bytes.Buffer
	command.Stdin = bytes.NewReader(in)
	command.Stdout = &stdout
	command.Stderr = &stderr
	if err := command.Run(); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, Error{fmt.Sprintf("%s: %s", ErrNotRunning, tail(stderr.String(), 5)), O.Name(), C.Formula(), []string{"exec.Run", "Calculate"}, true, err}
	}
	return parseReply(stdout.Bytes(), C.Len(), O.Name(), C.Formula())
}

func parseReply(out []byte, natoms int, program, input string) (*Result, error) {
	var rep Reply
	if err := json.Unmarshal(out, &rep); err != nil {
		return nil, Error{ErrBadReply, program, input, []string{"json.Unmarshal", "parseReply"}, true, err}
	}
	if rep.Error != "" {
		return nil, Error{fmt.Sprintf("%s: %s", ErrCalculation, rep.Error), program, input, []string{"parseReply"}, true, nil}
	}
	if rep.Energy == nil {
		return nil, Error{ErrNoEnergy, program, input, []string{"parseReply"}, true, nil}
	}
	res := &Result{Energy: *rep.Energy}
	switch len(rep.Stress) {
	case 0:
	case 6:
		res.Stress = rep.Stress
	case 9:
		res.Stress = voigt(rep.Stress)
	default:
		return nil, Error{fmt.Sprintf("%s: stress with %d components", ErrBadReply, len(rep.Stress)), program, input, []string{"parseReply"}, true, nil}
	}
	if len(rep.Forces) > 0 {
		if len(rep.Forces) != natoms {
			return nil, Error{fmt.Sprintf("%s: %d forces for %d atoms", ErrBadReply, len(rep.Forces), natoms), program, input, []string{"parseReply"}, true, nil}
		}
		res.Forces = v3.Zeros(natoms)
		for i, f := range rep.Forces {
			res.Forces.SetVec(i, f)
		}
	}
	return res, nil
}

// tail returns the last n lines of s.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "; ")
}
