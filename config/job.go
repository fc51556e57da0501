/*
 * job.go, part of evscan.
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

// Package config loads evscan jobs from HCL files, and the runtime settings
// from a settings file and the environment.
//
// A job file looks like:
//
//	structure {
//	  bulk {
//	    name    = "ZnS"
//	    crystal = "zincblende"
//	    a       = 5.4093
//	  }
//	  prototype_label = "AB_cF8_216_a_c"
//	}
//
//	calculator "command" {
//	  path = "python3"
//	  args = ["kim_calc.py", env.KIM_MODEL]
//	}
//
//	scan {
//	  max_volume_scale = 0.1
//	  num_steps        = 5
//	}
//
//	output {
//	  dir  = "output"
//	  plot = "ev.png"
//	}
//
// Environment variables are available in expressions as env.NAME.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	crystal "github.com/rmera/evscan"
	"github.com/rmera/evscan/build"
	"github.com/rmera/evscan/calc"
	"github.com/rmera/evscan/driver"
	"github.com/rmera/evscan/scan"
	"github.com/zclconf/go-cty/cty"
)

// Job is an evscan job, as read from an HCL file.
type Job struct {
	Structure  *Structure  `hcl:"structure,block"`
	Calculator *Calculator `hcl:"calculator,block"`
	Scan       *Scan       `hcl:"scan,block"`
	Output     *Output     `hcl:"output,block"`

	filename string
	dir      string //relative paths in the job are relative to this directory.
	ctx      *hcl.EvalContext
}

// Structure is the structure block. Either File or Bulk must be given.
type Structure struct {
	File           string `hcl:"file,optional"`
	Format         string `hcl:"format,optional"` //xyz or json, guessed from the extension if empty
	PrototypeLabel string `hcl:"prototype_label,optional"`
	ShortName      string `hcl:"short_name,optional"`
	Bulk           *Bulk  `hcl:"bulk,block"`
}

// Bulk builds the structure from a prototype.
type Bulk struct {
	Name    string  `hcl:"name"`
	Crystal string  `hcl:"crystal"`
	A       float64 `hcl:"a"`
	CoverA  float64 `hcl:"covera,optional"`
	U       float64 `hcl:"u,optional"`
	Cubic   bool    `hcl:"cubic,optional"`
}

// Calculator is the calculator block. Its body depends on the Type label and is decoded
// by NewCalculator.
type Calculator struct {
	Type string   `hcl:"type,label"`
	Body hcl.Body `hcl:",remain"`
}

// LJ is the body of a calculator "lj" block.
type LJ struct {
	Epsilon float64  `hcl:"epsilon"`
	Sigma   float64  `hcl:"sigma"`
	Cutoff  *float64 `hcl:"cutoff,optional"`
	Shift   bool     `hcl:"shift,optional"`
}

// Command is the body of a calculator "command" block.
type Command struct {
	Path   string            `hcl:"path"`
	Args   []string          `hcl:"args,optional"`
	Dir    string            `hcl:"dir,optional"`
	Env    map[string]string `hcl:"env,optional"`
	Stress bool              `hcl:"stress,optional"`
}

// XTB is the body of a calculator "xtb" block.
type XTB struct {
	Command   string `hcl:"command,optional"`
	Method    string `hcl:"method,optional"`
	CPUs      int    `hcl:"cpus,optional"`
	Charge    int    `hcl:"charge,optional"`
	UHF       int    `hcl:"uhf,optional"`
	KeepFiles bool   `hcl:"keep_files,optional"`
	WorkDir   string `hcl:"work_dir,optional"`
}

// Scan is the scan block.
type Scan struct {
	MaxVolumeScale float64   `hcl:"max_volume_scale,optional"`
	NumSteps       int       `hcl:"num_steps,optional"`
	ScaleFactors   []float64 `hcl:"scale_factors,optional"`
	Tolerant       bool      `hcl:"tolerant,optional"`
	Temperature    float64   `hcl:"temperature,optional"`
	Stress         []float64 `hcl:"stress,optional"`
	Relax          *Relax    `hcl:"relax,block"`
}

// Relax is the relax block in the scan block. Its presence turns on the relaxation
// of the atomic positions, at fixed cell, for each deformed crystal.
type Relax struct {
	ForceThreshold float64 `hcl:"force_threshold,optional"`
	MaxIterations  int     `hcl:"max_iterations,optional"`
}

// Output is the output block.
type Output struct {
	Dir        string `hcl:"dir,optional"`
	Results    string `hcl:"results,optional"`
	Trajectory string `hcl:"trajectory,optional"`
	Plot       string `hcl:"plot,optional"`
	NPT        bool   `hcl:"npt,optional"`
}

// evalContext returns the context for the expressions in job files, with
// the environment variables in the env object.
func evalContext() *hcl.EvalContext {
	env := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !hclsyntaxIdent(k) {
			continue
		}
		env[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{Variables: map[string]cty.Value{"env": cty.ObjectVal(env)}}
}

// hclsyntaxIdent returns true if s can be used as an attribute name.
func hclsyntaxIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}

// LoadJob reads and decodes the job file path.
func LoadJob(path string) (*Job, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file %s: %w", path, err)
	}
	J, err := ParseJob(src, path)
	if err != nil {
		return nil, err
	}
	J.dir = filepath.Dir(path)
	return J, nil
}

// ParseJob decodes a job from src. filename is used in error messages. Relative paths
// in the job, and the working directory of command calculators, are taken as relative
// to the current directory.
func ParseJob(src []byte, filename string) (*Job, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	J := &Job{filename: filename, dir: ".", ctx: evalContext()}
	diags = gohcl.DecodeBody(file.Body, J.ctx, J)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	if err := J.validate(); err != nil {
		return nil, fmt.Errorf("invalid job file %s: %w", filename, err)
	}
	return J, nil
}

func (J *Job) validate() error {
	if J.Structure == nil {
		return fmt.Errorf("no structure block")
	}
	if (J.Structure.File == "") == (J.Structure.Bulk == nil) {
		return fmt.Errorf("the structure block needs either a file or a bulk block")
	}
	if J.Calculator == nil {
		return fmt.Errorf("no calculator block")
	}
	switch J.Calculator.Type {
	case "lj", "command", "xtb":
	default:
		return fmt.Errorf("unknown calculator %q", J.Calculator.Type)
	}
	return nil
}

func (J *Job) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(J.dir, p)
}

// Crystal returns the structure described by the job.
func (J *Job) Crystal() (*crystal.Crystal, error) {
	S := J.Structure
	var C *crystal.Crystal
	var err error
	if S.Bulk != nil {
		var opts []build.Option
		if S.Bulk.CoverA != 0 {
			opts = append(opts, build.CoverA(S.Bulk.CoverA))
		}
		if S.Bulk.U != 0 {
			opts = append(opts, build.U(S.Bulk.U))
		}
		if S.Bulk.Cubic {
			opts = append(opts, build.Cubic())
		}
		C, err = build.Bulk(S.Bulk.Name, S.Bulk.Crystal, S.Bulk.A, opts...)
	} else {
		C, err = crystal.FileRead(J.path(S.File), S.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", J.filename, err)
	}
	if C.Info == nil {
		C.Info = make(map[string]string)
	}
	if S.PrototypeLabel != "" {
		C.Info["prototype_label"] = S.PrototypeLabel
	}
	if S.ShortName != "" {
		C.Info["short_name"] = S.ShortName
	}
	return C, nil
}

// NewCalculator returns the calculator described by the job. Settings can be nil.
func (J *Job) NewCalculator(settings *Settings) (calc.Calculator, error) {
	body := J.Calculator.Body
	var diags hcl.Diagnostics
	switch J.Calculator.Type {
	case "lj":
		var b LJ
		if diags = gohcl.DecodeBody(body, J.ctx, &b); diags.HasErrors() {
			break
		}
		L := calc.NewLennardJones(b.Epsilon, b.Sigma)
		if b.Cutoff != nil {
			L.Cutoff = *b.Cutoff
		}
		L.Shift = b.Shift
		return L, nil
	case "command":
		var b Command
		if diags = gohcl.DecodeBody(body, J.ctx, &b); diags.HasErrors() {
			break
		}
		C := calc.NewCommand(b.Path, b.Args...)
		C.Dir = J.dir
		if b.Dir != "" {
			C.Dir = J.path(b.Dir)
		}
		C.Stress = b.Stress
		for k, v := range b.Env {
			C.Env = append(C.Env, k+"="+v)
		}
		return C, nil
	case "xtb":
		var b XTB
		if diags = gohcl.DecodeBody(body, J.ctx, &b); diags.HasErrors() {
			break
		}
		X := calc.NewXTB()
		switch {
		case b.Command != "":
			X.Command = b.Command
		case settings != nil && settings.XTBCommand != "":
			X.Command = settings.XTBCommand
		}
		if b.Method != "" {
			X.Method = b.Method
		}
		if b.CPUs > 0 {
			X.NCPU = b.CPUs
		}
		X.Charge, X.UHF, X.KeepFiles, X.WorkDir = b.Charge, b.UHF, b.KeepFiles, J.path(b.WorkDir)
		return X, nil
	default:
		return nil, fmt.Errorf("job %s: unknown calculator %q", J.filename, J.Calculator.Type)
	}
	return nil, fmt.Errorf("failed to decode calculator %q in %s: %w", J.Calculator.Type, J.filename, diags)
}

// Params returns the scan parameters of the job.
func (J *Job) Params() driver.Params {
	if J.Scan == nil {
		return driver.Params{}
	}
	S := J.Scan
	P := driver.Params{
		MaxVolumeScale: S.MaxVolumeScale,
		NumSteps:       S.NumSteps,
		ScaleFactors:   S.ScaleFactors,
		Tolerant:       S.Tolerant,
		Temperature:    S.Temperature,
		Stress:         S.Stress,
	}
	if S.Relax != nil {
		P.Relax = &scan.Relax{ForceThreshold: S.Relax.ForceThreshold, MaxIterations: S.Relax.MaxIterations}
	}
	return P
}

// OutputOptions returns the output block of the job, with the defaults filled in.
func (J *Job) OutputOptions() Output {
	var O Output
	if J.Output != nil {
		O = *J.Output
	}
	if O.Dir == "" {
		O.Dir = "output"
	}
	O.Dir = J.path(O.Dir)
	if O.Results == "" {
		O.Results = driver.DefaultResults
	}
	return O
}
