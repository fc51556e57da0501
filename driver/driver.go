/*
 * driver.go, part of evscan.
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

// Package driver runs energy-volume scans and turns them into property
// instances, which accumulate across runs until they are written.
package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	crystal "github.com/rmera/evscan"
	"github.com/rmera/evscan/calc"
	"github.com/rmera/evscan/ctxlog"
	"github.com/rmera/evscan/evplot"
	"github.com/rmera/evscan/property"
	"github.com/rmera/evscan/scan"
	"github.com/rmera/evscan/traj/stf"
)

// Defaults for the scan parameters.
const (
	DefaultMaxVolumeScale = 1e-2
	DefaultNumSteps       = 10
	DefaultResults        = "results.edn"
)

// Keys for the files attached to energy-vs-volume instances.
const (
	PlotKey       = "energy-vs-volume-plot"
	TrajectoryKey = "deformed-cells-trajectory"
)

// Params are the parameters of a single run.
type Params struct {
	MaxVolumeScale float64     //largest fractional change in volume, DefaultMaxVolumeScale if 0
	NumSteps       int         //steps in each direction, DefaultNumSteps if 0
	ScaleFactors   []float64   //if not nil, used instead of MaxVolumeScale and NumSteps
	Tolerant       bool        //skip points that fail instead of aborting
	Temperature    float64     //nominal temperature, K
	Stress         []float64   //nominal Cauchy stress, Voigt, eV/A^3. nil means zero
	Relax          *scan.Relax //relax the positions of each deformed cell, nil for no relaxation
}

// Factors returns the volume scale factors for the parameters.
func (P Params) Factors() ([]float64, error) {
	if P.ScaleFactors != nil {
		return P.ScaleFactors, nil
	}
	max, n := P.MaxVolumeScale, P.NumSteps
	if max == 0 {
		max = DefaultMaxVolumeScale
	}
	if n == 0 {
		n = DefaultNumSteps
	}
	return scan.ScaleFactors(max, n)
}

// Driver runs scans with a calculator and collects the resulting property instances.
type Driver struct {
	Calculator calc.Calculator
	Collection *property.Collection
	Meta       property.Meta //description of the nominal structures, can be empty
	OutputDir  string
	Trajectory string //file name for the trajectory of deformed cells, no trajectory if empty
	Plot       string //file name for the plot of the curve, no plot if empty
	WriteNPT   bool   //write a crystal-structure-npt instance for each sample with stress
}

// New returns a driver using c, which writes its outputs in outputDir.
func New(c calc.Calculator, outputDir string) *Driver {
	if outputDir == "" {
		outputDir = "output"
	}
	return &Driver{Calculator: c, Collection: property.NewCollection(outputDir), OutputDir: outputDir}
}

// frame is a successfully evaluated point, with its deformed crystal.
type frame struct {
	sample scan.Sample
	cell   *crystal.Crystal
}

// Run scans the crystal C and returns the property instances computed in this call. They
// are also added to the collection of the driver. Nothing is written to the output
// directory unless the scan succeeds.
func (D *Driver) Run(ctx context.Context, C *crystal.Crystal, params Params) ([]*property.Instance, error) {
	if D.Calculator == nil {
		return nil, errors.New("driver: no calculator")
	}
	if D.Collection == nil {
		D.Collection = property.NewCollection(D.OutputDir)
	}
	factors, err := params.Factors()
	if err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}
	log := ctxlog.FromContext(ctx)
	meta := D.Meta
	meta.Temperature = params.Temperature
	meta.Stress = params.Stress
	var frames []frame
	opts := scan.Options{ScaleFactors: factors, Tolerant: params.Tolerant, Relax: params.Relax}
	opts.OnPoint = func(s scan.Sample, deformed *crystal.Crystal) error {
		frames = append(frames, frame{s, deformed})
		return nil
	}
	curve, err := scan.Run(ctx, C, D.Calculator, opts)
	if err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}
	if err := os.MkdirAll(D.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("driver: creating output directory: %w", err)
	}
	var trajPath string
	if D.Trajectory != "" {
		trajPath = filepath.Join(D.OutputDir, D.Trajectory)
		if err := writeTrajectory(trajPath, C, frames); err != nil {
			return nil, fmt.Errorf("driver: %w", err)
		}
	}
	var ret []*property.Instance
	if D.WriteNPT {
		for _, f := range frames {
			if f.sample.Stress == nil {
				continue
			}
			I := property.CrystalStructureNPT(f.cell, f.sample, meta)
			D.Collection.Add(I)
			ret = append(ret, I)
		}
	}
	ev := property.EnergyVsVolume(curve, C, meta)
	D.Collection.Add(ev)
	ret = append(ret, ev)
	if trajPath != "" {
		if err := D.Collection.AddFile(ev, TrajectoryKey, trajPath); err != nil {
			return ret, fmt.Errorf("driver: %w", err)
		}
	}
	if D.Plot != "" {
		plotPath := filepath.Join(D.OutputDir, D.Plot)
		title := fmt.Sprintf("%s, %s", curve.Formula, D.Calculator.Name())
		if err := evplot.Save(curve, title, plotPath); err != nil {
			return ret, fmt.Errorf("driver: %w", err)
		}
		if err := D.Collection.AddFile(ev, PlotKey, plotPath); err != nil {
			return ret, fmt.Errorf("driver: %w", err)
		}
	}
	if m, ok := curve.Minimum(); ok {
		log.Info("Scan done", "formula", curve.Formula, "samples", len(curve.Samples), "failures", len(curve.Failures),
			"min_volume_per_atom", m.VolumePerAtom, "min_energy_per_atom", m.EnergyPerAtom)
	}
	return ret, nil
}

// writeTrajectory writes one frame per evaluated point. The header keeps, for each
// frame, its volume scale factor and its index in the requested sequence, so frames
// can be matched to points when some of them failed. A partial file is removed.
func writeTrajectory(path string, C *crystal.Crystal, frames []frame) (err error) {
	factors := make([]float64, len(frames))
	points := make([]string, len(frames))
	for i, f := range frames {
		factors[i] = f.sample.VolumeScale
		points[i] = strconv.Itoa(f.sample.Index)
	}
	head := map[string]string{
		"species":       strings.Join(C.Symbols(), " "),
		"scale_factors": joinFloats(factors),
		"points":        strings.Join(points, " "),
		"formula":       C.Formula(),
	}
	traj, err := stf.NewWriter(path, C.Len(), head)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := traj.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	for _, f := range frames {
		if err = traj.WCrystal(f.cell); err != nil {
			return err
		}
	}
	return nil
}

// WriteResults writes all the instances collected so far to path. If path is empty, the
// file DefaultResults in the output directory is used.
func (D *Driver) WriteResults(path string) error {
	if path == "" {
		path = filepath.Join(D.OutputDir, DefaultResults)
	}
	if D.Collection == nil {
		D.Collection = property.NewCollection(D.OutputDir)
	}
	if err := D.Collection.WriteFile(path); err != nil {
		return fmt.Errorf("driver: %w", err)
	}
	return nil
}

func joinFloats(f []float64) string {
	s := make([]string, len(f))
	for i, v := range f {
		s[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(s, " ")
}
