/*
 * scan.go, part of evscan.
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

// Package scan implements the energy-volume sampler: a crystal is scaled
// isotropically over a sequence of volume scale factors and the energy of each
// deformed copy is obtained from a calc.Calculator.
//
// The points are evaluated sequentially, in the order the scale factors are given,
// and the curve keeps that order.
package scan

import (
	"context"
	"errors"
	"fmt"
	"math"

	crystal "github.com/rmera/evscan"
	"github.com/rmera/evscan/calc"
	"github.com/rmera/evscan/ctxlog"
	"gonum.org/v1/gonum/floats"
)

// Disclaimer is set in curves where some points could not be evaluated.
const Disclaimer = "At least one of the requested deformations of the unit cell failed to compute a potential energy."

// ScaleFactors returns the 2*numSteps+1 volume scale factors 1+(maxVolumeScale/numSteps)*i,
// for i from -numSteps to numSteps, in ascending order. maxVolumeScale is the largest
// fractional change in volume, and must be in (0,1).
func ScaleFactors(maxVolumeScale float64, numSteps int) ([]float64, error) {
	if numSteps < 1 {
		return nil, Error{fmt.Sprintf("the number of steps must be at least 1, got %d", numSteps), []string{"ScaleFactors"}, ErrBadRange}
	}
	if !(maxVolumeScale > 0 && maxVolumeScale < 1) {
		return nil, Error{fmt.Sprintf("the maximum volume scale must be in (0,1), got %g", maxVolumeScale), []string{"ScaleFactors"}, ErrBadRange}
	}
	step := maxVolumeScale / float64(numSteps)
	ret := make([]float64, 0, 2*numSteps+1)
	for i := -numSteps; i <= numSteps; i++ {
		ret = append(ret, 1+step*float64(i))
	}
	return ret, nil
}

// Options control a scan.
type Options struct {
	ScaleFactors []float64 //volume scale factors, in the order they will be evaluated
	//If true, points where the calculator fails are skipped, and the curve gets a disclaimer.
	//Otherwise, the first failure stops the scan.
	Tolerant bool
	//OnPoint, if not nil, is called after each successful point, with the sample and the
	//deformed crystal. An error returned by OnPoint stops the scan.
	OnPoint func(Sample, *crystal.Crystal) error
	//If not nil, the atomic positions of each deformed crystal are relaxed, at fixed
	//cell, before its energy is recorded. The calculator must give forces.
	Relax *Relax
}

// Sample is one point of an energy-volume curve. Volumes are in A^3 and energies in eV.
type Sample struct {
	Index            int //position in the scale factor sequence
	VolumeScale      float64
	LinearScale      float64 //VolumeScale^(1/3)
	Volume           float64 //of the whole cell
	Energy           float64 //of the whole cell
	VolumePerAtom    float64
	VolumePerFormula float64
	EnergyPerAtom    float64
	EnergyPerFormula float64
	Stress           []float64   //Voigt form, eV/A^3, nil if the calculator didn't give it
	Relaxation       *RelaxStats //nil unless the positions were relaxed
}

// Curve is the result of a scan.
type Curve struct {
	Formula         string
	NumAtoms        int
	AtomsPerFormula int
	ReferenceVolume float64 //volume of the undeformed cell
	Samples         []Sample
	Failures        []*PointError
	Disclaimer      string //empty unless some point failed
}

// Volumes returns the volume per atom of each sample.
func (C *Curve) Volumes() []float64 {
	ret := make([]float64, len(C.Samples))
	for i, s := range C.Samples {
		ret[i] = s.VolumePerAtom
	}
	return ret
}

// Energies returns the energy per atom of each sample.
func (C *Curve) Energies() []float64 {
	ret := make([]float64, len(C.Samples))
	for i, s := range C.Samples {
		ret[i] = s.EnergyPerAtom
	}
	return ret
}

// Minimum returns the sample with the lowest energy, and false if the curve is empty.
func (C *Curve) Minimum() (Sample, bool) {
	if C == nil || len(C.Samples) == 0 {
		return Sample{}, false
	}
	return C.Samples[floats.MinIdx(C.Energies())], true
}

func checkFactors(factors []float64) error {
	if len(factors) == 0 {
		return Error{"", []string{"checkFactors"}, ErrNoFactors}
	}
	for i, f := range factors {
		if !(f > 0) || math.IsInf(f, 0) {
			return Error{fmt.Sprintf("factor %d is %g", i, f), []string{"checkFactors"}, ErrBadFactor}
		}
	}
	return nil
}

// Run scans base over opts.ScaleFactors, obtaining the energy of each deformed cell with
// c. Each point is computed on a fresh copy of base, which is never modified.
func Run(ctx context.Context, base *crystal.Crystal, c calc.Calculator, opts Options) (*Curve, error) {
	if err := checkFactors(opts.ScaleFactors); err != nil {
		return nil, err
	}
	if err := base.Validate(); err != nil {
		return nil, Error{"invalid base crystal", []string{"Run"}, err}
	}
	log := ctxlog.FromContext(ctx).With("calculator", c.Name(), "formula", base.Formula())
	natoms := base.Len()
	apf := base.AtomsPerFormula()
	curve := &Curve{
		Formula:         base.Formula(),
		NumAtoms:        natoms,
		AtomsPerFormula: apf,
		ReferenceVolume: base.Volume(),
		Samples:         make([]Sample, 0, len(opts.ScaleFactors)),
	}
	log.Info("Starting energy scan", "points", len(opts.ScaleFactors), "volume", curve.ReferenceVolume)
	for i, vs := range opts.ScaleFactors {
		if err := ctx.Err(); err != nil {
			return nil, Error{fmt.Sprintf("cancelled before point %d", i), []string{"Run"}, err}
		}
		deformed, err := base.ScaledCopy(vs)
		if err != nil {
			return nil, Error{"", []string{"Run"}, err}
		}
		volume := deformed.Volume()
		var res *calc.Result
		var rstats *RelaxStats
		if opts.Relax != nil {
			var st RelaxStats
			res, st, err = relax(ctx, deformed, c, opts.Relax)
			rstats = &st
		} else {
			res, err = c.Calculate(ctx, deformed)
		}
		if err != nil {
			perr := &PointError{Index: i, VolumeScale: vs, Volume: volume, Err: err}
			if !opts.Tolerant || ctx.Err() != nil || errors.Is(err, ErrNoForces) {
				return nil, perr
			}
			log.Warn("Failed to compute the energy", "index", i, "volume", volume, "error", err)
			curve.Failures = append(curve.Failures, perr)
			curve.Disclaimer = Disclaimer
			continue
		}
		s := Sample{
			Index:         i,
			VolumeScale:   vs,
			LinearScale:   math.Cbrt(vs),
			Volume:        volume,
			Energy:        res.Energy,
			VolumePerAtom: volume / float64(natoms),
			EnergyPerAtom: res.Energy / float64(natoms),
		}
		s.VolumePerFormula = s.VolumePerAtom * float64(apf)
		s.EnergyPerFormula = s.EnergyPerAtom * float64(apf)
		if res.HasStress() {
			s.Stress = append([]float64(nil), res.Stress...)
		}
		if rstats != nil {
			s.Relaxation = rstats
			if !rstats.Converged {
				log.Warn("Relaxation did not converge", "index", i, "volume", volume, "relaxation", rstats.String())
			} else {
				log.Debug("Positions relaxed", "index", i, "relaxation", rstats.String())
			}
		}
		log.Info("Point evaluated", "index", i, "volume", volume, "energy", res.Energy)
		if opts.OnPoint != nil {
			if err := opts.OnPoint(s, deformed); err != nil {
				return nil, Error{fmt.Sprintf("processing point %d", i), []string{"Run"}, err}
			}
		}
		curve.Samples = append(curve.Samples, s)
	}
	if len(curve.Samples) == 0 {
		last := curve.Failures[len(curve.Failures)-1]
		return nil, Error{"", []string{"Run"}, fmt.Errorf("%w: %w", ErrNoSamples, last)}
	}
	log.Info("Energy scan finished", "samples", len(curve.Samples), "failures", len(curve.Failures))
	return curve, nil
}
