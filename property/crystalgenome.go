/*
 * crystalgenome.go, part of evscan.
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

package property

import (
	"math"

	crystal "github.com/rmera/evscan"
	"github.com/rmera/evscan/scan"
)

// Units used in the instances.
const (
	LengthUnit = "angstrom"
	VolumeUnit = "angstrom^3"
	EnergyUnit = "eV"
	StressUnit = "eV/angstrom^3"
	TempUnit   = "K"
	AngleUnit  = "degree"
)

// Meta contains the description of the nominal crystal structure that is not
// contained in the crystal itself. Empty fields are taken, if possible, from
// the Info map of the crystal (keys prototype_label, library_prototype_label
// and short_name).
type Meta struct {
	PrototypeLabel        string //AFLOW prototype label
	LibraryPrototypeLabel string
	ShortName             string
	Temperature           float64   //nominal temperature, K
	Stress                []float64 //nominal Cauchy stress, Voigt form, eV/A^3
}

func (M Meta) withInfo(C *crystal.Crystal) Meta {
	if C == nil || C.Info == nil {
		return M
	}
	if M.PrototypeLabel == "" {
		M.PrototypeLabel = C.Info["prototype_label"]
	}
	if M.LibraryPrototypeLabel == "" {
		M.LibraryPrototypeLabel = C.Info["library_prototype_label"]
	}
	if M.ShortName == "" {
		M.ShortName = C.Info["short_name"]
	}
	return M
}

// CommonOptions select the optional common keys.
type CommonOptions struct {
	WriteStress bool
	//Stress is written instead of the nominal one in Meta, if not nil. Voigt form, eV/A^3.
	Stress           []float64
	WriteTemperature bool
}

const angleTol = 1e-6

// AddCommonCrystalGenomeKeys adds to I the keys shared by all Crystal Genome properties,
// describing the crystal C. The lattice parameters are those of the cell of C, as given.
func AddCommonCrystalGenomeKeys(I *Instance, C *crystal.Crystal, meta Meta, opts CommonOptions) {
	meta = meta.withInfo(C)
	if meta.PrototypeLabel != "" {
		AddKey(I, "prototype-label", meta.PrototypeLabel, "", nil)
	}
	AddKey(I, "stoichiometric-species", C.Species(), "", nil)
	a, b, c, alpha, beta, gamma := C.LatticeParameters()
	AddKey(I, "a", a, LengthUnit, nil)
	var names []string
	var values []float64
	if math.Abs(b-a) > angleTol*a {
		names, values = append(names, "b/a"), append(values, b/a)
	}
	if math.Abs(c-a) > angleTol*a {
		names, values = append(names, "c/a"), append(values, c/a)
	}
	for i, ang := range []float64{alpha, beta, gamma} {
		if math.Abs(ang-90) > angleTol {
			names, values = append(names, []string{"alpha", "beta", "gamma"}[i]), append(values, ang)
		}
	}
	if len(names) > 0 {
		AddKey(I, "parameter-names", names, "", nil)
		AddKey(I, "parameter-values", values, "", nil)
	}
	if meta.LibraryPrototypeLabel != "" {
		AddKey(I, "library-prototype-label", meta.LibraryPrototypeLabel, "", nil)
	}
	if meta.ShortName != "" {
		AddKey(I, "short-name", []string{meta.ShortName}, "", nil)
	}
	if opts.WriteStress {
		stress := opts.Stress
		if stress == nil {
			stress = meta.Stress
		}
		if stress == nil {
			stress = make([]float64, 6)
		}
		AddKey(I, "cell-cauchy-stress", stress, StressUnit, nil)
	}
	if opts.WriteTemperature {
		AddKey(I, "temperature", meta.Temperature, TempUnit, nil)
	}
}

// EnergyVsVolume returns an energy-vs-volume-isotropic-crystal instance for the curve,
// obtained by scanning the crystal C. The disclaimer of the curve, if any, is kept.
func EnergyVsVolume(curve *scan.Curve, C *crystal.Crystal, meta Meta) *Instance {
	I := NewInstance(EnergyVsVolumeName, curve.Disclaimer)
	AddCommonCrystalGenomeKeys(I, C, meta, CommonOptions{})
	n := len(curve.Samples)
	vpa := make([]float64, n)
	vpf := make([]float64, n)
	epa := make([]float64, n)
	epf := make([]float64, n)
	for i, s := range curve.Samples {
		vpa[i], vpf[i] = s.VolumePerAtom, s.VolumePerFormula
		epa[i], epf[i] = s.EnergyPerAtom, s.EnergyPerFormula
	}
	AddKey(I, "volume-per-atom", vpa, VolumeUnit, nil)
	AddKey(I, "volume-per-formula", vpf, VolumeUnit, nil)
	//deterministic calculations
	uncert := map[string]any{"source-std-uncert-value": make([]float64, n)}
	AddKey(I, "binding-potential-energy-per-atom", epa, EnergyUnit, uncert)
	AddKey(I, "binding-potential-energy-per-formula", epf, EnergyUnit, uncert)
	return I
}

// CrystalStructureNPT returns a crystal-structure-npt instance for the deformed crystal C
// evaluated in the sample s. The stress of the sample is written if it has one; otherwise the
// nominal stress in meta is used. The nominal temperature is always written.
func CrystalStructureNPT(C *crystal.Crystal, s scan.Sample, meta Meta) *Instance {
	I := NewInstance(CrystalStructureNPTName, "")
	AddCommonCrystalGenomeKeys(I, C, meta, CommonOptions{WriteStress: true, Stress: s.Stress, WriteTemperature: true})
	return I
}
