/*
 * lj.go, part of evscan.
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
	"math"

	crystal "github.com/rmera/evscan"
	v3 "github.com/rmera/evscan/v3"
)

// LennardJones is a periodic 12-6 Lennard-Jones pair potential, with the same
// parameters for all pairs of atoms. Epsilon is in eV, Sigma and Cutoff in A.
// If Shift is true, the pair energy is shifted so it goes to zero at the cutoff.
type LennardJones struct {
	Epsilon float64
	Sigma   float64
	Cutoff  float64
	Shift   bool
}

// NewLennardJones returns a LennardJones calculator with the given parameters
// and a cutoff of 3 sigma.
func NewLennardJones(epsilon, sigma float64) *LennardJones {
	return &LennardJones{Epsilon: epsilon, Sigma: sigma, Cutoff: 3 * sigma}
}

// Name returns "lj".
func (L *LennardJones) Name() string { return "lj" }

func (L *LennardJones) check() error {
	if L.Epsilon <= 0 || L.Sigma <= 0 || L.Cutoff <= 0 {
		return Error{fmt.Sprintf("%s: epsilon %g, sigma %g, cutoff %g", ErrBadParams, L.Epsilon, L.Sigma, L.Cutoff), L.Name(), "", []string{"check"}, true, nil}
	}
	return nil
}

// pair returns the pair energy and phi'(r)/r for the squared distance r2.
func (L *LennardJones) pair(r2, shift float64) (float64, float64) {
	sr6 := math.Pow(L.Sigma*L.Sigma/r2, 3)
	e := 4*L.Epsilon*(sr6*sr6-sr6) - shift
	g := -24 * L.Epsilon * (2*sr6*sr6 - sr6) / r2
	return e, g
}

// imageRange returns, for each lattice vector, how many periodic images must be
// considered in each direction so all pairs within the cutoff are included.
func imageRange(cell *v3.Matrix, vol, cutoff float64, pbc [3]bool) [3]int {
	var ret [3]int
	for k := 0; k < 3; k++ {
		if !pbc[k] {
			continue
		}
		l, m := (k+1)%3, (k+2)%3
		cr := cell.Cross(l, m)
		area := math.Sqrt(cr[0]*cr[0] + cr[1]*cr[1] + cr[2]*cr[2])
		spacing := vol / area //distance between lattice planes
		ret[k] = int(math.Ceil(cutoff / spacing))
	}
	return ret
}

// wrapped returns the cartesian coordinates of C with the fractional coordinates along
// periodic directions brought into [0,1), so the image range from imageRange is enough.
func wrapped(C *crystal.Crystal) (*v3.Matrix, error) {
	frac, err := C.FractionalCoords()
	if err != nil {
		return nil, err
	}
	a, b, c := C.Cell.Vec(0), C.Cell.Vec(1), C.Cell.Vec(2)
	ret := v3.Zeros(C.Len())
	for i := 0; i < C.Len(); i++ {
		f := frac.Vec(i)
		for k := 0; k < 3; k++ {
			if C.PBC[k] {
				f[k] -= math.Floor(f[k])
			}
		}
		var r [3]float64
		for k := 0; k < 3; k++ {
			r[k] = f[0]*a[k] + f[1]*b[k] + f[2]*c[k]
		}
		ret.SetVec(i, r)
	}
	return ret, nil
}

// Calculate returns the energy, forces and stress of C. The stress follows the
// usual convention (positive when the crystal is under tension).
func (L *LennardJones) Calculate(ctx context.Context, C *crystal.Crystal) (*Result, error) {
	if err := L.check(); err != nil {
		return nil, err
	}
	if err := C.Validate(); err != nil {
		return nil, Error{ErrCantInput, L.Name(), "", []string{"Calculate"}, true, err}
	}
	coords, err := wrapped(C)
	if err != nil {
		return nil, Error{ErrCantInput, L.Name(), "", []string{"wrapped", "Calculate"}, true, err}
	}
	vol := C.Volume()
	rc2 := L.Cutoff * L.Cutoff
	var shift float64
	if L.Shift {
		shift, _ = L.pair(rc2, 0)
	}
	n := imageRange(C.Cell, vol, L.Cutoff, C.PBC)
	a, b, c := C.Cell.Vec(0), C.Cell.Vec(1), C.Cell.Vec(2)
	natoms := C.Len()
	forces := v3.Zeros(natoms)
	var energy float64
	var virial [9]float64
	for i := 0; i < natoms; i++ {
		if err := ctx.Err(); err != nil {
			return nil, Error{ErrCalculation, L.Name(), "", []string{"Calculate"}, true, err}
		}
		ri := coords.Vec(i)
		var fi [3]float64
		for j := 0; j < natoms; j++ {
			rj := coords.Vec(j)
			for n1 := -n[0]; n1 <= n[0]; n1++ {
				for n2 := -n[1]; n2 <= n[1]; n2++ {
					for n3 := -n[2]; n3 <= n[2]; n3++ {
						if i == j && n1 == 0 && n2 == 0 && n3 == 0 {
							continue
						}
						var d [3]float64
						var r2 float64
						for k := 0; k < 3; k++ {
							d[k] = rj[k] - ri[k] + float64(n1)*a[k] + float64(n2)*b[k] + float64(n3)*c[k]
							r2 += d[k] * d[k]
						}
						if r2 > rc2 {
							continue
						}
						e, g := L.pair(r2, shift)
						energy += 0.5 * e
						for k := 0; k < 3; k++ {
							fi[k] += g * d[k]
							for l := 0; l < 3; l++ {
								virial[3*k+l] += 0.5 * g * d[k] * d[l]
							}
						}
					}
				}
			}
		}
		forces.SetVec(i, fi)
	}
	stress := make([]float64, 9)
	for k, v := range virial {
		stress[k] = v / vol
	}
	return &Result{Energy: energy, Stress: voigt(stress), Forces: forces}, nil
}
