/*
 * crystal.go, part of evscan.
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

package crystal

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	v3 "github.com/rmera/evscan/v3"
	"gonum.org/v1/gonum/mat"
)

// Atom contains the information on one atom of a crystal, except for
// its coordinates, which are kept in a v3.Matrix.
type Atom struct {
	Symbol string
	Name   string
	Mass   float64
	Tag    int //Something that someone might want to keep that is not a float.
}

// NewAtom returns an atom with the given symbol, and the corresponding mass,
// if the symbol is known. Otherwise, the mass is zero.
func NewAtom(symbol string) *Atom {
	m, _ := Mass(symbol)
	return &Atom{Symbol: symbol, Name: symbol, Mass: m}
}

// Copy returns a copy of the Atom object.
func (A *Atom) Copy() *Atom {
	if A == nil {
		panic("Attempted to copy a nil atom")
	}
	ret := *A
	return &ret
}

// Crystal is a periodic arrangement of atoms. The Cell contains the three lattice
// vectors, one per row, and Coords the cartesian coordinates of each atom, also one per row.
type Crystal struct {
	Atoms  []*Atom
	Cell   *v3.Matrix
	Coords *v3.Matrix
	PBC    [3]bool
	Info   map[string]string //free-form metadata, kept through I/O.
}

// NewCrystal returns a crystal made from the given atoms, cell and coordinates,
// periodic in the 3 directions. It returns an error if the data are not consistent.
// The matrices are not copied.
func NewCrystal(atoms []*Atom, cell, coords *v3.Matrix) (*Crystal, error) {
	C := &Crystal{Atoms: atoms, Cell: cell, Coords: coords, PBC: [3]bool{true, true, true}, Info: map[string]string{}}
	if err := C.Validate(); err != nil {
		return nil, errDecorate(err, "NewCrystal")
	}
	return C, nil
}

// Validate checks that the crystal is self-consistent: a 3x3 cell with non-zero volume,
// and as many coordinates as atoms.
func (C *Crystal) Validate() error {
	if C == nil || C.Cell == nil || C.Coords == nil || len(C.Atoms) == 0 {
		return CError{msg: ErrNilData, deco: []string{"Validate"}, critical: true}
	}
	if r, c := C.Cell.Dims(); r != 3 || c != 3 {
		return CError{msg: ErrCellShape, deco: []string{"Validate"}, critical: true}
	}
	if C.Coords.NVecs() != len(C.Atoms) {
		return CError{msg: fmt.Sprintf("%s: %d coordinates, %d atoms", ErrShape, C.Coords.NVecs(), len(C.Atoms)), deco: []string{"Validate"}, critical: true}
	}
	for i, a := range C.Atoms {
		if a == nil {
			return CError{msg: fmt.Sprintf("%s: atom %d", ErrNilData, i), deco: []string{"Validate"}, critical: true}
		}
	}
	if C.Volume() <= 1e-10 {
		return CError{msg: ErrSingularCell, deco: []string{"Validate"}, critical: true}
	}
	return nil
}

// Len returns the number of atoms in the crystal.
func (C *Crystal) Len() int {
	return len(C.Atoms)
}

// Atom returns the ith atom. Panics if out of range.
func (C *Crystal) Atom(i int) *Atom {
	return C.Atoms[i]
}

// Volume returns the volume of the unit cell in A^3.
func (C *Crystal) Volume() float64 {
	return math.Abs(C.Cell.Det())
}

// Copy returns a deep copy of the crystal.
func (C *Crystal) Copy() *Crystal {
	ret := &Crystal{
		Atoms:  make([]*Atom, len(C.Atoms)),
		Cell:   C.Cell.Copy(),
		Coords: C.Coords.Copy(),
		PBC:    C.PBC,
		Info:   make(map[string]string, len(C.Info)),
	}
	for i, a := range C.Atoms {
		ret.Atoms[i] = a.Copy()
	}
	for k, v := range C.Info {
		ret.Info[k] = v
	}
	return ret
}

// ScaleIsotropic multiplies all lattice vectors and all cartesian coordinates by
// linear. Fractional coordinates are preserved, and the volume changes by linear^3.
func (C *Crystal) ScaleIsotropic(linear float64) error {
	if linear <= 0 || math.IsNaN(linear) || math.IsInf(linear, 0) {
		return CError{msg: fmt.Sprintf("%s: linear factor %g", ErrScale, linear), deco: []string{"ScaleIsotropic"}, critical: true}
	}
	C.Cell.ScaleInPlace(linear)
	C.Coords.ScaleInPlace(linear)
	return nil
}

// ScaledCopy returns a copy of the crystal whose volume is volumeScale times the volume
// of the receiver. The receiver is not modified.
func (C *Crystal) ScaledCopy(volumeScale float64) (*Crystal, error) {
	if volumeScale <= 0 || math.IsNaN(volumeScale) || math.IsInf(volumeScale, 0) {
		return nil, CError{msg: fmt.Sprintf("%s: volume factor %g", ErrScale, volumeScale), deco: []string{"ScaledCopy"}, critical: true}
	}
	ret := C.Copy()
	if err := ret.ScaleIsotropic(math.Cbrt(volumeScale)); err != nil {
		return nil, errDecorate(err, "ScaledCopy")
	}
	return ret, nil
}

// Symbols returns the element symbol of each atom, in order.
func (C *Crystal) Symbols() []string {
	ret := make([]string, len(C.Atoms))
	for i, a := range C.Atoms {
		ret[i] = a.Symbol
	}
	return ret
}

// Species returns the unique element symbols in the crystal, sorted alphabetically.
func (C *Crystal) Species() []string {
	set := make(map[string]struct{})
	for _, a := range C.Atoms {
		set[a.Symbol] = struct{}{}
	}
	ret := make([]string, 0, len(set))
	for k := range set {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

// Stoichiometry returns the number of atoms of each species in one formula unit,
// i.e. the atom counts in the cell divided by their greatest common divisor.
func (C *Crystal) Stoichiometry() map[string]int {
	counts := make(map[string]int)
	for _, a := range C.Atoms {
		counts[a.Symbol]++
	}
	g := 0
	for _, n := range counts {
		g = gcd(g, n)
	}
	if g > 1 {
		for k := range counts {
			counts[k] /= g
		}
	}
	return counts
}

// AtomsPerFormula returns the number of atoms in one formula unit.
func (C *Crystal) AtomsPerFormula() int {
	n := 0
	for _, v := range C.Stoichiometry() {
		n += v
	}
	return n
}

// Formula returns the reduced chemical formula with the species in alphabetical
// order, e.g. "SZn" for zincblende or "CaF2" for fluorite.
func (C *Crystal) Formula() string {
	st := C.Stoichiometry()
	var b strings.Builder
	for _, s := range C.Species() {
		b.WriteString(s)
		if st[s] > 1 {
			b.WriteString(strconv.Itoa(st[s]))
		}
	}
	return b.String()
}

// LatticeParameters returns the lengths of the three lattice vectors, in A, and
// the angles alpha (b,c), beta (a,c) and gamma (a,b), in degrees.
func (C *Crystal) LatticeParameters() (a, b, c, alpha, beta, gamma float64) {
	a = C.Cell.Norm(0)
	b = C.Cell.Norm(1)
	c = C.Cell.Norm(2)
	alpha = C.Cell.Angle(1, 2) * Rad2Deg
	beta = C.Cell.Angle(0, 2) * Rad2Deg
	gamma = C.Cell.Angle(0, 1) * Rad2Deg
	return
}

// FractionalCoords returns the coordinates of the atoms in the basis of
// the lattice vectors.
func (C *Crystal) FractionalCoords() (*v3.Matrix, error) {
	var inv mat.Dense
	if err := inv.Inverse(C.Cell.Dense); err != nil {
		return nil, CError{msg: ErrSingularCell, err: err, deco: []string{"FractionalCoords"}, critical: true}
	}
	frac := v3.Zeros(C.Len())
	frac.Dense.Mul(C.Coords.Dense, &inv)
	return frac, nil
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
