/*
 * build.go, part of evscan.
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

// Package build creates crystals for some common bulk prototypes, so
// scans can be run without an input structure file.
package build

import (
	"fmt"
	"math"
	"strconv"
	"unicode"

	crystal "github.com/rmera/evscan"
	v3 "github.com/rmera/evscan/v3"
)

// options for Bulk
type options struct {
	covera float64
	u      float64
	cubic  bool
}

// Option modifies the crystal created by Bulk.
type Option func(*options)

// CoverA sets the c/a ratio for the hexagonal prototypes (hcp, wurtzite).
// The default is the ideal sqrt(8/3).
func CoverA(r float64) Option {
	return func(o *options) { o.covera = r }
}

// U sets the internal parameter of the wurtzite prototype.
// The default is 1/4 + 1/(3 (c/a)^2).
func U(u float64) Option {
	return func(o *options) { o.u = u }
}

// Cubic requests the conventional cubic cell instead of the primitive
// one for the cubic prototypes.
func Cubic() Option {
	return func(o *options) { o.cubic = true }
}

//one atom of a motif, in fractional coordinates of the cell.
type site struct {
	species int //index in the formula
	frac    [3]float64
}

// fcc lattice translations, in fractions of the cubic cell.
var fccTranslations = [][3]float64{{0, 0, 0}, {0, 0.5, 0.5}, {0.5, 0, 0.5}, {0.5, 0.5, 0}}

// Bulk returns a crystal with the given structure and lattice constant a (in A).
// name is a chemical formula compatible with the structure: an element
// for sc, fcc, bcc, hcp and diamond; two elements in 1:1 ratio for zincblende,
// rocksalt, cesiumchloride and wurtzite; AB2 for fluorite. Unless the Cubic option
// is given, the primitive cell is returned.
func Bulk(name, structure string, a float64, opts ...Option) (*crystal.Crystal, error) {
	if a <= 0 || math.IsNaN(a) {
		return nil, Error{fmt.Sprintf("lattice constant must be positive, got %g", a), []string{"Bulk"}}
	}
	o := &options{covera: math.Sqrt(8.0 / 3.0)}
	for _, f := range opts {
		f(o)
	}
	if o.covera <= 0 {
		return nil, Error{fmt.Sprintf("c/a must be positive, got %g", o.covera), []string{"Bulk"}}
	}
	elems, err := ParseFormula(name)
	if err != nil {
		return nil, errDecorate(err, "Bulk")
	}
	var cell [3][3]float64
	var motif []site
	var want []int //the stoichiometry the structure requires.
	h := a / 2
	cubic := [3][3]float64{{a, 0, 0}, {0, a, 0}, {0, 0, a}}
	fcc := [3][3]float64{{0, h, h}, {h, 0, h}, {h, h, 0}}
	switch structure {
	case "sc":
		want = []int{1}
		cell, motif = cubic, []site{{0, [3]float64{}}}
	case "fcc":
		want = []int{1}
		cell, motif = fcc, []site{{0, [3]float64{}}}
		if o.cubic {
			cell, motif = cubic, decorate([]site{{0, [3]float64{}}})
		}
	case "bcc":
		want = []int{1}
		cell, motif = [3][3]float64{{-h, h, h}, {h, -h, h}, {h, h, -h}}, []site{{0, [3]float64{}}}
		if o.cubic {
			cell, motif = cubic, []site{{0, [3]float64{}}, {0, [3]float64{0.5, 0.5, 0.5}}}
		}
	case "diamond", "zincblende":
		want = []int{1, 1}
		if structure == "diamond" {
			want = []int{1}
		}
		second := len(want) - 1
		cell, motif = fcc, []site{{0, [3]float64{}}, {second, [3]float64{0.25, 0.25, 0.25}}}
		if o.cubic {
			cell, motif = cubic, decorate([]site{{0, [3]float64{}}, {second, [3]float64{0.25, 0.25, 0.25}}})
		}
	case "rocksalt":
		want = []int{1, 1}
		cell, motif = fcc, []site{{0, [3]float64{}}, {1, [3]float64{0.5, 0.5, 0.5}}}
		if o.cubic {
			cell, motif = cubic, decorate([]site{{0, [3]float64{}}, {1, [3]float64{0.5, 0, 0}}})
		}
	case "cesiumchloride":
		want = []int{1, 1}
		cell, motif = cubic, []site{{0, [3]float64{}}, {1, [3]float64{0.5, 0.5, 0.5}}}
	case "fluorite":
		want = []int{1, 2}
		cell, motif = fcc, []site{{0, [3]float64{}}, {1, [3]float64{0.25, 0.25, 0.25}}, {1, [3]float64{0.75, 0.75, 0.75}}}
		if o.cubic {
			cell, motif = cubic, decorate([]site{{0, [3]float64{}}, {1, [3]float64{0.25, 0.25, 0.25}}, {1, [3]float64{0.75, 0.75, 0.75}}})
		}
	case "hcp":
		want = []int{1}
		cell = hexagonal(a, o.covera)
		motif = []site{{0, [3]float64{}}, {0, [3]float64{1.0 / 3, 2.0 / 3, 0.5}}}
	case "wurtzite":
		want = []int{1, 1}
		u := o.u
		if u == 0 {
			u = 0.25 + 1/(3*o.covera*o.covera)
		}
		cell = hexagonal(a, o.covera)
		motif = []site{{0, [3]float64{}}, {1, [3]float64{1.0 / 3, 2.0 / 3, 0.5 - u}}, {0, [3]float64{1.0 / 3, 2.0 / 3, 0.5}}, {1, [3]float64{0, 0, 1 - u}}}
	default:
		return nil, Error{fmt.Sprintf("unknown crystal structure %q", structure), []string{"Bulk"}}
	}
	if o.cubic && (structure == "hcp" || structure == "wurtzite") {
		return nil, Error{fmt.Sprintf("no cubic cell for structure %q", structure), []string{"Bulk"}}
	}
	if err := checkStoichiometry(elems, want); err != nil {
		return nil, Error{fmt.Sprintf("%s can't be a %s crystal: %s", name, structure, err.Error()), []string{"Bulk"}}
	}
	return assemble(elems, cell, motif)
}

// decorate places the motif on every point of the fcc lattice of the cubic cell.
func decorate(motif []site) []site {
	ret := make([]site, 0, len(motif)*len(fccTranslations))
	for _, t := range fccTranslations {
		for _, s := range motif {
			var f [3]float64
			for i := range f {
				f[i] = math.Mod(s.frac[i]+t[i], 1)
			}
			ret = append(ret, site{s.species, f})
		}
	}
	return ret
}

func hexagonal(a, covera float64) [3][3]float64 {
	return [3][3]float64{{a, 0, 0}, {-a / 2, a * math.Sqrt(3) / 2, 0}, {0, 0, a * covera}}
}

func assemble(elems []Element, cell [3][3]float64, motif []site) (*crystal.Crystal, error) {
	mcell := v3.Zeros(3)
	for i, v := range cell {
		mcell.SetVec(i, v)
	}
	coords := v3.Zeros(len(motif))
	atoms := make([]*crystal.Atom, len(motif))
	for i, s := range motif {
		var c [3]float64
		for k := 0; k < 3; k++ {
			for j := 0; j < 3; j++ {
				c[j] += s.frac[k] * cell[k][j]
			}
		}
		coords.SetVec(i, c)
		atoms[i] = crystal.NewAtom(elems[s.species].Symbol)
	}
	C, err := crystal.NewCrystal(atoms, mcell, coords)
	if err != nil {
		return nil, errDecorate(err, "assemble")
	}
	return C, nil
}

func checkStoichiometry(elems []Element, want []int) error {
	if len(elems) != len(want) {
		return fmt.Errorf("needs %d species, got %d", len(want), len(elems))
	}
	for i, e := range elems {
		if e.Count != want[i] {
			return fmt.Errorf("wrong count for %s: %d, expected %d", e.Symbol, e.Count, want[i])
		}
	}
	return nil
}

// Element is one element in a chemical formula, and the number of atoms
// of it in the formula.
type Element struct {
	Symbol string
	Count  int
}

// ParseFormula splits a chemical formula, such as "CaF2", in its elements,
// in order of appearance. An element cannot appear twice.
func ParseFormula(formula string) ([]Element, error) {
	r := []rune(formula)
	ret := make([]Element, 0, 2)
	seen := make(map[string]bool)
	for i := 0; i < len(r); {
		if !unicode.IsUpper(r[i]) {
			return nil, Error{fmt.Sprintf("invalid formula %q", formula), []string{"ParseFormula"}}
		}
		j := i + 1
		for j < len(r) && unicode.IsLower(r[j]) {
			j++
		}
		sym := string(r[i:j])
		k := j
		for k < len(r) && unicode.IsDigit(r[k]) {
			k++
		}
		count := 1
		if k > j {
			count, _ = strconv.Atoi(string(r[j:k]))
		}
		if !crystal.KnownSymbol(sym) || count < 1 || seen[sym] {
			return nil, Error{fmt.Sprintf("invalid formula %q at %q", formula, sym), []string{"ParseFormula"}}
		}
		seen[sym] = true
		ret = append(ret, Element{sym, count})
		i = k
	}
	if len(ret) == 0 {
		return nil, Error{"empty formula", []string{"ParseFormula"}}
	}
	return ret, nil
}

// Error is the error type for this package.
type Error struct {
	message string
	deco    []string
}

func (err Error) Error() string { return "build: " + err.message }

// Decorate adds dec to the decoration slice of the error and returns the slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// Critical is always true for build errors.
func (err Error) Critical() bool { return true }

func errDecorate(err error, caller string) error {
	if e, ok := err.(crystal.Error); ok {
		e.Decorate(caller)
	}
	return err
}
