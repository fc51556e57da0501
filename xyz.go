/*
 * xyz.go, part of evscan.
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
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	v3 "github.com/rmera/evscan/v3"
)

//Extended XYZ, as written by ASE and most periodic codes. The comment line contains key=value
//pairs. We require Lattice="ax ay az bx by bz cx cy cz" and read the species and positions
//according to the Properties key (species:S:1:pos:R:3 if absent). Other keys are kept in Info.

// XYZFileRead reads the first frame of an extended XYZ file.
func XYZFileRead(xyzname string) (*Crystal, error) {
	cs, err := XYZFileReadAll(xyzname)
	if err != nil {
		return nil, err
	}
	return cs[0], nil
}

// XYZFileReadAll reads all the frames of an extended XYZ file.
func XYZFileReadAll(xyzname string) ([]*Crystal, error) {
	xyzfile, err := os.Open(xyzname)
	if err != nil {
		return nil, CError{msg: "Unable to open file", filename: xyzname, err: err, deco: []string{"XYZFileReadAll"}, critical: true}
	}
	defer xyzfile.Close()
	cs, err := ReadXYZ(xyzfile)
	if err != nil {
		if e, ok := err.(CError); ok {
			e.filename = xyzname
			return nil, errDecorate(e, "XYZFileReadAll")
		}
		return nil, err
	}
	return cs, nil
}

// ReadXYZ reads all the frames of an extended XYZ stream. It returns an error if no
// frame could be read.
func ReadXYZ(r io.Reader) ([]*Crystal, error) {
	xyz := bufio.NewReader(r)
	ret := make([]*Crystal, 0, 1)
	for frame := 0; ; frame++ {
		C, err := readXYZFrame(xyz)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errDecorate(err, fmt.Sprintf("ReadXYZ: frame %d", frame))
		}
		ret = append(ret, C)
	}
	if len(ret) == 0 {
		return nil, CError{msg: ErrXYZFormat + ": no frames", deco: []string{"ReadXYZ"}, critical: true}
	}
	return ret, nil
}

// readXYZFrame reads one frame. It returns io.EOF only if the stream ended
// before the atom count line.
func readXYZFrame(xyz *bufio.Reader) (*Crystal, error) {
	var line string
	var err error
	//skip blank lines between frames
	for {
		line, err = xyz.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			break
		}
		if err != nil {
			return nil, io.EOF
		}
	}
	natoms, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || natoms <= 0 {
		return nil, CError{msg: ErrXYZFormat + ": bad atom count", err: err, deco: []string{"readXYZFrame"}, critical: true}
	}
	comment, err := xyz.ReadString('\n')
	if err != nil && comment == "" {
		return nil, CError{msg: ErrXYZFormat + ": missing comment line", err: err, deco: []string{"readXYZFrame"}, critical: true}
	}
	kv := parseXYZComment(comment)
	lat, ok := kv["lattice"]
	if !ok {
		return nil, CError{msg: ErrNoCell, deco: []string{"readXYZFrame"}, critical: true}
	}
	cell, err := parseFloats(lat, 9)
	if err != nil {
		return nil, CError{msg: ErrXYZFormat + ": bad Lattice", err: err, deco: []string{"readXYZFrame"}, critical: true}
	}
	speciesCol, posCol, err := propertyColumns(kv["properties"])
	if err != nil {
		return nil, errDecorate(err, "readXYZFrame")
	}
	atoms := make([]*Atom, natoms)
	coords := make([]float64, natoms*3)
	for i := 0; i < natoms; i++ {
		line, err = xyz.ReadString('\n')
		fields := strings.Fields(line)
		if len(fields) <= speciesCol || len(fields) < posCol+3 {
			return nil, CError{msg: fmt.Sprintf("%s: line for atom %d ill formed", ErrXYZFormat, i), err: err, deco: []string{"readXYZFrame"}, critical: true}
		}
		atoms[i] = NewAtom(fields[speciesCol])
		for j := 0; j < 3; j++ {
			coords[i*3+j], err = strconv.ParseFloat(fields[posCol+j], 64)
			if err != nil {
				return nil, CError{msg: fmt.Sprintf("%s: coordinate %d of atom %d", ErrXYZFormat, j, i), err: err, deco: []string{"readXYZFrame"}, critical: true}
			}
		}
	}
	mcell, _ := v3.NewMatrix(cell)
	mcoords, _ := v3.NewMatrix(coords)
	C, err := NewCrystal(atoms, mcell, mcoords)
	if err != nil {
		return nil, errDecorate(err, "readXYZFrame")
	}
	if p, ok := kv["pbc"]; ok {
		f := strings.Fields(p)
		if len(f) == 3 {
			for i, v := range f {
				C.PBC[i] = parseBool(v)
			}
		}
	}
	for k, v := range kv {
		if k == "lattice" || k == "properties" || k == "pbc" {
			continue
		}
		C.Info[k] = v
	}
	return C, nil
}

// propertyColumns finds the columns for the species and the positions from
// an extended XYZ Properties string.
func propertyColumns(props string) (species, pos int, err error) {
	if props == "" {
		return 0, 1, nil
	}
	species, pos = -1, -1
	f := strings.Split(props, ":")
	if len(f)%3 != 0 {
		return 0, 0, CError{msg: ErrXYZFormat + ": bad Properties " + props, deco: []string{"propertyColumns"}, critical: true}
	}
	col := 0
	for i := 0; i < len(f); i += 3 {
		n, err := strconv.Atoi(f[i+2])
		if err != nil {
			return 0, 0, CError{msg: ErrXYZFormat + ": bad Properties " + props, err: err, deco: []string{"propertyColumns"}, critical: true}
		}
		switch strings.ToLower(f[i]) {
		case "species":
			species = col
		case "pos":
			pos = col
		}
		col += n
	}
	if species < 0 || pos < 0 {
		return 0, 0, CError{msg: ErrXYZFormat + ": Properties lack species or pos", deco: []string{"propertyColumns"}, critical: true}
	}
	return species, pos, nil
}

// parseXYZComment splits an extended XYZ comment line in key=value pairs.
// Values can be double-quoted. Keys are lowercased. Keys without a value are set to "T".
func parseXYZComment(line string) map[string]string {
	ret := make(map[string]string)
	line = strings.TrimSpace(line)
	for len(line) > 0 {
		var key, val string
		i := strings.IndexAny(line, "= \t")
		if i < 0 {
			ret[strings.ToLower(line)] = "T"
			break
		}
		key = line[:i]
		if line[i] != '=' {
			ret[strings.ToLower(key)] = "T"
			line = strings.TrimSpace(line[i:])
			continue
		}
		line = line[i+1:]
		if strings.HasPrefix(line, "\"") {
			end := strings.Index(line[1:], "\"")
			if end < 0 {
				val, line = line[1:], ""
			} else {
				val, line = line[1:end+1], line[end+2:]
			}
		} else {
			end := strings.IndexAny(line, " \t")
			if end < 0 {
				val, line = line, ""
			} else {
				val, line = line[:end], line[end:]
			}
		}
		ret[strings.ToLower(key)] = val
		line = strings.TrimSpace(line)
	}
	return ret
}

func parseFloats(s string, n int) ([]float64, error) {
	f := strings.Fields(s)
	if len(f) != n {
		return nil, fmt.Errorf("expected %d numbers, got %d", n, len(f))
	}
	ret := make([]float64, n)
	var err error
	for i, v := range f {
		ret[i], err = strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "t", "true", "1":
		return true
	}
	return false
}

func boolString(b bool) string {
	if b {
		return "T"
	}
	return "F"
}

// XYZFileWrite writes the crystal C to an extended XYZ file with name xyzname,
// which will be created for that. If the file exists it will be overwritten.
func XYZFileWrite(xyzname string, C *Crystal) error {
	out, err := os.Create(xyzname)
	if err != nil {
		return CError{msg: "Unable to create file", filename: xyzname, err: err, deco: []string{"XYZFileWrite"}, critical: true}
	}
	defer out.Close()
	if err := WriteXYZ(out, C); err != nil {
		return errDecorate(err, "XYZFileWrite")
	}
	return out.Close()
}

// WriteXYZ writes the crystal C in extended XYZ format to out.
func WriteXYZ(out io.Writer, C *Crystal) error {
	if err := C.Validate(); err != nil {
		return errDecorate(err, "WriteXYZ")
	}
	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "%d\n", C.Len())
	cell := make([]string, 0, 9)
	for i := 0; i < 3; i++ {
		for _, v := range C.Cell.Vec(i) {
			cell = append(cell, strconv.FormatFloat(v, 'f', 8, 64))
		}
	}
	fmt.Fprintf(w, "Lattice=\"%s\" Properties=species:S:1:pos:R:3", strings.Join(cell, " "))
	keys := make([]string, 0, len(C.Info))
	for k := range C.Info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := C.Info[k]
		if strings.ContainsAny(v, " \t") || v == "" {
			v = "\"" + v + "\""
		}
		fmt.Fprintf(w, " %s=%s", k, v)
	}
	fmt.Fprintf(w, " pbc=\"%s %s %s\"\n", boolString(C.PBC[0]), boolString(C.PBC[1]), boolString(C.PBC[2]))
	for i, a := range C.Atoms {
		c := C.Coords.Vec(i)
		fmt.Fprintf(w, "%-2s %15.8f %15.8f %15.8f\n", a.Symbol, c[0], c[1], c[2])
	}
	if err := w.Flush(); err != nil {
		return CError{msg: "Unable to write XYZ data", err: err, deco: []string{"WriteXYZ"}, critical: true}
	}
	return nil
}
