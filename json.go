/*
 * json.go, part of evscan.
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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	v3 "github.com/rmera/evscan/v3"
)

// jsonCrystal is the ready-to-serialize container for a crystal. It is also the
// structure exchanged with external calculators (see package calc).
type jsonCrystal struct {
	Symbols   []string          `json:"symbols"`
	Cell      [][3]float64      `json:"cell"`
	Positions [][3]float64      `json:"positions"`
	PBC       *[3]bool          `json:"pbc,omitempty"`
	Info      map[string]string `json:"info,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (C *Crystal) MarshalJSON() ([]byte, error) {
	if err := C.Validate(); err != nil {
		return nil, errDecorate(err, "MarshalJSON")
	}
	j := jsonCrystal{
		Symbols:   C.Symbols(),
		Cell:      make([][3]float64, 3),
		Positions: make([][3]float64, C.Len()),
		PBC:       &C.PBC,
		Info:      C.Info,
	}
	for i := range j.Cell {
		j.Cell[i] = C.Cell.Vec(i)
	}
	for i := range j.Positions {
		j.Positions[i] = C.Coords.Vec(i)
	}
	return json.Marshal(j)
}

// UnmarshalJSON implements json.Unmarshaler. If the "pbc" field is absent,
// the crystal is taken as periodic in all directions.
func (C *Crystal) UnmarshalJSON(data []byte) error {
	var j jsonCrystal
	if err := json.Unmarshal(data, &j); err != nil {
		return CError{msg: ErrJSONFormat, err: err, deco: []string{"UnmarshalJSON"}, critical: true}
	}
	if len(j.Cell) != 3 {
		return CError{msg: ErrCellShape, deco: []string{"UnmarshalJSON"}, critical: true}
	}
	if len(j.Symbols) != len(j.Positions) || len(j.Symbols) == 0 {
		return CError{msg: fmt.Sprintf("%s: %d symbols, %d positions", ErrShape, len(j.Symbols), len(j.Positions)), deco: []string{"UnmarshalJSON"}, critical: true}
	}
	cell := v3.Zeros(3)
	for i, v := range j.Cell {
		cell.SetVec(i, v)
	}
	coords := v3.Zeros(len(j.Positions))
	atoms := make([]*Atom, len(j.Symbols))
	for i, v := range j.Positions {
		coords.SetVec(i, v)
		atoms[i] = NewAtom(j.Symbols[i])
	}
	nc, err := NewCrystal(atoms, cell, coords)
	if err != nil {
		return errDecorate(err, "UnmarshalJSON")
	}
	if j.PBC != nil {
		nc.PBC = *j.PBC
	}
	for k, v := range j.Info {
		nc.Info[k] = v
	}
	*C = *nc
	return nil
}

// JSONFileRead reads a crystal from a JSON file.
func JSONFileRead(name string) (*Crystal, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, CError{msg: "Unable to open file", filename: name, err: err, deco: []string{"JSONFileRead"}, critical: true}
	}
	C := new(Crystal)
	if err := json.Unmarshal(data, C); err != nil {
		return nil, CError{msg: ErrJSONFormat, filename: name, err: err, deco: []string{"JSONFileRead"}, critical: true}
	}
	return C, nil
}

// JSONFileWrite writes the crystal C to the file name as indented JSON.
func JSONFileWrite(name string, C *Crystal) error {
	data, err := json.MarshalIndent(C, "", "  ")
	if err != nil {
		return CError{msg: ErrJSONFormat, filename: name, err: err, deco: []string{"JSONFileWrite"}, critical: true}
	}
	if err := os.WriteFile(name, append(data, '\n'), 0o644); err != nil {
		return CError{msg: "Unable to write file", filename: name, err: err, deco: []string{"JSONFileWrite"}, critical: true}
	}
	return nil
}

// FileRead reads a crystal from a file, choosing the format from format ("xyz" or "json")
// or, if format is empty, from the extension of the file name.
func FileRead(name, format string) (*Crystal, error) {
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	}
	switch strings.ToLower(format) {
	case "xyz", "extxyz":
		return XYZFileRead(name)
	case "json":
		return JSONFileRead(name)
	}
	return nil, CError{msg: fmt.Sprintf("%s: %q", ErrUnknownFormat, format), filename: name, deco: []string{"FileRead"}, critical: true}
}
