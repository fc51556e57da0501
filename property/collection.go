/*
 * collection.go, part of evscan.
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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"olympos.io/encoding/edn"
)

// WriteEDN writes the instances to w as an EDN vector of maps.
func WriteEDN(w io.Writer, instances []*Instance) error {
	b, err := edn.MarshalIndent(instances, "", "  ")
	if err != nil {
		return Error{"encoding EDN", []string{"WriteEDN"}, err}
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return Error{"writing EDN", []string{"WriteEDN"}, err}
	}
	return nil
}

// WriteJSON writes the instances to w as a JSON array of objects.
func WriteJSON(w io.Writer, instances []*Instance) error {
	b, err := json.MarshalIndent(instances, "", "  ")
	if err != nil {
		return Error{"encoding JSON", []string{"WriteJSON"}, err}
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return Error{"writing JSON", []string{"WriteJSON"}, err}
	}
	return nil
}

// Collection accumulates the property instances computed by a driver.
type Collection struct {
	Dir       string //where files referred by instances are stored
	instances []*Instance
}

// NewCollection returns an empty collection whose files go to dir.
func NewCollection(dir string) *Collection {
	return &Collection{Dir: dir}
}

// Add appends I to the collection, and sets its instance id.
func (C *Collection) Add(I *Instance) {
	C.instances = append(C.instances, I)
	I.InstanceID = len(C.instances)
}

// Instances returns the instances in the collection, in the order they were added.
func (C *Collection) Instances() []*Instance {
	return append([]*Instance(nil), C.instances...)
}

// Len returns the number of instances in the collection.
func (C *Collection) Len() int { return len(C.instances) }

// AddFile moves the file path to the directory of the collection, numbered after the instance
// I (so "plot.png" for instance 2 becomes "plot-2.png"), and adds it to I as the key name.
// I must belong to the collection.
func (C *Collection) AddFile(I *Instance, name, path string) error {
	if I.InstanceID < 1 || I.InstanceID > len(C.instances) || C.instances[I.InstanceID-1] != I {
		return Error{fmt.Sprintf("instance of %s is not in the collection", I.Name()), []string{"AddFile"}, nil}
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	base := fmt.Sprintf("%s-%d%s", stem, I.InstanceID, ext)
	if err := os.MkdirAll(C.Dir, 0o755); err != nil {
		return Error{"creating output directory", []string{"AddFile"}, err}
	}
	dest := filepath.Join(C.Dir, base)
	if err := moveFile(path, dest); err != nil {
		return Error{fmt.Sprintf("moving %s", path), []string{"AddFile"}, err}
	}
	AddKey(I, name, base, "", nil)
	return nil
}

func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	//rename fails across file systems
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

// WriteFile writes all the instances in the collection to the file path, creating its
// directory if needed. A ".json" extension selects JSON, anything else EDN.
func (C *Collection) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Error{"creating output directory", []string{"WriteFile"}, err}
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return Error{"creating results file", []string{"WriteFile"}, err}
	}
	write := WriteEDN
	if strings.EqualFold(filepath.Ext(path), ".json") {
		write = WriteJSON
	}
	if err := write(f, C.instances); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return Error{"closing results file", []string{"WriteFile"}, err}
	}
	return nil
}
