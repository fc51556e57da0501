/*
 * property.go, part of evscan.
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

// Package property builds property instances in the format of the OpenKIM
// properties framework, and writes them as EDN or JSON.
//
// An instance is an ordered set of keys. Each key normally holds a map with a
// "source-value", a "source-unit" and, optionally, uncertainty information.
package property

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"olympos.io/encoding/edn"
)

const idPrefix = "tag:staff@noreply.openkim.org,2023-02-21:property/"

// Property names used by evscan.
const (
	EnergyVsVolumeName      = "energy-vs-volume-isotropic-crystal"
	CrystalStructureNPTName = "crystal-structure-npt"
)

// PropertyID returns the full property id for name, which can be either a
// short property name or a full id.
func PropertyID(name string) string {
	if strings.HasPrefix(name, "tag:") {
		return name
	}
	return idPrefix + name
}

// Instance is a property instance.
type Instance struct {
	PropertyID string
	InstanceID int    //1-based position in its collection, 0 if not in one
	Disclaimer string //optional
	keys       []string
	values     map[string]any
}

// NewInstance returns an empty instance of the property name (a short name or a full id),
// with the given disclaimer, which can be empty.
func NewInstance(name, disclaimer string) *Instance {
	return &Instance{PropertyID: PropertyID(name), Disclaimer: disclaimer, values: map[string]any{}}
}

// Set sets the key to value. New keys are added at the end, existing ones keep their position.
func (I *Instance) Set(key string, value any) {
	if _, ok := I.values[key]; !ok {
		I.keys = append(I.keys, key)
	}
	I.values[key] = value
}

// Get returns the value for key, and whether the key was present.
func (I *Instance) Get(key string) (any, bool) {
	v, ok := I.values[key]
	return v, ok
}

// Keys returns the keys of the instance, in order. The property id, the
// instance id and the disclaimer are not included.
func (I *Instance) Keys() []string {
	return append([]string(nil), I.keys...)
}

// Name returns the short name of the property.
func (I *Instance) Name() string {
	return strings.TrimPrefix(I.PropertyID, idPrefix)
}

type field struct {
	key   string
	value any
}

func (I *Instance) fields() []field {
	ret := make([]field, 0, len(I.keys)+3)
	ret = append(ret, field{"property-id", I.PropertyID}, field{"instance-id", I.InstanceID})
	if I.Disclaimer != "" {
		ret = append(ret, field{"disclaimer", I.Disclaimer})
	}
	for _, k := range I.keys {
		ret = append(ret, field{k, I.values[k]})
	}
	return ret
}

// MarshalEDN encodes the instance as an EDN map with string keys, keeping the key order.
func (I *Instance) MarshalEDN() ([]byte, error) {
	return marshalOrdered(I.fields(), edn.Marshal, " ", " ")
}

// MarshalJSON encodes the instance as a JSON object, keeping the key order.
func (I *Instance) MarshalJSON() ([]byte, error) {
	return marshalOrdered(I.fields(), json.Marshal, ":", ",")
}

// marshalOrdered encodes fields as a map, with pairSep between each key and its value
// and itemSep between pairs.
func marshalOrdered(fields []field, marshal func(any) ([]byte, error), pairSep, itemSep string) ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			b.WriteString(itemSep)
		}
		k, err := marshal(f.key)
		if err != nil {
			return nil, Error{fmt.Sprintf("key %q", f.key), []string{"marshalOrdered"}, err}
		}
		v, err := marshal(f.value)
		if err != nil {
			return nil, Error{fmt.Sprintf("value of %q", f.key), []string{"marshalOrdered"}, err}
		}
		b.Write(k)
		b.WriteString(pairSep)
		b.Write(v)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// AddKey sets the key name in I to a map with the given value, unit and uncertainty
// information (which can be nil). An empty unit is omitted.
func AddKey(I *Instance, name string, value any, unit string, uncertainty map[string]any) {
	m := map[string]any{"source-value": value}
	if unit != "" {
		m["source-unit"] = unit
	}
	for k, v := range uncertainty {
		m[k] = v
	}
	I.Set(name, m)
}

// Error is the error type for this package. It fulfills crystal.Error.
type Error struct {
	message string
	deco    []string
	err     error
}

func (err Error) Error() string {
	if err.err == nil {
		return "property: " + err.message
	}
	return fmt.Sprintf("property: %s: %v", err.message, err.err)
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// Critical returns true.
func (err Error) Critical() bool { return true }

func (err Error) Unwrap() error { return err.err }
