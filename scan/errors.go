/*
 * errors.go, part of evscan.
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

package scan

import (
	"errors"
	"fmt"
)

var (
	ErrNoFactors = errors.New("no scale factors given")
	ErrBadFactor = errors.New("scale factors must be positive and finite")
	ErrBadRange  = errors.New("invalid scan range")
	ErrNoSamples = errors.New("no deformation of the unit cell could be evaluated")
)

// Error is the error type for problems with the scan as a whole. It fulfills crystal.Error.
type Error struct {
	message string
	deco    []string
	err     error
}

func (err Error) Error() string {
	if err.message == "" {
		return fmt.Sprintf("scan: %v", err.err)
	}
	return fmt.Sprintf("scan: %v: %s", err.err, err.message)
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// Critical returns true. Scan errors always stop the scan.
func (err Error) Critical() bool { return true }

func (err Error) Unwrap() error { return err.err }

// PointError reports the failure of the calculator for one of the deformed cells.
type PointError struct {
	Index       int     //position of the point in the scale factor sequence
	VolumeScale float64 //the volume scale factor of the point
	Volume      float64 //the volume of the deformed cell, A^3
	Err         error
	deco        []string
}

func (err *PointError) Error() string {
	return fmt.Sprintf("scan: point %d (volume scale %g, volume %g A^3): %v", err.Index, err.VolumeScale, err.Volume, err.Err)
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err *PointError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// Critical returns true.
func (err *PointError) Critical() bool { return true }

func (err *PointError) Unwrap() error { return err.Err }
