/*
 * interfaces.go, part of evscan.
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
	"strings"
)

// Atomer is the basic interface for a set of atoms.
type Atomer interface {

	//Atom returns the Atom corresponding to the index i
	//of the Atom slice. Should panic if
	//out of range.
	Atom(i int) *Atom

	Len() int
}

//Errors

// Error is the interface for errors that all packages in this library implement. The Decorate method allows to add and retrieve info from the
// error, without changing its type or wrapping it around something else.
type Error interface {
	Error() string
	Decorate(string) []string //Each call also returns the "decoration" slice of strings resulting from the current call. If passed an empty string, it should just return the current value, not add the empty string to the slice.
	Critical() bool
}

// LastFrameError is returned by trajectory readers when the trajectory has no more frames.
// It is not really an error.
type LastFrameError interface {
	Error
	FileName() string
	NormalLastFrameTermination() //does nothing, just to separate this interface from other Error's
}

// CError is the error type returned by the functions in this package.
type CError struct {
	msg      string
	filename string //the file involved, if any.
	deco     []string
	critical bool
	err      error //the underlying error, if any.
}

func (err CError) Error() string {
	var b strings.Builder
	if err.filename != "" {
		fmt.Fprintf(&b, "file %s: ", err.filename)
	}
	b.WriteString(err.msg)
	if err.err != nil {
		fmt.Fprintf(&b, ": %v", err.err)
	}
	return b.String()
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err CError) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

// Critical returns whether the error is critical or it can be ignored.
func (err CError) Critical() bool { return err.critical }

// FileName returns the file associated with the error, or an empty string.
func (err CError) FileName() string { return err.filename }

// Unwrap returns the underlying error, if any.
func (err CError) Unwrap() error { return err.err }

// Is lets errors.Is match two CErrors carrying the same message, so
// the Err* constants can be tested with errors.Is(err, crystal.CError{...}).
func (err CError) Is(target error) bool {
	t, ok := target.(CError)
	return ok && t.msg == err.msg
}

// NewError returns a new critical CError with the given message and
// underlying error (which can be nil).
func NewError(msg string, err error, deco ...string) CError {
	return CError{msg: msg, err: err, deco: deco, critical: true}
}

// errDecorate is a helper function that decorates the error with the caller's
// name before returning it, if the error implements Error. Other errors are
// returned unchanged.
func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(CError); ok {
		e.deco = e.Decorate(caller)
		return e
	}
	return err
}

const (
	ErrNilData       = "Nil data given"
	ErrShape         = "Number of coordinates does not match number of atoms"
	ErrCellShape     = "A cell must have exactly 3 lattice vectors"
	ErrSingularCell  = "The cell has zero volume"
	ErrScale         = "Scale factors must be positive"
	ErrNoCell        = "No lattice information found"
	ErrXYZFormat     = "Ill formatted XYZ file"
	ErrJSONFormat    = "Ill formatted JSON structure"
	ErrUnknownFormat = "Unknown structure file format"
)
