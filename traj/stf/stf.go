/*
 * stf.go, part of evscan.
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

package stf

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/lzw"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	crystal "github.com/rmera/evscan"
	v3 "github.com/rmera/evscan/v3"
)

const (
	lzwLitwidth int = 8
	DefaultPrec     = 4
)

// compression returns the compression to be used for the file name, which is
// given by the last letter of the extension.
func compression(name string) byte {
	if name == "" {
		return 's'
	}
	return strings.ToLower(name)[len(name)-1]
}

//Write!

// Writer writes an stf trajectory.
type Writer struct {
	f         *os.File
	h         io.WriteCloser
	b         *bufio.Writer
	natoms    int
	filename  string
	writeable bool
	prec      int
	p         float64 //10^prec
}

// NewWriter creates the trajectory file name for frames of natoms atoms, and writes
// the header, whose keys are written in alphabetical order. The "prec" key, if
// present, sets the precision.
func NewWriter(name string, natoms int, header map[string]string) (*Writer, error) {
	if natoms < 1 {
		return nil, Error{fmt.Sprintf("%s: %d atoms", WrongFormat, natoms), name, []string{"NewWriter"}, true}
	}
	S := &Writer{natoms: natoms, filename: name, prec: DefaultPrec}
	if p, ok := header["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err != nil || prec < 1 {
			return nil, Error{fmt.Sprintf("invalid precision %q", p), name, []string{"NewWriter"}, true}
		}
		S.prec = prec
	}
	S.p = math.Pow(10, float64(S.prec))
	var err error
	S.f, err = os.Create(name)
	if err != nil {
		return nil, Error{UnableToOpen + ": " + err.Error(), name, []string{"os.Create", "NewWriter"}, true}
	}
	switch compression(name) {
	case 'l':
		S.h = lzw.NewWriter(S.f, lzw.MSB, lzwLitwidth)
	case 'z':
		S.h, err = gzip.NewWriterLevel(S.f, gzip.BestCompression)
	case 'r':
		S.h, err = flate.NewWriter(S.f, flate.BestCompression)
	default:
		S.h, err = zstd.NewWriter(S.f, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	}
	if err != nil {
		S.f.Close()
		return nil, Error{"Can't create compressor: " + err.Error(), name, []string{"NewWriter"}, true}
	}
	S.b = bufio.NewWriter(S.h)
	S.writeable = true
	keys := make([]string, 0, len(header)+1)
	for k := range header {
		if k != "prec" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	fmt.Fprintf(S.b, "prec=%d\n", S.prec)
	for _, k := range keys {
		v := header[k]
		if k == "" || strings.ContainsAny(k, "=\n") || strings.Contains(v, "\n") || strings.HasPrefix(k, "**") {
			S.Close()
			return nil, Error{fmt.Sprintf("%s: header entry %q", WrongFormat, k), name, []string{"NewWriter"}, true}
		}
		fmt.Fprintf(S.b, "%s=%s\n", k, v)
	}
	fmt.Fprintf(S.b, "** %d\n", S.natoms)
	return S, nil
}

// Close flushes and closes the trajectory. The writer can't be used afterwards.
func (S *Writer) Close() error {
	if S == nil || !S.writeable {
		return nil
	}
	S.writeable = false
	err := S.b.Flush()
	if err2 := S.h.Close(); err == nil {
		err = err2
	}
	if err2 := S.f.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return Error{"Can't close trajectory: " + err.Error(), S.filename, []string{"Close"}, true}
	}
	return nil
}

// Len returns the number of atoms per frame.
func (S *Writer) Len() int {
	return S.natoms
}

// WNext writes a frame with the coordinates coord and, if given, the box, which
// must contain the 9 components of the 3 lattice vectors.
func (S *Writer) WNext(coord *v3.Matrix, box ...[]float64) error {
	if !S.writeable {
		return Error{TrajUnIniWrite, S.filename, []string{"WNext"}, true}
	}
	if coord == nil {
		return Error{NilCoordinates, S.filename, []string{"WNext"}, true}
	}
	v := coord.NVecs()
	if v != S.natoms {
		return Error{fmt.Sprintf("%d coordinates given, but %d expected", v, S.natoms), S.filename, []string{"WNext"}, true}
	}
	for i := 0; i < v; i++ {
		S.b.WriteString(coordsEncode(coord.Vec(i), S.p))
	}
	if len(box) > 0 && len(box[0]) >= 9 {
		b := box[0]
		S.b.WriteString("*")
		for _, x := range b[:9] {
			S.b.WriteString(" " + strconv.FormatFloat(x, 'f', -1, 64))
		}
		S.b.WriteString("\n")
	} else {
		S.b.WriteString("*\n")
	}
	if err := S.b.Flush(); err != nil {
		return Error{"Can't write frame: " + err.Error(), S.filename, []string{"WNext"}, true}
	}
	return nil
}

// WCrystal writes a frame with the coordinates and the cell of C.
func (S *Writer) WCrystal(C *crystal.Crystal) error {
	if C == nil || C.Cell == nil {
		return Error{NilCoordinates, S.filename, []string{"WCrystal"}, true}
	}
	box := make([]float64, 0, 9)
	for i := 0; i < 3; i++ {
		r := C.Cell.Vec(i)
		box = append(box, r[:]...)
	}
	if err := S.WNext(C.Coords, box); err != nil {
		return errDecorate(err, "WCrystal")
	}
	return nil
}

func coordsEncode(f [3]float64, p float64) string {
	var temp [3]int
	for i, v := range f {
		temp[i] = int(math.RoundToEven(v * p))
	}
	return fmt.Sprintf("%d %d %d\n", temp[0], temp[1], temp[2])
}

//Read!

// Reader reads an stf trajectory.
type Reader struct {
	f        *os.File
	dec      io.ReadCloser
	h        *bufio.Reader
	natoms   int
	filename string
	prec     int
	p        float64
	readable bool
}

// zstd.Decoder's Close doesn't return an error, so it is not an io.ReadCloser.
type zstdCloser struct {
	*zstd.Decoder
}

func (z zstdCloser) Close() error {
	z.Decoder.Close()
	return nil
}

// New opens a STF trajectory for reading, and returns the reader,
// a map with the header (which is never nil) and error or nil.
func New(name string) (*Reader, map[string]string, error) {
	S := &Reader{filename: name, natoms: -1, prec: DefaultPrec}
	m := make(map[string]string)
	var err error
	S.f, err = os.Open(name)
	if err != nil {
		return nil, nil, Error{UnableToOpen + ": " + err.Error(), name, []string{"os.Open", "New"}, true}
	}
	in := bufio.NewReader(S.f)
	switch compression(name) {
	case 'l':
		S.dec = lzw.NewReader(in, lzw.MSB, lzwLitwidth)
	case 'z':
		S.dec, err = gzip.NewReader(in)
	case 'r':
		S.dec = flate.NewReader(in)
	default:
		var d *zstd.Decoder
		d, err = zstd.NewReader(in)
		if err == nil {
			S.dec = zstdCloser{d}
		}
	}
	if err != nil {
		S.f.Close()
		return nil, nil, Error{"Can't read header: " + err.Error(), name, []string{"New"}, true}
	}
	S.h = bufio.NewReader(S.dec)
	for {
		str, err := S.h.ReadString('\n')
		if err != nil {
			S.close()
			return nil, nil, Error{"Can't read header: " + err.Error(), name, []string{"New"}, true}
		}
		str = strings.TrimSuffix(str, "\n")
		if strings.HasPrefix(str, "**") {
			nat := strings.Fields(str)
			if len(nat) < 2 {
				S.close()
				return nil, nil, Error{fmt.Sprintf("Can't read atom number from '%s'", str), name, []string{"New"}, true}
			}
			S.natoms, err = strconv.Atoi(nat[1])
			if err != nil {
				S.close()
				return nil, nil, Error{fmt.Sprintf("Can't read atom number from '%s': %s", nat[1], err.Error()), name, []string{"New"}, true}
			}
			break
		}
		k, v, ok := strings.Cut(str, "=")
		if !ok {
			S.close()
			return nil, nil, Error{WrongFormat + ": malformed header line " + str, name, []string{"New"}, true}
		}
		m[k] = v
	}
	if p, ok := m["prec"]; ok {
		S.prec, err = strconv.Atoi(p)
		if err != nil || S.prec < 1 {
			S.close()
			return nil, nil, Error{fmt.Sprintf("invalid precision %q", p), name, []string{"New"}, true}
		}
	}
	S.p = math.Pow(10, float64(S.prec))
	S.readable = true
	return S, m, nil
}

// Readable returns true if the handle is readable (if it is possible to call Next on it)
func (S *Reader) Readable() bool {
	return S.readable
}

func coordsDecode(str string, temp *[3]float64, p float64) error {
	s := strings.Fields(str)
	if len(s) != 3 {
		return fmt.Errorf("ill formatted coordinates line: %d fields: %s", len(s), str)
	}
	for i, v := range s {
		f, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("can't parse coordinate %d (%s): %w", i, v, err)
		}
		temp[i] = float64(f) / p
	}
	return nil
}

// Next puts in c the coordinates of the next frame of the trajectory and, if given and the
// information is present in the file, the box vectors in box. If c is nil, the frame is
// read and checked, but discarded. At the end of the trajectory, Next returns an error
// that implements crystal.LastFrameError.
func (S *Reader) Next(c *v3.Matrix, box ...[]float64) error {
	if !S.readable {
		return Error{TrajUnIniRead, S.filename, []string{"Next"}, true}
	}
	var temp [3]float64
	for i := 0; i < S.natoms; i++ {
		b, err := S.h.ReadString('\n')
		if err != nil {
			// EOF should only happen when reading the first atom
			if errors.Is(err, io.EOF) && i == 0 && b == "" {
				S.close()
				return newlastFrameError(S.filename, "Next")
			}
			return Error{ReadError + ": " + err.Error(), S.filename, []string{"Next"}, true}
		}
		if err := coordsDecode(strings.TrimSuffix(b, "\n"), &temp, S.p); err != nil {
			return Error{WrongFormat + ": " + err.Error(), S.filename, []string{"Next"}, true}
		}
		if c == nil {
			continue
		}
		c.SetVec(i, temp)
	}
	s, err := S.h.ReadString('\n')
	if err != nil {
		return Error{"Can't read the frame termination mark: " + err.Error(), S.filename, []string{"Next"}, true}
	}
	if s == "" || s[0] != '*' {
		return Error{WrongFormat + ": wrong number of atoms in frame", S.filename, []string{"Next"}, true}
	}
	if len(box) == 0 || len(box[0]) < 9 {
		return nil
	}
	fields := strings.Fields(s)
	if len(fields) < 10 {
		return Error{WrongFormat + ": frame has no box information", S.filename, []string{"Next"}, true}
	}
	for j, v := range fields[1:10] {
		box[0][j], err = strconv.ParseFloat(v, 64)
		if err != nil {
			return Error{WrongFormat + ": can't parse box: " + err.Error(), S.filename, []string{"Next"}, true}
		}
	}
	return nil
}

func (S *Reader) close() {
	if S.dec != nil {
		S.dec.Close()
	}
	S.f.Close()
	S.readable = false
}

// Close closes the object, and marks it as unreadable
func (S *Reader) Close() {
	if !S.readable {
		return
	}
	S.close()
}

// Len returns the number of atoms in each frame of the trajectory.
func (S *Reader) Len() int {
	return S.natoms
}

// ReadAll reads all the frames of an stf trajectory written by evscan, and returns
// them as crystals. The file must contain the species header and the cell of each frame.
func ReadAll(name string) ([]*crystal.Crystal, error) {
	S, head, err := New(name)
	if err != nil {
		return nil, errDecorate(err, "ReadAll")
	}
	defer S.Close()
	species := strings.Fields(head["species"])
	if len(species) != S.Len() {
		return nil, Error{fmt.Sprintf("%s: %d species for %d atoms", WrongFormat, len(species), S.Len()), name, []string{"ReadAll"}, true}
	}
	var ret []*crystal.Crystal
	for {
		coords := v3.Zeros(S.Len())
		box := make([]float64, 9)
		err := S.Next(coords, box)
		if err != nil {
			if _, ok := err.(crystal.LastFrameError); ok {
				return ret, nil
			}
			return nil, errDecorate(err, "ReadAll")
		}
		cell, err := v3.NewMatrix(box)
		if err != nil {
			return nil, Error{WrongFormat + ": " + err.Error(), name, []string{"ReadAll"}, true}
		}
		atoms := make([]*crystal.Atom, len(species))
		for i, s := range species {
			atoms[i] = crystal.NewAtom(s)
		}
		C, err := crystal.NewCrystal(atoms, cell, coords)
		if err != nil {
			return nil, Error{WrongFormat + ": " + err.Error(), name, []string{"ReadAll"}, true}
		}
		ret = append(ret, C)
	}
}

//Errors

// errDecorate decorates the error with the caller's name before returning it,
// if the error implements crystal.Error.
func errDecorate(err error, caller string) error {
	if e, ok := err.(crystal.Error); ok {
		e.Decorate(caller)
	}
	return err
}

// Error is the general structure for stf trajectory errors. It fulfills crystal.Error.
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("stf file %s error: %s", err.filename, err.message)
}

// Decorate Adds new information to the error
func (E Error) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

// FileName returns the file to which the failing trajectory was associated
func (err Error) FileName() string { return err.filename }

// Format returns the format of the file (always "stf") associated to the error
func (err Error) Format() string { return "stf" }

// Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

const (
	TrajUnIniRead  = "Traj object uninitialized to read"
	TrajUnIniWrite = "Traj object uninitialized to write"
	ReadError      = "Error reading frame"
	UnableToOpen   = "Unable to open file"
	NilCoordinates = "Given nil coordinates"
	WrongFormat    = "Wrong format in the STF file or frame"
)

// lastFrameError implements crystal.LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
}

// NormalLastFrameTermination does nothing
func (E *lastFrameError) NormalLastFrameTermination() {}

func (E *lastFrameError) FileName() string { return E.fileName }

func (E *lastFrameError) Error() string { return "EOF" }

func (E *lastFrameError) Critical() bool { return false }

func (E *lastFrameError) Format() string { return "stf" }

func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(filename string, caller string) *lastFrameError {
	return &lastFrameError{fileName: filename, deco: []string{caller}}
}
