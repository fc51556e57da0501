/*
 * doc.go, part of evscan.
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

/******************** Format Specification   ***************************************************

An STF file has the extension stf, and it is compressed with z-standard (zstd). The extensions
stz, str and stl select gzip, flate and lzw compression, respectively, instead.

A STF file may only contain ASCII symbols.

A STF file has a "header" starting in the first line, and ending with a line that starts with the
characters "**" followed by one or more spaces, and the number of atoms per frame.

Each line of the header must be a pair key=value. The precision (an integer greater than 0,
see below) is given with the key "prec". evscan also writes the key "species", with the
element symbols of all atoms separated by spaces, "formula", and "scale_factors", with the volume
scale factor of each frame, separated by spaces. For example:

prec=4
species=Zn S

After the header, the file has one line per atom, per frame. Each line contains 3 integers,
the x y and z cartesian coordinates in Angstrom, multiplied by 10 to the power of the precision,
and rounded.

Each frame ends with a line starting with the character "*" (no whitespaces before), optionally
followed by one or more whitespace and 9 floating-point numbers separated by spaces. If present,
these numbers are the 3 lattice vectors of the cell, in Angstrom.

The "**" sequence may only be used as a header termination, as described above and can not appear
anywhere else in the file.

***************************************************************************************************/

//Package stf implements the simple trajectory format, used by evscan to record
//the deformed cells of a scan. stf aims to produce reasonably small files and to be very easy
//to read and write, so readers/writers can be easily implemented in other programing languages.
package stf
