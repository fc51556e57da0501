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

// Package calc implements the calculators that provide energies for the
// crystals generated during a scan.
//
// LennardJones is computed in-process and is mostly useful for testing and
// for quick demonstrations. Command runs any external program that speaks a
// small JSON protocol on its standard input and output, which is the
// easiest way of using ASE calculators or KIM models from evscan. XTB
// runs the xtb program with periodic boundary conditions.
//
// In order to use XTB you need the xtb program, which must be obtained
// from Prof. Stefan Grimme's group. Please cite the xtb references if
// you use the program.
package calc
