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
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

/*
Package crystal is the main package of evscan. It provides atom and crystal structures,
facilities for reading and writing the structure files used to feed crystals to atomistic
calculators, and the deformations needed to scan the energy of a crystal as a function of
its volume.

	**evscan Capabilities**

	Reads/writes extended XYZ files (with the Lattice and pbc keys) and a plain JSON
	structure format that is easy to produce from other programs.

	Builds primitive and conventional cells for common bulk prototypes (package build).

	Scales crystals isotropically, keeping fractional coordinates fixed.

	Computes volumes, lattice parameters, fractional coordinates and reduced
	stoichiometries.

	Delegates energies (and, if available, stresses) to calculators: an in-process
	Lennard-Jones potential, the xtb program, or any external program that speaks a
	small JSON protocol (package calc).

	Scans energy versus volume (package scan) and reports the results as KIM-style
	property instances in EDN or JSON (package property), with optional compressed
	trajectories of the deformed cells (package traj/stf) and plots (package evplot).

Coordinates and lattice vectors are stored in v3.Matrix objects, one vector per row.
All lengths are in Angstrom and all energies in eV unless stated otherwise.
*/
package crystal
