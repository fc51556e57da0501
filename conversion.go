/*
 * conversion.go, part of evscan.
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

//This provides useful conversion factors and other constants

//Conversions
const (
	Deg2Rad    = 0.017453292519943295
	Rad2Deg    = 1 / Deg2Rad
	Hartree2EV = 27.211386245988 //CODATA 2018
	EV2Hartree = 1 / Hartree2EV
	A2Bohr     = 1.8897261246257702
	Bohr2A     = 1 / A2Bohr
	EVA3ToGPa  = 160.21766208 //eV/A^3 to GPa
)
