/*
 * evplot.go, part of evscan.
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

// Package evplot plots energy-volume curves.
package evplot

import (
	"fmt"
	"image/color"

	"github.com/rmera/evscan/scan"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Size of the saved plots.
var (
	Width  = 5 * vg.Inch
	Height = 4 * vg.Inch
)

func basicEVPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = "Volume per atom (Å³)"
	p.Y.Label.Text = "Energy per atom (eV)"
	p.Add(plotter.NewGrid())
	return p
}

// Curve returns a plot of the energy per atom against the volume per atom for curve.
// The sample with the lowest energy is marked.
func Curve(curve *scan.Curve, title string) (*plot.Plot, error) {
	if curve == nil || len(curve.Samples) == 0 {
		return nil, fmt.Errorf("evplot: no samples to plot")
	}
	if title == "" {
		title = curve.Formula
	}
	p := basicEVPlot(title)
	pts := make(plotter.XYs, len(curve.Samples))
	for i, s := range curve.Samples {
		pts[i].X = s.VolumePerAtom
		pts[i].Y = s.EnergyPerAtom
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("evplot: %w", err)
	}
	line.Color = color.RGBA{B: 200, A: 255}
	points.Shape = draw.CircleGlyph{}
	points.Color = color.RGBA{B: 200, A: 255}
	p.Add(line, points)

	m, _ := curve.Minimum()
	min, err := plotter.NewScatter(plotter.XYs{{X: m.VolumePerAtom, Y: m.EnergyPerAtom}})
	if err != nil {
		return nil, fmt.Errorf("evplot: %w", err)
	}
	min.GlyphStyle.Shape = draw.CrossGlyph{}
	min.GlyphStyle.Radius = vg.Points(5)
	min.GlyphStyle.Color = color.RGBA{R: 255, A: 255}
	p.Add(min)
	p.Legend.Add(fmt.Sprintf("minimum, %.4g Å³", m.VolumePerAtom), min)
	p.Legend.Top = true
	return p, nil
}

// Save plots curve and saves it to path. The format is chosen from the extension
// of path (png, svg, pdf, eps, jpg...).
func Save(curve *scan.Curve, title, path string) error {
	p, err := Curve(curve, title)
	if err != nil {
		return err
	}
	if err := p.Save(Width, Height, path); err != nil {
		return fmt.Errorf("evplot: saving %s: %w", path, err)
	}
	return nil
}
