/*
 * sampler_test.go, part of evscan.
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

package scan_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	crystal "github.com/rmera/evscan"
	"github.com/rmera/evscan/build"
	"github.com/rmera/evscan/calc"
	"github.com/rmera/evscan/scan"
)

var _ = Describe("Run with a Lennard-Jones argon crystal", func() {
	var (
		base    *crystal.Crystal
		lj      *calc.LennardJones
		factors []float64
	)

	BeforeEach(func() {
		var err error
		//close to the equilibrium lattice constant for sigma = 1
		base, err = build.Bulk("Ar", "fcc", 1.55, build.Cubic())
		Expect(err).NotTo(HaveOccurred())
		lj = &calc.LennardJones{Epsilon: 1, Sigma: 1, Cutoff: 2.5, Shift: true}
		factors, err = scan.ScaleFactors(0.2, 4)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should return one sample per scale factor, in order", func() {
		curve, err := scan.Run(context.Background(), base, lj, scan.Options{ScaleFactors: factors})
		Expect(err).NotTo(HaveOccurred())
		Expect(curve.Samples).To(HaveLen(len(factors)))
		for i, s := range curve.Samples {
			Expect(s.Index).To(Equal(i))
			Expect(s.Volume).To(BeNumerically("~", base.Volume()*factors[i], 1e-9))
		}
	})

	It("should give a curve with its minimum inside the scanned range", func() {
		curve, err := scan.Run(context.Background(), base, lj, scan.Options{ScaleFactors: factors})
		Expect(err).NotTo(HaveOccurred())
		m, ok := curve.Minimum()
		Expect(ok).To(BeTrue())
		Expect(m.Index).To(BeNumerically(">", 0))
		Expect(m.Index).To(BeNumerically("<", len(factors)-1))
	})

	It("should give compressed cells a negative pressure trace and stretched cells a positive one", func() {
		curve, err := scan.Run(context.Background(), base, lj, scan.Options{ScaleFactors: []float64{0.8, 1.2}})
		Expect(err).NotTo(HaveOccurred())
		Expect(curve.Samples[0].Stress[0]).To(BeNumerically("<", 0))
		Expect(curve.Samples[1].Stress[0]).To(BeNumerically(">", 0))
	})

	It("should preserve fractional coordinates in the deformed cells", func() {
		ref, err := base.FractionalCoords()
		Expect(err).NotTo(HaveOccurred())
		_, err = scan.Run(context.Background(), base, lj, scan.Options{
			ScaleFactors: factors,
			OnPoint: func(s scan.Sample, C *crystal.Crystal) error {
				frac, err := C.FractionalCoords()
				if err != nil {
					return err
				}
				Expect(frac.Equal(ref, 1e-12)).To(BeTrue())
				Expect(math.Cbrt(C.Volume()/base.Volume())).To(BeNumerically("~", s.LinearScale, 1e-12))
				return nil
			},
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Context("when the context is cancelled", func() {
		It("should stop before evaluating any point", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			curve, err := scan.Run(ctx, base, lj, scan.Options{ScaleFactors: factors, Tolerant: true})
			Expect(err).To(MatchError(context.Canceled))
			Expect(curve).To(BeNil())
		})
	})
})
