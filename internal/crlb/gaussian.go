package crlb

import (
	"context"
	"math"
)

// GaussianModel is a closed-form precision bound for emitters imaged through
// an astigmatic 2D Gaussian PSF on a pixelated detector, following the
// Mortensen least-squares bound. It is a reference Model; production
// pipelines usually plug in a Fisher-information model fitted to the real PSF.
type GaussianModel struct {
	// SigmaPSF is the lateral PSF standard deviation in pixel units.
	SigmaPSF float64

	// SigmaZ is the effective axial localization width in the z unit of the
	// coordinate column.
	SigmaZ float64

	// PixelSize is the detector pixel edge length in the lateral unit.
	PixelSize float64

	// DefaultBG substitutes for rows whose background is NaN ("unknown").
	DefaultBG float64
}

// DefaultGaussianModel returns parameters typical for an EMCCD SMLM setup.
func DefaultGaussianModel() GaussianModel {
	return GaussianModel{
		SigmaPSF:  1.3,   // px
		SigmaZ:    250.0, // nm
		PixelSize: 1.0,   // coordinates already in px
		DefaultBG: 10.0,  // photons / px
	}
}

// Estimate computes per-emitter squared bounds. Rows with non-positive
// photon counts get NaN bounds (nothing can be estimated from them).
func (m GaussianModel) Estimate(_ context.Context, xyz [][3]float64, phot, bg []float64) (Bounds, error) {
	n := len(xyz)
	b := Bounds{
		XYZCR:  make([][3]float64, n),
		PhotCR: make([]float64, n),
		BGCR:   make([]float64, n),
	}

	// sigma_a^2 folds pixelation into the PSF width.
	sa2 := m.SigmaPSF*m.SigmaPSF + m.PixelSize*m.PixelSize/12

	for i := 0; i < n; i++ {
		nPhot := phot[i]
		if nPhot <= 0 {
			nan := math.NaN()
			b.XYZCR[i] = [3]float64{nan, nan, nan}
			b.PhotCR[i] = nan
			b.BGCR[i] = nan
			continue
		}
		bgi := bg[i]
		if math.IsNaN(bgi) {
			bgi = m.DefaultBG
		}

		// Mortensen: var = sigma_a^2/N * (16/9 + 8 pi sigma_a^2 b / (N a^2)).
		excess := 16.0/9.0 + 8*math.Pi*sa2*bgi/(nPhot*m.PixelSize*m.PixelSize)
		lateral := sa2 / nPhot * excess
		axial := m.SigmaZ * m.SigmaZ / nPhot * excess

		b.XYZCR[i] = [3]float64{lateral, lateral, axial}
		// Photon counting is shot-noise limited; background adds per-pixel
		// Poisson variance over the effective PSF footprint.
		b.PhotCR[i] = nPhot + 4*math.Pi*sa2*bgi
		b.BGCR[i] = bgi
	}
	return b, nil
}
