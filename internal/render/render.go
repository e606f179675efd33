// Package render rasterizes emitter sets into 2D photon-weighted histograms
// and renders them to image files for quick visual inspection.
package render

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/lumadata/smlm/internal/emitter"
)

// HistogramConfig controls the binning of Histogram2D.
type HistogramConfig struct {
	// BinsX, BinsY are the grid dimensions.
	BinsX, BinsY int

	// XMin, XMax, YMin, YMax fix the histogram extent. When XMin == XMax or
	// YMin == YMax the extent is taken from the data.
	XMin, XMax float64
	YMin, YMax float64

	// WeightByPhotons accumulates photon counts instead of localizations.
	WeightByPhotons bool
}

// DefaultHistogramConfig returns a 512x512 auto-extent photon-weighted grid.
func DefaultHistogramConfig() HistogramConfig {
	return HistogramConfig{BinsX: 512, BinsY: 512, WeightByPhotons: true}
}

// Histogram is a binned 2D view of an emitter set. It implements
// plotter.GridXYZ.
type Histogram struct {
	counts     []float64
	nx, ny     int
	xmin, ymin float64
	dx, dy     float64
}

// Histogram2D bins the lateral emitter coordinates into a grid.
func Histogram2D(s *emitter.Set, cfg HistogramConfig) (*Histogram, error) {
	if cfg.BinsX <= 0 || cfg.BinsY <= 0 {
		return nil, fmt.Errorf("render: non-positive bin count %dx%d", cfg.BinsX, cfg.BinsY)
	}

	xmin, xmax := cfg.XMin, cfg.XMax
	ymin, ymax := cfg.YMin, cfg.YMax
	if xmin == xmax || ymin == ymax {
		if s.Len() == 0 {
			// No data and no extent; an empty unit grid is the only sane answer.
			xmin, xmax, ymin, ymax = 0, 1, 0, 1
		} else {
			xmin, xmax = math.Inf(1), math.Inf(-1)
			ymin, ymax = math.Inf(1), math.Inf(-1)
			for _, p := range s.XYZ {
				xmin = math.Min(xmin, p[0])
				xmax = math.Max(xmax, p[0])
				ymin = math.Min(ymin, p[1])
				ymax = math.Max(ymax, p[1])
			}
			if xmin == xmax {
				xmax = xmin + 1
			}
			if ymin == ymax {
				ymax = ymin + 1
			}
		}
	}

	h := &Histogram{
		counts: make([]float64, cfg.BinsX*cfg.BinsY),
		nx:     cfg.BinsX,
		ny:     cfg.BinsY,
		xmin:   xmin,
		ymin:   ymin,
		dx:     (xmax - xmin) / float64(cfg.BinsX),
		dy:     (ymax - ymin) / float64(cfg.BinsY),
	}

	for i, p := range s.XYZ {
		cx := int((p[0] - xmin) / h.dx)
		cy := int((p[1] - ymin) / h.dy)
		if cx < 0 || cx >= h.nx || cy < 0 || cy >= h.ny {
			continue
		}
		w := 1.0
		if cfg.WeightByPhotons {
			w = s.Phot[i]
		}
		h.counts[cy*h.nx+cx] += w
	}
	return h, nil
}

// Dims returns the grid dimensions.
func (h *Histogram) Dims() (c, r int) { return h.nx, h.ny }

// X returns the centre coordinate of column c.
func (h *Histogram) X(c int) float64 { return h.xmin + (float64(c)+0.5)*h.dx }

// Y returns the centre coordinate of row r.
func (h *Histogram) Y(r int) float64 { return h.ymin + (float64(r)+0.5)*h.dy }

// Z returns the accumulated weight in cell (c, r).
func (h *Histogram) Z(c, r int) float64 { return h.counts[r*h.nx+c] }

// Max returns the largest cell weight.
func (h *Histogram) Max() float64 {
	max := 0.0
	for _, v := range h.counts {
		if v > max {
			max = v
		}
	}
	return max
}

// SavePNG renders the histogram as a heat map image.
func SavePNG(h *Histogram, path string) error {
	p := plot.New()
	p.Title.Text = "Localization density"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	hm := plotter.NewHeatMap(h, palette.Heat(64, 1))
	p.Add(hm)

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("render: save %s: %w", path, err)
	}
	return nil
}

// SaveScatterPNG renders the raw localizations as a scatter plot.
func SaveScatterPNG(s *emitter.Set, path string) error {
	p := plot.New()
	p.Title.Text = "Localizations"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	pts := make(plotter.XYs, s.Len())
	for i, q := range s.XYZ {
		pts[i].X = q[0]
		pts[i].Y = q[1]
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("render: scatter: %w", err)
	}
	sc.Radius = vg.Points(1)
	p.Add(sc)

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("render: save %s: %w", path, err)
	}
	return nil
}
