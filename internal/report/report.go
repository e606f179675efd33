// Package report summarises emitter sets per frame and renders the summary
// as an HTML diagnostic page.
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"

	"github.com/lumadata/smlm/internal/emitter"
)

// FrameStat summarises one frame of an emitter set.
type FrameStat struct {
	Frame       int
	Count       int
	PhotTotal   float64
	PhotMean    float64
	PhotStdDev  float64
	MedianProb  float64
	KnownBGRows int
}

// FrameStats computes per-frame summaries over the observed frame range.
// Empty frames appear with zero counts so gaps in acquisition stay visible.
func FrameStats(s *emitter.Set) []FrameStat {
	lo, hi, ok := s.FrameRange()
	if !ok {
		return nil
	}

	groups := emitter.SplitFrames(s, lo, hi)
	out := make([]FrameStat, len(groups))
	for i, g := range groups {
		fs := FrameStat{Frame: lo + i, Count: g.Len()}
		if g.Len() > 0 {
			mean, std := stat.MeanStdDev(g.Phot, nil)
			fs.PhotMean = mean
			if g.Len() > 1 {
				fs.PhotStdDev = std
			}
			for _, p := range g.Phot {
				fs.PhotTotal += p
			}
			probs := append([]float64(nil), g.Prob...)
			fs.MedianProb = median(probs)
			for _, b := range g.BG {
				if !math.IsNaN(b) {
					fs.KnownBGRows++
				}
			}
		}
		out[i] = fs
	}
	return out
}

func median(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	// stat.Quantile needs sorted input.
	sort.Float64s(v)
	return stat.Quantile(0.5, stat.Empirical, v, nil)
}

// WriteHTML renders the per-frame summary as an HTML page with a
// localization-count bar chart and a photon-statistics line chart.
func WriteHTML(w io.Writer, title string, stats []FrameStat) error {
	frames := make([]string, len(stats))
	counts := make([]opts.BarData, len(stats))
	means := make([]opts.LineData, len(stats))
	totals := make([]opts.LineData, len(stats))
	for i, fs := range stats {
		frames[i] = fmt.Sprintf("%d", fs.Frame)
		counts[i] = opts.BarData{Value: fs.Count}
		means[i] = opts.LineData{Value: fs.PhotMean}
		totals[i] = opts.LineData{Value: fs.PhotTotal}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "localizations per frame"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(frames).AddSeries("localizations", counts)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Photons", Subtitle: "per-frame mean and total"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	line.SetXAxis(frames).
		AddSeries("mean photons", means).
		AddSeries("total photons", totals)

	page := components.NewPage()
	page.AddCharts(bar, line)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("report: render: %w", err)
	}
	return nil
}

// WriteHTMLFile renders the summary to a file at path.
func WriteHTMLFile(path, title string, stats []FrameStat) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteHTML(f, title, stats); err != nil {
		return err
	}
	return f.Close()
}
