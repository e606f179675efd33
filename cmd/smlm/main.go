// Package main provides the smlm command line tool: rasterize blink models
// into per-frame localization records, transform and merge localization
// files, estimate precision bounds and render diagnostic output.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/lumadata/smlm/internal/blink"
	"github.com/lumadata/smlm/internal/crlb"
	"github.com/lumadata/smlm/internal/emitcsv"
	"github.com/lumadata/smlm/internal/emitter"
	"github.com/lumadata/smlm/internal/emitterdb"
	"github.com/lumadata/smlm/internal/render"
	"github.com/lumadata/smlm/internal/report"
	"github.com/lumadata/smlm/internal/version"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: smlm <command> [flags]

commands:
  rasterize   convert a blink-event CSV (id,x,y,z,t0,ontime,intensity) into per-frame records
  convert     apply a scale/shift/axis coordinate conversion to a localization CSV
  crlb        populate precision bounds using the built-in Gaussian PSF model
  import      store a localization CSV as a dataset in a sqlite database
  export      write a stored dataset back out as CSV
  render      render a localization CSV as a density PNG
  report      write an HTML per-frame summary of a localization CSV
  version     print build information
`)
	os.Exit(2)
}

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
	}

	var err error
	switch os.Args[1] {
	case "rasterize":
		err = cmdRasterize(os.Args[2:])
	case "convert":
		err = cmdConvert(os.Args[2:])
	case "crlb":
		err = cmdCRLB(os.Args[2:])
	case "import":
		err = cmdImport(os.Args[2:])
	case "export":
		err = cmdExport(os.Args[2:])
	case "render":
		err = cmdRender(os.Args[2:])
	case "report":
		err = cmdReport(os.Args[2:])
	case "version":
		fmt.Println("smlm", version.String())
	default:
		usage()
	}
	if err != nil {
		log.Fatalf("smlm %s: %v", os.Args[1], err)
	}
}

func cmdRasterize(args []string) error {
	fs := flag.NewFlagSet("rasterize", flag.ExitOnError)
	in := fs.String("in", "", "blink-event CSV: id,x,y,z,t0,ontime,intensity")
	out := fs.String("out", "", "output localization CSV")
	sorted := fs.Bool("sort", false, "sort output by frame index")
	comment := fs.String("comment", "", "free-text export comment")
	fs.Parse(args)
	if *in == "" || *out == "" {
		return fmt.Errorf("-in and -out are required")
	}

	loose, err := readLooseCSV(*in)
	if err != nil {
		return err
	}
	set, err := loose.Rasterize()
	if err != nil {
		return err
	}
	if *sorted {
		set.SortByFrame()
	}
	log.Printf("rasterized %d blink events into %d per-frame records", loose.Len(), set.Len())
	return emitcsv.WriteFile(*out, set, emitcsv.WriteOptions{Comment: *comment})
}

func cmdConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	in := fs.String("in", "", "input localization CSV")
	out := fs.String("out", "", "output localization CSV")
	factor := fs.String("factor", "", "comma-separated scale factor (2 or 3 components)")
	shift := fs.String("shift", "", "comma-separated shift (3 components)")
	axis := fs.String("axis", "", "comma-separated axis permutation, e.g. 1,0,2")
	frameShift := fs.Float64("frame-shift", 0, "constant added to frame indices")
	smap := fs.Bool("smap", false, "use the SMAP-compatible preset export")
	fs.Parse(args)
	if *in == "" || *out == "" {
		return fmt.Errorf("-in and -out are required")
	}

	set, err := emitcsv.ReadFile(*in)
	if err != nil {
		return err
	}

	if *smap {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		return emitcsv.WriteSMAP(f, set, emitcsv.WriteOptions{})
	}

	fv, err := parseFloats(*factor)
	if err != nil {
		return fmt.Errorf("bad -factor: %w", err)
	}
	sv, err := parseFloats(*shift)
	if err != nil {
		return fmt.Errorf("bad -shift: %w", err)
	}
	av, err := parseInts(*axis)
	if err != nil {
		return fmt.Errorf("bad -axis: %w", err)
	}

	conv, err := emitter.ConvertClone(set, fv, sv, av, *frameShift)
	if err != nil {
		return err
	}
	return emitcsv.WriteFile(*out, conv, emitcsv.WriteOptions{})
}

func cmdCRLB(args []string) error {
	fs := flag.NewFlagSet("crlb", flag.ExitOnError)
	in := fs.String("in", "", "input localization CSV")
	out := fs.String("out", "", "output localization CSV with populated bounds")
	sigma := fs.Float64("sigma", 1.3, "lateral PSF standard deviation (px)")
	bg := fs.Float64("bg", 10, "assumed background for rows without one (photons/px)")
	workers := fs.Int("workers", 0, "concurrent per-frame estimations (0 = GOMAXPROCS)")
	fs.Parse(args)
	if *in == "" || *out == "" {
		return fmt.Errorf("-in and -out are required")
	}

	set, err := emitcsv.ReadFile(*in)
	if err != nil {
		return err
	}

	model := crlb.DefaultGaussianModel()
	model.SigmaPSF = *sigma
	model.DefaultBG = *bg

	cfg := crlb.DefaultPopulateConfig()
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if err := crlb.Populate(context.Background(), set, model, cfg); err != nil {
		return err
	}
	log.Printf("populated precision bounds for %d records", set.Len())
	return emitcsv.WriteFile(*out, set, emitcsv.WriteOptions{})
}

func cmdImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	in := fs.String("in", "", "input localization CSV")
	dbPath := fs.String("db", "smlm.db", "sqlite database path")
	name := fs.String("name", "", "dataset name (defaults to the input filename)")
	comment := fs.String("comment", "", "dataset comment")
	fs.Parse(args)
	if *in == "" {
		return fmt.Errorf("-in is required")
	}
	if *name == "" {
		*name = *in
	}

	set, err := emitcsv.ReadFile(*in)
	if err != nil {
		return err
	}
	db, err := emitterdb.Open(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := db.InsertSet(*name, *comment, set)
	if err != nil {
		return err
	}
	log.Printf("stored %d records as dataset %s", set.Len(), id)
	return nil
}

func cmdExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	dbPath := fs.String("db", "smlm.db", "sqlite database path")
	id := fs.String("dataset", "", "dataset id to export (empty lists datasets)")
	out := fs.String("out", "", "output localization CSV")
	fs.Parse(args)

	db, err := emitterdb.Open(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if *id == "" {
		datasets, err := db.ListDatasets()
		if err != nil {
			return err
		}
		for _, d := range datasets {
			fmt.Printf("%s  %s  %s\n", d.ID, d.Name, d.Comment)
		}
		return nil
	}
	if *out == "" {
		return fmt.Errorf("-out is required with -dataset")
	}

	set, err := db.LoadSet(*id)
	if err != nil {
		return err
	}
	return emitcsv.WriteFile(*out, set, emitcsv.WriteOptions{Comment: "export of dataset " + *id})
}

func cmdRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	in := fs.String("in", "", "input localization CSV")
	out := fs.String("out", "", "output PNG")
	bins := fs.Int("bins", 512, "histogram bins per axis")
	scatter := fs.Bool("scatter", false, "render a scatter plot instead of a density map")
	fs.Parse(args)
	if *in == "" || *out == "" {
		return fmt.Errorf("-in and -out are required")
	}

	set, err := emitcsv.ReadFile(*in)
	if err != nil {
		return err
	}
	if *scatter {
		return render.SaveScatterPNG(set, *out)
	}

	cfg := render.DefaultHistogramConfig()
	cfg.BinsX = *bins
	cfg.BinsY = *bins
	h, err := render.Histogram2D(set, cfg)
	if err != nil {
		return err
	}
	return render.SavePNG(h, *out)
}

func cmdReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	in := fs.String("in", "", "input localization CSV")
	out := fs.String("out", "", "output HTML")
	title := fs.String("title", "Localization report", "report title")
	fs.Parse(args)
	if *in == "" || *out == "" {
		return fmt.Errorf("-in and -out are required")
	}

	set, err := emitcsv.ReadFile(*in)
	if err != nil {
		return err
	}
	stats := report.FrameStats(set)
	log.Printf("summarised %d records across %d frames", set.Len(), len(stats))
	return report.WriteHTMLFile(*out, *title, stats)
}

// readLooseCSV parses a blink-event table: id,x,y,z,t0,ontime,intensity.
// Lines starting with '#' are comments; a non-numeric first line is treated
// as a header row.
func readLooseCSV(path string) (*blink.LooseSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		if _, err := strconv.ParseFloat(records[0][0], 64); err != nil {
			records = records[1:]
		}
	}

	var (
		xyz                    [][3]float64
		id, t0, ontime, intens []float64
	)
	for i, rec := range records {
		if len(rec) != 7 {
			return nil, fmt.Errorf("%s row %d: want 7 columns id,x,y,z,t0,ontime,intensity", path, i)
		}
		vals := make([]float64, 7)
		for j, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d column %d: %w", path, i, j, err)
			}
			vals[j] = v
		}
		id = append(id, vals[0])
		xyz = append(xyz, [3]float64{vals[1], vals[2], vals[3]})
		t0 = append(t0, vals[4])
		ontime = append(ontime, vals[5])
		intens = append(intens, vals[6])
	}
	return blink.NewLooseSet(xyz, intens, t0, ontime, id)
}

func parseFloats(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseInts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
