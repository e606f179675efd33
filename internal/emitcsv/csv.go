// Package emitcsv reads and writes the comma-separated localization layout:
// one row per emitter with columns id, frame_ix, x, y, z, phot, prob, bg,
// xyz_cr (three values), phot_cr, bg_cr, preceded by a comment-prefixed
// descriptive header.
package emitcsv

import (
	"crypto/sha1"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/lumadata/smlm/internal/emitter"
)

// columnNames is the on-disk column order.
var columnNames = []string{
	"id", "frame_ix", "x", "y", "z", "phot", "prob", "bg",
	"xyz_cr_x", "xyz_cr_y", "xyz_cr_z", "phot_cr", "bg_cr",
}

// legacyColumns is the historical 7-column layout without background and
// precision columns.
const legacyColumns = 7

// WriteOptions controls the export header.
type WriteOptions struct {
	// ModelHash records the SHA-1 content hash of the model file the
	// localizations came from. Empty omits the line.
	ModelHash string

	// Comment is free text recorded in the header.
	Comment string

	// PlainHeader strips the comment prefix from the first line only, so the
	// column-name row reads as a normal line for tools that require an
	// uncommented header.
	PlainHeader bool
}

// Write exports s to w.
func Write(w io.Writer, s *emitter.Set, opts WriteOptions) error {
	prefix := "# "
	first := prefix
	if opts.PlainHeader {
		first = ""
	}

	if _, err := fmt.Fprintf(w, "%s%s\n", first, strings.Join(columnNames, ",")); err != nil {
		return fmt.Errorf("emitcsv: write header: %w", err)
	}
	header := []string{
		"This is a localization export.",
		fmt.Sprintf("Total number of emitters: %d", s.Len()),
		fmt.Sprintf("Export id: %s", uuid.New().String()),
	}
	if opts.ModelHash != "" {
		header = append(header, fmt.Sprintf("Model file SHA-1 hash: %s", opts.ModelHash))
	}
	if opts.Comment != "" {
		header = append(header, fmt.Sprintf("User comment during export: %s", opts.Comment))
	}
	for _, line := range header {
		if _, err := fmt.Fprintf(w, "%s%s\n", prefix, line); err != nil {
			return fmt.Errorf("emitcsv: write header: %w", err)
		}
	}

	fields := make([]string, len(columnNames))
	for i := 0; i < s.Len(); i++ {
		row := []float64{
			s.ID[i], s.FrameIx[i],
			s.XYZ[i][0], s.XYZ[i][1], s.XYZ[i][2],
			s.Phot[i], s.Prob[i], s.BG[i],
			s.XYZCR[i][0], s.XYZCR[i][1], s.XYZCR[i][2],
			s.PhotCR[i], s.BGCR[i],
		}
		for j, v := range row {
			fields[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if _, err := fmt.Fprintln(w, strings.Join(fields, ",")); err != nil {
			return fmt.Errorf("emitcsv: write row %d: %w", i, err)
		}
	}
	return nil
}

// SMAPOptions are the fixed conversion constants for the SMAP-compatible
// export: pixel-to-nanometre scaling, a half-pixel origin shift, swapped
// lateral axes and one-based frame indices, with a plain header for MATLAB
// import.
var smapFactor = []float64{100, 100, 1}
var smapShift = []float64{50, -50, 0}
var smapAxis = []int{1, 0, 2}

// WriteSMAP exports a converted clone of s in the SMAP-compatible layout.
func WriteSMAP(w io.Writer, s *emitter.Set, opts WriteOptions) error {
	conv, err := emitter.ConvertClone(s, smapFactor, smapShift, smapAxis, 1)
	if err != nil {
		return fmt.Errorf("emitcsv: smap conversion: %w", err)
	}
	if opts.Comment == "" {
		opts.Comment = "Export for SMAP"
	} else {
		opts.Comment += "; Export for SMAP"
	}
	opts.PlainHeader = true
	return Write(w, conv, opts)
}

// Read parses a localization export. Comment lines are ignored; a plain
// (uncommented) column-name first line is skipped. Both the full column set
// and the legacy 7-column layout (id, frame_ix, x, y, z, phot, prob) are
// accepted; absent precision columns read as NaN.
func Read(r io.Reader) (*emitter.Set, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("emitcsv: read: %w", err)
	}
	if len(records) > 0 {
		if _, err := strconv.ParseFloat(records[0][0], 64); err != nil {
			// Plain header row.
			records = records[1:]
		}
	}
	if len(records) == 0 {
		return emitter.NewEmptySet(), nil
	}

	spec := emitter.ColumnSpec{
		XYZ:     make([][3]float64, len(records)),
		Phot:    make([]float64, len(records)),
		FrameIx: make([]float64, len(records)),
		ID:      make([]float64, len(records)),
		Prob:    make([]float64, len(records)),
	}
	full := len(records[0]) == len(columnNames)
	if !full && len(records[0]) != legacyColumns {
		return nil, fmt.Errorf("emitcsv: row has %d columns, want %d or %d",
			len(records[0]), legacyColumns, len(columnNames))
	}
	if full {
		spec.BG = make([]float64, len(records))
		spec.XYZCR = make([][3]float64, len(records))
		spec.PhotCR = make([]float64, len(records))
		spec.BGCR = make([]float64, len(records))
	}

	for i, rec := range records {
		if len(rec) != len(records[0]) {
			return nil, fmt.Errorf("emitcsv: row %d has %d columns, want %d", i, len(rec), len(records[0]))
		}
		vals := make([]float64, len(rec))
		for j, f := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("emitcsv: row %d column %d: %w", i, j, err)
			}
			vals[j] = v
		}
		spec.ID[i] = vals[0]
		spec.FrameIx[i] = vals[1]
		spec.XYZ[i] = [3]float64{vals[2], vals[3], vals[4]}
		spec.Phot[i] = vals[5]
		spec.Prob[i] = vals[6]
		if full {
			spec.BG[i] = vals[7]
			spec.XYZCR[i] = [3]float64{vals[8], vals[9], vals[10]}
			spec.PhotCR[i] = vals[11]
			spec.BGCR[i] = vals[12]
		}
	}

	return emitter.NewFromColumns(spec, true)
}

// WriteFile exports s to path.
func WriteFile(path string, s *emitter.Set, opts WriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("emitcsv: create %s: %w", path, err)
	}
	defer f.Close()

	if err := Write(f, s, opts); err != nil {
		return err
	}
	return f.Close()
}

// ReadFile parses a localization export from path.
func ReadFile(path string) (*emitter.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("emitcsv: open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// HashFile returns the hex SHA-1 content hash of the file at path, for the
// model provenance header line.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("emitcsv: open %s: %w", path, err)
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("emitcsv: hash %s: %w", path, err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
