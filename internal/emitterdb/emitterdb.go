// Package emitterdb persists emitter sets in a sqlite database.
package emitterdb

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/lumadata/smlm/internal/emitter"
)

// EmitterDB wraps the sqlite handle for the localization store.
type EmitterDB struct {
	*sql.DB
}

// schema.sql defines the dataset and emitter tables.
//
//go:embed schema.sql
var schemaSQL string

// Dataset describes one stored emitter set.
type Dataset struct {
	ID               string
	Name             string
	CreatedUnixNanos int64
	Comment          string
}

// Open opens (creating if needed) the localization database at path.
func Open(path string) (*EmitterDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("emitterdb: open %s: %w", path, err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("emitterdb: apply schema: %w", err)
	}

	log.Println("initialized localization database schema")
	return &EmitterDB{db}, nil
}

// InsertSet stores s as a new dataset and returns its generated id.
// The insert is transactional: either the dataset and all rows land, or
// nothing does.
func (db *EmitterDB) InsertSet(name, comment string, s *emitter.Set) (string, error) {
	id := uuid.New().String()

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("emitterdb: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO smlm_dataset (dataset_id, name, created_unix_nanos, comment) VALUES (?, ?, ?, ?)`,
		id, name, time.Now().UnixNano(), comment,
	)
	if err != nil {
		return "", fmt.Errorf("emitterdb: insert dataset: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO smlm_emitter
		(dataset_id, row_ix, emitter_id, frame_ix, x, y, z, phot, prob, bg,
		 xyz_cr_x, xyz_cr_y, xyz_cr_z, phot_cr, bg_cr)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("emitterdb: prepare emitter insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < s.Len(); i++ {
		_, err := stmt.Exec(
			id, i, s.ID[i], s.FrameIx[i],
			s.XYZ[i][0], s.XYZ[i][1], s.XYZ[i][2],
			s.Phot[i], s.Prob[i], nullable(s.BG[i]),
			nullable(s.XYZCR[i][0]), nullable(s.XYZCR[i][1]), nullable(s.XYZCR[i][2]),
			nullable(s.PhotCR[i]), nullable(s.BGCR[i]),
		)
		if err != nil {
			return "", fmt.Errorf("emitterdb: insert emitter row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("emitterdb: commit: %w", err)
	}
	return id, nil
}

// LoadSet reads a stored dataset back into an emitter set, in insertion order.
func (db *EmitterDB) LoadSet(datasetID string) (*emitter.Set, error) {
	rows, err := db.Query(`SELECT emitter_id, frame_ix, x, y, z, phot, prob, bg,
		xyz_cr_x, xyz_cr_y, xyz_cr_z, phot_cr, bg_cr
		FROM smlm_emitter WHERE dataset_id = ? ORDER BY row_ix`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("emitterdb: load %s: %w", datasetID, err)
	}
	defer rows.Close()

	spec := emitter.ColumnSpec{
		XYZ:    [][3]float64{},
		XYZCR:  [][3]float64{},
		Phot:   []float64{},
		PhotCR: []float64{},
		BGCR:   []float64{},
		BG:     []float64{},
		ID:     []float64{},
		Prob:   []float64{},
	}
	spec.FrameIx = []float64{}
	for rows.Next() {
		var id, frame, x, y, z, phot, prob float64
		var bg, crx, cry, crz, photCR, bgCR sql.NullFloat64
		if err := rows.Scan(&id, &frame, &x, &y, &z, &phot, &prob,
			&bg, &crx, &cry, &crz, &photCR, &bgCR); err != nil {
			return nil, fmt.Errorf("emitterdb: scan: %w", err)
		}
		spec.ID = append(spec.ID, id)
		spec.FrameIx = append(spec.FrameIx, frame)
		spec.XYZ = append(spec.XYZ, [3]float64{x, y, z})
		spec.Phot = append(spec.Phot, phot)
		spec.Prob = append(spec.Prob, prob)
		spec.BG = append(spec.BG, fromNullable(bg))
		spec.XYZCR = append(spec.XYZCR, [3]float64{fromNullable(crx), fromNullable(cry), fromNullable(crz)})
		spec.PhotCR = append(spec.PhotCR, fromNullable(photCR))
		spec.BGCR = append(spec.BGCR, fromNullable(bgCR))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("emitterdb: load %s: %w", datasetID, err)
	}

	return emitter.NewFromColumns(spec, true)
}

// ListDatasets returns stored datasets, newest first.
func (db *EmitterDB) ListDatasets() ([]Dataset, error) {
	rows, err := db.Query(`SELECT dataset_id, name, created_unix_nanos, COALESCE(comment, '')
		FROM smlm_dataset ORDER BY created_unix_nanos DESC`)
	if err != nil {
		return nil, fmt.Errorf("emitterdb: list datasets: %w", err)
	}
	defer rows.Close()

	var out []Dataset
	for rows.Next() {
		var d Dataset
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedUnixNanos, &d.Comment); err != nil {
			return nil, fmt.Errorf("emitterdb: scan dataset: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteDataset removes a dataset and its emitter rows.
func (db *EmitterDB) DeleteDataset(datasetID string) error {
	if _, err := db.Exec(`DELETE FROM smlm_emitter WHERE dataset_id = ?`, datasetID); err != nil {
		return fmt.Errorf("emitterdb: delete emitters %s: %w", datasetID, err)
	}
	if _, err := db.Exec(`DELETE FROM smlm_dataset WHERE dataset_id = ?`, datasetID); err != nil {
		return fmt.Errorf("emitterdb: delete dataset %s: %w", datasetID, err)
	}
	return nil
}

// nullable maps NaN to SQL NULL; sqlite has no NaN representation.
func nullable(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
