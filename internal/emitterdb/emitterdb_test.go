package emitterdb

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumadata/smlm/internal/emitter"
)

func openTestDB(t *testing.T) *EmitterDB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "smlm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func storedFixture(t *testing.T) *emitter.Set {
	t.Helper()
	s, err := emitter.NewFromColumns(emitter.ColumnSpec{
		XYZ:     [][3]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}},
		Phot:    []float64{100, 200, 300},
		FrameIx: []float64{0, 1, 1},
		ID:      []float64{10, 11, 12},
		Prob:    []float64{1, 0.5, 0.25},
		BG:      []float64{9, math.NaN(), 11},
	}, true)
	require.NoError(t, err)
	return s
}

func TestInsertLoad_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	s := storedFixture(t)

	id, err := db.InsertSet("run-1", "fixture", s)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := db.LoadSet(id)
	require.NoError(t, err)

	require.Equal(t, s.Len(), got.Len())
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, s.XYZ, got.XYZ)
	assert.Equal(t, s.Phot, got.Phot)
	assert.Equal(t, s.FrameIx, got.FrameIx)
	assert.Equal(t, s.Prob, got.Prob)

	// NaN survives the NULL round trip.
	assert.Equal(t, 9.0, got.BG[0])
	assert.True(t, math.IsNaN(got.BG[1]))
	assert.Equal(t, 11.0, got.BG[2])
	for i := 0; i < got.Len(); i++ {
		assert.True(t, math.IsNaN(got.PhotCR[i]))
		assert.True(t, math.IsNaN(got.XYZCR[i][2]))
	}
}

func TestInsertSet_EmptySet(t *testing.T) {
	db := openTestDB(t)

	id, err := db.InsertSet("empty", "", emitter.NewEmptySet())
	require.NoError(t, err)

	got, err := db.LoadSet(id)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
	require.NoError(t, got.Validate())
}

func TestListDatasets(t *testing.T) {
	db := openTestDB(t)
	s := storedFixture(t)

	id1, err := db.InsertSet("first", "a", s)
	require.NoError(t, err)
	id2, err := db.InsertSet("second", "b", s)
	require.NoError(t, err)

	datasets, err := db.ListDatasets()
	require.NoError(t, err)
	require.Len(t, datasets, 2)

	ids := []string{datasets[0].ID, datasets[1].ID}
	assert.Contains(t, ids, id1)
	assert.Contains(t, ids, id2)
}

func TestDeleteDataset(t *testing.T) {
	db := openTestDB(t)
	s := storedFixture(t)

	id, err := db.InsertSet("doomed", "", s)
	require.NoError(t, err)
	require.NoError(t, db.DeleteDataset(id))

	datasets, err := db.ListDatasets()
	require.NoError(t, err)
	assert.Empty(t, datasets)

	got, err := db.LoadSet(id)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestLoadSet_UnknownID(t *testing.T) {
	db := openTestDB(t)
	got, err := db.LoadSet("no-such-dataset")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}
