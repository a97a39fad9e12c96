package localfs

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/cloud-obs-etl/internal/config"
	"github.com/couchcryptid/cloud-obs-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		Observatory: "sheba",
		Year:        1998,
		DataDir:     filepath.Join(root, "data"),
		OutputDir:   filepath.Join(root, "out"),
	}
	return NewStore(cfg, slog.Default()), root
}

func writeRaw(t *testing.T, root string, instrument, name string) {
	t.Helper()
	dir := filepath.Join(root, "data", "sheba", instrument)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
}

func TestStoreListCanonicalizesAndSorts(t *testing.T) {
	store, root := newTestStore(t)
	writeRaw(t, root, "mmcr", "09021040.BHAR.ncdf")
	writeRaw(t, root, "mmcr", "09020010.BHAR.ncdf")

	names, err := store.List(context.Background(), domain.MMCR)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"D1998-09-02T00-10-00.BHAR.ncdf",
		"D1998-09-02T10-40-00.BHAR.ncdf",
	}, names)

	path, err := store.Resolve("D1998-09-02T10-40-00.BHAR.ncdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "data", "sheba", "mmcr", "09021040.BHAR.ncdf"), path)
}

func TestStoreListUnknownShape(t *testing.T) {
	store, root := newTestStore(t)
	writeRaw(t, root, "mmcr", "notes.txt")

	_, err := store.List(context.Background(), domain.MMCR)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no match found")
}

func TestStoreResolveUnlisted(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Resolve("D1998-09-02T00-10-00.BHAR.ncdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not listed")
}

func TestStoreSaveAndReadDayRecord(t *testing.T) {
	store, root := newTestStore(t)
	day := time.Date(1998, time.September, 2, 0, 0, 0, 0, time.UTC)

	timeDim := domain.Dimension{Name: domain.AxisTime, Size: 2}
	rec := domain.InstrumentRecord{
		Dimensions: map[string]domain.Dimension{"time": timeDim},
		Variables: map[string]domain.Variable{
			domain.VarOffset: {
				Dimensions: []domain.Dimension{timeDim},
				DType:      domain.I4,
				Units:      domain.UnitSeconds,
				Values:     []int64{0, 30},
			},
		},
	}

	require.NoError(t, store.SaveDayRecord(context.Background(), day, rec))

	path := filepath.Join(root, "out", "sheba", "D1998-09-02.fused.json")
	got, err := ReadDayRecord(path)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	// No temp file left behind.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestDayFileName(t *testing.T) {
	day := time.Date(1998, time.September, 2, 13, 45, 0, 0, time.UTC)
	assert.Equal(t, "D1998-09-02.fused.json", DayFileName(day))
}
