package localfs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/couchcryptid/cloud-obs-etl/internal/config"
	"github.com/couchcryptid/cloud-obs-etl/internal/domain"
)

// Store serves instrument files from a directory tree laid out as
// <data-dir>/<observatory>/<instrument>/<raw name> and persists fused day
// records under <output-dir>/<observatory>. Raw file names are rewritten to
// canonical form on listing; the raw-to-canonical mapping is kept so hydration
// can resolve a canonical name back to its path.
//
// It implements pipeline.CandidateLister and pipeline.RecordStore, and acts as
// the path resolver for the NetCDF hydrator.
type Store struct {
	dataDir     string
	outputDir   string
	observatory string
	year        string
	logger      *slog.Logger

	mu    sync.Mutex
	paths map[string]string // canonical name -> file path
}

// NewStore creates a Store over the configured directories.
func NewStore(cfg *config.Config, logger *slog.Logger) *Store {
	return &Store{
		dataDir:     cfg.DataDir,
		outputDir:   cfg.OutputDir,
		observatory: cfg.Observatory,
		year:        strconv.Itoa(cfg.Year),
		logger:      logger,
		paths:       make(map[string]string),
	}
}

// List returns the sorted canonical names of the instrument's files. Names
// whose raw shape cannot be canonicalized are an error: an unrecognized file
// in the archive is worth failing loudly over.
func (s *Store) List(ctx context.Context, instrument domain.Instrument) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.dataDir, s.observatory, string(instrument))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		canonical, err := domain.CanonicalName(e.Name(), s.year)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", dir, err)
		}
		s.paths[canonical] = filepath.Join(dir, e.Name())
		names = append(names, canonical)
	}
	sort.Strings(names)
	s.logger.Debug("instrument files listed", "instrument", instrument, "count", len(names))
	return names, nil
}

// Resolve maps a canonical name from a previous List back to its file path.
func (s *Store) Resolve(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path, ok := s.paths[name]
	if !ok {
		return "", fmt.Errorf("resolve %q: not listed", name)
	}
	return path, nil
}

// SaveDayRecord writes the fused day record as JSON, via a temp file and
// rename so readers never observe a partial write.
func (s *Store) SaveDayRecord(ctx context.Context, day time.Time, rec domain.InstrumentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Join(s.outputDir, s.observatory)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save day record: %w", err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("serialize day record: %w", err)
	}

	path := filepath.Join(dir, DayFileName(day))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("save day record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("save day record: %w", err)
	}
	s.logger.Debug("day record saved", "path", path, "bytes", len(data))
	return nil
}

// DayFileName returns the file name a fused day record is stored under.
func DayFileName(day time.Time) string {
	return domain.DayStart(day).Format("D2006-01-02") + ".fused.json"
}

// ReadDayRecord loads a fused day record previously written by SaveDayRecord.
func ReadDayRecord(path string) (domain.InstrumentRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.InstrumentRecord{}, err
	}
	var rec domain.InstrumentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.InstrumentRecord{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return rec, nil
}
