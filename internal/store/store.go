// Package store persists completed runs and cached line indexes.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/mod/semver"
	"pkg.jsn.cam/chunkstat/pkg/chunkstat"
	"pkg.jsn.cam/chunkstat/pkg/storage"
)

// SchemaVersion is written into every store. Stores written by a different
// major version cannot be opened.
const SchemaVersion = "v1.0.0"

var (
	ErrIncompatibleSchema = errors.New("incompatible store schema")
	ErrRunNotFound        = errors.New("run not found")
	ErrAmbiguousRunID     = errors.New("ambiguous run id")
)

var (
	metaBucket   = []byte("meta")
	reportBucket = []byte("reports")
	tableBucket  = []byte("tables")
	indexBucket  = []byte("line_indexes")

	schemaKey = []byte("schema_version")
)

// Run is a completed pipeline run as stored.
type Run struct {
	Report  chunkstat.Report `json:"report"`
	Table   chunkstat.Table  `json:"table"`
	SavedAt time.Time        `json:"saved_at"`
}

// Store wraps a storage backend with run and index operations
type Store struct {
	backend storage.Backend
}

// Open opens the bbolt-backed store at dbPath, creating it if needed
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	backend, err := storage.NewBboltBackend(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}

	s, err := New(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return s, nil
}

// New initializes the buckets on backend and checks its schema version
func New(backend storage.Backend) (*Store, error) {
	err := backend.Update(func(tx storage.Tx) error {
		meta, err := tx.CreateBucket(metaBucket)
		if err != nil {
			return err
		}

		if v := meta.Get(schemaKey); v != nil {
			if err := checkSchema(string(v)); err != nil {
				return err
			}
		} else if err := meta.Put(schemaKey, []byte(SchemaVersion)); err != nil {
			return err
		}

		for _, name := range [][]byte{reportBucket, tableBucket, indexBucket} {
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	return &Store{backend: backend}, nil
}

func checkSchema(stored string) error {
	if !semver.IsValid(stored) {
		return fmt.Errorf("%w: invalid version %q", ErrIncompatibleSchema, stored)
	}
	if semver.Major(stored) != semver.Major(SchemaVersion) {
		return fmt.Errorf("%w: store is %s, required %s.x.x",
			ErrIncompatibleSchema, stored, semver.Major(SchemaVersion))
	}
	return nil
}

func (s *Store) Close() error {
	return s.backend.Close()
}

// SaveRun stores the report and table of a completed run
func (s *Store) SaveRun(report chunkstat.Report, table chunkstat.Table) error {
	if report.RunID == "" {
		return errors.New("save run: empty run id")
	}
	key := []byte(report.RunID)

	return s.backend.Update(func(tx storage.Tx) error {
		if err := storage.PutJSON(tx.Bucket(reportBucket), key, report); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		if err := storage.PutJSON(tx.Bucket(tableBucket), key, table); err != nil {
			return fmt.Errorf("save table: %w", err)
		}
		return nil
	})
}

// LoadRun returns the run with the given id. A unique prefix of an id is accepted.
func (s *Store) LoadRun(id string) (*Run, error) {
	var run Run

	err := s.backend.View(func(tx storage.Tx) error {
		key, err := resolveID(tx.Bucket(reportBucket), id)
		if err != nil {
			return err
		}

		if _, err := storage.GetJSON(tx.Bucket(reportBucket), key, &run.Report); err != nil {
			return err
		}
		if _, err := storage.GetJSON(tx.Bucket(tableBucket), key, &run.Table); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &run, nil
}

func resolveID(reports storage.Bucket, id string) ([]byte, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrRunNotFound)
	}
	if reports.Get([]byte(id)) != nil {
		return []byte(id), nil
	}

	var matches [][]byte
	err := reports.ForEach(func(k, _ []byte) error {
		if bytes.HasPrefix(k, []byte(id)) {
			matches = append(matches, bytes.Clone(k))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %s matches %d runs", ErrAmbiguousRunID, id, len(matches))
	}
}

// ListRuns returns the reports of all stored runs, oldest first
func (s *Store) ListRuns() ([]chunkstat.Report, error) {
	var reports []chunkstat.Report

	err := s.backend.View(func(tx storage.Tx) error {
		return tx.Bucket(reportBucket).ForEach(func(k, v []byte) error {
			var r chunkstat.Report
			if err := storage.DecodeJSON(v, &r); err != nil {
				return fmt.Errorf("run %s: %w", k, err)
			}
			reports = append(reports, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(reports, func(a, b chunkstat.Report) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		return strings.Compare(a.RunID, b.RunID)
	})
	return reports, nil
}

// DeleteRun removes a run. Deleting an unknown id is an error.
func (s *Store) DeleteRun(id string) error {
	return s.backend.Update(func(tx storage.Tx) error {
		key, err := resolveID(tx.Bucket(reportBucket), id)
		if err != nil {
			return err
		}
		if err := tx.Bucket(reportBucket).Delete(key); err != nil {
			return err
		}
		return tx.Bucket(tableBucket).Delete(key)
	})
}

// SaveIndex caches the line index built for the file at path
func (s *Store) SaveIndex(path string, idx *chunkstat.LineIndex) error {
	key, err := indexKey(path)
	if err != nil {
		return err
	}

	return s.backend.Update(func(tx storage.Tx) error {
		return storage.PutJSON(tx.Bucket(indexBucket), key, idx)
	})
}

// LoadIndex returns the cached index for path, or nil if there is none.
// The caller decides whether it still matches the file.
func (s *Store) LoadIndex(path string) (*chunkstat.LineIndex, error) {
	key, err := indexKey(path)
	if err != nil {
		return nil, err
	}

	var idx chunkstat.LineIndex
	var found bool
	err = s.backend.View(func(tx storage.Tx) error {
		found, err = storage.GetJSON(tx.Bucket(indexBucket), key, &idx)
		return err
	})
	if err != nil || !found {
		return nil, err
	}
	return &idx, nil
}

func indexKey(path string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	return []byte(abs), nil
}
