// Package cache stores card records and card images on disk.
//
// Records live under data/ as JSON and images under images/ as PNG. Both are
// addressed by the sanitized card name, the upper-cased block and, for images,
// the face. Entries never expire.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/varoOP/scrycache/internal/domain"
)

const (
	recordExt = ".json"
	imageExt  = ".png"
)

// Store is the on-disk card cache
type Store struct {
	log   zerolog.Logger
	paths *domain.Paths
}

// New opens the cache rooted at base, creating data/ and images/ if needed.
func New(base string, log zerolog.Logger) (*Store, error) {
	paths := domain.NewPaths(base)
	for _, dir := range []string{paths.RootDir, paths.DataDir, paths.ImagesDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
		}
	}
	return &Store{
		log:   log.With().Str("module", "cache").Logger(),
		paths: paths,
	}, nil
}

// Paths exposes the cache layout
func (s *Store) Paths() *domain.Paths {
	return s.paths
}

// RecordPath returns data/{name}[.{BLOCK}].json
func (s *Store) RecordPath(sanitizedName, block string) string {
	return filepath.Join(s.paths.DataDir, sanitizedName+blockSuffix(block)+recordExt)
}

// ImagePath returns images/{name}[.{BLOCK}][.{face}].png, face omitted for the front.
func (s *Store) ImagePath(sanitizedName, block, face string) string {
	return filepath.Join(s.paths.ImagesDir, ImageFileName(sanitizedName, block, face))
}

// ImageFileName is the base name ImagePath uses
func ImageFileName(sanitizedName, block, face string) string {
	return sanitizedName + blockSuffix(block) + faceSuffix(face) + imageExt
}

func blockSuffix(block string) string {
	block = strings.TrimSpace(block)
	if block == "" {
		return ""
	}
	return "." + strings.ToUpper(block)
}

func faceSuffix(face string) string {
	if face == "" || face == domain.FaceFront {
		return ""
	}
	return "." + face
}

// RecordCandidate is a record file found on disk for a sanitized name
type RecordCandidate struct {
	Path  string
	Block string
}

// RecordCandidates lists the block-qualified records stored for sanitizedName.
func (s *Store) RecordCandidates(sanitizedName string) ([]RecordCandidate, error) {
	entries, err := os.ReadDir(s.paths.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.paths.DataDir, err)
	}

	prefix := sanitizedName + "."
	var out []RecordCandidate
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, recordExt) || !strings.HasPrefix(name, prefix) {
			continue
		}
		block := strings.TrimSuffix(strings.TrimPrefix(name, prefix), recordExt)
		if block == "" || strings.Contains(block, ".") || block != strings.ToUpper(block) {
			continue
		}
		out = append(out, RecordCandidate{Path: filepath.Join(s.paths.DataDir, name), Block: block})
	}
	return out, nil
}

// ReadRecord decodes the JSON record at path into v. A missing file is a miss
// and returns false with no error.
func (s *Store) ReadRecord(path string, v any) (bool, error) {
	b, found, err := s.read(path)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal json from %s: %w", path, err)
	}
	return true, nil
}

// WriteRecord encodes v as JSON and replaces the record at path.
func (s *Store) WriteRecord(path string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal record for %s: %w", path, err)
	}
	return s.write(path, b)
}

// ReadBytes returns the raw file at path. A missing file is a miss.
func (s *Store) ReadBytes(path string) ([]byte, bool, error) {
	return s.read(path)
}

// WriteBytes replaces the file at path with b.
func (s *Store) WriteBytes(path string, b []byte) error {
	return s.write(path, b)
}

func (s *Store) read(path string) ([]byte, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cache file %s: %w", path, err)
	}
	s.log.Debug().Str("path", path).Msg("READ")
	return b, true, nil
}

// write goes through a temp file in the same directory so readers never see
// a partially written entry.
func (s *Store) write(path string, b []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".cache-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file for %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	s.log.Debug().Str("path", path).Int("bytes", len(b)).Msg("CREATE")
	return nil
}
