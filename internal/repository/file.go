package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/varoOP/scrycache/internal/domain"
	"gopkg.in/yaml.v3"
)

// FileRepository implements domain.ManifestRepository using YAML files
type FileRepository struct {
	log zerolog.Logger
}

// NewFileRepository creates a new file-based repository
func NewFileRepository(log zerolog.Logger) *FileRepository {
	return &FileRepository{
		log: log.With().Str("module", "repository").Logger(),
	}
}

var _ domain.ManifestRepository = (*FileRepository)(nil)

// GetManifest reads a fetch manifest. A missing file yields an empty manifest.
func (r *FileRepository) GetManifest(ctx context.Context, path string) (*domain.Manifest, error) {
	m := &domain.Manifest{}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(b, m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml from %s: %w", path, err)
	}

	return m, nil
}

// StoreManifest writes the manifest as YAML with a blank line between cards
func (r *FileRepository) StoreManifest(ctx context.Context, path string, manifest *domain.Manifest) error {
	b, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal yaml: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer f.Close()

	lines := strings.Split(string(b), "\n")
	first := true
	for i, line := range lines {
		if strings.HasPrefix(line, "    - name:") {
			if !first {
				lines[i] = "\n" + line
			}
			first = false
		}
	}

	if _, err := f.Write([]byte(strings.Join(lines, "\n"))); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	r.log.Debug().Str("path", path).Int("count", len(manifest.Cards)).Msg("stored manifest")
	return nil
}
