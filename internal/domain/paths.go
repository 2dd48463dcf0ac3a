package domain

import "path/filepath"

type CacheFile string

const (
	DataDir   CacheFile = "data"
	ImagesDir CacheFile = "images"
	IndexFile CacheFile = "scrycache.db"
)

// Paths holds the locations that make up a cache directory
type Paths struct {
	RootDir   string
	DataDir   string
	ImagesDir string
	IndexPath string
}

// NewPaths creates a new Paths instance rooted at rootDir
func NewPaths(rootDir string) *Paths {
	return &Paths{
		RootDir:   rootDir,
		DataDir:   makeCachePath(rootDir, DataDir),
		ImagesDir: makeCachePath(rootDir, ImagesDir),
		IndexPath: makeCachePath(rootDir, IndexFile),
	}
}

func makeCachePath(rootDir string, cf CacheFile) string {
	return filepath.Join(rootDir, string(cf))
}
