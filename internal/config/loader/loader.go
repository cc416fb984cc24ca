// Package loader reads configuration sources into nested maps.
//
// Maps from different sources are combined with DeepMerge and decoded
// into typed configuration by the config package.
package loader

import (
	"io/fs"
	"os"
)

// Loader reads one configuration source.
type Loader interface {
	// Load returns the source's settings. A missing source yields nil, nil.
	Load() (map[string]any, error)
}

// FileSystem is the file access the loaders need. Tests pass an
// in-memory implementation.
type FileSystem interface {
	fs.FS
	ReadFile(path string) ([]byte, error)
	Stat(path string) (fs.FileInfo, error)
}

// OSFS implements FileSystem on the real file system.
type OSFS struct{}

// Open implements fs.FS.
func (OSFS) Open(name string) (fs.File, error) {
	return os.Open(name)
}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Stat returns file info for path.
func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// DefaultFS returns the OS file system.
func DefaultFS() FileSystem {
	return OSFS{}
}
