// Package filestore models the FileStore capability the surrounding
// system presents to the TDP loader (spec §6.2). The core never calls
// it directly, but the path-validation rule it documents
// ("../"/"..\\" rejection) needs a single testable home, so the
// interface and its one piece of real logic live here; wrapper bodies
// (local disk, S3, ...) are out of scope (spec §1 Non-goals).
package filestore

import (
	"io"
	"strings"

	"github.com/transitnetworks/raptorcore/raptorerr"
)

// Category is one of the key namespaces spec §6.2 enumerates.
type Category int

const (
	Bundles Category = iota
	Grids
	Results
	Resources
	Polygons
	Taui
)

// Key addresses a stored file: a category plus a path within it.
type Key struct {
	Category Category
	Path     string
}

// Store is the capability the TDP loader depends on. Stored files are
// immutable after publication; GetFile results are read-only (spec
// §6.2).
type Store interface {
	MoveIntoStorage(key Key, file io.Reader) error
	GetFile(key Key) (io.ReadCloser, error)
	GetURL(key Key) (string, error)
	Delete(key Key) error
	Exists(key Key) (bool, error)
}

// ValidateKey rejects any path containing "../" or "..\\" before any
// I/O is attempted (spec §6.2 "Path validation").
func ValidateKey(key Key) error {
	if strings.Contains(key.Path, "../") || strings.Contains(key.Path, "..\\") {
		return raptorerr.Wrap(raptorerr.DirectoryTraversal, key.Path)
	}
	return nil
}
