// Package storage defines the document directory abstraction.
package storage

import "github.com/starford/posecontact/internal/models"

// Provider is the interface for document directory operations.
type Provider interface {
	// List returns metadata for every document file directly inside dir
	// (relative to the root), ordered by path.
	List(dir string) ([]models.DocumentMetadata, error)
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the root).
	Write(path string, content []byte) error
	// Root returns the absolute directory the provider serves.
	Root() string
}
