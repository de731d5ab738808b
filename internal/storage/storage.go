// Package storage provides the object-store boundary of the ETL (list,
// read, write by key) together with the codecs for the tabular formats
// that cross it: source trade CSVs and parquet daily reports.
package storage

import "errors"

// ErrNotFound is returned by Read when no object exists for the key.
var ErrNotFound = errors.New("storage: object not found")

// ErrDecode is returned when an object's bytes cannot be decoded as the
// expected tabular format.
var ErrDecode = errors.New("storage: decode failed")

// ObjectStore is the external storage collaborator. Keys are slash-separated
// paths; an implementation may map them to a local directory tree, an S3
// bucket, or anything else with list/read/write semantics.
type ObjectStore interface {
	// List returns all keys starting with prefix, sorted ascending.
	List(prefix string) ([]string, error)

	// Read returns the object bytes for key, or ErrNotFound.
	Read(key string) ([]byte, error)

	// Write stores the object bytes under key, replacing any previous value.
	Write(key string, data []byte) error
}
