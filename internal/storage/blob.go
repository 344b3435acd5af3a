package storage

import "io"

// BlobStore keeps uploaded answer-sheet and rubric images for the vision
// extractor to read back.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
}
