// Package blobstore provides the durable local persistence collaborator used
// by the catalog store and the submission queue. Each record set is written
// as one opaque blob under a distinct named key, re-written in full on every
// mutation.
package blobstore

// Store is the persistence contract injected into every repository. Writes
// follow last-write-wins semantics; partial writes are never visible.
type Store interface {
	// Load returns the blob stored under key. The second result is false
	// when nothing has been stored under that key yet.
	Load(key string) ([]byte, bool, error)
	// Save durably replaces the blob stored under key.
	Save(key string, blob []byte) error
}
