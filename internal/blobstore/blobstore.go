package blobstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/segmentio/ksuid"
)

var (
	// ErrUnknownBlob is returned for IDs that were never registered or
	// were already revoked.
	ErrUnknownBlob = errors.New("blobstore: unknown blob")
)

// Stats exposes the registry's accounting so tests and shutdown hooks
// can verify nothing leaked.
type Stats struct {
	Created int
	Revoked int
	Live    int
}

// Blob is one materialized image, addressable by URI and backed by a
// temp file until revoked.
type Blob struct {
	URI  string
	Path string
	Size int
}

// Registry tracks every materialized blob from creation to revocation.
// Each blob is revoked exactly once; a second revoke is an error, and
// whatever is still live at Close time counts as a leak.
type Registry struct {
	mu      sync.Mutex
	dir     string
	ownDir  bool
	blobs   map[string]*Blob
	created int
	revoked int
}

// NewRegistry stores blobs under dir. An empty dir gets a private temp
// directory that Close removes.
func NewRegistry(dir string) (*Registry, error) {
	ownDir := false
	if dir == "" {
		d, err := os.MkdirTemp("", "tryonhub-blobs-*")
		if err != nil {
			return nil, fmt.Errorf("blobstore: create dir: %w", err)
		}
		dir = d
		ownDir = true
	}
	return &Registry{
		dir:    dir,
		ownDir: ownDir,
		blobs:  make(map[string]*Blob),
	}, nil
}

// Create materializes data as a blob and registers it.
func (r *Registry) Create(data []byte, ext string) (*Blob, error) {
	id := ksuid.New().String()
	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}

	path := filepath.Join(r.dir, id+ext)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("blobstore: write blob: %w", err)
	}

	b := &Blob{
		URI:  "blob:tryonhub/" + id,
		Path: path,
		Size: len(data),
	}

	r.mu.Lock()
	r.blobs[b.URI] = b
	r.created++
	r.mu.Unlock()
	return b, nil
}

// Read returns a registered blob's bytes.
func (r *Registry) Read(uri string) ([]byte, error) {
	r.mu.Lock()
	b, ok := r.blobs[uri]
	r.mu.Unlock()
	if !ok {
		return nil, ErrUnknownBlob
	}

	data, err := os.ReadFile(b.Path)
	if err != nil {
		return nil, fmt.Errorf("blobstore: read blob: %w", err)
	}
	return data, nil
}

// Revoke unregisters a blob and deletes its backing file. Revoking an
// unknown or already-revoked URI fails, which keeps double revocation
// visible instead of silently swallowed.
func (r *Registry) Revoke(uri string) error {
	r.mu.Lock()
	b, ok := r.blobs[uri]
	if ok {
		delete(r.blobs, uri)
		r.revoked++
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("revoke %s: %w", uri, ErrUnknownBlob)
	}

	if err := os.Remove(b.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("revoke %s: %w", uri, err)
	}
	return nil
}

// Stats snapshots the accounting counters.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Created: r.created,
		Revoked: r.revoked,
		Live:    len(r.blobs),
	}
}

// Close revokes every remaining blob and reports how many leaked past
// their owner's teardown.
func (r *Registry) Close() (leaked int, err error) {
	r.mu.Lock()
	remaining := make([]*Blob, 0, len(r.blobs))
	for _, b := range r.blobs {
		remaining = append(remaining, b)
	}
	r.blobs = make(map[string]*Blob)
	r.revoked += len(remaining)
	dir, ownDir := r.dir, r.ownDir
	r.mu.Unlock()

	for _, b := range remaining {
		if rmErr := os.Remove(b.Path); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
			err = fmt.Errorf("blobstore: close: %w", rmErr)
		}
	}
	if ownDir {
		if rmErr := os.RemoveAll(dir); rmErr != nil && err == nil {
			err = fmt.Errorf("blobstore: close: %w", rmErr)
		}
	}
	return len(remaining), err
}
