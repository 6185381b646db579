// Package bundles persists the user's local bundle definitions. All bundles
// live in one JSON document that is read, modified and written back as a
// whole on every mutating call.
package bundles

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/Smithed-MC/UX/pkg/registry"
)

// ErrNotFound is returned for operations on a bundle id that is not stored.
var ErrNotFound = errors.New("bundle not found")

// Definition is one launchable bundle: a pinned Minecraft version and an
// ordered list of pack references.
type Definition struct {
	Version string                   `json:"version"`
	Packs   []registry.PackReference `json:"packs"`
}

// fileFormat is the JSON structure written to disk.
type fileFormat struct {
	LocalBundles map[string]Definition `json:"local_bundles"`
}

// Store manages bundle definitions persisted to a JSON file. The mutex only
// serializes callers sharing this Store; separate processes writing the same
// file can still lose each other's updates.
type Store struct {
	mu       sync.Mutex
	filePath string
}

// NewStore creates a Store backed by filePath. The file is not read until
// the first operation and a missing file behaves as an empty store.
func NewStore(filePath string) (*Store, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("bundles: resolve path: %w", err)
	}

	return &Store{filePath: abs}, nil
}

// Path returns the absolute path of the backing file.
func (s *Store) Path() string { return s.filePath }

// Add stores def under id, replacing any existing bundle with that id.
func (s *Store) Add(id string, def Definition) error {
	if def.Packs == nil {
		def.Packs = []registry.PackReference{}
	}

	return s.update(func(ff *fileFormat) error {
		ff.LocalBundles[id] = def
		return nil
	})
}

// Get returns the bundle stored under id.
func (s *Store) Get(id string) (Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ff, err := s.load()
	if err != nil {
		return Definition{}, err
	}

	def, ok := ff.LocalBundles[id]
	if !ok {
		return Definition{}, fmt.Errorf("bundles: %q: %w", id, ErrNotFound)
	}

	return def, nil
}

// List returns every stored bundle keyed by id.
func (s *Store) List() (map[string]Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ff, err := s.load()
	if err != nil {
		return nil, err
	}

	return ff.LocalBundles, nil
}

// IDs returns the stored bundle ids sorted alphabetically.
func (s *Store) IDs() ([]string, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids, nil
}

// Exists reports whether a bundle is stored under id.
func (s *Store) Exists(id string) (bool, error) {
	_, err := s.Get(id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Remove deletes the bundle stored under id.
func (s *Store) Remove(id string) error {
	return s.update(func(ff *fileFormat) error {
		if _, ok := ff.LocalBundles[id]; !ok {
			return fmt.Errorf("bundles: %q: %w", id, ErrNotFound)
		}
		delete(ff.LocalBundles, id)
		return nil
	})
}

// AddPack appends ref to the bundle's pack list. Pack ids are not checked
// for uniqueness.
func (s *Store) AddPack(id string, ref registry.PackReference) error {
	return s.update(func(ff *fileFormat) error {
		def, ok := ff.LocalBundles[id]
		if !ok {
			return fmt.Errorf("bundles: %q: %w", id, ErrNotFound)
		}
		def.Packs = append(def.Packs, ref)
		ff.LocalBundles[id] = def
		return nil
	})
}

// RemovePack removes the first pack whose id is packID. Removing a pack that
// is not in the bundle is not an error.
func (s *Store) RemovePack(id, packID string) error {
	return s.update(func(ff *fileFormat) error {
		def, ok := ff.LocalBundles[id]
		if !ok {
			return fmt.Errorf("bundles: %q: %w", id, ErrNotFound)
		}
		for i, p := range def.Packs {
			if p.ID == packID {
				def.Packs = append(def.Packs[:i:i], def.Packs[i+1:]...)
				break
			}
		}
		ff.LocalBundles[id] = def
		return nil
	})
}

// Packs returns the ordered pack list of a bundle.
func (s *Store) Packs(id string) ([]registry.PackReference, error) {
	def, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return def.Packs, nil
}

// --- persistence ---

// update runs fn against a freshly loaded document and writes the result.
func (s *Store) update(fn func(*fileFormat) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ff, err := s.load()
	if err != nil {
		return err
	}

	if err := fn(&ff); err != nil {
		return err
	}

	return s.persist(ff)
}

func (s *Store) load() (fileFormat, error) {
	ff := fileFormat{LocalBundles: make(map[string]Definition)}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return ff, nil
		}
		return ff, fmt.Errorf("bundles: read file: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return ff, nil
	}

	if err := json.Unmarshal(data, &ff); err != nil {
		return ff, fmt.Errorf("bundles: parse file: %w", err)
	}

	if ff.LocalBundles == nil {
		ff.LocalBundles = make(map[string]Definition)
	}

	return ff, nil
}

// persist writes ff through a temp file and rename so readers never observe
// a partially written document.
func (s *Store) persist(ff fileFormat) error {
	data, err := json.MarshalIndent(ff, "", "  ")
	if err != nil {
		return fmt.Errorf("bundles: marshal: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o750); err != nil {
		return fmt.Errorf("bundles: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.filePath), ".smithed-*.tmp")
	if err != nil {
		return fmt.Errorf("bundles: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName) //nolint:gosec // tmpName comes from os.CreateTemp in a known directory
		return fmt.Errorf("bundles: write temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName) //nolint:gosec // tmpName comes from os.CreateTemp in a known directory
		return fmt.Errorf("bundles: close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.filePath); err != nil { //nolint:gosec // tmpName comes from os.CreateTemp in a known directory
		_ = os.Remove(tmpName) //nolint:gosec // tmpName comes from os.CreateTemp in a known directory
		return fmt.Errorf("bundles: rename temp file: %w", err)
	}

	return nil
}
