package query

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"github.com/quantmind-br/xpkg/internal/fsops"
)

// IndexEntry describes a manually installed utility
type IndexEntry struct {
	Version     string `toml:"version"`
	Description string `toml:"description"`
}

// Index reads the TOML index kept by the manual installer:
//
//	[name]
//	version = "1.0"
//	description = "..."
type Index struct {
	fs   afero.Fs
	path string
}

// NewIndex creates an index reader over fsys
func NewIndex(fsys afero.Fs, path string) *Index {
	return &Index{fs: fsys, path: path}
}

// Path returns the index file location
func (i *Index) Path() string {
	return i.path
}

// Load reads every entry. A missing file is an empty index.
func (i *Index) Load() (map[string]IndexEntry, error) {
	data, err := afero.ReadFile(i.fs, i.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]IndexEntry{}, nil
		}
		return nil, fmt.Errorf("read index %s: %w", i.path, err)
	}

	entries := map[string]IndexEntry{}
	if err := toml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse index %s: %w", i.path, err)
	}
	return entries, nil
}

// Lookup returns the entry for name as an installed exact-match record
func (i *Index) Lookup(name string) (Record, bool, error) {
	entries, err := i.Load()
	if err != nil {
		return Record{}, false, err
	}
	entry, ok := entries[name]
	if !ok {
		return Record{}, false, nil
	}
	return Record{
		Name:        name,
		Version:     entry.Version,
		Description: entry.Description,
		Installed:   true,
		Score:       100,
	}, true, nil
}

// Names returns the indexed names, sorted
func (i *Index) Names() ([]string, error) {
	entries, err := i.Load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Put adds or replaces an entry and rewrites the file
func (i *Index) Put(name string, entry IndexEntry) error {
	entries, err := i.Load()
	if err != nil {
		return err
	}
	entries[name] = entry

	data, err := toml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := fsops.WriteFileAtomic(i.fs, i.path, data, 0o644); err != nil {
		return fmt.Errorf("write index %s: %w", i.path, err)
	}
	return nil
}
