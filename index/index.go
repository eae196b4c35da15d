/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package index scans directory trees for package.json manifests and indexes
// them by package name.
package index

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	ufs "bennypowers.dev/update-dependents/fs"
	"bennypowers.dev/update-dependents/packagejson"
)

var (
	// ErrNotDirectory is returned for a scan root that is not a directory.
	ErrNotDirectory = errors.New("not a directory")

	// ErrMissingName marks a manifest skipped because it has no name.
	ErrMissingName = errors.New("manifest has no name")

	// ErrBadExclude is returned for an exclude pattern that doesn't parse.
	ErrBadExclude = errors.New("invalid exclude pattern")
)

// DefaultExcludes prunes dependency caches and VCS metadata from every scan.
// Patterns are doublestar globs matched against root-relative,
// slash-separated directory paths.
var DefaultExcludes = []string{
	"**/node_modules",
	"**/bower_components",
	"**/jspm_packages",
	"**/.git",
}

// Logger is an interface for logging messages during scanning.
type Logger interface {
	Warnf(format string, args ...any)
	Debugf(format string, args ...any)
}

// Options configures a scan.
type Options struct {
	// Excludes are added to DefaultExcludes.
	Excludes []string
	// Logger receives skip and collision warnings. May be nil.
	Logger Logger
}

// ScanError reports a root that could not be scanned.
type ScanError struct {
	Root string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scanning %s: %v", e.Root, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Skip records a manifest that was found but not indexed.
type Skip struct {
	Path string
	Err  error
}

// Collision records two manifests declaring the same package name. The
// manifest scanned last is kept.
type Collision struct {
	Name     string
	Kept     string
	Replaced string
}

// Record is an indexed manifest and where it lives.
type Record struct {
	Manifest *packagejson.PackageJSON
	// Dir is the absolute package directory.
	Dir string
	// Path is the absolute manifest file path.
	Path string
	// Root is the scan root the manifest was found under.
	Root string
}

// Name returns the manifest's package name.
func (r *Record) Name() string {
	return r.Manifest.Name
}

// Clone returns a deep copy of the record and its manifest.
func (r *Record) Clone() *Record {
	return &Record{
		Manifest: r.Manifest.Clone(),
		Dir:      r.Dir,
		Path:     r.Path,
		Root:     r.Root,
	}
}

// Index maps package names to manifests. It is not modified after Build
// returns and may be shared freely.
type Index struct {
	records    map[string]*Record
	seen       map[string]bool
	skipped    []Skip
	collisions []Collision
}

// Build scans every root and indexes the manifests found.
//
// A root that is missing or not a directory yields a *ScanError; the other
// roots are still scanned, so the returned Index holds partial results and
// the error joins every ScanError. Build returns a nil Index only when
// opts.Excludes contains an invalid pattern.
func Build(fsys ufs.FileSystem, roots []string, opts Options) (*Index, error) {
	excludes := append(append([]string(nil), DefaultExcludes...), opts.Excludes...)
	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: %q", ErrBadExclude, pattern)
		}
	}

	s := &scanner{
		fsys:     fsys,
		excludes: excludes,
		logger:   opts.Logger,
		idx: &Index{
			records: make(map[string]*Record),
			seen:    make(map[string]bool),
		},
	}

	var errs []error
	for _, root := range roots {
		if err := s.scanRoot(filepath.Clean(root)); err != nil {
			errs = append(errs, err)
		}
	}
	return s.idx, errors.Join(errs...)
}

// Len returns the number of indexed packages.
func (idx *Index) Len() int {
	return len(idx.records)
}

// Get returns the record for a package name.
func (idx *Index) Get(name string) (*Record, bool) {
	r, ok := idx.records[name]
	return r, ok
}

// Names returns every indexed package name in ascending order.
func (idx *Index) Names() []string {
	names := make([]string, 0, len(idx.records))
	for name := range idx.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Records returns every record ordered by package name.
func (idx *Index) Records() []*Record {
	names := idx.Names()
	records := make([]*Record, len(names))
	for i, name := range names {
		records[i] = idx.records[name]
	}
	return records
}

// Skipped returns the manifests that were found but not indexed.
func (idx *Index) Skipped() []Skip {
	return idx.skipped
}

// Collisions returns every package name declared by more than one manifest.
func (idx *Index) Collisions() []Collision {
	return idx.collisions
}
