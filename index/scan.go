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
package index

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	ufs "bennypowers.dev/update-dependents/fs"
	"bennypowers.dev/update-dependents/packagejson"
)

type scanner struct {
	fsys     ufs.FileSystem
	excludes []string
	logger   Logger
	idx      *Index
}

func (s *scanner) scanRoot(root string) error {
	info, err := s.fsys.Stat(root)
	if err != nil {
		return &ScanError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return &ScanError{Root: root, Err: ErrNotDirectory}
	}

	err = s.fsys.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// Unreadable subtrees are skipped, not fatal
			s.warnf("Skipping %s: %v", path, err)
			return nil
		}

		if d.IsDir() {
			if path != root && s.excluded(root, path) {
				s.debugf("Pruning %s", path)
				return fs.SkipDir
			}
			return nil
		}

		if d.Name() == packagejson.FileName {
			s.load(root, path)
		}
		return nil
	})
	if err != nil {
		return &ScanError{Root: root, Err: err}
	}
	return nil
}

// excluded reports whether a directory matches an exclude pattern.
func (s *scanner) excluded(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range s.excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// load parses one manifest and adds it to the index. Manifests that fail to
// parse or have no name are recorded as skipped.
func (s *scanner) load(root, path string) {
	if s.idx.seen[path] {
		return
	}
	s.idx.seen[path] = true

	pkg, err := packagejson.ParseFile(s.fsys, path)
	if err == nil && pkg.Name == "" {
		err = ErrMissingName
	}
	if err != nil {
		s.idx.skipped = append(s.idx.skipped, Skip{Path: path, Err: err})
		s.warnf("Skipping %s: %v", path, err)
		return
	}
	if dups := pkg.Duplicates(); len(dups) > 0 {
		s.warnf("%s repeats %s; the last occurrence is read and every occurrence is rewritten",
			path, strings.Join(dups, ", "))
	}

	record := &Record{
		Manifest: pkg,
		Dir:      filepath.Dir(path),
		Path:     path,
		Root:     root,
	}

	if existing, ok := s.idx.records[pkg.Name]; ok {
		s.idx.collisions = append(s.idx.collisions, Collision{
			Name:     pkg.Name,
			Kept:     path,
			Replaced: existing.Path,
		})
		s.warnf("Package %s is declared by both %s and %s; using %s",
			pkg.Name, existing.Path, path, path)
	}
	s.idx.records[pkg.Name] = record
	s.debugf("Indexed %s from %s", pkg.Name, path)
}

func (s *scanner) warnf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Warnf(format, args...)
	}
}

func (s *scanner) debugf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Debugf(format, args...)
	}
}
