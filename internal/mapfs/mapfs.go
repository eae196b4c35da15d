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

// Package mapfs provides an in-memory filesystem implementation for testing.
package mapfs

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"testing/fstest"
	"time"
)

// MapFileSystem implements fs.FileSystem using an in-memory fstest.MapFS.
// Paths are absolute, slash-separated paths; directories exist implicitly
// whenever a file lives beneath them.
type MapFileSystem struct {
	mu         sync.RWMutex
	mapFS      fstest.MapFS
	modTime    time.Time
	failWrites map[string]error
	writes     []string
}

// New creates a new in-memory filesystem for testing.
func New() *MapFileSystem {
	return &MapFileSystem{
		mapFS:      make(fstest.MapFS),
		modTime:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		failWrites: make(map[string]error),
	}
}

// AddFile adds a file to the in-memory filesystem.
func (mfs *MapFileSystem) AddFile(path string, content string, mode fs.FileMode) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	mfs.mapFS[mfs.cleanPath(path)] = &fstest.MapFile{
		Data:    []byte(content),
		Mode:    mode,
		ModTime: mfs.modTime,
	}
}

// AddDir adds an empty directory to the in-memory filesystem.
func (mfs *MapFileSystem) AddDir(path string, mode fs.FileMode) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	mfs.mapFS[mfs.cleanPath(path)] = &fstest.MapFile{
		Mode:    fs.ModeDir | mode.Perm(),
		ModTime: mfs.modTime,
	}
}

// FailWrites makes every subsequent ReplaceFile call for name return err.
func (mfs *MapFileSystem) FailWrites(name string, err error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	mfs.failWrites[mfs.cleanPath(name)] = err
}

// Writes returns the paths passed to successful ReplaceFile calls, sorted.
func (mfs *MapFileSystem) Writes() []string {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	writes := make([]string, len(mfs.writes))
	copy(writes, mfs.writes)
	sort.Strings(writes)
	return writes
}

// ReadFile implements fs.FileSystem.
func (mfs *MapFileSystem) ReadFile(name string) ([]byte, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	return fs.ReadFile(mfs.mapFS, mfs.cleanPath(name))
}

// ReplaceFile implements fs.FileSystem.
func (mfs *MapFileSystem) ReplaceFile(name string, data []byte) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	cleaned := mfs.cleanPath(name)
	if err, ok := mfs.failWrites[cleaned]; ok {
		return &fs.PathError{Op: "open", Path: name, Err: err}
	}

	file, exists := mfs.mapFS[cleaned]
	if !exists {
		return &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	if file.Mode.IsDir() {
		return &fs.PathError{Op: "open", Path: name, Err: fmt.Errorf("is a directory")}
	}

	mfs.mapFS[cleaned] = &fstest.MapFile{
		Data:    append([]byte(nil), data...),
		Mode:    file.Mode,
		ModTime: mfs.modTime,
	}
	mfs.writes = append(mfs.writes, "/"+cleaned)
	return nil
}

// Remove deletes a file from the in-memory filesystem.
func (mfs *MapFileSystem) Remove(name string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	cleaned := mfs.cleanPath(name)
	if _, exists := mfs.mapFS[cleaned]; !exists {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}

	delete(mfs.mapFS, cleaned)
	return nil
}

// Stat implements fs.FileSystem.
func (mfs *MapFileSystem) Stat(name string) (fs.FileInfo, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	return fs.Stat(mfs.mapFS, mfs.fsPath(name))
}

// WalkDir implements fs.FileSystem. Paths handed to fn are absolute.
// The walk runs over a snapshot so fn may call back into the filesystem.
func (mfs *MapFileSystem) WalkDir(root string, fn fs.WalkDirFunc) error {
	mfs.mu.RLock()
	snapshot := make(fstest.MapFS, len(mfs.mapFS))
	for p, file := range mfs.mapFS {
		snapshot[p] = file
	}
	mfs.mu.RUnlock()

	return fs.WalkDir(snapshot, mfs.fsPath(root), func(p string, d fs.DirEntry, err error) error {
		if p == "." {
			return fn("/", d, err)
		}
		return fn("/"+p, d, err)
	})
}

// Files returns the contents of every regular file, keyed by absolute path.
func (mfs *MapFileSystem) Files() map[string]string {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	result := make(map[string]string, len(mfs.mapFS))
	for p, file := range mfs.mapFS {
		if file.Mode.IsDir() {
			continue
		}
		result["/"+p] = string(file.Data)
	}
	return result
}

// cleanPath maps an absolute path to its MapFS key.
func (mfs *MapFileSystem) cleanPath(p string) string {
	cleaned := path.Clean(p)
	if !path.IsAbs(cleaned) {
		cleaned = "/" + cleaned
	}
	return strings.TrimPrefix(cleaned, "/")
}

// fsPath is cleanPath with the filesystem root spelled as ".".
func (mfs *MapFileSystem) fsPath(p string) string {
	if cleaned := mfs.cleanPath(p); cleaned != "" {
		return cleaned
	}
	return "."
}
