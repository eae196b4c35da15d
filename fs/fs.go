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

// Package fs provides filesystem abstractions for update-dependents.
package fs

import (
	"io/fs"
	"os"
	"path/filepath"
)

// FileSystem is the set of filesystem operations the scanner and the
// manifest writer depend on.
type FileSystem interface {
	// ReadFile reads the whole named file.
	ReadFile(name string) ([]byte, error)

	// ReplaceFile overwrites the contents of an existing file, keeping its
	// permissions. It never creates the file: a missing file is reported as
	// an error wrapping fs.ErrNotExist.
	ReplaceFile(name string, data []byte) error

	// Stat returns file info for the named file.
	Stat(name string) (fs.FileInfo, error)

	// WalkDir walks the tree rooted at root in lexical order, calling fn for
	// each file or directory, like filepath.WalkDir.
	WalkDir(root string, fn fs.WalkDirFunc) error
}

// OSFileSystem implements FileSystem using the standard os package.
type OSFileSystem struct{}

// NewOSFileSystem creates a new filesystem that uses the standard os package.
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

func (f *OSFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (f *OSFileSystem) ReplaceFile(name string, data []byte) error {
	file, err := os.OpenFile(name, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func (f *OSFileSystem) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

func (f *OSFileSystem) WalkDir(root string, fn fs.WalkDirFunc) error {
	return filepath.WalkDir(root, fn)
}
