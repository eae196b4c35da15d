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
package index_test

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ufs "bennypowers.dev/update-dependents/fs"
	"bennypowers.dev/update-dependents/index"
	"bennypowers.dev/update-dependents/internal/mapfs"
	"bennypowers.dev/update-dependents/packagejson"
	"bennypowers.dev/update-dependents/testutil"
)

type recordingLogger struct {
	warnings []string
	debug    []string
}

func (l *recordingLogger) Warnf(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Debugf(format string, args ...any) {
	l.debug = append(l.debug, fmt.Sprintf(format, args...))
}

func TestBuild(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "workspaces/basic", "/ws")
	logger := &recordingLogger{}

	idx, err := index.Build(mfs, []string{"/ws"}, index.Options{Logger: logger})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d", "e", "monorepo"}, idx.Names())
	assert.Equal(t, 6, idx.Len())

	b, ok := idx.Get("b")
	require.True(t, ok)
	assert.Equal(t, "/ws/packages/b/package.json", b.Path)
	assert.Equal(t, "/ws/packages/b", b.Dir)
	assert.Equal(t, "/ws", b.Root)
	assert.Equal(t, "b", b.Name())

	root, ok := idx.Get("monorepo")
	require.True(t, ok)
	assert.Equal(t, "/ws", root.Dir, "the root's own manifest is indexed")

	_, ok = idx.Get("x")
	assert.False(t, ok, "node_modules is pruned")

	skipped := idx.Skipped()
	require.Len(t, skipped, 2)
	paths := []string{skipped[0].Path, skipped[1].Path}
	assert.ElementsMatch(t, []string{
		"/ws/packages/broken/package.json",
		"/ws/packages/nameless/package.json",
	}, paths)
	for _, skip := range skipped {
		if skip.Path == "/ws/packages/nameless/package.json" {
			assert.ErrorIs(t, skip.Err, index.ErrMissingName)
		}
	}
	assert.Len(t, logger.warnings, 2)
	assert.Empty(t, idx.Collisions())
}

func TestBuildRecordsSortedByName(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "workspaces/basic", "/ws")

	idx, err := index.Build(mfs, []string{"/ws"}, index.Options{})
	require.NoError(t, err)

	var names []string
	for _, record := range idx.Records() {
		names = append(names, record.Name())
	}
	assert.Equal(t, idx.Names(), names)
}

func TestBuildExcludes(t *testing.T) {
	tests := []struct {
		name     string
		excludes []string
		want     []string
	}{
		{"defaults only", nil, []string{"a", "b", "c", "d", "e", "monorepo"}},
		{"single package", []string{"packages/c"}, []string{"a", "b", "d", "e", "monorepo"}},
		{"glob", []string{"packages/[bc]"}, []string{"a", "d", "e", "monorepo"}},
		{"every package", []string{"packages"}, []string{"monorepo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mfs := testutil.NewFixtureFS(t, "workspaces/basic", "/ws")

			idx, err := index.Build(mfs, []string{"/ws"}, index.Options{Excludes: tt.excludes})
			require.NoError(t, err)
			assert.Equal(t, tt.want, idx.Names())
		})
	}
}

func TestBuildInvalidExclude(t *testing.T) {
	idx, err := index.Build(mapfs.New(), []string{"/ws"}, index.Options{Excludes: []string{"packages/[b"}})
	assert.ErrorIs(t, err, index.ErrBadExclude)
	assert.Nil(t, idx)
}

func TestBuildNestedNodeModules(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/ws/package.json", `{"name": "root"}`, 0644)
	mfs.AddFile("/ws/node_modules/a/package.json", `{"name": "a"}`, 0644)
	mfs.AddFile("/ws/packages/b/node_modules/a/package.json", `{"name": "a"}`, 0644)
	mfs.AddFile("/ws/.git/package.json", `{"name": "git"}`, 0644)

	idx, err := index.Build(mfs, []string{"/ws"}, index.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"root"}, idx.Names())
}

func TestBuildRootErrors(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "workspaces/basic", "/ws")
	mfs.AddFile("/file.txt", "not a directory", 0644)

	idx, err := index.Build(mfs, []string{"/missing", "/ws", "/file.txt"}, index.Options{})
	require.Error(t, err)
	require.NotNil(t, idx)
	assert.Equal(t, 6, idx.Len(), "valid roots are still scanned")

	var scanErr *index.ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, "/missing", scanErr.Root)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.ErrorIs(t, err, index.ErrNotDirectory)
}

func TestBuildCollisions(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/one/a/package.json", `{"name": "a", "version": "1.0.0"}`, 0644)
	mfs.AddFile("/two/a/package.json", `{"name": "a", "version": "2.0.0"}`, 0644)
	logger := &recordingLogger{}

	idx, err := index.Build(mfs, []string{"/one", "/two"}, index.Options{Logger: logger})
	require.NoError(t, err)

	a, ok := idx.Get("a")
	require.True(t, ok)
	assert.Equal(t, "2.0.0", a.Manifest.Version, "last scanned wins")
	assert.Equal(t, []index.Collision{{
		Name:     "a",
		Kept:     "/two/a/package.json",
		Replaced: "/one/a/package.json",
	}}, idx.Collisions())
	require.Len(t, logger.warnings, 1)
	assert.Contains(t, logger.warnings[0], "a")
}

func TestBuildMatchesKeysExactly(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/ws/a/package.json", `{"name": "a", "version": "1.0.0"}`, 0644)
	mfs.AddFile("/ws/b/package.json", `{"name": "b", "Dependencies": {"a": "1.0.0"}}`, 0644)
	mfs.AddFile("/ws/c/package.json", `{"Name": "c"}`, 0644)

	idx, err := index.Build(mfs, []string{"/ws"}, index.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, idx.Names())

	b, ok := idx.Get("b")
	require.True(t, ok)
	assert.Nil(t, b.Manifest.Deps(packagejson.Dependencies))

	skipped := idx.Skipped()
	require.Len(t, skipped, 1)
	assert.Equal(t, "/ws/c/package.json", skipped[0].Path)
	assert.ErrorIs(t, skipped[0].Err, index.ErrMissingName)
}

func TestBuildWarnsOnDuplicateKeys(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/ws/b/package.json", `{"name": "b", "dependencies": {"a": "~2.0.0", "a": "1.5.0"}}`, 0644)
	logger := &recordingLogger{}

	idx, err := index.Build(mfs, []string{"/ws"}, index.Options{Logger: logger})
	require.NoError(t, err)

	b, ok := idx.Get("b")
	require.True(t, ok)
	rng, _ := b.Manifest.Range(packagejson.Dependencies, "a")
	assert.Equal(t, "1.5.0", rng)

	require.Len(t, logger.warnings, 1)
	assert.Contains(t, logger.warnings[0], "/ws/b/package.json")
	assert.Contains(t, logger.warnings[0], "dependencies.a")
}

func TestBuildOverlappingRoots(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "workspaces/basic", "/ws")

	idx, err := index.Build(mfs, []string{"/ws", "/ws/packages", "/ws/packages/b/"}, index.Options{})
	require.NoError(t, err)
	assert.Equal(t, 6, idx.Len())
	assert.Empty(t, idx.Collisions(), "a manifest seen twice is not a collision")

	b, _ := idx.Get("b")
	assert.Equal(t, "/ws", b.Root)
}

func TestBuildEmpty(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddDir("/empty", 0755)

	idx, err := index.Build(mfs, []string{"/empty"}, index.Options{})
	require.NoError(t, err)
	assert.Zero(t, idx.Len())
	assert.Empty(t, idx.Names())
}

func TestRecordClone(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "workspaces/basic", "/ws")
	idx, err := index.Build(mfs, []string{"/ws"}, index.Options{})
	require.NoError(t, err)

	b, _ := idx.Get("b")
	clone := b.Clone()
	clone.Manifest.Dependencies["a"] = "changed"

	assert.Equal(t, "~1.0.0", b.Manifest.Dependencies["a"])
	assert.Equal(t, b.Path, clone.Path)
	assert.NotSame(t, b.Manifest, clone.Manifest)
}

func TestBuildOSFileSystem(t *testing.T) {
	dir := testutil.CopyFixture(t, "workspaces/basic")

	idx, err := index.Build(ufs.NewOSFileSystem(), []string{dir}, index.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "monorepo"}, idx.Names())

	b, _ := idx.Get("b")
	assert.Equal(t, filepath.Join(dir, "packages", "b", "package.json"), b.Path)
}

func TestScanErrorUnwrap(t *testing.T) {
	err := &index.ScanError{Root: "/ws", Err: os.ErrPermission}
	assert.True(t, errors.Is(err, os.ErrPermission))
	assert.Contains(t, err.Error(), "/ws")
}
