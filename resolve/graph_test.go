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
package resolve_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bennypowers.dev/update-dependents/internal/mapfs"
	"bennypowers.dev/update-dependents/packagejson"
	"bennypowers.dev/update-dependents/resolve"
)

func chainFS() *mapfs.MapFileSystem {
	mfs := mapfs.New()
	mfs.AddFile("/ws/a/package.json", `{"name": "a"}`, 0644)
	mfs.AddFile("/ws/b/package.json", `{"name": "b", "dependencies": {"a": "1"}}`, 0644)
	mfs.AddFile("/ws/c/package.json", `{"name": "c", "peerDependencies": {"b": "1"}}`, 0644)
	mfs.AddFile("/ws/d/package.json", `{"name": "d", "devDependencies": {"c": "1", "a": "1"}}`, 0644)
	mfs.AddFile("/ws/e/package.json", `{"name": "e", "dependencies": {"e": "1"}}`, 0644)
	return mfs
}

func TestGraphDependents(t *testing.T) {
	g := resolve.NewGraph(buildIndex(t, chainFS()))

	tests := []struct {
		pkg  string
		kind packagejson.Kind
		want []string
	}{
		{"a", packagejson.Dependencies, []string{"b"}},
		{"a", packagejson.DevDependencies, []string{"d"}},
		{"a", packagejson.PeerDependencies, nil},
		{"b", packagejson.PeerDependencies, []string{"c"}},
		{"e", packagejson.Dependencies, nil},
	}

	for _, tt := range tests {
		t.Run(tt.pkg+"/"+tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, g.Dependents(tt.pkg, tt.kind))
		})
	}
}

func TestGraphDependentsAny(t *testing.T) {
	g := resolve.NewGraph(buildIndex(t, chainFS()))

	assert.Equal(t, []string{"b", "d"}, g.DependentsAny("a"))
	assert.Nil(t, g.DependentsAny("d"))
}

func TestGraphSelfReference(t *testing.T) {
	g := resolve.NewGraph(buildIndex(t, chainFS()))

	assert.Nil(t, g.DependentsAny("e"), "self references are dropped")
	assert.Nil(t, g.TransitiveDependents("e"))
}

func TestGraphTransitiveDependents(t *testing.T) {
	g := resolve.NewGraph(buildIndex(t, chainFS()))

	assert.Equal(t, []string{"b", "c", "d"}, g.TransitiveDependents("a"))
	assert.Equal(t, []string{"c", "d"}, g.TransitiveDependents("b"))
	assert.Nil(t, g.TransitiveDependents("d"))
}
