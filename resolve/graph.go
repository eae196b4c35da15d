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
package resolve

import (
	"slices"

	"bennypowers.dev/update-dependents/index"
	"bennypowers.dev/update-dependents/packagejson"
)

// Graph tracks which indexed packages declare which others, per dependency
// kind. It is built once from an index and never modified afterwards.
type Graph struct {
	// dependents maps package name -> kind -> set of packages declaring it
	// e.g., "a" -> {dependencies: {"b": true}}
	dependents map[string]map[packagejson.Kind]map[string]bool
}

// NewGraph builds the dependency graph of every indexed manifest.
// Dependencies on packages outside the index are recorded too, so the
// dependents of an unindexed target can still be found.
func NewGraph(idx *index.Index) *Graph {
	g := &Graph{
		dependents: make(map[string]map[packagejson.Kind]map[string]bool),
	}
	for _, record := range idx.Records() {
		for _, kind := range packagejson.Kinds {
			for dep := range record.Manifest.Deps(kind) {
				g.addDependency(record.Name(), dep, kind)
			}
		}
	}
	return g
}

// addDependency records that pkg declares dep under kind. Self references
// are ignored.
func (g *Graph) addDependency(pkg, dep string, kind packagejson.Kind) {
	if pkg == dep {
		return
	}
	if g.dependents[dep] == nil {
		g.dependents[dep] = make(map[packagejson.Kind]map[string]bool)
	}
	if g.dependents[dep][kind] == nil {
		g.dependents[dep][kind] = make(map[string]bool)
	}
	g.dependents[dep][kind][pkg] = true
}

// Dependents returns the packages that declare pkg under kind.
func (g *Graph) Dependents(pkg string, kind packagejson.Kind) []string {
	return sortedKeys(g.dependents[pkg][kind])
}

// DependentsAny returns the packages that declare pkg under any kind.
func (g *Graph) DependentsAny(pkg string) []string {
	return sortedKeys(union(g.dependents[pkg]))
}

// TransitiveDependents returns all packages that directly or indirectly depend on pkg.
// Uses breadth-first traversal to find all dependents.
func (g *Graph) TransitiveDependents(pkg string) []string {
	visited := map[string]bool{pkg: true}
	queue := []string{pkg}
	var result []string

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, dep := range g.DependentsAny(current) {
			if !visited[dep] {
				visited[dep] = true
				result = append(result, dep)
				queue = append(queue, dep)
			}
		}
	}

	slices.Sort(result)
	return result
}

func union(byKind map[packagejson.Kind]map[string]bool) map[string]bool {
	set := make(map[string]bool)
	for _, names := range byKind {
		for name := range names {
			set[name] = true
		}
	}
	return set
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	result := make([]string, 0, len(set))
	for name := range set {
		result = append(result, name)
	}
	slices.Sort(result)
	return result
}
