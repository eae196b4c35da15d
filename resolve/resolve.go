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
// Package resolve finds the manifests that declare a dependency on a target
// package.
package resolve

import (
	"slices"

	"bennypowers.dev/update-dependents/index"
	"bennypowers.dev/update-dependents/packagejson"
)

// Dependents holds, per dependency kind, the records that declare Target
// under that kind, keyed by the dependent's package name. A record may be
// present under several kinds.
type Dependents struct {
	Target string
	sets   map[packagejson.Kind]map[string]*index.Record
}

// NewDependents returns an empty set of dependents of target.
func NewDependents(target string) *Dependents {
	d := &Dependents{
		Target: target,
		sets:   make(map[packagejson.Kind]map[string]*index.Record, len(packagejson.Kinds)),
	}
	for _, kind := range packagejson.Kinds {
		d.sets[kind] = make(map[string]*index.Record)
	}
	return d
}

// Resolve classifies every indexed manifest that references target.
// A target missing from the index is not an error: the result is simply
// whatever declares it, possibly nothing.
func Resolve(target string, idx *index.Index) *Dependents {
	return ResolveGraph(target, idx, NewGraph(idx))
}

// ResolveGraph is Resolve over a graph already built from idx.
func ResolveGraph(target string, idx *index.Index, g *Graph) *Dependents {
	d := NewDependents(target)
	for _, kind := range packagejson.Kinds {
		for _, name := range g.Dependents(target, kind) {
			if record, ok := idx.Get(name); ok {
				d.Add(kind, record)
			}
		}
	}
	return d
}

// Add places record under kind. It panics on an unknown kind.
func (d *Dependents) Add(kind packagejson.Kind, record *index.Record) {
	set, ok := d.sets[kind]
	if !ok {
		panic("resolve: unknown dependency kind " + string(kind))
	}
	set[record.Name()] = record
}

// Set returns the records declaring the target under kind, keyed by name.
// The returned map must not be modified.
func (d *Dependents) Set(kind packagejson.Kind) map[string]*index.Record {
	return d.sets[kind]
}

// Get returns the record named name from the kind set.
func (d *Dependents) Get(kind packagejson.Kind, name string) (*index.Record, bool) {
	record, ok := d.sets[kind][name]
	return record, ok
}

// Names returns the dependent names under kind in ascending order.
func (d *Dependents) Names(kind packagejson.Kind) []string {
	names := make([]string, 0, len(d.sets[kind]))
	for name := range d.sets[kind] {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of distinct dependents across all kinds.
func (d *Dependents) Len() int {
	return len(d.unique())
}

// Empty reports whether nothing declares the target.
func (d *Dependents) Empty() bool {
	for _, set := range d.sets {
		if len(set) > 0 {
			return false
		}
	}
	return true
}

// Records returns each distinct dependent once, ordered by name.
func (d *Dependents) Records() []*index.Record {
	unique := d.unique()
	names := make([]string, 0, len(unique))
	for name := range unique {
		names = append(names, name)
	}
	slices.Sort(names)

	records := make([]*index.Record, len(names))
	for i, name := range names {
		records[i] = unique[name]
	}
	return records
}

func (d *Dependents) unique() map[string]*index.Record {
	unique := make(map[string]*index.Record)
	for _, kind := range packagejson.Kinds {
		for name, record := range d.sets[kind] {
			unique[name] = record
		}
	}
	return unique
}
