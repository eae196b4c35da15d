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
// Package report describes and writes the manifest changes of an update.
package report

import (
	"fmt"

	"bennypowers.dev/update-dependents/packagejson"
	"bennypowers.dev/update-dependents/resolve"
)

// Change is one rewritten dependency entry.
type Change struct {
	Dependent string           `json:"dependent" yaml:"dependent"`
	Kind      packagejson.Kind `json:"kind" yaml:"kind"`
	Target    string           `json:"target" yaml:"target"`
	From      string           `json:"from" yaml:"from"`
	To        string           `json:"to" yaml:"to"`
	Path      string           `json:"path" yaml:"path"`
}

// Diff lists the entries whose range differs between original and updated,
// ordered by kind and then by dependent name. Entries whose range did not
// change are left out.
func Diff(original, updated *resolve.Dependents) []Change {
	var changes []Change
	for _, kind := range packagejson.Kinds {
		for _, name := range original.Names(kind) {
			before, _ := original.Get(kind, name)
			after, ok := updated.Get(kind, name)
			if !ok {
				continue
			}

			from, _ := before.Manifest.Range(kind, original.Target)
			to, _ := after.Manifest.Range(kind, original.Target)
			if from == to {
				continue
			}

			changes = append(changes, Change{
				Dependent: name,
				Kind:      kind,
				Target:    original.Target,
				From:      from,
				To:        to,
				Path:      after.Path,
			})
		}
	}
	return changes
}

// Action names what happens to a change.
func Action(dryRun bool) string {
	if dryRun {
		return "would update"
	}
	return "updated"
}

// Line renders a change as a console line, e.g.
// "would update b.dependencies.a from ~1.0.0 to ~2.0.0".
func Line(c Change, dryRun bool) string {
	return FormatLine(c, dryRun, c.Kind.String())
}

// FormatLine is Line with the kind already rendered, so callers can style it.
func FormatLine(c Change, dryRun bool, kind string) string {
	return fmt.Sprintf("%s %s.%s.%s from %s to %s", Action(dryRun), c.Dependent, kind, c.Target, c.From, c.To)
}
