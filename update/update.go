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
// Package update computes new manifest contents for the dependents of a
// package whose version changed.
package update

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"bennypowers.dev/update-dependents/index"
	"bennypowers.dev/update-dependents/packagejson"
	"bennypowers.dev/update-dependents/resolve"
)

// ErrNotSemver reports a version that is not a semantic version.
var ErrNotSemver = errors.New("not a semantic version")

// Result pairs the dependents before and after an update. Both hold the
// same names under the same kinds.
type Result struct {
	Original *resolve.Dependents
	Updated  *resolve.Dependents
}

// Range joins a prefix and a version into a range string. Neither part is
// validated, so an empty prefix pins the exact version.
func Range(prefix, version string) string {
	return prefix + version
}

// Run applies the new version to original and returns both sides.
func Run(target, newVersion, prefix string, original *resolve.Dependents) (*Result, error) {
	updated, err := Apply(target, newVersion, prefix, original)
	if err != nil {
		return nil, err
	}
	return &Result{Original: original, Updated: updated}, nil
}

// Apply returns a copy of original in which every dependent's entry for
// target is set to prefix+newVersion. The input is never modified.
//
// Each distinct dependent is copied once, and that copy is shared by every
// kind the dependent appears under, so all of its entries change together.
func Apply(target, newVersion, prefix string, original *resolve.Dependents) (*resolve.Dependents, error) {
	rng := Range(prefix, newVersion)
	updated := resolve.NewDependents(original.Target)
	copies := make(map[string]*index.Record)

	for _, kind := range packagejson.Kinds {
		for _, name := range original.Names(kind) {
			record, _ := original.Get(kind, name)

			clone, ok := copies[name]
			if !ok {
				clone = record.Clone()
				copies[name] = clone
			}

			if _, err := clone.Manifest.SetRange(kind, target, rng); err != nil {
				return nil, fmt.Errorf("updating %s: %w", clone.Path, err)
			}
			updated.Add(kind, clone)
		}
	}
	return updated, nil
}

// CheckVersion reports whether v is a semantic version. A leading "v" is
// optional.
func CheckVersion(v string) error {
	if !semver.IsValid("v" + strings.TrimPrefix(v, "v")) {
		return fmt.Errorf("%w: %q", ErrNotSemver, v)
	}
	return nil
}
