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
// Package packagejson parses package.json manifests and rewrites individual
// dependency entries without disturbing the rest of the document.
package packagejson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/tidwall/gjson"

	"bennypowers.dev/update-dependents/fs"
)

// FileName is the manifest file name looked up in every package directory.
const FileName = "package.json"

// DefaultIndent is used when a manifest's own indentation can't be detected.
const DefaultIndent = "  "

var (
	// ErrUnknownKind is returned for a dependency kind outside Kinds.
	ErrUnknownKind = errors.New("unknown dependency kind")

	// ErrInvalid is returned for a document that is not a usable manifest.
	ErrInvalid = errors.New("invalid package.json")
)

// Kind names one of the dependency maps of a manifest.
type Kind string

const (
	Dependencies     Kind = "dependencies"
	PeerDependencies Kind = "peerDependencies"
	DevDependencies  Kind = "devDependencies"
)

// Kinds lists every dependency kind in reporting order.
var Kinds = []Kind{Dependencies, PeerDependencies, DevDependencies}

func (k Kind) String() string {
	return string(k)
}

// Valid reports whether k is one of Kinds.
func (k Kind) Valid() bool {
	switch k {
	case Dependencies, PeerDependencies, DevDependencies:
		return true
	}
	return false
}

// PackageJSON represents the subset of package.json relevant for version
// propagation. The raw document is kept alongside the decoded fields so it
// can be written back with its key order intact.
//
// Keys are matched exactly, as npm does: "Dependencies" is not a dependency
// map. When a key repeats, the last occurrence is the one read.
type PackageJSON struct {
	Name             string            `json:"name"`
	Version          string            `json:"version"`
	Dependencies     map[string]string `json:"dependencies,omitempty"`
	PeerDependencies map[string]string `json:"peerDependencies,omitempty"`
	DevDependencies  map[string]string `json:"devDependencies,omitempty"`

	raw        []byte
	indent     string
	crlf       bool
	duplicates []string
}

// Parse parses package.json data.
func Parse(data []byte) (*PackageJSON, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalid)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: top level is not an object", ErrInvalid)
	}

	pkg := &PackageJSON{
		raw:    append([]byte(nil), data...),
		indent: detectIndent(data),
		crlf:   bytes.Contains(data, []byte("\r\n")),
	}
	seen := make(map[string]bool)

	var err error
	root.ForEach(func(key, value gjson.Result) bool {
		if seen[key.Str] && (key.Str == "name" || key.Str == "version" || Kind(key.Str).Valid()) {
			pkg.duplicates = append(pkg.duplicates, key.Str)
		}
		seen[key.Str] = true

		switch key.Str {
		case "name":
			pkg.Name, err = stringField(key.Str, value)
		case "version":
			pkg.Version, err = stringField(key.Str, value)
		case string(Dependencies):
			pkg.Dependencies, err = pkg.depsField(Dependencies, value)
		case string(PeerDependencies):
			pkg.PeerDependencies, err = pkg.depsField(PeerDependencies, value)
		case string(DevDependencies):
			pkg.DevDependencies, err = pkg.depsField(DevDependencies, value)
		}
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(pkg.duplicates)
	return pkg, nil
}

// ParseFile parses a package.json file.
func ParseFile(fs fs.FileSystem, path string) (*PackageJSON, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func stringField(key string, value gjson.Result) (string, error) {
	switch value.Type {
	case gjson.String:
		return value.Str, nil
	case gjson.Null:
		return "", nil
	}
	return "", fmt.Errorf("%w: %q is not a string", ErrInvalid, key)
}

// depsField decodes one dependency map, noting names declared twice.
func (pkg *PackageJSON) depsField(kind Kind, value gjson.Result) (map[string]string, error) {
	if value.Type == gjson.Null {
		return nil, nil
	}
	if !value.IsObject() {
		return nil, fmt.Errorf("%w: %q is not an object", ErrInvalid, kind)
	}

	deps := make(map[string]string)
	var err error
	value.ForEach(func(name, rng gjson.Result) bool {
		if rng.Type != gjson.String {
			err = fmt.Errorf("%w: %s.%s is not a string", ErrInvalid, kind, name.Str)
			return false
		}
		if _, ok := deps[name.Str]; ok {
			pkg.duplicates = append(pkg.duplicates, string(kind)+"."+name.Str)
		}
		deps[name.Str] = rng.Str
		return true
	})
	return deps, err
}

// Duplicates lists the keys that occur more than once, as "name", "version",
// a kind, or "<kind>.<dependency>", in ascending order.
func (pkg *PackageJSON) Duplicates() []string {
	return slices.Compact(slices.Clone(pkg.duplicates))
}

// Deps returns the dependency map for kind, which may be nil.
func (pkg *PackageJSON) Deps(kind Kind) map[string]string {
	switch kind {
	case Dependencies:
		return pkg.Dependencies
	case PeerDependencies:
		return pkg.PeerDependencies
	case DevDependencies:
		return pkg.DevDependencies
	}
	return nil
}

// Range returns the version range declared for name under kind.
func (pkg *PackageJSON) Range(kind Kind, name string) (string, bool) {
	r, ok := pkg.Deps(kind)[name]
	return r, ok
}

// SetRange rewrites the range of an existing entry. Entries that don't exist
// are left alone and reported as unchanged; SetRange never adds a key.
// Every occurrence of a repeated entry is rewritten.
func (pkg *PackageJSON) SetRange(kind Kind, name, rng string) (bool, error) {
	if !kind.Valid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	deps := pkg.Deps(kind)
	current, ok := deps[name]
	if !ok {
		return false, nil
	}
	if current == rng {
		return false, nil
	}

	if len(pkg.raw) > 0 {
		raw, err := replaceEntries(pkg.raw, kind, name, rng)
		if err != nil {
			return false, fmt.Errorf("rewriting %s.%s: %w", kind, name, err)
		}
		pkg.raw = raw
	}
	deps[name] = rng
	return true, nil
}

// span is a byte range of the raw document.
type span struct {
	start, end int
}

// replaceEntries sets every value of name inside every top-level kind object
// of raw to rng.
func replaceEntries(raw []byte, kind Kind, name, rng string) ([]byte, error) {
	// Offsets reported by gjson are relative to the first non-space byte.
	lead := len(raw) - len(bytes.TrimLeft(raw, " \t\r\n"))

	var spans []span
	gjson.ParseBytes(raw).ForEach(func(key, obj gjson.Result) bool {
		if key.Str != string(kind) || !obj.IsObject() {
			return true
		}
		obj.ForEach(func(dep, value gjson.Result) bool {
			if dep.Str == name {
				start := lead + value.Index
				spans = append(spans, span{start, start + len(value.Raw)})
			}
			return true
		})
		return true
	})

	encoded, err := encodeString(rng)
	if err != nil {
		return nil, err
	}

	out := append([]byte(nil), raw...)
	for i := len(spans) - 1; i >= 0; i-- {
		s := spans[i]
		if s.start <= 0 || s.end > len(out) || out[s.start] != '"' {
			return nil, fmt.Errorf("no string value at offset %d", s.start)
		}
		out = slices.Replace(out, s.start, s.end, encoded...)
	}
	return out, nil
}

// encodeString renders s as a JSON string without HTML escaping, so ranges
// like ">=1.0.0" stay readable.
func encodeString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Clone returns a deep copy that shares no maps or buffers with pkg.
func (pkg *PackageJSON) Clone() *PackageJSON {
	return &PackageJSON{
		Name:             pkg.Name,
		Version:          pkg.Version,
		Dependencies:     cloneDeps(pkg.Dependencies),
		PeerDependencies: cloneDeps(pkg.PeerDependencies),
		DevDependencies:  cloneDeps(pkg.DevDependencies),
		raw:              append([]byte(nil), pkg.raw...),
		indent:           pkg.indent,
		crlf:             pkg.crlf,
		duplicates:       slices.Clone(pkg.duplicates),
	}
}

// Indent returns the indentation unit detected in the source document.
func (pkg *PackageJSON) Indent() string {
	if pkg.indent == "" {
		return DefaultIndent
	}
	return pkg.indent
}

// Marshal serializes the manifest. Documents that came from Parse keep their
// key order and every field this package doesn't model; only whitespace is
// normalized to the source's indentation unit and line endings. A trailing
// newline is kept when the source had one.
func (pkg *PackageJSON) Marshal() ([]byte, error) {
	src := pkg.raw
	if len(src) == 0 {
		var err error
		if src, err = json.Marshal(pkg); err != nil {
			return nil, err
		}
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimLeft(src, " \t\r\n"), "", pkg.Indent()); err != nil {
		return nil, err
	}
	out := bytes.ReplaceAll(buf.Bytes(), []byte("\r\n"), []byte("\n"))
	if pkg.crlf {
		out = bytes.ReplaceAll(out, []byte("\n"), []byte("\r\n"))
	}
	return out, nil
}

func cloneDeps(deps map[string]string) map[string]string {
	if deps == nil {
		return nil
	}
	out := make(map[string]string, len(deps))
	for k, v := range deps {
		out[k] = v
	}
	return out
}

// detectIndent returns the leading whitespace of the first indented line.
func detectIndent(data []byte) string {
	for _, line := range bytes.Split(data, []byte("\n"))[1:] {
		trimmed := bytes.TrimLeft(line, " \t")
		if len(trimmed) == len(line) || len(bytes.TrimSpace(trimmed)) == 0 {
			continue
		}
		return string(line[:len(line)-len(trimmed)])
	}
	return ""
}
