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
// Package output renders the outcome of a run for the console.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"bennypowers.dev/update-dependents/internal/config"
	"bennypowers.dev/update-dependents/packagejson"
	"bennypowers.dev/update-dependents/propagate"
	"bennypowers.dev/update-dependents/report"
)

// DryRunBanner is logged before a dry run.
const DryRunBanner = "This is a dry run…"

// Document is the json and yaml form of an outcome.
type Document struct {
	Target  string       `json:"target" yaml:"target"`
	Version string       `json:"version" yaml:"version"`
	Prefix  string       `json:"prefix" yaml:"prefix"`
	DryRun  bool         `json:"dryRun" yaml:"dryRun"`
	Changes []Change     `json:"changes" yaml:"changes"`
	Stats   report.Stats `json:"stats" yaml:"stats"`
}

// Change is a report.Change with the error of its write, if any.
type Change struct {
	report.Change `yaml:",inline"`
	Error         string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Printer writes outcomes in one of the supported formats.
type Printer struct {
	w      io.Writer
	format string
	kinds  map[packagejson.Kind]lipgloss.Style
}

// NewPrinter creates a printer for w. Kind names are colored only when w is
// a terminal that supports it.
func NewPrinter(w io.Writer, format string) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:      w,
		format: format,
		kinds: map[packagejson.Kind]lipgloss.Style{
			packagejson.Dependencies:     r.NewStyle().Foreground(lipgloss.Color("4")),
			packagejson.PeerDependencies: r.NewStyle().Foreground(lipgloss.Color("2")),
			packagejson.DevDependencies:  r.NewStyle().Foreground(lipgloss.Color("1")),
		},
	}
}

// Print writes the outcome.
func (p *Printer) Print(o *propagate.Outcome) error {
	switch p.format {
	case config.FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(NewDocument(o))
	case config.FormatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(NewDocument(o)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return p.text(o)
	}
}

// text prints one line per change. Changes whose manifest could not be
// written are left out; the failure is logged instead.
func (p *Printer) text(o *propagate.Outcome) error {
	failed := failures(o.Results)
	for _, c := range o.Changes {
		if failed[c.Path] != nil {
			continue
		}
		kind := p.kinds[c.Kind].Render(c.Kind.String())
		if _, err := fmt.Fprintln(p.w, report.FormatLine(c, o.DryRun, kind)); err != nil {
			return err
		}
	}
	return nil
}

// NewDocument builds the structured form of an outcome.
func NewDocument(o *propagate.Outcome) Document {
	failed := failures(o.Results)
	changes := make([]Change, 0, len(o.Changes))
	for _, c := range o.Changes {
		change := Change{Change: c}
		if err := failed[c.Path]; err != nil {
			change.Error = err.Error()
		}
		changes = append(changes, change)
	}
	return Document{
		Target:  o.Target,
		Version: o.Version,
		Prefix:  o.Prefix,
		DryRun:  o.DryRun,
		Changes: changes,
		Stats:   o.Stats,
	}
}

func failures(results []report.Result) map[string]error {
	failed := make(map[string]error)
	for _, r := range results {
		if r.Err != nil {
			failed[r.Path] = r.Err
		}
	}
	return failed
}
