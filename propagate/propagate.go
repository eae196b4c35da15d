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
// Package propagate carries a package's new version into the manifests of
// every package that depends on it.
package propagate

import (
	"context"
	"errors"
	"fmt"

	"bennypowers.dev/update-dependents/fs"
	"bennypowers.dev/update-dependents/index"
	"bennypowers.dev/update-dependents/report"
	"bennypowers.dev/update-dependents/resolve"
	"bennypowers.dev/update-dependents/update"
)

// DefaultPrefix is the range prefix used when none is configured.
const DefaultPrefix = "~"

var (
	// ErrMissingTarget is returned when no package name was given.
	ErrMissingTarget = errors.New("you need to specify which package to work with")

	// ErrNoManifests is returned when the scan found no usable manifest.
	ErrNoManifests = errors.New("no package.json files found")

	// ErrNoVersion is returned when no new version was given and the target
	// has no indexed manifest to take one from.
	ErrNoVersion = errors.New("no version to propagate")
)

// Logger is an interface for logging messages during propagation.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Debugf(format string, args ...any)
}

// Options configures Run.
type Options struct {
	// Target is the name of the package whose version changed.
	Target string
	// Roots are the directories scanned for manifests.
	Roots []string
	// NewVersion overrides the version read from the target's manifest.
	NewVersion string
	// Prefix is prepended to the version in every rewritten range.
	Prefix string
	// DryRun computes every change without writing.
	DryRun bool
	// Excludes are extra directory globs to prune from the scan.
	Excludes []string
	// Jobs is the number of concurrent writers.
	Jobs int
	// Logger may be nil.
	Logger Logger
}

// Outcome describes a completed run.
type Outcome struct {
	Target     string
	Version    string
	Prefix     string
	DryRun     bool
	Dependents *resolve.Dependents
	Changes    []report.Change
	Results    []report.Result
	Stats      report.Stats
}

// Run scans the roots, finds the target's dependents, rewrites their entries
// for the target and writes them back unless opts.DryRun is set.
//
// Per-manifest write failures are carried in Outcome.Results; Run only
// fails when there is nothing to work with.
func Run(ctx context.Context, fsys fs.FileSystem, opts Options) (*Outcome, error) {
	if opts.Target == "" {
		return nil, ErrMissingTarget
	}
	log := logger{opts.Logger}

	idx, err := index.Build(fsys, opts.Roots, index.Options{
		Excludes: opts.Excludes,
		Logger:   log,
	})
	if idx == nil {
		return nil, err
	}
	if err != nil {
		var scanErr *index.ScanError
		for _, e := range unwrapAll(err) {
			if errors.As(e, &scanErr) {
				log.Warnf("Could not scan %s: %v", scanErr.Root, scanErr.Err)
			}
		}
	}
	if idx.Len() == 0 {
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoManifests, err)
		}
		return nil, ErrNoManifests
	}
	log.Debugf("Indexed %d packages; skipped %d manifests; %d duplicate names",
		idx.Len(), len(idx.Skipped()), len(idx.Collisions()))

	version, err := selectVersion(idx, opts)
	if err != nil {
		return nil, err
	}
	if err := update.CheckVersion(version); err != nil {
		log.Warnf("%v; using it as is", err)
	}

	graph := resolve.NewGraph(idx)
	dependents := resolve.ResolveGraph(opts.Target, idx, graph)
	if dependents.Empty() {
		log.Infof("Nothing depends on %s", opts.Target)
	}
	if indirect := len(graph.TransitiveDependents(opts.Target)) - len(graph.DependentsAny(opts.Target)); indirect > 0 {
		log.Debugf("%d packages depend on %s only indirectly and are left alone", indirect, opts.Target)
	}

	result, err := update.Run(opts.Target, version, opts.Prefix, dependents)
	if err != nil {
		return nil, err
	}

	changes := report.Diff(result.Original, result.Updated)
	results := report.Write(ctx, fsys, result.Updated, changes, report.Options{
		DryRun: opts.DryRun,
		Jobs:   opts.Jobs,
	})
	for _, r := range results {
		if r.Err != nil {
			log.Warnf("Could not update %s: %v", r.Dependent, r.Err)
		}
	}

	return &Outcome{
		Target:     opts.Target,
		Version:    version,
		Prefix:     opts.Prefix,
		DryRun:     opts.DryRun,
		Dependents: dependents,
		Changes:    changes,
		Results:    results,
		Stats:      report.Summarize(results),
	}, nil
}

// selectVersion prefers an explicit version over the target's own.
func selectVersion(idx *index.Index, opts Options) (string, error) {
	if opts.NewVersion != "" {
		return opts.NewVersion, nil
	}
	record, ok := idx.Get(opts.Target)
	if !ok {
		return "", fmt.Errorf("%w: %s was not found and no version was given", ErrNoVersion, opts.Target)
	}
	if record.Manifest.Version == "" {
		return "", fmt.Errorf("%w: %s declares no version", ErrNoVersion, record.Path)
	}
	return record.Manifest.Version, nil
}

func unwrapAll(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

// logger adapts an optional Logger.
type logger struct {
	l Logger
}

func (l logger) Infof(format string, args ...any) {
	if l.l != nil {
		l.l.Infof(format, args...)
	}
}

func (l logger) Warnf(format string, args ...any) {
	if l.l != nil {
		l.l.Warnf(format, args...)
	}
}

func (l logger) Debugf(format string, args ...any) {
	if l.l != nil {
		l.l.Debugf(format, args...)
	}
}
