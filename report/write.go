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
package report

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"bennypowers.dev/update-dependents/fs"
	"bennypowers.dev/update-dependents/index"
	"bennypowers.dev/update-dependents/resolve"
)

// Options configures Write.
type Options struct {
	// DryRun skips every filesystem write.
	DryRun bool
	// Jobs is the number of concurrent writers (default: number of CPUs).
	Jobs int
}

// Result holds the outcome of writing one manifest.
type Result struct {
	Dependent string
	Path      string
	Changes   []Change
	Err       error
}

// Stats holds aggregate statistics from a write.
type Stats struct {
	Files   int `json:"files" yaml:"files"`
	Changes int `json:"changes" yaml:"changes"`
	Errors  int `json:"errors" yaml:"errors"`
}

// Write groups changes by manifest and replaces each changed manifest with
// its updated contents. Writes to distinct files run concurrently and have
// all finished when Write returns. A failed write is reported in its Result
// and does not stop the others. Results follow the order of changes.
//
// Write never creates files: a manifest removed since it was scanned fails
// with fs.ErrNotExist.
func Write(ctx context.Context, fsys fs.FileSystem, updated *resolve.Dependents, changes []Change, opts Options) []Result {
	var results []Result
	var records []*index.Record
	byPath := make(map[string]int)

	for _, c := range changes {
		i, ok := byPath[c.Path]
		if !ok {
			i = len(results)
			byPath[c.Path] = i
			results = append(results, Result{Dependent: c.Dependent, Path: c.Path})
			record, _ := updated.Get(c.Kind, c.Dependent)
			records = append(records, record)
		}
		results[i].Changes = append(results[i].Changes, c)
	}

	if opts.DryRun {
		return results
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	p := pool.New().WithMaxGoroutines(jobs)
	for i := range results {
		p.Go(func() {
			results[i].Err = writeRecord(ctx, fsys, records[i], results[i].Dependent)
		})
	}
	p.Wait()

	return results
}

func writeRecord(ctx context.Context, fsys fs.FileSystem, record *index.Record, dependent string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("no updated manifest for %s", dependent)
	}

	data, err := record.Manifest.Marshal()
	if err != nil {
		return fmt.Errorf("serializing %s: %w", record.Path, err)
	}
	return fsys.ReplaceFile(record.Path, data)
}

// Summarize counts the files, changes and failures in results.
func Summarize(results []Result) Stats {
	var stats Stats
	for _, r := range results {
		stats.Files++
		stats.Changes += len(r.Changes)
		if r.Err != nil {
			stats.Errors++
		}
	}
	return stats
}
