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
// Command update-dependents propagates a package's version to the
// package.json of every package that depends on it.
package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/spf13/cobra"

	"bennypowers.dev/update-dependents/cmd/update"
	"bennypowers.dev/update-dependents/internal/version"
)

var (
	cpuprofile     string
	cpuprofileFile *os.File
	rootCmd        = update.Cmd
)

func init() {
	rootCmd.Version = version.Get().String()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&cpuprofile, "cpuprofile", "", "Write CPU profile to file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cpuprofile != "" {
			f, err := os.Create(cpuprofile)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %w", err)
			}
			cpuprofileFile = f
			if err := pprof.StartCPUProfile(f); err != nil {
				closeErr := f.Close()
				return errors.Join(
					fmt.Errorf("could not start CPU profile: %w", err),
					closeErr,
				)
			}
		}
		return nil
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if cpuprofileFile != nil {
			pprof.StopCPUProfile()
			if err := cpuprofileFile.Close(); err != nil {
				return fmt.Errorf("closing CPU profile: %w", err)
			}
		}
		return nil
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
