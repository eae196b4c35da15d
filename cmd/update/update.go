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
// Package update provides the update-dependents command.
package update

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/update-dependents/fs"
	"bennypowers.dev/update-dependents/internal/config"
	"bennypowers.dev/update-dependents/internal/output"
	"bennypowers.dev/update-dependents/propagate"
)

// Cmd is the update-dependents command.
var Cmd = &cobra.Command{
	Use:   "update-dependents [options] <package-name>",
	Short: "Bump the version of a package in every package that depends on it",
	Long: `update-dependents is used to update the referenced version of the given
<package-name> in all dependents of <package-name>.

e.g. if we're updating dependents of pkg a and b uses a as a dependency,
then a's use in b's package.json will get its version bumped to whatever
version a has in its package.json (together with the default prefix of '~').
The prefix can be changed with the -p (--prefix) flag.

Every directory under the searched paths is scanned for package.json files,
except node_modules, bower_components, jspm_packages and .git.

Settings can also come from UPDATE_DEPENDENTS_* environment variables
(e.g. UPDATE_DEPENDENTS_PREFIX) or a .update-dependents.yaml file.`,
	Example: `  # Update dependents of a found under the current directory
  update-dependents a

  # Search two workspaces and pin with a caret
  update-dependents -a packages -a ../other -p ^ a

  # See what would change
  update-dependents --dry-run @scope/a

  # Propagate a version that isn't in a's package.json yet
  update-dependents -n 3.0.0-beta.1 a`,
	Args: Args,
	RunE: run,
}

func init() {
	config.AddFlags(Cmd)
}

// Args requires the package name.
func Args(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return propagate.ErrMissingTarget
	}
	return cobra.MaximumNArgs(1)(cmd, args)
}

func run(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("finding working directory: %w", err)
	}

	v := viper.New()
	if err := config.Bind(v, cmd); err != nil {
		return err
	}
	cfg, err := config.Load(v, args, cwd)
	if err != nil {
		return err
	}

	logger := output.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
	if cfg.File != "" {
		logger.Debugf("Using config %s", cfg.File)
	}
	if cfg.DryRun {
		logger.Warn(output.DryRunBanner)
	}

	outcome, err := propagate.Run(cmd.Context(), fs.NewOSFileSystem(), cfg.Options(logger))
	if err != nil {
		return err
	}

	if err := output.NewPrinter(cmd.OutOrStdout(), cfg.Format).Print(outcome); err != nil {
		return err
	}

	if cfg.Format == config.FormatText && len(outcome.Changes) > 0 {
		stats := outcome.Stats
		if cfg.DryRun {
			logger.Infof("Dry run: %d package.json files would be modified (%d entries)", stats.Files, stats.Changes)
		} else {
			logger.Infof("Updated %d package.json files (%d entries), %d errors", stats.Files-stats.Errors, stats.Changes, stats.Errors)
		}
	}
	return nil
}
