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
// Package config resolves command line flags, environment variables and an
// optional config file into a validated Config.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/update-dependents/propagate"
)

// EnvPrefix prefixes every environment variable, e.g. UPDATE_DEPENDENTS_PREFIX.
const EnvPrefix = "UPDATE_DEPENDENTS"

// FileName is the config file looked up in the working directory, with any
// extension viper can read.
const FileName = ".update-dependents"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrInvalid is returned for a setting with an unusable value.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the settings of one run.
type Config struct {
	Target     string
	Roots      []string
	NewVersion string
	Prefix     string
	DryRun     bool
	Excludes   []string
	Jobs       int
	Format     string
	Verbose    bool
	// File is the config file that was read, if any.
	File string
}

// AddFlags defines the command line flags.
func AddFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringSliceP("add", "a", nil, "Add a path in which to search for dependents (default: current directory)")
	flags.StringP("new-version", "n", "", "Version to propagate (default: the version in the package's own package.json)")
	flags.StringP("prefix", "p", propagate.DefaultPrefix, "Range prefix; pass an empty value to pin exact versions")
	flags.BoolP("dry-run", "d", false, "Print what would be updated without changing any file")
	flags.StringSliceP("exclude", "e", nil, "Glob of directories to skip, relative to each path (node_modules is always skipped)")
	flags.IntP("jobs", "j", 0, "Number of files written concurrently (default: number of CPUs)")
	flags.StringP("format", "f", FormatText, "Output format (text, json, yaml)")
	flags.Bool("verbose", false, "Log debug output")
	flags.StringP("config", "c", "", "Config file (default: "+FileName+".{yaml,json,toml} in the current directory)")
}

// Bind connects v to the command's flags and the environment.
func Bind(v *viper.Viper, cmd *cobra.Command) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	return v.BindPFlags(cmd.Flags())
}

// Load reads the config file, if any, and builds the Config for args.
// Relative roots are resolved against cwd.
func Load(v *viper.Viper, args []string, cwd string) (*Config, error) {
	file, err := readConfigFile(v, cwd)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		NewVersion: v.GetString("new-version"),
		Prefix:     v.GetString("prefix"),
		DryRun:     v.GetBool("dry-run"),
		Excludes:   v.GetStringSlice("exclude"),
		Jobs:       v.GetInt("jobs"),
		Format:     strings.ToLower(v.GetString("format")),
		Verbose:    v.GetBool("verbose"),
		Roots:      roots(v.GetStringSlice("add"), cwd),
		File:       file,
	}
	if len(args) > 0 {
		cfg.Target = args[0]
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that can be wrong independently of the
// filesystem.
func (c *Config) Validate() error {
	switch c.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("%w: unknown format %q (want text, json or yaml)", ErrInvalid, c.Format)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("%w: jobs must not be negative, got %d", ErrInvalid, c.Jobs)
	}
	for _, pattern := range c.Excludes {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: bad exclude pattern %q", ErrInvalid, pattern)
		}
	}
	return nil
}

// Options converts the config into pipeline options.
func (c *Config) Options(logger propagate.Logger) propagate.Options {
	return propagate.Options{
		Target:     c.Target,
		Roots:      c.Roots,
		NewVersion: c.NewVersion,
		Prefix:     c.Prefix,
		DryRun:     c.DryRun,
		Excludes:   c.Excludes,
		Jobs:       c.Jobs,
		Logger:     logger,
	}
}

// readConfigFile reads an explicit config file, or FileName from cwd when
// present. It returns the path that was read.
func readConfigFile(v *viper.Viper, cwd string) (string, error) {
	if explicit := v.GetString("config"); explicit != "" {
		if !filepath.IsAbs(explicit) {
			explicit = filepath.Join(cwd, explicit)
		}
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("reading config %s: %w", explicit, err)
		}
		return explicit, nil
	}

	v.SetConfigName(FileName)
	v.AddConfigPath(cwd)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("reading config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// roots resolves paths against cwd, dropping duplicates. No paths means cwd.
func roots(paths []string, cwd string) []string {
	if len(paths) == 0 {
		return []string{filepath.Clean(cwd)}
	}
	seen := make(map[string]bool, len(paths))
	var out []string
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(cwd, p)
		}
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
