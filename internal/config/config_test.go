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
package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/update-dependents/internal/config"
)

func load(t *testing.T, cwd string, flags []string, args ...string) (*config.Config, error) {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	config.AddFlags(cmd)
	require.NoError(t, cmd.ParseFlags(flags))

	v := viper.New()
	require.NoError(t, config.Bind(v, cmd))
	return config.Load(v, args, cwd)
}

func TestLoadDefaults(t *testing.T) {
	cwd := t.TempDir()

	cfg, err := load(t, cwd, nil, "a")
	require.NoError(t, err)

	assert.Equal(t, "a", cfg.Target)
	assert.Equal(t, []string{cwd}, cfg.Roots)
	assert.Equal(t, "~", cfg.Prefix)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, config.FormatText, cfg.Format)
	assert.Zero(t, cfg.Jobs)
	assert.Empty(t, cfg.NewVersion)
	assert.Empty(t, cfg.File)
}

func TestLoadFlags(t *testing.T) {
	cwd := t.TempDir()

	cfg, err := load(t, cwd, []string{
		"-a", "packages",
		"--add", "/abs/other",
		"-a", "packages/",
		"-p", "^",
		"-d",
		"-n", "3.0.0",
		"-e", "fixtures/**",
		"-j", "4",
		"-f", "JSON",
		"--verbose",
	}, "@scope/a")
	require.NoError(t, err)

	assert.Equal(t, "@scope/a", cfg.Target)
	assert.Equal(t, []string{filepath.Join(cwd, "packages"), "/abs/other"}, cfg.Roots)
	assert.Equal(t, "^", cfg.Prefix)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "3.0.0", cfg.NewVersion)
	assert.Equal(t, []string{"fixtures/**"}, cfg.Excludes)
	assert.Equal(t, 4, cfg.Jobs)
	assert.Equal(t, config.FormatJSON, cfg.Format)
	assert.True(t, cfg.Verbose)
}

func TestLoadEmptyPrefix(t *testing.T) {
	cfg, err := load(t, t.TempDir(), []string{"--prefix="}, "a")
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Prefix)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("UPDATE_DEPENDENTS_PREFIX", "^")
	t.Setenv("UPDATE_DEPENDENTS_DRY_RUN", "true")
	t.Setenv("UPDATE_DEPENDENTS_NEW_VERSION", "4.0.0")

	cfg, err := load(t, t.TempDir(), nil, "a")
	require.NoError(t, err)
	assert.Equal(t, "^", cfg.Prefix)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "4.0.0", cfg.NewVersion)
}

func TestLoadFlagBeatsEnv(t *testing.T) {
	t.Setenv("UPDATE_DEPENDENTS_PREFIX", "^")

	cfg, err := load(t, t.TempDir(), []string{"-p", ">="}, "a")
	require.NoError(t, err)
	assert.Equal(t, ">=", cfg.Prefix)
}

func TestLoadConfigFile(t *testing.T) {
	cwd := t.TempDir()
	file := filepath.Join(cwd, ".update-dependents.yaml")
	require.NoError(t, os.WriteFile(file, []byte("prefix: '^'\nexclude:\n  - fixtures\njobs: 2\n"), 0644))

	cfg, err := load(t, cwd, nil, "a")
	require.NoError(t, err)
	assert.Equal(t, file, cfg.File)
	assert.Equal(t, "^", cfg.Prefix)
	assert.Equal(t, []string{"fixtures"}, cfg.Excludes)
	assert.Equal(t, 2, cfg.Jobs)

	cfg, err = load(t, cwd, []string{"--prefix="}, "a")
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Prefix, "flags override the config file")
}

func TestLoadExplicitConfigFile(t *testing.T) {
	cwd := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cwd, "settings.json"), []byte(`{"dry-run": true, "add": ["a", "b"]}`), 0644))

	cfg, err := load(t, cwd, []string{"--config", "settings.json"}, "x")
	require.NoError(t, err)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, []string{filepath.Join(cwd, "a"), filepath.Join(cwd, "b")}, cfg.Roots)

	_, err = load(t, cwd, []string{"--config", "missing.yaml"}, "x")
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name  string
		flags []string
	}{
		{"unknown format", []string{"-f", "xml"}},
		{"negative jobs", []string{"--jobs=-1"}},
		{"bad exclude", []string{"-e", "fixtures/[a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, t.TempDir(), tt.flags, "a")
			assert.ErrorIs(t, err, config.ErrInvalid)
		})
	}
}

func TestLoadWithoutTarget(t *testing.T) {
	cfg, err := load(t, t.TempDir(), nil)
	require.NoError(t, err)
	assert.Empty(t, cfg.Target)
}

func TestOptions(t *testing.T) {
	cfg := &config.Config{Target: "a", Roots: []string{"/ws"}, Prefix: "^", DryRun: true, Jobs: 3}

	opts := cfg.Options(nil)
	assert.Equal(t, "a", opts.Target)
	assert.Equal(t, []string{"/ws"}, opts.Roots)
	assert.Equal(t, "^", opts.Prefix)
	assert.True(t, opts.DryRun)
	assert.Equal(t, 3, opts.Jobs)
}
