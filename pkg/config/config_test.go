package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("AppliesDefaults", func(t *testing.T) {
		path := writeConfig(t, `
library:
  root: "/tmp/hylla-test"
`)

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "WARN", cfg.Logging.Level)
		assert.Equal(t, "stderr", cfg.Logging.Output)
		assert.False(t, cfg.Metrics.Enabled)
		assert.False(t, cfg.Watch.Enabled)
	})

	t.Run("NormalizesLogLevel", func(t *testing.T) {
		path := writeConfig(t, `
logging:
  level: "debug"
library:
  root: "/tmp/hylla-test"
`)

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "DEBUG", cfg.Logging.Level)
	})

	t.Run("ParsesSections", func(t *testing.T) {
		path := writeConfig(t, `
library:
  root: "/tmp/hylla-test"
  sections:
    - path: "inventory"
      metadata:
        kind: "goods"
    - path: "inventory.books"
`)

		cfg, err := Load(path)
		require.NoError(t, err)
		require.Len(t, cfg.Library.Sections, 2)
		assert.Equal(t, "inventory", cfg.Library.Sections[0].Path)
		assert.Equal(t, "goods", cfg.Library.Sections[0].Metadata["kind"])
		assert.NotNil(t, cfg.Library.Sections[1].Metadata)
	})

	t.Run("MissingExplicitFileFallsBackToDefaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nonexistent.yaml")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "./hylla-data", cfg.Library.Root)
	})

	t.Run("RejectsInvalidYAML", func(t *testing.T) {
		path := writeConfig(t, "library: [broken")

		_, err := Load(path)
		require.Error(t, err)
	})

	t.Run("RejectsInvalidLogLevel", func(t *testing.T) {
		path := writeConfig(t, `
logging:
  level: "verbose"
library:
  root: "/tmp/hylla-test"
`)

		_, err := Load(path)
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		ApplyDefaults(cfg)
		return cfg
	}

	t.Run("AcceptsDefaults", func(t *testing.T) {
		assert.NoError(t, Validate(valid()))
	})

	t.Run("RejectsDuplicateSectionPaths", func(t *testing.T) {
		cfg := valid()
		cfg.Library.Sections = []SectionConfig{
			{Path: "a"},
			{Path: "a"},
		}
		ApplyDefaults(cfg)

		err := Validate(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")
	})

	t.Run("RejectsChildDeclaredBeforeParent", func(t *testing.T) {
		cfg := valid()
		cfg.Library.Sections = []SectionConfig{
			{Path: "a.b"},
			{Path: "a"},
		}
		ApplyDefaults(cfg)

		err := Validate(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parent")
	})

	t.Run("AcceptsOrderedHierarchy", func(t *testing.T) {
		cfg := valid()
		cfg.Library.Sections = []SectionConfig{
			{Path: "a"},
			{Path: "a.b"},
			{Path: "a.b.c"},
			{Path: "other"},
		}
		ApplyDefaults(cfg)

		assert.NoError(t, Validate(cfg))
	})

	t.Run("RejectsMissingRoot", func(t *testing.T) {
		cfg := valid()
		cfg.Library.Root = ""

		err := Validate(cfg)
		require.Error(t, err)
	})
}
