package config

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hylladb/hylla/pkg/hylla"
)

func TestNewLibrary(t *testing.T) {
	t.Run("OpensLibraryAndCreatesSections", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "store")
		cfg := &Config{
			Library: LibraryConfig{
				Root: root,
				Sections: []SectionConfig{
					{Path: "inventory", Metadata: map[string]any{"kind": "goods"}},
					{Path: "inventory.books"},
				},
			},
		}
		ApplyDefaults(cfg)
		require.NoError(t, Validate(cfg))

		lib, err := NewLibrary(context.Background(), cfg)
		require.NoError(t, err)

		assert.DirExists(t, filepath.Join(root, "inventory", "books"))

		data, err := lib.CheckoutShelf("inventory.metadata")
		require.NoError(t, err)
		assert.Equal(t, "goods", data["kind"])
	})

	t.Run("FailsFastOnSectionError", func(t *testing.T) {
		cfg := &Config{
			Library: LibraryConfig{
				Root: filepath.Join(t.TempDir(), "store"),
				Sections: []SectionConfig{
					{Path: "orphan.child"},
				},
			},
		}
		ApplyDefaults(cfg)

		_, err := NewLibrary(context.Background(), cfg)
		require.Error(t, err)
		var se *hylla.StoreError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, hylla.ErrNotFound, se.Code)
	})

	t.Run("PropagatesAlreadyExists", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "store")
		cfg := &Config{
			Library: LibraryConfig{
				Root:     root,
				Sections: []SectionConfig{{Path: "inventory"}},
			},
		}
		ApplyDefaults(cfg)

		_, err := NewLibrary(context.Background(), cfg)
		require.NoError(t, err)

		// A second process opening the same root with the same layout fails:
		// declared sections are created, never adopted.
		_, err = NewLibrary(context.Background(), cfg)
		var se *hylla.StoreError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, hylla.ErrAlreadyExists, se.Code)
	})

	t.Run("SentinelDisabledByDefault", func(t *testing.T) {
		cfg := &Config{Library: LibraryConfig{Root: t.TempDir()}}
		ApplyDefaults(cfg)

		lib, err := NewLibrary(context.Background(), cfg)
		require.NoError(t, err)

		sentinel, err := NewSentinel(cfg, lib, nil)
		require.NoError(t, err)
		assert.Nil(t, sentinel)
	})

	t.Run("SentinelStartsWhenEnabled", func(t *testing.T) {
		cfg := &Config{
			Library: LibraryConfig{Root: t.TempDir()},
			Watch:   WatchConfig{Enabled: true},
		}
		ApplyDefaults(cfg)

		lib, err := NewLibrary(context.Background(), cfg)
		require.NoError(t, err)

		sentinel, err := NewSentinel(cfg, lib, nil)
		require.NoError(t, err)
		require.NotNil(t, sentinel)
		require.NoError(t, sentinel.Close())
	})

	t.Run("HonorsCancelledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		cfg := &Config{Library: LibraryConfig{Root: t.TempDir()}}
		ApplyDefaults(cfg)

		_, err := NewLibrary(ctx, cfg)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
