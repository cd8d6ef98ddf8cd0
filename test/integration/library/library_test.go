//go:build integration

package library_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/hylladb/hylla/pkg/config"
	"github.com/hylladb/hylla/pkg/hylla"
	"github.com/hylladb/hylla/pkg/watch"
)

// TestLibrary_Integration exercises the full stack: a YAML configuration file
// loaded through viper, the factory opening a library with initial sections,
// store operations against the real filesystem, durability across reopen, and
// the filesystem sentinel.
//
// Prerequisites:
//   - None (the store is embedded, no external services needed)
//   - Run with: go test -tags=integration ./test/integration/library/...
func TestLibrary_Integration(t *testing.T) {
	ctx := context.Background()
	tempDir := t.TempDir()
	root := filepath.Join(tempDir, "store")

	// ========================================================================
	// Setup: Write a config file the way an operator would
	// ========================================================================

	raw, err := yaml.Marshal(map[string]any{
		"logging": map[string]any{"level": "ERROR"},
		"library": map[string]any{
			"root": root,
			"sections": []map[string]any{
				{"path": "inventory", "metadata": map[string]any{"kind": "goods"}},
				{"path": "inventory.books"},
			},
		},
		"watch": map[string]any{"enabled": true},
	})
	require.NoError(t, err)

	configPath := filepath.Join(tempDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, raw, 0o644))

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	require.True(t, cfg.Watch.Enabled)

	// ========================================================================
	// Test: Factory opens the library and materializes the layout
	// ========================================================================

	lib, err := config.NewLibrary(ctx, cfg)
	require.NoError(t, err)
	require.DirExists(t, filepath.Join(root, "inventory", "books"))

	// ========================================================================
	// Test: Store operations end to end
	// ========================================================================

	require.NoError(t, lib.CreateShelf("scifi", "inventory.books", map[string]any{
		"dune": "Frank Herbert",
	}))
	require.NoError(t, lib.RewriteShelfMetadata("inventory.books.scifi", map[string]any{
		"curated": true,
	}))

	tree, err := lib.CheckoutSection("inventory")
	require.NoError(t, err)
	books, ok := tree["books"].(hylla.SectionData)
	require.True(t, ok)
	scifi, ok := books["scifi"].(hylla.ShelfData)
	require.True(t, ok)
	assert.Equal(t, "Frank Herbert", scifi["dune"])

	// ========================================================================
	// Test: Shelf contents survive process restart
	// ========================================================================

	reopened, err := hylla.New(root)
	require.NoError(t, err)

	// The fresh index does not know the old paths, so reads refuse them...
	_, err = reopened.CheckoutShelf("inventory.books.scifi")
	require.Error(t, err)

	// ...but the bytes are still on disk and a create into the same root
	// still sees them as occupied.
	err = reopened.CreateSection("inventory", nil)
	var se *hylla.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, hylla.ErrAlreadyExists, se.Code)

	// ========================================================================
	// Test: Sentinel flags an out-of-band container
	// ========================================================================

	events := make(chan watch.Event, 1)
	sentinel, err := config.NewSentinel(cfg, lib, func(e watch.Event) {
		select {
		case events <- e:
		default:
		}
	})
	require.NoError(t, err)
	require.NotNil(t, sentinel)
	defer sentinel.Close()

	foreign := filepath.Join(root, "planted"+hylla.ShelfExt)
	require.NoError(t, os.WriteFile(foreign, []byte("junk"), 0o644))

	select {
	case e := <-events:
		assert.Equal(t, foreign, e.Path)
		assert.True(t, e.Foreign)
	case <-time.After(2 * time.Second):
		t.Fatal("sentinel did not report the foreign container")
	}
}
