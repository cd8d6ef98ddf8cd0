package shelf

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestContainer(t *testing.T) *Container {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	container, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	return container
}

func TestContainer_ReadAll(t *testing.T) {
	t.Run("EmptyContainerYieldsEmptyMap", func(t *testing.T) {
		container := openTestContainer(t)

		data, err := container.ReadAll()
		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("RoundTripsStoredValues", func(t *testing.T) {
		container := openTestContainer(t)

		require.NoError(t, container.Replace(map[string]any{
			"title":  "Dune",
			"author": "Frank Herbert",
			"tags":   []any{"scifi", "classic"},
		}))

		data, err := container.ReadAll()
		require.NoError(t, err)
		assert.Equal(t, "Dune", data["title"])
		assert.Equal(t, "Frank Herbert", data["author"])
		assert.Len(t, data["tags"], 2)
	})

	t.Run("ReturnsSnapshotCopy", func(t *testing.T) {
		container := openTestContainer(t)
		require.NoError(t, container.Replace(map[string]any{"k": "v"}))

		first, err := container.ReadAll()
		require.NoError(t, err)
		first["k"] = "mutated"

		second, err := container.ReadAll()
		require.NoError(t, err)
		assert.Equal(t, "v", second["k"])
	})
}

func TestContainer_Replace(t *testing.T) {
	t.Run("DropsPreviousKeys", func(t *testing.T) {
		container := openTestContainer(t)

		require.NoError(t, container.Replace(map[string]any{"old": "value"}))
		require.NoError(t, container.Replace(map[string]any{"new": "value"}))

		data, err := container.ReadAll()
		require.NoError(t, err)
		assert.NotContains(t, data, "old")
		assert.Equal(t, "value", data["new"])
	})

	t.Run("UnserializableValueLeavesContentsUntouched", func(t *testing.T) {
		container := openTestContainer(t)
		require.NoError(t, container.Replace(map[string]any{"keep": "me"}))

		err := container.Replace(map[string]any{
			"keep": "gone",
			"bad":  func() {},
		})
		require.Error(t, err)
		assert.True(t, IsCodecError(err))

		data, err := container.ReadAll()
		require.NoError(t, err)
		assert.Equal(t, "me", data["keep"])
	})
}

func TestContainer_Put(t *testing.T) {
	t.Run("LeavesOtherKeysInPlace", func(t *testing.T) {
		container := openTestContainer(t)
		require.NoError(t, container.Replace(map[string]any{"a": "1", "b": "2"}))

		require.NoError(t, container.Put("a", "updated"))

		data, err := container.ReadAll()
		require.NoError(t, err)
		assert.Equal(t, "updated", data["a"])
		assert.Equal(t, "2", data["b"])
	})

	t.Run("RejectsUnserializableValue", func(t *testing.T) {
		container := openTestContainer(t)

		err := container.Put("bad", make(chan int))
		require.Error(t, err)
		assert.True(t, IsCodecError(err))
	})
}

func TestContainer_Clear(t *testing.T) {
	container := openTestContainer(t)
	require.NoError(t, container.Replace(map[string]any{"a": "1", "b": "2"}))

	require.NoError(t, container.Clear())

	data, err := container.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestContainer_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")

	container, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, container.Replace(map[string]any{"durable": "yes"}))
	require.NoError(t, container.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	data, err := reopened.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "yes", data["durable"])
}

func TestValidateValues(t *testing.T) {
	assert.NoError(t, ValidateValues(nil))
	assert.NoError(t, ValidateValues(map[string]any{"n": 42, "s": "text", "b": true}))

	err := ValidateValues(map[string]any{"f": func() {}})
	require.Error(t, err)
	assert.True(t, IsCodecError(err))
}
