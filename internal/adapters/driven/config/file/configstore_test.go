package file

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_WithNestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("selection = [unclosed"), 0600))

	_, err := NewConfigStore(tmpDir)
	assert.Error(t, err)
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("materialize.destination", "/photos/sorted"))

	val, ok := store.Get("materialize.destination")
	assert.True(t, ok)
	assert.Equal(t, "/photos/sorted", val)

	_, ok = store.Get("nonexistent")
	assert.False(t, ok)
}

func TestConfigStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()

	store1, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store1.Set("selection.method", "relative_threshold"))
	require.NoError(t, store1.Set("selection.param", 0.75))
	require.NoError(t, store1.Set("detector.max_side", 1024))
	require.NoError(t, store1.Set("scan.recursive", false))
	require.NoError(t, store1.Set("scan.extensions", []string{".jpg", ".png"}))

	// New instance loads from file
	store2, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "relative_threshold", store2.GetString("selection.method"))
	assert.InDelta(t, 0.75, store2.GetFloat("selection.param"), 1e-12)
	assert.Equal(t, 1024, store2.GetInt("detector.max_side"))
	assert.InDelta(t, 1024.0, store2.GetFloat("detector.max_side"), 1e-12)
	assert.False(t, store2.GetBool("scan.recursive"))
	_, ok := store2.Get("scan.recursive")
	assert.True(t, ok)
	assert.Equal(t, []string{".jpg", ".png"}, store2.GetStringSlice("scan.extensions"))
}

func TestConfigStore_WritesNestedTables(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("selection.method", "top_n"))
	require.NoError(t, store.Set("selection.param", 3))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "[selection]")
	assert.False(t, strings.Contains(content, `"selection.method"`), "keys should not be quoted dot keys")
}

func TestConfigStore_LoadsHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[detector]
provider = "vision"
model = "gpt-4o"
requests_per_second = 1.5

[materialize]
mode = "move"
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "vision", store.GetString("detector.provider"))
	assert.Equal(t, "gpt-4o", store.GetString("detector.model"))
	assert.InDelta(t, 1.5, store.GetFloat("detector.requests_per_second"), 1e-12)
	assert.Equal(t, "move", store.GetString("materialize.mode"))
}

func TestConfigStore_TypedGetters_WrongType(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("data.dir", "/tmp/pikia"))

	assert.Zero(t, store.GetInt("data.dir"))
	assert.Zero(t, store.GetFloat("data.dir"))
	assert.False(t, store.GetBool("data.dir"))
	assert.Nil(t, store.GetStringSlice("data.dir"))
	assert.Empty(t, store.GetString("missing"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("detector.api_key", "sk-test"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte{}, 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	_, ok := store.Get("selection.method")
	assert.False(t, ok)
}

func TestConfigStore_Save_Explicit(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save())
	assert.FileExists(t, store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := "scan.key" + string(rune('0'+i))
			_ = store.Set(key, i)
			_ = store.GetInt(key)
			_ = store.GetFloat(key)
		}()
	}
	wg.Wait()
}

func TestNestMap(t *testing.T) {
	nested := nestMap(map[string]any{
		"selection.method": "top_n",
		"selection.param":  3,
		"version":          1,
	})

	assert.Equal(t, map[string]any{
		"selection": map[string]any{"method": "top_n", "param": 3},
		"version":   1,
	}, nested)
}

func TestNestMap_TableWins(t *testing.T) {
	nested := nestMap(map[string]any{
		"scan":           "flat",
		"scan.recursive": true,
	})

	assert.Equal(t, map[string]any{"scan": map[string]any{"recursive": true}}, nested)
}

func TestFlattenMap(t *testing.T) {
	flat := flattenMap(map[string]any{
		"detector": map[string]any{"model": "gpt-4o-mini", "limits": map[string]any{"rps": 2.0}},
		"top":      true,
	}, "")

	assert.Equal(t, map[string]any{
		"detector.model":      "gpt-4o-mini",
		"detector.limits.rps": 2.0,
		"top":                 true,
	}, flat)
}

func TestConfigStore_GetInt_AcceptsWholeFloats(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[selection]\nparam = 3.0\n"), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 3, store.GetInt("selection.param"))
}

func TestConfigStore_Set_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	for i := range 5 {
		require.NoError(t, store.Set("scan.depth", i))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "config.toml", entries[0].Name())
}

func TestConfigStore_Load_DiscardsUnsavedValues(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("detector.model", "gpt-4o"))

	require.NoError(t, os.WriteFile(store.Path(), []byte("[detector]\nmodel = \"edited\"\n"), 0600))
	require.NoError(t, store.Load())
	assert.Equal(t, "edited", store.GetString("detector.model"))
}
