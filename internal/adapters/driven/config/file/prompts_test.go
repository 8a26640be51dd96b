package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pikia/internal/core/ports/driven"
)

func TestPromptStore_ImplementsInterface(t *testing.T) {
	var _ driven.PromptStore = (*PromptStore)(nil)
}

func TestNewPromptStore_WithCustomDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPromptStore(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())

	// No I/O until the first Load
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptDetectSystem)
	require.NoError(t, err)

	for _, f := range []string{"detect_system.txt", "detect_image.txt", "README.md"} {
		assert.FileExists(t, filepath.Join(dir, f))
	}
}

func TestPromptStore_Load_DefaultImagePromptFormats(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptDetectImage)
	require.NoError(t, err)

	rendered := fmt.Sprintf(prompt, 640, 480)
	assert.Contains(t, rendered, "640 pixels wide")
	assert.Contains(t, rendered, "480 pixels high")
	assert.NotContains(t, rendered, "%!")
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()
	custom := "Boxes please for this %dx%d picture"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "detect_image.txt"), []byte(custom), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptDetectImage)
	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_Load_RejectsTemplateWithoutPlaceholders(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "detect_image.txt"), []byte("find things"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptDetectImage)
	require.NoError(t, err)
	assert.Equal(t, defaultPrompts[driven.PromptDetectImage], prompt)
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, _ = store.Load(driven.PromptDetectSystem)
	require.NoError(t, os.Remove(filepath.Join(dir, "detect_system.txt")))
	store.Reload()

	prompt, err := store.Load(driven.PromptDetectSystem)
	require.NoError(t, err)
	assert.Equal(t, defaultPrompts[driven.PromptDetectSystem], prompt)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent_prompt")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent_prompt")
}

func TestPromptStore_Load_PicksUpEdits(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptDetectSystem)
	require.NoError(t, err)

	path := filepath.Join(dir, "detect_system.txt")
	require.NoError(t, os.WriteFile(path, []byte("edited"), 0600))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	prompt, err := store.Load(driven.PromptDetectSystem)
	require.NoError(t, err)
	assert.Equal(t, "edited", prompt)
}

func TestPromptStore_Load_CachedWhileUnchanged(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "detect_system.txt")
	require.NoError(t, os.WriteFile(path, []byte("first"), 0600))
	stamp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, stamp, stamp))

	prompt, err := store.Load(driven.PromptDetectSystem)
	require.NoError(t, err)
	assert.Equal(t, "first", prompt)

	// Same mtime: served from cache until Reload
	require.NoError(t, os.WriteFile(path, []byte("second"), 0600))
	require.NoError(t, os.Chtimes(path, stamp, stamp))

	prompt, err = store.Load(driven.PromptDetectSystem)
	require.NoError(t, err)
	assert.Equal(t, "first", prompt)

	store.Reload()
	prompt, err = store.Load(driven.PromptDetectSystem)
	require.NoError(t, err)
	assert.Equal(t, "second", prompt)
}

func TestPromptStore_Load_EmptyFileUsesDefault(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "detect_system.txt"), []byte("  \n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptDetectSystem)
	require.NoError(t, err)
	assert.Equal(t, defaultPrompts[driven.PromptDetectSystem], prompt)
}

func TestPromptStore_Load_UnwritableDirUsesDefaults(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	store, err := NewPromptStore(filepath.Join(blocker, "prompts"))
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptDetectImage)
	require.NoError(t, err)
	assert.Equal(t, defaultPrompts[driven.PromptDetectImage], prompt)
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 50)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = store.Load(driven.PromptDetectSystem)
		}()
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0], r)
		assert.NotEmpty(t, r)
	}
}

func TestPromptStore_TrimsWhitespace(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "detect_system.txt"), []byte("\n\n  detect  \n\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptDetectSystem)
	require.NoError(t, err)
	assert.Equal(t, "detect", prompt)
}
