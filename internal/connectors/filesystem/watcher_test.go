package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pikia/internal/core/domain"
)

const testSettle = 20 * time.Millisecond

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case path, ok := <-ch:
		require.True(t, ok, "channel closed")
		return path
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for watched file")
		return ""
	}
}

func TestWatcher_ReportsNewImages(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(nil, testSettle)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := w.Watch(ctx, []string{dir}, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.jpg"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("x"), 0644))

	assert.Equal(t, filepath.Join(dir, "a.jpg"), receive(t, ch))
}

func TestWatcher_CoalescesWrites(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(nil, 100*time.Millisecond)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := w.Watch(ctx, []string{dir}, false)
	require.NoError(t, err)

	path := filepath.Join(dir, "a.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := f.Write([]byte("chunk"))
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, f.Close())

	assert.Equal(t, path, receive(t, ch))
	select {
	case extra := <-ch:
		t.Fatalf("unexpected second report: %s", extra)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_RecursiveFollowsNewDirectories(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(nil, testSettle)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := w.Watch(ctx, []string{dir}, true)
	require.NoError(t, err)

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	// Give the loop a moment to add the new directory
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "b.jpg"), []byte("x"), 0644))

	assert.Equal(t, filepath.Join(sub, "b.jpg"), receive(t, ch))
}

func TestWatcher_ClosesOnCancel(t *testing.T) {
	w := NewWatcher(nil, testSettle)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := w.Watch(ctx, []string{t.TempDir()}, false)
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestWatcher_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing directory", func(t *testing.T) {
		w := NewWatcher(nil, testSettle)
		defer w.Close()
		_, err := w.Watch(ctx, []string{filepath.Join(t.TempDir(), "missing")}, false)
		assert.Error(t, err)
	})

	t.Run("no directories", func(t *testing.T) {
		w := NewWatcher(nil, testSettle)
		defer w.Close()
		_, err := w.Watch(ctx, nil, false)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("after close", func(t *testing.T) {
		w := NewWatcher(nil, testSettle)
		require.NoError(t, w.Close())
		require.NoError(t, w.Close())
		_, err := w.Watch(ctx, []string{t.TempDir()}, false)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("twice", func(t *testing.T) {
		w := NewWatcher(nil, testSettle)
		defer w.Close()
		wctx, cancel := context.WithCancel(ctx)
		defer cancel()
		_, err := w.Watch(wctx, []string{t.TempDir()}, false)
		require.NoError(t, err)
		_, err = w.Watch(wctx, []string{t.TempDir()}, false)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestWatcher_HandleFsEvent(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "a.jpg", "notes.txt", ".hidden.jpg")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.jpg"), 0755))
	w := NewWatcher(nil, testSettle)
	roots := []string{dir}

	tests := []struct {
		name string
		file string
		op   fsnotify.Op
		want bool
	}{
		{"create image", "a.jpg", fsnotify.Create, true},
		{"write image", "a.jpg", fsnotify.Write, true},
		{"write and chmod", "a.jpg", fsnotify.Write | fsnotify.Chmod, true},
		{"chmod only", "a.jpg", fsnotify.Chmod, false},
		{"remove", "a.jpg", fsnotify.Remove, false},
		{"rename", "a.jpg", fsnotify.Rename, false},
		{"not an image", "notes.txt", fsnotify.Create, false},
		{"hidden image", ".hidden.jpg", fsnotify.Create, false},
		{"directory", "folder.jpg", fsnotify.Create, false},
		{"already gone", "gone.jpg", fsnotify.Create, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			got, ok := w.handleFsEvent(roots, fsnotify.Event{Name: path, Op: tt.op})
			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.Equal(t, path, got)
			}
		})
	}
}
