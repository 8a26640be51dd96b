package driven

import "context"

// FileScanner lists candidate image files.
type FileScanner interface {
	// Scan returns absolute, deduplicated, sorted paths under dirs whose
	// extension matches, case-insensitively.
	Scan(ctx context.Context, dirs []string, recursive bool) ([]string, error)
}

// FileWatcher reports image files as they appear.
type FileWatcher interface {
	// Watch emits absolute paths of new or rewritten images under dirs once
	// they stop changing. The channel closes when ctx is done.
	Watch(ctx context.Context, dirs []string, recursive bool) (<-chan string, error)

	// Close stops watching.
	Close() error
}
