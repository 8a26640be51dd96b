package driving

import "context"

// SessionService closes out a run.
type SessionService interface {
	// Archive closes the working database and moves it to a timestamped
	// file in the sessions directory. Returns the archived path.
	Archive(ctx context.Context) (string, error)
}
