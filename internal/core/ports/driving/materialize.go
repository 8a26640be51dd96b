package driving

import (
	"context"

	"github.com/custodia-labs/pikia/internal/core/domain"
)

// Materializer copies or moves clustered files into label folders.
type Materializer interface {
	// Materialize transfers every unprocessed file with a final label to
	// destination/<label>/. Per-file failures are reported, not returned.
	Materialize(ctx context.Context, opts MaterializeOptions, progress ProgressFunc) (*MaterializeReport, error)
}

// MaterializeOptions configures a materialization run.
type MaterializeOptions struct {
	// Destination is the output root directory.
	Destination string

	// Mode is copy or move.
	Mode domain.TransferMode
}

// Transfer records one materialized file.
type Transfer struct {
	FileID      int64
	Source      string
	Destination string
}

// MaterializeReport summarises a materialization run.
type MaterializeReport struct {
	// Transferred lists files copied or moved in this run.
	Transferred []Transfer

	// Skipped is the number of files already processed by an earlier run.
	Skipped int

	// Failed lists files whose transfer failed. They stay unprocessed.
	Failed []FileFailure
}
