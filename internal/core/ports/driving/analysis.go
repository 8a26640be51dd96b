package driving

import "context"

// ProgressFunc reports batch progress: done of total items, and the item just finished.
type ProgressFunc func(done, total int, item string)

// AnalysisService scans directories, registers images and records detections.
type AnalysisService interface {
	// Register scans dirs for images and registers them in the corpus.
	Register(ctx context.Context, dirs []string, recursive bool) (*ScanResult, error)

	// Analyze runs detection on each path and records the selected detections.
	// Per-image failures are collected in the report; they never abort the batch.
	// On cancellation the report covers the images finished so far.
	Analyze(ctx context.Context, paths []string, progress ProgressFunc) (*AnalysisReport, error)
}

// ScanResult is the outcome of a directory scan.
type ScanResult struct {
	// Paths are the images found, absolute and deduplicated.
	Paths []string

	// Registered is the number of paths that were not yet in the corpus.
	Registered int
}

// FileFailure records a per-file error.
type FileFailure struct {
	Path string
	Err  error
}

// AnalysisReport summarises an analysis batch.
type AnalysisReport struct {
	// Processed is the number of images attempted.
	Processed int

	// Recorded is the number of images whose detections were stored.
	Recorded int

	// Failed lists images that could not be analysed.
	Failed []FileFailure

	// Dropped is the number of detections rejected for invalid geometry.
	Dropped int
}

// WatchService analyses images as they arrive in watched directories.
type WatchService interface {
	// Run registers and analyses every new image until ctx is done.
	// onReport, if set, receives the outcome for each image.
	Run(ctx context.Context, dirs []string, recursive bool, onReport func(path string, report *AnalysisReport)) error
}
