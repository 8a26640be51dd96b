package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/pikia/internal/core/domain"
	"github.com/custodia-labs/pikia/internal/core/ports/driven"
)

// corpusStore implements driven.CorpusStore.
type corpusStore struct {
	store *Store
}

var _ driven.CorpusStore = (*corpusStore)(nil)

// RegisterFiles inserts paths that are not yet known.
func (s *corpusStore) RegisterFiles(ctx context.Context, paths []string) (int, error) {
	inserted := 0
	for _, path := range paths {
		if path == "" {
			return inserted, fmt.Errorf("%w: empty file path", domain.ErrInvalidInput)
		}
		res, err := s.store.db.ExecContext(ctx,
			"INSERT INTO files (filepath) VALUES (?) ON CONFLICT(filepath) DO NOTHING", path)
		if err != nil {
			return inserted, fmt.Errorf("registering file %s: %w", path, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("registering file %s: %w", path, err)
		}
		inserted += int(n)
	}
	return inserted, nil
}

// RecordDetections stores the selected detections of each analysis.
// Each analysis is written in its own transaction.
func (s *corpusStore) RecordDetections(
	ctx context.Context,
	analyses []*domain.ImageAnalysis,
	sel domain.Selection,
) error {
	for _, analysis := range analyses {
		if analysis == nil || analysis.Failed() {
			continue
		}
		top, err := analysis.TopDetections(sel)
		if err != nil {
			return fmt.Errorf("selecting detections for %s: %w", analysis.Filename(), err)
		}
		if err := s.recordOne(ctx, analysis.Filename(), top); err != nil {
			return fmt.Errorf("recording detections for %s: %w", analysis.Filename(), err)
		}
	}
	return nil
}

func (s *corpusStore) recordOne(ctx context.Context, path string, detections []domain.Detection) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var fileID int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM files WHERE filepath = ?", path).Scan(&fileID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: file %s is not registered", domain.ErrReferentialIntegrity, path)
	}
	if err != nil {
		return fmt.Errorf("looking up file: %w", err)
	}

	for _, d := range detections {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO labels (labelname) VALUES (?) ON CONFLICT(labelname) DO NOTHING", d.Label()); err != nil {
			return fmt.Errorf("upserting label %q: %w", d.Label(), err)
		}

		var labelID int64
		if err := tx.QueryRowContext(ctx,
			"SELECT id FROM labels WHERE labelname = ?", d.Label()).Scan(&labelID); err != nil {
			return fmt.Errorf("looking up label %q: %w", d.Label(), err)
		}

		// First write wins so re-running analysis keeps recorded weights
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO file_label (file_id, label_id, weight) VALUES (?, ?, ?)
			ON CONFLICT(file_id, label_id) DO NOTHING
		`, fileID, labelID, d.Weight()); err != nil {
			return fmt.Errorf("saving weight for %q: %w", d.Label(), constraintError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// LabelFrequency returns labels by descending distinct file count, then name.
func (s *corpusStore) LabelFrequency(ctx context.Context) ([]domain.LabelCount, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT l.id, l.labelname, COUNT(DISTINCT fl.file_id) AS files
		FROM labels l
		JOIN file_label fl ON fl.label_id = l.id
		GROUP BY l.id, l.labelname
		ORDER BY files DESC, l.labelname ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying label frequency: %w", err)
	}
	defer rows.Close()

	var counts []domain.LabelCount //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.LabelCount
		if err := rows.Scan(&c.Label.ID, &c.Label.Name, &c.Files); err != nil {
			return nil, fmt.Errorf("scanning label frequency: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating label frequency: %w", err)
	}

	return counts, nil
}

// BestLabelAmong returns the highest-weight candidate label per file.
func (s *corpusStore) BestLabelAmong(ctx context.Context, labels []string) ([]domain.BestLabel, error) {
	candidates := uniqueStrings(labels)
	if len(candidates) == 0 {
		return []domain.BestLabel{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(candidates)), ",")
	args := make([]any, len(candidates))
	for i, c := range candidates {
		args[i] = c
	}

	//nolint:gosec // placeholders only, values are bound
	query := `
		SELECT file_id, filepath, label_id, labelname, weight FROM (
			SELECT fl.file_id, f.filepath, fl.label_id, l.labelname, fl.weight,
				ROW_NUMBER() OVER (
					PARTITION BY fl.file_id
					ORDER BY fl.weight DESC, fl.label_id ASC
				) AS rank
			FROM file_label fl
			JOIN files f ON f.id = fl.file_id
			JOIN labels l ON l.id = fl.label_id
			WHERE l.labelname IN (` + placeholders + `)
		)
		WHERE rank = 1
		ORDER BY file_id
	`

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying best labels: %w", err)
	}
	defer rows.Close()

	best := []domain.BestLabel{}
	for rows.Next() {
		var b domain.BestLabel
		if err := rows.Scan(&b.FileID, &b.FilePath, &b.LabelID, &b.LabelName, &b.Weight); err != nil {
			return nil, fmt.Errorf("scanning best label: %w", err)
		}
		best = append(best, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating best labels: %w", err)
	}

	return best, nil
}

// CommitFinalLabels sets final labels in a single transaction.
func (s *corpusStore) CommitFinalLabels(ctx context.Context, pairs []domain.FinalAssignment) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, "UPDATE files SET final_label = ? WHERE id = ?")
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range pairs {
		res, err := stmt.ExecContext(ctx, p.LabelID, p.FileID)
		if err != nil {
			return fmt.Errorf("setting final label %d on file %d: %w", p.LabelID, p.FileID, constraintError(err))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("setting final label %d on file %d: %w", p.LabelID, p.FileID, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: file %d does not exist", domain.ErrReferentialIntegrity, p.FileID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ResetFinalLabels clears final labels of unprocessed files.
func (s *corpusStore) ResetFinalLabels(ctx context.Context) error {
	if _, err := s.store.db.ExecContext(ctx,
		"UPDATE files SET final_label = NULL WHERE processed = 0"); err != nil {
		return fmt.Errorf("resetting final labels: %w", err)
	}
	return nil
}

// FilesWithFinalLabel returns files with a final label, by file ID.
func (s *corpusStore) FilesWithFinalLabel(ctx context.Context) ([]domain.FinalFile, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT f.id, f.filepath, l.labelname, f.processed
		FROM files f
		JOIN labels l ON l.id = f.final_label
		ORDER BY f.id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying final labels: %w", err)
	}
	defer rows.Close()

	var files []domain.FinalFile //nolint:prealloc // size unknown from query
	for rows.Next() {
		var f domain.FinalFile
		if err := rows.Scan(&f.FileID, &f.FilePath, &f.LabelName, &f.Processed); err != nil {
			return nil, fmt.Errorf("scanning final label: %w", err)
		}
		files = append(files, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating final labels: %w", err)
	}

	return files, nil
}

// MarkProcessed flags a materialized file.
func (s *corpusStore) MarkProcessed(ctx context.Context, fileID int64) error {
	var finalLabel sql.NullInt64
	err := s.store.db.QueryRowContext(ctx,
		"SELECT final_label FROM files WHERE id = ?", fileID).Scan(&finalLabel)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("looking up file: %w", err)
	}
	if !finalLabel.Valid {
		return fmt.Errorf("%w: file %d has no final label", domain.ErrReferentialIntegrity, fileID)
	}

	if _, err := s.store.db.ExecContext(ctx,
		"UPDATE files SET processed = 1 WHERE id = ?", fileID); err != nil {
		return fmt.Errorf("marking file processed: %w", constraintError(err))
	}
	return nil
}

// TotalFileCount returns the number of registered files.
func (s *corpusStore) TotalFileCount(ctx context.Context) (int, error) {
	var count int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting files: %w", err)
	}
	return count, nil
}

// FileByPath retrieves a registered file.
func (s *corpusStore) FileByPath(ctx context.Context, path string) (*domain.File, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT id, filepath, processed, final_label FROM files WHERE filepath = ?", path)

	var f domain.File
	var finalLabel sql.NullInt64
	if err := row.Scan(&f.ID, &f.Path, &f.Processed, &finalLabel); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning file: %w", err)
	}
	if finalLabel.Valid {
		id := finalLabel.Int64
		f.FinalLabelID = &id
	}
	return &f, nil
}

// Labels returns all labels ordered by ID.
func (s *corpusStore) Labels(ctx context.Context) ([]domain.Label, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT id, labelname FROM labels ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying labels: %w", err)
	}
	defer rows.Close()

	var labels []domain.Label //nolint:prealloc // size unknown from query
	for rows.Next() {
		var l domain.Label
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, fmt.Errorf("scanning label: %w", err)
		}
		labels = append(labels, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating labels: %w", err)
	}

	return labels, nil
}

// uniqueStrings drops duplicates, keeping first occurrence order.
func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
