// Package sqlite provides the SQLite-based implementation of the corpus store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Tables follow the layout shared with earlier pikia sessions:
//
//   - files: registered images, with processed flag and final label
//   - labels: unique, case-sensitive detection class names
//   - file_label: weight per (file, label), primary key on the pair
//
// Foreign keys are enforced on every connection. A final label is itself a
// foreign key into file_label, so a file can only be clustered under a label
// it was detected with.
//
// # Data Location
//
// By default, the database is stored at ~/.pikia/data/pikia.db. At the end of
// a run it is archived to sessions/pikia.db.<timestamp>.
//
// # Ranking
//
// BestLabelAmong uses a ROW_NUMBER() window partitioned by file, ordered by
// weight descending and label id ascending, so equal weights resolve to the
// lowest label id.
package sqlite
