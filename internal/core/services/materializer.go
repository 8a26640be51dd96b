package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/custodia-labs/pikia/internal/core/domain"
	"github.com/custodia-labs/pikia/internal/core/ports/driven"
	"github.com/custodia-labs/pikia/internal/core/ports/driving"
	"github.com/custodia-labs/pikia/internal/logger"
)

// Ensure Materializer implements the interface.
var _ driving.Materializer = (*Materializer)(nil)

// Materializer copies or moves clustered files into destination/<label>/.
//
// Each file is transferred all-or-nothing: copies go through a temporary
// file in the target directory that is renamed into place. A file is marked
// processed only after its transfer succeeds.
type Materializer struct {
	store    driven.CorpusStore
	resolver driving.ClusterResolver
	rename   func(oldpath, newpath string) error
}

// NewMaterializer creates a materializer.
// When resolver is non-nil, materialization requires it to have committed.
func NewMaterializer(store driven.CorpusStore, resolver driving.ClusterResolver) *Materializer {
	return &Materializer{
		store:    store,
		resolver: resolver,
		rename:   os.Rename,
	}
}

// Materialize transfers every unprocessed file with a final label.
func (m *Materializer) Materialize(
	ctx context.Context,
	opts driving.MaterializeOptions,
	progress driving.ProgressFunc,
) (*driving.MaterializeReport, error) {
	if opts.Destination == "" {
		return nil, fmt.Errorf("%w: empty destination", domain.ErrInvalidInput)
	}
	if !opts.Mode.IsValid() {
		return nil, fmt.Errorf("%w: transfer mode %q", domain.ErrInvalidInput, opts.Mode)
	}
	if m.resolver != nil && m.resolver.Phase() == driving.PhaseBrowse {
		return nil, fmt.Errorf("%w: materialize before commit", domain.ErrPhase)
	}

	files, err := m.store.FilesWithFinalLabel(ctx)
	if err != nil {
		return nil, fmt.Errorf("files with final label: %w", err)
	}
	if err := os.MkdirAll(opts.Destination, 0755); err != nil {
		return nil, fmt.Errorf("creating destination: %w", err)
	}

	logger.Section("Materialize")
	logger.Info("%s %d files to %s", opts.Mode, len(files), opts.Destination)

	report := &driving.MaterializeReport{}
	reserved := make(map[string]struct{})
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			logger.Warn("Materialization cancelled after %d of %d files", i, len(files))
			return report, err
		}

		if f.Processed {
			report.Skipped++
		} else if target, err := m.materializeOne(ctx, f, opts, reserved); err != nil {
			logger.Error("%s: %v", f.FilePath, err)
			report.Failed = append(report.Failed, driving.FileFailure{Path: f.FilePath, Err: err})
		} else {
			logger.Debug("%s -> %s", f.FilePath, target)
			report.Transferred = append(report.Transferred, driving.Transfer{
				FileID:      f.FileID,
				Source:      f.FilePath,
				Destination: target,
			})
		}

		if progress != nil {
			progress(i+1, len(files), f.FilePath)
		}
	}

	logger.Info("Materialized %d files, skipped %d, failed %d",
		len(report.Transferred), report.Skipped, len(report.Failed))
	return report, nil
}

func (m *Materializer) materializeOne(
	ctx context.Context,
	f domain.FinalFile,
	opts driving.MaterializeOptions,
	reserved map[string]struct{},
) (string, error) {
	dir := filepath.Join(opts.Destination, LabelDirName(f.LabelName))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: creating %s: %w", domain.ErrMaterialization, dir, err)
	}

	target, err := reserveTarget(dir, filepath.Base(f.FilePath), reserved)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrMaterialization, err)
	}

	switch opts.Mode {
	case domain.TransferMove:
		err = m.moveFile(f.FilePath, target)
	default:
		err = copyFile(f.FilePath, target)
	}
	if err != nil {
		delete(reserved, target)
		return "", fmt.Errorf("%w: %w", domain.ErrMaterialization, err)
	}

	if err := m.store.MarkProcessed(ctx, f.FileID); err != nil {
		return "", fmt.Errorf("%w: marking processed: %w", domain.ErrMaterialization, err)
	}
	return target, nil
}

// reserveTarget picks dir/name, or dir/<stem>_N<ext> with the smallest N
// that is neither on disk nor reserved earlier in this batch.
func reserveTarget(dir, name string, reserved map[string]struct{}) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := filepath.Join(dir, name)
	for n := 0; ; n++ {
		free, err := isFree(candidate, reserved)
		if err != nil {
			return "", err
		}
		if free {
			reserved[candidate] = struct{}{}
			return candidate, nil
		}
		candidate = filepath.Join(dir, stem+"_"+strconv.Itoa(n)+ext)
	}
}

func isFree(path string, reserved map[string]struct{}) (bool, error) {
	if _, taken := reserved[path]; taken {
		return false, nil
	}
	_, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", path, err)
	}
	return false, nil
}

// copyFile copies src to dst keeping permission bits and modification time.
// dst only appears once the copy is complete.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("reading source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", src)
	}

	tmp := filepath.Join(filepath.Dir(dst), ".pikia-"+uuid.NewString()+".tmp")
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			out.Close()
			os.Remove(tmp)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	// OpenFile permissions are masked by umask
	if err = os.Chmod(tmp, info.Mode().Perm()); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err = os.Chtimes(tmp, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("setting times: %w", err)
	}
	if err = os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("placing file: %w", err)
	}
	return nil
}

// moveFile renames src to dst, copying then removing across devices.
func (m *Materializer) moveFile(src, dst string) error {
	err := m.rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("moving file: %w", err)
	}

	if err := copyFile(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("removing source after copy: %w", err)
	}
	return nil
}

// LabelDirName turns a label into a single safe directory name.
func LabelDirName(label string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':':
			return '_'
		case r < 0x20:
			return -1
		}
		return r
	}, strings.TrimSpace(label))

	if name == "" || strings.Trim(name, ".") == "" {
		return "_"
	}
	return name
}
