package infra

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"rendersync/internal/domain"
)

// ZipArchiver implements domain.Archiver with archive/zip plus doublestar
// exclusion globs.
type ZipArchiver struct {
	logger *zap.Logger
}

// NewZipArchiver creates a new ZIP archiver.
func NewZipArchiver(logger *zap.Logger) *ZipArchiver {
	return &ZipArchiver{logger: logger}
}

// Archive walks root and writes every file not matching an exclusion glob
// into <destDir>/<base>-YYYYMMDD-HHMMSS.zip. Exclusion globs are matched
// against the slash-separated path relative to root. Unreadable files are
// counted as skipped, not fatal.
func (a *ZipArchiver) Archive(ctx context.Context, root, destDir string, excludes []string) (*domain.BackupResult, error) {
	start := time.Now()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve backup root: %w", err)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup dir: %w", err)
	}

	archivePath := filepath.Join(destDir,
		fmt.Sprintf("%s-%s.zip", filepath.Base(absRoot), start.Format("20060102-150405")))

	out, err := os.Create(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	result := &domain.BackupResult{
		ArchivePath: archivePath,
		ExecutedAt:  start,
	}

	absDest, _ := filepath.Abs(destDir)

	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.SkippedCount++
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil || rel == "." {
			return nil
		}
		relSlash := filepath.ToSlash(rel)

		// Never archive our own output.
		if absDest != "" && strings.HasPrefix(path, absDest+string(filepath.Separator)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if excluded(relSlash, excludes) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil || !info.Mode().IsRegular() {
			result.SkippedCount++
			return nil
		}

		if err := a.addFile(zw, path, relSlash, info); err != nil {
			a.logger.Warn("failed to archive file",
				zap.String("path", path),
				zap.Error(err))
			result.SkippedCount++
			return nil
		}

		result.FileCount++
		result.Bytes += info.Size()
		return nil
	})

	if cerr := zw.Close(); cerr != nil && walkErr == nil {
		walkErr = cerr
	}
	if walkErr != nil {
		os.Remove(archivePath)
		return nil, fmt.Errorf("backup aborted: %w", walkErr)
	}

	result.DurationMs = time.Since(start).Milliseconds()
	return result, nil
}

// addFile streams one file into the archive preserving its modtime.
func (a *ZipArchiver) addFile(zw *zip.Writer, path, relSlash string, info fs.FileInfo) error {
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = relSlash
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}

// excluded reports whether rel matches any exclusion glob. A pattern that
// fails to compile excludes nothing.
func excluded(rel string, excludes []string) bool {
	for _, pattern := range excludes {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// Ensure ZipArchiver implements domain.Archiver.
var _ domain.Archiver = (*ZipArchiver)(nil)
