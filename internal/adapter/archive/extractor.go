// Package archive extracts the raw CSV files shipped in a .7z or .zip archive.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/klauspost/compress/zip"
)

var (
	// ErrUnsupportedArchive means the archive extension is neither .7z nor .zip.
	ErrUnsupportedArchive = errors.New("unsupported archive format")

	// ErrUnsafePath means an entry would be written outside the output directory.
	ErrUnsafePath = errors.New("archive entry escapes output directory")
)

// entry is one archive member, independent of the container format.
type entry struct {
	name  string
	isDir bool
	open  func() (io.ReadCloser, error)
}

// Extractor writes the CSV members of an archive into a directory.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract writes every .csv entry of the archive at path into outDir, creating
// it if needed, and returns the written file paths. A file already present at
// a target path is removed first so stale and fresh data never mix.
func (e *Extractor) Extract(ctx context.Context, path, outDir string) ([]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".7z":
		r, err := sevenzip.OpenReader(path)
		if err != nil {
			return nil, fmt.Errorf("open 7z archive: %w", err)
		}
		defer r.Close()

		entries := make([]entry, 0, len(r.File))
		for _, f := range r.File {
			entries = append(entries, entry{name: f.Name, isDir: f.FileInfo().IsDir(), open: f.Open})
		}
		return e.extractAll(ctx, entries, outDir)
	case ".zip":
		r, err := zip.OpenReader(path)
		if err != nil {
			return nil, fmt.Errorf("open zip archive: %w", err)
		}
		defer r.Close()

		entries := make([]entry, 0, len(r.File))
		for _, f := range r.File {
			entries = append(entries, entry{name: f.Name, isDir: f.FileInfo().IsDir(), open: f.Open})
		}
		return e.extractAll(ctx, entries, outDir)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedArchive, path)
	}
}

func (e *Extractor) extractAll(ctx context.Context, entries []entry, outDir string) ([]string, error) {
	var written []string
	for _, en := range entries {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if en.isDir || !strings.HasSuffix(strings.ToLower(en.name), ".csv") {
			continue
		}

		target, err := safeJoin(outDir, en.name)
		if err != nil {
			return written, err
		}
		if err := writeEntry(en, target); err != nil {
			return written, fmt.Errorf("extract %s: %w", en.name, err)
		}
		if filepath.Dir(target) != filepath.Clean(outDir) {
			e.logger.Warn("nested csv will not be consolidated", "entry", en.name)
		}
		e.logger.Info("extracted file", "entry", en.name, "path", target)
		written = append(written, target)
	}
	return written, nil
}

// safeJoin resolves an entry name under dir, rejecting absolute names and
// names that climb out with "..".
func safeJoin(dir, name string) (string, error) {
	name = filepath.FromSlash(strings.ReplaceAll(name, `\`, "/"))
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	target := filepath.Join(dir, name)
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

func writeEntry(en entry, target string) error {
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	src, err := en.open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
