package bulk

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/grcdesk/grcdesk/internal/export"
)

// SummaryFilename is the name under which sinks store the run summary.
const SummaryFilename = "summary.json"

// DirSink writes artifacts into Dir, creating it on first use.
type DirSink struct {
	Dir string
}

func (s *DirSink) Put(ctx context.Context, a export.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	return writeFileAtomic(filepath.Join(s.Dir, filepath.Base(a.Filename)), a.Body)
}

// WriteSummary stores summary as indented JSON next to the artifacts.
func (s *DirSink) WriteSummary(summary Summary) error {
	body, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	return writeFileAtomic(filepath.Join(s.Dir, SummaryFilename), body)
}

func writeFileAtomic(path string, body []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".grcdesk-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// ZipSink streams artifacts into a zip archive.
type ZipSink struct {
	zw  *zip.Writer
	now func() time.Time
}

func NewZipSink(w io.Writer) *ZipSink {
	return &ZipSink{zw: zip.NewWriter(w), now: time.Now}
}

func (s *ZipSink) Put(ctx context.Context, a export.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.add(a.Filename, a.Body)
}

func (s *ZipSink) add(name string, body []byte) error {
	w, err := s.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: s.now(),
	})
	if err != nil {
		return fmt.Errorf("zip %s: %w", name, err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("zip %s: %w", name, err)
	}
	return nil
}

// Close appends summary.json and finishes the archive.
func (s *ZipSink) Close(summary Summary) error {
	body, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	if err := s.add(SummaryFilename, body); err != nil {
		return err
	}
	return s.zw.Close()
}
