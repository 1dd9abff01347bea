// Package journal appends every stored record to a per-device CSV file and
// ships rotated files to object storage.
package journal

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/autopeer-io/truckhub/internal/truckhub/core"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/model"
	"github.com/autopeer-io/truckhub/internal/truckhub/core/wire"
)

var _ core.RecordSink = (*Writer)(nil)

const (
	fileExt      = ".csv"
	rotatedDir   = "rotated"
	rotateLayout = "20060102T150405Z"
)

// Writer appends records to {dir}/{imei}_{class}.csv. The header row is
// written when a file is created.
type Writer struct {
	dir string

	mu sync.Mutex
}

// NewWriter creates dir if needed.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		return nil, errors.New("journal directory is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, rotatedDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the journal directory.
func (w *Writer) Dir() string { return w.dir }

func (w *Writer) Name() string { return "journal" }

// FileName returns the journal file name of a device and class. Legacy
// layouts get their own file so rows always match the header.
func FileName(deviceID string, rec model.Record) string {
	name := deviceID + "_" + string(rec.Class())
	if s, ok := wire.SchemaOf(rec); ok && s.Legacy {
		name += fmt.Sprintf("_v%d", s.Version)
	}
	return name + fileExt
}

// Header returns the header row for rec's layout.
func Header(rec model.Record) []string {
	row := []string{"topic", "timestamp"}
	if s, ok := wire.SchemaOf(rec); ok {
		row = append(row, s.Fields...)
	}
	return row
}

// Accept appends one row: topic, receive time, then the wire fields.
func (w *Writer) Accept(_ context.Context, rec model.Record) error {
	h := rec.Meta()
	if h.DeviceID == "" {
		return errors.New("record has no device id")
	}

	row := make([]string, 0, len(h.Fields)+2)
	row = append(row, h.Topic, h.ReceivedAt.UTC().Format(time.RFC3339Nano))
	row = append(row, h.Fields...)

	w.mu.Lock()
	defer w.mu.Unlock()

	path := filepath.Join(w.dir, FileName(h.DeviceID, rec))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open journal file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	cw := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := cw.Write(Header(rec)); err != nil {
			return err
		}
	}
	if err := cw.Write(row); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// Rotate moves every active journal file into the rotated directory, suffixed
// with now, and returns the new paths. The next record starts a fresh file.
func (w *Writer) Rotate(now time.Time) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal directory: %w", err)
	}

	stamp := now.UTC().Format(rotateLayout)
	var rotated []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		base := strings.TrimSuffix(e.Name(), fileExt)
		dst := filepath.Join(w.dir, rotatedDir, base+"_"+stamp+fileExt)
		if err := os.Rename(filepath.Join(w.dir, e.Name()), dst); err != nil {
			return rotated, fmt.Errorf("failed to rotate %s: %w", e.Name(), err)
		}
		rotated = append(rotated, dst)
	}
	return rotated, nil
}

// Pending lists rotated files that have not been archived yet.
func (w *Writer) Pending() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(w.dir, rotatedDir, "*"+fileExt))
	if err != nil {
		return nil, err
	}
	return matches, nil
}
