package journal

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/truckhub/pkg/log"
)

// Uploader stores one local file under an object key.
// In truckhub, this is implemented by the MinIO adapter.
type Uploader interface {
	Upload(ctx context.Context, objectKey, filePath string) error
}

// Archiver periodically rotates the journal and uploads the rotated files.
// Uploaded files are removed locally; failed ones stay for the next round.
type Archiver struct {
	writer   *Writer
	uploader Uploader
	interval time.Duration
	prefix   string
	clock    clock.WithTicker

	// newBackOff builds the retry policy of one upload.
	newBackOff func() backoff.BackOff
}

// NewArchiver creates an Archiver. prefix is prepended to object keys.
func NewArchiver(w *Writer, u Uploader, interval time.Duration, prefix string) *Archiver {
	return &Archiver{
		writer:   w,
		uploader: u,
		interval: interval,
		prefix:   prefix,
		clock:    clock.RealClock{},
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxElapsedTime = 2 * time.Minute
			return b
		},
	}
}

// Start runs the archive loop until ctx is cancelled, then archives once more.
func (a *Archiver) Start(ctx context.Context) error {
	ticker := a.clock.NewTicker(a.interval)
	defer ticker.Stop()

	log.Info("Journal archiver started", "interval", a.interval, "dir", a.writer.Dir())
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := a.Flush(shutdownCtx); err != nil {
				log.Error(err, "Final journal archive failed")
			}
			return nil
		case <-ticker.C():
			if err := a.Flush(ctx); err != nil {
				log.Error(err, "Journal archive failed")
			}
		}
	}
}

// Flush rotates the journal and uploads every pending file.
func (a *Archiver) Flush(ctx context.Context) error {
	if _, err := a.writer.Rotate(a.clock.Now()); err != nil {
		return err
	}

	pending, err := a.writer.Pending()
	if err != nil {
		return err
	}

	var failed int
	for _, p := range pending {
		key := a.ObjectKey(p)
		op := func() error {
			return a.uploader.Upload(ctx, key, p)
		}
		if err := backoff.Retry(op, backoff.WithContext(a.newBackOff(), ctx)); err != nil {
			log.Error(err, "Failed to upload journal file", "file", p, "key", key)
			failed++
			continue
		}
		if err := os.Remove(p); err != nil {
			log.Warn("Uploaded journal file could not be removed", "file", p, "error", err.Error())
		}
		log.Debug("Journal file archived", "key", key)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d journal files not archived", failed, len(pending))
	}
	return nil
}

// ObjectKey maps a rotated file to its object key.
func (a *Archiver) ObjectKey(filePath string) string {
	return path.Join(a.prefix, filepath.Base(filePath))
}
