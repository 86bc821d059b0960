package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/df07/go-whitted-raytracer/pkg/config"
	"github.com/klauspost/compress/gzip"
)

var errRotation = errors.New("log rotation")

// rotatingWriter writes to a single log file and rotates it once it grows
// past maxSize, keeping at most maxBackups rotated files
type rotatingWriter struct {
	mu         sync.Mutex
	path       string
	maxSize    int64
	maxBackups int
	compress   bool
	file       *os.File
	size       int64
	now        func() time.Time
}

func newRotatingWriter(cfg config.LoggingConfig) (*rotatingWriter, error) {
	if cfg.MaxSizeMB <= 0 {
		return nil, fmt.Errorf("%w: max size must be positive", errRotation)
	}
	if cfg.MaxBackups < 0 {
		return nil, fmt.Errorf("%w: max backups must be non-negative", errRotation)
	}
	w, err := openRotatingWriter(cfg.Path, int64(cfg.MaxSizeMB)*1024*1024, cfg.MaxBackups, cfg.Compress)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func openRotatingWriter(path string, maxSize int64, maxBackups int, compress bool) (*rotatingWriter, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return &rotatingWriter{
		path:       path,
		maxSize:    maxSize,
		maxBackups: maxBackups,
		compress:   compress,
		file:       file,
		size:       info.Size(),
		now:        time.Now,
	}, nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file != nil && w.size > 0 && w.size+int64(len(p)) > w.maxSize {
		// A failed rotation leaves the current file open; the next write retries
		_ = w.rotateLocked()
	}
	if w.file == nil {
		if err := w.reopenLocked(nil); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *rotatingWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

func (w *rotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *rotatingWriter) rotateLocked() error {
	if w.file == nil {
		return fmt.Errorf("%w: log file not open", errRotation)
	}
	if err := w.file.Close(); err != nil {
		return w.reopenLocked(err)
	}
	// Nanoseconds keep names unique when rotating several times per second
	rotated := fmt.Sprintf("%s.%s", w.path, w.now().UTC().Format("20060102T150405.000000000"))
	if err := os.Rename(w.path, rotated); err != nil {
		return w.reopenLocked(err)
	}
	if w.compress {
		if err := compressFile(rotated, rotated+".gz"); err == nil {
			_ = os.Remove(rotated)
		}
	}
	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		w.file = nil
		return err
	}
	w.file = file
	w.size = 0
	return w.cleanupLocked()
}

// reopenLocked reopens the log file for appending after a failed rotation and
// returns cause wrapped as a rotation error. w.file is nil if reopening fails.
func (w *rotatingWriter) reopenLocked(cause error) error {
	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		w.file = nil
		return errors.Join(cause, err)
	}
	w.file = file
	if info, statErr := file.Stat(); statErr == nil {
		w.size = info.Size()
	}
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", errRotation, cause)
}

// cleanupLocked removes the oldest rotated files beyond maxBackups.
// Zero keeps every backup.
func (w *rotatingWriter) cleanupLocked() error {
	if w.maxBackups == 0 {
		return nil
	}
	backups, err := listBackups(w.path)
	if err != nil {
		return err
	}
	if len(backups) > w.maxBackups {
		for _, name := range backups[:len(backups)-w.maxBackups] {
			_ = os.Remove(name)
		}
	}
	return nil
}

// listBackups returns the rotated files of path, oldest first. Rotated names
// embed a sortable timestamp.
func listBackups(path string) ([]string, error) {
	dir := filepath.Dir(path)
	prefix := filepath.Base(path) + "."
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var backups []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			backups = append(backups, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(backups)
	return backups, nil
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()
	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}
