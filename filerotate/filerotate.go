// Package filerotate implements a file that switches to a new path
// once a day. Used for log files.
package filerotate

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Config describes when and where to rotate
type Config struct {
	// called after a file is closed, didRotate is false when closed by Close()
	DidClose func(path string, didRotate bool)
	// returns a new path if the file should be rotated, "" otherwise.
	// creationTime is zero before the first file is opened.
	PathIfShouldRotate func(creationTime time.Time, now time.Time) string
	// for tests, defaults to time.Now
	Now func() time.Time
}

// File is an io.Writer safe for concurrent use
type File struct {
	mu sync.Mutex

	// Path of the current file
	Path string

	creationTime time.Time
	config       Config
	file         *os.File
}

// IsSameDay returns true if t1 and t2 are on the same calendar day
func IsSameDay(t1, t2 time.Time) bool {
	y1, m1, d1 := t1.Date()
	y2, m2, d2 := t2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// New opens the first file
func New(config *Config) (*File, error) {
	if config == nil {
		return nil, fmt.Errorf("must provide config")
	}
	if config.PathIfShouldRotate == nil {
		return nil, fmt.Errorf("must provide config.PathIfShouldRotate")
	}
	f := &File{
		config: *config,
	}
	if f.config.Now == nil {
		f.config.Now = time.Now
	}
	if err := f.reopenIfNeeded(); err != nil {
		return nil, err
	}
	return f, nil
}

// MakeDailyRotateInDir names files ${dir}/${prefix}YYYY-MM-DD.txt
func MakeDailyRotateInDir(dir string, prefix string) func(time.Time, time.Time) string {
	return func(creationTime time.Time, now time.Time) string {
		if !creationTime.IsZero() && IsSameDay(creationTime, now) {
			return ""
		}
		name := prefix + now.Format("2006-01-02") + ".txt"
		return filepath.Join(dir, name)
	}
}

// NewDaily creates a file rotating daily in dir
func NewDaily(dir string, prefix string, didClose func(path string, didRotate bool)) (*File, error) {
	config := Config{
		DidClose:           didClose,
		PathIfShouldRotate: MakeDailyRotateInDir(dir, prefix),
	}
	return New(&config)
}

func (f *File) close(didRotate bool) error {
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	if err == nil && f.config.DidClose != nil {
		f.config.DidClose(f.Path, didRotate)
	}
	return err
}

func (f *File) open(path string, now time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	f.Path = path
	f.creationTime = now
	f.file = file
	return nil
}

func (f *File) reopenIfNeeded() error {
	now := f.config.Now()
	newPath := f.config.PathIfShouldRotate(f.creationTime, now)
	if newPath == "" && f.file != nil {
		return nil
	}
	if newPath == "" {
		// closed by Close(), re-open the same file
		newPath = f.Path
	}
	if err := f.close(true); err != nil {
		return err
	}
	return f.open(newPath, now)
}

// Write writes d to the current file, rotating first if needed
func (f *File) Write(d []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.reopenIfNeeded(); err != nil {
		return 0, err
	}
	return f.file.Write(d)
}

// Sync flushes the current file to disk
func (f *File) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}
	return f.file.Sync()
}

// Close closes the current file. A later Write re-opens it.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.close(false)
}
