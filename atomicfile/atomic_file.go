package atomicfile

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

var (
	// ErrCancelled is returned by calls subsequent to RemoveIfNotClosed()
	ErrCancelled = errors.New("cancelled")

	_ io.WriteCloser = &File{}
)

// File is written to a temporary file in the destination directory
// and renamed to the destination path on successful Close().
// Readers of the destination never see partially written content.
type File struct {
	dstPath string
	dir     string
	tmpFile *os.File
	tmpPath string
	// first error we got, sticky
	err error
}

// New creates a temporary file next to path. Fails if the directory
// of path doesn't exist or is not writable.
func New(path string) (*File, error) {
	dir, name := filepath.Split(path)
	if name == "" {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrInvalid}
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	tmpFile, err := os.CreateTemp(dir, name+".tmp")
	if err != nil {
		return nil, err
	}
	return &File{
		dstPath: path,
		dir:     dir,
		tmpFile: tmpFile,
		tmpPath: tmpFile.Name(),
	}, nil
}

func (f *File) setErr(err error) error {
	if err == nil {
		return nil
	}
	if f.err == nil {
		f.err = err
	}
	// removes the temp file
	_ = f.Close()
	return err
}

// Write writes to the temporary file
func (f *File) Write(d []byte) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n, err := f.tmpFile.Write(d)
	return n, f.setErr(err)
}

func (f *File) closed() bool {
	return f.tmpFile == nil
}

// RemoveIfNotClosed deletes the temporary file without creating
// the destination. Meant to be deferred right after New().
// A no-op after Close().
func (f *File) RemoveIfNotClosed() {
	if f == nil || f.closed() {
		return
	}
	f.err = ErrCancelled
	_ = f.Close()
}

// Close syncs the temporary file and renames it to the destination.
// On any error (now or in earlier Write) the temporary file is removed and
// the destination is left untouched. Safe to call multiple times, returns
// the first error.
func (f *File) Close() error {
	if f.closed() {
		return f.err
	}
	tmpFile := f.tmpFile
	f.tmpFile = nil

	errSync := tmpFile.Sync()
	errClose := tmpFile.Close()

	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(f.tmpPath)
		}
	}()

	if f.err != nil {
		return f.err
	}
	err := errSync
	if err == nil {
		err = errClose
	}
	if err == nil {
		err = os.Rename(f.tmpPath, f.dstPath)
		renamed = err == nil
		// best effort, makes the rename durable
		if d, _ := os.Open(f.dir); d != nil {
			_ = d.Sync()
			_ = d.Close()
		}
	}
	f.err = err
	return err
}

// WriteFile is like os.WriteFile but atomic
func WriteFile(path string, d []byte) error {
	f, err := New(path)
	if err != nil {
		return err
	}
	defer f.RemoveIfNotClosed()
	if _, err = f.Write(d); err != nil {
		return err
	}
	return f.Close()
}
