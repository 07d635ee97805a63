package atomicfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func assertFileExists(t *testing.T, path string) {
	t.Helper()
	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("file '%s' doesn't exist, os.Stat() failed with '%s'", path, err)
	}
	if !st.Mode().IsRegular() {
		t.Fatalf("path '%s' exists but is not a file (mode: %d)", path, int(st.Mode()))
	}
}

func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Fatalf("file '%s' exists, expected to not exist", path)
	}
}

func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("error: %s", err)
	}
}

func assertFileContent(t *testing.T, path string, exp string) {
	t.Helper()
	d, err := os.ReadFile(path)
	assertNoError(t, err)
	if string(d) != exp {
		t.Fatalf("path: '%s', expected content: '%s', got: '%s'", path, exp, string(d))
	}
}

func TestWrite(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "inventory.csv")
	f, err := New(dst)
	assertNoError(t, err)
	assertFileExists(t, f.tmpPath)
	_, err = f.Write([]byte("Товары\n"))
	assertNoError(t, err)
	assertFileNotExists(t, dst)
	assertNoError(t, f.Close())
	assertFileNotExists(t, f.tmpPath)
	assertFileContent(t, dst, "Товары\n")
	// calling Close twice is a no-op
	assertNoError(t, f.Close())
}

func TestOverwriteKeepsOldOnError(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "inventory.csv")
	assertNoError(t, WriteFile(dst, []byte("old")))

	f, err := New(dst)
	assertNoError(t, err)
	_, err = f.Write([]byte("new"))
	assertNoError(t, err)
	errSimulated := errors.New("simulated")
	f.err = errSimulated
	if err = f.Close(); err != errSimulated {
		t.Fatalf("expected %v, got %v", errSimulated, err)
	}
	assertFileNotExists(t, f.tmpPath)
	assertFileContent(t, dst, "old")
	// sticky error
	if err = f.Close(); err != errSimulated {
		t.Fatalf("expected %v, got %v", errSimulated, err)
	}
}

func TestRemoveIfNotClosed(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "inventory.csv")
	f, err := New(dst)
	assertNoError(t, err)
	f.RemoveIfNotClosed()
	assertFileNotExists(t, f.tmpPath)
	assertFileNotExists(t, dst)
	if _, err = f.Write([]byte("x")); err != ErrCancelled {
		t.Fatalf("expected %v, got %v", ErrCancelled, err)
	}
	if err = f.Close(); err != ErrCancelled {
		t.Fatalf("expected %v, got %v", ErrCancelled, err)
	}
	// nil receiver is fine
	var fNil *File
	fNil.RemoveIfNotClosed()
}

func TestMissingDir(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "no", "such", "dir", "inventory.csv")
	if _, err := New(dst); err == nil {
		t.Fatalf("expected an error for '%s'", dst)
	}
	if err := WriteFile(dst, []byte("x")); err == nil {
		t.Fatalf("expected an error for '%s'", dst)
	}
	if _, err := New(t.TempDir() + string(filepath.Separator)); err == nil {
		t.Fatalf("expected an error for a directory path")
	}
}
