// Package siser frames blocks of data as human-readable records:
//
//	--- ${size} ${timestamp_in_unix_epoch_ms} ${name}\n
//	${data}\n
//
// ${name} is optional. A '\n' is added after data that doesn't end with
// one, for readability. It's used for append-only event logs.
package siser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"
)

var hdrPrefix = []byte("--- ")

// TimeToUnixMillisecond converts t into Unix epoch time in milliseconds
func TimeToUnixMillisecond(t time.Time) int64 {
	return t.UnixMilli()
}

// TimeFromUnixMillisecond is the reverse of TimeToUnixMillisecond
func TimeFromUnixMillisecond(unixMs int64) time.Time {
	return time.UnixMilli(unixMs)
}

// MarshalLine serializes a record. wb is optional and re-used if given.
func MarshalLine(name string, t time.Time, d []byte, wb *bytes.Buffer) []byte {
	if wb == nil {
		wb = &bytes.Buffer{}
	} else {
		wb.Reset()
	}
	wb.Grow(len(hdrPrefix) + len(name) + len(d) + 32)

	wb.Write(hdrPrefix)
	dataLen := len(d)
	wb.WriteString(strconv.Itoa(dataLen))
	wb.WriteByte(' ')
	wb.WriteString(strconv.FormatInt(TimeToUnixMillisecond(t), 10))
	if name != "" {
		wb.WriteByte(' ')
		wb.WriteString(name)
	}
	wb.WriteByte('\n')
	if dataLen > 0 {
		wb.Write(d)
		if d[dataLen-1] != '\n' {
			wb.WriteByte('\n')
		}
	}
	return wb.Bytes()
}

// Writer writes records to an io.Writer. Safe for concurrent use.
type Writer struct {
	w        io.Writer
	writeBuf bytes.Buffer
	mu       sync.Mutex
}

// NewWriter creates a writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write writes d as a single record. Zero t means current time.
func (w *Writer) Write(d []byte, t time.Time, name string) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	// don't keep a large buffer around
	if w.writeBuf.Cap() > 100*1024 && len(d) < 50*1024 {
		w.writeBuf = bytes.Buffer{}
	}
	if t.IsZero() {
		t = time.Now()
	}
	d2 := MarshalLine(name, t, d, &w.writeBuf)
	return w.w.Write(d2)
}

// Reader reads records written by Writer
type Reader struct {
	r *bufio.Reader

	// valid after ReadNext(), over-written by the next call
	Data      []byte
	Name      string
	Timestamp time.Time

	err  error
	done bool
}

// NewReader creates a reader
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// ReadNext reads the next record. Returns false at the end or on error,
// check Err() to tell them apart.
func (r *Reader) ReadNext() bool {
	if r.err != nil || r.done {
		return false
	}
	hdr, err := r.r.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(hdr) == 0 {
			r.done = true
		} else if err == io.EOF {
			r.err = fmt.Errorf("truncated header '%s'", string(hdr))
		} else {
			r.err = err
		}
		return false
	}
	if !bytes.HasPrefix(hdr, hdrPrefix) {
		r.err = fmt.Errorf("unexpected header '%s'", string(hdr))
		return false
	}
	rest := hdr[len(hdrPrefix) : len(hdr)-1]
	parts := bytes.SplitN(rest, []byte{' '}, 3)
	if len(parts) < 2 {
		r.err = fmt.Errorf("unexpected header '%s'", string(hdr))
		return false
	}
	size, err := strconv.Atoi(string(parts[0]))
	if err != nil || size < 0 {
		r.err = fmt.Errorf("invalid size in header '%s'", string(hdr))
		return false
	}
	ms, err := strconv.ParseInt(string(parts[1]), 10, 64)
	if err != nil {
		r.err = fmt.Errorf("invalid timestamp in header '%s'", string(hdr))
		return false
	}
	r.Timestamp = TimeFromUnixMillisecond(ms)
	r.Name = ""
	if len(parts) == 3 {
		r.Name = string(parts[2])
	}

	r.Data = make([]byte, size)
	if _, err = io.ReadFull(r.r, r.Data); err != nil {
		r.err = err
		return false
	}
	if size > 0 && r.Data[size-1] != '\n' {
		if _, err = r.r.Discard(1); err != nil {
			r.err = err
			return false
		}
	}
	return true
}

// Err returns the error from the last ReadNext(). io.EOF is not an error.
func (r *Reader) Err() error {
	return r.err
}
