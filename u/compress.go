package u

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// Compression is a compression format of a file, picked from its extension
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
	CompressionBrotli
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionBrotli:
		return "brotli"
	}
	return fmt.Sprintf("Compression(%d)", int(c))
}

// CompressionForPath returns compression implied by the file extension:
// .gz, .zst / .zstd, .br. Anything else is not compressed.
// TODO: could sniff file content instead of checking file extension
func CompressionForPath(path string) Compression {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gz":
		return CompressionGzip
	case ".zst", ".zstd":
		return CompressionZstd
	case ".br":
		return CompressionBrotli
	}
	return CompressionNone
}

// CompressData compresses d with c. For CompressionNone d is returned as is
func CompressData(c Compression, d []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return d, nil
	case CompressionGzip:
		var buf bytes.Buffer
		w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
		if err != nil {
			return nil, err
		}
		return finishWriter(&buf, w, d)
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(d, nil), nil
	case CompressionBrotli:
		var buf bytes.Buffer
		w := brotli.NewWriterLevel(&buf, brotli.BestCompression)
		return finishWriter(&buf, w, d)
	}
	return nil, fmt.Errorf("unknown compression %s", c)
}

func finishWriter(buf *bytes.Buffer, w io.WriteCloser, d []byte) ([]byte, error) {
	_, err := w.Write(d)
	err2 := w.Close()
	if err != nil {
		return nil, err
	}
	if err2 != nil {
		return nil, err2
	}
	return buf.Bytes(), nil
}

// DecompressData reverses CompressData
func DecompressData(c Compression, d []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return d, nil
	case CompressionGzip:
		r, err := gzip.NewReader(bytes.NewReader(d))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(d, nil)
	case CompressionBrotli:
		return io.ReadAll(brotli.NewReader(bytes.NewReader(d)))
	}
	return nil, fmt.Errorf("unknown compression %s", c)
}

// ReadFileMaybeCompressed reads a file, decompressing it if the extension
// says it's compressed. An error from reading the file itself is returned
// unchanged so that os.IsNotExist() works on it.
func ReadFileMaybeCompressed(path string) ([]byte, error) {
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecompressData(CompressionForPath(path), d)
}
