// Package compressio implements transparent decompression of gzip/bzip2/xz
// sources ahead of format sniffing and streaming, grounded on the teacher's
// fileloader/compression.go magic-byte detection and reader selection.
// Unlike the teacher (which decompresses wholesale into memory, fine for
// its CSV/XLSX-sized inputs), Decompress streams into a temp file: this
// engine targets sources up to tens of gigabytes, so materializing the
// whole decompressed payload in memory is not an option.
package compressio

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"
)

// Type identifies a detected compression format.
type Type int

const (
	None Type = iota
	Gzip
	Bzip2
	XZ
)

func (t Type) String() string {
	switch t {
	case Gzip:
		return "gzip"
	case Bzip2:
		return "bzip2"
	case XZ:
		return "xz"
	default:
		return "none"
	}
}

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	bzip2Magic = []byte{0x42, 0x5a, 0x68}
	xzMagic    = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}
)

// Detect reads the first few bytes of path and identifies its compression
// format by magic bytes, independent of the file's extension.
func Detect(path string) (Type, error) {
	f, err := os.Open(path)
	if err != nil {
		return None, err
	}
	defer f.Close()

	header := make([]byte, 6)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return None, err
	}

	switch {
	case n >= 2 && bytes.HasPrefix(header, gzipMagic):
		return Gzip, nil
	case n >= 3 && bytes.HasPrefix(header, bzip2Magic):
		return Bzip2, nil
	case n >= 6 && bytes.HasPrefix(header, xzMagic):
		return XZ, nil
	default:
		return None, nil
	}
}

// Decompress streams path through the decompressor matching compressionType
// into a new temp file and returns its path along with a cleanup func that
// removes it. Callers should sniff/parse the returned path, then defer
// cleanup(). If compressionType is None, path is returned unchanged and
// cleanup is a no-op.
func Decompress(path string, compressionType Type) (string, func(), error) {
	noop := func() {}
	if compressionType == None {
		return path, noop, nil
	}

	src, err := os.Open(path)
	if err != nil {
		return "", noop, err
	}
	defer src.Close()

	var reader io.Reader
	switch compressionType {
	case Gzip:
		gz, err := gzip.NewReader(src)
		if err != nil {
			return "", noop, fmt.Errorf("compressio: open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	case Bzip2:
		reader = bzip2.NewReader(src)
	case XZ:
		xzr, err := xz.NewReader(src)
		if err != nil {
			return "", noop, fmt.Errorf("compressio: open xz reader: %w", err)
		}
		reader = xzr
	default:
		return "", noop, fmt.Errorf("compressio: unknown compression type %v", compressionType)
	}

	tmp, err := os.CreateTemp("", "dataexplorer-decompressed-*")
	if err != nil {
		return "", noop, err
	}
	cleanup := func() { os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		cleanup()
		return "", noop, fmt.Errorf("compressio: decompress %s: %w", compressionType, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", noop, err
	}
	return tmp.Name(), cleanup, nil
}
