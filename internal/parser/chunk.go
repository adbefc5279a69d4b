package parser

import (
	"context"
	"errors"
	"io"
	"os"
)

// chunkSource reads a file sequentially in fixed-size chunks, tracking the
// absolute byte offset each chunk starts at.
type chunkSource struct {
	f         *os.File
	size      int64
	chunkSize int
	consumed  uint64
	buf       []byte
}

func openChunkSource(path string, chunkSize int) (*chunkSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &chunkSource{
		f:         f,
		size:      info.Size(),
		chunkSize: chunkSize,
		buf:       make([]byte, chunkSize),
	}, nil
}

func (c *chunkSource) Close() error { return c.f.Close() }

func (c *chunkSource) FileSize() uint64 { return uint64(c.size) }

// next reads the next chunk, returning io.EOF once the file is exhausted.
func (c *chunkSource) next() ([]byte, error) {
	n, err := c.f.Read(c.buf)
	if n > 0 {
		c.consumed += uint64(n)
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			if n == 0 {
				return nil, io.EOF
			}
			return c.buf[:n], nil
		}
		return nil, err
	}
	return c.buf[:n], nil
}

// forEachChunk drives a sequential chunked scan over path, checking ctx at
// every chunk boundary (§4.3/§5's cooperative cancellation point) and
// invoking onChunk with each chunk's bytes and its absolute start offset.
// onAfterChunk is invoked after every chunk to let the caller emit progress.
func forEachChunk(ctx context.Context, path string, chunkSize int, onChunk func(chunk []byte, chunkStart uint64) error, onAfterChunk func(consumed, fileSize uint64)) (fileSize uint64, err error) {
	src, err := openChunkSource(path, chunkSize)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	for {
		select {
		case <-ctx.Done():
			return src.FileSize(), ErrCancelled{}
		default:
		}

		start := src.consumed
		chunk, readErr := src.next()
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return src.FileSize(), readErr
		}

		if err := onChunk(chunk, start); err != nil {
			return src.FileSize(), err
		}
		if onAfterChunk != nil {
			onAfterChunk(src.consumed, src.FileSize())
		}
	}

	return src.FileSize(), nil
}
