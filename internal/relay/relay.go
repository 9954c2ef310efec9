// Package relay copies upstream response bodies to the client.
package relay

import (
	"errors"
	"fmt"
	"io"
)

// ChunkSize is the largest single write issued to the client.
const ChunkSize = 1024

// Stream copies src to dst in order, writing at most chunkSize bytes per
// Write call, until src is exhausted. It returns the number of bytes written.
// Unlike io.Copy it never delegates to ReaderFrom or WriterTo, so the chunk
// bound holds for every destination.
func Stream(dst io.Writer, src io.Reader, chunkSize int) (int64, error) {
	if chunkSize <= 0 {
		return 0, fmt.Errorf("relay: invalid chunk size %d", chunkSize)
	}

	buf := make([]byte, chunkSize)
	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			w, werr := dst.Write(buf[:n])
			written += int64(w)
			if werr != nil {
				return written, fmt.Errorf("relay: write: %w", werr)
			}
			if w != n {
				return written, fmt.Errorf("relay: write: %w", io.ErrShortWrite)
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return written, nil
			}
			return written, fmt.Errorf("relay: read: %w", rerr)
		}
	}
}
