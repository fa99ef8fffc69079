package checksum

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
)

const (
	// DefaultChunkSize is the read buffer size used when the caller passes a non-positive one.
	DefaultChunkSize = 64 * 1024
	// MaxChunkSize bounds the read buffer whatever the caller asks for.
	MaxChunkSize = 16 * 1024 * 1024
)

// Bytes returns the CRC-32 (IEEE) checksum of data.
func Bytes(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// Reader streams r through a CRC-32 (IEEE) accumulator, chunkSize bytes at a time.
// The result does not depend on chunkSize, which is clamped to MaxChunkSize.
func Reader(r io.Reader, chunkSize int) (uint32, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	chunkSize = min(chunkSize, MaxChunkSize)

	var crc uint32

	buf := make([]byte, chunkSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			crc = crc32.Update(crc, crc32.IEEETable, buf[:n])
		}

		if errors.Is(err, io.EOF) {
			return crc, nil
		}

		if err != nil {
			return 0, fmt.Errorf("read chunk: %w", err)
		}
	}
}

// File returns the CRC-32 checksum of the file at path.
func File(path string, chunkSize int) (uint32, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}

	// Read-only handle, close error carries no data loss.
	defer func() {
		_ = f.Close()
	}()

	crc, err := Reader(f, chunkSize)
	if err != nil {
		return 0, fmt.Errorf("checksum %s: %w", path, err)
	}

	return crc, nil
}
