package snapshot

import (
	"errors"
	"fmt"
)

const (
	// magicNumber identifies signspace snapshot streams (ASCII: "LSM1").
	magicNumber = 0x4C534D31
	// formatVersion is the current stream format version (v1.0.0).
	formatVersion = 0x00010000

	// maxNameLen bounds the codec and compression name fields.
	maxNameLen = 64
)

var (
	ErrInvalidMagic       = errors.New("invalid magic number")
	ErrInvalidVersion     = errors.New("unsupported version")
	ErrUnknownCodec       = errors.New("unknown codec")
	ErrUnknownCompression = errors.New("unknown compression")
)

// Compression names the payload compression of a snapshot stream.
type Compression string

const (
	// CompressionNone stores the encoded payload as-is.
	CompressionNone Compression = "none"
	// CompressionGzip compresses with klauspost/compress gzip.
	CompressionGzip Compression = "gzip"
	// CompressionLZ4 compresses with pierrec/lz4 framing.
	CompressionLZ4 Compression = "lz4"
)

// Valid reports whether c names a known compression.
func (c Compression) Valid() bool {
	switch c {
	case CompressionNone, CompressionGzip, CompressionLZ4:
		return true
	default:
		return false
	}
}

// ChecksumMismatchError is returned when payload verification fails.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}

// IsChecksumMismatch reports whether err is a checksum mismatch.
func IsChecksumMismatch(err error) bool {
	var cm *ChecksumMismatchError
	return errors.As(err, &cm)
}
