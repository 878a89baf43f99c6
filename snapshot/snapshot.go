// Package snapshot writes and reads spatial map snapshots as a
// self-describing byte stream.
//
// The stream records the codec and compression names in its header, so a
// reader needs no out-of-band configuration to decode it. The package only
// deals with io.Writer/io.Reader; where the bytes live (file, object store,
// network) is the caller's concern.
//
// Stream layout, little-endian:
//
//	magic    uint32
//	version  uint32
//	codec    uint16 length + name bytes
//	compress uint16 length + name bytes
//	payload  uint64 length + bytes (compressed encoded map)
//	checksum uint32 CRC32 (IEEE) of the payload bytes
package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"

	"github.com/lsfkit/signspace/codec"
	"github.com/lsfkit/signspace/model"
)

// Options configure a snapshot write.
type Options struct {
	// Codec encodes the map payload. Defaults to codec.Default.
	Codec codec.Codec

	// Compression names the payload compression. Defaults to lz4.
	Compression Compression
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Codec:       codec.Default,
		Compression: CompressionLZ4,
	}
}

// WithCodec sets the payload codec.
func WithCodec(c codec.Codec) func(o *Options) {
	return func(o *Options) { o.Codec = c }
}

// WithCompression sets the payload compression.
func WithCompression(c Compression) func(o *Options) {
	return func(o *Options) { o.Compression = c }
}

// Write encodes m and writes a complete snapshot stream to w.
func Write(w io.Writer, m *model.SpatialMap, optFns ...func(o *Options)) error {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if !opts.Compression.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCompression, string(opts.Compression))
	}

	encoded, err := opts.Codec.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	payload, err := compress(encoded, opts.Compression)
	if err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(magicNumber)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(formatVersion)); err != nil {
		return err
	}
	if err := writeName(w, opts.Codec.Name()); err != nil {
		return err
	}
	if err := writeName(w, string(opts.Compression)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(payload))); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, crc32.ChecksumIEEE(payload))
}

// Read decodes one snapshot stream from r.
func Read(r io.Reader) (*model.SpatialMap, error) {
	var magic, ver uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, err
	}
	if magic != magicNumber {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, magic)
	}
	if err := binary.Read(r, binary.LittleEndian, &ver); err != nil {
		return nil, err
	}
	if ver != formatVersion {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, ver)
	}

	codecName, err := readName(r)
	if err != nil {
		return nil, err
	}
	c, ok := codec.ByName(codecName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, codecName)
	}
	compName, err := readName(r)
	if err != nil {
		return nil, err
	}
	comp := Compression(compName)
	if !comp.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, compName)
	}

	var size uint64
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read snapshot payload: %w", err)
	}
	var sum uint32
	if err := binary.Read(r, binary.LittleEndian, &sum); err != nil {
		return nil, err
	}
	if actual := crc32.ChecksumIEEE(payload); actual != sum {
		return nil, &ChecksumMismatchError{Expected: sum, Actual: actual}
	}

	encoded, err := decompress(payload, comp)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	var m model.SpatialMap
	if err := c.Unmarshal(encoded, &m); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &m, nil
}

func writeName(w io.Writer, name string) error {
	if len(name) > maxNameLen {
		return fmt.Errorf("name %q exceeds %d bytes", name, maxNameLen)
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(name))); err != nil {
		return err
	}
	_, err := io.WriteString(w, name)
	return err
}

func readName(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	if n > maxNameLen {
		return "", fmt.Errorf("name length %d exceeds %d bytes", n, maxNameLen)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func compress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionLZ4:
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, string(c))
	}
}

func decompress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case CompressionLZ4:
		return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, string(c))
	}
}
