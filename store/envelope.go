package store

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/hupe1980/lja/codec"
	"github.com/hupe1980/lja/internal/compress"
)

// Envelope format:
//
//	magic "LJA1" | name length uint8 | codec name | compression uint8 | crc32c uint32 LE | payload
//
// The checksum covers the payload as stored (after compression).
const envelopeMagic = "LJA1"

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// EnvelopeInfo describes how an envelope was written.
type EnvelopeInfo struct {
	Codec       string
	Compression compress.Type
}

// Seal encodes v with c, compresses it and wraps it in an envelope.
func Seal(c codec.Codec, comp compress.Type, v any) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	name := c.Name()
	if len(name) > 255 {
		return nil, fmt.Errorf("store: codec name %q too long", name)
	}

	raw, err := c.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("store: encode with %s: %w", name, err)
	}
	payload, err := compress.Compress(raw, comp)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(envelopeMagic)+1+len(name)+1+4+len(payload))
	out = append(out, envelopeMagic...)
	out = append(out, byte(len(name)))
	out = append(out, name...)
	out = append(out, byte(comp))
	out = binary.LittleEndian.AppendUint32(out, crc32.Checksum(payload, castagnoli))
	out = append(out, payload...)
	return out, nil
}

// Unseal validates an envelope and decodes its payload into v.
func Unseal(data []byte, v any) (EnvelopeInfo, error) {
	var info EnvelopeInfo

	if len(data) < len(envelopeMagic)+1 || string(data[:len(envelopeMagic)]) != envelopeMagic {
		return info, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	rest := data[len(envelopeMagic):]

	n := int(rest[0])
	rest = rest[1:]
	if len(rest) < n+1+4 {
		return info, fmt.Errorf("%w: truncated header", ErrCorrupt)
	}
	info.Codec = string(rest[:n])
	info.Compression = compress.Type(rest[n])
	sum := binary.LittleEndian.Uint32(rest[n+1:])
	payload := rest[n+5:]

	if crc32.Checksum(payload, castagnoli) != sum {
		return info, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	c, ok := codec.ByName(info.Codec)
	if !ok {
		return info, fmt.Errorf("%w: unknown codec %q", ErrCorrupt, info.Codec)
	}
	raw, err := compress.Decompress(payload, info.Compression)
	if err != nil {
		return info, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if err := c.Unmarshal(raw, v); err != nil {
		return info, fmt.Errorf("%w: decode with %s: %w", ErrCorrupt, info.Codec, err)
	}
	return info, nil
}
