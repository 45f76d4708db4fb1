// Package wire frames persisted cache contents.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version byte = 1
	hdrLen       = 4 + 1 + 8 + 4
)

var (
	ErrCorrupt = errors.New("cachewrap: corrupt persisted entry")
	magic4     = [...]byte{'C', 'W', 'R', 'P'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Encode frames payload written at generation gen:
//
//	magic(4) | ver(1) | gen(u64 be) | plen(u32 be) | payload(plen)
func Encode(gen uint64, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], gen)
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// Decode returns the generation and payload of a frame. Anything that is not
// exactly one well-formed frame is ErrCorrupt.
func Decode(b []byte) (gen uint64, payload []byte, err error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version {
		return 0, nil, ErrCorrupt
	}

	off := 5
	gen = binary.BigEndian.Uint64(b[off : off+8])
	off += 8

	plen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if plen < 0 || plen != len(b)-off {
		return 0, nil, ErrCorrupt
	}
	return gen, b[off:], nil
}
