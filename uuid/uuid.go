// Package uuid implements the 128-bit UUID representation used throughout
// the Attribute Protocol (Core Spec 5.3 Vol 1E 2.9.1. Basic Types) and its
// conversions among the 16-, 32- and 128-bit wire forms.
//
// Storage is big-endian, matching how a UUID is laid out in memory by the
// rest of this stack; every exported conversion behaves as though the wire
// form were little-endian, since that is what a central or peer actually
// observes on the air.
package uuid

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// UUID is a 128-bit Bluetooth UUID, stored big-endian.
type UUID [16]byte

// Base is the Bluetooth Base UUID, 00000000-0000-1000-8000-00805F9B34FB.
// Every 16- and 32-bit UUID is this value with its top 32 bits replaced by
// the short form (a 16-bit form zero-extended to 32 bits).
var Base = UUID{
	0x00, 0x00, 0x00, 0x00,
	0x00, 0x00,
	0x10, 0x00,
	0x80, 0x00,
	0x00, 0x80, 0x5F, 0x9B, 0x34, 0xFB,
}

const baseSuffixStart = 4

// FromUint32 returns Base with its top 32 bits replaced by v, i.e. the UUID
// that 16- and 32-bit short forms expand into.
func FromUint32(v uint32) UUID {
	u := Base
	binary.BigEndian.PutUint32(u[0:4], v)
	return u
}

// FromUint16 is a convenience wrapper around FromUint32 for 16-bit UUIDs.
func FromUint16(v uint16) UUID {
	return FromUint32(uint32(v))
}

// TryTo32Bit reports whether u is expressible as Base with only its top 32
// bits varied, returning that 32-bit value if so.
func (u UUID) TryTo32Bit() (uint32, bool) {
	if !suffixMatches(u) {
		return 0, false
	}
	return binary.BigEndian.Uint32(u[0:4]), true
}

// TryTo16Bit reports whether u is 16-bit-compatible: its top 32 bits have a
// zero upper half and its trailing 96 bits equal the Base UUID's.
func (u UUID) TryTo16Bit() (uint16, bool) {
	v, ok := u.TryTo32Bit()
	if !ok || v > 0xFFFF {
		return 0, false
	}
	return uint16(v), true
}

func suffixMatches(u UUID) bool {
	for i := baseSuffixStart; i < 16; i++ {
		if u[i] != Base[i] {
			return false
		}
	}
	return true
}

// ShortestBytes returns the shortest little-endian wire representation of u
// admissible under the 16-/32-/128-bit predicates: length 2, 4, or 16.
func (u UUID) ShortestBytes() []byte {
	if v, ok := u.TryTo16Bit(); ok {
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, v)
		return b
	}
	if v, ok := u.TryTo32Bit(); ok {
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, v)
		return b
	}
	return u.WireBytes()
}

// WireBytes returns the full 128-bit little-endian wire representation of u.
func (u UUID) WireBytes() []byte {
	b := make([]byte, 16)
	for i := 0; i < 16; i++ {
		b[i] = u[15-i]
	}
	return b
}

// FromWireBytes builds a UUID from a 2-, 4- or 16-byte little-endian wire
// value, the inverse of ShortestBytes/WireBytes. ok is false for any other
// length.
func FromWireBytes(b []byte) (u UUID, ok bool) {
	switch len(b) {
	case 2:
		return FromUint16(binary.LittleEndian.Uint16(b)), true
	case 4:
		return FromUint32(binary.LittleEndian.Uint32(b)), true
	case 16:
		var out UUID
		for i := 0; i < 16; i++ {
			out[i] = b[15-i]
		}
		return out, true
	default:
		return UUID{}, false
	}
}

// ParseHyphenated accepts exactly the canonical 8-4-4-4-12 hyphenated form
// (e.g. "34DA3AD1-7110-41A1-B1EF-4430F509CDE7") and rejects any other shape.
func ParseHyphenated(s string) (UUID, bool) {
	if len(s) != 36 {
		return UUID{}, false
	}
	if s[8] != '-' || s[13] != '-' || s[18] != '-' || s[23] != '-' {
		return UUID{}, false
	}
	hexPart := s[0:8] + s[9:13] + s[14:18] + s[19:23] + s[24:36]
	b, err := hex.DecodeString(hexPart)
	if err != nil || len(b) != 16 {
		return UUID{}, false
	}
	return FromWireBytes(reverseBytes(b))
}

// ParseHexLoose strips every non-hex character from s and requires exactly
// 32 hex digits to remain, interpreting the result as big-endian storage
// order (i.e. the same digit order ParseHyphenated would have consumed).
func ParseHexLoose(s string) (UUID, bool) {
	var sb strings.Builder
	for _, r := range s {
		if isHexDigit(r) {
			sb.WriteRune(r)
		}
	}
	stripped := sb.String()
	if len(stripped) != 32 {
		return UUID{}, false
	}
	b, err := hex.DecodeString(stripped)
	if err != nil || len(b) != 16 {
		return UUID{}, false
	}
	return FromWireBytes(reverseBytes(b))
}

func isHexDigit(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r >= 'a' && r <= 'f':
		return true
	case r >= 'A' && r <= 'F':
		return true
	default:
		return false
	}
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

// String renders u in the canonical 8-4-4-4-12 hyphenated form.
func (u UUID) String() string {
	be := make([]byte, 16)
	for i := 0; i < 16; i++ {
		be[i] = u[i]
	}
	s := hex.EncodeToString(be)
	return fmt.Sprintf("%s-%s-%s-%s-%s", s[0:8], s[8:12], s[12:16], s[16:20], s[20:32])
}

// Equal reports whether u and v represent the same UUID.
func (u UUID) Equal(v UUID) bool { return u == v }
