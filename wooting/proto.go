package wooting

// The firmware parses key maps in a minimal length-prefixed tagged
// encoding: per-key varint entries under tag 0x08, wrapped in a single
// length-delimited block under tag 0x12. Only those two tags exist on
// the wire, so a full codec would be over-engineering.

const (
	tagKeyEntry = 0x08
	tagKeyMap   = 0x12
)

// AppendVarint appends v encoded as little-endian 7-bit groups, high
// bit set on all but the final byte.
func AppendVarint(dst []byte, v uint32) []byte {
	for v > 0x7F {
		dst = append(dst, byte(v&0x7F|0x80))
		v >>= 7
	}
	return append(dst, byte(v&0x7F))
}

// DecodeVarint decodes a varint from buf, returning the value and the
// number of bytes consumed (0 if buf is truncated).
func DecodeVarint(buf []byte) (uint32, int) {
	var v uint32
	for i, b := range buf {
		v |= uint32(b&0x7F) << (7 * uint(i))
		if b&0x80 == 0 {
			return v, i + 1
		}
	}
	return 0, 0
}

// BuildKeyMap encodes a partial key map payload for the given settings.
func BuildKeyMap(keys []KeySetting) []byte {
	inner := make([]byte, 0, 4*len(keys))
	for _, k := range keys {
		entry := encodeKeyEntry(MMToFirmware(k.MM), k.Pos.Row, k.Pos.Col)
		inner = append(inner, tagKeyEntry)
		inner = AppendVarint(inner, uint32(entry))
	}

	out := make([]byte, 0, 2+len(inner))
	out = append(out, tagKeyMap)
	out = AppendVarint(out, uint32(len(inner)))
	return append(out, inner...)
}
