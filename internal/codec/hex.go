package codec

const hexDigits = "0123456789abcdef"

// HexConvert returns the nibble value of a hex digit. Upper and lower case
// letters map alike; other bytes give meaningless but defined results.
func HexConvert(c byte) byte {
	return (c & 15) + (c>>6)*9
}

// HexToU8 decodes the two hex digits at the start of h.
func HexToU8(h []byte) byte {
	_ = h[1]
	return HexConvert(h[0])<<4 | HexConvert(h[1])
}

// HexToU32 decodes 8 hex digits. Each digit pair is one byte and the pairs are
// read in little-endian order, so "78563412" yields 0x12345678.
func HexToU32(h []byte) uint32 {
	_ = h[7]
	var v uint32
	for i := 0; i < 4; i++ {
		v |= uint32(HexToU8(h[2*i:])) << (8 * i)
	}
	return v
}

// HexToU64 decodes 16 hex digits with the pair ordering of HexToU32.
func HexToU64(h []byte) uint64 {
	_ = h[15]
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(HexToU8(h[2*i:])) << (8 * i)
	}
	return v
}

// U8ToHex writes the two lowercase hex digits of v into h.
func U8ToHex(v byte, h []byte) {
	_ = h[1]
	h[0] = hexDigits[v>>4]
	h[1] = hexDigits[v&15]
}

// U32ToHex is the inverse of HexToU32.
func U32ToHex(v uint32, h []byte) {
	_ = h[7]
	for i := 0; i < 4; i++ {
		U8ToHex(byte(v>>(8*i)), h[2*i:])
	}
}

// U64ToHex is the inverse of HexToU64.
func U64ToHex(v uint64, h []byte) {
	_ = h[15]
	for i := 0; i < 8; i++ {
		U8ToHex(byte(v>>(8*i)), h[2*i:])
	}
}

// HexEncode writes the lowercase hex form of src into dst, which must hold
// 2*len(src) bytes, and returns the number of bytes written.
func HexEncode(dst, src []byte) int {
	for i, c := range src {
		U8ToHex(c, dst[2*i:])
	}
	return len(src) * 2
}

// HexDecode decodes every complete digit pair of src into dst and returns
// len(src)/2. A trailing odd digit is ignored. Digits are not validated; see
// IsValidHex.
func HexDecode(dst, src []byte) int {
	n := len(src) / 2
	for i := 0; i < n; i++ {
		dst[i] = HexToU8(src[2*i:])
	}
	return n
}
