package codec

// Pad is appended to encoded output up to the group size and marks the
// logical end of data on decode.
const Pad = '='

// EncodedLen64 returns the padded symbol count for n raw bytes under a
// 6-bit alphabet.
func EncodedLen64(n int) int {
	return (n + 2) / 3 * 4
}

// EncodedLen32 returns the padded symbol count for n raw bytes under a
// 5-bit alphabet.
func EncodedLen32(n int) int {
	return (n + 4) / 5 * 8
}

// DecodedLen returns the buffer size a decode of n symbols needs. The logical
// length is always smaller, whatever the padding looks like.
func DecodedLen(n int) int {
	return n
}

// EncodeBase64 packs src into groups of four 6-bit symbols of a and writes
// them to dst, which must hold EncodedLen64(len(src)) bytes. It returns the
// number of bytes written.
func EncodeBase64(a Alphabet, dst, src []byte) int {
	o := 0
	for i := 0; i < len(src); i += 3 {
		var f [3]byte
		copy(f[:], src[i:])

		dst[o+0] = a.ToSymbol(f[0]>>2&0x3f) & 0x7f
		dst[o+1] = a.ToSymbol(f[0]<<4&0x30|f[1]>>4&0x0f) & 0x7f
		dst[o+2] = a.ToSymbol(f[1]<<2&0x3c|f[2]>>6&0x03) & 0x7f
		dst[o+3] = a.ToSymbol(f[2]&0x3f) & 0x7f

		o += 4
	}

	// ceil(n*8/6)
	n := (len(src)*8 + 5) / 6
	for n%4 != 0 {
		dst[n] = Pad
		n++
	}
	return n
}

// DecodeBase64 reverses EncodeBase64. Raw bytes that do not fit into dst are
// dropped, so a dst of len(src) is always large enough. The returned length
// is derived from the position of the first Pad in src.
func DecodeBase64(a Alphabet, dst, src []byte) int {
	o := 0
	for i := 0; i < len(src); i += 4 {
		var f [4]byte
		copy(f[:], src[i:])

		v0 := a.FromSymbol(f[0] & 0x7f)
		v1 := a.FromSymbol(f[1] & 0x7f)
		v2 := a.FromSymbol(f[2] & 0x7f)
		v3 := a.FromSymbol(f[3] & 0x7f)

		group := [3]byte{
			v0<<2&0xfc | v1>>4&0x03,
			v1<<4&0xf0 | v2>>2&0x0f,
			v2<<6&0xc0 | v3&0x3f,
		}
		if o < len(dst) {
			copy(dst[o:], group[:])
		}
		o += 3
	}
	return padOffset(src) * 6 / 8
}

// EncodeBase32 packs src into groups of eight 5-bit symbols of a and writes
// them to dst, which must hold EncodedLen32(len(src)) bytes.
func EncodeBase32(a Alphabet, dst, src []byte) int {
	o := 0
	for i := 0; i < len(src); i += 5 {
		var f [5]byte
		copy(f[:], src[i:])

		dst[o+0] = a.ToSymbol(f[0]>>3&0x1f) & 0x7f
		dst[o+1] = a.ToSymbol(f[0]<<2&0x1c|f[1]>>6&0x03) & 0x7f
		dst[o+2] = a.ToSymbol(f[1]>>1&0x1f) & 0x7f
		dst[o+3] = a.ToSymbol(f[1]<<4&0x10|f[2]>>4&0x0f) & 0x7f
		dst[o+4] = a.ToSymbol(f[2]<<1&0x1e|f[3]>>7&0x01) & 0x7f
		dst[o+5] = a.ToSymbol(f[3]>>2&0x1f) & 0x7f
		dst[o+6] = a.ToSymbol(f[3]<<3&0x18|f[4]>>5&0x07) & 0x7f
		dst[o+7] = a.ToSymbol(f[4]&0x1f) & 0x7f

		o += 8
	}

	// ceil(n*8/5)
	n := (len(src)*8 + 4) / 5
	for n%8 != 0 {
		dst[n] = Pad
		n++
	}
	return n
}

// DecodeBase32 reverses EncodeBase32 with the same sizing and padding rules
// as DecodeBase64.
func DecodeBase32(a Alphabet, dst, src []byte) int {
	o := 0
	for i := 0; i < len(src); i += 8 {
		var f [8]byte
		copy(f[:], src[i:])

		var v [8]byte
		for j := range f {
			v[j] = a.FromSymbol(f[j] & 0x7f)
		}

		group := [5]byte{
			v[0]<<3&0xf8 | v[1]>>2&0x07,
			v[1]<<6&0xc0 | v[2]<<1&0x3e | v[3]>>4&0x01,
			v[3]<<4&0xf0 | v[4]>>1&0x0f,
			v[4]<<7&0x80 | v[5]<<2&0x7c | v[6]>>3&0x03,
			v[6]<<5&0xe0 | v[7]&0x1f,
		}
		if o < len(dst) {
			copy(dst[o:], group[:])
		}
		o += 5
	}
	return padOffset(src) * 5 / 8
}

// padOffset returns the index of the first Pad in src, or len(src).
func padOffset(src []byte) int {
	for i, c := range src {
		if c == Pad {
			return i
		}
	}
	return len(src)
}

// Encode dispatches to EncodeBase64 or EncodeBase32 based on a.Bits().
func Encode(a Alphabet, dst, src []byte) int {
	if a.Bits() == 5 {
		return EncodeBase32(a, dst, src)
	}
	return EncodeBase64(a, dst, src)
}

// Decode dispatches to DecodeBase64 or DecodeBase32 based on a.Bits().
func Decode(a Alphabet, dst, src []byte) int {
	if a.Bits() == 5 {
		return DecodeBase32(a, dst, src)
	}
	return DecodeBase64(a, dst, src)
}

// EncodedLen returns the padded output size of Encode for n raw bytes.
func EncodedLen(a Alphabet, n int) int {
	if a.Bits() == 5 {
		return EncodedLen32(n)
	}
	return EncodedLen64(n)
}
