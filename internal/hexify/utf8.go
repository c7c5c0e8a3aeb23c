// Package hexify decides whether a byte sequence can travel as plain text and
// converts it to and from the reversible $HEX[...] envelope otherwise.
package hexify

// Well-formed UTF-8 byte sequences, Unicode Standard section 3.9, Table 3-7:
//
//	Code Points         First Byte  Second Byte  Third Byte  Fourth Byte
//	U+0000..U+007F      00..7F
//	U+0080..U+07FF      C2..DF      80..BF
//	U+0800..U+0FFF      E0          A0..BF       80..BF
//	U+1000..U+CFFF      E1..EC      80..BF       80..BF
//	U+D000..U+D7FF      ED          80..9F       80..BF
//	U+E000..U+FFFF      EE..EF      80..BF       80..BF
//	U+10000..U+3FFFF    F0          90..BF       80..BF      80..BF
//	U+40000..U+FFFFF    F1..F3      80..BF       80..BF      80..BF
//	U+100000..U+10FFFF  F4          80..8F       80..BF      80..BF
//
// Each row is one leading-byte class.

const invalidClass = -1

type byteRange struct {
	lo, hi byte
}

func (r byteRange) contains(c byte) bool {
	return c >= r.lo && c <= r.hi
}

var continuation = byteRange{0x80, 0xbf}

var classLen = [9]int{1, 2, 3, 3, 3, 3, 4, 4, 4}

var classSecond = [9]byteRange{
	{},
	continuation,
	{0xa0, 0xbf},
	continuation,
	{0x80, 0x9f},
	continuation,
	{0x90, 0xbf},
	continuation,
	{0x80, 0x8f},
}

var leadClass = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = invalidClass
	}
	set := func(lo, hi int, class int8) {
		for c := lo; c <= hi; c++ {
			t[c] = class
		}
	}
	set(0x00, 0x7f, 0)
	set(0xc2, 0xdf, 1)
	set(0xe0, 0xe0, 2)
	set(0xe1, 0xec, 3)
	set(0xed, 0xed, 4)
	set(0xee, 0xef, 5)
	set(0xf0, 0xf0, 6)
	set(0xf1, 0xf3, 7)
	set(0xf4, 0xf4, 8)
	return t
}()

// IsWellFormedUTF8 reports whether buf consists entirely of well-formed UTF-8
// sequences. The scan is all or nothing.
func IsWellFormedUTF8(buf []byte) bool {
	return scanUTF8(buf, true)
}

// IsPrintableUTF8 is IsWellFormedUTF8 with the C0 control bytes 0x00..0x1F
// rejected as well.
func IsPrintableUTF8(buf []byte) bool {
	return scanUTF8(buf, false)
}

func scanUTF8(buf []byte, controls bool) bool {
	for pos := 0; pos < len(buf); {
		c0 := buf[pos]
		if !controls && c0 < 0x20 {
			return false
		}

		class := leadClass[c0]
		if class == invalidClass {
			return false
		}

		n := classLen[class]
		if pos+n > len(buf) {
			return false
		}

		if n >= 2 {
			if !classSecond[class].contains(buf[pos+1]) {
				return false
			}
			for j := 2; j < n; j++ {
				if !continuation.contains(buf[pos+j]) {
					return false
				}
			}
		}

		pos += n
	}
	return true
}

// IsPrintableASCII reports whether every byte of buf is in 0x20..0x7E.
func IsPrintableASCII(buf []byte) bool {
	for _, c := range buf {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}
