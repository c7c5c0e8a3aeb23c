package codec

// The split helpers name the low half "a" and the high half "b".

func V16aFromV32(v uint32) uint16 { return uint16(v) }
func V16bFromV32(v uint32) uint16 { return uint16(v >> 16) }

func V32FromV16ab(a, b uint16) uint32 {
	return uint32(a) | uint32(b)<<16
}

func V32aFromV64(v uint64) uint32 { return uint32(v) }
func V32bFromV64(v uint64) uint32 { return uint32(v >> 32) }

func V64FromV32ab(a, b uint32) uint64 {
	return uint64(a) | uint64(b)<<32
}

// Lowercase folds ASCII upper case letters in buf in place.
func Lowercase(buf []byte) {
	for i, c := range buf {
		if c >= 'A' && c <= 'Z' {
			buf[i] = c + ('a' - 'A')
		}
	}
}

// Uppercase folds ASCII lower case letters in buf in place.
func Uppercase(buf []byte) {
	for i, c := range buf {
		if c >= 'a' && c <= 'z' {
			buf[i] = c - ('a' - 'A')
		}
	}
}
