package codec

func isAlnum(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// IsValidBase64AChar reports whether c belongs to the standard base64
// charset including the pad: 0-9 A-Z a-z + / =.
func IsValidBase64AChar(c byte) bool {
	return isAlnum(c) || c == '+' || c == '/' || c == Pad
}

// IsValidBase64BChar reports whether c belongs to the crypt charset
// 0-9 A-Z a-z . / =.
func IsValidBase64BChar(c byte) bool {
	return isAlnum(c) || c == '.' || c == '/' || c == Pad
}

// IsValidBase64CChar reports whether c belongs to the URL-safe charset
// 0-9 A-Z a-z _ - =.
func IsValidBase64CChar(c byte) bool {
	return isAlnum(c) || c == '_' || c == '-' || c == Pad
}

// IsValidHexChar reports whether c is a hex digit of either case.
func IsValidHexChar(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}

// IsValidDigitChar reports whether c is a decimal digit.
func IsValidDigitChar(c byte) bool {
	return c >= '0' && c <= '9'
}

// IsValidBase32Char reports whether c is an RFC 4648 base32 symbol or the pad.
func IsValidBase32Char(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= '2' && c <= '7') || c == Pad
}

// IsValidItoa32Char reports whether c is an itoa32 symbol or the pad.
func IsValidItoa32Char(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'v') || c == Pad
}

func all(s []byte, ok func(byte) bool) bool {
	for _, c := range s {
		if !ok(c) {
			return false
		}
	}
	return true
}

func IsValidBase64A(s []byte) bool { return all(s, IsValidBase64AChar) }
func IsValidBase64B(s []byte) bool { return all(s, IsValidBase64BChar) }
func IsValidBase64C(s []byte) bool { return all(s, IsValidBase64CChar) }
func IsValidHex(s []byte) bool     { return all(s, IsValidHexChar) }
func IsValidDigit(s []byte) bool   { return all(s, IsValidDigitChar) }
func IsValidBase32(s []byte) bool  { return all(s, IsValidBase32Char) }
func IsValidItoa32(s []byte) bool  { return all(s, IsValidItoa32Char) }

// Validator returns the strict string check matching a, so callers can
// reject symbols the lenient decoders would silently map to zero.
func Validator(a Alphabet) func([]byte) bool {
	switch a {
	case Base64, Lotus64:
		return IsValidBase64A
	case Base64URL:
		return IsValidBase64C
	case Itoa64, Bcrypt64:
		return IsValidBase64B
	case Base32:
		return IsValidBase32
	case Itoa32:
		return IsValidItoa32
	}
	return func(s []byte) bool {
		return all(s, func(c byte) bool {
			return c == Pad || a.ToSymbol(a.FromSymbol(c)) == c
		})
	}
}
