package hexify

import (
	"bytes"

	"github.com/RowanDark/hexkit/internal/codec"
)

const (
	Prefix = "$HEX["
	Suffix = "]"

	// MinEnvelopeLen is the length of the empty envelope "$HEX[]".
	MinEnvelopeLen = len(Prefix) + len(Suffix)

	// DefaultMaxFieldLen bounds the number of raw bytes an envelope carries.
	DefaultMaxFieldLen = 256
)

// IsHexify reports whether buf is syntactically an escape envelope: at least
// MinEnvelopeLen bytes, even length, the $HEX[ prefix, the ] suffix and only
// hex digits in between.
func IsHexify(buf []byte) bool {
	if len(buf) < MinEnvelopeLen {
		return false
	}
	// The prefix and suffix together are even, so the digits are even only
	// when the whole buffer is.
	if len(buf)&1 == 1 {
		return false
	}
	if !bytes.HasPrefix(buf, []byte(Prefix)) || buf[len(buf)-1] != Suffix[0] {
		return false
	}
	return codec.IsValidHex(buf[len(Prefix) : len(buf)-len(Suffix)])
}

// MatchesSeparator reports whether sep occurs anywhere in buf.
func MatchesSeparator(buf []byte, sep byte) bool {
	return bytes.IndexByte(buf, sep) >= 0
}

// NeedsEscaping reports whether buf must be written as an envelope: it is
// not printable (ASCII or UTF-8 depending on asciiOnly), it contains sep, or
// it already looks like an envelope.
func NeedsEscaping(buf []byte, sep byte, asciiOnly bool) bool {
	return Check(buf, sep, asciiOnly).Needed()
}

// Verdict records the independent facts behind an escaping decision.
type Verdict struct {
	Unprintable  bool `json:"unprintable"`
	HasSeparator bool `json:"has_separator"`
	LooksEscaped bool `json:"looks_escaped"`
}

// Needed is the logical OR of the verdict's facts.
func (v Verdict) Needed() bool {
	return v.Unprintable || v.HasSeparator || v.LooksEscaped
}

// Check evaluates all three escaping predicates without short-circuiting.
func Check(buf []byte, sep byte, asciiOnly bool) Verdict {
	var printable bool
	if asciiOnly {
		printable = IsPrintableASCII(buf)
	} else {
		printable = IsPrintableUTF8(buf)
	}
	return Verdict{
		Unprintable:  !printable,
		HasSeparator: MatchesSeparator(buf, sep),
		LooksEscaped: IsHexify(buf),
	}
}

func capLen(n, maxLen int) int {
	if maxLen <= 0 {
		maxLen = DefaultMaxFieldLen
	}
	return min(n, maxLen)
}

// EscapedLen returns the envelope size for n raw bytes capped at maxLen.
// A maxLen of zero or less selects DefaultMaxFieldLen.
func EscapedLen(n, maxLen int) int {
	return MinEnvelopeLen + 2*capLen(n, maxLen)
}

// Escape writes the envelope for src into dst, which must hold
// EscapedLen(len(src), maxLen) bytes. Input beyond maxLen is dropped.
func Escape(dst, src []byte, maxLen int) int {
	n := capLen(len(src), maxLen)
	o := copy(dst, Prefix)
	o += codec.HexEncode(dst[o:], src[:n])
	o += copy(dst[o:], Suffix)
	return o
}

// UnescapedLen returns the number of raw bytes an envelope of n bytes
// decodes to.
func UnescapedLen(n int) int {
	if n < MinEnvelopeLen {
		return 0
	}
	return (n - MinEnvelopeLen + 1) / 2
}

// Unescape decodes the digits between the prefix and suffix of envelope into
// dst and zero-fills the rest of dst. The envelope is not validated; callers
// check it with IsHexify.
func Unescape(dst, envelope []byte) int {
	i := 0
	for j := len(Prefix); j < len(envelope)-len(Suffix); j += 2 {
		dst[i] = codec.HexToU8(envelope[j:])
		i++
	}
	clear(dst[i:])
	return i
}
