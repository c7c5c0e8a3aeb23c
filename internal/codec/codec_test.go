package codec

import (
	"bytes"
	"encoding/base32"
	"encoding/base64"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allAlphabets = []Alphabet{Base64, Base64URL, Base32, Itoa32, Itoa64, Bcrypt64, Lotus64}

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	r := rand.New(rand.NewSource(int64(n) + 42))
	b := make([]byte, n)
	_, err := r.Read(b)
	require.NoError(t, err)
	return b
}

func encode(a Alphabet, src []byte) []byte {
	dst := make([]byte, EncodedLen(a, len(src)))
	n := Encode(a, dst, src)
	return dst[:n]
}

func decode(a Alphabet, src []byte) []byte {
	dst := make([]byte, DecodedLen(len(src)))
	n := Decode(a, dst, src)
	return dst[:n]
}

func TestAlphabetInverse(t *testing.T) {
	for _, a := range allAlphabets {
		t.Run(a.(*table).String(), func(t *testing.T) {
			size := 1 << a.Bits()
			seen := map[byte]bool{}
			for i := 0; i < size; i++ {
				sym := a.ToSymbol(byte(i))
				assert.False(t, seen[sym], "duplicate symbol %q", sym)
				seen[sym] = true
				assert.Equal(t, byte(i), a.FromSymbol(sym))
			}
		})
	}
}

func TestFromSymbolUnknownIsZero(t *testing.T) {
	for _, a := range allAlphabets {
		for _, c := range []byte{0x00, '!', '=', 0x80, 0xff} {
			assert.Equal(t, byte(0), a.FromSymbol(c), "%s %q", a, c)
		}
	}
}

func TestToSymbolMasksIndex(t *testing.T) {
	assert.Equal(t, Base64.ToSymbol(0), Base64.ToSymbol(64))
	assert.Equal(t, Base32.ToSymbol(1), Base32.ToSymbol(33))
}

func TestRoundTrip(t *testing.T) {
	for _, a := range allAlphabets {
		for _, n := range []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 100} {
			src := randomBytes(t, n)
			enc := encode(a, src)
			assert.Len(t, enc, EncodedLen(a, n))
			assert.Equal(t, src, decode(a, enc), "%s len=%d", a, n)
		}
	}
}

func TestEncodeMatchesStdlib(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 100} {
		src := randomBytes(t, n)
		assert.Equal(t, base64.StdEncoding.EncodeToString(src), string(encode(Base64, src)))
		assert.Equal(t, base64.URLEncoding.EncodeToString(src), string(encode(Base64URL, src)))
		assert.Equal(t, base32.StdEncoding.EncodeToString(src), string(encode(Base32, src)))
	}
}

func TestBase64Padding(t *testing.T) {
	assert.Equal(t, "QQ==", string(encode(Base64, []byte{0x41})))
	assert.Equal(t, "QUI=", string(encode(Base64, []byte("AB"))))
	assert.Equal(t, "QUJD", string(encode(Base64, []byte("ABC"))))
}

func TestBase32Padding(t *testing.T) {
	out := encode(Base32, []byte{0x41})
	require.Len(t, out, 8)
	assert.Equal(t, "IE======", string(out))
	assert.Equal(t, 6, bytes.Count(out, []byte{Pad}))
}

func TestDecodeSilentFallback(t *testing.T) {
	dst := make([]byte, 4)
	n := DecodeBase64(Base64, dst, []byte("!!!!"))
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{0, 0, 0}, dst[:n])
}

func TestDecodeEarlyPadTruncates(t *testing.T) {
	dst := make([]byte, 8)
	n := DecodeBase64(Base64, dst, []byte("QQ==QUJD"))
	assert.Equal(t, 1, n)
	assert.Equal(t, byte('A'), dst[0])
}

func TestDecodeShortInputFitsInputSizedBuffer(t *testing.T) {
	for _, a := range allAlphabets {
		for _, in := range []string{"", "Q", "QU", "ab=", "x"} {
			dst := make([]byte, len(in))
			assert.NotPanics(t, func() {
				n := Decode(a, dst, []byte(in))
				assert.LessOrEqual(t, n, len(in))
			})
		}
	}
}

func TestDecodeIgnoresHighBit(t *testing.T) {
	// 0xC1 & 0x7f == 'A'
	a := decode(Base64, []byte{0xc1, 'Q', '=', '='})
	b := decode(Base64, []byte("AQ=="))
	assert.Equal(t, b, a)
}

func TestLookup(t *testing.T) {
	a, ok := Lookup(" Base64URL ")
	require.True(t, ok)
	assert.Equal(t, Base64URL, a)

	_, ok = Lookup("base58")
	assert.False(t, ok)

	assert.Equal(t, []string{"base32", "base64", "base64url", "bcrypt64", "itoa32", "itoa64", "lotus64"}, Names())

	b, ok := ForKind(KindLotus64)
	require.True(t, ok)
	assert.Equal(t, "lotus64", b.(*table).Kind().String())
}

func TestSymbolOrders(t *testing.T) {
	assert.Equal(t, byte('.'), Itoa64.ToSymbol(0))
	assert.Equal(t, byte('0'), Itoa64.ToSymbol(2))
	assert.Equal(t, byte('A'), Bcrypt64.ToSymbol(2))
	assert.Equal(t, byte('9'), Bcrypt64.ToSymbol(63))
	assert.Equal(t, byte('0'), Lotus64.ToSymbol(0))
	assert.Equal(t, byte('/'), Lotus64.ToSymbol(63))
	assert.Equal(t, byte('v'), Itoa32.ToSymbol(31))
}
