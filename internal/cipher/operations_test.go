package cipher

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"lukechampine.com/blake3"
)

func execute(t *testing.T, name string, input []byte, params map[string]interface{}) []byte {
	t.Helper()
	out, err := Default.Execute(context.Background(), name, input, params)
	require.NoError(t, err, name)
	return out
}

func TestBase64Operations(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple text", "Hello, World!", "SGVsbG8sIFdvcmxkIQ=="},
		{"special chars", "Test@123!#$", "VGVzdEAxMjMhIyQ="},
		{"empty string", "", ""},
		{"unicode", "Hello 世界", "SGVsbG8g5LiW55WM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := execute(t, "base64_encode", []byte(tt.input), nil)
			assert.Equal(t, tt.expected, string(encoded))

			decoded := execute(t, "base64_decode", encoded, map[string]interface{}{"strict": true})
			assert.Equal(t, tt.input, string(decoded))
		})
	}
}

func TestAlphabetRoundTrips(t *testing.T) {
	input := []byte("\x00\x01binary\xff\xfe payload")
	for _, name := range []string{"base64", "base64url", "base32", "itoa32", "itoa64", "bcrypt64", "lotus64"} {
		t.Run(name, func(t *testing.T) {
			encoded := execute(t, name+"_encode", input, nil)
			decoded := execute(t, name+"_decode", encoded, map[string]interface{}{"strict": true})
			assert.Equal(t, input, decoded)
		})
	}
}

func TestDecodeStrictness(t *testing.T) {
	ctx := context.Background()

	lenient := execute(t, "itoa64_decode", []byte("!!!!"), nil)
	assert.Equal(t, []byte{0, 0, 0}, lenient)

	_, err := Default.Execute(ctx, "itoa64_decode", []byte("!!!!"), map[string]interface{}{"strict": true})
	assert.ErrorIs(t, err, ErrInvalidSymbol)

	_, err = Default.Execute(ctx, "base32_decode", []byte("mzxw6==="), map[string]interface{}{"strict": "true"})
	assert.ErrorIs(t, err, ErrInvalidSymbol, "base32 is upper case only")

	_, err = Default.Execute(ctx, "base64_decode", []byte("QQ=="), map[string]interface{}{"strict": 3})
	assert.Error(t, err, "non-boolean strict")
}

func TestBcrypt64MatchesBcryptSalt(t *testing.T) {
	hash := execute(t, "bcrypt_hash", []byte("hunter2"), map[string]interface{}{"cost": float64(bcrypt.MinCost)})
	require.NoError(t, bcrypt.CompareHashAndPassword(hash, []byte("hunter2")))

	// $2a$04$ followed by 22 salt symbols and 31 digest symbols
	require.Len(t, hash, 60)
	salt := hash[7:29]

	raw := execute(t, "bcrypt64_decode", salt, map[string]interface{}{"strict": true})
	require.Len(t, raw, 16)

	again := execute(t, "bcrypt64_encode", raw, nil)
	assert.Equal(t, string(salt), string(again[:22]))
	assert.Equal(t, "==", string(again[22:]))
}

func TestBcryptCostBounds(t *testing.T) {
	ctx := context.Background()
	for _, cost := range []interface{}{3, DefaultMaxBcryptCost + 1, bcrypt.MaxCost, "31"} {
		_, err := Default.Execute(ctx, "bcrypt_hash", []byte("x"), map[string]interface{}{"cost": cost})
		assert.Error(t, err, cost)
	}

	op := &BcryptHashOp{MaxCost: bcrypt.MinCost}
	_, err := op.Execute(ctx, []byte("x"), map[string]interface{}{"cost": bcrypt.MinCost + 1})
	assert.ErrorContains(t, err, "outside 4..4")
}

func TestHexOperations(t *testing.T) {
	assert.Equal(t, "48656c6c6f", string(execute(t, "hex_encode", []byte("Hello"), nil)))

	tests := []struct {
		input    string
		expected []byte
	}{
		{"deadbeef", []byte{0xde, 0xad, 0xbe, 0xef}},
		{"0xDEADBEEF", []byte{0xde, 0xad, 0xbe, 0xef}},
		{"\\x4142", []byte("AB")},
		{"de:ad be-ef", []byte{0xde, 0xad, 0xbe, 0xef}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, execute(t, "hex_decode", []byte(tt.input), map[string]interface{}{"strict": true}))
		})
	}

	ctx := context.Background()
	_, err := Default.Execute(ctx, "hex_decode", []byte("zz"), map[string]interface{}{"strict": true})
	assert.ErrorIs(t, err, ErrInvalidSymbol)
	_, err = Default.Execute(ctx, "hex_decode", []byte("abc"), map[string]interface{}{"strict": true})
	assert.ErrorIs(t, err, ErrInvalidSymbol)
	assert.Equal(t, []byte{0xab}, execute(t, "hex_decode", []byte("abc"), nil))
}

func TestHexifyOperation(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		params   map[string]interface{}
		expected string
	}{
		{"printable", "hello", nil, "hello"},
		{"separator", "a:b", nil, "$HEX[613a62]"},
		{"forced", "hello", map[string]interface{}{"force": true}, "$HEX[68656c6c6f]"},
		{"other separator", "a:b", map[string]interface{}{"separator": "|"}, "a:b"},
		{"utf8 allowed", "grüße", nil, "grüße"},
		{"ascii only", "é", map[string]interface{}{"ascii_only": true}, "$HEX[c3a9]"},
		{"truncated", "abcd", map[string]interface{}{"force": true, "max_len": float64(2)}, "$HEX[6162]"},
		{"already escaped", "$HEX[41]", nil, "$HEX[244845585b34315d]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(execute(t, "hexify", []byte(tt.input), tt.params)))
		})
	}

	ctx := context.Background()
	_, err := Default.Execute(ctx, "hexify", []byte("x"), map[string]interface{}{"separator": ""})
	assert.Error(t, err)
	_, err = Default.Execute(ctx, "hexify", []byte("x"), map[string]interface{}{"max_len": "many"})
	assert.Error(t, err)
}

func TestUnhexifyOperation(t *testing.T) {
	assert.Equal(t, "A", string(execute(t, "unhexify", []byte("$HEX[41]"), nil)))
	assert.Equal(t, "plain", string(execute(t, "unhexify", []byte("plain"), nil)))

	_, err := Default.Execute(context.Background(), "unhexify", []byte("plain"), map[string]interface{}{"strict": true})
	assert.ErrorIs(t, err, ErrInvalidSymbol)
}

func TestCaseOperations(t *testing.T) {
	input := []byte("HeLLo Äb")
	assert.Equal(t, "hello Äb", string(execute(t, "lowercase", input, nil)))
	assert.Equal(t, "HELLO ÄB", string(execute(t, "uppercase", input, nil)))
	assert.Equal(t, "HeLLo Äb", string(input), "input must not be modified")
}

func TestGzipOperations(t *testing.T) {
	input := []byte("compress me compress me compress me")
	for _, level := range []interface{}{nil, 1, float64(9)} {
		compressed := execute(t, "gzip_compress", input, map[string]interface{}{"level": level})
		assert.Equal(t, []byte{0x1f, 0x8b}, compressed[:2])
		assert.Equal(t, input, execute(t, "gzip_decompress", compressed, nil))
	}

	ctx := context.Background()
	_, err := Default.Execute(ctx, "gzip_compress", input, map[string]interface{}{"level": 42})
	assert.Error(t, err)
	_, err = Default.Execute(ctx, "gzip_decompress", []byte("not gzip"), nil)
	assert.Error(t, err)
}

func TestGzipDecompressLimit(t *testing.T) {
	ctx := context.Background()
	bomb := execute(t, "gzip_compress", make([]byte, DefaultMaxDecompressedSize+1), map[string]interface{}{"level": 9})
	require.Less(t, len(bomb), 1<<20)

	_, err := Default.Execute(ctx, "gzip_decompress", bomb, nil)
	assert.ErrorIs(t, err, ErrOutputTooLarge)

	small := execute(t, "gzip_compress", []byte("0123456789"), nil)
	_, err = Default.Execute(ctx, "gzip_decompress", small, map[string]interface{}{"max_size": 9})
	assert.ErrorIs(t, err, ErrOutputTooLarge)
	assert.Equal(t, "0123456789", string(execute(t, "gzip_decompress", small, map[string]interface{}{"max_size": float64(10)})))

	for _, size := range []interface{}{0, -1, DefaultMaxDecompressedSize + 1} {
		_, err = Default.Execute(ctx, "gzip_decompress", small, map[string]interface{}{"max_size": size})
		assert.Error(t, err, size)
		assert.NotErrorIs(t, err, ErrOutputTooLarge)
	}
}

func TestHashOperations(t *testing.T) {
	input := []byte("abc")
	sha := sha512.Sum512(input)
	b3 := blake3.Sum256(input)

	tests := []struct {
		op       string
		expected string
	}{
		{"md5_hash", "900150983cd24fb0d6963f7d28e17f72"},
		{"sha1_hash", "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{"sha256_hash", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"sha512_hash", hex.EncodeToString(sha[:])},
		{"blake3_hash", hex.EncodeToString(b3[:])},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(execute(t, tt.op, input, nil)))
			op, _ := GetOperation(tt.op)
			_, reversible := op.Reverse()
			assert.False(t, reversible)
		})
	}
}

func TestOperationReversibility(t *testing.T) {
	pairs := [][2]string{
		{"base64_encode", "base64_decode"},
		{"base32_encode", "base32_decode"},
		{"bcrypt64_encode", "bcrypt64_decode"},
		{"hex_encode", "hex_decode"},
		{"hexify", "unhexify"},
		{"gzip_compress", "gzip_decompress"},
	}
	for _, p := range pairs {
		op, ok := GetOperation(p[0])
		require.True(t, ok, p[0])
		rev, ok := op.Reverse()
		require.True(t, ok, p[0])
		assert.Equal(t, p[1], rev.Name())

		back, _ := rev.Reverse()
		assert.Equal(t, p[0], back.Name())
	}
}
