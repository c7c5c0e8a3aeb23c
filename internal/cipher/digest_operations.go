package cipher

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/crypto/bcrypt"
	"lukechampine.com/blake3"

	"github.com/RowanDark/hexkit/internal/codec"
)

// Gzip Compression Operations

// GzipCompressOp compresses data using gzip. The optional level parameter
// takes the gzip levels -2..9.
type GzipCompressOp struct {
	BaseOperation
}

func (op *GzipCompressOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	level, err := intParam(params, "level", gzip.DefaultCompression)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("gzip writer failed: %w", err)
	}

	if _, err := writer.Write(input); err != nil {
		return nil, fmt.Errorf("gzip write failed: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("gzip close failed: %w", err)
	}

	return buf.Bytes(), nil
}

// DefaultMaxDecompressedSize bounds gzip_decompress output when no max_size
// parameter is given.
const DefaultMaxDecompressedSize = 64 << 20

// GzipDecompressOp decompresses gzip data. Output longer than the max_size
// parameter fails with ErrOutputTooLarge.
type GzipDecompressOp struct {
	BaseOperation
}

func (op *GzipDecompressOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	limit, err := intParam(params, "max_size", DefaultMaxDecompressedSize)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > DefaultMaxDecompressedSize {
		return nil, fmt.Errorf("max_size %d outside 1..%d", limit, DefaultMaxDecompressedSize)
	}

	reader, err := gzip.NewReader(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("gzip reader failed: %w", err)
	}
	defer reader.Close()

	output, err := io.ReadAll(io.LimitReader(reader, int64(limit)+1))
	if err != nil {
		return nil, fmt.Errorf("gzip read failed: %w", err)
	}
	if len(output) > limit {
		return nil, fmt.Errorf("%w: gzip output exceeds %d bytes", ErrOutputTooLarge, limit)
	}

	return output, nil
}

// Hash Operations

// DigestOp computes a fixed digest and renders it as lowercase hex.
type DigestOp struct {
	BaseOperation
	Sum func([]byte) []byte
}

func (op *DigestOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	sum := op.Sum(input)
	out := make([]byte, 2*len(sum))
	codec.HexEncode(out, sum)
	return out, nil
}

// DefaultMaxBcryptCost caps the cost parameter of the registered bcrypt_hash.
const DefaultMaxBcryptCost = 14

// BcryptHashOp hashes input with bcrypt. The cost parameter defaults to
// bcrypt.DefaultCost and may not exceed MaxCost (DefaultMaxBcryptCost when
// zero). The output is a modular crypt string whose salt and digest use the
// bcrypt64 alphabet.
type BcryptHashOp struct {
	BaseOperation
	MaxCost int
}

func (op *BcryptHashOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	cost, err := intParam(params, "cost", bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	maxCost := op.MaxCost
	if maxCost == 0 {
		maxCost = DefaultMaxBcryptCost
	}
	if cost < bcrypt.MinCost || cost > maxCost {
		return nil, fmt.Errorf("bcrypt cost %d outside %d..%d", cost, bcrypt.MinCost, maxCost)
	}

	hash, err := bcrypt.GenerateFromPassword(input, cost)
	if err != nil {
		return nil, fmt.Errorf("bcrypt failed: %w", err)
	}
	return hash, nil
}

func hashOp(name, desc string, sum func([]byte) []byte) *DigestOp {
	return &DigestOp{
		BaseOperation: BaseOperation{
			NameValue:        name,
			TypeValue:        OperationTypeHash,
			DescriptionValue: desc,
		},
		Sum: sum,
	}
}

// init registers compression and hash operations
func init() {
	gzipCompress := &GzipCompressOp{
		BaseOperation: BaseOperation{
			NameValue:        "gzip_compress",
			TypeValue:        OperationTypeCompress,
			DescriptionValue: "Compress data using gzip",
		},
	}
	gzipDecompress := &GzipDecompressOp{
		BaseOperation: BaseOperation{
			NameValue:        "gzip_decompress",
			TypeValue:        OperationTypeDecompress,
			DescriptionValue: "Decompress gzip data",
		},
	}
	gzipCompress.ReverseOp = gzipDecompress
	gzipDecompress.ReverseOp = gzipCompress

	// Hash operations are not reversible
	Default.mustRegister(
		gzipCompress,
		gzipDecompress,
		hashOp("md5_hash", "Compute MD5 hash", func(b []byte) []byte { s := md5.Sum(b); return s[:] }),
		hashOp("sha1_hash", "Compute SHA-1 hash", func(b []byte) []byte { s := sha1.Sum(b); return s[:] }),
		hashOp("sha256_hash", "Compute SHA-256 hash", func(b []byte) []byte { s := sha256.Sum256(b); return s[:] }),
		hashOp("sha512_hash", "Compute SHA-512 hash", func(b []byte) []byte { s := sha512.Sum512(b); return s[:] }),
		hashOp("blake3_hash", "Compute BLAKE3-256 hash", func(b []byte) []byte { s := blake3.Sum256(b); return s[:] }),
		&BcryptHashOp{
			BaseOperation: BaseOperation{
				NameValue:        "bcrypt_hash",
				TypeValue:        OperationTypeHash,
				DescriptionValue: "Hash with bcrypt (cost parameter)",
			},
		},
	)
}
