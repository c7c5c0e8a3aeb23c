package cipher

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/RowanDark/hexkit/internal/codec"
	"github.com/RowanDark/hexkit/internal/hexify"
)

// minConfidence is the cut-off below which detections are dropped.
const minConfidence = 0.3

var (
	bcryptPattern = regexp.MustCompile(`^\$2[aby]?\$[0-9]{2}\$[./A-Za-z0-9]{53}$`)
	paddedPattern = regexp.MustCompile(`^[^=]+={0,6}$`)
)

// SmartDetector implements heuristic encoding detection
type SmartDetector struct{}

// NewSmartDetector creates a new smart detector
func NewSmartDetector() *SmartDetector {
	return &SmartDetector{}
}

// Detect attempts to identify the encoding of the input. Results are sorted
// by confidence, highest first.
func (d *SmartDetector) Detect(ctx context.Context, input []byte) ([]DetectionResult, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("empty input")
	}

	in := bytes.TrimSpace(input)
	results := []DetectionResult{}
	results = append(results, d.detectHexify(in)...)
	results = append(results, d.detectBcrypt(in)...)
	results = append(results, d.detectHex(in)...)
	results = append(results, d.detectBase64(in)...)
	results = append(results, d.detectBase32(in)...)
	// Magic bytes are checked on the untrimmed input.
	results = append(results, d.detectGzip(input)...)

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})

	filtered := results[:0]
	for _, r := range results {
		if r.Confidence >= minConfidence {
			filtered = append(filtered, r)
		}
	}

	return filtered, nil
}

// SupportedEncodings returns a list of encodings this detector can identify
func (d *SmartDetector) SupportedEncodings() []string {
	return []string{
		"hexify",
		"bcrypt",
		"hex",
		"base64",
		"base64url",
		"base32",
		"gzip",
	}
}

func (d *SmartDetector) detectHexify(in []byte) []DetectionResult {
	if !hexify.IsHexify(in) {
		return nil
	}
	return []DetectionResult{{
		Encoding:   "hexify",
		Confidence: 0.99,
		Reasoning:  "Wrapped in a $HEX[...] envelope with an even number of hex digits",
		Operation:  "unhexify",
	}}
}

func (d *SmartDetector) detectBcrypt(in []byte) []DetectionResult {
	if !bcryptPattern.Match(in) {
		return nil
	}
	return []DetectionResult{{
		Encoding:   "bcrypt",
		Confidence: 0.99,
		Reasoning:  "Modular crypt string with a $2 identifier, cost and 53 bcrypt64 symbols",
	}}
}

// detectHex checks if input is hexadecimal
func (d *SmartDetector) detectHex(in []byte) []DetectionResult {
	cleaned := in
	hasPrefix := false
	if bytes.HasPrefix(cleaned, []byte("0x")) {
		cleaned = cleaned[2:]
		hasPrefix = true
	}
	for _, sep := range []string{" ", ":", "-"} {
		cleaned = bytes.ReplaceAll(cleaned, []byte(sep), nil)
	}

	if len(cleaned) == 0 || len(cleaned)%2 != 0 || !codec.IsValidHex(cleaned) {
		return nil
	}

	confidence := 0.8
	if hasPrefix {
		confidence = 0.95
	}
	// All digits could just as well be decimal
	if codec.IsValidDigit(cleaned) {
		confidence *= 0.6
	}

	return []DetectionResult{{
		Encoding:   "hex",
		Confidence: confidence,
		Reasoning:  "Matches hexadecimal pattern",
		Operation:  "hex_decode",
	}}
}

// detectBase64 checks if input is standard or URL-safe Base64
func (d *SmartDetector) detectBase64(in []byte) []DetectionResult {
	if len(in) < 4 || !paddedPattern.Match(in) || bytes.Count(in, []byte{codec.Pad}) > 2 {
		return nil
	}

	results := []DetectionResult{}
	if codec.IsValidBase64A(in) {
		confidence := 0.9
		reasoning := "Matches Base64 pattern with a whole number of groups"
		if len(in)%4 != 0 {
			confidence = 0.7
			reasoning = "Matches Base64 pattern without padding"
		}
		results = append(results, DetectionResult{
			Encoding:   "base64",
			Confidence: confidence,
			Reasoning:  reasoning,
			Operation:  "base64_decode",
		})
	}

	if codec.IsValidBase64C(in) {
		confidence := 0.6
		if bytes.ContainsAny(in, "-_") {
			confidence = 0.85
		}
		results = append(results, DetectionResult{
			Encoding:   "base64url",
			Confidence: confidence,
			Reasoning:  "Matches URL-safe Base64 pattern",
			Operation:  "base64url_decode",
		})
	}

	return results
}

// detectBase32 checks for upper-case RFC 4648 Base32 in whole groups
func (d *SmartDetector) detectBase32(in []byte) []DetectionResult {
	if len(in) < 8 || len(in)%8 != 0 || !paddedPattern.Match(in) || !codec.IsValidBase32(in) {
		return nil
	}
	return []DetectionResult{{
		Encoding:   "base32",
		Confidence: 0.75,
		Reasoning:  "Upper-case A-Z2-7 in 8-symbol groups",
		Operation:  "base32_decode",
	}}
}

// detectGzip checks if input is gzip compressed
func (d *SmartDetector) detectGzip(input []byte) []DetectionResult {
	// Gzip magic bytes: 0x1f 0x8b
	if len(input) < 2 || input[0] != 0x1f || input[1] != 0x8b {
		return nil
	}
	return []DetectionResult{{
		Encoding:   "gzip",
		Confidence: 0.99,
		Reasoning:  "Starts with gzip magic bytes (0x1f 0x8b)",
		Operation:  "gzip_decompress",
	}}
}

// DecodeResult represents the result of a decode attempt
type DecodeResult struct {
	Detection DetectionResult `json:"detection"`
	Decoded   []byte          `json:"decoded,omitempty"`
	Success   bool            `json:"success"`
	Error     string          `json:"error,omitempty"`
}

// DecodeAll runs the suggested operation of every detection against the
// default registry. Detections without an operation are skipped.
func DecodeAll(ctx context.Context, input []byte) ([]DecodeResult, error) {
	return DecodeAllWith(ctx, Default, input)
}

// DecodeAllWith is DecodeAll resolving operations in r.
func DecodeAllWith(ctx context.Context, r *Registry, input []byte) ([]DecodeResult, error) {
	detections, err := NewSmartDetector().Detect(ctx, input)
	if err != nil {
		return nil, err
	}

	results := []DecodeResult{}
	for _, detection := range detections {
		if detection.Operation == "" {
			continue
		}

		data := bytes.TrimSpace(input)
		if detection.Encoding == "gzip" {
			data = input
		}

		decoded, err := r.Execute(ctx, detection.Operation, data, map[string]interface{}{"strict": true})
		if err != nil {
			results = append(results, DecodeResult{Detection: detection, Error: err.Error()})
			continue
		}

		results = append(results, DecodeResult{
			Detection: detection,
			Decoded:   decoded,
			Success:   true,
		})
	}

	return results, nil
}
