package cipher

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/RowanDark/hexkit/internal/codec"
	"github.com/RowanDark/hexkit/internal/hexify"
)

// Alphabet Operations

// AlphabetEncodeOp encodes data with one of the bit-packing alphabets
type AlphabetEncodeOp struct {
	BaseOperation
	Alphabet codec.Alphabet
}

func (op *AlphabetEncodeOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	out := make([]byte, codec.EncodedLen(op.Alphabet, len(input)))
	n := codec.Encode(op.Alphabet, out, input)
	return out[:n], nil
}

// AlphabetDecodeOp decodes data produced by AlphabetEncodeOp. Unknown symbols
// decode as zero unless the strict parameter is set.
type AlphabetDecodeOp struct {
	BaseOperation
	Alphabet codec.Alphabet
}

func (op *AlphabetDecodeOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	strict, err := boolParam(params, "strict")
	if err != nil {
		return nil, err
	}

	in := bytes.TrimSpace(input)
	if strict {
		if i := firstInvalid(in, codec.Validator(op.Alphabet)); i >= 0 {
			return nil, fmt.Errorf("%s: byte %#02x at offset %d: %w", op.Name(), in[i], i, ErrInvalidSymbol)
		}
	}

	out := make([]byte, codec.DecodedLen(len(in)))
	n := codec.Decode(op.Alphabet, out, in)
	return out[:n], nil
}

func firstInvalid(s []byte, valid func([]byte) bool) int {
	for i := range s {
		if !valid(s[i : i+1]) {
			return i
		}
	}
	return -1
}

// Hex Operations

// HexEncodeOp encodes bytes as a lowercase hexadecimal string
type HexEncodeOp struct {
	BaseOperation
}

func (op *HexEncodeOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	out := make([]byte, 2*len(input))
	n := codec.HexEncode(out, input)
	return out[:n], nil
}

// HexDecodeOp decodes a hexadecimal string to bytes
type HexDecodeOp struct {
	BaseOperation
}

func (op *HexDecodeOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	strict, err := boolParam(params, "strict")
	if err != nil {
		return nil, err
	}

	// Remove common prefixes and separators
	s := strings.TrimSpace(string(input))
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "\\x")
	s = strings.NewReplacer(" ", "", ":", "", "-", "").Replace(s)
	in := []byte(s)

	if strict {
		if i := firstInvalid(in, codec.IsValidHex); i >= 0 {
			return nil, fmt.Errorf("hex_decode: byte %#02x at offset %d: %w", in[i], i, ErrInvalidSymbol)
		}
		if len(in)%2 != 0 {
			return nil, fmt.Errorf("hex_decode: odd length %d: %w", len(in), ErrInvalidSymbol)
		}
	}

	out := make([]byte, len(in)/2)
	n := codec.HexDecode(out, in)
	return out[:n], nil
}

// Escaping Operations

// HexifyOp wraps input in a $HEX[...] envelope when it cannot travel as a
// plain text field.
type HexifyOp struct {
	BaseOperation
}

func (op *HexifyOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	policy, err := policyFromParams(params)
	if err != nil {
		return nil, err
	}
	force, err := boolParam(params, "force")
	if err != nil {
		return nil, err
	}

	if force {
		return policy.Escape(input), nil
	}
	return bytes.Clone(policy.Render(input)), nil
}

// UnhexifyOp unwraps a $HEX[...] envelope. Other input passes through unless
// strict is set.
type UnhexifyOp struct {
	BaseOperation
}

func (op *UnhexifyOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	strict, err := boolParam(params, "strict")
	if err != nil {
		return nil, err
	}
	if strict && !hexify.IsHexify(input) {
		return nil, fmt.Errorf("unhexify: not a %s...%s envelope: %w", hexify.Prefix, hexify.Suffix, ErrInvalidSymbol)
	}
	return bytes.Clone(hexify.DefaultPolicy().Parse(input)), nil
}

// policyFromParams builds a hexify policy from the separator, ascii_only and
// max_len parameters.
func policyFromParams(params map[string]interface{}) (hexify.Policy, error) {
	p := hexify.DefaultPolicy()

	sep, err := stringParam(params, "separator", string(p.Separator))
	if err != nil {
		return p, err
	}
	if sep == "" {
		return p, fmt.Errorf("parameter separator: must not be empty")
	}
	p.Separator = sep[0]

	if p.ASCIIOnly, err = boolParam(params, "ascii_only"); err != nil {
		return p, err
	}
	if p.MaxFieldLen, err = intParam(params, "max_len", p.MaxFieldLen); err != nil {
		return p, err
	}
	return p, nil
}

// Case Operations

// CaseOp folds ASCII letters to one case. Other bytes are left alone.
type CaseOp struct {
	BaseOperation
	Fold func([]byte)
}

func (op *CaseOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	out := bytes.Clone(input)
	op.Fold(out)
	return out, nil
}

func alphabetOps(a codec.Alphabet, label string) (*AlphabetEncodeOp, *AlphabetDecodeOp) {
	name := fmt.Sprint(a)
	enc := &AlphabetEncodeOp{
		BaseOperation: BaseOperation{
			NameValue:        name + "_encode",
			TypeValue:        OperationTypeEncode,
			DescriptionValue: "Encode data as " + label,
		},
		Alphabet: a,
	}
	dec := &AlphabetDecodeOp{
		BaseOperation: BaseOperation{
			NameValue:        name + "_decode",
			TypeValue:        OperationTypeDecode,
			DescriptionValue: "Decode " + label + " data",
		},
		Alphabet: a,
	}
	enc.ReverseOp = dec
	dec.ReverseOp = enc
	return enc, dec
}

// init registers the encoding, escaping and case operations
func init() {
	labels := []struct {
		alphabet codec.Alphabet
		label    string
	}{
		{codec.Base64, "standard Base64"},
		{codec.Base64URL, "URL-safe Base64"},
		{codec.Base32, "RFC 4648 Base32"},
		{codec.Itoa32, "itoa32 (0-9a-v)"},
		{codec.Itoa64, "crypt itoa64"},
		{codec.Bcrypt64, "bcrypt Base64"},
		{codec.Lotus64, "Lotus Notes Base64"},
	}
	for _, l := range labels {
		enc, dec := alphabetOps(l.alphabet, l.label)
		Default.mustRegister(enc, dec)
	}

	hexEncode := &HexEncodeOp{
		BaseOperation: BaseOperation{
			NameValue:        "hex_encode",
			TypeValue:        OperationTypeEncode,
			DescriptionValue: "Encode bytes as lowercase hexadecimal",
		},
	}
	hexDecode := &HexDecodeOp{
		BaseOperation: BaseOperation{
			NameValue:        "hex_decode",
			TypeValue:        OperationTypeDecode,
			DescriptionValue: "Decode hexadecimal string to bytes",
		},
	}
	hexEncode.ReverseOp = hexDecode
	hexDecode.ReverseOp = hexEncode

	hexifyOp := &HexifyOp{
		BaseOperation: BaseOperation{
			NameValue:        "hexify",
			TypeValue:        OperationTypeEscape,
			DescriptionValue: "Wrap unprintable or ambiguous input as $HEX[...]",
		},
	}
	unhexifyOp := &UnhexifyOp{
		BaseOperation: BaseOperation{
			NameValue:        "unhexify",
			TypeValue:        OperationTypeEscape,
			DescriptionValue: "Unwrap a $HEX[...] envelope",
		},
	}
	hexifyOp.ReverseOp = unhexifyOp
	unhexifyOp.ReverseOp = hexifyOp

	lower := &CaseOp{
		BaseOperation: BaseOperation{
			NameValue:        "lowercase",
			TypeValue:        OperationTypeTransform,
			DescriptionValue: "Fold ASCII letters to lowercase",
		},
		Fold: codec.Lowercase,
	}
	upper := &CaseOp{
		BaseOperation: BaseOperation{
			NameValue:        "uppercase",
			TypeValue:        OperationTypeTransform,
			DescriptionValue: "Fold ASCII letters to uppercase",
		},
		Fold: codec.Uppercase,
	}

	Default.mustRegister(hexEncode, hexDecode, hexifyOp, unhexifyOp, lower, upper)
}
