// Package codec implements the table-driven alphabets and the generic
// bit-packing transcoders used to render binary data as text.
//
// Every function in this package is total over its input domain. Unknown
// symbols decode to index 0 and misplaced padding shortens the decoded
// length; callers that need to reject malformed input run the IsValid*
// predicates first.
package codec

import (
	"fmt"
	"sort"
	"strings"
)

// Alphabet maps small integer indices to printable symbols and back.
type Alphabet interface {
	// ToSymbol returns the symbol for index v. Bits above Bits() are ignored.
	ToSymbol(v byte) byte
	// FromSymbol returns the index of symbol c, or 0 when c is not part of
	// the alphabet.
	FromSymbol(c byte) byte
	// Bits returns the number of bits carried by one symbol (5 or 6).
	Bits() uint
}

// Kind enumerates the supported alphabets.
type Kind int

const (
	KindBase64 Kind = iota
	KindBase64URL
	KindBase32
	KindItoa32
	KindItoa64
	KindBcrypt64
	KindLotus64
)

var kindNames = map[Kind]string{
	KindBase64:    "base64",
	KindBase64URL: "base64url",
	KindBase32:    "base32",
	KindItoa32:    "itoa32",
	KindItoa64:    "itoa64",
	KindBcrypt64:  "bcrypt64",
	KindLotus64:   "lotus64",
}

// String returns the registry name of the alphabet kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// table is an immutable symbol map. Unmapped entries of dec stay zero.
type table struct {
	kind Kind
	enc  string
	bits uint
	dec  [256]byte
}

func newTable(kind Kind, symbols string) *table {
	t := &table{kind: kind, enc: symbols}
	switch len(symbols) {
	case 32:
		t.bits = 5
	case 64:
		t.bits = 6
	default:
		panic("codec: alphabet must have 32 or 64 symbols")
	}
	for i := 0; i < len(symbols); i++ {
		t.dec[symbols[i]] = byte(i)
	}
	return t
}

func (t *table) ToSymbol(v byte) byte {
	return t.enc[int(v)&(len(t.enc)-1)]
}

func (t *table) FromSymbol(c byte) byte {
	return t.dec[c]
}

func (t *table) Bits() uint {
	return t.bits
}

// Kind reports which of the built-in alphabets t is.
func (t *table) Kind() Kind {
	return t.kind
}

func (t *table) String() string {
	return t.kind.String()
}

// Built-in alphabets. The symbol order of each is fixed by the hash formats
// that use it.
var (
	Base64    Alphabet = newTable(KindBase64, "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/")
	Base64URL Alphabet = newTable(KindBase64URL, "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_")
	Base32    Alphabet = newTable(KindBase32, "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567")
	Itoa32    Alphabet = newTable(KindItoa32, "0123456789abcdefghijklmnopqrstuv")
	Itoa64    Alphabet = newTable(KindItoa64, "./0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz")
	Bcrypt64  Alphabet = newTable(KindBcrypt64, "./ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789")
	Lotus64   Alphabet = newTable(KindLotus64, "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz+/")
)

var byKind = map[Kind]Alphabet{
	KindBase64:    Base64,
	KindBase64URL: Base64URL,
	KindBase32:    Base32,
	KindItoa32:    Itoa32,
	KindItoa64:    Itoa64,
	KindBcrypt64:  Bcrypt64,
	KindLotus64:   Lotus64,
}

// ForKind returns the alphabet for k.
func ForKind(k Kind) (Alphabet, bool) {
	a, ok := byKind[k]
	return a, ok
}

// Lookup resolves an alphabet by its name, case-insensitively.
func Lookup(name string) (Alphabet, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name {
			return byKind[k], true
		}
	}
	return nil, false
}

// Names returns the sorted names of every built-in alphabet.
func Names() []string {
	out := make([]string, 0, len(kindNames))
	for _, n := range kindNames {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
