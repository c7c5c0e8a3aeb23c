package hexify

// Policy bundles the caller-supplied values the escaping decision depends on.
// The zero value is not useful; start from DefaultPolicy.
type Policy struct {
	// Separator is the field delimiter that must never appear unescaped.
	Separator byte
	// ASCIIOnly selects printable ASCII instead of printable UTF-8.
	ASCIIOnly bool
	// MaxFieldLen caps the raw bytes carried by one envelope.
	MaxFieldLen int
}

// DefaultPolicy uses ':' as the separator, UTF-8 printability and
// DefaultMaxFieldLen.
func DefaultPolicy() Policy {
	return Policy{Separator: ':', MaxFieldLen: DefaultMaxFieldLen}
}

// Check evaluates buf under the policy.
func (p Policy) Check(buf []byte) Verdict {
	return Check(buf, p.Separator, p.ASCIIOnly)
}

// Needs reports whether buf must be escaped under the policy.
func (p Policy) Needs(buf []byte) bool {
	return p.Check(buf).Needed()
}

// Escape returns the envelope for buf regardless of whether it is needed.
func (p Policy) Escape(buf []byte) []byte {
	out := make([]byte, EscapedLen(len(buf), p.MaxFieldLen))
	n := Escape(out, buf, p.MaxFieldLen)
	return out[:n]
}

// Render returns buf unchanged when it can travel as text and its envelope
// otherwise.
func (p Policy) Render(buf []byte) []byte {
	if !p.Needs(buf) {
		return buf
	}
	return p.Escape(buf)
}

// Parse reverses Render: envelopes are decoded, anything else is returned
// unchanged.
func (p Policy) Parse(buf []byte) []byte {
	if !IsHexify(buf) {
		return buf
	}
	out := make([]byte, UnescapedLen(len(buf)))
	n := Unescape(out, buf)
	return out[:n]
}
