package machine

import "strconv"

// String is an immutable heap-allocated string (spec.md §3.1: "Strings are
// immutable"). It is one of the four heap-box kinds; unlike the reference
// NaN-boxed encoding, which stores a *HeapValue pointer behind a generic
// signature, here it is simply its own Go type, addressed through the
// Value interface.
type String struct {
	bytes []byte
}

var _ Value = (*String)(nil)

// NewString returns a new immutable String wrapping a copy of b.
func NewString(b []byte) *String {
	cp := make([]byte, len(b))
	copy(cp, b)
	return &String{bytes: cp}
}

// NewStringFromString is a convenience constructor for Go string literals
// and constant-pool values.
func NewStringFromString(s string) *String {
	return &String{bytes: []byte(s)}
}

func (s *String) String() string { return strconv.Quote(string(s.bytes)) }
func (s *String) Type() string   { return "string" }

// Len returns the number of bytes in the string.
func (s *String) Len() int { return len(s.bytes) }

// Bytes returns the string's content. Callers must not modify the returned
// slice; strings are immutable.
func (s *String) Bytes() []byte { return s.bytes }

// GoString returns the Go string representation of the content, for native
// functions that need to interoperate with Go string APIs.
func (s *String) GoString() string { return string(s.bytes) }

// equal implements the length-then-content comparison rule spec.md §4.3
// mandates for string equality, rather than relying on byte-slice identity.
func (s *String) equal(o *String) bool {
	if s == o {
		return true
	}
	if len(s.bytes) != len(o.bytes) {
		return false
	}
	for i, b := range s.bytes {
		if o.bytes[i] != b {
			return false
		}
	}
	return true
}
