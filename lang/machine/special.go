package machine

// Special is the unit/null singleton value (spec.md §3.1 "a single singleton
// denoting null/unit"). It is represented as a distinct zero-size type
// rather than a numeric constant so that Nil may be a typed constant, the
// same trick the teacher repo uses for its own nil value.
type Special struct{}

// Nil is the sole Special value, pushed by the Special opcode.
var Nil = Special{}

var _ Value = Nil

func (Special) String() string { return "special" }
func (Special) Type() string   { return "special" }
