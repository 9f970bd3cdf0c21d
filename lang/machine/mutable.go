package machine

// Mutable is a heap-allocated single-value box, the only in-place update
// target Plume exposes (spec.md §3.1: "Mutable cells are the only in-place
// update target"). It corresponds to the reference implementation's
// TYPE_MUTABLE heap box of length 1, and is adapted from the teacher
// repo's `cell` type, which plays the same role for closed-over locals.
type Mutable struct {
	v Value
}

var _ Value = (*Mutable)(nil)

// NewMutable allocates a new cell holding v (the MakeMutable opcode).
func NewMutable(v Value) *Mutable {
	return &Mutable{v: v}
}

func (m *Mutable) String() string { return "mutable(" + m.v.String() + ")" }
func (m *Mutable) Type() string   { return "mutable" }

// Get returns the cell's current content (the Unmut opcode).
func (m *Mutable) Get() Value { return m.v }

// Set replaces the cell's content in place (the Update opcode). This is the
// only mutation any heap value ever undergoes after construction.
func (m *Mutable) Set(v Value) { m.v = v }
