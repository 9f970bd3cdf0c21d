package machine

import "testing"

func TestEqualitySymmetry(t *testing.T) {
	pairs := [][2]Value{
		{Int(1), Int(1)},
		{Int(1), Int(2)},
		{Float(1.5), Float(1.5)},
		{NewStringFromString("abc"), NewStringFromString("abc")},
		{NewStringFromString("abc"), NewStringFromString("xyz")},
	}
	for _, p := range pairs {
		ab, errAB := equal(p[0], p[1])
		ba, errBA := equal(p[1], p[0])
		if (errAB == nil) != (errBA == nil) {
			t.Errorf("equal(%v,%v) error asymmetry: %v vs %v", p[0], p[1], errAB, errBA)
			continue
		}
		if errAB == nil && ab != ba {
			t.Errorf("equal(%v,%v)=%v but equal(%v,%v)=%v", p[0], p[1], ab, p[1], p[0], ba)
		}
	}
}

// TestEqualityOfUncomparableTypesIsFatal covers the pairings excluded from
// TestEqualitySymmetry above: spec.md §4.3 makes every non-int/float/string
// pairing fatal, including two Special/Nil operands and a type mismatch,
// and the fatal-ness itself must be symmetric.
func TestEqualityOfUncomparableTypesIsFatal(t *testing.T) {
	pairs := [][2]Value{
		{Nil, Nil},
		{Int(1), Nil},
	}
	for _, p := range pairs {
		_, errAB := equal(p[0], p[1])
		_, errBA := equal(p[1], p[0])
		if errAB == nil || errBA == nil {
			t.Errorf("equal(%v,%v) = (_, %v), equal(%v,%v) = (_, %v); want both fatal", p[0], p[1], errAB, p[1], p[0], errBA)
			continue
		}
		if fe, ok := errAB.(*FatalError); !ok || fe.Category != ErrComparison {
			t.Errorf("equal(%v,%v) error = %v, want a ErrComparison FatalError", p[0], p[1], errAB)
		}
	}
}

func TestCompareStringEqualityByContentNotIdentity(t *testing.T) {
	a := NewStringFromString("same")
	b := NewStringFromString("same")
	if a == b {
		t.Fatal("test setup invalid: strings share identity")
	}
	got, err := compare(ComparatorEqual, a, b)
	if err != nil {
		t.Fatal(err)
	}
	if got != Int(1) {
		t.Errorf("compare(equal, distinct-but-equal strings) = %v, want 1", got)
	}
}

func TestCompareAndOr(t *testing.T) {
	cases := []struct {
		cmp  Comparator
		a, b Int
		want Int
	}{
		{ComparatorAnd, 1, 1, 1},
		{ComparatorAnd, 1, 0, 0},
		{ComparatorOr, 0, 0, 0},
		{ComparatorOr, 0, 1, 1},
	}
	for _, c := range cases {
		got, err := compare(c.cmp, c.a, c.b)
		if err != nil {
			t.Fatal(err)
		}
		if got != c.want {
			t.Errorf("compare(%v, %v, %v) = %v, want %v", c.cmp, c.a, c.b, got, c.want)
		}
	}
}

func TestCompareUnknownComparatorIsFatal(t *testing.T) {
	_, err := compare(Comparator(99), Int(1), Int(1))
	if err == nil {
		t.Fatal("expected a fatal error for an unknown comparator")
	}
	fe, ok := err.(*FatalError)
	if !ok || fe.Category != ErrComparison {
		t.Errorf("got %v, want a comparison FatalError", err)
	}
}
