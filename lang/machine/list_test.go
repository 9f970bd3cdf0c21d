package machine

import "testing"

func TestListSliceLaw(t *testing.T) {
	l := NewList([]Value{Int(1), Int(2), Int(3), Int(4)})
	for k := 0; k <= l.Len(); k++ {
		sliced, err := l.Slice(k)
		if err != nil {
			t.Fatalf("Slice(%d): %s", k, err)
		}
		if sliced.Len() != l.Len()-k {
			t.Errorf("Slice(%d).Len() = %d, want %d", k, sliced.Len(), l.Len()-k)
		}
		for i := 0; i < sliced.Len(); i++ {
			got, _ := sliced.Index(i)
			want, _ := l.Index(k + i)
			if got != want {
				t.Errorf("Slice(%d)[%d] = %v, want %v", k, i, got, want)
			}
		}
	}
}

func TestListIndexOutOfBounds(t *testing.T) {
	l := NewList([]Value{Int(1)})
	if _, err := l.Index(1); err == nil {
		t.Fatal("expected an index error")
	}
	if _, err := l.Index(-1); err == nil {
		t.Fatal("expected an index error for a negative index")
	}
}

func TestListSliceOutOfBounds(t *testing.T) {
	l := NewList([]Value{Int(1)})
	if _, err := l.Slice(2); err == nil {
		t.Fatal("expected an index error")
	}
}

func TestMutableRoundTrip(t *testing.T) {
	v := Int(7)
	cell := NewMutable(v)
	if got := cell.Get(); got != v {
		t.Errorf("Get() = %v, want %v", got, v)
	}
	u := Int(9)
	cell.Set(u)
	if got := cell.Get(); got != u {
		t.Errorf("after Set(%v), Get() = %v", u, got)
	}
}
