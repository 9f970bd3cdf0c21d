package machine

import "testing"

func TestCallStackPushPopPeek(t *testing.T) {
	c := newCallStack()
	fr := Frame{ReturnIP: 10, SavedSP: 1, SavedBP: 2, LocalsSlotCount: 3}
	if err := c.push(fr); err != nil {
		t.Fatal(err)
	}
	if got := c.peek(); got != fr {
		t.Errorf("peek() = %+v, want %+v", got, fr)
	}
	if c.len() != 1 {
		t.Errorf("len() = %d, want 1", c.len())
	}
	popped := c.pop()
	if popped != fr {
		t.Errorf("pop() = %+v, want %+v", popped, fr)
	}
	if c.len() != 0 {
		t.Errorf("len() = %d, want 0", c.len())
	}
}

func TestCallStackOverflow(t *testing.T) {
	c := newCallStack()
	for i := 0; i < maxFrames; i++ {
		if err := c.push(Frame{}); err != nil {
			t.Fatalf("unexpected error pushing frame %d: %s", i, err)
		}
	}
	if err := c.push(Frame{}); err == nil {
		t.Fatal("expected stack overflow pushing beyond maxFrames")
	}
}
