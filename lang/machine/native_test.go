package machine

import "testing"

// memLoader is an in-memory Loader for tests: libraries and their symbols
// are registered directly instead of being dlopen'd from disk.
type memLoader struct {
	libs map[string]map[string]Native
}

func newMemLoader() *memLoader {
	return &memLoader{libs: map[string]map[string]Native{}}
}

func (l *memLoader) register(lib, fn string, native Native) {
	if l.libs[lib] == nil {
		l.libs[lib] = map[string]Native{}
	}
	l.libs[lib][fn] = native
}

func (l *memLoader) Load(path string) (Handle, error) {
	if _, ok := l.libs[path]; !ok {
		return nil, newFatalError(ErrLinker, "no such library %q", path)
	}
	return path, nil
}

func (l *memLoader) Symbol(h Handle, name string) (Native, error) {
	fns := l.libs[h.(string)]
	fn, ok := fns[name]
	if !ok {
		return nil, newFatalError(ErrLinker, "no such symbol %q in %q", name, h)
	}
	return fn, nil
}

func TestResolveNativeCachesAcrossCalls(t *testing.T) {
	loader := newMemLoader()
	var calls int
	loader.register("mathlib", "double", func(argc int32, m *Module, args []Value) Value {
		calls++
		return addInt(args[0].(Int), args[0].(Int))
	})

	m := NewModule(nil, nil, loader, []int{1}, nil)
	h, err := loader.Load("mathlib")
	if err != nil {
		t.Fatal(err)
	}
	if err := m.LoadLibrary(0, h); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		fn, err := m.resolveNative(0, 0, "double")
		if err != nil {
			t.Fatal(err)
		}
		got := fn(1, m, []Value{Int(21)})
		if got != Int(42) {
			t.Errorf("call %d: got %v, want 42", i, got)
		}
	}
	if calls != 3 {
		t.Errorf("native called %d times, want 3", calls)
	}
	if _, ok := m.LookupNativeByName(0, 0, "double"); !ok {
		t.Error("expected the resolved native to be cached by name")
	}
}

func TestResolveNativeUnknownLibraryIsLinkerError(t *testing.T) {
	m := NewModule(nil, nil, newMemLoader(), []int{1}, nil)
	_, err := m.resolveNative(5, 0, "whatever")
	fe, ok := err.(*FatalError)
	if !ok || fe.Category != ErrLinker {
		t.Errorf("got %v, want a linker FatalError", err)
	}
}

func TestResolveNativeMissingSymbolIsLinkerError(t *testing.T) {
	loader := newMemLoader()
	loader.register("mathlib", "double", func(int32, *Module, []Value) Value { return Nil })
	m := NewModule(nil, nil, loader, []int{1}, nil)
	h, _ := loader.Load("mathlib")
	_ = m.LoadLibrary(0, h)

	_, err := m.resolveNative(0, 0, "triple")
	fe, ok := err.(*FatalError)
	if !ok || fe.Category != ErrLinker {
		t.Errorf("got %v, want a linker FatalError", err)
	}
}
