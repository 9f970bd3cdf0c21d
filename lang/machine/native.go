package machine

import (
	"fmt"

	"github.com/dolthub/swiss"
)

// Native is the signature every dynamically-loaded library function must
// implement (spec.md §4.6): it may read/write the Module's operand stack,
// allocate Values, and must return exactly one of them (Nil to mean "no
// meaningful result"). The VM guarantees args is stable only for the
// duration of the call; a Native must not retain it after returning.
type Native func(argc int32, m *Module, args []Value) Value

// Handle is the opaque result of loading a shared library. The VM core only
// ever passes it back to the Loader that produced it; spec.md §6 says the
// core "only requires a handle-producing loader and a symbol-lookup
// primitive", so the concrete representation (a dlopen handle, a Go
// plugin.Plugin, an in-memory registry key for tests) is entirely up to the
// Loader implementation.
type Handle any

// Loader is the dynamic-library loading contract the core consumes but does
// not implement (spec.md §1 Non-goals, §6 External Interfaces). A
// production Loader wraps dlopen/LoadLibrary or the equivalent; tests use an
// in-memory one (see memLoader in native_test.go).
type Loader interface {
	// Load resolves path to a Handle. Failure is fatal (ErrLinker).
	Load(path string) (Handle, error)
	// Symbol looks up name within the library referenced by h. Failure is
	// fatal (ErrLinker). The resolver must be idempotent: calling Symbol
	// twice for the same (h, name) must be safe and return an equivalent
	// function.
	Symbol(h Handle, name string) (Native, error)
}

// resolveNative implements the native-call bridge's resolution step (spec.md
// §4.5/§4.6): it turns a (library index, function index, name) triple into
// a callable Native, resolving and caching the symbol on first use.
//
// Two caches are kept deliberately: natives[libIdx][funIdx] is the
// spec-mandated per-library vector (the authoritative "null until first
// use" cache spec.md §3.3 describes), while nativesByName is an auxiliary
// dolthub/swiss map keyed by "<lib>:<fn>:<name>" that lets diagnostic code
// and tests (through LookupNativeByName) look a resolved symbol up by name
// without walking every library's vector.
func (m *Module) resolveNative(libIdx, funIdx int32, name string) (Native, error) {
	if libIdx < 0 || int(libIdx) >= len(m.natives) {
		return nil, newFatalError(ErrLinker, "library index %d out of range", libIdx)
	}
	fns := m.natives[libIdx]
	if funIdx < 0 || int(funIdx) >= len(fns) {
		return nil, newFatalError(ErrLinker, "function index %d out of range for library %d", funIdx, libIdx)
	}
	if fn := fns[funIdx]; fn != nil {
		return fn, nil
	}

	if int(libIdx) >= len(m.handles) || m.handles[libIdx] == nil {
		return nil, newFatalError(ErrLinker, "library %d (for function %s) not loaded", libIdx, name)
	}
	fn, err := m.loader.Symbol(m.handles[libIdx], name)
	if err != nil {
		return nil, newFatalError(ErrLinker, "native function %s not found: %s", name, err)
	}
	if fn == nil {
		return nil, newFatalError(ErrLinker, "native function %s not found", name)
	}

	fns[funIdx] = fn
	if m.nativesByName == nil {
		m.nativesByName = swiss.NewMap[string, Native](8)
	}
	m.nativesByName.Put(nativeCacheKey(libIdx, funIdx, name), fn)
	return fn, nil
}

func nativeCacheKey(libIdx, funIdx int32, name string) string {
	return fmt.Sprintf("%d:%d:%s", libIdx, funIdx, name)
}

// LookupNativeByName returns a previously resolved native by its cache key,
// for diagnostic tooling; it does not trigger resolution.
func (m *Module) LookupNativeByName(libIdx, funIdx int32, name string) (Native, bool) {
	if m.nativesByName == nil {
		return nil, false
	}
	return m.nativesByName.Get(nativeCacheKey(libIdx, funIdx, name))
}
