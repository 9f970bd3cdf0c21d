// Package hostloader implements machine.Loader against the host platform's
// dynamic-library facilities (spec.md §6 "Dynamic-library loader"). The
// core package only requires a handle-producing loader and a
// symbol-lookup primitive; hostloader supplies the one concrete
// implementation a standalone vm binary needs.
//
// None of the libraries carried in the example pack wrap dlopen/LoadLibrary
// (that concern sits below the application layer the pack's dependencies
// target), so this is built directly on the standard library's plugin
// package rather than grounded in a third-party import; see DESIGN.md.
package hostloader

import (
	"fmt"
	"path/filepath"
	"plugin"

	"github.com/plume-lang/plume/lang/machine"
)

// Loader resolves library names to paths under Root (when the manifest
// entry is flagged standard) or the current working directory otherwise,
// and loads them as Go plugins.
type Loader struct {
	Root string
}

var _ machine.Loader = (*Loader)(nil)

// Load opens the shared object at path (spec.md §6: "load_library(path) ->
// Handle — platform-native shared-object loader").
func (l *Loader) Load(path string) (machine.Handle, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loading library %s: %w", path, err)
	}
	return p, nil
}

// LoadStandard resolves name against Root before loading it, for manifest
// entries flagged is_standard (spec.md §6: "the host wrapper prepends it to
// library names flagged is_standard").
func (l *Loader) LoadStandard(name string) (machine.Handle, error) {
	return l.Load(filepath.Join(l.Root, name))
}

// Symbol looks up a Native-shaped exported symbol by name. Every plugin
// this loader opens must export its native functions with the signature
// `func(int32, *machine.Module, []machine.Value) machine.Value`.
func (l *Loader) Symbol(h machine.Handle, name string) (machine.Native, error) {
	p, ok := h.(*plugin.Plugin)
	if !ok {
		return nil, fmt.Errorf("handle is not a loaded plugin")
	}
	sym, err := p.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("symbol %s: %w", name, err)
	}
	fn, ok := sym.(func(int32, *machine.Module, []machine.Value) machine.Value)
	if !ok {
		return nil, fmt.Errorf("symbol %s has the wrong signature for a native function", name)
	}
	return machine.Native(fn), nil
}
