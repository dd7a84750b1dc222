// Package cubescript provides the high-level embedding API over the
// interpreter core: Go-native values in and out, command registration with
// format-string contracts, variable registration and introspection.
package cubescript

import (
	"fmt"
	"io"

	"github.com/cubelang/cubescript/internal/cs"
)

// Variable flags, re-exported for hosts.
const (
	FlagPersist  = cs.IdfPersist
	FlagOverride = cs.IdfOverride
	FlagHex      = cs.IdfHex
	FlagReadonly = cs.IdfReadonly
)

// Library masks for New.
const (
	LibBase   = cs.LibBase
	LibMath   = cs.LibMath
	LibString = cs.LibString
	LibList   = cs.LibList
	LibIO     = cs.LibIO
	LibAll    = cs.LibAll
)

// VM wraps one interpreter state and provides the embedding surface.
type VM struct {
	st *cs.State
}

// Option configures a new VM.
type Option func(*options)

type options struct {
	libs    int
	out     io.Writer
	sink    func(string)
	maxRecv int
}

// WithLibraries selects the builtin libraries to register (default LibAll).
func WithLibraries(mask int) Option {
	return func(o *options) { o.libs = mask }
}

// WithOutput redirects variable printing and the io library.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithErrorSink installs the diagnostic sink.
func WithErrorSink(sink func(string)) Option {
	return func(o *options) { o.sink = sink }
}

// WithRecursionLimit overrides the VM call-depth cap.
func WithRecursionLimit(n int) Option {
	return func(o *options) { o.maxRecv = n }
}

// New creates a VM with the selected builtin libraries registered.
func New(opts ...Option) *VM {
	o := options{libs: LibAll}
	for _, opt := range opts {
		opt(&o)
	}
	var stOpts []cs.Option
	if o.out != nil {
		stOpts = append(stOpts, cs.WithOutput(o.out))
	}
	if o.sink != nil {
		stOpts = append(stOpts, cs.WithErrorSink(o.sink))
	}
	if o.maxRecv > 0 {
		stOpts = append(stOpts, cs.WithRecursionLimit(o.maxRecv))
	}
	st := cs.New(stOpts...)
	cs.RegisterLibraries(st, o.libs)
	return &VM{st: st}
}

// State exposes the underlying interpreter state for advanced uses (the CLI
// and the persist package build on it).
func (v *VM) State() *cs.State { return v.st }

// NewThread creates a sibling VM sharing identifiers and strings with v but
// owning its own stacks and modes.
func (v *VM) NewThread() *VM {
	return &VM{st: v.st.NewThread()}
}

// Run compiles and runs src, returning the result as a Go value
// (nil, int64, float64 or string).
func (v *VM) Run(src string) (any, error) {
	ret, err := v.st.RunRet(src)
	out := fromValue(ret)
	v.st.ReleaseValue(&ret)
	return out, err
}

// RunString runs src and coerces the result to a string.
func (v *VM) RunString(src string) (string, error) { return v.st.RunString(src) }

// RunInt runs src and coerces the result to an integer.
func (v *VM) RunInt(src string) (int64, error) { return v.st.RunInt(src) }

// RunFloat runs src and coerces the result to a float.
func (v *VM) RunFloat(src string) (float64, error) { return v.st.RunFloat(src) }

// RunBool runs src and applies the truthiness rules to the result.
func (v *VM) RunBool(src string) (bool, error) { return v.st.RunBool(src) }

// ExecFile loads and runs a script file.
func (v *VM) ExecFile(path string) error { return v.st.ExecFile(path) }

// CommandFunc is a host command body over Go-native argument values.
type CommandFunc func(args []any) (any, error)

// RegisterCommand registers a native command under the format-string
// contract described by the core (§ command dispatch): each character
// declares one parameter's coercion.
func (v *VM) RegisterCommand(name, format string, fn CommandFunc) error {
	_, err := v.st.NewCommand(name, format, func(s *cs.State, args []cs.Value) error {
		goArgs := make([]any, len(args))
		for i := range args {
			goArgs[i] = fromValue(args[i])
		}
		res, err := fn(goArgs)
		if err != nil {
			return err
		}
		val, cerr := toValue(s, res)
		if cerr != nil {
			return cerr
		}
		s.SetResult(val)
		return nil
	})
	return err
}

// IntVarFunc observes integer variable changes.
type IntVarFunc func(v int64)

// RegisterIntVar registers an integer variable with an inclusive [min,max]
// domain; an inverted range makes it read-only.
func (v *VM) RegisterIntVar(name string, min, max, initial int64, onChange IntVarFunc, flags int) error {
	var cb cs.VarCallback
	if onChange != nil {
		cb = func(s *cs.State, id *cs.Ident) {
			val, _ := s.GetVarInt(id.Name())
			onChange(val)
		}
	}
	_, err := v.st.NewIVar(name, min, max, initial, cb, flags)
	return err
}

// RegisterFloatVar registers a float variable.
func (v *VM) RegisterFloatVar(name string, min, max, initial float64, onChange func(float64), flags int) error {
	var cb cs.VarCallback
	if onChange != nil {
		cb = func(s *cs.State, id *cs.Ident) {
			val, _ := s.GetVarFloat(id.Name())
			onChange(val)
		}
	}
	_, err := v.st.NewFVar(name, min, max, initial, cb, flags)
	return err
}

// RegisterStringVar registers a string variable.
func (v *VM) RegisterStringVar(name, initial string, onChange func(string), flags int) error {
	var cb cs.VarCallback
	if onChange != nil {
		cb = func(s *cs.State, id *cs.Ident) {
			val, _ := s.GetVarStr(id.Name())
			onChange(val)
		}
	}
	_, err := v.st.NewSVar(name, initial, cb, flags)
	return err
}

// IntVar reads an integer variable.
func (v *VM) IntVar(name string) (int64, bool) { return v.st.GetVarInt(name) }

// FloatVar reads a float variable.
func (v *VM) FloatVar(name string) (float64, bool) { return v.st.GetVarFloat(name) }

// StringVar reads a string variable.
func (v *VM) StringVar(name string) (string, bool) { return v.st.GetVarStr(name) }

// SetIntVar assigns an integer variable through the host path, clamping
// when doClamp is set (no range diagnostic) and running change callbacks
// when doFunc is set.
func (v *VM) SetIntVar(name string, val int64, doFunc, doClamp bool) {
	v.st.SetVarInt(name, val, doFunc, doClamp)
}

// SetFloatVar assigns a float variable through the host path.
func (v *VM) SetFloatVar(name string, val float64, doFunc, doClamp bool) {
	v.st.SetVarFloat(name, val, doFunc, doClamp)
}

// SetStringVar assigns a string variable through the host path.
func (v *VM) SetStringVar(name, val string, doFunc bool) {
	v.st.SetVarStr(name, val, doFunc)
}

// Alias reads an alias's current textual binding.
func (v *VM) Alias(name string) (string, bool) { return v.st.GetAlias(name) }

// IdentInfo describes one identifier for introspection.
type IdentInfo struct {
	Name  string
	Kind  string
	Flags int

	MinInt, MaxInt     int64
	MinFloat, MaxFloat float64

	Value any
}

// Idents enumerates all identifiers in name order.
func (v *VM) Idents() []IdentInfo {
	ids := v.st.Idents()
	out := make([]IdentInfo, 0, len(ids))
	for _, id := range ids {
		info := IdentInfo{Name: id.Name(), Kind: id.Type().String(), Flags: id.Flags()}
		switch id.Type() {
		case cs.IdentIVar:
			info.MinInt, info.MaxInt = id.IntBounds()
			info.Value, _ = v.st.GetVarInt(id.Name())
		case cs.IdentFVar:
			info.MinFloat, info.MaxFloat = id.FloatBounds()
			info.Value, _ = v.st.GetVarFloat(id.Name())
		case cs.IdentSVar:
			info.Value, _ = v.st.GetVarStr(id.Name())
		case cs.IdentAlias:
			if s, ok := v.st.GetAlias(id.Name()); ok {
				info.Value = s
			}
		}
		out = append(out, info)
	}
	return out
}

// SetOverrideMode makes subsequent assignments behave as overrides.
func (v *VM) SetOverrideMode(on bool) { v.st.SetOverrideMode(on) }

// SetPersistMode marks subsequent alias definitions persistent.
func (v *VM) SetPersistMode(on bool) { v.st.SetPersistMode(on) }

// ClearOverrides restores every overridden identifier.
func (v *VM) ClearOverrides() { v.st.ClearOverrides() }

// SetCallHook installs a callback run once per VM dispatch; a non-nil error
// aborts execution.
func (v *VM) SetCallHook(hook func() error) {
	if hook == nil {
		v.st.SetCallHook(nil)
		return
	}
	v.st.SetCallHook(func(*cs.State) error { return hook() })
}

// Disassemble compiles src and renders its bytecode.
func (v *VM) Disassemble(src string) string {
	code := v.st.Compile(src)
	out := cs.Disassemble(code)
	v.st.ReleaseValue(&code)
	return out
}

func (v *VM) String() string {
	return fmt.Sprintf("cubescript.VM(%d idents)", len(v.st.Idents()))
}
