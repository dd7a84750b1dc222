package cs

import (
	"fmt"
	"io"
	"os"
	"sort"
)

// Interpreter limits. MaxArguments fixes the number of reserved argument
// aliases (arg1..arg25) and the width of the used-args bitset.
const (
	MaxArguments = 25
	MaxResults   = 7
	MaxComargs   = 12

	// DefaultRunDepth caps VM recursion unless overridden per state.
	DefaultRunDepth = 255
)

// HookFunc runs once per VM dispatch; a non-nil error aborts execution.
type HookFunc func(s *State) error

// ErrorSink receives non-fatal diagnostics (clamp messages, unknown lookups,
// parse recovery notes).
type ErrorSink func(msg string)

// world is the state shared between sibling interpreter states: the ident
// table, its index vector and the string pool. It is mutated without locks;
// concurrent use from multiple goroutines is undefined.
type world struct {
	idents   map[string]*Ident
	identMap []*Ident
	strings  *stringPool

	dummy    *Ident
	numArgs  *Ident
	dbgAlias *Ident

	// variable print/notify handlers; the //ivar family may replace the
	// defaults exactly once
	cmdIVar       *Ident
	cmdFVar       *Ident
	cmdSVar       *Ident
	cmdVarChanged *Ident
	replaced      map[string]bool
}

// State is one interpreter thread of control: its own value/call stack,
// override mode, error sink and recursion budget over a possibly shared
// world. A single State must not be used from multiple goroutines.
type State struct {
	w *world

	result *Value
	noRet  Value

	stack   *identLink
	noAlias identLink

	identFlags int
	noDebug    int

	srcFile string
	srcStr  string

	hook        HookFunc
	sink        ErrorSink
	out         io.Writer
	runDepth    int
	maxRunDepth int
	loopLevel   int
}

// Option configures a new State.
type Option func(*State)

// WithOutput redirects variable printing and the io library.
func WithOutput(w io.Writer) Option {
	return func(s *State) { s.out = w }
}

// WithErrorSink installs the diagnostic sink.
func WithErrorSink(sink ErrorSink) Option {
	return func(s *State) { s.sink = sink }
}

// WithRecursionLimit overrides the VM call-depth cap.
func WithRecursionLimit(n int) Option {
	return func(s *State) {
		if n > 0 {
			s.maxRunDepth = n
		}
	}
}

// New creates a fresh interpreter state with its own world: the reserved
// argument aliases, the dummy ident and the numargs/dbgalias variables.
// Libraries are registered separately via RegisterLibraries.
func New(opts ...Option) *State {
	w := &world{
		idents:   make(map[string]*Ident),
		strings:  newStringPool(),
		replaced: make(map[string]bool),
	}
	s := &State{
		w:           w,
		out:         os.Stdout,
		maxRunDepth: DefaultRunDepth,
	}
	s.sink = func(msg string) { fmt.Fprintln(os.Stderr, msg) }
	s.result = &s.noRet
	s.noAlias.usedArgs = (1 << MaxArguments) - 1
	s.stack = &s.noAlias

	for i := 0; i < MaxArguments; i++ {
		w.addIdent(&Ident{
			typ:   IdentAlias,
			name:  fmt.Sprintf("arg%d", i+1),
			flags: IdfArg,
		})
	}
	w.dummy = w.addIdent(&Ident{typ: IdentAlias, name: "//dummy", flags: IdfUnknown})
	w.numArgs = w.addIdent(&Ident{
		typ: IdentIVar, name: "numargs",
		minVal: MaxArguments, maxVal: 0, // inverted range: read-only from definition
		flags: IdfReadonly,
	})
	w.dbgAlias = w.addIdent(&Ident{
		typ: IdentIVar, name: "dbgalias",
		minVal: 0, maxVal: 1000, storageI: 4,
	})
	s.registerVarPrinters()

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewThread creates a sibling state sharing this state's ident table and
// string pool, with its own stacks, flags, sink and recursion budget.
// Siblings exist to isolate re-entrant interpretation, not for concurrent
// use from distinct goroutines.
func (s *State) NewThread() *State {
	t := &State{
		w:           s.w,
		out:         s.out,
		sink:        s.sink,
		maxRunDepth: s.maxRunDepth,
	}
	t.result = &t.noRet
	t.noAlias.usedArgs = (1 << MaxArguments) - 1
	t.stack = &t.noAlias
	return t
}

// SetCallHook installs a hook run once per VM dispatch, returning the
// previous one.
func (s *State) SetCallHook(h HookFunc) HookFunc {
	old := s.hook
	s.hook = h
	return old
}

// SetOverrideMode makes subsequent assignments behave as overrides.
func (s *State) SetOverrideMode(on bool) {
	if on {
		s.identFlags |= IdfOverridden
	} else {
		s.identFlags &^= IdfOverridden
	}
}

// SetPersistMode marks subsequent alias definitions persistent.
func (s *State) SetPersistMode(on bool) {
	if on {
		s.identFlags |= IdfPersist
	} else {
		s.identFlags &^= IdfPersist
	}
}

// SetResult stores v as the result of the command currently executing.
func (s *State) SetResult(v Value) {
	s.result.cleanup()
	*s.result = v
}

func (s *State) SetResultInt(v int64)     { s.SetResult(IntVal(v)) }
func (s *State) SetResultFloat(v float64) { s.SetResult(FloatVal(v)) }
func (s *State) SetResultStr(v string)    { s.SetResult(StrVal(v)) }

// ident table

func (w *world) addIdent(id *Ident) *Ident {
	id.index = len(w.identMap)
	w.idents[id.name] = id
	w.identMap = append(w.identMap, id)
	return id
}

// Ident looks an identifier up by name.
func (s *State) Ident(name string) *Ident {
	return s.w.idents[name]
}

// IdentByIndex is the constant-time lookup used by kind-specialized
// instructions.
func (s *State) IdentByIndex(i int) *Ident {
	return s.w.identMap[i]
}

// HaveIdent reports whether name is defined.
func (s *State) HaveIdent(name string) bool {
	_, ok := s.w.idents[name]
	return ok
}

// Idents returns all identifiers in name order, for introspection.
func (s *State) Idents() []*Ident {
	out := make([]*Ident, 0, len(s.w.identMap))
	out = append(out, s.w.identMap...)
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Dummy returns the sentinel ident that safely absorbs invalid assignments.
func (s *State) Dummy() *Ident { return s.w.dummy }

// newIdent returns the ident for name, creating an UNKNOWN alias when the
// name has never been seen. Numeric-looking names are rejected with a
// diagnostic and resolve to the dummy ident.
func (s *State) newIdent(name string, flags int) *Ident {
	if id := s.w.idents[name]; id != nil {
		return id
	}
	if checkNum(name) {
		s.debugCode("number %s is not a valid identifier name", name)
		return s.w.dummy
	}
	return s.w.addIdent(&Ident{typ: IdentAlias, name: name, flags: flags | IdfUnknown})
}

// ForceIdent coerces a value to an identifier handle, creating the ident
// when the value is a string naming an unknown one.
func (s *State) ForceIdent(v *Value) *Ident {
	switch v.kind {
	case KindIdent:
		return v.id
	case KindString, KindMacro:
		id := s.newIdent(v.s, 0)
		v.cleanup()
		v.setIdent(id)
		return id
	}
	v.cleanup()
	v.setIdent(s.w.dummy)
	return s.w.dummy
}

// registration

func (s *State) checkNewName(name string) error {
	if _, ok := s.w.idents[name]; ok {
		return s.newError("cannot redefine %s", name)
	}
	if checkNum(name) {
		return s.newError("number %s is not a valid identifier name", name)
	}
	return nil
}

// NewIVar registers an integer variable. An inverted range (min > max)
// marks the variable read-only from definition.
func (s *State) NewIVar(name string, min, max, initial int64, cb VarCallback, flags int) (*Ident, error) {
	if err := s.checkNewName(name); err != nil {
		return nil, err
	}
	if min > max {
		flags |= IdfReadonly
	}
	return s.w.addIdent(&Ident{
		typ: IdentIVar, name: name,
		minVal: min, maxVal: max, storageI: initial,
		changed: cb, flags: flags,
	}), nil
}

// NewFVar registers a float variable.
func (s *State) NewFVar(name string, min, max, initial float64, cb VarCallback, flags int) (*Ident, error) {
	if err := s.checkNewName(name); err != nil {
		return nil, err
	}
	if min > max {
		flags |= IdfReadonly
	}
	return s.w.addIdent(&Ident{
		typ: IdentFVar, name: name,
		minValF: min, maxValF: max, storageF: initial,
		changed: cb, flags: flags,
	}), nil
}

// NewSVar registers a string variable.
func (s *State) NewSVar(name, initial string, cb VarCallback, flags int) (*Ident, error) {
	if err := s.checkNewName(name); err != nil {
		return nil, err
	}
	return s.w.addIdent(&Ident{
		typ: IdentSVar, name: name,
		storageS: s.w.strings.intern(initial),
		changed:  cb, flags: flags,
	}), nil
}

// reserved printer/notifier slots the host may replace exactly once
var replaceableBuiltins = map[string]bool{
	"//ivar": true, "//fvar": true, "//svar": true, "//var_changed": true,
	"//ivar_builtin": true, "//fvar_builtin": true, "//svar_builtin": true,
}

// NewCommand registers a native command under a format-string contract.
// Redefining an existing name is an error, except for the reserved builtin
// printer slots which may be replaced once.
func (s *State) NewCommand(name, format string, fn CommandFunc) (*Ident, error) {
	if old, ok := s.w.idents[name]; ok {
		if !replaceableBuiltins[name] || s.w.replaced[name] {
			return nil, s.newError("cannot redefine %s", name)
		}
		s.w.replaced[name] = true
		id, err := s.makeCommand(name, format, fn)
		if err != nil {
			return nil, err
		}
		// replace in place so bytecode holding the old index keeps working
		id.index = old.index
		s.w.idents[name] = id
		s.w.identMap[old.index] = id
		s.adoptPrinter(id)
		return id, nil
	}
	if checkNum(name) {
		return nil, s.newError("number %s is not a valid identifier name", name)
	}
	id, err := s.makeCommand(name, format, fn)
	if err != nil {
		return nil, err
	}
	s.w.addIdent(id)
	s.adoptPrinter(id)
	return id, nil
}

func (s *State) adoptPrinter(id *Ident) {
	switch id.name {
	case "//ivar", "//ivar_builtin":
		if s.w.cmdIVar == nil || id.name == "//ivar" {
			s.w.cmdIVar = id
		}
	case "//fvar", "//fvar_builtin":
		if s.w.cmdFVar == nil || id.name == "//fvar" {
			s.w.cmdFVar = id
		}
	case "//svar", "//svar_builtin":
		if s.w.cmdSVar == nil || id.name == "//svar" {
			s.w.cmdSVar = id
		}
	case "//var_changed":
		s.w.cmdVarChanged = id
	}
}

// makeCommand validates the format string and builds the command ident.
func (s *State) makeCommand(name, format string, fn CommandFunc) (*Ident, error) {
	nargs := 0
	limit := true
	for i := 0; i < len(format); i++ {
		switch c := format[i]; c {
		case 'i', 'b', 'f', 'F', 't', 'T', 'E', 'N':
			if nargs < MaxArguments {
				nargs++
			}
		case 'S', 's', 'e', 'r', '$':
			if nargs < MaxArguments {
				nargs++
			}
		case '1', '2', '3', '4':
			if i < int(c-'0') {
				return nil, s.newError("builtin %s declares repeat before its group: %c", name, c)
			}
			if !limit {
				return nil, s.newError("builtin %s declares a repeat after its variadic collector: %c", name, c)
			}
		case 'C', 'V':
			limit = false
		default:
			return nil, s.newError("builtin %s declared with illegal type: %c", name, c)
		}
	}
	if limit && nargs > MaxComargs {
		return nil, s.newError("builtin %s declared with too many arguments: %d", name, nargs)
	}
	return &Ident{
		typ: IdentCommand, name: name,
		cargs: format, numArgs: nargs, cb: fn,
	}, nil
}

// mustCommand registers a library command, panicking on a malformed
// declaration (a programming error in the library itself).
func (s *State) mustCommand(name, format string, fn CommandFunc) *Ident {
	id, err := s.NewCommand(name, format, fn)
	if err != nil {
		panic(fmt.Errorf("%w: %v", ErrInternal, err))
	}
	return id
}

// addSpecial registers a compiler-specialized form.
func (s *State) addSpecial(name, format string, typ IdentType, fn CommandFunc) *Ident {
	id := s.mustCommand(name, format, fn)
	id.typ = typ
	return id
}

// variable access

// overrideVar applies the override discipline before a variable write. save
// stashes the pre-override value, restore undoes a stale override, clear
// releases storage about to be replaced. It reports whether the write may
// proceed.
func (s *State) overrideVar(id *Ident, save, restore, clear func()) bool {
	if (s.identFlags&IdfOverridden) != 0 || (id.flags&IdfOverride) != 0 {
		if id.flags&IdfPersist != 0 {
			s.debugCode("cannot override persistent variable '%s'", id.name)
			return false
		}
		if id.flags&IdfOverridden == 0 {
			save()
			id.flags |= IdfOverridden
		} else {
			clear()
		}
	} else {
		if id.flags&IdfOverridden != 0 {
			restore()
			id.flags &^= IdfOverridden
		}
		clear()
	}
	return true
}

func (s *State) varChanged(id *Ident) {
	if id.changed != nil {
		id.changed(s, id)
	}
	if cv := s.w.cmdVarChanged; cv != nil && cv.cb != nil {
		args := []Value{identVal(id)}
		prev := s.result
		var tmp Value
		s.result = &tmp
		_ = cv.cb(s, args)
		tmp.cleanup()
		s.result = prev
	}
}

func clampI(v, min, max int64) int64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampF(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// clampVarInt clamps and reports the legal range, in hex when flagged.
func (s *State) clampVarInt(id *Ident, v int64) int64 {
	if v >= id.minVal && v <= id.maxVal {
		return v
	}
	if id.flags&IdfHex != 0 {
		if id.minVal <= 255 {
			s.debugCode("valid range for '%s' is %d..0x%X", id.name, id.minVal, id.maxVal)
		} else {
			s.debugCode("valid range for '%s' is 0x%X..0x%X", id.name, id.minVal, id.maxVal)
		}
	} else {
		s.debugCode("valid range for '%s' is %d..%d", id.name, id.minVal, id.maxVal)
	}
	return clampI(v, id.minVal, id.maxVal)
}

func (s *State) clampVarFloat(id *Ident, v float64) float64 {
	if v >= id.minValF && v <= id.maxValF {
		return v
	}
	s.debugCode("valid range for '%s' is %s..%s", id.name,
		floatToString(id.minValF), floatToString(id.maxValF))
	return clampF(v, id.minValF, id.maxValF)
}

// setVarIntChecked is the script-facing write path: read-only and override
// checks, clamping with a diagnostic, then the change callback.
func (s *State) setVarIntChecked(id *Ident, v int64) {
	if id.flags&IdfReadonly != 0 {
		s.debugCode("variable '%s' is read only", id.name)
		return
	}
	ok := s.overrideVar(id,
		func() { id.overrideI = id.storageI },
		func() {}, func() {})
	if !ok {
		return
	}
	id.storageI = s.clampVarInt(id, v)
	s.varChanged(id)
}

// setVarIntHex handles the 1..3-operand hex-triplet form: with two or three
// operands the values pack into 0xRRGGBB.
func (s *State) setVarIntHex(id *Ident, args []Value) {
	v := args[0].forceInt()
	if id.flags&IdfHex != 0 && len(args) > 1 {
		v = (v << 16) | (args[1].forceInt() << 8)
		if len(args) > 2 {
			v |= args[2].forceInt()
		}
	}
	s.setVarIntChecked(id, v)
}

func (s *State) setVarFloatChecked(id *Ident, v float64) {
	if id.flags&IdfReadonly != 0 {
		s.debugCode("variable '%s' is read only", id.name)
		return
	}
	ok := s.overrideVar(id,
		func() { id.overrideF = id.storageF },
		func() {}, func() {})
	if !ok {
		return
	}
	id.storageF = s.clampVarFloat(id, v)
	s.varChanged(id)
}

func (s *State) setVarStrChecked(id *Ident, v string) {
	if id.flags&IdfReadonly != 0 {
		s.debugCode("variable '%s' is read only", id.name)
		return
	}
	pool := s.w.strings
	ok := s.overrideVar(id,
		func() { id.overrideS = id.storageS },
		func() { pool.release(id.overrideS); id.overrideS = "" },
		func() { pool.release(id.storageS) })
	if !ok {
		return
	}
	id.storageS = pool.intern(v)
	s.varChanged(id)
}

// SetVarInt is the host-facing write: optional clamping without the range
// diagnostic, optional change callback.
func (s *State) SetVarInt(name string, v int64, doFunc, doClamp bool) {
	id := s.w.idents[name]
	if id == nil || id.typ != IdentIVar {
		return
	}
	ok := s.overrideVar(id,
		func() { id.overrideI = id.storageI },
		func() {}, func() {})
	if !ok {
		return
	}
	if doClamp {
		id.storageI = clampI(v, id.minVal, id.maxVal)
	} else {
		id.storageI = v
	}
	if doFunc {
		s.varChanged(id)
	}
}

func (s *State) SetVarFloat(name string, v float64, doFunc, doClamp bool) {
	id := s.w.idents[name]
	if id == nil || id.typ != IdentFVar {
		return
	}
	ok := s.overrideVar(id,
		func() { id.overrideF = id.storageF },
		func() {}, func() {})
	if !ok {
		return
	}
	if doClamp {
		id.storageF = clampF(v, id.minValF, id.maxValF)
	} else {
		id.storageF = v
	}
	if doFunc {
		s.varChanged(id)
	}
}

func (s *State) SetVarStr(name, v string, doFunc bool) {
	id := s.w.idents[name]
	if id == nil || id.typ != IdentSVar {
		return
	}
	pool := s.w.strings
	ok := s.overrideVar(id,
		func() { id.overrideS = id.storageS },
		func() { pool.release(id.overrideS); id.overrideS = "" },
		func() { pool.release(id.storageS) })
	if !ok {
		return
	}
	id.storageS = pool.intern(v)
	if doFunc {
		s.varChanged(id)
	}
}

// GetVarInt reads an integer variable; ok is false for unknown names or
// other kinds.
func (s *State) GetVarInt(name string) (int64, bool) {
	id := s.w.idents[name]
	if id == nil || id.typ != IdentIVar {
		return 0, false
	}
	return id.storageI, true
}

func (s *State) GetVarFloat(name string) (float64, bool) {
	id := s.w.idents[name]
	if id == nil || id.typ != IdentFVar {
		return 0, false
	}
	return id.storageF, true
}

func (s *State) GetVarStr(name string) (string, bool) {
	id := s.w.idents[name]
	if id == nil || id.typ != IdentSVar {
		return "", false
	}
	return id.storageS, true
}

func (s *State) GetVarMinInt(name string) (int64, bool) {
	id := s.w.idents[name]
	if id == nil || id.typ != IdentIVar {
		return 0, false
	}
	return id.minVal, true
}

func (s *State) GetVarMaxInt(name string) (int64, bool) {
	id := s.w.idents[name]
	if id == nil || id.typ != IdentIVar {
		return 0, false
	}
	return id.maxVal, true
}

func (s *State) GetVarMinFloat(name string) (float64, bool) {
	id := s.w.idents[name]
	if id == nil || id.typ != IdentFVar {
		return 0, false
	}
	return id.minValF, true
}

func (s *State) GetVarMaxFloat(name string) (float64, bool) {
	id := s.w.idents[name]
	if id == nil || id.typ != IdentFVar {
		return 0, false
	}
	return id.maxValF, true
}

// GetAlias returns an alias's current textual binding. Argument slots
// outside the current frame read as undefined.
func (s *State) GetAlias(name string) (string, bool) {
	id := s.w.idents[name]
	if id == nil || id.typ != IdentAlias {
		return "", false
	}
	if id.index < MaxArguments && s.stack.usedArgs&(1<<uint(id.index)) == 0 {
		return "", false
	}
	return id.getStr(), true
}

// SetAlias binds name to v, routing variable names to the checked setters
// and rejecting redefinition of commands.
func (s *State) SetAlias(name string, v Value) {
	if id := s.w.idents[name]; id != nil {
		switch id.typ {
		case IdentAlias:
			if id.index < MaxArguments {
				id.setArg(s, v)
			} else {
				id.setAlias(s, v)
			}
			return
		case IdentIVar:
			s.setVarIntChecked(id, v.GetInt())
		case IdentFVar:
			s.setVarFloatChecked(id, v.GetFloat())
		case IdentSVar:
			s.setVarStrChecked(id, v.GetStr())
		default:
			s.debugCode("cannot redefine builtin %s with an alias", id.name)
		}
		v.cleanup()
		return
	}
	if checkNum(name) {
		s.debugCode("cannot alias number %s", name)
		v.cleanup()
		return
	}
	s.w.addIdent(&Ident{typ: IdentAlias, name: name, val: v, flags: s.identFlags})
}

// ResetVar clears any active override on name.
func (s *State) ResetVar(name string) bool {
	id := s.w.idents[name]
	if id == nil {
		return false
	}
	if id.flags&IdfReadonly != 0 {
		s.debugCode("variable %s is read only", id.name)
		return false
	}
	s.clearOverride(id)
	return true
}

// TouchVar re-runs a variable's change callback without modifying it.
func (s *State) TouchVar(name string) {
	id := s.w.idents[name]
	if id == nil {
		return
	}
	switch id.typ {
	case IdentIVar, IdentFVar, IdentSVar:
		s.varChanged(id)
	}
}

// clearOverride restores the saved pre-override value and notifies.
func (s *State) clearOverride(id *Ident) {
	if id.flags&IdfOverridden == 0 {
		return
	}
	switch id.typ {
	case IdentAlias:
		if id.val.kind == KindString && id.val.s == "" {
			break
		}
		id.val.cleanup()
		id.cleanCode()
		id.setValue(StrVal(""))
	case IdentIVar:
		id.storageI = id.overrideI
		s.varChanged(id)
	case IdentFVar:
		id.storageF = id.overrideF
		s.varChanged(id)
	case IdentSVar:
		s.w.strings.release(id.storageS)
		id.storageS = id.overrideS
		id.overrideS = ""
		s.varChanged(id)
	}
	id.flags &^= IdfOverridden
}

// ClearOverrides restores every overridden identifier.
func (s *State) ClearOverrides() {
	for _, id := range s.w.identMap {
		s.clearOverride(id)
	}
}

// variable printing

func (s *State) registerVarPrinters() {
	s.mustCommand("//ivar_builtin", "$", func(cs *State, args []Value) error {
		id := args[0].Ident()
		cs.printVarInt(id, id.storageI)
		return nil
	})
	s.mustCommand("//fvar_builtin", "$", func(cs *State, args []Value) error {
		id := args[0].Ident()
		fmt.Fprintf(cs.out, "%s = %s\n", id.name, floatToString(id.storageF))
		return nil
	})
	s.mustCommand("//svar_builtin", "$", func(cs *State, args []Value) error {
		id := args[0].Ident()
		cs.printVarStr(id, id.storageS)
		return nil
	})
}

func (s *State) printVarInt(id *Ident, v int64) {
	if v < 0 {
		fmt.Fprintf(s.out, "%s = %d\n", id.name, v)
		return
	}
	if id.flags&IdfHex != 0 {
		if id.maxVal == 0xFFFFFF {
			fmt.Fprintf(s.out, "%s = 0x%.6X (%d, %d, %d)\n", id.name,
				v, (v>>16)&0xFF, (v>>8)&0xFF, v&0xFF)
		} else {
			fmt.Fprintf(s.out, "%s = 0x%X\n", id.name, v)
		}
		return
	}
	fmt.Fprintf(s.out, "%s = %d\n", id.name, v)
}

func (s *State) printVarStr(id *Ident, v string) {
	quoted := true
	for i := 0; i < len(v); i++ {
		if v[i] == '"' {
			quoted = false
			break
		}
	}
	if quoted {
		fmt.Fprintf(s.out, "%s = \"%s\"\n", id.name, v)
	} else {
		fmt.Fprintf(s.out, "%s = [%s]\n", id.name, v)
	}
}

// printVar dispatches to the installed printer command for the variable's
// kind.
func (s *State) printVar(id *Ident) {
	var cmd *Ident
	switch id.typ {
	case IdentIVar:
		cmd = s.w.cmdIVar
	case IdentFVar:
		cmd = s.w.cmdFVar
	case IdentSVar:
		cmd = s.w.cmdSVar
	default:
		return
	}
	if cmd == nil || cmd.cb == nil {
		return
	}
	args := []Value{identVal(id)}
	prev := s.result
	var tmp Value
	s.result = &tmp
	_ = cmd.cb(s, args)
	tmp.cleanup()
	s.result = prev
}

// StringPoolSize reports the number of interned strings, for tests and
// memory accounting.
func (s *State) StringPoolSize() int { return s.w.strings.size() }
