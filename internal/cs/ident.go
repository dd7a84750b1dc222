package cs

// IdentType identifies what an identifier is. The types past IdentAlias are
// the reserved syntactic forms the compiler specializes on.
type IdentType int

const (
	IdentIVar IdentType = iota
	IdentFVar
	IdentSVar
	IdentCommand
	IdentAlias
	IdentLocal
	IdentDo
	IdentDoArgs
	IdentIf
	IdentBreak
	IdentContinue
	IdentResult
	IdentNot
	IdentAnd
	IdentOr
)

func (t IdentType) String() string {
	switch t {
	case IdentIVar:
		return "ivar"
	case IdentFVar:
		return "fvar"
	case IdentSVar:
		return "svar"
	case IdentCommand:
		return "command"
	case IdentAlias:
		return "alias"
	}
	return "special"
}

// Identifier flags.
const (
	IdfPersist = 1 << iota
	IdfOverride
	IdfHex // display integers as hex, with the 0xFFFFFF triplet form
	IdfReadonly
	IdfOverridden // an override is currently active
	IdfUnknown    // placeholder created on first reference
	IdfArg        // one of the reserved arg1..argN aliases
)

// VarCallback runs after a variable's value changes.
type VarCallback func(s *State, id *Ident)

// CommandFunc is a native command body. It receives the calling state and
// the marshaled argument vector; results are stored through s.SetResult.
type CommandFunc func(s *State, args []Value) error

// identStack is one saved binding on an alias's per-call value stack.
type identStack struct {
	val  Value
	next *identStack
}

// identLink is one frame of the alias call stack: which alias is running,
// the caller frame, the used-argument bitset and the storage the actuals
// were pushed into.
type identLink struct {
	id       *Ident
	next     *identLink
	usedArgs uint32
	argStack []identStack
}

// Ident is a named runtime object: a typed variable, an alias, a command or
// one of the reserved syntactic forms. Every ident occupies a stable slot in
// the state's index vector; bytecode addresses idents by that index.
type Ident struct {
	typ   IdentType
	name  string
	index int
	flags int

	// integer variable
	storageI  int64
	minVal    int64
	maxVal    int64
	overrideI int64

	// float variable
	storageF  float64
	minValF   float64
	maxValF   float64
	overrideF float64

	// string variable
	storageS  string
	overrideS string

	changed VarCallback

	// alias
	val   Value
	code  codeRef // cached compiled body; invalidated on mutation
	stack *identStack

	// command
	cargs   string
	numArgs int
	cb      CommandFunc
}

func (id *Ident) Name() string    { return id.name }
func (id *Ident) Index() int      { return id.index }
func (id *Ident) Type() IdentType { return id.typ }
func (id *Ident) Flags() int      { return id.flags }

// IsAlias reports whether the ident is a user alias (argument slots count).
func (id *Ident) IsAlias() bool { return id.typ == IdentAlias }

// IntBounds returns the [min,max] domain of an integer variable.
func (id *Ident) IntBounds() (int64, int64) { return id.minVal, id.maxVal }

// FloatBounds returns the [min,max] domain of a float variable.
func (id *Ident) FloatBounds() (float64, float64) { return id.minValF, id.maxValF }

// alias value accessors

func (id *Ident) getInt() int64     { return id.val.GetInt() }
func (id *Ident) getFloat() float64 { return id.val.GetFloat() }
func (id *Ident) getStr() string    { return id.val.GetStr() }

func (id *Ident) getVal() Value { return id.val.getVal() }

// getCstr returns the alias value in borrowed form: strings keep their
// macro/borrowed tag instead of being copied to owned form.
func (id *Ident) getCstr() Value {
	switch id.val.kind {
	case KindMacro:
		return macroVal(id.val.s)
	case KindString:
		return macroVal(id.val.s)
	case KindInt:
		return StrVal(intToString(id.val.i))
	case KindFloat:
		return StrVal(floatToString(id.val.f))
	}
	return macroVal("")
}

// getCval is getCstr for the any-kind context: numbers stay numeric.
func (id *Ident) getCval() Value {
	switch id.val.kind {
	case KindMacro, KindString:
		return macroVal(id.val.s)
	case KindInt:
		return IntVal(id.val.i)
	case KindFloat:
		return FloatVal(id.val.f)
	}
	return Value{}
}

// cleanCode drops the alias's cached bytecode.
func (id *Ident) cleanCode() {
	if !id.code.isNull() {
		bcodeUnref(id.code)
		id.code = codeRef{}
	}
}

// setValue replaces the alias binding without touching the saved stack.
func (id *Ident) setValue(v Value) {
	id.val = v
}

// pushArg saves the current binding into st, links st onto the alias's value
// stack and installs v as the new binding.
func (id *Ident) pushArg(v Value, st *identStack, unmark bool) {
	st.val = id.val
	st.next = id.stack
	id.stack = st
	id.setValue(v)
	id.cleanCode()
	if unmark {
		id.flags &^= IdfUnknown
	}
}

// popArg restores the binding saved by the matching pushArg.
func (id *Ident) popArg() {
	if id.stack == nil {
		return
	}
	st := id.stack
	id.val.cleanup()
	id.setValue(st.val)
	id.cleanCode()
	id.stack = st.next
}

// undoArg temporarily re-exposes the caller's binding, saving the current
// one into st so redoArg can restore it.
func (id *Ident) undoArg(st *identStack) {
	prev := id.stack
	st.val = id.val
	st.next = prev
	id.stack = prev.next
	id.setValue(prev.val)
	id.cleanCode()
}

// redoArg undoes undoArg.
func (id *Ident) redoArg(st *identStack) {
	prev := st.next
	prev.val = id.val
	id.stack = prev
	id.setValue(st.val)
	id.cleanCode()
}

// pushAlias opens a fresh null binding for `local`; argument slots are
// excluded since their bindings belong to the frame machinery.
func (id *Ident) pushAlias(st *identStack) {
	if id.typ == IdentAlias && id.index >= MaxArguments {
		id.pushArg(Value{}, st, false)
	}
}

func (id *Ident) popAlias() {
	if id.typ == IdentAlias && id.index >= MaxArguments {
		id.popArg()
	}
}

// setArg assigns an argument slot in the current frame, pushing the
// caller's binding first if this slot has not been touched yet.
func (id *Ident) setArg(s *State, v Value) {
	if s.stack.usedArgs&(1<<uint(id.index)) != 0 {
		id.val.cleanup()
		id.setValue(v)
		id.cleanCode()
	} else {
		id.pushArg(v, &s.stack.argStack[id.index], false)
		s.stack.usedArgs |= 1 << uint(id.index)
	}
}

// setAlias assigns a regular alias, picking up the state's override/persist
// mode flags.
func (id *Ident) setAlias(s *State, v Value) {
	id.val.cleanup()
	id.setValue(v)
	id.cleanCode()
	id.flags = (id.flags & s.identFlags) | s.identFlags
}
