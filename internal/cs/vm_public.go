package cs

import "os"

// RunRet compiles and runs src, returning the program result.
func (s *State) RunRet(src string) (Value, error) {
	gs := genState{cs: s, code: make([]uint32, 0, 64)}
	gs.genMain(src, valAny)
	var ret Value
	_, err := s.runCode(gs.code, 1, &ret)
	return ret, err
}

// Run compiles and runs src, discarding the result.
func (s *State) Run(src string) error {
	ret, err := s.RunRet(src)
	ret.cleanup()
	return err
}

// RunString runs src and coerces the result to a string; a null result is
// the empty string.
func (s *State) RunString(src string) (string, error) {
	gs := genState{cs: s, code: make([]uint32, 0, 64)}
	gs.genMain(src, valStr)
	var ret Value
	_, err := s.runCode(gs.code, 1, &ret)
	out := ""
	if ret.kind != KindNull {
		out = ret.GetStr()
	}
	ret.cleanup()
	return out, err
}

// RunInt runs src and coerces the result to an integer.
func (s *State) RunInt(src string) (int64, error) {
	gs := genState{cs: s, code: make([]uint32, 0, 64)}
	gs.genMain(src, valInt)
	var ret Value
	_, err := s.runCode(gs.code, 1, &ret)
	out := ret.GetInt()
	ret.cleanup()
	return out, err
}

// RunFloat runs src and coerces the result to a float.
func (s *State) RunFloat(src string) (float64, error) {
	gs := genState{cs: s, code: make([]uint32, 0, 64)}
	gs.genMain(src, valFloat)
	var ret Value
	_, err := s.runCode(gs.code, 1, &ret)
	out := ret.GetFloat()
	ret.cleanup()
	return out, err
}

// RunBool runs src and applies the truthiness rules to the result.
func (s *State) RunBool(src string) (bool, error) {
	ret, err := s.RunRet(src)
	out := ret.GetBool()
	ret.cleanup()
	return out, err
}

// Compile compiles src into a code value holding one reference on its
// block; release it with ReleaseValue when done.
func (s *State) Compile(src string) Value {
	return codeVal(s.compile(src))
}

// ReleaseValue drops a value obtained from Compile or RunRet, releasing the
// reference a Compile result holds on its block.
func (s *State) ReleaseValue(v *Value) {
	if v.kind == KindCode && v.code.pc == 1 && bcodeRefCount(v.code) > 0 {
		bcodeUnref(v.code)
		*v = Value{}
		return
	}
	v.cleanup()
}

// RunCodeValue runs a previously compiled code value.
func (s *State) RunCodeValue(v Value) (Value, error) {
	var ret Value
	err := s.runCodeRef(v.Code(), &ret)
	return ret, err
}

// runCodeDiscard runs a block into the discard slot.
func (s *State) runCodeDiscard(c codeRef) error {
	return s.runCodeRef(c, &s.noRet)
}

// runCodeBool runs a block and reads the result as a boolean.
func (s *State) runCodeBool(c codeRef) (bool, error) {
	var ret Value
	err := s.runCodeRef(c, &ret)
	b := ret.GetBool()
	ret.cleanup()
	return b, err
}

// RunIdent invokes an identifier directly with an argument array: commands
// dispatch through their format string, variables print or assign, aliases
// run in a fresh frame. Ownership of args passes to the call.
func (s *State) RunIdent(id *Ident, args []Value) (Value, error) {
	var ret Value
	if id == nil {
		cleanupValues(args)
		return ret, nil
	}
	if s.runDepth >= s.maxRunDepth {
		s.debugCode("exceeded recursion limit")
		cleanupValues(args)
		return ret, nil
	}
	s.runDepth++
	prevret := s.result
	s.result = &ret
	var err error
	switch id.typ {
	case IdentCommand, IdentDo, IdentDoArgs, IdentIf, IdentResult,
		IdentNot, IdentAnd, IdentOr, IdentBreak, IdentContinue:
		if id.cb != nil {
			err = s.callCommand(id, args, false)
			args = nil
		}
	case IdentIVar:
		if len(args) == 0 {
			s.printVar(id)
		} else {
			s.setVarIntHex(id, args)
		}
	case IdentFVar:
		if len(args) == 0 {
			s.printVar(id)
		} else {
			s.setVarFloatChecked(id, args[0].forceFloat())
		}
	case IdentSVar:
		if len(args) == 0 {
			s.printVar(id)
		} else {
			s.setVarStrChecked(id, args[0].forceStr())
		}
	case IdentAlias:
		if id.index < MaxArguments && s.stack.usedArgs&(1<<uint(id.index)) == 0 {
			break
		}
		if id.val.kind == KindNull {
			break
		}
		err = s.callAlias(id, args, 0, len(args), &ret, retNull)
		args = args[:0]
	}
	cleanupValues(args)
	s.result = prevret
	s.runDepth--
	return ret, err
}

// ExecFile loads and runs a script file, attributing diagnostics to it.
func (s *State) ExecFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	oldFile, oldSrc := s.srcFile, s.srcStr
	s.srcFile, s.srcStr = path, string(data)
	rerr := s.Run(string(data))
	s.srcFile, s.srcStr = oldFile, oldSrc
	return rerr
}

// SourceFile returns the name attributed to the source currently running.
func (s *State) SourceFile() string { return s.srcFile }

// SetSource attributes subsequent compiles to a file name, for diagnostics.
func (s *State) SetSource(file, src string) {
	s.srcFile, s.srcStr = file, src
}
