package cs

import (
	"errors"
	"strings"
)

// Library selection masks for RegisterLibraries.
const (
	LibBase = 1 << iota
	LibMath
	LibString
	LibList
	LibIO

	LibAll = LibBase | LibMath | LibString | LibList | LibIO
)

// RegisterLibraries registers the selected builtin command libraries on the
// state's shared ident table.
func RegisterLibraries(s *State, libs int) {
	if libs&LibBase != 0 {
		registerBaseLib(s)
	}
	if libs&LibMath != 0 {
		registerMathLib(s)
	}
	if libs&LibString != 0 {
		registerStringLib(s)
	}
	if libs&LibList != 0 {
		registerListLib(s)
	}
	if libs&LibIO != 0 {
		registerIOLib(s)
	}
}

// runRet runs a code value into the current command result.
func (s *State) runRet(c codeRef) error {
	return s.runCodeRef(c, s.result)
}

// runLoopBody executes one loop iteration, translating the break/continue
// sentinels: cont is false when the loop should stop.
func (s *State) runLoopBody(body codeRef) (cont bool, err error) {
	s.loopLevel++
	err = s.runCodeDiscard(body)
	s.loopLevel--
	if err != nil {
		if errors.Is(err, errBreak) {
			return false, nil
		}
		if errors.Is(err, errContinue) {
			return true, nil
		}
		return false, err
	}
	return true, nil
}

// runLoopBodyRet is runLoopBody collecting the iteration's result.
func (s *State) runLoopBodyRet(body codeRef, out *Value) (cont bool, err error) {
	s.loopLevel++
	err = s.runCodeRef(body, out)
	s.loopLevel--
	if err != nil {
		if errors.Is(err, errBreak) {
			return false, nil
		}
		if errors.Is(err, errContinue) {
			return true, nil
		}
		return false, err
	}
	return true, nil
}

// setIterInt rebinds a loop iteration alias in place once its frame entry is
// established, pushing the first binding.
func setIterInt(id *Ident, v int64, st *identStack) {
	if id.stack == st {
		if id.val.kind != KindInt {
			id.val.cleanup()
		}
		id.cleanCode()
		id.val = IntVal(v)
		return
	}
	id.pushArg(IntVal(v), st, true)
}

// setIterStr is setIterInt for textual iteration values.
func setIterStr(id *Ident, v string, st *identStack) {
	if id.stack == st {
		id.val.cleanup()
		id.cleanCode()
		id.val = StrVal(v)
		return
	}
	id.pushArg(StrVal(v), st, true)
}

// doLoop drives the counted-loop family: n iterations of body with the
// iteration alias bound to offset + i*step, optionally guarded by cond.
func (s *State) doLoop(id *Ident, offset, n, step int64, cond, body codeRef) error {
	if n <= 0 || id.typ != IdentAlias {
		return nil
	}
	var st identStack
	var rerr error
	for i := int64(0); i < n; i++ {
		setIterInt(id, offset+i*step, &st)
		if !cond.isNull() {
			b, err := s.runCodeBool(cond)
			if err != nil {
				rerr = err
				break
			}
			if !b {
				break
			}
		}
		cont, err := s.runLoopBody(body)
		if err != nil {
			rerr = err
			break
		}
		if !cont {
			break
		}
	}
	if id.stack == &st {
		id.popArg()
	}
	return rerr
}

// loopConc drives loopconcat: iteration results joined into one string.
func (s *State) loopConc(id *Ident, offset, n, step int64, body codeRef, space bool) error {
	if n <= 0 || id.typ != IdentAlias {
		return nil
	}
	var st identStack
	var buf strings.Builder
	var rerr error
	for i := int64(0); i < n; i++ {
		setIterInt(id, offset+i*step, &st)
		var v Value
		cont, err := s.runLoopBodyRet(body, &v)
		if err != nil {
			rerr = err
			break
		}
		if !cont {
			v.cleanup()
			break
		}
		if space && i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(v.GetStr())
		v.cleanup()
	}
	if id.stack == &st {
		id.popArg()
	}
	if rerr != nil {
		return rerr
	}
	s.SetResultStr(buf.String())
	return nil
}

func registerBaseLib(s *State) {
	s.addSpecial("do", "e", IdentDo, func(cs *State, args []Value) error {
		return cs.runRet(args[0].Code())
	})

	s.addSpecial("doargs", "e", IdentDoArgs, func(cs *State, args []Value) error {
		if cs.stack != &cs.noAlias {
			return cs.doArgs(func() error {
				return cs.runRet(args[0].Code())
			})
		}
		return cs.runRet(args[0].Code())
	})

	s.addSpecial("if", "tee", IdentIf, func(cs *State, args []Value) error {
		if args[0].GetBool() {
			return cs.runRet(args[1].Code())
		}
		return cs.runRet(args[2].Code())
	})

	s.addSpecial("result", "T", IdentResult, func(cs *State, args []Value) error {
		cs.SetResult(args[0])
		args[0] = Value{}
		return nil
	})

	s.addSpecial("!", "t", IdentNot, func(cs *State, args []Value) error {
		if args[0].GetBool() {
			cs.SetResultInt(0)
		} else {
			cs.SetResultInt(1)
		}
		return nil
	})

	s.addSpecial("&&", "E1V", IdentAnd, func(cs *State, args []Value) error {
		if len(args) == 0 {
			cs.SetResultInt(1)
			return nil
		}
		for i := range args {
			if args[i].kind == KindCode {
				if err := cs.runRet(args[i].code); err != nil {
					return err
				}
			} else {
				cs.SetResult(args[i])
				args[i] = Value{}
			}
			if !cs.result.GetBool() {
				break
			}
		}
		return nil
	})

	s.addSpecial("||", "E1V", IdentOr, func(cs *State, args []Value) error {
		if len(args) == 0 {
			cs.SetResultInt(0)
			return nil
		}
		for i := range args {
			if args[i].kind == KindCode {
				if err := cs.runRet(args[i].code); err != nil {
					return err
				}
			} else {
				cs.SetResult(args[i])
				args[i] = Value{}
			}
			if cs.result.GetBool() {
				break
			}
		}
		return nil
	})

	s.addSpecial("local", "", IdentLocal, nil)

	s.addSpecial("break", "", IdentBreak, func(cs *State, args []Value) error {
		if cs.loopLevel > 0 {
			return errBreak
		}
		return cs.newError("no loop to break")
	})

	s.addSpecial("continue", "", IdentContinue, func(cs *State, args []Value) error {
		if cs.loopLevel > 0 {
			return errContinue
		}
		return cs.newError("no loop to continue")
	})

	s.mustCommand("?", "tTT", func(cs *State, args []Value) error {
		var pick int
		if args[0].GetBool() {
			pick = 1
		} else {
			pick = 2
		}
		cs.SetResult(args[pick])
		args[pick] = Value{}
		return nil
	})

	s.mustCommand("cond", "ee2V", func(cs *State, args []Value) error {
		for i := 0; i < len(args); i += 2 {
			if i+1 < len(args) {
				b, err := cs.runCodeBool(args[i].Code())
				if err != nil {
					return err
				}
				if b {
					return cs.runRet(args[i+1].Code())
				}
			} else {
				return cs.runRet(args[i].Code())
			}
		}
		return nil
	})

	s.mustCommand("case", "ite2V", func(cs *State, args []Value) error {
		val := args[0].GetInt()
		for i := 1; i+1 < len(args); i += 2 {
			if args[i].kind == KindNull || args[i].GetInt() == val {
				return cs.runRet(args[i+1].Code())
			}
		}
		return nil
	})

	s.mustCommand("casef", "fte2V", func(cs *State, args []Value) error {
		val := args[0].GetFloat()
		for i := 1; i+1 < len(args); i += 2 {
			if args[i].kind == KindNull || args[i].GetFloat() == val {
				return cs.runRet(args[i+1].Code())
			}
		}
		return nil
	})

	s.mustCommand("cases", "ste2V", func(cs *State, args []Value) error {
		val := args[0].GetStr()
		for i := 1; i+1 < len(args); i += 2 {
			if args[i].kind == KindNull || args[i].GetStr() == val {
				return cs.runRet(args[i+1].Code())
			}
		}
		return nil
	})

	s.mustCommand("push", "rTe", func(cs *State, args []Value) error {
		id := args[0].Ident()
		if id.typ != IdentAlias || id.index < MaxArguments {
			return nil
		}
		var st identStack
		id.pushArg(args[1], &st, true)
		args[1] = Value{}
		err := cs.runRet(args[2].Code())
		id.popArg()
		return err
	})

	s.mustCommand("pushif", "rTe", func(cs *State, args []Value) error {
		id := args[0].Ident()
		if id.typ != IdentAlias || id.index < MaxArguments {
			return nil
		}
		if !args[1].GetBool() {
			return nil
		}
		var st identStack
		id.pushArg(args[1], &st, true)
		args[1] = Value{}
		err := cs.runRet(args[2].Code())
		id.popArg()
		return err
	})

	s.mustCommand("alias", "sT", func(cs *State, args []Value) error {
		cs.SetAlias(args[0].GetStr(), args[1])
		args[1] = Value{}
		return nil
	})

	s.mustCommand("nodebug", "e", func(cs *State, args []Value) error {
		cs.noDebug++
		err := cs.runRet(args[0].Code())
		cs.noDebug--
		return err
	})

	s.mustCommand("resetvar", "s", func(cs *State, args []Value) error {
		if cs.ResetVar(args[0].GetStr()) {
			cs.SetResultInt(1)
		} else {
			cs.SetResultInt(0)
		}
		return nil
	})

	s.mustCommand("getvarmin", "s", func(cs *State, args []Value) error {
		v, _ := cs.GetVarMinInt(args[0].GetStr())
		cs.SetResultInt(v)
		return nil
	})
	s.mustCommand("getvarmax", "s", func(cs *State, args []Value) error {
		v, _ := cs.GetVarMaxInt(args[0].GetStr())
		cs.SetResultInt(v)
		return nil
	})
	s.mustCommand("getfvarmin", "s", func(cs *State, args []Value) error {
		v, _ := cs.GetVarMinFloat(args[0].GetStr())
		cs.SetResultFloat(v)
		return nil
	})
	s.mustCommand("getfvarmax", "s", func(cs *State, args []Value) error {
		v, _ := cs.GetVarMaxFloat(args[0].GetStr())
		cs.SetResultFloat(v)
		return nil
	})

	s.mustCommand("identexists", "s", func(cs *State, args []Value) error {
		if cs.HaveIdent(args[0].GetStr()) {
			cs.SetResultInt(1)
		} else {
			cs.SetResultInt(0)
		}
		return nil
	})

	s.mustCommand("getalias", "s", func(cs *State, args []Value) error {
		v, _ := cs.GetAlias(args[0].GetStr())
		cs.SetResultStr(v)
		return nil
	})

	registerBaseLoops(s)
}

func registerBaseLoops(s *State) {
	s.mustCommand("loop", "rie", func(cs *State, args []Value) error {
		return cs.doLoop(args[0].Ident(), 0, args[1].GetInt(), 1, codeRef{}, args[2].Code())
	})
	s.mustCommand("loop+", "riie", func(cs *State, args []Value) error {
		return cs.doLoop(args[0].Ident(), args[1].GetInt(), args[2].GetInt(), 1, codeRef{}, args[3].Code())
	})
	s.mustCommand("loop*", "riie", func(cs *State, args []Value) error {
		return cs.doLoop(args[0].Ident(), 0, args[2].GetInt(), args[1].GetInt(), codeRef{}, args[3].Code())
	})
	s.mustCommand("loop+*", "riiie", func(cs *State, args []Value) error {
		return cs.doLoop(args[0].Ident(), args[1].GetInt(), args[3].GetInt(), args[2].GetInt(), codeRef{}, args[4].Code())
	})

	s.mustCommand("loopwhile", "riee", func(cs *State, args []Value) error {
		return cs.doLoop(args[0].Ident(), 0, args[1].GetInt(), 1, args[2].Code(), args[3].Code())
	})
	s.mustCommand("loopwhile+", "riiee", func(cs *State, args []Value) error {
		return cs.doLoop(args[0].Ident(), args[1].GetInt(), args[2].GetInt(), 1, args[3].Code(), args[4].Code())
	})
	s.mustCommand("loopwhile*", "riiee", func(cs *State, args []Value) error {
		return cs.doLoop(args[0].Ident(), 0, args[2].GetInt(), args[1].GetInt(), args[3].Code(), args[4].Code())
	})
	s.mustCommand("loopwhile+*", "riiiee", func(cs *State, args []Value) error {
		return cs.doLoop(args[0].Ident(), args[1].GetInt(), args[3].GetInt(), args[2].GetInt(), args[4].Code(), args[5].Code())
	})

	s.mustCommand("while", "ee", func(cs *State, args []Value) error {
		cond, body := args[0].Code(), args[1].Code()
		for {
			b, err := cs.runCodeBool(cond)
			if err != nil {
				return err
			}
			if !b {
				return nil
			}
			cont, err := cs.runLoopBody(body)
			if err != nil {
				return err
			}
			if !cont {
				return nil
			}
		}
	})

	s.mustCommand("loopconcat", "rie", func(cs *State, args []Value) error {
		return cs.loopConc(args[0].Ident(), 0, args[1].GetInt(), 1, args[2].Code(), true)
	})
	s.mustCommand("loopconcat+", "riie", func(cs *State, args []Value) error {
		return cs.loopConc(args[0].Ident(), args[1].GetInt(), args[2].GetInt(), 1, args[3].Code(), true)
	})
	s.mustCommand("loopconcat*", "riie", func(cs *State, args []Value) error {
		return cs.loopConc(args[0].Ident(), 0, args[2].GetInt(), args[1].GetInt(), args[3].Code(), true)
	})
	s.mustCommand("loopconcat+*", "riiie", func(cs *State, args []Value) error {
		return cs.loopConc(args[0].Ident(), args[1].GetInt(), args[3].GetInt(), args[2].GetInt(), args[4].Code(), true)
	})

	s.mustCommand("loopconcatword", "rie", func(cs *State, args []Value) error {
		return cs.loopConc(args[0].Ident(), 0, args[1].GetInt(), 1, args[2].Code(), false)
	})
	s.mustCommand("loopconcatword+", "riie", func(cs *State, args []Value) error {
		return cs.loopConc(args[0].Ident(), args[1].GetInt(), args[2].GetInt(), 1, args[3].Code(), false)
	})
	s.mustCommand("loopconcatword*", "riie", func(cs *State, args []Value) error {
		return cs.loopConc(args[0].Ident(), 0, args[2].GetInt(), args[1].GetInt(), args[3].Code(), false)
	})
	s.mustCommand("loopconcatword+*", "riiie", func(cs *State, args []Value) error {
		return cs.loopConc(args[0].Ident(), args[1].GetInt(), args[3].GetInt(), args[2].GetInt(), args[4].Code(), false)
	})
}
