package cs

import (
	"fmt"
	"math"
)

// runCodeRef runs a code value from its entry position.
func (s *State) runCodeRef(c codeRef, result *Value) error {
	if c.isNull() {
		result.setNull()
		return nil
	}
	_, err := s.runCode(c.buf, c.pc, result)
	return err
}

// forceCode compiles a non-code value in place and returns the block.
func (s *State) forceCode(v *Value) codeRef {
	if v.kind != KindCode {
		code := s.compileRaw(v.GetStr())
		v.cleanup()
		v.setCode(code)
	}
	return v.code
}

// forceCond condition-coerces: a nonempty string compiles to code, an empty
// one becomes integer 0, everything else stays.
func (s *State) forceCond(v *Value) {
	if v.isString() {
		if v.s != "" {
			s.forceCode(v)
		} else {
			v.cleanup()
			v.setInt(0)
		}
	}
}

// runCode is the decode-and-dispatch loop. It executes buf from pc until the
// block's EXIT, leaving the block result in result, and returns the position
// just past the EXIT. Exceeding the recursion cap reports a diagnostic and
// skips the block.
func (s *State) runCode(buf []uint32, pc int, result *Value) (int, error) {
	result.setNull()
	if s.runDepth >= s.maxRunDepth {
		s.debugCode("exceeded recursion limit")
		if result == &s.noRet {
			return skipCode(buf, pc, nil), nil
		}
		return skipCode(buf, pc, result), nil
	}
	s.runDepth++
	numargs := 0
	var args [MaxArguments + MaxResults]Value
	prevret := s.result
	s.result = result
	var rerr error

	for {
		if s.hook != nil {
			if err := s.hook(s); err != nil {
				rerr = err
				goto exit
			}
		}
		op := buf[pc]
		pc++
		switch op & 0xFF {
		case OP_START, OP_OFFSET:
			continue

		case OP_NULL | retNull:
			result.cleanup()
		case OP_NULL | retStr:
			result.cleanup()
			result.setStr("")
		case OP_NULL | retInt:
			result.cleanup()
			result.setInt(0)
		case OP_NULL | retFloat:
			result.cleanup()
			result.setFloat(0)

		case OP_FALSE | retStr:
			result.cleanup()
			result.setStr("0")
		case OP_FALSE | retNull, OP_FALSE | retInt:
			result.cleanup()
			result.setInt(0)
		case OP_FALSE | retFloat:
			result.cleanup()
			result.setFloat(0)

		case OP_TRUE | retStr:
			result.cleanup()
			result.setStr("1")
		case OP_TRUE | retNull, OP_TRUE | retInt:
			result.cleanup()
			result.setInt(1)
		case OP_TRUE | retFloat:
			result.cleanup()
			result.setFloat(1)

		case OP_NOT | retStr:
			result.cleanup()
			numargs--
			if args[numargs].GetBool() {
				result.setStr("0")
			} else {
				result.setStr("1")
			}
			args[numargs].cleanup()
		case OP_NOT | retNull, OP_NOT | retInt:
			result.cleanup()
			numargs--
			if args[numargs].GetBool() {
				result.setInt(0)
			} else {
				result.setInt(1)
			}
			args[numargs].cleanup()
		case OP_NOT | retFloat:
			result.cleanup()
			numargs--
			if args[numargs].GetBool() {
				result.setFloat(0)
			} else {
				result.setFloat(1)
			}
			args[numargs].cleanup()

		case OP_POP:
			numargs--
			args[numargs].cleanup()

		case OP_ENTER:
			pc, rerr = s.runCode(buf, pc, &args[numargs])
			numargs++
			if rerr != nil {
				goto exit
			}
		case OP_ENTER_RESULT:
			result.cleanup()
			pc, rerr = s.runCode(buf, pc, result)
			if rerr != nil {
				goto exit
			}

		case OP_EXIT | retStr, OP_EXIT | retInt, OP_EXIT | retFloat:
			result.force(op)
			goto exit
		case OP_EXIT | retNull:
			goto exit

		case OP_RESULT_ARG | retStr, OP_RESULT_ARG | retInt, OP_RESULT_ARG | retFloat:
			result.force(op)
			args[numargs] = *result
			*result = Value{}
			numargs++
		case OP_RESULT_ARG | retNull:
			args[numargs] = *result
			*result = Value{}
			numargs++

		case OP_PRINT:
			s.printVar(s.w.identMap[op>>8])

		case OP_LOCAL:
			result.cleanup()
			numlocals := int(op >> 8)
			offset := numargs - numlocals
			locals := make([]identStack, MaxArguments)
			for i := 0; i < numlocals; i++ {
				args[offset+i].id.pushAlias(&locals[i])
			}
			pc, rerr = s.runCode(buf, pc, result)
			for i := offset; i < numargs; i++ {
				args[i].id.popAlias()
			}
			goto exit

		case OP_DO_ARGS | retNull, OP_DO_ARGS | retStr, OP_DO_ARGS | retInt, OP_DO_ARGS | retFloat:
			numargs--
			v := args[numargs]
			args[numargs] = Value{}
			if s.stack != &s.noAlias {
				rerr = s.doArgs(func() error {
					result.cleanup()
					return s.runCodeRef(v.Code(), result)
				})
			} else {
				result.cleanup()
				rerr = s.runCodeRef(v.Code(), result)
			}
			v.cleanup()
			result.force(op)
			if rerr != nil {
				goto exit
			}

		case OP_DO | retNull, OP_DO | retStr, OP_DO | retInt, OP_DO | retFloat:
			numargs--
			v := args[numargs]
			args[numargs] = Value{}
			result.cleanup()
			rerr = s.runCodeRef(v.Code(), result)
			v.cleanup()
			result.force(op)
			if rerr != nil {
				goto exit
			}

		case OP_JUMP:
			pc += int(op >> 8)
		case OP_JUMP_TRUE:
			numargs--
			if args[numargs].GetBool() {
				pc += int(op >> 8)
			}
			args[numargs].cleanup()
		case OP_JUMP_FALSE:
			numargs--
			if !args[numargs].GetBool() {
				pc += int(op >> 8)
			}
			args[numargs].cleanup()
		case OP_JUMP_RESULT_TRUE:
			result.cleanup()
			numargs--
			if args[numargs].kind == KindCode {
				rerr = s.runCodeRef(args[numargs].code, result)
				args[numargs].cleanup()
				if rerr != nil {
					goto exit
				}
			} else {
				*result = args[numargs]
				args[numargs] = Value{}
			}
			if result.GetBool() {
				pc += int(op >> 8)
			}
		case OP_JUMP_RESULT_FALSE:
			result.cleanup()
			numargs--
			if args[numargs].kind == KindCode {
				rerr = s.runCodeRef(args[numargs].code, result)
				args[numargs].cleanup()
				if rerr != nil {
					goto exit
				}
			} else {
				*result = args[numargs]
				args[numargs] = Value{}
			}
			if !result.GetBool() {
				pc += int(op >> 8)
			}

		case OP_MACRO:
			n := int(op >> 8)
			args[numargs].setMacro(wordString(buf, pc, n))
			numargs++
			pc += stringWordCount(n)

		case OP_VAL | retStr:
			n := int(op >> 8)
			args[numargs].setStr(wordString(buf, pc, n))
			numargs++
			pc += stringWordCount(n)
		case OP_VAL_INLINE | retStr:
			var b [3]byte
			n := 0
			for i := 0; i < 3; i++ {
				c := byte(op >> ((i + 1) * 8))
				if c == 0 {
					break
				}
				b[i] = c
				n++
			}
			args[numargs].setStr(string(b[:n]))
			numargs++
		case OP_VAL | retNull, OP_VAL_INLINE | retNull:
			args[numargs].setNull()
			numargs++
		case OP_VAL | retInt:
			args[numargs].setInt(int64(uint64(buf[pc]) | uint64(buf[pc+1])<<32))
			numargs++
			pc += 2
		case OP_VAL_INLINE | retInt:
			args[numargs].setInt(int64(int32(op) >> 8))
			numargs++
		case OP_VAL | retFloat:
			args[numargs].setFloat(math.Float64frombits(uint64(buf[pc]) | uint64(buf[pc+1])<<32))
			numargs++
			pc += 2
		case OP_VAL_INLINE | retFloat:
			args[numargs].setFloat(float64(int32(op) >> 8))
			numargs++

		case OP_DUP | retNull:
			args[numargs] = args[numargs-1].getVal()
			numargs++
		case OP_DUP | retInt:
			args[numargs].setInt(args[numargs-1].GetInt())
			numargs++
		case OP_DUP | retFloat:
			args[numargs].setFloat(args[numargs-1].GetFloat())
			numargs++
		case OP_DUP | retStr:
			args[numargs].setStr(args[numargs-1].GetStr())
			numargs++

		case OP_FORCE | retStr:
			args[numargs-1].forceStr()
		case OP_FORCE | retInt:
			args[numargs-1].forceInt()
		case OP_FORCE | retFloat:
			args[numargs-1].forceFloat()

		case OP_RESULT | retNull:
			result.cleanup()
			numargs--
			*result = args[numargs]
			args[numargs] = Value{}
		case OP_RESULT | retStr, OP_RESULT | retInt, OP_RESULT | retFloat:
			result.cleanup()
			numargs--
			*result = args[numargs]
			args[numargs] = Value{}
			result.force(op)

		case OP_EMPTY | retNull:
			args[numargs].setCode(emptyCode(valNull))
			numargs++
		case OP_EMPTY | retStr:
			args[numargs].setCode(emptyCode(valStr))
			numargs++
		case OP_EMPTY | retInt:
			args[numargs].setCode(emptyCode(valInt))
			numargs++
		case OP_EMPTY | retFloat:
			args[numargs].setCode(emptyCode(valFloat))
			numargs++

		case OP_BLOCK:
			args[numargs].setCode(codeRef{buf: buf, pc: pc + 1})
			numargs++
			pc += int(op >> 8)

		case OP_COMPILE:
			arg := &args[numargs-1]
			switch arg.kind {
			case KindInt:
				gs := genState{cs: s, code: make([]uint32, 0, 8)}
				gs.code = append(gs.code, OP_START)
				gs.genInt(arg.i)
				gs.code = append(gs.code, OP_RESULT)
				gs.code = append(gs.code, OP_EXIT)
				arg.setCode(codeRef{buf: gs.code, pc: 1})
			case KindFloat:
				gs := genState{cs: s, code: make([]uint32, 0, 8)}
				gs.code = append(gs.code, OP_START)
				gs.genFloat(arg.f)
				gs.code = append(gs.code, OP_RESULT)
				gs.code = append(gs.code, OP_EXIT)
				arg.setCode(codeRef{buf: gs.code, pc: 1})
			case KindString, KindMacro:
				src := arg.s
				arg.cleanup()
				arg.setCode(s.compileRaw(src))
			case KindCode:
				// already compiled
			default:
				gs := genState{cs: s, code: make([]uint32, 0, 8)}
				gs.code = append(gs.code, OP_START)
				gs.genNull()
				gs.code = append(gs.code, OP_RESULT)
				gs.code = append(gs.code, OP_EXIT)
				arg.setCode(codeRef{buf: gs.code, pc: 1})
			}

		case OP_COND:
			s.forceCond(&args[numargs-1])

		case OP_IDENT:
			args[numargs].setIdent(s.w.identMap[op>>8])
			numargs++
		case OP_IDENT_ARG:
			id := s.w.identMap[op>>8]
			if s.stack.usedArgs&(1<<uint(id.index)) == 0 {
				id.pushArg(Value{}, &s.stack.argStack[id.index], false)
				s.stack.usedArgs |= 1 << uint(id.index)
			}
			args[numargs].setIdent(id)
			numargs++
		case OP_IDENT_U:
			arg := &args[numargs-1]
			var id *Ident
			if arg.isString() {
				id = s.newIdent(arg.s, 0)
			} else {
				id = s.w.dummy
			}
			if id.index < MaxArguments && s.stack.usedArgs&(1<<uint(id.index)) == 0 {
				id.pushArg(Value{}, &s.stack.argStack[id.index], false)
				s.stack.usedArgs |= 1 << uint(id.index)
			}
			arg.cleanup()
			arg.setIdent(id)

		case OP_LOOKUP_U | retStr, OP_LOOKUP_U | retInt, OP_LOOKUP_U | retFloat, OP_LOOKUP_U | retNull,
			OP_LOOKUP_MU | retStr, OP_LOOKUP_MU | retNull:
			rerr = s.lookupUnknown(op, &args[numargs-1])
			if rerr != nil {
				goto exit
			}

		case OP_LOOKUP | retStr:
			id := s.lookupKnown(op)
			args[numargs].setStr(id.getStr())
			numargs++
		case OP_LOOKUP | retInt:
			id := s.lookupKnown(op)
			args[numargs].setInt(id.getInt())
			numargs++
		case OP_LOOKUP | retFloat:
			id := s.lookupKnown(op)
			args[numargs].setFloat(id.getFloat())
			numargs++
		case OP_LOOKUP | retNull:
			id := s.lookupKnown(op)
			args[numargs] = id.getVal()
			numargs++
		case OP_LOOKUP_M | retStr:
			id := s.lookupKnown(op)
			args[numargs] = id.getCstr()
			numargs++
		case OP_LOOKUP_M | retNull:
			id := s.lookupKnown(op)
			args[numargs] = id.getCval()
			numargs++

		case OP_LOOKUP_ARG | retStr:
			id := s.w.identMap[op>>8]
			if s.stack.usedArgs&(1<<uint(id.index)) == 0 {
				args[numargs].setStr("")
			} else {
				args[numargs].setStr(id.getStr())
			}
			numargs++
		case OP_LOOKUP_ARG | retInt:
			id := s.w.identMap[op>>8]
			if s.stack.usedArgs&(1<<uint(id.index)) == 0 {
				args[numargs].setInt(0)
			} else {
				args[numargs].setInt(id.getInt())
			}
			numargs++
		case OP_LOOKUP_ARG | retFloat:
			id := s.w.identMap[op>>8]
			if s.stack.usedArgs&(1<<uint(id.index)) == 0 {
				args[numargs].setFloat(0)
			} else {
				args[numargs].setFloat(id.getFloat())
			}
			numargs++
		case OP_LOOKUP_ARG | retNull:
			id := s.w.identMap[op>>8]
			if s.stack.usedArgs&(1<<uint(id.index)) == 0 {
				args[numargs].setNull()
			} else {
				args[numargs] = id.getVal()
			}
			numargs++
		case OP_LOOKUP_MARG | retStr:
			id := s.w.identMap[op>>8]
			if s.stack.usedArgs&(1<<uint(id.index)) == 0 {
				args[numargs].setMacro("")
			} else {
				args[numargs] = id.getCstr()
			}
			numargs++
		case OP_LOOKUP_MARG | retNull:
			id := s.w.identMap[op>>8]
			if s.stack.usedArgs&(1<<uint(id.index)) == 0 {
				args[numargs].setNull()
			} else {
				args[numargs] = id.getCval()
			}
			numargs++

		case OP_SVAR | retStr, OP_SVAR | retNull:
			args[numargs].setStr(s.w.identMap[op>>8].storageS)
			numargs++
		case OP_SVAR | retInt:
			args[numargs].setInt(parseInt(s.w.identMap[op>>8].storageS))
			numargs++
		case OP_SVAR | retFloat:
			args[numargs].setFloat(parseFloat(s.w.identMap[op>>8].storageS))
			numargs++
		case OP_SVAR_M:
			args[numargs].setMacro(s.w.identMap[op>>8].storageS)
			numargs++
		case OP_SVAR1:
			numargs--
			s.setVarStrChecked(s.w.identMap[op>>8], args[numargs].GetStr())
			args[numargs].cleanup()

		case OP_IVAR | retInt, OP_IVAR | retNull:
			args[numargs].setInt(s.w.identMap[op>>8].storageI)
			numargs++
		case OP_IVAR | retStr:
			args[numargs].setStr(intToString(s.w.identMap[op>>8].storageI))
			numargs++
		case OP_IVAR | retFloat:
			args[numargs].setFloat(float64(s.w.identMap[op>>8].storageI))
			numargs++
		case OP_IVAR1:
			numargs--
			s.setVarIntChecked(s.w.identMap[op>>8], args[numargs].GetInt())
		case OP_IVAR2:
			numargs -= 2
			s.setVarIntChecked(s.w.identMap[op>>8],
				args[numargs].GetInt()<<16|args[numargs+1].GetInt()<<8)
		case OP_IVAR3:
			numargs -= 3
			s.setVarIntChecked(s.w.identMap[op>>8],
				args[numargs].GetInt()<<16|args[numargs+1].GetInt()<<8|args[numargs+2].GetInt())

		case OP_FVAR | retFloat, OP_FVAR | retNull:
			args[numargs].setFloat(s.w.identMap[op>>8].storageF)
			numargs++
		case OP_FVAR | retStr:
			args[numargs].setStr(floatToString(s.w.identMap[op>>8].storageF))
			numargs++
		case OP_FVAR | retInt:
			args[numargs].setInt(int64(s.w.identMap[op>>8].storageF))
			numargs++
		case OP_FVAR1:
			numargs--
			s.setVarFloatChecked(s.w.identMap[op>>8], args[numargs].GetFloat())

		case OP_COM | retNull, OP_COM | retStr, OP_COM | retFloat, OP_COM | retInt:
			id := s.w.identMap[op>>8]
			offset := numargs - id.numArgs
			result.forceNull()
			rerr = id.cb(s, args[offset:offset+id.numArgs])
			result.force(op)
			freeArgs(args[:], &numargs, offset)
			if rerr != nil {
				goto exit
			}

		case OP_COM_V | retNull, OP_COM_V | retStr, OP_COM_V | retFloat, OP_COM_V | retInt:
			id := s.w.identMap[op>>13]
			callargs := int(op>>8) & 0x1F
			offset := numargs - callargs
			result.forceNull()
			rerr = id.cb(s, args[offset:offset+callargs])
			result.force(op)
			freeArgs(args[:], &numargs, offset)
			if rerr != nil {
				goto exit
			}

		case OP_COM_C | retNull, OP_COM_C | retStr, OP_COM_C | retFloat, OP_COM_C | retInt:
			id := s.w.identMap[op>>13]
			callargs := int(op>>8) & 0x1F
			offset := numargs - callargs
			result.forceNull()
			tv := []Value{StrVal(conc(args[offset:offset+callargs], true))}
			rerr = id.cb(s, tv)
			tv[0].cleanup()
			result.force(op)
			freeArgs(args[:], &numargs, offset)
			if rerr != nil {
				goto exit
			}

		case OP_CONC | retNull, OP_CONC | retStr, OP_CONC | retFloat, OP_CONC | retInt,
			OP_CONC_W | retNull, OP_CONC_W | retStr, OP_CONC_W | retFloat, OP_CONC_W | retInt:
			numconc := int(op >> 8)
			str := conc(args[numargs-numconc:numargs], op&opMask == OP_CONC)
			freeArgs(args[:], &numargs, numargs-numconc)
			args[numargs].setStr(str)
			args[numargs].force(op)
			numargs++

		case OP_CONC_M | retNull, OP_CONC_M | retStr, OP_CONC_M | retFloat, OP_CONC_M | retInt:
			numconc := int(op >> 8)
			str := conc(args[numargs-numconc:numargs], false)
			freeArgs(args[:], &numargs, numargs-numconc)
			result.cleanup()
			result.setStr(str)
			result.force(op)

		case OP_ALIAS:
			numargs--
			s.w.identMap[op>>8].setAlias(s, args[numargs])
			args[numargs] = Value{}
		case OP_ALIAS_ARG:
			numargs--
			s.w.identMap[op>>8].setArg(s, args[numargs])
			args[numargs] = Value{}
		case OP_ALIAS_U:
			numargs -= 2
			s.SetAlias(args[numargs].GetStr(), args[numargs+1])
			args[numargs+1] = Value{}
			args[numargs].cleanup()

		case OP_CALL | retNull, OP_CALL | retStr, OP_CALL | retFloat, OP_CALL | retInt:
			result.forceNull()
			id := s.w.identMap[op>>13]
			callargs := int(op>>8) & 0x1F
			offset := numargs - callargs
			if id.flags&IdfUnknown != 0 {
				s.debugCode("unknown command: %s", id.name)
				freeArgs(args[:], &numargs, offset)
				result.force(op)
				continue
			}
			rerr = s.callAlias(id, args[:], offset, callargs, result, op)
			numargs = offset
			if rerr != nil {
				goto exit
			}

		case OP_CALL_ARG | retNull, OP_CALL_ARG | retStr, OP_CALL_ARG | retFloat, OP_CALL_ARG | retInt:
			result.forceNull()
			id := s.w.identMap[op>>13]
			callargs := int(op>>8) & 0x1F
			offset := numargs - callargs
			if s.stack.usedArgs&(1<<uint(id.index)) == 0 {
				freeArgs(args[:], &numargs, offset)
				result.force(op)
				continue
			}
			rerr = s.callAlias(id, args[:], offset, callargs, result, op)
			numargs = offset
			if rerr != nil {
				goto exit
			}

		case OP_CALL_U | retNull, OP_CALL_U | retStr, OP_CALL_U | retFloat, OP_CALL_U | retInt:
			callargs := int(op >> 8)
			offset := numargs - callargs
			idarg := &args[offset-1]
			if !idarg.isString() {
				// a literal in call position is its own result
				result.cleanup()
				*result = *idarg
				*idarg = Value{}
				result.force(op)
				freeArgs(args[:], &numargs, offset)
				numargs = offset - 1
				continue
			}
			id := s.w.idents[idarg.s]
			if id == nil {
				if checkNum(idarg.s) {
					result.cleanup()
					*result = *idarg
					*idarg = Value{}
					result.force(op)
					freeArgs(args[:], &numargs, offset)
					numargs = offset - 1
					continue
				}
				s.debugCode("unknown command: %s", idarg.s)
				result.forceNull()
				freeArgs(args[:], &numargs, offset-1)
				result.force(op)
				continue
			}
			result.forceNull()
			switch id.typ {
			case IdentCommand, IdentDo, IdentDoArgs, IdentIf, IdentResult,
				IdentNot, IdentAnd, IdentOr, IdentBreak, IdentContinue:
				idarg.cleanup()
				rerr = s.callCommand(id, args[offset:offset+callargs], false)
				zeroArgs(args[offset:offset+callargs])
				result.force(op)
				numargs = offset - 1
				if rerr != nil {
					goto exit
				}
			case IdentLocal:
				idarg.cleanup()
				locals := make([]identStack, MaxArguments)
				for j := 0; j < callargs; j++ {
					s.ForceIdent(&args[offset+j]).pushAlias(&locals[j])
				}
				pc, rerr = s.runCode(buf, pc, result)
				for j := 0; j < callargs; j++ {
					args[offset+j].id.popAlias()
				}
				goto exit
			case IdentIVar:
				if callargs <= 0 {
					s.printVar(id)
				} else {
					s.setVarIntHex(id, args[offset:offset+callargs])
				}
				freeArgs(args[:], &numargs, offset-1)
				result.force(op)
			case IdentFVar:
				if callargs <= 0 {
					s.printVar(id)
				} else {
					s.setVarFloatChecked(id, args[offset].forceFloat())
				}
				freeArgs(args[:], &numargs, offset-1)
				result.force(op)
			case IdentSVar:
				if callargs <= 0 {
					s.printVar(id)
				} else {
					s.setVarStrChecked(id, args[offset].forceStr())
				}
				freeArgs(args[:], &numargs, offset-1)
				result.force(op)
			case IdentAlias:
				if id.index < MaxArguments && s.stack.usedArgs&(1<<uint(id.index)) == 0 {
					freeArgs(args[:], &numargs, offset-1)
					result.force(op)
					continue
				}
				if id.val.kind == KindNull {
					s.debugCode("unknown command: %s", idarg.s)
					result.forceNull()
					freeArgs(args[:], &numargs, offset-1)
					result.force(op)
					continue
				}
				idarg.cleanup()
				rerr = s.callAlias(id, args[:], offset, callargs, result, op)
				numargs = offset - 1
				if rerr != nil {
					goto exit
				}
			default:
				freeArgs(args[:], &numargs, offset-1)
				result.force(op)
			}

		default:
			rerr = fmt.Errorf("%w: invalid opcode %d", ErrInternal, op&opMask)
			goto exit
		}
	}

exit:
	for i := 0; i < numargs; i++ {
		args[i].cleanup()
	}
	s.result = prevret
	s.runDepth--
	return pc, rerr
}

// lookupKnown resolves a compile-time-specialized lookup, warning when the
// target is still an undefined placeholder.
func (s *State) lookupKnown(op uint32) *Ident {
	id := s.w.identMap[op>>8]
	if id.flags&IdfUnknown != 0 {
		s.debugCode("unknown alias lookup: %s", id.name)
	}
	return id
}

// lookupUnknown resolves a late-bound `$` lookup: the stack top holds the
// name; it is replaced by the named ident's value in the representation the
// op's ret bits request.
func (s *State) lookupUnknown(op uint32, arg *Value) error {
	if !arg.isString() {
		return nil
	}
	macro := op&opMask == OP_LOOKUP_MU
	id := s.w.idents[arg.s]
	if id != nil {
		switch id.typ {
		case IdentAlias:
			if id.flags&IdfUnknown != 0 {
				break
			}
			arg.cleanup()
			if id.index < MaxArguments && s.stack.usedArgs&(1<<uint(id.index)) == 0 {
				s.lookupMissing(op, arg, macro)
				return nil
			}
			switch {
			case macro && op&retMask == retStr:
				*arg = id.getCstr()
			case macro:
				*arg = id.getCval()
			case op&retMask == retStr:
				arg.setStr(id.getStr())
			case op&retMask == retInt:
				arg.setInt(id.getInt())
			case op&retMask == retFloat:
				arg.setFloat(id.getFloat())
			default:
				*arg = id.getVal()
			}
			return nil
		case IdentSVar:
			arg.cleanup()
			switch op & retMask {
			case retInt:
				arg.setInt(parseInt(id.storageS))
			case retFloat:
				arg.setFloat(parseFloat(id.storageS))
			default:
				if macro {
					arg.setMacro(id.storageS)
				} else {
					arg.setStr(id.storageS)
				}
			}
			return nil
		case IdentIVar:
			arg.cleanup()
			switch op & retMask {
			case retStr:
				arg.setStr(intToString(id.storageI))
			case retFloat:
				arg.setFloat(float64(id.storageI))
			default:
				arg.setInt(id.storageI)
			}
			return nil
		case IdentFVar:
			arg.cleanup()
			switch op & retMask {
			case retStr:
				arg.setStr(floatToString(id.storageF))
			case retInt:
				arg.setInt(int64(id.storageF))
			default:
				arg.setFloat(id.storageF)
			}
			return nil
		case IdentCommand:
			arg.cleanup()
			arg.setNull()
			prevres := s.result
			s.result = arg
			err := s.callCommand(id, nil, true)
			arg.force(op & retMask)
			s.result = prevres
			return err
		default:
			arg.cleanup()
			s.lookupMissing(op, arg, macro)
			return nil
		}
	}
	s.debugCode("unknown alias lookup: %s", arg.s)
	arg.cleanup()
	s.lookupMissing(op, arg, macro)
	return nil
}

// lookupMissing fills arg with the empty value of the requested kind.
func (s *State) lookupMissing(op uint32, arg *Value, macro bool) {
	switch op & retMask {
	case retStr:
		if macro {
			arg.setMacro("")
		} else {
			arg.setStr("")
		}
	case retInt:
		arg.setInt(0)
	case retFloat:
		arg.setFloat(0)
	default:
		arg.setNull()
	}
}

func zeroArgs(args []Value) {
	for i := range args {
		args[i] = Value{}
	}
}

func freeArgs(args []Value, numargs *int, newnum int) {
	for i := newnum; i < *numargs; i++ {
		args[i].cleanup()
	}
	*numargs = newnum
}

// doArgs runs body with the caller's argument frame temporarily restored,
// so a wrapper alias can forward arg1..argN to its callee. Every used slot
// of the current frame is undone, the frame pointer moves to the caller,
// and everything is redone afterwards.
func (s *State) doArgs(body func() error) error {
	var argstack [MaxArguments]identStack
	mask := s.stack.usedArgs
	for i := 0; mask != 0; i, mask = i+1, mask>>1 {
		if mask&1 != 0 {
			s.w.identMap[i].undoArg(&argstack[i])
		}
	}
	prevstack := s.stack.next
	aliaslink := identLink{
		id:       s.stack.id,
		next:     s.stack,
		usedArgs: prevstack.usedArgs,
		argStack: prevstack.argStack,
	}
	s.stack = &aliaslink
	err := body()
	prevstack.usedArgs = aliaslink.usedArgs
	s.stack = aliaslink.next
	mask = s.stack.usedArgs
	for i := 0; mask != 0; i, mask = i+1, mask>>1 {
		if mask&1 != 0 {
			s.w.identMap[i].redoArg(&argstack[i])
		}
	}
	return err
}

// callAlias runs an alias body in a fresh argument frame: the actuals are
// pushed into the arg slots, the body is compiled on demand and cached, and
// the frame plus any extra bindings the body created are unwound afterwards.
func (s *State) callAlias(id *Ident, args []Value, offset, callargs int, result *Value, op uint32) error {
	argstack := make([]identStack, MaxArguments)
	for i := 0; i < callargs; i++ {
		s.w.identMap[i].pushArg(args[offset+i], &argstack[i], false)
		args[offset+i] = Value{}
	}
	oldNumArgs := s.w.numArgs.storageI
	s.w.numArgs.storageI = int64(callargs)
	oldFlags := s.identFlags
	s.identFlags |= id.flags & IdfOverridden
	aliaslink := identLink{
		id:       id,
		next:     s.stack,
		usedArgs: (1 << uint(callargs)) - 1,
		argStack: argstack,
	}
	s.stack = &aliaslink
	if id.code.isNull() {
		id.code = s.compile(id.getStr())
	}
	code := id.code
	bcodeRef(code)
	err := s.runCodeRef(code, result)
	bcodeUnref(code)
	s.stack = aliaslink.next
	s.identFlags = oldFlags
	for i := 0; i < callargs; i++ {
		s.w.identMap[i].popArg()
	}
	mask := aliaslink.usedArgs &^ ((1 << uint(callargs)) - 1)
	for i := callargs; mask != 0; i++ {
		if mask&(1<<uint(i)) != 0 {
			s.w.identMap[i].popArg()
			mask &^= 1 << uint(i)
		}
	}
	result.force(op)
	s.w.numArgs.storageI = oldNumArgs
	return err
}
