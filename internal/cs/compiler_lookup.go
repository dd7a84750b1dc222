package cs

// compileLookup compiles a `$` word: $name, $(expr), $[expr], $"..." or a
// chained $$. When the referenced name resolves at compile time the lookup
// specializes on the ident's kind; otherwise a late-bound lookup instruction
// is emitted.
func compileLookup(gs *genState, ltype, prevargs int) {
	var lookup string
	gs.pos++
	switch gs.current() {
	case '(', '[':
		if !compileArg(gs, valCstr, prevargs, nil) {
			goto invalid
		}
		goto lookupu
	case '$':
		compileLookup(gs, valCstr, prevargs)
		goto lookupu
	case '"':
		lookup = gs.cutString()
		goto lookupid
	default:
		var ok bool
		lookup, ok = gs.cutWord()
		if !ok {
			goto invalid
		}
		goto lookupid
	}

lookupid:
	{
		id := gs.cs.newIdent(lookup, 0)
		switch id.typ {
		case IdentIVar:
			gs.code = append(gs.code, OP_IVAR|retCode(ltype, retInt)|uint32(id.index)<<8)
			switch ltype {
			case valPop:
				gs.code = gs.code[:len(gs.code)-1]
			case valCode:
				gs.code = append(gs.code, OP_COMPILE)
			case valIdent:
				gs.code = append(gs.code, OP_IDENT_U)
			}
			return
		case IdentFVar:
			gs.code = append(gs.code, OP_FVAR|retCode(ltype, retFloat)|uint32(id.index)<<8)
			switch ltype {
			case valPop:
				gs.code = gs.code[:len(gs.code)-1]
			case valCode:
				gs.code = append(gs.code, OP_COMPILE)
			case valIdent:
				gs.code = append(gs.code, OP_IDENT_U)
			}
			return
		case IdentSVar:
			switch ltype {
			case valPop:
				return
			case valCany, valCstr, valCode, valIdent, valCond:
				gs.code = append(gs.code, OP_SVAR_M|uint32(id.index)<<8)
			default:
				gs.code = append(gs.code, OP_SVAR|retCode(ltype, retStr)|uint32(id.index)<<8)
			}
			goto done
		case IdentAlias:
			arg := id.index < MaxArguments
			switch ltype {
			case valPop:
				return
			case valCany, valCond:
				op := uint32(OP_LOOKUP_M)
				if arg {
					op = OP_LOOKUP_MARG
				}
				gs.code = append(gs.code, op|uint32(id.index)<<8)
			case valCstr, valCode, valIdent:
				op := uint32(OP_LOOKUP_M)
				if arg {
					op = OP_LOOKUP_MARG
				}
				gs.code = append(gs.code, op|retStr|uint32(id.index)<<8)
			default:
				op := uint32(OP_LOOKUP)
				if arg {
					op = OP_LOOKUP_ARG
				}
				gs.code = append(gs.code, op|retCode(ltype, retStr)|uint32(id.index)<<8)
			}
			goto done
		case IdentCommand:
			// a command lookup runs the command with synthesized defaults
			comtype := uint32(OP_COM)
			numargs := 0
			if prevargs >= MaxResults {
				gs.code = append(gs.code, OP_ENTER)
			}
			fmtStr := id.cargs
			for fi := 0; fi < len(fmtStr); fi++ {
				switch fmtStr[fi] {
				case 'S':
					gs.genEmptyStr()
					numargs++
				case 's':
					gs.genStr("", true)
					numargs++
				case 'i':
					gs.genInt(0)
					numargs++
				case 'b':
					gs.genInt(minIntSentinel)
					numargs++
				case 'f':
					gs.genFloat(0)
					numargs++
				case 'F':
					gs.code = append(gs.code, OP_DUP|retFloat)
					numargs++
				case 'E', 'T', 't':
					gs.genNull()
					numargs++
				case 'e':
					gs.code = append(gs.code, OP_EMPTY)
					numargs++
				case 'r':
					gs.genDummyIdent()
					numargs++
				case '$':
					gs.genIdent(id)
					numargs++
				case 'N':
					gs.genInt(-1)
					numargs++
				case 'C':
					comtype = OP_COM_C
				case 'V':
					comtype = OP_COM_V
				}
				if comtype != OP_COM {
					break
				}
			}
			if comtype == OP_COM {
				gs.code = append(gs.code, comtype|retCode(ltype, 0)|uint32(id.index)<<8)
			} else {
				gs.code = append(gs.code,
					comtype|retCode(ltype, 0)|uint32(numargs)<<8|uint32(id.index)<<13)
			}
			if prevargs >= MaxResults {
				gs.code = append(gs.code, OP_EXIT|retCode(ltype, 0))
			} else {
				gs.code = append(gs.code, OP_RESULT_ARG|retCode(ltype, 0))
			}
			goto done
		default:
			goto invalid
		}
	}

lookupu:
	switch ltype {
	case valCany, valCond:
		gs.code = append(gs.code, OP_LOOKUP_MU)
	case valCstr, valCode, valIdent:
		gs.code = append(gs.code, OP_LOOKUP_MU|retStr)
	default:
		gs.code = append(gs.code, OP_LOOKUP_U|retCode(ltype, 0))
	}

done:
	switch ltype {
	case valPop:
		gs.code = append(gs.code, OP_POP)
	case valCode:
		gs.code = append(gs.code, OP_COMPILE)
	case valCond:
		gs.code = append(gs.code, OP_COND)
	case valIdent:
		gs.code = append(gs.code, OP_IDENT_U)
	}
	return

invalid:
	switch ltype {
	case valPop:
	case valNull, valAny, valCany, valWord, valCond:
		gs.genNull()
	default:
		gs.genValue(ltype, "")
	}
}

// compileBlockSub compiles one `@` substitution inside a bracketed block:
// @(expr), @[lookup], @"name" or @name, where name is an alphanumeric run.
func compileBlockSub(gs *genState, prevargs int) bool {
	var lookup string
	switch gs.current() {
	case '(':
		return compileArg(gs, valCany, prevargs, nil)
	case '[':
		if !compileArg(gs, valCstr, prevargs, nil) {
			return false
		}
		gs.code = append(gs.code, OP_LOOKUP_MU)
		return true
	case '"':
		lookup = gs.cutString()
	default:
		start := gs.pos
		for isAlnum(gs.current()) || gs.current() == '_' {
			gs.pos++
		}
		lookup = gs.src[start:gs.pos]
		if lookup == "" {
			return false
		}
	}
	id := gs.cs.newIdent(lookup, 0)
	switch id.typ {
	case IdentIVar:
		gs.code = append(gs.code, OP_IVAR|uint32(id.index)<<8)
		return true
	case IdentFVar:
		gs.code = append(gs.code, OP_FVAR|uint32(id.index)<<8)
		return true
	case IdentSVar:
		gs.code = append(gs.code, OP_SVAR_M|uint32(id.index)<<8)
		return true
	case IdentAlias:
		op := uint32(OP_LOOKUP_M)
		if id.index < MaxArguments {
			op = OP_LOOKUP_MARG
		}
		gs.code = append(gs.code, op|uint32(id.index)<<8)
		return true
	}
	gs.genStr(lookup, true)
	gs.code = append(gs.code, OP_LOOKUP_MU)
	return true
}
