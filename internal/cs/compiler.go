package cs

import "math"

// genState is the code generator: a single-pass compiler from source text to
// the 32-bit instruction stream. Compilation is context-sensitive on word
// type: each call to compile one word is parameterized by the result class
// the surrounding construct expects, which drives instruction selection.
type genState struct {
	cs   *State
	code []uint32
	src  string
	pos  int
}

// at reads the byte at i, treating everything past the end as NUL.
func (gs *genState) at(i int) byte {
	if i >= 0 && i < len(gs.src) {
		return gs.src[i]
	}
	return 0
}

func (gs *genState) current() byte { return gs.at(gs.pos) }

func (gs *genState) next() byte {
	c := gs.at(gs.pos)
	gs.pos++
	return c
}

// skipSpan advances while bytes belong to set.
func (gs *genState) skipSpan(set string) {
	for gs.pos < len(gs.src) && indexByte(set, gs.src[gs.pos]) {
		gs.pos++
	}
}

// skipUntil advances until a byte of set (or end of input).
func (gs *genState) skipUntil(set string) {
	for gs.pos < len(gs.src) && !indexByte(set, gs.src[gs.pos]) {
		gs.pos++
	}
}

func indexByte(set string, c byte) bool {
	for i := 0; i < len(set); i++ {
		if set[i] == c {
			return true
		}
	}
	return false
}

// skipComments consumes inline whitespace and // line comments.
func (gs *genState) skipComments() {
	for {
		gs.skipSpan(" \t\r")
		if gs.current() != '/' || gs.at(gs.pos+1) != '/' {
			return
		}
		gs.skipUntil("\n")
	}
}

// parseString returns the end position of a quoted-string body starting at
// pos: the position of the closing quote, line terminator or end of input.
// `^` escapes the following byte.
func (gs *genState) parseString(pos int) int {
	for pos < len(gs.src) {
		switch gs.src[pos] {
		case '\r', '\n', '"':
			return pos
		case '^':
			pos++
			if pos >= len(gs.src) {
				return pos
			}
		}
		pos++
	}
	return pos
}

// cutString consumes a quoted string at the current position (opening quote
// included) and returns its unescaped contents.
func (gs *genState) cutString() string {
	gs.pos++
	end := gs.parseString(gs.pos)
	s := UnescapeString(gs.src[gs.pos:end])
	gs.pos = end
	if gs.current() == '"' {
		gs.pos++
	}
	return s
}

const maxBrackets = 100

// parseWord returns the end position of a bareword starting at pos. Balanced
// bracket/paren pairs are allowed inside; an unbalanced closer ends the
// word.
func (gs *genState) parseWord(pos int) int {
	var brakStack [maxBrackets]byte
	brakDepth := 0
	for {
		for pos < len(gs.src) && !indexByte("\"/;()[] \t\r\n", gs.src[pos]) {
			pos++
		}
		if pos >= len(gs.src) {
			return pos
		}
		switch gs.src[pos] {
		case '"', ';', ' ', '\t', '\r', '\n':
			return pos
		case '/':
			if gs.at(pos+1) == '/' {
				return pos
			}
		case '[', '(':
			if brakDepth >= maxBrackets {
				return pos
			}
			brakStack[brakDepth] = gs.src[pos]
			brakDepth++
		case ']':
			if brakDepth <= 0 || brakStack[brakDepth-1] != '[' {
				return pos
			}
			brakDepth--
		case ')':
			if brakDepth <= 0 || brakStack[brakDepth-1] != '(' {
				return pos
			}
			brakDepth--
		}
		pos++
	}
}

// cutWord consumes a bareword and returns it; ok is false for an empty word.
func (gs *genState) cutWord() (string, bool) {
	start := gs.pos
	gs.pos = gs.parseWord(gs.pos)
	return gs.src[start:gs.pos], gs.pos != start
}

// emission helpers

// genStr emits a string constant: up to three bytes pack into the
// instruction word itself, longer values are inlined word-aligned after a
// length-carrying op. Macro strings always take the long form.
func (gs *genState) genStr(word string, macro bool) {
	if len(word) <= 3 && !macro {
		op := uint32(OP_VAL_INLINE | retStr)
		for i := 0; i < len(word); i++ {
			op |= uint32(word[i]) << ((i + 1) * 8)
		}
		gs.code = append(gs.code, op)
		return
	}
	op := uint32(OP_VAL | retStr)
	if macro {
		op = OP_MACRO
	}
	gs.code = append(gs.code, op|uint32(len(word))<<8)
	gs.code = appendStringWords(gs.code, word)
}

func (gs *genState) genEmptyStr() {
	gs.code = append(gs.code, OP_VAL_INLINE|retStr)
}

func (gs *genState) genNull() {
	gs.code = append(gs.code, OP_VAL_INLINE|retNull)
}

// genInt emits an integer literal, inline when it fits the 24-bit payload,
// otherwise out of line as two little-endian words.
func (gs *genState) genInt(i int64) {
	if i >= -0x800000 && i <= 0x7FFFFF {
		gs.code = append(gs.code, uint32(OP_VAL_INLINE|retInt)|uint32(int32(i))<<8)
	} else {
		gs.code = append(gs.code, OP_VAL|retInt,
			uint32(uint64(i)), uint32(uint64(i)>>32))
	}
}

func (gs *genState) genIntStr(word string) {
	gs.genInt(parseInt(word))
}

// genFloat emits a float literal, inline when integral and small, otherwise
// as the two words of its bit pattern.
func (gs *genState) genFloat(f float64) {
	if float64(int64(f)) == f && f >= -0x800000 && f <= 0x7FFFFF {
		gs.code = append(gs.code, uint32(OP_VAL_INLINE|retFloat)|uint32(int32(f))<<8)
	} else {
		bits := math.Float64bits(f)
		gs.code = append(gs.code, OP_VAL|retFloat,
			uint32(bits), uint32(bits>>32))
	}
}

func (gs *genState) genFloatStr(word string) {
	gs.genFloat(parseFloat(word))
}

func (gs *genState) genIdent(id *Ident) {
	op := uint32(OP_IDENT)
	if id.index < MaxArguments {
		op = OP_IDENT_ARG
	}
	gs.code = append(gs.code, op|uint32(id.index)<<8)
}

func (gs *genState) genDummyIdent() {
	gs.genIdent(gs.cs.w.dummy)
}

func (gs *genState) genIdentName(word string) {
	gs.genIdent(gs.cs.newIdent(word, 0))
}

// genValue emits word as a literal of the requested kind.
func (gs *genState) genValue(wordtype int, word string) {
	switch wordtype {
	case valCany:
		if word != "" {
			gs.genStr(word, true)
		} else {
			gs.genNull()
		}
	case valCstr:
		gs.genStr(word, true)
	case valAny:
		if word != "" {
			gs.genStr(word, false)
		} else {
			gs.genNull()
		}
	case valStr:
		gs.genStr(word, false)
	case valFloat:
		gs.genFloatStr(word)
	case valInt:
		gs.genIntStr(word)
	case valCond:
		if word != "" {
			gs.compileBlockSrc(word, retNull)
		} else {
			gs.genNull()
		}
	case valCode:
		gs.compileBlockSrc(word, retNull)
	case valIdent:
		gs.genIdentName(word)
	}
}

// genMain wraps a whole program: START, statements, EXIT carrying the
// caller's requested return coercion.
func (gs *genState) genMain(src string, retType int) {
	gs.src = src
	gs.pos = 0
	gs.code = append(gs.code, OP_START)
	compileStatements(gs, valAny, 0, 0)
	ret := uint32(0)
	if retType < valAny {
		ret = uint32(retType) << retShift
	}
	gs.code = append(gs.code, OP_EXIT|ret)
}

// compile compiles src into a fresh block holding one reference.
func (s *State) compile(src string) codeRef {
	gs := genState{cs: s, code: make([]uint32, 0, 64)}
	gs.genMain(src, valAny)
	return ownCode(gs.code)
}

// compileRaw compiles src into a block with no outstanding references; the
// value that receives it owns it outright.
func (s *State) compileRaw(src string) codeRef {
	gs := genState{cs: s, code: make([]uint32, 0, 64)}
	gs.genMain(src, valAny)
	return codeRef{buf: gs.code, pc: 1}
}

// capturedWord receives the literal text of a word compiled in the valWord
// context; ok distinguishes "captured" from a word that compiled to code
// (lookups, parens, blocks), which has no literal text.
type capturedWord struct {
	s  string
	ok bool
}

// compileArg compiles one word in the given result-class context. It
// reports whether a word was present; word receives the raw text in the
// valWord context.
func compileArg(gs *genState, wordtype, prevargs int, word *capturedWord) bool {
	gs.skipComments()
	switch gs.current() {
	case '"':
		switch wordtype {
		case valPop:
			gs.pos = gs.parseString(gs.pos + 1)
			if gs.current() == '"' {
				gs.pos++
			}
		case valCond:
			s := gs.cutString()
			if s != "" {
				gs.compileBlockSrc(s, retNull)
			} else {
				gs.genNull()
			}
		case valCode:
			s := gs.cutString()
			gs.compileBlockSrc(s, retNull)
		case valWord:
			s := gs.cutString()
			if word != nil {
				word.s = s
				word.ok = true
			}
		case valAny, valStr:
			gs.genStr(gs.cutString(), false)
		case valCany, valCstr:
			gs.genStr(gs.cutString(), true)
		default:
			gs.genValue(wordtype, gs.cutString())
		}
		return true
	case '$':
		compileLookup(gs, wordtype, prevargs)
		return true
	case '(':
		gs.pos++
		inner := valAny
		if wordtype > valAny {
			inner = valCany
		}
		if prevargs >= MaxResults {
			gs.code = append(gs.code, OP_ENTER)
			compileStatements(gs, inner, ')', 0)
			gs.code = append(gs.code, OP_EXIT|retCode(wordtype, 0))
		} else {
			start := len(gs.code)
			compileStatements(gs, inner, ')', prevargs)
			if len(gs.code) > start {
				gs.code = append(gs.code, OP_RESULT_ARG|retCode(wordtype, 0))
			} else {
				gs.genValue(wordtype, "")
				return true
			}
		}
		switch wordtype {
		case valPop:
			gs.code = append(gs.code, OP_POP)
		case valCond:
			gs.code = append(gs.code, OP_COND)
		case valCode:
			gs.code = append(gs.code, OP_COMPILE)
		case valIdent:
			gs.code = append(gs.code, OP_IDENT_U)
		}
		return true
	case '[':
		gs.pos++
		compileBlockMain(gs, wordtype, prevargs)
		return true
	default:
		switch wordtype {
		case valPop:
			start := gs.pos
			gs.pos = gs.parseWord(gs.pos)
			return gs.pos != start
		case valCond:
			w, ok := gs.cutWord()
			if !ok {
				return false
			}
			gs.compileBlockSrc(w, retNull)
			return true
		case valCode:
			w, ok := gs.cutWord()
			if !ok {
				return false
			}
			gs.compileBlockSrc(w, retNull)
			return true
		case valWord:
			w, ok := gs.cutWord()
			if word != nil && ok {
				word.s = w
				word.ok = true
			}
			return ok
		default:
			w, ok := gs.cutWord()
			if !ok {
				return false
			}
			gs.genValue(wordtype, w)
			return true
		}
	}
}

// compileStatements compiles statements until the closing bracket (or end of
// input for brak 0). Statement heads resolve against the ident table so
// calls specialize on the target's kind; assignments use the `name = value`
// form.
func compileStatements(gs *genState, rettype int, brak byte, prevargs int) {
	linePos := gs.pos
	for {
		gs.skipComments()
		var cw capturedWord
		more := compileArg(gs, valWord, prevargs, &cw)
		idname, hasName := cw.s, cw.ok
		if !more {
			goto endstatement
		}
		gs.skipComments()
		if gs.current() == '=' {
			c1 := gs.at(gs.pos + 1)
			isSep := c1 == ';' || c1 == ' ' || c1 == '\t' || c1 == '\r' ||
				c1 == '\n' || c1 == 0 || (c1 == '/' && gs.at(gs.pos+2) == '/')
			if isSep {
				gs.pos++
				if hasName {
					id := gs.cs.newIdent(idname, 0)
					switch id.typ {
					case IdentAlias:
						if more = compileArg(gs, valAny, prevargs, nil); !more {
							gs.genEmptyStr()
						}
						op := uint32(OP_ALIAS)
						if id.index < MaxArguments {
							op = OP_ALIAS_ARG
						}
						gs.code = append(gs.code, op|uint32(id.index)<<8)
						goto endstatement
					case IdentIVar:
						if more = compileArg(gs, valInt, prevargs, nil); !more {
							gs.genInt(0)
						}
						gs.code = append(gs.code, OP_IVAR1|uint32(id.index)<<8)
						goto endstatement
					case IdentFVar:
						if more = compileArg(gs, valFloat, prevargs, nil); !more {
							gs.genFloat(0)
						}
						gs.code = append(gs.code, OP_FVAR1|uint32(id.index)<<8)
						goto endstatement
					case IdentSVar:
						if more = compileArg(gs, valCstr, prevargs, nil); !more {
							gs.genEmptyStr()
						}
						gs.code = append(gs.code, OP_SVAR1|uint32(id.index)<<8)
						goto endstatement
					}
					gs.genStr(idname, true)
				}
				if more = compileArg(gs, valAny, MaxResults, nil); !more {
					gs.genEmptyStr()
				}
				gs.code = append(gs.code, OP_ALIAS_U)
				goto endstatement
			}
		}
		{
			numargs := 0
			if !hasName {
				goto noid
			}
			if id := gs.cs.w.idents[idname]; id == nil {
				if !checkNum(idname) {
					gs.genStr(idname, true)
					goto noid
				}
				switch rettype {
				case valAny, valCany:
					val, n := parseIntPrefix(idname)
					if n < len(idname) {
						gs.genStr(idname, rettype == valCany)
					} else {
						gs.genInt(val)
					}
				default:
					gs.genValue(rettype, idname)
				}
				gs.code = append(gs.code, OP_RESULT)
			} else {
				switch id.typ {
				case IdentAlias:
					for numargs < MaxArguments {
						if more = compileArg(gs, valAny, prevargs+numargs, nil); !more {
							break
						}
						numargs++
					}
					op := uint32(OP_CALL)
					if id.index < MaxArguments {
						op = OP_CALL_ARG
					}
					gs.code = append(gs.code, op|uint32(numargs)<<8|uint32(id.index)<<13)
				case IdentCommand:
					more = compileCommandCall(gs, id, rettype, prevargs, &numargs, more)
				case IdentLocal:
					if more {
						for numargs < MaxArguments {
							if more = compileArg(gs, valIdent, prevargs+numargs, nil); !more {
								break
							}
							numargs++
						}
					}
					if more {
						for compileArg(gs, valPop, MaxResults, nil) {
						}
						more = false
					}
					gs.code = append(gs.code, OP_LOCAL|uint32(numargs)<<8)
				case IdentDo:
					if more {
						more = compileArg(gs, valCode, prevargs, nil)
					}
					if more {
						gs.code = append(gs.code, OP_DO|retCode(rettype, 0))
					} else {
						gs.code = append(gs.code, OP_NULL|retCode(rettype, 0))
					}
				case IdentDoArgs:
					if more {
						more = compileArg(gs, valCode, prevargs, nil)
					}
					if more {
						gs.code = append(gs.code, OP_DO_ARGS|retCode(rettype, 0))
					} else {
						gs.code = append(gs.code, OP_NULL|retCode(rettype, 0))
					}
				case IdentIf:
					more = compileIf(gs, id, rettype, prevargs, more)
				case IdentBreak, IdentContinue:
					gs.code = append(gs.code, OP_COM|retCode(rettype, 0)|uint32(id.index)<<8)
				case IdentResult:
					if more {
						more = compileArg(gs, valAny, prevargs, nil)
					}
					if more {
						gs.code = append(gs.code, OP_RESULT|retCode(rettype, 0))
					} else {
						gs.code = append(gs.code, OP_NULL|retCode(rettype, 0))
					}
				case IdentNot:
					if more {
						more = compileArg(gs, valCany, prevargs, nil)
					}
					if more {
						gs.code = append(gs.code, OP_NOT|retCode(rettype, 0))
					} else {
						gs.code = append(gs.code, OP_TRUE|retCode(rettype, 0))
					}
				case IdentAnd, IdentOr:
					more = compileAndOr(gs, id, rettype, prevargs, more)
				case IdentIVar:
					if more = compileArg(gs, valInt, prevargs, nil); !more {
						gs.code = append(gs.code, OP_PRINT|uint32(id.index)<<8)
					} else if id.flags&IdfHex == 0 {
						gs.code = append(gs.code, OP_IVAR1|uint32(id.index)<<8)
					} else if more = compileArg(gs, valInt, prevargs+1, nil); !more {
						gs.code = append(gs.code, OP_IVAR1|uint32(id.index)<<8)
					} else if more = compileArg(gs, valInt, prevargs+2, nil); !more {
						gs.code = append(gs.code, OP_IVAR2|uint32(id.index)<<8)
					} else {
						gs.code = append(gs.code, OP_IVAR3|uint32(id.index)<<8)
					}
				case IdentFVar:
					if more = compileArg(gs, valFloat, prevargs, nil); !more {
						gs.code = append(gs.code, OP_PRINT|uint32(id.index)<<8)
					} else {
						gs.code = append(gs.code, OP_FVAR1|uint32(id.index)<<8)
					}
				case IdentSVar:
					if more = compileArg(gs, valCstr, prevargs, nil); !more {
						gs.code = append(gs.code, OP_PRINT|uint32(id.index)<<8)
					} else {
						numargs++
						for numargs < MaxArguments {
							if more = compileArg(gs, valCany, prevargs+numargs, nil); !more {
								break
							}
							numargs++
						}
						if numargs > 1 {
							gs.code = append(gs.code, OP_CONC|retStr|uint32(numargs)<<8)
						}
						gs.code = append(gs.code, OP_SVAR1|uint32(id.index)<<8)
					}
				}
			}
			goto endstatement
		}
	noid:
		{
			numargs := 0
			for numargs < MaxArguments {
				if more = compileArg(gs, valCany, prevargs+numargs, nil); !more {
					break
				}
				numargs++
			}
			gs.code = append(gs.code, OP_CALL_U|uint32(numargs)<<8)
		}
	endstatement:
		if more {
			for compileArg(gs, valPop, MaxResults, nil) {
			}
		}
		for {
			gs.skipUntil(")];/\n")
			c := gs.next()
			switch c {
			case 0:
				if brak != 0 {
					gs.cs.debugCodeAt(linePos, "missing \"%c\"", brak)
				}
				gs.pos--
				return
			case ')', ']':
				if c == brak {
					return
				}
				gs.cs.debugCodeAt(linePos, "unexpected \"%c\"", c)
			case '/':
				if gs.current() == '/' {
					gs.skipUntil("\n")
				}
				continue
			}
			break
		}
	}
}

// compileCommandCall emits a call to a native command, statically coercing
// each argument per the command's format string and synthesizing missing
// trailing arguments.
func compileCommandCall(gs *genState, id *Ident, rettype, prevargs int, numargs *int, more bool) bool {
	comtype := uint32(OP_COM)
	fakeargs := 0
	rep := false
	fmtStr := id.cargs
	for fi := 0; fi < len(fmtStr); fi++ {
		switch c := fmtStr[fi]; c {
		case 'S', 's':
			if more {
				wt := valStr
				if c == 's' {
					wt = valCstr
				}
				more = compileArg(gs, wt, prevargs+*numargs, nil)
			}
			if !more {
				if rep {
					break
				}
				if c == 's' {
					gs.genStr("", true)
				} else {
					gs.genEmptyStr()
				}
				fakeargs++
			} else if fi == len(fmtStr)-1 {
				numconc := 1
				for *numargs+numconc < MaxArguments {
					if more = compileArg(gs, valCstr, prevargs+*numargs+numconc, nil); !more {
						break
					}
					numconc++
				}
				if numconc > 1 {
					gs.code = append(gs.code, OP_CONC|retStr|uint32(numconc)<<8)
				}
			}
			*numargs++
		case 'i':
			if more {
				more = compileArg(gs, valInt, prevargs+*numargs, nil)
			}
			if !more {
				if rep {
					break
				}
				gs.genInt(0)
				fakeargs++
			}
			*numargs++
		case 'b':
			if more {
				more = compileArg(gs, valInt, prevargs+*numargs, nil)
			}
			if !more {
				if rep {
					break
				}
				gs.genInt(minIntSentinel)
				fakeargs++
			}
			*numargs++
		case 'f':
			if more {
				more = compileArg(gs, valFloat, prevargs+*numargs, nil)
			}
			if !more {
				if rep {
					break
				}
				gs.genFloat(0)
				fakeargs++
			}
			*numargs++
		case 'F':
			if more {
				more = compileArg(gs, valFloat, prevargs+*numargs, nil)
			}
			if !more {
				if rep {
					break
				}
				gs.code = append(gs.code, OP_DUP|retFloat)
				fakeargs++
			}
			*numargs++
		case 'T', 't':
			if more {
				wt := valAny
				if c == 't' {
					wt = valCany
				}
				more = compileArg(gs, wt, prevargs+*numargs, nil)
			}
			if !more {
				if rep {
					break
				}
				gs.genNull()
				fakeargs++
			}
			*numargs++
		case 'E':
			if more {
				more = compileArg(gs, valCond, prevargs+*numargs, nil)
			}
			if !more {
				if rep {
					break
				}
				gs.genNull()
				fakeargs++
			}
			*numargs++
		case 'e':
			if more {
				more = compileArg(gs, valCode, prevargs+*numargs, nil)
			}
			if !more {
				if rep {
					break
				}
				gs.code = append(gs.code, OP_EMPTY)
				fakeargs++
			}
			*numargs++
		case 'r':
			if more {
				more = compileArg(gs, valIdent, prevargs+*numargs, nil)
			}
			if !more {
				if rep {
					break
				}
				gs.genDummyIdent()
				fakeargs++
			}
			*numargs++
		case '$':
			gs.genIdent(id)
			*numargs++
		case 'N':
			gs.genInt(int64(*numargs - fakeargs))
			*numargs++
		case 'C', 'V':
			comtype = OP_COM_C
			if c == 'V' {
				comtype = OP_COM_V
			}
			if more {
				for *numargs < MaxArguments {
					if more = compileArg(gs, valCany, prevargs+*numargs, nil); !more {
						break
					}
					*numargs++
				}
			}
			gs.code = append(gs.code,
				comtype|retCode(rettype, 0)|uint32(*numargs)<<8|uint32(id.index)<<13)
			return more
		case '1', '2', '3', '4':
			if more && *numargs < MaxArguments {
				fi -= int(c-'0') + 1
				rep = true
			} else {
				for ; *numargs > MaxArguments; *numargs-- {
					gs.code = append(gs.code, OP_POP)
				}
			}
		}
	}
	gs.code = append(gs.code, comtype|retCode(rettype, 0)|uint32(id.index)<<8)
	return more
}

// compileIf peephole-optimizes `if` with trailing block constants into
// conditional jumps; the general shape falls back to a command call.
func compileIf(gs *genState, id *Ident, rettype, prevargs int, more bool) bool {
	if more {
		more = compileArg(gs, valCany, prevargs, nil)
	}
	if !more {
		gs.code = append(gs.code, OP_NULL|retCode(rettype, 0))
		return more
	}
	start1 := len(gs.code)
	more = compileArg(gs, valCode, prevargs+1, nil)
	if !more {
		gs.code = append(gs.code, OP_POP)
		gs.code = append(gs.code, OP_NULL|retCode(rettype, 0))
		return more
	}
	start2 := len(gs.code)
	more = compileArg(gs, valCode, prevargs+2, nil)
	inst1 := gs.code[start1]
	op1 := inst1 & ^uint32(retMask)
	len1 := uint32(start2 - (start1 + 1))
	if !more {
		if op1 == (OP_BLOCK | len1<<8) {
			gs.code[start1] = len1<<8 | OP_JUMP_FALSE
			gs.code[start1+1] = OP_ENTER_RESULT
			gs.code[start1+int(len1)] = gs.code[start1+int(len1)]&^uint32(retMask) | retCode(rettype, 0)
			return more
		}
		gs.code = append(gs.code, OP_EMPTY)
	} else {
		inst2 := gs.code[start2]
		op2 := inst2 & ^uint32(retMask)
		len2 := uint32(len(gs.code) - (start2 + 1))
		if op2 == (OP_BLOCK | len2<<8) {
			if op1 == (OP_BLOCK | len1<<8) {
				gs.code[start1] = uint32(start2-start1)<<8 | OP_JUMP_FALSE
				gs.code[start1+1] = OP_ENTER_RESULT
				gs.code[start1+int(len1)] = gs.code[start1+int(len1)]&^uint32(retMask) | retCode(rettype, 0)
				gs.code[start2] = len2<<8 | OP_JUMP
				gs.code[start2+1] = OP_ENTER_RESULT
				gs.code[start2+int(len2)] = gs.code[start2+int(len2)]&^uint32(retMask) | retCode(rettype, 0)
				return more
			} else if op1 == (OP_EMPTY | len1<<8) {
				gs.code[start1] = OP_NULL | inst2&retMask
				gs.code[start2] = len2<<8 | OP_JUMP_TRUE
				gs.code[start2+1] = OP_ENTER_RESULT
				gs.code[start2+int(len2)] = gs.code[start2+int(len2)]&^uint32(retMask) | retCode(rettype, 0)
				return more
			}
		}
	}
	gs.code = append(gs.code, OP_COM|retCode(rettype, 0)|uint32(id.index)<<8)
	return more
}

// compileAndOr rewrites `&&`/`||` chains of block constants into
// result-keeping jumps; anything else compiles as a variadic call.
func compileAndOr(gs *genState, id *Ident, rettype, prevargs int, more bool) bool {
	if more {
		more = compileArg(gs, valCond, prevargs, nil)
	}
	if !more {
		op := uint32(OP_FALSE)
		if id.typ == IdentAnd {
			op = OP_TRUE
		}
		gs.code = append(gs.code, op|retCode(rettype, 0))
		return more
	}
	numargs := 1
	start := len(gs.code)
	end := start
	for numargs < MaxArguments {
		more = compileArg(gs, valCond, prevargs+numargs, nil)
		if !more {
			break
		}
		numargs++
		if gs.code[end]&^uint32(retMask) != (OP_BLOCK | uint32(len(gs.code)-(end+1))<<8) {
			break
		}
		end = len(gs.code)
	}
	if more {
		for numargs < MaxArguments {
			if more = compileArg(gs, valCond, prevargs+numargs, nil); !more {
				break
			}
			numargs++
		}
		gs.code = append(gs.code,
			OP_COM_V|retCode(rettype, 0)|uint32(numargs)<<8|uint32(id.index)<<13)
	} else {
		op := uint32(OP_JUMP_RESULT_TRUE)
		if id.typ == IdentAnd {
			op = OP_JUMP_RESULT_FALSE
		}
		gs.code = append(gs.code, op)
		end = len(gs.code)
		for start+1 < end {
			blockLen := int(gs.code[start] >> 8)
			gs.code[start] = uint32(end-(start+1))<<8 | op
			gs.code[start+1] = OP_ENTER
			gs.code[start+blockLen] = gs.code[start+blockLen]&^uint32(retMask) | retCode(rettype, 0)
			start += blockLen + 1
		}
	}
	return more
}
