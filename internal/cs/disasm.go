package cs

import (
	"fmt"
	"strings"
)

// Disassemble renders a compiled code value as human-readable text, one
// instruction per line, for tests and the CLI -disasm flag.
func Disassemble(v Value) string {
	c := v.Code()
	if c.isNull() {
		return "<no code>\n"
	}
	var b strings.Builder
	disasmRange(&b, c.buf, 0, len(c.buf))
	return b.String()
}

func retName(op uint32) string {
	switch op & retMask {
	case retInt:
		return ".INT"
	case retFloat:
		return ".FLOAT"
	case retStr:
		return ".STR"
	}
	return ""
}

func disasmRange(b *strings.Builder, buf []uint32, pc, end int) {
	for pc < end {
		op := buf[pc]
		name, ok := opcodeNames[op&opMask]
		if !ok {
			fmt.Fprintf(b, "%04d  ??? 0x%08X\n", pc, op)
			pc++
			continue
		}
		switch op & 0xFF {
		case OP_START:
			fmt.Fprintf(b, "%04d  START refs=%d\n", pc, op>>8)
			pc++
			continue
		case OP_MACRO, OP_VAL | retStr:
			n := int(op >> 8)
			fmt.Fprintf(b, "%04d  %s%s %q\n", pc, name, retName(op), wordString(buf, pc+1, n))
			pc += 1 + stringWordCount(n)
			continue
		case OP_VAL | retInt:
			fmt.Fprintf(b, "%04d  VAL.INT %d\n", pc,
				int64(uint64(buf[pc+1])|uint64(buf[pc+2])<<32))
			pc += 3
			continue
		case OP_VAL | retFloat:
			fmt.Fprintf(b, "%04d  VAL.FLOAT %s\n", pc,
				floatToString(wordFloat(buf[pc+1], buf[pc+2])))
			pc += 3
			continue
		case OP_VAL_INLINE | retInt, OP_VAL_INLINE | retFloat:
			fmt.Fprintf(b, "%04d  %s%s %d\n", pc, name, retName(op), int32(op)>>8)
			pc++
			continue
		case OP_VAL_INLINE | retStr:
			var s []byte
			for i := 1; i <= 3; i++ {
				c := byte(op >> (i * 8))
				if c == 0 {
					break
				}
				s = append(s, c)
			}
			fmt.Fprintf(b, "%04d  VALI.STR %q\n", pc, s)
			pc++
			continue
		}
		switch op & opMask {
		case OP_BLOCK, OP_JUMP, OP_JUMP_TRUE, OP_JUMP_FALSE,
			OP_JUMP_RESULT_TRUE, OP_JUMP_RESULT_FALSE:
			fmt.Fprintf(b, "%04d  %s +%d\n", pc, name, op>>8)
		case OP_IDENT, OP_IDENT_ARG, OP_IVAR, OP_IVAR1, OP_IVAR2, OP_IVAR3,
			OP_FVAR, OP_FVAR1, OP_SVAR, OP_SVAR_M, OP_SVAR1,
			OP_LOOKUP, OP_LOOKUP_ARG, OP_LOOKUP_M, OP_LOOKUP_MARG,
			OP_ALIAS, OP_ALIAS_ARG, OP_COM, OP_PRINT, OP_OFFSET:
			fmt.Fprintf(b, "%04d  %s%s #%d\n", pc, name, retName(op), op>>8)
		case OP_CALL, OP_CALL_ARG, OP_COM_V, OP_COM_C:
			fmt.Fprintf(b, "%04d  %s%s #%d args=%d\n", pc, name, retName(op),
				op>>13, (op>>8)&0x1F)
		case OP_CALL_U, OP_CONC, OP_CONC_W, OP_CONC_M, OP_LOCAL:
			fmt.Fprintf(b, "%04d  %s%s args=%d\n", pc, name, retName(op), op>>8)
		default:
			fmt.Fprintf(b, "%04d  %s%s\n", pc, name, retName(op))
		}
		pc++
	}
}

func wordFloat(lo, hi uint32) float64 {
	return float64FromWords(lo, hi)
}
