package cs

import (
	"math"
	"strconv"
)

// minIntSentinel is the "argument missing" marker the `b` format code
// synthesizes.
const minIntSentinel = math.MinInt64

// ValueKind identifies the variant stored in a Value.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindInt
	KindFloat
	KindString // owned string
	KindMacro  // string borrowed from a bytecode constant
	KindCode   // bytecode reference
	KindIdent  // identifier handle
)

// Value is the tagged cell every stack slot, alias binding and result holds.
// The zero Value is null.
type Value struct {
	kind ValueKind
	i    int64
	f    float64
	s    string
	code codeRef
	id   *Ident
}

// Constructors

func NullVal() Value           { return Value{} }
func IntVal(v int64) Value     { return Value{kind: KindInt, i: v} }
func FloatVal(v float64) Value { return Value{kind: KindFloat, f: v} }
func StrVal(s string) Value    { return Value{kind: KindString, s: s} }

func macroVal(s string) Value { return Value{kind: KindMacro, s: s} }

func codeVal(c codeRef) Value  { return Value{kind: KindCode, code: c} }
func identVal(id *Ident) Value { return Value{kind: KindIdent, id: id} }

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) isString() bool {
	return v.kind == KindString || v.kind == KindMacro
}

// Ident returns the identifier handle, or nil for non-ident values.
func (v Value) Ident() *Ident {
	if v.kind == KindIdent {
		return v.id
	}
	return nil
}

// Code returns the bytecode reference, or the zero ref for other kinds.
func (v Value) Code() codeRef {
	if v.kind == KindCode {
		return v.code
	}
	return codeRef{}
}

// setters used in place to avoid re-slicing calls at every site

func (v *Value) setNull()          { *v = Value{} }
func (v *Value) setInt(i int64)    { *v = Value{kind: KindInt, i: i} }
func (v *Value) setFloat(f float64) { *v = Value{kind: KindFloat, f: f} }
func (v *Value) setStr(s string)   { *v = Value{kind: KindString, s: s} }
func (v *Value) setMacro(s string) { *v = Value{kind: KindMacro, s: s} }
func (v *Value) setIdent(id *Ident) { *v = Value{kind: KindIdent, id: id} }

func (v *Value) setCode(c codeRef) {
	*v = Value{kind: KindCode, code: c}
}

// cleanup resets the cell. A code value owns its block only when it points
// directly past a START word whose refcount is zero (the shape forceCode
// produces); such blocks are released here. Referenced blocks are released
// by whoever holds the count: alias caches, host code handles, call frames.
func (v *Value) cleanup() {
	if v.kind == KindCode && v.code.pc == 1 && len(v.code.buf) > 0 &&
		v.code.buf[0] == OP_START {
		v.code.buf[0] = opFreed
	}
	*v = Value{}
}

// Conversions

// GetInt converts the value to an integer: floats truncate, strings go
// through the C-style prefix parser, everything else is 0.
func (v Value) GetInt() int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return int64(v.f)
	case KindString, KindMacro:
		return parseInt(v.s)
	}
	return 0
}

// GetFloat converts the value to a float.
func (v Value) GetFloat() float64 {
	switch v.kind {
	case KindFloat:
		return v.f
	case KindInt:
		return float64(v.i)
	case KindString, KindMacro:
		return parseFloat(v.s)
	}
	return 0
}

// GetStr converts the value to its canonical textual form. Null converts to
// the empty string; code and ident references have no textual form and also
// yield "".
func (v Value) GetStr() string {
	switch v.kind {
	case KindString, KindMacro:
		return v.s
	case KindInt:
		return intToString(v.i)
	case KindFloat:
		return floatToString(v.f)
	}
	return ""
}

// GetBool applies the truthiness rules: nonzero numbers are true, strings go
// through the textual-zero test, null/code/ident are false.
func (v Value) GetBool() bool {
	switch v.kind {
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindString, KindMacro:
		return stringToBool(v.s)
	}
	return false
}

// getVal copies the plain value out of v, demoting macro strings to owned
// strings; code and ident references turn into null.
func (v Value) getVal() Value {
	switch v.kind {
	case KindString, KindMacro:
		return StrVal(v.s)
	case KindInt:
		return IntVal(v.i)
	case KindFloat:
		return FloatVal(v.f)
	}
	return Value{}
}

// in-place coercions, mirroring the force family

func (v *Value) forceNull() {
	if v.kind == KindNull {
		return
	}
	v.cleanup()
}

func (v *Value) forceInt() int64 {
	var r int64
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		r = int64(v.f)
	case KindString, KindMacro:
		r = parseInt(v.s)
	}
	v.cleanup()
	v.setInt(r)
	return r
}

func (v *Value) forceFloat() float64 {
	var r float64
	switch v.kind {
	case KindFloat:
		return v.f
	case KindInt:
		r = float64(v.i)
	case KindString, KindMacro:
		r = parseFloat(v.s)
	}
	v.cleanup()
	v.setFloat(r)
	return r
}

func (v *Value) forceStr() string {
	var r string
	switch v.kind {
	case KindString:
		return v.s
	case KindMacro:
		r = v.s
	case KindInt:
		r = intToString(v.i)
	case KindFloat:
		r = floatToString(v.f)
	}
	v.cleanup()
	v.setStr(r)
	return r
}

// force coerces the value according to the ret bits of an instruction word.
func (v *Value) force(ret uint32) {
	switch ret & retMask {
	case retStr:
		if v.kind != KindString {
			v.forceStr()
		}
	case retInt:
		if v.kind != KindInt {
			v.forceInt()
		}
	case retFloat:
		if v.kind != KindFloat {
			v.forceFloat()
		}
	}
}

// Formatting

func intToString(v int64) string {
	return strconv.FormatInt(v, 10)
}

// floatToString renders the shortest round-trip form, keeping a `.0` suffix
// when the value is mathematically integral so it still reads as a float.
func floatToString(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
