package cs

import (
	"strings"
	"testing"
)

func TestSmallLiteralEncoding(t *testing.T) {
	s := newState(t)
	code := s.compile("5")
	defer bcodeUnref(code)
	found := false
	for _, w := range code.buf {
		if w&0xFF == OP_VAL_INLINE|retInt && int32(w)>>8 == 5 {
			found = true
		}
	}
	if !found {
		t.Error("small integer not inlined")
	}
}

func TestLargeLiteralEncoding(t *testing.T) {
	s := newState(t)
	testInt(t, s, "result 16777216", 0x1000000)
	testInt(t, s, "result -16777217", -0x1000001)
	testInt(t, s, "+ 1099511627776 1", 1<<40+1)
}

func TestNegativeInlineLiteral(t *testing.T) {
	s := newState(t)
	testInt(t, s, "result -5", -5)
	testInt(t, s, "+ -3 -4", -7)
}

func TestShortStringInline(t *testing.T) {
	s := newState(t)
	testStr(t, s, "result abc", "abc")
	testStr(t, s, "result abcd", "abcd")
	testStr(t, s, `result ""`, "")
}

func TestMacroStringsAreVerbatim(t *testing.T) {
	s := newState(t)
	// a block used as a string keeps its bytes exactly, escapes unprocessed
	testStr(t, s, `result [no ^n escapes "kept ^t" here]`, `no ^n escapes "kept ^t" here`)
}

func TestMissingBracketDiagnostic(t *testing.T) {
	s, msgs, _ := newStateSink(t)
	if err := s.Run("do [echo hi"); err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(*msgs, "\n")
	if !strings.Contains(joined, "missing \"]\"") {
		t.Errorf("no missing-bracket diagnostic: %q", joined)
	}
}

func TestTooManyAtsDiagnostic(t *testing.T) {
	s, msgs, _ := newStateSink(t)
	if err := s.Run("alias q 1; result [@@q]"); err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(*msgs, "\n")
	if !strings.Contains(joined, "too many @s") {
		t.Errorf("no too-many-@s diagnostic: %q", joined)
	}
}

func TestSourceLineInDiagnostics(t *testing.T) {
	var msgs []string
	s := New(WithErrorSink(func(m string) { msgs = append(msgs, m) }))
	RegisterLibraries(s, LibAll)
	s.SetSource("test.cfg", "echo ok\ndo [oops\n")
	if err := s.Run("echo ok\ndo [oops\n"); err != nil {
		t.Fatal(err)
	}
	s.SetSource("", "")
	found := false
	for _, m := range msgs {
		if strings.Contains(m, "test.cfg:") {
			found = true
		}
	}
	if !found {
		t.Errorf("diagnostic lacks file position: %q", msgs)
	}
}

func TestIfPeepholeUsesJumps(t *testing.T) {
	s := newState(t)
	code := s.compile("if $a [echo yes] [echo no]")
	defer bcodeUnref(code)
	hasJumpFalse, hasJump := false, false
	for pc := 0; pc < len(code.buf); pc++ {
		switch code.buf[pc] & opMask {
		case OP_JUMP_FALSE:
			hasJumpFalse = true
		case OP_JUMP:
			hasJump = true
		}
		// skip string payloads
		if code.buf[pc]&0xFF == OP_MACRO || code.buf[pc]&0xFF == OP_VAL|retStr {
			pc += stringWordCount(int(code.buf[pc] >> 8))
		}
	}
	if !hasJumpFalse || !hasJump {
		t.Errorf("if not peephole-optimized: false=%v jump=%v\n%s",
			hasJumpFalse, hasJump, Disassemble(codeVal(code)))
	}
}

func TestAndOrPeepholeUsesResultJumps(t *testing.T) {
	s := newState(t)
	code := s.compile("&& [a] [b] [c]")
	defer bcodeUnref(code)
	n := 0
	for pc := 0; pc < len(code.buf); pc++ {
		if code.buf[pc]&opMask == OP_JUMP_RESULT_FALSE {
			n++
		}
		if code.buf[pc]&0xFF == OP_MACRO || code.buf[pc]&0xFF == OP_VAL|retStr {
			pc += stringWordCount(int(code.buf[pc] >> 8))
		}
	}
	if n < 2 {
		t.Errorf("&& chain compiled with %d result jumps\n%s", n, Disassemble(codeVal(code)))
	}
}

func TestDisassembler(t *testing.T) {
	s := newState(t)
	code := s.Compile("alias x 10; + $x 1")
	out := Disassemble(code)
	s.ReleaseValue(&code)
	for _, want := range []string{"START", "EXIT", "COM"} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly missing %s:\n%s", want, out)
		}
	}
}

func TestStatementRecovery(t *testing.T) {
	s, msgs, _ := newStateSink(t)
	// a stray closer is diagnosed and compilation continues
	if err := s.Run("echo a ] ; alias after 1"); err != nil {
		t.Fatal(err)
	}
	if !s.HaveIdent("after") {
		t.Error("compilation stopped at stray bracket")
	}
	joined := strings.Join(*msgs, "\n")
	if !strings.Contains(joined, "unexpected") {
		t.Errorf("no unexpected-bracket diagnostic: %q", joined)
	}
}
