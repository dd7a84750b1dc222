package cs

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func newState(t *testing.T) *State {
	t.Helper()
	s := New(WithOutput(io.Discard), WithErrorSink(func(string) {}))
	RegisterLibraries(s, LibAll)
	return s
}

// newStateSink captures diagnostics and printed output.
func newStateSink(t *testing.T) (*State, *[]string, *strings.Builder) {
	t.Helper()
	var msgs []string
	var out strings.Builder
	s := New(WithOutput(&out), WithErrorSink(func(m string) { msgs = append(msgs, m) }))
	RegisterLibraries(s, LibAll)
	return s, &msgs, &out
}

func runInt(t *testing.T, s *State, src string) int64 {
	t.Helper()
	v, err := s.RunInt(src)
	if err != nil {
		t.Fatalf("run %q: %v", src, err)
	}
	return v
}

func runStr(t *testing.T, s *State, src string) string {
	t.Helper()
	v, err := s.RunString(src)
	if err != nil {
		t.Fatalf("run %q: %v", src, err)
	}
	return v
}

func runFloat(t *testing.T, s *State, src string) float64 {
	t.Helper()
	v, err := s.RunFloat(src)
	if err != nil {
		t.Fatalf("run %q: %v", src, err)
	}
	return v
}

func testInt(t *testing.T, s *State, src string, want int64) {
	t.Helper()
	if got := runInt(t, s, src); got != want {
		t.Errorf("run %q = %d, want %d", src, got, want)
	}
}

func testStr(t *testing.T, s *State, src, want string) {
	t.Helper()
	if got := runStr(t, s, src); got != want {
		t.Errorf("run %q = %q, want %q", src, got, want)
	}
}

func TestIntegerArithmetic(t *testing.T) {
	s := newState(t)
	tests := []struct {
		src  string
		want int64
	}{
		{"+ 1 2 3", 6},
		{"+ 1", 1},
		{"+", 0},
		{"- 10 3 2", 5},
		{"- 7", -7},
		{"* 2 3 4", 24},
		{"div 10 4", 2},
		{"div 10 0", 0},
		{"mod 10 4", 2},
		{"min 4 2 9", 2},
		{"max 4 2 9", 9},
		{"abs -5", 5},
		{"& 12 10", 8},
		{"| 12 10", 14},
		{"^ 12 10", 6},
		{"<< 1 4", 16},
		{">> 16 2", 4},
		{"= 2 2 2", 1},
		{"= 2 3", 0},
		{"< 1 2 3", 1},
		{"< 1 3 2", 0},
		{">= 3 3 2", 1},
	}
	for _, tt := range tests {
		testInt(t, s, tt.src, tt.want)
	}
}

func TestFloatArithmetic(t *testing.T) {
	s := newState(t)
	if got := runFloat(t, s, "divf 10 4"); got != 2.5 {
		t.Errorf("divf 10 4 = %v", got)
	}
	if got := runFloat(t, s, "+f 1.5 2.25"); got != 3.75 {
		t.Errorf("+f = %v", got)
	}
	if got := runFloat(t, s, "pow 2 10"); got != 1024 {
		t.Errorf("pow = %v", got)
	}
	if got := runFloat(t, s, "sqrt 9"); got != 3 {
		t.Errorf("sqrt = %v", got)
	}
}

func TestAliasCallAndLookup(t *testing.T) {
	s := newState(t)
	testInt(t, s, "alias x 10; * $x $x", 100)
	testStr(t, s, "alias greet [Hello]; result $greet", "Hello")
	testInt(t, s, "x = 5; + $x 1", 6)
	testInt(t, s, `alias n seven; alias seven 7; + $$n 1`, 8)
}

func TestIfAndConditionals(t *testing.T) {
	s := newState(t)
	testStr(t, s, "if 1 [result yes] [result no]", "yes")
	testStr(t, s, "if 0 [result yes] [result no]", "no")
	testStr(t, s, "if 1 [result yes]", "yes")
	testInt(t, s, "? 1 11 22", 11)
	testInt(t, s, "? 0 11 22", 22)
	testStr(t, s, "case 2 1 [result one] 2 [result two] () [result other]", "two")
	testStr(t, s, "case 9 1 [result one] 2 [result two] () [result other]", "other")
	testStr(t, s, `cases b a [result first] b [result second]`, "second")
	testInt(t, s, "cond [= 1 2] [result 10] [= 2 2] [result 20] [result 30]", 20)
}

func TestShortCircuit(t *testing.T) {
	s := newState(t)
	testInt(t, s, "|| 0 [+ 1 2] 99", 3)
	testInt(t, s, "|| 0 0", 0)
	testInt(t, s, "&& 1 [+ 2 2]", 4)
	testInt(t, s, "&& 0 [+ 2 2]", 0)
	testInt(t, s, "&&", 1)
	testInt(t, s, "||", 0)
	testInt(t, s, "! 0", 1)
	testInt(t, s, "! [x]", 0)

	// short-circuit must not evaluate later operands
	testStr(t, s, "alias hit 0; || 1 [hit = 1; result 1]; result $hit", "0")
	testStr(t, s, "alias hit2 0; && 0 [hit2 = 1]; result $hit2", "0")
}

func TestLoops(t *testing.T) {
	s := newState(t)
	testStr(t, s, "loopconcat i 3 [* $i $i]", "0 1 4")
	testStr(t, s, "loopconcatword i 3 [+ $i 1]", "123")
	testStr(t, s, "loopconcat+ i 2 3 [result $i]", "2 3 4")
	testStr(t, s, "loopconcat* i 2 3 [result $i]", "0 2 4")
	testInt(t, s, "alias sum 0; loop i 5 [sum = (+ $sum $i)]; result $sum", 10)
	testInt(t, s, "alias n 0; while [< $n 4] [n = (+ $n 1)]; result $n", 4)
	testStr(t, s, "loopwhile i 10 [< $i 3] [result x]; loopconcat i 2 [result $i]", "0 1")
}

func TestBreakContinue(t *testing.T) {
	s := newState(t)
	testStr(t, s, "loopconcat i 5 [if (> $i 2) [break]; result $i]", "0 1 2")
	testInt(t, s, "alias c 0; loop i 5 [if (= $i 2) [continue]; c = (+ $c 1)]; result $c", 4)

	if err := s.Run("break"); err == nil {
		t.Fatal("break outside a loop must error")
	} else {
		var cerr *Error
		if !errors.As(err, &cerr) {
			t.Fatalf("break error type: %v", err)
		}
	}
	if err := s.Run("continue"); err == nil {
		t.Fatal("continue outside a loop must error")
	}
}

func TestResultSemantics(t *testing.T) {
	s := newState(t)
	v, err := s.RunRet("")
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind() != KindNull {
		t.Errorf("empty program result kind = %d", v.Kind())
	}
	testStr(t, s, "alias x keep; result $x", "keep")
	// result must not perturb the alias
	testStr(t, s, "result $x", "keep")
}

func TestArgumentFrames(t *testing.T) {
	s := newState(t)
	testStr(t, s, "alias f [result $arg1]; f hello", "hello")
	testInt(t, s, "alias add2 [+ $arg1 $arg2]; add2 3 4", 7)
	testInt(t, s, "alias outer [add2 $arg1 10]; outer 5", 15)
	testInt(t, s, "alias f2 [result $numargs]; f2 a b c", 3)

	// arg slots outside the provided actuals read empty
	testStr(t, s, "alias g [result $arg2]; g only", "")

	// frames restore: after a call the outer binding is intact
	if s.stack != &s.noAlias {
		t.Fatal("frame stack not restored")
	}
	if s.stack.usedArgs != (1<<MaxArguments)-1 {
		t.Fatal("noalias used-args mask changed")
	}
}

func TestDoArgs(t *testing.T) {
	s := newState(t)
	testStr(t, s, "alias outer [doargs [result $arg1]]; alias mid [outer]; mid passed", "passed")
	testStr(t, s, "alias plain [do [result $arg1]]; plain direct", "direct")
}

func TestLocal(t *testing.T) {
	s := newState(t)
	testStr(t, s, "alias x 1; do [local x; x = 5]; result $x", "1")
	testInt(t, s, "do [local y; y = 42; result $y]", 42)
}

func TestPush(t *testing.T) {
	s := newState(t)
	testStr(t, s, "alias v base; push v tmp [result $v]", "tmp")
	testStr(t, s, "result $v", "base")
	testStr(t, s, "pushif v 0 [result $v]; result $v", "base")
}

func TestVariables(t *testing.T) {
	s, msgs, out := newStateSink(t)
	if _, err := s.NewIVar("v", 0, 100, 5, nil, 0); err != nil {
		t.Fatal(err)
	}
	if err := s.Run("v 250"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.GetVarInt("v"); got != 100 {
		t.Errorf("v = %d after clamped set, want 100", got)
	}
	found := false
	for _, m := range *msgs {
		if strings.Contains(m, "valid range for 'v'") {
			found = true
		}
	}
	if !found {
		t.Errorf("no range diagnostic, got %q", *msgs)
	}

	if err := s.Run("v"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "v = 100") {
		t.Errorf("print output %q", out.String())
	}

	testInt(t, s, "+ $v 1", 101)
	testInt(t, s, "getvarmin v", 0)
	testInt(t, s, "getvarmax v", 100)
	testInt(t, s, "identexists v", 1)
	testInt(t, s, "identexists bogus", 0)
}

func TestReadonlyVariable(t *testing.T) {
	s, msgs, _ := newStateSink(t)
	// inverted range marks the variable read-only from definition
	if _, err := s.NewIVar("ro", 10, 0, 7, nil, 0); err != nil {
		t.Fatal(err)
	}
	if err := s.Run("ro 3"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.GetVarInt("ro"); got != 7 {
		t.Errorf("read-only variable changed to %d", got)
	}
	joined := strings.Join(*msgs, "\n")
	if !strings.Contains(joined, "read only") {
		t.Errorf("no read-only diagnostic: %q", joined)
	}
}

func TestHexVariable(t *testing.T) {
	s, _, out := newStateSink(t)
	if _, err := s.NewIVar("col", 0, 0xFFFFFF, 0, nil, IdfHex); err != nil {
		t.Fatal(err)
	}
	if err := s.Run("col 255 128 64"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.GetVarInt("col"); got != 0xFF8040 {
		t.Errorf("col = %#x, want 0xFF8040", got)
	}
	if err := s.Run("col"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "0xFF8040") {
		t.Errorf("hex print output %q", out.String())
	}
}

func TestOverrideDiscipline(t *testing.T) {
	s, msgs, _ := newStateSink(t)
	if _, err := s.NewIVar("ov", 0, 1000, 10, nil, 0); err != nil {
		t.Fatal(err)
	}
	s.SetOverrideMode(true)
	if err := s.Run("ov 50"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.GetVarInt("ov"); got != 50 {
		t.Fatalf("override set failed, ov = %d", got)
	}
	id := s.Ident("ov")
	if id.Flags()&IdfOverridden == 0 {
		t.Fatal("OVERRIDDEN flag not set")
	}
	s.SetOverrideMode(false)
	s.ClearOverrides()
	if got, _ := s.GetVarInt("ov"); got != 10 {
		t.Errorf("clear_overrides restored %d, want 10", got)
	}

	// persistent variables refuse overrides
	if _, err := s.NewIVar("pv", 0, 1000, 3, nil, IdfPersist); err != nil {
		t.Fatal(err)
	}
	s.SetOverrideMode(true)
	if err := s.Run("pv 9"); err != nil {
		t.Fatal(err)
	}
	s.SetOverrideMode(false)
	if got, _ := s.GetVarInt("pv"); got != 3 {
		t.Errorf("persistent variable overridden to %d", got)
	}
	joined := strings.Join(*msgs, "\n")
	if !strings.Contains(joined, "cannot override persistent") {
		t.Errorf("no persist diagnostic: %q", joined)
	}
}

func TestStringVarChange(t *testing.T) {
	s := newState(t)
	changes := 0
	if _, err := s.NewSVar("motd", "hi", func(*State, *Ident) { changes++ }, 0); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(`motd "hello there"`); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.GetVarStr("motd"); got != "hello there" {
		t.Errorf("motd = %q", got)
	}
	if changes != 1 {
		t.Errorf("change callback ran %d times", changes)
	}
}

func TestBlocksAsStrings(t *testing.T) {
	s := newState(t)
	testStr(t, s, "result [ foo  bar ]", " foo  bar ")
	testStr(t, s, "alias name World; result [Hello @name]", "Hello World")
	testStr(t, s, "result [x @(+ 1 2) y]", "x 3 y")
	// nested brackets defer substitution by level
	testStr(t, s, "alias w deep; result [[@@w]]", "[deep]")
	testStr(t, s, "result [[@w]]", "[@w]")
}

func TestLookupForms(t *testing.T) {
	s := newState(t)
	testInt(t, s, `alias x 3; alias y 2; + $x $(result y)`, 5)
	testStr(t, s, `alias key val; result $"key"`, "val")
	testInt(t, s, `alias ptr tgt; alias tgt 9; + $$ptr 0`, 9)
}

func TestUnknownCommand(t *testing.T) {
	s, msgs, _ := newStateSink(t)
	if err := s.Run("definitelynotacommand 1 2"); err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(*msgs, "\n")
	if !strings.Contains(joined, "unknown command") {
		t.Errorf("no unknown-command diagnostic: %q", joined)
	}
}

func TestNumericHeadIsLiteral(t *testing.T) {
	s := newState(t)
	testInt(t, s, "42", 42)
	testInt(t, s, "0x10", 16)
}

func TestRecursionLimit(t *testing.T) {
	s, msgs, _ := newStateSink(t)
	if err := s.Run("alias r [r]; r"); err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(*msgs, "\n")
	if !strings.Contains(joined, "exceeded recursion limit") {
		t.Errorf("no recursion diagnostic: %q", joined)
	}
}

func TestRecursionBelowCap(t *testing.T) {
	var msgs []string
	s := New(WithOutput(io.Discard),
		WithErrorSink(func(m string) { msgs = append(msgs, m) }),
		WithRecursionLimit(64))
	RegisterLibraries(s, LibAll)
	// bounded recursion well under the cap succeeds silently
	testInt(t, s, "alias down [if (> $arg1 0) [down (- $arg1 1)] [result 0]]; down 10; result 1", 1)
	for _, m := range msgs {
		if strings.Contains(m, "recursion") {
			t.Fatalf("unexpected recursion diagnostic: %q", m)
		}
	}
}

func TestCallHook(t *testing.T) {
	s := newState(t)
	calls := 0
	s.SetCallHook(func(*State) error {
		calls++
		return nil
	})
	testInt(t, s, "+ 1 2", 3)
	if calls == 0 {
		t.Fatal("hook never ran")
	}

	boom := errors.New("aborted by hook")
	s.SetCallHook(func(*State) error { return boom })
	if err := s.Run("+ 1 2"); !errors.Is(err, boom) {
		t.Fatalf("hook abort not propagated: %v", err)
	}
	s.SetCallHook(nil)
}

func TestSiblingStates(t *testing.T) {
	s := newState(t)
	testInt(t, s, "alias shared 5; result $shared", 5)
	sib := s.NewThread()
	testInt(t, sib, "+ $shared 1", 6)
	testInt(t, sib, "alias fromsib 2; result $fromsib", 2)
	testInt(t, s, "result $fromsib", 2)
	// sibling override mode does not leak
	sib.SetOverrideMode(true)
	if s.identFlags&IdfOverridden != 0 {
		t.Fatal("override mode leaked across siblings")
	}
}

func TestStatementSeparators(t *testing.T) {
	s := newState(t)
	testInt(t, s, "alias a 1; alias b 2\n+ $a $b // trailing comment", 3)
	testInt(t, s, "// full line comment\n+ 2 2", 4)
}

func TestParenInline(t *testing.T) {
	s := newState(t)
	testInt(t, s, "+ (+ 1 2) (* 2 3)", 9)
	testStr(t, s, "concat (+ 1 1) x", "2 x")
}

func TestQuotedStrings(t *testing.T) {
	s := newState(t)
	testStr(t, s, `result "a^nb"`, "a\nb")
	testStr(t, s, `result "tab^there"`, "tab\there")
	testStr(t, s, `result "say ^"hi^""`, `say "hi"`)
}

func TestErrorsCarryAliasStack(t *testing.T) {
	s := newState(t)
	err := s.Run("alias lvl2 [break]; alias lvl1 [lvl2]; lvl1")
	if err == nil {
		t.Fatal("expected error")
	}
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("error type %T", err)
	}
	if len(cerr.Stack) < 2 {
		t.Fatalf("stack snapshot %+v", cerr.Stack)
	}
	if cerr.Stack[0].Name != "lvl2" {
		t.Errorf("most recent frame = %q, want lvl2", cerr.Stack[0].Name)
	}
}
