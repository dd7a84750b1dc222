package cs

import (
	"fmt"
	"testing"
)

func TestIdentIndexStability(t *testing.T) {
	s := newState(t)
	if err := s.Run("alias early 1"); err != nil {
		t.Fatal(err)
	}
	id := s.Ident("early")
	idx := id.Index()
	for i := 0; i < 50; i++ {
		if err := s.Run(fmt.Sprintf("alias filler%d %d", i, i)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.NewIVar("later", 0, 10, 1, nil, 0); err != nil {
		t.Fatal(err)
	}
	if got := s.Ident("early"); got != id || got.Index() != idx {
		t.Fatalf("ident index moved: %d -> %d", idx, got.Index())
	}
	for _, cur := range s.Idents() {
		if s.IdentByIndex(cur.Index()) != cur {
			t.Fatalf("index vector out of sync for %s", cur.Name())
		}
		if s.Ident(cur.Name()) != cur {
			t.Fatalf("name map out of sync for %s", cur.Name())
		}
	}
}

func TestReservedArgIdents(t *testing.T) {
	s := newState(t)
	for i := 0; i < MaxArguments; i++ {
		id := s.Ident(fmt.Sprintf("arg%d", i+1))
		if id == nil {
			t.Fatalf("arg%d missing", i+1)
		}
		if id.Index() != i {
			t.Errorf("arg%d index = %d", i+1, id.Index())
		}
		if id.Flags()&IdfArg == 0 {
			t.Errorf("arg%d lacks the ARG flag", i+1)
		}
	}
}

func TestNumericNameRejected(t *testing.T) {
	s, msgs, _ := newStateSink(t)
	if err := s.Run("alias 12 value"); err != nil {
		t.Fatal(err)
	}
	if s.HaveIdent("12") {
		t.Fatal("numeric name entered the ident table")
	}
	found := false
	for _, m := range *msgs {
		if m != "" {
			found = true
		}
	}
	if !found {
		t.Error("no diagnostic for numeric alias name")
	}

	if _, err := s.NewIVar("-3x", 0, 1, 0, nil, 0); err == nil {
		t.Error("numeric variable name accepted")
	}
}

func TestRedefinitionRejected(t *testing.T) {
	s := newState(t)
	if _, err := s.NewIVar("dup", 0, 1, 0, nil, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := s.NewIVar("dup", 0, 1, 0, nil, 0); err == nil {
		t.Error("duplicate variable accepted")
	}
	if _, err := s.NewCommand("dup", "i", func(*State, []Value) error { return nil }); err == nil {
		t.Error("command over variable accepted")
	}
}

func TestAliasOverBuiltinRejected(t *testing.T) {
	s, msgs, _ := newStateSink(t)
	if _, err := s.NewIVar("bv", 0, 10, 1, nil, 0); err != nil {
		t.Fatal(err)
	}
	// aliasing a variable name routes to the checked setter instead
	if err := s.Run("alias bv 7"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.GetVarInt("bv"); got != 7 {
		t.Errorf("alias-to-var set %d", got)
	}
	// aliasing a command name is diagnosed
	if err := s.Run("alias echo nope"); err != nil {
		t.Fatal(err)
	}
	joined := ""
	for _, m := range *msgs {
		joined += m + "\n"
	}
	if !contains(joined, "cannot redefine builtin") {
		t.Errorf("no builtin-redefine diagnostic: %q", joined)
	}
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

func TestUsedArgsRestored(t *testing.T) {
	s := newState(t)
	before := s.stack.usedArgs
	if err := s.Run("alias inner [arg5 = extra; result $arg1]; alias outer [inner $arg1]; outer go"); err != nil {
		t.Fatal(err)
	}
	if s.stack.usedArgs != before {
		t.Fatalf("used-args bitset changed: %x -> %x", before, s.stack.usedArgs)
	}
	// arg bindings outside any frame read empty again
	if got := runStr(t, s, "result $arg1"); got != "" {
		t.Errorf("arg1 leaked binding %q", got)
	}
	if got := runStr(t, s, "result $arg5"); got != "" {
		t.Errorf("arg5 leaked binding %q", got)
	}
}

func TestAliasValueStack(t *testing.T) {
	s := newState(t)
	id := s.newIdent("stacked", 0)
	var st1, st2 identStack
	id.pushArg(StrVal("one"), &st1, true)
	id.pushArg(StrVal("two"), &st2, true)
	if id.getStr() != "two" {
		t.Fatalf("top binding %q", id.getStr())
	}
	id.popArg()
	if id.getStr() != "one" {
		t.Fatalf("after pop %q", id.getStr())
	}
	id.popArg()
	if id.val.Kind() != KindNull {
		t.Fatalf("base binding kind %d", id.val.Kind())
	}
}

func TestAliasCodeCacheInvalidation(t *testing.T) {
	s := newState(t)
	testInt(t, s, "alias fn [result 1]; fn", 1)
	id := s.Ident("fn")
	if id.code.isNull() {
		t.Fatal("alias body not cached after call")
	}
	if err := s.Run("alias fn [result 2]"); err != nil {
		t.Fatal(err)
	}
	if !id.code.isNull() {
		t.Fatal("cache not invalidated on mutation")
	}
	testInt(t, s, "fn", 2)
}

func TestStringPoolReleases(t *testing.T) {
	s := newState(t)
	if _, err := s.NewSVar("sv", "initial", nil, 0); err != nil {
		t.Fatal(err)
	}
	if s.w.strings.refs("initial") != 1 {
		t.Fatalf("initial refs = %d", s.w.strings.refs("initial"))
	}
	s.SetVarStr("sv", "second", false)
	if s.w.strings.refs("initial") != 0 {
		t.Error("old value still referenced")
	}
	if s.w.strings.refs("second") != 1 {
		t.Error("new value not interned")
	}
	size := s.StringPoolSize()
	s.SetVarStr("sv", "third", false)
	if s.StringPoolSize() != size {
		t.Error("pool grows on overwrite")
	}
}
