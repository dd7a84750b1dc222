package cs

import (
	"testing"
)

// register a probe command and call it with no arguments, so every format
// code receives its if-missing default.
func TestFormatDefaults(t *testing.T) {
	s := newState(t)
	var got []Value
	_, err := s.NewCommand("probe", "ibfsT", func(cs *State, args []Value) error {
		got = append([]Value(nil), args...)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Run("probe"); err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Fatalf("marshaled %d args", len(got))
	}
	if got[0].GetInt() != 0 {
		t.Errorf("i default = %d", got[0].GetInt())
	}
	if got[1].GetInt() != minIntSentinel {
		t.Errorf("b default = %d", got[1].GetInt())
	}
	if got[2].GetFloat() != 0 {
		t.Errorf("f default = %v", got[2].GetFloat())
	}
	if got[3].Kind() != KindString && got[3].Kind() != KindMacro {
		t.Errorf("s default kind = %d", got[3].Kind())
	}
	if got[4].Kind() != KindNull {
		t.Errorf("T default kind = %d", got[4].Kind())
	}
}

func TestFormatRepeatCycling(t *testing.T) {
	s := newState(t)
	var ints []int64
	_, err := s.NewCommand("sumprobe", "i1V", func(cs *State, args []Value) error {
		ints = ints[:0]
		for i := range args {
			ints = append(ints, args[i].GetInt())
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Run("sumprobe 1 2 3 4 5"); err != nil {
		t.Fatal(err)
	}
	if len(ints) != 5 {
		t.Fatalf("repeat cycling marshaled %d args: %v", len(ints), ints)
	}
	for i, v := range ints {
		if v != int64(i+1) {
			t.Errorf("arg %d = %d", i, v)
		}
	}
}

func TestFormatConcatenated(t *testing.T) {
	s := newState(t)
	var got string
	if _, err := s.NewCommand("catprobe", "C", func(cs *State, args []Value) error {
		got = args[0].GetStr()
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.Run("catprobe one 2 three"); err != nil {
		t.Fatal(err)
	}
	if got != "one 2 three" {
		t.Errorf("C marshaling = %q", got)
	}
}

func TestFormatNumArgs(t *testing.T) {
	s := newState(t)
	var count int64
	if _, err := s.NewCommand("nprobe", "ssN", func(cs *State, args []Value) error {
		count = args[2].GetInt()
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.Run("nprobe only"); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("N with one actual = %d", count)
	}
	if err := s.Run("nprobe a b"); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("N with two actuals = %d", count)
	}
}

func TestFormatSelfIdent(t *testing.T) {
	s := newState(t)
	var name string
	if _, err := s.NewCommand("whoami", "$", func(cs *State, args []Value) error {
		name = args[0].Ident().Name()
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.Run("whoami"); err != nil {
		t.Fatal(err)
	}
	if name != "whoami" {
		t.Errorf("$ bound %q", name)
	}
}

func TestFormatIdentCreation(t *testing.T) {
	s := newState(t)
	var id *Ident
	if _, err := s.NewCommand("rprobe", "r", func(cs *State, args []Value) error {
		id = args[0].Ident()
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.Run("rprobe brandnew"); err != nil {
		t.Fatal(err)
	}
	if id == nil || id.Name() != "brandnew" {
		t.Fatalf("r did not create ident: %+v", id)
	}
	if !s.HaveIdent("brandnew") {
		t.Error("created ident not in table")
	}
	// missing r argument yields the dummy
	if err := s.Run("rprobe"); err != nil {
		t.Fatal(err)
	}
	if id != s.Dummy() {
		t.Errorf("missing r = %v", id.Name())
	}
}

func TestFormatCodeArgument(t *testing.T) {
	s := newState(t)
	if _, err := s.NewCommand("twice", "e", func(cs *State, args []Value) error {
		if err := cs.runCodeDiscard(args[0].Code()); err != nil {
			return err
		}
		return cs.runRet(args[0].Code())
	}); err != nil {
		t.Fatal(err)
	}
	testInt(t, s, "alias c 0; twice [c = (+ $c 1); result $c]", 2)
}

func TestIllegalFormatStrings(t *testing.T) {
	s := newState(t)
	bad := []string{"z", "iq", "1i", "V1"}
	for _, format := range bad {
		if _, err := s.NewCommand("bad_"+format, format, func(*State, []Value) error { return nil }); err == nil {
			t.Errorf("format %q accepted", format)
		}
	}
	// more fixed arguments than the dispatch limit
	if _, err := s.NewCommand("toomany", "iiiiiiiiiiiii", func(*State, []Value) error { return nil }); err == nil {
		t.Error("13 fixed args accepted")
	}
}

func TestExcessArgumentsDiscarded(t *testing.T) {
	s := newState(t)
	var got int64
	if _, err := s.NewCommand("onearg", "i", func(cs *State, args []Value) error {
		got = args[0].GetInt()
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.Run("onearg 7 8 9"); err != nil {
		t.Fatal(err)
	}
	if got != 7 {
		t.Errorf("first arg = %d", got)
	}
	// and the excess leaves no residue on the result
	testInt(t, s, "onearg 1 2 3; result 42", 42)
}

func TestLateBoundDispatch(t *testing.T) {
	s := newState(t)
	var sum int64
	if _, err := s.NewCommand("acc", "ii", func(cs *State, args []Value) error {
		sum = args[0].GetInt() + args[1].GetInt()
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	// call through a computed name: compiled late-bound
	if err := s.Run(`alias cmdname acc; $cmdname 3 4`); err != nil {
		t.Fatal(err)
	}
	_ = sum
	if err := s.Run(`[acc] 5 6`); err != nil {
		t.Fatal(err)
	}
	if sum != 11 {
		t.Errorf("late-bound call sum = %d", sum)
	}
}
