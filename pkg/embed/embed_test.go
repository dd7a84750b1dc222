package cubescript

import (
	"errors"
	"strings"
	"testing"
)

func TestRunReturnsGoValues(t *testing.T) {
	vm := New(WithErrorSink(func(string) {}))
	res, err := vm.Run("+ 1 2")
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := res.(int64); !ok || got != 3 {
		t.Fatalf("result = %#v", res)
	}
	res, err = vm.Run("")
	if err != nil {
		t.Fatal(err)
	}
	if res != nil {
		t.Fatalf("empty program result = %#v", res)
	}
	str, err := vm.RunString("concat a b")
	if err != nil || str != "a b" {
		t.Fatalf("RunString = %q, %v", str, err)
	}
}

func TestRegisterCommand(t *testing.T) {
	vm := New()
	called := 0
	err := vm.RegisterCommand("host_add", "ii", func(args []any) (any, error) {
		called++
		return args[0].(int64) + args[1].(int64), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	n, err := vm.RunInt("host_add 20 22")
	if err != nil || n != 42 {
		t.Fatalf("host_add = %d, %v", n, err)
	}
	if called != 1 {
		t.Errorf("callback ran %d times", called)
	}
	if err := vm.RegisterCommand("host_add", "ii", nil); err == nil {
		t.Error("duplicate registration accepted")
	}

	boom := errors.New("host failure")
	if err := vm.RegisterCommand("host_fail", "", func([]any) (any, error) {
		return nil, boom
	}); err != nil {
		t.Fatal(err)
	}
	if err := vm.RunBoolErr("host_fail"); !errors.Is(err, boom) {
		t.Fatalf("host error not propagated: %v", err)
	}
}

// RunBoolErr is a tiny helper for error-only runs.
func (v *VM) RunBoolErr(src string) error {
	_, err := v.RunBool(src)
	return err
}

func TestVariables(t *testing.T) {
	var sinkMsgs []string
	vm := New(WithErrorSink(func(m string) { sinkMsgs = append(sinkMsgs, m) }))
	seen := int64(-1)
	if err := vm.RegisterIntVar("vol", 0, 100, 30, func(v int64) { seen = v }, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := vm.Run("vol 80"); err != nil {
		t.Fatal(err)
	}
	if v, _ := vm.IntVar("vol"); v != 80 {
		t.Errorf("vol = %d", v)
	}
	if seen != 80 {
		t.Errorf("change callback saw %d", seen)
	}
	if _, err := vm.Run("vol 300"); err != nil {
		t.Fatal(err)
	}
	if v, _ := vm.IntVar("vol"); v != 100 {
		t.Errorf("clamped vol = %d", v)
	}
	if len(sinkMsgs) == 0 {
		t.Error("no clamp diagnostic through sink")
	}

	vm.SetIntVar("vol", 500, false, false)
	if v, _ := vm.IntVar("vol"); v != 500 {
		t.Errorf("unclamped host set = %d", v)
	}
}

func TestIntrospection(t *testing.T) {
	vm := New()
	if err := vm.RegisterStringVar("name", "cube", nil, FlagPersist); err != nil {
		t.Fatal(err)
	}
	var found *IdentInfo
	for _, info := range vm.Idents() {
		if info.Name == "name" {
			cp := info
			found = &cp
		}
	}
	if found == nil {
		t.Fatal("registered variable not enumerated")
	}
	if found.Kind != "svar" || found.Flags&FlagPersist == 0 || found.Value != "cube" {
		t.Errorf("introspection info %+v", *found)
	}
}

func TestAliasAccess(t *testing.T) {
	vm := New()
	if _, err := vm.Run("alias greeting hello"); err != nil {
		t.Fatal(err)
	}
	if v, ok := vm.Alias("greeting"); !ok || v != "hello" {
		t.Errorf("Alias = %q, %v", v, ok)
	}
	if _, ok := vm.Alias("missing"); ok {
		t.Error("missing alias reported present")
	}
}

func TestThreadSharing(t *testing.T) {
	vm := New()
	if _, err := vm.Run("alias shared 9"); err != nil {
		t.Fatal(err)
	}
	sib := vm.NewThread()
	n, err := sib.RunInt("+ $shared 1")
	if err != nil || n != 10 {
		t.Fatalf("sibling lookup = %d, %v", n, err)
	}
}

func TestDisassembleSmoke(t *testing.T) {
	vm := New()
	out := vm.Disassemble("+ 1 2")
	if !strings.Contains(out, "START") || !strings.Contains(out, "EXIT") {
		t.Errorf("disassembly:\n%s", out)
	}
}
