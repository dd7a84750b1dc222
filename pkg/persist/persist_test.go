package persist

import (
	"path/filepath"
	"testing"

	cubescript "github.com/cubelang/cubescript/pkg/embed"
)

func newVM(t *testing.T) *cubescript.VM {
	t.Helper()
	vm := cubescript.New(cubescript.WithErrorSink(func(string) {}))
	if err := vm.RegisterIntVar("volume", 0, 100, 40, nil, cubescript.FlagPersist); err != nil {
		t.Fatal(err)
	}
	if err := vm.RegisterFloatVar("gamma", 0.5, 3, 1, nil, cubescript.FlagPersist); err != nil {
		t.Fatal(err)
	}
	if err := vm.RegisterStringVar("nick", "anon", nil, cubescript.FlagPersist); err != nil {
		t.Fatal(err)
	}
	if err := vm.RegisterIntVar("transient", 0, 10, 5, nil, 0); err != nil {
		t.Fatal(err)
	}
	return vm
}

func TestCollectOnlyPersist(t *testing.T) {
	vm := newVM(t)
	snap := Collect(vm)
	if len(snap.Vars) != 3 {
		t.Fatalf("collected %d vars: %+v", len(snap.Vars), snap.Vars)
	}
	for _, v := range snap.Vars {
		if v.Name == "transient" {
			t.Error("non-persist variable collected")
		}
	}
}

func TestFileRoundTrip(t *testing.T) {
	vm := newVM(t)
	vm.SetIntVar("volume", 77, false, true)
	vm.SetStringVar("nick", "gopher", false)
	path := filepath.Join(t.TempDir(), "saved.yaml")
	if err := SaveFile(path, Collect(vm)); err != nil {
		t.Fatal(err)
	}

	fresh := newVM(t)
	snap, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	Apply(fresh, snap)
	if v, _ := fresh.IntVar("volume"); v != 77 {
		t.Errorf("volume restored to %d", v)
	}
	if v, _ := fresh.StringVar("nick"); v != "gopher" {
		t.Errorf("nick restored to %q", v)
	}
	if v, _ := fresh.IntVar("transient"); v != 5 {
		t.Errorf("transient touched: %d", v)
	}
}

func TestApplyClampsToDomain(t *testing.T) {
	vm := newVM(t)
	Apply(vm, Snapshot{Vars: []Var{{Name: "volume", Kind: "int", Value: "5000"}}})
	if v, _ := vm.IntVar("volume"); v != 100 {
		t.Errorf("restored value not clamped: %d", v)
	}
}

func TestSnapshotStore(t *testing.T) {
	vm := newVM(t)
	store, err := Open(filepath.Join(t.TempDir(), "snaps.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	vm.SetIntVar("volume", 61, false, true)
	id, err := store.Save(Collect(vm))
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("no snapshot id assigned")
	}

	vm.SetIntVar("volume", 62, false, true)
	id2, err := store.Save(Collect(vm))
	if err != nil {
		t.Fatal(err)
	}
	if id2 == id {
		t.Fatal("snapshot ids collide")
	}

	snap, err := store.Load(id)
	if err != nil {
		t.Fatal(err)
	}
	fresh := newVM(t)
	Apply(fresh, snap)
	if v, _ := fresh.IntVar("volume"); v != 61 {
		t.Errorf("loaded snapshot volume = %d", v)
	}

	list, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Errorf("listed %d snapshots", len(list))
	}
}
