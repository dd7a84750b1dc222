// Package persist implements host-driven save and restore of PERSIST-flagged
// interpreter variables: a YAML document format for plain files and a
// SQLite-backed snapshot store for hosts that keep history.
package persist

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	cubescript "github.com/cubelang/cubescript/pkg/embed"
)

// Var is one persisted variable in its canonical textual form.
type Var struct {
	Name  string `yaml:"name"`
	Kind  string `yaml:"kind"`
	Value string `yaml:"value"`
}

// Snapshot is a collection of persisted variables taken at one moment.
type Snapshot struct {
	ID    string    `yaml:"id,omitempty"`
	Taken time.Time `yaml:"taken,omitempty"`
	Vars  []Var     `yaml:"vars"`
}

// Collect gathers every PERSIST-flagged variable from the VM.
func Collect(vm *cubescript.VM) Snapshot {
	var snap Snapshot
	for _, info := range vm.Idents() {
		if info.Flags&cubescript.FlagPersist == 0 {
			continue
		}
		switch info.Kind {
		case "ivar":
			v, _ := vm.IntVar(info.Name)
			snap.Vars = append(snap.Vars, Var{Name: info.Name, Kind: "int",
				Value: strconv.FormatInt(v, 10)})
		case "fvar":
			v, _ := vm.FloatVar(info.Name)
			snap.Vars = append(snap.Vars, Var{Name: info.Name, Kind: "float",
				Value: strconv.FormatFloat(v, 'g', -1, 64)})
		case "svar":
			v, _ := vm.StringVar(info.Name)
			snap.Vars = append(snap.Vars, Var{Name: info.Name, Kind: "string", Value: v})
		}
	}
	snap.Taken = time.Now()
	return snap
}

// Apply restores a snapshot through the host setters: values clamp to the
// registered domains and change callbacks run. Unknown names are skipped.
func Apply(vm *cubescript.VM, snap Snapshot) {
	for _, v := range snap.Vars {
		switch v.Kind {
		case "int":
			n, err := strconv.ParseInt(v.Value, 10, 64)
			if err != nil {
				continue
			}
			vm.SetIntVar(v.Name, n, true, true)
		case "float":
			f, err := strconv.ParseFloat(v.Value, 64)
			if err != nil {
				continue
			}
			vm.SetFloatVar(v.Name, f, true, true)
		case "string":
			vm.SetStringVar(v.Name, v.Value, true)
		}
	}
}

// SaveFile writes the snapshot as a YAML document.
func SaveFile(path string, snap Snapshot) error {
	data, err := yaml.Marshal(&snap)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadFile reads a YAML snapshot document.
func LoadFile(path string) (Snapshot, error) {
	var snap Snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return snap, err
	}
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("parse %s: %w", path, err)
	}
	return snap, nil
}
