package cs

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"
)

// TestScriptCorpus runs the end-to-end scripts under testdata: each archive
// pairs <name>.cfg with <name>.out holding the expected string result.
func TestScriptCorpus(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no script archives under testdata")
	}
	for _, file := range files {
		archive, err := txtar.ParseFile(file)
		if err != nil {
			t.Fatalf("parse %s: %v", file, err)
		}
		scripts := map[string]string{}
		expects := map[string]string{}
		for _, f := range archive.Files {
			name := strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
			switch filepath.Ext(f.Name) {
			case ".cfg":
				scripts[name] = string(f.Data)
			case ".out":
				expects[name] = strings.TrimRight(string(f.Data), "\n")
			}
		}
		for name, src := range scripts {
			want, ok := expects[name]
			if !ok {
				t.Errorf("%s: %s.cfg has no matching .out", file, name)
				continue
			}
			t.Run(filepath.Base(file)+"/"+name, func(t *testing.T) {
				s := New(WithOutput(io.Discard), WithErrorSink(func(string) {}))
				RegisterLibraries(s, LibAll)
				got, err := s.RunString(src)
				if err != nil {
					t.Fatalf("run: %v", err)
				}
				if got != want {
					t.Errorf("result %q, want %q", got, want)
				}
			})
		}
	}
}
