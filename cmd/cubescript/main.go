package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/cubelang/cubescript/internal/config"
	cubescript "github.com/cubelang/cubescript/pkg/embed"
	"github.com/cubelang/cubescript/pkg/persist"
)

// cliConfig is the optional YAML configuration file.
type cliConfig struct {
	Startup        []string `yaml:"startup"`
	RecursionLimit int      `yaml:"recursion_limit"`
	PersistFile    string   `yaml:"persist_file"`
	SnapshotDB     string   `yaml:"snapshot_db"`
}

func loadConfig(path string) (cliConfig, error) {
	var cfg cliConfig
	if path == "" {
		path = config.ConfigFileName
		if _, err := os.Stat(path); err != nil {
			if dir, derr := os.UserConfigDir(); derr == nil {
				path = filepath.Join(dir, "cubescript", config.ConfigFileName)
			}
			if _, err := os.Stat(path); err != nil {
				return cfg, nil
			}
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func isSourceFile(path string) bool {
	for _, ext := range config.SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func main() {
	var (
		eval       = flag.String("e", "", "run the given script and exit")
		disasm     = flag.Bool("disasm", false, "disassemble instead of running")
		configPath = flag.String("config", "", "configuration file")
		persistIn  = flag.String("persist", "", "persisted-variable file to load and save")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cubescript:", err)
		os.Exit(1)
	}

	var opts []cubescript.Option
	if cfg.RecursionLimit > 0 {
		opts = append(opts, cubescript.WithRecursionLimit(cfg.RecursionLimit))
	}
	vm := cubescript.New(opts...)

	persistFile := *persistIn
	if persistFile == "" {
		persistFile = cfg.PersistFile
	}
	if persistFile != "" {
		if snap, err := persist.LoadFile(persistFile); err == nil {
			persist.Apply(vm, snap)
		}
	}

	for _, path := range cfg.Startup {
		if err := vm.ExecFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "cubescript: startup %s: %v\n", path, err)
		}
	}

	status := 0
	switch {
	case *eval != "":
		status = runSource(vm, *eval, *disasm)
	case flag.NArg() > 0:
		for _, path := range flag.Args() {
			if !isSourceFile(path) {
				fmt.Fprintf(os.Stderr, "cubescript: %s: not a script file\n", path)
				status = 1
				continue
			}
			if *disasm {
				data, err := os.ReadFile(path)
				if err != nil {
					fmt.Fprintln(os.Stderr, "cubescript:", err)
					status = 1
					continue
				}
				fmt.Print(vm.Disassemble(string(data)))
				continue
			}
			if err := vm.ExecFile(path); err != nil {
				fmt.Fprintf(os.Stderr, "cubescript: %s: %v\n", path, err)
				status = 1
			}
		}
	default:
		repl(vm)
	}

	if persistFile != "" {
		if err := persist.SaveFile(persistFile, persist.Collect(vm)); err != nil {
			fmt.Fprintln(os.Stderr, "cubescript:", err)
		}
	}
	if cfg.SnapshotDB != "" {
		if store, err := persist.Open(cfg.SnapshotDB); err == nil {
			if _, err := store.Save(persist.Collect(vm)); err != nil {
				fmt.Fprintln(os.Stderr, "cubescript:", err)
			}
			store.Close()
		}
	}
	os.Exit(status)
}

func runSource(vm *cubescript.VM, src string, disasm bool) int {
	if disasm {
		fmt.Print(vm.Disassemble(src))
		return 0
	}
	res, err := vm.Run(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cubescript:", err)
		return 1
	}
	if res != nil {
		fmt.Println(res)
	}
	return 0
}

func repl(vm *cubescript.VM) {
	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	prompt := func() {
		if interactive {
			fmt.Print("> ")
		}
	}
	if interactive {
		fmt.Println("cubescript console; .help for meta commands")
	}
	sc := bufio.NewScanner(os.Stdin)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	prompt()
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
		case line == ".quit":
			return
		case line == ".help":
			fmt.Println(".vars          list variables\n.disasm CODE   show bytecode\n.quit          exit")
		case line == ".vars":
			for _, info := range vm.Idents() {
				switch info.Kind {
				case "ivar", "fvar", "svar":
					fmt.Printf("%s = %v\n", info.Name, info.Value)
				}
			}
		case strings.HasPrefix(line, ".disasm "):
			fmt.Print(vm.Disassemble(strings.TrimPrefix(line, ".disasm ")))
		default:
			res, err := vm.Run(line)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
			} else if res != nil {
				fmt.Println(res)
			}
		}
		prompt()
	}
}
