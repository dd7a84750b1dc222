package config

// SourceFileExt is the canonical script extension.
const SourceFileExt = ".cfg"

// SourceFileExtensions are all recognized script extensions.
var SourceFileExtensions = []string{".cfg", ".cs"}

// ConfigFileName is the optional CLI configuration file, looked up in the
// working directory and then the user config dir.
const ConfigFileName = "cubescript.yaml"

// DefaultPersistFile is a conventional file name for saved PERSIST-flagged
// variables. The CLI does not fall back to it: it loads and saves only the
// file named by -persist or by persist_file in the config.
const DefaultPersistFile = "saved.cfg.yaml"

// ReplaceableBuiltins are the reserved names a host may redefine exactly
// once to customize variable printing and change notification.
var ReplaceableBuiltins = []string{
	"//ivar", "//fvar", "//svar", "//var_changed",
	"//ivar_builtin", "//fvar_builtin", "//svar_builtin",
}
