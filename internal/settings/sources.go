package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/alnah/go-scholar/internal/yamlutil"
)

// Source names, highest precedence first.
const (
	SourceInit        = "init"
	SourceCLI         = "cli"
	SourceEnv         = "env"
	SourceSecrets     = "secrets"
	SourceFrontMatter = "front_matter"
	SourceConfigFile  = "config_file"
	SourceDefaults    = "defaults"
)

// EnvPrefix prefixes every settings environment variable.
const EnvPrefix = "SCHOLAR_"

// EnvConfigPath names the config file when --config is not given.
const EnvConfigPath = EnvPrefix + "CONFIG"

// ConfigFileNames are looked up in the working directory, in order.
var ConfigFileNames = []string{"scholar.yaml", "scholar.yml", "scholar.toml"}

// Provider returns the partial settings map of one source.
type Provider func() (map[string]any, error)

// Source is a named settings provider.
type Source struct {
	Name string
	Load Provider
}

// SourceRecord is the raw data one source contributed to a resolution.
type SourceRecord struct {
	Name string
	Data map[string]any
}

// Static returns a source that always yields a copy of data.
func Static(name string, data map[string]any) Source {
	return Source{Name: name, Load: func() (map[string]any, error) {
		if data == nil {
			return map[string]any{}, nil
		}
		m, _ := normalize(data).(map[string]any)
		return m, nil
	}}
}

// Secrets returns the file-secret source. It never yields data.
func Secrets() Source {
	return Static(SourceSecrets, nil)
}

// Defaults returns the source of default values for cwd.
func Defaults(cwd string) Source {
	return Source{Name: SourceDefaults, Load: func() (map[string]any, error) {
		return Default(cwd).Map(), nil
	}}
}

// EnvVarName maps a dotted settings path to its environment variable.
func EnvVarName(path string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(path, ".", "_"))
}

// KnownEnvVars returns every recognized SCHOLAR_* variable, sorted.
func KnownEnvVars() []string {
	names := []string{EnvConfigPath}
	for _, p := range LeafPaths() {
		names = append(names, EnvVarName(p))
	}
	slices.Sort(names)
	return names
}

// UnknownEnvVars returns the SCHOLAR_* names in environ that are not recognized.
func UnknownEnvVars(environ []string) []string {
	known := KnownEnvVars()
	var out []string
	for _, kv := range environ {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, EnvPrefix) && !slices.Contains(known, name) {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// Env returns the environment source. lookup defaults to os.LookupEnv.
// Empty variables are treated as unset.
func Env(lookup func(string) (string, bool)) Source {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return Source{Name: SourceEnv, Load: func() (map[string]any, error) {
		out := map[string]any{}
		for _, p := range LeafPaths() {
			if v, ok := lookup(EnvVarName(p)); ok && v != "" {
				SetPath(out, p, v)
			}
		}
		return out, nil
	}}
}

// ConfigFile returns the config file source. An empty path yields no data.
func ConfigFile(path string) Source {
	return Source{Name: SourceConfigFile, Load: func() (map[string]any, error) {
		if path == "" {
			return map[string]any{}, nil
		}
		return LoadFile(path)
	}}
}

// DiscoverConfig returns the first of ConfigFileNames present in dir, or "".
func DiscoverConfig(dir string) string {
	for _, name := range ConfigFileNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p
		}
	}
	return ""
}

// LoadFile reads a YAML or TOML settings file into a generic map.
// A missing file yields ErrConfigNotFound; any other failure ErrConfigLoad.
func LoadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigLoad, path, err)
	}

	m, err := ParseDocument(data, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigLoad, path, err)
	}
	return m, nil
}

// Format identifies a settings document syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatForPath picks the syntax from the file extension. Anything that is
// not .toml is read as YAML.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// ParseDocument decodes a settings document into a normalized map.
func ParseDocument(data []byte, format Format) (map[string]any, error) {
	var m map[string]any
	switch format {
	case FormatTOML:
		m = map[string]any{}
		if _, err := toml.Decode(string(data), &m); err != nil {
			return nil, err
		}
	default:
		var err error
		if m, err = yamlutil.UnmarshalMap(data); err != nil {
			return nil, err
		}
	}
	out, _ := normalize(m).(map[string]any)
	return out, nil
}

// Inputs gathers the per-run data behind the standard source list.
type Inputs struct {
	CWD         string
	Overrides   map[string]any
	CLI         map[string]any
	FrontMatter map[string]any
	ConfigPath  string
	LookupEnv   func(string) (string, bool)
}

// StandardSources returns the sources in precedence order:
// init, cli, env, secrets, front_matter, config_file, defaults.
func StandardSources(in Inputs) []Source {
	return []Source{
		Static(SourceInit, in.Overrides),
		Static(SourceCLI, in.CLI),
		Env(in.LookupEnv),
		Secrets(),
		Static(SourceFrontMatter, in.FrontMatter),
		ConfigFile(in.ConfigPath),
		Defaults(in.CWD),
	}
}
