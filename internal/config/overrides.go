package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Environment keys read into an Overrides snapshot.
const (
	EnvPrefix             = "FIXTUREKIT_"
	EnvProjectsRoot       = EnvPrefix + "PROJECTS_ROOT"
	EnvInvocationCacheDir = EnvPrefix + "INVOCATION_CACHE_DIR"
	EnvClasspathMode      = EnvPrefix + "CLASSPATH_MODE"
	EnvToolVersion        = EnvPrefix + "TOOL_VERSION"
	EnvDirectoryMode      = EnvPrefix + "DIRECTORY_MODE"
	EnvInternal           = EnvPrefix + "INTERNAL"
	EnvPluginMetadata     = EnvPrefix + "PLUGIN_METADATA"
	EnvLogLevel           = EnvPrefix + "LOG_LEVEL"
	EnvConfigFile         = EnvPrefix + "CONFIG"
)

// DefaultPluginMetadata is where the plugin-under-test metadata file is
// expected when nothing overrides it.
const DefaultPluginMetadata = "build/pluginUnderTestMetadata/plugin-under-test-metadata.properties"

// Overrides is an explicit snapshot of everything outside the test code that
// influences configuration. It is computed once per resolution and passed to
// Resolve; nothing in this package reads the environment on its own.
type Overrides struct {
	// Env holds values read from FIXTUREKIT_* environment variables.
	Env Configuration

	// File holds values read from fixturekit.yaml.
	File Configuration

	// IsInternal marks the test run as a self-test of this module. It forces
	// NoClasspath in its slot of the merge chain.
	IsInternal bool

	// PluginMetadata is the path of the plugin-under-test metadata file.
	PluginMetadata string

	// LogLevel is the minimum level for lifecycle logging.
	LogLevel string

	// ConfigFile is the path the File fragment was read from, if any.
	ConfigFile string
}

// Internal returns the fragment contributed by the self-test flag.
func (o Overrides) Internal() Configuration {
	if !o.IsInternal {
		return Configuration{}
	}
	return Configuration{ClasspathMode: NoClasspath}
}

// Chain returns the implicit fragments appended after the collected
// annotations, lowest precedence last.
func (o Overrides) Chain() []Configuration {
	return []Configuration{o.Env, o.File, o.Internal(), Defaults()}
}

// EffectivePluginMetadata returns the plugin metadata path, falling back to
// DefaultPluginMetadata.
func (o Overrides) EffectivePluginMetadata() string {
	if o.PluginMetadata != "" {
		return o.PluginMetadata
	}
	return DefaultPluginMetadata
}

// LoadOverrides builds a snapshot from lookup, usually os.LookupEnv. Missing
// and empty variables mean no override. When a config file is found (either
// FIXTUREKIT_CONFIG or fixturekit.yaml discovered from the working
// directory) it fills the File fragment and any settings the environment
// left empty.
func LoadOverrides(lookup func(string) (string, bool)) (Overrides, error) {
	var o Overrides

	env, err := envConfiguration(lookup)
	if err != nil {
		return Overrides{}, err
	}
	o.Env = env

	if v := lookupValue(lookup, EnvInternal); v != "" {
		internal, err := strconv.ParseBool(v)
		if err != nil {
			return Overrides{}, fmt.Errorf("invalid %s %q: %w", EnvInternal, v, err)
		}
		o.IsInternal = internal
	}
	o.PluginMetadata = lookupValue(lookup, EnvPluginMetadata)
	o.LogLevel = lookupValue(lookup, EnvLogLevel)

	path := lookupValue(lookup, EnvConfigFile)
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return Overrides{}, fmt.Errorf("get working directory: %w", err)
		}
		path, err = FindConfigFile(cwd)
		if err != nil {
			return Overrides{}, err
		}
	}
	if path == "" {
		return o, nil
	}

	file, err := LoadFile(path)
	if err != nil {
		return Overrides{}, err
	}
	// Paths in the file are relative to the file, not to whichever package
	// directory the test binary runs in.
	base := filepath.Dir(path)
	o.ConfigFile = path
	o.File = file.Configuration.RelativeTo(base)
	if o.PluginMetadata == "" && file.PluginMetadata != "" {
		o.PluginMetadata = file.PluginMetadata
		if !filepath.IsAbs(o.PluginMetadata) {
			o.PluginMetadata = filepath.Join(base, o.PluginMetadata)
		}
	}
	if o.LogLevel == "" {
		o.LogLevel = file.LogLevel
	}

	return o, nil
}

// LoadOverridesFromEnv is LoadOverrides over the process environment.
func LoadOverridesFromEnv() (Overrides, error) {
	return LoadOverrides(os.LookupEnv)
}

func envConfiguration(lookup func(string) (string, bool)) (Configuration, error) {
	var cfg Configuration

	if v := lookupValue(lookup, EnvProjectsRoot); v != "" {
		cfg.ProjectsRoot = String(v)
	}
	if v := lookupValue(lookup, EnvInvocationCacheDir); v != "" {
		cfg.InvocationCacheDir = String(v)
	}
	if v := lookupValue(lookup, EnvToolVersion); v != "" {
		cfg.ToolVersion = String(v)
	}

	mode, err := ParseClasspathMode(lookupValue(lookup, EnvClasspathMode))
	if err != nil {
		return Configuration{}, fmt.Errorf("%s: %w", EnvClasspathMode, err)
	}
	cfg.ClasspathMode = mode

	dirMode, err := ParseDirectoryMode(lookupValue(lookup, EnvDirectoryMode))
	if err != nil {
		return Configuration{}, fmt.Errorf("%s: %w", EnvDirectoryMode, err)
	}
	cfg.DirectoryMode = dirMode

	return cfg, nil
}

func lookupValue(lookup func(string) (string, bool), key string) string {
	if lookup == nil {
		return ""
	}
	v, ok := lookup(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// Resolve merges the collected fragments, closest first, with the implicit
// override chain and validates the result.
func Resolve(fragments []Configuration, overrides Overrides) (Configuration, error) {
	chain := make([]Configuration, 0, len(fragments)+4)
	chain = append(chain, fragments...)
	chain = append(chain, overrides.Chain()...)

	cfg := Reduce(chain...)
	if err := cfg.Validate(); err != nil {
		return Configuration{}, fmt.Errorf("invalid fixture configuration: %w", err)
	}
	return cfg, nil
}
