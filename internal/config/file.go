package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name searched for by FindConfigFile.
const ConfigFileName = "fixturekit.yaml"

// File is the on-disk form of fixturekit.yaml. The configuration keys sit at
// the top level next to the non-merge settings.
type File struct {
	Configuration `yaml:",inline"`

	// PluginMetadata is the path of the plugin-under-test metadata file.
	PluginMetadata string `yaml:"plugin_metadata,omitempty"`

	// LogLevel sets lifecycle logging verbosity (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level,omitempty"`
}

// LoadFile loads a config file. A missing file yields an empty File without
// error; a malformed one is an error.
func LoadFile(path string) (File, error) {
	var f File

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return f, nil
	}
	if err != nil {
		return File{}, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if f.LogLevel != "" && !validLogLevels[f.LogLevel] {
		return File{}, fmt.Errorf("invalid log_level %q in %s, must be one of: trace, debug, info, warn, error", f.LogLevel, path)
	}

	return f, nil
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Marshal renders f as YAML.
func (f File) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}

// Template returns the file written by `fixturekit config init`: the hard
// defaults spelled out so they can be edited.
func Template() File {
	return File{
		Configuration:  Defaults(),
		PluginMetadata: DefaultPluginMetadata,
		LogLevel:       "warn",
	}
}
