package config

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// File holds settings read from a YAML configuration file. Nested mappings
// are flattened to dotted keys, so
//
//	log:
//	  max_size_mb: 20
//
// is available as "log.max_size_mb".
type File struct {
	path     string
	settings map[string]string
}

// LoadFile reads and flattens the YAML file at path
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}
	return ParseFile(path, data)
}

// ParseFile flattens YAML data. path is only used in error messages.
func ParseFile(path string, data []byte) (*File, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	settings := make(map[string]string)
	flatten("", raw, settings)

	return &File{path: path, settings: settings}, nil
}

func flatten(prefix string, in map[string]any, out map[string]string) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// GetSetting implements SettingsGetter
func (f *File) GetSetting(key string) (string, error) {
	if f == nil {
		return "", nil
	}
	return f.settings[key], nil
}

// Path returns the file the settings were read from
func (f *File) Path() string {
	if f == nil {
		return ""
	}
	return f.path
}

// Keys returns every flattened key in sorted order
func (f *File) Keys() []string {
	if f == nil {
		return nil
	}
	keys := make([]string, 0, len(f.settings))
	for k := range f.settings {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
