package link

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Config sections.
const (
	SectionAPIs   = "apis"
	SectionDBs    = "dbs"
	SectionQueues = "queues"

	keyWrapper = "wrapper"
	keyEnabled = "enabled"
)

// Sections lists the config sections in display order.
var Sections = []string{SectionAPIs, SectionDBs, SectionQueues}

// fileContent is the raw shape of a connectors file: section -> name -> fields.
type fileContent map[string]map[string]map[string]any

// Entry is one sanitized connector declaration.
type Entry struct {
	Section string
	Name    string
	// Wrapper is the canonical tag after alias resolution.
	Wrapper string
	Enabled bool
	// Params holds every field except wrapper and enabled. Treat as read-only.
	Params map[string]any
}

// Key returns "section/name".
func (e Entry) Key() string { return e.Section + "/" + e.Name }

// Config is the validated set of entries loaded from a connectors file.
type Config struct {
	entries []Entry
	idx     map[string]Entry
}

// LoadFile reads a YAML/JSON connectors file and validates every entry against reg.
func LoadFile(path string, reg Registry) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("connectors file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open connectors file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read connectors file: %w", err)
	}
	return Parse(raw, filepath.Ext(path), reg)
}

// Parse decodes connectors content. ext selects the format (".yaml", ".yml",
// ".json"); an empty ext tries each in turn.
func Parse(data []byte, ext string, reg Registry) (*Config, error) {
	if reg == nil {
		return nil, errors.New("registry is nil")
	}

	content, err := parseConnectors(data, ext)
	if err != nil {
		return nil, err
	}

	var errs []error
	for section := range content {
		if !knownSection(section) {
			errs = append(errs, fmt.Errorf("unknown section %q (expected one of %s)", section, strings.Join(Sections, ", ")))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	cfg := &Config{idx: make(map[string]Entry)}
	for _, section := range Sections {
		names := make([]string, 0, len(content[section]))
		for name := range content[section] {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, rawName := range names {
			entry, err := sanitizeEntry(section, rawName, content[section][rawName])
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if err := validateEntry(&entry, reg); err != nil {
				errs = append(errs, err)
				continue
			}
			if _, exists := cfg.idx[entry.Key()]; exists {
				errs = append(errs, fmt.Errorf("duplicate entry %q", entry.Key()))
				continue
			}
			cfg.entries = append(cfg.entries, entry)
			cfg.idx[entry.Key()] = entry
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if len(cfg.entries) == 0 {
		return nil, errors.New("connectors file contains no entries")
	}
	return cfg, nil
}

func parseConnectors(data []byte, ext string) (fileContent, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var errs []error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var content fileContent
		if err := d.fn(data, &content); err != nil {
			errs = append(errs, fmt.Errorf("decode %s connectors: %w", d.name, err))
			continue
		}
		if len(content) == 0 {
			return nil, errors.New("connectors file is empty")
		}
		return content, nil
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("connectors file extension %q not recognized (expected YAML or JSON)", ext)
	}
	return nil, errors.Join(errs...)
}

func knownSection(section string) bool {
	for _, s := range Sections {
		if s == section {
			return true
		}
	}
	return false
}

// sanitizeEntry trims the name, splits wrapper/enabled from params and
// replaces string params of the exact form ${VAR} with the environment value.
func sanitizeEntry(section, name string, fields map[string]any) (Entry, error) {
	entry := Entry{
		Section: section,
		Name:    strings.TrimSpace(name),
		Enabled: true,
		Params:  make(map[string]any, len(fields)),
	}
	if entry.Name == "" {
		return Entry{}, fmt.Errorf("%s: entry name is empty", section)
	}

	for k, v := range fields {
		key := strings.ToLower(strings.TrimSpace(k))
		switch key {
		case keyWrapper:
			s, ok := v.(string)
			if !ok {
				return Entry{}, fmt.Errorf("%s: wrapper must be a string", entry.Key())
			}
			entry.Wrapper = strings.TrimSpace(s)
		case keyEnabled:
			enabled, err := parseEnabled(v)
			if err != nil {
				return Entry{}, fmt.Errorf("%s: %w", entry.Key(), err)
			}
			entry.Enabled = enabled
		default:
			if s, ok := v.(string); ok {
				v = expandEnvRef(strings.TrimSpace(s))
			}
			entry.Params[key] = v
		}
	}
	return entry, nil
}

func expandEnvRef(s string) string {
	if len(s) > 3 && strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}
	return s
}

func parseEnabled(v any) (bool, error) {
	switch t := v.(type) {
	case nil:
		return true, nil
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, fmt.Errorf("enabled must be a boolean, got %q", t)
		}
		return b, nil
	default:
		return false, fmt.Errorf("enabled must be a boolean, got %T", v)
	}
}

// validateEntry resolves the wrapper tag and, for enabled entries, checks the options.
func validateEntry(entry *Entry, reg Registry) error {
	if entry.Wrapper == "" {
		return fmt.Errorf("%s: wrapper is required", entry.Key())
	}
	factory, tag, err := reg.FactoryFor(entry.Wrapper)
	if err != nil {
		return fmt.Errorf("%s: %w", entry.Key(), err)
	}
	if factory.Section() != entry.Section {
		return fmt.Errorf("%s: wrapper %q belongs in section %q", entry.Key(), tag, factory.Section())
	}
	entry.Wrapper = tag
	if !entry.Enabled {
		return nil
	}
	return factory.Validate(*entry)
}

// Lookup returns the entry declared as section/name.
func (c *Config) Lookup(section, name string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	e, ok := c.idx[section+"/"+strings.TrimSpace(name)]
	return e, ok
}

// All returns every entry, including disabled ones, ordered by section then name.
func (c *Config) All() []Entry {
	if c == nil {
		return nil
	}
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Enabled returns entries that are enabled.
func (c *Config) Enabled() []Entry {
	if c == nil {
		return nil
	}
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		if e.Enabled {
			out = append(out, e)
		}
	}
	return out
}
