package tidy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dpotapov/go-tidy/thtml"
)

// TagList is a list of tag names. In YAML it may be written as a sequence or as
// a single string of names separated by commas or spaces.
type TagList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *TagList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*l = splitTags(value.Value)
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := value.Decode(&names); err != nil {
			return err
		}
		var tags TagList
		for _, n := range names {
			tags = append(tags, splitTags(n)...)
		}
		*l = tags
		return nil
	}
	return fmt.Errorf("line %d: tag list must be a string or a sequence", value.Line)
}

func splitTags(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

// Config is the parser configuration read from a YAML file.
type Config struct {
	NewEmptyTags  TagList `yaml:"new-empty-tags"`
	NewInlineTags TagList `yaml:"new-inline-tags"`
	NewBlockTags  TagList `yaml:"new-blocklevel-tags"`
	NewPreTags    TagList `yaml:"new-pre-tags"`

	// InputXML keeps the case of names and discards unknown elements.
	InputXML bool `yaml:"input-xml"`

	// MaxDepth limits element nesting. Zero selects thtml.DefaultMaxDepth.
	MaxDepth int `yaml:"max-depth"`

	// Filter is an expression selecting the diagnostics to keep. See CompileFilter.
	Filter string `yaml:"filter"`
}

// LoadConfig reads the configuration file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes a YAML configuration. Unknown keys are rejected.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if cfg.MaxDepth < 0 {
		return nil, fmt.Errorf("max-depth must not be negative, got %d", cfg.MaxDepth)
	}
	return cfg, nil
}

// Catalog builds a frozen tag catalog from the new-*-tags lists.
func (c *Config) Catalog() (*thtml.Catalog, error) {
	cat := thtml.NewCatalog()
	lists := []struct {
		tags TagList
		uc   thtml.UserCategory
	}{
		{c.NewEmptyTags, thtml.UserEmpty},
		{c.NewInlineTags, thtml.UserInline},
		{c.NewBlockTags, thtml.UserBlock},
		{c.NewPreTags, thtml.UserPre},
	}
	var errs []error
	for _, l := range lists {
		for _, name := range l.tags {
			if err := cat.Declare(name, l.uc); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	cat.Freeze()
	return cat, nil
}
