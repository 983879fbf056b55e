// Package configfile loads parser and codec settings from YAML.
//
//	parse:
//	  recovery: smart
//	  skip: white
//	  overlay:
//	    script: block
//	codec:
//	  effort: auto_define
//	  circular: true
package configfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/HBTGmbH/oxml"
	"github.com/HBTGmbH/oxml/codec"
)

// File is the content of a configuration file. Empty fields keep the defaults.
type File struct {
	LogLevel string `yaml:"log_level,omitempty"`
	Parse    Parse  `yaml:"parse,omitempty"`
	Codec    Codec  `yaml:"codec,omitempty"`
}

type Parse struct {
	Encoding        string            `yaml:"encoding,omitempty"`
	Recovery        string            `yaml:"recovery,omitempty"`
	Skip            string            `yaml:"skip,omitempty"`
	NameCase        string            `yaml:"name_case,omitempty"`
	Prefix          string            `yaml:"prefix,omitempty"`
	StripPrefix     string            `yaml:"strip_prefix,omitempty"`
	ConvertEntities *bool             `yaml:"convert_entities,omitempty"`
	Overlay         map[string]string `yaml:"overlay,omitempty"`
}

type Codec struct {
	Effort   string `yaml:"effort,omitempty"`
	Circular bool   `yaml:"circular,omitempty"`
	MaxDepth int    `yaml:"max_depth,omitempty"`
	Indent   string `yaml:"indent,omitempty"`
	XMLDecl  bool   `yaml:"xml_decl,omitempty"`
}

// Load reads and validates the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	f, err := FromYAML(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return f, nil
}

// FromYAML parses and validates a configuration. Unknown keys are errors.
func FromYAML(data []byte) (*File, error) {
	f := &File{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if _, err := f.ParseConfig(); err != nil {
		return nil, err
	}
	if _, err := f.CodecOptions(); err != nil {
		return nil, err
	}
	return f, nil
}

// ToYAML serializes the configuration.
func (f *File) ToYAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close encoder: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	recoveryModes = map[string]oxml.RecoveryMode{
		"tolerant": oxml.RecoverTolerant,
		"strict":   oxml.RecoverStrict,
		"smart":    oxml.RecoverSmart,
	}
	skipModes = map[string]oxml.SkipMode{
		"none":   oxml.SkipNone,
		"return": oxml.SkipReturn,
		"white":  oxml.SkipWhite,
		"off":    oxml.SkipOff,
	}
	nameCases = map[string]oxml.NameCase{
		"preserve": oxml.NamePreserve,
		"lower":    oxml.NameLower,
	}
	prefixModes = map[string]oxml.PrefixMode{
		"preserve":  oxml.PrefixPreserve,
		"strip_all": oxml.PrefixStripAll,
		"strip_one": oxml.PrefixStripOne,
	}
	overlays = map[string]oxml.Overlay{
		"active":   oxml.OverlayActive,
		"inactive": oxml.OverlayInactive,
		"block":    oxml.OverlayBlock,
		"abort":    oxml.OverlayAbort,
	}
	efforts = map[string]codec.Effort{
		"strict":      codec.EffortStrict,
		"tolerant":    codec.EffortTolerant,
		"auto_define": codec.EffortAutoDefine,
	}
)

func lookup[T any](table map[string]T, key, value string, dst *T) error {
	if value == "" {
		return nil
	}
	v, ok := table[strings.ToLower(value)]
	if !ok {
		return fmt.Errorf("invalid %s %q", key, value)
	}
	*dst = v
	return nil
}

// ParseConfig applies the parse section over oxml.DefaultConfig.
func (f *File) ParseConfig() (oxml.Config, error) {
	cfg := oxml.DefaultConfig()
	p := f.Parse
	cfg.Encoding = p.Encoding
	cfg.StripPrefix = p.StripPrefix
	if p.ConvertEntities != nil {
		cfg.ConvertEntities = *p.ConvertEntities
	}
	for _, err := range []error{
		lookup(recoveryModes, "recovery", p.Recovery, &cfg.Recovery),
		lookup(skipModes, "skip", p.Skip, &cfg.Skip),
		lookup(nameCases, "name_case", p.NameCase, &cfg.NameCase),
		lookup(prefixModes, "prefix", p.Prefix, &cfg.Prefix),
	} {
		if err != nil {
			return cfg, err
		}
	}
	if cfg.Prefix == oxml.PrefixStripOne && cfg.StripPrefix == "" {
		return cfg, fmt.Errorf("prefix strip_one needs strip_prefix")
	}
	if len(p.Overlay) > 0 {
		if cfg.Recovery != oxml.RecoverSmart {
			return cfg, fmt.Errorf("overlay needs recovery smart")
		}
		overlay := make(map[string]oxml.Overlay, len(p.Overlay))
		for name, value := range p.Overlay {
			var o oxml.Overlay
			if err := lookup(overlays, "overlay for "+name, value, &o); err != nil {
				return cfg, err
			}
			overlay[name] = o
		}
		cfg.Hints = oxml.HTMLHints().WithOverlay(overlay)
	}
	return cfg, nil
}

// CodecOptions returns the codec section as options.
func (f *File) CodecOptions() ([]codec.Option, error) {
	c := f.Codec
	var effort codec.Effort
	if err := lookup(efforts, "effort", c.Effort, &effort); err != nil {
		return nil, err
	}
	if c.MaxDepth < 0 {
		return nil, fmt.Errorf("invalid max_depth %d", c.MaxDepth)
	}
	opts := []codec.Option{
		codec.WithEffort(effort),
		codec.WithCircular(c.Circular),
		codec.WithIndent(c.Indent),
		codec.WithXMLDecl(c.XMLDecl),
	}
	if c.MaxDepth > 0 {
		opts = append(opts, codec.WithMaxDepth(c.MaxDepth))
	}
	return opts, nil
}
