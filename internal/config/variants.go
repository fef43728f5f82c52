package config

import (
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"assesstime/internal/errors"
)

// variantFile is the on-disk layout: a defaults block and named overrides.
//
//	defaults:
//	  funnel: {min_duration: 1m, max_duration: 10h}
//	variants:
//	  cot-hs:
//	    files: [cot.csv]
//	    funnel: {same_day_only: true, max_duration: 24h}
type variantFile struct {
	Defaults yaml.Node            `yaml:"defaults"`
	Variants map[string]yaml.Node `yaml:"variants"`
}

// Variants is a set of named pipeline configurations
type Variants struct {
	Base  PipelineConfig
	named map[string]PipelineConfig
}

// LoadVariants reads a variant file from disk and layers it over base.
func LoadVariants(path string, base PipelineConfig) (*Variants, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read variants file %s", path)
	}
	v, err := ParseVariants(data, base)
	if err != nil {
		return nil, errors.Wrapf(err, "variants file %s", path)
	}
	return v, nil
}

// ParseVariants decodes a variant document on top of base. Each variant
// starts from the merged defaults and overrides only the keys it sets.
func ParseVariants(data []byte, base PipelineConfig) (*Variants, error) {
	var file variantFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid("malformed YAML"), err.Error())
	}

	if !file.Defaults.IsZero() {
		if err := file.Defaults.Decode(&base); err != nil {
			return nil, errors.Wrap(errors.ConfigInvalid("invalid defaults block"), err.Error())
		}
	}

	out := &Variants{Base: base, named: make(map[string]PipelineConfig, len(file.Variants))}
	for name, node := range file.Variants {
		cfg := base
		cfg.Files = append([]string(nil), base.Files...)
		if err := node.Decode(&cfg); err != nil {
			return nil, errors.Wrap(errors.ConfigInvalid("invalid variant "+name), err.Error())
		}
		cfg.Name = name
		if err := cfg.Validate(); err != nil {
			return nil, errors.Wrapf(err, "variant %s", name)
		}
		out.named[name] = cfg
	}
	return out, nil
}

// Names returns variant names in ascending order.
func (v *Variants) Names() []string {
	names := make([]string, 0, len(v.named))
	for name := range v.named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the named variant.
func (v *Variants) Get(name string) (PipelineConfig, error) {
	cfg, ok := v.named[name]
	if !ok {
		return PipelineConfig{}, errors.ConfigInvalid("unknown variant " + name)
	}
	return cfg, nil
}
