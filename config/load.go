package config

import (
	"fmt"
	"io/ioutil"

	"github.com/hashicorp/hcl"
)

// Parse decodes and checks a config.
func Parse(s string) (*Config, error) {
	var vars map[string]interface{}
	if err := hcl.Decode(&vars, s); err != nil {
		return nil, err
	}
	for name := range vars {
		if _, ok := variables[name]; !ok {
			return nil, fmt.Errorf("config: %s is not a config variable", name)
		}
	}

	var cfg Config
	if err := hcl.Decode(&cfg, s); err != nil {
		return nil, err
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and parses the config in filename.
func Load(filename string) (*Config, error) {
	b, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, nil
}
