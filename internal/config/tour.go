package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type tourFile struct {
	Steps []string `yaml:"steps"`
}

// LoadTourScript reads the welcome tour from a YAML file holding either a
// list of steps or a mapping with a steps key.
func LoadTourScript(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tour script: %w", err)
	}

	var steps []string
	if err := yaml.Unmarshal(data, &steps); err != nil {
		var doc tourFile
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse tour script %s: %w", path, err)
		}
		steps = doc.Steps
	}

	out := steps[:0]
	for _, s := range steps {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("tour script has no steps")
	}
	return out, nil
}
