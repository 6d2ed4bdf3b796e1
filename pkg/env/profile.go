package env

import (
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v3"
)

// LoadProfile overlays a board profile onto c. Keys absent from the file
// keep their current values.
func (c *Config) LoadProfile(path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading profile: %w", err)
	}
	return c.ParseProfile(data)
}

// ParseProfile overlays YAML profile data onto c.
func (c *Config) ParseProfile(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing profile: %w", err)
	}
	return nil
}
