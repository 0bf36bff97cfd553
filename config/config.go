// Package config describes which calls introduce and consume taint, and how
// calls of container APIs map to the operator families of the classifier.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cs-au-dk/gotaint/analysis/rules"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every error reported for a malformed
// models file.
var ErrInvalidConfig = errors.New("invalid models file")

// Model maps calls of a callee to an operator family.
//
// The operands of a modeled call are its receiver and arguments, in order,
// except for function-typed arguments which mark the call as carrying a
// callback. Keys lists the operand positions that hold keys: they count
// towards the arity of the call but are not passed to the rule.
type Model struct {
	Callee   string `yaml:"callee"`
	Op       string `yaml:"op"`
	Mutating bool   `yaml:"mutating,omitempty"`
	Keys     []int  `yaml:"keys,omitempty"`

	operator rules.Operator
}

// Operator is the operator family of the model.
func (m Model) Operator() rules.Operator {
	return m.operator
}

// IsKey is true if the operand at position i is a key.
func (m Model) IsKey(i int) bool {
	for _, k := range m.Keys {
		if k == i {
			return true
		}
	}
	return false
}

// Config lists source and sink callees and container API models.
type Config struct {
	Sources []string `yaml:"sources"`
	Sinks   []string `yaml:"sinks"`
	Models  []Model  `yaml:"models"`

	byCallee map[string]int
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{
		Sources: []string{
			"os.Getenv",
			"os.ReadFile",
			"(*net/http.Request).FormValue",
		},
		Sinks: []string{
			"os/exec.Command",
			"(*database/sql.DB).Query",
			"(*database/sql.DB).Exec",
		},
		Models: []Model{
			{Callee: "maps.Clone", Op: "literal"},
			{Callee: "maps.Copy", Op: "merge", Mutating: true},
			{Callee: "golang.org/x/exp/maps.Keys", Op: "project"},
			{Callee: "golang.org/x/exp/maps.Values", Op: "project"},
		},
	}
	if err := c.validate(); err != nil {
		panic(err)
	}
	return c
}

// Parse decodes a models file. Unknown fields are rejected.
func Parse(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	c := &Config{}
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads the models file at path and merges it over the defaults. An
// empty path yields the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	extra, err := Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c.Merge(extra), nil
}

// Merge returns the union of c and other. Models of other replace models of
// c for the same callee.
func (c *Config) Merge(other *Config) *Config {
	res := &Config{
		Sources: append(append([]string{}, c.Sources...), other.Sources...),
		Sinks:   append(append([]string{}, c.Sinks...), other.Sinks...),
	}

	for _, m := range c.Models {
		if _, overridden := other.byCallee[m.Callee]; !overridden {
			res.Models = append(res.Models, m)
		}
	}
	res.Models = append(res.Models, other.Models...)

	// Both inputs are valid, so the result is too.
	res.index()
	return res
}

// Model returns the model of the callee with any of the given names.
func (c *Config) Model(names ...string) (Model, bool) {
	for _, name := range names {
		if i, ok := c.byCallee[name]; ok {
			return c.Models[i], true
		}
	}
	return Model{}, false
}

func (c *Config) validate() error {
	for i := range c.Models {
		m := &c.Models[i]
		if m.Callee == "" {
			return fmt.Errorf("%w: model %d has no callee", ErrInvalidConfig, i)
		}
		op, err := rules.ParseOperator(m.Op)
		if err != nil {
			return fmt.Errorf("%w: model for %s: %v", ErrInvalidConfig, m.Callee, err)
		}
		m.operator = op
		for _, k := range m.Keys {
			if k < 0 {
				return fmt.Errorf("%w: model for %s: negative key position %d", ErrInvalidConfig, m.Callee, k)
			}
		}
	}
	c.index()
	return nil
}

func (c *Config) index() {
	c.byCallee = make(map[string]int, len(c.Models))
	for i, m := range c.Models {
		c.byCallee[m.Callee] = i
	}
}
