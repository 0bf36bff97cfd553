package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cs-au-dk/gotaint/analysis/rules"

	"github.com/google/go-cmp/cmp"
)

func TestDefault(t *testing.T) {
	c := Default()
	m, ok := c.Model("maps.Copy")
	if !ok {
		t.Fatal("Expected a built-in model for maps.Copy")
	}
	if m.Operator() != rules.Merge || !m.Mutating {
		t.Errorf("Unexpected model for maps.Copy: %+v", m)
	}
	if _, ok := c.Model("maps.DeleteFunc"); ok {
		t.Error("maps.DeleteFunc should not be modeled")
	}
}

func TestParse(t *testing.T) {
	c, err := Parse(strings.NewReader(`
sources: [source]
sinks: [sink]
models:
  - callee: Dict.GetOr
    op: subscript
    keys: [1]
  - callee: Dict.Merge
    op: Merge
    mutating: true
`))
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"source"}, c.Sources); diff != "" {
		t.Errorf("Sources mismatch (-want +got):\n%s", diff)
	}

	m, ok := c.Model("taint.Dict.GetOr", "Dict.GetOr")
	if !ok {
		t.Fatal("Expected a model for Dict.GetOr")
	}
	if m.Operator() != rules.Subscript || !m.IsKey(1) || m.IsKey(0) {
		t.Errorf("Unexpected model for Dict.GetOr: %+v", m)
	}

	if m, _ := c.Model("Dict.Merge"); m.Operator() != rules.Merge {
		t.Errorf("Expected operator names to be case insensitive, got %s", m.Operator())
	}
}

func TestParseInvalid(t *testing.T) {
	for name, content := range map[string]string{
		"unknown operator": "models: [{callee: f, op: remove}]",
		"missing callee":   "models: [{op: literal}]",
		"negative key":     "models: [{callee: f, op: subscript, keys: [-1]}]",
		"unknown field":    "sources: [a]\nsanitizers: [b]",
		"not yaml":         "models: [",
	} {
		if _, err := Parse(strings.NewReader(content)); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	if err := os.WriteFile(path, []byte(`
sources: [source]
models:
  - callee: maps.Copy
    op: unknown
`), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if len(c.Sources) != len(Default().Sources)+1 {
		t.Errorf("Expected sources to be appended to the defaults, got %v", c.Sources)
	}
	if m, _ := c.Model("maps.Copy"); m.Operator() != rules.Unknown {
		t.Errorf("Expected the models file to override maps.Copy, got %s", m.Operator())
	}
	if _, ok := c.Model("maps.Clone"); !ok {
		t.Error("Expected built-in models to survive the merge")
	}
	if len(c.Models) != len(Default().Models) {
		t.Errorf("Expected overridden models to be replaced, got %d models", len(c.Models))
	}
}

func TestLoadEmptyPath(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Models) != len(Default().Models) {
		t.Errorf("Expected the defaults, got %+v", c)
	}
}

func TestLoadExampleModels(t *testing.T) {
	c, err := Load("../examples/models.yaml")
	if err != nil {
		t.Fatal(err)
	}
	for _, callee := range []string{"Dict.Get", "Dict.GetOr", "Dict.UpdateValue", "Dict.Merge", "Optional.Unwrap"} {
		if _, ok := c.Model(callee); !ok {
			t.Errorf("Expected a model for %s", callee)
		}
	}
}
