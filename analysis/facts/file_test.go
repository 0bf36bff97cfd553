package facts

import (
	"errors"
	"strings"
	"testing"

	L "github.com/cs-au-dk/gotaint/analysis/lattice"
	"github.com/cs-au-dk/gotaint/analysis/rules"

	"github.com/google/go-cmp/cmp"
)

func TestParseFile(t *testing.T) {
	f, err := ParseFile(strings.NewReader(`
functions:
  - name: merging
    facts:
      - {id: c1, kind: Construct, operands: [S, U]}
      - {id: m, kind: MergeToNewWithResolver, operands: [c1, c1], callback: true, line: 7}
      - {kind: Sink, operands: [m]}
`))
	if err != nil {
		t.Fatal(err)
	}

	expected := &File{Functions: []FileFunction{{
		Name: "merging",
		Facts: []FileFact{
			{ID: "c1", Kind: "Construct", Operands: []string{"S", "U"}},
			{ID: "m", Kind: "MergeToNewWithResolver", Operands: []string{"c1", "c1"}, Callback: true, Line: 7},
			{Kind: SinkKind, Operands: []string{"m"}},
		},
	}}}
	if diff := cmp.Diff(expected, f); diff != "" {
		t.Fatalf("File mismatch (-want +got):\n%s", diff)
	}

	facts := f.Functions[0].Facts
	if facts[1].Classify() != rules.MergeToNewWithResolver {
		t.Errorf("Expected %s, got %s", rules.MergeToNewWithResolver.Name(), facts[1].Classify().Name())
	}
	if !facts[2].IsSink() || facts[0].IsSink() {
		t.Errorf("Only the last fact is a sink")
	}
}

func TestParseEmptyFile(t *testing.T) {
	f, err := ParseFile(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Functions) != 0 {
		t.Errorf("Expected no functions, got %v", f.Functions)
	}
}

func TestParseFileErrors(t *testing.T) {
	for name, src := range map[string]string{
		"unknown field": "functions:\n  - name: f\n    facts:\n      - {kind: Construct, values: [S]}\n",
		"missing name":  "functions:\n  - facts: []\n",
		"duplicate":     "functions:\n  - name: f\n  - name: f\n",
		"not a list":    "functions: 3\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseFile(strings.NewReader(src)); !errors.Is(err, ErrFactsFile) {
				t.Errorf("Expected %v, got %v", ErrFactsFile, err)
			}
		})
	}
}

func TestLoadExampleFile(t *testing.T) {
	f, err := LoadFile("../../examples/facts.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Functions) == 0 {
		t.Fatal("Expected functions in the example facts file")
	}
	if _, err := LoadFile("../../examples/missing.yaml"); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestResolveOperand(t *testing.T) {
	defined := func(id string) bool { return id == "c" || id == "s" }

	for _, test := range []struct {
		operand  string
		expected Operand
	}{
		{"S", Operand{Taint: L.Tainted}},
		{"Untainted", Operand{Taint: L.Untainted}},
		{"c", Operand{Ref: "c"}},
		// Fact ids shadow taint names.
		{"s", Operand{Ref: "s"}},
	} {
		op, err := ResolveOperand(test.operand, defined)
		if err != nil {
			t.Errorf("ResolveOperand(%q): %v", test.operand, err)
			continue
		}
		if op != test.expected {
			t.Errorf("ResolveOperand(%q) = %+v, expected %+v", test.operand, op, test.expected)
		}
	}

	if _, err := ResolveOperand("later", defined); !errors.Is(err, rules.ErrMalformedFact) {
		t.Errorf("Expected %v for an undefined reference, got %v", rules.ErrMalformedFact, err)
	}
}
