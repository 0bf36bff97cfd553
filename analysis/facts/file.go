package facts

import (
	"errors"
	"fmt"
	"io"
	"os"

	L "github.com/cs-au-dk/gotaint/analysis/lattice"
	"github.com/cs-au-dk/gotaint/analysis/rules"

	"gopkg.in/yaml.v3"
)

// ErrFactsFile is wrapped by errors reported for facts files that cannot be
// decoded. Malformed facts inside a well-formed file are not errors of the
// file; they only affect the function they occur in.
var ErrFactsFile = errors.New("invalid facts file")

// SinkKind is the pseudo-kind of facts that check their operands against
// a sink.
const SinkKind = "Sink"

// File is a facts file: operation facts extracted by an external front end,
// grouped by function.
//
//	functions:
//	  - name: merging
//	    facts:
//	      - {id: c1, kind: Construct, operands: [S, U]}
//	      - {id: c2, kind: Construct, operands: [U, U]}
//	      - {id: m, kind: MergeToNewWithResolver, operands: [c1, c2], callback: true}
//	      - {id: r, kind: ReadKeyed, operands: [m]}
//	      - {kind: Sink, operands: [r]}
//
// Operands are either taints or the id of an earlier fact of the same
// function. A taint is spelled S, T, ⊤ or Tainted for tainted data and U, ⊥
// or Untainted for untainted data, in any case; ids take precedence. The mutated output of a mutating fact
// is joined into its first operand, which must then be a reference.
type File struct {
	Functions []FileFunction `yaml:"functions"`
}

type FileFunction struct {
	Name  string     `yaml:"name"`
	Facts []FileFact `yaml:"facts"`
}

type FileFact struct {
	ID       string   `yaml:"id,omitempty"`
	Kind     string   `yaml:"kind"`
	Operands []string `yaml:"operands,omitempty"`
	Callback bool     `yaml:"callback,omitempty"`
	// Line optionally locates the fact in the original program.
	Line int `yaml:"line,omitempty"`
}

// IsSink is true for sink checks.
func (f FileFact) IsSink() bool {
	return f.Kind == SinkKind
}

// Classify returns the kind of the fact. Kind names that are not known
// classify as Unmodeled.
func (f FileFact) Classify() rules.Kind {
	return rules.ParseKind(f.Kind)
}

// Operand is a resolved operand of a file fact: either a constant taint or a
// reference to an earlier fact.
type Operand struct {
	Ref   string
	Taint L.Taint
}

func (o Operand) IsRef() bool {
	return o.Ref != ""
}

// ResolveOperand parses an operand. Names of defined facts take precedence
// over taint names.
func ResolveOperand(s string, defined func(string) bool) (Operand, error) {
	if defined(s) {
		return Operand{Ref: s}, nil
	}
	t, err := L.ParseTaint(s)
	if err != nil {
		return Operand{}, fmt.Errorf("%w: operand %q is neither a taint nor an earlier fact", rules.ErrMalformedFact, s)
	}
	return Operand{Taint: t}, nil
}

// ParseFile decodes a facts file.
func ParseFile(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	f := &File{}
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrFactsFile, err)
	}

	seen := make(map[string]bool, len(f.Functions))
	for i, fun := range f.Functions {
		if fun.Name == "" {
			return nil, fmt.Errorf("%w: function %d has no name", ErrFactsFile, i)
		}
		if seen[fun.Name] {
			return nil, fmt.Errorf("%w: duplicate function %s", ErrFactsFile, fun.Name)
		}
		seen[fun.Name] = true
	}
	return f, nil
}

// LoadFile reads and decodes the facts file at path.
func LoadFile(path string) (*File, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	f, err := ParseFile(fd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}
