package facts

import (
	"strings"
	"testing"

	"github.com/cs-au-dk/gotaint/analysis/oracle"
	"github.com/cs-au-dk/gotaint/analysis/rules"
	"github.com/cs-au-dk/gotaint/config"
	"github.com/cs-au-dk/gotaint/testutil"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/go/ssa"
)

const extractSrc = `package main

type Dict map[string]string

func (d Dict) UpdateValue(value, key string) string {
	old := d[key]
	d[key] = value
	return old
}

func (d Dict) Merge(other Dict, resolve func(a, b string) string) {}

func source() string { return "secret" }

func literal() string {
	m := map[string]string{"a": source(), "b": "clean"}
	return m["a"]
}

func update(m map[string]string) {
	m["k"] = "v"
}

func ranging(m map[string]string) {
	for range m {
	}
}

func modeled() {
	d := Dict{}
	d.UpdateValue("v", "k")
	d.Merge(Dict{}, func(a, b string) string { return a })
}

func unknown(m map[string]string, f func(map[string]string)) {
	f(m)
	delete(m, "k")
}

type Store struct{ entries map[string]string }

func (s *Store) Put(key, value string) { s.entries[key] = value }

func fill(s *Store, xs []string, n int) {}

func pointers(s *Store, xs []string, n int) {
	s.Put("k", "v")
	fill(s, xs, n)
}

func main() {}
`

func extract(t *testing.T, name string) *Facts {
	t.Helper()
	loadRes := testutil.LoadPackageFromSource(t, "extract", extractSrc)

	cfg, err := config.Parse(strings.NewReader(`
sources: [source]
models:
  - callee: Dict.UpdateValue
    op: update
    mutating: true
    keys: [2]
  - callee: Dict.Merge
    op: merge
    mutating: true
  - callee: Store.Put
    op: update
    mutating: true
    keys: [1]
`))
	if err != nil {
		t.Fatal(err)
	}
	cfg = config.Default().Merge(cfg)
	return NewExtractor(cfg, oracle.FromConfig(cfg)).Extract(loadRes.Function(t, name))
}

func kinds(fs *Facts) (res []rules.Kind) {
	for _, f := range fs.List() {
		res = append(res, f.Kind)
	}
	return
}

func TestExtractLiteral(t *testing.T) {
	fs := extract(t, "literal")

	if diff := cmp.Diff([]rules.Kind{rules.Construct, rules.ReadKeyed}, kinds(fs)); diff != "" {
		t.Fatalf("Kinds mismatch (-want +got):\n%s", diff)
	}

	lit := fs.List()[0]
	if _, ok := lit.Result.(*ssa.MakeMap); !ok {
		t.Errorf("Expected the literal to yield the map, got %v", lit.Result)
	}
	if len(lit.Operands) != 2 {
		t.Errorf("Expected the literal to take both entry values, got %v", lit)
	}
	if _, ok := lit.Instr.(*ssa.MapUpdate); !ok {
		t.Errorf("Expected the literal to take effect at its last update, got %s", lit.Instr)
	}

	folded := 0
	for _, b := range fs.Function.Blocks {
		for _, insn := range b.Instrs {
			if fs.IsFolded(insn) {
				folded++
			}
		}
	}
	if folded != 2 {
		t.Errorf("Expected 2 folded updates, got %d", folded)
	}

	read := fs.List()[1]
	if read.Operands[0] != lit.Result {
		t.Errorf("Expected the read to consume the literal, got %v", read)
	}
}

func TestExtractUpdate(t *testing.T) {
	fs := extract(t, "update")

	if diff := cmp.Diff([]rules.Kind{rules.UpdateKeyedInPlace}, kinds(fs)); diff != "" {
		t.Fatalf("Kinds mismatch (-want +got):\n%s", diff)
	}
	f := fs.List()[0]
	m := fs.Function.Params[0]
	if len(f.Mutates) != 1 || f.Mutates[0] != m {
		t.Errorf("Expected the update to mutate %s, got %v", m.Name(), f.Mutates)
	}
	if f.Result != nil {
		t.Errorf("Map updates yield no value, got %s", f.Result.Name())
	}
}

func TestExtractRange(t *testing.T) {
	fs := extract(t, "ranging")

	if diff := cmp.Diff([]rules.Kind{rules.ProjectToSequence}, kinds(fs)); diff != "" {
		t.Fatalf("Kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractModeledCalls(t *testing.T) {
	fs := extract(t, "modeled")

	var update, merge *Fact
	for _, f := range fs.List() {
		if f.Callee == nil {
			continue
		}
		switch f.Callee.Name() {
		case "UpdateValue":
			update = f
		case "Merge":
			merge = f
		}
	}
	if update == nil || merge == nil {
		t.Fatalf("Missing modeled calls among %v", fs.List())
	}

	if update.Kind != rules.UpdateKeyedInPlace {
		t.Errorf("Expected UpdateValue to be %s, got %s", rules.UpdateKeyedInPlace.Name(), update.Kind.Name())
	}
	// The key is dropped, the receiver and the value remain.
	if len(update.Operands) != 2 {
		t.Errorf("Expected 2 operands, got %v", update)
	}

	if !merge.Shape.HasCallback {
		t.Errorf("Expected the resolver to be recognized as a callback: %v", merge)
	}
	if merge.Kind != rules.MergeInPlaceWithResolver {
		t.Errorf("Expected Merge to be %s, got %s", rules.MergeInPlaceWithResolver.Name(), merge.Kind.Name())
	}
	if len(merge.Mutates) != 1 || merge.Mutates[0] != merge.Operands[0] {
		t.Errorf("Expected Merge to mutate its receiver: %v", merge)
	}
}

func TestExtractUnknownCalls(t *testing.T) {
	fs := extract(t, "unknown")

	if diff := cmp.Diff([]rules.Kind{rules.Unmodeled, rules.Unmodeled}, kinds(fs)); diff != "" {
		t.Fatalf("Kinds mismatch (-want +got):\n%s", diff)
	}
	if len(fs.Unmodeled()) != 2 {
		t.Errorf("Expected both calls to be unmodeled")
	}

	dynamic, builtin := fs.List()[0], fs.List()[1]
	m := fs.Function.Params[0]

	// The called closure is an operand of a dynamic call.
	if len(dynamic.Operands) != 2 || !dynamic.Shape.HasCallback {
		t.Errorf("Unexpected shape of dynamic call: %v", dynamic)
	}
	if len(builtin.Operands) != 2 {
		t.Errorf("Unexpected operands of builtin call: %v", builtin)
	}
	for _, f := range fs.List() {
		if len(f.Mutates) != 1 || f.Mutates[0] != m {
			t.Errorf("Expected %v to mutate %s", f, m.Name())
		}
	}
}

func TestExtractPointerMutations(t *testing.T) {
	fs := extract(t, "pointers")

	if diff := cmp.Diff([]rules.Kind{rules.UpdateKeyedInPlace, rules.Unmodeled}, kinds(fs)); diff != "" {
		t.Fatalf("Kinds mismatch (-want +got):\n%s", diff)
	}

	s, xs := fs.Function.Params[0], fs.Function.Params[1]
	put, fill := fs.List()[0], fs.List()[1]

	if len(put.Mutates) != 1 || put.Mutates[0] != s {
		t.Errorf("Expected Put to mutate its pointer receiver %s, got %v", s.Name(), put.Mutates)
	}
	// The int argument cannot be written through.
	if len(fill.Mutates) != 2 || fill.Mutates[0] != s || fill.Mutates[1] != xs {
		t.Errorf("Expected the unknown call to mutate %s and %s, got %v", s.Name(), xs.Name(), fill.Mutates)
	}
}

func TestExtractSkipsSources(t *testing.T) {
	fs := extract(t, "literal")
	for _, f := range fs.List() {
		if f.Callee != nil && f.Callee.Name() == "source" {
			t.Errorf("Source calls are not operations: %v", f)
		}
	}
}
