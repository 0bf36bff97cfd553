package oracle

import (
	"testing"

	"github.com/cs-au-dk/gotaint/testutil"

	"github.com/google/go-cmp/cmp"
)

const program = `package main

type Store map[string]string

func (s Store) Read(k string) string { return s[k] }
func (s *Store) Reset()              { *s = Store{} }

func source() string { return "secret" }
func sink(string)    {}

func main() {
	s := Store{"k": source()}
	sink(s.Read("k"))
	s.Reset()
	func() {}()
}
`

func TestNames(t *testing.T) {
	res := testutil.LoadPackageFromSource(t, "example.com/store", program)

	tests := []struct {
		fun      string
		expected []string
	}{
		{"source", []string{"example.com/store.source", "main.source", "source"}},
		{"Store.Read", []string{"(example.com/store.Store).Read", "main.Store.Read", "Store.Read"}},
		{"Store.Reset", []string{"(*example.com/store.Store).Reset", "main.Store.Reset", "Store.Reset"}},
		{"main$1", []string{"example.com/store.main$1"}},
	}

	for _, test := range tests {
		names := Names(res.Function(t, test.fun))
		if diff := cmp.Diff(test.expected, names); diff != "" {
			t.Errorf("Names of %s mismatch (-want +got):\n%s", test.fun, diff)
		}
	}
}

func TestOracle(t *testing.T) {
	res := testutil.LoadPackageFromSource(t, "example.com/store", program)
	o := New([]string{"source"}, []string{"main.sink", "Store.Reset"})

	if !o.IsSource(res.Function(t, "source")) {
		t.Error("Expected source to be a source")
	}
	if o.IsSink(res.Function(t, "source")) {
		t.Error("Did not expect source to be a sink")
	}
	if !o.IsSink(res.Function(t, "sink")) {
		t.Error("Expected sink to match its package-qualified name")
	}
	if !o.IsSink(res.Function(t, "Store.Reset")) {
		t.Error("Expected Store.Reset to match its receiver-qualified name")
	}
	if o.IsSource(nil) || o.IsSink(nil) {
		t.Error("Dynamic callees are neither sources nor sinks")
	}
}
