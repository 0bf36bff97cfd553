package flow

import (
	"errors"
	"strings"
	"testing"

	"github.com/cs-au-dk/gotaint/analysis/facts"
	L "github.com/cs-au-dk/gotaint/analysis/lattice"
	"github.com/cs-au-dk/gotaint/analysis/rules"

	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"
)

func TestEvaluateFactsFile(t *testing.T) {
	f, err := facts.LoadFile(pathToRoot + "/examples/facts.yaml")
	if err != nil {
		t.Fatal(err)
	}

	results := EvaluateFile(f)
	if len(results) != len(f.Functions) {
		t.Fatalf("Expected %d results, got %d", len(f.Functions), len(results))
	}

	g := goldie.New(t, goldie.WithFixtureDir("testdata"))
	g.Assert(t, "facts", []byte(FileReport(results)))
}

func parseFacts(t *testing.T, src string) *facts.File {
	t.Helper()
	f, err := facts.ParseFile(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestEvaluateFileIsolation(t *testing.T) {
	results := EvaluateFile(parseFacts(t, `
functions:
  - name: undefined
    facts:
      - {id: r, kind: ReadKeyed, operands: [nope]}
      - {kind: Sink, operands: [S]}
  - name: mutatesConstant
    facts:
      - {id: old, kind: UpdateKeyedInPlace, operands: [S, U]}
  - name: fine
    facts:
      - {id: c, kind: Construct, operands: [S]}
      - {id: old, kind: UpdateKeyedInPlace, operands: [c, U]}
`))

	undefined, mutatesConstant, fine := results[0], results[1], results[2]

	if undefined.Metrics.Outcome != OUTCOME_UNRELIABLE {
		t.Errorf("Expected undefined to be unreliable, got %s", undefined.Metrics.Outcome)
	}
	if len(undefined.Diagnostics) != 1 || !errors.Is(undefined.Diagnostics[0], rules.ErrMalformedFact) {
		t.Errorf("Expected one malformed fact diagnostic, got %v", undefined.Diagnostics)
	}
	if _, bound := undefined.Values["r"]; bound {
		t.Errorf("A fact with unresolved operands should not be bound")
	}
	if diff := cmp.Diff([]int{1}, undefined.Findings); diff != "" {
		t.Errorf("Later facts should still be evaluated (-want +got):\n%s", diff)
	}

	if mutatesConstant.Metrics.Outcome != OUTCOME_UNRELIABLE {
		t.Errorf("Expected mutatesConstant to be unreliable, got %s", mutatesConstant.Metrics.Outcome)
	}
	if !mutatesConstant.Values["old"].IsTainted() {
		t.Errorf("The return output should survive a missing receiver")
	}

	if !fine.Metrics.Reliable() {
		t.Errorf("Expected fine to be unaffected, got %s: %s", fine.Metrics.Outcome, fine.Metrics.Error())
	}
	expected := map[string]L.Taint{"c": L.Tainted, "old": L.Tainted}
	if diff := cmp.Diff(expected, fine.Values); diff != "" {
		t.Errorf("Bindings mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluateFileMutation(t *testing.T) {
	results := EvaluateFile(parseFacts(t, `
functions:
  - name: mergeIntoClean
    facts:
      - {id: d, kind: Construct, operands: [U]}
      - {id: other, kind: Construct, operands: [S]}
      - {kind: MergeInPlaceWithResolver, operands: [d, other], callback: true}
      - {id: r, kind: ReadKeyed, operands: [d]}
      - {kind: Sink, operands: [r]}
  - name: updateTaints
    facts:
      - {id: d, kind: Construct, operands: [U]}
      - {kind: UpdateKeyedInPlace, operands: [d, S]}
      - {id: r, kind: ReadKeyedWithDefault, operands: [d, U]}
      - {kind: Sink, operands: [r]}
`))

	for _, res := range results {
		if res.Metrics.Outcome != OUTCOME_FINDINGS {
			t.Errorf("%s: expected findings, got %s: %s", res.Name, res.Metrics.Outcome, res.Metrics.Error())
		}
		if !res.Values["d"].IsTainted() {
			t.Errorf("%s: expected the receiver to be tainted by the mutation", res.Name)
		}
	}
}
