package worklist

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFIFO(t *testing.T) {
	var order []int
	StartV([]int{1, 2, 3}, func(next int, add func(int)) {
		order = append(order, next)
		if next == 1 {
			add(4)
		}
	})

	if diff := cmp.Diff([]int{1, 2, 3, 4}, order); diff != "" {
		t.Errorf("Order mismatch (-want +got):\n%s", diff)
	}
}

func TestPendingAddedOnce(t *testing.T) {
	w := Empty[string]()
	w.Add("a")
	w.Add("b")
	w.Add("a")
	if w.Len() != 2 {
		t.Fatalf("Expected 2 pending elements, got %d", w.Len())
	}

	if next := w.GetNext(); next != "a" {
		t.Errorf("Expected a, got %s", next)
	}
	// Once processed, an element may be queued again.
	w.Add("a")
	if w.Len() != 2 {
		t.Errorf("Expected a to be queued again, got %d pending", w.Len())
	}
}

func TestZeroValue(t *testing.T) {
	var w Worklist[int]
	if !w.IsEmpty() || w.GetNext() != 0 {
		t.Fatal("Expected the zero worklist to be empty")
	}
	w.Add(7)
	if w.GetNext() != 7 || !w.IsEmpty() {
		t.Error("Expected the zero worklist to be usable")
	}
}

func TestRevisit(t *testing.T) {
	visits := make(map[int]int)
	StartV([]int{0}, func(next int, add func(int)) {
		visits[next]++
		if visits[next] < 3 {
			add(next)
		}
	})
	if visits[0] != 3 {
		t.Errorf("Expected 3 visits, got %d", visits[0])
	}
}
