package worklist

// Worklist is a FIFO queue that holds every element at most once at any
// given time. Re-adding an element that is already pending is a no-op, which
// bounds the work of a fixpoint iteration by the number of distinct elements
// whose inputs changed.
type Worklist[T comparable] struct {
	list    []T
	pending map[T]struct{}
}

// Start worklist execution with a preloaded queue and an iteration
// function. The iteration function exposes the next element and a function with
// which to add more elements to the worklist.
func StartV[T comparable](start []T, do func(next T, add func(el T))) {
	W := Empty[T]()
	for _, e := range start {
		W.Add(e)
	}

	W.Process(do)
}

func Empty[T comparable]() Worklist[T] {
	return Worklist[T]{pending: make(map[T]struct{})}
}

func (w *Worklist[T]) GetNext() (ret T) {
	if len(w.list) == 0 {
		return
	}
	next := w.list[0]
	w.list = w.list[1:]
	delete(w.pending, next)
	return next
}

func (w *Worklist[T]) IsEmpty() bool {
	return len(w.list) == 0
}

func (w *Worklist[T]) Len() int {
	return len(w.list)
}

func (w *Worklist[T]) Process(
	do func(
		next T,
		add func(element T))) {
	for !w.IsEmpty() {
		do(w.GetNext(), w.Add)
	}
}

func (w *Worklist[T]) Add(el T) {
	if _, queued := w.pending[el]; queued {
		return
	}
	if w.pending == nil {
		w.pending = make(map[T]struct{})
	}
	w.pending[el] = struct{}{}
	w.list = append(w.list, el)
}
