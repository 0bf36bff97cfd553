package testutil

import (
	"strings"

	"golang.org/x/tools/go/expect"
)

var (
	id_SOURCE         = "source"
	id_SINK           = "sink"
	id_FALSE_POSITIVE = "fp"
	id_FALSE_NEGATIVE = "fn"
)

type annFactory struct{}

// Factory for creating annotation strings. Interpolate
// results with Go source code. Wrap multiple factory calls
// in the At function to concatenate multiple annotations
// on the same line and prefix with "//@ "
var Ann = annFactory{}

// Source annotations state that a value defined on the annotated line
// carries taint.
func (annFactory) Source() string {
	return id_SOURCE
}

// Sink annotations state that a sink call on the annotated line is expected
// to be reported.
func (annFactory) Sink() string {
	return id_SINK
}

// False negative tag.
func (annFactory) FalseNegative() string {
	return id_FALSE_NEGATIVE
}

// False positive tag.
func (annFactory) FalsePositive() string {
	return id_FALSE_POSITIVE
}

func At(anns ...string) string {
	ann := "//@ " + strings.Join(anns, ", ")
	return ann
}

func (mgr NotesManager) CreateAnnotation(note *expect.Note) Annotation {
	basic := basicAnnotation{note, mgr}

	switch note.Name {
	case id_FALSE_NEGATIVE:
		return AnnFalseNegative{basic}
	case id_FALSE_POSITIVE:
		return AnnFalsePositive{basic}
	case id_SOURCE:
		return AnnSource{basic}
	case id_SINK:
		return AnnSink{basic}
	}

	return basic
}
