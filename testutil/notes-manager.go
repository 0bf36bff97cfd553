package testutil

import (
	"fmt"
	"go/token"
	"testing"

	"golang.org/x/tools/go/expect"
	"golang.org/x/tools/go/ssa"
)

type NotesManager struct {
	anns  map[*expect.Note]Annotation
	notes []*expect.Note

	// Book-keeping of notes on the same line
	related map[*expect.Note]map[*expect.Note]struct{}
	loadRes LoadResult

	// Instructions of the focused package, indexed by the line they occur on.
	instrs map[lineKey][]ssa.Instruction
}

type lineKey struct {
	file string
	line int
}

func MakeNotesManager(
	t *testing.T,
	loadRes LoadResult) (n NotesManager) {
	n.loadRes = loadRes
	n.anns = make(map[*expect.Note]Annotation)

	for _, file := range loadRes.MainPkg.Syntax {
		notes, err := expect.ExtractGo(loadRes.Prog.Fset, file)
		if err != nil {
			t.Fatal(err)
		}

		n.notes = append(n.notes, notes...)
	}

	fset := loadRes.Prog.Fset

	n.related = make(map[*expect.Note]map[*expect.Note]struct{})
	for _, note1 := range n.notes {
		if _, found := n.related[note1]; !found {
			n.related[note1] = make(map[*expect.Note]struct{})
		}

		npos1 := fset.Position(note1.Pos)

		for _, note2 := range n.notes {
			if note1 == note2 {
				continue
			}

			npos2 := fset.Position(note2.Pos)

			if npos1.Filename == npos2.Filename &&
				npos1.Line == npos2.Line {
				n.related[note1][note2] = struct{}{}
			}
		}
	}

	n.instrs = make(map[lineKey][]ssa.Instruction)
	for _, fun := range loadRes.Functions() {
		for _, b := range fun.Blocks {
			for _, insn := range b.Instrs {
				if insn.Pos() == token.NoPos {
					continue
				}
				pos := fset.Position(insn.Pos())
				key := lineKey{pos.Filename, pos.Line}
				n.instrs[key] = append(n.instrs[key], insn)
			}
		}
	}

	for _, note := range n.notes {
		n.anns[note] = n.CreateAnnotation(note)
	}
	return
}

func (n NotesManager) ForEachNote(
	do func(i int, note *expect.Note),
) {
	for i, note := range n.notes {
		do(i, note)
	}
}

func (n NotesManager) ForEachAnnotation(do func(a Annotation)) {
	for _, a := range n.anns {
		do(a)
	}
}

func (n NotesManager) AnnotationOf(note *expect.Note) Annotation {
	return n.anns[note]
}

func (n NotesManager) String() (str string) {
	str = "Note manager found the following notes:\n\n"
	for _, note := range n.notes {
		pos := n.loadRes.Prog.Fset.Position(note.Pos)

		str += fmt.Sprintf("%s(%v) at position: %s, with the following instructions:\n", note.Name, note.Args, pos)
		for _, insn := range n.InstructionsForNote(note) {
			str += "- " + insn.String() + "\n"
		}
		str += "Annotation:\n" + n.anns[note].String() + "\n"
	}

	return
}

func (n NotesManager) LoadResult() LoadResult {
	return n.loadRes
}

// InstructionsForNote returns the instructions on the line of the note.
func (n NotesManager) InstructionsForNote(note *expect.Note) []ssa.Instruction {
	npos := n.loadRes.Prog.Fset.Position(note.Pos)
	return n.instrs[lineKey{npos.Filename, npos.Line}]
}

// NoteForInstruction returns the note on the line of the instruction
// satisfying the predicate, if any.
func (n NotesManager) NoteForInstruction(insn ssa.Instruction, pred func(Annotation) bool) (Annotation, bool) {
	fset := n.loadRes.Prog.Fset
	pos := fset.Position(insn.Pos())

	for _, note := range n.notes {
		npos := fset.Position(note.Pos)
		if pos.Filename == npos.Filename && pos.Line == npos.Line && pred(n.anns[note]) {
			return n.anns[note], true
		}
	}
	return nil, false
}

func (n NotesManager) Notes() []*expect.Note {
	return n.notes
}

func (n NotesManager) Annotations() map[*expect.Note]Annotation {
	return n.anns
}

func (n NotesManager) FindNote(find func(*expect.Note) bool) (*expect.Note, bool) {
	for _, note := range n.notes {
		if find(note) {
			return note, true
		}
	}
	return nil, false
}

func (n NotesManager) FindAllAnnotations(pred func(Annotation) bool) annList {
	res := []Annotation{}

	for _, note := range n.notes {
		if ann := n.anns[note]; pred(ann) {
			res = append(res, ann)
		}
	}

	return res
}

// Sources returns the source annotations in source order.
func (n NotesManager) Sources() (res []AnnSource) {
	n.FindAllAnnotations(func(a Annotation) bool {
		_, ok := a.(AnnSource)
		return ok
	}).ForEach(func(a Annotation) {
		res = append(res, a.(AnnSource))
	})
	return
}

// Sinks returns the sink annotations in source order.
func (n NotesManager) Sinks() (res []AnnSink) {
	n.FindAllAnnotations(func(a Annotation) bool {
		_, ok := a.(AnnSink)
		return ok
	}).ForEach(func(a Annotation) {
		res = append(res, a.(AnnSink))
	})
	return
}
