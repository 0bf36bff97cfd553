package utils

import (
	"fmt"

	"github.com/fatih/color"

	"golang.org/x/tools/go/ssa"
)

var funColor = func(is ...interface{}) string {
	return CanColorize(color.New(color.FgHiYellow).SprintFunc())(is...)
}
var nameColor = func(is ...interface{}) string {
	return CanColorize(color.New(color.FgHiGreen).SprintFunc())(is...)
}
var insColor = func(is ...interface{}) string {
	return CanColorize(color.New(color.FgHiWhite, color.Faint).SprintFunc())(is...)
}

// SSAFunString pretty-prints a function by its fully qualified name.
func SSAFunString(fun *ssa.Function) string {
	if fun == nil {
		return funColor("<nil>")
	}
	return funColor(fun.String())
}

// SSAInsString pretty-prints an instruction, prefixed by its name if it also
// defines a value.
func SSAInsString(insn ssa.Instruction) string {
	if v, ok := insn.(ssa.Value); ok {
		return nameColor(v.Name()) + " = " + insColor(insn.String())
	}
	return insColor(insn.String())
}

// SSAValString pretty-prints a value together with its parent function.
func SSAValString(v ssa.Value) string {
	switch v := v.(type) {
	case nil:
		return ""
	case ssa.Instruction:
		return SSAFunString(v.Parent()) + ": " + SSAInsString(v)
	default:
		return fmt.Sprintf("%s: %s", SSAFunString(v.Parent()), insColor(v.String()))
	}
}

// SSAValName pretty-prints the name of a value, e.g. "t3" or a constant.
func SSAValName(v ssa.Value) string {
	if v == nil {
		return ""
	}
	return nameColor(v.Name())
}
