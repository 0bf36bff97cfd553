package lattice

import (
	"fmt"
	"strings"

	"github.com/cs-au-dk/gotaint/utils"

	"github.com/fatih/color"
)

var colorize = struct {
	Tainted   func(...interface{}) string
	Untainted func(...interface{}) string
}{
	Tainted: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiRed).SprintFunc())(is...)
	},
	Untainted: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgCyan).SprintFunc())(is...)
	},
}

// ParseTaint reads a taint, ignoring case and surrounding space. Tainted
// is spelled "Tainted", "S", "T", "source" or "⊤", and Untainted is spelled
// "Untainted", "U" or "⊥". String prints "T" and "⊥", Name the long names.
func ParseTaint(s string) (Taint, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "t", "s", "tainted", "source", "⊤":
		return Tainted, nil
	case "u", "untainted", "⊥":
		return Untainted, nil
	}
	return Untainted, fmt.Errorf("invalid taint %q", s)
}
