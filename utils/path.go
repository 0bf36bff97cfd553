package utils

import (
	"flag"
)

// MakePath returns the target package pattern: the first non-flag argument.
// If no path is provided, it defaults to "taint/dictionary" in the example
// GOPATH.
func MakePath() string {
	if args := flag.Args(); len(args) >= 1 {
		return args[0]
	}
	return "taint/dictionary"
}
