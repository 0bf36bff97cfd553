// Package oracle decides which calls introduce taint and which consume it.
package oracle

import (
	"go/types"

	"github.com/cs-au-dk/gotaint/config"

	"golang.org/x/tools/go/ssa"
)

// Oracle matches callees against sets of source and sink names.
type Oracle struct {
	sources map[string]struct{}
	sinks   map[string]struct{}
}

func New(sources, sinks []string) *Oracle {
	o := &Oracle{
		sources: make(map[string]struct{}, len(sources)),
		sinks:   make(map[string]struct{}, len(sinks)),
	}
	for _, s := range sources {
		o.sources[s] = struct{}{}
	}
	for _, s := range sinks {
		o.sinks[s] = struct{}{}
	}
	return o
}

// FromConfig creates the oracle of the sources and sinks of c.
func FromConfig(c *config.Config) *Oracle {
	return New(c.Sources, c.Sinks)
}

// Names returns the names a function may be referred to by, from most to
// least qualified:
//   - the fully qualified name, e.g. "os/exec.Command" or "(*net/http.Request).FormValue",
//   - the name qualified by package name, e.g. "exec.Command" or "http.Request.FormValue",
//   - for methods, the name qualified by receiver type, e.g. "Request.FormValue",
//   - for package-level functions, the bare name, e.g. "Command".
//
// Instantiations of generic functions are named after their origin.
func Names(fn *ssa.Function) []string {
	if fn == nil {
		return nil
	}
	if origin := fn.Origin(); origin != nil {
		fn = origin
	}

	names := []string{fn.String()}

	if recv := fn.Signature.Recv(); recv != nil {
		typ := recv.Type()
		if ptr, ok := typ.(*types.Pointer); ok {
			typ = ptr.Elem()
		}
		if named, ok := typ.(*types.Named); ok {
			obj := named.Obj()
			qualified := obj.Name() + "." + fn.Name()
			if obj.Pkg() != nil {
				names = append(names, obj.Pkg().Name()+"."+qualified)
			}
			names = append(names, qualified)
		}
		return names
	}

	if fn.Parent() == nil && fn.Pkg != nil {
		names = append(names, fn.Pkg.Pkg.Name()+"."+fn.Name(), fn.Name())
	}
	return names
}

// Callee returns the statically known callee of a call, or nil for dynamic
// calls and builtins.
func Callee(call ssa.CallInstruction) *ssa.Function {
	return call.Common().StaticCallee()
}

func matches(set map[string]struct{}, fn *ssa.Function) bool {
	for _, name := range Names(fn) {
		if _, ok := set[name]; ok {
			return true
		}
	}
	return false
}

// IsSource is true if the result of calling fn is tainted.
func (o *Oracle) IsSource(fn *ssa.Function) bool {
	return fn != nil && matches(o.sources, fn)
}

// IsSink is true if fn must not receive tainted arguments.
func (o *Oracle) IsSink(fn *ssa.Function) bool {
	return fn != nil && matches(o.sinks, fn)
}

// IsSourceCall and IsSinkCall classify call instructions by their callee.
func (o *Oracle) IsSourceCall(call ssa.CallInstruction) bool {
	return o.IsSource(Callee(call))
}

func (o *Oracle) IsSinkCall(call ssa.CallInstruction) bool {
	return o.IsSink(Callee(call))
}
