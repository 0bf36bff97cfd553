package pkgutil

import (
	"go/types"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/cs-au-dk/gotaint/utils"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// opts is a shorthand for the CLI option API.
var opts = utils.Opts()

// CheckPkgInGoroot checks whether a package is declared in GOROOT.
func CheckPkgInGoroot(pkg *types.Package) bool {
	path := filepath.Join(runtime.GOROOT(), "src", pkg.Path())
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		return true
	}
	return false
}

// CheckInGoroot is true iff. the function is in a package declared in GOROOT.
func CheckInGoroot(fun *ssa.Function) bool {
	return fun != nil && fun.Pkg != nil &&
		CheckPkgInGoroot(fun.Pkg.Pkg)
}

// Functions returns the functions with bodies that belong to one of the
// given packages, including anonymous functions, in a deterministic order.
// Synthetic wrappers and instantiations of generic functions are skipped.
func Functions(prog *ssa.Program, pkgs []*ssa.Package) []*ssa.Function {
	local := make(map[*ssa.Package]bool, len(pkgs))
	for _, pkg := range pkgs {
		local[pkg] = true
	}

	var res []*ssa.Function
	for fun := range ssautil.AllFunctions(prog) {
		if len(fun.Blocks) == 0 || fun.Synthetic != "" || fun.Origin() != nil {
			continue
		}
		pkg := fun.Pkg
		if pkg == nil && fun.Parent() != nil {
			pkg = fun.Parent().Pkg
		}
		if local[pkg] {
			res = append(res, fun)
		}
	}

	sort.Slice(res, func(i, j int) bool {
		pi, pj := prog.Fset.Position(res[i].Pos()), prog.Fset.Position(res[j].Pos())
		if pi.Filename != pj.Filename {
			return pi.Filename < pj.Filename
		}
		if pi.Offset != pj.Offset {
			return pi.Offset < pj.Offset
		}
		return res[i].String() < res[j].String()
	})
	return res
}

// FindFunction returns the functions whose name matches the given name. The
// name need not be qualified w.r.t. its package: "Dict.Get", "main.f" and
// "f" all select the matching functions.
func FindFunction(funs []*ssa.Function, name string) (res []*ssa.Function) {
	for _, fun := range funs {
		full := fun.String()
		if full == name ||
			fun.Name() == name ||
			strings.HasSuffix(full, "."+name) ||
			receiverMatches(fun, name) {
			res = append(res, fun)
		}
	}
	return
}

func receiverMatches(fun *ssa.Function, name string) bool {
	recv := fun.Signature.Recv()
	if recv == nil {
		return false
	}
	typ := recv.Type()
	if ptr, ok := typ.(*types.Pointer); ok {
		typ = ptr.Elem()
	}
	named, ok := typ.(*types.Named)
	return ok && named.Obj().Name()+"."+fun.Name() == strings.TrimPrefix(name, "*")
}
