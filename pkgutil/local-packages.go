package pkgutil

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
)

// ErrNoPackages is returned when none of the loaded packages are local.
var ErrNoPackages = errors.New("no local packages found")

// LocalPackages returns the SSA packages created for the packages matched by
// the load query, i.e., excluding their dependencies. Test variants replace
// their base package.
func LocalPackages(prog *ssa.Program, pkgs []*packages.Package) ([]*ssa.Package, error) {
	byPath := make(map[string]*ssa.Package)
	for _, pkg := range pkgs {
		if pkg.Types == nil {
			continue
		}
		spkg := prog.Package(pkg.Types)
		if spkg == nil {
			continue
		}
		path := strings.TrimSuffix(pkg.PkgPath, ".test")
		if prev, ok := byPath[path]; !ok || len(spkg.Members) > len(prev.Members) {
			byPath[path] = spkg
		}
	}

	if len(byPath) == 0 {
		return nil, ErrNoPackages
	}

	res := make([]*ssa.Package, 0, len(byPath))
	for _, spkg := range byPath {
		res = append(res, spkg)
	}

	opts.OnVerbose(func() {
		fmt.Println("Local packages:")
		for _, p := range res {
			fmt.Println(p.Pkg.Path())
		}
	})

	return res, nil
}
