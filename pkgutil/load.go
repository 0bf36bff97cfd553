package pkgutil

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"

	"golang.org/x/tools/go/packages"
)

// LoadConfig configures package loading. Packages are loaded in module-aware
// mode if ModulePath is set and in GOPATH mode otherwise. If IncludeTests is
// true, the test variants of the packages are loaded instead.
type LoadConfig struct {
	GoPath, ModulePath string
	IncludeTests       bool
}

// loadMode asks for everything SSA construction needs, including the syntax
// and types of dependencies.
const loadMode packages.LoadMode = packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
	packages.NeedImports | packages.NeedTypes | packages.NeedTypesSizes | packages.NeedSyntax |
	packages.NeedTypesInfo | packages.NeedDeps

// ErrLoad is wrapped by every error reported while loading packages.
var ErrLoad = errors.New("package loading failed")

var moduleDirective = regexp.MustCompile(`(?m)^module\s+(\S+)`)

// workDir is the working directory of the process.
var workDir = func() string {
	dir, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return dir
}()

// parseRelative parses files under a name relative to the working directory,
// so that reported positions do not depend on where the repository is
// checked out. Golden reports rely on this.
func parseRelative(fset *token.FileSet, filename string, src []byte) (*ast.File, error) {
	if rel, err := filepath.Rel(workDir, filename); err == nil {
		filename = rel
	}
	return parser.ParseFile(fset, filename, src, parser.AllErrors|parser.ParseComments)
}

// ModuleName reads the module path declared by the go.mod file in dir.
func ModuleName(dir string) (string, error) {
	contents, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return "", fmt.Errorf("%w: no go.mod at %s: %v", ErrLoad, dir, err)
	}
	m := moduleDirective.FindSubmatch(contents)
	if m == nil {
		return "", fmt.Errorf("%w: no module directive in %s", ErrLoad, filepath.Join(dir, "go.mod"))
	}
	return string(m[1]), nil
}

// packagesConfig translates the load configuration for the go tool.
func (cfg LoadConfig) packagesConfig() (*packages.Config, error) {
	gopath, err := filepath.Abs(cfg.GoPath)
	if err != nil {
		return nil, err
	}

	res := &packages.Config{
		Mode:      loadMode,
		Tests:     cfg.IncludeTests,
		ParseFile: parseRelative,
		Env:       append(os.Environ(), "GOPATH="+gopath, "GO111MODULE=off"),
	}
	if cfg.ModulePath == "" {
		return res, nil
	}

	dir, err := filepath.Abs(cfg.ModulePath)
	if err != nil {
		return nil, err
	}
	if _, err := ModuleName(dir); err != nil {
		return nil, err
	}
	res.Dir = dir
	// The last binding of a variable wins.
	res.Env = append(res.Env, "GO111MODULE=on")
	return res, nil
}

// LoadPackages loads the syntax and types of the packages matching
// packageName, along with their dependencies.
func LoadPackages(cfg LoadConfig, packageName string) ([]*packages.Package, error) {
	config, err := cfg.packagesConfig()
	if err != nil {
		return nil, err
	}
	return load(config, packageName)
}

// LoadPackagesFromSource loads a single-file main package from source. Unlike
// the import-free fast path of the tests, it resolves imports with the go tool.
func LoadPackagesFromSource(source string) ([]*packages.Package, error) {
	const file = "/fake/testpackage/main.go"
	// The file only exists in the overlay.
	config := &packages.Config{
		Mode:    loadMode,
		Env:     append(os.Environ(), "GO111MODULE=off", "GOPATH=/fake"),
		Overlay: map[string][]byte{file: []byte(source)},
	}
	return load(config, file)
}

func load(config *packages.Config, query string) ([]*packages.Package, error) {
	pkgs, err := packages.Load(config, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	} else if packages.PrintErrors(pkgs) > 0 {
		return nil, fmt.Errorf("%w: errors encountered while loading %s", ErrLoad, query)
	}
	if config.Tests {
		pkgs = withoutTestedVariants(pkgs)
	}
	return pkgs, nil
}

// withoutTestedVariants drops every package that is also present in a
// variant compiled with its test files, so each function is analyzed once.
func withoutTestedVariants(pkgs []*packages.Package) []*packages.Package {
	ids := make(map[string]bool, len(pkgs))
	for _, pkg := range pkgs {
		ids[pkg.ID] = true
	}

	res := make([]*packages.Package, 0, len(pkgs))
	for _, pkg := range pkgs {
		if !ids[fmt.Sprintf("%s [%s.test]", pkg.ID, pkg.ID)] {
			res = append(res, pkg)
		}
	}
	return res
}
