// Command nosetenv reports tests that change the process environment.
//
// Configuration is read once by platformconfig.LoadFromEnv. Tests build it with
// platformconfig.LoadFromMap instead, so they can run in parallel without
// sharing environment state.
//
//	cd tools/linters && go build -o ../../bin/nosetenv .
//	bin/nosetenv ./...
package main

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/analysis/singlechecker"
	"golang.org/x/tools/go/ast/inspector"
)

const doc = `nosetenv: forbid environment mutation in test files

Reports calls to os.Setenv, os.Unsetenv, os.Clearenv and the Setenv method of
testing.T, testing.B and testing.TB inside _test.go files. Build the config with
platformconfig.LoadFromMap and pass it to the constructor under test.`

const hint = "build the config with platformconfig.LoadFromMap instead"

var Analyzer = &analysis.Analyzer{
	Name:     "nosetenv",
	Doc:      doc,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

var forbiddenOS = map[string]bool{
	"Setenv":   true,
	"Unsetenv": true,
	"Clearenv": true,
}

func main() {
	singlechecker.Main(Analyzer)
}

func run(pass *analysis.Pass) (interface{}, error) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	insp.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node) {
		call := n.(*ast.CallExpr)
		if !inTestFile(pass, call) {
			return
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return
		}
		fn, ok := pass.TypesInfo.Uses[sel.Sel].(*types.Func)
		if !ok || fn.Pkg() == nil {
			return
		}

		switch {
		case fn.Pkg().Path() == "os" && forbiddenOS[fn.Name()]:
			pass.Reportf(call.Pos(), "os.%s in a test changes the environment of every test; %s", fn.Name(), hint)
		case fn.Pkg().Path() == "testing" && fn.Name() == "Setenv":
			pass.Reportf(call.Pos(), "Setenv in a test prevents t.Parallel; %s", hint)
		}
	})
	return nil, nil
}

func inTestFile(pass *analysis.Pass, n ast.Node) bool {
	return strings.HasSuffix(pass.Fset.Position(n.Pos()).Filename, "_test.go")
}
