// Package nosecretliteral reports token signing keys written as literals in
// source code. Keys must come from configuration.
package nosecretliteral

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/ast/astutil"
)

var Analyzer = &analysis.Analyzer{
	Name: "nosecretliteral",
	Doc:  "reports string literals passed as the key of SignedString",
	Run:  run,
}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok || len(call.Args) != 1 {
				return true
			}

			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok || sel.Sel.Name != "SignedString" {
				return true
			}
			if _, isMethod := pass.TypesInfo.Uses[sel.Sel].(*types.Func); !isMethod {
				return true
			}

			if isLiteralKey(pass, call.Args[0]) {
				pass.Reportf(call.Args[0].Pos(), "signing key must not be a literal")
			}

			return true
		})
	}

	return nil, nil
}

// isLiteralKey matches "key" and []byte("key"), constants included.
func isLiteralKey(pass *analysis.Pass, expr ast.Expr) bool {
	expr = astutil.Unparen(expr)

	if conversion, ok := expr.(*ast.CallExpr); ok && len(conversion.Args) == 1 {
		if typeAndValue, found := pass.TypesInfo.Types[conversion.Fun]; found && typeAndValue.IsType() {
			expr = astutil.Unparen(conversion.Args[0])
		}
	}

	if literal, ok := expr.(*ast.BasicLit); ok {
		return literal.Kind == token.STRING
	}

	typeAndValue, found := pass.TypesInfo.Types[expr]
	return found && typeAndValue.Value != nil
}
