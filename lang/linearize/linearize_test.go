package linearize_test

import (
	"testing"

	"github.com/mna/rnr/lang/ast"
	"github.com/mna/rnr/lang/linearize"
	"github.com/mna/rnr/lang/parser"
	"github.com/mna/rnr/lang/predecl"
	"github.com/mna/rnr/lang/token"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, src string) (*ast.File, error) {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "test.rnr", src)
	require.NoError(t, err)
	predecl.Run(f)
	return f, linearize.Run(f)
}

func TestRunOkShadowing(t *testing.T) {
	_, err := run(t, `fn main() {
		let a: i32 = 20;
		let b: i32 = a - 2;
		let a: i32 = 20 - a;
		b;
		a;
	}`)
	require.NoError(t, err)
}

func TestRunNeverUsedIsRejected(t *testing.T) {
	_, err := run(t, `fn main() { let x: i32 = 1; }`)
	require.Error(t, err)
}

func TestRunUnderscorePrefixSuppressesNeverUsed(t *testing.T) {
	_, err := run(t, `fn main() { let _x: i32 = 1; }`)
	require.NoError(t, err)
}

func TestRunParamsNeverRequireUse(t *testing.T) {
	_, err := run(t, `fn f(a: i32) -> i32 { 1 } fn main() { f(1); }`)
	require.NoError(t, err)
}

func TestRunSharedBorrowsCoexist(t *testing.T) {
	_, err := run(t, `fn main() {
		let mut x: i32 = 1;
		let a = &x;
		let b = &x;
		a;
		b;
	}`)
	require.NoError(t, err)
}

func TestRunUniqueThenSharedIsRejected(t *testing.T) {
	_, err := run(t, `fn main() {
		let mut x: i32 = 1;
		let a = &mut x;
		let b = &x;
		a;
		b;
	}`)
	require.Error(t, err)
}

func TestRunUniqueWhileUniqueAliveIsRejected(t *testing.T) {
	_, err := run(t, `fn main() {
		let mut x: i32 = 1;
		let a = &mut x;
		let b = &mut x;
		a;
		b;
	}`)
	require.Error(t, err)
}

func TestRunUnknownIdentifierIsRejected(t *testing.T) {
	_, err := run(t, `fn main() { y; }`)
	require.Error(t, err)
}

func TestRunCanonicalNamesAreRewrittenOnUse(t *testing.T) {
	f, err := run(t, `fn main() { let x: i32 = 1; x; }`)
	require.NoError(t, err)
	fn := f.Items[0].(*ast.Func)
	exprStmt := fn.Body.Stmts[1].(*ast.ExprStmt)
	ident := exprStmt.X.(*ast.IdentExpr)
	require.NotEmpty(t, ident.Binding)
	require.Contains(t, ident.Binding, "_x")
}
