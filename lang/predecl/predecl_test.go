package predecl_test

import (
	"testing"

	"github.com/mna/rnr/lang/ast"
	"github.com/mna/rnr/lang/parser"
	"github.com/mna/rnr/lang/predecl"
	"github.com/mna/rnr/lang/token"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *ast.File {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "test.rnr", src)
	require.NoError(t, err)
	return f
}

func mainBody(t *testing.T, f *ast.File) *ast.Block {
	t.Helper()
	for _, it := range f.Items {
		if fn, ok := it.(*ast.Func); ok && fn.Name == "main" {
			return fn.Body
		}
	}
	t.Fatal("no main function found")
	return nil
}

func TestRunIdentOperandNotHoisted(t *testing.T) {
	f := parse(t, `fn main() { let mut x: i32 = 1; let y = &x; }`)
	predecl.Run(f)
	body := mainBody(t, f)
	require.Len(t, body.Stmts, 2)
	require.Equal(t, "let mut x: i32 = 1;", ast.Print(body.Stmts[0]))
	require.Equal(t, "let y = &x;", ast.Print(body.Stmts[1]))
}

func TestRunHoistsCompoundOperand(t *testing.T) {
	f := parse(t, `fn main() { let mut x: i32 = 1; let y = &(x + 1); }`)
	predecl.Run(f)
	body := mainBody(t, f)
	require.Len(t, body.Stmts, 3)
	require.Equal(t, "let mut x: i32 = 1;", ast.Print(body.Stmts[0]))
	require.Equal(t, "let #0_unary_op = (x + 1);", ast.Print(body.Stmts[1]))
	require.Equal(t, "let y = &#0_unary_op;", ast.Print(body.Stmts[2]))
}

func TestRunUniqueBorrowTempIsMutable(t *testing.T) {
	f := parse(t, `fn main() { let mut x: i32 = 1; let y = &mut (x + 1); }`)
	predecl.Run(f)
	body := mainBody(t, f)
	let, ok := body.Stmts[1].(*ast.LetStmt)
	require.True(t, ok)
	require.True(t, let.Mutable)
}

func TestRunIsIdempotent(t *testing.T) {
	f := parse(t, `fn main() { let mut x: i32 = 1; let y = &(x + 1); }`)
	predecl.Run(f)
	body := mainBody(t, f)
	before := make([]string, len(body.Stmts))
	for i, s := range body.Stmts {
		before[i] = ast.Print(s)
	}
	predecl.Run(f)
	after := mainBody(t, f)
	require.Len(t, after.Stmts, len(before))
	for i, s := range after.Stmts {
		require.Equal(t, before[i], ast.Print(s))
	}
}

func TestRunRecursesIntoNestedBlocksAndIf(t *testing.T) {
	f := parse(t, `fn main() {
		let mut x: i32 = 1;
		if x == 1 {
			let z = &(x + 1);
		} else {
			let z = *(&x);
		}
	}`)
	predecl.Run(f)
	body := mainBody(t, f)
	ifStmt, ok := body.Stmts[1].(*ast.ExprStmt)
	require.True(t, ok)
	ifExpr, ok := ifStmt.X.(*ast.IfExpr)
	require.True(t, ok)
	require.Len(t, ifExpr.Then.Stmts, 2)
	require.Equal(t, "let #0_unary_op = (x + 1);", ast.Print(ifExpr.Then.Stmts[0]))
	require.Len(t, ifExpr.Else.Stmts, 2)
	require.Equal(t, "let #1_unary_op = (&x);", ast.Print(ifExpr.Else.Stmts[0]))
}
