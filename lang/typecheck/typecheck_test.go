package typecheck_test

import (
	"testing"

	"github.com/mna/rnr/lang/linearize"
	"github.com/mna/rnr/lang/parser"
	"github.com/mna/rnr/lang/predecl"
	"github.com/mna/rnr/lang/token"
	"github.com/mna/rnr/lang/typecheck"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, src string) error {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "test.rnr", src)
	require.NoError(t, err)
	predecl.Run(f)
	require.NoError(t, linearize.Run(f))
	return typecheck.Run(f)
}

func TestRunArithmeticAndCompare(t *testing.T) {
	err := run(t, `fn main() { let a: i32 = 1 + 1 + (5 - 5) * 8; let b: bool = a < 3; a; b; }`)
	require.NoError(t, err)
}

func TestRunWhileRequiresBoolCondition(t *testing.T) {
	err := run(t, `fn main() { while true { let mut a: i32 = 5; a = a + 1; a; } }`)
	require.NoError(t, err)
}

func TestRunWhileConditionMustBeBoolean(t *testing.T) {
	err := run(t, `fn main() { while 1 { 1; } }`)
	require.Error(t, err)
}

func TestRunShadowingInNestedIf(t *testing.T) {
	err := run(t, `fn main() {
		let mut a: i32 = 1 + 2;
		let mut a: i32 = 2 + a;
		if true {
			a = a - 1;
			let mut a: i32 = 0;
			a = a + 1;
		} else {
			a = a - 1;
		}
		a;
	}`)
	require.NoError(t, err)
}

func TestRunAssignTypeMismatchIsRejected(t *testing.T) {
	err := run(t, `fn main() { let mut a: i32 = 1; a = false; }`)
	require.Error(t, err)
}

func TestRunAssignToImmutableIsRejected(t *testing.T) {
	err := run(t, `fn main() { let a: i32 = 1; a = 2; }`)
	require.Error(t, err)
}

func TestRunFunctionCallArgTypesAndReturn(t *testing.T) {
	err := run(t, `
		fn add(a: i32, b: i32) -> i32 { a + b }
		fn main() { let r: i32 = add(1, 2); r; }
	`)
	require.NoError(t, err)
}

func TestRunFunctionWrongArgCountIsRejected(t *testing.T) {
	err := run(t, `
		fn add(a: i32, b: i32) -> i32 { a + b }
		fn main() { let r: i32 = add(1); r; }
	`)
	require.Error(t, err)
}

func TestRunRecursiveFunctionTypeChecks(t *testing.T) {
	err := run(t, `
		fn sum(n: i32) -> i32 {
			if n == 0 { 0 } else { n + sum(n - 1) }
		}
		fn main() { let r: i32 = sum(3); r; }
	`)
	require.NoError(t, err)
}

func TestRunUniqueBorrowRequiresMutableBinding(t *testing.T) {
	err := run(t, `fn main() { let x: i32 = 1; let y = &mut x; y; }`)
	require.Error(t, err)
}

func TestRunDerefOfSharedRefYieldsElemType(t *testing.T) {
	err := run(t, `fn main() {
		let mut x: i32 = 1;
		let r = &x;
		let y: i32 = *r;
		y;
	}`)
	require.NoError(t, err)
}

func TestRunArrayLiteralMustBeHomogeneous(t *testing.T) {
	err := run(t, `fn main() { let a = [1, true]; a; }`)
	require.Error(t, err)
}

func TestRunArrayIndexOutOfBoundsIsRejected(t *testing.T) {
	err := run(t, `fn main() { let a: [i32; 2] = [1, 2]; let x: i32 = a[5]; x; }`)
	require.Error(t, err)
}
