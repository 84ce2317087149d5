package interp_test

import (
	"bytes"
	"testing"

	"github.com/mna/rnr/lang/interp"
	"github.com/mna/rnr/lang/linearize"
	"github.com/mna/rnr/lang/parser"
	"github.com/mna/rnr/lang/predecl"
	"github.com/mna/rnr/lang/token"
	"github.com/mna/rnr/lang/typecheck"
	"github.com/stretchr/testify/require"
)

func eval(t *testing.T, src string) interp.Value {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "test.rnr", src)
	require.NoError(t, err)
	predecl.Run(f)
	require.NoError(t, linearize.Run(f))
	require.NoError(t, typecheck.Run(f))
	th := &interp.Thread{MaxSteps: 10000}
	v, err := interp.Run(th, f)
	require.NoError(t, err)
	return v
}

func TestRunArithmeticPrecedence(t *testing.T) {
	v := eval(t, `fn main() -> i32 { 2 - 3 * 4 - 5 }`)
	require.Equal(t, interp.Int(-15), v)
}

func TestRunShadowingWithOuterMutation(t *testing.T) {
	v := eval(t, `fn main() -> i32 {
		let mut a: i32 = 1;
		if true {
			a = a + 3;
			let mut a: i32 = 99;
			a = a + 1;
		}
		a
	}`)
	require.Equal(t, interp.Int(4), v)
}

func TestRunSummationLoop(t *testing.T) {
	v := eval(t, `fn main() -> i32 {
		let mut total: i32 = 0;
		let mut i: i32 = 1;
		while i < 4 {
			total = total + i;
			i = i + 1;
		}
		total
	}`)
	require.Equal(t, interp.Int(6), v)
}

func TestRunRecursion(t *testing.T) {
	v := eval(t, `
		fn sum(n: i32) -> i32 {
			if n == 0 { 0 } else { n + sum(n - 1) }
		}
		fn main() -> i32 { sum(3) }
	`)
	require.Equal(t, interp.Int(6), v)
}

func TestRunSharedBorrowReadsThroughDeref(t *testing.T) {
	v := eval(t, `fn main() -> i32 {
		let mut x: i32 = 41;
		let r = &x;
		*r + 1
	}`)
	require.Equal(t, interp.Int(42), v)
}

func TestRunUniqueBorrowMutatesThroughDeref(t *testing.T) {
	v := eval(t, `fn main() -> i32 {
		let mut x: i32 = 1;
		let r = &mut x;
		*r = 10;
		x
	}`)
	require.Equal(t, interp.Int(10), v)
}

func TestRunArrayIndexReadAndWrite(t *testing.T) {
	v := eval(t, `fn main() -> i32 {
		let mut a: [i32; 3] = [1, 2, 3];
		a[1] = 9;
		a[1]
	}`)
	require.Equal(t, interp.Int(9), v)
}

func TestRunExecutionLimitIsEnforced(t *testing.T) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "test.rnr", `fn main() { while true { let mut a: i32 = 1; a = a + 1; } }`)
	require.NoError(t, err)
	predecl.Run(f)
	require.NoError(t, linearize.Run(f))
	require.NoError(t, typecheck.Run(f))
	th := &interp.Thread{MaxSteps: 50}
	_, err = interp.Run(th, f)
	require.Error(t, err)
}

func TestRunPrintlnWritesFormattedOutput(t *testing.T) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "test.rnr", `fn main() { println!("answer: {}", 42); }`)
	require.NoError(t, err)
	predecl.Run(f)
	require.NoError(t, linearize.Run(f))
	require.NoError(t, typecheck.Run(f))
	var buf bytes.Buffer
	th := &interp.Thread{MaxSteps: 10000, Stdout: &buf}
	_, err = interp.Run(th, f)
	require.NoError(t, err)
	require.Equal(t, "answer: 42\n", buf.String())
}
