package codegen_test

import (
	"testing"

	"github.com/mna/rnr/lang/codegen"
	"github.com/mna/rnr/lang/linearize"
	"github.com/mna/rnr/lang/mips"
	"github.com/mna/rnr/lang/parser"
	"github.com/mna/rnr/lang/predecl"
	"github.com/mna/rnr/lang/token"
	"github.com/mna/rnr/lang/typecheck"
	"github.com/stretchr/testify/require"
)

// compileAndRun runs src through the full front end and the generated
// machine code, returning the word sitting on top of the data stack
// when the program halts — the generated main's return value, since
// frame exit always pushes its result back before jumping through the
// return address, and the prelude's `jal main` leaves `halt` as that
// return address.
func compileAndRun(t *testing.T, src string) int32 {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "test.rnr", src)
	require.NoError(t, err)
	predecl.Run(f)
	require.NoError(t, linearize.Run(f))
	require.NoError(t, typecheck.Run(f))

	out, err := codegen.Run(f)
	require.NoError(t, err)

	vm := mips.NewVM()
	require.NoError(t, vm.Run(out.Program, 100000))
	return vm.Mem[vm.Regs[mips.SP]]
}

// TestRunArithmeticPrecedence is spec.md §8's scenario 1.
func TestRunArithmeticPrecedence(t *testing.T) {
	result := compileAndRun(t, `fn main() -> i32 { 2 - 3 * 4 - 5 }`)
	require.Equal(t, int32(-15), result)
}

func TestRunSubtraction(t *testing.T) {
	result := compileAndRun(t, `fn main() -> i32 { 10 - 3 }`)
	require.Equal(t, int32(7), result)
}

func TestRunDivision(t *testing.T) {
	result := compileAndRun(t, `fn main() -> i32 { 20 / 4 }`)
	require.Equal(t, int32(5), result)
}

func TestRunComparisonsAndEquality(t *testing.T) {
	// unary operators (including logical not) have no lowering in this
	// code generator, matching original_source/src/codegen.rs's own
	// Expr match, which names no Expr::UnOp arm besides the dead
	// Borrow/BorrowMut one — so this only exercises binary comparisons.
	result := compileAndRun(t, `fn main() -> bool { (1 + 1 == 2) && (3 > 2) && (2 < 3) }`)
	require.Equal(t, int32(1), result)
}

func TestRunIfThenElse(t *testing.T) {
	result := compileAndRun(t, `fn main() -> i32 { if 1 < 2 { 42 } else { 0 } }`)
	require.Equal(t, int32(42), result)
}

// TestRunWhileLoopSummation is spec.md §8's scenario 3: the emitted
// program is expected to leave the interpreter's result (6) as main's
// return value on top of the stack once it halts.
func TestRunWhileLoopSummation(t *testing.T) {
	result := compileAndRun(t, `fn main() -> i32 {
		let mut i: i32 = 3;
		let mut sum: i32 = 0;
		while i > 0 {
			sum = sum + i;
			i = i - 1;
		}
		sum
	}`)
	require.Equal(t, int32(6), result)
}

func TestRunFunctionCallAndRecursion(t *testing.T) {
	result := compileAndRun(t, `
		fn fact(n: i32) -> i32 {
			if n < 2 { 1 } else { n * fact(n - 1) }
		}
		fn main() -> i32 { fact(5) }
	`)
	require.Equal(t, int32(120), result)
}

func TestRunLetShadowingReusesSlot(t *testing.T) {
	result := compileAndRun(t, `fn main() -> i32 {
		let x: i32 = 1;
		let x: i32 = x + 1;
		x
	}`)
	require.Equal(t, int32(2), result)
}

func TestRunStaticIsVisibleInMain(t *testing.T) {
	result := compileAndRun(t, `
		static BASE: i32 = 100;
		fn main() -> i32 { BASE + 1 }
	`)
	require.Equal(t, int32(101), result)
}

func TestRunNestedFunctionShadowsOuterByLexicalPath(t *testing.T) {
	result := compileAndRun(t, `
		fn main() -> i32 {
			fn helper() -> i32 { 1 }
			let mut v: i32 = 0;
			if true {
				fn helper() -> i32 { 2 }
				v = helper();
			}
			v
		}
	`)
	require.Equal(t, int32(2), result)
}

func TestRunStringLiteralIsInterned(t *testing.T) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "test.rnr", `fn main() -> i32 { let _s: String = "hi"; 0 }`)
	require.NoError(t, err)
	predecl.Run(f)
	require.NoError(t, linearize.Run(f))
	require.NoError(t, typecheck.Run(f))

	out, err := codegen.Run(f)
	require.NoError(t, err)
	require.Equal(t, []string{"hi"}, out.Strings)
}

func TestRunInvalidAssignTargetIsRejected(t *testing.T) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "test.rnr", `fn main() -> i32 {
		let mut x: i32 = 1;
		let r = &mut x;
		*r = 10;
		x
	}`)
	require.NoError(t, err)
	predecl.Run(f)
	require.NoError(t, linearize.Run(f))
	require.NoError(t, typecheck.Run(f))

	// the code generator only lowers assignment to a plain identifier,
	// per spec.md §4.5 ("Only identifier targets are supported at
	// present") — assignment through a de-ref is rejected rather than
	// silently mis-lowered.
	_, err = codegen.Run(f)
	require.Error(t, err)
}
