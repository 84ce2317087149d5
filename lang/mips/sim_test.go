package mips_test

import (
	"testing"

	"github.com/mna/rnr/lang/mips"
	"github.com/stretchr/testify/require"
)

func TestRunAddsTwoImmediates(t *testing.T) {
	b := mips.NewBuilder()
	b.Emit(mips.Li(mips.T0, 20))
	b.Emit(mips.Li(mips.T1, 22))
	b.Emit(mips.Add(mips.T2, mips.T0, mips.T1))
	b.Emit(mips.Halt())

	vm := mips.NewVM()
	require.NoError(t, vm.Run(b.Program(), 1000))
	require.Equal(t, int32(42), vm.Regs[mips.T2])
}

func TestRunBranchesOnEquality(t *testing.T) {
	b := mips.NewBuilder()
	b.Emit(mips.Li(mips.T0, 1))
	b.Emit(mips.Li(mips.T1, 1))
	b.Emit(mips.Beq(mips.T0, mips.T1, "eq"))
	b.Emit(mips.Li(mips.T2, 99))
	b.Emit(mips.Label("eq"))
	b.Emit(mips.Li(mips.T3, 7))
	b.Emit(mips.Halt())

	vm := mips.NewVM()
	require.NoError(t, vm.Run(b.Program(), 1000))
	require.Equal(t, int32(0), vm.Regs[mips.T2])
	require.Equal(t, int32(7), vm.Regs[mips.T3])
}

func TestRunPushPopRoundTrips(t *testing.T) {
	b := mips.NewBuilder()
	b.Emit(mips.Li(mips.T0, 55))
	mips.Push(b, mips.T0)
	b.Emit(mips.Li(mips.T0, 0))
	mips.Pop(b, mips.T1)
	b.Emit(mips.Halt())

	vm := mips.NewVM()
	require.NoError(t, vm.Run(b.Program(), 1000))
	require.Equal(t, int32(55), vm.Regs[mips.T1])
}

func TestRunExecutionLimitIsEnforced(t *testing.T) {
	b := mips.NewBuilder()
	b.Emit(mips.Label("loop"))
	b.Emit(mips.J("loop"))

	vm := mips.NewVM()
	err := vm.Run(b.Program(), 100)
	require.Error(t, err)
}
