package codegen

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/mna/rnr/lang/mips"
)

// scratch lists the registers available as expression-lowering
// temporaries, distinct from FP/SP/RA which the frame layout owns
// outright.
var scratch = []mips.Reg{mips.T0, mips.T1, mips.T2, mips.T3, mips.T4}

// regAlloc hands out scratch registers while lowering one expression
// tree, tracking occupancy with a bitset (one bit per scratch register)
// rather than a hand-rolled map/slice of bools, per spec.md §4.5's
// "temp-register occupancy tracked with bits-and-blooms/bitset".
type regAlloc struct {
	free *bitset.BitSet
}

func newRegAlloc() *regAlloc {
	b := bitset.New(uint(len(scratch)))
	for i := range scratch {
		b.Set(uint(i))
	}
	return &regAlloc{free: b}
}

// alloc returns the lowest-numbered free scratch register and marks it
// occupied. It panics if every scratch register is already live — this
// language's expressions never nest deeply enough to exhaust five
// temporaries, so exhaustion means a bug in the lowering itself.
func (r *regAlloc) alloc() mips.Reg {
	i, ok := r.free.NextSet(0)
	if !ok {
		panic("codegen ICE: out of scratch registers")
	}
	r.free.Clear(i)
	return scratch[i]
}

// release returns reg to the free set.
func (r *regAlloc) release(reg mips.Reg) {
	for i, s := range scratch {
		if s == reg {
			r.free.Set(uint(i))
			return
		}
	}
}
