// Package mips bundles a small single-cycle register-machine instruction
// set and simulator, standing in for the original crate's external
// `mips` dependency (original_source/src/codegen.rs: `use mips::{asm::*,
// instrs::Instrs, rf::Reg::{self, *}}`). There is no general MIPS
// assembler/simulator library in the example pack; this hand-rolled,
// twenty-odd-opcode instruction set mirrors the teacher's own
// lang/compiler/asm.go, which likewise hand-rolls a textual
// encode/decode pair for its own machine rather than reaching for a
// third-party assembler.
package mips

import "fmt"

// Reg identifies one of the machine's registers.
type Reg int

const (
	Zero Reg = iota // always reads as 0
	T0
	T1
	T2
	T3
	T4
	FP // frame pointer
	SP // stack pointer
	RA // return address
	GP // global pointer: fixed base for top-level static storage, set
	   // once in the prelude and never touched by frame entry/exit —
	   // unlike FP, which is rebound on every call.
	numRegs
)

func (r Reg) String() string {
	names := [...]string{"zero", "t0", "t1", "t2", "t3", "t4", "fp", "sp", "ra", "gp"}
	if int(r) < len(names) {
		return names[r]
	}
	return fmt.Sprintf("r%d", int(r))
}

// Op identifies one instruction opcode. Branch/jump targets are carried
// as a label name rather than a pre-computed offset — this simulator
// resolves labels to instruction indices once, up front, the way the
// teacher's own asm.go resolves jump targets against a code section
// instead of raw byte offsets.
type Op int

const (
	OpNop Op = iota
	OpLabel
	OpAddI // Rd = Rs + Imm
	OpAdd  // Rd = Rs + Rt
	OpSub  // Rd = Rs - Rt
	OpSlt  // Rd = 1 if Rs < Rt else 0
	OpXor  // Rd = Rs ^ Rt
	OpXorI // Rd = Rs ^ Imm
	OpAnd  // Rd = Rs & Rt
	OpOr   // Rd = Rs | Rt
	OpLi   // Rd = Imm
	OpLstr // Rd = Imm (string-constant-pool index; see lang/codegen's pool)
	OpLw   // Rd = mem[Rs + Imm]
	OpSw   // mem[Rs + Imm] = Rd
	OpBeq  // branch to Label if Rs == Rt
	OpBne  // branch to Label if Rs != Rt
	OpJ    // unconditional jump to Label
	OpJal  // RA = PC+1; jump to Label
	OpJr   // jump to address held in Rs (used for returns, via RA)
	OpHalt
)

// Instr is one instruction, carrying only the operand fields its Op
// uses. Comment is an optional human-readable annotation, purely for
// disassembly/debugging — mirroring the generous inline commentary the
// original codegen.rs attaches to every emitted instruction via
// `Instrs::comment`.
type Instr struct {
	Op      Op
	Rd, Rs, Rt Reg
	Imm     int32
	Label   string // for OpLabel (defines), OpBeq/OpBne/OpJ/OpJal (targets)
	Comment string
}

// Program is a flat, already-labelled instruction stream.
type Program struct {
	Instrs []Instr
}

// Builder accumulates instructions, mirroring the original's Instrs
// fluent-append API (`Instrs::push`, `::append`, `::comment`).
type Builder struct {
	instrs []Instr
}

func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) Emit(i Instr) *Builder {
	b.instrs = append(b.instrs, i)
	return b
}

func (b *Builder) Append(other *Builder) *Builder {
	b.instrs = append(b.instrs, other.instrs...)
	return b
}

func (b *Builder) Len() int { return len(b.instrs) }

func (b *Builder) Program() *Program { return &Program{Instrs: b.instrs} }

// Comment annotates the most recently emitted instruction, matching
// `Instrs::comment`'s "decorate what I just pushed" usage in the
// original.
func (b *Builder) Comment(c string) *Builder {
	if n := len(b.instrs); n > 0 {
		b.instrs[n-1].Comment = c
	}
	return b
}

func Label(name string) Instr         { return Instr{Op: OpLabel, Label: name} }
func AddI(rd, rs Reg, imm int32) Instr { return Instr{Op: OpAddI, Rd: rd, Rs: rs, Imm: imm} }
func Add(rd, rs, rt Reg) Instr        { return Instr{Op: OpAdd, Rd: rd, Rs: rs, Rt: rt} }
func Sub(rd, rs, rt Reg) Instr        { return Instr{Op: OpSub, Rd: rd, Rs: rs, Rt: rt} }
func Slt(rd, rs, rt Reg) Instr        { return Instr{Op: OpSlt, Rd: rd, Rs: rs, Rt: rt} }
func Xor(rd, rs, rt Reg) Instr        { return Instr{Op: OpXor, Rd: rd, Rs: rs, Rt: rt} }
func XorI(rd, rs Reg, imm int32) Instr { return Instr{Op: OpXorI, Rd: rd, Rs: rs, Imm: imm} }
func And(rd, rs, rt Reg) Instr        { return Instr{Op: OpAnd, Rd: rd, Rs: rs, Rt: rt} }
func Or(rd, rs, rt Reg) Instr         { return Instr{Op: OpOr, Rd: rd, Rs: rs, Rt: rt} }
func Li(rd Reg, imm int32) Instr      { return Instr{Op: OpLi, Rd: rd, Imm: imm} }
func Lstr(rd Reg, poolIndex int32) Instr { return Instr{Op: OpLstr, Rd: rd, Imm: poolIndex} }
func Lw(rd, rs Reg, offset int32) Instr { return Instr{Op: OpLw, Rd: rd, Rs: rs, Imm: offset} }
func Sw(rd, rs Reg, offset int32) Instr { return Instr{Op: OpSw, Rd: rd, Rs: rs, Imm: offset} }
func Beq(rs, rt Reg, label string) Instr { return Instr{Op: OpBeq, Rs: rs, Rt: rt, Label: label} }
func Bne(rs, rt Reg, label string) Instr { return Instr{Op: OpBne, Rs: rs, Rt: rt, Label: label} }
func J(label string) Instr            { return Instr{Op: OpJ, Label: label} }
func Jal(label string) Instr          { return Instr{Op: OpJal, Label: label} }
func Jr(rs Reg) Instr                 { return Instr{Op: OpJr, Rs: rs} }
func Halt() Instr                     { return Instr{Op: OpHalt} }

// Mov is the pseudo-instruction Rd = Rs, encoded as Rd = Rs + Zero (the
// original's `mov(fp, sp)` likewise expands to an `addu` against the
// zero register on real MIPS).
func Mov(rd, rs Reg) Instr { return Add(rd, rs, Zero) }

// Push emits the two-instruction sequence that decrements SP by one
// word and stores r at the new top of stack, matching the original's
// `push(r)` helper.
func Push(b *Builder, r Reg) {
	b.Emit(AddI(SP, SP, -1)).Comment(fmt.Sprintf("push %s", r))
	b.Emit(Sw(r, SP, 0))
}

// Pop emits the inverse of Push: load the top-of-stack word into r and
// increment SP.
func Pop(b *Builder, r Reg) {
	b.Emit(Lw(r, SP, 0)).Comment(fmt.Sprintf("pop %s", r))
	b.Emit(AddI(SP, SP, 1))
}
