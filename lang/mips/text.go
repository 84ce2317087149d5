package mips

import (
	"fmt"
	"strings"
)

// String renders p as human-readable pseudo-assembly, one instruction
// per line, in the same spirit as the teacher's own lang/compiler/
// asm.go textual form — but one-way only (the listing the build command
// prints, or writes to --output-file), since nothing in this module needs to
// parse externally-authored assembly back in the way the teacher's Asm
// parser supports hand-written test fixtures.
func (p *Program) String() string {
	var b strings.Builder
	for _, in := range p.Instrs {
		b.WriteString(in.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func (in Instr) String() string {
	var line string
	switch in.Op {
	case OpLabel:
		line = in.Label + ":"
	case OpNop:
		line = "nop"
	case OpAddI:
		line = fmt.Sprintf("addi  %s, %s, %d", in.Rd, in.Rs, in.Imm)
	case OpAdd:
		line = fmt.Sprintf("add   %s, %s, %s", in.Rd, in.Rs, in.Rt)
	case OpSub:
		line = fmt.Sprintf("sub   %s, %s, %s", in.Rd, in.Rs, in.Rt)
	case OpSlt:
		line = fmt.Sprintf("slt   %s, %s, %s", in.Rd, in.Rs, in.Rt)
	case OpXor:
		line = fmt.Sprintf("xor   %s, %s, %s", in.Rd, in.Rs, in.Rt)
	case OpXorI:
		line = fmt.Sprintf("xori  %s, %s, %d", in.Rd, in.Rs, in.Imm)
	case OpAnd:
		line = fmt.Sprintf("and   %s, %s, %s", in.Rd, in.Rs, in.Rt)
	case OpOr:
		line = fmt.Sprintf("or    %s, %s, %s", in.Rd, in.Rs, in.Rt)
	case OpLi:
		line = fmt.Sprintf("li    %s, %d", in.Rd, in.Imm)
	case OpLstr:
		line = fmt.Sprintf("lstr  %s, #%d", in.Rd, in.Imm)
	case OpLw:
		line = fmt.Sprintf("lw    %s, %d(%s)", in.Rd, in.Imm, in.Rs)
	case OpSw:
		line = fmt.Sprintf("sw    %s, %d(%s)", in.Rd, in.Imm, in.Rs)
	case OpBeq:
		line = fmt.Sprintf("beq   %s, %s, %s", in.Rs, in.Rt, in.Label)
	case OpBne:
		line = fmt.Sprintf("bne   %s, %s, %s", in.Rs, in.Rt, in.Label)
	case OpJ:
		line = fmt.Sprintf("j     %s", in.Label)
	case OpJal:
		line = fmt.Sprintf("jal   %s", in.Label)
	case OpJr:
		line = fmt.Sprintf("jr    %s", in.Rs)
	case OpHalt:
		line = "halt"
	default:
		line = "???"
	}
	if in.Op != OpLabel {
		line = "\t" + line
	}
	if in.Comment != "" {
		line += "  # " + in.Comment
	}
	return line
}
