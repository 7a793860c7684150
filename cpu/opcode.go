package cpu

import (
	"fmt"
)

//go:generate go tool stringer -linecomment -type=Op

// Op is an instruction operation.
type Op int

const (
	OP_SND = Op(0) // snd
	OP_RCV = Op(1) // rcv
	OP_SET = Op(2) // set
	OP_ADD = Op(3) // add
	OP_MUL = Op(4) // mul
	OP_MOD = Op(5) // mod
	OP_JGZ = Op(6) // jgz
)

// Instruction is a single decoded instruction.
//
// Operand usage by Op:
//
//	snd A
//	rcv Register
//	set/add/mul/mod Register, A
//	jgz A, B
type Instruction struct {
	Op       Op
	Register RegisterId
	A        Value
	B        Value
}

// Snd sends a value to the partner's inbox.
func Snd(v Value) Instruction {
	return Instruction{Op: OP_SND, A: v}
}

// Rcv receives a value from the inbox into a register, or blocks.
func Rcv(reg RegisterId) Instruction {
	return Instruction{Op: OP_RCV, Register: reg}
}

// Set sets a register.
func Set(reg RegisterId, v Value) Instruction {
	return Instruction{Op: OP_SET, Register: reg, A: v}
}

// Add adds to a register.
func Add(reg RegisterId, v Value) Instruction {
	return Instruction{Op: OP_ADD, Register: reg, A: v}
}

// Mul multiplies a register.
func Mul(reg RegisterId, v Value) Instruction {
	return Instruction{Op: OP_MUL, Register: reg, A: v}
}

// Mod replaces a register with its truncated remainder.
func Mod(reg RegisterId, v Value) Instruction {
	return Instruction{Op: OP_MOD, Register: reg, A: v}
}

// Jgz jumps by offset if test is greater than zero.
func Jgz(test Value, offset Value) Instruction {
	return Instruction{Op: OP_JGZ, A: test, B: offset}
}

// String returns the instruction in assembler syntax.
func (ins Instruction) String() string {
	switch ins.Op {
	case OP_SND:
		return fmt.Sprintf("%v %v", ins.Op, ins.A)
	case OP_RCV:
		return fmt.Sprintf("%v %v", ins.Op, ins.Register)
	case OP_SET, OP_ADD, OP_MUL, OP_MOD:
		return fmt.Sprintf("%v %v %v", ins.Op, ins.Register, ins.A)
	case OP_JGZ:
		return fmt.Sprintf("%v %v %v", ins.Op, ins.A, ins.B)
	}

	return ins.Op.String()
}

// Opcode is a single assembled line of a program.
type Opcode struct {
	LineNo      int         // Source line number, 0 if built in code.
	Words       []string    // Source words after expansion.
	Instruction Instruction // Decoded instruction.
	Link        [2]string   // Labels to link into operands A and B.
}
