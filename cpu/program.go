package cpu

import (
	"iter"
)

// Program is the read-only instruction sequence shared by both instances.
type Program struct {
	Opcodes []Opcode
}

// NewProgram builds a program directly from instructions.
func NewProgram(ins ...Instruction) (prog *Program) {
	prog = &Program{
		Opcodes: make([]Opcode, 0, len(ins)),
	}
	for _, in := range ins {
		prog.Opcodes = append(prog.Opcodes, Opcode{Instruction: in})
	}

	return
}

// Len returns the number of instructions.
func (prog *Program) Len() int {
	if prog == nil {
		return 0
	}

	return len(prog.Opcodes)
}

// Contains returns true if pc addresses an instruction.
func (prog *Program) Contains(pc int64) bool {
	return pc >= 0 && pc < int64(prog.Len())
}

// Fetch returns the instruction at pc, or false if pc is outside the program.
func (prog *Program) Fetch(pc int64) (ins Instruction, ok bool) {
	if !prog.Contains(pc) {
		return
	}

	return prog.Opcodes[pc].Instruction, true
}

// LineNo returns the source line of the instruction at pc, or 0.
func (prog *Program) LineNo(pc int64) int {
	if !prog.Contains(pc) {
		return 0
	}

	return prog.Opcodes[pc].LineNo
}

// Instructions iterates the program in order.
func (prog *Program) Instructions() iter.Seq2[int, Instruction] {
	return func(yield func(pc int, ins Instruction) bool) {
		for pc := range prog.Len() {
			if !yield(pc, prog.Opcodes[pc].Instruction) {
				return
			}
		}
	}
}
