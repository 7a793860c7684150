package cpu

import (
	"strconv"
)

// ValueKind selects the active member of a Value.
type ValueKind int

const (
	VALUE_LITERAL  = ValueKind(0) // Literal integer.
	VALUE_REGISTER = ValueKind(1) // Register reference.
)

// Value is an instruction operand: either a literal or a register reference.
type Value struct {
	Kind     ValueKind
	Register RegisterId
	Literal  int64
}

// Literal makes a literal operand.
func Literal(n int64) Value {
	return Value{Kind: VALUE_LITERAL, Literal: n}
}

// Register makes a register operand.
func Register(id RegisterId) Value {
	return Value{Kind: VALUE_REGISTER, Register: id}
}

// Resolve returns the value of the operand against a register file.
// Never fails: unwritten and unknown registers are 0.
func (v Value) Resolve(rf *RegisterFile) int64 {
	if v.Kind == VALUE_REGISTER {
		return rf.Get(v.Register)
	}

	return v.Literal
}

// String returns the operand in assembler syntax.
func (v Value) String() string {
	if v.Kind == VALUE_REGISTER {
		return v.Register.String()
	}

	return strconv.FormatInt(v.Literal, 10)
}
