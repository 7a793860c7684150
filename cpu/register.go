package cpu

import (
	"fmt"
	"iter"
)

// RegisterId names a register.
type RegisterId byte

const (
	REGISTER_FIRST = RegisterId('a') // First addressable register.
	REGISTER_LAST  = RegisterId('z') // Last addressable register.
	REGISTER_COUNT = int(REGISTER_LAST-REGISTER_FIRST) + 1

	PID_REGISTER = RegisterId('p') // Seeded with the instance id.
)

// Valid returns true if the register has storage in a RegisterFile.
func (id RegisterId) Valid() bool {
	return id >= REGISTER_FIRST && id <= REGISTER_LAST
}

// String returns the register name.
func (id RegisterId) String() string {
	return string(rune(id))
}

// RegisterFile is the private register bank of an instance.
// The zero value has every register cleared.
type RegisterFile [REGISTER_COUNT]int64

// Get returns the value of a register. Registers without storage read as 0.
func (rf *RegisterFile) Get(id RegisterId) int64 {
	if !id.Valid() {
		return 0
	}

	return rf[id-REGISTER_FIRST]
}

// Set writes a register. Writes to registers without storage are dropped.
func (rf *RegisterFile) Set(id RegisterId, value int64) {
	if !id.Valid() {
		return
	}

	rf[id-REGISTER_FIRST] = value
}

// Reset clears all registers.
func (rf *RegisterFile) Reset() {
	clear(rf[:])
}

// All iterates the registers in a-z order.
func (rf *RegisterFile) All() iter.Seq2[RegisterId, int64] {
	return func(yield func(id RegisterId, value int64) bool) {
		for n, value := range rf {
			if !yield(REGISTER_FIRST+RegisterId(n), value) {
				return
			}
		}
	}
}

// String returns the non-zero registers, as 'a=1 p=1'.
func (rf *RegisterFile) String() (text string) {
	for id, value := range rf.All() {
		if value == 0 {
			continue
		}
		if len(text) != 0 {
			text += " "
		}
		text += fmt.Sprintf("%v=%d", id, value)
	}

	return
}
