// Package cpu implements the register machine and assembler for the duet system.
//
// Each Cpu is one instance of the duet: a program counter (Pc), twenty-six
// 64-bit signed registers (a-z), an unbounded inbox, and the terminated and
// blocked status flags. Two instances share a single read-only Program and
// talk to each other only through their inboxes: 'snd' appends to the
// partner's inbox, 'rcv' pops from the instance's own inbox, or blocks
// without advancing Pc when the inbox is empty.
//
// The assembler reads the line-oriented 'op arg [arg]' text form, with
// labels and equates, plus compile-time $(expr) evaluation.
package cpu
