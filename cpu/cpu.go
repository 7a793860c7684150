package cpu

import (
	"errors"
	"fmt"
	"iter"
	"maps"

	"github.com/tliron/commonlog"

	"github.com/ezrec/duet/io"
)

var log = commonlog.GetLogger("duet.cpu")

// Channel is an inbox channel interface.
type Channel io.Channel

var _cpu_defines = map[string]string{
	"PID_REGISTER":   PID_REGISTER.String(),
	"REGISTER_COUNT": fmt.Sprintf("%v", REGISTER_COUNT),
}

// Cpu is the state of one duet instance.
//
// At most one of Terminated and Blocked is set. An instance runs while
// neither is set.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Id       int64        // Instance id, seeded into PID_REGISTER.
	Pc       int64        // Program counter.
	Register RegisterFile // Register bank.
	Inbox    Channel      // Values sent by the partner instance.

	Terminated bool // Pc left the program. Absorbing.
	Blocked    bool // Waiting in 'rcv' on an empty inbox.

	Sent     uint64 // Values sent to the partner.
	Received uint64 // Values taken from the inbox.
	Ticks    int    // Instructions executed, including blocked 'rcv' attempts.
}

// NewCpu creates an instance with an empty inbox.
func NewCpu(id int64) (cpu *Cpu) {
	cpu = &Cpu{
		Id:    id,
		Inbox: &io.Queue{},
	}
	cpu.Register.Set(PID_REGISTER, id)

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset the instance to its construction state.
// - Clears the registers, then seeds PID_REGISTER.
// - Rewinds the inbox.
// - Zeros the program counter, status flags and counters.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Debugf("cpu %d: reset", cpu.Id)
	}

	cpu.Register.Reset()
	cpu.Register.Set(PID_REGISTER, cpu.Id)

	if cpu.Inbox == nil {
		cpu.Inbox = &io.Queue{}
	}
	cpu.Inbox.Rewind()

	cpu.Pc = 0
	cpu.Terminated = false
	cpu.Blocked = false
	cpu.Sent = 0
	cpu.Received = 0
	cpu.Ticks = 0
}

// Running returns true if the instance is neither terminated nor blocked.
func (cpu *Cpu) Running() bool {
	return !cpu.Terminated && !cpu.Blocked
}

// State returns a one-word description of the instance status.
func (cpu *Cpu) State() string {
	switch {
	case cpu.Terminated:
		return "terminated"
	case cpu.Blocked:
		return "blocked"
	}

	return "running"
}

// String returns the current instance state as a string.
func (cpu *Cpu) String() (text string) {
	pending := 0
	if cpu.Inbox != nil {
		pending = cpu.Inbox.Len()
	}

	text += fmt.Sprintf("%8s: %d\n", "id", cpu.Id)
	text += fmt.Sprintf("%8s: %d\n", "pc", cpu.Pc)
	text += fmt.Sprintf("%8s: %v\n", "state", cpu.State())
	text += fmt.Sprintf("%8s: %d\n", "sent", cpu.Sent)
	text += fmt.Sprintf("%8s: %d\n", "received", cpu.Received)
	text += fmt.Sprintf("%8s: %d\n", "pending", pending)
	text += fmt.Sprintf("%8s: %v\n", "regs", cpu.Register.String())

	return
}

// Bounds marks the instance terminated if pc is outside the program.
func (cpu *Cpu) Bounds(prog *Program) {
	if !prog.Contains(cpu.Pc) {
		if cpu.Verbose && !cpu.Terminated {
			log.Debugf("cpu %d: terminated at pc %d", cpu.Id, cpu.Pc)
		}
		cpu.Terminated = true
		cpu.Blocked = false
	}
}

// Step fetches and executes the instruction at Pc, then re-checks that Pc
// is still inside the program.
func (cpu *Cpu) Step(prog *Program, partner *Cpu) (err error) {
	if !cpu.Running() {
		return
	}

	ins, ok := prog.Fetch(cpu.Pc)
	if !ok {
		cpu.Bounds(prog)
		return
	}

	err = cpu.Execute(partner, ins)
	if err != nil {
		return
	}

	cpu.Bounds(prog)

	return
}

// Execute executes a single decoded instruction.
//
// 'mod' uses Go's truncating remainder: the result has the sign of the
// dividend. Arithmetic wraps on overflow.
func (cpu *Cpu) Execute(partner *Cpu, ins Instruction) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(ins), err)
		}
	}()
	if cpu.Verbose {
		log.Debugf("cpu %d: %03d: %v", cpu.Id, cpu.Pc, ins)
	}

	next_pc := cpu.Pc + 1

	switch ins.Op {
	case OP_SET, OP_ADD, OP_MUL, OP_MOD:
		val := ins.A.Resolve(&cpu.Register)
		input := cpu.Register.Get(ins.Register)
		var output int64
		output, err = doAlu(ins.Op, input, val)
		if err != nil {
			return
		}
		cpu.Register.Set(ins.Register, output)
	case OP_SND:
		val := ins.A.Resolve(&cpu.Register)
		partner.Inbox.Send(val)
		partner.Blocked = false
		cpu.Sent++
	case OP_RCV:
		val, ok := cpu.Inbox.Receive()
		if !ok {
			// Don't advance to next pc.
			cpu.Blocked = true
			next_pc = cpu.Pc
			if cpu.Verbose {
				log.Debugf("cpu %d: blocked at pc %d", cpu.Id, cpu.Pc)
			}
		} else {
			cpu.Register.Set(ins.Register, val)
			cpu.Blocked = false
			cpu.Received++
		}
	case OP_JGZ:
		if ins.A.Resolve(&cpu.Register) > 0 {
			next_pc = cpu.Pc + ins.B.Resolve(&cpu.Register)
		}
	default:
		err = ErrOpcodeInvalid
		return
	}

	cpu.Pc = next_pc
	cpu.Ticks++

	return
}

// doAlu performs the requested register operation, and returns the output value.
func doAlu(op Op, input int64, value int64) (output int64, err error) {
	switch op {
	case OP_SET:
		output = value
	case OP_ADD:
		output = input + value
	case OP_MUL:
		output = input * value
	case OP_MOD:
		if value == 0 {
			err = errors.Join(ErrOpcodeArg2, ErrModuloZero)
			return
		}
		output = input % value
	}

	return
}
