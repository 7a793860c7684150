// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator schedules the two instances of a duet.
//
// Both instances share one Program. The scheduler is cooperative and
// single threaded: each cycle runs instance 0 until it terminates or
// blocks, then instance 1 likewise, and stops once neither is running.
// Instance 0 always goes first, so a run is fully deterministic.
package emulator

import (
	"fmt"
	"iter"
	"maps"

	"github.com/tliron/commonlog"

	"github.com/ezrec/duet/cpu"
	"github.com/ezrec/duet/internal"
)

var log = commonlog.GetLogger("duet.emulator")

const (
	INSTANCE_COUNT = 2 // Instances in a duet.
)

var _emulator_defines = map[string]string{
	"INSTANCE_COUNT": fmt.Sprintf("%v", INSTANCE_COUNT),
}

// HaltReason classifies the state of a duet.
type HaltReason int

const (
	HALT_RUNNING    = HaltReason(0) // At least one instance can run.
	HALT_TERMINATED = HaltReason(1) // Both instances left the program.
	HALT_DEADLOCK   = HaltReason(2) // Both instances blocked in 'rcv'.
	HALT_STALLED    = HaltReason(3) // One terminated, the other blocked.
)

var _halt_names = [...]string{
	HALT_RUNNING:    "running",
	HALT_TERMINATED: "terminated",
	HALT_DEADLOCK:   "deadlock",
	HALT_STALLED:    "stalled",
}

func (hr HaltReason) String() string {
	if hr < 0 || int(hr) >= len(_halt_names) {
		return fmt.Sprintf("HaltReason(%d)", int(hr))
	}

	return _halt_names[hr]
}

// Emulator state. Program + both instances.
type Emulator struct {
	Verbose bool                     // If set, enables verbose logging.
	Program *cpu.Program             // Reference to the shared program.
	Cpu     [INSTANCE_COUNT]*cpu.Cpu // The instances, by id.

	StepLimit int // Maximum instructions per run, 0 for no limit.
	Steps     int // Instructions executed since reset.
	Cycles    int // Scheduler cycles since reset.
}

// NewEmulator creates a new emulator with an empty program. Both
// instances start terminated until a program is loaded and Reset.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Program: &cpu.Program{},
	}

	for id := range emu.Cpu {
		emu.Cpu[id] = cpu.NewCpu(int64(id))
		emu.Cpu[id].Bounds(emu.Program)
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu[0].Defines(),
	)
}

// Reset both instances to their initial state.
//
// An instance whose pc is already outside the program (the empty
// program) is terminated immediately.
func (emu *Emulator) Reset() (err error) {
	emu.Steps = 0
	emu.Cycles = 0

	for _, cp := range emu.Cpu {
		cp.Verbose = emu.Verbose
		cp.Reset()
		cp.Bounds(emu.Program)
	}

	if emu.Verbose {
		log.Debugf("reset: %d instructions", emu.Program.Len())
	}

	return
}

// Running returns true if any instance can run.
func (emu *Emulator) Running() bool {
	for _, cp := range emu.Cpu {
		if cp.Running() {
			return true
		}
	}

	return false
}

// Halt returns why the duet stopped, or HALT_RUNNING if it has not.
func (emu *Emulator) Halt() HaltReason {
	var terminated, blocked int
	for _, cp := range emu.Cpu {
		switch {
		case cp.Terminated:
			terminated++
		case cp.Blocked:
			blocked++
		}
	}

	switch {
	case terminated+blocked != len(emu.Cpu):
		return HALT_RUNNING
	case terminated == len(emu.Cpu):
		return HALT_TERMINATED
	case blocked == len(emu.Cpu):
		return HALT_DEADLOCK
	}

	return HALT_STALLED
}

// runInstance runs one instance until it terminates or blocks.
func (emu *Emulator) runInstance(id int) (err error) {
	self := emu.Cpu[id]
	partner := emu.Cpu[(id+1)%len(emu.Cpu)]

	for self.Running() {
		if emu.StepLimit > 0 && emu.Steps >= emu.StepLimit {
			err = &ErrRuntime{
				Instance: id,
				Pc:       self.Pc,
				LineNo:   emu.Program.LineNo(self.Pc),
				Err:      ErrStepLimit,
			}
			return
		}

		pc := self.Pc
		err = self.Step(emu.Program, partner)
		if err != nil {
			err = &ErrRuntime{
				Instance: id,
				Pc:       pc,
				LineNo:   emu.Program.LineNo(pc),
				Err:      err,
			}
			return
		}
		emu.Steps++
	}

	if emu.Verbose {
		log.Debugf("cpu %d: %v at pc %d", id, self.State(), self.Pc)
	}

	return
}

// Tick performs a single scheduler cycle: every instance, in id order,
// runs until it terminates or blocks.
func (emu *Emulator) Tick() (done bool, err error) {
	if !emu.Running() {
		done = true
		return
	}

	emu.Cycles++

	for id := range emu.Cpu {
		err = emu.runInstance(id)
		if err != nil {
			return
		}
	}

	// A send from a later instance may have woken an earlier one.
	done = !emu.Running()

	if done && emu.Verbose {
		log.Debugf("halt: %v after %d cycles, %d steps", emu.Halt(), emu.Cycles, emu.Steps)
	}

	return
}

// Run ticks the emulator until both instances have stopped.
func (emu *Emulator) Run() (err error) {
	var done bool
	for !done {
		done, err = emu.Tick()
		if err != nil {
			return
		}
	}

	return
}
