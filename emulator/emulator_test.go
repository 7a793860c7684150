package emulator

import (
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ezrec/duet/cpu"
)

// load assembles program text into the emulator and resets it.
func load(emu *Emulator, program ...string) {
	asm := &cpu.Assembler{}
	for k, v := range emu.Defines() {
		asm.Predefine(k, v)
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	Expect(err).NotTo(HaveOccurred())

	emu.Program = prog
	Expect(emu.Reset()).To(Succeed())
}

var _ = Describe("Emulator", func() {
	var emu *Emulator

	BeforeEach(func() {
		emu = NewEmulator()
	})

	It("should create both instances", func() {
		Expect(emu.Verbose).To(BeFalse())
		Expect(emu.Cpu[0].Id).To(Equal(int64(0)))
		Expect(emu.Cpu[1].Id).To(Equal(int64(1)))
		Expect(emu.Cpu[0].Register.Get(cpu.PID_REGISTER)).To(Equal(int64(0)))
		Expect(emu.Cpu[1].Register.Get(cpu.PID_REGISTER)).To(Equal(int64(1)))
		Expect(emu.Program.Len()).To(Equal(0))
	})

	It("should halt immediately without a program", func() {
		Expect(emu.Running()).To(BeFalse())
		Expect(emu.Halt()).To(Equal(HALT_TERMINATED))

		Expect(emu.Run()).To(Succeed())
		Expect(emu.Cycles).To(Equal(0))
		Expect(emu.Steps).To(Equal(0))
		for _, cp := range emu.Cpu {
			Expect(cp.Ticks).To(BeZero())
			Expect(cp.Pc).To(Equal(int64(0)))
		}
	})

	It("should provide assembler defines", func() {
		defines := map[string]string{}
		for k, v := range emu.Defines() {
			defines[k] = v
		}
		Expect(defines).To(HaveKeyWithValue("INSTANCE_COUNT", "2"))
		Expect(defines).To(HaveKeyWithValue("PID_REGISTER", "p"))
		Expect(defines).To(HaveKeyWithValue("REGISTER_COUNT", "26"))
	})

	Context("with the empty program", func() {
		BeforeEach(func() {
			load(emu)
		})

		It("should terminate both instances immediately", func() {
			Expect(emu.Cpu[0].Terminated).To(BeTrue())
			Expect(emu.Cpu[1].Terminated).To(BeTrue())
			Expect(emu.Cpu[0].Pc).To(Equal(int64(0)))

			Expect(emu.Run()).To(Succeed())
			Expect(emu.Halt()).To(Equal(HALT_TERMINATED))
			Expect(emu.Cycles).To(Equal(0))
			Expect(emu.Steps).To(Equal(0))
			Expect(emu.Cpu[0].Sent).To(BeZero())
			Expect(emu.Cpu[1].Sent).To(BeZero())
		})
	})

	Context("when no instance sends before receiving", func() {
		BeforeEach(func() {
			load(emu,
				"rcv a",
				"snd a",
			)
		})

		It("should deadlock after one cycle", func() {
			Expect(emu.Halt()).To(Equal(HALT_RUNNING))

			done, err := emu.Tick()
			Expect(err).NotTo(HaveOccurred())
			Expect(done).To(BeTrue())
			Expect(emu.Cycles).To(Equal(1))
			Expect(emu.Halt()).To(Equal(HALT_DEADLOCK))

			for _, cp := range emu.Cpu {
				Expect(cp.Blocked).To(BeTrue())
				Expect(cp.Terminated).To(BeFalse())
				Expect(cp.Sent).To(BeZero())
				Expect(cp.Pc).To(Equal(int64(0)))
			}
		})

		It("should stay halted on further ticks", func() {
			Expect(emu.Run()).To(Succeed())

			done, err := emu.Tick()
			Expect(err).NotTo(HaveOccurred())
			Expect(done).To(BeTrue())
			Expect(emu.Cycles).To(Equal(1))
		})
	})

	Context("with the duet example program", func() {
		program := []string{
			"snd 1",
			"snd 2",
			"snd p",
			"rcv a",
			"rcv b",
			"rcv c",
			"rcv d",
		}

		BeforeEach(func() {
			load(emu, program...)
		})

		It("should deadlock with both instances having sent 3 values", func() {
			Expect(emu.Run()).To(Succeed())

			Expect(emu.Halt()).To(Equal(HALT_DEADLOCK))
			Expect(emu.Cycles).To(Equal(2))
			Expect(emu.Cpu[0].Sent).To(Equal(uint64(3)))
			Expect(emu.Cpu[1].Sent).To(Equal(uint64(3)))
			Expect(emu.Cpu[0].Received).To(Equal(uint64(3)))
			Expect(emu.Cpu[1].Received).To(Equal(uint64(3)))

			Expect(emu.Cpu[0].Register.String()).To(Equal("a=1 b=2 c=1"))
			Expect(emu.Cpu[1].Register.String()).To(Equal("a=1 b=2 p=1"))
			Expect(emu.Cpu[1].Register.Get('c')).To(BeZero())
			Expect(emu.Cpu[0].Pc).To(Equal(int64(6)))
			Expect(emu.Cpu[1].Pc).To(Equal(int64(6)))
		})

		It("should replay identically", func() {
			Expect(emu.Run()).To(Succeed())
			first := *emu.Cpu[0]
			second := *emu.Cpu[1]
			steps := emu.Steps

			// Reset the same emulator.
			Expect(emu.Reset()).To(Succeed())
			Expect(emu.Run()).To(Succeed())
			Expect(emu.Steps).To(Equal(steps))
			Expect(emu.Cpu[0].Register).To(Equal(first.Register))
			Expect(emu.Cpu[1].Register).To(Equal(second.Register))
			Expect(emu.Cpu[0].Sent).To(Equal(first.Sent))
			Expect(emu.Cpu[1].Sent).To(Equal(second.Sent))

			// A fresh emulator.
			other := NewEmulator()
			load(other, program...)
			Expect(other.Run()).To(Succeed())
			Expect(other.Steps).To(Equal(steps))
			Expect(other.Cpu[0].Register).To(Equal(first.Register))
			Expect(other.Cpu[1].Register).To(Equal(second.Register))
			Expect(other.Cpu[1].Sent).To(Equal(second.Sent))
		})
	})

	Context("with one instance echoing to a silent partner", func() {
		BeforeEach(func() {
			load(emu,
				"set a 1",
				"jgz p 2", // instance 1 skips the send
				"snd a",
				"rcv b",
				"jgz 1 -1",
			)
		})

		It("should deadlock once the receiver drains its inbox", func() {
			Expect(emu.Run()).To(Succeed())

			Expect(emu.Halt()).To(Equal(HALT_DEADLOCK))
			Expect(emu.Cycles).To(Equal(1))
			Expect(emu.Steps).To(Equal(9))

			a, b := emu.Cpu[0], emu.Cpu[1]
			Expect(a.Sent).To(Equal(uint64(1)))
			Expect(a.Received).To(BeZero())
			Expect(b.Sent).To(BeZero())
			Expect(b.Received).To(Equal(uint64(1)))
			Expect(b.Register.Get('b')).To(Equal(int64(1)))
			Expect(a.Pc).To(Equal(int64(3)))
			Expect(b.Pc).To(Equal(int64(3)))
			Expect(a.Inbox.Len()).To(BeZero())
			Expect(b.Inbox.Len()).To(BeZero())
		})
	})

	Context("with both instances echoing forever", func() {
		BeforeEach(func() {
			load(emu,
				"set a 1",
				"snd a",
				"rcv b",
				"jgz 1 -3",
			)
			emu.StepLimit = 1000
		})

		It("should abort at the step limit", func() {
			err := emu.Run()
			Expect(err).To(MatchError(ErrStepLimit))

			var rt *ErrRuntime
			Expect(errors.As(err, &rt)).To(BeTrue())
			Expect(rt.LineNo).To(BeNumerically(">", 0))
			Expect(emu.Steps).To(Equal(1000))
			Expect(emu.Halt()).To(Equal(HALT_RUNNING))
		})

		It("should send in lock step", func() {
			_, err := emu.Tick()
			Expect(err).NotTo(HaveOccurred())
			Expect(emu.Cpu[0].Sent).To(Equal(uint64(1)))
			Expect(emu.Cpu[1].Sent).To(Equal(uint64(2)))

			done, err := emu.Tick()
			Expect(err).NotTo(HaveOccurred())
			Expect(done).To(BeFalse())
			Expect(emu.Cpu[0].Sent).To(Equal(uint64(3)))
			Expect(emu.Cpu[1].Sent).To(Equal(uint64(4)))
		})
	})

	Context("with one instance pinging five values", func() {
		BeforeEach(func() {
			load(emu,
				"      jgz p @recv",
				"      snd 1",
				"      snd 2",
				"      snd 3",
				"      snd 4",
				"      snd 5",
				"      jgz 1 @end",
				"recv: rcv a",
				"      add s a",
				"      jgz 1 @recv",
				"end:",
			)
		})

		It("should terminate the sender and block the receiver", func() {
			Expect(emu.Run()).To(Succeed())

			Expect(emu.Halt()).To(Equal(HALT_STALLED))
			Expect(emu.Cycles).To(Equal(1))

			a, b := emu.Cpu[0], emu.Cpu[1]
			Expect(a.Terminated).To(BeTrue())
			Expect(a.Pc).To(Equal(int64(emu.Program.Len())))
			Expect(a.Sent).To(Equal(uint64(5)))
			Expect(b.Blocked).To(BeTrue())
			Expect(b.Received).To(Equal(uint64(5)))
			Expect(b.Sent).To(BeZero())
			Expect(b.Register.Get('s')).To(Equal(int64(15)))
			Expect(b.Register.Get('a')).To(Equal(int64(5)))
		})
	})

	Context("when the program jumps out backwards", func() {
		BeforeEach(func() {
			load(emu,
				"add a 1",
				"jgz a -2",
			)
		})

		It("should terminate both instances", func() {
			Expect(emu.Run()).To(Succeed())
			Expect(emu.Halt()).To(Equal(HALT_TERMINATED))
			for _, cp := range emu.Cpu {
				Expect(cp.Pc).To(Equal(int64(-1)))
				Expect(cp.Terminated).To(BeTrue())
				Expect(cp.Blocked).To(BeFalse())
			}
		})
	})

	Context("when an instruction fails", func() {
		BeforeEach(func() {
			load(emu,
				"set a 1",
				"mod a b",
			)
		})

		It("should report the failing instance and line", func() {
			err := emu.Run()
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, cpu.ErrModuloZero)).To(BeTrue())

			var rt *ErrRuntime
			Expect(errors.As(err, &rt)).To(BeTrue())
			Expect(rt.Instance).To(Equal(0))
			Expect(rt.Pc).To(Equal(int64(1)))
			Expect(rt.LineNo).To(Equal(2))
			Expect(rt.Error()).To(ContainSubstring("line 2"))
		})
	})

	Describe("HaltReason", func() {
		It("should name each reason", func() {
			Expect(HALT_RUNNING.String()).To(Equal("running"))
			Expect(HALT_TERMINATED.String()).To(Equal("terminated"))
			Expect(HALT_DEADLOCK.String()).To(Equal("deadlock"))
			Expect(HALT_STALLED.String()).To(Equal("stalled"))
			Expect(HaltReason(7).String()).To(Equal("HaltReason(7)"))
		})
	})
})
