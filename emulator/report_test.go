package emulator

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ezrec/duet/io"
)

var _ = Describe("Report", func() {
	var emu *Emulator

	BeforeEach(func() {
		emu = NewEmulator()
		load(emu,
			"      jgz p @recv",
			"      snd 7",
			"      snd 8",
			"      snd p",
			"      jgz 1 @end",
			"recv: rcv a",
			"end:",
		)
		Expect(emu.Run()).To(Succeed())
	})

	It("should snapshot the final state", func() {
		report := emu.Report()
		Expect(report).To(BeAssignableToTypeOf(&RunReport{}))

		Expect(report.Halt).To(Equal("terminated"))
		Expect(report.Cycles).To(Equal(emu.Cycles))
		Expect(report.Steps).To(Equal(emu.Steps))
		Expect(report.Instances).To(HaveLen(INSTANCE_COUNT))

		a, b := report.Instances[0], report.Instances[1]
		Expect(a.Id).To(Equal(int64(0)))
		Expect(a.State).To(Equal("terminated"))
		Expect(a.Sent).To(Equal(uint64(3)))
		Expect(b.Received).To(Equal(uint64(1)))
		Expect(b.Registers).To(HaveKeyWithValue("a", int64(7)))
		Expect(b.Registers).To(HaveKeyWithValue("p", int64(1)))
		Expect(b.Registers).To(HaveLen(26))
		Expect(b.Pending).To(Equal([]int64{8, 0}))
		Expect(a.Pending).To(BeEmpty())
	})

	It("should see pending values through a tap", func() {
		emu.Cpu[1].Inbox = io.NewTap(&io.Queue{}, "0->1", nil)
		Expect(emu.Reset()).To(Succeed())
		Expect(emu.Run()).To(Succeed())

		report := emu.Report()
		Expect(report.Instances[1].Pending).To(Equal([]int64{8, 0}))
	})

	It("should encode to CBOR and back", func() {
		report := emu.Report()

		data, err := MarshalReport(report)
		Expect(err).NotTo(HaveOccurred())

		again, err := MarshalReport(report)
		Expect(err).NotTo(HaveOccurred())
		Expect(again).To(Equal(data))

		decoded, err := UnmarshalReport(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(decoded).To(Equal(report))
	})

	It("should reject malformed CBOR", func() {
		_, err := UnmarshalReport([]byte{0xff, 0x00})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unmarshal report"))
	})
})
