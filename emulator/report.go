package emulator

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses canonical mode for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("emulator: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// InstanceReport is the final state of one instance.
type InstanceReport struct {
	Id         int64            `cbor:"id"`
	Pc         int64            `cbor:"pc"`
	State      string           `cbor:"state"`
	Terminated bool             `cbor:"terminated"`
	Blocked    bool             `cbor:"blocked"`
	Sent       uint64           `cbor:"sent"`
	Received   uint64           `cbor:"received"`
	Ticks      int              `cbor:"ticks"`
	Pending    []int64          `cbor:"pending,omitempty"`
	Registers  map[string]int64 `cbor:"registers"`
}

// RunReport is a snapshot of a duet, normally taken after it halts.
type RunReport struct {
	Halt      string           `cbor:"halt"`
	Cycles    int              `cbor:"cycles"`
	Steps     int              `cbor:"steps"`
	Instances []InstanceReport `cbor:"instances"`
}

// pendingValues lists the unread inbox values, when the inbox can show them.
type pendingValues interface {
	Values() []int64
}

// Report takes a snapshot of the emulator state.
func (emu *Emulator) Report() (report *RunReport) {
	report = &RunReport{
		Halt:   emu.Halt().String(),
		Cycles: emu.Cycles,
		Steps:  emu.Steps,
	}

	for _, cp := range emu.Cpu {
		ir := InstanceReport{
			Id:         cp.Id,
			Pc:         cp.Pc,
			State:      cp.State(),
			Terminated: cp.Terminated,
			Blocked:    cp.Blocked,
			Sent:       cp.Sent,
			Received:   cp.Received,
			Ticks:      cp.Ticks,
			Registers:  map[string]int64{},
		}
		for id, value := range cp.Register.All() {
			ir.Registers[id.String()] = value
		}
		if pv, ok := cp.Inbox.(pendingValues); ok {
			ir.Pending = pv.Values()
		}
		report.Instances = append(report.Instances, ir)
	}

	return
}

// MarshalReport serializes a RunReport to CBOR bytes.
func MarshalReport(r *RunReport) ([]byte, error) {
	return cborEncMode.Marshal(r)
}

// UnmarshalReport deserializes a RunReport from CBOR bytes.
func UnmarshalReport(data []byte) (*RunReport, error) {
	var r RunReport
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("emulator: unmarshal report: %w", err)
	}
	return &r, nil
}
