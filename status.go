package a1335

// ProcessorState is the coarse device lifecycle stage derived from the
// processing status and phase nibbles of the status register.
type ProcessorState byte

const (
	StateBooting ProcessorState = iota
	StateIdle
	StateProcessing
	StateSelfTest
	// StateNotFound is the sentinel a driver instance starts with and
	// falls back to when the device does not answer its probe.
	StateNotFound
)

func (s ProcessorState) String() string {
	switch s {
	case StateBooting:
		return "booting"
	case StateIdle:
		return "idle"
	case StateProcessing:
		return "processing"
	case StateSelfTest:
		return "self-test"
	case StateNotFound:
		return "not found"
	}
	return "unknown"
}

// MarshalYAML encodes the state as its name rather than a bare number.
func (s ProcessorState) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// Status is the decoded STA register.
type Status struct {
	PowerOnReset bool           `yaml:"power_on_reset"`
	SoftReset    bool           `yaml:"soft_reset"`
	NewAngle     bool           `yaml:"new_angle"`
	Error        bool           `yaml:"error"`
	Processing   byte           `yaml:"processing_status"`
	Phase        byte           `yaml:"phase"`
	State        ProcessorState `yaml:"state"`
}

func decodeStatus(raw uint16, prev ProcessorState) Status {
	st := Status{
		PowerOnReset: raw&staPORFlag != 0,
		SoftReset:    raw&staSRFlag != 0,
		NewAngle:     raw&staNewFlag != 0,
		Error:        raw&staErrorFlag != 0,
		Processing:   byte(raw&staStatusMask) >> 4,
		Phase:        byte(raw & staPhaseMask),
	}
	st.State = deriveState(st.Processing, st.Phase, prev)
	return st
}

// deriveState maps the processing status and phase nibbles to a processor
// state. Nibble values with no defined mapping keep the previous state.
func deriveState(processing, phase byte, prev ProcessorState) ProcessorState {
	switch processing {
	case 0b0000:
		return StateBooting
	case 0b0001:
		if phase == 0 {
			return StateIdle
		}
		return StateProcessing
	case 0b1110:
		return StateSelfTest
	}
	return prev
}
