package entropy

// Mode selects which round progression the pipeline runs.
type Mode int

const (
	// Conditioned runs the full R0->R1->R2 cycle and emits SHA-256
	// conditioned output. This is the default, full-entropy mode.
	Conditioned Mode = iota

	// Raw collects 32 bytes per cycle, whitens them through the CRC-32
	// register, runs the health tests, and emits the 8 whitened words
	// directly, bypassing the conditioner.
	Raw

	// RawData collects 32 bytes per cycle and emits them verbatim as 8
	// words — no whitening, no health tests. Diagnostics only.
	RawData
)

func (m Mode) String() string {
	switch m {
	case Conditioned:
		return "CONDITIONED"
	case Raw:
		return "RAW"
	case RawData:
		return "RAW_DATA"
	default:
		return "UNKNOWN"
	}
}
