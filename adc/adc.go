// Package adc defines the contract the entropy pipeline requires of the
// ADC hardware collaborator. The ADC itself — DMA setup, conversion
// timing, interrupt wiring — is out of scope for this driver; only the
// shape it must present to the pipeline is specified here, plus a
// deterministic in-memory implementation used by the pipeline's own
// tests and by scripted known-answer tests.
package adc

import "context"

// BufSize is the size, in 32-bit words, of the shared conversion buffer
// the pipeline and the ADC both address into.
const BufSize = 64

// Source is the ADC hardware collaborator. Implementations own a
// BufSize-word buffer addressed by StartConversion's offset/count and
// read back through Buf. The pipeline writes its own header words
// directly into the low indices of that same buffer between rounds, so
// Buf must return a stable, shared backing array rather than a copy.
type Source interface {
	// Init prepares the ADC for use. Called once, before Start.
	Init() error

	// Start enables the ADC. Called once, after Init.
	Start() error

	// StartConversion begins an asynchronous conversion of count
	// samples into Buf()[offset : offset+count]. Non-blocking.
	StartConversion(offset, count int)

	// WaitCompletion blocks until the most recently started conversion
	// finishes, or ctx is done. A non-nil error here collapses to the
	// same handling path as a mode change: the pipeline is
	// re-initialized from scratch.
	WaitCompletion(ctx context.Context) error

	// Stop disables the ADC. Called once, on shutdown.
	Stop()

	// Buf returns the shared conversion buffer. The same slice must be
	// returned on every call.
	Buf() []uint32
}
