package adc

import "context"

// Fake is a deterministic, in-process Source for tests and for
// known-answer scenarios. Each StartConversion call pulls the next
// count samples from Script, or zero-fills the remainder once Script
// is exhausted, matching an "ADC returns zeros" test setup.
type Fake struct {
	buf    [BufSize]uint32
	Script []uint32 // samples to hand out, in order, across all conversions
	pos    int

	// Err, if set, is returned by the next WaitCompletion call and then
	// cleared — used to simulate a transient ADC failure.
	Err error
}

func (f *Fake) Init() error  { return nil }
func (f *Fake) Start() error { return nil }
func (f *Fake) Stop()        {}

func (f *Fake) StartConversion(offset, count int) {
	for i := 0; i < count; i++ {
		var v uint32
		if f.pos < len(f.Script) {
			v = f.Script[f.pos]
			f.pos++
		}
		f.buf[offset+i] = v
	}
}

func (f *Fake) WaitCompletion(_ context.Context) error {
	err := f.Err
	f.Err = nil
	return err
}

func (f *Fake) Buf() []uint32 {
	return f.buf[:]
}
