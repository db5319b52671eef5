package hwadc

import (
	"context"
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/go-neug/neug/adc"
)

// statusLEDPulse is how long FlashStatusLED holds the line high — long
// enough to be visible, short enough not to stall the producer loop
// calling it.
const statusLEDPulse = 100 * time.Millisecond

// GPIOADC reads the debounce jitter of a floating or undriven GPIO
// input line as the noise source — a cheaper stand-in for a real ADC
// on boards without one wired to anything useful. It can optionally
// drive a status LED line on mode-condition events, generalizing the
// teacher's PTT-over-GPIO keying of a transmitter into "signal an
// event over a GPIO line".
type GPIOADC struct {
	chip   string
	offset int

	line *gpiocdev.Line
	led  *gpiocdev.Line
	buf  [adc.BufSize]uint32
}

// NewGPIOADC returns a GPIOADC reading offset on chip.
func NewGPIOADC(chip string, offset int) *GPIOADC {
	return &GPIOADC{chip: chip, offset: offset}
}

func (g *GPIOADC) Init() error {
	line, err := gpiocdev.RequestLine(g.chip, g.offset, gpiocdev.AsInput)
	if err != nil {
		return fmt.Errorf("hwadc: request gpio line %s:%d: %w", g.chip, g.offset, err)
	}
	g.line = line
	return nil
}

func (g *GPIOADC) Start() error { return nil }

func (g *GPIOADC) StartConversion(offset, count int) {
	for i := 0; i < count; i++ {
		v, err := g.line.Value()
		if err != nil {
			v = 0
		}
		g.buf[offset+i] = uint32(v)
	}
}

func (g *GPIOADC) WaitCompletion(_ context.Context) error { return nil }

func (g *GPIOADC) Stop() {
	if g.led != nil {
		g.led.Close()
		g.led = nil
	}
	if g.line != nil {
		g.line.Close()
		g.line = nil
	}
}

func (g *GPIOADC) Buf() []uint32 { return g.buf[:] }

// SetStatusLED requests an output line to flash on MODE_CONDITION
// events. Optional; StartConversion works without ever calling it.
func (g *GPIOADC) SetStatusLED(chip string, offset int) error {
	led, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0))
	if err != nil {
		return fmt.Errorf("hwadc: request status led line %s:%d: %w", chip, offset, err)
	}
	g.led = led
	return nil
}

// FlashStatusLED pulses the status LED, if one was configured, holding
// it high for statusLEDPulse so the pulse is actually visible. Safe to
// call from the producer's mode-change branch; it blocks the caller
// for the pulse duration, so it is only meant for the infrequent
// MODE_CONDITION event, not the per-round hot path.
func (g *GPIOADC) FlashStatusLED() {
	if g.led == nil {
		return
	}
	_ = g.led.SetValue(1)
	time.Sleep(statusLEDPulse)
	_ = g.led.SetValue(0)
}
