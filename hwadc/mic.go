package hwadc

import (
	"context"
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/go-neug/neug/adc"
)

// MicADC samples the low bits of a microphone input stream as the
// noise source, standing in on a host machine for the STM32 ADC the
// core pipeline was designed against — the same "capture a noisy
// physical channel" role portaudio plays for an audio modem.
type MicADC struct {
	sampleRate float64
	stream     *portaudio.Stream
	in         []int32
	buf        [adc.BufSize]uint32
}

// NewMicADC returns a MicADC sampling the default input device at
// sampleRate Hz.
func NewMicADC(sampleRate float64) *MicADC {
	return &MicADC{sampleRate: sampleRate}
}

func (m *MicADC) Init() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("hwadc: portaudio init: %w", err)
	}
	return nil
}

func (m *MicADC) Start() error {
	m.in = make([]int32, 1)
	stream, err := portaudio.OpenDefaultStream(1, 0, m.sampleRate, len(m.in), m.in)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("hwadc: open default input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("hwadc: start input stream: %w", err)
	}
	m.stream = stream
	return nil
}

// StartConversion pulls count samples, one audio frame at a time, and
// keeps only the low byte of each — the bits dominated by quantization
// and amplifier noise rather than the (highly predictable) input
// signal itself.
func (m *MicADC) StartConversion(offset, count int) {
	for i := 0; i < count; i++ {
		if err := m.stream.Read(); err != nil {
			m.buf[offset+i] = 0
			continue
		}
		m.buf[offset+i] = uint32(m.in[0]) & 0xff
	}
}

func (m *MicADC) WaitCompletion(_ context.Context) error { return nil }

func (m *MicADC) Stop() {
	if m.stream != nil {
		m.stream.Stop()
		m.stream.Close()
		m.stream = nil
	}
	portaudio.Terminate()
}

func (m *MicADC) Buf() []uint32 { return m.buf[:] }
