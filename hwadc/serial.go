// Package hwadc provides concrete adc.Source backends for running the
// entropy pipeline against real or semi-real hardware on a host
// machine, standing in for the STM32 ADC the original targets.
package hwadc

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/term"

	"github.com/go-neug/neug/adc"
)

// SerialADC reads raw noise bytes from a serial-attached entropy
// appliance (a dedicated USB TRNG dongle, or any serial device that
// streams noisy bytes), opening the port the same way a TNC would,
// generalized from "read framed packets" to "read raw noise bytes".
type SerialADC struct {
	device string
	baud   int

	fd  *term.Term
	buf [adc.BufSize]uint32
}

// NewSerialADC returns a SerialADC reading from device at baud bps.
func NewSerialADC(device string, baud int) *SerialADC {
	return &SerialADC{device: device, baud: baud}
}

func (s *SerialADC) Init() error {
	fd, err := term.Open(s.device, term.RawMode)
	if err != nil {
		return fmt.Errorf("hwadc: open serial device %s: %w", s.device, err)
	}
	if s.baud != 0 {
		if err := fd.SetSpeed(s.baud); err != nil {
			fd.Close()
			return fmt.Errorf("hwadc: set speed %d on %s: %w", s.baud, s.device, err)
		}
	}
	s.fd = fd
	return nil
}

func (s *SerialADC) Start() error { return nil }

// StartConversion reads count raw bytes synchronously from the serial
// device into buf[offset:offset+count], one 32-bit "sample" per byte
// read, matching the rest of the pipeline's sample-per-word shape. This
// blocks, unlike a DMA-backed ADC; WaitCompletion is therefore a no-op.
func (s *SerialADC) StartConversion(offset, count int) {
	raw := make([]byte, count)
	n, err := io.ReadFull(s.fd, raw)
	if err != nil {
		n = 0
	}
	for i := 0; i < count; i++ {
		var v uint32
		if i < n {
			v = uint32(raw[i])
		}
		s.buf[offset+i] = v
	}
}

func (s *SerialADC) WaitCompletion(_ context.Context) error { return nil }

func (s *SerialADC) Stop() {
	if s.fd != nil {
		s.fd.Close()
		s.fd = nil
	}
}

func (s *SerialADC) Buf() []uint32 { return s.buf[:] }
