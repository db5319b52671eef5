package hwadc

import (
	"context"
	"testing"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
)

// TestSerialADCReadsRawBytes exercises SerialADC against a pty-backed
// fake serial device instead of real hardware.
func TestSerialADCReadsRawBytes(t *testing.T) {
	ptmx, tty, err := pty.Open()
	require.NoError(t, err)
	defer ptmx.Close()
	defer tty.Close()

	s := NewSerialADC(tty.Name(), 0)
	require.NoError(t, s.Init())
	defer s.Stop()

	want := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	go func() {
		_, _ = ptmx.Write(want)
	}()

	s.StartConversion(0, len(want))
	require.NoError(t, s.WaitCompletion(context.Background()))

	buf := s.Buf()
	for i, b := range want {
		require.Equal(t, uint32(b), buf[i])
	}
}
