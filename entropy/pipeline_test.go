package entropy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-neug/neug/adc"
	"github.com/go-neug/neug/healthtest"
)

// s1SeedWords are the three little-endian words of a fixed example
// device id, used as a stable CRC seed across the known-answer tests.
var s1SeedWords = [3]uint32{0xBD244112, 0xAF62483B, 0xF1420A7A}

// TestConditionedKAT checks that a scripted all-zero ADC and a fixed
// CRC seed yield this exact 8-word SHA-256 digest. The expected words
// were computed independently against the same table and step
// algorithm as crc32rv.
func TestConditionedKAT(t *testing.T) {
	source := &adc.Fake{}
	health := &healthtest.Battery{}
	p := NewPipeline(source, health)
	p.SeedCRC(s1SeedWords)
	p.Init(Conditioned)

	require.Equal(t, 0, p.Step(Conditioned)) // R0
	require.Equal(t, 0, p.Step(Conditioned)) // R1
	require.Equal(t, 8, p.Step(Conditioned)) // R2, completes the cycle

	want := []uint32{
		0xe177ac47, 0x9afec8db, 0xaecefbba, 0x4ba17db3,
		0xe2e9506b, 0xa334d209, 0x8bdbf7e3, 0x562fbc32,
	}
	require.Equal(t, want, p.Output(Conditioned))
}

// TestRawDataPassthrough checks that in RAW_DATA mode the ADC's packed
// words are emitted verbatim, with no whitening and no health testing.
func TestRawDataPassthrough(t *testing.T) {
	source := &adc.Fake{
		Script: []uint32{
			0xDDCCBBAA, 0x11223344, 0x55667788, 0x99aabbcc,
			0x00000000, 0xffffffff, 0x01020304, 0x0a0b0c0d,
		},
	}
	health := &healthtest.Battery{}
	p := NewPipeline(source, health)
	p.Init(RawData)

	n := p.Step(RawData)
	require.Equal(t, rawDataWords, n)
	require.Equal(t, source.Script, p.Output(RawData))
}

// TestRawModeWhitensAndTests confirms RAW mode whitens samples through
// the CRC register and exercises the health-test battery, unlike
// RAW_DATA, by checking the running RCT maximum advanced.
func TestRawModeWhitensAndTests(t *testing.T) {
	source := &adc.Fake{} // all zero samples; the whitened bytes still vary
	health := &healthtest.Battery{}
	p := NewPipeline(source, health)
	p.SeedCRC(s1SeedWords)
	p.Init(Raw)

	n := p.Step(Raw)
	require.Equal(t, rawInputs/4, n)
	require.NotZero(t, health.RCMax)
}

// TestReenterR0AfterR2 checks the pipeline cycles back into R0 after
// completing R2, so a second full cycle can run without re-calling Init.
func TestReenterR0AfterR2(t *testing.T) {
	source := &adc.Fake{}
	health := &healthtest.Battery{}
	p := NewPipeline(source, health)
	p.SeedCRC(s1SeedWords)
	p.Init(Conditioned)

	for i := 0; i < 3; i++ {
		p.Step(Conditioned)
	}
	require.Equal(t, round0, p.round)

	for i := 0; i < 2; i++ {
		n := p.Step(Conditioned)
		require.Equal(t, 0, n)
	}
	n := p.Step(Conditioned)
	require.Equal(t, 8, n)
}
