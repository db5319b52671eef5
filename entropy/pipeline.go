// Package entropy implements the sample-collection and conditioning
// state machine: it sequences ADC rounds, whitens samples through the
// CRC-32 register, runs them past the health-test battery, and feeds
// the SHA-256 conditioner with output feedback between cycles.
package entropy

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"

	"github.com/go-neug/neug/adc"
	"github.com/go-neug/neug/crc32rv"
	"github.com/go-neug/neug/healthtest"
)

type round int

const (
	round0 round = iota
	round1
	round2
	roundRaw
	roundRawData
)

// Raw sample counts per round, in the unit StartConversion expects for
// that round (bytes of noise for the whitened rounds; whole 32-bit
// words for the RAW_DATA passthrough, which needs no whitening).
const (
	round0Inputs     = 56
	round1Inputs     = 64
	round2Inputs     = 17
	rawInputs        = 32
	rawDataConvCount = 8 // RAW_DATA pulls pre-packed words, not bytes
	rawDataWords     = 8
	digestSize       = sha256.Size
)

// Pipeline is the entropy engine's round state machine. It is not safe
// for concurrent use; the producer task (package neug) owns it
// exclusively, keeping the SHA-256 state and CRC-32 register
// producer-local.
type Pipeline struct {
	CRC    crc32rv.Whitener
	Health *healthtest.Battery
	ADC    adc.Source

	round  round
	sha    hash.Hash
	input  [64]byte // conditioner staging buffer (hash_df / whitened / raw words)
	output [32]byte // last finished SHA-256 digest, reused as feedback
}

// NewPipeline constructs a pipeline over the given ADC source and
// health-test battery. Health may be shared with diagnostic readers but
// must not be mutated concurrently with Step.
func NewPipeline(source adc.Source, health *healthtest.Battery) *Pipeline {
	return &Pipeline{ADC: source, Health: health}
}

// SeedCRC reseeds the whitener from the three device-ID words. Called
// once, at neug_init time, before the first Init.
func (p *Pipeline) SeedCRC(words [3]uint32) {
	p.CRC.Reset()
	for _, w := range words {
		p.CRC.Step(w)
	}
}

// Init (re)starts the round progression for mode, kicking off the
// first ADC conversion of the new cycle. Safe to call at any point —
// mid-cycle state is simply discarded. It is the pipeline's sole
// re-initialization entry point.
func (p *Pipeline) Init(mode Mode) {
	switch mode {
	case Raw:
		p.round = roundRaw
		p.ADC.StartConversion(0, rawInputs)
	case RawData:
		p.round = roundRawData
		p.ADC.StartConversion(0, rawDataConvCount)
	default:
		p.round = round0
		p.fillInitialString()
		p.ADC.StartConversion(2, round0Inputs)
	}
}

// fillInitialString stages the two-word hash_df header: a fixed
// counter/bit-length literal, and three bytes drawn from the CRC
// register left over from the previous cycle's unused high bytes.
func (p *Pipeline) fillInitialString() {
	v := p.CRC.Get()
	b1 := byte(v >> 8)
	b2 := byte(v >> 16)
	b3 := byte(v >> 24)

	p.Health.Byte(b1)
	p.Health.Byte(b2)
	p.Health.Byte(b3)

	buf := p.ADC.Buf()
	buf[0] = 0x01000001
	buf[1] = v & 0xffffff00
}

// Step advances one round of the progression, returning the number of
// output words produced this call (0 for R0/R1, which only stage and
// continue; 8 for R2, RAW, and RAW_DATA, which complete a cycle).
func (p *Pipeline) Step(mode Mode) int {
	switch p.round {
	case round0:
		return p.stepRound0()
	case round1:
		return p.stepRound1()
	case round2:
		return p.stepRound2()
	case roundRaw:
		return p.stepRaw(mode)
	case roundRawData:
		return p.stepRawData(mode)
	default:
		return 0
	}
}

func (p *Pipeline) stepRound0() int {
	p.sha = sha256.New()
	buf := p.ADC.Buf()

	putWordLE(p.input[:], 0, buf[0])
	putWordLE(p.input[:], 1, buf[1])

	for i := 0; i < round0Inputs/4; i++ {
		base := i*4 + 2
		p.CRC.Step(buf[base])
		p.CRC.Step(buf[base+1])
		p.CRC.Step(buf[base+2])
		p.CRC.Step(buf[base+3])
		v := p.CRC.Get()
		p.Health.Word(v)
		putWordLE(p.input[:], i+2, v)
	}

	p.ADC.StartConversion(0, round1Inputs)
	p.sha.Write(p.input[:64])

	p.round = round1
	return 0
}

func (p *Pipeline) stepRound1() int {
	buf := p.ADC.Buf()

	for i := 0; i < round1Inputs/4; i++ {
		base := i * 4
		p.CRC.Step(buf[base])
		p.CRC.Step(buf[base+1])
		p.CRC.Step(buf[base+2])
		p.CRC.Step(buf[base+3])
		v := p.CRC.Get()
		p.Health.Word(v)
		putWordLE(p.input[:], i, v)
	}

	p.ADC.StartConversion(0, round2Inputs+3)
	p.sha.Write(p.input[:64])

	p.round = round2
	return 0
}

func (p *Pipeline) stepRound2() int {
	buf := p.ADC.Buf()

	var i int
	for i = 0; i < round2Inputs/4; i++ {
		base := i * 4
		p.CRC.Step(buf[base])
		p.CRC.Step(buf[base+1])
		p.CRC.Step(buf[base+2])
		p.CRC.Step(buf[base+3])
		v := p.CRC.Get()
		p.Health.Word(v)
		putWordLE(p.input[:], i, v)
	}

	// The 17th byte: four more CRC steps over the next four raw
	// samples, then the low byte of the resulting register is the
	// sample. The three high bytes are deliberately left unconsumed —
	// Init below reads them back via Get() for the next cycle's header.
	base := i * 4
	p.CRC.Step(buf[base])
	p.CRC.Step(buf[base+1])
	p.CRC.Step(buf[base+2])
	p.CRC.Step(buf[base+3])
	v := p.CRC.Get() & 0xff
	p.Health.Byte(byte(v))
	putWordLE(p.input[:], i, v)

	// Re-enter R0. This must happen before the feedback copy below:
	// Init reads the CRC register's current (post byte-17) value for
	// the next cycle's header, and it must not be re-stepped first.
	p.Init(Conditioned)

	// Feedback: the first half of the previous output appended after
	// the 17 staged bytes, making 33 bytes in total.
	const feedback = digestSize / 2
	copy(p.input[round2Inputs:round2Inputs+feedback], p.output[:feedback])

	p.sha.Write(p.input[:round2Inputs+feedback])
	sum := p.sha.Sum(p.output[:0])
	copy(p.output[:], sum)

	return digestSize / 4
}

func (p *Pipeline) stepRaw(mode Mode) int {
	buf := p.ADC.Buf()
	const words = rawInputs / 4

	for i := 0; i < words; i++ {
		base := i * 4
		p.CRC.Step(buf[base])
		p.CRC.Step(buf[base+1])
		p.CRC.Step(buf[base+2])
		p.CRC.Step(buf[base+3])
		v := p.CRC.Get()
		p.Health.Word(v)
		putWordLE(p.input[:], i, v)
	}

	p.Init(mode)
	return words
}

func (p *Pipeline) stepRawData(mode Mode) int {
	buf := p.ADC.Buf()

	for i := 0; i < rawDataWords; i++ {
		putWordLE(p.input[:], i, buf[i])
	}

	p.Init(mode)
	return rawDataWords
}

// Output returns the words produced by the most recently completed
// cycle: the SHA-256 digest for Conditioned mode, or the staged
// whitened/raw words for Raw and RawData.
func (p *Pipeline) Output(mode Mode) []uint32 {
	var src []byte
	if mode == Conditioned {
		src = p.output[:]
	} else {
		src = p.input[:32]
	}

	out := make([]uint32, len(src)/4)
	for i := range out {
		out[i] = wordLE(src, i)
	}
	return out
}

func putWordLE(buf []byte, wordIndex int, v uint32) {
	binary.LittleEndian.PutUint32(buf[wordIndex*4:], v)
}

func wordLE(buf []byte, wordIndex int) uint32 {
	return binary.LittleEndian.Uint32(buf[wordIndex*4:])
}
