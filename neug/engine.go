// Package neug implements the producer task, the mode-select handshake,
// and the public API consumers use to draw random words. All shared
// state lives on Engine rather than in package-level variables, and
// the neug_* C API is exposed here as methods.
package neug

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-neug/neug/adc"
	"github.com/go-neug/neug/deviceid"
	"github.com/go-neug/neug/entropy"
	"github.com/go-neug/neug/healthtest"
	"github.com/go-neug/neug/neuglog"
	"github.com/go-neug/neug/ringbuffer"
)

// Diagnostics is a point-in-time snapshot of the observable counters:
// mode, error bitmask, error counters, and the running health-test
// maxima. Consumers read it instead of the live Battery, so that
// cross-task visibility doesn't require exposing Battery's internals
// to concurrent access.
type Diagnostics struct {
	Mode      entropy.Mode
	ErrState  healthtest.Flag
	ErrCnt    uint16
	ErrCntRC  uint16
	ErrCntP64 uint16
	ErrCntP4K uint16
	RCMax     uint16
	P64Max    uint16
	P4KMax    uint16
}

// Engine owns the pipeline, ring buffer, and producer goroutine. The
// zero value is not usable; construct with New.
type Engine struct {
	adc    adc.Source
	pipe   *entropy.Pipeline
	health *healthtest.Battery
	log    *neuglog.Logger

	rb     *ringbuffer.Buffer
	rbMu   sync.Mutex
	rbCond *sync.Cond

	// modeMu/modeCond implement the MODE_CONDITION handshake. Lock
	// order is fixed: modeMu may be held while acquiring rbMu (via
	// flushLocked), but rbMu is never held while acquiring modeMu — the
	// producer always releases rbMu before it touches modeMu.
	modeMu   sync.Mutex
	modeCond *sync.Cond
	wantMode atomic.Int32 // published by ModeSelect, read lock-free by the producer
	gotMode  entropy.Mode // mode most recently applied by the producer

	diagMu sync.Mutex
	diag   Diagnostics

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	closer sync.Once
	wg     sync.WaitGroup

	onModeCondition func(entropy.Mode)
}

// Option configures optional Engine behavior at construction time.
type Option func(*Engine)

// WithModeConditionHook registers fn to be called from the producer
// task each time a mode change takes effect (the same MODE_CONDITION
// point publishModeCondition fires from). Used to drive side effects
// like flashing a status LED. fn runs on the producer goroutine, so
// production pauses until it returns; it must not call back into the
// Engine.
func WithModeConditionHook(fn func(entropy.Mode)) Option {
	return func(e *Engine) { e.onModeCondition = fn }
}

// New installs the ring buffer, seeds the CRC-32 whitener with the
// device identifier, and starts the producer task. It must precede all
// other Engine calls (neug_init).
func New(source adc.Source, id deviceid.Provider, bufSize int, log *neuglog.Logger, opts ...Option) (*Engine, error) {
	uid := id.UniqueID()
	if len(uid) < deviceid.MinLen {
		return nil, fmt.Errorf("neug: device id is %d bytes, want at least %d", len(uid), deviceid.MinLen)
	}

	if err := source.Init(); err != nil {
		return nil, fmt.Errorf("neug: adc init: %w", err)
	}
	if err := source.Start(); err != nil {
		return nil, fmt.Errorf("neug: adc start: %w", err)
	}

	health := &healthtest.Battery{}
	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		adc:    source,
		health: health,
		log:    log,
		rb:     ringbuffer.New(bufSize),
		pipe:   entropy.NewPipeline(source, health),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.rbCond = sync.NewCond(&e.rbMu)
	e.modeCond = sync.NewCond(&e.modeMu)

	e.pipe.SeedCRC(deviceid.Words(uid))

	e.wantMode.Store(int32(entropy.Conditioned))
	e.gotMode = entropy.Conditioned
	e.pipe.Init(entropy.Conditioned)

	e.wg.Add(1)
	go e.produce()

	return e, nil
}

// produce is the single long-running producer task: it drives ADC
// conversions, steps the pipeline, and publishes finished words.
func (e *Engine) produce() {
	defer e.wg.Done()
	defer e.adc.Stop()

	mode := entropy.Conditioned

	for {
		select {
		case <-e.done:
			return
		default:
		}

		err := e.adc.WaitCompletion(e.ctx)
		want := entropy.Mode(e.wantMode.Load())

		if err != nil || want != mode {
			e.health.ResetDiagnostics()
			mode = want
			e.pipe.Init(mode)
			e.snapshotDiagnostics(mode)
			e.publishModeCondition(mode)
			if e.onModeCondition != nil {
				e.onModeCondition(mode)
			}
			if e.log != nil {
				e.log.ModeApplied(mode, err)
			}
			continue
		}

		n := e.pipe.Step(mode)
		if n == 0 {
			continue
		}

		taint := e.health.ErrState != 0 && (mode == entropy.Conditioned || mode == entropy.Raw)
		e.snapshotDiagnostics(mode)

		if taint {
			errState := e.health.ErrState
			e.health.ResetError()
			if e.log != nil {
				e.log.RoundDiscarded(mode, errState)
			}
			continue
		}

		words := e.pipe.Output(mode)
		if !e.publish(words) {
			return
		}
	}
}

func (e *Engine) snapshotDiagnostics(mode entropy.Mode) {
	e.diagMu.Lock()
	e.diag = Diagnostics{
		Mode:      mode,
		ErrState:  e.health.ErrState,
		ErrCnt:    e.health.ErrCnt,
		ErrCntRC:  e.health.ErrCntRC,
		ErrCntP64: e.health.ErrCntP64,
		ErrCntP4K: e.health.ErrCntP4K,
		RCMax:     e.health.RCMax,
		P64Max:    e.health.P64Max,
		P4KMax:    e.health.P4KMax,
	}
	e.diagMu.Unlock()
}

func (e *Engine) publishModeCondition(mode entropy.Mode) {
	e.modeMu.Lock()
	e.gotMode = mode
	e.modeCond.Broadcast()
	e.modeMu.Unlock()
}

// publish inserts words into the ring buffer one at a time, blocking on
// SPACE_AVAILABLE whenever it is full, and signalling DATA_AVAILABLE
// after each insertion. It returns false if termination was requested
// mid-publish, telling the caller to exit the producer loop.
func (e *Engine) publish(words []uint32) bool {
	e.rbMu.Lock()
	defer e.rbMu.Unlock()

	for _, w := range words {
		for e.rb.Full() {
			select {
			case <-e.done:
				return false
			default:
			}
			e.rbCond.Wait()
			select {
			case <-e.done:
				return false
			default:
			}
		}
		e.rb.Add(w)
		e.rbCond.Broadcast() // DATA_AVAILABLE
	}
	return true
}

// Get blocks until a word is available and returns it. If kick is true,
// SPACE_AVAILABLE is signalled after dequeuing (neug_get(kick)).
func (e *Engine) Get(kick bool) uint32 {
	e.rbMu.Lock()
	defer e.rbMu.Unlock()

	for e.rb.Empty() {
		e.rbCond.Wait()
	}
	v, _ := e.rb.Del()
	if kick {
		e.rbCond.Broadcast()
	}
	return v
}

// GetNonBlock returns the next word without blocking. If the buffer is
// empty it signals SPACE_AVAILABLE and reports false (neug_get_nonblock).
func (e *Engine) GetNonBlock() (uint32, bool) {
	e.rbMu.Lock()
	defer e.rbMu.Unlock()

	v, ok := e.rb.Del()
	if !ok {
		e.rbCond.Broadcast()
		return 0, false
	}
	return v, true
}

// KickFilling signals SPACE_AVAILABLE if the buffer is not already full
// (neug_kick_filling).
func (e *Engine) KickFilling() {
	e.rbMu.Lock()
	defer e.rbMu.Unlock()

	if !e.rb.Full() {
		e.rbCond.Broadcast()
	}
}

// WaitFull blocks until the ring buffer is full (neug_wait_full).
func (e *Engine) WaitFull() {
	e.rbMu.Lock()
	defer e.rbMu.Unlock()

	for !e.rb.Full() {
		e.rbCond.Wait()
	}
}

// Flush drains the buffer and signals SPACE_AVAILABLE (neug_flush).
func (e *Engine) Flush() {
	e.rbMu.Lock()
	e.rb.Flush()
	e.rbCond.Broadcast()
	e.rbMu.Unlock()
}

// flushLocked flushes the ring buffer; callers must already hold
// modeMu. Used only by ModeSelect's step 3, which stores the new mode
// and flushes under the same mode_mtx critical section.
func (e *Engine) flushLocked() {
	e.rbMu.Lock()
	e.rb.Flush()
	e.rbCond.Broadcast()
	e.rbMu.Unlock()
}

// ModeSelect performs the mode-select handshake: it waits for
// any in-flight output to commit, publishes the new mode and flushes,
// waits for the producer to acknowledge via MODE_CONDITION, then
// flushes once more so the caller is guaranteed an empty buffer with
// the producer idle-blocked under the new mode.
func (e *Engine) ModeSelect(newMode entropy.Mode) {
	if entropy.Mode(e.wantMode.Load()) == newMode {
		return
	}

	e.WaitFull()

	e.modeMu.Lock()
	e.wantMode.Store(int32(newMode))
	e.flushLocked()
	for e.gotMode != newMode {
		e.modeCond.Wait()
	}
	e.modeMu.Unlock()

	e.WaitFull()
	e.Flush()
}

// ConsumeRandom drains the buffer, invoking fn(word, index) for each
// word in FIFO order, and returns the count consumed
// (neug_consume_random).
func (e *Engine) ConsumeRandom(fn func(word uint32, index int)) int {
	e.rbMu.Lock()
	defer e.rbMu.Unlock()

	n := 0
	for {
		v, ok := e.rb.Del()
		if !ok {
			break
		}
		fn(v, n)
		n++
	}
	if n > 0 {
		e.rbCond.Broadcast()
	}
	return n
}

// Fini requests termination of the producer and unblocks it: it
// cancels the ADC wait, dequeues one word if available (freeing a slot
// the way a real neug_get(1) would), and signals SPACE_AVAILABLE
// unconditionally so a producer blocked on a full buffer wakes, notices
// termination, and returns. It blocks until the producer has exited.
func (e *Engine) Fini() {
	e.closer.Do(func() {
		close(e.done)
		e.cancel()
	})

	e.rbMu.Lock()
	e.rb.Del()
	e.rbCond.Broadcast()
	e.rbMu.Unlock()

	e.wg.Wait()
}

// Diagnostics returns a snapshot of the current mode and health-test
// counters, safe for concurrent access from any number of consumers.
func (e *Engine) Diagnostics() Diagnostics {
	e.diagMu.Lock()
	defer e.diagMu.Unlock()
	return e.diag
}
