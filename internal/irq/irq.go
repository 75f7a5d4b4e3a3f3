// https://github.com/usbarmory/usbaudio
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package irq provides the interrupt-mask critical section used to
// serialize pointer and counter exchange between the ISR context and the
// foreground context (see the concurrency model in the audio package).
package irq

import "sync"

// Mask disables and re-enables the interrupt sources that drive the ISR
// context. A real target implements it over the CPU's global interrupt
// mask (c.f. arm.CPU.DisableInterrupts/EnableInterrupts); the portable
// default below serializes with a mutex instead, which is sufficient off
// target hardware where there is no interrupt controller to mask.
type Mask interface {
	Disable()
	Enable()
}

// mutexMask is the portable Mask, used whenever code runs outside a
// tamago build. TODO(target): on tamago/arm wire arm.CPU{}.DisableInterrupts
// / EnableInterrupts behind this same interface instead.
type mutexMask struct {
	mu sync.Mutex
}

func (m *mutexMask) Disable() { m.mu.Lock() }
func (m *mutexMask) Enable()  { m.mu.Unlock() }

// NewMutexMask returns the portable, mutex-backed Mask.
func NewMutexMask() Mask {
	return &mutexMask{}
}

// Critical runs f with the interrupt mask held. f must be short: it may
// not allocate, block, or call back into code that waits on the ISR
// context, since the mask may stand in for a real global interrupt
// disable on target hardware.
func Critical(m Mask, f func()) {
	m.Disable()
	defer m.Enable()
	f()
}
