// https://github.com/usbarmory/usbaudio
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package sim provides in-memory stand-ins for the audio-graph and USB
// controller collaborators (audio.Pool, audio.Transmitter,
// audio.Receiver, the isochronous endpoint set) so the engine can run
// off real hardware: in tests and in the cmd/audiogadget demo.
package sim

import (
	"sync"

	"github.com/usbarmory/usbaudio/audio"
)

// Pool is a bounded, mutex-protected audio.Pool backed by a fixed
// arena of pre-allocated blocks.
type Pool struct {
	mu   sync.Mutex
	free []*audio.Block
}

// NewPool constructs a Pool with capacity blocks available.
func NewPool(capacity int) *Pool {
	p := &Pool{free: make([]*audio.Block, 0, capacity)}

	for i := 0; i < capacity; i++ {
		p.free = append(p.free, &audio.Block{})
	}

	return p
}

// Allocate removes one block from the free list, or reports false if
// the pool is exhausted.
func (p *Pool) Allocate() (*audio.Block, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.free)
	if n == 0 {
		return nil, false
	}

	b := p.free[n-1]
	p.free = p.free[:n-1]

	return b, true
}

// Release returns a block to the free list.
func (p *Pool) Release(b *audio.Block) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.free = append(p.free, b)
}

// Available reports the current free-list depth (test hook).
func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.free)
}
