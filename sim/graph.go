// https://github.com/usbarmory/usbaudio
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package sim

import (
	"sync"

	"github.com/usbarmory/usbaudio/audio"
)

// Graph is a loopback audio.Transmitter/audio.Receiver: every block
// the Playback Path transmits on a channel is copied into that
// channel's queue and handed back out the next time the Capture Path
// asks ReceiveWritable for the same channel. This is enough to drive
// the engine end-to-end without a real audio codec: what goes in one
// side of the USB gadget comes out the other.
type Graph struct {
	pool *Pool

	mu     sync.Mutex
	queues map[int][][audio.BlockSamples]int16
}

// NewGraph constructs an empty loopback Graph drawing replacement
// blocks from pool.
func NewGraph(pool *Pool) *Graph {
	return &Graph{pool: pool, queues: make(map[int][][audio.BlockSamples]int16)}
}

// Transmit copies b's contents into channel's queue. Per the
// Transmitter contract the caller releases b immediately after this
// call, so nothing here retains it.
func (g *Graph) Transmit(b *audio.Block, channel int) {
	g.mu.Lock()
	g.queues[channel] = append(g.queues[channel], b.Data)
	g.mu.Unlock()
}

// ReceiveWritable pops the oldest queued sample set for channel into a
// freshly allocated block, or reports false if nothing is queued.
func (g *Graph) ReceiveWritable(channel int) (*audio.Block, bool) {
	g.mu.Lock()
	q := g.queues[channel]
	if len(q) == 0 {
		g.mu.Unlock()
		return nil, false
	}
	data := q[0]
	g.queues[channel] = q[1:]
	g.mu.Unlock()

	b, ok := g.pool.Allocate()
	if !ok {
		return nil, false
	}

	b.Data = data

	return b, true
}

// Queued reports how many blocks are queued on channel (test hook).
func (g *Graph) Queued(channel int) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.queues[channel])
}
