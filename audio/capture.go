// https://github.com/usbarmory/usbaudio
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package audio

import (
	"fmt"

	"github.com/usbarmory/usbaudio/internal/cache"
	"github.com/usbarmory/usbaudio/internal/irq"
	"github.com/usbarmory/usbaudio/usbaudio"
)

// ringSlots is the capture ring depth. Deeper than the one-deep
// playback side: host TX pacing and graph-tick pacing drift
// independently over a multi-slot window.
const ringSlots = 4

// MaxCaptureChannels is the largest even channel count the capture
// path accepts.
const MaxCaptureChannels = 8

// Capture is the device-to-host flow-control path: it enqueues one
// ring slot of up to C channel blocks per graph tick and dequeues
// interleaved 44/45-sample packets on a 10-packet super-cycle to hold
// a 44.1 kHz mean rate without outbound feedback assistance.
type Capture struct {
	pool  Pool
	graph Graph
	mask  irq.Mask

	channels int
	streamOn bool

	ring       [ringSlots][MaxCaptureChannels]*Block
	writeIndex int
	readIndex  int
	bufferOff  int

	superCycleCount uint32

	underflowCount uint64
	overflowCount  uint64

	logUnderflow uint64
	logOverflow  uint64
	lastLogMs    int64
	clock        func() int64
	log          func(string)

	cache cache.Controller
}

// SetCache installs the cache-maintenance controller used to flush the
// outbound packet scratch buffer before each TX handoff. The zero
// value behaves as cache.NewNoop().
func (c *Capture) SetCache(ctrl cache.Controller) {
	c.cache = ctrl
}

// NewCapture constructs a Capture path over channels audio-graph
// channels (must be even, 2..MaxCaptureChannels; an invalid value
// clamps to 2). clock supplies a monotonic
// millisecond timestamp for the per-second diagnostics log and log
// receives the formatted line; pass nil for either to disable
// logging.
func NewCapture(pool Pool, graph Graph, channels int, clock func() int64, log func(string)) *Capture {
	if channels <= 0 || channels > MaxCaptureChannels || channels%2 != 0 {
		channels = 2
	}

	return &Capture{
		pool:            pool,
		graph:           graph,
		mask:            irq.NewMutexMask(),
		channels:        channels,
		superCycleCount: 5,
		clock:           clock,
		log:             log,
	}
}

// SetStreaming reflects the host's alternate-setting selection: false
// means the host has deselected the streaming interface and the ring
// drains on the next Update.
func (c *Capture) SetStreaming(on bool) {
	c.streamOn = on
}

// Reset fully drains the ring and resets cadence state and counters,
// as required on a fresh Configure.
func (c *Capture) Reset() {
	irq.Critical(c.mask, func() {
		c.drainLocked()
	})

	c.superCycleCount = 5
	c.underflowCount = 0
	c.overflowCount = 0
	c.logUnderflow = 0
	c.logOverflow = 0
}

// drainLocked releases every block currently held in the ring and
// resets indices. Callers must hold the mask.
func (c *Capture) drainLocked() {
	for slot := 0; slot < ringSlots; slot++ {
		for ch := 0; ch < c.channels; ch++ {
			if b := c.ring[slot][ch]; b != nil {
				c.pool.Release(b)
				c.ring[slot][ch] = nil
			}
		}
	}

	c.writeIndex = 0
	c.readIndex = 0
	c.bufferOff = 0
}

// Update is the foreground-context entry point, called once per
// audio-graph tick: it pulls up to one block per channel from the
// graph (allocating silence for channels with nothing ready) and
// enqueues them as a single ring slot.
func (c *Capture) Update() {
	var blocks [MaxCaptureChannels]*Block

	for ch := 0; ch < c.channels; ch++ {
		b, ok := c.graph.ReceiveWritable(ch)
		if ok {
			blocks[ch] = b
		}
	}

	if !c.streamOn {
		for ch := 0; ch < c.channels; ch++ {
			if blocks[ch] != nil {
				c.pool.Release(blocks[ch])
			}
		}

		irq.Critical(c.mask, func() {
			c.drainLocked()
		})

		return
	}

	for ch := 0; ch < c.channels; ch++ {
		if blocks[ch] != nil {
			continue
		}

		b, ok := c.pool.Allocate()
		if !ok {
			for j := 0; j < ch; j++ {
				if blocks[j] != nil {
					c.pool.Release(blocks[j])
				}
			}
			return
		}

		for i := range b.Data {
			b.Data[i] = 0
		}
		blocks[ch] = b
	}

	irq.Critical(c.mask, func() {
		nextWrite := (c.writeIndex + 1) % ringSlots

		if nextWrite == c.readIndex {
			c.overflowCount++
			c.logOverflow++

			for ch := 0; ch < c.channels; ch++ {
				if b := c.ring[c.readIndex][ch]; b != nil {
					c.pool.Release(b)
					c.ring[c.readIndex][ch] = nil
				}
			}

			c.readIndex = (c.readIndex + 1) % ringSlots
			c.bufferOff = 0
		}

		for ch := 0; ch < c.channels; ch++ {
			c.ring[c.writeIndex][ch] = blocks[ch]
		}

		c.writeIndex = nextWrite
	})
}

// target returns this packet's sample count and advances the
// super-cycle counter: 9 packets of 44 samples followed by 1 packet
// of 45 samples averages 441 samples per 10 packets, 44.1 kHz exactly
// at Full Speed. The counter starts at 5, a phase offset carried over
// from field-proven behaviour; the first 45-sample packet falls on the
// 5th call.
func (c *Capture) target() int {
	c.superCycleCount++

	if c.superCycleCount < 10 {
		return 44
	}

	c.superCycleCount = 0
	return 45
}

// Dequeue is the TX-complete ISR entry point: it fills dst (which
// must hold at least target*2*channels bytes, where target is 44 or
// 45 per the super-cycle) with interleaved samples and returns the
// number of bytes written, always target*2*channels even when partly
// or wholly zero-filled.
func (c *Capture) Dequeue(dst []byte) int {
	target := c.target()
	frameBytes := 2 * c.channels
	need := target
	written := 0

	for need > 0 {
		var slot [MaxCaptureChannels]*Block
		var haveSlot bool
		var offset int

		irq.Critical(c.mask, func() {
			if c.readIndex == c.writeIndex {
				return
			}
			slot = c.ring[c.readIndex]
			offset = c.bufferOff
			haveSlot = true
		})

		if !haveSlot {
			c.underflowCount++
			c.logUnderflow++
			zero := dst[written*frameBytes : target*frameBytes]
			for i := range zero {
				zero[i] = 0
			}
			written = target
			break
		}

		// No heap allocation on the TX-complete path: the channel view
		// over the slot's blocks lives on the stack.
		var channels [MaxCaptureChannels][]int16
		for ch := 0; ch < c.channels; ch++ {
			channels[ch] = slot[ch].Data[:]
		}

		avail := BlockSamples - offset
		n := need
		if n > avail {
			n = avail
		}

		interleaveChannels(dst[written*frameBytes:], channels[:c.channels], offset, n)

		written += n
		need -= n

		irq.Critical(c.mask, func() {
			c.bufferOff += n

			if c.bufferOff >= BlockSamples {
				for ch := 0; ch < c.channels; ch++ {
					if b := c.ring[c.readIndex][ch]; b != nil {
						c.pool.Release(b)
						c.ring[c.readIndex][ch] = nil
					}
				}
				c.readIndex = (c.readIndex + 1) % ringSlots
				c.bufferOff = 0
			}
		})
	}

	c.tickLog()

	if c.cache != nil {
		c.cache.FlushBeforeTransmit(dst[:target*frameBytes])
	}

	return target * frameBytes
}

// tickLog emits the per-second underflow/overflow diagnostics line
// and resets the logging counters. External diagnostics only, not part
// of the flow-control contract.
func (c *Capture) tickLog() {
	if c.clock == nil || c.log == nil {
		return
	}

	now := c.clock()

	if now-c.lastLogMs < 1000 {
		return
	}

	c.log(fmt.Sprintf("usb audio capture: underflows=%d overflows=%d", c.logUnderflow, c.logOverflow))
	c.logUnderflow = 0
	c.logOverflow = 0
	c.lastLogMs = now
}

// UnderflowCount returns the monotonic underflow counter.
func (c *Capture) UnderflowCount() uint64 { return c.underflowCount }

// OverflowCount returns the monotonic overflow counter.
func (c *Capture) OverflowCount() uint64 { return c.overflowCount }

// TxFunction adapts Dequeue to the endpoint-function shape so it can
// drive an IN isochronous endpoint directly. The per-frame feedback
// refresh is a pure read of the regulator's accumulator
// (Feedback.Report), so it is served independently by the sync
// endpoint's own EndpointFunction rather than threaded through here;
// both observe the same accumulator at the same cadence.
//
// packetBytes is the endpoint's maximum packet size, 45*2*channels for
// the largest packet the super-cycle can emit. One packet is in flight
// at a time on an isochronous IN endpoint, so the scratch buffer is
// allocated once and reused across calls rather than per packet.
func (c *Capture) TxFunction(packetBytes int) usbaudio.EndpointFunction {
	buf := make([]byte, packetBytes)

	return func(out []byte, lastErr error) (in []byte, err error) {
		n := c.Dequeue(buf)
		return buf[:n], nil
	}
}
