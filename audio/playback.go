// https://github.com/usbarmory/usbaudio
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package audio

import (
	"github.com/usbarmory/usbaudio/internal/cache"
	"github.com/usbarmory/usbaudio/internal/irq"
	"github.com/usbarmory/usbaudio/usbaudio"
)

// Playback is the host-to-device flow-control path: it deinterleaves
// arriving stereo packets into a filling block pair and hands completed
// pairs to the audio graph one pair per tick. Deliberately one-deep:
// the graph tick consumes one block per call, and a single "ready" slot
// matches that cadence at 44.1 kHz with 128-sample blocks naturally.
type Playback struct {
	pool Pool
	tx   Transmitter
	fb   *Feedback
	mask irq.Mask

	incomingLeft, incomingRight *Block
	incomingCount               int

	readyLeft, readyRight *Block
	receiveFlag           bool

	underrunCount uint64
	overrunCount  uint64

	cache cache.Controller
}

// SetCache installs the cache-maintenance controller used to invalidate
// the RX packet buffer before the ISR reads it. The zero value behaves
// as cache.NewNoop().
func (p *Playback) SetCache(c cache.Controller) {
	p.cache = c
}

// NewPlayback constructs a Playback path driving fb's integrator from
// queue-fill error.
func NewPlayback(pool Pool, tx Transmitter, fb *Feedback) *Playback {
	return &Playback{
		pool: pool,
		tx:   tx,
		fb:   fb,
		mask: irq.NewMutexMask(),
	}
}

// Reset releases any held blocks and returns the path to its
// post-Configure state: all indices, counters and flags zeroed.
func (p *Playback) Reset() {
	irq.Critical(p.mask, func() {
		for _, b := range []*Block{p.incomingLeft, p.incomingRight, p.readyLeft, p.readyRight} {
			if b != nil {
				p.pool.Release(b)
			}
		}

		p.incomingLeft, p.incomingRight = nil, nil
		p.readyLeft, p.readyRight = nil, nil
		p.incomingCount = 0
		p.receiveFlag = false
		p.underrunCount = 0
		p.overrunCount = 0
	})
}

// RxComplete is the ISR-context entry point: called once per received
// isochronous packet with the full payload (packed little-endian stereo
// 16-bit PCM, 4 bytes per sample pair). It must consume the entire
// packet before returning; there is no per-packet backpressure toward
// the host.
//
// On allocator exhaustion the remainder of the packet is dropped
// silently: this is a soft-real-time path and dropping is preferable
// to stalling the caller.
func (p *Playback) RxComplete(buf []byte) {
	p.mask.Disable()
	defer p.mask.Enable()

	p.receiveFlag = true

	samples := len(buf) / 4
	srcOffset := 0
	count := p.incomingCount

	left := p.incomingLeft
	if left == nil {
		b, ok := p.pool.Allocate()
		if !ok {
			return
		}
		left = b
		p.incomingLeft = b
	}

	right := p.incomingRight
	if right == nil {
		b, ok := p.pool.Allocate()
		if !ok {
			return
		}
		right = b
		p.incomingRight = b
	}

	for samples > 0 {
		avail := BlockSamples - count

		if samples < avail {
			deinterleaveStereo(buf[srcOffset*4:], left.Data[count:], right.Data[count:], samples)
			p.incomingCount = count + samples
			return
		}

		if avail > 0 {
			deinterleaveStereo(buf[srcOffset*4:], left.Data[count:], right.Data[count:], avail)
			srcOffset += avail
			samples -= avail

			if p.readyLeft != nil || p.readyRight != nil {
				// overrun: PC sending faster than the graph consumes.
				// Any remainder of this packet is dropped.
				p.overrunCount++
				p.incomingCount = count + avail
				return
			}
		} else {
			// The filling pair was already exactly full on entry. If the
			// ready slot is still occupied there is nothing to recover
			// into; otherwise fall through and promote immediately.
			if p.readyLeft != nil || p.readyRight != nil {
				p.overrunCount++
				return
			}
		}

		p.readyLeft = left
		p.readyRight = right

		nl, ok := p.pool.Allocate()
		if !ok {
			p.incomingLeft, p.incomingRight = nil, nil
			p.incomingCount = 0
			return
		}

		nr, ok := p.pool.Allocate()
		if !ok {
			p.pool.Release(nl)
			p.incomingLeft, p.incomingRight = nil, nil
			p.incomingCount = 0
			return
		}

		left, right = nl, nr
		p.incomingLeft, p.incomingRight = nl, nr
		count = 0
	}

	p.incomingCount = count
}

// Update is the foreground-context entry point, called once per
// audio-graph tick: it forwards a completed stereo pair downstream (if
// any is ready) and recomputes the feedback trim from the current
// queue-fill error.
func (p *Playback) Update() {
	var left, right *Block
	var count int
	var flag bool

	irq.Critical(p.mask, func() {
		left = p.readyLeft
		p.readyLeft = nil
		right = p.readyRight
		p.readyRight = nil
		count = p.incomingCount
		flag = p.receiveFlag
		p.receiveFlag = false
	})

	if flag {
		diff := int32(BlockSamples/2 - count)
		p.fb.Nudge(diff)
	}

	if left == nil || right == nil {
		p.underrunCount++

		if flag {
			p.fb.Kick()
		}
	}

	if left != nil {
		p.tx.Transmit(left, 0)
		p.pool.Release(left)
	}

	if right != nil {
		p.tx.Transmit(right, 1)
		p.pool.Release(right)
	}
}

// UnderrunCount returns the monotonic underrun counter.
func (p *Playback) UnderrunCount() uint64 { return p.underrunCount }

// OverrunCount returns the monotonic overrun counter.
func (p *Playback) OverrunCount() uint64 { return p.overrunCount }

// IncomingCount returns the current fill level of the filling pair
// (test hook).
func (p *Playback) IncomingCount() int { return p.incomingCount }

// RxFunction adapts RxComplete to the endpoint-function shape so it can
// drive an OUT isochronous endpoint directly.
func (p *Playback) RxFunction() usbaudio.EndpointFunction {
	return func(out []byte, lastErr error) (in []byte, err error) {
		if p.cache != nil {
			p.cache.InvalidateBeforeReceive(out)
		}
		p.RxComplete(out)
		return nil, nil
	}
}
