// https://github.com/usbarmory/usbaudio
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package sim

import (
	"fmt"

	"github.com/usbarmory/usbaudio/audio"
	"github.com/usbarmory/usbaudio/dma"
	"github.com/usbarmory/usbaudio/internal/cache"
	"github.com/usbarmory/usbaudio/usbaudio"
)

// Controller is a minimal stand-in for the USB device controller: it
// owns the DMA-visible RX scratch buffer (drawn cache-line aligned from
// a dma.Arena, as the real controller requires of every buffer it DMAs
// into) and drives the engine's three isochronous endpoint functions at
// the micro-frame cadence.
type Controller struct {
	rx   usbaudio.EndpointFunction
	tx   usbaudio.EndpointFunction
	sync usbaudio.EndpointFunction

	rxBuf []byte
}

// NewController builds a Controller over engine's endpoint functions.
// maxRx bounds the RX payload accepted per frame; channels sizes the
// capture endpoint's maximum packet (45 samples per channel pair).
func NewController(engine *audio.Engine, arena *dma.Arena, maxRx, channels int) (*Controller, error) {
	rxBuf, err := arena.Alloc(maxRx, cache.LineSize)
	if err != nil {
		return nil, fmt.Errorf("sim: alloc rx scratch: %w", err)
	}

	return &Controller{
		rx:    engine.RxFunction(),
		tx:    engine.TxFunction(45 * 2 * channels),
		sync:  engine.SyncFunction(),
		rxBuf: rxBuf,
	}, nil
}

// Frame runs one micro-frame: payload is DMA'd into the RX scratch and
// delivered to the playback path, then the capture packet and the
// feedback report for this frame are collected. payload may be nil for
// a frame on which the host sent nothing.
func (c *Controller) Frame(payload []byte) (packet, feedback []byte, err error) {
	if len(payload) > len(c.rxBuf) {
		return nil, nil, fmt.Errorf("sim: rx payload %d exceeds endpoint size %d", len(payload), len(c.rxBuf))
	}

	if len(payload) > 0 {
		n := copy(c.rxBuf, payload)

		if _, err = c.rx(c.rxBuf[:n], nil); err != nil {
			return nil, nil, err
		}
	}

	if packet, err = c.tx(nil, nil); err != nil {
		return nil, nil, err
	}

	if feedback, err = c.sync(nil, nil); err != nil {
		return nil, nil, err
	}

	return
}
