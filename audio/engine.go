// https://github.com/usbarmory/usbaudio
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package audio

import (
	"github.com/usbarmory/usbaudio/internal/cache"
	"github.com/usbarmory/usbaudio/usbaudio"
)

// FeatureEntityID is the feature unit ID this engine answers control
// requests for. A real configuration descriptor assigns unit IDs
// globally; this engine owns exactly one feature unit, so the ID is a
// fixed constant rather than a Config field.
const FeatureEntityID = 2

// Config selects the negotiated USB speed and the capture channel
// count for a call to Engine.Configure.
type Config struct {
	// HighSpeed selects the feedback report format: true for 4-byte
	// 16.16 (High Speed), false for 3-byte 10.10 (Full Speed).
	HighSpeed bool

	// CaptureChannels is C, the number of device-to-host channels
	// (even, 2..MaxCaptureChannels).
	CaptureChannels int

	// Clock and Log wire the capture path's per-second diagnostics
	// line; both may be nil to disable it.
	Clock func() int64
	Log   func(string)
}

// Engine composes the Feedback Regulator, Playback Path, Capture Path
// and Feature Control into the complete flow-control surface the USB
// device stack drives through three EndpointFunction adapters and the
// control-endpoint HandleSetup dispatcher.
type Engine struct {
	fb *Feedback
	pp *Playback
	cp *Capture
	fc *Feature
}

// NewEngine constructs an Engine over the given audio-graph
// collaborators. pool and tx serve Playback; pool and graph serve
// Capture (pool is shared: both paths draw from the same external
// block allocator).
func NewEngine(pool Pool, tx Transmitter, graph Graph) *Engine {
	fb := &Feedback{}

	return &Engine{
		fb: fb,
		pp: NewPlayback(pool, tx, fb),
		cp: NewCapture(pool, graph, 2, nil, nil),
		fc: NewFeature(FeatureEntityID),
	}
}

// Configure resets the feedback regulator and both flow paths to
// their post-reset state and reinitializes the accumulator. Feature
// Control's mute/volume state is deliberately left untouched: a
// streaming interface renegotiation is not a device reset, and the
// host's preferences must survive it.
func (e *Engine) Configure(cfg Config) {
	e.fb.Configure(cfg.HighSpeed)
	e.pp.Reset()

	channels := cfg.CaptureChannels
	if channels <= 0 || channels > MaxCaptureChannels || channels%2 != 0 {
		channels = 2
	}

	// Drain the outgoing ring before the old Capture is discarded, so a
	// renegotiation never strands blocks still held in its slots.
	e.cp.Reset()

	prevCache := e.cp.cache
	prevStreaming := e.cp.streamOn
	e.cp = NewCapture(e.cp.pool, e.cp.graph, channels, cfg.Clock, cfg.Log)
	e.cp.SetCache(prevCache)
	e.cp.SetStreaming(prevStreaming)
}

// SetCache wires a single cache-maintenance controller across all three
// DMA-visible scratch buffers (RX, TX, sync report). On real hardware
// this plugs the CPU's cache operations in behind the flush-before-TX /
// invalidate-before-RX-reuse discipline; off target hardware
// cache.NewNoop() is the correct default and need not be set.
func (e *Engine) SetCache(c cache.Controller) {
	e.pp.SetCache(c)
	e.cp.SetCache(c)
	e.fb.SetCache(c)
}

// SetCaptureStreaming reflects the host's alternate-setting selection
// for the capture interface. The capture path starts out not
// streaming; only this call, driven by the host, changes that.
func (e *Engine) SetCaptureStreaming(on bool) {
	e.cp.SetStreaming(on)
}

// Feedback returns the engine's Feedback Regulator (test/diagnostic
// access to the raw accumulator).
func (e *Engine) Feedback() *Feedback { return e.fb }

// Playback returns the engine's Playback Path.
func (e *Engine) Playback() *Playback { return e.pp }

// Capture returns the engine's Capture Path.
func (e *Engine) Capture() *Capture { return e.cp }

// Feature returns the engine's Feature Control handler.
func (e *Engine) Feature() *Feature { return e.fc }

// Update drives one audio-graph tick across both flow paths.
func (e *Engine) Update() {
	e.pp.Update()
	e.cp.Update()
}

// RxFunction returns the OUT isochronous endpoint adapter for the
// playback path.
func (e *Engine) RxFunction() usbaudio.EndpointFunction {
	return e.pp.RxFunction()
}

// TxFunction returns the IN isochronous endpoint adapter for the
// capture path. packetBytes is the endpoint's configured maximum
// packet size (45*2*channels, the largest packet the super-cycle can
// emit).
func (e *Engine) TxFunction(packetBytes int) usbaudio.EndpointFunction {
	return e.cp.TxFunction(packetBytes)
}

// SyncFunction returns the IN isochronous endpoint adapter for the
// asynchronous feedback endpoint.
func (e *Engine) SyncFunction() usbaudio.EndpointFunction {
	return e.fb.SyncFunction()
}

// HandleSetup dispatches one control-endpoint SETUP to Feature
// Control.
func (e *Engine) HandleSetup(setup usbaudio.SetupData, payload []byte) (resp []byte, ack bool, err error) {
	return e.fc.HandleSetup(setup, payload)
}
