// https://github.com/usbarmory/usbaudio
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/gen2brain/malgo"
)

// bytesPerFloat32 is the width of one miniaudio FormatF32 sample.
const bytesPerFloat32 = 4

// bytesAsFloat32 reinterprets a byte slice as a float32 slice without
// copying; the result is only valid for as long as data is.
func bytesAsFloat32(data []byte) []float32 {
	if len(data) < bytesPerFloat32 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), len(data)/bytesPerFloat32)
}

// monitor renders the engine's capture output to a real host sound
// device via malgo (miniaudio), so the demo is audible instead of
// purely numeric.
type monitor struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device

	mu  sync.Mutex
	buf []float32
}

// newMonitor opens the default playback device at sampleRate with the
// given channel count.
func newMonitor(sampleRate, channels uint32) (*monitor, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("audiogadget: init audio context: %w", err)
	}

	m := &monitor{ctx: ctx}

	deviceConfig := malgo.DeviceConfig{
		DeviceType:         malgo.Playback,
		SampleRate:         sampleRate,
		PeriodSizeInFrames: 512,
		Playback: malgo.SubConfig{
			Format:   malgo.FormatF32,
			Channels: channels,
		},
	}

	callbacks := malgo.DeviceCallbacks{
		Data: m.onSendFrames,
	}

	device, err := malgo.InitDevice(m.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		ctx.Uninit()
		return nil, fmt.Errorf("audiogadget: init playback device: %w", err)
	}
	m.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		ctx.Uninit()
		return nil, fmt.Errorf("audiogadget: start playback device: %w", err)
	}

	return m, nil
}

// onSendFrames is the miniaudio pull callback: it copies whatever
// normalized samples have been queued via push, zero-filling the rest.
func (m *monitor) onSendFrames(outputSamples, inputSamples []byte, frameCount uint32) {
	out := bytesAsFloat32(outputSamples)

	m.mu.Lock()
	n := copy(out, m.buf)
	if n > 0 {
		m.buf = m.buf[n:]
	}
	m.mu.Unlock()

	for i := n; i < len(out); i++ {
		out[i] = 0
	}
}

// push queues interleaved int16 PCM samples for playback, normalized
// to float32.
func (m *monitor) push(samples []int16) {
	norm := make([]float32, len(samples))
	for i, s := range samples {
		norm[i] = float32(s) / 32768.0
	}

	m.mu.Lock()
	m.buf = append(m.buf, norm...)
	if len(m.buf) > 48000 {
		m.buf = m.buf[len(m.buf)-48000:]
	}
	m.mu.Unlock()
}

// Close tears down the playback device and audio context.
func (m *monitor) Close() {
	if m.device != nil {
		m.device.Uninit()
	}
	if m.ctx != nil {
		m.ctx.Uninit()
	}
}
