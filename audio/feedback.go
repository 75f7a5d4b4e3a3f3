// https://github.com/usbarmory/usbaudio
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package audio

import (
	"encoding/binary"

	"github.com/usbarmory/usbaudio/internal/cache"
)

// InitialAccumulator is 44.1 * 2^24, the rate accumulator's reset
// value. Tuned against field-proven host behaviour; do not change.
const InitialAccumulator uint32 = 739875226

// UnderrunKick is the fixed nudge applied to the accumulator on a
// playback underrun that coincided with host activity this tick.
// Empirically tuned; do not change without measurement.
const UnderrunKick int32 = 3500

// Feedback is the leaky integrator that reports the device's
// instantaneous sample consumption rate to the host over the
// asynchronous feedback endpoint.
type Feedback struct {
	accumulator uint32
	highSpeed   bool
	cache       cache.Controller

	// report is the sync-endpoint scratch: a single feedback value is in
	// flight at a time, so the buffer is reused across reports rather
	// than allocated per call (the report path runs in ISR context).
	report [4]byte
}

// SetCache installs the cache-maintenance controller used to flush the
// report buffer before it is handed to the sync endpoint. The zero
// value behaves as cache.NewNoop().
func (f *Feedback) SetCache(c cache.Controller) {
	f.cache = c
}

// Configure resets the accumulator to its initial value and selects the
// report format for the negotiated USB speed: High Speed reports a
// 4-byte 16.16 fixed-point value (rshift 8), Full Speed a 3-byte 10.10
// value (rshift 10).
func (f *Feedback) Configure(highSpeed bool) {
	f.accumulator = InitialAccumulator
	f.highSpeed = highSpeed
}

// Rshift returns the current report's fixed-point shift.
func (f *Feedback) Rshift() int {
	if f.highSpeed {
		return 8
	}
	return 10
}

// NBytes returns the current report's byte count.
func (f *Feedback) NBytes() int {
	if f.highSpeed {
		return 4
	}
	return 3
}

// Nudge applies an integrator step. diff is positive when the host
// should be asked to send faster, negative to slow down.
func (f *Feedback) Nudge(diff int32) {
	f.accumulator += uint32(diff)
}

// Kick applies the fixed underrun-recovery nudge.
func (f *Feedback) Kick() {
	f.accumulator += uint32(UnderrunKick)
}

// Accumulator returns the raw 32-bit accumulator value (test hook).
func (f *Feedback) Accumulator() uint32 {
	return f.accumulator
}

// Report serializes accumulator>>rshift as a little-endian value of the
// size dictated by the negotiated USB speed, ready for the caller to
// hand to the sync endpoint.
func (f *Feedback) Report() []byte {
	value := f.accumulator >> f.Rshift()

	binary.LittleEndian.PutUint32(f.report[:], value)

	report := f.report[:f.NBytes()]

	if f.cache != nil {
		f.cache.FlushBeforeTransmit(report)
	}

	return report
}

// SyncFunction returns the callback for the feedback sync endpoint: each
// call refreshes and returns the current report.
func (f *Feedback) SyncFunction() func(out []byte, lastErr error) (in []byte, err error) {
	return func(out []byte, lastErr error) (in []byte, err error) {
		return f.Report(), nil
	}
}
