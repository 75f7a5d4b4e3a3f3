// https://github.com/usbarmory/usbaudio
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package audio implements the cross-domain flow-control engine that
// bridges a USB Audio Class 1.0 isochronous endpoint set and a local,
// block-based real-time audio processing graph: the Feedback Regulator,
// the Playback Path (host to device), the Capture Path (device to host),
// and Feature Control (mute/volume over the control endpoint).
package audio

// BlockSamples is N, the fixed number of samples in one audio block.
const BlockSamples = 128

// Block is a fixed-size buffer of 16-bit PCM samples, the unit of flow
// between this engine and the audio graph. It is allocated and released
// through a Pool; at most one writer owns a given Block at a time.
type Block struct {
	Data [BlockSamples]int16
}

// Pool is the external audio-block allocator. Allocate returns false when
// the global block pool is exhausted; callers must treat that as "drop
// and continue", never as fatal.
type Pool interface {
	Allocate() (*Block, bool)
	Release(*Block)
}

// Transmitter hands a completed Block to the audio graph on a given
// channel index. Ownership of b transfers to the callee's caller: the
// engine releases b back to the Pool immediately after calling Transmit.
type Transmitter interface {
	Transmit(b *Block, channel int)
}

// Receiver pulls a writable Block from the audio graph for a given
// channel index, or (nil, false) if the graph has nothing ready for that
// channel this tick.
type Receiver interface {
	ReceiveWritable(channel int) (*Block, bool)
}

// Graph is the combined collaborator interface the Capture Path needs;
// Playback only needs a Pool and a Transmitter.
type Graph interface {
	Receiver
}
