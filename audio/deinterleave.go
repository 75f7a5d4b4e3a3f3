// https://github.com/usbarmory/usbaudio
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package audio

import "encoding/binary"

// deinterleaveStereo splits n stereo samples packed as little-endian
// 32-bit words (low 16 bits = left, high 16 bits = right) out of src into
// the left and right destination slices, starting at index 0 of each.
// src must hold at least n*4 bytes.
//
// A single scalar loop suffices here: []int16 element writes are
// bounds- and alignment-safe by construction, so no aligned-word fast
// path with scalar prefix/tail phases is needed.
func deinterleaveStereo(src []byte, left, right []int16, n int) {
	for i := 0; i < n; i++ {
		word := binary.LittleEndian.Uint32(src[i*4:])
		left[i] = int16(word & 0xFFFF)
		right[i] = int16(word >> 16)
	}
}

// interleaveChannels packs n sample-frames from channels (each a slice
// indexed by channels[c][offset+i]) into dst as little-endian 32-bit
// words, two channels per word (low = even channel, high = odd
// channel). len(channels) must be even. dst must hold at least
// n*2*len(channels) bytes.
func interleaveChannels(dst []byte, channels [][]int16, offset int, n int) {
	wordsPerFrame := len(channels) / 2

	for i := 0; i < n; i++ {
		for w := 0; w < wordsPerFrame; w++ {
			lo := uint32(uint16(channels[2*w][offset+i]))
			hi := uint32(uint16(channels[2*w+1][offset+i]))
			word := lo | (hi << 16)

			base := (i*wordsPerFrame + w) * 4
			binary.LittleEndian.PutUint32(dst[base:], word)
		}
	}
}
