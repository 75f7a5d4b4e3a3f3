// https://github.com/usbarmory/usbaudio
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package dma implements a first-fit allocator over a fixed backing
// arena, handing out cache-line-aligned buffers for the scratch memory
// the USB audio engine shares with DMA: RX/TX isochronous packets, the
// sync-feedback value, and the capture interleave scratch.
//
// Unlike the target hardware, where a DMA region is a physical address
// range the controller can access directly, the portable arena here is a
// plain Go byte slice; callers on real hardware substitute a region
// backed by DMA-addressable memory and run cache maintenance (see
// internal/cache) around every handoff.
package dma

import (
	"container/list"
	"fmt"
	"unsafe"
)

// block is a free or in-use span of the arena.
type block struct {
	offset int
	size   int
}

// Arena is a fixed-size pool of cache-line-aligned buffers.
type Arena struct {
	mem        []byte
	freeBlocks *list.List
}

// NewArena allocates an arena of the given size.
func NewArena(size int) *Arena {
	a := &Arena{
		mem:        make([]byte, size),
		freeBlocks: list.New(),
	}

	a.freeBlocks.PushBack(&block{offset: 0, size: size})

	return a
}

func (a *Arena) defrag() {
	var prev *block

	for e := a.freeBlocks.Front(); e != nil; e = e.Next() {
		b := e.Value.(*block)

		if prev != nil && prev.offset+prev.size == b.offset {
			prev.size += b.size
			defer a.freeBlocks.Remove(e)
			continue
		}

		prev = b
	}
}

// Alloc reserves a buffer of at least size bytes, aligned to align bytes
// (0 for no alignment), and returns it zeroed.
func (a *Arena) Alloc(size int, align int) (buf []byte, err error) {
	need := size

	if align > 0 {
		need += align
	}

	var e *list.Element
	var found *block

	for e = a.freeBlocks.Front(); e != nil; e = e.Next() {
		b := e.Value.(*block)

		if b.size >= need {
			found = b
			break
		}
	}

	if found == nil {
		return nil, fmt.Errorf("dma: out of memory (requested %d bytes)", size)
	}

	a.freeBlocks.Remove(e)

	offset := found.offset

	if align > 0 {
		if r := offset % align; r != 0 {
			pad := align - r
			a.freeBlocks.PushBack(&block{offset: offset, size: pad})
			offset += pad
		}
	}

	if rest := found.offset + found.size - offset - size; rest > 0 {
		a.freeBlocks.PushBack(&block{offset: offset + size, size: rest})
	}

	buf = a.mem[offset : offset+size]

	for i := range buf {
		buf[i] = 0
	}

	return buf, nil
}

// Free returns a buffer previously returned by Alloc to the arena.
func (a *Arena) Free(buf []byte) {
	if len(buf) == 0 {
		return
	}

	offset := a.offsetOf(buf)
	b := &block{offset: offset, size: len(buf)}

	for e := a.freeBlocks.Front(); e != nil; e = e.Next() {
		if e.Value.(*block).offset > offset {
			a.freeBlocks.InsertBefore(b, e)
			a.defrag()
			return
		}
	}

	a.freeBlocks.PushBack(b)
	a.defrag()
}

// offsetOf returns the offset of buf within the arena's backing array,
// assuming buf's backing array is the arena's (true for every buffer this
// package hands out via Alloc).
func (a *Arena) offsetOf(buf []byte) int {
	base := uintptr(unsafe.Pointer(unsafe.SliceData(a.mem)))
	ptr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	return int(ptr - base)
}
