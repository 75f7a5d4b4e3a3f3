// https://github.com/usbarmory/usbaudio
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package dma

import "testing"

func TestAllocZeroed(t *testing.T) {
	a := NewArena(4096)

	buf, err := a.Alloc(64, 32)
	if err != nil {
		t.Fatal(err)
	}

	if len(buf) != 64 {
		t.Fatalf("len = %d, want 64", len(buf))
	}

	for i, b := range buf {
		if b != 0 {
			t.Fatalf("buf[%d] = %d, want 0", i, b)
		}
	}
}

func TestAllocAlignment(t *testing.T) {
	a := NewArena(4096)

	// force an unaligned first block by taking a small slice first
	if _, err := a.Alloc(3, 0); err != nil {
		t.Fatal(err)
	}

	buf, err := a.Alloc(64, 32)
	if err != nil {
		t.Fatal(err)
	}

	if a.offsetOf(buf)%32 != 0 {
		t.Fatalf("offset %d is not 32-byte aligned", a.offsetOf(buf))
	}
}

func TestFreeAndReuse(t *testing.T) {
	a := NewArena(128)

	buf1, err := a.Alloc(64, 0)
	if err != nil {
		t.Fatal(err)
	}

	buf2, err := a.Alloc(64, 0)
	if err != nil {
		t.Fatal(err)
	}

	a.Free(buf1)
	a.Free(buf2)

	// the whole arena should have recombined into one free block
	if a.freeBlocks.Len() != 1 {
		t.Fatalf("free list has %d entries after defrag, want 1", a.freeBlocks.Len())
	}

	buf3, err := a.Alloc(128, 0)
	if err != nil {
		t.Fatalf("expected coalesced free space to satisfy a 128 byte request: %v", err)
	}

	if len(buf3) != 128 {
		t.Fatalf("len = %d, want 128", len(buf3))
	}
}

func TestAllocOutOfMemory(t *testing.T) {
	a := NewArena(16)

	if _, err := a.Alloc(17, 0); err == nil {
		t.Fatal("expected error allocating more than arena size")
	}
}
