// https://github.com/usbarmory/usbaudio
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package sim

import "testing"

func TestPoolAllocateRelease(t *testing.T) {
	p := NewPool(2)

	if p.Available() != 2 {
		t.Fatalf("Available() = %d, want 2", p.Available())
	}

	b1, ok := p.Allocate()
	if !ok {
		t.Fatal("expected allocation to succeed")
	}
	if p.Available() != 1 {
		t.Fatalf("Available() = %d, want 1", p.Available())
	}

	if _, ok = p.Allocate(); !ok {
		t.Fatal("expected second allocation to succeed")
	}
	if _, ok = p.Allocate(); ok {
		t.Fatal("expected third allocation to fail: pool exhausted")
	}

	p.Release(b1)
	if p.Available() != 1 {
		t.Fatalf("Available() after release = %d, want 1", p.Available())
	}
}

func TestGraphLoopback(t *testing.T) {
	pool := NewPool(4)
	g := NewGraph(pool)

	b, _ := pool.Allocate()
	b.Data[0] = 42

	g.Transmit(b, 0)

	if g.Queued(0) != 1 {
		t.Fatalf("Queued(0) = %d, want 1", g.Queued(0))
	}

	out, ok := g.ReceiveWritable(0)
	if !ok {
		t.Fatal("expected a queued block to be receivable")
	}
	if out.Data[0] != 42 {
		t.Fatalf("out.Data[0] = %d, want 42", out.Data[0])
	}
	if g.Queued(0) != 0 {
		t.Fatalf("Queued(0) after drain = %d, want 0", g.Queued(0))
	}
}

func TestGraphReceiveEmptyChannel(t *testing.T) {
	g := NewGraph(NewPool(4))

	if _, ok := g.ReceiveWritable(3); ok {
		t.Fatal("expected ReceiveWritable on an empty channel to report false")
	}
}
