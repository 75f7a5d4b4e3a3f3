// https://github.com/usbarmory/usbaudio
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package audio

import "testing"

// The power-on accumulator reports as 0x002C1999 little-endian over
// four bytes at High Speed.
func TestFeedbackReportHighSpeed(t *testing.T) {
	fb := &Feedback{}
	fb.Configure(true)

	if fb.Accumulator() != InitialAccumulator {
		t.Fatalf("accumulator = %d, want %d", fb.Accumulator(), InitialAccumulator)
	}

	report := fb.Report()
	want := []byte{0x99, 0x19, 0x2C, 0x00}

	if len(report) != 4 {
		t.Fatalf("len(report) = %d, want 4", len(report))
	}
	for i := range want {
		if report[i] != want[i] {
			t.Fatalf("report[%d] = 0x%02X, want 0x%02X", i, report[i], want[i])
		}
	}
}

func TestFeedbackReportFullSpeed(t *testing.T) {
	fb := &Feedback{}
	fb.Configure(false)

	report := fb.Report()
	if len(report) != 3 {
		t.Fatalf("len(report) = %d, want 3", len(report))
	}

	value := fb.Accumulator() >> 10
	if report[0] != byte(value) || report[1] != byte(value>>8) || report[2] != byte(value>>16) {
		t.Fatalf("report = % X does not match accumulator>>10 = %d", report, value)
	}
}

func TestFeedbackConfigureResetsAccumulator(t *testing.T) {
	fb := &Feedback{}
	fb.Configure(true)

	fb.Nudge(1000)
	fb.Kick()

	fb.Configure(true)

	if fb.Accumulator() != InitialAccumulator {
		t.Fatalf("accumulator after re-Configure = %d, want %d", fb.Accumulator(), InitialAccumulator)
	}
}

func TestFeedbackNudgeAndKick(t *testing.T) {
	fb := &Feedback{}
	fb.Configure(true)

	base := fb.Accumulator()

	fb.Nudge(100)
	if fb.Accumulator() != base+100 {
		t.Fatalf("accumulator = %d, want %d", fb.Accumulator(), base+100)
	}

	fb.Nudge(-50)
	if fb.Accumulator() != base+50 {
		t.Fatalf("accumulator = %d, want %d", fb.Accumulator(), base+50)
	}

	before := fb.Accumulator()
	fb.Kick()
	if fb.Accumulator() != before+uint32(UnderrunKick) {
		t.Fatalf("accumulator after kick = %d, want %d", fb.Accumulator(), before+uint32(UnderrunKick))
	}
}

func TestFeedbackRshiftAndNBytes(t *testing.T) {
	fb := &Feedback{}

	fb.Configure(true)
	if fb.Rshift() != 8 || fb.NBytes() != 4 {
		t.Fatalf("high speed: rshift=%d nbytes=%d, want 8,4", fb.Rshift(), fb.NBytes())
	}

	fb.Configure(false)
	if fb.Rshift() != 10 || fb.NBytes() != 3 {
		t.Fatalf("full speed: rshift=%d nbytes=%d, want 10,3", fb.Rshift(), fb.NBytes())
	}
}
