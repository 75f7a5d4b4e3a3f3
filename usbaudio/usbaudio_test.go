// https://github.com/usbarmory/usbaudio
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package usbaudio

import "testing"

func TestSetupDataFieldPacking(t *testing.T) {
	s := SetupData{
		RequestType: REQUEST_TYPE_SET,
		Request:     SET_CUR,
		Value:       uint16(CS_VOLUME)<<8 | 0x03,
		Index:       uint16(2)<<8 | 0x01,
	}

	if s.ControlSelector() != CS_VOLUME {
		t.Fatalf("ControlSelector() = 0x%02X, want 0x%02X", s.ControlSelector(), CS_VOLUME)
	}
	if s.Channel() != 0x03 {
		t.Fatalf("Channel() = 0x%02X, want 0x03", s.Channel())
	}
	if s.EntityID() != 2 {
		t.Fatalf("EntityID() = %d, want 2", s.EntityID())
	}
}

func TestFeatureUnitDescriptorBytes(t *testing.T) {
	d := &FeatureUnitDescriptor{UnitID: 2, SourceID: 1}
	d.SetDefaults()

	buf := d.Bytes()
	want := []byte{8, CS_INTERFACE, FEATURE_UNIT, 2, 1, 1, 0x03, 0}

	if len(buf) != len(want) {
		t.Fatalf("len(Bytes()) = %d, want %d", len(buf), len(want))
	}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("Bytes()[%d] = 0x%02X, want 0x%02X", i, buf[i], want[i])
		}
	}
}
