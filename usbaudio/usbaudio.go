// https://github.com/usbarmory/usbaudio
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package usbaudio holds the USB Audio Class 1.0 constants, control
// transfer header, and endpoint-function shape shared by the engine in
// package audio. It intentionally stops short of assembling full
// device/configuration descriptors or handling enumeration: that is the
// external USB device stack's responsibility.
package usbaudio

import (
	"bytes"
	"encoding/binary"
)

// Feature unit control selectors, USB Audio Class 1.0 Table A-6 (subset:
// mute and volume, the only controls this engine implements).
const (
	CS_MUTE   = 0x01
	CS_VOLUME = 0x02
)

// Standard control requests relevant to feature unit access, USB Audio
// Class 1.0 Table A-9 / USB 2.0 bRequest codes reused by the class.
const (
	SET_CUR = 0x01
	GET_CUR = 0x81
	GET_MIN = 0x82
	GET_MAX = 0x83
	GET_RES = 0x84
)

// bmRequestType values used for feature unit requests: host-to-device
// class-specific interface requests and the device-to-host counterpart.
const (
	REQUEST_TYPE_SET = 0x21
	REQUEST_TYPE_GET = 0xA1
)

// FeatureMaxVolume is the maximum accepted volume control value.
const FeatureMaxVolume = 0xFF

// SetupData is the control transfer header delivered with every SETUP
// packet (USB Specification Revision 2.0, Table 9-2), with accessors
// for the Audio Class 1.0 sub-fields packed into Value/Index: the
// control selector in the high byte of Value, the channel number in
// its low byte, the entity ID in the high byte of Index.
type SetupData struct {
	RequestType uint8
	Request     uint8
	Value       uint16
	Index       uint16
	Length      uint16
}

// ControlSelector returns the control selector packed in the high byte
// of Value (CS_MUTE, CS_VOLUME, ...).
func (s SetupData) ControlSelector() uint8 {
	return uint8(s.Value >> 8)
}

// Channel returns the channel number packed in the low byte of Value
// (0 = master channel).
func (s SetupData) Channel() uint8 {
	return uint8(s.Value)
}

// EntityID returns the feature/terminal unit ID packed in the high byte
// of Index.
func (s SetupData) EntityID() uint8 {
	return uint8(s.Index >> 8)
}

// EndpointFunction is the callback shape an isochronous endpoint
// handler is driven with: on an OUT endpoint, out carries the bytes the
// host just sent and the return value is ignored; on an IN endpoint out
// is nil and the returned slice is transmitted to the host.
type EndpointFunction func(out []byte, lastErr error) (in []byte, err error)

// Audio Class 1.0 class-specific descriptor constants (Table 4-1, Audio
// Data Formats 1.0 / Table 4-6, Audio Class 1.0).
const (
	CS_INTERFACE  = 0x24
	FEATURE_UNIT  = 0x06
	AUDIO_CONTROL = 0x01
)

// FeatureUnitDescriptor implements the Audio Class 1.0 Feature Unit
// descriptor (Table 4-9) restricted to one logical channel (master) and
// the two controls this engine exposes (mute, volume). Building the full
// configuration/interface descriptor set that embeds this is the
// external USB stack's job; this type exists so that stack has the
// correct bytes to embed.
type FeatureUnitDescriptor struct {
	Length            uint8
	DescriptorType    uint8
	DescriptorSubType uint8
	UnitID            uint8
	SourceID          uint8
	ControlSize       uint8
	// bmaControls for the master channel: bit 0 = mute, bit 1 = volume.
	Controls uint8
	// iFeature string descriptor index (0 = none).
	Feature uint8
}

// SetDefaults initializes the descriptor to the shape this engine
// requires: master-channel mute + volume, no per-channel overrides.
func (d *FeatureUnitDescriptor) SetDefaults() {
	d.Length = 8
	d.DescriptorType = CS_INTERFACE
	d.DescriptorSubType = FEATURE_UNIT
	d.ControlSize = 1
	d.Controls = 0x03
}

// Bytes converts the descriptor to its wire format.
func (d *FeatureUnitDescriptor) Bytes() []byte {
	buf := new(bytes.Buffer)

	binary.Write(buf, binary.LittleEndian, d.Length)
	binary.Write(buf, binary.LittleEndian, d.DescriptorType)
	binary.Write(buf, binary.LittleEndian, d.DescriptorSubType)
	binary.Write(buf, binary.LittleEndian, d.UnitID)
	binary.Write(buf, binary.LittleEndian, d.SourceID)
	binary.Write(buf, binary.LittleEndian, d.ControlSize)
	binary.Write(buf, binary.LittleEndian, d.Controls)
	binary.Write(buf, binary.LittleEndian, d.Feature)

	return buf.Bytes()
}
