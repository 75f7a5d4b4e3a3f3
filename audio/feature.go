// https://github.com/usbarmory/usbaudio
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package audio

import (
	"fmt"

	"github.com/usbarmory/usbaudio/usbaudio"
)

// Feature implements Audio Class 1.0 Feature Control: mute and volume
// on the audio control endpoint's feature unit.
type Feature struct {
	entityID uint8

	mute   uint8
	volume uint16
	change bool
}

// NewFeature constructs a Feature handler bound to a single feature
// unit entity, starting at the power-on defaults. Requests addressing
// a different entity ID are rejected.
func NewFeature(entityID uint8) *Feature {
	f := &Feature{entityID: entityID}
	f.Reset()

	return f
}

// Reset returns mute/volume to power-on defaults: unmuted, maximum
// volume. Applied at construction, and again only on an actual device
// reset: unlike Playback/Capture, Feature state survives a Configure
// that merely renegotiates the streaming interface (see
// Engine.Configure).
func (f *Feature) Reset() {
	f.mute = 0
	f.volume = usbaudio.FeatureMaxVolume
	f.change = false
}

// HandleSetup dispatches one control-endpoint SETUP request. payload
// holds the data stage for SET_CUR requests and is unused otherwise.
// ack is false for any request this engine does not recognize,
// signalling the caller to STALL the control pipe; err is non-nil only
// for malformed host data.
func (f *Feature) HandleSetup(setup usbaudio.SetupData, payload []byte) (resp []byte, ack bool, err error) {
	if setup.EntityID() != f.entityID {
		return nil, false, nil
	}

	cs := setup.ControlSelector()

	switch setup.RequestType {
	case usbaudio.REQUEST_TYPE_SET:
		if setup.Request != usbaudio.SET_CUR {
			return nil, false, nil
		}
		return f.setCur(cs, payload)

	case usbaudio.REQUEST_TYPE_GET:
		switch setup.Request {
		case usbaudio.GET_CUR:
			return f.getCur(cs)
		case usbaudio.GET_MIN:
			return f.getMin(cs)
		case usbaudio.GET_MAX:
			return f.getMax(cs)
		case usbaudio.GET_RES:
			return f.getRes(cs)
		}
	}

	return nil, false, nil
}

func (f *Feature) setCur(cs uint8, payload []byte) (resp []byte, ack bool, err error) {
	switch cs {
	case usbaudio.CS_MUTE:
		if len(payload) < 1 {
			return nil, false, fmt.Errorf("usbaudio: SET_CUR mute: short payload (%d bytes)", len(payload))
		}
		f.mute = payload[0]
		f.change = true
		return nil, true, nil

	case usbaudio.CS_VOLUME:
		if len(payload) < 1 {
			return nil, false, fmt.Errorf("usbaudio: SET_CUR volume: short payload (%d bytes)", len(payload))
		}
		f.volume = uint16(payload[0])
		f.change = true
		return nil, true, nil
	}

	return nil, false, nil
}

func (f *Feature) getCur(cs uint8) (resp []byte, ack bool, err error) {
	switch cs {
	case usbaudio.CS_MUTE:
		return []byte{f.mute}, true, nil
	case usbaudio.CS_VOLUME:
		return []byte{byte(f.volume), byte(f.volume >> 8)}, true, nil
	}

	return nil, false, nil
}

func (f *Feature) getMin(cs uint8) (resp []byte, ack bool, err error) {
	if cs != usbaudio.CS_VOLUME {
		return nil, false, nil
	}
	return []byte{0x00, 0x00}, true, nil
}

func (f *Feature) getMax(cs uint8) (resp []byte, ack bool, err error) {
	if cs != usbaudio.CS_VOLUME {
		return nil, false, nil
	}
	return []byte{byte(usbaudio.FeatureMaxVolume), 0x00}, true, nil
}

func (f *Feature) getRes(cs uint8) (resp []byte, ack bool, err error) {
	if cs != usbaudio.CS_VOLUME {
		return nil, false, nil
	}
	return []byte{0x01, 0x00}, true, nil
}

// Gain returns the normalized playback gain: 0 when muted, otherwise
// volume/255.
func (f *Feature) Gain() float64 {
	if f.mute != 0 {
		return 0.0
	}
	return float64(f.volume) / float64(usbaudio.FeatureMaxVolume)
}

// Changed reports whether mute or volume has been written since the
// last call, clearing the flag.
func (f *Feature) Changed() bool {
	c := f.change
	f.change = false
	return c
}
