package decoder

import (
	"encoding/binary"

	"github.com/lanescope/lanescope/internal/core"
)

// K symbols used for framing on 8b/10b links.
const (
	kCOM = 0xBC // K28.5, ordered set start
	kSTP = 0xFB // K27.7, TLP start
	kSDP = 0x5C // K28.2, DLLP start
	kEND = 0xFD // K29.7, good end
	kEDB = 0xFE // K30.7, bad end
	kPAD = 0xF7 // K23.7
	kSKP = 0x1C // K28.0
	kFTS = 0x3C // K28.1
	kIDL = 0x7C // K28.3
	kEIE = 0xFC // K28.7

	tsTypeTS1         = 0x4A
	tsTypeTS2         = 0x45
	tsTypeTS1Inverted = 0xB5
	tsTypeTS2Inverted = 0xBA

	dllpFrameLen = 6
)

// DecodeFrame decodes a link frame: a TLP with its sequence number and
// LCRC, a DLLP, or an ordered set, selected by the leading K symbol.
func DecodeFrame(data []byte) (*core.Frame, error) {
	if len(data) < 1 {
		return nil, core.ErrFrameTooShort
	}
	frame := &core.Frame{Kind: core.FrameUnknown, StartTag: data[0], Raw: data}

	switch data[0] {
	case kSTP:
		return decodeTLPFrame(frame, data)
	case kSDP:
		return decodeDLLPFrame(frame, data)
	case kCOM:
		return decodeOrderedSet(frame, data)
	}
	return frame, nil
}

func decodeTLPFrame(frame *core.Frame, data []byte) (*core.Frame, error) {
	frame.Kind = core.FrameTLP
	if len(data) < 3+4 {
		return frame, core.ErrFrameTooShort
	}

	resSeq := binary.BigEndian.Uint16(data[1:3])
	if res := resSeq >> 12; res != 0 {
		frame.Warnings = append(frame.Warnings, core.Warning{
			Field: "frame.tlp.reserved", Offset: 1, Len: 2,
			Msg: "reserved bits set before sequence number",
		})
	}
	frame.Seq = resSeq & 0x0FFF

	// The frame carries no explicit length, so the first dword of the TLP
	// is peeked to size the header, payload, and optional digest.
	dw0 := binary.BigEndian.Uint32(data[3:7])
	fmtType := uint8(dw0 >> 24)
	hdrDW := 3
	if fmtType>>5&0b001 != 0 {
		hdrDW = 4
	}
	payloadDW := 0
	if fmtType>>5&0b010 != 0 {
		payloadDW = int(lengthFromDW0(dw0))
	}
	ecrcDW := 0
	if dw0&(1<<15) != 0 {
		ecrcDW = 1
	}
	tlpLen := 4 * (hdrDW + payloadDW + ecrcDW)

	if len(data) < 3+tlpLen+4+1 {
		return frame, core.ErrFrameTooShort
	}

	tlp, err := DecodeTLP(data[3 : 3+tlpLen])
	if err != nil {
		return frame, err
	}
	frame.TLP = tlp

	frame.LCRC = binary.LittleEndian.Uint32(data[3+tlpLen : 3+tlpLen+4])
	frame.LCRCValid = frame.LCRC == lcrc32(data[1:3+tlpLen])
	if !frame.LCRCValid {
		frame.Warnings = append(frame.Warnings, core.Warning{
			Field: "frame.lcrc", Offset: 3 + tlpLen, Len: 4,
			Msg: "LCRC does not match frame contents",
		})
	}

	frame.EndTag = data[3+tlpLen+4]
	if frame.EndTag != kEND {
		frame.Warnings = append(frame.Warnings, core.Warning{
			Field: "frame.end_tag", Offset: 3 + tlpLen + 4, Len: 1,
			Msg: "frame not terminated by END symbol",
		})
	}
	return frame, nil
}

func decodeDLLPFrame(frame *core.Frame, data []byte) (*core.Frame, error) {
	frame.Kind = core.FrameDLLP
	if len(data) < 1+dllpFrameLen+1 {
		return frame, core.ErrFrameTooShort
	}

	// Six-byte packets are the standard form. When END is not at the fixed
	// offset but does terminate the frame, the body length is taken from
	// the frame length instead.
	end := 1 + dllpFrameLen
	if data[end] != kEND && len(data)-1 > end && data[len(data)-1] == kEND {
		end = len(data) - 1
	}

	dllp, err := DecodeDLLP(data[1:end])
	if err != nil {
		return frame, err
	}
	frame.DLLP = dllp

	frame.EndTag = data[end]
	if frame.EndTag != kEND {
		frame.Warnings = append(frame.Warnings, core.Warning{
			Field: "frame.end_tag", Offset: end, Len: 1,
			Msg: "frame not terminated by END symbol",
		})
	}
	return frame, nil
}

func decodeOrderedSet(frame *core.Frame, data []byte) (*core.Frame, error) {
	frame.Kind = core.FrameOrderedSet
	if len(data) < 2 {
		return frame, core.ErrFrameTooShort
	}
	frame.OrderedSet = &core.OrderedSet{}

	switch {
	case data[1] == kSKP:
		frame.OrderedSet.Kind = core.OrderedSetSkip
	case len(data) >= 4 && data[1] == kFTS && data[2] == kFTS && data[3] == kFTS:
		frame.OrderedSet.Kind = core.OrderedSetFastTraining
	case len(data) >= 4 && data[1] == kIDL && data[2] == kIDL && data[3] == kIDL:
		frame.OrderedSet.Kind = core.OrderedSetElectricalIdle
	case data[1] == kEIE:
		frame.OrderedSet.Kind = core.OrderedSetElectricalIdleExit
	default:
		if len(data) < 7 {
			return frame, core.ErrFrameTooShort
		}
		switch data[6] {
		case tsTypeTS1:
			frame.OrderedSet.Kind = core.OrderedSetTS1
		case tsTypeTS2:
			frame.OrderedSet.Kind = core.OrderedSetTS2
		case tsTypeTS1Inverted:
			frame.OrderedSet.Kind = core.OrderedSetTS1Inverted
			return frame, nil
		case tsTypeTS2Inverted:
			frame.OrderedSet.Kind = core.OrderedSetTS2Inverted
			return frame, nil
		default:
			frame.OrderedSet = nil
			frame.Kind = core.FrameUnknown
			return frame, nil
		}
		frame.OrderedSet.TS = decodeTrainingSet(data)
	}
	return frame, nil
}

func decodeTrainingSet(data []byte) *core.TrainingSet {
	rate := data[4]
	ctl := data[5]
	return &core.TrainingSet{
		LinkNumber: data[1],
		LaneNumber: data[2],
		NFTS:       data[3],
		DataRate: core.DataRate{
			SpeedChange:      rate&0x80 != 0,
			AutonomousChange: rate&0x40 != 0,
			LinkSpeeds:       rate & 0x3E >> 1,
			FlitMode:         rate&0x01 != 0,
		},
		TrainingControl: core.TrainingControl{
			ELBC:               ctl & 0xC0 >> 6,
			ModifiedCompliance: ctl&0x20 != 0,
			ComplianceReceive:  ctl&0x10 != 0,
			DisableScrambling:  ctl&0x08 != 0,
			Loopback:           ctl&0x04 != 0,
			DisableLink:        ctl&0x02 != 0,
			HotReset:           ctl&0x01 != 0,
		},
	}
}
