package decoder

import (
	"encoding/binary"

	"github.com/lanescope/lanescope/internal/core"
)

// DecodeDLLP decodes a data link layer packet: a type byte, three payload
// bytes, and a trailing 16-bit CRC. Packets are normally six bytes; longer
// bodies are accepted with the CRC still taken from the last two bytes.
func DecodeDLLP(data []byte) (*core.DLLP, error) {
	if len(data) < dllpFrameLen {
		return nil, core.ErrDLLPTooShort
	}

	d := &core.DLLP{Type: data[0]}
	if len(data) != dllpFrameLen {
		d.Warnings = append(d.Warnings, core.Warning{
			Field: "dllp.length", Offset: 0, Len: len(data),
			Msg: "nonstandard packet length",
		})
	}
	val := uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])

	switch {
	case d.Type == core.DLLPTypeAck || d.Type == core.DLLPTypeNak:
		if res := val >> 12; res != 0 {
			d.Warnings = append(d.Warnings, core.Warning{
				Field: "dllp.ack_nak.reserved", Offset: 1, Len: 3,
				Msg: "reserved bits set before sequence number",
			})
		}
		d.Payload = core.AckNak{
			Nak: d.Type == core.DLLPTypeNak,
			Seq: uint16(val & 0x0FFF),
		}
	case d.Type == core.DLLPTypeFeature:
		d.Payload = core.DataLinkFeature{
			Ack:           val&0x800000 != 0,
			LocalScaledFC: val&0x000001 != 0,
		}
	case core.IsPMDLLP(d.Type):
		if val != 0 {
			d.Warnings = append(d.Warnings, core.Warning{
				Field: "dllp.pm.reserved", Offset: 1, Len: 3,
				Msg: "reserved bits set in power management packet",
			})
		}
		d.Payload = core.PowerManagement{}
	case core.IsFCDLLP(d.Type):
		fc := core.FlowControl{
			HdrScale:    uint8(val >> 22 & 0x3),
			HdrCredits:  val >> 14 & 0xFF,
			DataScale:   uint8(val >> 12 & 0x3),
			DataCredits: val & 0x0FFF,
		}
		fc.HdrCredits *= creditScale(fc.HdrScale)
		fc.DataCredits *= creditScale(fc.DataScale)
		d.Payload = fc
	}

	crcOff := len(data) - 2
	d.CRC = binary.LittleEndian.Uint16(data[crcOff:])
	d.CRCValid = d.CRC == dllpCRC16(data[:crcOff])
	if !d.CRCValid {
		d.Warnings = append(d.Warnings, core.Warning{
			Field: "dllp.crc", Offset: crcOff, Len: 2,
			Msg: "CRC does not match packet contents",
		})
	}
	return d, nil
}

func creditScale(scale uint8) uint32 {
	switch scale {
	case 2:
		return 4
	case 3:
		return 16
	}
	return 1
}
