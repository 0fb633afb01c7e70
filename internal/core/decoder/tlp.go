package decoder

import (
	"encoding/binary"

	"github.com/lanescope/lanescope/internal/core"
)

// lengthFromDW0 extracts the 10-bit payload length, where zero encodes
// 1024 dwords.
func lengthFromDW0(dw0 uint32) uint16 {
	length := uint16(dw0 & 0x3FF)
	if length == 0 {
		length = 1024
	}
	return length
}

// byteCountFromDW1 extracts the 12-bit completion byte count, where zero
// encodes 4096 bytes.
func byteCountFromDW1(dw1 uint32) uint16 {
	count := uint16(dw1 & 0xFFF)
	if count == 0 {
		count = 4096
	}
	return count
}

// DecodeTLP decodes a transaction layer packet. The input must span the
// whole TLP including the optional trailing digest. TLP Prefixes and
// unrecognized Fmt/Type values yield a TLP with a nil Header and no
// payload decode.
func DecodeTLP(data []byte) (*core.TLP, error) {
	if len(data) < 4 {
		return nil, core.ErrTLPTooShort
	}
	dw0 := binary.BigEndian.Uint32(data[0:4])

	t := &core.TLP{FmtType: uint8(dw0 >> 24)}
	if t.IsPrefix() {
		return t, nil
	}

	tag9 := uint16(dw0 >> 23 & 1)
	tag8 := uint16(dw0 >> 19 & 1)
	t.TrafficClass = uint8(dw0 >> 20 & 0x7)
	t.LN = dw0&(1<<17) != 0
	t.TH = dw0&(1<<16) != 0
	t.Digest = dw0&(1<<15) != 0
	t.Poisoned = dw0&(1<<14) != 0
	t.Attr = uint8(dw0>>18&1)<<2 | uint8(dw0>>12&0x3)
	t.AddrType = uint8(dw0 >> 10 & 0x3)

	if core.IsNoData(t.FmtType) {
		// The length field is reserved when the TLP neither carries nor
		// refers to data.
		if dw0&0x3FF != 0 {
			t.Warnings = append(t.Warnings, core.Warning{
				Field: "tlp.length", Offset: 1, Len: 3,
				Msg: "reserved length field is nonzero",
			})
		}
	} else {
		t.Length = lengthFromDW0(dw0)
	}

	headerLen := 12
	if t.FourDW() {
		headerLen = 16
	}
	if len(data) < headerLen {
		return nil, core.ErrTLPTooShort
	}

	var tag70 uint16
	switch t.FmtType {
	case 0b00000000, 0b00100000, 0b01000000, 0b01100000:
		hdr := core.MemRequest{
			Requester: core.DeviceID(binary.BigEndian.Uint16(data[4:6])),
			Tag70:     data[6],
			LastBE:    data[7] >> 4,
			FirstBE:   data[7] & 0x0F,
			Is64:      t.FourDW(),
		}
		if hdr.Is64 {
			addrPH := binary.BigEndian.Uint64(data[8:16])
			hdr.Addr = addrPH &^ 0x3
			hdr.Hint = uint8(addrPH & 0x3)
		} else {
			addrPH := binary.BigEndian.Uint32(data[8:12])
			hdr.Addr = uint64(addrPH &^ 0x3)
			hdr.Hint = uint8(addrPH & 0x3)
		}
		tag70 = uint16(hdr.Tag70)
		t.Header = hdr
	case 0b00000010, 0b01000010:
		hdr := core.IORequest{
			Requester: core.DeviceID(binary.BigEndian.Uint16(data[4:6])),
			Tag70:     data[6],
			LastBE:    data[7] >> 4,
			FirstBE:   data[7] & 0x0F,
			Addr:      binary.BigEndian.Uint32(data[8:12]),
		}
		tag70 = uint16(hdr.Tag70)
		t.Header = hdr
	case 0b00000100, 0b01000100, 0b00000101, 0b01000101:
		hdr := core.CfgRequest{
			Requester: core.DeviceID(binary.BigEndian.Uint16(data[4:6])),
			Tag70:     data[6],
			LastBE:    data[7] >> 4,
			FirstBE:   data[7] & 0x0F,
			Completer: core.DeviceID(binary.BigEndian.Uint16(data[8:10])),
			Register:  binary.BigEndian.Uint16(data[10:12]) >> 2 & 0x3FF,
		}
		tag70 = uint16(hdr.Tag70)
		t.Header = hdr
	case 0b00001010, 0b01001010:
		dw1 := binary.BigEndian.Uint32(data[4:8])
		hdr := core.Completion{
			Completer: core.DeviceID(uint16(dw1 >> 16)),
			Status:    core.CompletionStatus(dw1 >> 13 & 0x7),
			BCM:       dw1&(1<<12) != 0,
			ByteCount: byteCountFromDW1(dw1),
			Requester: core.DeviceID(binary.BigEndian.Uint16(data[8:10])),
			Tag70:     data[10],
			LowerAddr: data[11] & 0x7F,
		}
		if hdr.Status != core.StatusSuccessful {
			t.Warnings = append(t.Warnings, core.Warning{
				Field: "tlp.cpl.status", Offset: 4, Len: 2,
				Msg: "completion status not successful",
			})
		}
		tag70 = uint16(hdr.Tag70)
		t.Header = hdr
	default:
		if !core.IsMessage(t.FmtType) {
			return t, nil
		}
		hdr := core.MsgRequest{
			Requester: core.DeviceID(binary.BigEndian.Uint16(data[4:6])),
			Tag70:     data[6],
			Code:      data[7],
		}
		tag70 = uint16(hdr.Tag70)
		t.Header = hdr
	}
	t.Tag = tag9<<9 | tag8<<8 | tag70

	hdrDW := headerLen / 4
	if t.HasData() {
		if len(data) < 4*(hdrDW+int(t.Length)) {
			return nil, core.ErrTLPTooShort
		}
		t.Payload = make([]uint32, t.Length)
		for i := range t.Payload {
			off := 4 * (hdrDW + i)
			t.Payload[i] = binary.LittleEndian.Uint32(data[off : off+4])
		}
	}

	if t.Digest {
		ecrcOff := 4 * (hdrDW + len(t.Payload))
		if len(data) < ecrcOff+4 {
			return nil, core.ErrTLPTooShort
		}
		t.ECRC = binary.LittleEndian.Uint32(data[ecrcOff : ecrcOff+4])

		// All bits of the Variant fields (EP and Type[0]) are set to one
		// before the digest is computed.
		modified := dw0 | 0x01004000
		var dw0buf [4]byte
		binary.BigEndian.PutUint32(dw0buf[:], modified)
		t.ECRCValid = t.ECRC == ecrc32(dw0buf, data[4:ecrcOff])
		if !t.ECRCValid {
			t.Warnings = append(t.Warnings, core.Warning{
				Field: "tlp.ecrc", Offset: ecrcOff, Len: 4,
				Msg: "ECRC does not match TLP contents",
			})
		}
	}
	return t, nil
}
