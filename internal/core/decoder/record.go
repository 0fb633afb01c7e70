// Package decoder implements the capture record, frame, and packet layer
// decoding for physical-layer link captures.
package decoder

import (
	"encoding/binary"
	"fmt"

	"github.com/lanescope/lanescope/internal/core"
)

const (
	recordHeaderLen = 20

	// Flag word bit assignments
	flagGap            = 0x40000000
	flagScrambled      = 0x20000000
	flagDirection      = 0x10000000
	flagElectricalIdle = 0x0FFFF000
	flagDisparityError = 0x00000800
	flagChannelBonded  = 0x00000400
	flagLinkSpeed      = 0x00000300
	flagStartLane      = 0x000000F0
	flagSymbolError    = 0x00000008
	flagLinkWidth      = 0x00000007
)

// DecodeRecord decodes the 20-byte capture record envelope and splits the
// remainder into the frame payload and, when present, the trailing symbol
// metadata region.
func DecodeRecord(data []byte) (*core.CaptureRecord, error) {
	if len(data) < recordHeaderLen {
		return nil, core.ErrRecordTooShort
	}

	rec := &core.CaptureRecord{
		Number:      binary.LittleEndian.Uint32(data[0:4]),
		TimestampNS: binary.LittleEndian.Uint64(data[4:12]),
	}

	// Older captures left these four bytes zero; a zero word means no LFSR
	// state and no metadata info were recorded.
	if binary.LittleEndian.Uint32(data[12:16]) != 0 {
		rec.HasMetaInfo = true
		rec.LFSR = binary.LittleEndian.Uint16(data[12:14])
		metaInfo := binary.LittleEndian.Uint16(data[14:16])
		rec.ExtraMeta = metaInfo&0x8000 != 0
		rec.MetaOffset = metaInfo & 0x7FFF
	}

	flags := binary.LittleEndian.Uint32(data[16:20])
	rec.Flags = core.RecordFlags{
		Gap:            flags&flagGap != 0,
		Scrambled:      flags&flagScrambled != 0,
		Direction:      core.Direction(flags & flagDirection >> 28),
		ElectricalIdle: uint16(flags & flagElectricalIdle >> 12),
		DisparityError: flags&flagDisparityError != 0,
		ChannelBonded:  flags&flagChannelBonded != 0,
		LinkSpeed:      core.LinkSpeed(flags & flagLinkSpeed >> 8),
		StartLane:      uint8(flags & flagStartLane >> 4),
		SymbolError:    flags&flagSymbolError != 0,
		LinkWidth:      core.LinkWidth(flags & flagLinkWidth),
	}

	if rec.Flags.DisparityError {
		rec.Warnings = append(rec.Warnings, core.Warning{
			Field: "flags.disparity_error", Offset: 16, Len: 4,
			Msg: "running disparity error in record",
		})
	}
	if rec.Flags.SymbolError {
		rec.Warnings = append(rec.Warnings, core.Warning{
			Field: "flags.symbol_error", Offset: 16, Len: 4,
			Msg: "symbol decode error in record",
		})
	}

	body := data[recordHeaderLen:]
	if rec.HasMetaInfo && rec.MetaOffset > 0 {
		if int(rec.MetaOffset) > len(body) {
			rec.Warnings = append(rec.Warnings, core.Warning{
				Field: "meta_info", Offset: 14, Len: 2,
				Msg: fmt.Sprintf("metadata offset %d beyond record end", rec.MetaOffset),
			})
			rec.Payload = body
			return rec, nil
		}
		rec.Payload = body[:rec.MetaOffset]
		rec.Meta = decodeMeta(rec, body[rec.MetaOffset:])
		return rec, nil
	}
	rec.Payload = body
	return rec, nil
}
