package decoder

import (
	"encoding/binary"

	"github.com/lanescope/lanescope/internal/core"
)

// symbolBlockLen computes the byte length of the 8b/10b metadata covering
// dataLen payload bytes: one 2-byte block per 8 symbols.
func symbolBlockLen(dataLen int) int {
	return 2 * ((dataLen + 7) / 8)
}

func decodeSymbolBlocks(data []byte) []core.SymbolBlock {
	blocks := make([]core.SymbolBlock, 0, len(data)/2)
	for off := 0; off+2 <= len(data); off += 2 {
		blocks = append(blocks, core.SymbolBlock{
			KSymbols:          data[off],
			DisparityPolarity: data[off+1],
		})
	}
	return blocks
}

// decodeMeta decodes the trailing symbol metadata region of a capture
// record. Decoding is best effort: a truncated or malformed region yields
// whatever was decoded up to that point, never an error.
func decodeMeta(rec *core.CaptureRecord, meta []byte) *core.SymbolMeta {
	blockLen := symbolBlockLen(int(rec.MetaOffset))
	if blockLen > len(meta) {
		return nil
	}

	sm := &core.SymbolMeta{Blocks: decodeSymbolBlocks(meta[:blockLen])}
	rest := meta[blockLen:]

	skipLFSR := false
	if rec.ExtraMeta {
		if len(rest) < 2 {
			return sm
		}
		extraLen := 2
		nextLen := 0
		if binary.BigEndian.Uint16(rest[0:2])&0x0001 != 0 {
			for extraLen+2 <= len(rest) {
				word := binary.BigEndian.Uint16(rest[extraLen : extraLen+2])
				extraLen += 2
				if word&0x0003 == 0 {
					skipLFSR = true
					break
				}
				if word&0x0003 == 1 {
					nextLen = int(word >> 4)
					break
				}
				extraLen += int(word >> 4)
			}
		} else {
			skipLFSR = true
		}
		if nextLen == 0 {
			skipLFSR = true
		}
		if extraLen > len(rest) {
			extraLen = len(rest)
		}
		sm.Extra = rest[:extraLen]
		rest = rest[extraLen:]
	}
	if skipLFSR || len(rest) == 0 {
		return sm
	}

	for off := 0; off < len(rest); {
		blk, n := decodeLFSRBlock(rest[off:])
		if n == 0 {
			break
		}
		sm.LFSRBlocks = append(sm.LFSRBlocks, blk)
		off += n
	}
	return sm
}

// decodeLFSRBlock decodes one LFSR metadata block and returns its total
// length, or zero when the block is invalid or truncated.
//
// Block layouts by type:
//
//	Type 1: idles after (32-bit BE), optional LFSR state (BE),
//	        data length (BE), data, 8b/10b metadata
//	Type 2: idles after (64-bit BE), optional LFSR state (BE),
//	        data length (LE), data, 8b/10b metadata
//	Type 3: idles after (64-bit BE), electrical idle state (LE),
//	        optional LFSR state (BE), data length (LE), data,
//	        8b/10b metadata
func decodeLFSRBlock(data []byte) (core.LFSRBlock, int) {
	if len(data) < 1 {
		return core.LFSRBlock{}, 0
	}
	control := data[0]
	blk := core.LFSRBlock{
		Control:   control,
		Type:      control & 0x30 >> 4,
		LinkSpeed: core.LinkSpeed(control & 0x03),
	}
	if blk.Type < 1 || blk.Type > 3 {
		return core.LFSRBlock{}, 0
	}
	off := 1

	switch blk.Type {
	case 1:
		if len(data) < off+4 {
			return core.LFSRBlock{}, 0
		}
		blk.IdlesAfter = uint64(binary.BigEndian.Uint32(data[off : off+4]))
		off += 4
	default:
		if len(data) < off+8 {
			return core.LFSRBlock{}, 0
		}
		blk.IdlesAfter = binary.BigEndian.Uint64(data[off : off+8])
		off += 8
	}

	if blk.Type == 3 {
		if len(data) < off+2 {
			return core.LFSRBlock{}, 0
		}
		blk.HasElectricalIdle = true
		blk.ElectricalIdle = binary.LittleEndian.Uint16(data[off : off+2])
		off += 2
	}

	if control&0x40 != 0 {
		if len(data) < off+2 {
			return core.LFSRBlock{}, 0
		}
		blk.HasLFSRState = true
		blk.LFSRState = binary.BigEndian.Uint16(data[off : off+2])
		off += 2
	}

	if len(data) < off+2 {
		return core.LFSRBlock{}, 0
	}
	var dataLen int
	if blk.Type == 1 {
		dataLen = int(binary.BigEndian.Uint16(data[off : off+2]))
	} else {
		dataLen = int(binary.LittleEndian.Uint16(data[off : off+2]))
	}
	off += 2

	metaLen := symbolBlockLen(dataLen)
	if len(data) < off+dataLen+metaLen {
		return core.LFSRBlock{}, 0
	}
	blk.Data = data[off : off+dataLen]
	off += dataLen
	blk.Blocks = decodeSymbolBlocks(data[off : off+metaLen])
	off += metaLen

	return blk, off
}
