package decoder

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lanescope/lanescope/internal/core"
)

func TestSymbolBlockLen(t *testing.T) {
	cases := []struct{ dataLen, want int }{
		{0, 0}, {1, 2}, {8, 2}, {9, 4}, {16, 4}, {17, 6},
	}
	for _, c := range cases {
		if got := symbolBlockLen(c.dataLen); got != c.want {
			t.Errorf("symbolBlockLen(%d): Expected %d, got %d", c.dataLen, c.want, got)
		}
	}
}

func TestDecodeMetaSymbolBlocksOnly(t *testing.T) {
	rec := &core.CaptureRecord{MetaOffset: 12}
	meta := []byte{0x80, 0x01, 0x03, 0x00}
	sm := decodeMeta(rec, meta)
	if sm == nil {
		t.Fatal("Expected metadata decoded")
	}
	want := []core.SymbolBlock{
		{KSymbols: 0x80, DisparityPolarity: 0x01},
		{KSymbols: 0x03, DisparityPolarity: 0x00},
	}
	if diff := cmp.Diff(want, sm.Blocks); diff != "" {
		t.Errorf("symbol blocks mismatch (-want +got):\n%s", diff)
	}
	if sm.Extra != nil || sm.LFSRBlocks != nil {
		t.Error("Expected no extra metadata or LFSR blocks")
	}
}

func TestDecodeMetaRegionTooShort(t *testing.T) {
	rec := &core.CaptureRecord{MetaOffset: 16}
	if sm := decodeMeta(rec, []byte{0x00, 0x00}); sm != nil {
		t.Errorf("Expected nil metadata for short region, got %+v", sm)
	}
}

func TestDecodeMetaExtraGatesLFSR(t *testing.T) {
	// LFSR block appended after the extra region. Type 1, speed 2.5 GT/s,
	// no stored state: 5 idles, 3 data bytes, one trailing 8b/10b block.
	lfsr := []byte{
		0x11,
		0x00, 0x00, 0x00, 0x05,
		0x00, 0x03,
		0xAA, 0xBB, 0xCC,
		0x01, 0x02,
	}

	cases := []struct {
		name      string
		extra     []byte
		wantExtra int
		wantLFSR  bool
	}{
		{
			name:      "continue word keeps lfsr",
			extra:     []byte{0x00, 0x01, 0x00, 0xC1},
			wantExtra: 4,
			wantLFSR:  true,
		},
		{
			name:      "even start skips lfsr",
			extra:     []byte{0x00, 0x00},
			wantExtra: 2,
			wantLFSR:  false,
		},
		{
			name:      "terminator word skips lfsr",
			extra:     []byte{0x00, 0x01, 0x00, 0x00},
			wantExtra: 4,
			wantLFSR:  false,
		},
		{
			name:      "skip word then terminator",
			extra:     []byte{0x00, 0x01, 0x00, 0x22, 0xDE, 0xAD, 0x00, 0x00},
			wantExtra: 8,
			wantLFSR:  false,
		},
		{
			name:      "zero next length skips lfsr",
			extra:     []byte{0x00, 0x01, 0x00, 0x01},
			wantExtra: 4,
			wantLFSR:  false,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := &core.CaptureRecord{MetaOffset: 8, ExtraMeta: true}
			meta := append([]byte{0x00, 0x00}, c.extra...)
			meta = append(meta, lfsr...)
			sm := decodeMeta(rec, meta)
			if sm == nil {
				t.Fatal("Expected metadata decoded")
			}
			if len(sm.Extra) != c.wantExtra {
				t.Errorf("Expected %d extra bytes, got %d", c.wantExtra, len(sm.Extra))
			}
			if c.wantLFSR {
				if len(sm.LFSRBlocks) != 1 {
					t.Fatalf("Expected 1 LFSR block, got %d", len(sm.LFSRBlocks))
				}
				blk := sm.LFSRBlocks[0]
				if blk.Type != 1 || blk.IdlesAfter != 5 {
					t.Errorf("Expected type 1 with 5 idles, got type %d with %d", blk.Type, blk.IdlesAfter)
				}
				if diff := cmp.Diff([]byte{0xAA, 0xBB, 0xCC}, blk.Data); diff != "" {
					t.Errorf("block data mismatch (-want +got):\n%s", diff)
				}
			} else if len(sm.LFSRBlocks) != 0 {
				t.Errorf("Expected no LFSR blocks, got %d", len(sm.LFSRBlocks))
			}
		})
	}
}

func TestDecodeLFSRBlockType2WithState(t *testing.T) {
	data := []byte{
		0x63,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00,
		0x1D, 0xBF,
		0x00, 0x00,
	}
	blk, n := decodeLFSRBlock(data)
	if n != len(data) {
		t.Fatalf("Expected block length %d, got %d", len(data), n)
	}
	if blk.Type != 2 {
		t.Errorf("Expected type 2, got %d", blk.Type)
	}
	if blk.LinkSpeed != core.LinkSpeed5G0 {
		t.Errorf("Expected 5.0 GT/s, got %v", blk.LinkSpeed)
	}
	if blk.IdlesAfter != 0x100 {
		t.Errorf("Expected 0x100 idles, got 0x%x", blk.IdlesAfter)
	}
	if !blk.HasLFSRState || blk.LFSRState != 0x1DBF {
		t.Errorf("Expected stored LFSR state 0x1DBF, got %v 0x%04X", blk.HasLFSRState, blk.LFSRState)
	}
	if len(blk.Data) != 0 {
		t.Errorf("Expected empty data, got %d bytes", len(blk.Data))
	}
}

func TestDecodeLFSRBlockType3ElectricalIdle(t *testing.T) {
	data := []byte{
		0x32,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x07,
		0x34, 0x12,
		0x01, 0x00,
		0x5A,
		0x01, 0x00,
	}
	blk, n := decodeLFSRBlock(data)
	if n != len(data) {
		t.Fatalf("Expected block length %d, got %d", len(data), n)
	}
	if blk.Type != 3 {
		t.Errorf("Expected type 3, got %d", blk.Type)
	}
	if blk.IdlesAfter != 7 {
		t.Errorf("Expected 7 idles, got %d", blk.IdlesAfter)
	}
	if !blk.HasElectricalIdle || blk.ElectricalIdle != 0x1234 {
		t.Errorf("Expected electrical idle 0x1234, got %v 0x%04X", blk.HasElectricalIdle, blk.ElectricalIdle)
	}
	if blk.HasLFSRState {
		t.Error("Expected no stored LFSR state")
	}
	if diff := cmp.Diff([]byte{0x5A}, blk.Data); diff != "" {
		t.Errorf("block data mismatch (-want +got):\n%s", diff)
	}
	if len(blk.Blocks) != 1 {
		t.Errorf("Expected 1 trailing symbol block, got %d", len(blk.Blocks))
	}
}

func TestDecodeLFSRBlockInvalid(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"reserved type", []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}},
		{"truncated idle count", []byte{0x11, 0x00, 0x00}},
		{"data past end", []byte{0x11, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0xAA}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, n := decodeLFSRBlock(c.data); n != 0 {
				t.Errorf("Expected zero length for invalid block, got %d", n)
			}
		})
	}
}
