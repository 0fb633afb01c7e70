// Package core defines the decoded capture record model with zero external dependencies.
package core

import "fmt"

// Direction of a captured record along the link.
type Direction uint8

const (
	DirectionDownstream Direction = iota // root complex toward endpoint
	DirectionUpstream                    // endpoint toward root complex
)

func (d Direction) String() string {
	if d == DirectionUpstream {
		return "Upstream"
	}
	return "Downstream"
}

// LinkSpeed as encoded in the capture flags word.
type LinkSpeed uint8

const (
	LinkSpeed2G5 LinkSpeed = 0x1 // 2.5 GT/s
	LinkSpeed5G0 LinkSpeed = 0x3 // 5.0 GT/s
)

func (s LinkSpeed) String() string {
	switch s {
	case LinkSpeed2G5:
		return "2.5 GT/s"
	case LinkSpeed5G0:
		return "5.0 GT/s"
	}
	return fmt.Sprintf("unknown (0x%x)", uint8(s))
}

// LinkWidth encodes the lane count: 0=x1, 1=x2, 2=x4, 3=x8, 4=x16.
type LinkWidth uint8

func (w LinkWidth) String() string {
	if w <= 4 {
		return fmt.Sprintf("x%d", 1<<w)
	}
	return fmt.Sprintf("unknown (%d)", uint8(w))
}

// Warning annotates a protocol-convention violation or integrity-check
// mismatch on a specific field. Warnings never abort decoding; the on-wire
// value stays authoritative for display.
type Warning struct {
	Field  string // dotted field path, e.g. "frame.tlp.lcrc"
	Offset int    // byte offset of the field within its layer
	Len    int    // length of the field in bytes
	Msg    string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s [%d:%d]: %s", w.Field, w.Offset, w.Offset+w.Len, w.Msg)
}

// RecordFlags is the decoded 32-bit flags word of a capture record.
type RecordFlags struct {
	Gap            bool
	Scrambled      bool
	Direction      Direction
	ElectricalIdle uint16 // per-lane electrical idle bitmap
	DisparityError bool
	ChannelBonded  bool
	LinkSpeed      LinkSpeed
	StartLane      uint8
	SymbolError    bool
	LinkWidth      LinkWidth
}

// CaptureRecord is one captured unit from the analyzer, immutable after
// decode. Payload holds the frame region; Meta holds the optional trailing
// physical-layer metadata.
type CaptureRecord struct {
	Number      uint32
	TimestampNS uint64

	// LFSR is the scrambler seed at envelope offset 12. Only meaningful
	// when HasMetaInfo is set; older capture revisions leave the word zero.
	LFSR        uint16
	HasMetaInfo bool
	ExtraMeta   bool   // extra-metadata-present flag in the metadata info word
	MetaOffset  uint16 // frame byte count; 0 = frame data runs to end of capture

	Flags RecordFlags

	Payload []byte      // frame region handed to the frame decoder
	Meta    *SymbolMeta // nil when absent or undecodable

	Warnings []Warning
}

// SymbolBlock is one 2-byte 8b/10b metadata block covering up to eight
// symbols: a K-symbol bitmap and a running disparity/polarity bitmap.
type SymbolBlock struct {
	KSymbols          byte
	DisparityPolarity byte
}

// LFSRBlock is one variable-length scrambler-state metadata block.
type LFSRBlock struct {
	Control   byte
	Type      uint8 // 1-3
	LinkSpeed LinkSpeed

	IdlesAfter uint64

	ElectricalIdle    uint16
	HasElectricalIdle bool

	LFSRState    uint16
	HasLFSRState bool

	Data   []byte
	Blocks []SymbolBlock // 8b/10b metadata covering Data
}

// SymbolMeta is the physical-layer metadata trailing a capture record.
// Decoded best-effort, independent of the frame pipeline.
type SymbolMeta struct {
	Blocks     []SymbolBlock
	Extra      []byte // raw extra-metadata region, undecoded
	LFSRBlocks []LFSRBlock
}
