package decoder

import (
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/lanescope/lanescope/internal/core"
)

// buildTLPFrame frames a TLP with a sequence number, a valid LCRC, and an
// END symbol.
func buildTLPFrame(seq uint16, tlp []byte) []byte {
	frame := []byte{kSTP, byte(seq >> 8), byte(seq)}
	frame = append(frame, tlp...)
	lcrc := crc32.ChecksumIEEE(frame[1:])
	frame = binary.LittleEndian.AppendUint32(frame, lcrc)
	return append(frame, kEND)
}

// buildDLLPFrame frames a 4-byte DLLP body with its CRC and an END symbol.
func buildDLLPFrame(body []byte) []byte {
	frame := []byte{kSDP}
	frame = append(frame, body...)
	frame = binary.LittleEndian.AppendUint16(frame, dllpCRC16(body))
	return append(frame, kEND)
}

func TestDecodeFrameTLP(t *testing.T) {
	tlp := []byte{
		0x20, 0x00, 0x00, 0x01, // MRd 4DW
		0x00, 0x08, 0x05, 0x0F,
		0x00, 0x00, 0x00, 0x00,
		0xDE, 0xAD, 0xBE, 0xE0,
	}
	data := buildTLPFrame(0x001, tlp)

	frame, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}

	if frame.Kind != core.FrameTLP {
		t.Fatalf("Expected TLP frame, got %v", frame.Kind)
	}
	if frame.Seq != 0x001 {
		t.Errorf("Expected seq 1, got %d", frame.Seq)
	}
	if !frame.LCRCValid {
		t.Error("Expected valid LCRC")
	}
	if frame.EndTag != kEND {
		t.Errorf("Expected END tag, got 0x%02x", frame.EndTag)
	}
	if len(frame.Warnings) != 0 {
		t.Errorf("Unexpected warnings: %v", frame.Warnings)
	}
	if frame.TLP == nil || frame.TLP.FmtType != 0x20 {
		t.Fatalf("TLP not decoded: %+v", frame.TLP)
	}
	if frame.TLP.Tag != 0x005 {
		t.Errorf("Expected tag 0x005, got 0x%03x", frame.TLP.Tag)
	}
}

func TestDecodeFrameTLPBadLCRC(t *testing.T) {
	tlp := []byte{
		0x00, 0x00, 0x00, 0x01,
		0x00, 0x08, 0x05, 0x0F,
		0xDE, 0xAD, 0xBE, 0xE0,
	}
	data := buildTLPFrame(0x002, tlp)
	data[len(data)-3] ^= 0xFF // corrupt the LCRC

	frame, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if frame.LCRCValid {
		t.Error("Expected invalid LCRC")
	}
	found := false
	for _, w := range frame.Warnings {
		if w.Field == "frame.lcrc" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a frame.lcrc warning, got %v", frame.Warnings)
	}
}

func TestDecodeFrameTLPReservedAndEndTag(t *testing.T) {
	tlp := []byte{
		0x00, 0x00, 0x00, 0x01,
		0x00, 0x08, 0x05, 0x0F,
		0xDE, 0xAD, 0xBE, 0xE0,
	}
	data := buildTLPFrame(0x003, tlp)
	data[1] |= 0xF0           // set reserved bits ahead of the sequence number
	data[len(data)-1] = kEDB  // nullified TLP ends with EDB
	// The LCRC was computed before the reserved bits were set, so recompute.
	lcrc := crc32.ChecksumIEEE(data[1 : len(data)-5])
	binary.LittleEndian.PutUint32(data[len(data)-5:len(data)-1], lcrc)

	frame, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if frame.Seq != 0x003 {
		t.Errorf("Expected seq 3, got %d", frame.Seq)
	}
	var fields []string
	for _, w := range frame.Warnings {
		fields = append(fields, w.Field)
	}
	want := map[string]bool{"frame.tlp.reserved": false, "frame.end_tag": false}
	for _, f := range fields {
		if _, ok := want[f]; ok {
			want[f] = true
		}
	}
	for f, seen := range want {
		if !seen {
			t.Errorf("Expected warning %s, got %v", f, fields)
		}
	}
}

func TestDecodeFrameTLPWithDigest(t *testing.T) {
	// MWr 3DW with one payload dword and TD set
	tlp := []byte{
		0x40, 0x00, 0x80, 0x01, // TD bit 15 of DW0
		0x00, 0x08, 0x05, 0x0F,
		0xDE, 0xAD, 0xBE, 0xE0,
		0x11, 0x22, 0x33, 0x44,
	}
	modified := binary.BigEndian.Uint32(tlp[0:4]) | 0x01004000
	var dw0 [4]byte
	binary.BigEndian.PutUint32(dw0[:], modified)
	ecrc := ecrc32(dw0, tlp[4:])
	tlp = binary.LittleEndian.AppendUint32(tlp, ecrc)

	data := buildTLPFrame(0x004, tlp)

	frame, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if frame.TLP == nil || !frame.TLP.Digest {
		t.Fatal("Expected digest")
	}
	if !frame.TLP.ECRCValid {
		t.Error("Expected valid ECRC")
	}
	if !frame.LCRCValid {
		t.Error("Expected valid LCRC")
	}
}

func TestDecodeFrameTLPWithBadDigest(t *testing.T) {
	tlp := []byte{
		0x00, 0x00, 0x80, 0x01,
		0x00, 0x08, 0x05, 0x0F,
		0xDE, 0xAD, 0xBE, 0xE0,
		0x00, 0x00, 0x00, 0x00, // wrong ECRC
	}
	data := buildTLPFrame(0x005, tlp)

	frame, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if frame.TLP.ECRCValid {
		t.Error("Expected invalid ECRC")
	}
	found := false
	for _, w := range frame.TLP.Warnings {
		if w.Field == "tlp.ecrc" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a tlp.ecrc warning, got %v", frame.TLP.Warnings)
	}
}

func TestDecodeFrameDLLP(t *testing.T) {
	// UpdateFC-P VC0: hdr scale 0, hdr credits 0x20, data scale 0, data
	// credits 0x040
	body := []byte{0x80, 0x08, 0x00, 0x40}
	data := buildDLLPFrame(body)

	frame, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}

	if frame.Kind != core.FrameDLLP {
		t.Fatalf("Expected DLLP frame, got %v", frame.Kind)
	}
	if frame.DLLP == nil {
		t.Fatal("DLLP not decoded")
	}
	if !frame.DLLP.CRCValid {
		t.Error("Expected valid CRC")
	}
	if frame.EndTag != kEND {
		t.Errorf("Expected END tag, got 0x%02x", frame.EndTag)
	}

	fc, ok := frame.DLLP.Payload.(core.FlowControl)
	if !ok {
		t.Fatalf("Expected FlowControl payload, got %T", frame.DLLP.Payload)
	}
	if fc.HdrCredits != 0x20 {
		t.Errorf("Expected 0x20 header credits, got 0x%x", fc.HdrCredits)
	}
	if fc.DataCredits != 0x040 {
		t.Errorf("Expected 0x040 data credits, got 0x%x", fc.DataCredits)
	}
}

func TestDecodeFrameDLLPDerivedLength(t *testing.T) {
	// Ack with three extra body bytes: END sits past the fixed offset, so
	// the body length comes from the frame length.
	body := []byte{0x00, 0x00, 0x01, 0x23, 0x11, 0x22, 0x33}
	data := buildDLLPFrame(body)

	frame, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}

	if frame.Kind != core.FrameDLLP {
		t.Fatalf("Expected DLLP frame, got %v", frame.Kind)
	}
	if frame.DLLP == nil {
		t.Fatal("DLLP not decoded")
	}
	if !frame.DLLP.CRCValid {
		t.Error("Expected valid CRC over the full body")
	}
	if frame.EndTag != kEND {
		t.Errorf("Expected END tag, got 0x%02x", frame.EndTag)
	}
	for _, w := range frame.Warnings {
		if w.Field == "frame.end_tag" {
			t.Errorf("Unexpected end tag warning: %v", w)
		}
	}

	ack, ok := frame.DLLP.Payload.(core.AckNak)
	if !ok {
		t.Fatalf("Expected AckNak payload, got %T", frame.DLLP.Payload)
	}
	if ack.Seq != 0x123 {
		t.Errorf("Expected seq 0x123, got 0x%03x", ack.Seq)
	}

	found := false
	for _, w := range frame.DLLP.Warnings {
		if w.Field == "dllp.length" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a dllp.length warning, got %v", frame.DLLP.Warnings)
	}
}

func TestDecodeFrameOrderedSets(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want core.OrderedSetKind
	}{
		{"skip", []byte{kCOM, kSKP, kSKP, kSKP}, core.OrderedSetSkip},
		{"fts", []byte{kCOM, kFTS, kFTS, kFTS}, core.OrderedSetFastTraining},
		{"eios", []byte{kCOM, kIDL, kIDL, kIDL}, core.OrderedSetElectricalIdle},
		{"eieos", []byte{kCOM, kEIE, kEIE, kEIE}, core.OrderedSetElectricalIdleExit},
		{
			"ts1",
			[]byte{kCOM, 0x01, 0x02, 0xFF, 0x02, 0x08, tsTypeTS1, 0x4A, 0x4A, 0x4A},
			core.OrderedSetTS1,
		},
		{
			"ts2 inverted",
			[]byte{kCOM, 0x01, 0x02, 0xFF, 0x02, 0x08, tsTypeTS2Inverted, 0xBA, 0xBA, 0xBA},
			core.OrderedSetTS2Inverted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := DecodeFrame(tt.data)
			if err != nil {
				t.Fatalf("DecodeFrame failed: %v", err)
			}
			if frame.Kind != core.FrameOrderedSet {
				t.Fatalf("Expected ordered set, got %v", frame.Kind)
			}
			if frame.OrderedSet.Kind != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, frame.OrderedSet.Kind)
			}
		})
	}
}

func TestDecodeFrameTrainingSetFields(t *testing.T) {
	// TS1: link 1, lane 2, N_FTS 0xFF, data rate 5.0 GT/s with speed
	// change, training control hot reset
	data := []byte{kCOM, 0x01, 0x02, 0xFF, 0x84, 0x01, tsTypeTS1, 0x4A, 0x4A, 0x4A}

	frame, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	ts := frame.OrderedSet.TS
	if ts == nil {
		t.Fatal("Expected training set payload")
	}
	if ts.LinkNumber != 1 || ts.LaneNumber != 2 || ts.NFTS != 0xFF {
		t.Errorf("Unexpected link/lane/NFTS: %d/%d/%d", ts.LinkNumber, ts.LaneNumber, ts.NFTS)
	}
	if !ts.DataRate.SpeedChange {
		t.Error("Expected speed change bit")
	}
	if ts.DataRate.LinkSpeeds != 0x02 {
		t.Errorf("Expected link speed bitmap 0x02, got 0x%02x", ts.DataRate.LinkSpeeds)
	}
	if !ts.TrainingControl.HotReset {
		t.Error("Expected hot reset bit")
	}
}

func TestDecodeFrameInvertedTSSkipsPayload(t *testing.T) {
	data := []byte{kCOM, 0x01, 0x02, 0xFF, 0x84, 0x01, tsTypeTS1Inverted, 0xB5, 0xB5, 0xB5}

	frame, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if frame.OrderedSet.Kind != core.OrderedSetTS1Inverted {
		t.Fatalf("Expected inverted TS1, got %v", frame.OrderedSet.Kind)
	}
	if frame.OrderedSet.TS != nil {
		t.Error("Inverted training sets must not decode payload fields")
	}
}

func TestDecodeFrameUnknownStartTag(t *testing.T) {
	frame, err := DecodeFrame([]byte{0x42, 0x00, 0x00})
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if frame.Kind != core.FrameUnknown {
		t.Errorf("Expected unknown frame, got %v", frame.Kind)
	}
}

func TestDecodeFrameTooShort(t *testing.T) {
	if _, err := DecodeFrame(nil); err != core.ErrFrameTooShort {
		t.Errorf("Expected ErrFrameTooShort, got %v", err)
	}
	// STP with a truncated TLP
	if _, err := DecodeFrame([]byte{kSTP, 0x00, 0x01, 0x00}); err != core.ErrFrameTooShort {
		t.Errorf("Expected ErrFrameTooShort, got %v", err)
	}
}
