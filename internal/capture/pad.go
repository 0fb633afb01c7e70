package capture

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Analyzer .pad files carry a big-endian header of length-prefixed strings
// and region offsets, a table of 40-byte little-endian record descriptors,
// and a separate record data region.
const padRecordLen = 40

// PADHeader is the decoded file header of an analyzer capture.
type PADHeader struct {
	ModuleInfo []string // module type, versions, port description
	GUID       string
	Ports      []string
	Start      string

	FirstRecord  uint32
	LastRecord   uint32
	TimestampsNS [4]uint64 // session timestamps, trigger included

	RecordsOffset uint64 // record descriptor table
	DataOffset    uint64 // record data region
}

type padHeaderReader struct {
	br  *bufio.Reader
	err error
}

func (h *padHeaderReader) string() string {
	if h.err != nil {
		return ""
	}
	var lenBuf [2]byte
	if _, h.err = io.ReadFull(h.br, lenBuf[:]); h.err != nil {
		return ""
	}
	buf := make([]byte, binary.BigEndian.Uint16(lenBuf[:]))
	if _, h.err = io.ReadFull(h.br, buf); h.err != nil {
		return ""
	}
	return string(buf)
}

func (h *padHeaderReader) uint32() uint32 {
	if h.err != nil {
		return 0
	}
	var buf [4]byte
	if _, h.err = io.ReadFull(h.br, buf[:]); h.err != nil {
		return 0
	}
	return binary.BigEndian.Uint32(buf[:])
}

func (h *padHeaderReader) uint64() uint64 {
	if h.err != nil {
		return 0
	}
	var buf [8]byte
	if _, h.err = io.ReadFull(h.br, buf[:]); h.err != nil {
		return 0
	}
	return binary.BigEndian.Uint64(buf[:])
}

func parsePADHeader(r io.Reader) (*PADHeader, error) {
	h := &padHeaderReader{br: bufio.NewReader(r)}
	hdr := &PADHeader{}

	for i := 0; i < 5; i++ {
		hdr.ModuleInfo = append(hdr.ModuleInfo, h.string())
	}
	for i := 0; i < 4; i++ {
		h.uint32()
	}
	hdr.FirstRecord = h.uint32()
	hdr.LastRecord = h.uint32()
	for i := 0; i < 2; i++ {
		h.uint32()
	}
	for i := range hdr.TimestampsNS {
		hdr.TimestampsNS[i] = h.uint64()
	}
	hdr.GUID = h.string()
	hdr.Ports = []string{h.string(), h.string()}
	for i := 0; i < 3; i++ {
		h.uint32()
	}
	hdr.RecordsOffset = h.uint64()
	hdr.DataOffset = h.uint64()
	hdr.Start = h.string()

	if h.err != nil {
		return nil, fmt.Errorf("failed to parse pad header: %w", h.err)
	}
	return hdr, nil
}

// padReader reads analyzer records and synthesizes the 20-byte capture
// record envelope the frame pipeline decodes, so .pad and pcap captures go
// through the same path.
type padReader struct {
	f      *os.File
	header *PADHeader

	pos  int64
	left uint32
}

func newPADReader(f *os.File) (*padReader, error) {
	hdr, err := parsePADHeader(f)
	if err != nil {
		return nil, err
	}
	left := uint32(0)
	if hdr.LastRecord >= hdr.FirstRecord {
		left = hdr.LastRecord - hdr.FirstRecord + 1
	}
	return &padReader{
		f:      f,
		header: hdr,
		pos:    int64(hdr.RecordsOffset),
		left:   left,
	}, nil
}

func (p *padReader) LinkType() layers.LinkType {
	return LinkTypePCIe
}

// ReadPacketData returns the next record as a capture record envelope plus
// its data, or io.EOF past the last record or at an all-zero descriptor.
func (p *padReader) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	var ci gopacket.CaptureInfo
	if p.left == 0 {
		return nil, ci, io.EOF
	}

	var desc [padRecordLen]byte
	if _, err := p.f.ReadAt(desc[:], p.pos); err != nil {
		return nil, ci, fmt.Errorf("failed to read pad record: %w", err)
	}
	p.pos += padRecordLen
	p.left--

	number := binary.LittleEndian.Uint32(desc[0:4])
	dataLen := binary.LittleEndian.Uint32(desc[4:8])
	ts := uint64(binary.LittleEndian.Uint32(desc[16:20]))<<32 |
		uint64(binary.LittleEndian.Uint32(desc[20:24]))
	lfsr := binary.LittleEndian.Uint16(desc[24:26])
	validWord := binary.LittleEndian.Uint16(desc[26:28])
	flags := binary.LittleEndian.Uint32(desc[28:32])
	dataOff := binary.LittleEndian.Uint32(desc[36:40])

	// The descriptor table ends early on an all-zero entry.
	if number == 0 && ts == 0 && dataLen == 0 {
		return nil, ci, io.EOF
	}

	envelope := make([]byte, 20+dataLen)
	binary.LittleEndian.PutUint32(envelope[0:4], number)
	binary.LittleEndian.PutUint64(envelope[4:12], ts)
	binary.LittleEndian.PutUint16(envelope[12:14], lfsr)
	binary.LittleEndian.PutUint16(envelope[14:16], validWord)
	binary.LittleEndian.PutUint32(envelope[16:20], flags)
	if dataLen > 0 {
		off := int64(p.header.DataOffset) + int64(dataOff)
		if _, err := p.f.ReadAt(envelope[20:], off); err != nil {
			return nil, ci, fmt.Errorf("failed to read pad record data: %w", err)
		}
	}

	ci.Timestamp = time.Unix(0, int64(ts))
	ci.Length = len(envelope)
	ci.CaptureLength = len(envelope)
	return envelope, ci, nil
}
