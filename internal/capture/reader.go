// Package capture reads link capture files and classifies their contents.
package capture

import (
	"fmt"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/lanescope/lanescope/internal/core"
	"github.com/lanescope/lanescope/internal/core/decoder"
)

// LinkTypePCIe is the DLT_USER11 link type capture records are written
// under.
const LinkTypePCIe = layers.LinkType(158)

// packetReader is satisfied by the pcap, pcapng, and analyzer file readers.
type packetReader interface {
	LinkType() layers.LinkType
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
}

// Reader reads packets from a capture file.
type Reader struct {
	file *os.File
	r    packetReader
}

// pcap file magics: classic in both byte orders, the nanosecond variants,
// and the pcapng section header. Anything else is treated as an analyzer
// .pad file.
var pcapMagics = [][4]byte{
	{0xD4, 0xC3, 0xB2, 0xA1},
	{0xA1, 0xB2, 0xC3, 0xD4},
	{0x4D, 0x3C, 0xB2, 0xA1},
	{0xA1, 0xB2, 0x3C, 0x4D},
}

var pcapngMagic = [4]byte{0x0A, 0x0D, 0x0D, 0x0A}

func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file %s: %w", path, err)
	}
	var magic [4]byte
	if _, err := f.ReadAt(magic[:], 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read capture file %s: %w", path, err)
	}

	var r packetReader
	switch {
	case magic == pcapngMagic:
		r, err = pcapgo.NewNgReader(f, pcapgo.DefaultNgReaderOptions)
	case isPcapMagic(magic):
		r, err = pcapgo.NewReader(f)
	default:
		r, err = newPADReader(f)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read capture file %s: %w", path, err)
	}
	return &Reader{file: f, r: r}, nil
}

func isPcapMagic(magic [4]byte) bool {
	for _, m := range pcapMagics {
		if magic == m {
			return true
		}
	}
	return false
}

func (r *Reader) LinkType() layers.LinkType {
	return r.r.LinkType()
}

// ReadPacket returns the next packet from the file, or io.EOF at the end.
// For .pad files each packet is a synthesized capture record envelope.
func (r *Reader) ReadPacket() ([]byte, gopacket.CaptureInfo, error) {
	return r.r.ReadPacketData()
}

func (r *Reader) Close() error {
	return r.file.Close()
}

// Kind reports how packets from this file should be decoded.
func (r *Reader) Kind() (Kind, error) {
	switch r.LinkType() {
	case LinkTypePCIe:
		return KindRecord, nil
	case layers.LinkTypeEthernet:
		return KindNetTLP, nil
	}
	return KindUnknown, fmt.Errorf("%w: link type %d", core.ErrUnknownLinkType, r.LinkType())
}

// Kind is the capture flavor of a file.
type Kind int

const (
	KindUnknown Kind = iota
	KindRecord       // raw capture records
	KindNetTLP       // Ethernet frames tunneling TLPs over UDP
)

// NetTLPPayload extracts the tunnel payload from an Ethernet frame. It
// returns false when the frame is not UDP or neither port falls in the
// tunnel range.
func NetTLPPayload(data []byte) ([]byte, bool) {
	packet := gopacket.NewPacket(data, layers.LinkTypeEthernet, gopacket.NoCopy)
	udpLayer := packet.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return nil, false
	}
	udp := udpLayer.(*layers.UDP)
	if !netTLPPort(uint16(udp.SrcPort)) && !netTLPPort(uint16(udp.DstPort)) {
		return nil, false
	}
	return udp.Payload, true
}

func netTLPPort(port uint16) bool {
	return port >= decoder.NetTLPPortLow && port <= decoder.NetTLPPortHigh
}
