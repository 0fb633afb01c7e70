package decoder

import (
	"encoding/binary"

	"github.com/lanescope/lanescope/internal/core"
)

// NetTLP UDP tunnel port range.
const (
	NetTLPPortLow  = 12288
	NetTLPPortHigh = 20479

	netTLPHeaderLen = 6
)

// NetTLPHeader is the 6-byte tunnel header carried ahead of a bare TLP.
type NetTLPHeader struct {
	Sequence  uint16
	Timestamp uint32
}

// DecodeNetTLP decodes a NetTLP UDP payload: the tunnel header followed by
// a TLP with no link framing.
func DecodeNetTLP(data []byte) (NetTLPHeader, *core.TLP, error) {
	if len(data) < netTLPHeaderLen {
		return NetTLPHeader{}, nil, core.ErrNotNetTLP
	}
	hdr := NetTLPHeader{
		Sequence:  binary.BigEndian.Uint16(data[0:2]),
		Timestamp: binary.BigEndian.Uint32(data[2:6]),
	}
	tlp, err := DecodeTLP(data[netTLPHeaderLen:])
	if err != nil {
		return hdr, nil, err
	}
	return hdr, tlp, nil
}
