package core

import "fmt"

// Well-known DLLP type codes. Flow-control and power-management DLLPs are
// classes rather than single codes; see the predicates below.
const (
	DLLPTypeAck        = 0x00
	DLLPTypeMRInit     = 0x01
	DLLPTypeFeature    = 0x02
	DLLPTypeNak        = 0x10
	DLLPTypeVendor     = 0x30
	DLLPTypeNOP        = 0x31
	DLLPTypePMEnterL1  = 0x20
	DLLPTypePMEnterL23 = 0x21
	DLLPTypePMASReqL1  = 0x23
	DLLPTypePMReqAck   = 0x24
)

// IsPMDLLP reports whether the type code is in the power-management class.
func IsPMDLLP(t uint8) bool { return t&0b11111000 == 0b00100000 }

// IsFCDLLP reports whether the type code is an InitFC1/InitFC2/UpdateFC
// flow-control DLLP.
func IsFCDLLP(t uint8) bool {
	return t&0b11000000 != 0 && t&0b00110000 != 0b00110000 && t&0b00001000 == 0
}

// DLLPPayload is the per-type payload of a link-management packet. Types
// with no defined breakdown carry a nil payload.
type DLLPPayload interface {
	dllpPayload()
}

// AckNak acknowledges (or rejects) TLP link sequence numbers up to Seq.
type AckNak struct {
	Nak bool
	Seq uint16 // 12-bit
}

// DataLinkFeature advertises optional data link layer features.
type DataLinkFeature struct {
	Ack           bool
	LocalScaledFC bool // local scaled flow control supported
}

// PowerManagement has no payload fields; the body is reserved.
type PowerManagement struct{}

// FlowControl carries header and data credit counts. HdrCredits and
// DataCredits are already multiplied out by their 2-bit scale factors.
type FlowControl struct {
	HdrScale    uint8
	HdrCredits  uint32
	DataScale   uint8
	DataCredits uint32
}

func (AckNak) dllpPayload()          {}
func (DataLinkFeature) dllpPayload() {}
func (PowerManagement) dllpPayload() {}
func (FlowControl) dllpPayload()     {}

// DLLP is a decoded data link layer packet.
type DLLP struct {
	Type     uint8
	Payload  DLLPPayload
	CRC      uint16
	CRCValid bool
	Warnings []Warning
}

var dllpTypeNames = map[uint8]string{
	DLLPTypeAck:        "Ack",
	DLLPTypeMRInit:     "MRInit",
	DLLPTypeFeature:    "Data_Link_Feature",
	DLLPTypeNak:        "Nak",
	DLLPTypePMEnterL1:  "PM_Enter_L1",
	DLLPTypePMEnterL23: "PM_Enter_L23",
	DLLPTypePMASReqL1:  "PM_Active_State_Request_L1",
	DLLPTypePMReqAck:   "PM_Request_Ack",
	DLLPTypeVendor:     "Vendor-specific",
	DLLPTypeNOP:        "NOP",
}

var fcCreditNames = [4]string{"P", "NP", "Cpl", ""}

// DLLPTypeName renders a DLLP type code, expanding the flow-control and
// multi-root classes by credit type and virtual channel.
func DLLPTypeName(t uint8) string {
	if s, ok := dllpTypeNames[t]; ok {
		return s
	}
	if IsFCDLLP(t) {
		kind := ""
		switch t >> 6 {
		case 0b01:
			kind = "InitFC1"
		case 0b11:
			kind = "InitFC2"
		case 0b10:
			kind = "UpdateFC"
		}
		return fmt.Sprintf("%s-%s (VC%d)", kind, fcCreditNames[(t>>4)&3], t&0x07)
	}
	// MRInitFC1/MRInitFC2/MRUpdateFC use the credit field 0b11 with a
	// virtual link number instead of a virtual channel.
	if t&0b11111000 == 0b01110000 {
		return fmt.Sprintf("MRInitFC1 (VL%d)", t&0x07)
	}
	if t&0b11111000 == 0b11110000 {
		return fmt.Sprintf("MRInitFC2 (VL%d)", t&0x07)
	}
	if t&0b11111000 == 0b10110000 {
		return fmt.Sprintf("MRUpdateFC (VL%d)", t&0x07)
	}
	return fmt.Sprintf("Unknown DLLP type (0x%02X)", t)
}
