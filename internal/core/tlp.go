package core

import "fmt"

// DeviceID is a bus:device.function triple packed into 16 bits.
type DeviceID uint16

func (id DeviceID) Bus() uint8      { return uint8(id >> 8) }
func (id DeviceID) Device() uint8   { return uint8(id>>3) & 0x1F }
func (id DeviceID) Function() uint8 { return uint8(id) & 0x07 }

func (id DeviceID) String() string {
	return fmt.Sprintf("%02x:%02x.%x", id.Bus(), id.Device(), id.Function())
}

// CompletionStatus is the 3-bit completion status field.
type CompletionStatus uint8

const (
	StatusSuccessful  CompletionStatus = 0b000
	StatusUnsupported CompletionStatus = 0b001
	StatusRetry       CompletionStatus = 0b010
	StatusAbort       CompletionStatus = 0b100
)

func (s CompletionStatus) String() string {
	switch s {
	case StatusSuccessful:
		return "SC"
	case StatusUnsupported:
		return "UR"
	case StatusRetry:
		return "CRS"
	case StatusAbort:
		return "CA"
	}
	return "Invalid Completion Status"
}

// TLP Fmt/Type classification predicates. These operate on the combined
// 8-bit Fmt/Type byte.

// IsPostedRequest reports whether the TLP expects no completion: memory
// writes and all message types.
func IsPostedRequest(fmtType uint8) bool {
	if fmtType&0b11011111 == 0b01000000 { // MWr
		return true
	}
	if fmtType&0b10111000 == 0b00110000 { // Msg / MsgD
		return true
	}
	return false
}

// IsConfigRequest reports whether the TLP is a configuration read or write.
// Config requests always complete in exactly one completion.
func IsConfigRequest(fmtType uint8) bool { return fmtType&0b10111110 == 0b00000100 }

// IsCompletion reports whether the TLP is a Cpl or CplD.
func IsCompletion(fmtType uint8) bool { return fmtType&0b10111110 == 0b00001010 }

// IsMessage reports whether the TLP is a message request (with or without data).
func IsMessage(fmtType uint8) bool { return fmtType&0b10111000 == 0b00110000 }

// IsNoData reports whether the TLP neither contains nor refers to a data
// payload, making its length field reserved: Cpl, CplLk, and Msg.
func IsNoData(fmtType uint8) bool {
	if fmtType&0b11111110 == 0b00001010 { // Cpl, CplLk
		return true
	}
	if fmtType&0b11111000 == 0b00110000 { // Msg without data
		return true
	}
	return false
}

// TLPHeader is the per-type header shape following dword 0.
type TLPHeader interface {
	tlpHeader()
}

// MemRequest is a memory or locked-memory read/write request header.
type MemRequest struct {
	Requester DeviceID
	Tag70     uint8
	LastBE    uint8
	FirstBE   uint8
	Addr      uint64 // low 2 bits masked to zero
	Is64      bool
	Hint      uint8 // 2-bit processing hint from the low address bits
}

// IORequest is an I/O read/write request header.
type IORequest struct {
	Requester DeviceID
	Tag70     uint8
	LastBE    uint8
	FirstBE   uint8
	Addr      uint32
}

// CfgRequest is a configuration read/write (type 0 or 1) request header.
// Register is the 10-bit register number; the byte offset is 4*Register.
type CfgRequest struct {
	Requester DeviceID
	Tag70     uint8
	LastBE    uint8
	FirstBE   uint8
	Completer DeviceID
	Register  uint16
}

// MsgRequest is a message request header.
type MsgRequest struct {
	Requester DeviceID
	Tag70     uint8
	Code      uint8
}

// Completion is a completion header. ByteCount is already decoded with the
// zero-encodes-4096 rule applied.
type Completion struct {
	Completer DeviceID
	Status    CompletionStatus
	BCM       bool // byte count modified
	ByteCount uint16
	Requester DeviceID
	Tag70     uint8
	LowerAddr uint8 // 7-bit
}

func (MemRequest) tlpHeader() {}
func (IORequest) tlpHeader()  {}
func (CfgRequest) tlpHeader() {}
func (MsgRequest) tlpHeader() {}
func (Completion) tlpHeader() {}

// TLP is a decoded transaction layer packet. Header is nil for unrecognized
// Fmt/Type values and for TLP Prefixes, which are not decoded further.
type TLP struct {
	FmtType      uint8
	TrafficClass uint8
	Tag          uint16 // full 10-bit tag reassembled from three header positions
	Attr         uint8  // {attr[2], attr[1:0]}
	LN           bool   // lightweight notification
	TH           bool   // TLP hints
	Digest       bool   // ECRC present
	Poisoned     bool
	AddrType     uint8
	Length       uint16 // payload dword count, zero-encodes-1024 applied; 0 for no-data types

	Header  TLPHeader
	Payload []uint32 // little-endian payload dwords

	ECRC      uint32
	ECRCValid bool

	Warnings []Warning
}

// Fmt is the 3-bit format field: header size, data presence, prefix flag.
func (t *TLP) Fmt() uint8 { return t.FmtType >> 5 }

// Type is the 5-bit type field.
func (t *TLP) Type() uint8 { return t.FmtType & 0x1F }

// HasData reports whether the format carries a data payload.
func (t *TLP) HasData() bool { return t.Fmt()&0b010 != 0 }

// FourDW reports whether the header is 4 dwords.
func (t *TLP) FourDW() bool { return t.Fmt()&0b001 != 0 }

// IsPrefix reports whether the Fmt field indicates a TLP Prefix.
func (t *TLP) IsPrefix() bool { return t.Fmt() >= 0b100 }

var tlpShortNames = map[uint8]string{
	0b00000000: "MRd",
	0b00100000: "MRd",
	0b00000001: "MRdLk",
	0b00100001: "MRdLk",
	0b01000000: "MWr",
	0b01100000: "MWr",
	0b00000010: "IORd",
	0b01000010: "IOWr",
	0b00000100: "CfgRd0",
	0b01000100: "CfgWr0",
	0b00000101: "CfgRd1",
	0b01000101: "CfgWr1",
	0b00001010: "Cpl",
	0b01001010: "CplD",
	0b00001011: "CplLk",
	0b01001011: "CplDLk",
	0b01001100: "FetchAdd",
	0b01101100: "FetchAdd",
	0b01001101: "Swap-32",
	0b01101101: "Swap-64",
	0b01001110: "CAS-32",
	0b01101110: "CAS-64",
}

var msgRoutingNames = [8]string{
	"Routed to Root Complex",
	"Routed by Address",
	"Routed by ID",
	"Broadcast from Root Complex",
	"Local - Terminate at Receiver",
	"Gathered and routed to Root Complex",
	"Reserved - Terminate at Receiver",
	"Reserved - Terminate at Receiver",
}

// FmtTypeName renders the combined Fmt/Type byte in the short mnemonic form.
func FmtTypeName(fmtType uint8) string {
	if s, ok := tlpShortNames[fmtType]; ok {
		return s
	}
	if IsMessage(fmtType) {
		mnemonic := "Msg"
		if fmtType&0b01000000 != 0 {
			mnemonic = "MsgD"
		}
		return fmt.Sprintf("%s (%s)", mnemonic, msgRoutingNames[fmtType&0x07])
	}
	return fmt.Sprintf("Unknown TLP FMT (0x%02X)", fmtType)
}

// MsgCodeName renders a message code, or "" when unrecognized.
func MsgCodeName(code uint8) string {
	return msgCodeNames[code]
}

var msgCodeNames = map[uint8]string{
	0b00000000: "Unlock",
	0b00000001: "Invalidate Request Message",
	0b00000010: "Invalidate Completion Message",
	0b00000100: "Page Request Message",
	0b00000101: "PRG Response Message",
	0b00010000: "LTR",
	0b00010010: "OBFF",
	0b00010100: "PM_Active_State_Nak",
	0b00011000: "PM_PME",
	0b00011001: "PME_Turn_Off",
	0b00011011: "PME_TO_Ack",
	0b00100000: "Assert_INTA",
	0b00100001: "Assert_INTB",
	0b00100010: "Assert_INTC",
	0b00100011: "Assert_INTD",
	0b00100100: "Deassert_INTA",
	0b00100101: "Deassert_INTB",
	0b00100110: "Deassert_INTC",
	0b00100111: "Deassert_INTD",
	0b00110000: "ERR_COR",
	0b00110001: "ERR_NONFATAL",
	0b00110011: "ERR_FATAL",
	0b01000000: "Attention_Indicator_Off",
	0b01000001: "Attention_Indicator_On",
	0b01000011: "Attention_Indicator_Blink",
	0b01000100: "Power_Indicator_Off",
	0b01000101: "Power_Indicator_On",
	0b01000111: "Power_Indicator_Blink",
	0b01001000: "Attention_Button_Pressed",
	0b01010000: "Set_Slot_Power_Limit",
	0b01010010: "PTM Request",
	0b01010011: "PTM Response",
	0b01111110: "Vendor_Defined Type 0",
	0b01111111: "Vendor_Defined Type 1",
}
