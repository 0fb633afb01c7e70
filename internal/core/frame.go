package core

// FrameKind classifies a frame by its leading framing symbol.
type FrameKind uint8

const (
	FrameUnknown FrameKind = iota
	FrameTLP
	FrameDLLP
	FrameOrderedSet
)

func (k FrameKind) String() string {
	switch k {
	case FrameTLP:
		return "TLP"
	case FrameDLLP:
		return "DLLP"
	case FrameOrderedSet:
		return "Ordered Set"
	}
	return "Unknown"
}

// Frame is one framing-symbol-delimited unit from a capture record payload.
type Frame struct {
	Kind     FrameKind
	StartTag byte
	Raw      []byte // the full slice consumed

	// TLP frames
	Seq       uint16 // 12-bit link sequence number
	TLP       *TLP
	LCRC      uint32
	LCRCValid bool
	EndTag    byte // TLP and DLLP frames

	// DLLP frames
	DLLP *DLLP

	// Ordered sets
	OrderedSet *OrderedSet

	Warnings []Warning
}

// OrderedSetKind identifies the ordered-set subvariant.
type OrderedSetKind uint8

const (
	OrderedSetUnknown OrderedSetKind = iota
	OrderedSetSkip
	OrderedSetFastTraining
	OrderedSetElectricalIdle
	OrderedSetElectricalIdleExit
	OrderedSetTS1
	OrderedSetTS2
	OrderedSetTS1Inverted // lane polarity inversion, payload not decoded
	OrderedSetTS2Inverted
)

func (k OrderedSetKind) String() string {
	switch k {
	case OrderedSetSkip:
		return "SKP Ordered Set"
	case OrderedSetFastTraining:
		return "Fast Training Sequence"
	case OrderedSetElectricalIdle:
		return "Electrical Idle Ordered Set"
	case OrderedSetElectricalIdleExit:
		return "Electrical Idle Exit Ordered Set"
	case OrderedSetTS1:
		return "TS1 Ordered Set"
	case OrderedSetTS2:
		return "TS2 Ordered Set"
	case OrderedSetTS1Inverted:
		return "TS1 Ordered Set (Lane polarity inversion)"
	case OrderedSetTS2Inverted:
		return "TS2 Ordered Set (Lane polarity inversion)"
	}
	return "Unknown Ordered Set"
}

// OrderedSet is a physical-layer symbol sequence used for link training and
// idle signaling. TS is populated only for non-inverted TS1/TS2 sets.
type OrderedSet struct {
	Kind OrderedSetKind
	TS   *TrainingSet
}

// DataRate is the TS1/TS2 data-rate identifier byte.
type DataRate struct {
	SpeedChange      bool  // speed_change / SRIS clocking
	AutonomousChange bool  // autonomous change / selectable de-emphasis
	LinkSpeeds       uint8 // 5-bit supported-speed bitmap
	FlitMode         bool
}

// SupportedSpeeds renders the 5-bit speed bitmap.
func (d DataRate) SupportedSpeeds() string {
	switch d.LinkSpeeds {
	case 0b00001:
		return "Only 2.5 GT/s"
	case 0b00011:
		return "Up to 5.0 GT/s"
	case 0b00111:
		return "Up to 8.0 GT/s"
	case 0b01111:
		return "Up to 16.0 GT/s"
	case 0b11111:
		return "Up to 32.0 GT/s"
	}
	return ""
}

// TrainingControl is the TS1/TS2 training-control byte.
type TrainingControl struct {
	ELBC               uint8 // 2-bit enhanced link behavior control
	ModifiedCompliance bool  // transmit modified compliance pattern in loopback
	ComplianceReceive  bool
	DisableScrambling  bool
	Loopback           bool
	DisableLink        bool
	HotReset           bool
}

// TrainingSet holds the decoded body of a non-inverted TS1/TS2 ordered set.
type TrainingSet struct {
	LinkNumber      uint8
	LaneNumber      uint8
	NFTS            uint8
	DataRate        DataRate
	TrainingControl TrainingControl
}
