package core

import (
	"fmt"
	"strings"
)

// Summary is a one-line rendering of a decoded record suitable for
// list views and text reporters.
type Summary struct {
	Protocol string
	Src      string
	Dst      string
	Info     string
}

// Summarize builds the Summary for a record and its decoded frame. The
// frame may be nil when the record carried no decodable payload.
func Summarize(rec *CaptureRecord, frame *Frame) Summary {
	s := Summary{Protocol: "PCIe"}
	if rec.Flags.Direction == DirectionUpstream {
		s.Src, s.Dst = "Device", "Root Complex"
	} else {
		s.Src, s.Dst = "Root Complex", "Device"
	}
	if frame == nil {
		s.Info = "No frame"
		return s
	}
	switch frame.Kind {
	case FrameTLP:
		s.Info = tlpInfo(frame.TLP)
		if frame.TLP != nil {
			overrideEndpoints(&s, frame.TLP)
		}
	case FrameDLLP:
		s.Info = dllpInfo(frame.DLLP)
	case FrameOrderedSet:
		s.Info = frame.OrderedSet.Kind.String()
	default:
		s.Info = "Unknown frame"
	}
	return s
}

// overrideEndpoints replaces the direction-derived endpoints with the
// requester, completer, or target address named by the TLP header.
func overrideEndpoints(s *Summary, t *TLP) {
	switch h := t.Header.(type) {
	case MemRequest:
		s.Src = h.Requester.String()
		if h.Is64 {
			s.Dst = fmt.Sprintf("0x%016x", h.Addr)
		} else {
			s.Dst = fmt.Sprintf("0x%08x", h.Addr)
		}
	case IORequest:
		s.Src = h.Requester.String()
		s.Dst = fmt.Sprintf("0x%08x", h.Addr)
	case CfgRequest:
		s.Src = h.Requester.String()
		s.Dst = h.Completer.String()
	case MsgRequest:
		s.Src = h.Requester.String()
	case Completion:
		s.Src = h.Completer.String()
		s.Dst = h.Requester.String()
	}
}

func dllpInfo(d *DLLP) string {
	if d == nil {
		return "DLLP"
	}
	name := DLLPTypeName(d.Type)
	if fc, ok := d.Payload.(FlowControl); ok {
		return fmt.Sprintf("%s, HdrFC: %d, DataFC: %d", name, fc.HdrCredits, fc.DataCredits)
	}
	return name
}

func tlpInfo(t *TLP) string {
	if t == nil {
		return "TLP"
	}
	var b strings.Builder
	b.WriteString(FmtTypeName(t.FmtType))
	if t.HasData() {
		fmt.Fprintf(&b, ", %d dw", t.Length)
	}
	switch h := t.Header.(type) {
	case MemRequest:
		if h.Is64 {
			fmt.Fprintf(&b, " @ 0x%016x", h.Addr)
		} else {
			fmt.Fprintf(&b, " @ 0x%08x", h.Addr)
		}
	case IORequest:
		fmt.Fprintf(&b, " @ 0x%08x", h.Addr)
	case CfgRequest:
		fmt.Fprintf(&b, " @ 0x%03x", 4*h.Register)
	case MsgRequest:
		if name := MsgCodeName(h.Code); name != "" {
			fmt.Fprintf(&b, ", %s", name)
		}
	case Completion:
		fmt.Fprintf(&b, ", %s", h.Status)
	}
	if len(t.Payload) == 1 {
		fmt.Fprintf(&b, ": 0x%08x", t.Payload[0])
	}
	return b.String()
}
