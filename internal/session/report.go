package session

import (
	"github.com/lanescope/lanescope/pkg/models"
)

// FromDecoded flattens one decode result into a reporter Report.
func FromDecoded(d *Decoded) *models.Report {
	rep := &models.Report{
		Record:      d.Number,
		TimestampNS: d.TimestampNS,
		Protocol:    d.Summary.Protocol,
		Src:         d.Summary.Src,
		Dst:         d.Summary.Dst,
		Info:        d.Summary.Info,
	}
	if d.Record != nil {
		for _, w := range d.Record.Warnings {
			rep.Warnings = append(rep.Warnings, w.String())
		}
	}
	if d.Frame != nil {
		for _, w := range d.Frame.Warnings {
			rep.Warnings = append(rep.Warnings, w.String())
		}
		if d.Frame.TLP != nil {
			for _, w := range d.Frame.TLP.Warnings {
				rep.Warnings = append(rep.Warnings, w.String())
			}
		}
		if d.Frame.DLLP != nil {
			for _, w := range d.Frame.DLLP.Warnings {
				rep.Warnings = append(rep.Warnings, w.String())
			}
		}
	}
	if d.Link != nil {
		rep.CompletionRecords = d.Link.CompletionRecords
		if d.Link.HasRequest {
			req := d.Link.RequestRecord
			rep.RequestRecord = &req
			rep.CompletionTimeNS = d.Link.CompletionTimeNS
		}
		rep.SiblingCompletions = d.Link.SiblingCompletions
	}
	return rep
}
