package types

import "time"

type VisitorStatus string

const (
	VisitorActive   VisitorStatus = "active"
	VisitorDeparted VisitorStatus = "departed"
)

// Duration is the length of a completed visit, derived from the entry/exit
// pair at checkout time. It is never stored apart from its owning record.
type Duration struct {
	Hours        int `json:"hours"`
	Minutes      int `json:"minutes"`
	TotalMinutes int `json:"total_minutes"`
}

// ComputeDuration derives a visit duration from a concrete entry/exit pair.
// Total minutes are floored, so a 45.9-minute stay counts as 45 minutes.
func ComputeDuration(entry, exit time.Time) Duration {
	total := int(exit.Sub(entry).Milliseconds() / 60000)
	if total < 0 {
		total = 0
	}
	return Duration{
		Hours:        total / 60,
		Minutes:      total % 60,
		TotalMinutes: total,
	}
}

type VisitorRecord struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Document    string        `json:"document"`
	Destination string        `json:"destination"`
	Reason      string        `json:"reason,omitempty"`
	EntryTime   time.Time     `json:"entry_time"`
	ExitTime    *time.Time    `json:"exit_time,omitempty"`
	Status      VisitorStatus `json:"status"`
	Duration    *Duration     `json:"duration,omitempty"`
}

func (v VisitorRecord) RecordID() int64 { return v.ID }

// Clone returns a deep copy so callers can hand records out without
// aliasing the pointer fields.
func (v VisitorRecord) Clone() VisitorRecord {
	cp := v
	if v.ExitTime != nil {
		t := *v.ExitTime
		cp.ExitTime = &t
	}
	if v.Duration != nil {
		d := *v.Duration
		cp.Duration = &d
	}
	return cp
}
