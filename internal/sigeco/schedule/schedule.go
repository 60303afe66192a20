// Package schedule holds the appointment logic as pure functions: every
// operation takes the current collection and returns a new one, so callers
// that need persistence can wrap these in whatever commit discipline they
// use without the logic ever touching storage.
package schedule

import (
	"time"

	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/types"
)

// ConflictWindow is the span within which two non-cancelled appointments at
// the same destination are disallowed.
const ConflictWindow = time.Hour

const (
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04"
	dateTimeLayout = dateLayout + " " + timeLayout
)

// ScheduledAt combines an appointment's date and time strings into one
// sortable timestamp. Parsing happens only here so the rest of the package
// never compares schedule strings.
func ScheduledAt(date, timeStr string) (time.Time, error) {
	return time.Parse(dateTimeLayout, date+" "+timeStr)
}

// NewAppointment is the caller-supplied portion of an appointment.
type NewAppointment struct {
	VisitorName string
	Document    string
	Destination string
	Reason      string
	Date        string
	Time        string
	Phone       string
	Resident    string
	Notes       string
}

// Create returns a new appointment record appended to a copy of existing.
// IDs follow the collection's max+1 rule; new appointments start pending.
func Create(existing []types.AppointmentRecord, data NewAppointment) (types.AppointmentRecord, []types.AppointmentRecord) {
	var maxID int64
	for _, a := range existing {
		if a.ID > maxID {
			maxID = a.ID
		}
	}

	rec := types.AppointmentRecord{
		ID:          maxID + 1,
		VisitorName: data.VisitorName,
		Document:    data.Document,
		Destination: data.Destination,
		Reason:      data.Reason,
		Date:        data.Date,
		Time:        data.Time,
		Phone:       data.Phone,
		Status:      types.AppointmentPending,
		Resident:    data.Resident,
		Notes:       data.Notes,
	}

	out := make([]types.AppointmentRecord, 0, len(existing)+1)
	out = append(out, existing...)
	return rec, append(out, rec)
}

// CheckConflict reports whether scheduling at date/time for destination
// would land within ConflictWindow of an existing non-cancelled appointment
// at the same destination. The window is symmetric: two appointments exactly
// one hour apart do not conflict. Destination comparison is exact string
// equality. excludeID skips one record, for updates; pass 0 to consider all.
// Unparseable schedules never conflict.
func CheckConflict(existing []types.AppointmentRecord, date, timeStr, destination string, excludeID int64) bool {
	candidate, err := ScheduledAt(date, timeStr)
	if err != nil {
		return false
	}

	for _, a := range existing {
		if a.ID == excludeID || a.Status == types.AppointmentCancelled || a.Destination != destination {
			continue
		}
		at, err := ScheduledAt(a.Date, a.Time)
		if err != nil {
			continue
		}
		diff := candidate.Sub(at)
		if diff < 0 {
			diff = -diff
		}
		if diff < ConflictWindow {
			return true
		}
	}
	return false
}

// UpdateStatus returns a new collection with the matching record's status
// replaced. An absent id yields an equal collection.
func UpdateStatus(existing []types.AppointmentRecord, id int64, status types.AppointmentStatus) []types.AppointmentRecord {
	out := make([]types.AppointmentRecord, len(existing))
	for i, a := range existing {
		if a.ID == id {
			a.Status = status
		}
		out[i] = a
	}
	return out
}

// Delete returns a new collection without the matching record. An absent id
// yields an equal collection.
func Delete(existing []types.AppointmentRecord, id int64) []types.AppointmentRecord {
	out := make([]types.AppointmentRecord, 0, len(existing))
	for _, a := range existing {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}

// Today returns the appointments scheduled on now's calendar date.
func Today(existing []types.AppointmentRecord, now time.Time) []types.AppointmentRecord {
	today := now.Format(dateLayout)
	out := make([]types.AppointmentRecord, 0)
	for _, a := range existing {
		if a.Date == today {
			out = append(out, a)
		}
	}
	return out
}

// Upcoming returns non-cancelled appointments scheduled at or after now,
// soonest first.
func Upcoming(existing []types.AppointmentRecord, now time.Time) []types.AppointmentRecord {
	type scheduled struct {
		rec types.AppointmentRecord
		at  time.Time
	}

	var future []scheduled
	for _, a := range existing {
		if a.Status == types.AppointmentCancelled {
			continue
		}
		at, err := ScheduledAt(a.Date, a.Time)
		if err != nil || at.Before(now) {
			continue
		}
		future = append(future, scheduled{rec: a, at: at})
	}

	// Insertion sort keeps ties in input order; upcoming lists are short.
	for i := 1; i < len(future); i++ {
		for j := i; j > 0 && future[j].at.Before(future[j-1].at); j-- {
			future[j], future[j-1] = future[j-1], future[j]
		}
	}

	out := make([]types.AppointmentRecord, len(future))
	for i, s := range future {
		out[i] = s.rec
	}
	return out
}

// ThisWeek returns the appointments falling on now's date through the six
// days after it, a rolling seven-day window rather than a calendar week.
func ThisWeek(existing []types.AppointmentRecord, now time.Time) []types.AppointmentRecord {
	start, err := time.Parse(dateLayout, now.Format(dateLayout))
	if err != nil {
		return []types.AppointmentRecord{}
	}
	end := start.AddDate(0, 0, 7)

	out := make([]types.AppointmentRecord, 0)
	for _, a := range existing {
		day, err := time.Parse(dateLayout, a.Date)
		if err != nil {
			continue
		}
		if !day.Before(start) && day.Before(end) {
			out = append(out, a)
		}
	}
	return out
}

// CountByStatus counts the records currently in the given status.
func CountByStatus(existing []types.AppointmentRecord, status types.AppointmentStatus) int {
	n := 0
	for _, a := range existing {
		if a.Status == status {
			n++
		}
	}
	return n
}
