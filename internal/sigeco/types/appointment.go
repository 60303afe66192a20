package types

type AppointmentStatus string

const (
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// AppointmentRecord is a scheduled visit. Date and Time are kept in their
// wire form ("2006-01-02" / "15:04"); anything that needs to compare
// schedules combines them through schedule.ScheduledAt.
type AppointmentRecord struct {
	ID          int64             `json:"id"`
	VisitorName string            `json:"visitor_name"`
	Document    string            `json:"document"`
	Destination string            `json:"destination"`
	Reason      string            `json:"reason"`
	Date        string            `json:"date"`
	Time        string            `json:"time"`
	Phone       string            `json:"phone"`
	Status      AppointmentStatus `json:"status"`
	Resident    string            `json:"resident,omitempty"`
	Notes       string            `json:"notes,omitempty"`
}

func (a AppointmentRecord) RecordID() int64 { return a.ID }
