package types

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSindico  Role = "sindico"
	RolePorteiro Role = "porteiro"
	RoleMorador  Role = "morador"
)

type AccessType string

const (
	AccessEntry AccessType = "entry"
	AccessExit  AccessType = "exit"
	AccessStay  AccessType = "stay"
)

type AccessStatus string

const (
	AccessAuthorized AccessStatus = "authorized"
	AccessDenied     AccessStatus = "denied"
	AccessPending    AccessStatus = "pending"
	AccessExpired    AccessStatus = "expired"
)

// AccessRecord is a single gate decision. The collection is kept
// most-recent-first: new records are prepended.
type AccessRecord struct {
	ID           int64        `json:"id"`
	Timestamp    time.Time    `json:"timestamp"`
	UserID       string       `json:"user_id"`
	UserName     string       `json:"user_name"`
	UserRole     Role         `json:"user_role"`
	AccessType   AccessType   `json:"access_type"`
	Status       AccessStatus `json:"status"`
	Location     string       `json:"location"`
	Destination  string       `json:"destination,omitempty"`
	AuthorizedBy string       `json:"authorized_by,omitempty"`
	Reason       string       `json:"reason,omitempty"`
	Notes        string       `json:"notes,omitempty"`
}

func (a AccessRecord) RecordID() int64 { return a.ID }

// AuditEntry records who did what to the access log. Entries live in their
// own capped collection, separate from the records they describe, and are
// keyed by uuid rather than by the sequential record IDs.
type AuditEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Detail    string    `json:"detail,omitempty"`
}

// RecordID reports 0 so audit entries never participate in NextID.
func (a AuditEntry) RecordID() int64 { return 0 }
