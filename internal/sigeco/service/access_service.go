package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/store"
	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/txn"
	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/types"
)

// rolePermissions is the static permission table: gate staff and residents
// may register entries and exits, but only administrative roles may record
// a stay.
var rolePermissions = map[types.Role]map[types.AccessType]bool{
	types.RoleAdmin:    {types.AccessEntry: true, types.AccessExit: true, types.AccessStay: true},
	types.RoleSindico:  {types.AccessEntry: true, types.AccessExit: true, types.AccessStay: true},
	types.RolePorteiro: {types.AccessEntry: true, types.AccessExit: true},
	types.RoleMorador:  {types.AccessEntry: true, types.AccessExit: true},
}

// HasPermission reports whether a role may register the given access type.
func HasPermission(role types.Role, accessType types.AccessType) bool {
	return rolePermissions[role][accessType]
}

// NewAccess is the caller-supplied portion of an access record.
type NewAccess struct {
	UserID       string             `json:"user_id"`
	UserName     string             `json:"user_name"`
	UserRole     types.Role         `json:"user_role"`
	AccessType   types.AccessType   `json:"access_type"`
	Status       types.AccessStatus `json:"status"`
	Location     string             `json:"location"`
	Destination  string             `json:"destination,omitempty"`
	AuthorizedBy string             `json:"authorized_by,omitempty"`
	Reason       string             `json:"reason,omitempty"`
	Notes        string             `json:"notes,omitempty"`
}

// StatsFilter narrows which records Stats and ExportCSV consider. Zero
// fields match everything.
type StatsFilter struct {
	AccessType types.AccessType
	Status     types.AccessStatus
	From       time.Time
	To         time.Time
}

func (f StatsFilter) matches(r types.AccessRecord) bool {
	if f.AccessType != "" && r.AccessType != f.AccessType {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if !f.From.IsZero() && r.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.Timestamp.After(f.To) {
		return false
	}
	return true
}

// Stats is the aggregate view over a filtered set of access records.
type Stats struct {
	Total    int                        `json:"total"`
	ByStatus map[types.AccessStatus]int `json:"by_status"`
	ByType   map[types.AccessType]int   `json:"by_type"`
}

// AccessService owns the access-event collection (most-recent-first, capped)
// and its audit log (separately capped). Mutations of the primary collection
// go through the optimistic coordinator; audit writes follow the primary
// mutation and are logged rather than escalated when they fail, so a full
// audit document never blocks the gate.
type AccessService struct {
	mu      sync.Mutex
	col     *store.Collection[types.AccessRecord]
	logCol  *store.Collection[types.AuditEntry]
	co      *txn.Coordinator[types.AccessRecord]
	records []types.AccessRecord
	logs    []types.AuditEntry
	logger  *log.Logger
	nowFn   func() time.Time
}

func NewAccessService(ctx context.Context, col *store.Collection[types.AccessRecord], logCol *store.Collection[types.AuditEntry], logger *log.Logger) *AccessService {
	return &AccessService{
		col:     col,
		logCol:  logCol,
		co:      txn.NewCoordinator[types.AccessRecord](nil),
		records: col.Load(ctx),
		logs:    logCol.Load(ctx),
		logger:  logger,
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// Record registers an access event at the head of the collection and appends
// an audit entry describing the action.
func (s *AccessService) Record(ctx context.Context, data NewAccess) (types.AccessRecord, error) {
	userName := strings.TrimSpace(data.UserName)
	location := strings.TrimSpace(data.Location)

	switch {
	case userName == "":
		return types.AccessRecord{}, fmt.Errorf("%w: user_name", ErrMissingField)
	case data.AccessType == "":
		return types.AccessRecord{}, fmt.Errorf("%w: access_type", ErrMissingField)
	case location == "":
		return types.AccessRecord{}, fmt.Errorf("%w: location", ErrMissingField)
	}

	status := data.Status
	if status == "" {
		status = types.AccessPending
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := types.AccessRecord{
		ID:           s.col.NextID(s.records),
		Timestamp:    s.nowFn(),
		UserID:       strings.TrimSpace(data.UserID),
		UserName:     userName,
		UserRole:     data.UserRole,
		AccessType:   data.AccessType,
		Status:       status,
		Location:     location,
		Destination:  strings.TrimSpace(data.Destination),
		AuthorizedBy: strings.TrimSpace(data.AuthorizedBy),
		Reason:       data.Reason,
		Notes:        data.Notes,
	}

	err := s.co.Mutate(&s.records,
		func(in []types.AccessRecord) []types.AccessRecord {
			return s.col.Cap(append([]types.AccessRecord{rec}, in...))
		},
		func(in []types.AccessRecord) error {
			return s.col.Save(ctx, in)
		},
	)
	if err != nil {
		return types.AccessRecord{}, err
	}

	actor := rec.AuthorizedBy
	if actor == "" {
		actor = rec.UserName
	}
	s.audit(ctx, "access_record_created",
		actor,
		fmt.Sprintf("%s %s at %s: %s", rec.UserName, rec.AccessType, rec.Location, rec.Status))

	return rec, nil
}

// Stats aggregates the filtered records by status and by access type.
// It never fails; an empty collection yields zeroed maps.
func (s *AccessService) Stats(filter StatsFilter) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		ByStatus: make(map[types.AccessStatus]int),
		ByType:   make(map[types.AccessType]int),
	}
	for _, r := range s.records {
		if !filter.matches(r) {
			continue
		}
		stats.Total++
		stats.ByStatus[r.Status]++
		stats.ByType[r.AccessType]++
	}
	return stats
}

// ClearOldRecords removes access records older than daysOld days, and
// audits the pruning action itself.
func (s *AccessService) ClearOldRecords(ctx context.Context, daysOld int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.nowFn().AddDate(0, 0, -daysOld)

	removed := 0
	for _, r := range s.records {
		if r.Timestamp.Before(cutoff) {
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}

	err := s.co.Mutate(&s.records,
		func(in []types.AccessRecord) []types.AccessRecord {
			kept := make([]types.AccessRecord, 0, len(in)-removed)
			for _, r := range in {
				if !r.Timestamp.Before(cutoff) {
					kept = append(kept, r)
				}
			}
			return kept
		},
		func(in []types.AccessRecord) error {
			return s.col.Save(ctx, in)
		},
	)
	if err != nil {
		return 0, err
	}

	s.audit(ctx, "access_records_pruned", "system",
		fmt.Sprintf("removed %d records older than %d days", removed, daysOld))
	s.logger.Printf("access prune: removed %d records older than %d days", removed, daysOld)
	return removed, nil
}

// List returns a copy of the records, most recent first.
func (s *AccessService) List() []types.AccessRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.AccessRecord, len(s.records))
	copy(out, s.records)
	return out
}

// AuditLog returns a copy of the audit entries, oldest first.
func (s *AccessService) AuditLog() []types.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.AuditEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

// accessCSVColumns is the fixed export order.
var accessCSVColumns = []string{
	"id", "timestamp", "user_id", "user_name", "user_role",
	"access_type", "status", "location", "destination",
	"authorized_by", "reason", "notes",
}

// ExportCSV renders the filtered records as UTF-8 CSV: a header row, then
// one fully double-quoted row per record in the fixed column order.
func (s *AccessService) ExportCSV(filter StatsFilter) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	b.WriteString(csvRow(accessCSVColumns...))

	for _, r := range s.records {
		if !filter.matches(r) {
			continue
		}
		b.WriteString(csvRow(
			strconv.FormatInt(r.ID, 10),
			r.Timestamp.Format(time.RFC3339),
			r.UserID,
			r.UserName,
			string(r.UserRole),
			string(r.AccessType),
			string(r.Status),
			r.Location,
			r.Destination,
			r.AuthorizedBy,
			r.Reason,
			r.Notes,
		))
	}
	return b.String()
}

// audit appends an entry to the capped audit log and persists it. A failed
// audit write must not undo or fail the primary mutation, so failures are
// only logged.
func (s *AccessService) audit(ctx context.Context, action, actor, detail string) {
	entry := types.AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: s.nowFn(),
		Action:    action,
		Actor:     actor,
		Detail:    detail,
	}

	s.logs = s.logCol.Cap(append(s.logs, entry))
	if err := s.logCol.Save(ctx, s.logs); err != nil {
		s.logger.Printf("audit write failed (action=%s): %v", action, err)
	}
}
