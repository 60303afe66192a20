package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/schedule"
	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/store"
	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/txn"
	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/types"
)

// AppointmentService binds the pure schedule functions to a persisted
// collection, giving callers the same commit-or-rollback contract as the
// other services while the logic itself stays stateless.
type AppointmentService struct {
	mu      sync.Mutex
	col     *store.Collection[types.AppointmentRecord]
	co      *txn.Coordinator[types.AppointmentRecord]
	records []types.AppointmentRecord
	logger  *log.Logger
	nowFn   func() time.Time
}

func NewAppointmentService(ctx context.Context, col *store.Collection[types.AppointmentRecord], logger *log.Logger) *AppointmentService {
	return &AppointmentService{
		col:     col,
		co:      txn.NewCoordinator[types.AppointmentRecord](nil),
		records: col.Load(ctx),
		logger:  logger,
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// Create validates and persists a new appointment. A schedule within the
// conflict window of an existing non-cancelled appointment at the same
// destination is rejected with ErrScheduleConflict.
func (s *AppointmentService) Create(ctx context.Context, data schedule.NewAppointment) (types.AppointmentRecord, error) {
	data.VisitorName = strings.TrimSpace(data.VisitorName)
	data.Document = strings.TrimSpace(data.Document)
	data.Destination = strings.TrimSpace(data.Destination)

	switch {
	case data.VisitorName == "":
		return types.AppointmentRecord{}, fmt.Errorf("%w: visitor_name", ErrMissingField)
	case data.Document == "":
		return types.AppointmentRecord{}, fmt.Errorf("%w: document", ErrMissingField)
	case data.Destination == "":
		return types.AppointmentRecord{}, fmt.Errorf("%w: destination", ErrMissingField)
	}
	if _, err := schedule.ScheduledAt(data.Date, data.Time); err != nil {
		return types.AppointmentRecord{}, fmt.Errorf("%w: %q %q", ErrInvalidSchedule, data.Date, data.Time)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if schedule.CheckConflict(s.records, data.Date, data.Time, data.Destination, 0) {
		return types.AppointmentRecord{}, ErrScheduleConflict
	}

	rec, next := schedule.Create(s.records, data)

	err := s.co.Mutate(&s.records,
		func([]types.AppointmentRecord) []types.AppointmentRecord { return next },
		func(in []types.AppointmentRecord) error { return s.col.Save(ctx, in) },
	)
	if err != nil {
		return types.AppointmentRecord{}, err
	}

	s.logger.Printf("appointment created: id=%d destination=%s at %s %s", rec.ID, rec.Destination, rec.Date, rec.Time)
	return rec, nil
}

// UpdateStatus transitions an appointment to the given status.
func (s *AppointmentService) UpdateStatus(ctx context.Context, id int64, status types.AppointmentStatus) (types.AppointmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exists(id) {
		return types.AppointmentRecord{}, ErrNotFound
	}

	next := schedule.UpdateStatus(s.records, id, status)

	err := s.co.Mutate(&s.records,
		func([]types.AppointmentRecord) []types.AppointmentRecord { return next },
		func(in []types.AppointmentRecord) error { return s.col.Save(ctx, in) },
	)
	if err != nil {
		return types.AppointmentRecord{}, err
	}

	for _, a := range s.records {
		if a.ID == id {
			return a, nil
		}
	}
	return types.AppointmentRecord{}, ErrNotFound
}

// Delete removes an appointment.
func (s *AppointmentService) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exists(id) {
		return ErrNotFound
	}

	next := schedule.Delete(s.records, id)

	return s.co.Mutate(&s.records,
		func([]types.AppointmentRecord) []types.AppointmentRecord { return next },
		func(in []types.AppointmentRecord) error { return s.col.Save(ctx, in) },
	)
}

// List returns a copy of all appointment records.
func (s *AppointmentService) List() []types.AppointmentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.AppointmentRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Today returns the appointments scheduled for the current date.
func (s *AppointmentService) Today() []types.AppointmentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return schedule.Today(s.records, s.nowFn())
}

// Upcoming returns future non-cancelled appointments, soonest first.
func (s *AppointmentService) Upcoming() []types.AppointmentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return schedule.Upcoming(s.records, s.nowFn())
}

// ThisWeek returns the appointments in the current seven-day window.
func (s *AppointmentService) ThisWeek() []types.AppointmentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return schedule.ThisWeek(s.records, s.nowFn())
}

// CountByStatus counts appointments currently in the given status.
func (s *AppointmentService) CountByStatus(status types.AppointmentStatus) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return schedule.CountByStatus(s.records, status)
}

func (s *AppointmentService) exists(id int64) bool {
	for _, a := range s.records {
		if a.ID == id {
			return true
		}
	}
	return false
}
