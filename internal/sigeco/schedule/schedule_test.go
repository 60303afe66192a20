package schedule_test

import (
	"testing"
	"time"

	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/schedule"
	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/types"
)

func appointment(id int64, date, timeStr, destination string, status types.AppointmentStatus) types.AppointmentRecord {
	return types.AppointmentRecord{
		ID:          id,
		VisitorName: "Visitante",
		Document:    "123",
		Destination: destination,
		Date:        date,
		Time:        timeStr,
		Status:      status,
	}
}

func TestCreate_AssignsMaxPlusOneAndPending(t *testing.T) {
	existing := []types.AppointmentRecord{
		appointment(1, "2026-09-01", "10:00", "Apto 101", types.AppointmentConfirmed),
		appointment(5, "2026-09-01", "12:00", "Apto 102", types.AppointmentCancelled),
	}

	rec, out := schedule.Create(existing, schedule.NewAppointment{
		VisitorName: "Maria",
		Document:    "456",
		Destination: "Apto 205",
		Date:        "2026-09-02",
		Time:        "14:00",
	})

	if rec.ID != 6 {
		t.Errorf("expected id 6, got %d", rec.ID)
	}
	if rec.Status != types.AppointmentPending {
		t.Errorf("expected initial status pending, got %s", rec.Status)
	}
	if len(out) != 3 {
		t.Errorf("expected 3 records in new collection, got %d", len(out))
	}
	if len(existing) != 2 {
		t.Errorf("input collection mutated: %d records", len(existing))
	}
}

func TestCheckConflict_WithinWindow(t *testing.T) {
	existing := []types.AppointmentRecord{
		appointment(1, "2026-09-01", "14:00", "Apto 205", types.AppointmentConfirmed),
	}

	if !schedule.CheckConflict(existing, "2026-09-01", "14:30", "Apto 205", 0) {
		t.Error("expected conflict 30 minutes after an existing appointment")
	}
	// Symmetric: candidate before the existing appointment.
	if !schedule.CheckConflict(existing, "2026-09-01", "13:30", "Apto 205", 0) {
		t.Error("expected conflict 30 minutes before an existing appointment")
	}
}

func TestCheckConflict_OutsideWindow(t *testing.T) {
	existing := []types.AppointmentRecord{
		appointment(1, "2026-09-01", "14:00", "Apto 205", types.AppointmentConfirmed),
	}

	if schedule.CheckConflict(existing, "2026-09-01", "16:00", "Apto 205", 0) {
		t.Error("expected no conflict two hours away")
	}
	// Exactly one hour apart is allowed: the window is strict.
	if schedule.CheckConflict(existing, "2026-09-01", "15:00", "Apto 205", 0) {
		t.Error("expected no conflict exactly one hour apart")
	}
}

func TestCheckConflict_DifferentDestination(t *testing.T) {
	existing := []types.AppointmentRecord{
		appointment(1, "2026-09-01", "14:00", "Apto 205", types.AppointmentConfirmed),
	}

	if schedule.CheckConflict(existing, "2026-09-01", "14:00", "Apto 999", 0) {
		t.Error("expected no conflict at a different destination")
	}
}

func TestCheckConflict_CancelledIgnored(t *testing.T) {
	existing := []types.AppointmentRecord{
		appointment(1, "2026-09-01", "14:00", "Apto 205", types.AppointmentCancelled),
	}

	if schedule.CheckConflict(existing, "2026-09-01", "14:00", "Apto 205", 0) {
		t.Error("expected cancelled appointments to be ignored")
	}
}

func TestCheckConflict_ExcludeID(t *testing.T) {
	existing := []types.AppointmentRecord{
		appointment(1, "2026-09-01", "14:00", "Apto 205", types.AppointmentConfirmed),
	}

	// Rescheduling appointment 1 within its own slot must not self-conflict.
	if schedule.CheckConflict(existing, "2026-09-01", "14:15", "Apto 205", 1) {
		t.Error("expected excluded id to be skipped")
	}
}

func TestUpdateStatus_ReplacesWithoutMutating(t *testing.T) {
	existing := []types.AppointmentRecord{
		appointment(1, "2026-09-01", "14:00", "Apto 205", types.AppointmentPending),
	}

	out := schedule.UpdateStatus(existing, 1, types.AppointmentConfirmed)
	if out[0].Status != types.AppointmentConfirmed {
		t.Errorf("expected confirmed, got %s", out[0].Status)
	}
	if existing[0].Status != types.AppointmentPending {
		t.Error("input collection mutated")
	}
}

func TestUpdateStatus_AbsentIDUnchanged(t *testing.T) {
	existing := []types.AppointmentRecord{
		appointment(1, "2026-09-01", "14:00", "Apto 205", types.AppointmentPending),
	}

	out := schedule.UpdateStatus(existing, 99, types.AppointmentConfirmed)
	if len(out) != 1 || out[0].Status != types.AppointmentPending {
		t.Errorf("expected unchanged collection, got %+v", out)
	}
}

func TestDelete(t *testing.T) {
	existing := []types.AppointmentRecord{
		appointment(1, "2026-09-01", "14:00", "Apto 205", types.AppointmentPending),
		appointment(2, "2026-09-01", "16:00", "Apto 101", types.AppointmentPending),
	}

	out := schedule.Delete(existing, 1)
	if len(out) != 1 || out[0].ID != 2 {
		t.Errorf("expected only record 2 to remain, got %+v", out)
	}
	if len(existing) != 2 {
		t.Error("input collection mutated")
	}

	same := schedule.Delete(existing, 99)
	if len(same) != 2 {
		t.Errorf("absent id: expected unchanged collection, got %d records", len(same))
	}
}

func TestToday(t *testing.T) {
	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	existing := []types.AppointmentRecord{
		appointment(1, "2026-09-01", "14:00", "Apto 205", types.AppointmentPending),
		appointment(2, "2026-09-02", "14:00", "Apto 205", types.AppointmentPending),
	}

	got := schedule.Today(existing, now)
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("expected only today's appointment, got %+v", got)
	}
}

func TestUpcoming_FiltersAndSorts(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	existing := []types.AppointmentRecord{
		appointment(1, "2026-09-03", "10:00", "Apto 101", types.AppointmentConfirmed),
		appointment(2, "2026-09-01", "09:00", "Apto 101", types.AppointmentConfirmed), // past
		appointment(3, "2026-09-02", "10:00", "Apto 101", types.AppointmentCancelled), // cancelled
		appointment(4, "2026-09-01", "18:00", "Apto 101", types.AppointmentPending),
	}

	got := schedule.Upcoming(existing, now)
	if len(got) != 2 {
		t.Fatalf("expected 2 upcoming, got %d", len(got))
	}
	if got[0].ID != 4 || got[1].ID != 1 {
		t.Errorf("expected ascending order [4 1], got [%d %d]", got[0].ID, got[1].ID)
	}
}

func TestThisWeek_RollingWindow(t *testing.T) {
	now := time.Date(2026, 9, 1, 23, 0, 0, 0, time.UTC)
	existing := []types.AppointmentRecord{
		appointment(1, "2026-09-01", "10:00", "Apto 101", types.AppointmentPending),
		appointment(2, "2026-09-07", "10:00", "Apto 101", types.AppointmentPending),
		appointment(3, "2026-09-08", "10:00", "Apto 101", types.AppointmentPending), // day 8: outside
		appointment(4, "2026-08-31", "10:00", "Apto 101", types.AppointmentPending), // yesterday
	}

	got := schedule.ThisWeek(existing, now)
	if len(got) != 2 {
		t.Fatalf("expected 2 in window, got %d", len(got))
	}
	if got[0].ID != 1 || got[1].ID != 2 {
		t.Errorf("expected records 1 and 2, got %+v", got)
	}
}

func TestCountByStatus(t *testing.T) {
	existing := []types.AppointmentRecord{
		appointment(1, "2026-09-01", "10:00", "Apto 101", types.AppointmentPending),
		appointment(2, "2026-09-01", "12:00", "Apto 102", types.AppointmentPending),
		appointment(3, "2026-09-01", "14:00", "Apto 103", types.AppointmentCancelled),
	}

	if n := schedule.CountByStatus(existing, types.AppointmentPending); n != 2 {
		t.Errorf("expected 2 pending, got %d", n)
	}
	if n := schedule.CountByStatus(existing, types.AppointmentConfirmed); n != 0 {
		t.Errorf("expected 0 confirmed, got %d", n)
	}
}

func TestScheduledAt(t *testing.T) {
	at, err := schedule.ScheduledAt("2026-09-01", "14:30")
	if err != nil {
		t.Fatalf("ScheduledAt: %v", err)
	}
	want := time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC)
	if !at.Equal(want) {
		t.Errorf("expected %v, got %v", want, at)
	}

	if _, err := schedule.ScheduledAt("tomorrow", "noon"); err == nil {
		t.Error("expected parse error for malformed schedule")
	}
}
