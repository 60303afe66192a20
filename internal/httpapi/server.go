package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/schedule"
	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/service"
	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/store"
	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/types"
)

type Dependencies struct {
	Logger       *log.Logger
	Addr         string
	Visitors     *service.VisitorService
	Appointments *service.AppointmentService
	Access       *service.AccessService
}

type Server struct {
	httpServer   *http.Server
	logger       *log.Logger
	mux          *http.ServeMux
	visitors     *service.VisitorService
	appointments *service.AppointmentService
	access       *service.AccessService
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:       d.Logger,
		mux:          mux,
		visitors:     d.Visitors,
		appointments: d.Appointments,
		access:       d.Access,
	}

	mux.HandleFunc("POST /v1/visitors", s.handleVisitorAdd)
	mux.HandleFunc("GET /v1/visitors", s.handleVisitorList)
	mux.HandleFunc("POST /v1/visitors/{id}/checkout", s.handleVisitorCheckout)
	mux.HandleFunc("GET /v1/visitors/search", s.handleVisitorSearch)
	mux.HandleFunc("GET /v1/visitors/export", s.handleVisitorExport)

	mux.HandleFunc("POST /v1/appointments", s.handleAppointmentCreate)
	mux.HandleFunc("GET /v1/appointments", s.handleAppointmentList)
	mux.HandleFunc("PATCH /v1/appointments/{id}/status", s.handleAppointmentStatus)
	mux.HandleFunc("DELETE /v1/appointments/{id}", s.handleAppointmentDelete)

	mux.HandleFunc("POST /v1/access", s.handleAccessRecord)
	mux.HandleFunc("GET /v1/access", s.handleAccessList)
	mux.HandleFunc("GET /v1/access/stats", s.handleAccessStats)
	mux.HandleFunc("GET /v1/access/export", s.handleAccessExport)
	mux.HandleFunc("GET /v1/access/logs", s.handleAuditLog)

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// writeServiceError maps the service sentinels onto HTTP statuses. Anything
// unrecognized is treated as a server fault and logged.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrMissingField):
		writeError(w, http.StatusBadRequest, "missing_field", err.Error())
	case errors.Is(err, service.ErrInvalidSchedule):
		writeError(w, http.StatusBadRequest, "invalid_schedule", err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrDuplicateActiveEntry):
		writeError(w, http.StatusConflict, "duplicate_active_entry", err.Error())
	case errors.Is(err, service.ErrAlreadyDeparted):
		writeError(w, http.StatusConflict, "already_departed", err.Error())
	case errors.Is(err, service.ErrScheduleConflict):
		writeError(w, http.StatusConflict, "schedule_conflict", err.Error())
	default:
		var se *store.StorageError
		if errors.As(err, &se) {
			s.logger.Printf("storage error (%s): %v", se.Kind, err)
		} else {
			s.logger.Printf("unexpected error: %v", err)
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// ── Visitors ─────────────────────────────────────────────────────────────────

func (s *Server) handleVisitorAdd(w http.ResponseWriter, r *http.Request) {
	var req service.NewVisitor
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	rec, err := s.visitors.Add(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleVisitorList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.visitors.List())
}

func (s *Server) handleVisitorCheckout(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return
	}

	rec, err := s.visitors.Checkout(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type searchResult struct {
	Visitor      types.VisitorRecord `json:"visitor"`
	MatchedField string              `json:"matched_field"`
	Score        int                 `json:"score"`
}

func (s *Server) handleVisitorSearch(w http.ResponseWriter, r *http.Request) {
	matches := s.visitors.Search(r.URL.Query().Get("q"))

	results := make([]searchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, searchResult{
			Visitor:      m.Visitor,
			MatchedField: string(m.Field),
			Score:        m.Score,
		})
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleVisitorExport(w http.ResponseWriter, r *http.Request) {
	writeCSV(w, "visitantes.csv", s.visitors.ExportCSV())
}

// ── Appointments ─────────────────────────────────────────────────────────────

func (s *Server) handleAppointmentCreate(w http.ResponseWriter, r *http.Request) {
	var req schedule.NewAppointment
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	rec, err := s.appointments.Create(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// handleAppointmentList serves the full collection by default; the optional
// window query narrows it to today, week, or upcoming.
func (s *Server) handleAppointmentList(w http.ResponseWriter, r *http.Request) {
	switch window := r.URL.Query().Get("window"); window {
	case "":
		writeJSON(w, http.StatusOK, s.appointments.List())
	case "today":
		writeJSON(w, http.StatusOK, s.appointments.Today())
	case "week":
		writeJSON(w, http.StatusOK, s.appointments.ThisWeek())
	case "upcoming":
		writeJSON(w, http.StatusOK, s.appointments.Upcoming())
	default:
		writeError(w, http.StatusBadRequest, "invalid_window", "window must be today, week or upcoming")
	}
}

type statusUpdate struct {
	Status types.AppointmentStatus `json:"status"`
}

func (s *Server) handleAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return
	}

	var req statusUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}
	switch req.Status {
	case types.AppointmentConfirmed, types.AppointmentPending, types.AppointmentCancelled:
	default:
		writeError(w, http.StatusBadRequest, "invalid_status", "unknown appointment status")
		return
	}

	rec, err := s.appointments.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleAppointmentDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return
	}

	if err := s.appointments.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Access ───────────────────────────────────────────────────────────────────

func (s *Server) handleAccessRecord(w http.ResponseWriter, r *http.Request) {
	var req service.NewAccess
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	rec, err := s.access.Record(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleAccessList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.access.List())
}

// statsFilterFromQuery reads the optional type, status, from and to query
// parameters. Timestamps are RFC 3339.
func statsFilterFromQuery(r *http.Request) (service.StatsFilter, error) {
	q := r.URL.Query()
	f := service.StatsFilter{
		AccessType: types.AccessType(strings.TrimSpace(q.Get("type"))),
		Status:     types.AccessStatus(strings.TrimSpace(q.Get("status"))),
	}

	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, err
		}
		f.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, err
		}
		f.To = t
	}
	return f, nil
}

func (s *Server) handleAccessStats(w http.ResponseWriter, r *http.Request) {
	filter, err := statsFilterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_filter", "from and to must be RFC 3339 timestamps")
		return
	}
	writeJSON(w, http.StatusOK, s.access.Stats(filter))
}

func (s *Server) handleAccessExport(w http.ResponseWriter, r *http.Request) {
	filter, err := statsFilterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_filter", "from and to must be RFC 3339 timestamps")
		return
	}
	writeCSV(w, "acessos.csv", s.access.ExportCSV(filter))
}

func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.access.AuditLog())
}
