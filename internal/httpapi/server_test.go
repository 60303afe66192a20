package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/httpapi"
	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/service"
	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/store"
	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/store/memory"
	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/types"
)

// newTestServer wires up the full dependency graph over an in-memory
// substrate and returns an httptest.Server plus the substrate for fault
// injection.
func newTestServer(t *testing.T) (*httptest.Server, *memory.KV) {
	t.Helper()

	kv := memory.New()
	logger := log.New(io.Discard, "", 0)
	ctx := context.Background()

	visitorCol := store.NewCollection[types.VisitorRecord](kv, "sigeco_visitors", store.OldestFirst, 0, logger)
	apptCol := store.NewCollection[types.AppointmentRecord](kv, "sigeco_appointments", store.OldestFirst, 0, logger)
	accessCol := store.NewCollection[types.AccessRecord](kv, "sigeco_access", store.NewestFirst, 1000, logger)
	logCol := store.NewCollection[types.AuditEntry](kv, "sigeco_access_logs", store.OldestFirst, 500, logger)

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:       logger,
		Addr:         ":0",
		Visitors:     service.NewVisitorService(ctx, visitorCol, logger),
		Appointments: service.NewAppointmentService(ctx, apptCol, logger),
		Access:       service.NewAccessService(ctx, accessCol, logCol, logger),
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, kv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func doRequest(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

// ── Visitors ─────────────────────────────────────────────────────────────────

func TestVisitorAdd_Created(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/visitors",
		`{"name":"José Araújo","document":"123.456.789-00","destination":"Apto 101"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	rec := decodeBody[types.VisitorRecord](t, resp)
	if rec.ID != 1 || rec.Status != types.VisitorActive {
		t.Errorf("expected active visitor with id 1, got %+v", rec)
	}
	if rec.Name != "José Araújo" {
		t.Errorf("expected name preserved, got %q", rec.Name)
	}
}

func TestVisitorAdd_MissingField(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/visitors", `{"name":"","document":"1","destination":"Apto 101"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestVisitorAdd_BadJSON(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/visitors", `{"name":`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestVisitorAdd_DuplicateActiveConflict(t *testing.T) {
	ts, _ := newTestServer(t)

	body := `{"name":"Ana","document":"111","destination":"Apto 101"}`
	resp := postJSON(t, ts.URL+"/v1/visitors", body)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/v1/visitors", body)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate active entry, got %d", resp.StatusCode)
	}
}

func TestVisitorCheckout(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/visitors", `{"name":"Ana","document":"111","destination":"Apto 101"}`)
	rec := decodeBody[types.VisitorRecord](t, resp)

	resp = postJSON(t, fmt.Sprintf("%s/v1/visitors/%d/checkout", ts.URL, rec.ID), "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	out := decodeBody[types.VisitorRecord](t, resp)
	if out.Status != types.VisitorDeparted || out.ExitTime == nil || out.Duration == nil {
		t.Errorf("expected departed visitor with exit time and duration, got %+v", out)
	}

	// Second checkout conflicts.
	resp = postJSON(t, fmt.Sprintf("%s/v1/visitors/%d/checkout", ts.URL, rec.ID), "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 on repeat checkout, got %d", resp.StatusCode)
	}
}

func TestVisitorCheckout_NotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/visitors/99/checkout", "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestVisitorCheckout_InvalidID(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/visitors/abc/checkout", "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestVisitorSearch_AccentInsensitive(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/visitors", `{"name":"João Silva","document":"111","destination":"Apto 101"}`)
	resp.Body.Close()

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/visitors/search?q=joao", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	results := decodeBody[[]map[string]json.RawMessage](t, resp)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestVisitorExport_CSV(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/visitors", `{"name":"Ana","document":"111","destination":"Apto 101"}`)
	resp.Body.Close()

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/visitors/export", "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("expected text/csv content type, got %q", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.HasPrefix(string(body), `"id","name"`) {
		t.Errorf("expected quoted CSV header, got %q", string(body))
	}
}

// ── Appointments ─────────────────────────────────────────────────────────────

func TestAppointmentCreateAndConflict(t *testing.T) {
	ts, _ := newTestServer(t)

	body := `{"visitor_name":"Maria","document":"222","destination":"Apto 205","date":"2026-09-01","time":"14:00"}`
	resp := postJSON(t, ts.URL+"/v1/appointments", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	rec := decodeBody[types.AppointmentRecord](t, resp)
	if rec.Status != types.AppointmentPending {
		t.Errorf("expected pending, got %s", rec.Status)
	}

	conflict := `{"visitor_name":"Carlos","document":"333","destination":"Apto 205","date":"2026-09-01","time":"14:30"}`
	resp = postJSON(t, ts.URL+"/v1/appointments", conflict)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for schedule conflict, got %d", resp.StatusCode)
	}
}

func TestAppointmentCreate_InvalidSchedule(t *testing.T) {
	ts, _ := newTestServer(t)

	body := `{"visitor_name":"Maria","document":"222","destination":"Apto 205","date":"soon","time":"later"}`
	resp := postJSON(t, ts.URL+"/v1/appointments", body)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAppointmentStatusAndDelete(t *testing.T) {
	ts, _ := newTestServer(t)

	body := `{"visitor_name":"Maria","document":"222","destination":"Apto 205","date":"2026-09-01","time":"14:00"}`
	resp := postJSON(t, ts.URL+"/v1/appointments", body)
	rec := decodeBody[types.AppointmentRecord](t, resp)

	url := fmt.Sprintf("%s/v1/appointments/%d/status", ts.URL, rec.ID)
	resp = doRequest(t, http.MethodPatch, url, `{"status":"confirmed"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	out := decodeBody[types.AppointmentRecord](t, resp)
	if out.Status != types.AppointmentConfirmed {
		t.Errorf("expected confirmed, got %s", out.Status)
	}

	resp = doRequest(t, http.MethodPatch, url, `{"status":"soon"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown status, got %d", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodDelete, fmt.Sprintf("%s/v1/appointments/%d", ts.URL, rec.ID), "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodDelete, fmt.Sprintf("%s/v1/appointments/%d", ts.URL, rec.ID), "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", resp.StatusCode)
	}
}

func TestAppointmentList_Windows(t *testing.T) {
	ts, _ := newTestServer(t)

	body := `{"visitor_name":"Maria","document":"222","destination":"Apto 205","date":"2026-09-01","time":"14:00"}`
	resp := postJSON(t, ts.URL+"/v1/appointments", body)
	resp.Body.Close()

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/appointments", "")
	all := decodeBody[[]types.AppointmentRecord](t, resp)
	if len(all) != 1 {
		t.Errorf("expected 1 appointment, got %d", len(all))
	}

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/appointments?window=yesterday", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown window, got %d", resp.StatusCode)
	}
}

// ── Access ───────────────────────────────────────────────────────────────────

func TestAccessRecordAndStats(t *testing.T) {
	ts, _ := newTestServer(t)

	body := `{"user_name":"Pedro","user_role":"porteiro","access_type":"entry","status":"authorized","location":"Portaria principal"}`
	resp := postJSON(t, ts.URL+"/v1/access", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	rec := decodeBody[types.AccessRecord](t, resp)
	if rec.ID != 1 || rec.Status != types.AccessAuthorized {
		t.Errorf("unexpected record: %+v", rec)
	}

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/access/stats?type=entry", "")
	stats := decodeBody[service.Stats](t, resp)
	if stats.Total != 1 {
		t.Errorf("expected total 1, got %d", stats.Total)
	}

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/access/stats?from=not-a-time", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed from, got %d", resp.StatusCode)
	}
}

func TestAccessRecord_MissingField(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/access", `{"user_name":"Pedro","access_type":"entry"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAccessAuditLog(t *testing.T) {
	ts, _ := newTestServer(t)

	body := `{"user_name":"Pedro","user_role":"porteiro","access_type":"entry","status":"authorized","location":"Portaria principal"}`
	resp := postJSON(t, ts.URL+"/v1/access", body)
	resp.Body.Close()

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/access/logs", "")
	logs := decodeBody[[]types.AuditEntry](t, resp)
	if len(logs) != 1 || logs[0].Action != "access_record_created" {
		t.Errorf("expected one audit entry for the created record, got %+v", logs)
	}
}

func TestStorageFailureSurfacesAsServerError(t *testing.T) {
	ts, kv := newTestServer(t)

	kv.FailWrites(memory.QuotaError(fmt.Errorf("substrate full")))

	resp := postJSON(t, ts.URL+"/v1/visitors", `{"name":"Ana","document":"111","destination":"Apto 101"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 when persistence fails, got %d", resp.StatusCode)
	}
}
