package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gestmais/internal/core"
	"gestmais/internal/log"
	"gestmais/internal/response"
	"gestmais/internal/services"
	"gestmais/internal/storage/memory"
)

type testEnv struct {
	srv        *Server
	store      *memory.Store
	buildingID int64
	aptID      int64
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	store, err := memory.NewFromSeedFile(context.Background(), "../storage/testdata/seed.json")
	if err != nil {
		t.Fatalf("NewFromSeedFile() error = %v", err)
	}
	rec, err := store.GetResidentApartment(context.Background(), "user-1a")
	if err != nil {
		t.Fatalf("GetResidentApartment() error = %v", err)
	}

	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	svc := services.NewPaymentStatusService(store,
		services.WithClock(func() time.Time { return now }),
		services.WithLocation(time.UTC),
		services.WithLogger(log.Discard()))

	srv := NewServer(":0", svc, Options{Logger: log.Discard(), WriteRateLimit: 100})
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return testEnv{srv: srv, store: store, buildingID: rec.BuildingID, aptID: rec.ID}
}

func (e testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) response.APIResponse[T] {
	t.Helper()
	var out response.APIResponse[T]
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/v1/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestResidentPaymentStatus(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/v1/residents/user-1a/payment-status", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	got := decode[summaryDTO](t, rr)
	if !got.Success {
		t.Error("success = false")
	}
	d := got.Data
	if d.Label != "Ana Costa · Fração 1A" {
		t.Errorf("label = %q", d.Label)
	}
	if d.Regular.BalanceCents != 14167 || d.Regular.OverdueMonths != 1 {
		t.Errorf("regular = %+v", d.Regular)
	}
	if d.Extraordinary.BalanceCents != 41667 || d.Extraordinary.OverdueInstallments != 1 {
		t.Errorf("extraordinary = %+v", d.Extraordinary)
	}
	if d.TotalBalanceCents != 55834 || d.Status != "critical" {
		t.Errorf("total = %d status = %s", d.TotalBalanceCents, d.Status)
	}
	if d.AsOf != "2025-06-10" {
		t.Errorf("as_of = %q", d.AsOf)
	}
}

func TestApartmentAndBuildingStatus(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, fmt.Sprintf("/v1/apartments/%d/payment-status", env.aptID), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("apartment status = %d", rr.Code)
	}
	if got := decode[summaryDTO](t, rr); got.Data.Regular.MonthlyQuotaCents != 14167 {
		t.Errorf("monthly quota = %d, want 14167", got.Data.Regular.MonthlyQuotaCents)
	}

	rr = env.do(t, http.MethodGet, fmt.Sprintf("/v1/buildings/%d/payment-status", env.buildingID), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("building status = %d", rr.Code)
	}
	b := decode[summaryDTO](t, rr)
	if b.Data.Extraordinary.ActiveProjects != 1 {
		t.Errorf("active projects = %d, want 1", b.Data.Extraordinary.ActiveProjects)
	}
	if b.Data.Status == "ok" {
		t.Error("building with arrears must not be ok")
	}

	rr = env.do(t, http.MethodGet, fmt.Sprintf("/v1/buildings/%d/apartments", env.buildingID), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("overview status = %d", rr.Code)
	}
	ov := decode[overviewDTO](t, rr)
	if ov.Data.Name != "Edifício Aurora" || len(ov.Data.Apartments) != 2 {
		t.Errorf("overview = %s / %d apartments", ov.Data.Name, len(ov.Data.Apartments))
	}
}

func TestFailureStatusCodes(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown resident", http.MethodGet, "/v1/residents/nobody/payment-status", nil, http.StatusNotFound},
		{"unknown apartment", http.MethodGet, "/v1/apartments/999/payment-status", nil, http.StatusNotFound},
		{"unknown building", http.MethodGet, "/v1/buildings/999/apartments", nil, http.StatusNotFound},
		{"non numeric id", http.MethodGet, "/v1/apartments/abc/payment-status", nil, http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/v1/nothing", nil, http.StatusNotFound},
		{"wrong method", http.MethodDelete, "/v1/health", nil, http.StatusMethodNotAllowed},
		{"bad json", http.MethodPut, fmt.Sprintf("/v1/apartments/%d/payments/2025/6", env.aptID), "{", http.StatusBadRequest},
		{"unknown field", http.MethodPut, fmt.Sprintf("/v1/apartments/%d/payments/2025/6", env.aptID), map[string]any{"status": "paid", "note": "x"}, http.StatusBadRequest},
		{"bad status", http.MethodPut, fmt.Sprintf("/v1/apartments/%d/payments/2025/6", env.aptID), map[string]any{"status": "maybe"}, http.StatusUnprocessableEntity},
		{"bad month", http.MethodPut, fmt.Sprintf("/v1/apartments/%d/payments/2025/13", env.aptID), map[string]any{"status": "paid"}, http.StatusUnprocessableEntity},
		{"negative amount", http.MethodPut, fmt.Sprintf("/v1/apartments/%d/payments/2025/6", env.aptID), map[string]any{"status": "paid", "amount_cents": -1}, http.StatusUnprocessableEntity},
		{"update unknown apartment", http.MethodPut, "/v1/apartments/999/payments/2025/6", map[string]any{"status": "paid"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, tt.method, tt.path, tt.body)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tt.want, rr.Body.String())
			}
			if got := decode[json.RawMessage](t, rr); got.Success || got.Message == "" {
				t.Errorf("failure envelope = %+v", got)
			}
		})
	}
}

func TestValidationErrorsNameFields(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPut, fmt.Sprintf("/v1/apartments/%d/payments/2025/0", env.aptID), map[string]any{"status": "x"})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rr.Code)
	}
	got := decode[response.ValidationErrors](t, rr)
	if got.Data["status"] != "oneof" || got.Data["month"] != "gte" {
		t.Errorf("validation errors = %v", got.Data)
	}
}

func TestUpdatePaymentSettlesMonth(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPut, fmt.Sprintf("/v1/apartments/%d/payments/2025/6", env.aptID), map[string]any{"status": "PAID"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	p := decode[paymentDTO](t, rr)
	if p.Data.AmountCents != 14167 || p.Data.Status != "paid" {
		t.Errorf("payment = %+v", p.Data)
	}
	if p.Message != services.MessagePaymentRecorded {
		t.Errorf("message = %q", p.Message)
	}

	rr = env.do(t, http.MethodGet, fmt.Sprintf("/v1/apartments/%d/payment-status", env.aptID), nil)
	s := decode[summaryDTO](t, rr)
	if s.Data.Regular.BalanceCents != 0 || !s.Data.Regular.CurrentMonthPaid {
		t.Errorf("regular after payment = %+v", s.Data.Regular)
	}
}

func TestUpdatePaymentRateLimited(t *testing.T) {
	store := memory.New()
	svc := services.NewPaymentStatusService(store, services.WithLogger(log.Discard()))
	srv := NewServer(":0", svc, Options{Logger: log.Discard(), WriteRateLimit: 1})
	defer srv.Shutdown(context.Background())

	codes := make([]int, 2)
	for i := range codes {
		req := httptest.NewRequest(http.MethodPut, "/v1/apartments/1/payments/2025/6", bytes.NewBufferString(`{"status":"paid"}`))
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, req)
		codes[i] = rr.Code
	}
	if codes[0] != http.StatusNotFound || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [404 429]", codes)
	}
}

type brokenService struct{ PaymentService }

func (brokenService) ApartmentPaymentStatus(context.Context, int64) (core.PaymentStatusSummary, error) {
	return core.PaymentStatusSummary{}, &services.Failure{Kind: services.FailureStorage, Err: errors.New("disk I/O error")}
}

func TestStorageFailureHidesCause(t *testing.T) {
	srv := NewServer(":0", brokenService{}, Options{Logger: log.Discard()})
	defer srv.Shutdown(context.Background())

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/apartments/1/payment-status", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if bytes.Contains(rr.Body.Bytes(), []byte("disk")) {
		t.Errorf("storage error leaked: %s", rr.Body.String())
	}
	if got := decode[json.RawMessage](t, rr); got.Message != services.MessageStorageFailure {
		t.Errorf("message = %q", got.Message)
	}
}
