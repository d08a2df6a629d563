package ginserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"

	"rentalpricing/internal/app/bootstrap"
	"rentalpricing/internal/app/dto"
	"rentalpricing/internal/infra/config"
	"rentalpricing/internal/infra/obs"
	"rentalpricing/internal/infra/storage/memory"
)

type testServer struct {
	router *gin.Engine
	store  *memory.Store
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := memory.NewStore(nil)
	factory := memory.Factory{Store: store}
	var seq atomic.Int64
	buses := bootstrap.Build(bootstrap.Deps{
		UoWFactory:     factory,
		Idempotency:    memory.NewIdempotencyStore(time.Hour),
		IdempotencyTTL: time.Hour,
		Clock:          func() time.Time { return time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC) },
		IDs:            func() string { return fmt.Sprintf("id-%d", seq.Add(1)) },
	})
	router := NewRouter(config.Config{}, obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Property:     PropertyHandler{Commands: buses.Commands, Queries: buses.Queries, DefaultCurrency: "EUR"},
		Availability: AvailabilityHandler{Queries: buses.Queries},
		Booking:      BookingHandler{Commands: buses.Commands, Queries: buses.Queries},
		Payment:      PaymentHandler{Commands: buses.Commands},
	})
	return testServer{router: router, store: store}
}

func (s testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %T: %v (body %s)", out, err, rec.Body.String())
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func (s testServer) seedProperty(t *testing.T) {
	t.Helper()
	rec := s.do(t, http.MethodPut, "/api/v1/properties/p-1", map[string]any{
		"host_id":      "h-1",
		"title":        "Canal loft",
		"nightly_rate": 10000,
		"weekly_rate":  60000,
	})
	expectStatus(t, rec, http.StatusOK)
}

func (s testServer) requestBooking(t *testing.T, guest string) dto.Booking {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/bookings", map[string]any{
		"property_id": "p-1",
		"guest_id":    guest,
		"check_in":    "2025-02-01",
		"check_out":   "2025-02-22",
	})
	expectStatus(t, rec, http.StatusCreated)
	return decode[dto.Booking](t, rec)
}

func TestQuoteThreeWeeks(t *testing.T) {
	s := newTestServer(t)
	s.seedProperty(t)

	rec := s.do(t, http.MethodGet, "/api/v1/properties/p-1/quote?check_in=2025-02-01&check_out=2025-02-22", nil)
	expectStatus(t, rec, http.StatusOK)
	quote := decode[dto.Quote](t, rec)
	if len(quote.Periods) != 3 {
		t.Fatalf("expected 3 weekly periods, got %d", len(quote.Periods))
	}
	wantAmounts := []int64{60000, 54000, 48000}
	for i, p := range quote.Periods {
		if p.Kind != "weekly" || p.Amount.Amount != wantAmounts[i] {
			t.Fatalf("period %d: got %s %d", i, p.Kind, p.Amount.Amount)
		}
	}
	if quote.Accommodation.Amount != 162000 || quote.SecurityDeposit.Amount != 60000 || quote.GrandTotal.Amount != 222000 {
		t.Fatalf("unexpected totals %+v", quote)
	}
}

func TestQuoteRejectsInvertedStay(t *testing.T) {
	s := newTestServer(t)
	s.seedProperty(t)

	rec := s.do(t, http.MethodGet, "/api/v1/properties/p-1/quote?check_in=2025-02-10&check_out=2025-02-01", nil)
	expectStatus(t, rec, http.StatusUnprocessableEntity)

	rec = s.do(t, http.MethodGet, "/api/v1/properties/p-1/quote?check_in=2025-02-10", nil)
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	body := decode[errorResponse](t, rec)
	if len(body.Fields) != 1 || body.Fields[0].Field != "check_out" {
		t.Fatalf("expected check_out field error, got %+v", body)
	}
}

func TestUnknownPropertyIsNotFound(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/v1/properties/missing/quote?check_in=2025-02-01&check_out=2025-02-03", nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestBookingAndPaymentFlow(t *testing.T) {
	s := newTestServer(t)
	s.seedProperty(t)
	b := s.requestBooking(t, "g-1")
	if b.Status != "PENDING" {
		t.Fatalf("expected pending booking, got %s", b.Status)
	}

	// Pending bookings cannot be paid yet.
	rec := s.do(t, http.MethodPost, "/api/v1/bookings/"+b.ID+"/payments", map[string]any{"period_index": 0})
	expectStatus(t, rec, http.StatusConflict)

	rec = s.do(t, http.MethodPost, "/api/v1/bookings/"+b.ID+"/confirm", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodGet, "/api/v1/properties/p-1/availability?check_in=2025-02-05&check_out=2025-02-06", nil)
	expectStatus(t, rec, http.StatusOK)
	if decode[dto.Availability](t, rec).Available {
		t.Fatalf("confirmed booking should block the nights")
	}

	rec = s.do(t, http.MethodPost, "/api/v1/bookings/"+b.ID+"/payments", map[string]any{"period_index": 0})
	expectStatus(t, rec, http.StatusCreated)
	first := decode[dto.Payment](t, rec)
	if first.Amount.Amount != 60000 || first.Status != "pending" {
		t.Fatalf("unexpected payment %+v", first)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/payments/"+first.ID+"/confirm", map[string]any{"confirmed_by": "ops"})
	expectStatus(t, rec, http.StatusOK)

	// Skipping period 1 is a sequence violation.
	rec = s.do(t, http.MethodPost, "/api/v1/bookings/"+b.ID+"/payments", map[string]any{"period_index": 2})
	expectStatus(t, rec, http.StatusConflict)
	violation := decode[errorResponse](t, rec)
	if violation.FirstUnpaid == nil || *violation.FirstUnpaid != 1 {
		t.Fatalf("expected first unpaid period 1, got %+v", violation)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/bookings/"+b.ID+"/payments", map[string]any{"full_balance": true})
	expectStatus(t, rec, http.StatusCreated)
	rest := decode[dto.Payment](t, rec)
	if rest.FromPeriod != 1 || rest.ToPeriod != 3 || rest.Amount.Amount != 102000 {
		t.Fatalf("unexpected full balance payment %+v", rest)
	}
	rec = s.do(t, http.MethodPost, "/api/v1/payments/"+rest.ID+"/confirm", map[string]any{"confirmed_by": "ops"})
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodGet, "/api/v1/bookings/"+b.ID+"/schedule", nil)
	expectStatus(t, rec, http.StatusOK)
	schedule := decode[dto.PaymentSchedule](t, rec)
	if !schedule.Settled || schedule.PaidPeriods != 3 || schedule.Outstanding.Amount != 0 || schedule.NextIndex != nil {
		t.Fatalf("expected settled schedule, got %+v", schedule)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/bookings/"+b.ID+"/payments", map[string]any{"full_balance": true})
	expectStatus(t, rec, http.StatusConflict)

	names := map[string]int{}
	for _, m := range s.store.Outbox().Messages() {
		names[m.Name]++
	}
	if names["payment.confirmed"] != 2 || names["booking.confirmed"] != 1 {
		t.Fatalf("unexpected outbox contents %v", names)
	}
}

func TestRequestBookingReplaysIdempotencyKey(t *testing.T) {
	s := newTestServer(t)
	s.seedProperty(t)
	body := map[string]any{
		"property_id": "p-1",
		"guest_id":    "g-1",
		"check_in":    "2025-03-01",
		"check_out":   "2025-03-04",
	}
	first := s.do(t, http.MethodPost, "/api/v1/bookings", body, idempotencyHeader, "k-1")
	expectStatus(t, first, http.StatusCreated)
	second := s.do(t, http.MethodPost, "/api/v1/bookings", body, idempotencyHeader, "k-1")
	expectStatus(t, second, http.StatusCreated)
	if decode[dto.Booking](t, first).ID != decode[dto.Booking](t, second).ID {
		t.Fatalf("replayed request should return the same booking")
	}
}

func TestRequestBookingInPast(t *testing.T) {
	s := newTestServer(t)
	s.seedProperty(t)
	rec := s.do(t, http.MethodPost, "/api/v1/bookings", map[string]any{
		"property_id": "p-1",
		"guest_id":    "g-1",
		"check_in":    "2024-12-01",
		"check_out":   "2024-12-03",
	})
	expectStatus(t, rec, http.StatusUnprocessableEntity)
}

func TestConcurrentConfirmOnlyOneWins(t *testing.T) {
	s := newTestServer(t)
	s.seedProperty(t)
	a := s.requestBooking(t, "g-1")
	b := s.requestBooking(t, "g-2")

	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i, id := range []string{a.ID, b.ID} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/"+id+"/confirm", nil)
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, req)
			codes[i] = rec.Code
		}(i, id)
	}
	wg.Wait()

	ok, conflict := 0, 0
	for _, c := range codes {
		switch c {
		case http.StatusOK:
			ok++
		case http.StatusConflict:
			conflict++
		}
	}
	if ok != 1 || conflict != 1 {
		t.Fatalf("expected one winner and one conflict, got %v", codes)
	}
}

func TestCalendarMarksBookedDays(t *testing.T) {
	s := newTestServer(t)
	s.seedProperty(t)
	b := s.requestBooking(t, "g-1")
	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/bookings/"+b.ID+"/confirm", nil), http.StatusOK)

	rec := s.do(t, http.MethodGet, "/api/v1/properties/p-1/calendar?from=2025-01-31&to=2025-02-01", nil)
	expectStatus(t, rec, http.StatusOK)
	cal := decode[dto.Calendar](t, rec)
	if len(cal.Days) != 2 || !cal.Days[0].Available || cal.Days[1].Available || cal.Days[1].BookingID != b.ID {
		t.Fatalf("unexpected calendar %+v", cal.Days)
	}
}

func TestCancelReleasesDates(t *testing.T) {
	s := newTestServer(t)
	s.seedProperty(t)
	b := s.requestBooking(t, "g-1")
	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/bookings/"+b.ID+"/confirm", nil), http.StatusOK)

	rec := s.do(t, http.MethodPost, "/api/v1/bookings/"+b.ID+"/cancel", map[string]any{"reason": "plans changed"})
	expectStatus(t, rec, http.StatusOK)
	if decode[dto.Booking](t, rec).Status != "CANCELLED" {
		t.Fatalf("expected cancelled booking")
	}
	rec = s.do(t, http.MethodGet, "/api/v1/properties/p-1/availability?check_in=2025-02-01&check_out=2025-02-22", nil)
	if !decode[dto.Availability](t, rec).Available {
		t.Fatalf("cancelled booking should release the nights")
	}
}
