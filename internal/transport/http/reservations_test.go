package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/COCO0911/staybooking-project/internal/domain"
)

type fakeReservationLister struct {
	reservations []domain.Reservation
	err          error
}

func (f *fakeReservationLister) ListByStay(_ context.Context, stayID string) ([]domain.Reservation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.reservations, nil
}

func TestHandleStayReservations(t *testing.T) {
	t.Parallel()

	checkin := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	svc := &fakeReservationLister{reservations: []domain.Reservation{
		{ID: "res-1", StayID: "stay-1", Guest: "carol", CheckinDate: checkin, CheckoutDate: checkin.AddDate(0, 0, 3)},
	}}

	t.Run("lists reservations without identity", func(t *testing.T) {
		// Deliberately no X-Username header: the endpoint is unscoped.
		req := httptest.NewRequest(http.MethodGet, "/stays/reservations/stay-1", nil)
		rec := httptest.NewRecorder()
		HandleStayReservations(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		var resp []reservationResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(resp) != 1 {
			t.Fatalf("expected 1 reservation, got %d", len(resp))
		}
		if resp[0].CheckinDate != "2025-03-01" || resp[0].CheckoutDate != "2025-03-04" {
			t.Fatalf("unexpected dates: %+v", resp[0])
		}
	})

	t.Run("invalid id maps to 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/stays/reservations/nope", nil)
		rec := httptest.NewRecorder()
		HandleStayReservations(&fakeReservationLister{err: domain.ErrInvalidID}).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/stays/reservations/stay-1", nil)
		rec := httptest.NewRecorder()
		HandleStayReservations(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected status 405, got %d", rec.Code)
		}
	})
}
