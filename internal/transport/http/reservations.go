package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/COCO0911/staybooking-project/internal/domain"
)

// ReservationLister is the minimal interface needed to list reservations.
type ReservationLister interface {
	ListByStay(ctx context.Context, stayID string) ([]domain.Reservation, error)
}

// HandleStayReservations serves GET /stays/reservations/{id}. The listing is
// not scoped to the stay's owner.
func HandleStayReservations(svc ReservationLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		stayID, ok := parseReservationsPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		reservations, err := svc.ListByStay(r.Context(), stayID)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidID) {
				writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		resp := make([]reservationResponse, 0, len(reservations))
		for _, res := range reservations {
			resp = append(resp, reservationResponse{
				ID:           res.ID,
				StayID:       res.StayID,
				Guest:        res.Guest,
				CheckinDate:  res.CheckinDate.Format(dateLayout),
				CheckoutDate: res.CheckoutDate.Format(dateLayout),
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

const dateLayout = "2006-01-02"

func parseReservationsPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 || parts[0] != "stays" || parts[1] != "reservations" || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}

type reservationResponse struct {
	ID           string `json:"id"`
	StayID       string `json:"stay_id"`
	Guest        string `json:"guest"`
	CheckinDate  string `json:"checkin_date"`
	CheckoutDate string `json:"checkout_date"`
}
