package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/COCO0911/staybooking-project/internal/app"
	"github.com/COCO0911/staybooking-project/internal/domain"
)

// maxUploadBytes caps the whole multipart publish request.
const maxUploadBytes = 32 << 20

// StayManager is the surface of the stay lifecycle needed by this handler.
type StayManager interface {
	ListByOwner(ctx context.Context, owner string) ([]domain.Stay, error)
	GetOwned(ctx context.Context, stayID, owner string) (domain.Stay, *domain.Location, error)
	Publish(ctx context.Context, in app.PublishStayInput) (domain.Stay, error)
	Delete(ctx context.Context, stayID, owner string) error
}

// HandleStays serves GET (list) and POST (publish) on /stays.
func HandleStays(svc StayManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			listStays(svc, w, r)
		case http.MethodPost:
			publishStay(svc, w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

// HandleStayByID serves GET and DELETE on /stays/{id}.
func HandleStayByID(svc StayManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stayID, ok := parseStayPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		owner, ok := requirePrincipal(w, r)
		if !ok {
			return
		}

		switch r.Method {
		case http.MethodGet:
			stay, loc, err := svc.GetOwned(r.Context(), stayID, owner)
			if err != nil {
				writeStayError(w, err)
				return
			}
			resp := toStayResponse(stay)
			if loc != nil {
				resp.Location = &locationResponse{Latitude: loc.Latitude, Longitude: loc.Longitude}
			}
			writeJSON(w, http.StatusOK, resp)
		case http.MethodDelete:
			if err := svc.Delete(r.Context(), stayID, owner); err != nil {
				writeStayError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

func listStays(svc StayManager, w http.ResponseWriter, r *http.Request) {
	owner, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	stays, err := svc.ListByOwner(r.Context(), owner)
	if err != nil {
		writeStayError(w, err)
		return
	}

	resp := make([]stayResponse, 0, len(stays))
	for _, stay := range stays {
		resp = append(resp, toStayResponse(stay))
	}
	writeJSON(w, http.StatusOK, resp)
}

func publishStay(svc StayManager, w http.ResponseWriter, r *http.Request) {
	owner, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid multipart form")
		return
	}

	guestNumber, err := strconv.Atoi(r.FormValue("guest_number"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidGuestNumber, domain.ErrInvalidGuestNumber.Error())
		return
	}

	var blobs [][]byte
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["images"] {
			file, err := header.Open()
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "unreadable image part")
				return
			}
			blob, err := io.ReadAll(file)
			_ = file.Close()
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "unreadable image part")
				return
			}
			blobs = append(blobs, blob)
		}
	}

	stay, err := svc.Publish(r.Context(), app.PublishStayInput{
		Name:        r.FormValue("name"),
		Address:     r.FormValue("address"),
		Description: r.FormValue("description"),
		GuestNumber: guestNumber,
		Owner:       owner,
		Images:      blobs,
	})
	if err != nil {
		writeStayError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toStayResponse(stay))
}

func writeStayError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrStayNotFound):
		writeError(w, http.StatusNotFound, codeStayNotFound, err.Error())
	case errors.Is(err, domain.ErrActiveReservation):
		writeError(w, http.StatusConflict, codeActiveReservation, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrStayNameRequired):
		writeError(w, http.StatusBadRequest, codeStayNameRequired, err.Error())
	case errors.Is(err, domain.ErrAddressRequired):
		writeError(w, http.StatusBadRequest, codeAddressRequired, err.Error())
	case errors.Is(err, domain.ErrInvalidGuestNumber):
		writeError(w, http.StatusBadRequest, codeInvalidGuestNumber, err.Error())
	case errors.Is(err, domain.ErrStoreContention):
		writeError(w, http.StatusServiceUnavailable, codeStoreContention, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func parseStayPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] != "stays" || parts[1] == "" {
		return "", false
	}
	// "reservations" is a reserved route segment, never a stay id.
	if parts[1] == "reservations" {
		return "", false
	}
	return parts[1], true
}

type stayResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Address     string            `json:"address"`
	Description string            `json:"description"`
	GuestNumber int               `json:"guest_number"`
	Host        string            `json:"host"`
	Images      []string          `json:"images"`
	Location    *locationResponse `json:"location,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

type locationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func toStayResponse(stay domain.Stay) stayResponse {
	images := stay.Images
	if images == nil {
		images = []string{}
	}
	return stayResponse{
		ID:          stay.ID,
		Name:        stay.Name,
		Address:     stay.Address,
		Description: stay.Description,
		GuestNumber: stay.GuestNumber,
		Host:        stay.Host,
		Images:      images,
		CreatedAt:   stay.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
