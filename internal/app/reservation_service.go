package app

import (
	"context"

	"github.com/COCO0911/staybooking-project/internal/domain"
)

type ReservationRepository interface {
	ListByStay(ctx context.Context, stayID string) ([]domain.Reservation, error)
}

// ReservationService is the read path for reservations. Listing is not
// scoped to the stay's owner; authorization is expected upstream.
type ReservationService struct {
	repo ReservationRepository
}

func NewReservationService(repo ReservationRepository) *ReservationService {
	return &ReservationService{repo: repo}
}

func (s *ReservationService) ListByStay(ctx context.Context, stayID string) ([]domain.Reservation, error) {
	return s.repo.ListByStay(ctx, stayID)
}
