package app

import (
	"context"
	"fmt"
	"time"

	"github.com/COCO0911/staybooking-project/internal/clock"
	"github.com/COCO0911/staybooking-project/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type StayRepository interface {
	WithSerializableTx(ctx context.Context, fn func(ctx context.Context) error) error
	FindByOwner(ctx context.Context, owner string) ([]domain.Stay, error)
	FindByIDAndOwner(ctx context.Context, stayID, owner string) (domain.Stay, error)
	Create(ctx context.Context, stay domain.Stay) (domain.Stay, error)
	DeleteByID(ctx context.Context, stayID string) error
}

type ReservationFinder interface {
	FindByStayAndCheckoutAfter(ctx context.Context, stayID string, date time.Time) ([]domain.Reservation, error)
}

type LocationRepository interface {
	Save(ctx context.Context, location domain.Location) error
	FindByStay(ctx context.Context, stayID string) (*domain.Location, error)
}

// ImageStore persists an image blob and returns a stable reference to it.
// Implementations must be safe for concurrent use.
type ImageStore interface {
	Save(ctx context.Context, blob []byte) (string, error)
}

// Geocoder resolves a free-text address to coordinates, best-effort.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (latitude, longitude float64, err error)
}

type StayService struct {
	stays        StayRepository
	reservations ReservationFinder
	locations    LocationRepository
	images       ImageStore
	geocoder     Geocoder
	clock        clock.Clock
	logger       *zap.Logger
	uploadLimit  int
}

const defaultUploadLimit = 4

func NewStayService(
	stays StayRepository,
	reservations ReservationFinder,
	locations LocationRepository,
	images ImageStore,
	geocoder Geocoder,
	clk clock.Clock,
	logger *zap.Logger,
	opts ...StayServiceOption,
) *StayService {
	svc := &StayService{
		stays:        stays,
		reservations: reservations,
		locations:    locations,
		images:       images,
		geocoder:     geocoder,
		clock:        clk,
		logger:       logger,
		uploadLimit:  defaultUploadLimit,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type StayServiceOption func(*StayService)

// WithUploadLimit overrides how many image uploads run concurrently.
func WithUploadLimit(n int) StayServiceOption {
	return func(s *StayService) {
		if n > 0 {
			s.uploadLimit = n
		}
	}
}

func (s *StayService) ListByOwner(ctx context.Context, owner string) ([]domain.Stay, error) {
	return s.stays.FindByOwner(ctx, owner)
}

// GetOwned returns the stay only when it exists and belongs to owner,
// together with its location when one has been resolved. A missing stay and
// a stay owned by someone else are indistinguishable.
func (s *StayService) GetOwned(ctx context.Context, stayID, owner string) (domain.Stay, *domain.Location, error) {
	stay, err := s.stays.FindByIDAndOwner(ctx, stayID, owner)
	if err != nil {
		return domain.Stay{}, nil, err
	}
	loc, err := s.locations.FindByStay(ctx, stay.ID)
	if err != nil {
		return domain.Stay{}, nil, err
	}
	return stay, loc, nil
}

type PublishStayInput struct {
	Name        string
	Address     string
	Description string
	GuestNumber int
	Owner       string
	Images      [][]byte
}

// Publish uploads the image blobs concurrently, persists the stay with the
// resulting references in input order, then geocodes the address and saves
// the location. Partially failed uploads fail the whole call and leave
// already-uploaded blobs orphaned; a geocoding or location failure after the
// stay write returns the error but leaves the stay persisted without a
// location.
func (s *StayService) Publish(ctx context.Context, in PublishStayInput) (domain.Stay, error) {
	if in.Name == "" {
		return domain.Stay{}, domain.ErrStayNameRequired
	}
	if in.Address == "" {
		return domain.Stay{}, domain.ErrAddressRequired
	}
	if in.GuestNumber <= 0 {
		return domain.Stay{}, domain.ErrInvalidGuestNumber
	}

	urls, err := s.uploadImages(ctx, in.Images)
	if err != nil {
		s.logger.Error("image upload failed", zap.String("owner", in.Owner), zap.Error(err))
		return domain.Stay{}, err
	}

	stay, err := s.stays.Create(ctx, domain.Stay{
		Name:        in.Name,
		Address:     in.Address,
		Description: in.Description,
		GuestNumber: in.GuestNumber,
		Host:        in.Owner,
		Images:      urls,
	})
	if err != nil {
		return domain.Stay{}, err
	}
	s.logger.Info("stay published",
		zap.String("stay_id", stay.ID),
		zap.String("owner", stay.Host),
		zap.Int("images", len(stay.Images)),
	)

	lat, lng, err := s.geocoder.Resolve(ctx, stay.Address)
	if err != nil {
		s.logger.Warn("geocoding failed, stay persisted without location",
			zap.String("stay_id", stay.ID), zap.Error(err))
		return domain.Stay{}, fmt.Errorf("geocode stay %s: %w", stay.ID, err)
	}
	if err := s.locations.Save(ctx, domain.Location{StayID: stay.ID, Latitude: lat, Longitude: lng}); err != nil {
		s.logger.Warn("location save failed, stay persisted without location",
			zap.String("stay_id", stay.ID), zap.Error(err))
		return domain.Stay{}, err
	}

	return stay, nil
}

// uploadImages fans the blobs out to the image store with bounded
// concurrency. Results are collected by input index so the returned slice
// matches blob order no matter which upload finishes first.
func (s *StayService) uploadImages(ctx context.Context, blobs [][]byte) ([]string, error) {
	urls := make([]string, len(blobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.uploadLimit)
	for i, blob := range blobs {
		i, blob := i, blob
		g.Go(func() error {
			url, err := s.images.Save(gctx, blob)
			if err != nil {
				return fmt.Errorf("upload image %d: %w", i, err)
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

// Delete removes the stay unless a reservation with a checkout date
// strictly after today exists. The lookup, reservation check, and delete run
// in one serializable transaction so a concurrent reservation insert cannot
// slip between the check and the delete; the store aborts one of the two.
func (s *StayService) Delete(ctx context.Context, stayID, owner string) error {
	today := s.clock.Now().Truncate(24 * time.Hour)

	return s.stays.WithSerializableTx(ctx, func(txCtx context.Context) error {
		stay, err := s.stays.FindByIDAndOwner(txCtx, stayID, owner)
		if err != nil {
			return err
		}

		active, err := s.reservations.FindByStayAndCheckoutAfter(txCtx, stay.ID, today)
		if err != nil {
			return err
		}
		if len(active) > 0 {
			s.logger.Info("delete blocked by active reservation",
				zap.String("stay_id", stay.ID), zap.Int("reservations", len(active)))
			return domain.ErrActiveReservation
		}

		if err := s.stays.DeleteByID(txCtx, stay.ID); err != nil {
			return err
		}
		s.logger.Info("stay deleted", zap.String("stay_id", stay.ID), zap.String("owner", owner))
		return nil
	})
}
