package service

import (
	"context"
	"fmt"
	"strings"

	apperrors "trimsdesk/internal/errors"
	"trimsdesk/internal/identity"
	"trimsdesk/internal/model"
	"trimsdesk/internal/module"
	"trimsdesk/internal/records"
)

// BookingService manages trims bookings.
type BookingService interface {
	List(ctx context.Context, who *identity.Identity) ([]model.Booking, error)
	Get(ctx context.Context, who *identity.Identity, id string) (*model.Booking, error)
	Create(ctx context.Context, who *identity.Identity, b model.Booking) (*model.Booking, error)
	Update(ctx context.Context, who *identity.Identity, id string, b model.Booking) (*model.Booking, error)
	Delete(ctx context.Context, who *identity.Identity, id string) error
}

type bookingService struct {
	layer *records.Layer
}

// NewBookingService creates a booking service.
func NewBookingService(layer *records.Layer) BookingService {
	return &bookingService{layer: layer}
}

func (s *bookingService) List(ctx context.Context, who *identity.Identity) ([]model.Booking, error) {
	return list[model.Booking](ctx, s.layer, module.Bookings, who, newestFirst(records.FieldCreatedAt))
}

func (s *bookingService) Get(ctx context.Context, who *identity.Identity, id string) (*model.Booking, error) {
	return load[model.Booking](ctx, s.layer, module.Bookings, who, id)
}

func (s *bookingService) Create(ctx context.Context, who *identity.Identity, b model.Booking) (*model.Booking, error) {
	if err := s.prepare(ctx, who, &b); err != nil {
		return nil, err
	}
	data, err := payload(b)
	if err != nil {
		return nil, err
	}
	id, err := s.layer.Create(ctx, module.Bookings, who, data)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, who, id)
}

func (s *bookingService) Update(ctx context.Context, who *identity.Identity, id string, b model.Booking) (*model.Booking, error) {
	if err := s.prepare(ctx, who, &b); err != nil {
		return nil, err
	}
	data, err := payload(b)
	if err != nil {
		return nil, err
	}
	if err := s.layer.Update(ctx, module.Bookings, who, id, data); err != nil {
		return nil, err
	}
	return s.Get(ctx, who, id)
}

func (s *bookingService) Delete(ctx context.Context, who *identity.Identity, id string) error {
	return s.layer.Delete(ctx, module.Bookings, who, id)
}

// prepare validates b and fills defaults: the buyer must be in the directory
// (its canonical spelling is kept) and a verified booking without a check date
// is checked today.
func (s *bookingService) prepare(ctx context.Context, who *identity.Identity, b *model.Booking) error {
	b.Buyer = strings.TrimSpace(b.Buyer)
	if err := required(b.Buyer, "Buyer is required."); err != nil {
		return err
	}
	buyer, err := findBuyer(ctx, s.layer, who, b.Buyer)
	if err != nil {
		return err
	}
	if buyer == nil {
		return apperrors.Invalid(fmt.Sprintf("Buyer %q is not in the buyer library.", b.Buyer))
	}
	b.Buyer = buyer.Name

	switch b.CheckStatus {
	case "":
		b.CheckStatus = model.CheckUnverified
	case model.CheckUnverified, model.CheckVerified:
	default:
		return apperrors.Invalid(fmt.Sprintf("Unknown check status %q.", b.CheckStatus))
	}
	if b.CheckStatus == model.CheckVerified && b.CheckDate == "" {
		b.CheckDate = s.layer.Today()
	}
	return nil
}
