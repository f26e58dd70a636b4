// Package booking orchestrates the PMS calls behind a reservation:
// customer creation, availability pricing and the final confirmation,
// plus staff notifications.
package booking

import (
	"context"
	"fmt"

	"github.com/stayline/concierge/internal/extract"
	"github.com/stayline/concierge/internal/notify"
	"github.com/stayline/concierge/internal/observability/metrics"
	"github.com/stayline/concierge/internal/pms"
	"github.com/stayline/concierge/pkg/logging"
)

// Booking terminal statuses reported to metrics.
const (
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
)

// Confirmation is the outcome of a successful booking.
type Confirmation struct {
	BookingID  int64
	CustomerID int64
	Offer      pms.RoomOffer
}

// Service coordinates the PMS backend and staff notifications.
type Service struct {
	backend  pms.Backend
	notifier *notify.Service
	metrics  *metrics.ConversationMetrics
	logger   *logging.Logger
}

// NewService creates a booking service. notifier and m may be nil.
func NewService(backend pms.Backend, notifier *notify.Service, m *metrics.ConversationMetrics, logger *logging.Logger) *Service {
	if backend == nil {
		panic("booking: pms backend cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{backend: backend, notifier: notifier, metrics: m, logger: logger}
}

// EnsureCustomer resolves the guest to a PMS customer id, creating the
// record when needed. The id survives later failures so retries do not
// create duplicate customers.
func (s *Service) EnsureCustomer(ctx context.Context, slots extract.Slots) (int64, error) {
	if slots.Name == nil || slots.Email == nil {
		return 0, fmt.Errorf("booking: name and email required to create customer")
	}
	phone := ""
	if slots.Phone != nil {
		phone = *slots.Phone
	}

	id, err := s.backend.FindOrCreateCustomer(ctx, *slots.Name, *slots.Email, phone)
	if err != nil {
		return 0, fmt.Errorf("booking: ensure customer: %w", err)
	}
	return id, nil
}

// Availability prices the stay described by the slots.
func (s *Service) Availability(ctx context.Context, slots extract.Slots) ([]pms.RoomOffer, error) {
	if slots.CheckInDate == nil || slots.CheckOutDate == nil || slots.Guests == nil {
		return nil, fmt.Errorf("booking: dates and guests required to check availability")
	}
	return s.backend.CheckAvailability(ctx, *slots.CheckInDate, *slots.CheckOutDate, *slots.Guests)
}

// Confirm books the chosen offer for the customer and alerts staff.
func (s *Service) Confirm(ctx context.Context, customerID int64, slots extract.Slots, offer pms.RoomOffer) (*Confirmation, error) {
	if customerID == 0 {
		return nil, fmt.Errorf("booking: customer id required")
	}
	if !slots.Complete() {
		return nil, fmt.Errorf("booking: incomplete slots")
	}

	bookingID, err := s.backend.CreateBooking(ctx, pms.BookingRequest{
		CustomerID: customerID,
		RoomTypeID: offer.RoomTypeID,
		CheckIn:    *slots.CheckInDate,
		CheckOut:   *slots.CheckOutDate,
		Guests:     *slots.Guests,
		TotalPrice: offer.TotalPrice,
	})
	if err != nil {
		s.metrics.ObserveBooking(StatusFailed)
		return nil, fmt.Errorf("booking: confirm: %w", err)
	}
	s.metrics.ObserveBooking(StatusConfirmed)

	s.logger.Info("booking confirmed",
		"booking_id", bookingID,
		"customer_id", customerID,
		"room_type_id", offer.RoomTypeID,
		"total_price", offer.TotalPrice,
	)

	if s.notifier != nil {
		phone := ""
		if slots.Phone != nil {
			phone = *slots.Phone
		}
		s.notifier.NotifyBookingConfirmed(ctx, notify.BookingAlert{
			BookingID:  bookingID,
			GuestName:  *slots.Name,
			GuestEmail: *slots.Email,
			GuestPhone: phone,
			RoomName:   offer.Name,
			CheckIn:    *slots.CheckInDate,
			CheckOut:   *slots.CheckOutDate,
			Guests:     *slots.Guests,
			TotalPrice: offer.TotalPrice,
		})
	}

	return &Confirmation{BookingID: bookingID, CustomerID: customerID, Offer: offer}, nil
}
