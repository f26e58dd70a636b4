// Package notify alerts property staff about confirmed bookings and
// housekeeping requests. Delivery is best effort: a failed notification
// never fails the guest-facing operation that triggered it.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stayline/concierge/pkg/logging"
)

// BookingAlert carries the details staff need about a new reservation.
type BookingAlert struct {
	BookingID  int64   `json:"booking_id"`
	GuestName  string  `json:"guest_name"`
	GuestEmail string  `json:"guest_email"`
	GuestPhone string  `json:"guest_phone,omitempty"`
	RoomName   string  `json:"room_name"`
	CheckIn    string  `json:"check_in"`
	CheckOut   string  `json:"check_out"`
	Guests     int     `json:"guests"`
	TotalPrice float64 `json:"total_price"`
}

// HousekeepingAlert carries a guest's housekeeping request.
type HousekeepingAlert struct {
	TicketRef   string    `json:"ticket_ref"`
	GuestName   string    `json:"guest_name,omitempty"`
	Room        string    `json:"room,omitempty"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
}

// Service fans notifications out to email and the staff webhook.
type Service struct {
	email      EmailSender
	webhook    *WebhookSender
	staffEmail string
	logger     *logging.Logger
}

// NewService creates a notification service. email and webhook may each
// be nil; a channel that is not configured is skipped.
func NewService(email EmailSender, webhook *WebhookSender, staffEmail string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, webhook: webhook, staffEmail: staffEmail, logger: logger}
}

// NotifyBookingConfirmed alerts staff about a confirmed reservation.
func (s *Service) NotifyBookingConfirmed(ctx context.Context, alert BookingAlert) {
	subject := fmt.Sprintf("New booking #%d: %s", alert.BookingID, alert.RoomName)
	body := strings.Join([]string{
		fmt.Sprintf("Guest: %s <%s>", alert.GuestName, alert.GuestEmail),
		fmt.Sprintf("Room: %s", alert.RoomName),
		fmt.Sprintf("Stay: %s to %s (%d guests)", alert.CheckIn, alert.CheckOut, alert.Guests),
		fmt.Sprintf("Total: $%.2f", alert.TotalPrice),
	}, "\n")

	s.deliver(ctx, subject, body, map[string]any{"event": "booking_confirmed", "booking": alert})
}

// NotifyHousekeeping alerts staff about a housekeeping request.
func (s *Service) NotifyHousekeeping(ctx context.Context, alert HousekeepingAlert) {
	subject := fmt.Sprintf("Housekeeping request %s", alert.TicketRef)
	lines := []string{fmt.Sprintf("Priority: %s", alert.Priority)}
	if alert.GuestName != "" {
		lines = append(lines, fmt.Sprintf("Guest: %s", alert.GuestName))
	}
	if alert.Room != "" {
		lines = append(lines, fmt.Sprintf("Room: %s", alert.Room))
	}
	lines = append(lines, fmt.Sprintf("Request: %s", alert.Description))

	s.deliver(ctx, subject, strings.Join(lines, "\n"), map[string]any{"event": "housekeeping_request", "ticket": alert})
}

func (s *Service) deliver(ctx context.Context, subject, body string, payload map[string]any) {
	if s.email != nil && s.staffEmail != "" {
		err := s.email.Send(ctx, EmailMessage{
			To:      s.staffEmail,
			ToName:  "Front Desk",
			Subject: subject,
			Body:    body,
		})
		if err != nil {
			s.logger.Error("staff email failed", "error", err, "subject", subject)
		}
	}

	if s.webhook != nil {
		if err := s.webhook.Post(ctx, payload); err != nil {
			s.logger.Error("staff webhook failed", "error", err, "subject", subject)
		}
	}
}
