package booking

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stayline/concierge/internal/notify"
)

// Ticket is a housekeeping request handed to staff.
type Ticket struct {
	Ref         string    `json:"ref"`
	GuestName   string    `json:"guest_name,omitempty"`
	Room        string    `json:"room,omitempty"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
}

var urgentCues = []string{"urgent", "asap", "immediately", "right away", "emergency"}

// OpenHousekeepingTicket records a housekeeping request and alerts staff.
// Priority is inferred from the request text unless given explicitly.
func (s *Service) OpenHousekeepingTicket(ctx context.Context, guestName, room, text, priority string) Ticket {
	if priority == "" {
		priority = "normal"
		lower := strings.ToLower(text)
		for _, cue := range urgentCues {
			if strings.Contains(lower, cue) {
				priority = "urgent"
				break
			}
		}
	}

	ticket := Ticket{
		Ref:         "hk-" + uuid.NewString()[:8],
		GuestName:   guestName,
		Room:        room,
		Description: text,
		Priority:    priority,
		CreatedAt:   time.Now().UTC(),
	}

	s.logger.Info("housekeeping ticket opened",
		"ref", ticket.Ref,
		"priority", ticket.Priority,
		"room", ticket.Room,
	)

	if s.notifier != nil {
		s.notifier.NotifyHousekeeping(ctx, notify.HousekeepingAlert{
			TicketRef:   ticket.Ref,
			GuestName:   ticket.GuestName,
			Room:        ticket.Room,
			Description: ticket.Description,
			Priority:    ticket.Priority,
			CreatedAt:   ticket.CreatedAt,
		})
	}
	return ticket
}
