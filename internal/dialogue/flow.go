package dialogue

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/stayline/concierge/internal/intent"
	"github.com/stayline/concierge/internal/pms"
)

var (
	digitRe      = regexp.MustCompile(`\d+`)
	bareNumberRe = regexp.MustCompile(`^\s*#?\d+\s*$`)
)

// Slot names rendered for guests when prompting for missing info.
var slotLabels = map[string]string{
	"name":           "your name",
	"email":          "your email",
	"check_in_date":  "check-in date",
	"check_out_date": "check-out date",
	"guests":         "number of guests",
}

// advanceCollecting runs one slot-filling turn: extract, merge, and
// either re-prompt for what is missing or move on to priced offers.
func (e *Engine) advanceCollecting(ctx context.Context, sess *Session, message string) string {
	sess.Flow.State = StateCollecting

	slots := e.extractor.Extract(ctx, message)
	sess.Flow.Slots = sess.Flow.Slots.Merge(slots)

	if missing := sess.Flow.Slots.Missing(); len(missing) > 0 {
		return "I still need: " + labelSlots(missing) + "."
	}

	if sess.Flow.CustomerID == 0 {
		id, err := e.bookings.EnsureCustomer(ctx, sess.Flow.Slots)
		if err != nil {
			e.logger.Error("customer creation failed", "error", err, "session_id", sess.ID)
			return "I couldn't register your details just now. Please try again in a moment."
		}
		sess.Flow.CustomerID = id
	}

	offers, err := e.bookings.Availability(ctx, sess.Flow.Slots)
	if err != nil {
		e.logger.Error("availability check failed", "error", err, "session_id", sess.ID)
		return "I couldn't check availability just now. Please try again in a moment."
	}
	if len(offers) == 0 {
		// Force the guest to resupply dates; everything else is kept.
		sess.Flow.Slots.CheckInDate = nil
		sess.Flow.Slots.CheckOutDate = nil
		return "Sorry, no rooms available for those dates. Could you give me different check-in and check-out dates?"
	}

	sess.Flow.AvailableRooms = make(map[string]pms.RoomOffer, len(offers))
	for _, offer := range offers {
		sess.Flow.AvailableRooms[strconv.FormatInt(offer.RoomTypeID, 10)] = offer
	}
	sess.Flow.State = StateAwaitingRoomChoice

	return renderOffers(offers)
}

// handleRoomChoice confirms a reservation once the guest picks an offer.
// Only an explicit select_room message or a bare number counts as a
// choice; a digit buried in a side question defers to the intent router.
func (e *Engine) handleRoomChoice(ctx context.Context, sess *Session, message string, category intent.Category) (string, bool) {
	if sess.Flow.State != StateAwaitingRoomChoice {
		return "", false
	}
	if category != intent.SelectRoom && !bareNumberRe.MatchString(message) {
		return "", false
	}
	key := digitRe.FindString(message)
	if key == "" {
		return "Please provide a valid room type ID.", true
	}

	offer, ok := sess.Flow.AvailableRooms[key]
	if !ok {
		return "Invalid room type. Please pick one of the listed room type IDs.", true
	}

	conf, err := e.bookings.Confirm(ctx, sess.Flow.CustomerID, sess.Flow.Slots, offer)
	if err != nil {
		e.logger.Error("booking confirmation failed", "error", err, "session_id", sess.ID)
		// Keep the flow (and the customer id) so the guest can retry.
		return "Booking failed on our side. Please try again in a moment or pick another room.", true
	}

	sess.Flow.Reset()
	return fmt.Sprintf("Your booking is confirmed! Room Type %d (%s), booking reference %d. Total: $%.2f.",
		offer.RoomTypeID, offer.Name, conf.BookingID, offer.TotalPrice), true
}

func renderOffers(offers []pms.RoomOffer) string {
	sorted := make([]pms.RoomOffer, len(offers))
	copy(sorted, offers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RoomTypeID < sorted[j].RoomTypeID })

	var b strings.Builder
	b.WriteString("Available rooms:\n")
	for _, offer := range sorted {
		fmt.Fprintf(&b, "- Room Type %d: %s ($%.2f for %d nights)\n",
			offer.RoomTypeID, offer.Name, offer.TotalPrice, offer.Nights)
	}
	b.WriteString("\nPlease select a room type ID.")
	return b.String()
}

func labelSlots(names []string) string {
	labels := make([]string, len(names))
	for i, name := range names {
		if label, ok := slotLabels[name]; ok {
			labels[i] = label
		} else {
			labels[i] = name
		}
	}
	return strings.Join(labels, ", ")
}
