package pms

import (
	"math"
	"time"
)

const dateLayout = "2006-01-02"

// DefaultExtraGuestFee is the per-guest per-night surcharge applied when
// the party exceeds a room's adult capacity.
const DefaultExtraGuestFee = 20

// Discount thresholds for longer stays. A seven-night stay earns the
// deeper discount; the two never stack.
const (
	weeklyDiscountNights = 7
	weeklyDiscountFactor = 0.85
	midstayDiscountNights = 5
	midstayDiscountFactor = 0.90
)

// StayNights returns the number of nights between two ISO dates, or 0
// when the range is malformed or not strictly increasing.
func StayNights(checkIn, checkOut string) int {
	in, err := time.Parse(dateLayout, checkIn)
	if err != nil {
		return 0
	}
	out, err := time.Parse(dateLayout, checkOut)
	if err != nil {
		return 0
	}
	nights := int(out.Sub(in).Hours() / 24)
	if nights <= 0 {
		return 0
	}
	return nights
}

// PriceOffers prices each room type for the stay. Room types whose
// maximum occupancy is below the party size are excluded. Guests beyond
// the adult capacity incur extraGuestFee per guest per night, then the
// stay-length discount applies to the whole total.
func PriceOffers(rooms []RoomType, checkIn, checkOut string, guests int, extraGuestFee float64) []RoomOffer {
	nights := StayNights(checkIn, checkOut)
	if nights == 0 || guests <= 0 {
		return nil
	}
	if extraGuestFee < 0 {
		extraGuestFee = DefaultExtraGuestFee
	}

	var offers []RoomOffer
	for _, room := range rooms {
		if guests > room.MaxOccupancy {
			continue
		}

		total := room.BasePrice * float64(nights)
		if guests > room.MaxAdults {
			extra := float64(guests - room.MaxAdults)
			total += extra * extraGuestFee * float64(nights)
		}

		switch {
		case nights >= weeklyDiscountNights:
			total *= weeklyDiscountFactor
		case nights >= midstayDiscountNights:
			total *= midstayDiscountFactor
		}

		offers = append(offers, RoomOffer{
			RoomTypeID:   room.ID,
			Name:         room.Name,
			Description:  room.Description,
			MaxOccupancy: room.MaxOccupancy,
			BasePrice:    room.BasePrice,
			Nights:       nights,
			TotalPrice:   math.Round(total*100) / 100,
		})
	}
	return offers
}
