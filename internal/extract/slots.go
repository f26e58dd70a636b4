package extract

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Slot names as they appear in prompts and guest-facing "still need" lists.
const (
	SlotName         = "name"
	SlotEmail        = "email"
	SlotPhone        = "phone"
	SlotCheckInDate  = "check_in_date"
	SlotCheckOutDate = "check_out_date"
	SlotGuests       = "guests"
)

// Slots is a partial booking record. A nil field means "still missing";
// callers must never read it as zero or empty.
type Slots struct {
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	CheckInDate  *string `json:"check_in_date,omitempty"`
	CheckOutDate *string `json:"check_out_date,omitempty"`
	Guests       *int    `json:"guests,omitempty"`
}

// Merge applies newer on top of s, last-write-wins per field. Nil fields in
// newer never erase values already present.
func (s Slots) Merge(newer Slots) Slots {
	if newer.Name != nil {
		s.Name = newer.Name
	}
	if newer.Email != nil {
		s.Email = newer.Email
	}
	if newer.Phone != nil {
		s.Phone = newer.Phone
	}
	if newer.CheckInDate != nil {
		s.CheckInDate = newer.CheckInDate
	}
	if newer.CheckOutDate != nil {
		s.CheckOutDate = newer.CheckOutDate
	}
	if newer.Guests != nil {
		s.Guests = newer.Guests
	}
	return s
}

// Missing lists required fields that are still unfilled. Phone is optional
// and never appears here.
func (s Slots) Missing() []string {
	var missing []string
	if s.Name == nil {
		missing = append(missing, SlotName)
	}
	if s.Email == nil {
		missing = append(missing, SlotEmail)
	}
	if s.CheckInDate == nil {
		missing = append(missing, SlotCheckInDate)
	}
	if s.CheckOutDate == nil {
		missing = append(missing, SlotCheckOutDate)
	}
	if s.Guests == nil {
		missing = append(missing, SlotGuests)
	}
	return missing
}

// Complete reports whether every required field is present.
func (s Slots) Complete() bool {
	return len(s.Missing()) == 0
}

// Empty reports whether nothing has been extracted yet.
func (s Slots) Empty() bool {
	return s.Name == nil && s.Email == nil && s.Phone == nil &&
		s.CheckInDate == nil && s.CheckOutDate == nil && s.Guests == nil
}

// DateRange parses both date strings and validates that check-out falls
// strictly after check-in.
func (s Slots) DateRange() (checkIn, checkOut time.Time, err error) {
	if s.CheckInDate == nil || s.CheckOutDate == nil {
		return time.Time{}, time.Time{}, fmt.Errorf("extract: date slots incomplete")
	}
	checkIn, err = time.Parse(dateLayout, *s.CheckInDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("extract: bad check-in date %q: %w", *s.CheckInDate, err)
	}
	checkOut, err = time.Parse(dateLayout, *s.CheckOutDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("extract: bad check-out date %q: %w", *s.CheckOutDate, err)
	}
	if !checkOut.After(checkIn) {
		return time.Time{}, time.Time{}, fmt.Errorf("extract: check-out %s not after check-in %s", *s.CheckOutDate, *s.CheckInDate)
	}
	return checkIn, checkOut, nil
}

// Nights returns the stay length, or 0 when dates are absent or invalid.
func (s Slots) Nights() int {
	in, out, err := s.DateRange()
	if err != nil {
		return 0
	}
	return int(out.Sub(in).Hours() / 24)
}
