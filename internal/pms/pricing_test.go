package pms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStayNights(t *testing.T) {
	tests := []struct {
		name     string
		checkIn  string
		checkOut string
		want     int
	}{
		{name: "four nights", checkIn: "2025-12-01", checkOut: "2025-12-05", want: 4},
		{name: "one night", checkIn: "2025-12-01", checkOut: "2025-12-02", want: 1},
		{name: "same day", checkIn: "2025-12-01", checkOut: "2025-12-01", want: 0},
		{name: "inverted", checkIn: "2025-12-05", checkOut: "2025-12-01", want: 0},
		{name: "garbage", checkIn: "soon", checkOut: "2025-12-01", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StayNights(tt.checkIn, tt.checkOut))
		})
	}
}

func TestPriceOffers(t *testing.T) {
	rooms := []RoomType{
		{ID: 1, Name: "Standard", BasePrice: 100, MaxOccupancy: 2, MaxAdults: 2},
		{ID: 2, Name: "Deluxe", BasePrice: 100, MaxOccupancy: 4, MaxAdults: 2},
	}

	t.Run("base price times nights", func(t *testing.T) {
		offers := PriceOffers(rooms, "2025-12-01", "2025-12-05", 2, DefaultExtraGuestFee)
		require.Len(t, offers, 2)
		assert.Equal(t, 400.0, offers[0].TotalPrice)
		assert.Equal(t, 4, offers[0].Nights)
	})

	t.Run("over occupancy excluded", func(t *testing.T) {
		offers := PriceOffers(rooms, "2025-12-01", "2025-12-05", 3, DefaultExtraGuestFee)
		require.Len(t, offers, 1)
		assert.Equal(t, int64(2), offers[0].RoomTypeID)
	})

	t.Run("extra guest surcharge", func(t *testing.T) {
		// Deluxe sleeps 4 but only 2 adults; guest three pays 20/night.
		offers := PriceOffers(rooms, "2025-12-01", "2025-12-05", 3, DefaultExtraGuestFee)
		require.Len(t, offers, 1)
		assert.Equal(t, 480.0, offers[0].TotalPrice)
	})

	t.Run("five night discount", func(t *testing.T) {
		offers := PriceOffers(rooms, "2025-12-01", "2025-12-06", 2, DefaultExtraGuestFee)
		require.NotEmpty(t, offers)
		assert.Equal(t, 450.0, offers[0].TotalPrice)
	})

	t.Run("seven night discount wins", func(t *testing.T) {
		offers := PriceOffers(rooms, "2025-12-01", "2025-12-08", 2, DefaultExtraGuestFee)
		require.NotEmpty(t, offers)
		assert.Equal(t, 595.0, offers[0].TotalPrice)
	})

	t.Run("discount applies after surcharge", func(t *testing.T) {
		offers := PriceOffers(rooms, "2025-12-01", "2025-12-08", 3, DefaultExtraGuestFee)
		require.Len(t, offers, 1)
		// (100*7 + 1*20*7) * 0.85
		assert.Equal(t, 714.0, offers[0].TotalPrice)
	})

	t.Run("invalid range yields nothing", func(t *testing.T) {
		assert.Empty(t, PriceOffers(rooms, "2025-12-05", "2025-12-01", 2, DefaultExtraGuestFee))
		assert.Empty(t, PriceOffers(rooms, "2025-12-01", "2025-12-01", 2, DefaultExtraGuestFee))
	})

	t.Run("zero guests yields nothing", func(t *testing.T) {
		assert.Empty(t, PriceOffers(rooms, "2025-12-01", "2025-12-05", 0, DefaultExtraGuestFee))
	})
}
