// Package pms integrates with the property management system that owns
// customers, room inventory and bookings. Two backends exist: direct SQL
// against a Minical-style database, and the hosted PMS web service.
package pms

import (
	"context"
	"errors"
	"time"
)

// Common backend errors.
var (
	ErrNoRoomsAvailable = errors.New("pms: no rooms available for room type")
	ErrCustomerNotFound = errors.New("pms: customer not found")
)

// Customer is a PMS guest record.
type Customer struct {
	ID    int64  `json:"customer_id"`
	Name  string `json:"customer_name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// RoomType is a bookable room category with its occupancy limits.
type RoomType struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	BasePrice      float64 `json:"base_price"`
	MaxOccupancy   int     `json:"max_occupancy"`
	MaxAdults      int     `json:"max_adults"`
	MaxChildren    int     `json:"max_children"`
	AvailableUnits int     `json:"available_units"`
}

// RoomOffer is a priced room type for a concrete stay.
type RoomOffer struct {
	RoomTypeID   int64   `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	MaxOccupancy int     `json:"max_occupancy"`
	BasePrice    float64 `json:"base_price"`
	Nights       int     `json:"nights"`
	TotalPrice   float64 `json:"total_price"`
}

// Booking is a confirmed reservation.
type Booking struct {
	ID         int64     `json:"booking_id"`
	CustomerID int64     `json:"booking_customer_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// BookingRequest carries everything needed to confirm a reservation.
type BookingRequest struct {
	CustomerID int64
	RoomTypeID int64
	CheckIn    string
	CheckOut   string
	Guests     int
	TotalPrice float64
}

// Backend is the PMS surface the rest of the service depends on.
type Backend interface {
	// FindOrCreateCustomer returns the existing customer with the given
	// email, or creates one. Matching is by email only.
	FindOrCreateCustomer(ctx context.Context, name, email, phone string) (int64, error)

	// GetRoomTypes lists sellable room types with at least one unit.
	GetRoomTypes(ctx context.Context) ([]RoomType, error)

	// CheckAvailability prices every room type that fits the stay. An
	// invalid date range yields an empty result, not an error.
	CheckAvailability(ctx context.Context, checkIn, checkOut string, guests int) ([]RoomOffer, error)

	// CreateBooking confirms a reservation and returns its id.
	CreateBooking(ctx context.Context, req BookingRequest) (int64, error)

	// ListCustomers returns all active customers, for corpus rebuilds.
	ListCustomers(ctx context.Context) ([]Customer, error)

	// ListBookings returns all active bookings, for corpus rebuilds.
	ListBookings(ctx context.Context) ([]Booking, error)
}
