package pms

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/stayline/concierge/pkg/logging"
)

// The Minical schema carries no nightly rates, so every room type is
// priced from this base until rate plans are synced.
const defaultBasePrice = 100.00

// companyID scopes all writes to the single property this service runs for.
const companyID = 1

// Querier is the subset of pgxpool.Pool used by PostgresBackend.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresBackend talks directly to a Minical-style PMS database.
type PostgresBackend struct {
	db            Querier
	extraGuestFee float64
	logger        *logging.Logger
}

var _ Backend = (*PostgresBackend)(nil)

// NewPostgresBackend creates a backend over db.
func NewPostgresBackend(db Querier, extraGuestFee float64, logger *logging.Logger) *PostgresBackend {
	if db == nil {
		panic("pms: db required")
	}
	if extraGuestFee <= 0 {
		extraGuestFee = DefaultExtraGuestFee
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PostgresBackend{db: db, extraGuestFee: extraGuestFee, logger: logger}
}

func (b *PostgresBackend) FindOrCreateCustomer(ctx context.Context, name, email, phone string) (int64, error) {
	var id int64
	err := b.db.QueryRow(ctx,
		`SELECT customer_id FROM customer WHERE email = $1 LIMIT 1`, email,
	).Scan(&id)
	if err == nil {
		b.logger.Info("matched existing customer", "customer_id", id)
		return id, nil
	}
	if err != pgx.ErrNoRows {
		return 0, fmt.Errorf("pms: lookup customer: %w", err)
	}

	err = b.db.QueryRow(ctx, `
		INSERT INTO customer (customer_name, email, phone, company_id, is_deleted)
		VALUES ($1, $2, $3, $4, 0)
		RETURNING customer_id
	`, name, email, phone, companyID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("pms: insert customer: %w", err)
	}
	b.logger.Info("created customer", "customer_id", id)
	return id, nil
}

func (b *PostgresBackend) GetRoomTypes(ctx context.Context) ([]RoomType, error) {
	rows, err := b.db.Query(ctx, `
		SELECT rt.id, rt.name, rt.max_occupancy, rt.max_adults, rt.max_children,
		       rt.description, COUNT(r.room_id) AS available_units
		FROM room_type rt
		LEFT JOIN room r ON rt.id = r.room_type_id
			AND r.is_deleted = 0
			AND r.can_be_sold_online = 1
		WHERE (rt.is_deleted IS NULL OR rt.is_deleted = 0)
			AND rt.can_be_sold_online = 1
		GROUP BY rt.id, rt.name, rt.max_occupancy, rt.max_adults, rt.max_children, rt.description
		HAVING COUNT(r.room_id) > 0
	`)
	if err != nil {
		return nil, fmt.Errorf("pms: query room types: %w", err)
	}
	defer rows.Close()

	var types []RoomType
	for rows.Next() {
		var rt RoomType
		var maxOccupancy, maxAdults, maxChildren *int
		var description *string
		if err := rows.Scan(&rt.ID, &rt.Name, &maxOccupancy, &maxAdults, &maxChildren, &description, &rt.AvailableUnits); err != nil {
			return nil, fmt.Errorf("pms: scan room type: %w", err)
		}
		rt.BasePrice = defaultBasePrice
		rt.MaxOccupancy = intOr(maxOccupancy, 2)
		rt.MaxAdults = intOr(maxAdults, 2)
		rt.MaxChildren = intOr(maxChildren, 0)
		if description != nil {
			rt.Description = *description
		}
		types = append(types, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pms: iterate room types: %w", err)
	}
	return types, nil
}

func (b *PostgresBackend) CheckAvailability(ctx context.Context, checkIn, checkOut string, guests int) ([]RoomOffer, error) {
	if StayNights(checkIn, checkOut) == 0 {
		b.logger.Warn("invalid date range", "check_in", checkIn, "check_out", checkOut)
		return nil, nil
	}
	rooms, err := b.GetRoomTypes(ctx)
	if err != nil {
		return nil, err
	}
	return PriceOffers(rooms, checkIn, checkOut, guests, b.extraGuestFee), nil
}

func (b *PostgresBackend) CreateBooking(ctx context.Context, req BookingRequest) (int64, error) {
	var roomID int64
	err := b.db.QueryRow(ctx, `
		SELECT room_id FROM room
		WHERE room_type_id = $1 AND is_deleted = 0 AND can_be_sold_online = 1
		LIMIT 1
	`, req.RoomTypeID).Scan(&roomID)
	if err == pgx.ErrNoRows {
		return 0, ErrNoRoomsAvailable
	}
	if err != nil {
		return 0, fmt.Errorf("pms: find room: %w", err)
	}

	var bookingID int64
	err = b.db.QueryRow(ctx, `
		INSERT INTO booking (booking_customer_id, company_id, is_deleted)
		VALUES ($1, $2, 0)
		RETURNING booking_id
	`, req.CustomerID, companyID).Scan(&bookingID)
	if err != nil {
		return 0, fmt.Errorf("pms: insert booking: %w", err)
	}

	b.logger.Info("created booking",
		"booking_id", bookingID,
		"customer_id", req.CustomerID,
		"room_type_id", req.RoomTypeID,
		"room_id", roomID,
		"check_in", req.CheckIn,
		"check_out", req.CheckOut,
		"total_price", req.TotalPrice,
	)
	return bookingID, nil
}

func (b *PostgresBackend) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := b.db.Query(ctx,
		`SELECT customer_id, customer_name, email FROM customer WHERE is_deleted = 0`)
	if err != nil {
		return nil, fmt.Errorf("pms: query customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		var name, email *string
		if err := rows.Scan(&c.ID, &name, &email); err != nil {
			return nil, fmt.Errorf("pms: scan customer: %w", err)
		}
		if name != nil {
			c.Name = *name
		}
		if email != nil {
			c.Email = *email
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pms: iterate customers: %w", err)
	}
	return customers, nil
}

func (b *PostgresBackend) ListBookings(ctx context.Context) ([]Booking, error) {
	rows, err := b.db.Query(ctx,
		`SELECT booking_id, booking_customer_id FROM booking WHERE is_deleted = 0`)
	if err != nil {
		return nil, fmt.Errorf("pms: query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		var bk Booking
		if err := rows.Scan(&bk.ID, &bk.CustomerID); err != nil {
			return nil, fmt.Errorf("pms: scan booking: %w", err)
		}
		bookings = append(bookings, bk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pms: iterate bookings: %w", err)
	}
	return bookings, nil
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
