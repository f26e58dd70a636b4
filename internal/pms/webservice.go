package pms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stayline/concierge/pkg/logging"
)

const webserviceTimeout = 15 * time.Second

// WebserviceBackend talks to the hosted PMS REST API instead of its
// database. Used when the property does not expose direct SQL access.
type WebserviceBackend struct {
	httpClient    *http.Client
	baseURL       string
	apiKey        string
	extraGuestFee float64
	logger        *logging.Logger
}

var _ Backend = (*WebserviceBackend)(nil)

// NewWebserviceBackend constructs a REST-backed PMS client.
func NewWebserviceBackend(baseURL, apiKey string, timeout time.Duration, extraGuestFee float64, logger *logging.Logger) (*WebserviceBackend, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("pms: webservice base URL required")
	}
	if timeout <= 0 {
		timeout = webserviceTimeout
	}
	if extraGuestFee <= 0 {
		extraGuestFee = DefaultExtraGuestFee
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebserviceBackend{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		extraGuestFee: extraGuestFee,
		logger:        logger,
	}, nil
}

func (b *WebserviceBackend) FindOrCreateCustomer(ctx context.Context, name, email, phone string) (int64, error) {
	payload := map[string]string{"customer_name": name, "email": email, "phone": phone}
	var resp struct {
		CustomerID int64 `json:"customer_id"`
	}
	if err := b.doJSON(ctx, http.MethodPost, "/api/v1/customers", payload, &resp); err != nil {
		return 0, fmt.Errorf("find or create customer: %w", err)
	}
	if resp.CustomerID == 0 {
		return 0, ErrCustomerNotFound
	}
	return resp.CustomerID, nil
}

func (b *WebserviceBackend) GetRoomTypes(ctx context.Context) ([]RoomType, error) {
	var wrapped struct {
		RoomTypes []RoomType `json:"room_types"`
		Data      []RoomType `json:"data"`
	}
	if err := b.doJSON(ctx, http.MethodGet, "/api/v1/room_types", nil, &wrapped); err != nil {
		return nil, fmt.Errorf("get room types: %w", err)
	}
	types := wrapped.RoomTypes
	if len(types) == 0 {
		types = wrapped.Data
	}
	for i := range types {
		if types[i].BasePrice == 0 {
			types[i].BasePrice = defaultBasePrice
		}
		if types[i].MaxOccupancy == 0 {
			types[i].MaxOccupancy = 2
		}
		if types[i].MaxAdults == 0 {
			types[i].MaxAdults = 2
		}
	}
	return types, nil
}

func (b *WebserviceBackend) CheckAvailability(ctx context.Context, checkIn, checkOut string, guests int) ([]RoomOffer, error) {
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

func (b *WebserviceBackend) CreateBooking(ctx context.Context, req BookingRequest) (int64, error) {
	payload := map[string]any{
		"customer_id":  req.CustomerID,
		"room_type_id": req.RoomTypeID,
		"check_in":     req.CheckIn,
		"check_out":    req.CheckOut,
		"guests":       req.Guests,
		"total_price":  req.TotalPrice,
	}
	var resp struct {
		BookingID int64 `json:"booking_id"`
	}
	if err := b.doJSON(ctx, http.MethodPost, "/api/v1/bookings", payload, &resp); err != nil {
		return 0, fmt.Errorf("create booking: %w", err)
	}
	if resp.BookingID == 0 {
		return 0, ErrNoRoomsAvailable
	}
	return resp.BookingID, nil
}

func (b *WebserviceBackend) ListCustomers(ctx context.Context) ([]Customer, error) {
	q := url.Values{}
	q.Set("active", "true")
	var wrapped struct {
		Customers []Customer `json:"customers"`
		Data      []Customer `json:"data"`
	}
	if err := b.doJSON(ctx, http.MethodGet, "/api/v1/customers?"+q.Encode(), nil, &wrapped); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	if len(wrapped.Customers) > 0 {
		return wrapped.Customers, nil
	}
	return wrapped.Data, nil
}

func (b *WebserviceBackend) ListBookings(ctx context.Context) ([]Booking, error) {
	var wrapped struct {
		Bookings []Booking `json:"bookings"`
		Data     []Booking `json:"data"`
	}
	if err := b.doJSON(ctx, http.MethodGet, "/api/v1/bookings", nil, &wrapped); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	if len(wrapped.Bookings) > 0 {
		return wrapped.Bookings, nil
	}
	return wrapped.Data, nil
}

func (b *WebserviceBackend) doJSON(ctx context.Context, method, path string, body any, out any) error {
	endpoint := b.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = strings.NewReader(string(payload))
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		b.logger.Warn("pms API non-2xx response", "status", resp.StatusCode, "path", path, "body", msg)
		return fmt.Errorf("pms API returned %d: %s", resp.StatusCode, msg)
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
