package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_NotifyBookingConfirmed(t *testing.T) {
	var webhookBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&webhookBody))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	email := NewStubEmailSender(nil)
	svc := NewService(email, NewWebhookSender(server.URL, nil), "frontdesk@stayline.test", nil)

	svc.NotifyBookingConfirmed(context.Background(), BookingAlert{
		BookingID:  99,
		GuestName:  "Jane Doe",
		GuestEmail: "jane@x.com",
		RoomName:   "Deluxe",
		CheckIn:    "2025-12-01",
		CheckOut:   "2025-12-05",
		Guests:     2,
		TotalPrice: 480,
	})

	require.Len(t, email.Sent, 1)
	assert.Equal(t, "frontdesk@stayline.test", email.Sent[0].To)
	assert.Contains(t, email.Sent[0].Subject, "#99")
	assert.Contains(t, email.Sent[0].Body, "2025-12-01 to 2025-12-05")
	assert.Contains(t, email.Sent[0].Body, "$480.00")

	assert.Equal(t, "booking_confirmed", webhookBody["event"])
}

func TestService_NotifyHousekeeping(t *testing.T) {
	email := NewStubEmailSender(nil)
	svc := NewService(email, nil, "frontdesk@stayline.test", nil)

	svc.NotifyHousekeeping(context.Background(), HousekeepingAlert{
		TicketRef:   "hk-1234",
		GuestName:   "Jane Doe",
		Description: "need fresh towels",
		Priority:    "normal",
		CreatedAt:   time.Now(),
	})

	require.Len(t, email.Sent, 1)
	assert.Contains(t, email.Sent[0].Subject, "hk-1234")
	assert.Contains(t, email.Sent[0].Body, "fresh towels")
}

type failingSender struct{}

func (failingSender) Send(ctx context.Context, msg EmailMessage) error {
	return errors.New("smtp down")
}

func TestService_DeliveryFailuresAreSwallowed(t *testing.T) {
	svc := NewService(failingSender{}, nil, "frontdesk@stayline.test", nil)
	assert.NotPanics(t, func() {
		svc.NotifyBookingConfirmed(context.Background(), BookingAlert{BookingID: 1})
	})
}

func TestService_UnconfiguredChannelsSkipped(t *testing.T) {
	svc := NewService(nil, nil, "", nil)
	assert.NotPanics(t, func() {
		svc.NotifyHousekeeping(context.Background(), HousekeepingAlert{TicketRef: "hk-1"})
	})
}

func TestWebhookSender_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	err := NewWebhookSender(server.URL, nil).Post(context.Background(), map[string]string{"k": "v"})
	assert.ErrorContains(t, err, "403")
}

func TestNewSendGridSender_RequiresKey(t *testing.T) {
	assert.Nil(t, NewSendGridSender(SendGridConfig{}, nil))
}
