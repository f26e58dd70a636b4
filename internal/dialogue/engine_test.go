package dialogue

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayline/concierge/internal/booking"
	"github.com/stayline/concierge/internal/extract"
	"github.com/stayline/concierge/internal/intent"
	"github.com/stayline/concierge/internal/llm"
	"github.com/stayline/concierge/internal/pms"
	"github.com/stayline/concierge/internal/rag"
)

// memStore keeps sessions in a map, standing in for Redis.
type memStore struct {
	sessions map[string]*Session
	saveErr  error
}

func newMemStore() *memStore { return &memStore{sessions: make(map[string]*Session)} }

func (m *memStore) Load(ctx context.Context, id string) (*Session, error) {
	return m.sessions[id], nil
}

func (m *memStore) Save(ctx context.Context, sess *Session) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.sessions[sess.ID] = sess
	return nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

// fakePMS prices the standing room types with the real pricing rule so
// invalid ranges yield no offers, exactly like a live backend.
type fakePMS struct {
	roomTypes   []pms.RoomType
	customerID  int64
	customerErr error
	bookingID   int64
	bookingErr  error
	bookings    []pms.BookingRequest
	customers   int
}

func (f *fakePMS) FindOrCreateCustomer(ctx context.Context, name, email, phone string) (int64, error) {
	f.customers++
	return f.customerID, f.customerErr
}

func (f *fakePMS) GetRoomTypes(ctx context.Context) ([]pms.RoomType, error) {
	return f.roomTypes, nil
}

func (f *fakePMS) CheckAvailability(ctx context.Context, checkIn, checkOut string, guests int) ([]pms.RoomOffer, error) {
	return pms.PriceOffers(f.roomTypes, checkIn, checkOut, guests, pms.DefaultExtraGuestFee), nil
}

func (f *fakePMS) CreateBooking(ctx context.Context, req pms.BookingRequest) (int64, error) {
	if f.bookingErr != nil {
		return 0, f.bookingErr
	}
	f.bookings = append(f.bookings, req)
	return f.bookingID, nil
}

func (f *fakePMS) ListCustomers(ctx context.Context) ([]pms.Customer, error) { return nil, nil }
func (f *fakePMS) ListBookings(ctx context.Context) ([]pms.Booking, error)  { return nil, nil }

// recordingClient captures the last completion request.
type recordingClient struct {
	reply   string
	lastReq llm.Request
}

func (c *recordingClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	c.lastReq = req
	return c.reply, nil
}

type fakeRetriever struct {
	results    []rag.SearchResult
	err        error
	gotQuery   string
	gotCorpora []string
}

func (f *fakeRetriever) Search(ctx context.Context, query string, topK int, corpora ...string) ([]rag.SearchResult, error) {
	f.gotQuery = query
	f.gotCorpora = corpora
	return f.results, f.err
}

type engineDeps struct {
	pms       *fakePMS
	store     *memStore
	retriever *fakeRetriever
	llm       llm.Client
}

func defaultRoomTypes() []pms.RoomType {
	return []pms.RoomType{
		// Prices chosen so a 4-night stay lands on the well-known totals.
		{ID: 1, Name: "Deluxe", BasePrice: 875, MaxOccupancy: 2, MaxAdults: 2},
		{ID: 2, Name: "Premium", BasePrice: 1125, MaxOccupancy: 4, MaxAdults: 4},
	}
}

func newTestEngine(t *testing.T, deps engineDeps) (*Engine, *memStore, *fakePMS) {
	t.Helper()
	if deps.pms == nil {
		deps.pms = &fakePMS{roomTypes: defaultRoomTypes(), customerID: 7, bookingID: 555}
	}
	if deps.store == nil {
		deps.store = newMemStore()
	}
	if deps.retriever == nil {
		deps.retriever = &fakeRetriever{}
	}

	classifier := intent.NewClassifier(nil)
	// Nil model client keeps extraction on the deterministic tier.
	extractor := extract.NewExtractor(nil, nil, nil)
	bookings := booking.NewService(deps.pms, nil, nil, nil)

	engine := NewEngine(classifier, extractor, bookings, deps.retriever, deps.llm, deps.store, nil,
		Config{HistoryWindow: 10, PropertyName: "Stayline Grand", ReceptionPhone: "+1-555-0100"}, nil)
	return engine, deps.store, deps.pms
}

func TestSingleMessageBookingReachesRoomChoice(t *testing.T) {
	engine, store, backend := newTestEngine(t, engineDeps{})

	reply, err := engine.ProcessTurn(context.Background(), "s1",
		"I want to book a room. My name is Jane Doe, email jane@x.com, from 2025-12-01 to 2025-12-05, 2 guests")
	require.NoError(t, err)

	assert.Equal(t, string(intent.StartBooking), reply.Intent)
	assert.Equal(t, StateAwaitingRoomChoice, reply.State)
	assert.Contains(t, reply.Text, "Room Type 1: Deluxe")
	assert.Contains(t, reply.Text, "Room Type 2: Premium")
	assert.Contains(t, reply.Text, "select a room type ID")

	sess := store.sessions["s1"]
	require.NotNil(t, sess)
	assert.Equal(t, int64(7), sess.Flow.CustomerID)
	assert.Len(t, sess.Flow.AvailableRooms, 2)
	assert.Equal(t, 1, backend.customers)
}

func TestBareDetailsMessageStartsFlow(t *testing.T) {
	engine, store, _ := newTestEngine(t, engineDeps{})

	// No booking verb at all: the dated from-phrase alone opens the flow.
	reply, err := engine.ProcessTurn(context.Background(), "s1",
		"my name is Jane Doe, email jane@x.com, from 2025-12-01 to 2025-12-05, 2 guests")
	require.NoError(t, err)

	assert.Equal(t, string(intent.StartBooking), reply.Intent)
	assert.Equal(t, StateAwaitingRoomChoice, reply.State)
	assert.Len(t, store.sessions["s1"].Flow.AvailableRooms, 2)
}

func TestRoomChoiceConfirmsBooking(t *testing.T) {
	engine, store, backend := newTestEngine(t, engineDeps{})
	ctx := context.Background()

	_, err := engine.ProcessTurn(ctx, "s1",
		"I want to book a room. My name is Jane Doe, email jane@x.com, from 2025-12-01 to 2025-12-05, 2 guests")
	require.NoError(t, err)

	reply, err := engine.ProcessTurn(ctx, "s1", "2")
	require.NoError(t, err)

	assert.Equal(t, string(intent.SelectRoom), reply.Intent)
	assert.Contains(t, reply.Text, "Premium")
	assert.Contains(t, reply.Text, "4500")
	assert.Equal(t, StateIdle, reply.State)

	sess := store.sessions["s1"]
	assert.Empty(t, sess.Flow.AvailableRooms, "offers are stale once booked")
	assert.Nil(t, sess.Flow.Slots.Email, "slots clear on reset")

	require.Len(t, backend.bookings, 1)
	assert.Equal(t, int64(2), backend.bookings[0].RoomTypeID)
	assert.Equal(t, 4500.0, backend.bookings[0].TotalPrice)
}

func TestHousekeepingTicketFromIdle(t *testing.T) {
	engine, store, _ := newTestEngine(t, engineDeps{})

	reply, err := engine.ProcessTurn(context.Background(), "s1", "towel please")
	require.NoError(t, err)

	assert.Equal(t, string(intent.Housekeeping), reply.Intent)
	assert.Contains(t, reply.Text, "hk-")
	assert.Equal(t, StateIdle, reply.State)
	assert.Equal(t, StateIdle, store.sessions["s1"].Flow.State)
}

func TestUnknownRoomIDKeepsState(t *testing.T) {
	engine, store, backend := newTestEngine(t, engineDeps{})
	ctx := context.Background()

	_, err := engine.ProcessTurn(ctx, "s1",
		"I want to book a room. My name is Jane Doe, email jane@x.com, from 2025-12-01 to 2025-12-05, 2 guests")
	require.NoError(t, err)

	reply, err := engine.ProcessTurn(ctx, "s1", "9")
	require.NoError(t, err)

	assert.Contains(t, reply.Text, "Invalid room type")
	assert.Equal(t, StateAwaitingRoomChoice, reply.State)
	assert.Len(t, store.sessions["s1"].Flow.AvailableRooms, 2, "offers unchanged")
	assert.Empty(t, backend.bookings)
}

func TestInvalidDateRangeClearsDates(t *testing.T) {
	engine, store, _ := newTestEngine(t, engineDeps{})
	ctx := context.Background()

	_, err := engine.ProcessTurn(ctx, "s1", "I need a room")
	require.NoError(t, err)

	reply, err := engine.ProcessTurn(ctx, "s1",
		"My name is Jane Doe, email jane@x.com, from 2025-12-05 to 2025-12-01, 2 guests")
	require.NoError(t, err)

	assert.Contains(t, reply.Text, "different check-in and check-out dates")
	assert.Equal(t, StateCollecting, reply.State)

	sess := store.sessions["s1"]
	assert.Nil(t, sess.Flow.Slots.CheckInDate)
	assert.Nil(t, sess.Flow.Slots.CheckOutDate)
	require.NotNil(t, sess.Flow.Slots.Name, "other slots survive")
	assert.Equal(t, "Jane Doe", *sess.Flow.Slots.Name)
}

func TestSlotFillingAcrossTurns(t *testing.T) {
	engine, store, _ := newTestEngine(t, engineDeps{})
	ctx := context.Background()

	reply, err := engine.ProcessTurn(ctx, "s1", "I'd like to book a room")
	require.NoError(t, err)
	assert.Equal(t, StateCollecting, reply.State)
	assert.Contains(t, reply.Text, "I still need:")
	assert.Contains(t, reply.Text, "your name")

	reply, err = engine.ProcessTurn(ctx, "s1", "my name is Jane Doe, email jane@x.com")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "check-in date")
	assert.NotContains(t, reply.Text, "your name")

	reply, err = engine.ProcessTurn(ctx, "s1", "from 2025-12-01 to 2025-12-05, 2 guests")
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingRoomChoice, reply.State)
	assert.Contains(t, reply.Text, "Available rooms:")

	sess := store.sessions["s1"]
	require.NotNil(t, sess.Flow.Slots.Guests)
	assert.Equal(t, 2, *sess.Flow.Slots.Guests)
}

func TestFreshFlowWithoutSlotsGetsNoStickyBoost(t *testing.T) {
	engine, _, _ := newTestEngine(t, engineDeps{})
	ctx := context.Background()

	// Opens the flow but extracts nothing, so the slot map stays empty.
	_, err := engine.ProcessTurn(ctx, "s1", "I need a room")
	require.NoError(t, err)

	// With no slots filled, a neutral message keeps its own intent
	// instead of being nudged toward start_booking.
	reply, err := engine.ProcessTurn(ctx, "s1", "hello there")
	require.NoError(t, err)
	assert.Equal(t, string(intent.Chitchat), reply.Intent)
	assert.Equal(t, StateCollecting, reply.State, "the flow itself stays sticky")
}

func TestBookingFailureRetainsCustomerAndState(t *testing.T) {
	backend := &fakePMS{roomTypes: defaultRoomTypes(), customerID: 7, bookingErr: errors.New("inventory gone")}
	engine, store, _ := newTestEngine(t, engineDeps{pms: backend})
	ctx := context.Background()

	_, err := engine.ProcessTurn(ctx, "s1",
		"I want to book a room. My name is Jane Doe, email jane@x.com, from 2025-12-01 to 2025-12-05, 2 guests")
	require.NoError(t, err)

	reply, err := engine.ProcessTurn(ctx, "s1", "1")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Booking failed")
	assert.Equal(t, StateAwaitingRoomChoice, reply.State)

	sess := store.sessions["s1"]
	assert.Equal(t, int64(7), sess.Flow.CustomerID, "customer id survives the failure")

	// Retry after the backend recovers: no duplicate customer.
	backend.bookingErr = nil
	backend.bookingID = 556
	reply, err = engine.ProcessTurn(ctx, "s1", "1")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "confirmed")
	assert.Equal(t, 1, backend.customers)
}

func TestDigitInSideQuestionDoesNotSelectRoom(t *testing.T) {
	engine, store, backend := newTestEngine(t, engineDeps{
		llm: llm.StaticClient{Reply: "Breakfast for two is included."},
	})
	ctx := context.Background()

	_, err := engine.ProcessTurn(ctx, "s1",
		"I want to book a room. My name is Jane Doe, email jane@x.com, from 2025-12-01 to 2025-12-05, 2 guests")
	require.NoError(t, err)

	// The "2" matches an offer key, but this is a question, not a choice.
	reply, err := engine.ProcessTurn(ctx, "s1", "is breakfast included for 2 people?")
	require.NoError(t, err)

	assert.Equal(t, "Breakfast for two is included.", reply.Text)
	assert.Equal(t, StateAwaitingRoomChoice, reply.State)
	assert.Empty(t, backend.bookings, "no booking without an explicit choice")
	assert.Len(t, store.sessions["s1"].Flow.AvailableRooms, 2)

	// A bare number afterwards still selects.
	reply, err = engine.ProcessTurn(ctx, "s1", "2")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "confirmed")
	require.Len(t, backend.bookings, 1)
}

func TestCancelResetsFlow(t *testing.T) {
	engine, store, _ := newTestEngine(t, engineDeps{})
	ctx := context.Background()

	_, err := engine.ProcessTurn(ctx, "s1",
		"I want to book a room. My name is Jane Doe, email jane@x.com, from 2025-12-01 to 2025-12-05, 2 guests")
	require.NoError(t, err)

	reply, err := engine.ProcessTurn(ctx, "s1", "actually, cancel that booking")
	require.NoError(t, err)
	assert.Equal(t, string(intent.CancelBooking), reply.Intent)
	assert.Equal(t, StateIdle, reply.State)

	sess := store.sessions["s1"]
	assert.Nil(t, sess.Flow.Slots.Name)
	assert.Empty(t, sess.Flow.AvailableRooms)
}

func TestCancelWithoutFlowGetsGroundedReply(t *testing.T) {
	engine, _, backend := newTestEngine(t, engineDeps{
		llm: llm.StaticClient{Reply: "I don't see an active booking here; reception can cancel a confirmed reservation for you."},
	})

	reply, err := engine.ProcessTurn(context.Background(), "s1", "I want to cancel my reservation")
	require.NoError(t, err)

	assert.Equal(t, string(intent.CancelBooking), reply.Intent)
	assert.Equal(t, StateIdle, reply.State)
	assert.Equal(t, "I don't see an active booking here; reception can cancel a confirmed reservation for you.", reply.Text)
	assert.Empty(t, backend.bookings)
}

func TestGroundedReplyUsesRetrievalAndLLM(t *testing.T) {
	retriever := &fakeRetriever{results: []rag.SearchResult{
		{Corpus: rag.CorpusPropertyInfo, Content: "[Amenities]\nRooftop pool open 7-22.", Score: 0.9},
	}}
	engine, _, _ := newTestEngine(t, engineDeps{
		retriever: retriever,
		llm:       llm.StaticClient{Reply: "Our rooftop pool is open from 7am to 10pm."},
	})

	reply, err := engine.ProcessTurn(context.Background(), "s1", "is there a pool?")
	require.NoError(t, err)

	assert.Equal(t, string(intent.AmenitiesInquiry), reply.Intent)
	assert.Equal(t, "Our rooftop pool is open from 7am to 10pm.", reply.Text)
	assert.Equal(t, "is there a pool?", retriever.gotQuery)
	assert.Equal(t, []string{rag.CorpusPropertyInfo}, retriever.gotCorpora)
}

func TestGroundedReplyDegradesWhenLLMFails(t *testing.T) {
	engine, _, _ := newTestEngine(t, engineDeps{
		llm: llm.StaticClient{Err: errors.New("provider down")},
	})

	reply, err := engine.ProcessTurn(context.Background(), "s1", "hello there")
	require.NoError(t, err)
	assert.Equal(t, string(intent.Chitchat), reply.Intent)
	assert.Contains(t, reply.Text, "+1-555-0100")
}

func TestSideQuestionWhileAwaitingChoice(t *testing.T) {
	engine, store, _ := newTestEngine(t, engineDeps{
		llm: llm.StaticClient{Reply: "Breakfast is served 6-10 in the atrium."},
	})
	ctx := context.Background()

	_, err := engine.ProcessTurn(ctx, "s1",
		"I want to book a room. My name is Jane Doe, email jane@x.com, from 2025-12-01 to 2025-12-05, 2 guests")
	require.NoError(t, err)

	reply, err := engine.ProcessTurn(ctx, "s1", "do you serve breakfast?")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Breakfast")
	assert.Equal(t, StateAwaitingRoomChoice, reply.State, "side questions do not disturb the flow")
	assert.Len(t, store.sessions["s1"].Flow.AvailableRooms, 2)
}

func TestHistoryWindowBoundsRequestNotStorage(t *testing.T) {
	client := &recordingClient{reply: "Hello!"}
	engine, store, _ := newTestEngine(t, engineDeps{llm: client})
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := engine.ProcessTurn(ctx, "s1", "hello again my friend")
		require.NoError(t, err)
	}

	sess := store.sessions["s1"]
	assert.Len(t, sess.History, 24, "storage keeps every turn")

	// Only the trailing window reaches the model, ending with the
	// latest guest message.
	require.Len(t, client.lastReq.Messages, 10)
	assert.Equal(t, llm.RoleUser, client.lastReq.Messages[9].Role)
	assert.Equal(t, llm.RoleAssistant, client.lastReq.Messages[8].Role)
}

func TestHistoryRecordsBothSides(t *testing.T) {
	engine, store, _ := newTestEngine(t, engineDeps{})

	reply, err := engine.ProcessTurn(context.Background(), "s1", "towel please")
	require.NoError(t, err)

	history := store.sessions["s1"].History
	require.Len(t, history, 2)
	assert.Equal(t, "towel please", history[0].Content)
	assert.Equal(t, reply.Text, history[1].Content)
}

func TestSaveFailureStillAnswers(t *testing.T) {
	store := newMemStore()
	store.saveErr = errors.New("redis down")
	engine, _, _ := newTestEngine(t, engineDeps{store: store})

	reply, err := engine.ProcessTurn(context.Background(), "s1", "towel please")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(reply.Text, "Housekeeping request noted"))
}

func TestProcessTurnValidation(t *testing.T) {
	engine, _, _ := newTestEngine(t, engineDeps{})

	_, err := engine.ProcessTurn(context.Background(), "", "hi")
	assert.Error(t, err)

	_, err = engine.ProcessTurn(context.Background(), "s1", "")
	assert.Error(t, err)
}
