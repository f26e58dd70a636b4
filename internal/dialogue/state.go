package dialogue

import (
	"strconv"
	"time"

	"github.com/stayline/concierge/internal/extract"
	"github.com/stayline/concierge/internal/pms"
)

// FlowState tracks where a guest is in the booking conversation.
type FlowState string

const (
	// StateIdle means no booking is in progress.
	StateIdle FlowState = "idle"
	// StateCollecting means the flow is gathering missing slots.
	StateCollecting FlowState = "collecting_info"
	// StateAwaitingRoomChoice means offers were shown and the flow is
	// waiting for the guest to pick one.
	StateAwaitingRoomChoice FlowState = "awaiting_room_choice"
)

// Turn is a single utterance in the conversation history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BookingFlow is the mutable state of one guest's booking attempt.
type BookingFlow struct {
	State          FlowState                `json:"state"`
	Slots          extract.Slots            `json:"slots"`
	CustomerID     int64                    `json:"customer_id,omitempty"`
	AvailableRooms map[string]pms.RoomOffer `json:"available_rooms,omitempty"`
}

// Active reports whether a booking is in progress.
func (f *BookingFlow) Active() bool {
	return f.State != "" && f.State != StateIdle
}

// Reset returns the flow to idle, dropping collected slots and offers.
func (f *BookingFlow) Reset() {
	f.State = StateIdle
	f.Slots = extract.Slots{}
	f.CustomerID = 0
	f.AvailableRooms = nil
}

// OfferKey is the string guests use to pick a room from a numbered list.
func OfferKey(n int) string { return strconv.Itoa(n) }

// Session is everything remembered about one conversation.
type Session struct {
	ID        string      `json:"id"`
	History   []Turn      `json:"history"`
	Flow      BookingFlow `json:"flow"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NewSession creates an empty session for id.
func NewSession(id string) *Session {
	return &Session{ID: id, Flow: BookingFlow{State: StateIdle}}
}

// Remember appends a turn. History is append-only; the trailing window
// is applied where the language-model request is built.
func (s *Session) Remember(role, content string) {
	s.History = append(s.History, Turn{Role: role, Content: content})
}
