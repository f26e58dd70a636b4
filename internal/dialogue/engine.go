// Package dialogue runs the multi-turn conversation: it classifies each
// guest message, advances the booking flow, and grounds free-form
// answers in retrieved property knowledge.
package dialogue

import (
	"context"
	"fmt"

	"github.com/stayline/concierge/internal/booking"
	"github.com/stayline/concierge/internal/extract"
	"github.com/stayline/concierge/internal/intent"
	"github.com/stayline/concierge/internal/llm"
	"github.com/stayline/concierge/internal/observability/metrics"
	"github.com/stayline/concierge/internal/rag"
	"github.com/stayline/concierge/pkg/logging"
)

// SessionStore persists sessions between turns. Load returns nil for an
// unknown id.
type SessionStore interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id string) error
}

// Reply is the engine's answer to one guest message.
type Reply struct {
	SessionID string    `json:"session_id"`
	Text      string    `json:"response"`
	Intent    string    `json:"intent"`
	State     FlowState `json:"state"`
}

// Config tunes engine behavior.
type Config struct {
	// HistoryWindow caps how many turns are kept per session.
	HistoryWindow int
	// PropertyName appears in the assistant persona.
	PropertyName string
	// ReceptionPhone is offered when the assistant cannot help.
	ReceptionPhone string
}

// Engine processes conversation turns.
type Engine struct {
	classifier *intent.Classifier
	extractor  *extract.Extractor
	bookings   *booking.Service
	retriever  rag.Retriever
	llm        llm.Client
	store      SessionStore
	metrics    *metrics.ConversationMetrics
	logger     *logging.Logger
	cfg        Config
}

// NewEngine wires the engine. llmClient may be nil, in which case
// free-form answers degrade to a canned reply. metrics may be nil.
func NewEngine(
	classifier *intent.Classifier,
	extractor *extract.Extractor,
	bookings *booking.Service,
	retriever rag.Retriever,
	llmClient llm.Client,
	store SessionStore,
	m *metrics.ConversationMetrics,
	cfg Config,
	logger *logging.Logger,
) *Engine {
	if classifier == nil {
		panic("dialogue: classifier cannot be nil")
	}
	if extractor == nil {
		panic("dialogue: extractor cannot be nil")
	}
	if bookings == nil {
		panic("dialogue: booking service cannot be nil")
	}
	if retriever == nil {
		panic("dialogue: retriever cannot be nil")
	}
	if store == nil {
		panic("dialogue: session store cannot be nil")
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 10
	}
	if cfg.PropertyName == "" {
		cfg.PropertyName = "the hotel"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		classifier: classifier,
		extractor:  extractor,
		bookings:   bookings,
		retriever:  retriever,
		llm:        llmClient,
		store:      store,
		metrics:    m,
		logger:     logger,
		cfg:        cfg,
	}
}

// ProcessTurn handles one guest message and returns the reply. The
// session is created on first contact and persisted after every turn.
func (e *Engine) ProcessTurn(ctx context.Context, sessionID, message string) (*Reply, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("dialogue: session id required")
	}
	if message == "" {
		return nil, fmt.Errorf("dialogue: empty message")
	}

	sess, err := e.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		sess = NewSession(sessionID)
	}

	snapshot := intent.Snapshot{
		AwaitingRoomChoice: sess.Flow.State == StateAwaitingRoomChoice,
		HasSlots:           !sess.Flow.Slots.Empty(),
	}
	result := e.classifier.Classify(message, snapshot)
	e.metrics.ObserveTurn(string(result.Category))
	e.logger.Info("turn classified",
		"session_id", sessionID,
		"intent", result.Category,
		"score", result.Score,
		"state", sess.Flow.State,
	)

	sess.Remember(llm.RoleUser, message)
	text := e.dispatch(ctx, sess, message, result.Category)
	sess.Remember(llm.RoleAssistant, text)

	if err := e.store.Save(ctx, sess); err != nil {
		// The guest already has their answer; losing one turn of state
		// is better than failing the whole request.
		e.logger.Error("session save failed", "error", err, "session_id", sessionID)
	}

	return &Reply{
		SessionID: sessionID,
		Text:      text,
		Intent:    string(result.Category),
		State:     sess.Flow.State,
	}, nil
}

// dispatch picks the reply path: state-specific branches first, then the
// intent router. Cancellation wins over everything so a guest can always
// back out of a half-finished flow.
func (e *Engine) dispatch(ctx context.Context, sess *Session, message string, category intent.Category) string {
	if text, handled := e.handleCancel(sess, category); handled {
		return text
	}
	if sess.Flow.State == StateCollecting {
		return e.advanceCollecting(ctx, sess, message)
	}
	if text, handled := e.handleRoomChoice(ctx, sess, message, category); handled {
		return text
	}

	switch category {
	case intent.Housekeeping:
		return e.handleHousekeeping(ctx, sess, message)
	case intent.StartBooking:
		return e.advanceCollecting(ctx, sess, message)
	default:
		return e.groundedReply(ctx, sess, message, category)
	}
}

func (e *Engine) handleHousekeeping(ctx context.Context, sess *Session, message string) string {
	guestName := ""
	if sess.Flow.Slots.Name != nil {
		guestName = *sess.Flow.Slots.Name
	}
	ticket := e.bookings.OpenHousekeepingTicket(ctx, guestName, "", message, "")
	return fmt.Sprintf("Housekeeping request noted. Ticket %s.", ticket.Ref)
}

// handleCancel backs the guest out of an in-progress flow. Cancellation
// of a confirmed reservation is not something this engine can do, so
// outside a flow the message goes to the grounded intent router.
func (e *Engine) handleCancel(sess *Session, category intent.Category) (string, bool) {
	if category != intent.CancelBooking || !sess.Flow.Active() {
		return "", false
	}
	sess.Flow.Reset()
	return "No problem, I've cancelled the booking in progress. Let me know if you'd like to start over.", true
}
