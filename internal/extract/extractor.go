package extract

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/stayline/concierge/internal/llm"
	"github.com/stayline/concierge/pkg/logging"
)

const extractionInstruction = `Extract booking information from the guest message as a JSON object with exactly these keys: name, email, phone, check_in_date, check_out_date, guests.
Dates must be YYYY-MM-DD. guests must be a number. Use null for anything not present.
Respond with the JSON object only, no other text.`

// FallbackObserver is notified whenever the deterministic fallback ran
// instead of the model-backed path. Wired to Prometheus in production.
type FallbackObserver interface {
	ObserveExtractorFallback()
}

// Extractor turns free text into a partial booking record. The model-backed
// path is tried first; any failure degrades to deterministic pattern
// extraction. Extract never returns an error.
type Extractor struct {
	client   llm.Client
	logger   *logging.Logger
	observer FallbackObserver
}

// NewExtractor creates a two-tier slot extractor. A nil client skips
// straight to the deterministic tier.
func NewExtractor(client llm.Client, observer FallbackObserver, logger *logging.Logger) *Extractor {
	if logger == nil {
		logger = logging.Default()
	}
	return &Extractor{
		client:   client,
		logger:   logger,
		observer: observer,
	}
}

// Extract resolves the six booking slots from text. Unresolved fields are
// nil, never zero values.
func (e *Extractor) Extract(ctx context.Context, text string) Slots {
	if slots, ok := e.extractWithModel(ctx, text); ok {
		return slots
	}
	if e.observer != nil {
		e.observer.ObserveExtractorFallback()
	}
	return fallbackExtract(text)
}

// wireSlots tolerates the shapes providers actually emit: guests as a
// number or a quoted string, missing keys, explicit nulls.
type wireSlots struct {
	Name         *string         `json:"name"`
	Email        *string         `json:"email"`
	Phone        *string         `json:"phone"`
	CheckInDate  *string         `json:"check_in_date"`
	CheckOutDate *string         `json:"check_out_date"`
	Guests       json.RawMessage `json:"guests"`
}

func (e *Extractor) extractWithModel(ctx context.Context, text string) (Slots, bool) {
	if e.client == nil {
		return Slots{}, false
	}

	raw, err := llm.ExtractObject(ctx, e.client, extractionInstruction, text)
	if err != nil {
		e.logger.Warn("model extraction failed, using pattern fallback", "error", err)
		return Slots{}, false
	}

	var wire wireSlots
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		e.logger.Warn("model returned unparseable JSON, using pattern fallback", "error", err)
		return Slots{}, false
	}

	slots := Slots{
		Name:         cleanString(wire.Name),
		Email:        cleanString(wire.Email),
		Phone:        cleanString(wire.Phone),
		CheckInDate:  normalizedDate(cleanString(wire.CheckInDate)),
		CheckOutDate: normalizedDate(cleanString(wire.CheckOutDate)),
		Guests:       parseGuests(wire.Guests),
	}
	return slots, true
}

func cleanString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" || strings.EqualFold(trimmed, "null") {
		return nil
	}
	return &trimmed
}

func normalizedDate(s *string) *string {
	if s == nil {
		return nil
	}
	if iso, ok := normalizeDate(*s); ok {
		return &iso
	}
	return nil
}

func parseGuests(raw json.RawMessage) *int {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil && n > 0 {
		return &n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n > 0 {
			return &n
		}
	}
	return nil
}
