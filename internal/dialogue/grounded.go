package dialogue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stayline/concierge/internal/intent"
	"github.com/stayline/concierge/internal/llm"
	"github.com/stayline/concierge/internal/rag"
)

const retrievalTopK = 3

// corporaFor maps an intent to the corpora worth searching for it. An
// empty result means search everything.
func corporaFor(category intent.Category) []string {
	switch category {
	case intent.AmenitiesInquiry, intent.LocationDirections:
		return []string{rag.CorpusPropertyInfo}
	case intent.PricingInquiry:
		return []string{rag.CorpusRoomTypes, rag.CorpusPropertyInfo}
	default:
		return nil
	}
}

// groundedReply answers free-form questions with the LLM, grounded in
// whatever the retrieval store knows about the property.
func (e *Engine) groundedReply(ctx context.Context, sess *Session, message string, category intent.Category) string {
	started := time.Now()
	results, err := e.retriever.Search(ctx, message, retrievalTopK, corporaFor(category)...)
	e.metrics.ObserveRetrievalLatency(time.Since(started).Seconds())
	if err != nil {
		e.logger.Warn("retrieval failed", "error", err, "session_id", sess.ID)
		results = nil
	}

	if e.llm == nil {
		return e.fallbackReply()
	}

	reply, err := e.llm.Complete(ctx, llm.Request{
		System:      e.persona(results),
		Messages:    historyMessages(sess.History, e.cfg.HistoryWindow),
		MaxTokens:   400,
		Temperature: 0.3,
	})
	if err != nil || strings.TrimSpace(reply) == "" {
		e.metrics.ObserveLLMFailure("complete")
		e.logger.Error("grounded reply failed", "error", err, "session_id", sess.ID)
		return e.fallbackReply()
	}
	return strings.TrimSpace(reply)
}

func (e *Engine) persona(results []rag.SearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the virtual concierge for %s. ", e.cfg.PropertyName)
	b.WriteString("Be warm and concise. Answer only from the context below and the conversation; ")
	b.WriteString("if the answer is not there, say you will check with reception.")

	if len(results) > 0 {
		b.WriteString("\n\nContext:\n")
		for _, r := range results {
			b.WriteString("---\n")
			b.WriteString(r.Content)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// historyMessages converts the trailing window of session history for the
// LLM. Stored history is never truncated; the latest user message is
// already the final entry.
func historyMessages(history []Turn, window int) []llm.Message {
	if window > 0 && len(history) > window {
		history = history[len(history)-window:]
	}
	msgs := make([]llm.Message, len(history))
	for i, turn := range history {
		msgs[i] = llm.Message{Role: turn.Role, Content: turn.Content}
	}
	return msgs
}

func (e *Engine) fallbackReply() string {
	if e.cfg.ReceptionPhone != "" {
		return fmt.Sprintf("I'm having trouble answering right now. Please call reception at %s and they'll help straight away.", e.cfg.ReceptionPhone)
	}
	return "I'm having trouble answering right now. Please contact reception and they'll help straight away."
}
