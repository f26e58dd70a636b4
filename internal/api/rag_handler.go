package api

import (
	"context"
	"net/http"
	"time"

	"github.com/stayline/concierge/pkg/logging"
)

// CorpusRebuilder rebuilds every retrieval corpus from the PMS and the
// property knowledge file.
type CorpusRebuilder interface {
	RebuildAll(ctx context.Context) (map[string]int, error)
}

// CorpusReporter reports per-corpus document counts.
type CorpusReporter interface {
	Status() (counts map[string]int, rebuiltAt time.Time)
}

// RAGHandler exposes the retrieval store's admin surface.
type RAGHandler struct {
	rebuilder CorpusRebuilder
	reporter  CorpusReporter
	logger    *logging.Logger
}

// NewRAGHandler creates the retrieval admin handler.
func NewRAGHandler(rebuilder CorpusRebuilder, reporter CorpusReporter, logger *logging.Logger) *RAGHandler {
	if rebuilder == nil {
		panic("api: corpus rebuilder cannot be nil")
	}
	if reporter == nil {
		panic("api: corpus reporter cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RAGHandler{rebuilder: rebuilder, reporter: reporter, logger: logger}
}

type ragSyncResponse struct {
	Status  string         `json:"status"`
	Corpora map[string]int `json:"corpora"`
	Error   string         `json:"error,omitempty"`
}

// Sync handles POST /rag/sync: rebuild every corpus now. A partial
// failure still reports the corpora that did rebuild.
func (h *RAGHandler) Sync(w http.ResponseWriter, r *http.Request) {
	counts, err := h.rebuilder.RebuildAll(r.Context())
	resp := ragSyncResponse{Status: "ok", Corpora: counts}
	status := http.StatusOK
	if err != nil {
		h.logger.Error("corpus rebuild failed", "error", err)
		resp.Status = "partial"
		resp.Error = err.Error()
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, resp, h.logger)
}

type ragStatusResponse struct {
	Corpora   map[string]int `json:"corpora"`
	Documents int            `json:"documents"`
	RebuiltAt *time.Time     `json:"rebuilt_at,omitempty"`
}

// Status handles GET /rag/status.
func (h *RAGHandler) Status(w http.ResponseWriter, r *http.Request) {
	counts, rebuiltAt := h.reporter.Status()
	resp := ragStatusResponse{Corpora: counts}
	for _, n := range counts {
		resp.Documents += n
	}
	if !rebuiltAt.IsZero() {
		resp.RebuiltAt = &rebuiltAt
	}
	writeJSON(w, http.StatusOK, resp, h.logger)
}
