package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayline/concierge/internal/dialogue"
)

type fakeEngine struct {
	reply     *dialogue.Reply
	err       error
	gotID     string
	gotText   string
	turnCount int
}

func (f *fakeEngine) ProcessTurn(ctx context.Context, sessionID, message string) (*dialogue.Reply, error) {
	f.turnCount++
	f.gotID = sessionID
	f.gotText = message
	if f.err != nil {
		return nil, f.err
	}
	reply := *f.reply
	reply.SessionID = sessionID
	return &reply, nil
}

type fakeRebuilder struct {
	counts map[string]int
	err    error
}

func (f *fakeRebuilder) RebuildAll(ctx context.Context) (map[string]int, error) {
	return f.counts, f.err
}

type fakeReporter struct {
	counts    map[string]int
	rebuiltAt time.Time
}

func (f *fakeReporter) Status() (map[string]int, time.Time) { return f.counts, f.rebuiltAt }

func newTestRouter(engine *fakeEngine, rebuilder *fakeRebuilder, reporter *fakeReporter) http.Handler {
	cfg := &Config{MetricsHandler: promhttp.Handler()}
	if engine != nil {
		cfg.ChatHandler = NewChatHandler(engine, nil)
	}
	if rebuilder != nil {
		cfg.RAGHandler = NewRAGHandler(rebuilder, reporter, nil)
	}
	return NewRouter(cfg)
}

func TestChatMessage(t *testing.T) {
	engine := &fakeEngine{reply: &dialogue.Reply{Text: "Welcome!", Intent: "chitchat", State: "idle"}}
	router := newTestRouter(engine, nil, nil)

	body := `{"session_id": "s1", "message": "hello"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat/message", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dialogue.Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, "Welcome!", resp.Text)
	assert.Equal(t, "s1", engine.gotID)
	assert.Equal(t, "hello", engine.gotText)
}

func TestChatMessageGeneratesSessionID(t *testing.T) {
	engine := &fakeEngine{reply: &dialogue.Reply{Text: "Welcome!"}}
	router := newTestRouter(engine, nil, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat/message",
		strings.NewReader(`{"message": "hello"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dialogue.Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID, "server assigns a session id")
	assert.Equal(t, resp.SessionID, engine.gotID)
}

func TestChatMessageSessionIDFromHeader(t *testing.T) {
	engine := &fakeEngine{reply: &dialogue.Reply{Text: "Welcome!"}}
	router := newTestRouter(engine, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/chat/message", strings.NewReader(`{"message": "hi"}`))
	req.Header.Set("X-Session-ID", "hdr-7")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hdr-7", engine.gotID)
}

func TestChatMessageRejectsBadInput(t *testing.T) {
	engine := &fakeEngine{reply: &dialogue.Reply{Text: "x"}}
	router := newTestRouter(engine, nil, nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed JSON", body: `{"message":`},
		{name: "empty message", body: `{"session_id": "s1", "message": "   "}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat/message", strings.NewReader(tc.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Zero(t, engine.turnCount)
		})
	}
}

func TestChatMessageEngineFailure(t *testing.T) {
	engine := &fakeEngine{err: errors.New("redis down")}
	router := newTestRouter(engine, nil, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat/message",
		strings.NewReader(`{"session_id": "s1", "message": "hello"}`)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRAGSync(t *testing.T) {
	rebuilder := &fakeRebuilder{counts: map[string]int{"customers": 3, "room_types": 2}}
	router := newTestRouter(nil, rebuilder, &fakeReporter{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rag/sync", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Status  string         `json:"status"`
		Corpora map[string]int `json:"corpora"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Corpora["customers"])
}

func TestRAGSyncPartialFailure(t *testing.T) {
	rebuilder := &fakeRebuilder{
		counts: map[string]int{"room_types": 2},
		err:    errors.New("pms: customers unavailable"),
	}
	router := newTestRouter(nil, rebuilder, &fakeReporter{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rag/sync", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp struct {
		Status  string         `json:"status"`
		Corpora map[string]int `json:"corpora"`
		Error   string         `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "partial", resp.Status)
	assert.Equal(t, 2, resp.Corpora["room_types"])
	assert.Contains(t, resp.Error, "customers unavailable")
}

func TestRAGStatus(t *testing.T) {
	rebuilt := time.Date(2025, 11, 30, 12, 0, 0, 0, time.UTC)
	reporter := &fakeReporter{
		counts:    map[string]int{"customers": 3, "bookings": 5},
		rebuiltAt: rebuilt,
	}
	router := newTestRouter(nil, &fakeRebuilder{}, reporter)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rag/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Corpora   map[string]int `json:"corpora"`
		Documents int            `json:"documents"`
		RebuiltAt *time.Time     `json:"rebuilt_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 8, resp.Documents)
	require.NotNil(t, resp.RebuiltAt)
	assert.True(t, resp.RebuiltAt.Equal(rebuilt))
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
