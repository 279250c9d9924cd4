package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brmartins/sabia/internal/config"
	"github.com/brmartins/sabia/internal/knowledge"
	"github.com/brmartins/sabia/internal/llm"
	"github.com/brmartins/sabia/internal/memory"
	"github.com/brmartins/sabia/internal/observability"
	"github.com/brmartins/sabia/internal/protocol"
	"github.com/brmartins/sabia/internal/resolver"
	"github.com/brmartins/sabia/internal/session"
	"github.com/brmartins/sabia/internal/transcript"
)

type echoGenerator struct{}

func (echoGenerator) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	last := req.Messages[len(req.Messages)-1]
	return llm.Response{Text: "resposta para: " + last.Content}, nil
}

var metricsSeq atomic.Int64

func newTestServer(t *testing.T) (*Server, *memory.BufferStore) {
	t.Helper()
	cfg := config.Config{
		SessionInactivityTimeout: 2 * time.Minute,
		AllowAnyOrigin:           true,
	}
	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	// Each test needs its own namespace: promauto registers globally.
	metrics := observability.NewMetrics(fmt.Sprintf("test_httpapi_%d", metricsSeq.Add(1)))
	kb := knowledge.NewInMemoryStore()
	buffers := memory.NewBufferStore(10)
	transcripts := transcript.NewInMemoryStore()
	res := resolver.New(resolver.Config{}, kb, buffers, transcripts, nil, echoGenerator{}, metrics)
	return New(cfg, sessions, res, buffers, transcripts, metrics), buffers
}

func createSession(t *testing.T, baseURL, userID string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"user_id": userID})
	res, err := http.Post(baseURL+"/v1/chat/session", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create session request error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want %d", res.StatusCode, http.StatusCreated)
	}
	var created map[string]any
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	id, _ := created["session_id"].(string)
	if id == "" {
		t.Fatalf("missing session_id in create response: %+v", created)
	}
	return id
}

func TestCreateSessionAndSendMessage(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	sessionID := createSession(t, ts.URL, "user-1")

	body, _ := json.Marshal(map[string]string{
		"session_id": sessionID,
		"user_id":    "user-1",
		"message":    "a impressora não liga",
	})
	res, err := http.Post(ts.URL+"/v1/chat/message", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("message request error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("message status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var got messageResponse
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode message response: %v", err)
	}
	if got.Source != string(resolver.SourceGenerated) {
		t.Fatalf("source = %q, want generated", got.Source)
	}
	if !strings.Contains(got.Answer, "resposta para") {
		t.Fatalf("answer = %q", got.Answer)
	}

	// History now shows the turn.
	histRes, err := http.Get(ts.URL + "/v1/chat/session/" + sessionID + "/history?user_id=user-1")
	if err != nil {
		t.Fatalf("history request error = %v", err)
	}
	defer histRes.Body.Close()
	if histRes.StatusCode != http.StatusOK {
		t.Fatalf("history status = %d, want %d", histRes.StatusCode, http.StatusOK)
	}
	var hist struct {
		Turns []transcript.Turn `json:"turns"`
	}
	if err := json.NewDecoder(histRes.Body).Decode(&hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(hist.Turns) != 1 {
		t.Fatalf("history turns = %d, want 1", len(hist.Turns))
	}
}

func TestMessageRejectsForeignSession(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	sessionID := createSession(t, ts.URL, "user-1")

	body, _ := json.Marshal(map[string]string{
		"session_id": sessionID,
		"user_id":    "intruder",
		"message":    "oi",
	})
	res, err := http.Post(ts.URL+"/v1/chat/message", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("message request error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}

func TestHistoryRejectsForeignUser(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	sessionID := createSession(t, ts.URL, "user-1")

	body, _ := json.Marshal(map[string]string{
		"session_id": sessionID,
		"user_id":    "user-1",
		"message":    "primeira pergunta",
	})
	res, err := http.Post(ts.URL+"/v1/chat/message", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("message request error = %v", err)
	}
	res.Body.Close()

	histRes, err := http.Get(ts.URL + "/v1/chat/session/" + sessionID + "/history?user_id=user-2")
	if err != nil {
		t.Fatalf("history request error = %v", err)
	}
	defer histRes.Body.Close()
	if histRes.StatusCode != http.StatusNotFound {
		t.Fatalf("history status = %d, want %d", histRes.StatusCode, http.StatusNotFound)
	}
}

func TestNewSessionResetsMemoryBuffer(t *testing.T) {
	srv, buffers := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	buffers.Append("user-1", "pergunta antiga", "resposta antiga")
	_ = createSession(t, ts.URL, "user-1")

	if got := buffers.Context("user-1"); len(got) != 0 {
		t.Fatalf("buffer after new session = %v, want empty", got)
	}
}

func TestEndSession(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	sessionID := createSession(t, ts.URL, "user-1")

	endRes, err := http.Post(ts.URL+"/v1/chat/session/"+sessionID+"/end", "application/json", bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("end session request error = %v", err)
	}
	defer endRes.Body.Close()
	if endRes.StatusCode != http.StatusOK {
		t.Fatalf("end status = %d, want %d", endRes.StatusCode, http.StatusOK)
	}

	// Messages to an ended session are refused.
	body, _ := json.Marshal(map[string]string{
		"session_id": sessionID,
		"user_id":    "user-1",
		"message":    "ainda aí?",
	})
	res, err := http.Post(ts.URL+"/v1/chat/message", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("message request error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusConflict)
	}
}

func TestChatWebsocketRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	sessionID := createSession(t, ts.URL, "user-1")

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/chat/ws?session_id=" + sessionID + "&user_id=user-1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("ws dial error = %v", err)
	}
	defer conn.Close()

	err = conn.WriteJSON(protocol.ClientMessage{
		Type:      protocol.TypeClientMessage,
		SessionID: sessionID,
		UserID:    "user-1",
		Text:      "o mouse parou de funcionar",
	})
	if err != nil {
		t.Fatalf("ws write error = %v", err)
	}

	var reply protocol.AssistantMessage
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("ws read error = %v", err)
	}
	if reply.Type != protocol.TypeAssistantMessage {
		t.Fatalf("reply type = %q, want assistant_message", reply.Type)
	}
	if reply.Text == "" || reply.TurnID == "" {
		t.Fatalf("reply missing fields: %+v", reply)
	}
}

func TestHealthAndPerfEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	for _, path := range []string{"/healthz", "/readyz", "/v1/perf/latency"} {
		res, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d, want 200", path, res.StatusCode)
		}
	}
}
