package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jcarloshn/difubot/internal/bot"
	"github.com/jcarloshn/difubot/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMessenger struct {
	ready   bool
	failAll bool
	sent    []string
}

func (s *stubMessenger) Ready() bool { return s.ready }

func (s *stubMessenger) SendText(_ context.Context, to, _ string) error {
	s.sent = append(s.sent, to)
	if s.failAll {
		return errors.New("transport failure")
	}
	return nil
}

type stubStore struct {
	subs    []store.Subscriber
	listErr error
}

func (s *stubStore) AddSubscriberIfAbsent(_, _, _ string) error { return nil }

func (s *stubStore) LogMessage(_, _ string) error { return nil }

func (s *stubStore) ListSubscribers() ([]store.Subscriber, error) {
	return s.subs, s.listErr
}

func (s *stubStore) Counts() (int64, int64, error) {
	if s.listErr != nil {
		return 0, 0, s.listErr
	}
	return int64(len(s.subs)), int64(2 * len(s.subs)), nil
}

func newTestServer(m *stubMessenger, st *stubStore) *Server {
	return New(bot.New(m, st), st)
}

func doJSON(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	return w, parsed
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&stubMessenger{ready: true}, &stubStore{})

	w, body := doJSON(t, srv, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestSend_MissingMessage(t *testing.T) {
	srv := newTestServer(&stubMessenger{ready: true}, &stubStore{})

	w, body := doJSON(t, srv, http.MethodPost, "/api/send", `{"to":"123"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestSend_MissingTo(t *testing.T) {
	srv := newTestServer(&stubMessenger{ready: true}, &stubStore{})

	w, body := doJSON(t, srv, http.MethodPost, "/api/send", `{"message":"hola"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestSend_OK(t *testing.T) {
	m := &stubMessenger{ready: true}
	srv := newTestServer(m, &stubStore{})

	w, body := doJSON(t, srv, http.MethodPost, "/api/send", `{"to":"123","message":"hola"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, []string{"123"}, m.sent)
}

func TestSend_FailureReports500(t *testing.T) {
	srv := newTestServer(&stubMessenger{ready: true, failAll: true}, &stubStore{})

	w, body := doJSON(t, srv, http.MethodPost, "/api/send", `{"to":"123","message":"hola"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestBroadcast_MissingMessage(t *testing.T) {
	srv := newTestServer(&stubMessenger{ready: true}, &stubStore{})

	w, body := doJSON(t, srv, http.MethodPost, "/api/broadcast", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestBroadcast_ReturnsTally(t *testing.T) {
	m := &stubMessenger{ready: true}
	st := &stubStore{subs: []store.Subscriber{
		{Identity: "a@c.us"},
		{Identity: "b@c.us"},
	}}
	srv := newTestServer(m, st)

	w, body := doJSON(t, srv, http.MethodPost, "/api/broadcast", `{"message":"aviso"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	stats, ok := body["stats"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 2, stats["success"])
	assert.EqualValues(t, 0, stats["failed"])
}

func TestBroadcast_StoreFailure(t *testing.T) {
	srv := newTestServer(&stubMessenger{ready: true}, &stubStore{listErr: store.ErrRead})

	w, body := doJSON(t, srv, http.MethodPost, "/api/broadcast", `{"message":"aviso"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestSubscribers(t *testing.T) {
	st := &stubStore{subs: []store.Subscriber{{Identity: "a@c.us", Phone: "a"}}}
	srv := newTestServer(&stubMessenger{ready: true}, st)

	w, body := doJSON(t, srv, http.MethodGet, "/api/subscribers", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	subs, ok := body["subscribers"].([]any)
	require.True(t, ok)
	assert.Len(t, subs, 1)
}

func TestStats(t *testing.T) {
	st := &stubStore{subs: []store.Subscriber{{Identity: "a@c.us"}}}
	srv := newTestServer(&stubMessenger{ready: true}, st)

	w, body := doJSON(t, srv, http.MethodGet, "/api/stats", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["subscribers"])
	assert.EqualValues(t, 2, body["messages"])
}

func TestUnmatchedRoute(t *testing.T) {
	srv := newTestServer(&stubMessenger{ready: true}, &stubStore{})

	w, body := doJSON(t, srv, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])
}
