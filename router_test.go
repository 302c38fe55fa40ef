package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testApp(historySize int) *app {
	cfg := defaultConfig()
	cfg.HistorySize = historySize
	return newApp(cfg)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestTopicLifecycle(t *testing.T) {
	h := testApp(4).routes()

	rec := do(t, h, http.MethodPost, "/topics", `{"name":"orders"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodPost, "/topics", `{"name":"orders"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/topics", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/topics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"orders"`)

	rec = do(t, h, http.MethodDelete, "/topics/orders", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodDelete, "/topics/orders", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryEndpoint(t *testing.T) {
	h := testApp(3).routes()
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/topics", `{"name":"orders"}`).Code)

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		rec := do(t, h, http.MethodPost, "/topics/orders/messages", `{"id":"`+id+`","payload":1}`)
		require.Equal(t, http.StatusAccepted, rec.Code)
	}

	rec := do(t, h, http.MethodGet, "/topics/orders/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view HistoryView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 3, view.Capacity)
	assert.Equal(t, 3, view.Size)
	assert.Equal(t, []string{"c", "d", "e"}, ids(view.Messages))

	rec = do(t, h, http.MethodGet, "/topics/orders/history?last_n=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, []string{"d", "e"}, ids(view.Messages))

	rec = do(t, h, http.MethodGet, "/topics/orders/history?last_n=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/topics/missing/history", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublishAssignsID(t *testing.T) {
	a := testApp(4)
	h := a.routes()
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/topics", `{"name":"orders"}`).Code)

	rec := do(t, h, http.MethodPost, "/topics/orders/messages", `{"payload":{"qty":2}}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	topic, err := a.topics.GetTopic("orders")
	require.NoError(t, err)
	got := topic.history.All()
	require.Len(t, got, 1)
	assert.Len(t, got[0].ID, 36)

	rec = do(t, h, http.MethodPost, "/topics/missing/messages", `{"payload":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/topics/orders/messages", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIKey(t *testing.T) {
	a := testApp(4)
	a.cfg.APIKey = "secret"
	h := a.routes()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/topics", "").Code)

	req := httptest.NewRequest(http.MethodGet, "/topics", nil)
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h := testApp(4).routes()
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodPut, "/topics", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/topics/orders", "").Code)
}

func ids(msgs []Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}
