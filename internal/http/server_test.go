package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	internal_http "github.com/gnu3ra/bobot/internal/http"
	"github.com/gnu3ra/bobot/internal/log"
	"github.com/gnu3ra/bobot/pkg/service"
	"github.com/gnu3ra/bobot/pkg/storage"
)

func newServer(store storage.Store) *httptest.Server {
	svc := service.NewConversationService(store, log.GetLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("/health", internal_http.HealthHandler)
	mux.HandleFunc("/conversations", internal_http.ConversationsHandler(svc))
	mux.HandleFunc("/dialogs", internal_http.DialogsHandler(svc))
	return httptest.NewServer(mux)
}

func postJSON(t *testing.T, srv *httptest.Server, method, path string, payload string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, bytes.NewBufferString(payload))
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	assert.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	return resp, body
}

func TestServer(t *testing.T) {
	t.Run("HealthCheck", func(t *testing.T) {
		srv := newServer(storage.NewMockStore())
		defer srv.Close()

		resp, err := srv.Client().Get(srv.URL + "/health")
		assert.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "bobot server is running", string(body))
	})

	t.Run("CreateConversation", func(t *testing.T) {
		srv := newServer(storage.NewMockStore())
		defer srv.Close()

		resp, body := postJSON(t, srv, "POST", "/conversations",
			`{"trigger_phrase": "/upload", "start_content": "Send a sticker"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var created struct {
			ConversationID string `json:"conversation_id"`
			StartStateID   string `json:"start_state_id"`
		}
		assert.NoError(t, json.Unmarshal(body, &created))
		assert.NotEmpty(t, created.ConversationID)
		assert.NotEmpty(t, created.StartStateID)
	})

	t.Run("CreateConversationMissingTrigger", func(t *testing.T) {
		srv := newServer(storage.NewMockStore())
		defer srv.Close()

		resp, body := postJSON(t, srv, "POST", "/conversations", `{"trigger_phrase": ""}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "{\"error\":\"Missing 'trigger_phrase' parameter\"}\n", string(body))
	})

	t.Run("ListConversations", func(t *testing.T) {
		srv := newServer(storage.NewMockStore())
		defer srv.Close()

		_, _ = postJSON(t, srv, "POST", "/conversations",
			`{"trigger_phrase": "/upload", "start_content": "Send a sticker"}`)

		resp, err := srv.Client().Get(srv.URL + "/conversations")
		assert.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(body), `"trigger_phrase":"/upload"`)
	})

	t.Run("DialogLifecycle", func(t *testing.T) {
		store := storage.NewMockStore()
		srv := newServer(store)
		defer srv.Close()

		_, body := postJSON(t, srv, "POST", "/conversations",
			`{"trigger_phrase": "/wizard", "start_content": "step one"}`)
		var created struct {
			ConversationID string `json:"conversation_id"`
			StartStateID   string `json:"start_state_id"`
		}
		assert.NoError(t, json.Unmarshal(body, &created))

		// Author a second state and an edge directly through the service
		svc := service.NewConversationService(store, log.GetLogger())
		conversations, err := svc.ListConversations()
		assert.NoError(t, err)
		assert.Len(t, conversations, 1)
		convID := conversations[0].ConversationID
		start, err := svc.GetStartState(convID)
		assert.NoError(t, err)
		next, err := svc.AddState(convID, "step two")
		assert.NoError(t, err)
		assert.NoError(t, svc.AddTransition(start.StateID, next, "ok"))

		resp, body := postJSON(t, srv, "POST", "/dialogs",
			fmt.Sprintf(`{"chat_id": 1, "user_id": 2, "conversation_id": "%s"}`, convID))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, body = postJSON(t, srv, "GET", "/dialogs", `{"chat_id": 1, "user_id": 2}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "{\"text\":\"step one\"}\n", string(body))

		// Unknown label is a conflict, not a server fault
		resp, _ = postJSON(t, srv, "PUT", "/dialogs", `{"chat_id": 1, "user_id": 2, "label": "bogus"}`)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		resp, body = postJSON(t, srv, "PUT", "/dialogs", `{"chat_id": 1, "user_id": 2, "label": "ok"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "{\"text\":\"step two\"}\n", string(body))
	})

	t.Run("TransitionWithoutDialog", func(t *testing.T) {
		srv := newServer(storage.NewMockStore())
		defer srv.Close()

		resp, _ := postJSON(t, srv, "PUT", "/dialogs", `{"chat_id": 5, "user_id": 6, "label": "x"}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
