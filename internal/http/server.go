package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/gnu3ra/bobot/internal/log"
	"github.com/gnu3ra/bobot/pkg/service"
	"github.com/gnu3ra/bobot/pkg/storage"
)

// StartServer exposes template authoring and dialog driving over
// plain HTTP. The chat front-end is expected to sit in front of this;
// it owns which dialog is current for a chat/user and just hands the
// identity in.
func StartServer(port string, store storage.Store) error {
	svc := service.NewConversationService(store, log.GetLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("/health", HealthHandler)
	mux.HandleFunc("/conversations", ConversationsHandler(svc))
	mux.HandleFunc("/dialogs", DialogsHandler(svc))

	log.GetLogger().Infof("Starting bobot server on :%s", port)
	return http.ListenAndServe(":"+port, mux)
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "bobot server is running")
}

func ConversationsHandler(svc *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			listConversationsHTTP(w, svc)
		case http.MethodPost:
			createConversationHTTP(w, r, svc)
		default:
			writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// DialogsHandler drives dialog instances: POST starts a dialog on a
// template, PUT transitions it by label, GET returns the current
// prompt text.
func DialogsHandler(svc *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			startDialogHTTP(w, r, svc)
		case http.MethodPut:
			transitionDialogHTTP(w, r, svc)
		case http.MethodGet:
			currentTextHTTP(w, r, svc)
		default:
			writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

type createConversationRequest struct {
	TriggerPhrase string `json:"trigger_phrase"`
	StartContent  string `json:"start_content"`
	ChatID        *int64 `json:"chat_id,omitempty"`
}

func createConversationHTTP(w http.ResponseWriter, r *http.Request, svc *service.ConversationService) {
	var req createConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.TriggerPhrase == "" {
		writeError(w, "Missing 'trigger_phrase' parameter", http.StatusBadRequest)
		return
	}
	conv, start, err := svc.CreateConversation(uuid.New(), req.TriggerPhrase, req.StartContent, req.ChatID)
	if err != nil {
		log.GetLogger().Errorf("Failed to create conversation: %v", err)
		writeError(w, fmt.Sprintf("Failed to create conversation: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{
		"conversation_id": conv.ConversationID,
		"start_state_id":  start.StateID,
	})
}

func listConversationsHTTP(w http.ResponseWriter, svc *service.ConversationService) {
	conversations, err := svc.ListConversations()
	if err != nil {
		log.GetLogger().Errorf("Failed to list conversations: %v", err)
		writeError(w, fmt.Sprintf("Failed to list conversations: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, conversations)
}

type dialogRequest struct {
	ChatID         int64  `json:"chat_id"`
	UserID         int64  `json:"user_id"`
	ConversationID string `json:"conversation_id,omitempty"`
	Label          string `json:"label,omitempty"`
}

func startDialogHTTP(w http.ResponseWriter, r *http.Request, svc *service.ConversationService) {
	var req dialogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	conversationID, err := uuid.Parse(req.ConversationID)
	if err != nil {
		writeError(w, "Invalid 'conversation_id' parameter", http.StatusBadRequest)
		return
	}
	d, err := svc.StartDialog(req.ChatID, req.UserID, conversationID)
	if err != nil {
		log.GetLogger().Errorf("Failed to start dialog: %v", err)
		writeError(w, fmt.Sprintf("Failed to start dialog: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, d)
}

func transitionDialogHTTP(w http.ResponseWriter, r *http.Request, svc *service.ConversationService) {
	var req dialogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	d, err := svc.GetDialog(req.ChatID, req.UserID)
	if err != nil {
		writeError(w, fmt.Sprintf("No dialog for (%d, %d)", req.ChatID, req.UserID), http.StatusNotFound)
		return
	}
	text, err := svc.Transition(d, req.Label)
	if errors.Is(err, service.ErrNoTransition) {
		// Invalid user input for the current state, not a fault: the
		// front-end should re-prompt.
		writeError(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		log.GetLogger().Errorf("Failed to transition dialog: %v", err)
		writeError(w, fmt.Sprintf("Failed to transition dialog: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"text": text})
}

func currentTextHTTP(w http.ResponseWriter, r *http.Request, svc *service.ConversationService) {
	var req dialogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	d, err := svc.GetDialog(req.ChatID, req.UserID)
	if err != nil {
		writeError(w, fmt.Sprintf("No dialog for (%d, %d)", req.ChatID, req.UserID), http.StatusNotFound)
		return
	}
	text, err := svc.GetCurrentText(d)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, "Dialog points at a deleted state", http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, fmt.Sprintf("Failed to resolve current state: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"text": text})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.GetLogger().Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
