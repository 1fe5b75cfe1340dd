package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/gnu3ra/bobot/pkg/models"
	"github.com/gnu3ra/bobot/pkg/storage"
)

// Logger defines the logging interface for ConversationService
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// ErrNoTransition means the current state has no outgoing edge with
// the given label. It is expected during normal operation (the user
// typed something the wizard does not accept here) and callers should
// re-prompt rather than abort; infrastructure failures surface as
// other errors.
var ErrNoTransition = errors.New("no such transition")

// ConversationService authors conversation templates and drives dialog
// instances through them. Every mutation is persisted immediately;
// there is no transient unsynced state. Which dialog is active for a
// chat/user pair is the caller's concern, the service only needs the
// identity handed in.
type ConversationService struct {
	store  storage.Store
	logger Logger
}

func NewConversationService(store storage.Store, logger Logger) *ConversationService {
	return &ConversationService{store: store, logger: logger}
}

// CreateConversation creates a template together with its unique start
// state in a single transaction. A duplicate template id fails on the
// primary key; a second start state for the same template would fail
// on the start_for uniqueness constraint.
func (s *ConversationService) CreateConversation(conversationID uuid.UUID, triggerPhrase, startContent string, chatID *int64) (conv models.Conversation, start models.ConversationState, err error) {
	if triggerPhrase == "" {
		return models.Conversation{}, models.ConversationState{}, errors.New("trigger phrase cannot be empty")
	}
	txStore, err := s.store.Begin()
	if err != nil {
		return models.Conversation{}, models.ConversationState{}, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				s.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			s.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	conv = models.Conversation{
		ConversationID: conversationID,
		TriggerPhrase:  triggerPhrase,
		ChatID:         chatID,
	}
	if err = txStore.SaveConversation(conv); err != nil {
		return models.Conversation{}, models.ConversationState{}, err
	}

	startFor := conversationID
	start = models.ConversationState{
		StateID:  uuid.New(),
		Parent:   conversationID,
		Content:  startContent,
		StartFor: &startFor,
	}
	if err = txStore.SaveState(start); err != nil {
		return models.Conversation{}, models.ConversationState{}, err
	}
	s.logger.Infof("Created conversation %s with trigger '%s'", conversationID, triggerPhrase)
	return conv, start, nil
}

// AddState appends a state to a template and returns its id.
func (s *ConversationService) AddState(conversationID uuid.UUID, content string) (uuid.UUID, error) {
	state := models.ConversationState{
		StateID: uuid.New(),
		Parent:  conversationID,
		Content: content,
	}
	if err := s.store.SaveState(state); err != nil {
		return uuid.Nil, err
	}
	return state.StateID, nil
}

// AddTransition appends a directed labeled edge. Self-loops
// (from == to) are valid and express "repeat this step". The service
// does not reject a duplicate (from, label) pair; resolving one is
// undefined and templates must not contain any.
func (s *ConversationService) AddTransition(from, to uuid.UUID, triggerPhrase string) error {
	t := models.ConversationTransition{
		TransitionID:  uuid.New(),
		StartState:    from,
		EndState:      to,
		TriggerPhrase: triggerPhrase,
	}
	return s.store.SaveTransition(t)
}

// GetStartState returns the uniquely marked entry state of a template.
func (s *ConversationService) GetStartState(conversationID uuid.UUID) (models.ConversationState, error) {
	return s.store.GetStartState(conversationID)
}

// GetCurrentText resolves a dialog's current-state pointer to its
// prompt. A pointer at a state deleted out-of-band surfaces as
// storage.ErrNotFound.
func (s *ConversationService) GetCurrentText(d models.Dialog) (string, error) {
	state, err := s.store.GetState(d.CurrentStateID)
	if err != nil {
		return "", errors.Wrapf(err, "current state %s", d.CurrentStateID)
	}
	return state.Content, nil
}

// Transition advances a dialog along the edge labeled triggerPhrase
// out of its current state, persists the new pointer and returns the
// destination prompt. No matching edge is ErrNoTransition and leaves
// the pointer untouched. Concurrent transitions on one dialog are
// last-writer-wins; there is no version token.
func (s *ConversationService) Transition(d models.Dialog, triggerPhrase string) (string, error) {
	edge, err := s.store.GetTransition(d.CurrentStateID, triggerPhrase)
	if errors.Is(err, storage.ErrNotFound) {
		return "", errors.Wrapf(ErrNoTransition, "state %s label '%s'", d.CurrentStateID, triggerPhrase)
	}
	if err != nil {
		return "", err
	}
	dest, err := s.store.GetState(edge.EndState)
	if err != nil {
		return "", errors.Wrapf(err, "destination state %s", edge.EndState)
	}
	if err := s.store.UpdateDialogState(d.ChatID, d.UserID, dest.StateID); err != nil {
		return "", err
	}
	s.logger.Infof("Dialog (%d, %d) moved to state %s via '%s'", d.ChatID, d.UserID, dest.StateID, triggerPhrase)
	return dest.Content, nil
}

// StartDialog points a chat/user pair at a template's start state,
// replacing whatever dialog they had before.
func (s *ConversationService) StartDialog(chatID, userID int64, conversationID uuid.UUID) (models.Dialog, error) {
	start, err := s.store.GetStartState(conversationID)
	if err != nil {
		return models.Dialog{}, errors.Wrapf(err, "start state of %s", conversationID)
	}
	d := models.Dialog{
		ChatID:         chatID,
		UserID:         userID,
		ConversationID: conversationID,
		CurrentStateID: start.StateID,
		LastActivity:   time.Now(),
	}
	if err := s.store.SaveDialog(d); err != nil {
		return models.Dialog{}, err
	}
	s.logger.Infof("Started dialog (%d, %d) on conversation %s", chatID, userID, conversationID)
	return d, nil
}

// GetDialog fetches the instance pointer for a chat/user pair.
func (s *ConversationService) GetDialog(chatID, userID int64) (models.Dialog, error) {
	return s.store.GetDialog(chatID, userID)
}

// DropDialog removes the instance pointer for a chat/user pair.
func (s *ConversationService) DropDialog(chatID, userID int64) error {
	return s.store.DeleteDialog(chatID, userID)
}

// ListConversations returns all templates.
func (s *ConversationService) ListConversations() ([]models.Conversation, error) {
	return s.store.ListConversations()
}
