package storage

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/gnu3ra/bobot/pkg/models"
)

// ErrNotFound is returned when a requested row does not exist. A
// dangling dialog pointer (its state deleted out from under an
// instance) surfaces as this error too.
var ErrNotFound = errors.New("not found")

// Store defines the durable storage operations for bobot. Begin
// returns a transactional Store with the same method set; Commit and
// Rollback only make sense on the value Begin returned.
type Store interface {
	Begin() (Store, error)
	Commit() error
	Rollback() error
	Close() error

	// Conversation template operations
	SaveConversation(c models.Conversation) error
	GetConversation(id uuid.UUID) (models.Conversation, error)
	ListConversations() ([]models.Conversation, error)
	DeleteConversation(id uuid.UUID) error

	// State operations
	SaveState(s models.ConversationState) error
	GetState(id uuid.UUID) (models.ConversationState, error)
	GetStartState(conversationID uuid.UUID) (models.ConversationState, error)

	// Transition operations
	SaveTransition(t models.ConversationTransition) error
	GetTransition(startState uuid.UUID, triggerPhrase string) (models.ConversationTransition, error)

	// Dialog (instance pointer) operations
	SaveDialog(d models.Dialog) error
	GetDialog(chatID, userID int64) (models.Dialog, error)
	UpdateDialogState(chatID, userID int64, stateID uuid.UUID) error
	DeleteDialog(chatID, userID int64) error

	// Sticker operations
	SaveSticker(s models.Sticker) error
	SaveTags(tags []models.Tag) error
	ListStickers(ownerID int64) ([]models.Sticker, error)
	SearchStickersByTag(ownerID int64, tag string) ([]models.Sticker, error)
	DeleteSticker(id uuid.UUID) error
}
