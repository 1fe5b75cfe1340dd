package models

import (
	"time"

	"github.com/google/uuid"
)

// Dialog is a live run of a conversation template for one chat/user
// pair, carrying the current-state pointer. Which dialog is "current"
// for a chat/user is the dialog manager's business; this package only
// persists the pointer. The pointer is mutated exclusively through
// ConversationService.Transition.
type Dialog struct {
	ChatID         int64     `json:"chat_id" db:"chat_id"`
	UserID         int64     `json:"user_id" db:"user_id"`
	ConversationID uuid.UUID `json:"conversation_id" db:"conversation_id"`
	CurrentStateID uuid.UUID `json:"current_state_id" db:"current_state_id"`
	LastActivity   time.Time `json:"last_activity" db:"last_activity"`
}
