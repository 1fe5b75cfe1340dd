package models

import "github.com/google/uuid"

// Conversation is a reusable template for a multi-step interaction:
// a set of states connected by labeled transitions, entered via a
// trigger phrase (e.g. "/upload").
type Conversation struct {
	ConversationID uuid.UUID `json:"conversation_id" db:"conversation_id"` // Template identity
	TriggerPhrase  string    `json:"trigger_phrase" db:"trigger_phrase"`   // Phrase that starts the conversation
	ChatID         *int64    `json:"chat_id,omitempty" db:"chat_id"`       // Optional chat scoping
}

// ConversationState is a single node of a conversation template. The
// content is the prompt shown to the user while an instance sits at
// this state. StartFor is set (to the owning conversation id) on
// exactly one state per template; uniqueness is enforced by the
// database, not by application code.
type ConversationState struct {
	StateID  uuid.UUID  `json:"state_id" db:"state_id"`
	Parent   uuid.UUID  `json:"parent" db:"parent"` // Owning conversation
	Content  string     `json:"content" db:"content"`
	StartFor *uuid.UUID `json:"start_for,omitempty" db:"start_for"`
}

// ConversationTransition is a directed labeled edge between two states.
// Self-loops (StartState == EndState) are valid and express "repeat
// this step". Two edges sharing (StartState, TriggerPhrase) make lookup
// undefined; template authors must not create that ambiguity.
type ConversationTransition struct {
	TransitionID  uuid.UUID `json:"transition_id" db:"transition_id"`
	StartState    uuid.UUID `json:"start_state" db:"start_state"`
	EndState      uuid.UUID `json:"end_state" db:"end_state"`
	TriggerPhrase string    `json:"trigger_phrase" db:"trigger_phrase"` // Edge label
}
