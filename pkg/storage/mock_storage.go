package storage

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/gnu3ra/bobot/pkg/models"
)

// mockStore implements Store with in-memory slices for unit tests.
// Transactions are a no-op: Begin hands back the same instance.
type mockStore struct {
	conversations []models.Conversation
	states        []models.ConversationState
	transitions   []models.ConversationTransition
	dialogs       []models.Dialog
	stickers      []models.Sticker
	tags          []models.Tag
	nextTagID     int64
}

func NewMockStore() Store {
	return &mockStore{}
}

func (m *mockStore) Begin() (Store, error) { return m, nil }
func (m *mockStore) Commit() error         { return nil }
func (m *mockStore) Rollback() error       { return nil }
func (m *mockStore) Close() error          { return nil }

func (m *mockStore) SaveConversation(c models.Conversation) error {
	for _, existing := range m.conversations {
		if existing.ConversationID == c.ConversationID {
			return errors.New("conversation already exists")
		}
	}
	m.conversations = append(m.conversations, c)
	return nil
}

func (m *mockStore) GetConversation(id uuid.UUID) (models.Conversation, error) {
	for _, c := range m.conversations {
		if c.ConversationID == id {
			return c, nil
		}
	}
	return models.Conversation{}, ErrNotFound
}

func (m *mockStore) ListConversations() ([]models.Conversation, error) {
	return m.conversations, nil
}

func (m *mockStore) DeleteConversation(id uuid.UUID) error {
	for i, c := range m.conversations {
		if c.ConversationID == id {
			m.conversations = append(m.conversations[:i], m.conversations[i+1:]...)
			// Cascade, mirroring the FK behavior of the real schema
			var states []models.ConversationState
			for _, s := range m.states {
				if s.Parent != id {
					states = append(states, s)
				}
			}
			m.states = states
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockStore) SaveState(s models.ConversationState) error {
	for _, existing := range m.states {
		if existing.StateID == s.StateID {
			return errors.New("state already exists")
		}
		if s.StartFor != nil && existing.StartFor != nil && *existing.StartFor == *s.StartFor {
			return errors.New("duplicate start state for conversation")
		}
	}
	m.states = append(m.states, s)
	return nil
}

func (m *mockStore) GetState(id uuid.UUID) (models.ConversationState, error) {
	for _, s := range m.states {
		if s.StateID == id {
			return s, nil
		}
	}
	return models.ConversationState{}, ErrNotFound
}

func (m *mockStore) GetStartState(conversationID uuid.UUID) (models.ConversationState, error) {
	for _, s := range m.states {
		if s.StartFor != nil && *s.StartFor == conversationID {
			return s, nil
		}
	}
	return models.ConversationState{}, ErrNotFound
}

func (m *mockStore) SaveTransition(t models.ConversationTransition) error {
	for _, existing := range m.transitions {
		if existing.TransitionID == t.TransitionID {
			return errors.New("transition already exists")
		}
	}
	m.transitions = append(m.transitions, t)
	return nil
}

func (m *mockStore) GetTransition(startState uuid.UUID, triggerPhrase string) (models.ConversationTransition, error) {
	for _, t := range m.transitions {
		if t.StartState == startState && t.TriggerPhrase == triggerPhrase {
			return t, nil
		}
	}
	return models.ConversationTransition{}, ErrNotFound
}

func (m *mockStore) SaveDialog(d models.Dialog) error {
	for i, existing := range m.dialogs {
		if existing.ChatID == d.ChatID && existing.UserID == d.UserID {
			m.dialogs[i] = d
			return nil
		}
	}
	m.dialogs = append(m.dialogs, d)
	return nil
}

func (m *mockStore) GetDialog(chatID, userID int64) (models.Dialog, error) {
	for _, d := range m.dialogs {
		if d.ChatID == chatID && d.UserID == userID {
			return d, nil
		}
	}
	return models.Dialog{}, ErrNotFound
}

func (m *mockStore) UpdateDialogState(chatID, userID int64, stateID uuid.UUID) error {
	for i, d := range m.dialogs {
		if d.ChatID == chatID && d.UserID == userID {
			m.dialogs[i].CurrentStateID = stateID
			m.dialogs[i].LastActivity = time.Now()
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockStore) DeleteDialog(chatID, userID int64) error {
	for i, d := range m.dialogs {
		if d.ChatID == chatID && d.UserID == userID {
			m.dialogs = append(m.dialogs[:i], m.dialogs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockStore) SaveSticker(s models.Sticker) error {
	for _, existing := range m.stickers {
		if existing.UniqueID == s.UniqueID {
			return errors.New("sticker already exists")
		}
	}
	m.stickers = append(m.stickers, s)
	return nil
}

func (m *mockStore) SaveTags(tags []models.Tag) error {
	for _, t := range tags {
		m.nextTagID++
		t.ID = m.nextTagID
		m.tags = append(m.tags, t)
	}
	return nil
}

func (m *mockStore) ListStickers(ownerID int64) ([]models.Sticker, error) {
	var out []models.Sticker
	for _, s := range m.stickers {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStore) SearchStickersByTag(ownerID int64, tag string) ([]models.Sticker, error) {
	matched := make(map[string]struct{})
	for _, t := range m.tags {
		if t.OwnerID == ownerID && strings.Contains(t.Tag, tag) {
			matched[t.StickerID] = struct{}{}
		}
	}
	var out []models.Sticker
	for _, s := range m.stickers {
		if _, ok := matched[s.UniqueID]; ok && s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStore) DeleteSticker(id uuid.UUID) error {
	for i, s := range m.stickers {
		if s.Uuid == id {
			var tags []models.Tag
			for _, t := range m.tags {
				if t.StickerID != s.UniqueID {
					tags = append(tags, t)
				}
			}
			m.tags = tags
			m.stickers = append(m.stickers[:i], m.stickers[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
