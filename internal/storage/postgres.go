package storage

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/gnu3ra/bobot/pkg/models"
	"github.com/gnu3ra/bobot/pkg/storage"
)

type DBInterface interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	QueryRowx(query string, args ...interface{}) *sqlx.Row
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// PostgresStore implements storage.Store over sqlx. The same type
// serves both a plain connection and an open transaction: Begin wraps
// the underlying *sqlx.Tx in a fresh PostgresStore.
type PostgresStore struct {
	db DBInterface
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func InitStore(dbConnStr string) (*PostgresStore, error) {
	return NewPostgresStore(dbConnStr)
}

func (s *PostgresStore) Begin() (storage.Store, error) {
	if db, ok := s.db.(*sqlx.DB); ok {
		tx, err := db.Beginx()
		if err != nil {
			return nil, err
		}
		return &PostgresStore{db: tx}, nil
	}
	return nil, fmt.Errorf("cannot begin transaction on unknown type")
}

func (s *PostgresStore) Commit() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Commit()
	}
	return fmt.Errorf("cannot commit: not a transaction")
}

func (s *PostgresStore) Rollback() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Rollback()
	}
	return fmt.Errorf("cannot rollback: not a transaction")
}

func (s *PostgresStore) Close() error {
	if db, ok := s.db.(*sqlx.DB); ok {
		return db.Close()
	}
	return nil // No-op for *sqlx.Tx
}

func (s *PostgresStore) SaveConversation(c models.Conversation) error {
	_, err := s.db.Exec("INSERT INTO conversations (conversation_id, trigger_phrase, chat_id) VALUES ($1, $2, $3)",
		c.ConversationID, c.TriggerPhrase, c.ChatID)
	if err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetConversation(id uuid.UUID) (models.Conversation, error) {
	var c models.Conversation
	err := s.db.Get(&c, "SELECT * FROM conversations WHERE conversation_id = $1", id)
	if err == sql.ErrNoRows {
		return models.Conversation{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Conversation{}, err
	}
	return c, nil
}

func (s *PostgresStore) ListConversations() ([]models.Conversation, error) {
	conversations := []models.Conversation{}
	err := s.db.Select(&conversations, "SELECT * FROM conversations ORDER BY trigger_phrase")
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

func (s *PostgresStore) DeleteConversation(id uuid.UUID) error {
	// States and transitions go with it via ON DELETE CASCADE
	_, err := s.db.Exec("DELETE FROM conversations WHERE conversation_id = $1", id)
	return err
}

func (s *PostgresStore) SaveState(st models.ConversationState) error {
	_, err := s.db.Exec("INSERT INTO conversation_states (state_id, parent, content, start_for) VALUES ($1, $2, $3, $4)",
		st.StateID, st.Parent, st.Content, st.StartFor)
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetState(id uuid.UUID) (models.ConversationState, error) {
	var st models.ConversationState
	err := s.db.Get(&st, "SELECT * FROM conversation_states WHERE state_id = $1", id)
	if err == sql.ErrNoRows {
		return models.ConversationState{}, storage.ErrNotFound
	}
	if err != nil {
		return models.ConversationState{}, err
	}
	return st, nil
}

func (s *PostgresStore) GetStartState(conversationID uuid.UUID) (models.ConversationState, error) {
	var st models.ConversationState
	err := s.db.Get(&st, "SELECT * FROM conversation_states WHERE start_for = $1", conversationID)
	if err == sql.ErrNoRows {
		return models.ConversationState{}, storage.ErrNotFound
	}
	if err != nil {
		return models.ConversationState{}, err
	}
	return st, nil
}

func (s *PostgresStore) SaveTransition(t models.ConversationTransition) error {
	_, err := s.db.Exec("INSERT INTO conversation_transitions (transition_id, start_state, end_state, trigger_phrase) VALUES ($1, $2, $3, $4)",
		t.TransitionID, t.StartState, t.EndState, t.TriggerPhrase)
	if err != nil {
		return fmt.Errorf("save transition: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTransition(startState uuid.UUID, triggerPhrase string) (models.ConversationTransition, error) {
	var t models.ConversationTransition
	err := s.db.Get(&t, "SELECT * FROM conversation_transitions WHERE start_state = $1 AND trigger_phrase = $2",
		startState, triggerPhrase)
	if err == sql.ErrNoRows {
		return models.ConversationTransition{}, storage.ErrNotFound
	}
	if err != nil {
		return models.ConversationTransition{}, err
	}
	return t, nil
}

// SaveDialog upserts the instance pointer for a chat/user pair; a new
// wizard replacing an old one is a plain overwrite.
func (s *PostgresStore) SaveDialog(d models.Dialog) error {
	_, err := s.db.Exec(`
		INSERT INTO dialogs (chat_id, user_id, conversation_id, current_state_id, last_activity)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (chat_id, user_id) DO UPDATE
		SET conversation_id = $3, current_state_id = $4, last_activity = $5`,
		d.ChatID, d.UserID, d.ConversationID, d.CurrentStateID, d.LastActivity)
	if err != nil {
		return fmt.Errorf("save dialog: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetDialog(chatID, userID int64) (models.Dialog, error) {
	var d models.Dialog
	err := s.db.Get(&d, "SELECT * FROM dialogs WHERE chat_id = $1 AND user_id = $2", chatID, userID)
	if err == sql.ErrNoRows {
		return models.Dialog{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Dialog{}, err
	}
	return d, nil
}

func (s *PostgresStore) UpdateDialogState(chatID, userID int64, stateID uuid.UUID) error {
	res, err := s.db.Exec("UPDATE dialogs SET current_state_id = $1, last_activity = CURRENT_TIMESTAMP WHERE chat_id = $2 AND user_id = $3",
		stateID, chatID, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteDialog(chatID, userID int64) error {
	_, err := s.db.Exec("DELETE FROM dialogs WHERE chat_id = $1 AND user_id = $2", chatID, userID)
	return err
}

func (s *PostgresStore) SaveSticker(st models.Sticker) error {
	_, err := s.db.Exec("INSERT INTO stickers (unique_id, owner_id, uuid, chosen_name) VALUES ($1, $2, $3, $4)",
		st.UniqueID, st.OwnerID, st.Uuid, st.ChosenName)
	if err != nil {
		return fmt.Errorf("save sticker: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveTags(tags []models.Tag) error {
	for _, t := range tags {
		_, err := s.db.Exec("INSERT INTO tags (sticker_id, owner_id, tag) VALUES ($1, $2, $3)",
			t.StickerID, t.OwnerID, t.Tag)
		if err != nil {
			return fmt.Errorf("save tag %q: %w", t.Tag, err)
		}
	}
	return nil
}

func (s *PostgresStore) ListStickers(ownerID int64) ([]models.Sticker, error) {
	stickers := []models.Sticker{}
	err := s.db.Select(&stickers, "SELECT * FROM stickers WHERE owner_id = $1 ORDER BY unique_id", ownerID)
	if err != nil {
		return nil, err
	}
	return stickers, nil
}

func (s *PostgresStore) SearchStickersByTag(ownerID int64, tag string) ([]models.Sticker, error) {
	stickers := []models.Sticker{}
	err := s.db.Select(&stickers, `
		SELECT s.unique_id, s.owner_id, s.uuid, s.chosen_name
		FROM stickers s
		INNER JOIN tags t ON t.sticker_id = s.unique_id
		WHERE s.owner_id = $1 AND t.tag LIKE $2
		GROUP BY s.unique_id
		LIMIT 10`,
		ownerID, "%"+tag+"%")
	if err != nil {
		return nil, err
	}
	return stickers, nil
}

func (s *PostgresStore) DeleteSticker(id uuid.UUID) error {
	// Tags cascade
	_, err := s.db.Exec("DELETE FROM stickers WHERE uuid = $1", id)
	return err
}
