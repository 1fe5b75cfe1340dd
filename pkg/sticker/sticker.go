// Package sticker implements the sticker upload wizard and tag search
// on top of the conversation engine and the cache. It owns no chat
// transport; callers feed it user input and send the returned prompts
// themselves.
package sticker

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/gnu3ra/bobot/pkg/cache"
	"github.com/gnu3ra/bobot/pkg/models"
	"github.com/gnu3ra/bobot/pkg/service"
	"github.com/gnu3ra/bobot/pkg/storage"
)

// cache key types
const (
	KeyTypeTag         = "wc:tag"
	KeyTypeStickerID   = "wc:stickerid"
	KeyTypeStickerName = "wc:stickername"
	KeyTypeTagSearch   = "wc:tagsearch"
)

// upload wizard shape
const (
	CmdUpload = "/upload"

	TransitionUpload  = "upload"
	TransitionName    = "stickername"
	TransitionTag     = "stickertag"
	TransitionMoreTag = "stickermoretag"
	TransitionDone    = "stickerdone"

	StateStart  = "Send a sticker to upload"
	StateUpload = "sticker uploaded"
	StateName   = "Send a name for this sticker"
	StateTags   = "Send tags for this sticker, one at a time. Send /done to stop"
	StateDone   = "Successfully uploaded sticker"
)

// Service drives sticker uploads and search. Intermediate wizard input
// (file id, chosen name, tags) lives in the cache scoped to the
// chat/user pair; nothing durable is written until the final step
// commits sticker and tags together.
type Service struct {
	store         storage.Store
	cache         *cache.Cache
	conversations *service.ConversationService
	logger        service.Logger
}

func NewService(store storage.Store, c *cache.Cache, conversations *service.ConversationService, logger service.Logger) *Service {
	return &Service{store: store, cache: c, conversations: conversations, logger: logger}
}

// StartUpload authors a fresh upload wizard template and points the
// chat/user dialog at its start state, replacing any prior dialog.
func (s *Service) StartUpload(chatID, userID int64) (models.Dialog, error) {
	conv, start, err := s.conversations.CreateConversation(uuid.New(), CmdUpload, StateStart, &chatID)
	if err != nil {
		return models.Dialog{}, err
	}

	upload, err := s.conversations.AddState(conv.ConversationID, StateUpload)
	if err != nil {
		return models.Dialog{}, err
	}
	name, err := s.conversations.AddState(conv.ConversationID, StateName)
	if err != nil {
		return models.Dialog{}, err
	}
	tags, err := s.conversations.AddState(conv.ConversationID, StateTags)
	if err != nil {
		return models.Dialog{}, err
	}
	done, err := s.conversations.AddState(conv.ConversationID, StateDone)
	if err != nil {
		return models.Dialog{}, err
	}

	edges := []struct {
		from, to uuid.UUID
		label    string
	}{
		{start.StateID, upload, TransitionUpload},
		{upload, name, TransitionName},
		{name, tags, TransitionTag},
		{tags, tags, TransitionMoreTag}, // self-loop: keep sending tags
		{tags, done, TransitionDone},
	}
	for _, e := range edges {
		if err := s.conversations.AddTransition(e.from, e.to, e.label); err != nil {
			return models.Dialog{}, err
		}
	}

	return s.conversations.StartDialog(chatID, userID, conv.ConversationID)
}

// SetSticker stages the uploaded file id and clears any stale tag list
// in one pipeline round trip, then advances the wizard.
func (s *Service) SetSticker(ctx context.Context, d models.Dialog, fileID string) (string, error) {
	idKey := cache.ChatUserKey(d.ChatID, d.UserID, KeyTypeStickerID)
	tagKey := cache.ChatUserKey(d.ChatID, d.UserID, KeyTypeTag)
	err := s.cache.TryPipe(ctx, func(pipe redis.Pipeliner) error {
		data, err := cache.Encode(fileID)
		if err != nil {
			return err
		}
		pipe.Set(ctx, idKey, data, 0)
		pipe.Del(ctx, tagKey)
		return nil
	})
	if err != nil {
		return "", err
	}
	return s.conversations.Transition(d, TransitionName)
}

// SetName stages the chosen name and advances the wizard.
func (s *Service) SetName(ctx context.Context, d models.Dialog, name string) (string, error) {
	key := cache.ChatUserKey(d.ChatID, d.UserID, KeyTypeStickerName)
	if err := s.cache.SetValue(ctx, key, name); err != nil {
		return "", err
	}
	return s.conversations.Transition(d, TransitionTag)
}

// AddTag stages one more tag on the cache-resident list and loops the
// wizard back to the tags state.
func (s *Service) AddTag(ctx context.Context, d models.Dialog, tag string) (string, error) {
	fileID, err := cache.GetValue[string](ctx, s.cache, cache.ChatUserKey(d.ChatID, d.UserID, KeyTypeStickerID))
	if err != nil {
		return "", err
	}
	if fileID == nil {
		return "", errors.New("no sticker staged for this dialog")
	}
	staged := models.StagedTag{
		StickerID: *fileID,
		OwnerID:   d.UserID,
		Tag:       tag,
	}
	tagKey := cache.ChatUserKey(d.ChatID, d.UserID, KeyTypeTag)
	if err := cache.AppendList(ctx, s.cache, tagKey, staged); err != nil {
		return "", err
	}
	return s.conversations.Transition(d, TransitionMoreTag)
}

// Finish drains the staged tags and commits sticker plus tags durably
// in a single transaction, then advances the wizard to its terminal
// state. If the staging list was lost (crash mid-wizard) the drain
// comes back empty and the commit fails loudly; the wizard is
// restartable, a silent partial commit is not acceptable.
func (s *Service) Finish(ctx context.Context, d models.Dialog) (text string, err error) {
	fileID, err := cache.GetValue[string](ctx, s.cache, cache.ChatUserKey(d.ChatID, d.UserID, KeyTypeStickerID))
	if err != nil {
		return "", err
	}
	if fileID == nil {
		return "", errors.New("no sticker staged for this dialog")
	}
	name, err := cache.GetValue[string](ctx, s.cache, cache.ChatUserKey(d.ChatID, d.UserID, KeyTypeStickerName))
	if err != nil {
		return "", err
	}

	tagKey := cache.ChatUserKey(d.ChatID, d.UserID, KeyTypeTag)
	staged, err := cache.DrainList[models.StagedTag](ctx, s.cache, tagKey)
	if err != nil {
		return "", err
	}

	txStore, err := s.store.Begin()
	if err != nil {
		return "", err
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

	sticker := models.Sticker{
		UniqueID:   *fileID,
		OwnerID:    d.UserID,
		Uuid:       uuid.New(),
		ChosenName: name,
	}
	if err = txStore.SaveSticker(sticker); err != nil {
		return "", err
	}
	tags := make([]models.Tag, 0, len(staged))
	for _, t := range staged {
		tags = append(tags, models.Tag{
			StickerID: t.StickerID,
			OwnerID:   t.OwnerID,
			Tag:       t.Tag,
		})
	}
	if err = txStore.SaveTags(tags); err != nil {
		return "", err
	}
	s.logger.Infof("Committed sticker %s with %d tags for user %d", sticker.UniqueID, len(tags), d.UserID)

	return s.conversations.Transition(d, TransitionDone)
}

// Search serves the inline tag lookup through the cache-aside path.
// Empty store results are never cached.
func (s *Service) Search(ctx context.Context, ownerID int64, tag string) ([]models.Sticker, error) {
	key := cache.UserKey(ownerID, KeyTypeTagSearch+":"+tag)
	res, err := cache.CachedQuery(ctx, s.cache, key, func(ctx context.Context, key string) (*[]models.Sticker, error) {
		stickers, err := s.store.SearchStickersByTag(ownerID, tag)
		if err != nil {
			return nil, err
		}
		if len(stickers) == 0 {
			return nil, nil
		}
		return &stickers, nil
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	return *res, nil
}

// List returns a user's stickers straight from the store.
func (s *Service) List(ownerID int64) ([]models.Sticker, error) {
	return s.store.ListStickers(ownerID)
}

// Delete removes a sticker (tags cascade) and drops any active dialog
// for the chat/user pair so a half-finished wizard cannot commit
// against it later.
func (s *Service) Delete(chatID, userID int64, id uuid.UUID) error {
	if err := s.conversations.DropDialog(chatID, userID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return s.store.DeleteSticker(id)
}
