package models

import "github.com/google/uuid"

// Sticker is an uploaded sticker owned by a user. UniqueID is the
// transport-level file id; Uuid is our own stable handle, used for
// deletion commands.
type Sticker struct {
	UniqueID   string    `json:"unique_id" db:"unique_id"`
	OwnerID    int64     `json:"owner_id" db:"owner_id"`
	Uuid       uuid.UUID `json:"uuid" db:"uuid"`
	ChosenName *string   `json:"chosen_name,omitempty" db:"chosen_name"`
}

// Tag is a search keyword attached to a sticker.
type Tag struct {
	ID        int64  `json:"id" db:"id"`
	StickerID string `json:"sticker_id" db:"sticker_id"`
	OwnerID   int64  `json:"owner_id" db:"owner_id"`
	Tag       string `json:"tag" db:"tag"`
}

// StagedTag is the cache-resident shape of a tag while the upload
// wizard is still collecting input. It omits the database id, which is
// assigned only at the final durable commit.
type StagedTag struct {
	StickerID string `json:"sticker_id"`
	OwnerID   int64  `json:"owner_id"`
	Tag       string `json:"tag"`
}
