package cache

import (
	"fmt"

	"github.com/google/uuid"
)

// ScopedKey namespaces a key by chat and user so that independent
// wizard runs never collide.
func ScopedKey(prefix string, chatID, userID int64, key string) string {
	return fmt.Sprintf("%s:%d:%d:%s", prefix, chatID, userID, key)
}

// ChatUserKey is ScopedKey under the conventional "cu" prefix.
func ChatUserKey(chatID, userID int64, key string) string {
	return ScopedKey("cu", chatID, userID, key)
}

// UserKey namespaces a key by user alone.
func UserKey(userID int64, key string) string {
	return fmt.Sprintf("u:%d:%s", userID, key)
}

// RandomKey returns a fresh single-use key under prefix.
func RandomKey(prefix string) string {
	return fmt.Sprintf("r:%s:%s", prefix, uuid.New().String())
}
