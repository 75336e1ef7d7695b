package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache defines the interface for caching model responses
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ResponseKey generates a cache key for one validation call. The prompt is
// part of the hash so a changed passage or prompt template never replays a
// stale response.
func ResponseKey(docID string, passageID int, modelName, prompt string) string {
	material := fmt.Sprintf("%s|%d|%s|%s", docID, passageID, modelName, prompt)
	hash := sha256.Sum256([]byte(material))
	return "grounder:v1:" + hex.EncodeToString(hash[:])
}
