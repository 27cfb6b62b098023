// Package cache stores fetched bodies so repeated enrichment and
// sanctions runs do not hammer the same hosts.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the storage contract shared by the memory, disk, and
// layered implementations.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives the cache key for a URL. The version segment guards
// against stale entries when the stored format changes.
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "dossier:v1:" + hex.EncodeToString(hash[:])
}
