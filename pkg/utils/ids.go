package utils

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// MD5Hash generates MD5 hash of input string
func MD5Hash(input string) string {
	hash := md5.Sum([]byte(input))
	return hex.EncodeToString(hash[:])
}

// NewRequestID returns a random request identifier.
func NewRequestID() string {
	return uuid.NewString()
}

// ChunkID derives a stable point ID for a chunk so re-seeding overwrites
// instead of duplicating. Qdrant only accepts UUIDs or integers as IDs.
func ChunkID(parts ...string) string {
	name := strings.Join(parts, "|")
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
