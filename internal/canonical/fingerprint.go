package canonical

import (
	"crypto/sha256"
	"encoding/hex"
)

// DigestLen is the length of a hex fingerprint or build id.
const DigestLen = 64

// Fingerprint returns the sha256 hex digest of canonical catalog bytes.
func Fingerprint(canonicalBytes []byte) string {
	h := sha256.Sum256(canonicalBytes)
	return hex.EncodeToString(h[:])
}

// BuildID derives the cache key for an embedding bundle. It changes exactly
// when the model identity, chunking scheme, or catalog fingerprint changes.
func BuildID(modelID, chunkingID, fingerprint string) string {
	h := sha256.Sum256([]byte(modelID + "\n" + chunkingID + "\n" + fingerprint))
	return hex.EncodeToString(h[:])
}

// IsDigest reports whether s is a well-formed 64-character lowercase hex
// digest, the shape every build id and fingerprint must have.
func IsDigest(s string) bool {
	if len(s) != DigestLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
