package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Bytes hashes an in-memory buffer.
func SHA256Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
