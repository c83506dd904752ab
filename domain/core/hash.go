package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// HashStrings creates a hash over the given parts in order, with a separator
// so that part boundaries cannot collide.
func HashStrings(parts ...string) Hash {
	var data strings.Builder
	for _, part := range parts {
		data.WriteString(part)
		data.WriteByte('|')
	}
	return NewHash([]byte(data.String()))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}
