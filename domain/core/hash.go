package core

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, for log lines and file names.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// Domain-specific hash types
type (
	ConfigHash Hash
	InputHash  Hash
)

func NewConfigHash(data []byte) ConfigHash { return ConfigHash(NewHash(data)) }
func NewInputHash(data []byte) InputHash   { return InputHash(NewHash(data)) }

func (h ConfigHash) String() string { return Hash(h).String() }
func (h InputHash) String() string  { return Hash(h).String() }

// ComputeInputSetHash combines per-file hashes into one order-independent hash.
func ComputeInputSetHash(inputs map[string]InputHash) InputHash {
	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	for _, key := range keys {
		data.WriteString(key)
		data.WriteString("=")
		data.WriteString(inputs[key].String())
		data.WriteString(";")
	}
	return NewInputHash([]byte(data.String()))
}
