package object

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// HashBytes computes the raw SHA-256 hash of data and returns it as a
// lowercase hex-encoded Hash.
func HashBytes(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// HashObject computes the SHA-256 of the envelope "type len\0content",
// mirroring Git's object hashing but with SHA-256.
func HashObject(objType ObjectType, data []byte) Hash {
	header := fmt.Sprintf("%s %d\x00", objType, len(data))
	h := sha256.New()
	h.Write([]byte(header))
	h.Write(data)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

var emptyTreeOnce struct {
	sync.Once
	h Hash
}

// EmptyTreeID returns the hash of the canonical empty tree. Merge drivers
// treat this id as a skip sentinel on their command lines.
func EmptyTreeID() Hash {
	emptyTreeOnce.Do(func() {
		emptyTreeOnce.h = HashObject(TypeTree, MarshalTree(&TreeObj{}))
	})
	return emptyTreeOnce.h
}

// IsHex reports whether s looks like a full hex object id.
func IsHex(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}
