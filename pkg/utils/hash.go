package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// FileFingerprint identifies the content state of a file without reading it.
// A file rewritten with identical size within the same mtime tick keeps its
// fingerprint.
func FileFingerprint(path string, size int64, mtime time.Time) string {
	return HashStrings(path, fmt.Sprint(size), fmt.Sprint(mtime.UnixMilli()))
}

// HashStrings returns the hex sha256 of parts joined by '|'
func HashStrings(parts ...string) string {
	hasher := sha256.New()
	for i, p := range parts {
		if i > 0 {
			hasher.Write([]byte{'|'})
		}
		hasher.Write([]byte(p))
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
