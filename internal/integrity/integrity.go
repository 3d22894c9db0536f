package integrity

import (
	"crypto/sha256"
	"encoding/hex"
)

// Checksum returns the sha256 hex digest of the logical payload. It is
// computed over the uncompressed bytes so that a failed decompression is
// also caught at verification time.
func Checksum(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Verify compares payload against a previously recorded checksum. An empty
// expected checksum means no verification was performed at write time
// (memory items, legacy manifests) and always passes.
func Verify(payload []byte, expected string) bool {
	if expected == "" {
		return true
	}
	return Checksum(payload) == expected
}
