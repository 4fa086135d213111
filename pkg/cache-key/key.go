// Package cachekey derives the fingerprint that identifies a cached
// response.
package cachekey

import (
	"crypto/sha256"
	"encoding/hex"
)

// Compute returns the hex-encoded SHA-256 fingerprint of a
// (method, host, target) triple. The digest is fed the method bytes
// followed by the host and target bytes, so identical triples always
// map to the same key. The hash is used for key derivation only, not
// for security.
func Compute(method, host, target string) string {
	digest := sha256.New()
	digest.Write([]byte(method))
	digest.Write([]byte(host + target))
	return hex.EncodeToString(digest.Sum(nil))
}
