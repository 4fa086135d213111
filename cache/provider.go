// Package cache contains the byte-level cache backends. A provider
// stores encoded response records ([]byte) under their hex
// fingerprint; it knows nothing about HTTP.
package cache

// Provider is the storage backend for cached responses.
//
// Implementations must be safe for use from many connection
// goroutines at once. Puts for the same key are not mutually
// exclusive: when two connections miss on the same key at the same
// time, both fetch and both write, and the last write wins. A
// concurrent reader must still only ever observe a fully-formed
// record, never a partial one.
type Provider interface {
	// Get returns the record for the given key, and whether it exists.
	Get(key string) ([]byte, bool, error)
	// Put stores the record under the given key, creating the backing
	// store location if needed.
	Put(key string, record []byte) error
	// Has checks if the specified key exists.
	Has(key string) bool
	// Clear removes every record. It is idempotent and a no-op when
	// the store is empty or absent.
	Clear() error
	// Keys calls the given callback for each stored key.
	Keys(cb func(string))
}
