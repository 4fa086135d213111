package core

import (
	"github.com/daryl-03/caching-proxy/cache"
	cachekey "github.com/daryl-03/caching-proxy/pkg/cache-key"
	codec "github.com/daryl-03/caching-proxy/pkg/entry-codec"
)

// Store maps request fingerprints to persisted response records. It
// owns the record encoding; the underlying provider only ever sees
// opaque bytes.
type Store struct {
	provider cache.Provider
}

func NewStore(provider cache.Provider) Store {
	return Store{provider: provider}
}

// Key returns the fingerprint for a (method, host, target) triple.
func (s Store) Key(method, host, target string) string {
	return cachekey.Compute(method, host, target)
}

// Get returns the entry stored under key, if any.
func (s Store) Get(key string) (*codec.Entry, bool, error) {
	record, ok, err := s.provider.Get(key)
	if err != nil {
		return nil, false, &StoreError{Key: key, Err: err}
	}
	if !ok {
		return nil, false, nil
	}
	entry, err := codec.Decode(record)
	if err != nil {
		return nil, false, &StoreError{Key: key, Err: err}
	}
	return entry, true, nil
}

// Put persists the entry under key. Two connections missing on the
// same key both end up here; the last write wins and a concurrent
// reader sees one complete entry or none.
func (s Store) Put(key string, entry *codec.Entry) error {
	if err := s.provider.Put(key, codec.Encode(entry)); err != nil {
		return &StoreError{Key: key, Err: err}
	}
	return nil
}

// Clear removes every persisted entry.
func (s Store) Clear() error {
	return s.provider.Clear()
}
