package core

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/daryl-03/caching-proxy/cache"
	codec "github.com/daryl-03/caching-proxy/pkg/entry-codec"
)

func testEntry(body string) *codec.Entry {
	entry := &codec.Entry{
		StatusLine: "HTTP/1.1 200 OK",
		Body:       []byte(body),
	}
	entry.Header.Set("Content-Type", "application/json")
	entry.Header.Set("Content-Length", "8")
	return entry
}

func diskStore(t *testing.T) Store {
	provider, err := cache.NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewStore(provider)
}

func TestStoreRoundTrip(t *testing.T) {
	store := diskStore(t)
	key := store.Key("GET", "dummyjson.com", "/products/1")
	entry := testEntry(`{"id":1}`)

	if err := store.Put(key, entry); err != nil {
		t.Fatal(err)
	}
	got, ok, err := store.Get(key)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if got.StatusLine != entry.StatusLine {
		t.Fatalf("Status line is %q", got.StatusLine)
	}
	if !bytes.Equal(got.Body, entry.Body) {
		t.Fatalf("Body is %q", got.Body)
	}
	if ct, _ := got.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type is %q", ct)
	}
}

func TestStoreGetAbsent(t *testing.T) {
	store := diskStore(t)
	if _, ok, err := store.Get(store.Key("GET", "example.com", "/")); ok || err != nil {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
}

func TestStoreCorruptRecord(t *testing.T) {
	provider, err := cache.NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	store := NewStore(provider)
	key := store.Key("GET", "example.com", "/")
	if err := provider.Put(key, []byte("not a record")); err != nil {
		t.Fatal(err)
	}

	_, _, err = store.Get(key)
	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("Error is %v", err)
	}
	if storeErr.Key != key {
		t.Fatalf("Error key is %s", storeErr.Key)
	}
}

func TestStoreClearRemovesEntries(t *testing.T) {
	store := diskStore(t)
	key := store.Key("GET", "example.com", "/")
	if err := store.Put(key, testEntry("body one")); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.Get(key); ok {
		t.Fatal("Entry survived clear")
	}
}

// Concurrent misses on one key race their writes. Whatever the
// interleaving, a read after both writers finish must decode to one of
// the written entries, never garbage.
func TestStoreConcurrentWritersLeaveValidEntry(t *testing.T) {
	store := diskStore(t)
	key := store.Key("GET", "example.com", "/")
	bodies := []string{"response of writer A", "response of writer B"}

	var wg sync.WaitGroup
	for _, body := range bodies {
		body := body
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				if err := store.Put(key, testEntry(body)); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	entry, ok, err := store.Get(key)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if got := string(entry.Body); got != bodies[0] && got != bodies[1] {
		t.Fatalf("Body is %q", got)
	}
}
