package cache

import (
	"net/http"
	"testing"
	"time"
)

func entry(body string) *Entry {
	return &Entry{
		StatusCode: http.StatusOK,
		Headers:    http.Header{"Content-Type": {"text/html"}},
		Body:       []byte(body),
		StoredAt:   time.Now(),
	}
}

func TestMemoryStoreGetSet(t *testing.T) {
	s := NewMemoryStore(10, time.Minute)

	if _, ok := s.Get("https://site1.lvh.me/"); ok {
		t.Fatal("empty store returned an entry")
	}

	s.Set("https://site1.lvh.me/", entry("one"))
	got, ok := s.Get("https://site1.lvh.me/")
	if !ok {
		t.Fatal("stored entry not found")
	}
	if string(got.Body) != "one" {
		t.Errorf("body = %q, want %q", got.Body, "one")
	}
}

func TestMemoryStoreKeysAreIndependent(t *testing.T) {
	s := NewMemoryStore(10, time.Minute)
	s.Set("https://site1.lvh.me/page", entry("site1"))
	s.Set("https://site2.lvh.me/page", entry("site2"))

	got1, _ := s.Get("https://site1.lvh.me/page")
	got2, _ := s.Get("https://site2.lvh.me/page")
	if string(got1.Body) != "site1" || string(got2.Body) != "site2" {
		t.Error("same path on two hosts must map to two distinct entries")
	}
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	s := NewMemoryStore(10, 20*time.Millisecond)
	s.Set("k", entry("v"))

	if _, ok := s.Get("k"); !ok {
		t.Fatal("entry missing before TTL")
	}

	time.Sleep(50 * time.Millisecond)
	if _, ok := s.Get("k"); ok {
		t.Error("entry still served after TTL")
	}
}

func TestMemoryStoreDeleteByPrefix(t *testing.T) {
	s := NewMemoryStore(10, time.Minute)
	s.Set("https://site1.lvh.me/a", entry("a"))
	s.Set("https://site1.lvh.me/b", entry("b"))
	s.Set("https://site2.lvh.me/a", entry("c"))

	s.DeleteByPrefix("https://site1.lvh.me/")

	if _, ok := s.Get("https://site1.lvh.me/a"); ok {
		t.Error("prefixed entry survived DeleteByPrefix")
	}
	if _, ok := s.Get("https://site2.lvh.me/a"); !ok {
		t.Error("unrelated entry was deleted")
	}
}

func TestMemoryStoreEviction(t *testing.T) {
	s := NewMemoryStore(2, time.Minute)
	s.Set("a", entry("a"))
	s.Set("b", entry("b"))
	s.Set("c", entry("c"))

	if got := s.Stats(); got.Size > 2 {
		t.Errorf("size = %d, want at most 2", got.Size)
	}
}
