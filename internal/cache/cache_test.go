package cache

import (
	"strings"
	"testing"
	"time"
)

func TestKey_StableAndNamespaced(t *testing.T) {
	k := Key("https://www.treasury.gov/ofac/downloads/sdn.csv")
	if !strings.HasPrefix(k, "dossier:v1:") {
		t.Errorf("Expected namespaced key, got %s", k)
	}
	if k != Key("https://www.treasury.gov/ofac/downloads/sdn.csv") {
		t.Error("Expected the same URL to produce the same key")
	}
	if k == Key("https://www.treasury.gov/other.csv") {
		t.Error("Expected different URLs to produce different keys")
	}
}

func TestDiskCache_RoundTrip(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	key := Key("https://example.org/page")
	if err := c.Set(key, []byte("body"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, found := c.Get(key)
	if !found || string(got) != "body" {
		t.Errorf("Expected cached body, got %q found=%v", got, found)
	}

	if _, found := c.Get(Key("https://example.org/other")); found {
		t.Error("Expected a miss for an unseen URL")
	}
}

func TestDiskCache_ExpiredEntryIsAMiss(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	key := Key("https://example.org/page")
	if err := c.Set(key, []byte("stale"), -time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, found := c.Get(key); found {
		t.Error("Expected an expired entry to miss")
	}
	// The expired file is gone; a re-read still misses.
	if _, found := c.Get(key); found {
		t.Error("Expected the expired entry to stay gone")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Hour, dir, time.Hour)

	key := Key("https://example.org/page")
	// Seed only the disk layer, as a previous process would have.
	if err := NewDiskCache(dir, time.Hour).Set(key, []byte("body"), 0); err != nil {
		t.Fatalf("seed disk: %v", err)
	}

	if got, found := c.Get(key); !found || string(got) != "body" {
		t.Fatalf("Expected a disk hit through the layered cache, got %q found=%v", got, found)
	}
	if got, found := c.memory.Get(key); !found || string(got) != "body" {
		t.Errorf("Expected promotion into memory, got %q found=%v", got, found)
	}
}
