package filecache

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/avfs/avfs/vfs/memfs"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	t.Setenv("SNAP_COMMON", "")
	t.Setenv("TVGATE_CACHE_SIZE", "")

	cache, err := New(t.TempDir(), memfs.New())
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() { cache.Close() })

	return cache
}

func TestStoreAndLoad(t *testing.T) {
	cache := newTestCache(t)

	url := "http://example.com/playlist.m3u"
	body := []byte("#EXTM3U\n#EXTINF:0,Test\nhttp://example.com/1")

	err := cache.Store(url, body, Metadata{
		URL:         url,
		ContentType: "audio/x-mpegurl",
		ETag:        "v1",
	})
	if err != nil {
		t.Fatal(err)
	}

	got, meta, ok := cache.Load(url)
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if string(got) != string(body) {
		t.Errorf("body mismatch: got %q", got)
	}
	if meta.ContentType != "audio/x-mpegurl" || meta.ETag != "v1" {
		t.Errorf("metadata mismatch: %+v", meta)
	}
	if meta.Size != int64(len(body)) {
		t.Errorf("expected size %d, got %d", len(body), meta.Size)
	}
	if meta.CachedAt.IsZero() {
		t.Error("expected CachedAt to be filled")
	}

	if _, ok := cache.Lookup(url); !ok {
		t.Error("expected metadata lookup to hit")
	}

	if _, _, ok := cache.Load("http://example.com/other"); ok {
		t.Error("expected a miss for an unknown URL")
	}
}

func TestStoreReplacesLastGoodCopy(t *testing.T) {
	cache := newTestCache(t)

	url := "http://example.com/guide.xml"

	if err := cache.Store(url, []byte("first"), Metadata{URL: url}); err != nil {
		t.Fatal(err)
	}
	if err := cache.Store(url, []byte("second"), Metadata{URL: url}); err != nil {
		t.Fatal(err)
	}

	body, _, ok := cache.Load(url)
	if !ok || string(body) != "second" {
		t.Errorf("expected the replaced body, got %q (hit: %v)", body, ok)
	}

	if n := len(cache.Documents()); n != 1 {
		t.Errorf("expected a single document, got %d", n)
	}
}

func TestLoadSelfHealsMissingBody(t *testing.T) {
	cache := newTestCache(t)

	url := "http://example.com/guide.xml"
	if err := cache.Store(url, []byte("body"), Metadata{URL: url}); err != nil {
		t.Fatal(err)
	}

	// Remove the body behind the cache's back
	if err := cache.vfs.Remove(filepath.Join(cache.dir, HashURL(url))); err != nil {
		t.Fatal(err)
	}

	if _, _, ok := cache.Load(url); ok {
		t.Error("expected a miss after the body vanished")
	}

	if _, ok := cache.Lookup(url); ok {
		t.Error("expected the stale metadata row to be dropped")
	}
}

func TestDocumentsOrderedByURL(t *testing.T) {
	cache := newTestCache(t)

	for _, url := range []string{"http://b.example.com/x", "http://a.example.com/x"} {
		if err := cache.Store(url, []byte("x"), Metadata{URL: url}); err != nil {
			t.Fatal(err)
		}
	}

	documents := cache.Documents()
	if len(documents) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(documents))
	}

	if documents[0].URL != "http://a.example.com/x" {
		t.Errorf("expected URL order, got %q first", documents[0].URL)
	}
}

func TestCleanNowKeepsNewestAccess(t *testing.T) {
	cache := newTestCache(t)
	t.Setenv("TVGATE_CACHE_SIZE", "3")

	for i := 0; i < 5; i++ {
		url := fmt.Sprintf("http://example.com/%d", i)
		if err := cache.Store(url, []byte("x"), Metadata{URL: url}); err != nil {
			t.Fatal(err)
		}
		time.Sleep(time.Millisecond)
	}

	cache.CleanNow()

	if n := len(cache.Documents()); n != 3 {
		t.Fatalf("expected 3 documents after cleanup, got %d", n)
	}

	// The oldest two stores are gone
	for i := 0; i < 2; i++ {
		if _, ok := cache.Lookup(fmt.Sprintf("http://example.com/%d", i)); ok {
			t.Errorf("expected document %d to be evicted", i)
		}
	}
}

func TestSnapCommonPlacement(t *testing.T) {
	snapDir := t.TempDir()
	t.Setenv("SNAP_COMMON", snapDir)

	cache, err := New(t.TempDir(), memfs.New())
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	if cache.dir != filepath.Join(snapDir, "tvgate_cache") {
		t.Errorf("expected the snap data directory, got %q", cache.dir)
	}

	if _, err := os.Stat(filepath.Join(cache.dir, "cache.db")); err != nil {
		t.Errorf("expected the metadata database below SNAP_COMMON: %v", err)
	}
}
