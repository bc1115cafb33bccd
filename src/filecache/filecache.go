package filecache

import (
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/avfs/avfs"

	_ "modernc.org/sqlite"
)

const (
	DefaultMaxDocuments = 100
	MaxDocuments        = 100000 // Maximum allowed cache size
)

// Metadata describes one cached provider document.
type Metadata struct {
	URL         string    `json:"url"`
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"mod_time"`
	ETag        string    `json:"etag"`
	ContentType string    `json:"content_type"`
	CachedAt    time.Time `json:"cached_at"`
}

// Cache keeps the last good copy of every fetched provider document.
// Document bodies live on the supplied file system, metadata in a small
// sqlite database next to them.
type Cache struct {
	dir   string
	vfs   avfs.VFS
	db    *sql.DB
	mutex sync.RWMutex
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	hash TEXT PRIMARY KEY,
	url TEXT,
	size INTEGER,
	mod_time INTEGER,
	etag TEXT,
	content_type TEXT,
	cached_at INTEGER,
	access_time INTEGER
);
`

// New opens the document cache below baseDir. Bodies are stored through
// fileSystem, the metadata database always lives on disk.
func New(baseDir string, fileSystem avfs.VFS) (*Cache, error) {

	// Use SNAP_COMMON if available, otherwise use baseDir
	dir := os.Getenv("SNAP_COMMON")
	if dir != "" {
		dir = filepath.Join(dir, "tvgate_cache")
	} else {
		dir = baseDir
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	if err := fileSystem.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "cache.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// WAL mode for concurrent readers
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Cache{
		dir: dir,
		vfs: fileSystem,
		db:  db,
	}, nil
}

// Close releases the metadata database.
func (c *Cache) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.db.Close()
}

// HashURL maps a document URL to its file name inside the cache.
func HashURL(url string) string {
	hash := md5.Sum([]byte(url))
	return hex.EncodeToString(hash[:])
}

// getMaxDocuments returns the configured maximum document count, defaulting
// to DefaultMaxDocuments.
func getMaxDocuments() int {
	if val := os.Getenv("TVGATE_CACHE_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			if size > MaxDocuments {
				return MaxDocuments
			}
			return size
		}
	}
	return DefaultMaxDocuments
}

// Store writes a document body and its metadata. The body is written next
// to the old one and renamed into place, a failed store never damages the
// last good copy.
func (c *Cache) Store(url string, body []byte, meta Metadata) error {
	hash := HashURL(url)
	path := filepath.Join(c.dir, hash)
	tmpPath := path + ".tmp"

	if err := c.vfs.WriteFile(tmpPath, body, 0644); err != nil {
		return err
	}

	if err := c.vfs.Rename(tmpPath, path); err != nil {
		c.vfs.Remove(tmpPath)
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	cachedAt := meta.CachedAt
	if cachedAt.IsZero() {
		cachedAt = time.Now()
	}

	var modTimeVal interface{}
	if !meta.ModTime.IsZero() {
		modTimeVal = meta.ModTime.UnixNano()
	}

	_, err := c.db.Exec(`INSERT OR REPLACE INTO documents (hash, url, size, mod_time, etag, content_type, cached_at, access_time) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		hash, url, int64(len(body)), modTimeVal, meta.ETag, meta.ContentType, cachedAt.UnixNano(), time.Now().UnixNano())

	return err
}

// Load returns the cached body and metadata of a document. A metadata row
// whose body has gone missing is removed and reported as a miss.
func (c *Cache) Load(url string) ([]byte, *Metadata, bool) {
	hash := HashURL(url)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	meta, ok := c.rowByHash(hash)
	if !ok {
		return nil, nil, false
	}

	body, err := c.vfs.ReadFile(filepath.Join(c.dir, hash))
	if err != nil {
		c.db.Exec("DELETE FROM documents WHERE hash = ?", hash)
		return nil, nil, false
	}

	c.db.Exec("UPDATE documents SET access_time = ? WHERE hash = ?", time.Now().UnixNano(), hash)

	return body, meta, true
}

// Lookup returns the metadata of a document without touching its body.
func (c *Cache) Lookup(url string) (*Metadata, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.rowByHash(HashURL(url))
}

func (c *Cache) rowByHash(hash string) (*Metadata, bool) {
	var meta Metadata
	var modTimeNano sql.NullInt64
	var cachedAtNano int64

	err := c.db.QueryRow(`SELECT url, size, mod_time, etag, content_type, cached_at FROM documents WHERE hash = ?`, hash).Scan(
		&meta.URL, &meta.Size, &modTimeNano, &meta.ETag, &meta.ContentType, &cachedAtNano,
	)
	if err != nil {
		return nil, false
	}

	if modTimeNano.Valid {
		meta.ModTime = time.Unix(0, modTimeNano.Int64)
	}

	meta.CachedAt = time.Unix(0, cachedAtNano)

	return &meta, true
}

// Documents lists the metadata of every cached document, ordered by URL.
func (c *Cache) Documents() []Metadata {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	rows, err := c.db.Query(`SELECT url, size, mod_time, etag, content_type, cached_at FROM documents ORDER BY url`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var documents []Metadata

	for rows.Next() {
		var meta Metadata
		var modTimeNano sql.NullInt64
		var cachedAtNano int64

		if err := rows.Scan(&meta.URL, &meta.Size, &modTimeNano, &meta.ETag, &meta.ContentType, &cachedAtNano); err != nil {
			continue
		}

		if modTimeNano.Valid {
			meta.ModTime = time.Unix(0, modTimeNano.Int64)
		}

		meta.CachedAt = time.Unix(0, cachedAtNano)
		documents = append(documents, meta)
	}

	return documents
}

// Remove deletes a document and its metadata.
func (c *Cache) Remove(url string) error {
	hash := HashURL(url)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.vfs.Remove(filepath.Join(c.dir, hash))

	_, err := c.db.Exec("DELETE FROM documents WHERE hash = ?", hash)
	return err
}

// CleanNow trims the cache down to the configured document count, oldest
// access first.
func (c *Cache) CleanNow() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	maxItems := getMaxDocuments()

	var count int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		return
	}

	if count <= maxItems {
		return
	}

	rows, err := c.db.Query("SELECT hash FROM documents ORDER BY access_time ASC LIMIT ?", count-maxItems)
	if err != nil {
		return
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err == nil {
			hashes = append(hashes, h)
		}
	}
	rows.Close()

	for _, h := range hashes {
		c.vfs.Remove(filepath.Join(c.dir, h))
		c.db.Exec("DELETE FROM documents WHERE hash = ?", h)
	}
}
