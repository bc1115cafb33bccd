package imgcache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// Cache : Local copy of remote channel logos
type Cache struct {
	path     string
	cacheURL string
	caching  bool
	client   *http.Client
	images   map[string]string
	Queue    []string
	Cache    []string
	Image    imageFunc
	sync.RWMutex
}

type imageFunc struct {
	GetURL  func(string) string
	Caching func()
	Remove  func()
}

// New : New image cache below path, cached files are served under cacheURL
func New(path, cacheURL string, caching bool, client *http.Client) (c *Cache, err error) {
	c = &Cache{}

	c.images = make(map[string]string)
	c.path = path
	c.cacheURL = cacheURL
	c.caching = caching
	c.client = client
	if c.client == nil {
		c.client = http.DefaultClient
	}
	c.Queue = []string{}
	c.Cache = []string{}

	c.Image.GetURL = func(src string) (cacheURL string) {
		c.Lock()
		defer c.Unlock()

		src = strings.Trim(src, "\r\n")

		if !c.caching {
			return src
		}

		u, err := url.Parse(src)
		if err != nil || len(filepath.Ext(u.Path)) == 0 {
			return src
		}

		var filename = fmt.Sprintf("%s%s", strToMD5(src), filepath.Ext(u.Path))
		if cacheURL, ok := c.images[filename]; ok {
			return cacheURL
		}

		if lo.IndexOf(c.Cache, filename) == -1 {
			if lo.IndexOf(c.Queue, src) == -1 {
				c.Queue = append(c.Queue, src)
			}
		} else {
			c.images[filename] = c.cacheURL + filename
			src = c.cacheURL + filename
		}

		return src
	}

	c.Image.Caching = func() {
		c.Lock()
		defer c.Unlock()

		var done []string

		for _, src := range c.Queue {
			filename, err := c.download(src)
			if err != nil {
				continue
			}

			c.images[filename] = c.cacheURL + filename
			c.Cache = append(c.Cache, filename)
			done = append(done, src)
		}

		for _, q := range done {
			c.Queue = lo.Without(c.Queue, q)
		}
	}

	c.Image.Remove = func() {
		c.Lock()
		defer c.Unlock()

		dirEntries, err := os.ReadDir(c.path)
		if err != nil {
			return
		}

		for _, entry := range dirEntries {
			switch c.caching {
			case true:
				if _, ok := c.images[entry.Name()]; !ok {
					os.RemoveAll(filepath.Join(c.path, entry.Name()))
				}
			case false:
				os.RemoveAll(filepath.Join(c.path, entry.Name()))
			}
		}
	}

	dirEntries, err := os.ReadDir(c.path)
	if err != nil {
		return
	}

	for _, entry := range dirEntries {
		c.Cache = append(c.Cache, entry.Name())
	}
	return
}

// download : Fetch one image and store it under its hashed file name
func (c *Cache) download(src string) (filename string, err error) {
	u, err := url.Parse(src)
	if err != nil {
		return
	}

	resp, err := c.client.Get(src)
	if err != nil {
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("image download: %s", resp.Status)
		return
	}

	filename = fmt.Sprintf("%s%s", strToMD5(src), filepath.Ext(u.Path))

	file, err := os.Create(filepath.Join(c.path, filename))
	if err != nil {
		return
	}
	defer file.Close()

	_, err = io.Copy(file, resp.Body)
	return
}

func strToMD5(str string) string {
	md5Hash := md5.Sum([]byte(str))
	return hex.EncodeToString(md5Hash[:])
}
