package src

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/net/webdav"
)

// The WebDAV share under /dav/ exposes the cached provider documents as a
// small read only folder. Media players mount it and read the playlist and
// the guide like local files.

// webdavFS implements webdav.FileSystem over the document cache
type webdavFS struct{}

func (fs *webdavFS) Mkdir(ctx context.Context, name string, perm os.FileMode) error {
	return os.ErrPermission
}

func (fs *webdavFS) RemoveAll(ctx context.Context, name string) error {
	return os.ErrPermission
}

func (fs *webdavFS) Rename(ctx context.Context, oldName, newName string) error {
	return os.ErrPermission
}

func (fs *webdavFS) OpenFile(ctx context.Context, name string, flag int, perm os.FileMode) (webdav.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_APPEND|os.O_CREATE|os.O_TRUNC) != 0 {
		return nil, os.ErrPermission
	}

	name = strings.TrimPrefix(name, "/")
	name = strings.TrimSuffix(name, "/")

	if name == "" {
		// Root directory
		return &webdavDir{
			name:     "/",
			modTime:  time.Now(),
			children: getShareChildren(),
		}, nil
	}

	content, modTime, err := getShareDocument(name)
	if err != nil {
		return nil, err
	}

	return &webdavFile{name: name, content: content, modTime: modTime}, nil
}

func (fs *webdavFS) Stat(ctx context.Context, name string) (os.FileInfo, error) {
	name = strings.TrimPrefix(name, "/")
	name = strings.TrimSuffix(name, "/")

	if name == "" {
		return &webdavFileInfo{name: "/", size: 0, modTime: time.Now(), isDir: true}, nil
	}

	content, modTime, err := getShareDocument(name)
	if err != nil {
		return nil, err
	}

	return &webdavFileInfo{name: name, size: int64(len(content)), modTime: modTime, isDir: false}, nil
}

// Helper functions

// getShareDocument : Resolve a file name of the share to the cached
// document body and its timestamp
func getShareDocument(name string) (content []byte, modTime time.Time, err error) {
	modTime = time.Now()

	var source string

	switch name {
	case "playlist.m3u":
		source = Settings.PlaylistSource
	case "guide.xml":
		source = Settings.GuideSource
	case "guide.xml.gz":
		// Compressed copy, written during the guide ingest
		content, err = readByteFromFile(System.Folder.Data + name)
		if err != nil {
			return nil, modTime, os.ErrNotExist
		}
		return content, modTime, nil
	default:
		return nil, modTime, os.ErrNotExist
	}

	if len(source) == 0 {
		return nil, modTime, os.ErrNotExist
	}

	body, meta, ok := documentCache.Load(source)
	if !ok {
		return nil, modTime, os.ErrNotExist
	}

	if meta != nil && !meta.CachedAt.IsZero() {
		modTime = meta.CachedAt
	}

	return body, modTime, nil
}

// getShareChildren : Directory entries of the share root, only documents
// that are really available are listed
func getShareChildren() []os.FileInfo {
	var children []os.FileInfo

	for _, name := range []string{"playlist.m3u", "guide.xml", "guide.xml.gz"} {
		content, modTime, err := getShareDocument(name)
		if err != nil {
			continue
		}

		children = append(children, &webdavFileInfo{
			name:    name,
			size:    int64(len(content)),
			modTime: modTime,
			isDir:   false,
		})
	}
	return children
}

// webdavDir implements webdav.File for directories
type webdavDir struct {
	name     string
	modTime  time.Time
	children []os.FileInfo
	pos      int
}

func (d *webdavDir) Close() error { return nil }
func (d *webdavDir) Read(p []byte) (n int, err error) {
	return 0, os.ErrInvalid // Directories cannot be read
}
func (d *webdavDir) Seek(offset int64, whence int) (int64, error) {
	return 0, os.ErrInvalid
}
func (d *webdavDir) Readdir(count int) ([]os.FileInfo, error) {
	if d.pos >= len(d.children) {
		if count > 0 {
			return nil, io.EOF
		}
		return nil, nil
	}
	if count <= 0 {
		infos := d.children[d.pos:]
		d.pos = len(d.children)
		return infos, nil
	}
	end := d.pos + count
	if end > len(d.children) {
		end = len(d.children)
	}
	infos := d.children[d.pos:end]
	d.pos = end
	return infos, nil
}
func (d *webdavDir) Stat() (os.FileInfo, error) {
	return &webdavFileInfo{name: d.name, size: 0, modTime: d.modTime, isDir: true}, nil
}
func (d *webdavDir) Write(p []byte) (n int, err error) { return 0, os.ErrPermission }

// webdavFile implements webdav.File for files
type webdavFile struct {
	name    string
	content []byte
	modTime time.Time
	pos     int64
}

func (f *webdavFile) Close() error { return nil }
func (f *webdavFile) Read(p []byte) (n int, err error) {
	if f.pos >= int64(len(f.content)) {
		return 0, io.EOF
	}
	n = copy(p, f.content[f.pos:])
	f.pos += int64(n)
	return n, nil
}
func (f *webdavFile) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case 0:
		newPos = offset
	case 1:
		newPos = f.pos + offset
	case 2:
		newPos = int64(len(f.content)) + offset
	}
	if newPos < 0 {
		return 0, os.ErrInvalid
	}
	f.pos = newPos
	return newPos, nil
}
func (f *webdavFile) Readdir(count int) ([]os.FileInfo, error) {
	return nil, os.ErrInvalid
}
func (f *webdavFile) Stat() (os.FileInfo, error) {
	return &webdavFileInfo{name: f.name, size: int64(len(f.content)), modTime: f.modTime, isDir: false}, nil
}
func (f *webdavFile) Write(p []byte) (n int, err error) { return 0, os.ErrPermission }

// webdavFileInfo implements os.FileInfo
type webdavFileInfo struct {
	name    string
	size    int64
	modTime time.Time
	isDir   bool
}

func (fi *webdavFileInfo) Name() string { return fi.name }
func (fi *webdavFileInfo) Size() int64  { return fi.size }
func (fi *webdavFileInfo) Mode() os.FileMode {
	if fi.isDir {
		return os.ModeDir | 0555
	}
	return 0444
}
func (fi *webdavFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *webdavFileInfo) IsDir() bool        { return fi.isDir }
func (fi *webdavFileInfo) Sys() any           { return nil }
