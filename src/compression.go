package src

import (
	"archive/zip"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// Create a ZIP Archive File
func zipFiles(sourceFiles []string, target string) (err error) {
	zipfile, err := os.Create(target)
	if err != nil {
		return
	}
	defer zipfile.Close()

	archive := zip.NewWriter(zipfile)
	defer archive.Close()

	for _, source := range sourceFiles {
		info, err := os.Stat(source)
		if err != nil {
			return err
		}

		var baseDir string
		if info.IsDir() {
			baseDir = filepath.Base(source)
		}

		err = filepath.Walk(source, func(path string, info os.FileInfo, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}

			header, err := zip.FileInfoHeader(info)
			if err != nil {
				return err
			}

			// Archive paths are relative to the config folder when the source lives there
			if name, relErr := filepath.Rel(System.Folder.Config, path); relErr == nil && !strings.HasPrefix(name, "..") {
				header.Name = filepath.ToSlash(name)
			} else if len(baseDir) > 0 {
				rel, relErr := filepath.Rel(source, path)
				if relErr != nil {
					return relErr
				}
				header.Name = filepath.ToSlash(filepath.Join(baseDir, rel))
			} else {
				header.Name = filepath.Base(path)
			}

			if info.IsDir() {
				header.Name += "/"
			} else {
				header.Method = zip.Deflate
			}

			writer, err := archive.CreateHeader(header)
			if err != nil {
				return err
			}

			if info.IsDir() {
				return nil
			}

			file, err := os.Open(path)
			if err != nil {
				return err
			}
			defer file.Close()

			_, err = io.Copy(writer, file)
			return err
		})
		if err != nil {
			return err
		}
	}
	return
}

// Extract a ZIP Archive File
func extractZIP(archive, target string) (err error) {
	reader, err := zip.OpenReader(archive)
	if err != nil {
		return
	}
	defer reader.Close()

	if err = os.MkdirAll(target, 0755); err != nil {
		return
	}

	for _, file := range reader.File {
		var path = filepath.Join(target, file.Name)

		// Reject archive entries that escape the target folder
		if !strings.HasPrefix(path, filepath.Clean(target)+string(os.PathSeparator)) {
			return fmt.Errorf("%s: illegal file path", file.Name)
		}

		if file.FileInfo().IsDir() {
			if err = os.MkdirAll(path, file.Mode()); err != nil {
				return
			}
			continue
		}

		if err = os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return
		}

		fileReader, openErr := file.Open()
		if openErr != nil {
			return openErr
		}

		targetFile, createErr := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.Mode())
		if createErr != nil {
			fileReader.Close()
			return createErr
		}

		_, err = io.Copy(targetFile, fileReader)
		fileReader.Close()
		targetFile.Close()
		if err != nil {
			return
		}
	}
	return
}

// Compress Data with GZIP and save it to a File
func compressGZIP(data *[]byte, file string) (err error) {
	f, err := os.Create(file)
	if err != nil {
		return
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if _, err = gz.Write(*data); err != nil {
		gz.Close()
		return
	}

	err = gz.Close()
	return
}

// Extract GZIP compressed Data, plain Data is passed through unchanged
func extractGZIP(data []byte, filename string) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		// Not a GZIP File
		return data, nil
	}
	defer gz.Close()

	var debug = fmt.Sprintf("Extract GZIP:%s", filename)
	showDebug(debug, 1)

	uncompressed, err := io.ReadAll(gz)
	if err != nil {
		ShowError(err, 1005)
		return data, nil
	}
	return uncompressed, nil
}

// decompressDocument : Detects the compression of a downloaded document by its magic
// bytes and returns the decompressed content. Unknown formats are passed through.
func decompressDocument(data []byte, filename string) (body []byte, err error) {
	body = data

	switch {
	case len(data) > 2 && data[0] == 0x1f && data[1] == 0x8b:
		body, err = extractGZIP(data, filename)

	case len(data) > 3 && bytes.HasPrefix(data, []byte("BZh")):
		var debug = fmt.Sprintf("Extract BZIP2:%s", filename)
		showDebug(debug, 1)

		body, err = io.ReadAll(bzip2.NewReader(bytes.NewReader(data)))
		if err != nil {
			return data, err
		}

	case len(data) > 6 && bytes.HasPrefix(data, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}):
		var debug = fmt.Sprintf("Extract XZ:%s", filename)
		showDebug(debug, 1)

		reader, xzErr := xz.NewReader(bytes.NewReader(data))
		if xzErr != nil {
			return data, xzErr
		}

		body, err = io.ReadAll(reader)
		if err != nil {
			return data, err
		}

	case len(data) > 4 && bytes.HasPrefix(data, []byte("PK\x03\x04")):
		var debug = fmt.Sprintf("Extract ZIP:%s", filename)
		showDebug(debug, 1)

		reader, zipErr := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if zipErr != nil {
			return data, zipErr
		}

		// The first file in the archive is used
		for _, file := range reader.File {
			if file.FileInfo().IsDir() {
				continue
			}

			f, openErr := file.Open()
			if openErr != nil {
				return data, openErr
			}

			body, err = io.ReadAll(f)
			f.Close()
			return
		}
		return data, fmt.Errorf("%s: %s", filename, getErrMsg(1005))
	}
	return
}
