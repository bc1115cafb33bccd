package src

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"

	"tvgate/src/filecache"
)

// providerSource : Resolves the configured URL, cache filename and status slot
// for a provider type ("playlist" or "guide")
func providerSource(providerType string) (source, filename string, status *ProviderStatus, err error) {
	switch providerType {
	case "playlist":
		source = Settings.PlaylistSource
		filename = "playlist.m3u"
		status = &Settings.Provider.Playlist
		if len(source) == 0 {
			err = errors.New(getErrMsg(2001))
		}
	case "guide":
		source = Settings.GuideSource
		filename = "guide.xml"
		status = &Settings.Provider.Guide
		if len(source) == 0 {
			err = errors.New(getErrMsg(2002))
		}
	default:
		err = fmt.Errorf("unknown provider type: %s", providerType)
	}
	return
}

// getProviderData : Downloads the document for <providerType> from its
// configured source and stores it in the document cache. The download counters
// and the availability value are updated on every attempt.
func getProviderData(ctx context.Context, providerType string) (err error) {
	source, filename, status, err := providerSource(providerType)
	if err != nil {
		return
	}

	showInfo(fmt.Sprintf("Download:%s", filename))

	body, meta, err := downloadFileFromServer(ctx, source)

	status.CounterDownload++
	if err == nil {
		body, err = decompressDocument(body, filename)
	}

	if err != nil {
		status.CounterError++
		updateAvailability(status)
		if saveErr := saveSettings(Settings); saveErr != nil {
			ShowError(saveErr, 1006)
		}
		return
	}

	meta.CachedAt = time.Now()
	if err = documentCache.Store(source, body, meta); err != nil {
		return
	}

	status.LastUpdate = time.Now().Format("2006-01-02 15:04:05")
	updateAvailability(status)

	if err = saveSettings(Settings); err != nil {
		return
	}

	showInfo(fmt.Sprintf("Download Size:%d Bytes", len(body)))
	showInfo(fmt.Sprintf("Provider Availability:%d %%", status.Availability))
	return
}

// loadProviderData : Returns the current document for <providerType>. A fresh
// download is attempted first, on failure the last good copy from the document
// cache keeps the system running.
func loadProviderData(ctx context.Context, providerType string) (body []byte, err error) {
	source, _, _, err := providerSource(providerType)
	if err != nil {
		return
	}

	if downloadErr := getProviderData(ctx, providerType); downloadErr != nil {
		if cached, _, ok := documentCache.Load(source); ok {
			ShowError(downloadErr, 0)
			showWarning(1014)
			addWebAlert(getErrMsg(1014))
			return cached, nil
		}
		addWebAlert(downloadErr.Error())
		return nil, downloadErr
	}

	body, _, ok := documentCache.Load(source)
	if !ok {
		err = errors.New(getErrMsg(1004))
	}
	return
}

// updateAvailability : Availability in percent, based on the download counters
func updateAvailability(status *ProviderStatus) {
	if status.CounterError == 0 {
		status.Availability = 100
		return
	}

	if status.CounterDownload > 0 {
		status.Availability = int(status.CounterError*100/status.CounterDownload*-1 + 100)
	}
}

// downloadFileFromServer : Downloads a document from the remote server
func downloadFileFromServer(ctx context.Context, providerURL string) (body []byte, meta filecache.Metadata, err error) {
	parsed, err := url.ParseRequestURI(providerURL)
	if err != nil {
		return
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		err = fmt.Errorf("%s: %s", providerURL, getErrMsg(2003))
		return
	}

	req, err := http.NewRequestWithContext(ctx, "GET", providerURL, nil)
	if err != nil {
		return
	}
	req.Header.Set("User-Agent", Settings.UserAgent)

	debugRequest(req)

	resp, err := ConnectWithRetry(NewHTTPClient(), req)
	if err != nil {
		return
	}
	defer resp.Body.Close()

	debugResponse(resp)

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("%d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		return
	}

	// Filename from the Content-Disposition header
	var filename = getFilenameFromPath(parsed.Path)
	if disposition := resp.Header.Get("Content-Disposition"); len(disposition) > 0 {
		if _, params, mimeErr := mime.ParseMediaType(disposition); mimeErr == nil {
			if name, ok := params["filename"]; ok {
				filename = name
			}
		}
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return
	}

	meta.URL = providerURL
	meta.Size = int64(len(body))
	meta.ContentType = resp.Header.Get("Content-Type")
	meta.ETag = resp.Header.Get("ETag")

	if lastMod := resp.Header.Get("Last-Modified"); len(lastMod) > 0 {
		if t, timeErr := http.ParseTime(lastMod); timeErr == nil {
			meta.ModTime = t
		}
	}

	var debug = fmt.Sprintf("Downloaded File:%s [%d Bytes]", filename, len(body))
	showDebug(debug, 1)
	return
}
