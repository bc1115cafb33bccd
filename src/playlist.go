package src

import (
	"context"
	"errors"
	"fmt"

	m3u "tvgate/src/internal/m3u-parser"
)

// Build the channel database from the playlist provider. The raw document
// is returned for callers that serve it onwards.
func buildPlaylistDatabase(ctx context.Context) (body []byte, err error) {
	ingest.Lock()
	defer ingest.Unlock()

	System.ScanInProgress = 1
	defer func() { System.ScanInProgress = 0 }()

	if len(Settings.PlaylistSource) == 0 {
		return nil, errors.New(getErrMsg(2001))
	}

	body, err = loadProviderData(ctx, "playlist")
	if err != nil {
		return
	}

	showInfo("Playlist:Analyzing the channel records")

	var records = m3u.Parse(body)
	if len(records) == 0 {
		showWarning(2020)
	}

	var channels = make([]Channel, 0, len(records))
	for _, record := range records {
		channels = append(channels, Channel{
			Name:  record.Name,
			Group: record.Group,
			Logo:  record.Logo,
			URL:   record.URL,
		})
	}

	engine.SetChannels(channels)

	var counts = engine.Counts()
	showInfo(fmt.Sprintf("All Channels:%d", counts.Channels))
	showInfo(fmt.Sprintf("Allowed Hosts:%d", counts.AllowedHosts))

	if err = createImageCache(); err != nil {
		ShowError(err, 0)
		err = nil
		return
	}

	cacheChannelLogos()

	return
}
