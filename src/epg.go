package src

import (
	"context"
	"errors"
	"fmt"

	xmltv "tvgate/src/internal/xmltv-parser"
)

// Build the guide database from the guide provider. The raw document is
// returned for callers that serve it onwards.
func buildGuideDatabase(ctx context.Context) (body []byte, err error) {
	ingest.Lock()
	defer ingest.Unlock()

	System.ScanInProgress = 1
	defer func() { System.ScanInProgress = 0 }()

	if len(Settings.GuideSource) == 0 {
		return nil, errors.New(getErrMsg(2002))
	}

	body, err = loadProviderData(ctx, "guide")
	if err != nil {
		return
	}

	showInfo("EPG:Analyzing the programme data")

	index, parseErr := xmltv.Parse(body)
	if parseErr != nil {
		// Entries decoded before the failure stay usable
		ShowError(parseErr, 1003)
	}

	engine.SetGuide(index)

	var counts = engine.Counts()
	showInfo(fmt.Sprintf("EPG Channels:%d", counts.GuideChannels))
	showInfo(fmt.Sprintf("EPG Programs:%d", counts.GuidePrograms))

	if counts.GuideSkipped > 0 {
		showWarning(2021)
	}

	// Compressed copy for the WebDAV share
	if gzErr := compressGZIP(&body, System.Folder.Data+"guide.xml.gz"); gzErr != nil {
		ShowError(gzErr, 0)
	}

	return
}
