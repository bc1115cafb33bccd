package src

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// InitMaintenance : Initialize maintenance process
func InitMaintenance() (err error) {
	System.TimeForAutoUpdate = fmt.Sprintf("0%d%d", randomTime(0, 2), randomTime(10, 59))

	go maintenance()
	return
}

func maintenance() {
	for {
		var t = time.Now()

		// Update the playlist and the guide
		if System.ScanInProgress == 0 {
			for _, schedule := range Settings.Update {
				if schedule == t.Format("1504") {
					showInfo("Update:" + schedule)

					// Create a backup
					err := tvgateAutoBackup()
					if err != nil {
						ShowError(err, 000)
					}

					// Rebuild the channel list and the guide from fresh provider documents
					if _, err := buildPlaylistDatabase(context.Background()); err != nil {
						ShowError(err, 0)
					}
					if _, err := buildGuideDatabase(context.Background()); err != nil {
						ShowError(err, 0)
					}

					// Drop expired provider documents from the cache
					documentCache.CleanNow()

					if !Settings.CacheImages && System.ImageCachingInProgress == 0 {
						if err := removeChildItems(System.Folder.ImagesCache); err != nil {
							ShowError(err, 0)
						}
					}
				}
			}
		}
		time.Sleep(60 * time.Second)
	}
}

func randomTime(min, max int) int {
	return rand.Intn(max-min) + min
}
