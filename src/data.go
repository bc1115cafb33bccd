package src

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// System : Contains all system information
var System SystemStruct

// WebScreenLog : Logs are saved in RAM and made available for the web interface
var WebScreenLog WebScreenLogStruct

// Settings : Content of settings.json
var Settings SettingsStruct

// SystemFiles : All system files
var SystemFiles = []string{"settings.json"}

// engine : Channel and guide state shared by the build jobs and the web server
var engine = NewEngine()

// ingest : Serializes the playlist and guide build jobs
var ingest sync.Mutex

// Change Settings (WebUI)
func updateServerSettings(request RequestStruct) (settings SettingsStruct, err error) {
	var oldSettings = make(map[string]any)
	_ = bindToStruct(Settings, &oldSettings)

	var newSettings = make(map[string]any)
	_ = bindToStruct(request.Settings, &newSettings)

	var reloadData = false
	var cacheImages = false
	var debug string

	for key, value := range newSettings {
		if _, ok := oldSettings[key]; ok {
			switch key {
			case "playlist.source", "guide.source":
				if value != oldSettings[key] {
					reloadData = true
				}
			case "update":
				// Remove spaces from the values and check the formatting of the time (0000 - 2359)
				var newUpdateTimes = make([]string, 0)
				if values, ok := value.([]any); ok {
					for _, v := range values {
						if s, ok := v.(string); ok {
							s = strings.Replace(s, " ", "", -1)

							_, err := time.Parse("1504", s)
							if err != nil {
								ShowError(err, 1010)
								return Settings, err
							}
							newUpdateTimes = append(newUpdateTimes, s)
						} else {
							return Settings, fmt.Errorf("invalid type in update times array: expected string, got %T", v)
						}
					}
				} else {
					return Settings, fmt.Errorf("invalid type for update times: expected []any, got %T", value)
				}

				value = newUpdateTimes
			case "cache.images":
				cacheImages = true
			case "backup.path":
				if s, ok := value.(string); ok {
					s = strings.TrimRight(s, string(os.PathSeparator)) + string(os.PathSeparator)
					err = os.MkdirAll(s, 0755)
					if err == nil {
						err = checkFilePermission(s)
					}

					if err != nil {
						return
					}
					value = s
				} else {
					err = fmt.Errorf("backup.path has to be a string, but it is %T", value)
					return
				}
			case "temp.path":
				if s, ok := value.(string); ok {
					value = getValidTempDir(s)
				} else {
					err = fmt.Errorf("temp.path has to be a string, but it is %T", value)
					return
				}
			}

			oldSettings[key] = value

			switch fmt.Sprintf("%T", value) {
			case "bool":
				debug = fmt.Sprintf("Save Setting:Key: %s | Value: %t (%T)", key, value, value)
			case "string":
				debug = fmt.Sprintf("Save Setting:Key: %s | Value: %s (%T)", key, value, value)
			case "[]interface {}":
				debug = fmt.Sprintf("Save Setting:Key: %s | Value: %v (%T)", key, value, value)
			case "float64":
				if f, ok := value.(float64); ok {
					debug = fmt.Sprintf("Save Setting:Key: %s | Value: %d (%T)", key, int(f), value)
				} else {
					debug = fmt.Sprintf("Save Setting:Key: %s | Value: ERROR (unexpected type %T)", key, value)
				}
			default:
				debug = fmt.Sprintf("%T", value)
			}
			showDebug(debug, 1)
		}
	}

	// Update Settings
	err = bindToStruct(oldSettings, &Settings)
	if err != nil {
		return
	}

	err = saveSettings(Settings)
	if err == nil {
		settings = Settings

		if reloadData {
			var ctx = context.Background()

			if _, err = buildPlaylistDatabase(ctx); err != nil {
				ShowError(err, 0)
				err = nil
			}

			if _, err = buildGuideDatabase(ctx); err != nil {
				ShowError(err, 0)
				err = nil
			}
		}

		if cacheImages && System.ImageCachingInProgress == 0 {
			if err = createImageCache(); err != nil {
				ShowError(err, 0)
				err = nil
			}

			switch Settings.CacheImages {
			case true:
				cacheChannelLogos()

			case false:
				// Cached copies are removed during the next maintenance run
			}
		}
	}
	return
}
