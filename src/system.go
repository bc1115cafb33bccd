package src

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/avfs/avfs"
	"github.com/avfs/avfs/vfs/memfs"
	"github.com/avfs/avfs/vfs/osfs"

	"tvgate/src/filecache"
)

// Version : Version Number (the last digits are the build number)
const Version = "1.4.0.0083"

// defaultGuideSource : Public guide used when no other source is configured
const defaultGuideSource = "https://epg.ovh/plar.xml"

// documentCache : Persistent storage for the downloaded provider documents
var documentCache *filecache.Cache

// Init : Prepares the folders, files and settings of the system
func Init() (err error) {
	var debug string

	System.AppName = strings.ToLower(System.Name)
	System.ARCH = runtime.GOARCH
	System.OS = runtime.GOOS
	System.ServerProtocol.API = "http"
	System.ServerProtocol.DAV = "http"
	System.ServerProtocol.WEB = "http"

	if len(System.Folder.Config) == 0 {
		System.Folder.Config = GetUserHomeDirectory() + string(os.PathSeparator) + "." + System.AppName + string(os.PathSeparator)
	}

	System.Folder.Config = strings.TrimRight(System.Folder.Config, string(os.PathSeparator)) + string(os.PathSeparator)

	System.Folder.Backup = System.Folder.Config + "backup" + string(os.PathSeparator)
	System.Folder.Cache = System.Folder.Config + "cache" + string(os.PathSeparator)
	System.Folder.Certificates = System.Folder.Config + "certificates" + string(os.PathSeparator)
	System.Folder.Data = System.Folder.Config + "data" + string(os.PathSeparator)
	System.Folder.ImagesCache = System.Folder.Cache + "images" + string(os.PathSeparator)
	System.Folder.Temp = getDefaultTempDir()

	System.File.ServerCert = System.Folder.Certificates + "server.crt"
	System.File.ServerCertPrivKey = System.Folder.Certificates + "server.key"
	System.File.UnixSocket = System.Folder.Config + System.AppName + ".sock"

	debug = fmt.Sprintf("Config Folder:%s", System.Folder.Config)
	showDebug(debug, 1)

	err = createSystemFolders()
	if err != nil {
		return
	}

	err = createSystemFiles()
	if err != nil {
		return
	}

	err = conditionalUpdateChanges()
	if err != nil {
		return
	}

	Settings, err = loadSettings()
	if err != nil {
		return
	}

	err = resolveHostIP()
	if err != nil {
		ShowError(err, 1002)
		err = nil
	}

	documentCache, err = filecache.New(System.Folder.Cache, initCacheVFS(Settings.StoreCacheInRAM))
	return
}

// Create all System Folders
func createSystemFolders() (err error) {
	e := reflect.ValueOf(&System.Folder).Elem()

	for i := range e.NumField() {
		var folder, ok = e.Field(i).Interface().(string)
		if !ok {
			continue
		}
		err = checkFolder(folder)
		if err != nil {
			return
		}
	}
	return
}

// Create all System Files
func createSystemFiles() (err error) {
	var debug string
	for _, file := range SystemFiles {
		var filename = getPlatformFile(System.Folder.Config + file)

		err = checkFile(filename)
		if err != nil {
			// File does not exist, will be created now
			err = saveMapToJSONFile(filename, make(map[string]any))
			if err != nil {
				return
			}
			debug = fmt.Sprintf("Create File:%s", filename)
			showDebug(debug, 1)
		}

		switch file {
		case "settings.json":
			System.File.Settings = filename
		}
	}
	return
}

// StartSystem : Starts the ingestion and the background services
func StartSystem() (err error) {
	setGlobalDomain(fmt.Sprintf("%s:%s", Settings.HostIP, Settings.Port))

	if System.ScanInProgress == 1 {
		return
	}

	// System Information
	showInfo(fmt.Sprintf("Version:%s Build: %s", System.Version, System.Build))
	showInfo(fmt.Sprintf("Database Version:%s", Settings.Version))
	showInfo(fmt.Sprintf("System IP Addresses:IPv4: %d | IPv6: %d", len(System.IPAddressesV4), len(System.IPAddressesV6)))
	showInfo("Hostname:" + System.Hostname)
	showInfo(fmt.Sprintf("Document Cache:%s", System.Folder.Cache))
	showInfo(fmt.Sprintf("Cache in RAM:%t", Settings.StoreCacheInRAM))

	if len(Settings.PlaylistSource) == 0 {
		showWarning(2001)
	}

	// SSDP / DLNA Advertisement
	if err = SSDP(); err != nil {
		ShowError(err, 0)
		err = nil
	}

	ctx := context.Background()

	if _, err = buildPlaylistDatabase(ctx); err != nil {
		ShowError(err, 0)
		err = nil
	}

	if _, err = buildGuideDatabase(ctx); err != nil {
		ShowError(err, 0)
		err = nil
	}
	return
}

// initCacheVFS : Virtual filesystem for the bodies of the cached documents
func initCacheVFS(virtual bool) avfs.VFS {
	if virtual {
		return memfs.New()
	}
	return osfs.New()
}

// Load the Settings and set the default values
func loadSettings() (settings SettingsStruct, err error) {
	settingsMap, err := loadJSONFileToMap(System.File.Settings)
	if err != nil {
		return
	}

	// Set the default values
	var defaults = make(map[string]any)
	var providerMap = make(map[string]any)

	providerMap["playlist"] = make(map[string]any)
	providerMap["guide"] = make(map[string]any)

	defaults["backup.keep"] = 10
	defaults["backup.path"] = System.Folder.Backup
	defaults["cache.images"] = false
	defaults["fetch.max.retries"] = 5
	defaults["fetch.retry.delay"] = 100
	defaults["fetch.retry.enabled"] = true
	defaults["guide.source"] = defaultGuideSource
	defaults["hostIP"] = "" // Will be set in resolveHostIP()
	defaults["hostName"] = ""
	defaults["log.entries.ram"] = 500
	defaults["playlist.source"] = ""
	defaults["port"] = "34400"
	defaults["provider"] = providerMap
	defaults["proxy.timeout"] = 10.0
	defaults["ssdp"] = true
	defaults["storeCacheInRAM"] = false
	defaults["temp.path"] = System.Folder.Temp
	defaults["tlsMode"] = false
	defaults["update"] = []string{"0000"}
	defaults["user.agent"] = System.Name
	defaults["uuid"] = createUUID()
	defaults["version"] = System.DBVersion

	for key, value := range defaults {
		if _, ok := settingsMap[key]; !ok {
			settingsMap[key] = value
		}
	}

	err = json.Unmarshal([]byte(mapToJSON(settingsMap)), &settings)
	if err != nil {
		return
	}

	// Sources from the environment take precedence over the stored settings
	if env := os.Getenv("TVGATE_PLAYLIST"); len(env) > 0 {
		settings.PlaylistSource = env
	}

	if env := os.Getenv("TVGATE_EPG"); len(env) > 0 {
		settings.GuideSource = env
	}

	// Flags take precedence over the environment
	if len(System.Flag.Playlist) > 0 {
		settings.PlaylistSource = System.Flag.Playlist
	}

	if len(System.Flag.Guide) > 0 {
		settings.GuideSource = System.Flag.Guide
	}

	if len(System.Flag.Port) > 0 {
		settings.Port = System.Flag.Port
	}

	settings.TempPath = getValidTempDir(settings.TempPath)

	err = saveSettings(settings)
	return
}

// Save the Settings
func saveSettings(settings SettingsStruct) (err error) {
	if settings.BackupKeep == 0 {
		settings.BackupKeep = 10
	}

	if len(settings.BackupPath) == 0 {
		settings.BackupPath = System.Folder.Backup
	}

	if settings.ProxyTimeout <= 0 {
		settings.ProxyTimeout = 10
	}

	System.Folder.Temp = getValidTempDir(settings.TempPath + settings.UUID)

	err = writeByteToFile(System.File.Settings, []byte(mapToJSON(settings)))
	if err != nil {
		return
	}

	Settings = settings

	setDeviceID()
	return
}

// Rebuild the protocols and the base URL after a settings change
func reinitialize() {
	System.ServerProtocol.API = "http"
	System.ServerProtocol.DAV = "http"
	System.ServerProtocol.WEB = "http"

	setGlobalDomain(System.Domain)
}

// Enable access via the Domain
func setGlobalDomain(domain string) {
	System.Domain = domain

	if Settings.TLSMode {
		System.ServerProtocol.API = "https"
		System.ServerProtocol.DAV = "https"
		System.ServerProtocol.WEB = "https"
	}

	System.URLBase = fmt.Sprintf("%s://%s", System.ServerProtocol.WEB, System.Domain)
	System.BaseURL = System.URLBase
}

// Generate UUID
func createUUID() (uuid string) {
	uuid = time.Now().Format("2006-01") + "-" + randomString(4) + "-" + randomString(6)
	return
}

// Generate a unique Device ID for SSDP
func setDeviceID() {
	System.DeviceID = Settings.UUID
}

// ShowSystemInfo : Shows the System Information in the Console
func ShowSystemInfo() {
	fmt.Print("Version:             ")
	fmt.Println(System.Version + " Build: " + System.Build)

	fmt.Print("Database Version:    ")
	fmt.Println(Settings.Version)

	fmt.Print("System Folder:       ")
	fmt.Println(getPlatformPath(System.Folder.Config))

	fmt.Print("Document Cache:      ")
	fmt.Println(getPlatformPath(System.Folder.Cache))

	fmt.Print("Image Cache:         ")
	fmt.Println(getPlatformPath(System.Folder.ImagesCache))

	fmt.Print("Backup Folder:       ")
	fmt.Println(getPlatformPath(Settings.BackupPath))

	fmt.Println("---")

	fmt.Print("Playlist configured: ")
	fmt.Println(len(Settings.PlaylistSource) > 0)

	fmt.Print("Guide configured:    ")
	fmt.Println(len(Settings.GuideSource) > 0)

	fmt.Print("IPv4 Addresses:      ")
	fmt.Println(len(System.IPAddressesV4))

	fmt.Print("IPv6 Addresses:      ")
	fmt.Println(len(System.IPAddressesV6))
}

// ShowSystemVersion : Shows the Version Number in the Console
func ShowSystemVersion() {
	fmt.Println("Version:", fmt.Sprintf("%s Build: %s", System.Version, System.Build))
}
