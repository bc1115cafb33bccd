package src

import (
	"net"
	"sync"
)

// SystemStruct : Contains all System Information
type SystemStruct struct {
	APIVersion        string
	AppName           string
	ARCH              string
	BaseURL           string
	Build             string
	Compatibility     string
	DBVersion         string
	Dev               bool
	DeviceID          string
	Domain            string
	Hostname          string
	IPAddressesList   []string
	IPAddressesV4     []string
	IPAddressesV4Host []string
	IPAddressesV4Raw  []net.IP
	IPAddressesV6     []string
	Name              string
	OS                string
	ScanInProgress    int
	TimeForAutoUpdate string
	URLBase           string
	Version           string

	ImageCachingInProgress int

	// Flag : Command line arguments
	Flag struct {
		Debug    int
		Guide    string
		Info     bool
		Playlist string
		Port     string
		Restore  string
	}

	// Folder : Folder settings
	Folder struct {
		Backup       string
		Cache        string
		Certificates string
		Config       string
		Data         string
		ImagesCache  string
		Temp         string
	}

	// File : Filenames
	File struct {
		ServerCert        string
		ServerCertPrivKey string
		Settings          string
		UnixSocket        string
	}

	// Notification : Notifications for the Web Interface
	Notification map[string]Notification

	// ServerProtocol : Protocols used by the Server
	ServerProtocol struct {
		API string
		DAV string
		WEB string
	}
}

// SettingsStruct : Content of settings.json
type SettingsStruct struct {
	BackupKeep        int      `json:"backup.keep"`
	BackupPath        string   `json:"backup.path"`
	CacheImages       bool     `json:"cache.images"`
	FetchMaxRetries   int      `json:"fetch.max.retries"`
	FetchRetryDelay   int      `json:"fetch.retry.delay"`
	FetchRetryEnabled bool     `json:"fetch.retry.enabled"`
	GuideSource       string   `json:"guide.source"`
	HostIP            string   `json:"hostIP"`
	HostName          string   `json:"hostName"`
	LogEntriesRAM     int      `json:"log.entries.ram"`
	PlaylistSource    string   `json:"playlist.source"`
	Port              string   `json:"port"`
	ProxyTimeout      float64  `json:"proxy.timeout"`
	SSDP              bool     `json:"ssdp"`
	StoreCacheInRAM   bool     `json:"storeCacheInRAM"`
	TempPath          string   `json:"temp.path"`
	TLSMode           bool     `json:"tlsMode"`
	Update            []string `json:"update"`
	UserAgent         string   `json:"user.agent"`
	UUID              string   `json:"uuid"`
	Version           string   `json:"version"`

	// Provider : Download statistics for the two remote sources
	Provider struct {
		Guide    ProviderStatus `json:"guide"`
		Playlist ProviderStatus `json:"playlist"`
	} `json:"provider"`
}

// ProviderStatus : Download statistics for one remote source
type ProviderStatus struct {
	Availability    int    `json:"provider.availability"`
	CounterDownload int    `json:"counter.download"`
	CounterError    int    `json:"counter.error"`
	LastUpdate      string `json:"last.update"`
}

// WebScreenLogStruct : Logs are stored in RAM and made available for the Web Interface
type WebScreenLogStruct struct {
	Errors   int          `json:"errors"`
	Log      []string     `json:"log"`
	Warnings int          `json:"warnings"`
	Mu       sync.RWMutex `json:"-"`
}

// Notification : Notification Structure for the Web Interface
type Notification struct {
	Headline string `json:"headline"`
	Message  string `json:"message"`
	New      bool   `json:"new"`
	Time     string `json:"time"`
	Type     string `json:"type"`
}
