package src

import (
	xmltv "tvgate/src/internal/xmltv-parser"
)

// RequestStruct : Requests from the WebSocket clients
type RequestStruct struct {
	Cmd string `json:"cmd"`

	// Settings (WebUI). Only the keys present in the request are changed.
	Settings map[string]any `json:"settings,omitempty"`
}

// ResponseStruct : Responses to the WebSocket clients
type ResponseStruct struct {
	ClientInfo struct {
		ARCH     string `json:"arch"`
		DAV      string `json:"DAV"`
		Errors   int    `json:"errors"`
		OS       string `json:"os"`
		UUID     string `json:"uuid"`
		Version  string `json:"version"`
		Warnings int    `json:"warnings"`
	} `json:"clientInfo,omitempty"`

	Alert             string                  `json:"alert,omitempty"`
	Error             string                  `json:"err,omitempty"`
	IPAddressesV4Host []string                `json:"ipAddressesV4Host,omitempty"`
	Log               *WebScreenLogStruct     `json:"log,omitempty"`
	Notification      map[string]Notification `json:"notification,omitempty"`
	OpenLink          string                  `json:"openLink,omitempty"`
	Reload            bool                    `json:"reload,omitempty"`
	Settings          SettingsStruct          `json:"settings"`
	Status            bool                    `json:"status"`
	StatusReport      *StatusStruct           `json:"statusReport,omitempty"`
}

// APIRequestStruct : Requests to the API interface
type APIRequestStruct struct {
	Cmd string `json:"cmd"`
}

// APIResponseStruct : Responses from the API interface
type APIResponseStruct struct {
	ActiveConnections int64  `json:"connections.active,omitempty"`
	AllowedHosts      int    `json:"hosts.allowed,omitempty"`
	BackupArchive     string `json:"backup.archive,omitempty"`
	Channels          int    `json:"channels.count,omitempty"`
	Error             string `json:"err,omitempty"`
	GuideChannels     int    `json:"guide.channels,omitempty"`
	GuidePrograms     int    `json:"guide.programs,omitempty"`
	Status            bool   `json:"status"`
	URLDav            string `json:"url.dav,omitempty"`
	VersionAPI        string `json:"version.api,omitempty"`
	VersionTvgate     string `json:"version.tvgate,omitempty"`
}

// ChannelResponseStruct : Answer of the channel list endpoint
type ChannelResponseStruct struct {
	Categories []string  `json:"categories"`
	Channels   []Channel `json:"channels"`
	Count      int       `json:"count"`
}

// GuideResponseStruct : Answer of the guide endpoint
type GuideResponseStruct struct {
	Channel string         `json:"channel"`
	Current *xmltv.Program `json:"current"`
	Next    *xmltv.Program `json:"next"`
}

// StatusStruct : Answer of the status endpoint and the status WebSocket
// command. Counts and flags only, the configured source URLs never leave
// the server.
type StatusStruct struct {
	ActiveConnections    int64  `json:"activeConnections"`
	AllowedHosts         int    `json:"allowedHosts"`
	Channels             int    `json:"channels"`
	Errors               int    `json:"errors"`
	GuideAvailability    int    `json:"guideAvailability"`
	GuideChannels        int    `json:"guideChannels"`
	GuideConfigured      bool   `json:"guideConfigured"`
	GuideLastUpdate      string `json:"guideLastUpdate,omitempty"`
	GuidePrograms        int    `json:"guidePrograms"`
	GuideSkipped         int    `json:"guideSkipped"`
	PlaylistAvailability int    `json:"playlistAvailability"`
	PlaylistConfigured   bool   `json:"playlistConfigured"`
	PlaylistLastUpdate   string `json:"playlistLastUpdate,omitempty"`
	UptimeSeconds        int64  `json:"uptimeSeconds"`
	Version              string `json:"version"`
	Warnings             int    `json:"warnings"`
}
