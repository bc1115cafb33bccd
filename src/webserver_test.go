package src

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xmltv "tvgate/src/internal/xmltv-parser"
)

const testGuide = `<?xml version="1.0" encoding="UTF-8"?>
<tv>
	<programme channel="Test" start="20040101090000 +0000" stop="20040101100000 +0000">
		<title>Morning Show</title>
	</programme>
</tv>`

// serveRequest : Run one request through the full handler chain
func serveRequest(method, target string) *httptest.ResponseRecorder {
	var w = httptest.NewRecorder()
	newHTTPHandler().ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestStatusReportOmitsSources(t *testing.T) {
	initTestSystem(t)

	Settings.PlaylistSource = "http://secret.example.com/user/abc123/playlist.m3u"
	Settings.GuideSource = "http://secret.example.com/user/abc123/guide.xml"

	var report = getStatusReport()

	assert.True(t, report.PlaylistConfigured)
	assert.True(t, report.GuideConfigured)

	// The provider URLs carry credentials and never leave the server
	var body = mapToJSON(report)
	assert.NotContains(t, body, "secret.example.com")
	assert.NotContains(t, body, "abc123")
}

func TestStatusEndpoint(t *testing.T) {
	initTestSystem(t)

	engine.SetChannels([]Channel{
		{Name: "Test", Group: "News", URL: "http://cdn.example.com/test.m3u8"},
	})

	index, err := xmltv.Parse([]byte(testGuide))
	require.NoError(t, err)
	engine.SetGuide(index)

	Settings.PlaylistSource = "http://provider.example.com/playlist.m3u"

	var w = serveRequest("GET", "/api/status")
	require.Equal(t, 200, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var report StatusStruct
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))

	assert.Equal(t, 1, report.Channels)
	assert.Equal(t, 1, report.AllowedHosts)
	assert.Equal(t, 1, report.GuideChannels)
	assert.Equal(t, 1, report.GuidePrograms)
	assert.True(t, report.PlaylistConfigured)
	assert.NotContains(t, w.Body.String(), "provider.example.com")
}

func TestRawDocumentEndpoints(t *testing.T) {
	initTestSystem(t)
	t.Setenv("TVGATE_ALLOW_LOOPBACK", "true")

	var upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/playlist.m3u":
			w.Write([]byte(testPlaylist))
		case "/guide.xml":
			w.Write([]byte(testGuide))
		}
	}))
	defer upstream.Close()

	Settings.PlaylistSource = upstream.URL + "/playlist.m3u"
	Settings.GuideSource = upstream.URL + "/guide.xml"

	var w = serveRequest("GET", "/api/playlist")
	require.Equal(t, 200, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, testPlaylist, w.Body.String())

	// The document fills the channel database as a side effect
	assert.Equal(t, 1, engine.Counts().Channels)

	w = serveRequest("GET", "/api/epg")
	require.Equal(t, 200, w.Code)
	assert.Equal(t, "application/xml; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, testGuide, w.Body.String())

	// The compressed copy for the WebDAV share was written during the build
	_, err := os.Stat(System.Folder.Data + "guide.xml.gz")
	assert.NoError(t, err)
}

func TestRawPlaylistUnconfigured(t *testing.T) {
	initTestSystem(t)

	var w = serveRequest("GET", "/api/playlist")
	assert.Equal(t, 404, w.Code)
}

func TestRawDocumentUpstreamError(t *testing.T) {
	initTestSystem(t)
	t.Setenv("TVGATE_ALLOW_LOOPBACK", "true")

	var upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	Settings.PlaylistSource = upstream.URL + "/playlist.m3u"
	Settings.GuideSource = upstream.URL + "/guide.xml"

	var w = serveRequest("GET", "/api/playlist")
	assert.Equal(t, 502, w.Code)

	w = serveRequest("GET", "/api/epg")
	assert.Equal(t, 502, w.Code)
}

func TestChannelsEndpoint(t *testing.T) {
	initTestSystem(t)
	imgCache = nil

	engine.SetChannels([]Channel{
		{Name: "News 24", Group: "News", URL: "http://cdn.example.com/news.m3u8"},
		{Name: "Movie Time", Group: "Movies", URL: "http://cdn.example.com/movies.m3u8"},
		{Name: "Sports One", Group: "Sport", URL: "http://cdn.example.com/sport.m3u8"},
	})

	var w = serveRequest("GET", "/api/channels")
	require.Equal(t, 200, w.Code)

	var response ChannelResponseStruct
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 3, response.Count)
	assert.Equal(t, []string{"all", "News", "Movies", "Sport"}, response.Categories)

	// Category filter
	w = serveRequest("GET", "/api/channels?category=News")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, 1, response.Count)
	assert.Equal(t, "News 24", response.Channels[0].Name)

	// Search filter
	w = serveRequest("GET", "/api/channels?search=sports")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, 1, response.Count)
	assert.Equal(t, "Sports One", response.Channels[0].Name)

	// View filter
	w = serveRequest("GET", "/api/channels?view=movies")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, 1, response.Count)
	assert.Equal(t, "Movie Time", response.Channels[0].Name)
}

func TestGuideEndpoint(t *testing.T) {
	initTestSystem(t)

	var w = serveRequest("GET", "/api/guide")
	assert.Equal(t, 400, w.Code)

	var now = time.Now().UTC()
	var doc = fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<tv>
	<programme channel="News 24" start="%s" stop="%s">
		<title>Current Affairs</title>
	</programme>
	<programme channel="News 24" start="%s" stop="%s">
		<title>Evening Report</title>
	</programme>
</tv>`,
		now.Add(-time.Hour).Format("20060102150405 +0000"),
		now.Add(time.Hour).Format("20060102150405 +0000"),
		now.Add(time.Hour).Format("20060102150405 +0000"),
		now.Add(2*time.Hour).Format("20060102150405 +0000"))

	index, err := xmltv.Parse([]byte(doc))
	require.NoError(t, err)

	engine.SetChannels([]Channel{
		{Name: "News 24", Group: "News", URL: "http://cdn.example.com/news.m3u8"},
	})
	engine.SetGuide(index)

	w = serveRequest("GET", "/api/guide?channel=News+24")
	require.Equal(t, 200, w.Code)

	var response GuideResponseStruct
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assert.Equal(t, "News 24", response.Channel)
	require.NotNil(t, response.Current)
	assert.Equal(t, "Current Affairs", response.Current.Title)
	require.NotNil(t, response.Next)
	assert.Equal(t, "Evening Report", response.Next.Title)

	// Unknown channel returns an empty guide, not an error
	w = serveRequest("GET", "/api/guide?channel=Nowhere")
	require.Equal(t, 200, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Nil(t, response.Current)
	assert.Nil(t, response.Next)
}

func TestAPIRestrictedToLoopback(t *testing.T) {
	initTestSystem(t)

	// httptest requests carry a remote test address
	var w = httptest.NewRecorder()
	API(w, httptest.NewRequest("POST", "/api/", strings.NewReader(`{"cmd":"status"}`)))
	assert.Equal(t, 403, w.Code)
}

func TestAPICommands(t *testing.T) {
	initTestSystem(t)

	var apiRequest = func(method, body, contentType string) *httptest.ResponseRecorder {
		var w = httptest.NewRecorder()
		var r = httptest.NewRequest(method, "/api/", bytes.NewReader([]byte(body)))
		r.RemoteAddr = "127.0.0.1:50000"
		if len(contentType) > 0 {
			r.Header.Set("Content-Type", contentType)
		}
		API(w, r)
		return w
	}

	// Wrong method and wrong content type
	assert.Equal(t, 404, apiRequest("GET", "", "").Code)
	assert.Equal(t, 415, apiRequest("POST", `{"cmd":"status"}`, "text/plain").Code)

	// Unknown command
	var w = apiRequest("POST", `{"cmd":"nonsense"}`, "application/json")
	require.Equal(t, 200, w.Code)

	var response APIResponseStruct
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.False(t, response.Status)
	assert.Equal(t, getErrMsg(5000), response.Error)

	// Status command
	engine.SetChannels([]Channel{
		{Name: "Test", Group: "News", URL: "http://cdn.example.com/test.m3u8"},
	})

	w = apiRequest("POST", `{"cmd":"status"}`, "application/json")
	require.Equal(t, 200, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Status)
	assert.Equal(t, 1, response.Channels)
	assert.Contains(t, response.URLDav, "/dav/")
}

func TestAPIBackupCommand(t *testing.T) {
	initTestSystem(t)
	require.NoError(t, saveSettings(Settings))

	var w = httptest.NewRecorder()
	var r = httptest.NewRequest("POST", "/api/", strings.NewReader(`{"cmd":"backup"}`))
	r.RemoteAddr = "127.0.0.1:50000"
	r.Header.Set("Content-Type", "application/json")
	API(w, r)
	require.Equal(t, 200, w.Code)

	var response APIResponseStruct
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Status)
	require.NotEmpty(t, response.BackupArchive)

	_, err := os.Stat(response.BackupArchive)
	assert.NoError(t, err)
}

func TestWebStaticAssets(t *testing.T) {
	initTestSystem(t)
	System.Dev = false

	var w = serveRequest("GET", "/web/")
	require.Equal(t, 200, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "<html")

	w = serveRequest("GET", "/web/css/screen.css")
	require.Equal(t, 200, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/css")

	w = serveRequest("GET", "/web/js/app.js")
	require.Equal(t, 200, w.Code)

	w = serveRequest("GET", "/web/missing.js")
	assert.Equal(t, 404, w.Code)
}

func TestWebRejectsTraversal(t *testing.T) {
	initTestSystem(t)

	// The raw path reaches the handler before any cleaning
	var w = httptest.NewRecorder()
	var r = httptest.NewRequest("GET", "/web/index.html", nil)
	r.URL.Path = "/web/../settings.json"
	Web(w, r)
	assert.Equal(t, 403, w.Code)
}

func TestIndexRoutes(t *testing.T) {
	initTestSystem(t)

	var w = serveRequest("GET", "/")
	assert.Equal(t, 302, w.Code)
	assert.Equal(t, "/web/", w.Header().Get("Location"))

	w = serveRequest("GET", "/favicon.ico")
	require.Equal(t, 200, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))

	w = serveRequest("GET", "/nowhere")
	assert.Equal(t, 404, w.Code)
}

func TestSecurityHeaders(t *testing.T) {
	initTestSystem(t)

	var w = serveRequest("GET", "/api/status")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	Settings.TLSMode = true
	w = serveRequest("GET", "/api/status")
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestWebSocketCommands(t *testing.T) {
	initTestSystem(t)

	var server = httptest.NewServer(newHTTPHandler())
	defer server.Close()

	var wsURL = "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Status command
	require.NoError(t, conn.WriteJSON(RequestStruct{Cmd: "status"}))

	var response ResponseStruct
	require.NoError(t, conn.ReadJSON(&response))
	assert.True(t, response.Status)
	require.NotNil(t, response.StatusReport)
	assert.NotEmpty(t, response.ClientInfo.Version)

	// Log update
	require.NoError(t, conn.WriteJSON(RequestStruct{Cmd: "updateLog"}))
	require.NoError(t, conn.ReadJSON(&response))
	assert.True(t, response.Status)
	require.NotNil(t, response.Log)

	// Unknown commands report an error, the connection stays open
	require.NoError(t, conn.WriteJSON(RequestStruct{Cmd: "nonsense"}))
	require.NoError(t, conn.ReadJSON(&response))
	assert.False(t, response.Status)
	assert.Equal(t, getErrMsg(5000), response.Error)

	require.NoError(t, conn.WriteJSON(RequestStruct{Cmd: "status"}))
	require.NoError(t, conn.ReadJSON(&response))
	assert.True(t, response.Status)
}

func TestHTTPStatusErrorFormat(t *testing.T) {
	var w = httptest.NewRecorder()
	httpStatusError(w, httptest.NewRequest("GET", "/", nil), 403)

	assert.Equal(t, 403, w.Code)
	assert.Equal(t, "Forbidden [403]\n", w.Body.String())
}

func TestGetContentType(t *testing.T) {
	assert.Equal(t, "application/vnd.apple.mpegurl", getContentType("playlist.m3u8"))
	assert.Equal(t, "video/mp2t", getContentType("segment.ts"))
	assert.Contains(t, getContentType("guide.xml"), "application/xml")
	assert.Equal(t, "text/plain", getContentType("README"))
}
