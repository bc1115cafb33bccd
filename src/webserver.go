package src

import (
	"cmp"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"math/big"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"tvgate/src/filecache"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/webdav"
)

// webAlerts channel to send to client
var webAlerts = make(chan string, 3)
var restartWebserver = make(chan bool, 1)

// startTime : Process start, used for the uptime in the status reports
var startTime = time.Now()

// Active HTTP connections counter
var activeHTTPConnections int64

func connState(c net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		atomic.AddInt64(&activeHTTPConnections, 1)
	case http.StateClosed:
		atomic.AddInt64(&activeHTTPConnections, -1)
	}
}

func init() {
	// Register types to ensure consistent behavior across platforms
	types := map[string]string{
		".html": "text/html; charset=utf-8",
		".css":  "text/css; charset=utf-8",
		".js":   "application/javascript",
		".json": "application/json",
		".m3u":  "audio/x-mpegurl",
		".m3u8": "application/vnd.apple.mpegurl",
		".ts":   "video/mp2t",
		".xml":  "application/xml; charset=utf-8",
		".png":  "image/png",
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".gif":  "image/gif",
		".svg":  "image/svg+xml",
		".ico":  "image/x-icon",
	}
	for ext, typ := range types {
		if err := mime.AddExtensionType(ext, typ); err != nil {
			panic(fmt.Sprintf("failed to register mime type %s: %v", ext, err))
		}
	}
}

// StartWebserver : Start the Webserver
func StartWebserver(startupSpan trace.Span) (err error) {
	for {
		showInfo("Web server:" + "Starting")

		showInfo("Gateway IP:" + Settings.HostIP + ":" + Settings.Port)

		var ips = len(System.IPAddressesV4) + len(System.IPAddressesV6) - 1
		switch ips {
		case 0:
			showHighlight(fmt.Sprintf("Web Interface:%s://%s:%s/web/", System.ServerProtocol.WEB, Settings.HostIP, Settings.Port))
		case 1:
			showHighlight(fmt.Sprintf("Web Interface:%s://%s:%s/web/ | TVGate is also available via the other %d IP.", System.ServerProtocol.WEB, Settings.HostIP, Settings.Port, ips))
		default:
			showHighlight(fmt.Sprintf("Web Interface:%s://%s:%s/web/ | TVGate is also available via the other %d IP's.", System.ServerProtocol.WEB, Settings.HostIP, Settings.Port, len(System.IPAddressesV4)+len(System.IPAddressesV6)-1))
		}

		var port = Settings.Port
		server := http.Server{
			Addr:      ":" + port,
			Handler:   newHTTPHandler(),
			ConnState: connState,
		}

		currentSpan := startupSpan
		startupSpan = nil

		go func() {
			var err error

			if Settings.TLSMode {
				if !allFilesExist(System.File.ServerCertPrivKey, System.File.ServerCert) {
					if err = genCertFiles(); err != nil {
						ShowError(err, 7000)
					}
				}

				if currentSpan != nil {
					currentSpan.End()
				}

				err = server.ListenAndServeTLS(System.File.ServerCert, System.File.ServerCertPrivKey)
				if err != nil && err != http.ErrServerClosed {
					ShowError(err, 1017)
					err = server.ListenAndServe()
				}
			} else {
				if currentSpan != nil {
					currentSpan.End()
				}

				err = server.ListenAndServe()
			}

			if err != nil && err != http.ErrServerClosed {
				ShowError(err, 1001)
				return
			}
		}()

		<-restartWebserver
		showInfo("Web server:" + "Restarting")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err = server.Shutdown(ctx); err != nil {
			ShowError(err, 1016)
			return
		}

		<-ctx.Done()
		showInfo("Web server:" + "Stopped")
	}
}

// StartLocalSocketServer : Start a local Unix socket server for local tools like tvgate-status
func StartLocalSocketServer() error {
	// Remove any existing socket file
	if err := os.RemoveAll(System.File.UnixSocket); err != nil {
		return fmt.Errorf("failed to remove existing socket: %w", err)
	}

	// Create Unix socket listener
	listener, err := net.Listen("unix", System.File.UnixSocket)
	if err != nil {
		return fmt.Errorf("failed to create Unix socket listener: %w", err)
	}

	// Set socket permissions to be accessible by the user only
	if err := os.Chmod(System.File.UnixSocket, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	showInfo(fmt.Sprintf("Local Socket Server:%s", System.File.UnixSocket))

	// Create a simple mux for the local socket server
	mux := http.NewServeMux()
	mux.HandleFunc("/api/", API)

	server := &http.Server{
		Handler: mux,
	}

	// Start the server in a goroutine
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			ShowError(fmt.Errorf("local socket server error: %w", err), 0)
		}
	}()

	return nil
}

// genCertFiles : Generate a self signed certificate for the TLS web server
func genCertFiles() (err error) {
	showInfo("Web server:" + "Generating a self signed server certificate")

	privKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return
	}

	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject:      pkix.Name{Organization: []string{System.Name}},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(10 * 365 * 24 * time.Hour),

		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}

	template.DNSNames = append(template.DNSNames, "localhost", System.Hostname)
	if len(Settings.HostName) > 0 {
		template.DNSNames = append(template.DNSNames, Settings.HostName)
	}

	template.IPAddresses = append(template.IPAddresses, net.ParseIP("127.0.0.1"))
	template.IPAddresses = append(template.IPAddresses, System.IPAddressesV4Raw...)

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &privKey.PublicKey, privKey)
	if err != nil {
		return
	}

	certFile, err := os.Create(System.File.ServerCert)
	if err != nil {
		return
	}
	defer certFile.Close()

	if err = pem.Encode(certFile, &pem.Block{Type: "CERTIFICATE", Bytes: derBytes}); err != nil {
		return
	}

	keyBytes, err := x509.MarshalECPrivateKey(privKey)
	if err != nil {
		return
	}

	keyFile, err := os.OpenFile(System.File.ServerCertPrivKey, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer keyFile.Close()

	err = pem.Encode(keyFile, &pem.Block{Type: "EC PRIVATE KEY", Bytes: keyBytes})
	return
}

// Index : Web Server /
func Index(w http.ResponseWriter, r *http.Request) {
	var path = r.URL.Path
	var debug string

	setGlobalDomain(r.Host)

	debug = fmt.Sprintf("Web Server Request:Path: %s", path)
	showDebug(debug, 2)

	switch path {
	case "/":
		http.Redirect(w, r, "/web/", http.StatusFound)
	case "/favicon.ico":
		_, childSpan := otel.Tracer("webserver").Start(r.Context(), "favicon")
		defer childSpan.End()
		response, err := webUI.ReadFile("html/favicon.svg")
		if err != nil {
			childSpan.RecordError(err)
			httpStatusError(w, r, 404)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.WriteHeader(200)
		if _, writeErr := w.Write(response); writeErr != nil {
			log.Printf("Error writing response in Index handler: %v", writeErr)
		}
	default:
		httpStatusError(w, r, 404)
	}
}

// TVGate : Raw provider documents /api/playlist and /api/epg
func TVGate(w http.ResponseWriter, r *http.Request) {
	var body []byte
	var err error

	setGlobalDomain(r.Host)

	switch r.URL.Path {
	case "/api/playlist":
		_, childSpan := otel.Tracer("webserver").Start(r.Context(), "playlist")
		defer childSpan.End()

		if len(Settings.PlaylistSource) == 0 {
			showWarning(2001)
			httpStatusError(w, r, 404)
			return
		}

		body, err = buildPlaylistDatabase(r.Context())
		if err != nil {
			childSpan.RecordError(err)
			httpStatusError(w, r, 502)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	case "/api/epg":
		_, childSpan := otel.Tracer("webserver").Start(r.Context(), "epg")
		defer childSpan.End()

		body, err = buildGuideDatabase(r.Context())
		if err != nil {
			childSpan.RecordError(err)
			httpStatusError(w, r, 502)
			return
		}

		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	default:
		httpStatusError(w, r, 404)
		return
	}

	w.WriteHeader(200)
	if _, writeErr := w.Write(body); writeErr != nil {
		log.Printf("Error writing response in TVGate handler: %v", writeErr)
	}
}

// Status : Server status /api/status
func Status(w http.ResponseWriter, r *http.Request) {
	var report = getStatusReport()

	w.Header().Set("Content-Type", "application/json")
	if _, writeErr := w.Write([]byte(mapToJSON(report))); writeErr != nil {
		log.Printf("Error writing response in Status handler: %v", writeErr)
	}
}

// Channels : Filtered channel list /api/channels
func Channels(w http.ResponseWriter, r *http.Request) {
	_, childSpan := otel.Tracer("webserver").Start(r.Context(), "channels")
	defer childSpan.End()

	var query = r.URL.Query()

	channels, categories := ChannelsForView(engine.Channels(), query.Get("view"), query.Get("category"), query.Get("search"))

	var response ChannelResponseStruct
	response.Categories = categories
	response.Channels = make([]Channel, 0, len(channels))
	response.Count = len(channels)

	for _, channel := range channels {
		if imgCache != nil && len(channel.Logo) > 0 {
			channel.Logo = imgCache.Image.GetURL(channel.Logo)
		}
		response.Channels = append(response.Channels, channel)
	}

	w.Header().Set("Content-Type", "application/json")
	if _, writeErr := w.Write([]byte(mapToJSON(response))); writeErr != nil {
		log.Printf("Error writing response in Channels handler: %v", writeErr)
	}
}

// Guide : Current and next programme of a channel /api/guide
func Guide(w http.ResponseWriter, r *http.Request) {
	var name = r.URL.Query().Get("channel")
	if len(name) == 0 {
		httpStatusError(w, r, 400)
		return
	}

	var now = time.Now()
	var response GuideResponseStruct
	response.Channel = name
	response.Current = engine.CurrentProgram(name, now)
	response.Next = engine.NextProgram(name, now)

	w.Header().Set("Content-Type", "application/json")
	if _, writeErr := w.Write([]byte(mapToJSON(response))); writeErr != nil {
		log.Printf("Error writing response in Guide handler: %v", writeErr)
	}
}

// Images : Image Cache /images/
func Images(w http.ResponseWriter, r *http.Request) {
	var path = strings.TrimPrefix(r.URL.Path, "/")
	var filePath = System.Folder.ImagesCache + filepath.Base(path)

	content, err := readByteFromFile(filePath)
	if err != nil {
		trace.SpanFromContext(r.Context()).RecordError(err)
		httpStatusError(w, r, 404)
		return
	}

	// SVG logos are served sandboxed, scripts inside them never run
	w.Header().Set("Content-Security-Policy", "sandbox; default-src 'none'; img-src 'self'; style-src 'unsafe-inline';")
	w.Header().Add("Content-Type", getContentType(filePath))
	w.Header().Add("Content-Length", fmt.Sprintf("%d", len(content)))
	w.WriteHeader(200)
	if _, writeErr := w.Write(content); writeErr != nil {
		log.Printf("Error writing image response in Images handler: %v", writeErr)
	}
}

// WS : Web Sockets /ws
func WS(w http.ResponseWriter, r *http.Request) {
	var err error

	u := websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024}

	conn, err := u.Upgrade(w, r, w.Header())
	if err != nil {
		ShowError(err, 0)
		http.Error(w, "Could not open websocket connection", http.StatusBadRequest)
		return
	}
	// The connection has been hijacked. ConnState will receive StateHijacked and will NOT receive StateClosed.
	// We must manually decrement the counter when this handler exits.
	defer atomic.AddInt64(&activeHTTPConnections, -1)
	defer conn.Close()

	// Limit WebSocket message size to 32MB
	conn.SetReadLimit(33554432)

	setGlobalDomain(r.Host)

	for {
		var request RequestStruct
		var response ResponseStruct
		response.Status = true

		select {
		case response.Alert = <-webAlerts:
		//
		default:
			//
		}

		err = conn.ReadJSON(&request)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Error reading websocket message: %v", err)
			}
			break // Exit the loop on error
		}

		switch request.Cmd {
		case "updateLog":
			(&response).setDefaultResponseData(false)
			if errWrite := conn.WriteJSON(&response); errWrite != nil {
				log.Printf("Error writing JSON response (updateLog): %v", errWrite)
				break // Exit loop
			}
			continue
		case "refreshPlaylist":
			_, err = buildPlaylistDatabase(context.WithoutCancel(r.Context()))
		case "refreshGuide":
			_, err = buildGuideDatabase(context.WithoutCancel(r.Context()))
		case "status":
			var report = getStatusReport()
			response.StatusReport = &report
		case "saveSettings":
			var previousTLSMode = Settings.TLSMode
			var previousHostIP = Settings.HostIP
			var previousHostName = Settings.HostName
			var previousStoreCacheInRAM = Settings.StoreCacheInRAM

			response.Settings, err = updateServerSettings(request)
			if err == nil {
				if Settings.TLSMode != previousTLSMode {
					showInfo("Web server:" + "Toggling TLS mode")
					reinitialize()
					response.OpenLink = System.URLBase + "/web/"
					restartWebserver <- true
				}

				if Settings.HostIP != previousHostIP {
					showInfo("Web server:" + fmt.Sprintf("Changing host IP to %s", Settings.HostIP))
					reinitialize()
					response.OpenLink = System.URLBase + "/web/"
					restartWebserver <- true
				}

				if Settings.HostName != previousHostName {
					showInfo("Web server:" + fmt.Sprintf("Changing host name to %s", Settings.HostName))
					reinitialize()
					response.OpenLink = System.URLBase + "/web/"
					restartWebserver <- true
				}

				if Settings.StoreCacheInRAM != previousStoreCacheInRAM {
					documentCache, err = filecache.New(System.Folder.Cache, initCacheVFS(Settings.StoreCacheInRAM))
					if err != nil {
						ShowError(err, 0)
						err = nil
					}
				}
			}
		case "resetLogs":
			WebScreenLog.Mu.Lock()
			WebScreenLog.Log = make([]string, 0)
			WebScreenLog.Errors = 0
			WebScreenLog.Warnings = 0
			WebScreenLog.Mu.Unlock()
		default:
			err = errors.New(getErrMsg(5000))
		}

		if err != nil {
			response.Status = false
			response.Error = err.Error()
			response.Settings = Settings
		}

		(&response).setDefaultResponseData(true)

		if errWrite := conn.WriteJSON(&response); errWrite != nil {
			log.Printf("Error writing main JSON response in WS handler: %v", errWrite)
			break
		}
	}
}

// Web : Web Server /web/
func Web(w http.ResponseWriter, r *http.Request) {
	var path = r.URL.Path
	var contentBytes []byte
	var err error

	setGlobalDomain(r.Host)

	if path == "/web" || path == "/web/" {
		path = "/web/index.html"
	}

	var requestFile = strings.Replace(path, "/web/", "html/", 1)

	// The resolved path has to stay inside the web root
	if strings.Contains(requestFile, "..") {
		httpStatusError(w, r, 403)
		return
	}

	switch System.Dev {
	case true:
		// Files are loaded from the local file system
		contentBytes, err = os.ReadFile("src/" + requestFile)
	case false:
		contentBytes, err = webUI.ReadFile(requestFile)
	}

	if err != nil {
		switch errors.Is(err, fs.ErrNotExist) {
		case true:
			httpStatusError(w, r, 404)
		case false:
			httpStatusError(w, r, 500)
		}
		return
	}

	w.Header().Add("Content-Type", getContentType(requestFile))
	w.WriteHeader(200)
	if _, writeErr := w.Write(contentBytes); writeErr != nil {
		log.Printf("Error writing response in Web handler: %v", writeErr)
	}
}

// API : API request /api/
func API(w http.ResponseWriter, r *http.Request) {
	// Unix socket connections carry no client IP in RemoteAddr
	isUnixSocket := strings.HasPrefix(r.RemoteAddr, "@") || r.RemoteAddr == ""

	if !isUnixSocket {
		// For TCP connections, enforce loopback restriction
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			trace.SpanFromContext(r.Context()).RecordError(err)
			ShowError(fmt.Errorf("API: error parsing RemoteAddr '%s': %w", r.RemoteAddr, err), 0)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		ip := net.ParseIP(host)
		if ip == nil {
			ShowError(fmt.Errorf("API: error parsing IP from host '%s' in RemoteAddr '%s'", host, r.RemoteAddr), 0)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		if !ip.IsLoopback() {
			showWarning(2023)
			http.Error(w, "Forbidden - API access is restricted to localhost.", http.StatusForbidden)
			return
		}
	}

	/*
		Example API request with curl
		Status:
		curl -X POST -H "Content-Type: application/json" -d '{"cmd":"status"}' http://localhost:34400/api/

		Refresh the playlist:
		curl -X POST -H "Content-Type: application/json" -d '{"cmd":"update.playlist"}' http://localhost:34400/api/
	*/

	setGlobalDomain(r.Host)

	var request APIRequestStruct
	var response APIResponseStruct

	var responseAPIError = func(err error) {
		var response APIResponseStruct

		response.Status = false
		response.Error = err.Error()
		if _, writeErr := w.Write([]byte(mapToJSON(response))); writeErr != nil {
			log.Printf("Error writing error JSON response in API handler: %v", writeErr)
		}
	}

	response.Status = true

	if r.Method == "GET" {
		httpStatusError(w, r, 404)
		return
	}

	// Enforce Content-Type, the header may include a charset
	if !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		httpStatusError(w, r, http.StatusUnsupportedMediaType)
		return
	}

	// The APIRequestStruct is small, 1MB is more than enough
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	b, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		httpStatusError(w, r, 400)
		return
	}

	err = json.Unmarshal(b, &request)
	if err != nil {
		httpStatusError(w, r, 400)
		return
	}

	w.Header().Set("content-type", "application/json")

	switch request.Cmd {
	case "status":
		var counts = engine.Counts()

		response.VersionTvgate = System.Version
		response.VersionAPI = System.APIVersion
		response.ActiveConnections = atomic.LoadInt64(&activeHTTPConnections)
		response.Channels = counts.Channels
		response.AllowedHosts = counts.AllowedHosts
		response.GuideChannels = counts.GuideChannels
		response.GuidePrograms = counts.GuidePrograms
		response.URLDav = System.ServerProtocol.DAV + "://" + System.Domain + "/dav/"
	case "update.playlist":
		_, err = buildPlaylistDatabase(context.WithoutCancel(r.Context()))
	case "update.guide":
		_, err = buildGuideDatabase(context.WithoutCancel(r.Context()))
	case "backup":
		response.BackupArchive, err = tvgateBackup()
	default:
		err = errors.New(getErrMsg(5000))
	}

	if err != nil {
		responseAPIError(err)
		return
	}

	if _, writeErr := w.Write([]byte(mapToJSON(response))); writeErr != nil {
		log.Printf("Error writing main JSON response in API handler: %v", writeErr)
	}
}

// addWebAlert : Queue an alert for the next WebSocket response. The alert
// is dropped when no client picks it up in time.
func addWebAlert(message string) {
	select {
	case webAlerts <- message:
	default:
	}
}

func (rs *ResponseStruct) setDefaultResponseData(data bool) {
	// Always transfer the following Data to the Client
	rs.ClientInfo.ARCH = System.ARCH
	rs.ClientInfo.DAV = System.ServerProtocol.DAV + "://" + System.Domain + "/dav/"
	rs.ClientInfo.OS = System.OS
	rs.ClientInfo.UUID = Settings.UUID
	rs.ClientInfo.Version = fmt.Sprintf("%s (%s)", System.Version, System.Build)
	WebScreenLog.Mu.RLock()
	rs.ClientInfo.Errors = WebScreenLog.Errors
	rs.ClientInfo.Warnings = WebScreenLog.Warnings
	WebScreenLog.Mu.RUnlock()
	rs.IPAddressesV4Host = System.IPAddressesV4Host
	rs.Notification = System.Notification
	rs.Log = &WebScreenLog

	if data {
		rs.Settings = Settings
	}
}

// getStatusReport : Counts and flags for the status endpoint, the
// configured source URLs are left out
func getStatusReport() (status StatusStruct) {
	var counts = engine.Counts()

	status.ActiveConnections = atomic.LoadInt64(&activeHTTPConnections)
	status.AllowedHosts = counts.AllowedHosts
	status.Channels = counts.Channels
	status.GuideAvailability = Settings.Provider.Guide.Availability
	status.GuideChannels = counts.GuideChannels
	status.GuideConfigured = len(Settings.GuideSource) > 0
	status.GuideLastUpdate = Settings.Provider.Guide.LastUpdate
	status.GuidePrograms = counts.GuidePrograms
	status.GuideSkipped = counts.GuideSkipped
	status.PlaylistAvailability = Settings.Provider.Playlist.Availability
	status.PlaylistConfigured = len(Settings.PlaylistSource) > 0
	status.PlaylistLastUpdate = Settings.Provider.Playlist.LastUpdate
	status.UptimeSeconds = int64(time.Since(startTime).Seconds())
	status.Version = fmt.Sprintf("%s (%s)", System.Version, System.Build)

	WebScreenLog.Mu.RLock()
	status.Errors = WebScreenLog.Errors
	status.Warnings = WebScreenLog.Warnings
	WebScreenLog.Mu.RUnlock()
	return
}

// withRouteTag wraps a handler to manually add the http.route attribute to spans and metrics.
// This is necessary because otelhttp.WithRouteTag is deprecated, and automatic route detection
// works best when handlers are wrapped directly, not when using a global middleware over a mux.
func withRouteTag(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if route := r.Pattern; route != "" {
			if labeler, ok := otelhttp.LabelerFromContext(r.Context()); ok {
				labeler.Add(attribute.String("http.route", route))
			}
			trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("http.route", route))
		}
		next.ServeHTTP(w, r)
	})
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src * data:; font-src 'self' data:; connect-src 'self'; media-src *; object-src 'none';")

		if Settings.TLSMode {
			w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

func panicMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				span := trace.SpanFromContext(r.Context())

				var panicErr error
				switch x := err.(type) {
				case string:
					panicErr = errors.New(x)
				case error:
					panicErr = x
				default:
					panicErr = fmt.Errorf("panic: %v", x)
				}

				span.RecordError(panicErr)
				span.SetStatus(codes.Error, panicErr.Error())

				panic(err)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func newHTTPHandler() http.Handler {
	mux := http.NewServeMux()

	handleFunc := func(pattern string, handlerFunc func(http.ResponseWriter, *http.Request)) {
		mux.Handle(pattern, withRouteTag(http.HandlerFunc(handlerFunc)))
	}

	handleFunc("/", Index)
	handleFunc("/web/", Web)
	handleFunc("/ws", WS)
	handleFunc("/images/", Images)
	handleFunc("/api/", API)
	handleFunc("/api/playlist", TVGate)
	handleFunc("/api/epg", TVGate)
	handleFunc("/api/proxy", proxyStream)
	handleFunc("/api/status", Status)
	handleFunc("/api/channels", Channels)
	handleFunc("/api/guide", Guide)

	davHandler := &webdav.Handler{
		Prefix:     "/dav/",
		FileSystem: &webdavFS{},
		LockSystem: webdav.NewMemLS(),
		Logger: func(r *http.Request, err error) {
			if err != nil {
				log.Printf("WEBDAV ERROR: %s", err)
				span := trace.SpanFromContext(r.Context())
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
		},
	}
	mux.Handle("/dav/", withRouteTag(davHandler))

	handler := panicMiddleware(mux)
	handler = securityHeadersMiddleware(handler)
	handler = otelhttp.NewHandler(handler, "/")
	return handler
}

func httpStatusError(w http.ResponseWriter, _ *http.Request, httpStatusCode int) {
	http.Error(w, fmt.Sprintf("%s [%d]", http.StatusText(httpStatusCode), httpStatusCode), httpStatusCode)
}

func getContentType(filename string) string {
	return cmp.Or(mime.TypeByExtension(filepath.Ext(filename)), "text/plain")
}
