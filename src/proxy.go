package src

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/CAFxX/bytespool"

	"tvgate/src/mpegts"
)

// proxyUserAgent is sent upstream in place of the client's own header, the
// upstream sees every request as coming from the same plain player.
const proxyUserAgent = "VLC/3.0.18 LibVLC/3.0.18"

// streamBuffers recycles the copy buffers of the proxied responses
var streamBuffers = bytespool.GetBufferPool(64 * 1024)

// validateProxyTarget : Check the url parameter of a proxy request. The
// hostname must belong to a stream of the current playlist.
func validateProxyTarget(rawURL string) (target *url.URL, code int, err error) {
	if len(rawURL) == 0 {
		return nil, 3001, errors.New(getErrMsg(3001))
	}

	target, parseErr := url.ParseRequestURI(rawURL)
	if parseErr != nil || (target.Scheme != "http" && target.Scheme != "https") || len(target.Hostname()) == 0 {
		return nil, 3002, errors.New(getErrMsg(3002))
	}

	if !engine.AllowedHost(target.Hostname()) {
		return nil, 3003, errors.New(getErrMsg(3003))
	}

	return target, 0, nil
}

// Proxy : Stream an upstream resource to the client (GET /api/proxy?url=)
func proxyStream(w http.ResponseWriter, r *http.Request) {
	var rawURL = r.URL.Query().Get("url")

	target, code, err := validateProxyTarget(rawURL)
	if err != nil {

		switch code {
		case 3003:
			showDebug(fmt.Sprintf("Proxy:Rejected host (%s)", rawURL), 1)
			showWarning(3003)
			httpStatusError(w, r, 403)
		default:
			httpStatusError(w, r, 400)
		}

		return
	}

	req, err := http.NewRequestWithContext(r.Context(), "GET", target.String(), nil)
	if err != nil {
		httpStatusError(w, r, 400)
		return
	}

	req.Header.Set("User-Agent", proxyUserAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := getProxyClient().Do(req)
	if err != nil {

		switch isTimeout(err) {
		case true:
			ShowError(err, 3005)
			httpStatusError(w, r, 504)
		case false:
			ShowError(err, 3004)
			httpStatusError(w, r, 502)
		}

		return
	}
	defer resp.Body.Close()

	// Only the media headers reach the client
	if contentType := resp.Header.Get("Content-Type"); len(contentType) > 0 {
		w.Header().Set("Content-Type", contentType)
	}

	if contentLength := resp.Header.Get("Content-Length"); len(contentLength) > 0 {
		w.Header().Set("Content-Length", contentLength)
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(resp.StatusCode)

	copyStream(r.Context(), w, resp.Body)
}

// isTimeout : Reports whether an upstream error was caused by the proxy
// timeout rather than by the upstream itself
func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded)
}

// copyStream : Stream the upstream body to the client. The fixed size
// buffer propagates consumer stalls upstream, a closed client connection
// or a cancelled request ends the copy.
func copyStream(ctx context.Context, w http.ResponseWriter, body io.Reader) {
	var buffer = streamBuffers.Get()
	defer streamBuffers.Put(buffer)

	flusher, _ := w.(http.Flusher)
	var sniffed bool

	for {

		select {
		case <-ctx.Done():
			return
		default:
		}

		n, readErr := body.Read(buffer)
		if n > 0 {

			if !sniffed && System.Flag.Debug > 0 {
				sniffed = true
				if mpegts.Sniff(buffer[:n]) {
					showDebug("Proxy:Forwarding an MPEG-TS stream", 1)
				}
			}

			if _, writeErr := w.Write(buffer[:n]); writeErr != nil {
				return
			}

			if flusher != nil {
				flusher.Flush()
			}
		}

		if readErr != nil {
			if readErr != io.EOF {
				showDebug(fmt.Sprintf("Proxy:Upstream read ended (%s)", readErr), 1)
			}
			return
		}
	}
}
