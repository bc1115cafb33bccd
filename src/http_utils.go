package src

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	tvgateTransport     *http.Transport
	tvgateTransportOnce sync.Once
)

// getTvgateTransport : Shared transport with the guarded dialer. All outbound
// requests, provider downloads and gateway forwards alike, go through it.
func getTvgateTransport() *http.Transport {
	tvgateTransportOnce.Do(func() {
		if t, ok := http.DefaultTransport.(*http.Transport); ok {
			tvgateTransport = t.Clone()
		} else {
			tvgateTransport = &http.Transport{
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			}
		}
		tvgateTransport.DialContext = dialContextWithRetry
	})
	return tvgateTransport
}

// dialContextWithRetry : Dials with a connection guard and retries transient
// dial failures. The guard rejects loopback, link local and unspecified targets
// unless TVGATE_ALLOW_LOOPBACK=true is set.
func dialContextWithRetry(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
		Control: func(network, address string, c syscall.RawConn) error {
			if os.Getenv("TVGATE_ALLOW_LOOPBACK") == "true" {
				return nil
			}

			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return fmt.Errorf("SSRF protection: invalid address %s: %w", address, err)
			}

			ip := net.ParseIP(host)
			if ip == nil {
				return fmt.Errorf("SSRF protection: unable to parse IP %s", host)
			}

			if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
				return fmt.Errorf("SSRF protection: access to address %s is denied", host)
			}
			return nil
		},
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		conn, err := dialer.DialContext(ctx, network, addr)
		if err == nil {
			return conn, nil
		}
		lastErr = err

		// The guard rejection is permanent, retrying would not change it
		if strings.Contains(err.Error(), "SSRF protection") {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	return nil, lastErr
}

// NewHTTPClient : HTTP Client for downloads from the playlist and guide providers
func NewHTTPClient() *http.Client {
	jar, err := cookiejar.New(nil)
	if err != nil {
		ShowError(err, 0)
	}

	return &http.Client{
		Jar:       jar,
		Transport: otelhttp.NewTransport(getTvgateTransport()),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}

			span := trace.SpanFromContext(req.Context())
			if span.IsRecording() {
				span.SetAttributes(attribute.Int("http.redirect_count", len(via)))
				span.AddEvent("http.redirect", trace.WithAttributes(
					attribute.String("http.redirect.url", req.URL.String()),
				))
			}
			return nil
		},
	}
}

var (
	proxyClient     *http.Client
	proxyClientOnce sync.Once
)

// getProxyClient : Shared client for the streaming gateway, created on first use
// with the configured upstream timeout
func getProxyClient() *http.Client {
	proxyClientOnce.Do(func() {
		proxyClient = newProxyClient(time.Duration(Settings.ProxyTimeout * float64(time.Second)))
	})
	return proxyClient
}

// newProxyClient : HTTP Client for forwarding streams. One redirect is followed,
// a second redirect response is handed back to the caller untouched.
func newProxyClient(timeout time.Duration) *http.Client {
	transport := getTvgateTransport().Clone()
	transport.ResponseHeaderTimeout = timeout

	return &http.Client{
		Transport: otelhttp.NewTransport(transport),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 2 {
				return http.ErrUseLastResponse
			}

			span := trace.SpanFromContext(req.Context())
			if span.IsRecording() {
				span.AddEvent("http.redirect", trace.WithAttributes(
					attribute.String("http.redirect.url", req.URL.String()),
				))
			}
			return nil
		},
	}
}

// ConnectWithRetry : Executes the request and retries transient failures based
// on the fetch retry settings. Responses with a 5xx status count as transient.
func ConnectWithRetry(client *http.Client, req *http.Request) (resp *http.Response, err error) {
	var maxRetries = 1
	var retryDelay = 0

	if Settings.FetchRetryEnabled {
		maxRetries = Settings.FetchMaxRetries
		retryDelay = Settings.FetchRetryDelay
	}

	if maxRetries < 1 {
		maxRetries = 1
	}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		resp, err = client.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return
		}

		if err == nil {
			resp.Body.Close()
			err = fmt.Errorf("server status %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}

		if attempt < maxRetries {
			var debug = fmt.Sprintf("Download:Attempt %d of %d failed (%s)", attempt, maxRetries, err)
			showDebug(debug, 1)

			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(time.Duration(retryDelay) * time.Millisecond):
			}
		}
	}
	return nil, err
}

func debugRequest(req *http.Request) {
	var debugLevel = 3

	if System.Flag.Debug < debugLevel {
		return
	}

	var debug string

	fmt.Println()
	debug = "Request:* * * * * * BEGIN HTTP(S) REQUEST * * * * * * "
	showDebug(debug, debugLevel)

	debug = fmt.Sprintf("Method:%s", req.Method)
	showDebug(debug, debugLevel)

	debug = fmt.Sprintf("Proto:%s", req.Proto)
	showDebug(debug, debugLevel)

	debug = fmt.Sprintf("URL:%s", req.URL)
	showDebug(debug, debugLevel)

	for name, headers := range req.Header {
		name = strings.ToLower(name)

		for _, h := range headers {
			debug = fmt.Sprintf("Header:%v: %v", name, h)
			showDebug(debug, debugLevel)
		}
	}

	debug = "Request:* * * * * * END HTTP(S) REQUEST * * * * * *"
	showDebug(debug, debugLevel)
}

func debugResponse(resp *http.Response) {
	var debugLevel = 3

	if System.Flag.Debug < debugLevel {
		return
	}

	var debug string

	fmt.Println()

	debug = "Response:* * * * * * BEGIN RESPONSE * * * * * * "
	showDebug(debug, debugLevel)

	debug = fmt.Sprintf("Proto:%s", resp.Proto)
	showDebug(debug, debugLevel)

	debug = fmt.Sprintf("Status Code:%d", resp.StatusCode)
	showDebug(debug, debugLevel)

	debug = fmt.Sprintf("Status Text:%s", http.StatusText(resp.StatusCode))
	showDebug(debug, debugLevel)

	for key, value := range resp.Header {
		debug = fmt.Sprintf("Header:%v: %s", key, strings.Join(value, " "))
		showDebug(debug, debugLevel)
	}

	debug = "Response:* * * * * * END RESPONSE * * * * * * "
	showDebug(debug, debugLevel)
}
