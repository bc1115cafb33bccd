package src

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// RouteKind : Transport family of a playback session
type RouteKind string

const (
	RouteHLS    RouteKind = "hls"
	RouteTS     RouteKind = "ts"
	RouteDirect RouteKind = "direct"
)

// ErrorClass : Class of a fatal playback error reported by the player
type ErrorClass string

const (
	ErrorNetwork ErrorClass = "network"
	ErrorMedia   ErrorClass = "media"
	ErrorOther   ErrorClass = "other"
)

// RecoveryAction : What the player engine is told to do after a fatal error
type RecoveryAction string

const (
	ActionReloadSource   RecoveryAction = "reloadSource"
	ActionRecoverDecoder RecoveryAction = "recoverDecoder"
	ActionTeardown       RecoveryAction = "teardown"
)

// Player : Capabilities of the connected player runtime. The engines
// behind it live in the player host, not here.
type Player interface {
	CanPlayLiveMSE() bool
	CanPlayNatively(streamURL string) bool
}

// Session : Single active playback session
type Session struct {
	Channel     Channel   `json:"channel"`
	Route       RouteKind `json:"route"`
	PlaybackURL string    `json:"playbackUrl"`
	Fallback    bool      `json:"fallback"`

	// Rewrite wraps the request URLs of an HLS player behind the proxy
	Rewrite func(string) string `json:"-"`

	// OnTeardown is called once when the session ends
	OnTeardown func() `json:"-"`

	mutex       sync.Mutex
	closed      bool
	reloadUsed  bool
	recoverUsed bool
}

// Close : End the session. Closing twice has no effect.
func (s *Session) Close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return
	}

	s.closed = true
	if s.OnTeardown != nil {
		s.OnTeardown()
	}
}

// Active : Reports whether the session has not been torn down yet
func (s *Session) Active() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return !s.closed
}

// Recover : Recovery decision for a fatal playback error. An HLS session
// gets one source reload for a network error and one decoder recovery for
// a media error, every further error tears the session down. TS and direct
// sessions are never recovered, their errors are surfaced as they are.
func (s *Session) Recover(class ErrorClass) RecoveryAction {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed || s.Route != RouteHLS {
		return ActionTeardown
	}

	switch class {
	case ErrorNetwork:
		if !s.reloadUsed {
			s.reloadUsed = true
			return ActionReloadSource
		}
	case ErrorMedia:
		if !s.recoverUsed {
			s.recoverUsed = true
			return ActionRecoverDecoder
		}
	}

	return ActionTeardown
}

// Resolver : Decides how a channel is played back and keeps the single
// active session. Starting a new session always tears the prior one down
// first.
type Resolver struct {
	player    Player
	proxyPath string

	mutex   sync.Mutex
	current *Session
}

// NewResolver : Resolver for the given player runtime
func NewResolver(player Player) *Resolver {
	return &Resolver{
		player:    player,
		proxyPath: "/api/proxy",
	}
}

// Resolve : Route decision for a channel.
//
// A playlist URL is played as HLS behind the proxy, with a rewriter for
// the segment requests of the player. Everything else becomes a single
// proxied TS stream when the player can feed live MSE streams, a direct
// stream when the runtime plays the format natively, and a plain direct
// attempt otherwise. The failure of a plain attempt means the format is
// unsupported, it is not retried.
func (r *Resolver) Resolve(channel Channel) (session *Session) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.current != nil {
		r.current.Close()
		r.current = nil
	}

	session = &Session{Channel: channel}

	switch {
	case strings.Contains(channel.URL, ".m3u8"):
		session.Route = RouteHLS
		session.PlaybackURL = r.proxyURL(channel.URL)
		session.Rewrite = r.proxyURL

	case r.player != nil && r.player.CanPlayLiveMSE():
		session.Route = RouteTS
		session.PlaybackURL = r.proxyURL(channel.URL)

	case r.player != nil && r.player.CanPlayNatively(channel.URL):
		session.Route = RouteDirect
		session.PlaybackURL = channel.URL

	default:
		session.Route = RouteDirect
		session.PlaybackURL = channel.URL
		session.Fallback = true
	}

	r.current = session
	return
}

// Current : The active session, nil when nothing is playing
func (r *Resolver) Current() *Session {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.current
}

// Stop : Tear the active session down
func (r *Resolver) Stop() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.current != nil {
		r.current.Close()
		r.current = nil
	}
}

// proxyURL : Wrap a stream URL as a proxy request. URLs already addressed
// to the proxy endpoint pass unchanged.
func (r *Resolver) proxyURL(streamURL string) string {
	if strings.Contains(streamURL, r.proxyPath+"?") {
		return streamURL
	}

	return fmt.Sprintf("%s?url=%s", r.proxyPath, url.QueryEscape(streamURL))
}
