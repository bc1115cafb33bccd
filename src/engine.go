package src

import (
	"net/url"
	"strings"
	"sync"
	"time"

	xmltv "tvgate/src/internal/xmltv-parser"
)

// Channel : Playlist channel enriched with the correlated guide programmes
type Channel struct {
	Name     string           `json:"name"`
	Group    string           `json:"group"`
	Logo     string           `json:"logo"`
	URL      string           `json:"url"`
	Programs []*xmltv.Program `json:"-"`
}

// EngineCounts : Snapshot of the engine content for the status reports
type EngineCounts struct {
	Channels       int
	AllowedHosts   int
	GuideChannels  int
	GuidePrograms  int
	GuideSkipped   int
	PlaylistUpdate time.Time
	GuideUpdate    time.Time
}

// Engine : In-memory channel list, guide index and proxy allow list. The
// build jobs swap complete snapshots, readers never see a half written
// state.
type Engine struct {
	mutex sync.RWMutex

	channels  []Channel
	guide     *xmltv.Index
	allowList map[string]struct{}

	playlistUpdate time.Time
	guideUpdate    time.Time
}

// NewEngine : Engine without channels, guide or allowed hosts
func NewEngine() *Engine {
	var e = new(Engine)
	e.allowList = make(map[string]struct{})
	return e
}

// SetChannels : Replace the channel list. The proxy allow list is rebuilt
// from the new stream URLs and swapped in the same step, a playlist that
// fails to ingest never leaves a half updated list behind.
func (e *Engine) SetChannels(channels []Channel) {
	var allowed = make(map[string]struct{})

	for _, channel := range channels {
		if u, err := url.Parse(channel.URL); err == nil {
			if host := strings.ToLower(u.Hostname()); host != "" {
				allowed[host] = struct{}{}
			}
		}
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.channels = channels
	e.allowList = allowed
	e.playlistUpdate = time.Now()
	e.correlate()
}

// SetGuide : Replace the guide index and correlate the channels against it
func (e *Engine) SetGuide(index *xmltv.Index) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.guide = index
	e.guideUpdate = time.Now()
	e.correlate()
}

// correlate : Attach the programme lists of the guide index to the
// channels. Caller holds the write lock.
func (e *Engine) correlate() {
	if e.guide == nil {
		return
	}

	for i := range e.channels {
		programs, _ := e.guide.Lookup(e.channels[i].Name)
		e.channels[i].Programs = programs
	}
}

// Channels : The current channel list. The slice is shared, callers must
// not modify it.
func (e *Engine) Channels() []Channel {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	return e.channels
}

// Guide : The current guide index, nil before the first guide ingest
func (e *Engine) Guide() *xmltv.Index {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	return e.guide
}

// AllowedHost : Reports whether a stream of the current playlist uses this
// host. Subdomains of an allowed host are allowed as well.
func (e *Engine) AllowedHost(host string) bool {
	host = strings.ToLower(host)

	e.mutex.RLock()
	defer e.mutex.RUnlock()

	if _, ok := e.allowList[host]; ok {
		return true
	}

	for entry := range e.allowList {
		if strings.HasSuffix(host, "."+entry) {
			return true
		}
	}

	return false
}

// Programs : Programme list for a channel name, nil when the guide has no
// entry for it
func (e *Engine) Programs(name string) (programs []*xmltv.Program) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	if e.guide == nil {
		return
	}

	programs, _ = e.guide.Lookup(name)
	return
}

// CurrentProgram : The first programme covering the given time. The start
// is part of the programme, the stop is not.
func (e *Engine) CurrentProgram(name string, now time.Time) *xmltv.Program {
	for _, program := range e.Programs(name) {
		if !program.Start.After(now) && program.Stop.After(now) {
			return program
		}
	}

	return nil
}

// NextProgram : The guide entry following the current programme. Without a
// current programme there is no next one.
func (e *Engine) NextProgram(name string, now time.Time) *xmltv.Program {
	var programs = e.Programs(name)

	for i, program := range programs {
		if !program.Start.After(now) && program.Stop.After(now) {
			if i+1 < len(programs) {
				return programs[i+1]
			}
			break
		}
	}

	return nil
}

// Counts : Snapshot of the channel, host and programme counters
func (e *Engine) Counts() (counts EngineCounts) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	counts.Channels = len(e.channels)
	counts.AllowedHosts = len(e.allowList)

	if e.guide != nil {
		counts.GuideChannels = e.guide.Channels()
		counts.GuidePrograms = e.guide.Entries()
		counts.GuideSkipped = e.guide.Skipped()
	}

	counts.PlaylistUpdate = e.playlistUpdate
	counts.GuideUpdate = e.guideUpdate
	return
}
