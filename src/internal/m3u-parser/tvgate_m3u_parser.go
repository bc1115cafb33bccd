package m3u

import (
	"bufio"
	"bytes"
	"strings"
)

// Fallback values for missing channel metadata.
const (
	FallbackName  = "Unknown Channel"
	FallbackGroup = "Uncategorized"
)

// Channel : Single channel record of an extended M3U playlist.
type Channel struct {
	Name  string `json:"name"`
	Group string `json:"group"`
	Logo  string `json:"logo"`
	URL   string `json:"url"`
}

// Parse : Scan an extended M3U document and collect all channel records.
// Defective lines are skipped, they never abort the scan. A degenerate or
// empty document yields an empty result.
func Parse(byteStream []byte) (channels []Channel) {

	var scanner = bufio.NewScanner(bytes.NewReader(byteStream))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var pending *Channel
	var groupDirective string

	for scanner.Scan() {

		var line = strings.TrimSpace(scanner.Text())

		switch {

		case len(line) == 0:
			// Blank lines between records are allowed

		case strings.HasPrefix(line, "#EXTINF"):
			// A new metadata line replaces an unconsumed one, a record
			// without a stream URL is never emitted
			var channel = parseMetaData(line)
			pending = &channel

		case strings.HasPrefix(line, "#EXTGRP:"):
			groupDirective = strings.TrimSpace(line[len("#EXTGRP:"):])

		case strings.HasPrefix(line, "#"):
			// Other directives carry no channel information

		default:
			if pending == nil {
				break
			}

			pending.URL = line

			if len(pending.Group) == 0 {
				pending.Group = groupDirective
			}

			if len(pending.Group) == 0 {
				pending.Group = FallbackGroup
			}

			channels = append(channels, *pending)
			pending = nil

		}

	}

	return
}

// parseMetaData : Extract the attributes and the display name from one
// metadata line.
func parseMetaData(line string) (channel Channel) {

	var attributes = parseAttributes(line)

	channel.Name = channelName(line)

	if len(channel.Name) == 0 {
		channel.Name = attributes["tvg-name"]
	}

	if len(channel.Name) == 0 {
		channel.Name = FallbackName
	}

	channel.Group = attributes["group-title"]
	channel.Logo = attributes["tvg-logo"]

	return
}

// parseAttributes : Collect all key="value" pairs of a metadata line.
// Keys carrying a tvg prefix are normalized to lower case.
func parseAttributes(line string) (attributes map[string]string) {

	attributes = make(map[string]string)

	for searchPos := 0; searchPos < len(line); {

		var eq = strings.IndexByte(line[searchPos:], '=')
		if eq == -1 {
			break
		}

		eq += searchPos

		// Only quoted values are attributes, a bare '=' belongs to the
		// surrounding text
		if eq+1 >= len(line) || line[eq+1] != '"' {
			searchPos = eq + 1
			continue
		}

		var keyStart = strings.LastIndexAny(line[:eq], " ,") + 1
		var key = line[keyStart:eq]

		var valueStart = eq + 2
		var closing = strings.IndexByte(line[valueStart:], '"')
		if closing == -1 {
			break
		}

		var value = line[valueStart : valueStart+closing]

		if strings.Contains(strings.ToLower(key), "tvg") {
			key = strings.ToLower(key)
		}

		if len(key) > 0 {
			attributes[key] = value
		}

		searchPos = valueStart + closing + 1

	}

	return
}

// channelName : Return the text behind the last comma that is not part of
// a quoted attribute value.
func channelName(line string) (name string) {

	var inQuote bool
	var lastComma = -1

	for pos, r := range line {
		switch r {
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				lastComma = pos
			}
		}
	}

	if lastComma == -1 {
		return
	}

	return strings.TrimSpace(line[lastComma+1:])
}
