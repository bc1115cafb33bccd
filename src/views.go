package src

import "strings"

// viewRule : One entry of the channel classification table
type viewRule struct {
	view  string
	match func(name, group string) bool
}

// viewRules : Checked in order. A channel can match more than one view,
// a channel matching none of the rules counts as live television.
var viewRules = []viewRule{
	{"movies", hasMovieMarker},
	{"series", hasSeriesMarker},
}

func hasMovieMarker(name, group string) bool {
	for _, marker := range []string{"movie", "film", "vod", "cinema"} {
		if strings.Contains(name, marker) || strings.Contains(group, marker) {
			return true
		}
	}

	return false
}

func hasSeriesMarker(name, group string) bool {
	for _, marker := range []string{"series", "serial", "season", "episode"} {
		if strings.Contains(name, marker) || strings.Contains(group, marker) {
			return true
		}
	}

	// Season and episode numbering in the channel name, "Show S01E02"
	return strings.Contains(name, "s0") || strings.Contains(name, "e0")
}

// matchesView : Reports whether the channel belongs to the view. Name and
// group are compared in lower case, an unknown view name passes every
// channel through.
func matchesView(channel Channel, view string) bool {
	var name = strings.ToLower(channel.Name)
	var group = strings.ToLower(channel.Group)

	if view == "live-tv" {
		for _, rule := range viewRules {
			if rule.match(name, group) {
				return false
			}
		}

		return true
	}

	for _, rule := range viewRules {
		if rule.view == view {
			return rule.match(name, group)
		}
	}

	return true
}

// ChannelsForView : Channels of a view together with the category facet of
// that view. The facet starts with the synthetic category "all", the
// remaining groups keep their first appearance order. The category and
// search filters narrow the channel list further, the facet always covers
// the whole view.
func ChannelsForView(channels []Channel, view, category, search string) (filtered []Channel, categories []string) {
	filtered = make([]Channel, 0)
	categories = []string{"all"}

	var seen = make(map[string]struct{})
	search = strings.ToLower(search)

	for _, channel := range channels {
		if !matchesView(channel, view) {
			continue
		}

		if _, ok := seen[channel.Group]; !ok {
			seen[channel.Group] = struct{}{}
			categories = append(categories, channel.Group)
		}

		if len(category) > 0 && category != "all" && channel.Group != category {
			continue
		}

		if len(search) > 0 && !strings.Contains(strings.ToLower(channel.Name), search) {
			continue
		}

		filtered = append(filtered, channel)
	}

	return
}
