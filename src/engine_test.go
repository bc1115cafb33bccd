package src

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xmltv "tvgate/src/internal/xmltv-parser"
)

func testGuideIndex(t *testing.T) *xmltv.Index {
	var doc = `<?xml version="1.0" encoding="UTF-8"?>
<tv>
	<programme channel="Test" start="20040101090000 +0000" stop="20040101100000 +0000">
		<title>Morning Show</title>
	</programme>
	<programme channel="Test" start="20040101100000 +0000" stop="20040101110000 +0000">
		<title>Late Morning</title>
	</programme>
	<programme channel="News 24" start="20040101090000 +0000" stop="20040101230000 +0000">
		<title>Rolling News</title>
	</programme>
</tv>`

	index, err := xmltv.Parse([]byte(doc))
	require.NoError(t, err)
	return index
}

func TestEngineCorrelation(t *testing.T) {
	var e = NewEngine()

	e.SetChannels([]Channel{
		{Name: "Test", Group: "News", URL: "http://cdn.example.com/test.m3u8"},
		{Name: "TEST", Group: "News", URL: "http://cdn.example.com/test-hd.m3u8"},
		{Name: "Nowhere", Group: "News", URL: "http://cdn.example.com/nowhere.m3u8"},
	})
	e.SetGuide(testGuideIndex(t))

	var channels = e.Channels()
	require.Len(t, channels, 3)

	// Exact name match
	require.Len(t, channels[0].Programs, 2)
	assert.Equal(t, "Morning Show", channels[0].Programs[0].Title)

	// Different case binds to the same guide channel
	require.Len(t, channels[1].Programs, 2)
	assert.Equal(t, channels[0].Programs, channels[1].Programs)

	// No guide entry leaves the programme list empty
	assert.Empty(t, channels[2].Programs)
}

func TestEngineCorrelationAfterPlaylistSwap(t *testing.T) {
	var e = NewEngine()

	// The guide arrives first, a later playlist swap still correlates
	e.SetGuide(testGuideIndex(t))
	e.SetChannels([]Channel{
		{Name: "News 24", URL: "http://cdn.example.com/news.m3u8"},
	})

	var channels = e.Channels()
	require.Len(t, channels, 1)
	require.Len(t, channels[0].Programs, 1)
	assert.Equal(t, "Rolling News", channels[0].Programs[0].Title)
}

func TestEngineCurrentProgram(t *testing.T) {
	var e = NewEngine()
	e.SetGuide(testGuideIndex(t))

	var program = e.CurrentProgram("Test", time.Date(2004, 1, 1, 9, 30, 0, 0, time.UTC))
	require.NotNil(t, program)
	assert.Equal(t, "Morning Show", program.Title)

	// The stop time is not part of the programme, at 10:00 the successor
	// has already started
	program = e.CurrentProgram("Test", time.Date(2004, 1, 1, 10, 0, 0, 0, time.UTC))
	require.NotNil(t, program)
	assert.Equal(t, "Late Morning", program.Title)

	// Before the first and after the last entry there is no programme
	assert.Nil(t, e.CurrentProgram("Test", time.Date(2004, 1, 1, 8, 59, 0, 0, time.UTC)))
	assert.Nil(t, e.CurrentProgram("News 24", time.Date(2004, 1, 1, 23, 0, 0, 0, time.UTC)))

	// Unknown channel
	assert.Nil(t, e.CurrentProgram("Nowhere", time.Date(2004, 1, 1, 9, 30, 0, 0, time.UTC)))
}

func TestEngineNextProgram(t *testing.T) {
	var e = NewEngine()
	e.SetGuide(testGuideIndex(t))

	var program = e.NextProgram("Test", time.Date(2004, 1, 1, 9, 30, 0, 0, time.UTC))
	require.NotNil(t, program)
	assert.Equal(t, "Late Morning", program.Title)

	// The current programme is the last guide entry
	assert.Nil(t, e.NextProgram("Test", time.Date(2004, 1, 1, 10, 30, 0, 0, time.UTC)))

	// Without a current programme there is no next one
	assert.Nil(t, e.NextProgram("Test", time.Date(2004, 1, 1, 8, 0, 0, 0, time.UTC)))
}

func TestEngineAllowedHost(t *testing.T) {
	var e = NewEngine()

	e.SetChannels([]Channel{
		{Name: "Test", URL: "http://cdn.example.com/test.m3u8"},
		{Name: "Upper", URL: "https://CDN.Example.com:8080/upper.m3u8"},
	})

	assert.True(t, e.AllowedHost("cdn.example.com"))
	assert.True(t, e.AllowedHost("CDN.EXAMPLE.COM"))
	assert.True(t, e.AllowedHost("sub.cdn.example.com"))

	assert.False(t, e.AllowedHost("other.example.com"))
	assert.False(t, e.AllowedHost("example.com"))
	assert.False(t, e.AllowedHost("notcdn.example.com"))
	assert.False(t, e.AllowedHost(""))
}

func TestEngineAllowListSwap(t *testing.T) {
	var e = NewEngine()

	e.SetChannels([]Channel{{Name: "A", URL: "http://cdn-a.example.com/a.ts"}})
	require.True(t, e.AllowedHost("cdn-a.example.com"))

	// The new playlist replaces the allow list as a whole
	e.SetChannels([]Channel{{Name: "B", URL: "http://cdn-b.example.com/b.ts"}})
	assert.False(t, e.AllowedHost("cdn-a.example.com"))
	assert.True(t, e.AllowedHost("cdn-b.example.com"))
}

func TestEngineEmpty(t *testing.T) {
	var e = NewEngine()

	assert.Empty(t, e.Channels())
	assert.False(t, e.AllowedHost("cdn.example.com"))
	assert.Nil(t, e.CurrentProgram("Test", time.Now()))
	assert.Nil(t, e.NextProgram("Test", time.Now()))

	var counts = e.Counts()
	assert.Equal(t, 0, counts.Channels)
	assert.Equal(t, 0, counts.AllowedHosts)
	assert.Equal(t, 0, counts.GuidePrograms)
}

func TestEngineCounts(t *testing.T) {
	var e = NewEngine()

	e.SetChannels([]Channel{
		{Name: "Test", URL: "http://cdn.example.com/test.m3u8"},
		{Name: "News 24", URL: "http://news.example.net/live.ts"},
	})
	e.SetGuide(testGuideIndex(t))

	var counts = e.Counts()
	assert.Equal(t, 2, counts.Channels)
	assert.Equal(t, 2, counts.AllowedHosts)
	assert.Equal(t, 2, counts.GuideChannels)
	assert.Equal(t, 3, counts.GuidePrograms)
	assert.Equal(t, 0, counts.GuideSkipped)
	assert.False(t, counts.PlaylistUpdate.IsZero())
	assert.False(t, counts.GuideUpdate.IsZero())
}
