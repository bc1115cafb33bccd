package xmltv

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// FallbackTitle is assigned to programme entries without a usable title.
const FallbackTitle = "Bez tytułu"

// Program : Single programme entry of an XMLTV guide.
type Program struct {
	Start time.Time `json:"start"`
	Stop  time.Time `json:"stop"`
	Title string    `json:"title"`
	Desc  string    `json:"description"`
}

// Index : All programme entries of a guide document grouped by channel key.
// Entries keep their document order.
type Index struct {
	programs map[string][]*Program
	aliases  map[string]string
	skipped  int
}

type programElement struct {
	Channel string `xml:"channel,attr"`
	Start   string `xml:"start,attr"`
	Stop    string `xml:"stop,attr"`
	Title   string `xml:"title"`
	Desc    string `xml:"desc"`
}

// Parse : Decode an XMLTV document into an Index. Defective programme
// entries are counted and skipped. A structural failure of the document
// ends the scan, entries decoded up to that point are retained.
func Parse(byteStream []byte) (index *Index, err error) {

	index = newIndex()

	var decoder = xml.NewDecoder(bytes.NewReader(byteStream))
	decoder.CharsetReader = charset.NewReaderLabel

	for {

		token, tokenErr := decoder.Token()
		if tokenErr == io.EOF {
			break
		}

		if tokenErr != nil {
			err = tokenErr
			return
		}

		element, ok := token.(xml.StartElement)
		if !ok || element.Name.Local != "programme" {
			continue
		}

		var entry programElement
		if err = decoder.DecodeElement(&entry, &element); err != nil {
			return
		}

		var key = strings.TrimSpace(entry.Channel)
		if len(key) == 0 {
			index.skipped++
			continue
		}

		start, okStart := parseTimestamp(entry.Start)
		stop, okStop := parseTimestamp(entry.Stop)

		// Entries without a usable time range are dropped as a whole
		if !okStart || !okStop || !stop.After(start) {
			index.skipped++
			continue
		}

		var title = strings.TrimSpace(entry.Title)
		if len(title) == 0 {
			title = FallbackTitle
		}

		index.add(key, &Program{
			Start: start,
			Stop:  stop,
			Title: title,
			Desc:  strings.TrimSpace(entry.Desc),
		})

	}

	return
}

// parseTimestamp : Parse an XMLTV timestamp of the form YYYYMMDDHHMM with
// optional seconds and an optional numeric zone offset. Timestamps without
// an offset are read as UTC.
func parseTimestamp(value string) (t time.Time, ok bool) {

	value = strings.TrimSpace(value)

	var layout = "200601021504"
	if len(value) >= 14 && isDigits(value[:14]) {
		layout = "20060102150405"
	}

	if len(value) < len(layout) || !isDigits(value[:len(layout)]) {
		return
	}

	var offset = strings.TrimSpace(value[len(layout):])
	var err error

	if len(offset) >= 5 && (offset[0] == '+' || offset[0] == '-') {
		t, err = time.Parse(layout+" -0700", value[:len(layout)]+" "+offset[:5])
	} else {
		t, err = time.Parse(layout, value[:len(layout)])
	}

	if err != nil {
		return
	}

	ok = true
	return
}

func isDigits(s string) bool {

	if len(s) == 0 {
		return false
	}

	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

func newIndex() (index *Index) {

	index = &Index{
		programs: make(map[string][]*Program),
		aliases:  make(map[string]string),
	}

	return
}

// add : Append a programme under its channel key. The first key of every
// lower case spelling wins the alias, lookups stay deterministic this way.
func (i *Index) add(key string, program *Program) {

	if _, exists := i.programs[key]; !exists {

		var lower = strings.ToLower(key)
		if _, exists := i.aliases[lower]; !exists {
			i.aliases[lower] = key
		}

	}

	i.programs[key] = append(i.programs[key], program)
}

// Lookup : Return the programme list for a channel name. An exact match
// wins, otherwise the first channel key with the same lower case spelling
// is used.
func (i *Index) Lookup(name string) (programs []*Program, ok bool) {

	if programs, ok = i.programs[name]; ok {
		return
	}

	var key string
	if key, ok = i.aliases[strings.ToLower(name)]; ok {
		programs = i.programs[key]
	}

	return
}

// Channels : Number of distinct channel keys.
func (i *Index) Channels() int {
	return len(i.programs)
}

// Entries : Total number of programme entries.
func (i *Index) Entries() (n int) {

	for _, programs := range i.programs {
		n += len(programs)
	}

	return
}

// Skipped : Number of defective programme entries dropped during the scan.
func (i *Index) Skipped() int {
	return i.skipped
}
