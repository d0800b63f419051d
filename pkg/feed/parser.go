package feed

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mmcdole/gofeed"
)

// itemFields lists item children copied into Entry
var itemFields = map[string]bool{"title": true, "link": true, "description": true, "pubDate": true}

// itemFrame collects fields of an open item element
type itemFrame struct {
	idx      int               // index of the entry in the result
	fields   map[string]string // collected field texts
	capField string            // field being captured, empty if none
	capDepth int               // element depth of the captured field
	capText  strings.Builder
}

// Parse checks text is well-formed XML and extracts every item element, regardless of nesting depth,
// in document order. Malformed input is reported as KindMalformed, never as an error or a panic.
func Parse(text string) Outcome {
	dec := xml.NewDecoder(strings.NewReader(text))
	dec.Strict = true
	// text is already decoded, declared encodings are not applied again
	dec.CharsetReader = func(_ string, in io.Reader) (io.Reader, error) { return in, nil }

	var entries []Entry
	var open []*itemFrame
	depth, roots := 0, 0

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Outcome{Kind: KindMalformed, Err: fmt.Errorf("parse xml: %w", err)}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
				if roots > 1 {
					return Outcome{Kind: KindMalformed, Err: fmt.Errorf("parse xml: extra root element <%s>", t.Name.Local)}
				}
			}
			depth++
			if t.Name.Local == "item" {
				entries = append(entries, Entry{})
				open = append(open, &itemFrame{idx: len(entries) - 1, fields: map[string]string{}})
				continue
			}
			if itemFields[t.Name.Local] {
				for _, fr := range open {
					if _, seen := fr.fields[t.Name.Local]; seen || fr.capField != "" {
						continue
					}
					fr.capField, fr.capDepth = t.Name.Local, depth
					fr.capText.Reset()
				}
			}
		case xml.EndElement:
			for _, fr := range open {
				if fr.capField != "" && fr.capDepth == depth {
					fr.fields[fr.capField] = fr.capText.String()
					fr.capField = ""
				}
			}
			if t.Name.Local == "item" && len(open) > 0 {
				fr := open[len(open)-1]
				open = open[:len(open)-1]
				entries[fr.idx] = fr.entry()
			}
			depth--
		case xml.CharData:
			if depth == 0 {
				if strings.TrimSpace(string(t)) != "" {
					return Outcome{Kind: KindMalformed, Err: errors.New("parse xml: text outside of root element")}
				}
				continue
			}
			for _, fr := range open {
				if fr.capField != "" {
					fr.capText.Write(t)
				}
			}
		}
	}

	if roots == 0 {
		return Outcome{Kind: KindMalformed, Err: errors.New("parse xml: no root element")}
	}

	channel := parseChannel(text)
	if len(entries) == 0 {
		return Outcome{Kind: KindEmpty, Channel: channel}
	}
	return Outcome{Kind: KindItems, Entries: entries, Channel: channel}
}

// entry converts collected fields to Entry, substituting placeholders for missing values
func (fr *itemFrame) entry() Entry {
	field := func(name, placeholder string) string {
		v := strings.TrimSpace(fr.fields[name])
		if v == "" {
			return placeholder
		}
		return v
	}
	return Entry{
		Title:       field("title", NoTitle),
		Link:        field("link", NoLink),
		Description: field("description", NoDescription),
		PubDate:     field("pubDate", ""),
	}
}

// parseChannel reads channel metadata, best effort. Failures leave the channel empty.
func parseChannel(text string) Channel {
	f, err := gofeed.NewParser().ParseString(text)
	if err != nil || f == nil {
		return Channel{}
	}
	return Channel{
		Title:       strings.TrimSpace(f.Title),
		Link:        strings.TrimSpace(f.Link),
		Description: strings.TrimSpace(f.Description),
	}
}
