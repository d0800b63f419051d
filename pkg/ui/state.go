// Package ui holds the feed generator state machine shared by the web and terminal front ends.
// Reduce is pure, Controller adds the side effects (fetch, clipboard, file save) around it.
package ui

import (
	"errors"
	"strings"
	"time"

	"github.com/umputun/feedgen/pkg/feed"
	"github.com/umputun/feedgen/pkg/llm"
)

// Phase of the generation lifecycle
type Phase int

// supported phases
const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "idle"
	}
}

// View is the active feed rendering
type View int

// supported views
const (
	ViewPretty View = iota
	ViewRaw
)

func (v View) String() string {
	if v == ViewRaw {
		return "raw"
	}
	return "pretty"
}

// CopyAckInterval is how long the copy acknowledgement stays visible
const CopyAckInterval = 2 * time.Second

// user facing messages
const (
	MsgEmptyURL      = "please enter a website URL"
	MsgConfiguration = "feed generator is not configured, set the backend API key (llm.api_key or GEMINI_API_KEY) and restart"
	MsgGeneric       = "could not generate feed, check the URL or try again"
)

// State is a snapshot of the generator screen
type State struct {
	Phase        Phase
	URL          string       // last submitted url
	RawFeed      string       // sanitized feed text, empty unless Phase is PhaseSuccess
	Outcome      feed.Outcome // parse result of RawFeed
	View         View
	ErrorMessage string
	Copied       bool
	CopyToken    int // identifies the latest copy acknowledgement
	Seq          int // identifies the latest submission
}

// Loaded tells if a feed is available for view toggling, copy and download
func (s State) Loaded() bool {
	return s.Phase == PhaseSuccess
}

// PrettyAllowed tells if the pretty view can be selected
func (s State) PrettyAllowed() bool {
	return s.Loaded() && s.Outcome.HasItems()
}

// Event changes State through Reduce
type Event interface {
	event()
}

// Submit asks for a feed of URL
type Submit struct {
	URL string
}

// Succeeded delivers the generated text for submission Seq
type Succeeded struct {
	Seq int
	Raw string
}

// Failed delivers the generation error for submission Seq
type Failed struct {
	Seq int
	Err error
}

// SetView selects the active view
type SetView struct {
	View View
}

// Copied acknowledges a copy of the raw feed
type Copied struct{}

// CopyExpired ends the copy acknowledgement with matching Token
type CopyExpired struct {
	Token int
}

func (Submit) event()      {}
func (Succeeded) event()   {}
func (Failed) event()      {}
func (SetView) event()     {}
func (Copied) event()      {}
func (CopyExpired) event() {}

// Reduce returns the state after ev. It never performs side effects,
// the caller issues the request when a Submit moves the state to PhaseLoading.
func Reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case Submit:
		if s.Phase == PhaseLoading {
			return s
		}
		url := strings.TrimSpace(e.URL)
		if url == "" {
			s.ErrorMessage = MsgEmptyURL
			return s
		}
		return State{Phase: PhaseLoading, URL: url, View: ViewPretty, Seq: s.Seq + 1, CopyToken: s.CopyToken}

	case Succeeded:
		if e.Seq != s.Seq || s.Phase != PhaseLoading {
			return s
		}
		s.Phase = PhaseSuccess
		s.RawFeed = e.Raw // already sanitized by the fetcher
		s.Outcome = feed.Parse(s.RawFeed)
		s.View = ViewRaw
		if s.Outcome.HasItems() {
			s.View = ViewPretty
		}
		return s

	case Failed:
		if e.Seq != s.Seq || s.Phase != PhaseLoading {
			return s
		}
		s.Phase = PhaseError
		s.RawFeed = ""
		s.Outcome = feed.Outcome{}
		s.View = ViewRaw
		s.ErrorMessage = ErrorMessage(e.Err)
		return s

	case SetView:
		if !s.Loaded() {
			return s
		}
		if e.View == ViewPretty && !s.PrettyAllowed() {
			return s
		}
		s.View = e.View
		return s

	case Copied:
		if !s.Loaded() {
			return s
		}
		s.Copied = true
		s.CopyToken++
		return s

	case CopyExpired:
		if e.Token == s.CopyToken {
			s.Copied = false
		}
		return s
	}
	return s
}

// ErrorMessage maps a generation error to the message shown to the user
func ErrorMessage(err error) string {
	if err == nil {
		return MsgGeneric
	}
	if errors.Is(err, llm.ErrConfiguration) {
		return MsgConfiguration
	}
	return MsgGeneric + ": " + err.Error()
}
