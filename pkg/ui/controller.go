package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/atotto/clipboard"

	"github.com/umputun/feedgen/pkg/feed"
)

//go:generate moq -out mocks/fetcher.go -pkg mocks -skip-ensure -fmt goimports . Fetcher
//go:generate moq -out mocks/clipboard.go -pkg mocks -skip-ensure -fmt goimports . Clipboard
//go:generate moq -out mocks/saver.go -pkg mocks -skip-ensure -fmt goimports . Saver

// ErrNoFeed is returned by copy and download when no feed is loaded
var ErrNoFeed = errors.New("no feed loaded")

// Fetcher generates a cleaned feed for the target site
type Fetcher interface {
	Generate(ctx context.Context, targetURL string) (string, error)
}

// Clipboard receives the copied feed text
type Clipboard interface {
	WriteAll(text string) error
}

// Saver stores a downloaded feed under the given file name and returns its location
type Saver interface {
	Save(name string, data []byte) (string, error)
}

// Deps defines controller collaborators. CopyAck defaults to CopyAckInterval.
type Deps struct {
	Fetcher   Fetcher
	Clipboard Clipboard
	Saver     Saver
	CopyAck   time.Duration
}

// Controller owns the State and runs side effects for the events it feeds to Reduce
type Controller struct {
	Deps
	mu    sync.Mutex
	state State
}

// NewController makes a controller in the idle state
func NewController(deps Deps) *Controller {
	if deps.CopyAck <= 0 {
		deps.CopyAck = CopyAckInterval
	}
	return &Controller{Deps: deps}
}

// State returns a snapshot of the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit requests a feed for url and blocks until it is generated or failed.
// Blank urls and submissions while another one is loading return immediately.
func (c *Controller) Submit(ctx context.Context, url string) State {
	c.mu.Lock()
	prev := c.state
	c.state = Reduce(c.state, Submit{URL: url})
	started := c.state.Phase == PhaseLoading && c.state.Seq != prev.Seq
	st := c.state
	c.mu.Unlock()

	if !started {
		return st
	}

	log.Printf("[INFO] generate feed for %s", st.URL)
	raw, err := c.Fetcher.Generate(ctx, st.URL)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		log.Printf("[WARN] failed to generate feed for %s: %v", st.URL, err)
		c.state = Reduce(c.state, Failed{Seq: st.Seq, Err: err})
		return c.state
	}
	c.state = Reduce(c.state, Succeeded{Seq: st.Seq, Raw: raw})
	log.Printf("[DEBUG] feed for %s is %s, %d entries", st.URL, c.state.Outcome.Kind, len(c.state.Outcome.Entries))
	return c.state
}

// SetView switches the active view, pretty is accepted only for feeds with items
func (c *Controller) SetView(v View) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Reduce(c.state, SetView{View: v})
	return c.state
}

// Copy puts the raw feed on the clipboard and shows the acknowledgement for CopyAck
func (c *Controller) Copy() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Loaded() {
		return ErrNoFeed
	}
	if err := CopyFeed(c.Clipboard, c.state.RawFeed); err != nil {
		return err
	}
	c.state = Reduce(c.state, Copied{})
	token := c.state.CopyToken
	time.AfterFunc(c.CopyAck, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.state = Reduce(c.state, CopyExpired{Token: token})
	})
	return nil
}

// Download saves the raw feed with the file name derived from the submitted url
func (c *Controller) Download() (string, error) {
	c.mu.Lock()
	st := c.state
	c.mu.Unlock()
	if !st.Loaded() {
		return "", ErrNoFeed
	}
	return SaveFeed(c.Saver, st.URL, st.RawFeed)
}

// CopyFeed writes raw feed text to the clipboard
func CopyFeed(cb Clipboard, raw string) error {
	if cb == nil {
		return errors.New("clipboard is not available")
	}
	if err := cb.WriteAll(raw); err != nil {
		return fmt.Errorf("copy feed: %w", err)
	}
	return nil
}

// SaveFeed stores raw feed text as feed.Filename(sourceURL)
func SaveFeed(s Saver, sourceURL, raw string) (string, error) {
	if s == nil {
		return "", errors.New("saver is not available")
	}
	path, err := s.Save(feed.Filename(sourceURL), []byte(raw))
	if err != nil {
		return "", fmt.Errorf("save feed: %w", err)
	}
	log.Printf("[INFO] feed for %s saved to %s", sourceURL, path)
	return path, nil
}

// DirSaver writes files into Dir
type DirSaver struct {
	Dir string
}

// Save writes data to Dir/name, creating Dir if needed
func (d DirSaver) Save(name string, data []byte) (string, error) {
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create output dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// SystemClipboard is the OS clipboard
type SystemClipboard struct{}

// WriteAll puts text on the OS clipboard
func (SystemClipboard) WriteAll(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}
