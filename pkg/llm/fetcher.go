package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-pkgz/repeater/v2"

	"github.com/umputun/feedgen/pkg/feed"
)

// Fetcher generates a complete, cleaned feed text for the target site URL
type Fetcher interface {
	Generate(ctx context.Context, targetURL string) (string, error)
}

// errStopRetry marks errors not worth another attempt
var errStopRetry = errors.New("no retry")

// BufferedFetcher makes one request and returns the complete response.
// Transport failures are retried up to the configured number of attempts.
type BufferedFetcher struct {
	backend  Completer
	attempts int
	delay    time.Duration
}

// NewBufferedFetcher makes a buffered fetcher; attempts below 1 mean a single attempt
func NewBufferedFetcher(backend Completer, attempts int) *BufferedFetcher {
	return &BufferedFetcher{backend: backend, attempts: max(attempts, 1), delay: time.Second}
}

// Generate requests the feed and returns it without markdown fencing
func (f *BufferedFetcher) Generate(ctx context.Context, targetURL string) (string, error) {
	req, err := newFeedRequest(targetURL)
	if err != nil {
		return "", err
	}

	var text string
	var lastErr error
	attempt := 0
	retrier := repeater.NewBackoff(f.attempts, f.delay, repeater.WithMaxDelay(10*time.Second))
	doErr := retrier.Do(ctx, func() error {
		attempt++
		text, lastErr = f.backend.Complete(ctx, req)
		if lastErr == nil {
			return nil
		}
		var te *TransportError
		if !errors.As(lastErr, &te) {
			return fmt.Errorf("%w: %w", errStopRetry, lastErr)
		}
		if attempt < f.attempts {
			log.Printf("[WARN] generate feed for %s, attempt %d failed: %v", targetURL, attempt, lastErr)
		}
		return lastErr
	}, errStopRetry)

	if lastErr != nil {
		return "", lastErr
	}
	if doErr != nil { // canceled before the first attempt
		return "", &TransportError{Err: doErr}
	}
	return feed.Clean(text), nil
}

// StreamingFetcher reads the response as a stream of chunks and joins them in arrival order.
// A failed stream never returns the text received before the failure.
type StreamingFetcher struct {
	backend Streamer
}

// NewStreamingFetcher makes a streaming fetcher
func NewStreamingFetcher(backend Streamer) *StreamingFetcher {
	return &StreamingFetcher{backend: backend}
}

// Generate requests the feed and returns it without markdown fencing once the stream is closed
func (f *StreamingFetcher) Generate(ctx context.Context, targetURL string) (string, error) {
	req, err := newFeedRequest(targetURL)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	chunks := 0
	for chunk, err := range f.backend.Stream(ctx, req) {
		if err != nil {
			return "", err
		}
		sb.WriteString(chunk)
		chunks++
	}
	log.Printf("[DEBUG] feed for %s received in %d chunks, %d bytes", targetURL, chunks, sb.Len())
	return feed.Clean(sb.String()), nil
}

// Unavailable is a fetcher for a backend which could not be constructed.
// Every call returns the construction error.
type Unavailable struct {
	Err error
}

// Generate returns the construction error
func (u Unavailable) Generate(context.Context, string) (string, error) {
	return "", u.Err
}

func newFeedRequest(targetURL string) (Request, error) {
	targetURL = strings.TrimSpace(targetURL)
	if targetURL == "" {
		return Request{}, errors.New("target url is required")
	}
	return NewRequest(targetURL), nil
}
