package llm

import (
	"context"
	"iter"
)

// Request is a single feed generation request.
// Model backends use Prompt, the relay forwards TargetURL only.
type Request struct {
	TargetURL string
	Prompt    string
}

// NewRequest makes a request for the target site with the standard prompt
func NewRequest(targetURL string) Request {
	return Request{TargetURL: targetURL, Prompt: BuildPrompt(targetURL)}
}

// Completer returns the whole generated text in one response
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Streamer returns generated text as a sequence of chunks in arrival order.
// The sequence ends when the response is complete; an error ends it early.
type Streamer interface {
	Stream(ctx context.Context, req Request) iter.Seq2[string, error]
}

// Backend can serve requests in both modes
type Backend interface {
	Completer
	Streamer
}
