package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
)

const (
	// ErrorKindConfiguration marks relay error responses caused by a missing backend credential
	ErrorKindConfiguration = "configuration"
	// ErrorTrailer carries the backend failure of a relay stream interrupted after the first chunk
	ErrorTrailer = "X-Feed-Error"
)

// RelayRequest is the JSON body sent to the relay
type RelayRequest struct {
	URL string `json:"url"`
}

// RelayError is the JSON body of a failed relay response
type RelayError struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// RelayParams defines parameters of the relay backend
type RelayParams struct {
	Endpoint   string // full URL of the relay generate endpoint
	HTTPClient *http.Client
}

// Relay forwards the target URL to a feedgen relay and reads the feed it streams back
type Relay struct {
	endpoint string
	client   *http.Client
}

// NewRelay makes relay backend. Missing endpoint is reported as ConfigurationError.
func NewRelay(params RelayParams) (*Relay, error) {
	if params.Endpoint == "" {
		return nil, &ConfigurationError{Setting: "llm.endpoint"}
	}
	client := params.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Relay{endpoint: params.Endpoint, client: client}, nil
}

// Complete reads the whole relay response
func (r *Relay) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := r.open(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Err: fmt.Errorf("read relay response: %w", err)}
	}
	if err := trailerError(resp); err != nil {
		return "", err
	}
	return string(body), nil
}

// Stream yields relay response body as it arrives
func (r *Relay) Stream(ctx context.Context, req Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp, err := r.open(ctx, req)
		if err != nil {
			yield("", err)
			return
		}
		defer resp.Body.Close()

		buf := make([]byte, 4096)
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				if !yield(string(buf[:n]), nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				if err := trailerError(resp); err != nil {
					yield("", err)
				}
				return
			}
			if err != nil {
				yield("", &TransportError{Err: fmt.Errorf("read relay response: %w", err)})
				return
			}
		}
	}
}

// open posts the request and checks the response status. The caller closes the body on success.
func (r *Relay) open(ctx context.Context, req Request) (*http.Response, error) {
	body, err := json.Marshal(RelayRequest{URL: req.TargetURL})
	if err != nil {
		return nil, fmt.Errorf("marshal relay request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create relay request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	var relayErr RelayError
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&relayErr); err != nil {
		return nil, &ServiceError{StatusCode: resp.StatusCode}
	}
	if relayErr.Kind == ErrorKindConfiguration {
		return nil, &ConfigurationError{Setting: "relay backend", Message: relayErr.Error}
	}
	return nil, &ServiceError{StatusCode: resp.StatusCode, Message: relayErr.Error}
}

// trailerError reports the failure announced by the relay in the error trailer.
// Trailers are only known once the body is read to EOF.
func trailerError(resp *http.Response) error {
	msg := resp.Trailer.Get(ErrorTrailer)
	if msg == "" {
		return nil
	}
	return &TransportError{Err: fmt.Errorf("relay stream interrupted: %s", msg)}
}
