package llm

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiParams defines parameters of the Gemini backend
type GeminiParams struct {
	APIKey      string
	Model       string
	Endpoint    string // optional base URL override
	Temperature float64
	MaxTokens   int
	HTTPClient  *http.Client
}

// Gemini generates feeds with Google Gemini models
type Gemini struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGemini makes Gemini backend. Missing API key is reported as ConfigurationError.
func NewGemini(ctx context.Context, params GeminiParams) (*Gemini, error) {
	if params.APIKey == "" {
		return nil, &ConfigurationError{Setting: "llm.api_key"}
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     params.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: params.HTTPClient,
	}
	if params.Endpoint != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: params.Endpoint}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := params.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	genCfg := &genai.GenerateContentConfig{}
	if params.Temperature > 0 {
		genCfg.Temperature = genai.Ptr(float32(params.Temperature))
	}
	if params.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(params.MaxTokens) //nolint:gosec // max tokens is small
	}

	return &Gemini{client: client, model: model, config: genCfg}, nil
}

// Complete generates the whole response in a single call
func (g *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), g.config)
	if err != nil {
		return "", geminiError(err)
	}
	return resp.Text(), nil
}

// Stream yields text of every streamed response chunk
func (g *Gemini) Stream(ctx context.Context, req Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, genai.Text(req.Prompt), g.config) {
			if err != nil {
				yield("", geminiError(err))
				return
			}
			if !yield(resp.Text(), nil) {
				return
			}
		}
	}
}

// geminiError maps API errors to ServiceError, everything else is a transport failure
func geminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &ServiceError{StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &ServiceError{StatusCode: apiErrPtr.Code, Message: apiErrPtr.Message}
	}
	return &TransportError{Err: err}
}
