package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no model is configured
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIParams defines parameters of OpenAI-compatible backend
type OpenAIParams struct {
	APIKey      string
	Model       string
	Endpoint    string // OpenAI-compatible API base URL, i.e. http://localhost:11434/v1
	Temperature float64
	MaxTokens   int
	HTTPClient  *http.Client
}

// OpenAI generates feeds with any OpenAI-compatible chat completion API
type OpenAI struct {
	client      *openai.Client
	model       string
	temperature float64
	maxTokens   int
}

// NewOpenAI makes OpenAI backend. The API key may be skipped for custom endpoints only.
func NewOpenAI(params OpenAIParams) (*OpenAI, error) {
	if params.APIKey == "" && params.Endpoint == "" {
		return nil, &ConfigurationError{Setting: "llm.api_key"}
	}

	clientConfig := openai.DefaultConfig(params.APIKey)
	if params.Endpoint != "" {
		clientConfig.BaseURL = params.Endpoint
	}
	if params.HTTPClient != nil {
		clientConfig.HTTPClient = params.HTTPClient
	}

	model := params.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAI{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       model,
		temperature: params.Temperature,
		maxTokens:   params.MaxTokens,
	}, nil
}

// Complete generates the whole response in a single call
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, o.chatRequest(req, false))
	if err != nil {
		return "", openaiError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &ServiceError{StatusCode: http.StatusOK, Message: "no response from llm"}
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream yields content deltas of the streamed completion
func (o *OpenAI) Stream(ctx context.Context, req Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stream, err := o.client.CreateChatCompletionStream(ctx, o.chatRequest(req, true))
		if err != nil {
			yield("", openaiError(err))
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", openaiError(err))
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			if !yield(resp.Choices[0].Delta.Content, nil) {
				return
			}
		}
	}
}

func (o *OpenAI) chatRequest(req Request, stream bool) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: float32(o.temperature),
		MaxTokens:   o.maxTokens,
		Stream:      stream,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	}
}

// openaiError maps API and HTTP status errors to ServiceError, everything else is a transport failure
func openaiError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ServiceError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := fmt.Sprintf("backend responded with status %d", reqErr.HTTPStatusCode)
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &ServiceError{StatusCode: reqErr.HTTPStatusCode, Message: msg}
	}
	return &TransportError{Err: err}
}
