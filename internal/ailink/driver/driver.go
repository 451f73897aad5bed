package driver

import (
	"context"

	"github.com/sonit33/aarya-sub000/internal/ailink/content"
)

// Driver defines the interface for AI completion providers.
type Driver interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *Request) (*Response, error)
	// Name returns the driver identifier (e.g., "openai").
	Name() string
	// Capabilities returns what this driver supports.
	Capabilities() Capabilities
}

// Capabilities describes driver features.
type Capabilities struct {
	SupportsImages bool
}

// Usage contains token usage statistics.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Request is a provider-agnostic completion request.
type Request struct {
	Model       string
	Messages    []content.Message
	Temperature *float64
	MaxTokens   *int
}

// Response is a provider-agnostic completion response.
type Response struct {
	Content      []content.ContentBlock
	FinishReason string
	Usage        *Usage
}

// FirstText returns the text of the first content block, verbatim.
func (r *Response) FirstText() string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	return r.Content[0].Text
}
