package openai

import (
	"fmt"
	"strings"

	"github.com/sonit33/aarya-sub000/internal/ailink/content"
	"github.com/sonit33/aarya-sub000/internal/ailink/driver"
)

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

// chatMessage always carries an array of parts, even for a lone text block.
type chatMessage struct {
	Role    string     `json:"role"`
	Content []chatPart `json:"content"`
}

type chatPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

func buildChatRequest(req *driver.Request) (*chatCompletionRequest, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}

	messages, err := convertMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	return &chatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}, nil
}

func convertMessages(messages []content.Message) ([]chatMessage, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("messages are required")
	}
	result := make([]chatMessage, 0, len(messages))
	for _, msg := range messages {
		parts, err := convertContent(msg.Content)
		if err != nil {
			return nil, err
		}
		result = append(result, chatMessage{Role: msg.Role, Content: parts})
	}
	return result, nil
}

func convertContent(blocks []content.ContentBlock) ([]chatPart, error) {
	converted := make([]chatPart, 0, len(blocks))
	for _, block := range blocks {
		switch block.Type {
		case content.ContentTypeText:
			converted = append(converted, chatPart{Type: "text", Text: block.Text})
		case content.ContentTypeImageJPEG:
			if block.DataURL == "" {
				return nil, fmt.Errorf("image block has no data url")
			}
			converted = append(converted, chatPart{Type: "image_url", ImageURL: &imageURL{URL: block.DataURL}})
		default:
			return nil, fmt.Errorf("unsupported content type: %s", block.Type)
		}
	}
	return converted, nil
}
