package content

// ContentType represents supported content types using IANA media types.
type ContentType string

const (
	ContentTypeText      ContentType = "text/plain"
	ContentTypeImageJPEG ContentType = "image/jpeg"
)

// ContentBlock represents a single piece of content.
type ContentBlock struct {
	Type    ContentType `json:"type"`
	Text    string      `json:"text,omitempty"`
	DataURL string      `json:"data_url,omitempty"`
}

// Message represents a chat message.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// Text builds a text block.
func Text(text string) ContentBlock {
	return ContentBlock{Type: ContentTypeText, Text: text}
}

// JPEGBase64 builds an image block from an already base64-encoded JPEG payload.
func JPEGBase64(payload string) ContentBlock {
	return ContentBlock{Type: ContentTypeImageJPEG, DataURL: "data:image/jpeg;base64," + payload}
}

// UserMessage builds a user message from blocks in order.
func UserMessage(blocks ...ContentBlock) Message {
	return Message{Role: "user", Content: blocks}
}
