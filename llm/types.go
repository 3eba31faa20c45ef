package llm

import "time"

// Op identifies the operation family a request belongs to. Transports use
// it to pick timeouts and to label metrics and spans.
type Op string

const (
	OpChat  Op = "chat"
	OpImage Op = "image"
	OpFile  Op = "file"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest describes a chat completion call.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

// ChatUsage reports token accounting as returned by the provider.
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResult is the decoded payload of a chat completion: the first
// choice's message content plus usage metadata when present.
type ChatResult struct {
	Content      string    `json:"content"`
	Model        string    `json:"model,omitempty"`
	FinishReason string    `json:"finish_reason,omitempty"`
	Usage        ChatUsage `json:"usage"`
}

// StreamChunk is one increment of a streaming chat completion. Err is set
// on the final chunk when the stream terminated abnormally.
type StreamChunk struct {
	Content      string `json:"content,omitempty"`
	FinishReason string `json:"finish_reason,omitempty"`
	Err          error  `json:"-"`
}

// ImageRequest describes an image generation call.
//
// N must be in [1,10] and Size must match WIDTHxHEIGHT; llm/request
// rejects anything else before a transport is touched.
type ImageRequest struct {
	Model          string `json:"model,omitempty"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n,omitempty"`
	Size           string `json:"size,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"` // url, b64_json
}

// ImageData is one generated image: a download URL or an inline base64
// payload, depending on the requested response format.
type ImageData struct {
	URL           string `json:"url,omitempty"`
	B64JSON       string `json:"b64_json,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// ImageResult is the decoded payload of an image generation call.
type ImageResult struct {
	Images    []ImageData `json:"images"`
	Model     string      `json:"model,omitempty"`
	CreatedAt time.Time   `json:"created_at,omitempty"`
}

// FileUploadRequest describes a multipart file upload. Path is a local
// file; Purpose is the provider-side purpose tag (e.g. "assistants").
type FileUploadRequest struct {
	Path    string `json:"path"`
	Purpose string `json:"purpose"`
}

// FileInfo is the provider's metadata record for an uploaded file.
type FileInfo struct {
	ID        string `json:"id"`
	Object    string `json:"object,omitempty"`
	Bytes     int64  `json:"bytes"`
	CreatedAt int64  `json:"created_at"`
	Filename  string `json:"filename"`
	Purpose   string `json:"purpose"`
}

// FileList is the decoded payload of a file listing.
type FileList struct {
	Data []FileInfo `json:"data"`
}

// FileDeleteResult confirms a file deletion.
type FileDeleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}
