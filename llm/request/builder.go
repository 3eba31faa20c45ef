// Package request turns the llm request variants into wire-ready HTTP
// payloads: method, endpoint path, content type and body. All parameter
// validation happens here, so an invalid request never reaches a
// transport.
package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/llmkit-go/llmkit/llm"
)

// Endpoint paths, OpenAI-compatible.
const (
	PathChatCompletions  = "/v1/chat/completions"
	PathImageGenerations = "/v1/images/generations"
	PathFiles            = "/v1/files"
)

const (
	// MinImageCount and MaxImageCount bound ImageRequest.N.
	MinImageCount = 1
	MaxImageCount = 10
)

var sizePattern = regexp.MustCompile(`^\d+x\d+$`)

// Encoded is a wire-ready request: everything a transport needs to issue
// one HTTP call.
type Encoded struct {
	Op          llm.Op
	Method      string
	Path        string
	ContentType string
	Body        []byte
}

// Chat encodes a chat completion request.
func Chat(req *llm.ChatRequest) (*Encoded, error) {
	if req == nil {
		return nil, llm.Validationf("chat request is nil")
	}
	if len(req.Messages) == 0 {
		return nil, llm.Validationf("chat request has no messages")
	}
	for i, m := range req.Messages {
		if m.Role == "" {
			return nil, llm.Validationf("message %d has no role", i)
		}
		if m.Content == "" {
			return nil, llm.Validationf("message %d has empty content", i)
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, llm.Validationf("failed to encode chat request: %v", err)
	}
	return &Encoded{
		Op:          llm.OpChat,
		Method:      http.MethodPost,
		Path:        PathChatCompletions,
		ContentType: "application/json",
		Body:        body,
	}, nil
}

// Image encodes an image generation request. The response format
// defaults to "url" when unset; the count never defaults, a caller that
// wants one image says so.
func Image(req *llm.ImageRequest) (*Encoded, error) {
	if req == nil {
		return nil, llm.Validationf("image request is nil")
	}
	if req.Prompt == "" {
		return nil, llm.Validationf("image prompt is empty")
	}
	if req.N < MinImageCount || req.N > MaxImageCount {
		return nil, llm.Validationf("image count must be between %d and %d, got %d",
			MinImageCount, MaxImageCount, req.N)
	}
	if req.Size != "" && !sizePattern.MatchString(req.Size) {
		return nil, llm.Validationf("image size %q does not match WIDTHxHEIGHT", req.Size)
	}
	format := req.ResponseFormat
	if format == "" {
		format = "url"
	}
	if format != "url" && format != "b64_json" {
		return nil, llm.Validationf("response format must be url or b64_json, got %q", req.ResponseFormat)
	}

	payload := *req
	payload.ResponseFormat = format
	body, err := json.Marshal(&payload)
	if err != nil {
		return nil, llm.Validationf("failed to encode image request: %v", err)
	}
	return &Encoded{
		Op:          llm.OpImage,
		Method:      http.MethodPost,
		Path:        PathImageGenerations,
		ContentType: "application/json",
		Body:        body,
	}, nil
}

// FileUpload encodes a multipart upload of a local file. The only disk
// side effect is reading the file; a missing or unreadable path is a
// validation failure.
func FileUpload(req *llm.FileUploadRequest) (*Encoded, error) {
	if req == nil {
		return nil, llm.Validationf("file upload request is nil")
	}
	if req.Path == "" {
		return nil, llm.Validationf("file path is empty")
	}
	if req.Purpose == "" {
		return nil, llm.Validationf("file purpose is empty")
	}

	f, err := os.Open(req.Path)
	if err != nil {
		return nil, llm.Validationf("file %q is not readable: %v", req.Path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, llm.Validationf("file %q is not readable: %v", req.Path, err)
	}
	if info.IsDir() {
		return nil, llm.Validationf("%q is a directory, not a file", req.Path)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(req.Path))
	if err != nil {
		return nil, llm.Validationf("failed to build multipart body: %v", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, llm.Validationf("failed to read %q: %v", req.Path, err)
	}
	if err := writer.WriteField("purpose", req.Purpose); err != nil {
		return nil, llm.Validationf("failed to build multipart body: %v", err)
	}
	if err := writer.Close(); err != nil {
		return nil, llm.Validationf("failed to build multipart body: %v", err)
	}

	return &Encoded{
		Op:          llm.OpFile,
		Method:      http.MethodPost,
		Path:        PathFiles,
		ContentType: writer.FormDataContentType(),
		Body:        buf.Bytes(),
	}, nil
}

// FileList encodes a file listing request.
func FileList() *Encoded {
	return &Encoded{Op: llm.OpFile, Method: http.MethodGet, Path: PathFiles}
}

// FileGet encodes a file metadata lookup.
func FileGet(id string) (*Encoded, error) {
	if id == "" {
		return nil, llm.Validationf("file id is empty")
	}
	return &Encoded{
		Op:     llm.OpFile,
		Method: http.MethodGet,
		Path:   fmt.Sprintf("%s/%s", PathFiles, id),
	}, nil
}

// FileDelete encodes a file deletion.
func FileDelete(id string) (*Encoded, error) {
	if id == "" {
		return nil, llm.Validationf("file id is empty")
	}
	return &Encoded{
		Op:     llm.OpFile,
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("%s/%s", PathFiles, id),
	}, nil
}

// FileContent encodes a raw content download.
func FileContent(id string) (*Encoded, error) {
	if id == "" {
		return nil, llm.Validationf("file id is empty")
	}
	return &Encoded{
		Op:     llm.OpFile,
		Method: http.MethodGet,
		Path:   fmt.Sprintf("%s/%s/content", PathFiles, id),
	}, nil
}
