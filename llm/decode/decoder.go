// Package decode validates raw transport responses and extracts the
// result variants. A 2xx body that fails to parse or lacks an expected
// field is an ErrDecode failure, deliberately distinct from ErrAPI: the
// provider said "ok" but spoke a shape we do not understand.
package decode

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/llmkit-go/llmkit/llm"
	"github.com/llmkit-go/llmkit/llm/transport"
)

// chatEnvelope mirrors the OpenAI-compatible chat completion response.
type chatEnvelope struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int    `json:"index"`
		FinishReason string `json:"finish_reason"`
		Message      *struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *llm.ChatUsage `json:"usage"`
}

// Chat extracts the first choice's message content and token usage.
func Chat(resp *transport.Response) (*llm.ChatResult, error) {
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var env chatEnvelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, llm.Decodef(err, "chat response is not valid JSON")
	}
	if len(env.Choices) == 0 {
		return nil, llm.Decodef(nil, "chat response has no choices")
	}
	first := env.Choices[0]
	if first.Message == nil {
		return nil, llm.Decodef(nil, "chat response choice has no message")
	}

	result := &llm.ChatResult{
		Content:      first.Message.Content,
		Model:        env.Model,
		FinishReason: first.FinishReason,
	}
	if env.Usage != nil {
		result.Usage = *env.Usage
	}
	return result, nil
}

// imageEnvelope mirrors the /images/generations response.
type imageEnvelope struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL           string `json:"url"`
		B64JSON       string `json:"b64_json"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

// Images extracts each generated item's URL or inline base64 payload.
// Every item must carry at least one of the two.
func Images(resp *transport.Response) (*llm.ImageResult, error) {
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var env imageEnvelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, llm.Decodef(err, "image response is not valid JSON")
	}
	if len(env.Data) == 0 {
		return nil, llm.Decodef(nil, "image response has no data items")
	}

	images := make([]llm.ImageData, len(env.Data))
	for i, d := range env.Data {
		if d.URL == "" && d.B64JSON == "" {
			return nil, llm.Decodef(nil, "image item %d has neither url nor b64_json", i)
		}
		images[i] = llm.ImageData{
			URL:           d.URL,
			B64JSON:       d.B64JSON,
			RevisedPrompt: d.RevisedPrompt,
		}
	}

	result := &llm.ImageResult{Images: images}
	if env.Created != 0 {
		result.CreatedAt = time.Unix(env.Created, 0)
	}
	return result, nil
}

// File extracts a single file metadata record.
func File(resp *transport.Response) (*llm.FileInfo, error) {
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var info llm.FileInfo
	if err := json.Unmarshal(resp.Body, &info); err != nil {
		return nil, llm.Decodef(err, "file response is not valid JSON")
	}
	if info.ID == "" {
		return nil, llm.Decodef(nil, "file response has no id")
	}
	return &info, nil
}

// FileList extracts a file listing. An empty list is valid.
type fileListEnvelope struct {
	Object string          `json:"object"`
	Data   *[]llm.FileInfo `json:"data"`
}

func FileList(resp *transport.Response) (*llm.FileList, error) {
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var env fileListEnvelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, llm.Decodef(err, "file list response is not valid JSON")
	}
	if env.Data == nil {
		return nil, llm.Decodef(nil, "file list response has no data field")
	}
	return &llm.FileList{Data: *env.Data}, nil
}

// FileDeleted extracts a deletion confirmation.
func FileDeleted(resp *transport.Response) (*llm.FileDeleteResult, error) {
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var out llm.FileDeleteResult
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, llm.Decodef(err, "delete response is not valid JSON")
	}
	if out.ID == "" {
		return nil, llm.Decodef(nil, "delete response has no id")
	}
	return &out, nil
}

// FileContent passes raw downloaded bytes through. Content downloads are
// not JSON; the only validation is the status.
func FileContent(resp *transport.Response) ([]byte, error) {
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// checkStatus is the decoder-boundary guard: the transport already maps
// error statuses, but a decoder fed a non-2xx response still classifies
// it as an API failure rather than guessing at the body.
func checkStatus(resp *transport.Response) error {
	if resp == nil {
		return llm.Decodef(nil, "nil response")
	}
	if resp.Status < http.StatusOK || resp.Status >= http.StatusMultipleChoices {
		return llm.APIError(resp.Status, string(resp.Body))
	}
	return nil
}
