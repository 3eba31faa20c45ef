package client

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/llmkit-go/llmkit/llm"
	"github.com/llmkit-go/llmkit/llm/request"
	"github.com/llmkit-go/llmkit/llm/transport"
)

// sseChunk mirrors one OpenAI-compatible streaming delta.
type sseChunk struct {
	Choices []struct {
		Delta *struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// ChatStream performs a streaming chat completion via server-sent
// events. The returned channel closes when the stream ends; a terminal
// parse or read failure arrives as the final chunk's Err.
func (c *Client) ChatStream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	streamer, ok := c.tr.(transport.Streamer)
	if !ok {
		return nil, llm.Transportf(nil, "transport does not support streaming")
	}
	if req == nil {
		return nil, llm.Validationf("chat request is nil")
	}

	r := *req
	if r.Model == "" {
		r.Model = c.cfg.ChatModel
	}
	r.Stream = true

	enc, err := request.Chat(&r)
	if err != nil {
		return nil, err
	}
	body, err := streamer.Stream(ctx, enc)
	if err != nil {
		return nil, err
	}
	return parseSSE(ctx, body), nil
}

// parseSSE reads "data:" lines from body until [DONE] or EOF, emitting
// one StreamChunk per delta. The body is always closed.
func parseSSE(ctx context.Context, body io.ReadCloser) <-chan llm.StreamChunk {
	ch := make(chan llm.StreamChunk)
	go func() {
		defer body.Close()
		defer close(ch)

		reader := bufio.NewReader(body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err != io.EOF {
					emit(ctx, ch, llm.StreamChunk{
						Err: llm.Transportf(err, "stream read: %v", err),
					})
				}
				return
			}
			line = strings.TrimSpace(line)
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return
			}

			var chunk sseChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				emit(ctx, ch, llm.StreamChunk{
					Err: llm.Decodef(err, "stream chunk is not valid JSON"),
				})
				return
			}
			for _, choice := range chunk.Choices {
				out := llm.StreamChunk{FinishReason: choice.FinishReason}
				if choice.Delta != nil {
					out.Content = choice.Delta.Content
				}
				if !emit(ctx, ch, out) {
					return
				}
			}
		}
	}()
	return ch
}

func emit(ctx context.Context, ch chan<- llm.StreamChunk, chunk llm.StreamChunk) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- chunk:
		return true
	}
}
