package client

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmkit-go/llmkit/llm"
	"github.com/llmkit-go/llmkit/llm/request"
)

// streamSpy augments the spy transport with a canned SSE body.
type streamSpy struct {
	spyTransport
	sse     string
	lastEnc *request.Encoded
}

func (s *streamSpy) Stream(_ context.Context, enc *request.Encoded) (io.ReadCloser, error) {
	s.lastEnc = enc
	return io.NopCloser(strings.NewReader(s.sse)), nil
}

func collectChunks(t *testing.T, ch <-chan llm.StreamChunk) []llm.StreamChunk {
	t.Helper()
	var chunks []llm.StreamChunk
	for chunk := range ch {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func TestChatStream_DeltasUntilDone(t *testing.T) {
	spy := &streamSpy{sse: strings.Join([]string{
		`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
		``,
		`data: {"choices":[{"delta":{"content":"lo"}}]}`,
		``,
		`data: {"choices":[{"delta":{},"finish_reason":"stop"}]}`,
		``,
		`data: [DONE]`,
		``,
	}, "\n")}
	c := NewWithTransport(spy, Config{})

	ch, err := c.ChatStream(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hello"}},
	})
	require.NoError(t, err)

	chunks := collectChunks(t, ch)
	require.Len(t, chunks, 3)

	var content strings.Builder
	for _, chunk := range chunks {
		require.NoError(t, chunk.Err)
		content.WriteString(chunk.Content)
	}
	assert.Equal(t, "Hello", content.String())
	assert.Equal(t, "stop", chunks[2].FinishReason)

	// Streaming mode is forced on in the encoded request.
	var sent llm.ChatRequest
	require.NoError(t, json.Unmarshal(spy.lastEnc.Body, &sent))
	assert.True(t, sent.Stream)
}

func TestChatStream_MalformedChunk(t *testing.T) {
	spy := &streamSpy{sse: "data: {not json}\n\n"}
	c := NewWithTransport(spy, Config{})

	ch, err := c.ChatStream(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hello"}},
	})
	require.NoError(t, err)

	chunks := collectChunks(t, ch)
	require.Len(t, chunks, 1)
	require.Error(t, chunks[0].Err)
	assert.Equal(t, llm.ErrDecode, llm.KindOf(chunks[0].Err))
}

func TestChatStream_UnsupportedTransport(t *testing.T) {
	// The plain spy implements Do only.
	c := NewWithTransport(&spyTransport{}, Config{})

	_, err := c.ChatStream(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hello"}},
	})
	require.Error(t, err)
	assert.Equal(t, llm.ErrTransport, llm.KindOf(err))
}

func TestChatStream_ValidationBeforeConnect(t *testing.T) {
	spy := &streamSpy{sse: ""}
	c := NewWithTransport(spy, Config{})

	_, err := c.ChatStream(context.Background(), &llm.ChatRequest{})
	require.Error(t, err)
	assert.Equal(t, llm.ErrValidation, llm.KindOf(err))
	assert.Nil(t, spy.lastEnc)
}
