package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/llmkit-go/llmkit/llm"
	"github.com/llmkit-go/llmkit/llm/request"
	"github.com/llmkit-go/llmkit/llm/retry"
)

func testCreds(t *testing.T) llm.Credentials {
	t.Helper()
	creds, err := llm.NewCredentials("test-key")
	require.NoError(t, err)
	return creds
}

func fastRetry() retry.Policy {
	return retry.Policy{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func chatEncoded(t *testing.T) *request.Encoded {
	t.Helper()
	enc, err := request.Chat(&llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	return enc
}

func TestDo_Success(t *testing.T) {
	var gotAuth, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"content":"hello"}}]}`)
	}))
	t.Cleanup(server.Close)

	tr := New(testCreds(t), Config{BaseURL: server.URL, Retry: fastRetry(), Logger: zap.NewNop()})
	resp, err := tr.Do(context.Background(), chatEncoded(t))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, string(resp.Body), "hello")
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
}

func TestDo_RetriesOn429ThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error":{"message":"slow down"}}`)
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	t.Cleanup(server.Close)

	tr := New(testCreds(t), Config{BaseURL: server.URL, Retry: fastRetry()})
	resp, err := tr.Do(context.Background(), chatEncoded(t))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, int32(3), calls.Load(), "expected exactly 3 attempts")
}

func TestDo_NoRetryOn401(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"invalid key","type":"auth"}}`)
	}))
	t.Cleanup(server.Close)

	tr := New(testCreds(t), Config{BaseURL: server.URL, Retry: fastRetry()})
	_, err := tr.Do(context.Background(), chatEncoded(t))
	require.Error(t, err)

	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, llm.ErrAPI, llmErr.Kind)
	assert.Equal(t, http.StatusUnauthorized, llmErr.HTTPStatus)
	assert.Contains(t, llmErr.Message, "invalid key")
	assert.Equal(t, int32(1), calls.Load(), "401 must not be retried")
}

func TestDo_ExhaustedRetriesSurfaceAsTransport(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error":{"message":"overloaded"}}`)
	}))
	t.Cleanup(server.Close)

	tr := New(testCreds(t), Config{BaseURL: server.URL, Retry: fastRetry()})
	_, err := tr.Do(context.Background(), chatEncoded(t))
	require.Error(t, err)
	assert.Equal(t, llm.ErrTransport, llm.KindOf(err))
	assert.Equal(t, int32(4), calls.Load()) // 1 attempt + 3 retries

	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, http.StatusServiceUnavailable, llmErr.HTTPStatus)
}

func TestDo_ConnectionErrorIsTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	tr := New(testCreds(t), Config{
		BaseURL: server.URL,
		Retry:   retry.Policy{MaxRetries: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2},
	})
	_, err := tr.Do(context.Background(), chatEncoded(t))
	require.Error(t, err)
	assert.Equal(t, llm.ErrTransport, llm.KindOf(err))
}

func TestDo_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	tr := New(testCreds(t), Config{BaseURL: server.URL, Retry: retry.Policy{MaxRetries: 0, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2}})
	_, err := tr.Do(ctx, chatEncoded(t))
	require.Error(t, err)
	assert.Equal(t, llm.ErrTransport, llm.KindOf(err))
}

func TestDo_PerOpTimeoutDefaults(t *testing.T) {
	tr := New(testCreds(t), Config{})
	assert.Equal(t, DefaultChatTimeout, tr.cfg.ChatTimeout)
	assert.Equal(t, DefaultImageTimeout, tr.cfg.ImageTimeout)
	assert.Equal(t, DefaultFileTimeout, tr.cfg.FileTimeout)
	assert.Equal(t, DefaultBaseURL, tr.cfg.BaseURL)

	ctx, cancel := tr.withTimeout(context.Background(), llm.OpImage)
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.InDelta(t, DefaultImageTimeout.Seconds(), time.Until(deadline).Seconds(), 5)
}

func TestStream_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[]}\n\ndata: [DONE]\n\n")
	}))
	t.Cleanup(server.Close)

	tr := New(testCreds(t), Config{BaseURL: server.URL, Retry: fastRetry()})
	body, err := tr.Stream(context.Background(), chatEncoded(t))
	require.NoError(t, err)
	t.Cleanup(func() { body.Close() })

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DONE]")
}

func TestStream_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"message":"nope"}}`)
	}))
	t.Cleanup(server.Close)

	tr := New(testCreds(t), Config{BaseURL: server.URL, Retry: fastRetry()})
	_, err := tr.Stream(context.Background(), chatEncoded(t))
	require.Error(t, err)
	assert.Equal(t, llm.ErrAPI, llm.KindOf(err))
}

func TestReadErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"structured", `{"error":{"message":"quota exceeded","type":"billing"}}`, "quota exceeded (type: billing)"},
		{"message only", `{"error":{"message":"bad"}}`, "bad"},
		{"raw text", `gateway timeout`, "gateway timeout"},
		{"empty", ``, "provider returned an empty error body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, readErrorMessage(strings.NewReader(tt.body)))
		})
	}
}

