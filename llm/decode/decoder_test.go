package decode

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmkit-go/llmkit/llm"
	"github.com/llmkit-go/llmkit/llm/transport"
)

func ok(body string) *transport.Response {
	return &transport.Response{Status: http.StatusOK, Body: []byte(body)}
}

// ---------------------------------------------------------------------------
// Chat
// ---------------------------------------------------------------------------

func TestChat_RoundTrip(t *testing.T) {
	resp := ok(`{"choices":[{"message":{"content":"hello"}}],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`)

	result, err := Chat(resp)
	require.NoError(t, err)
	assert.Equal(t, "hello", result.Content)
	assert.Equal(t, 2, result.Usage.TotalTokens)
	assert.Equal(t, 1, result.Usage.PromptTokens)
	assert.Equal(t, 1, result.Usage.CompletionTokens)
}

func TestChat_DecodeFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `this is not json`},
		{"empty choices", `{"choices":[]}`},
		{"no choices field", `{"usage":{"total_tokens":2}}`},
		{"choice without message", `{"choices":[{"index":0}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Chat(ok(tt.body))
			require.Error(t, err)
			assert.Equal(t, llm.ErrDecode, llm.KindOf(err), "want decode error, got: %v", err)
		})
	}
}

func TestChat_DecodeDistinctFromAPI(t *testing.T) {
	_, decodeErr := Chat(ok(`not json`))
	_, apiErr := Chat(&transport.Response{Status: 500, Body: []byte(`oops`)})

	require.Error(t, decodeErr)
	require.Error(t, apiErr)
	assert.Equal(t, llm.ErrDecode, llm.KindOf(decodeErr))
	assert.Equal(t, llm.ErrAPI, llm.KindOf(apiErr))
	assert.NotEqual(t, llm.KindOf(decodeErr), llm.KindOf(apiErr))
}

// ---------------------------------------------------------------------------
// Images
// ---------------------------------------------------------------------------

func TestImages_URLs(t *testing.T) {
	resp := ok(`{"created":1700000000,"data":[{"url":"https://img/1.jpg"},{"url":"https://img/2.jpg","revised_prompt":"a cat"}]}`)

	result, err := Images(resp)
	require.NoError(t, err)
	require.Len(t, result.Images, 2)
	assert.Equal(t, "https://img/1.jpg", result.Images[0].URL)
	assert.Equal(t, "a cat", result.Images[1].RevisedPrompt)
	assert.False(t, result.CreatedAt.IsZero())
}

func TestImages_Base64(t *testing.T) {
	resp := ok(`{"data":[{"b64_json":"aGVsbG8="}]}`)

	result, err := Images(resp)
	require.NoError(t, err)
	require.Len(t, result.Images, 1)
	assert.Equal(t, "aGVsbG8=", result.Images[0].B64JSON)
}

func TestImages_DecodeFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>502</html>`},
		{"no data", `{"created":1}`},
		{"empty data", `{"data":[]}`},
		{"item with neither url nor b64", `{"data":[{"url":"https://x"},{"revised_prompt":"only"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Images(ok(tt.body))
			require.Error(t, err)
			assert.Equal(t, llm.ErrDecode, llm.KindOf(err))
		})
	}
}

// ---------------------------------------------------------------------------
// Files
// ---------------------------------------------------------------------------

func TestFile_Success(t *testing.T) {
	resp := ok(`{"id":"file-abc","object":"file","bytes":1024,"created_at":1700000000,"filename":"report.pdf","purpose":"assistants"}`)

	info, err := File(resp)
	require.NoError(t, err)
	assert.Equal(t, "file-abc", info.ID)
	assert.Equal(t, int64(1024), info.Bytes)
	assert.Equal(t, "report.pdf", info.Filename)
	assert.Equal(t, "assistants", info.Purpose)
}

func TestFile_MissingID(t *testing.T) {
	_, err := File(ok(`{"bytes":1024}`))
	require.Error(t, err)
	assert.Equal(t, llm.ErrDecode, llm.KindOf(err))
}

func TestFileList_Success(t *testing.T) {
	resp := ok(`{"object":"list","data":[{"id":"f1","filename":"a.txt"},{"id":"f2","filename":"b.txt"}]}`)

	list, err := FileList(resp)
	require.NoError(t, err)
	require.Len(t, list.Data, 2)
	assert.Equal(t, "f1", list.Data[0].ID)
}

func TestFileList_EmptyIsValid(t *testing.T) {
	list, err := FileList(ok(`{"object":"list","data":[]}`))
	require.NoError(t, err)
	assert.Empty(t, list.Data)
}

func TestFileList_MissingData(t *testing.T) {
	_, err := FileList(ok(`{"object":"list"}`))
	require.Error(t, err)
	assert.Equal(t, llm.ErrDecode, llm.KindOf(err))
}

func TestFileDeleted(t *testing.T) {
	out, err := FileDeleted(ok(`{"id":"f1","deleted":true}`))
	require.NoError(t, err)
	assert.True(t, out.Deleted)

	_, err = FileDeleted(ok(`{"deleted":true}`))
	require.Error(t, err)
	assert.Equal(t, llm.ErrDecode, llm.KindOf(err))
}

func TestFileContent_Passthrough(t *testing.T) {
	raw := []byte{0x25, 0x50, 0x44, 0x46} // %PDF
	data, err := FileContent(&transport.Response{Status: 200, Body: raw})
	require.NoError(t, err)
	assert.Equal(t, raw, data)
}

func TestCheckStatus_NonOK(t *testing.T) {
	_, err := FileContent(&transport.Response{Status: 404, Body: []byte("not found")})
	require.Error(t, err)

	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, llm.ErrAPI, llmErr.Kind)
	assert.Equal(t, 404, llmErr.HTTPStatus)
}
