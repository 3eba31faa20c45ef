package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmkit-go/llmkit/llm"
	"github.com/llmkit-go/llmkit/llm/request"
	"github.com/llmkit-go/llmkit/llm/transport"
)

// buildPDF assembles a minimal single-page PDF carrying the given text.
// Object offsets in the xref table are computed while writing, so the
// fixture stays valid without hand-counted byte positions.
func buildPDF(t *testing.T, text string) []byte {
	t.Helper()

	var buf bytes.Buffer
	offsets := make([]int, 6)
	writeObj := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	buf.WriteString("%PDF-1.4\n")
	stream := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	writeObj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
		"/Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>")
	writeObj(4, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	writeObj(5, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	xrefPos := buf.Len()
	buf.WriteString("xref\n0 6\n")
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xrefPos)
	return buf.Bytes()
}

func TestIsPDF(t *testing.T) {
	assert.True(t, isPDF([]byte("%PDF-1.4\n...")))
	assert.False(t, isPDF([]byte("plain text")))
	assert.False(t, isPDF([]byte{0x89, 'P', 'N', 'G'}))
	assert.False(t, isPDF(nil))
}

func TestExtractPDFText(t *testing.T) {
	text, err := extractPDFText(buildPDF(t, "Hello PDF"))
	require.NoError(t, err)
	assert.Contains(t, text, "Hello PDF")
	assert.Contains(t, text, "--- Page 1 ---")
}

func TestExtractPDFText_Malformed(t *testing.T) {
	_, err := extractPDFText([]byte("%PDF-1.4\ngarbage"))
	require.Error(t, err)
	assert.Equal(t, llm.ErrDecode, llm.KindOf(err))
}

func TestAskAboutFiles_ExtractsPDF(t *testing.T) {
	pdfBytes := buildPDF(t, "quarterly revenue grew")

	var chatBody []byte
	spy := &spyTransport{}
	spy.respond = func(enc *request.Encoded) (*transport.Response, error) {
		switch enc.Path {
		case "/v1/files/file-pdf":
			return jsonResponse(t, http.StatusOK, llm.FileInfo{ID: "file-pdf", Filename: "report.pdf"}), nil
		case "/v1/files/file-pdf/content":
			return &transport.Response{Status: http.StatusOK, Body: pdfBytes}, nil
		case "/v1/chat/completions":
			chatBody = enc.Body
			return jsonResponse(t, http.StatusOK, chatEnvelope("revenue grew", 40, 3)), nil
		}
		t.Fatalf("unexpected path %q", enc.Path)
		return nil, nil
	}
	c := NewWithTransport(spy, Config{})

	result, err := c.AskAboutFiles(context.Background(),
		[]string{"file-pdf"}, "How did revenue do?")
	require.NoError(t, err)
	assert.Equal(t, "revenue grew", result.Content)

	// The extracted text, not the raw PDF bytes, is what gets inlined.
	var sent llm.ChatRequest
	require.NoError(t, json.Unmarshal(chatBody, &sent))
	require.Len(t, sent.Messages, 2)
	assert.Contains(t, sent.Messages[1].Content, "FILE: report.pdf")
	assert.Contains(t, sent.Messages[1].Content, "quarterly revenue grew")
	assert.NotContains(t, sent.Messages[1].Content, "%PDF")
}
