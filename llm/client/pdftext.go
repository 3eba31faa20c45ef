package client

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/llmkit-go/llmkit/llm"
)

var pdfMagic = []byte("%PDF")

func isPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// extractPDFText pulls the plain text out of a PDF payload, page by
// page. The parser panics on some malformed inputs, so the recover
// turns those into decode failures too.
func extractPDFText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = llm.Decodef(nil, "pdf parse: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", llm.Decodef(err, "pdf parse: %v", err)
	}

	var sb strings.Builder
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, pageErr := page.GetPlainText(fonts)
		if pageErr != nil {
			return "", llm.Decodef(pageErr, "pdf page %d: %v", i, pageErr)
		}
		fmt.Fprintf(&sb, "\n--- Page %d ---\n%s\n", i, pageText)
	}
	if strings.TrimSpace(stripPageHeaders(sb.String())) == "" {
		return "", llm.Decodef(nil, "pdf contains no extractable text")
	}
	return sb.String(), nil
}

// stripPageHeaders drops the page marker lines so emptiness checks see
// only actual document text.
func stripPageHeaders(s string) string {
	var sb strings.Builder
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(line, "--- Page ") {
			continue
		}
		sb.WriteString(line)
	}
	return sb.String()
}
