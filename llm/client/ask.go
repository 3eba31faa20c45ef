package client

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/llmkit-go/llmkit/llm"
	"github.com/llmkit-go/llmkit/llm/tokenizer"
)

const askSystemPrompt = "You are a helpful assistant. Answer questions about the provided file content."

// AskAboutFiles downloads the contents of the given uploaded files,
// inlines them into a chat prompt, and asks the question against them.
// PDF files have their text extracted page by page; other binary
// (non-UTF-8) files are skipped with a warning, as are PDFs whose text
// cannot be extracted. If nothing readable remains, the call fails
// before any chat request is sent.
func (c *Client) AskAboutFiles(ctx context.Context, fileIDs []string, question string) (*llm.ChatResult, error) {
	if len(fileIDs) == 0 {
		return nil, llm.Validationf("no file ids given")
	}
	if strings.TrimSpace(question) == "" {
		return nil, llm.Validationf("question is empty")
	}

	var sb strings.Builder
	readable := 0
	for _, id := range fileIDs {
		info, err := c.GetFile(ctx, id)
		if err != nil {
			return nil, err
		}
		data, err := c.DownloadFileContent(ctx, id)
		if err != nil {
			return nil, err
		}
		var content string
		switch {
		case isPDF(data):
			content, err = extractPDFText(data)
			if err != nil {
				c.logger.Warn("skipping pdf without extractable text",
					zap.String("file_id", id),
					zap.String("filename", info.Filename),
					zap.Error(err))
				continue
			}
		case utf8.Valid(data):
			content = string(data)
		default:
			c.logger.Warn("skipping binary file",
				zap.String("file_id", id),
				zap.String("filename", info.Filename))
			continue
		}
		fmt.Fprintf(&sb, "%s\nFILE: %s\n%s\n%s\n\n",
			strings.Repeat("=", 60), info.Filename, strings.Repeat("=", 60), content)
		readable++
	}
	if readable == 0 {
		return nil, llm.Validationf("none of the %d file(s) contain readable text", len(fileIDs))
	}

	intro := "Here is the content of a file:"
	if readable > 1 {
		intro = fmt.Sprintf("Here is the content of %d files:", readable)
	}
	userContent := fmt.Sprintf("%s\n\n%s\nQuestion: %s", intro, sb.String(), question)

	c.logger.Info("asking about file content",
		zap.Int("files", readable),
		zap.Int("approx_prompt_tokens",
			tokenizer.CountMessages(c.cfg.ChatModel, []string{askSystemPrompt, userContent})))

	return c.ChatCompletion(ctx, &llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: askSystemPrompt},
			{Role: llm.RoleUser, Content: userContent},
		},
	})
}
