package transport

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// maxErrorBody bounds how much of an error response is read for the
// message; provider error bodies are small, anything bigger is noise.
const maxErrorBody = 64 << 10

// readErrorMessage extracts a human-readable message from an error
// response body. It tries the OpenAI-compatible {"error":{...}} envelope
// first and falls back to the raw text.
func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil {
		return "failed to read error response"
	}

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    any    `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		if errResp.Error.Type != "" {
			return fmt.Sprintf("%s (type: %s)", errResp.Error.Message, errResp.Error.Type)
		}
		return errResp.Error.Message
	}

	msg := strings.TrimSpace(string(data))
	if msg == "" {
		return "provider returned an empty error body"
	}
	return msg
}
