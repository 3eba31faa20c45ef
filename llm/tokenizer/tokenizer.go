// Package tokenizer estimates token counts for prompt sizing. Counts are
// approximate for non-OpenAI models: unknown model names fall back to the
// cl100k_base encoding, which tracks Grok-family tokenization closely
// enough for budget warnings.
package tokenizer

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

// Per-message overhead in the OpenAI chat format: role markers and
// separators.
const messageOverheadTokens = 4

var (
	encCache   = make(map[string]*tiktoken.Tiktoken)
	encCacheMu sync.Mutex
)

func encodingFor(model string) (*tiktoken.Tiktoken, error) {
	encCacheMu.Lock()
	defer encCacheMu.Unlock()

	if enc, ok := encCache[model]; ok {
		return enc, nil
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, err
		}
	}
	encCache[model] = enc
	return enc, nil
}

// Count returns the approximate token count of text for model. When no
// encoding can be loaded at all (e.g. offline without a cached BPE
// vocabulary), it falls back to a bytes/4 heuristic rather than failing.
func Count(model, text string) int {
	enc, err := encodingFor(model)
	if err != nil {
		return (len(text) + 3) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

// CountMessages returns the approximate total for a message list,
// including per-message formatting overhead.
func CountMessages(model string, contents []string) int {
	total := 0
	for _, c := range contents {
		total += Count(model, c) + messageOverheadTokens
	}
	return total
}
