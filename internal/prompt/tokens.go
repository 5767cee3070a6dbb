package prompt

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"

	"mockery-backend/internal/models"
)

var (
	codec     tokenizer.Codec
	codecOnce sync.Once
	codecErr  error
)

// getCodec returns the cl100k_base tokenizer, a reasonable approximation
// for the hosted models.
func getCodec() (tokenizer.Codec, error) {
	codecOnce.Do(func() {
		codec, codecErr = tokenizer.Get(tokenizer.Cl100kBase)
	})
	return codec, codecErr
}

// EstimateTokens returns an approximate prompt size for a system prompt and
// message list, or 0 when the tokenizer is unavailable.
func EstimateTokens(system string, messages []models.ChatMessage) int {
	c, err := getCodec()
	if err != nil {
		return 0
	}

	total := 0
	count := func(text string) {
		ids, _, err := c.Encode(text)
		if err == nil {
			total += len(ids)
		}
	}

	count(system)
	for _, m := range messages {
		count(m.Content)
	}
	return total
}
