// Package tokens estimates prompt token counts for usage attribution.
package tokens

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// Message is the subset of a chat message relevant to token counting.
type Message struct {
	Role    string
	Content string
}

// Counter counts tokens using tiktoken encodings.
type Counter struct {
	// codecCache caches tokenizer codecs by encoding name
	codecCache map[tokenizer.Encoding]tokenizer.Codec
	cacheMu    sync.RWMutex
}

// NewCounter creates a token counter.
func NewCounter() *Counter {
	return &Counter{
		codecCache: make(map[tokenizer.Encoding]tokenizer.Codec),
	}
}

// getCodec returns the tokenizer codec for a model, falling back to an
// encoding chosen by model prefix when the model is unknown to tiktoken.
func (c *Counter) getCodec(model string) (tokenizer.Codec, error) {
	codec, err := tokenizer.ForModel(tokenizer.Model(model))
	if err == nil {
		return codec, nil
	}

	encoding := modelToEncoding(model)

	c.cacheMu.RLock()
	if cached, ok := c.codecCache[encoding]; ok {
		c.cacheMu.RUnlock()
		return cached, nil
	}
	c.cacheMu.RUnlock()

	codec, err = tokenizer.Get(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokenizer encoding: %w", err)
	}

	c.cacheMu.Lock()
	c.codecCache[encoding] = codec
	c.cacheMu.Unlock()

	return codec, nil
}

// modelToEncoding maps model names to encodings for fallback.
//
// O200kBase covers GPT-5, GPT-4.1, GPT-4o and the o-series; Cl100kBase
// covers GPT-4 and GPT-3.5. Non-OpenAI models (claude, llama, ...) get
// O200kBase, which makes their counts rough estimates, good enough for
// attribution.
func modelToEncoding(model string) tokenizer.Encoding {
	model = strings.ToLower(model)

	switch {
	case strings.HasPrefix(model, "gpt-4.1"), strings.HasPrefix(model, "gpt-4o"),
		strings.HasPrefix(model, "gpt-5"),
		strings.HasPrefix(model, "o1"), strings.HasPrefix(model, "o3"), strings.HasPrefix(model, "o4"):
		return tokenizer.O200kBase
	case strings.HasPrefix(model, "gpt-4"), strings.HasPrefix(model, "gpt-3.5"):
		return tokenizer.Cl100kBase
	default:
		return tokenizer.O200kBase
	}
}

// CountText counts tokens in a plain text string.
func (c *Counter) CountText(model, text string) (int, error) {
	codec, err := c.getCodec(model)
	if err != nil {
		return 0, err
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// EstimatePrompt estimates the prompt tokens for a chat request. Per-message
// overhead follows OpenAI's documented accounting: 3 tokens per message plus
// 1 for the role, plus 3 for assistant priming. Returns 0 when counting
// fails; an estimate must never block a request.
func (c *Counter) EstimatePrompt(model string, messages []Message) int {
	codec, err := c.getCodec(model)
	if err != nil {
		return 0
	}

	const tokensPerMessage = 3
	const tokensPerRole = 1

	total := 0
	for _, msg := range messages {
		total += tokensPerMessage + tokensPerRole
		ids, _, err := codec.Encode(msg.Content)
		if err != nil {
			return 0
		}
		total += len(ids)
	}
	total += 3 // assistant priming

	return total
}
