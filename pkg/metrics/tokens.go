package metrics

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const defaultEncoding = "cl100k_base"

// TokenCounter estimates prompt sizes with a tiktoken encoding.
// When the encoding cannot be loaded it degrades to a rune based estimate.
type TokenCounter struct {
	once     sync.Once
	model    string
	encoding *tiktoken.Tiktoken
}

// NewTokenCounter builds a counter for model. The encoding is resolved lazily.
func NewTokenCounter(model string) *TokenCounter {
	return &TokenCounter{model: model}
}

// Count returns the number of tokens in text.
func (c *TokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	if c == nil {
		return estimate(text)
	}
	c.once.Do(c.load)
	if c.encoding == nil {
		return estimate(text)
	}
	return len(c.encoding.Encode(text, nil, nil))
}

func (c *TokenCounter) load() {
	if c.model != "" {
		if enc, err := tiktoken.EncodingForModel(c.model); err == nil {
			c.encoding = enc
			return
		}
	}
	if enc, err := tiktoken.GetEncoding(defaultEncoding); err == nil {
		c.encoding = enc
	}
}

// estimate approximates one token per four runes, rounding up.
func estimate(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}
