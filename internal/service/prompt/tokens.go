package prompt

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const encodingName = "cl100k_base"

var (
	tk     *tiktoken.Tiktoken
	tkErr  error
	tkOnce sync.Once
)

func getTokenizer() (*tiktoken.Tiktoken, error) {
	tkOnce.Do(func() {
		tk, tkErr = tiktoken.GetEncoding(encodingName)
	})
	return tk, tkErr
}

// EstimateTokens counts prompt tokens with the cl100k encoding. When the
// encoding cannot be loaded it falls back to four characters per token.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	if enc, err := getTokenizer(); err == nil {
		return len(enc.Encode(text, nil, nil))
	}
	return (utf8.RuneCountInString(text) + 3) / 4
}
