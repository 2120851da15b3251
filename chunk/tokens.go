package chunk

import (
	"fmt"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// codec is the process-wide tokenizer instance. cl100k is fixed as the one
// tokenizer a chunk's token count is defined against (§4.2); every sizing
// decision in this package routes through CountTokens, Encode, or Decode.
var (
	codecOnce sync.Once
	codec     tokenizer.Codec
	codecErr  error
)

func getCodec() (tokenizer.Codec, error) {
	codecOnce.Do(func() {
		codec, codecErr = tokenizer.Get(tokenizer.Cl100kBase)
	})
	return codec, codecErr
}

// CountTokens returns the cl100k token count of text.
func CountTokens(text string) (int, error) {
	ids, err := Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Encode tokenizes text into cl100k token ids.
func Encode(text string) ([]uint, error) {
	c, err := getCodec()
	if err != nil {
		return nil, fmt.Errorf("chunk: loading tokenizer: %w", err)
	}
	ids, _, err := c.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("chunk: encoding text: %w", err)
	}
	return ids, nil
}

// Decode renders a slice of cl100k token ids back to text.
func Decode(ids []uint) (string, error) {
	c, err := getCodec()
	if err != nil {
		return "", fmt.Errorf("chunk: loading tokenizer: %w", err)
	}
	text, err := c.Decode(ids)
	if err != nil {
		return "", fmt.Errorf("chunk: decoding tokens: %w", err)
	}
	return text, nil
}
