package internal

import (
	"errors"

	"github.com/tiktoken-go/tokenizer"
)

// DefaultModel is the model whose tokenizer is used when no model is given.
const DefaultModel = "gpt-4"

// Tokenizer returns the tokenizer.Codec for the given model. If the model is
// empty or not supported, it falls back to the tokenizer.Cl100kBase encoding.
func Tokenizer(model string) (tokenizer.Codec, error) {
	if model == "" {
		model = DefaultModel
	}
	codec, err := tokenizer.ForModel(tokenizer.Model(model))
	if errors.Is(err, tokenizer.ErrModelNotSupported) {
		return tokenizer.Get(tokenizer.Cl100kBase)
	}
	return codec, err
}

// CountTokens returns the number of tokens the codec produces for text.
func CountTokens(codec tokenizer.Codec, text string) (int, error) {
	ids, _, err := codec.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}
