package llm

import (
	"context"
	"strings"
)

// NewExtractive returns a Synthesizer that answers with the retrieved
// sources themselves, for deployments without a language model.
func NewExtractive() Synthesizer {
	return extractive{}
}

type extractive struct{}

func (extractive) Synthesize(ctx context.Context, query string, sources []string) (string, error) {
	if len(sources) == 0 {
		return "Empty Response", nil
	}

	return strings.Join(sources, "\n\n"), nil
}
