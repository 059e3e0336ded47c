package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"unicode"
)

const (
	StaticDimensions = 256
	StaticModelName  = "static-hash-256"
)

// Weights for vector generation
const (
	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

var tokenRegex = regexp.MustCompile(`[\p{L}\p{N}]+`)

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true,
	"at": true, "be": true, "by": true, "for": true, "from": true,
	"in": true, "is": true, "it": true, "of": true, "on": true,
	"or": true, "that": true, "the": true, "to": true, "was": true,
	"with": true,
}

// Static generates deterministic hash-based embeddings. It needs no network
// or model download, trading semantic quality for availability.
type Static struct{}

func NewStatic() *Static {
	return &Static{}
}

func (e *Static) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vector := make([]float32, StaticDimensions)

	for _, token := range tokenize(text) {
		vector[hashToIndex(token)] += tokenWeight
	}

	for _, ngram := range extractNgrams(normalizeForNgrams(text), ngramSize) {
		vector[hashToIndex(ngram)] += ngramWeight
	}

	return normalize(vector), nil
}

func tokenize(text string) []string {
	words := tokenRegex.FindAllString(strings.ToLower(text), -1)

	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if stopWords[word] {
			continue
		}

		tokens = append(tokens, word)
	}

	return tokens
}

func normalizeForNgrams(text string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}

	return sb.String()
}

func extractNgrams(text string, n int) []string {
	runes := []rune(text)
	if len(runes) < n {
		return []string{}
	}

	ngrams := make([]string, 0, len(runes)-n+1)
	for i := 0; i <= len(runes)-n; i++ {
		ngrams = append(ngrams, string(runes[i:i+n]))
	}

	return ngrams
}

func hashToIndex(s string) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(StaticDimensions))
}

// normalize scales v to unit length. A zero vector becomes a fixed unit
// vector so cosine similarity stays defined.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}

	if sum == 0 {
		v[0] = 1
		return v
	}

	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}

	return v
}
