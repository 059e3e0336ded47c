package vector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitTextShort(t *testing.T) {
	assert := assert.New(t)

	assert.Nil(SplitText("   \n\t", 10, 2))
	assert.Equal([]string{"hello world"}, SplitText("  hello world ", 100, 10))
}

func TestSplitTextChunks(t *testing.T) {
	assert := assert.New(t)

	words := make([]string, 100)
	for i := range words {
		words[i] = "word"
	}
	text := strings.Join(words, " ") // 499 runes

	chunks := SplitText(text, 100, 20)

	assert.Greater(len(chunks), 4)
	for _, chunk := range chunks {
		assert.LessOrEqual(len([]rune(chunk)), 100)
		assert.False(strings.HasPrefix(chunk, " "))
	}

	assert.True(strings.HasSuffix(chunks[len(chunks)-1], "word"))
}

func TestSplitTextWithoutSpaces(t *testing.T) {
	assert := assert.New(t)

	text := strings.Repeat("x", 250)

	chunks := SplitText(text, 100, 0)

	assert.Len(chunks, 3)
	assert.Len(chunks[0], 100)
	assert.Len(chunks[2], 50)
}

func TestConfigWithDefaults(t *testing.T) {
	assert := assert.New(t)

	cfg := Config{ChunkSize: 10, ChunkOverlap: 10}.WithDefaults()

	assert.Equal(4, cfg.Concurrency)
	assert.Equal(10, cfg.ChunkSize)
	assert.Equal(0, cfg.ChunkOverlap)
}
