package processor

import (
	"fmt"
	"unicode/utf8"

	"github.com/xhad/ragmem/internal/models"
	appErr "github.com/xhad/ragmem/internal/pkg/errors"
)

const DefaultChunkSize = 800

type ProcessorConfig struct {
	// ChunkSize is the maximum number of characters per chunk. Line
	// terminators count as one character each.
	ChunkSize int
}

type Processor struct {
	config ProcessorConfig
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkSize
	}

	return Processor{
		config: config,
	}
}

func (p *Processor) ChunkSize() int {
	return p.config.ChunkSize
}

// Split partitions text left to right into runs of at most ChunkSize
// characters. There is no overlap and no word or sentence awareness, so a
// boundary may fall inside a word. Concatenating the chunks yields text.
func (p *Processor) Split(text string) ([]models.Chunk, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", appErr.ErrInvalidInput)
	}

	size := p.config.ChunkSize
	chunks := make([]models.Chunk, 0, utf8.RuneCountInString(text)/size+1)

	start, count := 0, 0
	for i := 0; i < len(text); {
		// An invalid byte decodes with width 1 and is counted as one character.
		_, width := utf8.DecodeRuneInString(text[i:])
		i += width
		count++

		if count == size {
			chunks = append(chunks, models.Chunk{Index: len(chunks), Text: text[start:i]})
			start, count = i, 0
		}
	}

	if start < len(text) {
		chunks = append(chunks, models.Chunk{Index: len(chunks), Text: text[start:]})
	}

	return chunks, nil
}
