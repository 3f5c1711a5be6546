package chunker

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/theakash04/termify/internal/entity"
	"go.uber.org/zap"
)

const (
	defaultChunkSize    = 700
	defaultChunkOverlap = 50
)

// Splitter splits document text into overlapping chunks and normalizes
// them. Splitting prefers larger semantic boundaries first: paragraphs,
// then sentences, then words, then a forced character cut. Each chunk
// after the first re-carries roughly Overlap trailing characters of the
// previous chunk so retrieval keeps cross-chunk context.
type Splitter struct {
	size    int
	overlap int
	logger  *zap.Logger
}

func NewSplitter(size, overlap int, logger *zap.Logger) *Splitter {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = defaultChunkOverlap
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Splitter{size: size, overlap: overlap, logger: logger}
}

// Split produces the ordered chunk sequence for one document. Empty text
// yields an empty sequence, not an error. Chunk order is document order
// and must never be reordered downstream.
func (s *Splitter) Split(text, sourceLabel string) []entity.Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return []entity.Chunk{}
	}

	units := s.splitUnits(text)
	raw := s.assemble(units)

	chunks := make([]entity.Chunk, 0, len(raw))
	for _, r := range raw {
		chunks = append(chunks, entity.Chunk{
			Text:        s.clean(r),
			SourceLabel: sourceLabel,
		})
	}

	return chunks
}

// clean normalizes one chunk. A chunk whose normalized form comes out
// empty is kept unnormalized with a warning; one bad chunk never aborts
// the document.
func (s *Splitter) clean(text string) string {
	normalized := Normalize(text)
	if normalized == "" && strings.TrimSpace(text) != "" {
		s.logger.Warn("chunk normalization produced empty text, keeping raw chunk",
			zap.Int("raw_length", len(text)),
		)
		return text
	}
	return normalized
}

var (
	nonAlnumRe   = regexp.MustCompile(`[^a-zA-Z0-9\s]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalize strips everything that is not alphanumeric or whitespace,
// collapses whitespace runs to a single space and trims. Idempotent.
func Normalize(text string) string {
	text = nonAlnumRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// splitUnits breaks text into pieces no larger than the chunk size,
// descending through paragraph, sentence, word and character boundaries
// only as far as needed.
func (s *Splitter) splitUnits(text string) []string {
	var units []string

	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		if len(paragraph) <= s.size {
			units = append(units, paragraph)
			continue
		}

		for _, sentence := range splitSentences(paragraph) {
			if len(sentence) <= s.size {
				units = append(units, sentence)
				continue
			}

			units = append(units, s.splitWords(sentence)...)
		}
	}

	return units
}

// splitWords packs words into pieces bounded by the chunk size, forcing a
// character cut on words that are themselves oversized.
func (s *Splitter) splitWords(text string) []string {
	var pieces []string
	var current strings.Builder

	for _, word := range strings.Fields(text) {
		if len(word) > s.size {
			if current.Len() > 0 {
				pieces = append(pieces, current.String())
				current.Reset()
			}
			pieces = append(pieces, forceSplit(word, s.size)...)
			continue
		}

		if current.Len() > 0 && current.Len()+1+len(word) > s.size {
			pieces = append(pieces, current.String())
			current.Reset()
		}

		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}

	if current.Len() > 0 {
		pieces = append(pieces, current.String())
	}

	return pieces
}

// assemble greedily packs units into chunks, seeding every chunk after
// the first with the word-aligned tail of its predecessor.
func (s *Splitter) assemble(units []string) []string {
	var chunks []string
	var current strings.Builder

	flush := func() string {
		content := strings.TrimSpace(current.String())
		if content != "" {
			chunks = append(chunks, content)
		}
		current.Reset()
		return content
	}

	for _, unit := range units {
		if current.Len() > 0 && current.Len()+1+len(unit) > s.size {
			previous := flush()

			// Seed the next chunk with overlap from the previous one
			if s.overlap > 0 && previous != "" {
				tail := tailOverlap(previous, s.overlap)
				if tail != "" {
					current.WriteString(tail)
				}
			}
		}

		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(unit)
	}

	flush()
	return chunks
}

// tailOverlap returns the last size characters of text, advanced to the
// next word boundary so overlap regions never cut a word in half.
func tailOverlap(text string, size int) string {
	if size <= 0 || len(text) == 0 {
		return ""
	}
	if size >= len(text) {
		return text
	}

	tail := text[len(text)-size:]
	if firstSpace := strings.Index(tail, " "); firstSpace >= 0 {
		return tail[firstSpace+1:]
	}

	// The tail is mid-word; drop it rather than emit a fragment.
	return ""
}

// splitSentences splits text at sentence-ending punctuation followed by
// whitespace or a closing quote/bracket.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])

		if isSentenceEnd(runes[i]) {
			next := runeAt(runes, i+1)
			if next == 0 || unicode.IsSpace(next) || next == '"' || next == '\'' || next == ')' || next == ']' {
				sentence := strings.TrimSpace(current.String())
				if sentence != "" {
					sentences = append(sentences, sentence)
				}
				current.Reset()
			}
		}
	}

	if current.Len() > 0 {
		sentence := strings.TrimSpace(current.String())
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
	}

	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func runeAt(runes []rune, i int) rune {
	if i < 0 || i >= len(runes) {
		return 0
	}
	return runes[i]
}

// forceSplit cuts text into fixed-size pieces at rune boundaries.
func forceSplit(text string, size int) []string {
	var pieces []string

	runes := []rune(text)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, string(runes[start:end]))
	}

	return pieces
}
