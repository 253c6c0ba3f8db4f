// Package simple provides the simple chunking strategy.
package simple

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/localrag/internal/core/domain"
)

// DefaultMaxChars is the default maximum number of characters per segment.
const DefaultMaxChars = 1500

// paragraphBreak matches one or more blank lines.
var paragraphBreak = regexp.MustCompile(`\n[ \t\r\f\v]*\n\s*`)

// Chunker splits text on blank lines. Paragraphs longer than the limit are
// cut into consecutive windows at whitespace, without overlap, so the
// segments concatenate back to the input apart from boundary whitespace.
type Chunker struct {
	maxChars int
}

// Option configures the simple chunker.
type Option func(*Chunker)

// WithMaxChars sets the maximum segment length in characters.
func WithMaxChars(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxChars = n
		}
	}
}

// New creates a simple chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{maxChars: DefaultMaxChars}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Strategy returns domain.StrategySimple.
func (c *Chunker) Strategy() domain.ChunkingStrategy {
	return domain.StrategySimple
}

// MaxChars returns the configured segment limit.
func (c *Chunker) MaxChars() int {
	return c.maxChars
}

// Chunk splits text into paragraph segments.
func (c *Chunker) Chunk(ctx context.Context, text string) ([]domain.Unit, error) {
	spans := Segments(text, c.maxChars)
	if len(spans) == 0 {
		return nil, nil
	}

	units := make([]domain.Unit, 0, len(spans))
	for i, sp := range spans {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		segment := text[sp.Start:sp.End]
		units = append(units, domain.Unit{
			Text:           segment,
			Context:        segment,
			Position:       i,
			ParentPosition: i,
			Span:           sp,
		})
	}
	return units, nil
}

// Segments returns the spans of the paragraph segments of text, each at
// most maxChars characters long and trimmed of surrounding whitespace.
func Segments(text string, maxChars int) []domain.Span {
	var spans []domain.Span
	start := 0
	for _, brk := range paragraphBreak.FindAllStringIndex(text, -1) {
		spans = appendParagraph(spans, text, domain.Span{Start: start, End: brk[0]}, maxChars)
		start = brk[1]
	}
	return appendParagraph(spans, text, domain.Span{Start: start, End: len(text)}, maxChars)
}

func appendParagraph(spans []domain.Span, text string, sp domain.Span, maxChars int) []domain.Span {
	sp = Trim(text, sp)
	for sp.Len() > 0 {
		end := Cut(text[sp.Start:sp.End], maxChars)
		piece := Trim(text, domain.Span{Start: sp.Start, End: sp.Start + end})
		if piece.Len() > 0 {
			spans = append(spans, piece)
		}
		sp = Trim(text, domain.Span{Start: sp.Start + end, End: sp.End})
	}
	return spans
}

// Cut returns the byte offset at which s should be split so the first part
// holds at most maxChars characters. It prefers the last whitespace inside
// the window and only splits a word when the window has none.
func Cut(s string, maxChars int) int {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return len(s)
	}

	limit := 0
	for n := 0; n < maxChars; n++ {
		_, size := utf8.DecodeRuneInString(s[limit:])
		limit += size
	}

	if i := strings.LastIndexFunc(s[:limit], unicode.IsSpace); i > 0 {
		return i
	}
	return limit
}

// Trim shrinks sp so it excludes leading and trailing whitespace of text.
func Trim(text string, sp domain.Span) domain.Span {
	seg := text[sp.Start:sp.End]
	left := len(seg) - len(strings.TrimLeftFunc(seg, unicode.IsSpace))
	right := len(strings.TrimRightFunc(seg, unicode.IsSpace))
	if right <= left {
		return domain.Span{Start: sp.Start, End: sp.Start}
	}
	return domain.Span{Start: sp.Start + left, End: sp.Start + right}
}
