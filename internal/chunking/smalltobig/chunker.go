// Package smalltobig provides the small-to-big chunking strategy.
//
// Text is first cut into large segments exactly as the simple strategy does.
// Each large segment is split into sentences, and sentences are packed into
// small windows that share a configurable number of sentences with their
// neighbour. Small windows are what gets embedded; the large segment that
// encloses a window is what retrieval returns.
package smalltobig

import (
	"context"
	"regexp"
	"unicode/utf8"

	"github.com/custodia-labs/localrag/internal/chunking/simple"
	"github.com/custodia-labs/localrag/internal/core/domain"
)

// Defaults.
const (
	DefaultBigMaxChars   = 2000
	DefaultSmallMaxChars = 300
	DefaultOverlap       = 1
)

// sentenceEnd matches terminal punctuation followed by whitespace, or a
// line break.
var sentenceEnd = regexp.MustCompile(`[.!?…]+["'”’)\]]*\s+|\n+`)

// Chunker implements the smalltobig strategy.
type Chunker struct {
	bigMaxChars   int
	smallMaxChars int
	overlap       int
}

// Option configures the smalltobig chunker.
type Option func(*Chunker)

// WithBigMaxChars sets the maximum context segment length in characters.
func WithBigMaxChars(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.bigMaxChars = n
		}
	}
}

// WithSmallMaxChars sets the maximum window length in characters.
func WithSmallMaxChars(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.smallMaxChars = n
		}
	}
}

// WithOverlap sets the number of sentences adjacent windows share.
func WithOverlap(sentences int) Option {
	return func(c *Chunker) {
		if sentences >= 0 {
			c.overlap = sentences
		}
	}
}

// New creates a smalltobig chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		bigMaxChars:   DefaultBigMaxChars,
		smallMaxChars: DefaultSmallMaxChars,
		overlap:       DefaultOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}

	// A window never exceeds its context.
	if c.smallMaxChars > c.bigMaxChars {
		c.smallMaxChars = c.bigMaxChars
	}
	return c
}

// Strategy returns domain.StrategySmallToBig.
func (c *Chunker) Strategy() domain.ChunkingStrategy {
	return domain.StrategySmallToBig
}

// Chunk splits text into small windows, each carrying its large segment
// as context.
func (c *Chunker) Chunk(ctx context.Context, text string) ([]domain.Unit, error) {
	bigs := simple.Segments(text, c.bigMaxChars)
	if len(bigs) == 0 {
		return nil, nil
	}

	var units []domain.Unit
	for parent, big := range bigs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		parentText := text[big.Start:big.End]
		for _, w := range c.windows(text, big) {
			units = append(units, domain.Unit{
				Text:           text[w.Start:w.End],
				Context:        parentText,
				Position:       len(units),
				ParentPosition: parent,
				Span:           big,
			})
		}
	}
	return units, nil
}

// windows packs the sentences of one large segment into small windows.
// Every window holds at least one sentence and each window starts at
// least one sentence after the previous one.
func (c *Chunker) windows(text string, big domain.Span) []domain.Span {
	sentences := c.sentences(text, big)
	if len(sentences) == 0 {
		return nil
	}

	var out []domain.Span
	i := 0
	for {
		last := i
		for last+1 < len(sentences) &&
			utf8.RuneCountInString(text[sentences[i].Start:sentences[last+1].End]) <= c.smallMaxChars {
			last++
		}
		out = append(out, domain.Span{Start: sentences[i].Start, End: sentences[last].End})
		if last == len(sentences)-1 {
			return out
		}

		next := last + 1 - c.overlap
		if next <= i {
			next = i + 1
		}
		i = next
	}
}

// sentences returns the sentence spans of a segment. Sentences longer
// than a window are cut at whitespace.
func (c *Chunker) sentences(text string, big domain.Span) []domain.Span {
	seg := text[big.Start:big.End]

	var out []domain.Span
	add := func(sp domain.Span) {
		sp = simple.Trim(text, sp)
		for sp.Len() > 0 {
			end := simple.Cut(text[sp.Start:sp.End], c.smallMaxChars)
			piece := simple.Trim(text, domain.Span{Start: sp.Start, End: sp.Start + end})
			if piece.Len() > 0 {
				out = append(out, piece)
			}
			sp = simple.Trim(text, domain.Span{Start: sp.Start + end, End: sp.End})
		}
	}

	start := 0
	for _, m := range sentenceEnd.FindAllStringIndex(seg, -1) {
		add(domain.Span{Start: big.Start + start, End: big.Start + m[1]})
		start = m[1]
	}
	add(domain.Span{Start: big.Start + start, End: big.End})
	return out
}
