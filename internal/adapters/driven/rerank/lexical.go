package rerank

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/custodia-labs/localrag/internal/core/domain"
	"github.com/custodia-labs/localrag/internal/core/ports/driven"
)

// Ensure Lexical implements the interface.
var _ driven.Reranker = (*Lexical)(nil)

// Passage lengths, in tokens, that receive the full length score.
const (
	idealMinTokens = 50
	idealMaxTokens = 500
)

// Lexical scores candidates by keyword overlap with the query, how early
// the query terms appear, and passage length.
type Lexical struct {
	KeywordWeight  float64
	PositionWeight float64
	LengthWeight   float64
}

// NewLexical creates a lexical reranker with the default weights.
func NewLexical() *Lexical {
	return &Lexical{
		KeywordWeight:  0.6,
		PositionWeight: 0.3,
		LengthWeight:   0.1,
	}
}

// Name returns the reranker name.
func (r *Lexical) Name() string {
	return string(domain.RerankLexical)
}

// Rerank orders candidates by lexical relevance to query.
func (r *Lexical) Rerank(ctx context.Context, query string, candidates []domain.Source) ([]domain.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queryTerms := lowerAll(tokenize(query))
	items := make([]scored, len(candidates))
	for i, c := range candidates {
		items[i] = scored{source: c}
		if len(queryTerms) > 0 {
			items[i].score = r.score(queryTerms, c.Text)
		}
	}
	return order(items), nil
}

// score combines the keyword, position and length scores.
func (r *Lexical) score(queryTerms []string, text string) float64 {
	docTerms := lowerAll(tokenize(text))
	if len(docTerms) == 0 {
		return 0
	}
	return r.KeywordWeight*keywordScore(queryTerms, docTerms) +
		r.PositionWeight*positionScore(queryTerms, text) +
		r.LengthWeight*lengthScore(len(docTerms))
}

// keywordScore averages the share of query terms present and their
// dampened term frequency.
func keywordScore(queryTerms, docTerms []string) float64 {
	freq := make(map[string]int, len(docTerms))
	for _, t := range docTerms {
		freq[t]++
	}

	matched := 0
	tf := 0.0
	for _, q := range queryTerms {
		if n, ok := freq[q]; ok {
			matched++
			tf += math.Log(1 + float64(n))
		}
	}

	n := float64(len(queryTerms))
	return float64(matched)/n*0.5 + math.Min(tf/n, 1)*0.5
}

// positionScore rewards query terms that appear early, decaying as e^(-2x)
// over the relative offset of the first occurrence.
func positionScore(queryTerms []string, text string) float64 {
	if text == "" {
		return 0
	}
	lower := strings.ToLower(text)
	total := 0.0
	for _, q := range queryTerms {
		if pos := strings.Index(lower, q); pos >= 0 {
			total += math.Exp(-2 * float64(pos) / float64(len(lower)))
		}
	}
	return total / float64(len(queryTerms))
}

func lengthScore(tokens int) float64 {
	switch {
	case tokens < idealMinTokens:
		return float64(tokens) / idealMinTokens
	case tokens > idealMaxTokens:
		return float64(idealMaxTokens) / float64(tokens)
	default:
		return 1
	}
}

// tokenize splits text into runs of letters and digits. Han characters
// are emitted one per token.
func tokenize(text string) []string {
	var (
		tokens  []string
		current strings.Builder
	)
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, c := range text {
		switch {
		case unicode.Is(unicode.Han, c):
			flush()
			tokens = append(tokens, string(c))
		case unicode.IsLetter(c) || unicode.IsNumber(c):
			current.WriteRune(c)
		default:
			flush()
		}
	}
	flush()
	return tokens
}

func lowerAll(terms []string) []string {
	for i, t := range terms {
		terms[i] = strings.ToLower(t)
	}
	return terms
}
