// Package rag ranks course documents against a question with TF-IDF
// weighting and cosine similarity.
package rag

import (
	"fmt"
	"math"
	"regexp"
	"sort"

	"gonum.org/v1/gonum/floats"

	domerrors "github.com/garyellow/ders-bilgi-bot/internal/errors"
)

// termPattern matches runs of two or more word characters; shorter runs carry no weight.
var termPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Match is the best document for a query.
type Match struct {
	Index int
	Score float64 // cosine similarity in [0, 1]
}

// TFIDFIndex is a fitted term-weight model plus one L2-normalized vector per document.
// Immutable after Fit and safe for concurrent readers.
type TFIDFIndex struct {
	vocab   map[string]int
	terms   []string
	idf     []float64
	vectors [][]float64
}

// Fit builds the index over corpus with raw term counts, smoothed idf
// ln((1+n)/(1+df)) + 1 and L2 normalization.
func Fit(corpus []string) (*TFIDFIndex, error) {
	if len(corpus) == 0 {
		return nil, fmt.Errorf("fit similarity index: %w", domerrors.ErrEmptyCorpus)
	}

	tokenized := make([][]string, len(corpus))
	df := make(map[string]int)
	for i, doc := range corpus {
		tokens := termPattern.FindAllString(doc, -1)
		tokenized[i] = tokens

		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	if len(df) == 0 {
		return nil, fmt.Errorf("fit similarity index: no terms in %d documents: %w", len(corpus), domerrors.ErrEmptyCorpus)
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	idx := &TFIDFIndex{
		vocab:   make(map[string]int, len(terms)),
		terms:   terms,
		idf:     make([]float64, len(terms)),
		vectors: make([][]float64, len(corpus)),
	}

	n := float64(len(corpus))
	for i, term := range terms {
		idx.vocab[term] = i
		idx.idf[i] = smoothIDF(n, float64(df[term]))
	}

	for i, tokens := range tokenized {
		idx.vectors[i] = idx.weigh(tokens)
	}

	return idx, nil
}

func smoothIDF(n, df float64) float64 {
	return math.Log((1+n)/(1+df)) + 1
}

// Transform projects text into the fitted term space. Unknown terms are ignored.
func (idx *TFIDFIndex) Transform(text string) []float64 {
	return idx.weigh(termPattern.FindAllString(text, -1))
}

func (idx *TFIDFIndex) weigh(tokens []string) []float64 {
	vec := make([]float64, len(idx.terms))
	for _, tok := range tokens {
		if j, ok := idx.vocab[tok]; ok {
			vec[j]++
		}
	}
	floats.Mul(vec, idx.idf)

	if norm := floats.Norm(vec, 2); norm > 0 {
		floats.Scale(1/norm, vec)
	}
	return vec
}

// Scores returns the cosine similarity of query against every document.
func (idx *TFIDFIndex) Scores(query string) []float64 {
	q := idx.Transform(query)
	scores := make([]float64, len(idx.vectors))
	if floats.Sum(q) == 0 {
		return scores
	}
	for i, vec := range idx.vectors {
		scores[i] = floats.Dot(q, vec)
	}
	return scores
}

// Best returns the most similar document. Ties go to the lowest index, so a
// query sharing no terms with the corpus yields index 0 with score 0.
func (idx *TFIDFIndex) Best(query string) Match {
	best := Match{}
	for i, s := range idx.Scores(query) {
		if s > best.Score {
			best = Match{Index: i, Score: s}
		}
	}
	return best
}

// BestMatch returns the index of the most similar document.
func (idx *TFIDFIndex) BestMatch(query string) int {
	return idx.Best(query).Index
}

// Len returns the number of indexed documents.
func (idx *TFIDFIndex) Len() int {
	return len(idx.vectors)
}

// VocabularySize returns the number of distinct fitted terms.
func (idx *TFIDFIndex) VocabularySize() int {
	return len(idx.terms)
}

// IDF returns the inverse document frequency of term and whether it is known.
func (idx *TFIDFIndex) IDF(term string) (float64, bool) {
	j, ok := idx.vocab[term]
	if !ok {
		return 0, false
	}
	return idx.idf[j], true
}
