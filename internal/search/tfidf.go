// Package search ranks inbox notifications against free-text queries.
//
// Scoring is TF-IDF with cosine similarity; it needs no external model and
// works on the handful to few thousand notifications an inbox holds.
package search

import (
	"math"
	"sort"
	"strings"
	"sync"
)

// Index is a TF-IDF index over short documents. It is safe for concurrent
// use.
type Index struct {
	mu   sync.RWMutex
	ids  []string
	docs []map[string]int // term -> count, parallel to ids
	idf  map[string]float64
}

// Result is one match.
type Result struct {
	ID    string
	Score float64
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{idf: make(map[string]float64)}
}

// Add indexes text under id. Adding invalidates IDF scores until the next
// Search recomputes them.
func (x *Index) Add(id, text string) {
	tf := make(map[string]int)
	for _, term := range tokenize(text) {
		tf[term]++
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.ids = append(x.ids, id)
	x.docs = append(x.docs, tf)
	x.idf = nil
}

// Len returns the number of indexed documents.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.ids)
}

// computeIDF computes smoothed IDF scores: log(1 + N/df).
func (x *Index) computeIDF() map[string]float64 {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.idf != nil {
		return x.idf
	}

	docFreq := make(map[string]int)
	for _, tf := range x.docs {
		for term := range tf {
			docFreq[term]++
		}
	}

	n := float64(len(x.docs))
	x.idf = make(map[string]float64, len(docFreq))
	for term, df := range docFreq {
		x.idf[term] = math.Log(1 + n/float64(df))
	}
	return x.idf
}

// Search returns the documents sharing at least one term with query, best
// match first. Ties keep insertion order. limit <= 0 means no limit.
func (x *Index) Search(query string, limit int) []Result {
	idf := x.computeIDF()

	qtf := make(map[string]int)
	for _, term := range tokenize(query) {
		qtf[term]++
	}
	q := weigh(qtf, idf)
	if len(q) == 0 {
		return nil
	}

	x.mu.RLock()
	var results []Result
	for i, tf := range x.docs {
		if score := cosine(q, weigh(tf, idf)); score > 0 {
			results = append(results, Result{ID: x.ids[i], Score: score})
		}
	}
	x.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// weigh turns term counts into an L2-normalized TF-IDF vector. Terms
// unknown to the index are dropped.
func weigh(tf map[string]int, idf map[string]float64) map[string]float64 {
	maxTF := 0
	for _, count := range tf {
		maxTF = max(maxTF, count)
	}

	vec := make(map[string]float64, len(tf))
	norm := 0.0
	for term, count := range tf {
		w, ok := idf[term]
		if !ok {
			continue
		}
		v := float64(count) / float64(maxTF) * w
		vec[term] = v
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm == 0 {
		return nil
	}
	for term := range vec {
		vec[term] /= norm
	}
	return vec
}

func cosine(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	dot := 0.0
	for term, v := range a {
		dot += v * b[term]
	}
	return dot
}

// tokenize splits text into lowercase terms.
func tokenize(text string) []string {
	text = strings.ToLower(text)

	// Split on non-alphanumeric characters
	terms := strings.FieldsFunc(text, func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})

	// Filter out very short terms and URL noise
	filtered := make([]string, 0, len(terms))
	for _, term := range terms {
		if len(term) >= 2 && !noise[term] {
			filtered = append(filtered, term)
		}
	}

	return filtered
}

var noise = map[string]bool{
	"http": true, "https": true, "www": true, "urn": true, "uuid": true,
	"the": true, "and": true, "of": true, "to": true,
}
