// Package index provides the BM25 full-text index used by the local store backends.
package index

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Hit is a single search match.
type Hit struct {
	ID    string
	Score float64
}

// BM25 is an in-memory inverted index partitioned by container tag.
type BM25 struct {
	mu sync.RWMutex

	k1 float64
	b  float64

	postings   map[string]map[string]struct{} // term -> record ids
	termFreqs  map[string]map[string]int      // record id -> term -> count
	docLengths map[string]int
	containers map[string]string // record id -> container tag
	loaded     map[string]bool   // containers that have been bulk-loaded

	totalDocs int
	totalLen  int
}

// NewBM25 creates an index with the given BM25 parameters. Non-positive
// values fall back to k1=1.5, b=0.75.
func NewBM25(k1, b float64) *BM25 {
	if k1 <= 0 {
		k1 = 1.5
	}
	if b <= 0 || b > 1 {
		b = 0.75
	}
	return &BM25{
		k1:         k1,
		b:          b,
		postings:   make(map[string]map[string]struct{}),
		termFreqs:  make(map[string]map[string]int),
		docLengths: make(map[string]int),
		containers: make(map[string]string),
		loaded:     make(map[string]bool),
	}
}

// Put indexes (or re-indexes) a record body.
func (idx *BM25) Put(id, containerTag, text string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.putLocked(id, containerTag, text)
}

func (idx *BM25) putLocked(id, containerTag, text string) {
	if _, exists := idx.termFreqs[id]; exists {
		idx.removeLocked(id)
	}

	tokens := Tokenize(text)
	freqs := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		freqs[tok]++
	}

	idx.termFreqs[id] = freqs
	idx.docLengths[id] = len(tokens)
	idx.containers[id] = containerTag
	idx.totalDocs++
	idx.totalLen += len(tokens)

	for term := range freqs {
		if idx.postings[term] == nil {
			idx.postings[term] = make(map[string]struct{})
		}
		idx.postings[term][id] = struct{}{}
	}
}

// Remove drops a record from the index.
func (idx *BM25) Remove(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(id)
}

func (idx *BM25) removeLocked(id string) {
	freqs, exists := idx.termFreqs[id]
	if !exists {
		return
	}
	for term := range freqs {
		if docs, ok := idx.postings[term]; ok {
			delete(docs, id)
			if len(docs) == 0 {
				delete(idx.postings, term)
			}
		}
	}
	idx.totalLen -= idx.docLengths[id]
	idx.totalDocs--
	delete(idx.termFreqs, id)
	delete(idx.docLengths, id)
	delete(idx.containers, id)
}

// Loaded reports whether a container was bulk-loaded via Load.
func (idx *BM25) Loaded(containerTag string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.loaded[containerTag]
}

// Load bulk-indexes a container's documents (id -> text) and marks it loaded.
func (idx *BM25) Load(containerTag string, docs map[string]string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for id, text := range docs {
		idx.putLocked(id, containerTag, text)
	}
	idx.loaded[containerTag] = true
}

// Search returns up to limit hits for the query within a container, best first.
func (idx *BM25) Search(containerTag, query string, limit int) []Hit {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.totalDocs == 0 {
		return nil
	}
	terms := Tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	avgDL := float64(idx.totalLen) / float64(idx.totalDocs)

	candidates := make(map[string]struct{})
	for _, term := range terms {
		for id := range idx.postings[term] {
			if idx.containers[id] == containerTag {
				candidates[id] = struct{}{}
			}
		}
	}

	hits := make([]Hit, 0, len(candidates))
	for id := range candidates {
		if score := idx.scoreLocked(id, terms, avgDL); score > 0 {
			hits = append(hits, Hit{ID: id, Score: score})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score == hits[j].Score {
			return hits[i].ID < hits[j].ID
		}
		return hits[i].Score > hits[j].Score
	})

	if limit > 0 && limit < len(hits) {
		hits = hits[:limit]
	}
	return hits
}

// Len returns the number of indexed documents.
func (idx *BM25) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.totalDocs
}

// scoreLocked computes the BM25 score of one document. Caller holds the read lock.
func (idx *BM25) scoreLocked(id string, terms []string, avgDL float64) float64 {
	docLen := float64(idx.docLengths[id])
	freqs := idx.termFreqs[id]
	score := 0.0

	for _, term := range terms {
		tf := float64(freqs[term])
		if tf == 0 {
			continue
		}
		// IDF: log((N - n + 0.5) / (n + 0.5) + 1)
		n := float64(len(idx.postings[term]))
		idf := math.Log((float64(idx.totalDocs)-n+0.5)/(n+0.5) + 1.0)

		score += idf * tf * (idx.k1 + 1) / (tf + idx.k1*(1-idx.b+idx.b*docLen/avgDL))
	}
	return score
}

// Tokenize lowercases text and splits it on non alphanumeric runes,
// dropping stop words. Han characters become single-rune tokens.
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	tokens := make([]string, 0, len(text)/4)

	var current strings.Builder
	flush := func() {
		if current.Len() == 0 {
			return
		}
		tok := current.String()
		if _, stop := stopWords[tok]; !stop {
			tokens = append(tokens, tok)
		}
		current.Reset()
	}

	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			flush()
			tokens = append(tokens, string(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			current.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}

var stopWords = func() map[string]struct{} {
	words := []string{
		"a", "an", "the", "is", "are", "was", "were", "be", "been", "being",
		"have", "has", "had", "do", "does", "did", "will", "would", "could",
		"should", "may", "might", "shall", "can", "to", "of", "in", "for",
		"on", "with", "at", "by", "from", "as", "into", "about", "and", "but",
		"or", "not", "so", "if", "when", "where", "how", "what", "which", "who",
		"this", "that", "these", "those", "i", "me", "my", "we", "our", "you",
		"your", "he", "him", "his", "she", "her", "it", "its", "they", "them",
		"their",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
