package knowledge

// #region imports
import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// #endregion

// #region stopwords

// stopwords contains common English words excluded from topic matching.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "do": true, "does": true, "did": true,
	"have": true, "has": true, "had": true, "be": true, "been": true,
	"being": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "can": true, "shall": true, "not": true,
	"no": true, "and": true, "or": true, "but": true, "if": true,
	"then": true, "than": true, "so": true, "as": true, "at": true,
	"by": true, "for": true, "from": true, "in": true, "into": true,
	"of": true, "on": true, "to": true, "with": true, "about": true,
	"up": true, "out": true, "it": true, "its": true, "this": true,
	"that": true, "what": true, "which": true, "who": true, "how": true,
	"when": true, "where": true, "why": true, "you": true, "me": true,
	"i": true, "my": true, "your": true, "we": true, "they": true,
	"find": true, "solve": true, "calculate": true, "compute": true,
}

// tokenize splits text into unique lowercase non-stopword tokens.
func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool)
	var tokens []string
	for _, w := range words {
		if len(w) < 2 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		tokens = append(tokens, w)
	}
	return tokens
}

// #endregion

// #region memory-store

// MemoryStore is an in-process Store scored by keyword overlap. It backs
// tests and embedder-less runs; production uses the Qdrant index.
type MemoryStore struct {
	mu   sync.RWMutex
	docs []Document
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Add appends documents. Existing IDs are overwritten in place.
func (s *MemoryStore) Add(_ context.Context, docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
outer:
	for _, d := range docs {
		for i, old := range s.docs {
			if old.ID == d.ID {
				s.docs[i] = d
				continue outer
			}
		}
		s.docs = append(s.docs, d)
	}
	return nil
}

// Query ranks documents by shared non-stopword token count.
func (s *MemoryStore) Query(_ context.Context, text string, k int) ([]Scored, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	queryTokens := tokenize(text)
	querySet := make(map[string]bool, len(queryTokens))
	for _, tok := range queryTokens {
		querySet[tok] = true
	}

	var hits []Scored
	for _, d := range s.docs {
		shared := 0
		for _, tok := range tokenize(d.Text) {
			if querySet[tok] {
				shared++
			}
		}
		if shared > 0 {
			hits = append(hits, Scored{Document: d, Score: float32(shared)})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Len reports the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// #endregion
