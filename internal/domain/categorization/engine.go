// Package categorization assigns expense categories from user-defined
// keywords. Keyword matching is case-insensitive substring matching; when
// several categories match one description, the category appearing latest in
// the user's list wins, so more specific categories placed later override
// broad early ones.
package categorization

import (
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
	"github.com/google/uuid"
)

// Category is the slice of a user's taxonomy the engine needs.
type Category struct {
	ID       uuid.UUID
	Title    string
	Keywords []string
}

// Match is the outcome of categorizing one description.
type Match struct {
	CategoryID uuid.UUID
	Title      string
	Keyword    string // the keyword that produced the match
}

// Engine matches all keywords of all categories in a single pass using the
// Aho-Corasick algorithm, so cost is O(text length) regardless of how many
// keywords the user has accumulated.
type Engine struct {
	matcher  *ahocorasick.Matcher
	keywords []string
	metadata []keywordMeta
	mu       sync.RWMutex
}

type keywordMeta struct {
	categoryID    uuid.UUID
	categoryIndex int // position in the user's list; larger index wins
	title         string
	keyword       string
}

// NewEngine builds an engine over the categories in list order.
func NewEngine(categories []Category) *Engine {
	e := &Engine{}
	e.Build(categories)
	return e
}

// Build reconstructs the matcher. Call it again after category edits.
func (e *Engine) Build(categories []Category) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		keywords []string
		metadata []keywordMeta
	)

	for idx, cat := range categories {
		for _, kw := range cat.Keywords {
			normalized := strings.ToUpper(strings.TrimSpace(kw))
			if normalized == "" {
				continue
			}
			keywords = append(keywords, normalized)
			metadata = append(metadata, keywordMeta{
				categoryID:    cat.ID,
				categoryIndex: idx,
				title:         cat.Title,
				keyword:       kw,
			})
		}
	}

	e.keywords = keywords
	e.metadata = metadata

	if len(keywords) == 0 {
		e.matcher = nil
		return
	}

	patterns := make([][]byte, len(keywords))
	for i, kw := range keywords {
		patterns[i] = []byte(kw)
	}
	e.matcher = ahocorasick.NewMatcher(patterns)
}

// Categorize returns the winning category for a description, or nil when no
// keyword matches. Ties between keywords resolve to the category listed
// latest.
func (e *Engine) Categorize(description string) *Match {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.matcher == nil {
		return nil
	}

	hits := e.matcher.Match([]byte(strings.ToUpper(description)))
	if len(hits) == 0 {
		return nil
	}

	var best *keywordMeta
	for _, idx := range hits {
		if idx < 0 || idx >= len(e.metadata) {
			continue
		}
		m := &e.metadata[idx]
		if best == nil || m.categoryIndex >= best.categoryIndex {
			best = m
		}
	}
	if best == nil {
		return nil
	}

	return &Match{CategoryID: best.categoryID, Title: best.title, Keyword: best.keyword}
}

// CategorizeBatch categorizes many descriptions under one read lock.
func (e *Engine) CategorizeBatch(descriptions []string) []*Match {
	results := make([]*Match, len(descriptions))
	for i, desc := range descriptions {
		results[i] = e.Categorize(desc)
	}
	return results
}

// KeywordCount reports how many keywords the engine carries.
func (e *Engine) KeywordCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.keywords)
}

// IsEmpty reports whether the engine has nothing to match against.
func (e *Engine) IsEmpty() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.matcher == nil
}
