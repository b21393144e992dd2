package categorization

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// TitleResolver maps a free-text category title, typically produced by the
// model, onto one of the user's categories. Exact case-insensitive matches
// resolve first; otherwise a fuzzy pass catches near misses like
// "Entertainmnet" or "food & drink".
type TitleResolver struct {
	categories []Category
	normalized []string
}

// NewTitleResolver builds a resolver over the user's categories.
func NewTitleResolver(categories []Category) *TitleResolver {
	normalized := make([]string, len(categories))
	for i, c := range categories {
		normalized[i] = strings.ToLower(strings.TrimSpace(c.Title))
	}
	return &TitleResolver{categories: categories, normalized: normalized}
}

// Resolve returns the category whose title best matches, or nil when nothing
// is close enough.
func (r *TitleResolver) Resolve(title string) *Category {
	needle := strings.ToLower(strings.TrimSpace(title))
	if needle == "" {
		return nil
	}

	for i, n := range r.normalized {
		if n == needle {
			return &r.categories[i]
		}
	}

	// Fuzzy fallback. RankFindNormalizedFold tolerates diacritics and case;
	// lower rank means a closer match.
	ranks := fuzzy.RankFindNormalizedFold(needle, r.normalized)
	if len(ranks) == 0 {
		return nil
	}

	best := ranks[0]
	for _, rank := range ranks[1:] {
		if rank.Distance < best.Distance {
			best = rank
		}
	}
	return &r.categories[best.OriginalIndex]
}
