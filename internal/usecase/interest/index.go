package interest

import (
	"strings"

	"newsletter-curator/internal/domain/entity"
)

// Index is the keyword view of the registry used by fetching and ingestion.
// It is a snapshot; later registry changes do not affect an Index already built.
type Index struct {
	// Keywords are the interest names in registry order, one search per keyword.
	Keywords []string
	byKey    map[string]entity.Interest
	order    []string
}

// BuildIndex keys interests by their case-folded name. When two interests
// fold to the same key the first one wins.
func BuildIndex(interests []*entity.Interest) *Index {
	idx := &Index{byKey: make(map[string]entity.Interest, len(interests))}
	for _, in := range interests {
		if in == nil {
			continue
		}
		key := in.Key()
		if key == "" {
			continue
		}
		if _, dup := idx.byKey[key]; dup {
			continue
		}
		idx.byKey[key] = *in
		idx.order = append(idx.order, key)
		idx.Keywords = append(idx.Keywords, strings.TrimSpace(in.Name))
	}
	return idx
}

// Lookup finds an interest by case-insensitive name.
func (x *Index) Lookup(name string) (entity.Interest, bool) {
	in, ok := x.byKey[strings.ToLower(strings.TrimSpace(name))]
	return in, ok
}

// Len is the number of distinct interests indexed.
func (x *Index) Len() int { return len(x.order) }

// Match returns every interest whose name occurs in text as a case-insensitive
// substring, in index order.
func (x *Index) Match(text string) []entity.Interest {
	folded := strings.ToLower(text)
	var out []entity.Interest
	for _, key := range x.order {
		if strings.Contains(folded, key) {
			out = append(out, x.byKey[key])
		}
	}
	return out
}
