package gridcalc

import (
	"strings"

	lru "github.com/hashicorp/golang-lru"
)

// FormulaCache remembers parsed, folded trees by formula text. trees
// handed out are private copies because structural edits rewrite the
// references of stored trees in place.
type FormulaCache struct {
	cache *lru.Cache
}

// NewFormulaCache creates a cache holding up to size trees. a size of 0
// disables caching.
func NewFormulaCache(size int) (*FormulaCache, error) {
	if size <= 0 {
		return &FormulaCache{}, nil
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &FormulaCache{cache: cache}, nil
}

// normalizeFormula is the cache key: the body without surrounding blanks
// or the leading '='. the lexer ignores case, so the key does too.
func normalizeFormula(text string) string {
	return strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(text), "="))
}

// Parse returns the tree for text, parsing it on a miss. errors are not
// cached.
func (fc *FormulaCache) Parse(text string) (Node, error) {
	if fc == nil || fc.cache == nil {
		return ParseFormula(text)
	}

	key := normalizeFormula(text)
	if cached, ok := fc.cache.Get(key); ok {
		return Clone(cached.(Node)), nil
	}

	node, err := ParseFormula(text)
	if err != nil {
		return nil, err
	}
	fc.cache.Add(key, Clone(node))
	return node, nil
}

// Len returns the number of cached trees
func (fc *FormulaCache) Len() int {
	if fc == nil || fc.cache == nil {
		return 0
	}
	return fc.cache.Len()
}
