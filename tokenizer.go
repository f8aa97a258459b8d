package babi

import (
	"regexp"

	lru "github.com/hashicorp/golang-lru"
)

const TOKENIZER_LRU_SZ = 16384

// Tokenizer splits text lines into word tokens. The corpus repeats the same
// sentences across thousands of stories, so tokenized lines are memoized in
// an ARC cache.
type Tokenizer struct {
	pattern   *regexp.Regexp
	cache     *lru.ARCCache
	LruHits   int
	LruMisses int
}

func NewTokenizer() *Tokenizer {
	cache, _ := lru.NewARC(TOKENIZER_LRU_SZ)
	return &Tokenizer{
		pattern: regexp.MustCompile(`\W+`),
		cache:   cache,
	}
}

// Tokenize
// Splits a line on runs of non-word characters. Each maximal run of word
// characters (alphanumeric or underscore) becomes one token; delimiter runs
// are discarded, so punctuation never survives. Empty or whitespace-only
// input yields an empty sequence. The returned slice may be shared with the
// cache and must not be mutated.
func (t *Tokenizer) Tokenize(line string) Sentence {
	if cached, ok := t.cache.Get(line); ok {
		t.LruHits += 1
		return cached.(Sentence)
	}
	t.LruMisses += 1
	fields := t.pattern.Split(line, -1)
	tokens := make(Sentence, 0, len(fields))
	for _, field := range fields {
		if field != "" {
			tokens = append(tokens, field)
		}
	}
	t.cache.Add(line, tokens)
	return tokens
}
