package babi

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func vocabExamples() []Example {
	return []Example{
		{
			Story: []Sentence{
				{"Mary", "moved", "to", "the", "bathroom"},
				{"John", "went", "to", "the", "hallway"},
			},
			Query:  Sentence{"Where", "is", "Mary"},
			Answer: "bathroom",
		},
		{
			Story: []Sentence{
				{"Daniel", "went", "back", "to", "the", "garden"},
			},
			Query:  Sentence{"Where", "is", "Daniel"},
			Answer: "garden",
		},
	}
}

func TestBuildVocabularyDeterministic(t *testing.T) {
	first := BuildVocabulary(vocabExamples(), PadToken)
	second := BuildVocabulary(vocabExamples(), PadToken)
	assert.Equal(t, first.TokenToId, second.TokenToId)
	assert.Equal(t, PadId, first.TokenToId[PadToken])
	assert.Equal(t, PadId, first.PadId())
}

func TestBuildVocabularyContiguousIds(t *testing.T) {
	vocab := BuildVocabulary(vocabExamples(), PadToken)
	ids := make([]int, 0, vocab.Size())
	for _, id := range vocab.TokenToId {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	for rank, id := range ids {
		assert.Equal(t, rank, id)
	}
}

func TestBuildVocabularyLexicographicOrder(t *testing.T) {
	examples := []Example{{
		Story:  []Sentence{{"banana", "Apple", "cherry"}},
		Query:  Sentence{"apple"},
		Answer: "banana",
	}}
	vocab := BuildVocabulary(examples, PadToken)
	// Byte order: uppercase sorts before lowercase.
	assert.Equal(t, TokenId(1), vocab.TokenToId["Apple"])
	assert.Equal(t, TokenId(2), vocab.TokenToId["apple"])
	assert.Equal(t, TokenId(3), vocab.TokenToId["banana"])
	assert.Equal(t, TokenId(4), vocab.TokenToId["cherry"])
	assert.Equal(t, 5, vocab.Size())
}

func TestEncode(t *testing.T) {
	examples := vocabExamples()
	vocab := BuildVocabulary(examples, PadToken)
	encoded, err := vocab.EncodeAll(examples)
	assert.NoError(t, err)
	assert.Len(t, encoded, 2)

	answerId, err := vocab.Id("bathroom")
	assert.NoError(t, err)
	assert.Equal(t, answerId, encoded[0].Answer)
	assert.Len(t, encoded[0].Story, 2)
	assert.Len(t, encoded[0].Story[0], 5)
	assert.Len(t, encoded[0].Query, 3)
	// No real token encodes to the pad id.
	for _, sentence := range encoded[0].Story {
		assert.NotContains(t, sentence, PadId)
	}
}

func TestEncodeUnknownToken(t *testing.T) {
	vocab := BuildVocabulary(vocabExamples(), PadToken)
	_, err := vocab.Encode(&Example{
		Story:  []Sentence{{"Sandra", "took", "the", "football"}},
		Query:  Sentence{"Where", "is", "Sandra"},
		Answer: "football",
	})
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestVocabularyJSONRoundTrip(t *testing.T) {
	vocab := BuildVocabulary(vocabExamples(), PadToken)
	path := filepath.Join(t.TempDir(), "tokens.json")
	assert.NoError(t, vocab.WriteJSON(path))

	loaded, err := ReadVocabularyJSON(path)
	assert.NoError(t, err)
	assert.Equal(t, vocab.TokenToId, loaded.TokenToId)
	assert.Equal(t, PadToken, loaded.Pad)

	// Dumping the same vocabulary twice yields identical bytes.
	second := filepath.Join(t.TempDir(), "tokens.json")
	assert.NoError(t, vocab.WriteJSON(second))
	firstBytes, _ := os.ReadFile(path)
	secondBytes, _ := os.ReadFile(second)
	assert.Equal(t, firstBytes, secondBytes)
}

func TestVocabularyInverse(t *testing.T) {
	vocab := BuildVocabulary(vocabExamples(), PadToken)
	inverse := vocab.Inverse()
	assert.Len(t, inverse, vocab.Size())
	for token, id := range vocab.TokenToId {
		assert.Equal(t, token, inverse[id])
	}
}
