package babi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStoriesRoundTrip(t *testing.T) {
	lines := []string{
		"1 Mary moved to the bathroom.",
		"2 Where is Mary?\tbathroom\t1",
	}
	for _, onlySupporting := range []bool{false, true} {
		examples, err := ParseStories(NewTokenizer(), lines, onlySupporting)
		assert.NoError(t, err)
		assert.Len(t, examples, 1)
		assert.Equal(t,
			[]Sentence{{"Mary", "moved", "to", "the", "bathroom"}},
			examples[0].Story)
		assert.Equal(t, Sentence{"Where", "is", "Mary"}, examples[0].Query)
		assert.Equal(t, "bathroom", examples[0].Answer)
	}
}

func TestParseStoriesNewStoryReset(t *testing.T) {
	lines := []string{
		"1 Mary moved to the bathroom.",
		"2 John went to the hallway.",
		"3 Where is Mary?\tbathroom\t1",
		"1 Daniel went to the garden.",
		"2 Where is Daniel?\tgarden\t1",
	}
	examples, err := ParseStories(NewTokenizer(), lines, false)
	assert.NoError(t, err)
	assert.Len(t, examples, 2)
	// Sentences from the first story never leak into the second.
	assert.Equal(t,
		[]Sentence{{"Daniel", "went", "to", "the", "garden"}},
		examples[1].Story)
}

func TestParseStoriesSupportingAfterQuestion(t *testing.T) {
	lines := []string{
		"1 John is in the playground.",
		"2 Where is John?\tplayground\t1",
		"3 Bob is in the office.",
		"4 Where is Bob?\toffice\t3",
	}
	examples, err := ParseStories(NewTokenizer(), lines, true)
	assert.NoError(t, err)
	assert.Len(t, examples, 2)
	// Index 3 counts the question at line 2, which holds a placeholder in
	// the story buffer.
	assert.Equal(t,
		[]Sentence{{"Bob", "is", "in", "the", "office"}},
		examples[1].Story)

	// Without filtering, the question placeholder is excluded from the
	// narration but both real sentences survive.
	examples, err = ParseStories(NewTokenizer(), lines, false)
	assert.NoError(t, err)
	assert.Equal(t, []Sentence{
		{"John", "is", "in", "the", "playground"},
		{"Bob", "is", "in", "the", "office"},
	}, examples[1].Story)
}

func TestParseStoriesSupportingOrder(t *testing.T) {
	lines := []string{
		"1 Mary got the milk.",
		"2 John moved to the bedroom.",
		"3 Where is the milk?\tbedroom\t2 1",
	}
	examples, err := ParseStories(NewTokenizer(), lines, true)
	assert.NoError(t, err)
	// Supporting sentences come out in the order the indices are given.
	assert.Equal(t, []Sentence{
		{"John", "moved", "to", "the", "bedroom"},
		{"Mary", "got", "the", "milk"},
	}, examples[0].Story)
}

func TestParseStoriesEmpty(t *testing.T) {
	examples, err := ParseStories(NewTokenizer(), nil, false)
	assert.NoError(t, err)
	assert.Empty(t, examples)
}

type ParserErrorTest struct {
	Name           string
	Lines          []string
	OnlySupporting bool
	WantLine       int
}

var parserErrorTests = []ParserErrorTest{
	{"no line-id separator",
		[]string{"MalformedLine"},
		false, 1},
	{"non-decimal line id",
		[]string{"x Mary went home."},
		false, 1},
	{"question line missing a field",
		[]string{"1 Where is Mary?\tbathroom"},
		false, 1},
	{"supporting index out of range",
		[]string{
			"1 Mary moved to the bathroom.",
			"2 Where is Mary?\tbathroom\t5"},
		true, 2},
	{"supporting index of zero",
		[]string{
			"1 Mary moved to the bathroom.",
			"2 Where is Mary?\tbathroom\t0"},
		true, 2},
	{"non-decimal supporting index",
		[]string{
			"1 Mary moved to the bathroom.",
			"2 Where is Mary?\tbathroom\tfoo"},
		true, 2},
	{"supporting index on a question placeholder",
		[]string{
			"1 John is in the playground.",
			"2 Where is John?\tplayground\t1",
			"3 Where is John?\tplayground\t2"},
		true, 3},
}

func TestParseStoriesErrors(t *testing.T) {
	for testIdx := range parserErrorTests {
		test := &parserErrorTests[testIdx]
		_, err := ParseStories(NewTokenizer(), test.Lines,
			test.OnlySupporting)
		var parseErr *ParseError
		if assert.ErrorAs(t, err, &parseErr, test.Name) {
			assert.Equal(t, test.WantLine, parseErr.Line, test.Name)
		}
	}
}

func TestParseStoriesOutputOrder(t *testing.T) {
	lines := []string{
		"1 Mary moved to the bathroom.",
		"2 Where is Mary?\tbathroom\t1",
		"3 Mary went to the garden.",
		"4 Where is Mary?\tgarden\t3",
	}
	examples, err := ParseStories(NewTokenizer(), lines, false)
	assert.NoError(t, err)
	assert.Len(t, examples, 2)
	assert.Equal(t, "bathroom", examples[0].Answer)
	assert.Equal(t, "garden", examples[1].Answer)
	// The second story buffer still holds the first sentence; the question
	// placeholder is dropped from the narration.
	assert.Equal(t, []Sentence{
		{"Mary", "moved", "to", "the", "bathroom"},
		{"Mary", "went", "to", "the", "garden"},
	}, examples[1].Story)
}

func BenchmarkParseStories(b *testing.B) {
	lines := []string{
		"1 Mary moved to the bathroom.",
		"2 John went to the hallway.",
		"3 Where is Mary?\tbathroom\t1",
		"1 Daniel went back to the garden.",
		"2 Where is Daniel?\tgarden\t1",
	}
	tokenizer := NewTokenizer()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ParseStories(tokenizer, lines, false); err != nil {
			b.Fatal(err)
		}
	}
}
