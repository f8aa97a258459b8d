// Package babi turns the bAbI question-answering corpus into fixed-shape,
// integer-encoded training examples. The pipeline for one task is strictly
// ordered: parse both splits, build one vocabulary over their union, encode,
// infer the joint maximum shapes, pad, and serialize.
package babi

import (
	"errors"
	"fmt"
)

const (
	// PadToken is the reserved filler token. It always receives id 0 when a
	// vocabulary is built.
	PadToken = "_PAD"
	PadId    = TokenId(0)
)

type TokenId int64
type Ids []TokenId

// Sentence is an ordered run of word tokens.
type Sentence []string

// Example is one raw (story, query, answer) triple as reconstructed from the
// numbered line format.
type Example struct {
	Story  []Sentence
	Query  Sentence
	Answer string
}

// EncodedExample is an Example with every token replaced by its vocabulary
// id. Padding mutates it in place.
type EncodedExample struct {
	Story  []Ids
	Query  Ids
	Answer TokenId
}

// FlatStory concatenates the story ids sentence by sentence into one flat
// sequence. After padding its length is always storyMax*sentenceMax.
func (ex *EncodedExample) FlatStory() Ids {
	size := 0
	for _, sentence := range ex.Story {
		size += len(sentence)
	}
	flat := make(Ids, 0, size)
	for _, sentence := range ex.Story {
		flat = append(flat, sentence...)
	}
	return flat
}

// Int64s widens the ids to the raw int64 values record fields carry.
func (ids Ids) Int64s() []int64 {
	values := make([]int64, len(ids))
	for idx := range ids {
		values[idx] = int64(ids[idx])
	}
	return values
}

var (
	ErrUnknownToken   = errors.New("token not present in vocabulary")
	ErrEmptyDataset   = errors.New("no examples to infer shapes from")
	ErrShapeViolation = errors.New("sequence exceeds target shape")
)

// ParseError reports a malformed input line. Line numbers are 1-based
// positions in the split's line stream.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Reason)
}
