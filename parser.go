package babi

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseStories
// Reconstructs (story, query, answer) triples from the numbered bAbI line
// format. Every line is "<decimal id> <content>"; an id of 1 starts a new
// story. Content with a tab is a question line carrying three tab-separated
// fields: query text, answer token, and space-separated 1-based indices of
// the supporting sentences. With onlySupporting set, each example keeps just
// the referenced sentences in reference order; otherwise it keeps every
// non-empty sentence accumulated so far, in narration order.
//
// After a question is emitted, an empty placeholder is appended to the story
// buffer: a question occupies a line number but contributes no sentence, and
// the placeholder keeps later supporting-fact indices aligned with the
// original numbering.
func ParseStories(
	tok *Tokenizer, lines []string, onlySupporting bool,
) ([]Example, error) {
	examples := make([]Example, 0, len(lines)/3)
	var story []Sentence
	for lineIdx, raw := range lines {
		lineNo := lineIdx + 1
		line := strings.TrimSpace(raw)
		id, content, found := strings.Cut(line, " ")
		if !found {
			return nil, &ParseError{lineNo, "no line-id separator"}
		}
		nid, convErr := strconv.Atoi(id)
		if convErr != nil {
			return nil, &ParseError{lineNo,
				fmt.Sprintf("non-decimal line id %q", id)}
		}
		if nid == 1 {
			story = story[:0]
		}
		if !strings.ContainsRune(content, '\t') {
			story = append(story, tok.Tokenize(content))
			continue
		}
		fields := strings.Split(content, "\t")
		if len(fields) != 3 {
			return nil, &ParseError{lineNo, fmt.Sprintf(
				"question line has %d tab-separated fields, want 3",
				len(fields))}
		}
		query := tok.Tokenize(fields[0])
		answer := fields[1]
		var substory []Sentence
		if onlySupporting {
			var parseErr error
			substory, parseErr = selectSupporting(story, fields[2], lineNo)
			if parseErr != nil {
				return nil, parseErr
			}
		} else {
			for _, sentence := range story {
				if len(sentence) > 0 {
					substory = append(substory, sentence)
				}
			}
		}
		examples = append(examples,
			Example{Story: substory, Query: query, Answer: answer})
		story = append(story, nil)
	}
	return examples, nil
}

// selectSupporting resolves a supporting-fact spec against the current story
// buffer. Indices are 1-based positions in the original numbering; an index
// that lands on a question placeholder marks a malformed dataset.
func selectSupporting(
	story []Sentence, spec string, lineNo int,
) ([]Sentence, error) {
	indices := strings.Fields(spec)
	substory := make([]Sentence, 0, len(indices))
	for _, field := range indices {
		idx, convErr := strconv.Atoi(field)
		if convErr != nil {
			return nil, &ParseError{lineNo,
				fmt.Sprintf("non-decimal supporting index %q", field)}
		}
		if idx < 1 || idx > len(story) {
			return nil, &ParseError{lineNo, fmt.Sprintf(
				"supporting index %d out of range 1..%d", idx, len(story))}
		}
		sentence := story[idx-1]
		if len(sentence) == 0 {
			return nil, &ParseError{lineNo, fmt.Sprintf(
				"supporting index %d refers to a question line", idx)}
		}
		substory = append(substory, sentence)
	}
	return substory, nil
}
