package babi

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Vocabulary is a bijective token to integer-id mapping. The pad token holds
// id 0; every other distinct token is assigned 1..N by ascending lexicographic
// order, so the same token set always produces the same mapping.
type Vocabulary struct {
	TokenToId map[string]TokenId
	Pad       string
}

// BuildVocabulary
// Collects every distinct token across the story sentences, queries, and
// answers of the given examples and assigns ids. One vocabulary is built per
// task over the union of its train and test triples, then used to encode
// both splits.
func BuildVocabulary(examples []Example, padToken string) *Vocabulary {
	seen := make(map[string]struct{})
	for exIdx := range examples {
		ex := &examples[exIdx]
		for _, sentence := range ex.Story {
			for _, token := range sentence {
				seen[token] = struct{}{}
			}
		}
		for _, token := range ex.Query {
			seen[token] = struct{}{}
		}
		seen[ex.Answer] = struct{}{}
	}
	delete(seen, padToken)
	tokens := make([]string, 0, len(seen))
	for token := range seen {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	vocab := &Vocabulary{
		TokenToId: make(map[string]TokenId, len(tokens)+1),
		Pad:       padToken,
	}
	vocab.TokenToId[padToken] = PadId
	for rank, token := range tokens {
		vocab.TokenToId[token] = TokenId(rank + 1)
	}
	return vocab
}

func (v *Vocabulary) Size() int {
	return len(v.TokenToId)
}

func (v *Vocabulary) PadId() TokenId {
	return v.TokenToId[v.Pad]
}

// Id looks a token up, failing on tokens outside the vocabulary. Unseen
// tokens are impossible when the vocabulary was built over the same triples
// being encoded, so a miss indicates a construction-order bug.
func (v *Vocabulary) Id(token string) (TokenId, error) {
	id, ok := v.TokenToId[token]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownToken, token)
	}
	return id, nil
}

// Encode maps every token of one example to its id.
func (v *Vocabulary) Encode(ex *Example) (*EncodedExample, error) {
	encoded := &EncodedExample{Story: make([]Ids, len(ex.Story))}
	for sentIdx, sentence := range ex.Story {
		ids := make(Ids, len(sentence))
		for tokIdx, token := range sentence {
			id, err := v.Id(token)
			if err != nil {
				return nil, err
			}
			ids[tokIdx] = id
		}
		encoded.Story[sentIdx] = ids
	}
	encoded.Query = make(Ids, len(ex.Query))
	for tokIdx, token := range ex.Query {
		id, err := v.Id(token)
		if err != nil {
			return nil, err
		}
		encoded.Query[tokIdx] = id
	}
	answer, err := v.Id(ex.Answer)
	if err != nil {
		return nil, err
	}
	encoded.Answer = answer
	return encoded, nil
}

func (v *Vocabulary) EncodeAll(examples []Example) ([]*EncodedExample, error) {
	encoded := make([]*EncodedExample, len(examples))
	for exIdx := range examples {
		ex, err := v.Encode(&examples[exIdx])
		if err != nil {
			return nil, err
		}
		encoded[exIdx] = ex
	}
	return encoded, nil
}

// Inverse returns the id to token mapping, for decoding records back to
// text.
func (v *Vocabulary) Inverse() map[TokenId]string {
	inverse := make(map[TokenId]string, len(v.TokenToId))
	for token, id := range v.TokenToId {
		inverse[id] = token
	}
	return inverse
}

// WriteJSON dumps the mapping as a flat token to id JSON object, the side
// file downstream training consumers read the id assignment from. Go
// serializes map keys sorted, so the dump is byte-stable.
func (v *Vocabulary) WriteJSON(path string) error {
	data, err := json.Marshal(v.TokenToId)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadVocabularyJSON loads a dumped mapping. The pad token is recovered as
// the token holding id 0.
func ReadVocabularyJSON(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tokenToId := make(map[string]TokenId)
	if err := json.Unmarshal(data, &tokenToId); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	vocab := &Vocabulary{TokenToId: tokenToId}
	for token, id := range tokenToId {
		if id == PadId {
			vocab.Pad = token
			break
		}
	}
	return vocab, nil
}
