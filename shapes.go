package babi

import "fmt"

// Shapes holds the uniform target dimensions for one task: the longest
// sentence, the longest story in sentences, and the longest query.
type Shapes struct {
	SentenceMax int
	StoryMax    int
	QueryMax    int
}

// InferShapes
// Computes the maxima over every encoded example. Callers pass the
// concatenation of a task's train and test splits so that a single shape
// fits both; inferring over one split alone would truncate the other.
func InferShapes(examples []*EncodedExample) (Shapes, error) {
	if len(examples) == 0 {
		return Shapes{}, ErrEmptyDataset
	}
	var shapes Shapes
	for _, ex := range examples {
		if len(ex.Story) > shapes.StoryMax {
			shapes.StoryMax = len(ex.Story)
		}
		for _, sentence := range ex.Story {
			if len(sentence) > shapes.SentenceMax {
				shapes.SentenceMax = len(sentence)
			}
		}
		if len(ex.Query) > shapes.QueryMax {
			shapes.QueryMax = len(ex.Query)
		}
	}
	return shapes, nil
}

// Pad
// Right-pads an encoded example in place: every sentence out to SentenceMax,
// the story with all-pad sentences out to StoryMax, and the query out to
// QueryMax. A sequence already longer than its target means the shapes were
// inferred over a different example set, which is a fatal mismatch. Padding
// an already-shaped example is a no-op.
func (s Shapes) Pad(ex *EncodedExample, padId TokenId) error {
	for sentIdx, sentence := range ex.Story {
		if len(sentence) > s.SentenceMax {
			return fmt.Errorf("%w: sentence length %d > %d",
				ErrShapeViolation, len(sentence), s.SentenceMax)
		}
		for len(sentence) < s.SentenceMax {
			sentence = append(sentence, padId)
		}
		ex.Story[sentIdx] = sentence
	}
	if len(ex.Story) > s.StoryMax {
		return fmt.Errorf("%w: story length %d > %d",
			ErrShapeViolation, len(ex.Story), s.StoryMax)
	}
	for len(ex.Story) < s.StoryMax {
		blank := make(Ids, s.SentenceMax)
		for idx := range blank {
			blank[idx] = padId
		}
		ex.Story = append(ex.Story, blank)
	}
	if len(ex.Query) > s.QueryMax {
		return fmt.Errorf("%w: query length %d > %d",
			ErrShapeViolation, len(ex.Query), s.QueryMax)
	}
	for len(ex.Query) < s.QueryMax {
		ex.Query = append(ex.Query, padId)
	}
	return nil
}

func (s Shapes) PadAll(examples []*EncodedExample, padId TokenId) error {
	for _, ex := range examples {
		if err := s.Pad(ex, padId); err != nil {
			return err
		}
	}
	return nil
}
