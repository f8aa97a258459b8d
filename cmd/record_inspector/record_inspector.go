package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	babi "github.com/JingHanZhan/recurrent-entity-networks"
	"github.com/JingHanZhan/recurrent-entity-networks/tfrecord"
)

// detokenize maps ids back to tokens, dropping padding.
func detokenize(inverse map[babi.TokenId]string, ids []int64) []string {
	tokens := make([]string, 0, len(ids))
	for _, id := range ids {
		if babi.TokenId(id) == babi.PadId {
			continue
		}
		token, ok := inverse[babi.TokenId(id)]
		if !ok {
			token = fmt.Sprintf("<%d>", id)
		}
		tokens = append(tokens, token)
	}
	return tokens
}

func main() {
	inputFile := flag.String("input", "",
		"input .tfrecords file to inspect")
	tokensFile := flag.String("tokens", "",
		"token mapping dump to decode ids with")
	sentenceLength := flag.Int("sentence_length", 0,
		"sentence length to re-chunk the flat story on, 0 to print flat")
	limit := flag.Int("limit", 0,
		"number of records to print, 0 for all")
	verifyOnly := flag.Bool("verify", false,
		"only validate checksums and shape uniformity, print nothing")
	flag.Parse()

	if *inputFile == "" {
		flag.Usage()
		log.Fatal("Must provide -input")
	}
	if *tokensFile == "" && !*verifyOnly {
		flag.Usage()
		log.Fatal("Must provide -tokens unless -verify")
	}
	if _, err := os.Stat(*inputFile); os.IsNotExist(err) {
		log.Fatal("Input file does not exist")
	}

	var inverse map[babi.TokenId]string
	if *tokensFile != "" {
		vocab, err := babi.ReadVocabularyJSON(*tokensFile)
		if err != nil {
			log.Fatal(err)
		}
		inverse = vocab.Inverse()
	}

	reader, err := tfrecord.NewReader(*inputFile)
	if err != nil {
		log.Fatal(err)
	}
	defer reader.Close()

	// Every record in a container must share one shape.
	storyLen, queryLen := -1, -1
	count := 0
	for {
		ex, err := reader.NextExample()
		if err != nil {
			log.Fatal(err)
		}
		if ex == nil {
			break
		}
		if storyLen == -1 {
			storyLen, queryLen = len(ex.Story), len(ex.Query)
		} else if len(ex.Story) != storyLen || len(ex.Query) != queryLen {
			log.Fatalf("record %d: shape mismatch, story %d query %d, "+
				"want story %d query %d",
				count, len(ex.Story), len(ex.Query), storyLen, queryLen)
		}
		if len(ex.Answer) != 1 {
			log.Fatalf("record %d: %d answer ids, want 1",
				count, len(ex.Answer))
		}
		count += 1
		if *verifyOnly || (*limit > 0 && count > *limit) {
			continue
		}
		fmt.Printf("=== record %d\n", count-1)
		if *sentenceLength > 0 && storyLen%*sentenceLength == 0 {
			for begin := 0; begin < storyLen; begin += *sentenceLength {
				sentence := detokenize(inverse,
					ex.Story[begin:begin+*sentenceLength])
				if len(sentence) > 0 {
					fmt.Printf("  %s\n", strings.Join(sentence, " "))
				}
			}
		} else {
			fmt.Printf("  %s\n",
				strings.Join(detokenize(inverse, ex.Story), " "))
		}
		fmt.Printf("  query: %s\n",
			strings.Join(detokenize(inverse, ex.Query), " "))
		fmt.Printf("  answer: %s\n",
			strings.Join(detokenize(inverse, ex.Answer), " "))
	}
	log.Printf("%d records, story length %d, query length %d",
		count, storyLen, queryLen)
}
