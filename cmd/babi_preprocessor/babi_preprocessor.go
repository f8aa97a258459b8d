package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/sync/errgroup"

	babi "github.com/JingHanZhan/recurrent-entity-networks"
	"github.com/JingHanZhan/recurrent-entity-networks/archive"
	"github.com/JingHanZhan/recurrent-entity-networks/tfrecord"
)

// The twenty dataset variants of the 1-20 task collection.
var taskNames = []string{
	"qa1_single-supporting-fact",
	"qa2_two-supporting-facts",
	"qa3_three-supporting-facts",
	"qa4_two-arg-relations",
	"qa5_three-arg-relations",
	"qa6_yes-no-questions",
	"qa7_counting",
	"qa8_lists-sets",
	"qa9_simple-negation",
	"qa10_indefinite-knowledge",
	"qa11_basic-coreference",
	"qa12_conjunction",
	"qa13_compound-coreference",
	"qa14_time-reasoning",
	"qa15_basic-deduction",
	"qa16_basic-induction",
	"qa17_positional-reasoning",
	"qa18_size-reasoning",
	"qa19_path-finding",
	"qa20_agents-motivations",
}

// TaskStats carries the per-task values reported for parity checking against
// the reference preprocessing.
type TaskStats struct {
	Task      string
	Shapes    babi.Shapes
	VocabSize int
	Records   int
	Written   int64
}

// processTask runs the full pipeline for one task: parse both splits, build
// one vocabulary over their union, encode, infer the joint shapes, pad, and
// write one record container per split plus the token mapping dump. Each
// task owns its tokenizer, vocabulary, and output files, so tasks can run on
// independent workers.
func processTask(source *archive.Source, destDir string, task string,
	onlySupporting bool) (*TaskStats, error) {
	tokenizer := babi.NewTokenizer()

	trainLines, err := source.Lines(task + "_train.txt")
	if err != nil {
		return nil, err
	}
	testLines, err := source.Lines(task + "_test.txt")
	if err != nil {
		return nil, err
	}

	trainExamples, err := babi.ParseStories(tokenizer, trainLines,
		onlySupporting)
	if err != nil {
		return nil, fmt.Errorf("%s_train.txt: %w", task, err)
	}
	testExamples, err := babi.ParseStories(tokenizer, testLines,
		onlySupporting)
	if err != nil {
		return nil, fmt.Errorf("%s_test.txt: %w", task, err)
	}

	union := make([]babi.Example, 0, len(trainExamples)+len(testExamples))
	union = append(union, trainExamples...)
	union = append(union, testExamples...)
	vocab := babi.BuildVocabulary(union, babi.PadToken)

	trainEncoded, err := vocab.EncodeAll(trainExamples)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", task, err)
	}
	testEncoded, err := vocab.EncodeAll(testExamples)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", task, err)
	}

	joint := make([]*babi.EncodedExample, 0,
		len(trainEncoded)+len(testEncoded))
	joint = append(joint, trainEncoded...)
	joint = append(joint, testEncoded...)
	shapes, err := babi.InferShapes(joint)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", task, err)
	}
	if err := shapes.PadAll(trainEncoded, vocab.PadId()); err != nil {
		return nil, fmt.Errorf("%s: %w", task, err)
	}
	if err := shapes.PadAll(testEncoded, vocab.PadId()); err != nil {
		return nil, fmt.Errorf("%s: %w", task, err)
	}

	log.Printf("%s: max sentence length %d, max story length %d, "+
		"max query length %d, vocab size %d",
		task, shapes.SentenceMax, shapes.StoryMax, shapes.QueryMax,
		vocab.Size())

	if err := vocab.WriteJSON(
		filepath.Join(destDir, task+"_tokens.json")); err != nil {
		return nil, fmt.Errorf("%s: %w", task, err)
	}

	stats := &TaskStats{
		Task:      task,
		Shapes:    shapes,
		VocabSize: vocab.Size(),
	}
	for _, split := range []struct {
		examples []*babi.EncodedExample
		path     string
	}{
		{trainEncoded, filepath.Join(destDir, task+"_train.tfrecords")},
		{testEncoded, filepath.Join(destDir, task+"_test.tfrecords")},
	} {
		records, written, err := writeSplit(split.path, split.examples)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", task, err)
		}
		stats.Records += records
		stats.Written += written
	}
	return stats, nil
}

// writeSplit serializes the padded examples of one split into a record
// container. Any failure aborts the writer, leaving no file at the output
// path.
func writeSplit(outPath string,
	examples []*babi.EncodedExample) (int, int64, error) {
	writer, err := tfrecord.NewWriter(outPath)
	if err != nil {
		return 0, 0, err
	}
	for _, ex := range examples {
		record := tfrecord.Example{
			Story:  ex.FlatStory().Int64s(),
			Query:  ex.Query.Int64s(),
			Answer: []int64{int64(ex.Answer)},
		}
		if err := writer.WriteExample(&record); err != nil {
			writer.Abort()
			return 0, 0, err
		}
	}
	records, written := writer.Records(), writer.BytesWritten()
	if err := writer.Close(); err != nil {
		return 0, 0, err
	}
	return records, written, nil
}

// outputsExist reports whether every output file of a task is already in
// place.
func outputsExist(destDir string, task string) bool {
	for _, name := range []string{
		task + "_train.tfrecords",
		task + "_test.tfrecords",
		task + "_tokens.json",
	} {
		if _, err := os.Stat(filepath.Join(destDir, name)); err != nil {
			return false
		}
	}
	return true
}

func selectTasks(spec string) ([]string, error) {
	if spec == "" {
		return taskNames, nil
	}
	known := make(map[string]bool, len(taskNames))
	for _, name := range taskNames {
		known[name] = true
	}
	selected := make([]string, 0)
	for _, name := range strings.Split(spec, ",") {
		name = strings.TrimSpace(name)
		if !known[name] {
			return nil, errors.New(fmt.Sprintf("unknown task: %s", name))
		}
		selected = append(selected, name)
	}
	return selected, nil
}

func main() {
	inputPath := flag.String("input", "",
		"path to babi_tasks_data_1_20_v1.2.tar.gz or an extracted "+
			"directory")
	outputDir := flag.String("output", "datasets/processed",
		"output directory for .tfrecords and token dumps")
	collection := flag.String("collection", "tasks_1-20_v1-2/en-10k",
		"member path prefix inside the archive")
	tasksSpec := flag.String("tasks", "",
		"comma-separated subset of task names, empty for all twenty")
	onlySupporting := flag.Bool("only_supporting", false,
		"keep only the sentences that support each answer")
	jobs := flag.Int("jobs", 1, "number of tasks to process in parallel")
	force := flag.Bool("force", false,
		"reprocess tasks whose outputs already exist")
	flag.Parse()

	if *inputPath == "" {
		flag.Usage()
		log.Fatal("Must provide -input for the archive or directory source")
	}
	if *jobs < 1 {
		log.Fatal("-jobs must be at least 1")
	}
	tasks, err := selectTasks(*tasksSpec)
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("Preprocessor input source: %s\n", *inputPath)
	log.Printf("Preprocessor output: %s\n", *outputDir)
	log.Printf("Tasks: %d, workers: %d\n", len(tasks), *jobs)

	source, err := archive.Open(*inputPath, *collection)
	if err != nil {
		log.Fatal(err)
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatal(err)
	}

	begin := time.Now()
	allStats := make([]*TaskStats, len(tasks))
	var group errgroup.Group
	group.SetLimit(*jobs)
	for taskIdx, task := range tasks {
		taskIdx, task := taskIdx, task
		group.Go(func() error {
			if !*force && outputsExist(*outputDir, task) {
				log.Printf("%s: outputs exist, skipping. "+
					"Use -force to reprocess.", task)
				return nil
			}
			stats, err := processTask(source, *outputDir, task,
				*onlySupporting)
			if err != nil {
				return err
			}
			allStats[taskIdx] = stats
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		log.Fatal(err)
	}

	totalRecords := 0
	totalWritten := int64(0)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"Task", "Sentence", "Story", "Query", "Vocab", "Records", "Size"})
	for _, stats := range allStats {
		if stats == nil {
			continue
		}
		table.Append([]string{
			stats.Task,
			fmt.Sprintf("%d", stats.Shapes.SentenceMax),
			fmt.Sprintf("%d", stats.Shapes.StoryMax),
			fmt.Sprintf("%d", stats.Shapes.QueryMax),
			fmt.Sprintf("%d", stats.VocabSize),
			fmt.Sprintf("%d", stats.Records),
			humanize.Bytes(uint64(stats.Written)),
		})
		totalRecords += stats.Records
		totalWritten += stats.Written
	}
	table.Render()

	duration := time.Since(begin).Seconds()
	log.Printf("%d records (%s) in %0.2fs, %0.2f records/s",
		totalRecords, humanize.Bytes(uint64(totalWritten)), duration,
		float64(totalRecords)/duration)
}
