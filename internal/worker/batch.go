package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/integrity/internal/model"
)

// Runner runs the verification pipeline for one text
type Runner interface {
	Run(ctx context.Context, req model.VerifyRequest) (*model.VerificationRun, error)
}

// TextJob represents one text to verify
type TextJob struct {
	Index    int
	Text     string
	Language string
	Runner   Runner
}

// Execute executes the verification job
func (j *TextJob) Execute(ctx context.Context) Result {
	run, err := j.Runner.Run(ctx, model.VerifyRequest{Text: j.Text, Language: j.Language})
	return &TextResult{
		Index: j.Index,
		Text:  j.Text,
		Run:   run,
		Error: err,
	}
}

// TextResult represents the result of a verification job
type TextResult struct {
	Index int
	Text  string
	Run   *model.VerificationRun
	Error error
}

// GetError returns the error from the verification result
func (r *TextResult) GetError() error {
	return r.Error
}

// BatchProcessor verifies multiple texts concurrently
type BatchProcessor struct {
	runner      Runner
	concurrency int
	language    string
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(runner Runner, concurrency int, language string) *BatchProcessor {
	return &BatchProcessor{
		runner:      runner,
		concurrency: concurrency,
		language:    language,
	}
}

// ProcessTexts verifies texts concurrently. Results are returned in input order.
// Texts never submitted because ctx was cancelled carry ctx's error.
func (b *BatchProcessor) ProcessTexts(ctx context.Context, texts []string) []*TextResult {
	if len(texts) == 0 {
		return []*TextResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, text := range texts {
		if !pool.Submit(&TextJob{
			Index:    i,
			Text:     text,
			Language: b.language,
			Runner:   b.runner,
		}) {
			break
		}
	}

	var results []Result
	if ctx.Err() != nil {
		results = pool.Shutdown()
	} else {
		results = pool.Wait()
	}

	ordered := make([]*TextResult, len(texts))
	for _, result := range results {
		tr := result.(*TextResult)
		ordered[tr.Index] = tr
	}
	for i := range ordered {
		if ordered[i] == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			ordered[i] = &TextResult{Index: i, Text: texts[i], Error: err}
		}
	}

	return ordered
}

// ProcessFile reads texts from a file and verifies them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*TextResult, error) {
	texts, err := ReadTextsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read texts: %w", err)
	}

	return b.ProcessTexts(ctx, texts), nil
}

// ReadTextsFromFile reads texts from a file, one per line.
// Empty lines and lines starting with '#' are skipped. Repeated lines are
// kept so every input line yields one run.
func ReadTextsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var texts []string

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		texts = append(texts, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return texts, nil
}
