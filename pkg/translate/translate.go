// Package translate runs a conlang generator over the sentences of a
// source document and persists the output, the generated vocabulary and a
// resumable checkpoint.
package translate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/japaniel/conlang/pkg/construct"
	"github.com/japaniel/conlang/pkg/db"
	"github.com/japaniel/conlang/pkg/language"
)

// WorkerPoolInterface abstracts the worker pool so tests can inject failing implementations.
type WorkerPoolInterface interface {
	Start(ctx context.Context)
	Submit(Job) error
	// SubmitCtx attempts to enqueue a job but returns promptly if ctx is canceled.
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// Translator translates sentence lists into one language.
type Translator struct {
	DB         *sql.DB
	Language   *language.Language
	LanguageID int64
	BatchSize  int
	Workers    int
	Logger     *log.Logger

	// Prepare rewrites each sentence before generation, e.g. to segment
	// Japanese text. The stored input is the original sentence.
	Prepare func(string) string

	// OnProgress is called with the number of sentences handed to the
	// writer and the total.
	OnProgress func(current, total int)

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
}

// NewTranslator registers lang in conn and returns a translator for it.
func NewTranslator(conn *sql.DB, lang *language.Language, definitionHash string) (*Translator, error) {
	id, err := db.CreateOrGetLanguage(conn, lang.Name, definitionHash)
	if err != nil {
		return nil, err
	}
	return &Translator{
		DB:         conn,
		Language:   lang,
		LanguageID: id,
		BatchSize:  50,
		Workers:    4,
	}, nil
}

// Summary describes a finished run.
type Summary struct {
	RunID      string
	Skipped    int // sentences already done in earlier runs
	Sentences  int
	Errors     int
	Vocabulary int // vocabulary rows written or bumped
}

type vocabWord struct {
	Word   string
	Output string
	Count  int
}

// translated is one generated sentence waiting for its turn to be written.
type translated struct {
	Index  int
	Input  string
	Output string
	Errors int
	Words  []vocabWord
}

// Translate generates every sentence from the source's checkpoint onward.
// Stored vocabulary seeds each generator so words keep the output they had in
// earlier runs. Results are written in sentence order.
func (tr *Translator) Translate(ctx context.Context, sourceID int64, sentences []string) (Summary, error) {
	logger := tr.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	workers := tr.Workers
	if workers <= 0 {
		workers = 1
	}
	batchSize := tr.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	startIdx, err := db.GetSourceProgress(tr.DB, sourceID, tr.LanguageID)
	if err != nil {
		return Summary{}, fmt.Errorf("read progress: %w", err)
	}
	total := len(sentences)
	summary := Summary{Skipped: min(startIdx, total)}
	if startIdx >= total {
		logger.Info("source already translated", "source", sourceID, "sentences", total)
		return summary, nil
	}
	if startIdx > 0 {
		logger.Info("resuming translation", "source", sourceID, "from", startIdx)
	}

	base, err := tr.Language.NewGenerator()
	if err != nil {
		return summary, err
	}
	stored, err := db.LoadVocabulary(tr.DB, tr.LanguageID)
	if err != nil {
		return summary, fmt.Errorf("load vocabulary: %w", err)
	}
	for word, out := range stored {
		base.Lexicon.AddVocabulary(word, out)
	}
	gens := make(chan *construct.Generator, workers)
	for i := 0; i < workers; i++ {
		gens <- base.Clone()
	}

	runID, err := db.StartRun(tr.DB, tr.LanguageID, sourceID)
	if err != nil {
		return summary, err
	}
	summary.RunID = runID

	var wp WorkerPoolInterface
	if tr.PoolFactory != nil {
		wp = tr.PoolFactory(workers, workers*2)
	} else {
		wp = NewWorkerPool(workers, workers*2)
	}
	resultCh := make(chan translated, workers*2)
	doneCh := make(chan error, 1)

	bw := NewBatchWriter(tr.DB, batchSize, 100*time.Millisecond)
	var writeErr error
	var writeErrMu sync.Mutex
	bw.OnError = func(e error) {
		writeErrMu.Lock()
		if writeErr == nil {
			writeErr = e
		}
		writeErrMu.Unlock()
	}

	var written, errCount, vocabCount int64

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	wp.Start(ctx)

	// Consumer: reorder results and hand them to the writer.
	go func() {
		defer close(doneCh)
		buffer := make(map[int]translated)
		next := startIdx
		for res := range resultCh {
			buffer[res.Index] = res
			for {
				item, ok := buffer[next]
				if !ok {
					break
				}
				delete(buffer, next)
				if err := bw.Submit(tr.write(runID, sourceID, item, &vocabCount)); err != nil {
					cancel()
					doneCh <- err
					return
				}
				atomic.AddInt64(&written, 1)
				atomic.AddInt64(&errCount, int64(item.Errors))
				next++
				if tr.OnProgress != nil && (next%batchSize == 0 || next == total) {
					tr.OnProgress(next, total)
				}
			}
		}
		doneCh <- ctx.Err()
	}()

	var submitErr error
Loop:
	for i := startIdx; i < total; i++ {
		idx, input := i, sentences[i]
		job := func(ctx context.Context) error {
			g := <-gens
			res := tr.generate(g, idx, input, logger)
			gens <- g
			select {
			case resultCh <- res:
			case <-ctx.Done():
			}
			return nil
		}
		if err := wp.SubmitCtx(ctx, job); err != nil {
			if errors.Is(err, ctx.Err()) || err == ErrPoolClosed {
				break Loop
			}
			submitErr = err
			cancel()
			break Loop
		}
	}

	// No worker can send once the pool is closed.
	wp.Close()
	close(resultCh)
	consumerErr := <-doneCh

	if err := bw.Close(); err != nil && consumerErr == nil {
		consumerErr = err
	}
	writeErrMu.Lock()
	if writeErr != nil && consumerErr == nil {
		consumerErr = writeErr
	}
	writeErrMu.Unlock()
	if submitErr != nil {
		consumerErr = submitErr
	}

	summary.Sentences = int(atomic.LoadInt64(&written))
	summary.Errors = int(atomic.LoadInt64(&errCount))
	summary.Vocabulary = int(atomic.LoadInt64(&vocabCount))
	if err := db.FinishRun(tr.DB, runID, summary.Sentences, summary.Errors); err != nil && consumerErr == nil {
		consumerErr = err
	}
	logger.Info("translation finished", "run", runID, "sentences", summary.Sentences, "errors", summary.Errors)
	return summary, consumerErr
}

// generate runs one sentence. A sentence whose flags cannot be parsed is
// stored unchanged and counted as one error.
func (tr *Translator) generate(g *construct.Generator, idx int, input string, logger *log.Logger) translated {
	text := input
	if tr.Prepare != nil {
		text = tr.Prepare(text)
	}
	res, err := g.Generate(text)
	if err != nil {
		logger.Warn("sentence skipped", "index", idx, "err", err)
		return translated{Index: idx, Input: input, Output: input, Errors: 1}
	}
	out := translated{Index: idx, Input: input, Output: res.Output, Errors: len(res.Errors)}
	counts := map[string]int{}
	var order []string
	forms := map[string]string{}
	for _, w := range res.Words {
		form, ok := vocabularyForm(g, w)
		if !ok {
			continue
		}
		key := strings.ToLower(w.Actual)
		if _, seen := counts[key]; !seen {
			order = append(order, key)
			forms[key] = form
		}
		counts[key]++
	}
	for _, key := range order {
		out.Words = append(out.Words, vocabWord{Word: key, Output: forms[key], Count: counts[key]})
	}
	return out
}

// vocabularyForm returns the uncased output worth persisting for w.
func vocabularyForm(g *construct.Generator, w *construct.WordInfo) (string, bool) {
	if w.Err != nil || !w.IsProcessed || len(w.Flags) > 0 || strings.TrimSpace(w.Actual) == "" {
		return "", false
	}
	switch w.Source {
	case construct.FromVocabulary:
		return g.Lexicon.Vocabulary(w.Actual)
	case construct.FromGenerated, construct.FromRoot:
		return w.PrefixText + w.Core + w.SuffixText, true
	}
	return "", false
}

func (tr *Translator) write(runID string, sourceID int64, item translated, vocabCount *int64) WriteFunc {
	return func(ctx context.Context, tx *sql.Tx) error {
		err := db.SaveTranslation(tx, db.Translation{
			RunID:         runID,
			SourceID:      sourceID,
			LanguageID:    tr.LanguageID,
			SentenceIndex: item.Index,
			Input:         item.Input,
			Output:        item.Output,
			ErrorCount:    item.Errors,
		})
		if err != nil {
			return fmt.Errorf("sentence %d: %w", item.Index, err)
		}
		for _, w := range item.Words {
			if err := db.UpsertVocabulary(tx, tr.LanguageID, w.Word, w.Output, w.Count); err != nil {
				return fmt.Errorf("vocabulary %q: %w", w.Word, err)
			}
			atomic.AddInt64(vocabCount, 1)
		}
		if err := db.UpdateSourceProgress(tx, sourceID, tr.LanguageID, item.Index+1); err != nil {
			return fmt.Errorf("save progress: %w", err)
		}
		return nil
	}
}
