package biz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/internal/docqa/metrics"
	"github.com/kart-io/docqa/internal/pkg/extract"
	"github.com/kart-io/docqa/pkg/pool"
)

// DefaultQuestionConcurrency bounds parallel question processing per request.
const DefaultQuestionConcurrency = 4

// QAServiceConfig controls request-level behavior.
type QAServiceConfig struct {
	// Concurrency is the maximum number of questions answered in
	// parallel within one request.
	Concurrency int
}

// QAService answers batches of questions over a single document. It
// owns the full pipeline: fetch, extract, chunk, embed, index,
// retrieve, and generate.
type QAService struct {
	extractor *extract.Extractor
	chunker   *Chunker
	indexer   *Indexer
	retriever *Retriever
	prompts   *PromptBuilder
	generator *Generator
	docCache  *DocCache
	ansCache  *AnswerCache
	workers   *pool.Pool
	cfg       QAServiceConfig

	clearHooks []func(context.Context) error
}

// NewQAService wires the pipeline components into a service.
func NewQAService(
	extractor *extract.Extractor,
	chunker *Chunker,
	indexer *Indexer,
	retriever *Retriever,
	prompts *PromptBuilder,
	generator *Generator,
	docCache *DocCache,
	ansCache *AnswerCache,
	workers *pool.Pool,
	cfg QAServiceConfig,
) *QAService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultQuestionConcurrency
	}
	return &QAService{
		extractor: extractor,
		chunker:   chunker,
		indexer:   indexer,
		retriever: retriever,
		prompts:   prompts,
		generator: generator,
		docCache:  docCache,
		ansCache:  ansCache,
		workers:   workers,
		cfg:       cfg,
	}
}

// Answer processes all questions against the document at docURL and
// returns one answer per question, in input order. Individual question
// failures become error-message answers; only a document-level failure
// (fetch, extract, or index) fails the whole call.
func (s *QAService) Answer(ctx context.Context, docURL string, questions []string) ([]string, error) {
	key := DocKey(docURL)

	doc, err := s.docCache.GetOrBuild(ctx, key, func(ctx context.Context) (*DocEntry, error) {
		return s.runBuild(ctx, docURL)
	})
	if err != nil {
		return nil, fmt.Errorf("process document: %w", err)
	}

	answers := make([]string, len(questions))
	sem := make(chan struct{}, s.cfg.Concurrency)
	var wg sync.WaitGroup

	for i, question := range questions {
		wg.Add(1)
		submitErr := s.workers.Submit(func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			answers[i] = s.answerOne(ctx, key, doc, question)
		})
		if submitErr != nil {
			wg.Done()
			answers[i] = questionError(submitErr)
			metrics.Get().RecordQuestion(false)
		}
	}
	wg.Wait()

	return answers, nil
}

// answerOne runs the retrieval and generation pipeline for a single
// question. It never returns an error: failures and panics become
// error-message answers so one bad question cannot sink its batch.
func (s *QAService) answerOne(ctx context.Context, docKey string, doc *DocEntry, question string) (answer string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorw("panic while answering question", "panic", r, "question", question)
			answer = questionError(fmt.Errorf("internal error: %v", r))
			metrics.Get().RecordQuestion(false)
		}
	}()

	if cached, ok := s.ansCache.Get(ctx, docKey, question); ok {
		metrics.Get().RecordAnswerCacheHit()
		metrics.Get().RecordQuestion(true)
		return cached
	}

	start := time.Now()

	chunks, err := s.retriever.Retrieve(ctx, doc, question)
	if err != nil {
		metrics.Get().RecordQuestion(false)
		return questionError(err)
	}

	prompt := s.prompts.Build(question, chunks)

	result, err := s.generator.Generate(ctx, prompt)
	metrics.Get().RecordLLMCall(err)
	if err != nil {
		metrics.Get().RecordQuestion(false)
		return questionError(err)
	}

	answer = result.Text()
	s.ansCache.Set(ctx, docKey, question, answer)
	metrics.Get().RecordQuestion(true)

	logger.Infow("answered question",
		"question_length", len(question),
		"answer_length", len(answer),
		"duration", time.Since(start).String(),
	)
	return answer
}

// runBuild schedules the document build on the worker pool and waits
// for the result. The pool bounds how many downloads and embedding
// passes run at once across all requests; without it, N concurrent
// requests for distinct documents would ingest N documents in parallel.
func (s *QAService) runBuild(ctx context.Context, docURL string) (*DocEntry, error) {
	type buildResult struct {
		entry *DocEntry
		err   error
	}
	done := make(chan buildResult, 1)

	if err := s.workers.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorw("panic while building document", "panic", r, "url", docURL)
				done <- buildResult{nil, fmt.Errorf("internal error: %v", r)}
			}
		}()
		entry, err := s.buildDocument(ctx, docURL)
		done <- buildResult{entry, err}
	}); err != nil {
		return nil, err
	}

	select {
	case res := <-done:
		return res.entry, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// buildDocument runs the ingest pipeline: download, extract, chunk,
// embed, and index.
func (s *QAService) buildDocument(ctx context.Context, docURL string) (*DocEntry, error) {
	start := time.Now()

	text, err := s.extractor.ExtractFromURL(ctx, docURL)
	if err != nil {
		metrics.Get().RecordDocumentBuild(0, time.Since(start), err)
		return nil, err
	}

	chunks := s.chunker.Split(text)
	if len(chunks) == 0 {
		err := fmt.Errorf("document produced no usable chunks")
		metrics.Get().RecordDocumentBuild(0, time.Since(start), err)
		return nil, err
	}

	index, err := s.indexer.BuildIndex(ctx, chunks)
	if err != nil {
		metrics.Get().RecordDocumentBuild(0, time.Since(start), err)
		return nil, err
	}
	metrics.Get().RecordDocumentBuild(len(chunks), time.Since(start), nil)

	logger.Infow("document processed",
		"url", docURL,
		"chunks", len(chunks),
		"duration", time.Since(start).String(),
	)
	return &DocEntry{
		Chunks:    chunks,
		Index:     index,
		CreatedAt: time.Now(),
	}, nil
}

// CacheStats reports document cache counters for the admin endpoint.
func (s *QAService) CacheStats() map[string]any {
	return s.docCache.Stats()
}

// AddClearHook registers an extra cache clearer run by ClearCaches.
func (s *QAService) AddClearHook(fn func(context.Context) error) {
	s.clearHooks = append(s.clearHooks, fn)
}

// ClearCaches drops the document cache, the Redis answer cache when
// enabled, and any registered extra caches.
func (s *QAService) ClearCaches(ctx context.Context) error {
	s.docCache.Clear()
	err := s.ansCache.Clear(ctx)
	for _, fn := range s.clearHooks {
		if hookErr := fn(ctx); hookErr != nil && err == nil {
			err = hookErr
		}
	}
	return err
}

func questionError(err error) string {
	return "Error processing question: " + err.Error()
}
