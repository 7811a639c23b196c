package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/baxromumarov/job-extractor/internal/extract"
	"github.com/baxromumarov/job-extractor/internal/model"
	"github.com/baxromumarov/job-extractor/internal/observability"
	"github.com/baxromumarov/job-extractor/internal/segment"
	"github.com/baxromumarov/job-extractor/internal/worker"
)

// Retriever fetches one page. Each instance may hold a browser session and
// is used by a single goroutine.
type Retriever interface {
	Fetch(ctx context.Context, url string) (model.RawPage, error)
	Close() error
}

type RetrieverFactory func() (Retriever, error)

// Sink receives one Outcome per URL. Implementations must be safe for the
// single writer goroutine Run uses.
type Sink interface {
	Write(ctx context.Context, o model.Outcome) error
}

type PipelineOptions struct {
	Workers int
	// URLTimeout bounds the whole chain for one URL. Zero means no limit.
	URLTimeout time.Duration
	// Retries is how many more times a URL is run from the start after a
	// retrieval failure that is not permanent.
	Retries      int
	RetryBackoff time.Duration
}

// Pipeline chains Retriever, Segmenter, Extractor, TranslationService and
// Assembler for each URL.
type Pipeline struct {
	newRetriever RetrieverFactory
	segmenter    *segment.Segmenter
	extractor    *extract.Extractor
	translator   *TranslationService
	assembler    *Assembler
	opts         PipelineOptions
}

func NewPipeline(
	newRetriever RetrieverFactory,
	segmenter *segment.Segmenter,
	extractor *extract.Extractor,
	translator *TranslationService,
	assembler *Assembler,
	opts PipelineOptions,
) *Pipeline {
	if segmenter == nil {
		segmenter = segment.New()
	}
	if extractor == nil {
		extractor = extract.New(nil)
	}
	if translator == nil {
		translator = NewTranslationService(nil, TranslateOptions{})
	}
	if assembler == nil {
		assembler = NewAssembler()
	}
	return &Pipeline{
		newRetriever: newRetriever,
		segmenter:    segmenter,
		extractor:    extractor,
		translator:   translator,
		assembler:    assembler,
		opts:         opts,
	}
}

// Summary counts the outcomes of one Run.
type Summary struct {
	Total    int           `json:"total"`
	Done     int           `json:"done"`
	Failed   int           `json:"failed"`
	Warnings int           `json:"warnings"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Process runs a single URL with a retriever of its own, closed on return.
func (p *Pipeline) Process(ctx context.Context, url string) model.Outcome {
	r, err := p.newRetriever()
	if err != nil {
		return failed(url, fmt.Errorf("build retriever: %w", err))
	}
	defer closeRetriever(r)
	return p.process(ctx, r, url)
}

// Run processes urls on a worker pool. Each worker owns one retriever. Every
// URL yields exactly one Outcome, written to sink as it completes; a failed
// URL never stops the batch. The returned error is non-nil only when the sink
// fails or ctx ends.
func (p *Pipeline) Run(ctx context.Context, urls []string, sink Sink) (Summary, error) {
	started := time.Now()
	summary := Summary{Total: len(urls)}
	delivered := make([]bool, len(urls))
	// Outcomes are written even after ctx ends so no URL goes unreported.
	writeCtx := context.WithoutCancel(ctx)

	factory := func(id int) (worker.Worker[string, model.Outcome], error) {
		r, err := p.newRetriever()
		if err != nil {
			return nil, fmt.Errorf("build retriever for worker %d: %w", id, err)
		}
		return &urlWorker{pipeline: p, retriever: r}, nil
	}

	record := func(o model.Outcome) error {
		switch o.State {
		case model.StateDone:
			summary.Done++
		case model.StateFailed:
			summary.Failed++
		}
		summary.Warnings += len(o.Warnings)
		if sink == nil {
			return nil
		}
		if err := sink.Write(writeCtx, o); err != nil {
			observability.IncError(observability.ErrorStore, "sink")
			return fmt.Errorf("write outcome for %s: %w", o.URL, err)
		}
		return nil
	}

	onResult := func(res worker.Result[string, model.Outcome]) error {
		delivered[res.Index] = true
		o := res.Output
		if res.Err != nil && o.State != model.StateFailed {
			o = failed(res.Input, res.Err)
			observability.IncRecordFailed()
		}
		return record(o)
	}

	_, err := worker.ProcessAll(ctx, urls, factory, onResult, worker.Options{
		Workers:           p.opts.Workers,
		TaskTimeout:       p.opts.URLTimeout,
		MaxRetries:        p.opts.Retries,
		BackoffInitial:    p.opts.RetryBackoff,
		BackoffMax:        8 * p.opts.RetryBackoff,
		BackoffJitterFrac: 0.2,
	})

	// URLs the pool never reported because ctx ended still get their entry.
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		for i, url := range urls {
			if delivered[i] {
				continue
			}
			observability.IncRecordFailed()
			if werr := record(failed(url, ctxErr)); werr != nil {
				err = errors.Join(err, werr)
				break
			}
		}
	}
	summary.Elapsed = time.Since(started)
	slog.Info("batch finished",
		"total", summary.Total,
		"done", summary.Done,
		"failed", summary.Failed,
		"warnings", summary.Warnings,
		"elapsed", summary.Elapsed.String(),
	)
	return summary, err
}

// ExtractText runs segmentation, extraction, translation and assembly on text
// that is already in hand. No network access happens besides translation.
func (p *Pipeline) ExtractText(ctx context.Context, url, text string) model.Outcome {
	return p.ExtractPage(ctx, model.RawPage{URL: url, Text: text})
}

// ExtractPage is ExtractText for a page that also carries metadata, such as
// one produced by content.Analyze from a saved HTML file.
func (p *Pipeline) ExtractPage(ctx context.Context, page model.RawPage) model.Outcome {
	o := model.Outcome{URL: page.URL, State: model.StatePending}
	if err := ctx.Err(); err != nil {
		return p.fail(o, err)
	}
	advance(&o, model.StateFetched)
	return p.structure(ctx, o, page)
}

type urlWorker struct {
	pipeline  *Pipeline
	retriever Retriever
}

// Process reports a retrieval failure that may clear up on another attempt
// as a worker.TransientError, so the pool runs the URL again.
func (w *urlWorker) Process(ctx context.Context, url string) (model.Outcome, error) {
	o := w.pipeline.process(ctx, w.retriever, url)
	if o.State == model.StateFailed && retryable(o.Err) {
		return o, &worker.TransientError{Err: o.Err}
	}
	return o, nil
}

type transient interface {
	Transient() bool
}

func retryable(err error) bool {
	var t transient
	return errors.As(err, &t) && t.Transient()
}

func (w *urlWorker) Close() error {
	return w.retriever.Close()
}

func (p *Pipeline) process(ctx context.Context, r Retriever, url string) model.Outcome {
	started := time.Now()
	defer func() { observability.ObserveURLDuration(time.Since(started).Seconds()) }()

	o := model.Outcome{URL: url, State: model.StatePending}
	if err := ctx.Err(); err != nil {
		return p.fail(o, err)
	}

	page, err := r.Fetch(ctx, url)
	if err != nil {
		return p.fail(o, err)
	}
	advance(&o, model.StateFetched)

	if err := ctx.Err(); err != nil {
		return p.fail(o, err)
	}
	return p.structure(ctx, o, page)
}

// structure takes a FETCHED outcome to DONE. From here on nothing can fail:
// missing fields stay absent and translation problems become warnings.
func (p *Pipeline) structure(ctx context.Context, o model.Outcome, page model.RawPage) model.Outcome {
	sections := p.segmenter.Segment(page.Text)
	advance(&o, model.StateSegmented)

	fields := p.extractor.ExtractAll(sections)
	advance(&o, model.StateExtracted)

	tr := p.translator.Translate(ctx, TranslationSource{
		Title:         page.Meta.Title,
		DescriptionNL: extract.Description(fields),
		Requirements:  fields.Requirements,
		Benefits:      fields.Benefits,
	})
	if tr.Warning != nil {
		o.Warnings = append(o.Warnings, tr.Warning.String())
	}
	advance(&o, model.StateTranslated)

	rec := p.assembler.Assemble(o.URL, page, sections, fields, tr)
	o.Record = &rec
	advance(&o, model.StateDone)

	observability.IncRecordDone()
	slog.Info("record extracted",
		"url", o.URL,
		"strategy", string(page.Strategy),
		"sections", len(sections),
		"warnings", len(o.Warnings),
	)
	return o
}

func (p *Pipeline) fail(o model.Outcome, err error) model.Outcome {
	if !o.State.CanTransition(model.StateFailed) {
		panic(fmt.Sprintf("core: FAILED is not reachable from %s", o.State))
	}
	observability.IncRecordFailed()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		slog.Warn("url cancelled", "url", o.URL, "state", string(o.State), "error", err)
	} else {
		slog.Info("url failed", "url", o.URL, "state", string(o.State), "error", err)
	}
	o.State = model.StateFailed
	o.Record = nil
	o.Err = err
	return o
}

func failed(url string, err error) model.Outcome {
	return model.Outcome{URL: url, State: model.StateFailed, Err: err}
}

// advance moves o to next. The pipeline only ever requests legal moves, so an
// illegal one is a programming error.
func advance(o *model.Outcome, next model.State) {
	if !o.State.CanTransition(next) {
		panic(fmt.Sprintf("core: illegal transition %s -> %s", o.State, next))
	}
	o.State = next
}

func closeRetriever(r Retriever) {
	if err := r.Close(); err != nil {
		slog.Warn("close retriever", "error", err)
	}
}
