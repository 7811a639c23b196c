package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/job-extractor/internal/ai"
	"github.com/baxromumarov/job-extractor/internal/model"
	"github.com/baxromumarov/job-extractor/internal/retriever"
)

type fakeRetriever struct {
	pages  map[string]string
	closed *int32
}

func (f *fakeRetriever) Fetch(ctx context.Context, url string) (model.RawPage, error) {
	if err := ctx.Err(); err != nil {
		return model.RawPage{}, err
	}
	text, ok := f.pages[url]
	if !ok {
		return model.RawPage{}, errors.New("retrieval failed: http 404 Not Found")
	}
	return model.RawPage{URL: url, Text: text, Strategy: model.StrategyHTTP, Status: 200}, nil
}

func (f *fakeRetriever) Close() error {
	if f.closed != nil {
		atomic.AddInt32(f.closed, 1)
	}
	return nil
}

type memorySink struct {
	mu       sync.Mutex
	outcomes []model.Outcome
	err      error
}

func (s *memorySink) Write(_ context.Context, o model.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.outcomes = append(s.outcomes, o)
	return nil
}

func (s *memorySink) byURL() map[string]model.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]model.Outcome, len(s.outcomes))
	for _, o := range s.outcomes {
		out[o.URL] = o
	}
	return out
}

// failingTranslator fails for any text containing one of its triggers.
type failingTranslator struct {
	triggers []string
}

func (f failingTranslator) Translate(_ context.Context, text, _, target string) (string, error) {
	for _, trig := range f.triggers {
		if strings.Contains(text, trig) {
			return "", &ai.TranslationError{
				Provider: ai.ProviderGroq,
				Reason:   ai.ReasonRateLimit,
				Status:   429,
				Err:      errors.New("slow down"),
			}
		}
	}
	return "[" + target + "] " + text, nil
}

func newTestPipeline(pages map[string]string, t ai.Translator, closed *int32) *Pipeline {
	factory := func() (Retriever, error) {
		return &fakeRetriever{pages: pages, closed: closed}, nil
	}
	asm := &Assembler{
		NewID: func() string { return "id-1" },
		Now:   func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	}
	return NewPipeline(factory, nil, nil, NewTranslationService(t, TranslateOptions{}), asm, PipelineOptions{Workers: 2})
}

func TestExtractText_RequirementsAndSalary(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(nil, ai.NewMockClient(), nil)
	o := p.ExtractText(context.Background(), "https://example.nl/job/1",
		"Requirements:\n- Python\n- SQL\nSalary: €50.000 - €65.000")

	require.Equal(t, model.StateDone, o.State)
	require.NotNil(t, o.Record)
	rec := o.Record
	assert.Equal(t, []string{"Python", "SQL"}, rec.Requirements)
	require.NotNil(t, rec.SalaryMin)
	require.NotNil(t, rec.SalaryMax)
	assert.Equal(t, 50000.0, *rec.SalaryMin)
	assert.Equal(t, 65000.0, *rec.SalaryMax)
	require.NotNil(t, rec.Currency)
	assert.Equal(t, "EUR", *rec.Currency)
	assert.Nil(t, rec.Benefits)
	assert.Equal(t, "id-1", rec.ID)
	assert.Empty(t, o.Warnings)
}

func TestExtractText_NoHeadings(t *testing.T) {
	t.Parallel()

	text := "Wij zoeken een enthousiaste collega.\nStuur ons je cv."
	p := newTestPipeline(nil, nil, nil)
	o := p.ExtractText(context.Background(), "https://example.nl/job/2", text)

	require.Equal(t, model.StateDone, o.State)
	rec := o.Record
	require.NotNil(t, rec.DescriptionNL)
	assert.Equal(t, text, *rec.DescriptionNL)
	assert.Nil(t, rec.Company)
	assert.Nil(t, rec.Location)
	assert.Nil(t, rec.SalaryMin)
	assert.Nil(t, rec.SalaryMax)
	assert.Nil(t, rec.Currency)
	assert.Nil(t, rec.Requirements)
	assert.Nil(t, rec.Benefits)
	assert.Nil(t, rec.DescriptionEN)
}

func TestExtractText_TranslationErrorIsAWarning(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(nil, failingTranslator{triggers: []string{"Vereist"}}, nil)
	o := p.ExtractText(context.Background(), "https://example.nl/job/3", "Vereist: Python")

	require.Equal(t, model.StateDone, o.State)
	require.NotNil(t, o.Record)
	require.NotNil(t, o.Record.DescriptionNL)
	assert.Equal(t, "Vereist: Python", *o.Record.DescriptionNL)
	assert.Nil(t, o.Record.DescriptionEN)
	require.Len(t, o.Warnings, 1)
	assert.Contains(t, o.Warnings[0], "rate_limit")
	assert.NoError(t, o.Err)
}

func TestExtractText_TranslatesDescription(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(nil, ai.NewMockClient(), nil)
	o := p.ExtractText(context.Background(), "u", "Functieomschrijving\nJe bouwt API's in Go.")

	require.NotNil(t, o.Record.DescriptionEN)
	assert.Equal(t, "[en] Je bouwt API's in Go.", *o.Record.DescriptionEN)
}

func TestProcess_FailedRetrievalHasNoRecord(t *testing.T) {
	t.Parallel()

	var closed int32
	p := newTestPipeline(map[string]string{}, nil, &closed)
	o := p.Process(context.Background(), "https://example.nl/gone")

	assert.Equal(t, model.StateFailed, o.State)
	assert.Nil(t, o.Record)
	assert.ErrorContains(t, o.Err, "404")
	assert.Equal(t, int32(1), atomic.LoadInt32(&closed))
}

func TestProcess_CancelledBeforeFetch(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newTestPipeline(map[string]string{"u": "Salaris: €4000"}, nil, nil)
	o := p.Process(ctx, "u")

	assert.Equal(t, model.StateFailed, o.State)
	assert.Nil(t, o.Record)
	assert.ErrorIs(t, o.Err, context.Canceled)
}

func TestProcess_RetrieverFactoryError(t *testing.T) {
	t.Parallel()

	p := NewPipeline(func() (Retriever, error) { return nil, errors.New("no chromium") },
		nil, nil, nil, nil, PipelineOptions{})
	o := p.Process(context.Background(), "u")

	assert.Equal(t, model.StateFailed, o.State)
	assert.ErrorContains(t, o.Err, "no chromium")
}

func TestRun_IsolatesFailures(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"https://a.nl/1": "Requirements:\n- Go",
		"https://a.nl/2": "Functieomschrijving\nVereist: Python",
		"https://a.nl/4": "Benefits:\n- Laptop",
	}
	var closed int32
	p := newTestPipeline(pages, failingTranslator{triggers: []string{"Vereist"}}, &closed)
	sink := &memorySink{}

	urls := []string{"https://a.nl/1", "https://a.nl/2", "https://a.nl/3", "https://a.nl/4"}
	summary, err := p.Run(context.Background(), urls, sink)

	require.NoError(t, err)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 3, summary.Done)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Warnings)

	got := sink.byURL()
	require.Len(t, got, 4)
	assert.Equal(t, model.StateFailed, got["https://a.nl/3"].State)
	assert.Equal(t, []string{"Go"}, got["https://a.nl/1"].Record.Requirements)
	assert.Equal(t, []string{"Laptop"}, got["https://a.nl/4"].Record.Benefits)
	assert.Empty(t, got["https://a.nl/1"].Warnings)
	assert.Nil(t, got["https://a.nl/2"].Record.DescriptionEN)
	assert.Len(t, got["https://a.nl/2"].Warnings, 1)
	assert.LessOrEqual(t, atomic.LoadInt32(&closed), int32(2))
	assert.Positive(t, atomic.LoadInt32(&closed))
}

func TestRun_CancelledReportsEveryURL(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newTestPipeline(map[string]string{"a": "x", "b": "y", "c": "z"}, nil, nil)
	sink := &memorySink{}
	summary, err := p.Run(ctx, []string{"a", "b", "c"}, sink)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, summary.Failed)
	got := sink.byURL()
	require.Len(t, got, 3)
	for _, o := range got {
		assert.Equal(t, model.StateFailed, o.State)
		assert.Nil(t, o.Record)
	}
}

func TestRun_SinkErrorStopsBatch(t *testing.T) {
	t.Parallel()

	sinkErr := errors.New("disk full")
	p := newTestPipeline(map[string]string{"a": "x"}, nil, nil)
	_, err := p.Run(context.Background(), []string{"a", "b"}, &memorySink{err: sinkErr})

	assert.ErrorIs(t, err, sinkErr)
}

func TestRun_Empty(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(nil, nil, nil)
	summary, err := p.Run(context.Background(), nil, &memorySink{})

	require.NoError(t, err)
	assert.Zero(t, summary.Total)
	assert.Zero(t, summary.Done)
	assert.Zero(t, summary.Failed)
}

func TestAdvance_PanicsOnIllegalMove(t *testing.T) {
	t.Parallel()

	o := model.Outcome{State: model.StatePending}
	assert.Panics(t, func() { advance(&o, model.StateDone) })

	o.State = model.StateSegmented
	p := newTestPipeline(nil, nil, nil)
	assert.Panics(t, func() { p.fail(o, errors.New("late")) })
}

func TestExtractText_BulletsStartingWithHeadingWords(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(nil, ai.Unavailable{}, nil)
	o := p.ExtractText(context.Background(), "u",
		"Wat bieden wij:\n- Company car\n- Salary review twice a year\n- Laptop\nSolliciteren\nStuur je cv naar jobs@acme.nl")

	require.Equal(t, model.StateDone, o.State)
	rec := o.Record
	assert.Equal(t, []string{"Company car", "Salary review twice a year", "Laptop"}, rec.Benefits)
	assert.Nil(t, rec.Company)
	assert.Nil(t, rec.SalaryMin)
	require.NotNil(t, rec.Application)
	assert.Equal(t, "Stuur je cv naar jobs@acme.nl", *rec.Application)
}

// flakyRetriever fails its first n fetches with a non-permanent error.
type flakyRetriever struct {
	failures *int32
	calls    *int32
}

func (f *flakyRetriever) Fetch(_ context.Context, url string) (model.RawPage, error) {
	if atomic.AddInt32(f.calls, 1) <= atomic.LoadInt32(f.failures) {
		return model.RawPage{}, &retriever.RetrievalError{URL: url, Reason: "all strategies failed", Err: errors.New("connection reset")}
	}
	return model.RawPage{URL: url, Text: "Requirements:\n- Go", Strategy: model.StrategyHTTP}, nil
}

func (f *flakyRetriever) Close() error { return nil }

func TestRun_RetriesTransientRetrievalFailure(t *testing.T) {
	t.Parallel()

	var calls int32
	failures := int32(1)
	factory := func() (Retriever, error) { return &flakyRetriever{failures: &failures, calls: &calls}, nil }
	p := NewPipeline(factory, nil, nil, nil, nil, PipelineOptions{Workers: 1, Retries: 2, RetryBackoff: time.Millisecond})
	sink := &memorySink{}

	summary, err := p.Run(context.Background(), []string{"https://a.nl/1"}, sink)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Done)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	require.Len(t, sink.outcomes, 1)
	assert.Equal(t, []string{"Go"}, sink.outcomes[0].Record.Requirements)
}

func TestRun_RetriesExhaustedReportsRetrievalError(t *testing.T) {
	t.Parallel()

	var calls int32
	failures := int32(10)
	factory := func() (Retriever, error) { return &flakyRetriever{failures: &failures, calls: &calls}, nil }
	p := NewPipeline(factory, nil, nil, nil, nil, PipelineOptions{Workers: 1, Retries: 1, RetryBackoff: time.Millisecond})
	sink := &memorySink{}

	summary, err := p.Run(context.Background(), []string{"https://a.nl/1"}, sink)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	require.Len(t, sink.outcomes, 1)
	o := sink.outcomes[0]
	assert.Equal(t, model.StateFailed, o.State)
	var re *retriever.RetrievalError
	require.ErrorAs(t, o.Err, &re)
	assert.Equal(t, "all strategies failed", re.Reason)
}

func TestRun_PermanentFailureIsNotRetried(t *testing.T) {
	t.Parallel()

	var closed int32
	p := newTestPipeline(nil, nil, &closed)
	p.opts.Retries = 3
	sink := &memorySink{}

	summary, err := p.Run(context.Background(), []string{"https://a.nl/missing"}, sink)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.ErrorContains(t, sink.outcomes[0].Err, "404")
}
