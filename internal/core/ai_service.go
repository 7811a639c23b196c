package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/baxromumarov/job-extractor/internal/ai"
	"github.com/baxromumarov/job-extractor/internal/model"
	"github.com/baxromumarov/job-extractor/internal/observability"
)

const DefaultMaxChars = 3000

type TranslateOptions struct {
	Source string
	Target string
	// IncludeLists also translates requirements and benefits, one item per
	// line.
	IncludeLists bool
	// MaxChars truncates each text, in runes, before it is sent.
	MaxChars int
	// SkipIfTranslated leaves records that already carry description_en alone.
	SkipIfTranslated bool
}

func (o TranslateOptions) withDefaults() TranslateOptions {
	if o.Source == "" {
		o.Source = "nl"
	}
	if o.Target == "" {
		o.Target = "en"
	}
	if o.MaxChars <= 0 {
		o.MaxChars = DefaultMaxChars
	}
	return o
}

// Warning is a non-fatal problem attached to a record.
type Warning struct {
	Reason  string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("translation failed (%s): %s", w.Reason, w.Message)
}

// Translation is the result of translating one record's texts. Absent fields
// stay nil; a failed call leaves its field nil and sets Warning.
type Translation struct {
	TitleEN        *string
	DescriptionEN  *string
	RequirementsEN []string
	BenefitsEN     []string
	Warning        *Warning
}

// TranslationSource is the Dutch content of one record.
type TranslationSource struct {
	Title         *string
	TitleEN       *string
	DescriptionNL *string
	DescriptionEN *string
	Requirements  []string
	Benefits      []string
}

// TranslationService adapts an ai.Translator to records. It never fails: a
// provider error degrades to a warning.
type TranslationService struct {
	translator ai.Translator
	opts       TranslateOptions
}

func NewTranslationService(t ai.Translator, opts TranslateOptions) *TranslationService {
	if t == nil {
		t = ai.Unavailable{}
	}
	return &TranslationService{translator: t, opts: opts.withDefaults()}
}

func (s *TranslationService) Translate(ctx context.Context, src TranslationSource) Translation {
	var out Translation
	if s.opts.SkipIfTranslated && src.DescriptionEN != nil {
		out.DescriptionEN = src.DescriptionEN
		out.TitleEN = src.TitleEN
		return out
	}

	if src.DescriptionNL != nil && strings.TrimSpace(*src.DescriptionNL) != "" {
		text, err := s.call(ctx, *src.DescriptionNL)
		if err != nil {
			out.Warning = warningFor(err)
		} else if text != "" {
			out.DescriptionEN = model.String(text)
		}
	}

	if src.Title != nil && strings.TrimSpace(*src.Title) != "" {
		text, err := s.call(ctx, *src.Title)
		if err != nil {
			if out.Warning == nil {
				out.Warning = warningFor(err)
			}
		} else if text != "" {
			out.TitleEN = model.String(text)
		}
	}

	if s.opts.IncludeLists {
		var err error
		out.RequirementsEN, err = s.translateList(ctx, src.Requirements)
		if err != nil && out.Warning == nil {
			out.Warning = warningFor(err)
		}
		out.BenefitsEN, err = s.translateList(ctx, src.Benefits)
		if err != nil && out.Warning == nil {
			out.Warning = warningFor(err)
		}
	}
	return out
}

// TranslateRecord translates a finished record. The input is not modified.
func (s *TranslationService) TranslateRecord(ctx context.Context, rec model.JobRecord) (model.JobRecord, *Warning) {
	out := rec.Clone()
	if s.opts.SkipIfTranslated && rec.DescriptionEN != nil {
		return out, nil
	}
	tr := s.Translate(ctx, TranslationSource{
		Title:         rec.Title,
		DescriptionNL: rec.DescriptionNL,
		Requirements:  rec.Requirements,
		Benefits:      rec.Benefits,
	})
	out.TitleEN = tr.TitleEN
	out.DescriptionEN = tr.DescriptionEN
	if s.opts.IncludeLists {
		out.RequirementsEN = tr.RequirementsEN
		out.BenefitsEN = tr.BenefitsEN
	}
	return out, tr.Warning
}

func (s *TranslationService) translateList(ctx context.Context, items []string) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	text, err := s.call(ctx, strings.Join(items, "\n"))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•"))
		if line != "" {
			out = append(out, line)
		}
	}
	return out, nil
}

// call returns "" with a nil error when no provider is configured.
func (s *TranslationService) call(ctx context.Context, text string) (string, error) {
	if _, off := s.translator.(ai.Unavailable); off {
		return "", nil
	}
	text = truncateRunes(text, s.opts.MaxChars)
	observability.IncTranslationCall()
	out, err := s.translator.Translate(ctx, text, s.opts.Source, s.opts.Target)
	if errors.Is(err, ai.ErrUnavailable) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return out, nil
}

func warningFor(err error) *Warning {
	observability.IncTranslationWarning()
	observability.IncError(observability.ErrorTranslation, "translator")
	w := &Warning{Reason: ai.ReasonProvider, Message: err.Error()}
	var te *ai.TranslationError
	switch {
	case errors.As(err, &te):
		w.Reason = te.Reason
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		w.Reason = ai.ReasonNetwork
	}
	slog.Warn("translation failed", "reason", w.Reason, "error", err)
	return w
}

// truncateRunes cuts s to at most max runes without splitting a character.
func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
