// Package extract turns labeled sections into typed job fields.
package extract

import (
	"strings"

	"github.com/baxromumarov/job-extractor/internal/model"
)

// Extractor is safe for concurrent use; it holds only the read-only
// location table.
type Extractor struct {
	locations *Locations
}

func New(locs *Locations) *Extractor {
	if locs == nil {
		locs = DefaultLocations()
	}
	return &Extractor{locations: locs}
}

// Extract reads the fields a single section contributes. It is pure: the same
// section always yields the same Fields.
func (e *Extractor) Extract(sec model.Section) model.Fields {
	var f model.Fields
	switch sec.Label {
	case model.LabelSalary:
		s := parseSalary(body(sec))
		if s.found {
			f.SalaryMin = model.Float(s.min)
			f.SalaryMax = model.Float(s.max)
			if s.currency != "" {
				f.Currency = model.String(s.currency)
			}
		}
	case model.LabelRequirements:
		f.Requirements = splitItems(body(sec))
	case model.LabelBenefits:
		f.Benefits = splitItems(body(sec))
	case model.LabelCompany:
		info := parseCompany(body(sec), e.locations)
		if info.name != "" {
			f.Company = model.String(info.name)
		}
		if info.location != "" {
			f.Location = model.String(info.location)
		}
	case model.LabelDescription:
		if b := strings.TrimSpace(body(sec)); b != "" {
			f.Description = []string{b}
		}
	case model.LabelApplication:
		if b := strings.TrimSpace(body(sec)); b != "" {
			f.Application = []string{b}
		}
	case model.LabelOther:
		if strings.TrimSpace(sec.RawText) != "" {
			f.Description = []string{sec.RawText}
		}
	}
	return f
}

// ExtractAll merges the contributions of every section in order.
func (e *Extractor) ExtractAll(sections []model.Section) model.Fields {
	var out model.Fields
	for _, sec := range sections {
		out = out.Merge(e.Extract(sec))
	}
	return out
}

// Description joins the collected description pieces with a blank line.
// A single piece is returned untouched.
func Description(f model.Fields) *string {
	return joinPieces(f.Description)
}

// Application joins the text of every application-process section.
func Application(f model.Fields) *string {
	return joinPieces(f.Application)
}

func joinPieces(pieces []string) *string {
	switch len(pieces) {
	case 0:
		return nil
	case 1:
		return model.String(pieces[0])
	}
	parts := make([]string, 0, len(pieces))
	for _, p := range pieces {
		parts = append(parts, strings.TrimSpace(p))
	}
	return model.String(strings.Join(parts, "\n\n"))
}

// body drops the heading that opened the section, including its trailing
// colon, and returns what follows.
func body(sec model.Section) string {
	text := sec.RawText
	if sec.Marker == "" {
		return text
	}
	if idx := strings.Index(text, sec.Marker); idx >= 0 {
		text = text[idx+len(sec.Marker):]
	}
	text = strings.TrimLeft(text, " \t")
	text = strings.TrimPrefix(text, ":")
	return text
}
