package core

import (
	"time"

	"github.com/google/uuid"

	"github.com/baxromumarov/job-extractor/internal/extract"
	"github.com/baxromumarov/job-extractor/internal/model"
)

// Assembler merges the stage outputs into a JobRecord. It performs no I/O;
// the ID source and clock are injected so output is reproducible in tests.
type Assembler struct {
	NewID func() string
	Now   func() time.Time
}

func NewAssembler() *Assembler {
	return &Assembler{
		NewID: uuid.NewString,
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

// Assemble never invents values: anything not found stays nil, and a list is
// non-nil only when its section was present. Page metadata fills company and
// location only when no section did.
func (a *Assembler) Assemble(url string, page model.RawPage, sections []model.Section, fields model.Fields, tr Translation) model.JobRecord {
	rec := model.JobRecord{
		ID:            a.NewID(),
		URL:           url,
		Title:         page.Meta.Title,
		PostedAt:      page.Meta.PostedAt,
		Company:       fields.Company,
		Location:      fields.Location,
		SalaryMin:     fields.SalaryMin,
		SalaryMax:     fields.SalaryMax,
		Currency:      fields.Currency,
		Requirements:  fields.Requirements,
		Benefits:      fields.Benefits,
		DescriptionNL: extract.Description(fields),
		Application:   extract.Application(fields),
		Features:      page.Meta.Features,
		Contact:       page.Meta.Contact,
		FetchStrategy: page.Strategy,
		ExtractedAt:   a.Now(),
	}

	if rec.Company == nil {
		rec.Company = page.Meta.Company
	}
	if rec.Location == nil {
		rec.Location = page.Meta.Location
	}

	for _, sec := range sections {
		switch sec.Label {
		case model.LabelRequirements:
			if rec.Requirements == nil {
				rec.Requirements = []string{}
			}
		case model.LabelBenefits:
			if rec.Benefits == nil {
				rec.Benefits = []string{}
			}
		}
	}

	if rec.Title != nil {
		rec.TitleEN = tr.TitleEN
	}
	if rec.DescriptionNL != nil {
		rec.DescriptionEN = tr.DescriptionEN
	}
	if rec.Requirements != nil {
		rec.RequirementsEN = tr.RequirementsEN
	}
	if rec.Benefits != nil {
		rec.BenefitsEN = tr.BenefitsEN
	}
	return rec.Clone()
}
