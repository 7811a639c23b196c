package model

import (
	"time"
)

type FetchStrategy string

const (
	StrategyHTTP    FetchStrategy = "HTTP"
	StrategyBrowser FetchStrategy = "BROWSER"
)

// PageMeta carries page-level hints that do not come from the body text.
// Company and Location are fallbacks used only when no section supplied them.
// Features holds the label/value pairs of a posting's sidebar ("Uren" ->
// "32 - 40 uur per week").
type PageMeta struct {
	Title    *string
	PostedAt *string
	Company  *string
	Location *string
	Features map[string]string
	Contact  *Contact
}

// Contact is the employer's address block and contact line, when the page
// shows them.
type Contact struct {
	Address *string `json:"address,omitempty"`
	Details *string `json:"details,omitempty"`
}

func (c *Contact) clone() *Contact {
	if c == nil {
		return nil
	}
	return &Contact{Address: cloneString(c.Address), Details: cloneString(c.Details)}
}

// RawPage is the retriever output for one URL. Text is the visible body text
// handed to the segmenter.
type RawPage struct {
	URL      string
	HTML     string
	Text     string
	Strategy FetchStrategy
	Status   int
	Meta     PageMeta
}

type Label string

const (
	LabelCompany      Label = "COMPANY"
	LabelRequirements Label = "REQUIREMENTS"
	LabelBenefits     Label = "BENEFITS"
	LabelSalary       Label = "SALARY"
	LabelDescription  Label = "DESCRIPTION"
	LabelApplication  Label = "APPLICATION"
	LabelOther        Label = "OTHER"
)

// Section is a contiguous labeled span [Start, End) of the segmented text.
// Marker is the heading text that opened the section; it is empty for OTHER.
type Section struct {
	Label   Label
	RawText string
	Marker  string
	Start   int
	End     int
}

// JobRecord is the structured output for one posting. Pointer fields are nil
// when nothing was found; lists are nil when no matching section existed and
// empty when the section was present but had no items.
type JobRecord struct {
	ID             string            `json:"id"`
	URL            string            `json:"url"`
	Title          *string           `json:"title,omitempty"`
	TitleEN        *string           `json:"title_en,omitempty"`
	Company        *string           `json:"company,omitempty"`
	Location       *string           `json:"location,omitempty"`
	SalaryMin      *float64          `json:"salary_min,omitempty"`
	SalaryMax      *float64          `json:"salary_max,omitempty"`
	Currency       *string           `json:"currency,omitempty"`
	Requirements   []string          `json:"requirements,omitempty"`
	Benefits       []string          `json:"benefits,omitempty"`
	DescriptionNL  *string           `json:"description_nl,omitempty"`
	DescriptionEN  *string           `json:"description_en,omitempty"`
	RequirementsEN []string          `json:"requirements_en,omitempty"`
	BenefitsEN     []string          `json:"benefits_en,omitempty"`
	Application    *string           `json:"application,omitempty"`
	Features       map[string]string `json:"features,omitempty"`
	Contact        *Contact          `json:"contact,omitempty"`
	PostedAt       *string           `json:"posted_at,omitempty"`
	FetchStrategy  FetchStrategy     `json:"fetch_strategy,omitempty"`
	ExtractedAt    time.Time         `json:"extracted_at"`
}

// Clone returns a deep copy so later stages never mutate an earlier value.
func (r JobRecord) Clone() JobRecord {
	out := r
	out.Title = cloneString(r.Title)
	out.TitleEN = cloneString(r.TitleEN)
	out.Company = cloneString(r.Company)
	out.Location = cloneString(r.Location)
	out.SalaryMin = cloneFloat(r.SalaryMin)
	out.SalaryMax = cloneFloat(r.SalaryMax)
	out.Currency = cloneString(r.Currency)
	out.Requirements = cloneList(r.Requirements)
	out.Benefits = cloneList(r.Benefits)
	out.DescriptionNL = cloneString(r.DescriptionNL)
	out.DescriptionEN = cloneString(r.DescriptionEN)
	out.RequirementsEN = cloneList(r.RequirementsEN)
	out.BenefitsEN = cloneList(r.BenefitsEN)
	out.Application = cloneString(r.Application)
	out.Features = cloneMap(r.Features)
	out.Contact = r.Contact.clone()
	out.PostedAt = cloneString(r.PostedAt)
	return out
}

func String(s string) *string {
	return &s
}

func Float(f float64) *float64 {
	return &f
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneList(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
