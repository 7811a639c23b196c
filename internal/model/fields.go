package model

// Fields is what the extractor pulls out of one or more sections. Nil means
// not found. A nil list means no matching section was seen; a non-nil empty
// list means the section was there but carried no items.
type Fields struct {
	Company      *string
	Location     *string
	SalaryMin    *float64
	SalaryMax    *float64
	Currency     *string
	Requirements []string
	Benefits     []string
	Description  []string
	Application  []string
}

// Merge folds other into f. Scalars keep the first value seen, the salary
// triple moves as one unit, and lists concatenate.
func (f Fields) Merge(other Fields) Fields {
	out := f
	if out.Company == nil {
		out.Company = other.Company
	}
	if out.Location == nil {
		out.Location = other.Location
	}
	if out.SalaryMin == nil && out.SalaryMax == nil && out.Currency == nil {
		out.SalaryMin = other.SalaryMin
		out.SalaryMax = other.SalaryMax
		out.Currency = other.Currency
	}
	out.Requirements = appendList(out.Requirements, other.Requirements)
	out.Benefits = appendList(out.Benefits, other.Benefits)
	out.Description = appendList(out.Description, other.Description)
	out.Application = appendList(out.Application, other.Application)
	return out
}

func appendList(a, b []string) []string {
	if a == nil && b == nil {
		return nil
	}
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
