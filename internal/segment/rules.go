package segment

import (
	"regexp"
	"strings"

	"github.com/baxromumarov/job-extractor/internal/model"
)

// Rule detects the start of one kind of section. Rules are evaluated as an
// ordered list; on equal offsets the earlier rule wins.
type Rule struct {
	Label   model.Label
	pattern *regexp.Regexp
}

// NewRule builds a heading rule from keyword phrases. A phrase matches only at
// the start of a line, optionally after whitespace or a bullet. Text may follow
// on the same line only after a colon or question mark ("Salaris: € 4.000");
// without one the phrase must be the whole line, so a list item such as
// "- Company car" never opens a section.
func NewRule(label model.Label, phrases ...string) Rule {
	quoted := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		q := strings.ReplaceAll(regexp.QuoteMeta(p), " ", `[ \t]+`)
		quoted = append(quoted, q)
	}
	expr := `(?im)^[ \t]*(?:[-*•·▪][ \t]*)?((?:` + strings.Join(quoted, "|") + `)(?:[ \t]*[:?]|[ \t\r]*$))`
	return Rule{Label: label, pattern: regexp.MustCompile(expr)}
}

var (
	requirementsRule = NewRule(model.LabelRequirements,
		"Requirements", "Job requirements", "Vereisten", "Functie-eisen", "Functieeisen",
		"Eisen", "Wat vragen wij", "Wat vragen we", "Wat we vragen", "Wie ben jij",
		"Jouw profiel", "Your profile", "What do we ask", "What we ask",
		"Competenties", "Competencies",
	)
	benefitsRule = NewRule(model.LabelBenefits,
		"Benefits", "Voordelen", "Wat bieden wij", "Wat bieden we", "Wat wij bieden",
		"What we offer", "What do we offer", "Wat krijg je ervoor terug", "Wat krijg je",
		"Arbeidsvoorwaarden", "Employment conditions",
	)
	salaryRule = NewRule(model.LabelSalary,
		"Salarisindicatie", "Salaris", "Salary", "Beloning", "Compensation",
	)
	companyRule = NewRule(model.LabelCompany,
		"Over het bedrijf", "Over ons", "Bedrijf", "Werkgever", "Company",
		"About the company", "About us", "Wie zijn wij", "Who we are",
	)
	descriptionRule = NewRule(model.LabelDescription,
		"Functieomschrijving", "Job description", "Omschrijving", "Beschrijving",
		"Description", "Wat ga je doen", "What will you do", "About the role",
		"Over de functie", "De functie", "The role",
	)
	applicationRule = NewRule(model.LabelApplication,
		"Solliciteren", "Sollicitatieprocedure", "Sollicitatie", "How to apply",
		"Application process", "Application", "Apply", "Bijzonderheden", "Interesse",
	)
)

// DefaultRules returns the bilingual Dutch/English heading rules in priority order.
func DefaultRules() []Rule {
	return []Rule{requirementsRule, benefitsRule, salaryRule, companyRule, descriptionRule, applicationRule}
}
