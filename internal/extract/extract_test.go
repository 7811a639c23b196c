package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/job-extractor/internal/model"
	"github.com/baxromumarov/job-extractor/internal/segment"
)

func extractText(t *testing.T, text string) model.Fields {
	t.Helper()
	return New(nil).ExtractAll(segment.New().Segment(text))
}

func TestExtractAll_RequirementsAndSalary(t *testing.T) {
	f := extractText(t, "Requirements:\n- Python\n- SQL\nSalary: €50.000 - €65.000")

	assert.Equal(t, []string{"Python", "SQL"}, f.Requirements)
	require.NotNil(t, f.SalaryMin)
	require.NotNil(t, f.SalaryMax)
	require.NotNil(t, f.Currency)
	assert.Equal(t, 50000.0, *f.SalaryMin)
	assert.Equal(t, 65000.0, *f.SalaryMax)
	assert.Equal(t, "EUR", *f.Currency)
	assert.Nil(t, f.Benefits)
	assert.Nil(t, f.Company)
	assert.Empty(t, f.Description)
}

func TestExtractAll_NoHeadings(t *testing.T) {
	text := "Wij zoeken een Go developer voor ons team in Utrecht."
	f := extractText(t, text)

	assert.Nil(t, f.Company)
	assert.Nil(t, f.Location)
	assert.Nil(t, f.SalaryMin)
	assert.Nil(t, f.SalaryMax)
	assert.Nil(t, f.Currency)
	assert.Nil(t, f.Requirements)
	assert.Nil(t, f.Benefits)
	require.NotNil(t, Description(f))
	assert.Equal(t, text, *Description(f))
}

func TestExtract_Salary(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		min, max float64
		currency string
	}{
		{"single amount", "Salaris: € 4.500", 4500, 4500, "EUR"},
		{"reversed range", "Salary: €6.000 - €4.000", 4000, 6000, "EUR"},
		{"k suffix", "Salary: 60k - 75k EUR", 60000, 75000, "EUR"},
		{"dutch decimals", "Salaris: € 3.500,- tot € 4.200,00 per maand", 3500, 4200, "EUR"},
		{"hours are noise", "Salaris: 3200 - 4000 bij 40 uur", 3200, 4000, ""},
		{"tagged range upper bound", "Salary: € 3.000 - 4.000 bruto, 40 uur", 3000, 4000, "EUR"},
		{"dollars", "Compensation: $120,000 - $150,000", 120000, 150000, "USD"},
		{"pounds", "Salary: £45,000", 45000, 45000, "GBP"},
	}
	e := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sections := segment.New().Segment(tt.body)
			require.Len(t, sections, 1)
			require.Equal(t, model.LabelSalary, sections[0].Label)

			f := e.Extract(sections[0])
			require.NotNil(t, f.SalaryMin)
			require.NotNil(t, f.SalaryMax)
			assert.Equal(t, tt.min, *f.SalaryMin)
			assert.Equal(t, tt.max, *f.SalaryMax)
			if tt.currency == "" {
				assert.Nil(t, f.Currency)
			} else {
				require.NotNil(t, f.Currency)
				assert.Equal(t, tt.currency, *f.Currency)
			}
		})
	}
}

func TestExtract_SalaryWithoutNumbers(t *testing.T) {
	f := extractText(t, "Salaris: marktconform")

	assert.Nil(t, f.SalaryMin)
	assert.Nil(t, f.SalaryMax)
	assert.Nil(t, f.Currency)
}

func TestExtract_EmptyRequirementsIsEmptyList(t *testing.T) {
	f := extractText(t, "Requirements:\n\nSalary: € 3.000")

	require.NotNil(t, f.Requirements)
	assert.Empty(t, f.Requirements)
}

func TestExtract_ListBullets(t *testing.T) {
	f := extractText(t, "Wat bieden wij\n• Laptop • Telefoon\n1. Pensioen\n2) Bonus\n– Fiets\n▪ Thuiswerken\n")

	assert.Equal(t, []string{"Laptop", "Telefoon", "Pensioen", "Bonus", "Fiets", "Thuiswerken"}, f.Benefits)
}

func TestExtract_Company(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		company  string
		location string
	}{
		{"city on second line", "Over ons\nAcme Software BV\nWe bouwen SaaS.\nAmsterdam\n", "Acme Software BV", "Amsterdam"},
		{"postal code", "Bedrijf:\nBitBakkers\nKerkstraat 1, 3511 AB Utrecht\n", "BitBakkers", "Kerkstraat 1, 3511 AB Utrecht"},
		{"dot separated header", "Company: Datalab · Eindhoven · 3 dagen geleden", "Datalab", "Eindhoven"},
		{"location prefix", "Werkgever\nCloudNine\nStandplaats: Zwolle\n", "CloudNine", "Zwolle"},
		{"no location", "About us\nStartup Co\nWe love code.\n", "Startup Co", ""},
	}
	e := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := e.ExtractAll(segment.New().Segment(tt.text))
			require.NotNil(t, f.Company)
			assert.Equal(t, tt.company, *f.Company)
			if tt.location == "" {
				assert.Nil(t, f.Location)
			} else {
				require.NotNil(t, f.Location)
				assert.Equal(t, tt.location, *f.Location)
			}
		})
	}
}

func TestExtract_CityNeedsWordBoundary(t *testing.T) {
	locs := NewLocations("Ede")
	assert.True(t, locs.Matches("Kantoor in Ede"))
	assert.False(t, locs.Matches("Gedeeltelijk remote"))
	assert.True(t, locs.Matches("1234 AB"))
}

func TestParseLocations(t *testing.T) {
	locs, err := ParseLocations([]byte("cities:\n  - Gouda\n  - ''\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, locs.Len())
	assert.True(t, locs.Matches("GOUDA"))

	_, err = ParseLocations([]byte("cities: [unterminated"))
	assert.Error(t, err)

	assert.Greater(t, DefaultLocations().Len(), 50)
}

func TestExtract_DescriptionPiecesJoined(t *testing.T) {
	f := extractText(t, "Intro over de rol.\nFunctieomschrijving:\nJe bouwt API's.\n\nRequirements\n- Go\n")

	d := Description(f)
	require.NotNil(t, d)
	assert.Equal(t, "Intro over de rol.\n\nJe bouwt API's.", *d)
	assert.Equal(t, []string{"Go"}, f.Requirements)
}

func TestExtract_WhitespaceSectionsContributeNothing(t *testing.T) {
	f := New(nil).Extract(model.Section{Label: model.LabelOther, RawText: " \n\t "})
	assert.Nil(t, f.Description)
	assert.Nil(t, Description(f))
}

func TestExtract_Idempotent(t *testing.T) {
	text := "Over ons\nAcme\nRotterdam\nRequirements\n- Go\n- Kubernetes\nVoordelen\n- Fiets\nSalaris: € 4.000 - € 5.000\n"
	sections := segment.New().Segment(text)
	e := New(nil)

	first := e.ExtractAll(sections)
	second := e.ExtractAll(sections)

	assert.Equal(t, first, second)
}

func TestExtract_MalformedInputDoesNotPanic(t *testing.T) {
	inputs := []string{
		"Salary:",
		"Salaris: €",
		"Salary: 1.2.3.4.5,,,--k",
		"Company:",
		"Requirements:\n-\n*\n•",
		"\x00\xff\xfe",
	}
	e := New(nil)
	for _, in := range inputs {
		assert.NotPanics(t, func() { e.ExtractAll(segment.New().Segment(in)) }, "input %q", in)
	}
}

func TestMergeFirstScalarWins(t *testing.T) {
	a := model.Fields{Company: model.String("A"), Requirements: []string{"x"}}
	b := model.Fields{Company: model.String("B"), Location: model.String("Delft"), Requirements: []string{"y"}}

	got := a.Merge(b)

	assert.Equal(t, "A", *got.Company)
	assert.Equal(t, "Delft", *got.Location)
	assert.Equal(t, []string{"x", "y"}, got.Requirements)
}

func TestExtract_CityBoundaryWithMultibyteNeighbours(t *testing.T) {
	locs := NewLocations("Ede", "Den Haag")

	assert.True(t, locs.Matches("Standplaats: Ede·centrum"))
	assert.True(t, locs.Matches("«Den Haag»"))
	assert.False(t, locs.Matches("Edeë"))
	assert.False(t, locs.Matches("ÉEde"))
	assert.False(t, locs.Matches("Den Haagsé"))
}

func TestExtract_ApplicationSection(t *testing.T) {
	f := extractText(t, "Functie-eisen\n- Go\nSolliciteren:\nStuur je cv en motivatie naar jobs@acme.nl.\n")

	assert.Equal(t, []string{"Go"}, f.Requirements)
	require.NotNil(t, Application(f))
	assert.Equal(t, "Stuur je cv en motivatie naar jobs@acme.nl.", *Application(f))
	assert.Nil(t, Description(f))
}
