package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobRecordJSON_EmptyVersusAbsentLists(t *testing.T) {
	t.Parallel()

	rec := JobRecord{
		ID:           "1",
		URL:          "https://example.nl/vacature/1",
		Requirements: []string{},
		ExtractedAt:  time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, []any{}, got["requirements"])
	assert.NotContains(t, got, "benefits")
	assert.NotContains(t, got, "company")
	assert.NotContains(t, got, "salary_min")
	assert.Equal(t, "2024-05-01T00:00:00Z", got["extracted_at"])
}

func TestJobRecordJSON_Populated(t *testing.T) {
	t.Parallel()

	rec := JobRecord{
		ID:            "2",
		URL:           "u",
		Company:       String("Acme"),
		SalaryMin:     Float(50000),
		SalaryMax:     Float(65000),
		Currency:      String("EUR"),
		Benefits:      []string{"Laptop"},
		FetchStrategy: StrategyHTTP,
	}
	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	s := string(raw)
	assert.Contains(t, s, `"company":"Acme"`)
	assert.Contains(t, s, `"salary_min":50000`)
	assert.Contains(t, s, `"benefits":["Laptop"]`)
	assert.Contains(t, s, `"fetch_strategy":"HTTP"`)
	assert.NotContains(t, s, `"requirements"`)
}

func TestClone_IsDeep(t *testing.T) {
	t.Parallel()

	orig := JobRecord{
		Company:      String("Acme"),
		SalaryMin:    Float(1),
		Requirements: []string{"Go"},
		Benefits:     []string{},
	}
	cp := orig.Clone()
	*cp.Company = "Other"
	*cp.SalaryMin = 2
	cp.Requirements[0] = "Rust"

	assert.Equal(t, "Acme", *orig.Company)
	assert.Equal(t, 1.0, *orig.SalaryMin)
	assert.Equal(t, "Go", orig.Requirements[0])
	assert.NotNil(t, cp.Benefits)
	assert.Nil(t, cp.RequirementsEN)
}

func TestClone_CopiesFeaturesAndContact(t *testing.T) {
	t.Parallel()

	orig := JobRecord{
		TitleEN:  String("Developer"),
		Features: map[string]string{"Uren": "40"},
		Contact:  &Contact{Address: String("Kerkstraat 1")},
	}
	cp := orig.Clone()
	*cp.TitleEN = "Other"
	cp.Features["Uren"] = "32"
	*cp.Contact.Address = "Elders"

	assert.Equal(t, "Developer", *orig.TitleEN)
	assert.Equal(t, "40", orig.Features["Uren"])
	assert.Equal(t, "Kerkstraat 1", *orig.Contact.Address)
	assert.Nil(t, cp.Contact.Details)
}

func TestStateTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to State
		ok       bool
	}{
		{StatePending, StateFetched, true},
		{StatePending, StateFailed, true},
		{StateFetched, StateSegmented, true},
		{StateFetched, StateFailed, true},
		{StateSegmented, StateExtracted, true},
		{StateExtracted, StateTranslated, true},
		{StateTranslated, StateDone, true},
		{StateSegmented, StateFailed, false},
		{StateExtracted, StateFailed, false},
		{StateTranslated, StateFailed, false},
		{StatePending, StateDone, false},
		{StateDone, StatePending, false},
		{StateFailed, StateFetched, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
	assert.True(t, StateDone.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateTranslated.Terminal())
}

func TestOutcomeJSON(t *testing.T) {
	t.Parallel()

	failed := Outcome{URL: "https://x.nl", State: StateFailed, Err: errors.New("retrieval failed: http 404")}
	raw, err := json.Marshal(failed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"url":"https://x.nl","state":"FAILED","error":"retrieval failed: http 404"}`, string(raw))

	done := Outcome{
		URL:      "https://x.nl",
		State:    StateDone,
		Record:   &JobRecord{ID: "1", URL: "https://x.nl"},
		Warnings: []string{"translation failed (auth): bad key"},
	}
	raw, err = json.Marshal(done)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "DONE", got["state"])
	assert.NotContains(t, got, "error")
	assert.Equal(t, []any{"translation failed (auth): bad key"}, got["warnings"])
	rec, ok := got["record"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "1", rec["id"])
}

func TestFieldsMerge(t *testing.T) {
	t.Parallel()

	a := Fields{Company: String("First"), Requirements: []string{"Go"}}
	b := Fields{
		Company:      String("Second"),
		Location:     String("Utrecht"),
		SalaryMin:    Float(3000),
		SalaryMax:    Float(4000),
		Requirements: []string{"SQL"},
		Benefits:     []string{},
	}
	got := a.Merge(b)

	assert.Equal(t, "First", *got.Company)
	assert.Equal(t, "Utrecht", *got.Location)
	assert.Equal(t, 3000.0, *got.SalaryMin)
	assert.Nil(t, got.Currency)
	assert.Equal(t, []string{"Go", "SQL"}, got.Requirements)
	assert.NotNil(t, got.Benefits)
	assert.Empty(t, got.Benefits)
	assert.Nil(t, got.Description)
}
