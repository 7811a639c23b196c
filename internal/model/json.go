package model

import "encoding/json"

// MarshalJSON keeps found-but-empty lists as [] while omitting lists whose
// section never appeared.
func (r JobRecord) MarshalJSON() ([]byte, error) {
	type plain JobRecord
	aux := struct {
		plain
		Requirements *[]string `json:"requirements,omitempty"`
		Benefits     *[]string `json:"benefits,omitempty"`
	}{plain: plain(r)}
	if r.Requirements != nil {
		aux.Requirements = &r.Requirements
	}
	if r.Benefits != nil {
		aux.Benefits = &r.Benefits
	}
	return json.Marshal(aux)
}

type outcomeJSON struct {
	URL      string     `json:"url"`
	State    State      `json:"state"`
	Record   *JobRecord `json:"record,omitempty"`
	Warnings []string   `json:"warnings,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// MarshalJSON writes the JSON Lines shape: {"url","state","record"?,
// "warnings"?,"error"?}.
func (o Outcome) MarshalJSON() ([]byte, error) {
	aux := outcomeJSON{URL: o.URL, State: o.State, Record: o.Record, Warnings: o.Warnings}
	if o.Err != nil {
		aux.Error = o.Err.Error()
	}
	return json.Marshal(aux)
}
