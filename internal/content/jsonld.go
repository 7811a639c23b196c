package content

import (
	"encoding/json"
	"strings"
)

type jobPosting struct {
	Title      string
	DatePosted string
	Company    string
	Location   string
}

// findJobPosting looks for a schema.org JobPosting in a JSON-LD payload,
// including payloads that wrap it in an array or an @graph.
func findJobPosting(raw string) (jobPosting, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return jobPosting{}, false
	}
	var payload any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return jobPosting{}, false
	}
	return walkJobPosting(payload)
}

func walkJobPosting(payload any) (jobPosting, bool) {
	switch t := payload.(type) {
	case map[string]any:
		if isJobPostingType(t["@type"]) {
			return jobPosting{
				Title:      stringField(t, "title"),
				DatePosted: stringField(t, "datePosted"),
				Company:    orgName(t["hiringOrganization"]),
				Location:   placeName(t["jobLocation"]),
			}, true
		}
		if graph, ok := t["@graph"].([]any); ok {
			for _, item := range graph {
				if jp, ok := walkJobPosting(item); ok {
					return jp, true
				}
			}
		}
	case []any:
		for _, item := range t {
			if jp, ok := walkJobPosting(item); ok {
				return jp, true
			}
		}
	}
	return jobPosting{}, false
}

func isJobPostingType(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "JobPosting"
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "JobPosting" {
				return true
			}
		}
	}
	return false
}

func orgName(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		return stringField(t, "name")
	}
	return ""
}

// placeName prefers the locality of a Place's address, then its name. The
// first usable entry of a list wins.
func placeName(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		for _, item := range t {
			if loc := placeName(item); loc != "" {
				return loc
			}
		}
	case map[string]any:
		if addr, ok := t["address"].(map[string]any); ok {
			if city := stringField(addr, "addressLocality"); city != "" {
				return city
			}
			if region := stringField(addr, "addressRegion"); region != "" {
				return region
			}
		}
		return stringField(t, "name")
	}
	return ""
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}
