package segment

import (
	"sort"
	"strings"

	"github.com/baxromumarov/job-extractor/internal/model"
)

type Segmenter struct {
	rules []Rule
}

// New returns a Segmenter over the given rules, or DefaultRules when none are given.
func New(rules ...Rule) *Segmenter {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Segmenter{rules: rules}
}

type marker struct {
	label    model.Label
	start    int
	text     string
	priority int
}

// Segment splits text into contiguous labeled sections. It never fails: text
// without any recognizable heading becomes one OTHER section, and text before
// the first heading is kept as a leading OTHER section.
func (s *Segmenter) Segment(text string) []model.Section {
	if text == "" {
		return nil
	}

	markers := s.findMarkers(text)
	if len(markers) == 0 {
		return []model.Section{{Label: model.LabelOther, RawText: text, Start: 0, End: len(text)}}
	}

	var sections []model.Section
	if markers[0].start > 0 {
		sections = append(sections, model.Section{
			Label:   model.LabelOther,
			RawText: text[:markers[0].start],
			Start:   0,
			End:     markers[0].start,
		})
	}
	for i, m := range markers {
		end := len(text)
		if i+1 < len(markers) {
			end = markers[i+1].start
		}
		sections = append(sections, model.Section{
			Label:   m.label,
			RawText: text[m.start:end],
			Marker:  m.text,
			Start:   m.start,
			End:     end,
		})
	}
	return sections
}

func (s *Segmenter) findMarkers(text string) []marker {
	var found []marker
	for prio, rule := range s.rules {
		for _, loc := range rule.pattern.FindAllStringSubmatchIndex(text, -1) {
			// Group 1 is the heading itself; the section starts at the line start
			// so leading indentation stays with the section it introduces.
			found = append(found, marker{
				label:    rule.Label,
				start:    loc[0],
				text:     strings.TrimRight(text[loc[2]:loc[3]], " \t\r"),
				priority: prio,
			})
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].start != found[j].start {
			return found[i].start < found[j].start
		}
		return found[i].priority < found[j].priority
	})

	out := found[:0]
	for _, m := range found {
		if len(out) > 0 && out[len(out)-1].start == m.start {
			continue
		}
		out = append(out, m)
	}
	return out
}
