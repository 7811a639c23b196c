package extract

import (
	"regexp"
	"strings"
)

var (
	infoSeparator  = regexp.MustCompile(`\s*[·|•]\s*`)
	locationPrefix = regexp.MustCompile(`(?i)^(?:standplaats|locatie|location|werklocatie|plaats)\s*:\s*`)
)

type companyInfo struct {
	name     string
	location string
}

// parseCompany reads a company block: the first non-empty line names the
// employer, the first later line that looks like a place becomes the location.
// Single-line "Acme · Amsterdam · 3 dagen geleden" headers are split first.
func parseCompany(body string, locs *Locations) companyInfo {
	var lines []string
	for _, line := range strings.Split(body, "\n") {
		for _, part := range infoSeparator.Split(line, -1) {
			part = strings.TrimSpace(leadingBullet.ReplaceAllString(strings.TrimSpace(part), ""))
			if part != "" {
				lines = append(lines, part)
			}
		}
	}
	if len(lines) == 0 {
		return companyInfo{}
	}

	info := companyInfo{name: lines[0]}
	for _, line := range lines[1:] {
		if locationPrefix.MatchString(line) {
			if loc := strings.TrimSpace(locationPrefix.ReplaceAllString(line, "")); loc != "" {
				info.location = loc
				break
			}
			continue
		}
		if locs.Matches(line) {
			info.location = line
			break
		}
	}
	return info
}
