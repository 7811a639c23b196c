package extract

import (
	"regexp"
	"strings"
)

var (
	inlineBullet  = regexp.MustCompile(`\s*[•·▪●◦]\s*`)
	leadingBullet = regexp.MustCompile(`^(?:[-*+–—•·▪●◦✓✔>]+|\d{1,2}[.)])\s*`)
)

// splitItems turns a bulleted or line-separated block into trimmed, non-empty
// items. The result is never nil so an empty section stays distinguishable
// from a missing one.
func splitItems(body string) []string {
	items := []string{}
	for _, line := range strings.Split(body, "\n") {
		for _, part := range inlineBullet.Split(line, -1) {
			item := strings.TrimSpace(leadingBullet.ReplaceAllString(strings.TrimSpace(part), ""))
			if item == "" {
				continue
			}
			items = append(items, item)
		}
	}
	return items
}
