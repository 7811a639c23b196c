package extract

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

//go:embed cities.yaml
var defaultCitiesYAML []byte

var postalCodePattern = regexp.MustCompile(`\b[1-9][0-9]{3}\s?[A-Z]{2}\b`)

// Locations is the lookup table used to recognise a location line in a
// company block.
type Locations struct {
	cities []string
}

type locationsFile struct {
	Cities []string `yaml:"cities"`
}

// DefaultLocations returns the embedded table of Dutch cities.
func DefaultLocations() *Locations {
	l, err := ParseLocations(defaultCitiesYAML)
	if err != nil {
		panic(fmt.Sprintf("extract: embedded cities.yaml: %v", err))
	}
	return l
}

// LoadLocations reads a YAML table with a top-level "cities" list.
func LoadLocations(path string) (*Locations, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locations file: %w", err)
	}
	return ParseLocations(b)
}

func ParseLocations(b []byte) (*Locations, error) {
	var f locationsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse locations yaml: %w", err)
	}
	return NewLocations(f.Cities...), nil
}

func NewLocations(cities ...string) *Locations {
	l := &Locations{}
	fold := cases.Fold()
	for _, c := range cities {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		l.cities = append(l.cities, fold.String(c))
	}
	return l
}

func (l *Locations) Len() int {
	if l == nil {
		return 0
	}
	return len(l.cities)
}

// Matches reports whether the line names a known city or carries a Dutch
// postal code.
func (l *Locations) Matches(line string) bool {
	if postalCodePattern.MatchString(line) {
		return true
	}
	if l == nil || len(l.cities) == 0 {
		return false
	}
	folded := cases.Fold().String(line)
	for _, city := range l.cities {
		if containsWord(folded, city) {
			return true
		}
	}
	return false
}

func containsWord(haystack, word string) bool {
	for from := 0; from <= len(haystack); {
		idx := strings.Index(haystack[from:], word)
		if idx < 0 {
			return false
		}
		start := from + idx
		end := start + len(word)
		if boundaryBefore(haystack, start) && boundaryAfter(haystack, end) {
			return true
		}
		from = start + 1
	}
	return false
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
