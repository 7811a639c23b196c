package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// amountPattern accepts grouped thousands ("50.000", "65,000", "4 500"), an
// optional decimal tail (",-", ",00", ".5") and a "k" multiplier.
var amountPattern = regexp.MustCompile(`(\d{1,3}(?:[.,\x{00A0}\x{202F} ]\d{3})+|\d+)(?:[.,](\d{1,2}|-))?(?:\s?([kK])\b)?`)

var currencyPattern = regexp.MustCompile(`(?i)(€|\beur(?:o|os)?\b|\$|\busd\b|£|\bgbp\b)`)

var rangeGlue = regexp.MustCompile(`(?i)^\s*(?:-|–|—|tot|to|t/m|tot en met)\s*(?:€|eur|euro)?\s*$`)

type amount struct {
	value  float64
	start  int
	end    int
	tagged bool
}

type salary struct {
	min      float64
	max      float64
	currency string
	found    bool
}

func parseSalary(text string) salary {
	amounts := findAmounts(text)
	if len(amounts) == 0 {
		return salary{}
	}

	var picked []amount
	for _, a := range amounts {
		if a.tagged {
			picked = append(picked, a)
		}
	}
	if len(picked) == 0 {
		picked = amounts
	}
	picked = dropNoise(picked)

	out := salary{min: picked[0].value, max: picked[0].value, found: true}
	if len(picked) > 1 {
		out.max = picked[1].value
		if out.max < out.min {
			out.min, out.max = out.max, out.min
		}
	}
	out.currency = detectCurrency(text)
	return out
}

func findAmounts(text string) []amount {
	var out []amount
	for _, loc := range amountPattern.FindAllStringSubmatchIndex(text, -1) {
		whole := text[loc[2]:loc[3]]
		frac := ""
		if loc[4] >= 0 {
			frac = text[loc[4]:loc[5]]
		}
		kilo := loc[6] >= 0

		v, ok := parseAmount(whole, frac)
		if !ok {
			continue
		}
		if kilo {
			v *= 1000
		}
		out = append(out, amount{
			value:  v,
			start:  loc[0],
			end:    loc[1],
			tagged: hasCurrencyNear(text, loc[0], loc[1]),
		})
	}

	// "€ 3.000 - 4.000" and "60k - 75k EUR": both ends of a range share the
	// currency written on either one of them.
	for i := 1; i < len(out); i++ {
		if out[i-1].tagged == out[i].tagged || !rangeGlue.MatchString(text[out[i-1].end:out[i].start]) {
			continue
		}
		out[i-1].tagged = true
		out[i].tagged = true
	}
	return out
}

func parseAmount(whole, frac string) (float64, bool) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, whole)
	if digits == "" {
		return 0, false
	}
	if frac != "" && frac != "-" {
		digits += "." + frac
	}
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// dropNoise removes small bare numbers ("40 uur", "2 dagen") as long as at
// least one plausible amount remains.
func dropNoise(in []amount) []amount {
	var kept []amount
	for _, a := range in {
		if a.value >= 100 {
			kept = append(kept, a)
		}
	}
	if len(kept) == 0 {
		return in
	}
	return kept
}

func hasCurrencyNear(text string, start, end int) bool {
	before := strings.ToLower(strings.TrimRight(text[:start], " \t\u00a0"))
	for _, sym := range []string{"€", "eur", "euro", "$", "usd", "£", "gbp"} {
		if strings.HasSuffix(before, sym) {
			return true
		}
	}
	after := strings.ToLower(strings.TrimLeft(text[end:], " \t\u00a0"))
	for _, sym := range []string{"€", "eur", "$", "usd", "£", "gbp"} {
		if strings.HasPrefix(after, sym) {
			return true
		}
	}
	return false
}

func detectCurrency(text string) string {
	m := currencyPattern.FindString(text)
	switch strings.ToLower(m) {
	case "":
		return ""
	case "$", "usd":
		return "USD"
	case "£", "gbp":
		return "GBP"
	default:
		return "EUR"
	}
}
