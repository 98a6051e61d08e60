package query

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Month references are accepted as YYYY-MM, MM-YYYY, or a month name or
// 3-letter abbreviation followed by a year. Everything normalizes to
// YYYY-MM.
var (
	isoMonthRe   = regexp.MustCompile(`\b(\d{4})-(\d{2})\b`)
	flipMonthRe  = regexp.MustCompile(`\b(\d{2})-(\d{4})\b`)
	namedMonthRe = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)\s+(\d{4})\b`)
	fullDateRe   = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
)

var monthNumbers = map[string]string{
	"january": "01", "jan": "01",
	"february": "02", "feb": "02",
	"march": "03", "mar": "03",
	"april": "04", "apr": "04",
	"may":  "05",
	"june": "06", "jun": "06",
	"july": "07", "jul": "07",
	"august": "08", "aug": "08",
	"september": "09", "sept": "09", "sep": "09",
	"october": "10", "oct": "10",
	"november": "11", "nov": "11",
	"december": "12", "dec": "12",
}

// ExtractMonths returns every distinct month referenced in the question,
// normalized to YYYY-MM, in the order they first appear in the text.
func ExtractMonths(question string) []string {
	q := strings.ToLower(question)

	type hit struct {
		pos   int
		month string
	}
	var hits []hit

	for _, m := range isoMonthRe.FindAllStringSubmatchIndex(q, -1) {
		hits = append(hits, hit{pos: m[0], month: q[m[2]:m[3]] + "-" + q[m[4]:m[5]]})
	}
	for _, m := range flipMonthRe.FindAllStringSubmatchIndex(q, -1) {
		hits = append(hits, hit{pos: m[0], month: q[m[4]:m[5]] + "-" + q[m[2]:m[3]]})
	}
	for _, m := range namedMonthRe.FindAllStringSubmatchIndex(q, -1) {
		name := q[m[2]:m[3]]
		year := q[m[4]:m[5]]
		hits = append(hits, hit{pos: m[0], month: fmt.Sprintf("%s-%s", year, monthNumbers[name])})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	var months []string
	seen := make(map[string]bool)
	for _, h := range hits {
		if !seen[h.month] {
			seen[h.month] = true
			months = append(months, h.month)
		}
	}
	return months
}

// ExtractDate returns the first full YYYY-MM-DD date in the question, or
// an empty string when none is present.
func ExtractDate(question string) string {
	return fullDateRe.FindString(question)
}
