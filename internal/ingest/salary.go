package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

// Salary text never fails a record: anything unparseable degrades to
// absent values.

var amountRe = regexp.MustCompile(`[0-9][0-9,.]*[kK]?`)

const hoursPerYear = 2080

// ParseSalary extracts a yearly (min, max) pair from free-text salary
// like "$90,000 - $120,000", "$80K - $120K a year", or "$30 - $45 an
// hour". Currency symbols and thousands separators are stripped; the
// text splits on the first hyphen; a trailing k multiplies by 1000;
// hourly rates convert to yearly at 2080 hours. A single bound yields
// (min, nil); unparseable text yields (nil, nil).
func ParseSalary(text string) (*float64, *float64) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	lower := strings.ToLower(text)
	hourly := strings.Contains(lower, "hour") || strings.Contains(lower, "/hr")

	minPart, maxPart, hasMax := strings.Cut(text, "-")

	minVal, ok := parseAmount(minPart)
	if !ok {
		return nil, nil
	}

	var maxVal float64
	if hasMax {
		maxVal, ok = parseAmount(maxPart)
		if !ok {
			return nil, nil
		}
	}

	if hourly {
		minVal *= hoursPerYear
		maxVal *= hoursPerYear
	}

	if !hasMax {
		return &minVal, nil
	}
	return &minVal, &maxVal
}

// parseAmount pulls the first dollar amount out of one side of a salary
// range, tolerating surrounding words ("$120K a year").
func parseAmount(s string) (float64, bool) {
	match := amountRe.FindString(s)
	if match == "" {
		return 0, false
	}

	mult := 1.0
	if strings.HasSuffix(match, "k") || strings.HasSuffix(match, "K") {
		mult = 1000
		match = match[:len(match)-1]
	}
	match = strings.ReplaceAll(match, ",", "")

	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v * mult, true
}
