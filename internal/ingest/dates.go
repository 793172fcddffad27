package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var relativeDateRe = regexp.MustCompile(`^(\d+)\s+(hour|day|week|month)s?\s+ago$`)

// ParsePublicationDate turns the upstream publication date into a
// timestamp. Accepts RFC3339, plain dates ("2026-08-14"), and the
// relative form some collectors emit ("3 days ago", resolved against
// now). Anything else yields nil; an unparseable date never fails the
// record.
func ParsePublicationDate(text string, now time.Time) *time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, text); err == nil {
			t = t.UTC()
			return &t
		}
	}

	m := relativeDateRe.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return nil
	}
	amount, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}

	var d time.Duration
	switch m[2] {
	case "hour":
		d = time.Duration(amount) * time.Hour
	case "day":
		d = time.Duration(amount) * 24 * time.Hour
	case "week":
		d = time.Duration(amount) * 7 * 24 * time.Hour
	case "month":
		// Months approximate to 30 days, matching upstream precision.
		d = time.Duration(amount) * 30 * 24 * time.Hour
	}

	t := now.Add(-d).UTC()
	return &t
}
