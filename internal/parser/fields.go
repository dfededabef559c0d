package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateFormats are tried in order; the first successful parse wins.
var dateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
}

// ParseDate parses a raw date string against the accepted formats. Empty or
// unparseable input returns ok=false rather than a zero date, keeping "no
// date" distinct from any real value.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var amountCleaner = strings.NewReplacer(
	"AED", "",
	"aed", "",
	"د.إ", "",
	"$", "",
	"€", "",
	",", "",
	" ", "",
)

// ParseAmount strips currency symbols and thousands separators before
// parsing. Empty or unparseable input returns ok=false; the zero value is
// never used to signal absence.
func ParseAmount(raw string) (float64, bool) {
	cleaned := amountCleaner.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

var roomCountPattern = regexp.MustCompile(`^\s*(\d+)`)

// ParseRoomCount extracts the leading integer from strings like "2BR" or
// "3 Bedrooms". Non-matching input returns nil: absence, not zero.
func ParseRoomCount(raw string) *int {
	match := roomCountPattern.FindStringSubmatch(raw)
	if match == nil {
		return nil
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return nil
	}
	return &n
}
