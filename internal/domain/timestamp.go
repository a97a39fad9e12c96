package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Canonical token layouts. Hyphens in the time portion keep names legal on
// every filesystem the archive has lived on.
const (
	tokenLayout = "D2006-01-02T15-04-05"
	dateLayout  = "D2006-01-02"
)

var (
	tokenRe = regexp.MustCompile(`D[0-9]{4}-[0-9]{2}-[0-9]{2}T[0-9]{2}-[0-9]{2}-[0-9]{2}`)
	dateRe  = regexp.MustCompile(`D[0-9]{4}-[0-9]{2}-[0-9]{2}`)
)

// ExtractTimestamp parses the canonical DYYYY-MM-DDTHH-MM-SS token embedded
// in a name. Times are UTC.
func ExtractTimestamp(name string) (time.Time, error) {
	token := tokenRe.FindString(name)
	if token == "" {
		return time.Time{}, fmt.Errorf("no canonical timestamp in %q", name)
	}
	ts, err := time.ParseInLocation(tokenLayout, token, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp token %q: %w", token, err)
	}
	return ts, nil
}

// ExtractDay parses only the date portion of the canonical token, for names
// that identify a whole day rather than an instant.
func ExtractDay(name string) (time.Time, error) {
	token := dateRe.FindString(name)
	if token == "" {
		return time.Time{}, fmt.Errorf("no canonical date in %q", name)
	}
	ts, err := time.ParseInLocation(dateLayout, token, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date token %q: %w", token, err)
	}
	return ts, nil
}

// nameFormat rewrites one raw filename shape into canonical form. The year
// argument covers shapes that omit the year entirely.
type nameFormat struct {
	pattern *regexp.Regexp
	rewrite func(m []string, year string) (string, error)
}

// nameFormats is the dispatch table of known raw filename shapes, tried in
// order. First match wins.
var nameFormats = []nameFormat{
	{
		// 11020820.BHAR.ncdf → D1997-11-02T08-20-00.BHAR.ncdf (year supplied).
		pattern: regexp.MustCompile(`^([0-9]{2})([0-9]{2})([0-9]{2})([0-9]{2})\.`),
		rewrite: func(m []string, year string) (string, error) {
			if year == "" {
				return "", fmt.Errorf("format %q requires a year", m[0])
			}
			return tokenFor(year, m[1], m[2], m[3], m[4], "00")
		},
	},
	{
		// eurmmcrmerge.C1.c1.20240924.200822.nc → ...D2024-09-24T20-08-22.nc
		pattern: regexp.MustCompile(`([0-9]{4})([0-9]{2})([0-9]{2})\.([0-9]{2})([0-9]{2})([0-9]{2})`),
		rewrite: func(m []string, _ string) (string, error) {
			return tokenFor(m[1], m[2], m[3], m[4], m[5], m[6])
		},
	},
	{
		// 01sep1998.12:00-24:00. → D1998-09-01T12-00-00. (range end dropped)
		pattern: regexp.MustCompile(`^([0-9]{2})([a-z]{3})([0-9]{4})\.([0-9]{2}):([0-9]{2})-[0-9]{2}:[0-9]{2}\.`),
		rewrite: func(m []string, _ string) (string, error) {
			month, ok := monthAbbrev[m[2]]
			if !ok {
				return "", fmt.Errorf("unknown month abbreviation %q", m[2])
			}
			return tokenFor(m[3], month, m[1], m[4], m[5], "00")
		},
	},
}

var monthAbbrev = map[string]string{
	"jan": "01", "feb": "02", "mar": "03", "apr": "04",
	"may": "05", "jun": "06", "jul": "07", "aug": "08",
	"sep": "09", "oct": "10", "nov": "11", "dec": "12",
}

// tokenFor validates the parts as a real instant and formats the canonical token.
func tokenFor(year, month, day, hour, minute, second string) (string, error) {
	parts := []string{year, month, day, hour, minute, second}
	vals := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", fmt.Errorf("bad timestamp component %q: %w", p, err)
		}
		vals[i] = n
	}
	ts := time.Date(vals[0], time.Month(vals[1]), vals[2], vals[3], vals[4], vals[5], 0, time.UTC)
	if ts.Year() != vals[0] || int(ts.Month()) != vals[1] || ts.Day() != vals[2] {
		return "", fmt.Errorf("impossible date %s-%s-%s", year, month, day)
	}
	return ts.Format(tokenLayout), nil
}

// CanonicalName rewrites a raw instrument filename so it carries the canonical
// timestamp token. The year argument is used by shapes that omit it; pass ""
// otherwise. Unrecognized shapes are an error.
func CanonicalName(raw, year string) (string, error) {
	for _, f := range nameFormats {
		m := f.pattern.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		token, err := f.rewrite(m, year)
		if err != nil {
			return "", fmt.Errorf("canonicalize %q: %w", raw, err)
		}
		// Replace the matched span, preserving any separator it consumed.
		rest := strings.TrimPrefix(raw[strings.Index(raw, m[0]):], m[0])
		head := raw[:strings.Index(raw, m[0])]
		if strings.HasSuffix(m[0], ".") {
			token += "."
		}
		return head + token + rest, nil
	}
	return "", fmt.Errorf("no match found: %q", raw)
}
