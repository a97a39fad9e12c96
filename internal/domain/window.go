package domain

import (
	"sort"
	"time"
)

// SelectWindow returns the canonical names whose embedded timestamps fall on
// the target day, in timestamp order.
//
// A day's data can begin inside the previous file: when the first strictly
// in-window entry is reached and nothing has been selected yet, the
// immediately preceding out-of-window entry is carried over so its trailing
// samples are not lost. Entries timestamped exactly at day start are all
// included without deduplication; an entry timestamped at or past day end is
// never included (day end belongs to the next day). The scan assumes names
// are sorted ascending and exits early at the first timestamp past the
// window.
func SelectWindow(day time.Time, names []string) ([]string, error) {
	stamps := make([]time.Time, len(names))
	for i, name := range names {
		ts, err := ExtractTimestamp(name)
		if err != nil {
			return nil, err
		}
		stamps[i] = ts
	}
	selected := selectDayIndices(day, stamps)
	results := make([]string, 0, len(selected))
	for _, i := range selected {
		results = append(results, names[i])
	}
	// Canonical names sort lexically into chronological order.
	sort.Strings(results)
	return results, nil
}

// SelectWindowRecords applies the same day-window policy to hydrated records,
// using each record's epoch plus first offset as its timestamp.
func SelectWindowRecords(day time.Time, records []InstrumentRecord) ([]InstrumentRecord, error) {
	stamps := make([]time.Time, len(records))
	for i, rec := range records {
		ts, err := rec.Timestamp()
		if err != nil {
			return nil, err
		}
		stamps[i] = ts
	}
	selected := selectDayIndices(day, stamps)
	results := make([]InstrumentRecord, 0, len(selected))
	for _, i := range selected {
		results = append(results, records[i])
	}
	sort.SliceStable(results, func(a, b int) bool {
		ta, _ := results[a].Timestamp()
		tb, _ := results[b].Timestamp()
		return ta.Before(tb)
	})
	return results, nil
}

// selectDayIndices implements the window policy over raw timestamps, returning
// indices into the input in scan order.
func selectDayIndices(day time.Time, stamps []time.Time) []int {
	start := DayStart(day)
	end := start.Add(24 * time.Hour)

	var results []int
	previous := -1
	for i, ts := range stamps {
		switch {
		case ts.Equal(start):
			results = append(results, i)
		case ts.After(start) && ts.Before(end):
			if len(results) == 0 && previous >= 0 {
				results = append(results, previous)
			}
			results = append(results, i)
		case !ts.Before(end):
			// Past the window; inputs are sorted, stop scanning.
			return results
		default:
			previous = i
		}
	}
	return results
}
