package domain

import (
	"fmt"
	"slices"
	"time"
)

// BuildDayRecord merges the samples belonging to the target day out of a
// sequence of records (one per candidate file, in timestamp order) into a
// single re-indexed record.
//
// Non-time variables are copied from the first record that contributes at
// least one sample; they are required to be identical across records and this
// is validated. Time-indexed variables are boolean-compressed by each
// record's day mask and concatenated in record order. Variables measured in
// seconds are re-based so that each value is relative to the first
// contributing record's epoch, which keeps relative ordering correct when the
// day spans a file boundary. Dimension sizes are resynthesized from the
// merged sample count; dimension names outside time/level/angle are dropped.
//
// Returns ErrNoDataForDay when no record contributes a sample.
func BuildDayRecord(day time.Time, records []InstrumentRecord) (InstrumentRecord, error) {
	if len(records) == 0 {
		return InstrumentRecord{}, ErrNoDataForDay
	}
	masks, err := DayMasks(day, records)
	if err != nil {
		return InstrumentRecord{}, err
	}

	first, last := -1, -1
	for r, mask := range masks {
		if !mask.Any() {
			continue
		}
		if first < 0 {
			first = r
		}
		last = r
	}
	if first < 0 {
		return InstrumentRecord{}, ErrNoDataForDay
	}

	if err := validateContributors(records, masks); err != nil {
		return InstrumentRecord{}, err
	}

	// Non-time variables come verbatim from the first contributing record.
	values := make(map[string][]int64)
	for name, v := range records[first].Variables {
		if v.IsScalar() || !v.TimeIndexed() {
			values[name] = slices.Clone(v.Values)
		}
	}
	firstEpoch := records[first].Variables[VarEpoch].ScalarValue()

	// Time-indexed variables: compress by mask, concatenate in record order.
	for r, rec := range records {
		if !masks[r].Any() {
			continue
		}
		epoch := rec.Variables[VarEpoch].ScalarValue()
		for name, v := range rec.Variables {
			if !v.TimeIndexed() {
				continue
			}
			if v.Units == UnitSeconds {
				// Re-base against the first contributing record's epoch.
				for i, keep := range masks[r] {
					if keep {
						values[name] = append(values[name], epoch+v.Values[i]-firstEpoch)
					}
				}
				continue
			}
			for i, keep := range masks[r] {
				if keep {
					values[name] = append(values[name], v.Row(i)...)
				}
			}
		}
	}

	// Resynthesize dimensions from the merged sample counts.
	dims := make(map[string]Dimension)
	for name := range records[last].Dimensions {
		switch name {
		case "time":
			dims[name] = Dimension{Name: AxisTime, Size: len(values[VarOffset])}
		case "level":
			dims[name] = Dimension{Name: AxisLevel, Size: len(values[VarRange])}
		case "angle":
			dims[name] = Dimension{Name: AxisAngle, Size: AngleSize}
		}
	}

	variables := make(map[string]Variable, len(records[last].Variables))
	for name, v := range records[last].Variables {
		var rebuilt []Dimension
		for _, d := range v.Dimensions {
			if nd, ok := dims[string(d.Name)]; ok {
				rebuilt = append(rebuilt, nd)
			}
		}
		vals, ok := values[name]
		if !ok {
			return InstrumentRecord{}, &MissingVariableError{Subject: "merged day record", Variable: name}
		}
		variables[name] = Variable{
			Dimensions: rebuilt,
			DType:      v.DType,
			LongName:   v.LongName,
			Scale:      v.Scale,
			Units:      v.Units,
			Values:     vals,
		}
	}

	return InstrumentRecord{
		Dimensions:  dims,
		Variables:   variables,
		ProcessedAt: clock.Now(),
	}, nil
}

// validateContributors checks that every contributing record carries the
// required variables and that shared (non-time, non-clock) variables agree
// across records.
func validateContributors(records []InstrumentRecord, masks []Mask) error {
	first := -1
	for r, rec := range records {
		if !masks[r].Any() {
			continue
		}
		subject := fmt.Sprintf("record %d", r)
		for _, name := range []string{VarEpoch, VarOffset, VarRange} {
			if _, ok := rec.Variables[name]; !ok {
				return &MissingVariableError{Subject: subject, Variable: name}
			}
		}
		if first < 0 {
			first = r
			continue
		}
		for name, v := range rec.Variables {
			if v.TimeIndexed() {
				continue
			}
			// Epochs legitimately differ across file boundaries.
			if v.Units == UnitSeconds {
				continue
			}
			ref, ok := records[first].Variables[name]
			if !ok {
				continue
			}
			if !slices.Equal(v.Values, ref.Values) {
				return &InconsistentAxisError{Variable: name, Record: r}
			}
		}
	}
	return nil
}
