package domain

import "time"

// dayRecordFixture builds a minimal instrument day record: scalar epoch,
// time-dimensioned offset, level-dimensioned range, and a time×level
// cloud_mask given row by row.
func dayRecordFixture(epoch int64, offsets, ranges []int64, cloud [][]int64) InstrumentRecord {
	timeDim := Dimension{Name: AxisTime, Size: len(offsets)}
	levelDim := Dimension{Name: AxisLevel, Size: len(ranges)}

	flat := make([]int64, 0, len(offsets)*len(ranges))
	for _, row := range cloud {
		flat = append(flat, row...)
	}

	return InstrumentRecord{
		Dimensions: map[string]Dimension{"time": timeDim, "level": levelDim},
		Variables: map[string]Variable{
			VarEpoch: {
				DType:    I4,
				LongName: "Unix Epoch 1970 of Initial Timestamp",
				Scale:    ScaleOne,
				Units:    UnitSeconds,
				Values:   []int64{epoch},
			},
			VarOffset: {
				Dimensions: []Dimension{timeDim},
				DType:      I4,
				LongName:   "Seconds Since Initial Timestamp",
				Scale:      ScaleOne,
				Units:      UnitSeconds,
				Values:     offsets,
			},
			VarRange: {
				Dimensions: []Dimension{levelDim},
				DType:      U2,
				LongName:   "Return Range",
				Scale:      ScaleOne,
				Units:      UnitMeters,
				Values:     ranges,
			},
			VarCloud: {
				Dimensions: []Dimension{timeDim, levelDim},
				DType:      I1,
				LongName:   "Cloud Mask",
				Scale:      ScaleOne,
				Units:      UnitNone,
				Values:     flat,
			},
		},
	}
}

// seq returns from..to inclusive in the given step.
func seq(from, to, step int64) []int64 {
	var out []int64
	for v := from; v <= to; v += step {
		out = append(out, v)
	}
	return out
}

// constantRows returns n rows of the given width filled with value.
func constantRows(n, width int, value int64) [][]int64 {
	rows := make([][]int64, n)
	for i := range rows {
		row := make([]int64, width)
		for j := range row {
			row[j] = value
		}
		rows[i] = row
	}
	return rows
}

func utcDay(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
