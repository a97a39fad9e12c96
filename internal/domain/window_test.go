package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stampedName(ts time.Time, suffix string) string {
	return ts.Format(tokenLayout) + suffix
}

func TestSelectWindow(t *testing.T) {
	day := utcDay(2019, time.January, 2)
	at := func(hour, min, sec int) time.Time {
		return day.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute + time.Duration(sec)*time.Second)
	}

	tests := []struct {
		name  string
		names []string
		want  []string
	}{
		{
			name: "all entries inside the day",
			names: []string{
				stampedName(at(0, 30, 0), ".mmcr.nc"),
				stampedName(at(6, 0, 0), ".mmcr.nc"),
				stampedName(at(23, 59, 59), ".mmcr.nc"),
			},
			want: []string{
				stampedName(at(0, 30, 0), ".mmcr.nc"),
				stampedName(at(6, 0, 0), ".mmcr.nc"),
				stampedName(at(23, 59, 59), ".mmcr.nc"),
			},
		},
		{
			name: "previous file carried over ahead of the first in-window entry",
			names: []string{
				stampedName(at(-1, 50, 0), ".mmcr.nc"), // 23:50 the day before
				stampedName(at(0, 10, 0), ".mmcr.nc"),
				stampedName(at(12, 0, 0), ".mmcr.nc"),
			},
			want: []string{
				stampedName(at(-1, 50, 0), ".mmcr.nc"),
				stampedName(at(0, 10, 0), ".mmcr.nc"),
				stampedName(at(12, 0, 0), ".mmcr.nc"),
			},
		},
		{
			name: "no carry-over when an entry sits exactly at day start",
			names: []string{
				stampedName(at(-1, 50, 0), ".mmcr.nc"),
				stampedName(at(0, 0, 0), ".mmcr.nc"),
				stampedName(at(0, 10, 0), ".mmcr.nc"),
			},
			want: []string{
				stampedName(at(0, 0, 0), ".mmcr.nc"),
				stampedName(at(0, 10, 0), ".mmcr.nc"),
			},
		},
		{
			name: "duplicate day-start entries all kept",
			names: []string{
				stampedName(at(0, 0, 0), ".mmcr.a.nc"),
				stampedName(at(0, 0, 0), ".mmcr.b.nc"),
			},
			want: []string{
				stampedName(at(0, 0, 0), ".mmcr.a.nc"),
				stampedName(at(0, 0, 0), ".mmcr.b.nc"),
			},
		},
		{
			name: "entry at day end belongs to the next day",
			names: []string{
				stampedName(at(23, 0, 0), ".mmcr.nc"),
				stampedName(at(24, 0, 0), ".mmcr.nc"),
			},
			want: []string{stampedName(at(23, 0, 0), ".mmcr.nc")},
		},
		{
			name: "entry past day end excluded",
			names: []string{
				stampedName(at(1, 0, 0), ".mmcr.nc"),
				stampedName(at(29, 0, 0), ".mmcr.nc"),
			},
			want: []string{stampedName(at(1, 0, 0), ".mmcr.nc")},
		},
		{
			name: "preceding file alone never selected",
			names: []string{
				stampedName(at(-2, 0, 0), ".mmcr.nc"),
				stampedName(at(-1, 50, 0), ".mmcr.nc"),
			},
			want: []string{},
		},
		{
			name:  "no names",
			names: []string{},
			want:  []string{},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SelectWindow(day, tc.names)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)

			// At most the leading entry may predate the day; nothing reaches day end.
			start, end := day, day.Add(24*time.Hour)
			for i, name := range got {
				ts, err := ExtractTimestamp(name)
				require.NoError(t, err)
				if i > 0 {
					assert.False(t, ts.Before(start), "entry %d before window", i)
				}
				assert.True(t, ts.Before(end), "entry %d at or past day end", i)
			}
		})
	}
}

func TestSelectWindowBadName(t *testing.T) {
	_, err := SelectWindow(utcDay(2019, time.January, 2), []string{"notes.txt"})
	assert.ErrorContains(t, err, "no canonical timestamp")
}

func TestSelectWindowRecords(t *testing.T) {
	day := utcDay(2019, time.January, 2)
	recAt := func(ts time.Time) InstrumentRecord {
		return dayRecordFixture(ts.Unix(), []int64{0, 10}, []int64{100}, [][]int64{{0}, {0}})
	}

	prev := recAt(day.Add(-10 * time.Minute))
	first := recAt(day.Add(10 * time.Minute))
	second := recAt(day.Add(12 * time.Hour))
	next := recAt(day.Add(24 * time.Hour))

	got, err := SelectWindowRecords(day, []InstrumentRecord{prev, first, second, next})
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, want := range []InstrumentRecord{prev, first, second} {
		wantTS, err := want.Timestamp()
		require.NoError(t, err)
		gotTS, err := got[i].Timestamp()
		require.NoError(t, err)
		assert.Equal(t, wantTS, gotTS)
	}
}
