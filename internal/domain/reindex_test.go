package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayMasks(t *testing.T) {
	day := utcDay(2019, time.January, 2)

	// File starting 23:50 the previous evening, one sample every 10 s through
	// 00:00:10 of the target day.
	epoch := day.Add(-10 * time.Minute).Unix()
	rec := dayRecordFixture(epoch, seq(0, 610, 10), []int64{100}, constantRows(62, 1, 0))

	masks, err := DayMasks(day, []InstrumentRecord{rec})
	require.NoError(t, err)
	require.Len(t, masks, 1)
	assert.Equal(t, 2, masks[0].Count())
	assert.True(t, masks[0][60], "sample at midnight belongs to the day")
	assert.True(t, masks[0][61])
	assert.False(t, masks[0][59], "23:59:50 belongs to the previous day")
}

func TestDayMasksMissingOffset(t *testing.T) {
	rec := dayRecordFixture(0, []int64{0}, []int64{100}, [][]int64{{0}})
	delete(rec.Variables, VarOffset)

	_, err := DayMasks(utcDay(2019, time.January, 2), []InstrumentRecord{rec})
	var missing *MissingVariableError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, VarOffset, missing.Variable)
}

func TestBuildDayRecordNoData(t *testing.T) {
	day := utcDay(2019, time.January, 2)

	_, err := BuildDayRecord(day, nil)
	assert.ErrorIs(t, err, ErrNoDataForDay)

	// Record entirely on the previous day.
	rec := dayRecordFixture(day.Add(-2*time.Hour).Unix(), seq(0, 100, 10), []int64{100}, constantRows(11, 1, 0))
	_, err = BuildDayRecord(day, []InstrumentRecord{rec})
	assert.ErrorIs(t, err, ErrNoDataForDay)
}

func TestBuildDayRecordSingleRecord(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC))
	SetClock(fake)
	defer SetClock(nil)

	day := utcDay(2019, time.January, 2)
	rec := dayRecordFixture(day.Unix(), []int64{0, 10, 20}, []int64{100, 200}, [][]int64{
		{0, 1},
		{1, 1},
		{0, 0},
	})

	merged, err := BuildDayRecord(day, []InstrumentRecord{rec})
	require.NoError(t, err)

	assert.Equal(t, []int64{0, 10, 20}, merged.Variables[VarOffset].Values)
	assert.Equal(t, []int64{day.Unix()}, merged.Variables[VarEpoch].Values)
	assert.Equal(t, []int64{100, 200}, merged.Variables[VarRange].Values)
	assert.Equal(t, []int64{0, 1, 1, 1, 0, 0}, merged.Variables[VarCloud].Values)
	assert.Equal(t, Dimension{Name: AxisTime, Size: 3}, merged.Dimensions["time"])
	assert.Equal(t, Dimension{Name: AxisLevel, Size: 2}, merged.Dimensions["level"])
	assert.Equal(t, fake.Now(), merged.ProcessedAt)
}

func TestBuildDayRecordFileSeam(t *testing.T) {
	day := utcDay(2019, time.January, 2)

	// First file: 23:50:00 the day before through 00:00:10, 10 s cadence.
	// Second file: 00:00:20 through 00:10:00 of the target day.
	epoch1 := day.Add(-10 * time.Minute).Unix()
	epoch2 := day.Add(20 * time.Second).Unix()
	rec1 := dayRecordFixture(epoch1, seq(0, 610, 10), []int64{100, 200}, constantRows(62, 2, 1))
	rec2 := dayRecordFixture(epoch2, seq(0, 580, 10), []int64{100, 200}, constantRows(59, 2, 0))

	merged, err := BuildDayRecord(day, []InstrumentRecord{rec1, rec2})
	require.NoError(t, err)

	// Offsets are re-based to the first contributing file's epoch: the two
	// boundary samples carried over, then the whole second file, no gap and
	// no duplicate at the seam.
	assert.Equal(t, seq(600, 1200, 10), merged.Variables[VarOffset].Values)
	assert.Equal(t, []int64{epoch1}, merged.Variables[VarEpoch].Values)
	assert.Equal(t, Dimension{Name: AxisTime, Size: 61}, merged.Dimensions["time"])
	assert.Len(t, merged.Variables[VarCloud].Values, 61*2)

	// The carried-over rows keep their source values.
	assert.Equal(t, []int64{1, 1}, merged.Variables[VarCloud].Row(0))
	assert.Equal(t, []int64{0, 0}, merged.Variables[VarCloud].Row(2))

	// Epoch plus re-based offset still lands on the original instants.
	first := merged.Variables[VarOffset].Values[0]
	assert.Equal(t, day.Unix(), epoch1+first)
}

func TestBuildDayRecordSharedEpochPassthrough(t *testing.T) {
	day := utcDay(2019, time.January, 2)
	epoch := day.Unix()
	rec1 := dayRecordFixture(epoch, []int64{0, 10}, []int64{100}, constantRows(2, 1, 1))
	rec2 := dayRecordFixture(epoch, []int64{20, 30}, []int64{100}, constantRows(2, 1, 0))

	merged, err := BuildDayRecord(day, []InstrumentRecord{rec1, rec2})
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 10, 20, 30}, merged.Variables[VarOffset].Values)
}

func TestBuildDayRecordValidation(t *testing.T) {
	day := utcDay(2019, time.January, 2)
	epoch := day.Unix()

	t.Run("missing required variable in a contributor", func(t *testing.T) {
		rec := dayRecordFixture(epoch, []int64{0}, []int64{100}, [][]int64{{0}})
		delete(rec.Variables, VarRange)

		_, err := BuildDayRecord(day, []InstrumentRecord{rec})
		var missing *MissingVariableError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, VarRange, missing.Variable)
	})

	t.Run("shared axis differs between contributors", func(t *testing.T) {
		rec1 := dayRecordFixture(epoch, []int64{0}, []int64{100, 200}, [][]int64{{0, 0}})
		rec2 := dayRecordFixture(epoch, []int64{10}, []int64{100, 300}, [][]int64{{0, 0}})

		_, err := BuildDayRecord(day, []InstrumentRecord{rec1, rec2})
		var inconsistent *InconsistentAxisError
		require.ErrorAs(t, err, &inconsistent)
		assert.Equal(t, VarRange, inconsistent.Variable)
		assert.Equal(t, 1, inconsistent.Record)
	})

	t.Run("differing epochs are not an axis conflict", func(t *testing.T) {
		rec1 := dayRecordFixture(epoch, []int64{0}, []int64{100}, [][]int64{{0}})
		rec2 := dayRecordFixture(epoch+60, []int64{0}, []int64{100}, [][]int64{{0}})

		_, err := BuildDayRecord(day, []InstrumentRecord{rec1, rec2})
		require.NoError(t, err)
	})
}

func TestBuildDayRecordDimensionSynthesis(t *testing.T) {
	day := utcDay(2019, time.January, 2)
	rec := dayRecordFixture(day.Unix(), []int64{0, 10}, []int64{100}, constantRows(2, 1, 0))
	rec.Dimensions["angle"] = Dimension{Name: AxisAngle, Size: AngleSize}
	rec.Dimensions["beam"] = Dimension{Name: "beam", Size: 7}

	merged, err := BuildDayRecord(day, []InstrumentRecord{rec})
	require.NoError(t, err)
	assert.Equal(t, Dimension{Name: AxisAngle, Size: AngleSize}, merged.Dimensions["angle"])
	assert.NotContains(t, merged.Dimensions, "beam")
}

func TestBuildDayRecordNilRecordsError(t *testing.T) {
	_, err := BuildDayRecord(utcDay(2019, time.January, 2), []InstrumentRecord{})
	assert.True(t, errors.Is(err, ErrNoDataForDay))
}
