package domain

import (
	"fmt"
	"time"
)

// Mask marks, per time sample of one record, whether the sample belongs to the
// target day.
type Mask []bool

// Any reports whether the mask selects at least one sample.
func (m Mask) Any() bool {
	for _, b := range m {
		if b {
			return true
		}
	}
	return false
}

// Count returns the number of selected samples.
func (m Mask) Count() int {
	n := 0
	for _, b := range m {
		if b {
			n++
		}
	}
	return n
}

// DayMasks computes one inclusion mask per record: mask[i] is true when the
// UTC calendar date of epoch+offset[i] equals the target day.
func DayMasks(day time.Time, records []InstrumentRecord) ([]Mask, error) {
	target := DayStart(day)
	masks := make([]Mask, len(records))
	for r, rec := range records {
		epoch, offset, err := epochAndOffset(rec, r)
		if err != nil {
			return nil, err
		}
		mask := make(Mask, len(offset.Values))
		for i, off := range offset.Values {
			sample := time.Unix(epoch+off, 0).UTC()
			mask[i] = DayStart(sample).Equal(target)
		}
		masks[r] = mask
	}
	return masks, nil
}

func epochAndOffset(rec InstrumentRecord, index int) (int64, Variable, error) {
	subject := fmt.Sprintf("record %d", index)
	epochVar, ok := rec.Variables[VarEpoch]
	if !ok {
		return 0, Variable{}, &MissingVariableError{Subject: subject, Variable: VarEpoch}
	}
	offset, ok := rec.Variables[VarOffset]
	if !ok {
		return 0, Variable{}, &MissingVariableError{Subject: subject, Variable: VarOffset}
	}
	return epochVar.ScalarValue(), offset, nil
}
