package domain

import (
	"fmt"
	"math"
	"time"
)

// Axis is the logical identity of a dimension, independent of the name a
// source file gave it.
type Axis string

const (
	AxisTime  Axis = "time"
	AxisLevel Axis = "level"
	AxisAngle Axis = "angle"
)

// AngleSize is the fixed sample count of the scanning-angle axis when present.
const AngleSize = 4

// DType identifies the storage type a variable had in its source file.
type DType string

const (
	I1 DType = "i1"
	I2 DType = "i2"
	I4 DType = "i4"
	U1 DType = "u1"
	U2 DType = "u2"
	U4 DType = "u4"
	F4 DType = "f4"
)

// FlagValue is the reserved "no valid measurement" code: the int8 minimum.
// It is shared by every mask-coded variable regardless of storage width.
const FlagValue int64 = math.MinInt8

// Unit is a measurement unit label carried through from the source metadata.
type Unit string

const (
	UnitNone    Unit = ""
	UnitSeconds Unit = "seconds"
	UnitMeters  Unit = "meters"
	UnitDegrees Unit = "degrees"
)

// Scale is the divisor that converts stored integer values to physical units.
type Scale int

const (
	ScaleOne      Scale = 1
	ScaleHundred  Scale = 100
	ScaleThousand Scale = 1000
)

// Instrument identifies a specific sensor.
type Instrument string

const (
	AHSRL Instrument = "ahsrl"
	DABUL Instrument = "dabul"
	MPL   Instrument = "mpl"
	MMCR  Instrument = "mmcr"
)

// Role groups instruments that share sentinel and tie-break semantics during
// grid fusion.
type Role string

const (
	RoleLidar Role = "lidar"
	RoleRadar Role = "radar"
)

// FusionOrder is the role order tie-break rules are evaluated in. The
// "first instrument wins" rules in the fusion policy depend on it.
var FusionOrder = []Role{RoleLidar, RoleRadar}

// RoleOf maps an instrument to its fusion role.
func RoleOf(inst Instrument) Role {
	if inst == MMCR {
		return RoleRadar
	}
	return RoleLidar
}

// Dimension describes one named axis of a record.
type Dimension struct {
	Name Axis `json:"name"`
	Size int  `json:"size"`
}

// Variable is one named quantity from an instrument file. Values are stored
// flattened in row-major order; the dimension list gives the shape. A scalar
// has no dimensions and a single value.
type Variable struct {
	Dimensions []Dimension `json:"dimensions"`
	DType      DType       `json:"dtype"`
	LongName   string      `json:"long_name"`
	Scale      Scale       `json:"scale"`
	Units      Unit        `json:"units"`
	Values     []int64     `json:"values"`
}

// IsScalar reports whether the variable has no dimensions.
func (v Variable) IsScalar() bool { return len(v.Dimensions) == 0 }

// TimeIndexed reports whether the variable's leading axis is time.
func (v Variable) TimeIndexed() bool {
	return len(v.Dimensions) > 0 && v.Dimensions[0].Name == AxisTime
}

// ScalarValue returns the single value of a scalar variable.
func (v Variable) ScalarValue() int64 {
	if len(v.Values) == 0 {
		return 0
	}
	return v.Values[0]
}

// RowLen is the number of values per leading-axis sample: the product of the
// trailing dimension sizes.
func (v Variable) RowLen() int {
	n := 1
	for _, d := range v.Dimensions[1:] {
		n *= d.Size
	}
	return n
}

// Row returns the values of the i-th leading-axis sample.
func (v Variable) Row(i int) []int64 {
	w := v.RowLen()
	return v.Values[i*w : (i+1)*w]
}

// At returns the value at row i, column j of a two-dimensional variable.
func (v Variable) At(i, j int) int64 {
	return v.Values[i*v.RowLen()+j]
}

// InstrumentRecord is one hydrated file's worth of data. Records are never
// mutated in place; every transform yields a new record.
type InstrumentRecord struct {
	Dimensions  map[string]Dimension `json:"dimensions"`
	Variables   map[string]Variable  `json:"variables"`
	ProcessedAt time.Time            `json:"processed_at,omitzero"`
}

// Required variable names every day-buildable record must carry.
const (
	VarEpoch  = "epoch"
	VarOffset = "offset"
	VarRange  = "range"
	VarCloud  = "cloud_mask"
)

// Epoch returns the record's scalar epoch in Unix seconds.
func (r InstrumentRecord) Epoch() (int64, error) {
	v, ok := r.Variables[VarEpoch]
	if !ok {
		return 0, &MissingVariableError{Variable: VarEpoch}
	}
	return v.ScalarValue(), nil
}

// Timestamp returns the instant of the record's first sample, derived from
// epoch plus the first offset.
func (r InstrumentRecord) Timestamp() (time.Time, error) {
	epoch, err := r.Epoch()
	if err != nil {
		return time.Time{}, err
	}
	offset, ok := r.Variables[VarOffset]
	if !ok {
		return time.Time{}, &MissingVariableError{Variable: VarOffset}
	}
	first := int64(0)
	if len(offset.Values) > 0 {
		first = offset.Values[0]
	}
	return time.Unix(epoch+first, 0).UTC(), nil
}

// DayStart truncates t to UTC midnight of its calendar day.
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (r InstrumentRecord) variable(name string) (Variable, error) {
	v, ok := r.Variables[name]
	if !ok {
		return Variable{}, &MissingVariableError{Variable: name}
	}
	return v, nil
}

// String summarizes the record for logging.
func (r InstrumentRecord) String() string {
	times, levels := 0, 0
	if d, ok := r.Dimensions["time"]; ok {
		times = d.Size
	}
	if d, ok := r.Dimensions["level"]; ok {
		levels = d.Size
	}
	return fmt.Sprintf("record{time:%d level:%d vars:%d}", times, levels, len(r.Variables))
}
