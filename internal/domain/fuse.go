package domain

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// SecondsPerDay is the length of the fused time axis; the axis is inclusive
// of both midnights.
const SecondsPerDay = 86400

// Fused cloud-mask codes. See the package documentation for the full table.
const (
	CodeCloudLidar           int64 = 1
	CodeCloudRadar           int64 = 2
	CodeCloudBoth            int64 = 3
	CodeCloudRadarLidarEmpty int64 = 4
	CodeCloudLidarRadarEmpty int64 = 5
	CodeClear                int64 = 0
	CodeClearLidar           int64 = -1
	CodeClearRadar           int64 = -2
	CodeClearBoth            int64 = -3
	CodeClearRadarLidarEmpty int64 = -4
	CodeClearLidarRadarEmpty int64 = -5
	CodeMissingAll           int64 = -6
)

// ValidFusedCode reports whether c belongs to the closed fused-code set.
func ValidFusedCode(c int64) bool {
	return c >= CodeMissingAll && c <= CodeCloudLidarRadarEmpty
}

// FusionPolicy holds the tunable parameters of grid fusion. The defaults
// reproduce the operational configuration; thresholds are policy, not
// physics.
type FusionPolicy struct {
	TimeStep        int64   // seconds between output rows
	TimeWindow      int64   // ± seconds gathered around a cell center
	ElevationStep   int64   // meters between output columns
	ElevationWindow int64   // ± meters gathered around a cell center
	MinElevation    int64   // floor below which cells are not evaluated
	CloudThreshold  float64 // window mean at or above which a source votes cloud
}

// DefaultFusionPolicy returns the operational 30 s / 90 m configuration.
func DefaultFusionPolicy() FusionPolicy {
	return FusionPolicy{
		TimeStep:        30,
		TimeWindow:      15,
		ElevationStep:   90,
		ElevationWindow: 45,
		MinElevation:    500,
		CloudThreshold:  0.5,
	}
}

// cellAggregate summarizes one source instrument's samples inside a single
// output-cell window. Means are NaN when the window is empty, so threshold
// comparisons against them are always false.
type cellAggregate struct {
	role      Role
	count     int
	hasFlag   bool
	mean      float64 // raw mean, flag values included
	cleanMean float64 // mean with flag values replaced by zero
}

// fusionRule is one step of the ordered per-cell decision list. Rules are
// pure functions of the per-source aggregates (in FusionOrder); the first
// rule to claim a cell wins, so list order is semantics.
type fusionRule struct {
	name  string
	apply func(p FusionPolicy, cells []cellAggregate) (int64, bool)
}

// Sentinel pairs keyed by which role is absent or flagged: when the lidar
// window is empty only the radar can detect cloud, and vice versa.
var (
	emptyPairs = map[Role][2]int64{
		RoleLidar: {CodeCloudRadarLidarEmpty, CodeClearRadarLidarEmpty},
		RoleRadar: {CodeCloudLidarRadarEmpty, CodeClearLidarRadarEmpty},
	}
	flaggedPairs = map[Role][2]int64{
		RoleLidar: {CodeCloudRadar, CodeClearRadar},
		RoleRadar: {CodeCloudLidar, CodeClearLidar},
	}
	soloCloudCodes = map[Role]int64{
		RoleLidar: CodeCloudLidar,
		RoleRadar: CodeCloudRadar,
	}
)

var fusionRules = []fusionRule{
	{name: "missing-all", apply: ruleMissingAll},
	{name: "all-flagged", apply: ruleAllFlagged},
	{name: "some-missing", apply: ruleSomeMissing},
	{name: "some-flagged", apply: ruleSomeFlagged},
	{name: "cloud-both", apply: ruleCloudBoth},
	{name: "cloud-one", apply: ruleCloudOne},
	{name: "clear-both", apply: ruleClearBoth},
}

func ruleMissingAll(_ FusionPolicy, cells []cellAggregate) (int64, bool) {
	for _, c := range cells {
		if c.count > 0 {
			return 0, false
		}
	}
	return CodeMissingAll, true
}

func ruleAllFlagged(p FusionPolicy, cells []cellAggregate) (int64, bool) {
	for _, c := range cells {
		if !c.hasFlag {
			return 0, false
		}
	}
	// Every window is flag-contaminated: judge on flag-replaced means only.
	for _, c := range cells {
		if c.cleanMean >= p.CloudThreshold {
			return soloCloudCodes[c.role], true
		}
	}
	return CodeClear, true
}

func ruleSomeMissing(p FusionPolicy, cells []cellAggregate) (int64, bool) {
	for _, c := range cells {
		if c.count == 0 {
			pair := emptyPairs[c.role]
			return resolvePair(p, cells, pair), true
		}
	}
	return 0, false
}

func ruleSomeFlagged(p FusionPolicy, cells []cellAggregate) (int64, bool) {
	for _, c := range cells {
		if c.hasFlag {
			pair := flaggedPairs[c.role]
			return resolvePair(p, cells, pair), true
		}
	}
	return 0, false
}

func ruleCloudBoth(p FusionPolicy, cells []cellAggregate) (int64, bool) {
	for _, c := range cells {
		if !(c.mean >= p.CloudThreshold) {
			return 0, false
		}
	}
	return CodeCloudBoth, true
}

func ruleCloudOne(p FusionPolicy, cells []cellAggregate) (int64, bool) {
	any := false
	for _, c := range cells {
		if c.mean >= p.CloudThreshold {
			any = true
		}
	}
	if !any {
		return 0, false
	}
	for _, c := range cells {
		if !(c.mean >= p.CloudThreshold) {
			// The dissenting instrument names the code: the other one saw cloud.
			return flaggedPairs[c.role][0], true
		}
	}
	return 0, false
}

func ruleClearBoth(_ FusionPolicy, _ []cellAggregate) (int64, bool) {
	return CodeClearBoth, true
}

// resolvePair picks the CLOUD member of a sentinel pair when any available
// source's raw window mean reaches the threshold, the NO_CLOUD member
// otherwise.
func resolvePair(p FusionPolicy, cells []cellAggregate, pair [2]int64) int64 {
	for _, c := range cells {
		if c.mean >= p.CloudThreshold {
			return pair[0]
		}
	}
	return pair[1]
}

// sourceGrid is one instrument's day grid prepared for windowed lookups.
type sourceGrid struct {
	role       Role
	times      []int64
	elevations []int64
	mask       Variable
}

// FuseGrids combines the per-day cloud-mask grids of a lidar-class and a
// radar-class record onto one regular grid spanning the full day, applying
// the ordered fusion rule list cell by cell. The output record carries epoch,
// offset, range, and cloud_mask variables and is itself a valid day record.
func FuseGrids(day time.Time, sources map[Role]InstrumentRecord, policy FusionPolicy) (InstrumentRecord, error) {
	grids := make([]sourceGrid, 0, len(FusionOrder))
	for _, role := range FusionOrder {
		rec, ok := sources[role]
		if !ok {
			return InstrumentRecord{}, fmt.Errorf("fuse grids: missing %s source", role)
		}
		g, err := newSourceGrid(role, rec)
		if err != nil {
			return InstrumentRecord{}, err
		}
		grids = append(grids, g)
	}

	// Shared elevation ceiling: the shallowest instrument bounds the output.
	maxElevation := int64(math.MaxInt64)
	for _, g := range grids {
		top := g.elevations[len(g.elevations)-1]
		if top < maxElevation {
			maxElevation = top
		}
	}

	times := stepSequence(SecondsPerDay, policy.TimeStep)
	elevations := stepSequence(maxElevation, policy.ElevationStep)
	fused := make([]int64, len(times)*len(elevations))

	cells := make([]cellAggregate, len(grids))
	for i, t := range times {
		rowWindows := make([][2]int, len(grids))
		for s, g := range grids {
			rowWindows[s] = windowBounds(g.times, t, policy.TimeWindow)
		}
		for j, e := range elevations {
			if e < policy.MinElevation {
				continue
			}
			for s, g := range grids {
				cols := windowBounds(g.elevations, e, policy.ElevationWindow)
				cells[s] = g.aggregate(rowWindows[s], cols)
			}
			for _, rule := range fusionRules {
				if code, ok := rule.apply(policy, cells); ok {
					fused[i*len(elevations)+j] = code
					break
				}
			}
		}
	}

	return fusedRecord(day, times, elevations, fused), nil
}

func newSourceGrid(role Role, rec InstrumentRecord) (sourceGrid, error) {
	subject := fmt.Sprintf("%s source", role)
	for _, name := range []string{VarOffset, VarRange, VarCloud} {
		if _, ok := rec.Variables[name]; !ok {
			return sourceGrid{}, &MissingVariableError{Subject: subject, Variable: name}
		}
	}
	g := sourceGrid{
		role:       role,
		times:      rec.Variables[VarOffset].Values,
		elevations: rec.Variables[VarRange].Values,
		mask:       rec.Variables[VarCloud],
	}
	if len(g.elevations) == 0 || len(g.times) == 0 {
		return sourceGrid{}, fmt.Errorf("fuse grids: %s has an empty axis", subject)
	}
	if g.mask.RowLen() != len(g.elevations) || len(g.mask.Values) != len(g.times)*len(g.elevations) {
		return sourceGrid{}, fmt.Errorf("fuse grids: %s cloud_mask shape does not match its axes", subject)
	}
	return g, nil
}

// aggregate summarizes the samples inside the given row/column windows.
func (g sourceGrid) aggregate(rows, cols [2]int) cellAggregate {
	agg := cellAggregate{role: g.role, mean: math.NaN(), cleanMean: math.NaN()}
	var sum, cleanSum int64
	for i := rows[0]; i < rows[1]; i++ {
		for j := cols[0]; j < cols[1]; j++ {
			v := g.mask.At(i, j)
			agg.count++
			sum += v
			if v == FlagValue {
				agg.hasFlag = true
			} else {
				cleanSum += v
			}
		}
	}
	if agg.count > 0 {
		agg.mean = float64(sum) / float64(agg.count)
		agg.cleanMean = float64(cleanSum) / float64(agg.count)
	}
	return agg
}

// windowBounds returns the half-open index range [lo, hi) of sorted values
// falling within center±window (inclusive below, exclusive above).
func windowBounds(sorted []int64, center, window int64) [2]int {
	lo := sort.Search(len(sorted), func(i int) bool { return sorted[i] >= center-window })
	hi := sort.Search(len(sorted), func(i int) bool { return sorted[i] >= center+window })
	return [2]int{lo, hi}
}

// stepSequence returns 0..limit inclusive in the given step.
func stepSequence(limit, step int64) []int64 {
	seq := make([]int64, 0, limit/step+1)
	for v := int64(0); v <= limit; v += step {
		seq = append(seq, v)
	}
	return seq
}

// fusedRecord assembles the output day record around the fused grid.
func fusedRecord(day time.Time, times, elevations, fused []int64) InstrumentRecord {
	dims := map[string]Dimension{
		"time":  {Name: AxisTime, Size: len(times)},
		"level": {Name: AxisLevel, Size: len(elevations)},
	}
	return InstrumentRecord{
		Dimensions: dims,
		Variables: map[string]Variable{
			VarEpoch: {
				DType:    I4,
				LongName: "Unix Epoch 1970 of Initial Timestamp",
				Scale:    ScaleOne,
				Units:    UnitSeconds,
				Values:   []int64{DayStart(day).Unix()},
			},
			VarOffset: {
				Dimensions: []Dimension{dims["time"]},
				DType:      I4,
				LongName:   "Seconds Since Initial Timestamp",
				Scale:      ScaleOne,
				Units:      UnitSeconds,
				Values:     times,
			},
			VarRange: {
				Dimensions: []Dimension{dims["level"]},
				DType:      U2,
				LongName:   "Return Range",
				Scale:      ScaleOne,
				Units:      UnitMeters,
				Values:     elevations,
			},
			VarCloud: {
				Dimensions: []Dimension{dims["time"], dims["level"]},
				DType:      I1,
				LongName:   "Cloud Mask",
				Scale:      ScaleOne,
				Units:      UnitNone,
				Values:     fused,
			},
		},
		ProcessedAt: clock.Now(),
	}
}
