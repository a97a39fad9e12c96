package domain

import (
	"time"
)

// VerticalRail seeds the boundary walk: an impossible mask code standing in
// for "outside the profile" below the first column and above the last.
const VerticalRail int64 = -10

// MaskCode records the codes on either side of a detected transition, so
// downstream phase classification can tell which instrument drove it.
type MaskCode struct {
	Bottom int64 `json:"bottom"`
	Top    int64 `json:"top"`
}

// VerticalTransition is one clear/cloud boundary in a single profile.
type VerticalTransition struct {
	Elevation int64    `json:"elevation"` // meters
	Code      MaskCode `json:"code"`
}

// VerticalLayers holds the cloud-layer boundaries found in one time step's
// profile. Bases are clear-to-cloud transitions going up, tops cloud-to-clear.
// The counts need not match: a cloud touching the top of the profile has a
// base but its top is closed against the rail, and vice versa at the floor.
type VerticalLayers struct {
	Time  time.Time            `json:"time"`
	Bases []VerticalTransition `json:"bases"`
	Tops  []VerticalTransition `json:"tops"`
}

// ExtractLayers walks a fused cloud-mask grid column-wise per time step and
// emits base/top transition events. Cells below the elevation floor are
// skipped. The topmost column is checked explicitly against the rail so a
// cloud persisting to the grid's ceiling still closes its top.
//
// Any cell code outside the closed fused enumeration fails fast with a
// MalformedCodeError; codes are judged cloud when strictly positive.
func ExtractLayers(fused InstrumentRecord, day time.Time, policy FusionPolicy) ([]VerticalLayers, error) {
	offset, err := fused.variable(VarOffset)
	if err != nil {
		return nil, err
	}
	elevation, err := fused.variable(VarRange)
	if err != nil {
		return nil, err
	}
	mask, err := fused.variable(VarCloud)
	if err != nil {
		return nil, err
	}

	elevations := elevation.Values
	base := DayStart(day)
	result := make([]VerticalLayers, 0, len(offset.Values))

	for i, off := range offset.Values {
		below := VerticalRail
		var bases, tops []VerticalTransition
		lastJ := -1

		for j := 0; j < len(elevations)-1; j++ {
			lastJ = j
			if elevations[j] < policy.MinElevation {
				continue
			}
			current, err := cellCode(mask, i, j, elevations[j])
			if err != nil {
				return nil, err
			}
			above, err := cellCode(mask, i, j+1, elevations[j+1])
			if err != nil {
				return nil, err
			}
			if below <= 0 && current > 0 {
				bases = append(bases, VerticalTransition{
					Elevation: elevations[j] - policy.ElevationWindow,
					Code:      MaskCode{Bottom: below, Top: current},
				})
			}
			if above <= 0 && current > 0 {
				tops = append(tops, VerticalTransition{
					Elevation: elevations[j] + policy.ElevationWindow,
					Code:      MaskCode{Bottom: current, Top: above},
				})
			}
			below = current
		}

		// Topmost column: the pairwise walk never visits it as "current".
		if lastJ >= 0 {
			edge := elevations[lastJ]
			top, err := cellCode(mask, i, lastJ+1, elevations[lastJ+1])
			if err != nil {
				return nil, err
			}
			if top > 0 {
				tops = append(tops, VerticalTransition{
					Elevation: edge + policy.ElevationWindow,
					Code:      MaskCode{Bottom: top, Top: VerticalRail},
				})
				if below <= 0 {
					bases = append(bases, VerticalTransition{
						Elevation: edge - policy.ElevationWindow,
						Code:      MaskCode{Bottom: below, Top: top},
					})
				}
			}
		}

		result = append(result, VerticalLayers{
			Time:  base.Add(time.Duration(off) * time.Second),
			Bases: bases,
			Tops:  tops,
		})
	}
	return result, nil
}

func cellCode(mask Variable, i, j int, elevation int64) (int64, error) {
	code := mask.At(i, j)
	if !ValidFusedCode(code) {
		return 0, &MalformedCodeError{TimeIndex: i, Elevation: elevation, Code: code}
	}
	return code, nil
}
