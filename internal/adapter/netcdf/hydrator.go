package netcdf

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"reflect"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/couchcryptid/cloud-obs-etl/internal/domain"
)

// PathResolver maps a canonical file name to a readable path.
type PathResolver interface {
	Resolve(name string) (string, error)
}

// varSpec maps one native NetCDF variable onto a canonical record variable.
// Scale is the multiplier applied while quantizing float data to integers.
type varSpec struct {
	native string
	dtype  domain.DType
	units  domain.Unit
	scale  domain.Scale
	dims   []domain.Axis // nil means scalar
}

// catalogs lists, per instrument, the native names of the variables a day
// record needs. The archive's instruments never agreed on naming.
var catalogs = map[domain.Instrument]map[string]varSpec{
	domain.MMCR: {
		domain.VarEpoch:  {native: "base_time", dtype: domain.I4, units: domain.UnitSeconds, scale: domain.ScaleOne},
		domain.VarOffset: {native: "time_offset", dtype: domain.I4, units: domain.UnitSeconds, scale: domain.ScaleOne, dims: []domain.Axis{domain.AxisTime}},
		domain.VarRange:  {native: "heights", dtype: domain.U2, units: domain.UnitMeters, scale: domain.ScaleOne, dims: []domain.Axis{domain.AxisLevel}},
		domain.VarCloud:  {native: "CloudLayerMask", dtype: domain.I1, units: domain.UnitNone, scale: domain.ScaleOne, dims: []domain.Axis{domain.AxisTime, domain.AxisLevel}},
	},
	domain.MPL: {
		domain.VarEpoch:  {native: "base_time", dtype: domain.I4, units: domain.UnitSeconds, scale: domain.ScaleOne},
		domain.VarOffset: {native: "time_offset", dtype: domain.I4, units: domain.UnitSeconds, scale: domain.ScaleOne, dims: []domain.Axis{domain.AxisTime}},
		domain.VarRange:  {native: "range", dtype: domain.U2, units: domain.UnitMeters, scale: domain.ScaleOne, dims: []domain.Axis{domain.AxisLevel}},
		domain.VarCloud:  {native: "cloud_mask", dtype: domain.I1, units: domain.UnitNone, scale: domain.ScaleOne, dims: []domain.Axis{domain.AxisTime, domain.AxisLevel}},
	},
	domain.DABUL: {
		domain.VarEpoch:  {native: "unix_time", dtype: domain.I4, units: domain.UnitSeconds, scale: domain.ScaleOne},
		domain.VarOffset: {native: "time", dtype: domain.I4, units: domain.UnitSeconds, scale: domain.ScaleOne, dims: []domain.Axis{domain.AxisTime}},
		domain.VarRange:  {native: "altitude", dtype: domain.U2, units: domain.UnitMeters, scale: domain.ScaleOne, dims: []domain.Axis{domain.AxisLevel}},
		domain.VarCloud:  {native: "cloud_mask", dtype: domain.I1, units: domain.UnitNone, scale: domain.ScaleOne, dims: []domain.Axis{domain.AxisTime, domain.AxisLevel}},
	},
	domain.AHSRL: {
		domain.VarEpoch:  {native: "base_time", dtype: domain.I4, units: domain.UnitSeconds, scale: domain.ScaleOne},
		domain.VarOffset: {native: "time_offset", dtype: domain.I4, units: domain.UnitSeconds, scale: domain.ScaleOne, dims: []domain.Axis{domain.AxisTime}},
		domain.VarRange:  {native: "altitude", dtype: domain.U2, units: domain.UnitMeters, scale: domain.ScaleOne, dims: []domain.Axis{domain.AxisLevel}},
		domain.VarCloud:  {native: "cloud_mask", dtype: domain.I1, units: domain.UnitNone, scale: domain.ScaleOne, dims: []domain.Axis{domain.AxisTime, domain.AxisLevel}},
	},
}

// Hydrator reads NetCDF instrument files into domain records.
// It implements pipeline.Hydrator.
type Hydrator struct {
	resolver PathResolver
	logger   *slog.Logger
}

// NewHydrator creates a Hydrator resolving names through the given resolver.
func NewHydrator(resolver PathResolver, logger *slog.Logger) *Hydrator {
	return &Hydrator{resolver: resolver, logger: logger}
}

// Hydrate opens the named file and extracts the instrument's cataloged
// variables into a record. Values are flattened row-major; floats are
// quantized by the catalog scale with NaN mapped to the flag value.
func (h *Hydrator) Hydrate(ctx context.Context, name string, instrument domain.Instrument) (domain.InstrumentRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.InstrumentRecord{}, err
	}
	catalog, ok := catalogs[instrument]
	if !ok {
		return domain.InstrumentRecord{}, fmt.Errorf("hydrate %s: unknown instrument %q", name, instrument)
	}

	path, err := h.resolver.Resolve(name)
	if err != nil {
		return domain.InstrumentRecord{}, err
	}
	nc, err := netcdf.Open(path)
	if err != nil {
		return domain.InstrumentRecord{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer nc.Close()

	variables := make(map[string]domain.Variable, len(catalog))
	for canonical, spec := range catalog {
		v, err := readVariable(nc, spec)
		if err != nil {
			return domain.InstrumentRecord{}, fmt.Errorf("hydrate %s: %s: %w", name, canonical, err)
		}
		variables[canonical] = v
	}

	rec := domain.InstrumentRecord{
		Dimensions: recordDimensions(variables),
		Variables:  rebindDimensions(variables),
	}
	h.logger.Debug("file hydrated", "name", name, "instrument", instrument, "record", rec.String())
	return rec, nil
}

func readVariable(nc api.Group, spec varSpec) (domain.Variable, error) {
	vg, err := nc.GetVarGetter(spec.native)
	if err != nil {
		return domain.Variable{}, fmt.Errorf("variable %q: %w", spec.native, err)
	}
	raw, err := vg.Values()
	if err != nil {
		return domain.Variable{}, fmt.Errorf("variable %q values: %w", spec.native, err)
	}

	values, shape, err := flatten(raw, spec.scale)
	if err != nil {
		return domain.Variable{}, fmt.Errorf("variable %q: %w", spec.native, err)
	}
	if len(shape) != len(spec.dims) {
		return domain.Variable{}, fmt.Errorf("variable %q: rank %d, expected %d", spec.native, len(shape), len(spec.dims))
	}

	dims := make([]domain.Dimension, len(spec.dims))
	for i, axis := range spec.dims {
		dims[i] = domain.Dimension{Name: axis, Size: shape[i]}
	}

	return domain.Variable{
		Dimensions: dims,
		DType:      spec.dtype,
		LongName:   longName(vg),
		Scale:      spec.scale,
		Units:      spec.units,
		Values:     values,
	}, nil
}

func longName(vg api.VarGetter) string {
	if attrs := vg.Attributes(); attrs != nil {
		if v, ok := attrs.Get("long_name"); ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

// flatten converts an arbitrarily nested slice (or scalar) of numeric values
// into a flat row-major []int64 plus its shape. Floats are scaled and
// rounded; NaN becomes the flag value.
func flatten(raw any, scale domain.Scale) ([]int64, []int, error) {
	var shape []int
	rv := reflect.ValueOf(raw)
	for depth := rv; depth.Kind() == reflect.Slice; depth = depth.Index(0) {
		shape = append(shape, depth.Len())
		if depth.Len() == 0 {
			return nil, shape, nil
		}
	}

	size := 1
	for _, n := range shape {
		size *= n
	}
	values := make([]int64, 0, size)
	if err := appendValues(&values, rv, scale); err != nil {
		return nil, nil, err
	}
	return values, shape, nil
}

func appendValues(out *[]int64, rv reflect.Value, scale domain.Scale) error {
	if rv.Kind() == reflect.Slice {
		for i := 0; i < rv.Len(); i++ {
			if err := appendValues(out, rv.Index(i), scale); err != nil {
				return err
			}
		}
		return nil
	}
	switch rv.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		*out = append(*out, rv.Int()*int64(scale))
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		*out = append(*out, int64(rv.Uint())*int64(scale))
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) {
			*out = append(*out, domain.FlagValue)
			return nil
		}
		*out = append(*out, int64(math.Round(f*float64(scale))))
	default:
		return fmt.Errorf("unsupported element kind %s", rv.Kind())
	}
	return nil
}

// recordDimensions derives the record's dimension table from the hydrated
// variables, keyed by axis name. Later variables agree with earlier ones by
// construction of the catalog shapes.
func recordDimensions(variables map[string]domain.Variable) map[string]domain.Dimension {
	dims := make(map[string]domain.Dimension)
	for _, v := range variables {
		for _, d := range v.Dimensions {
			dims[string(d.Name)] = d
		}
	}
	return dims
}

// rebindDimensions points every variable's dimensions at the shared record
// dimension table so sizes stay consistent.
func rebindDimensions(variables map[string]domain.Variable) map[string]domain.Variable {
	dims := recordDimensions(variables)
	out := make(map[string]domain.Variable, len(variables))
	for name, v := range variables {
		rebuilt := make([]domain.Dimension, len(v.Dimensions))
		for i, d := range v.Dimensions {
			rebuilt[i] = dims[string(d.Name)]
		}
		v.Dimensions = rebuilt
		out[name] = v
	}
	return out
}
