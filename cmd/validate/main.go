// Command validate performs offline integrity checks over a directory of
// fused day records as written by the ETL service. It verifies record
// structure, time-axis monotonicity, mask-code validity, and that layer
// extraction succeeds on every file.
//
// Usage:
//
//	go run ./cmd/validate -dir out/sheba
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/cloud-obs-etl/internal/adapter/localfs"
	"github.com/couchcryptid/cloud-obs-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// dayFile is one loaded fused record plus its provenance.
type dayFile struct {
	name string
	rec  domain.InstrumentRecord
}

func main() {
	dir := flag.String("dir", "", "directory containing fused day records (*.fused.json)")
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dir); code != 0 {
		os.Exit(code)
	}
}

func run(dir string) int {
	fmt.Println("=== Fused Day Record Validation ===")
	fmt.Println()

	files, err := loadDayFiles(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "FATAL: no *.fused.json files in %s\n", dir)
		return 1
	}

	phases := []*phase{
		validateStructure(files),
		validateTimeAxis(files),
		validateMaskCodes(files),
		validateLayerExtraction(files),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d day files\n", len(files))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadDayFiles(dir string) ([]dayFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []dayFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".fused.json") {
			continue
		}
		rec, err := localfs.ReadDayRecord(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		files = append(files, dayFile{name: e.Name(), rec: rec})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })
	return files, nil
}

// ── Phase 1: Structure ──
// Every record carries the required variables with shapes matching its
// dimension table.

func validateStructure(files []dayFile) *phase {
	p := &phase{name: "Phase 1: Record Structure"}

	required := []string{domain.VarEpoch, domain.VarOffset, domain.VarRange, domain.VarCloud}
	for _, f := range files {
		for _, name := range required {
			if _, ok := f.rec.Variables[name]; !ok {
				p.errorf("%s: missing variable %q", f.name, name)
			}
		}
		offset, okO := f.rec.Variables[domain.VarOffset]
		elevation, okR := f.rec.Variables[domain.VarRange]
		mask, okM := f.rec.Variables[domain.VarCloud]
		if !okO || !okR || !okM {
			continue
		}
		if want := len(offset.Values) * len(elevation.Values); len(mask.Values) != want {
			p.errorf("%s: cloud_mask has %d values, expected %d", f.name, len(mask.Values), want)
		}
		if d, ok := f.rec.Dimensions["time"]; ok && d.Size != len(offset.Values) {
			p.errorf("%s: time dimension %d does not match offset length %d", f.name, d.Size, len(offset.Values))
		}
		if d, ok := f.rec.Dimensions["level"]; ok && d.Size != len(elevation.Values) {
			p.errorf("%s: level dimension %d does not match range length %d", f.name, d.Size, len(elevation.Values))
		}
	}
	return p
}

// ── Phase 2: Time Axis ──
// Offsets are strictly increasing within [0, 86400] and the epoch matches the
// day named by the file.

func validateTimeAxis(files []dayFile) *phase {
	p := &phase{name: "Phase 2: Time Axis"}

	for _, f := range files {
		offset, ok := f.rec.Variables[domain.VarOffset]
		if !ok {
			continue
		}
		for i := 1; i < len(offset.Values); i++ {
			if offset.Values[i] <= offset.Values[i-1] {
				p.errorf("%s: offset not strictly increasing at index %d", f.name, i)
				break
			}
		}
		if n := len(offset.Values); n > 0 {
			if offset.Values[0] < 0 || offset.Values[n-1] > domain.SecondsPerDay {
				p.errorf("%s: offsets outside [0, %d]", f.name, domain.SecondsPerDay)
			}
		}

		day, err := domain.ExtractDay(f.name)
		if err != nil {
			p.errorf("%s: %v", f.name, err)
			continue
		}
		epoch, err := f.rec.Epoch()
		if err != nil {
			continue
		}
		if epoch != day.Unix() {
			p.errorf("%s: epoch %d does not match day start %d", f.name, epoch, day.Unix())
		}
	}
	return p
}

// ── Phase 3: Mask Codes ──
// Every fused cell belongs to the closed code set.

func validateMaskCodes(files []dayFile) *phase {
	p := &phase{name: "Phase 3: Mask Codes"}

	for _, f := range files {
		mask, ok := f.rec.Variables[domain.VarCloud]
		if !ok {
			continue
		}
		bad := 0
		for _, code := range mask.Values {
			if !domain.ValidFusedCode(code) {
				bad++
			}
		}
		if bad > 0 {
			p.errorf("%s: %d cells outside the fused code set", f.name, bad)
		}
	}
	return p
}

// ── Phase 4: Layer Extraction ──
// Extraction runs cleanly and produces one row per time step with ascending
// transition elevations.

func validateLayerExtraction(files []dayFile) *phase {
	p := &phase{name: "Phase 4: Layer Extraction"}

	policy := domain.DefaultFusionPolicy()
	for _, f := range files {
		day, err := domain.ExtractDay(f.name)
		if err != nil {
			continue
		}
		layers, err := domain.ExtractLayers(f.rec, day, policy)
		if err != nil {
			p.errorf("%s: extract layers: %v", f.name, err)
			continue
		}
		if offset, ok := f.rec.Variables[domain.VarOffset]; ok && len(layers) != len(offset.Values) {
			p.errorf("%s: %d layer rows for %d time steps", f.name, len(layers), len(offset.Values))
		}
		for _, row := range layers {
			for i := 1; i < len(row.Bases); i++ {
				if row.Bases[i].Elevation <= row.Bases[i-1].Elevation {
					p.errorf("%s %s: base elevations not ascending", f.name, row.Time.Format("15:04:05"))
					break
				}
			}
		}
	}
	return p
}
