package dataset

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"vmgen/internal/timegrid"
)

// Severity classifies a report entry.
type Severity string

const (
	// SeverityError marks a blocking integrity failure.
	SeverityError Severity = "error"
	// SeverityWarning marks a non-blocking advisory.
	SeverityWarning Severity = "warning"
)

// Entry is one finding of the dataset validator.
type Entry struct {
	Severity Severity `json:"severity"`
	Check    string   `json:"check"`
	Message  string   `json:"message"`
}

// Report collects validator findings. A report with any error entry
// blocks packaging.
type Report struct {
	Entries []Entry `json:"entries"`
}

// Blocking reports whether the report contains any error entry
func (r *Report) Blocking() bool {
	for _, e := range r.Entries {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns the error entries
func (r *Report) Errors() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Severity == SeverityError {
			out = append(out, e)
		}
	}
	return out
}

// Warnings returns the warning entries
func (r *Report) Warnings() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Severity == SeverityWarning {
			out = append(out, e)
		}
	}
	return out
}

func (r *Report) addError(check, format string, args ...any) {
	r.Entries = append(r.Entries, Entry{
		Severity: SeverityError,
		Check:    check,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (r *Report) addWarning(check, format string, args ...any) {
	r.Entries = append(r.Entries, Entry{
		Severity: SeverityWarning,
		Check:    check,
		Message:  fmt.Sprintf(format, args...),
	})
}

// ValidateOptions configures the integrity validation pass.
type ValidateOptions struct {
	// SampleThreshold bounds the per-meter timestamp check: when the
	// meter count exceeds it, an evenly spaced subset of meters is
	// checked instead of all of them and the report carries a warning
	// naming the reduced confidence. Zero or negative means always
	// exhaustive.
	SampleThreshold int
}

// maxReportedMissing caps how many missing meters a single report
// entry names before collapsing to a remainder count.
const maxReportedMissing = 5

// Validate re-derives per-meter timestamp sets from the built dataset
// and confirms they match the generated grid, along with global row
// count, pair uniqueness, and trigger integrity. Every failed check is
// a blocking error entry.
func Validate(ds *Dataset, meters []string, grid timegrid.Grid, opts ValidateOptions) *Report {
	report := &Report{}

	expected := len(meters) * grid.Len()
	if ds.Len() != expected {
		report.addError("row_count", "dataset has %d rows, expected %d (%d meters x %d timestamps)",
			ds.Len(), expected, len(meters), grid.Len())
	}

	inputSet := make(map[string]struct{}, len(meters))
	for _, m := range meters {
		inputSet[m] = struct{}{}
	}

	// Single pass: distinct meters, per-meter timestamps for the
	// checked subset, duplicate pair detection, trigger integrity.
	checked := sampleMeters(meters, opts.SampleThreshold)
	checkedSet := make(map[string]struct{}, len(checked))
	for _, m := range checked {
		checkedSet[m] = struct{}{}
	}

	datasetMeters := make(map[string]struct{}, len(meters))
	perMeter := make(map[string][]string, len(checked))
	pairs := make(map[string]struct{}, ds.Len())
	duplicatePairs := 0
	badTriggers := 0
	unexpectedMeters := 0

	for _, row := range ds.Rows {
		if _, ok := datasetMeters[row.MeterID]; !ok {
			datasetMeters[row.MeterID] = struct{}{}
			if _, known := inputSet[row.MeterID]; !known {
				unexpectedMeters++
			}
		}

		key := row.MeterID + "\x00" + row.Timestamp
		if _, dup := pairs[key]; dup {
			duplicatePairs++
		} else {
			pairs[key] = struct{}{}
		}

		if row.Trigger != TriggerValue {
			badTriggers++
		}

		if _, want := checkedSet[row.MeterID]; want {
			perMeter[row.MeterID] = append(perMeter[row.MeterID], row.Timestamp)
		}
	}

	if missing := missingMeters(meters, datasetMeters); len(missing) > 0 {
		shown := missing
		suffix := ""
		if len(missing) > maxReportedMissing {
			shown = missing[:maxReportedMissing]
			suffix = fmt.Sprintf(" (+%d more)", len(missing)-maxReportedMissing)
		}
		report.addError("meter_coverage", "dataset is missing %d meters: %s%s",
			len(missing), strings.Join(shown, ", "), suffix)
	}
	if unexpectedMeters > 0 {
		report.addError("meter_coverage", "dataset contains %d meters not present in the input list", unexpectedMeters)
	}

	if duplicatePairs > 0 {
		report.addError("pair_uniqueness", "%d duplicate (meter, timestamp) pairs found", duplicatePairs)
	}

	if badTriggers > 0 {
		report.addError("trigger_integrity", "%d rows have a trigger value other than %d", badTriggers, TriggerValue)
	}

	validatePerMeterGrids(report, perMeter, checked, grid)

	if len(checked) < len(meters) {
		report.addWarning("timestamp_coverage",
			"per-meter timestamp check sampled %d of %d meters; coverage for the remainder is not exhaustively verified",
			len(checked), len(meters))
	}

	return report
}

// validatePerMeterGrids parses each checked meter's timestamps back
// from text, sorts them chronologically, and compares them instant by
// instant against the grid.
func validatePerMeterGrids(report *Report, perMeter map[string][]string, checked []string, grid timegrid.Grid) {
	instants := grid.Instants()

	for _, meter := range checked {
		raw := perMeter[meter]
		if len(raw) != len(instants) {
			report.addError("timestamp_coverage", "meter %s has %d timestamps, expected %d",
				meter, len(raw), len(instants))
			continue
		}

		parsed := make([]time.Time, 0, len(raw))
		parseFailed := false
		for _, ts := range raw {
			t, err := time.Parse(TimestampLayout, ts)
			if err != nil {
				report.addError("timestamp_coverage", "meter %s has unparseable timestamp %q", meter, ts)
				parseFailed = true
				break
			}
			parsed = append(parsed, t)
		}
		if parseFailed {
			continue
		}

		sort.Slice(parsed, func(i, j int) bool { return parsed[i].Before(parsed[j]) })

		// Compare rendered instants so grids built in any location
		// validate against their own textual output.
		for i, t := range parsed {
			got := t.Format(TimestampLayout)
			want := instants[i].Format(TimestampLayout)
			if got != want {
				report.addError("timestamp_coverage", "meter %s deviates from the grid at position %d: got %s, expected %s",
					meter, i, got, want)
				break
			}
		}
	}
}

// sampleMeters returns the meters to check exhaustively: all of them
// when within the threshold, otherwise an evenly spaced, deterministic
// subset of threshold meters.
func sampleMeters(meters []string, threshold int) []string {
	if threshold <= 0 || len(meters) <= threshold {
		return meters
	}

	out := make([]string, 0, threshold)
	stride := float64(len(meters)) / float64(threshold)
	for i := 0; i < threshold; i++ {
		out = append(out, meters[int(float64(i)*stride)])
	}
	return out
}

// missingMeters returns input meters absent from the dataset, in
// input order.
func missingMeters(meters []string, present map[string]struct{}) []string {
	var out []string
	for _, m := range meters {
		if _, ok := present[m]; !ok {
			out = append(out, m)
		}
	}
	return out
}
