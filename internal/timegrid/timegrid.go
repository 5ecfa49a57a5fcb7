// Package timegrid generates the ordered timestamp sequence a meter
// dataset is expanded against: every instant from start to end at a
// fixed sampling frequency, inclusive of both ends when aligned.
package timegrid

import (
	"fmt"
	"strings"
	"time"
)

// Frequency represents a supported sampling interval
type Frequency int

const (
	// Freq15Min samples every 15 minutes
	Freq15Min Frequency = iota
	// Freq30Min samples every 30 minutes
	Freq30Min
	// FreqHourly samples every hour
	FreqHourly
)

// String returns the canonical token for the frequency
func (f Frequency) String() string {
	switch f {
	case Freq15Min:
		return "15T"
	case Freq30Min:
		return "30T"
	case FreqHourly:
		return "1H"
	default:
		return "unknown"
	}
}

// Step returns the interval between consecutive grid instants
func (f Frequency) Step() time.Duration {
	switch f {
	case Freq15Min:
		return 15 * time.Minute
	case Freq30Min:
		return 30 * time.Minute
	case FreqHourly:
		return time.Hour
	default:
		return 0
	}
}

// UnsupportedFrequencyError reports a frequency token outside the
// supported enumeration.
type UnsupportedFrequencyError struct {
	Token string
}

func (e *UnsupportedFrequencyError) Error() string {
	return fmt.Sprintf("unsupported frequency %q (supported: 15T, 30T, 1H)", e.Token)
}

// InvalidRangeError reports a date range whose start is after its end.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: start %s is after end %s",
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

// ParseFrequency resolves a frequency token to a Frequency. The
// canonical tokens are "15T", "30T", and "1H"; a few common aliases
// are accepted as well.
func ParseFrequency(token string) (Frequency, error) {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "15T", "15MIN":
		return Freq15Min, nil
	case "30T", "30MIN":
		return Freq30Min, nil
	case "1H", "60MIN", "HOURLY":
		return FreqHourly, nil
	default:
		return 0, &UnsupportedFrequencyError{Token: token}
	}
}

// Grid is an ordered, duplicate-free sequence of instants with a
// constant step. It is immutable after Generate returns.
type Grid struct {
	instants []time.Time
	step     time.Duration
}

// Generate produces the grid of every instant start + k*step that is
// not after end, inclusive of start. Identical inputs always produce
// an identical sequence regardless of the caller's locale.
func Generate(start, end time.Time, freq Frequency) (Grid, error) {
	if start.After(end) {
		return Grid{}, &InvalidRangeError{Start: start, End: end}
	}

	step := freq.Step()
	if step <= 0 {
		return Grid{}, &UnsupportedFrequencyError{Token: freq.String()}
	}

	n := int(end.Sub(start)/step) + 1
	instants := make([]time.Time, 0, n)
	for t := start; !t.After(end); t = t.Add(step) {
		instants = append(instants, t)
	}

	return Grid{instants: instants, step: step}, nil
}

// Len returns the number of instants in the grid
func (g Grid) Len() int {
	return len(g.instants)
}

// Step returns the constant interval between consecutive instants
func (g Grid) Step() time.Duration {
	return g.step
}

// At returns the i-th instant
func (g Grid) At(i int) time.Time {
	return g.instants[i]
}

// Instants returns a copy of the instant sequence
func (g Grid) Instants() []time.Time {
	out := make([]time.Time, len(g.instants))
	copy(out, g.instants)
	return out
}

// Contains reports whether t is an instant of the grid
func (g Grid) Contains(t time.Time) bool {
	if len(g.instants) == 0 {
		return false
	}
	first := g.instants[0]
	if t.Before(first) || t.After(g.instants[len(g.instants)-1]) {
		return false
	}
	offset := t.Sub(first)
	return offset%g.step == 0
}

// Format renders every instant with the given layout, in order
func (g Grid) Format(layout string) []string {
	out := make([]string, len(g.instants))
	for i, t := range g.instants {
		out[i] = t.Format(layout)
	}
	return out
}
