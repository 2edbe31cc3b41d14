// Package activity defines the read view of a recorded activity that the
// metric engine consumes: a time-indexed signal table, sport classification,
// and the precomputed mean-max table. The persistence layer owns the data;
// this package only describes its shape.
package activity

import (
	"math"
	"time"
)

// Standard signal names as they appear in the records table.
const (
	SignalPower     = "power"
	SignalHeartrate = "heartrate"
	SignalSpeed     = "speed"
	SignalCadence   = "cadence"
	SignalAltitude  = "altitude"
	SignalDistance  = "distance"
)

// MeanMaxSignals are the signals for which mean-max rows are maintained.
var MeanMaxSignals = []string{SignalSpeed, SignalPower, SignalHeartrate, SignalCadence}

// Sample is one row of the signal table. Missing signals are NaN.
type Sample struct {
	Offset int // seconds from activity start
	Values map[string]float64
}

// Sport is the classification of an activity session.
type Sport struct {
	Sport    string
	SubSport string
}

// MeanMaxPoint is one (duration, value) pair of a mean-max curve.
type MeanMaxPoint struct {
	Duration int // seconds
	Value    float64
}

// Activity is an immutable read view of one recorded activity.
type Activity struct {
	ID        int64
	Name      string
	StartTime time.Time
	TimerTime float64 // seconds the timer ran, from the recording device

	Sessions []Sport

	columns map[string]bool
	samples []Sample
	meanMax map[string][]MeanMaxPoint
}

// New builds an activity read view. columns is the manifest of signals that
// are populated for this activity; signals absent from it never appear in
// samples.
func New(id int64, name string, start time.Time, timerTime float64, sessions []Sport, columns []string, samples []Sample) *Activity {
	manifest := make(map[string]bool, len(columns))
	for _, c := range columns {
		manifest[c] = true
	}
	return &Activity{
		ID:        id,
		Name:      name,
		StartTime: start,
		TimerTime: timerTime,
		Sessions:  sessions,
		columns:   manifest,
		samples:   samples,
		meanMax:   make(map[string][]MeanMaxPoint),
	}
}

// HasColumn reports whether a signal is populated for this activity.
func (a *Activity) HasColumn(signal string) bool {
	return a.columns[signal]
}

// Columns returns the manifest of populated signals.
func (a *Activity) Columns() []string {
	cols := make([]string, 0, len(a.columns))
	for c := range a.columns {
		cols = append(cols, c)
	}
	return cols
}

// Samples returns the signal table rows in time order.
func (a *Activity) Samples() []Sample {
	return a.samples
}

// Signal extracts one signal as a per-sample series; samples where the
// signal is missing are NaN.
func (a *Activity) Signal(name string) []float64 {
	out := make([]float64, len(a.samples))
	for i, s := range a.samples {
		v, ok := s.Values[name]
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}

// Sport returns the sport classification. Activities with anything other
// than exactly one session are unclassified.
func (a *Activity) Sport() Sport {
	if len(a.Sessions) == 1 {
		return a.Sessions[0]
	}
	return Sport{Sport: "unknown"}
}

// SetMeanMax attaches the precomputed mean-max curve for a signal.
func (a *Activity) SetMeanMax(signal string, points []MeanMaxPoint) {
	a.meanMax[signal] = points
}

// MeanMax returns the mean-max curve for a signal, ordered by duration,
// or nil if no rows exist for it.
func (a *Activity) MeanMax(signal string) []MeanMaxPoint {
	return a.meanMax[signal]
}

// HasMeanMax reports whether any mean-max rows are attached.
func (a *Activity) HasMeanMax() bool {
	return len(a.meanMax) > 0
}
