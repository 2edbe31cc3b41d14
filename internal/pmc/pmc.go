// Package pmc builds the performance management chronicle: exponentially
// weighted short- and long-term training load series over daily stress
// impulses, with form (balance) and ramp rate derived from them.
package pmc

import (
	"math"
	"sort"
	"time"
)

// Impulse is one day's total training stress.
type Impulse struct {
	Date  time.Time
	Value float64
}

// Point is one day of the chronicle.
type Point struct {
	Date      time.Time
	Impulse   float64
	ShortTerm float64 // fatigue: EMA over the short time constant
	LongTerm  float64 // fitness: EMA over the long time constant
	Balance   float64 // form: yesterday's fitness minus yesterday's fatigue
	RampRate  float64 // fitness change over the last shortDays days
}

// Chronicle expands the impulses to a contiguous daily series (missing days
// are zero-load) and runs the load model over it. The first day seeds both
// series at zero. Impulses may arrive unsorted; days are keyed by UTC
// calendar date, and impulses on the same day merge.
func Chronicle(impulses []Impulse, shortDays, longDays int) []Point {
	if len(impulses) == 0 {
		return nil
	}

	byDay := make(map[time.Time]float64, len(impulses))
	for _, imp := range impulses {
		byDay[day(imp.Date)] += imp.Value
	}
	days := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	first, last := days[0], days[len(days)-1]
	n := int(last.Sub(first).Hours()/24) + 1

	decayShort := 1 - math.Exp(-1/float64(shortDays))
	decayLong := 1 - math.Exp(-1/float64(longDays))

	points := make([]Point, 0, n)
	var sts, lts float64
	for i := 0; i < n; i++ {
		d := first.AddDate(0, 0, i)
		impulse := byDay[d]
		if i > 0 {
			sts += (impulse - sts) * decayShort
			lts += (impulse - lts) * decayLong
		}
		pt := Point{Date: d, Impulse: impulse, ShortTerm: sts, LongTerm: lts}
		if i > 0 {
			prev := points[i-1]
			pt.Balance = prev.LongTerm - prev.ShortTerm
		}
		if i >= shortDays {
			pt.RampRate = lts - points[i-shortDays].LongTerm
		}
		points = append(points, pt)
	}
	return points
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
