package pmc

import (
	"math"
	"testing"
	"time"
)

func date(day int) time.Time {
	return time.Date(2024, 5, day, 0, 0, 0, 0, time.UTC)
}

func TestChronicleEmpty(t *testing.T) {
	if points := Chronicle(nil, 7, 42); points != nil {
		t.Errorf("Chronicle(nil) = %v, want nil", points)
	}
}

func TestChronicleSingleImpulse(t *testing.T) {
	points := Chronicle([]Impulse{{Date: date(1), Value: 100}}, 7, 42)
	if len(points) != 1 {
		t.Fatalf("got %d points, want 1", len(points))
	}
	// The first day seeds the series at zero.
	if points[0].ShortTerm != 0 || points[0].LongTerm != 0 {
		t.Errorf("day 0 = %+v, want zero load", points[0])
	}
	if points[0].Impulse != 100 {
		t.Errorf("impulse = %v, want 100", points[0].Impulse)
	}
}

func TestChronicleEMA(t *testing.T) {
	impulses := []Impulse{
		{Date: date(1), Value: 0},
		{Date: date(2), Value: 100},
		{Date: date(3), Value: 100},
	}
	points := Chronicle(impulses, 7, 42)
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}

	decayShort := 1 - math.Exp(-1.0/7)
	decayLong := 1 - math.Exp(-1.0/42)

	// Day 2: sts = 0 + (100-0)*decayShort
	wantSTS := 100 * decayShort
	if math.Abs(points[1].ShortTerm-wantSTS) > 1e-9 {
		t.Errorf("day 2 sts = %v, want %v", points[1].ShortTerm, wantSTS)
	}
	wantLTS := 100 * decayLong
	if math.Abs(points[1].LongTerm-wantLTS) > 1e-9 {
		t.Errorf("day 2 lts = %v, want %v", points[1].LongTerm, wantLTS)
	}

	// Day 3 compounds.
	wantSTS += (100 - wantSTS) * decayShort
	if math.Abs(points[2].ShortTerm-wantSTS) > 1e-9 {
		t.Errorf("day 3 sts = %v, want %v", points[2].ShortTerm, wantSTS)
	}

	// Balance is yesterday's fitness minus yesterday's fatigue.
	wantBalance := points[1].LongTerm - points[1].ShortTerm
	if math.Abs(points[2].Balance-wantBalance) > 1e-9 {
		t.Errorf("day 3 balance = %v, want %v", points[2].Balance, wantBalance)
	}
}

func TestChronicleFillsMissingDays(t *testing.T) {
	impulses := []Impulse{
		{Date: date(1), Value: 100},
		{Date: date(10), Value: 100},
	}
	points := Chronicle(impulses, 7, 42)
	if len(points) != 10 {
		t.Fatalf("got %d points, want 10 contiguous days", len(points))
	}
	for i := 1; i < 9; i++ {
		if points[i].Impulse != 0 {
			t.Errorf("day %d impulse = %v, want 0", i+1, points[i].Impulse)
		}
	}
	// Fatigue decays through the rest gap.
	if points[8].ShortTerm >= points[1].ShortTerm && points[1].ShortTerm > 0 {
		t.Errorf("sts did not decay: day 2 %v, day 9 %v", points[1].ShortTerm, points[8].ShortTerm)
	}
}

func TestChronicleRampRate(t *testing.T) {
	impulses := make([]Impulse, 15)
	for i := range impulses {
		impulses[i] = Impulse{Date: date(1 + i), Value: 100}
	}
	points := Chronicle(impulses, 7, 42)

	for i, pt := range points {
		if i < 7 {
			if pt.RampRate != 0 {
				t.Errorf("day %d ramp = %v, want 0 before a full window", i+1, pt.RampRate)
			}
			continue
		}
		want := pt.LongTerm - points[i-7].LongTerm
		if math.Abs(pt.RampRate-want) > 1e-9 {
			t.Errorf("day %d ramp = %v, want %v", i+1, pt.RampRate, want)
		}
	}
}

func TestChronicleMergesSameDay(t *testing.T) {
	impulses := []Impulse{
		{Date: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), Value: 60},
		{Date: time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC), Value: 40},
	}
	points := Chronicle(impulses, 7, 42)
	if len(points) != 1 {
		t.Fatalf("got %d points, want 1", len(points))
	}
	if points[0].Impulse != 100 {
		t.Errorf("impulse = %v, want merged 100", points[0].Impulse)
	}
}
