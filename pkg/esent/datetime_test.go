package esent

import (
	"math"
	"testing"
	"time"
)

func TestFileTimeKnownValues(t *testing.T) {
	if got := FileTimeToTime(FileTimeUnixEpoch); !got.Equal(time.Unix(0, 0)) {
		t.Errorf("epoch decoded to %v", got)
	}
	if got := FileTimeToTime(0); !got.Equal(time.Date(1601, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("zero decoded to %v", got)
	}
	if got := TimeToFileTime(time.Unix(0, 0)); got != FileTimeUnixEpoch {
		t.Errorf("epoch encoded to %d", got)
	}
	if got := TimeToFileTime(time.Date(1500, 1, 1, 0, 0, 0, 0, time.UTC)); got != 0 {
		t.Errorf("pre 1601 should clamp, got %d", got)
	}
}

func TestOleTimeKnownValues(t *testing.T) {
	if got := OleTimeToTime(OleTimeUnixEpoch); !got.Equal(time.Unix(0, 0)) {
		t.Errorf("epoch decoded to %v", got)
	}
	if got := TimeToOleTime(time.Unix(0, 0)); got != OleTimeUnixEpoch {
		t.Errorf("epoch encoded to %v", got)
	}
	tests := []struct {
		ole  float64
		want time.Time
	}{
		{0, time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)},
		{2.5, time.Date(1900, 1, 1, 12, 0, 0, 0, time.UTC)},
		{-1.25, time.Date(1899, 12, 29, 6, 0, 0, 0, time.UTC)},
		{36526.75, time.Date(2000, 1, 1, 18, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		if got := OleTimeToTime(tt.ole); !got.Equal(tt.want) {
			t.Errorf("OleTimeToTime(%v) = %v, want %v", tt.ole, got, tt.want)
		}
		if got := TimeToOleTime(tt.want); math.Abs(got-tt.ole) > 1e-9 {
			t.Errorf("TimeToOleTime(%v) = %v, want %v", tt.want, got, tt.ole)
		}
	}
}

func sampleTimes() []time.Time {
	return []time.Time{
		time.Unix(0, 0).UTC(),
		time.Date(1601, 1, 1, 0, 0, 0, 100, time.UTC),
		time.Date(1899, 12, 29, 23, 59, 59, 0, time.UTC),
		time.Date(1980, 2, 29, 13, 14, 15, 161718100, time.UTC),
		time.Date(2021, 6, 30, 23, 59, 59, 999999900, time.UTC),
		time.Date(2262, 4, 11, 23, 47, 16, 854775800, time.UTC),
		time.Date(9999, 12, 31, 12, 0, 0, 0, time.UTC),
	}
}

func TestFileTimeRoundTrip(t *testing.T) {
	for _, tm := range sampleTimes() {
		got := FileTimeToTime(TimeToFileTime(tm))
		if d := got.Sub(tm); d < 0 || d >= 100*time.Nanosecond {
			t.Errorf("%v round tripped to %v", tm, got)
		}
	}
}

func TestOleTimeRoundTrip(t *testing.T) {
	for _, tm := range sampleTimes() {
		got := OleTimeToTime(TimeToOleTime(tm))
		d := got.Sub(tm)
		if d < 0 {
			d = -d
		}
		//a float64 day count keeps roughly microsecond resolution for these dates
		if d > time.Millisecond {
			t.Errorf("%v round tripped to %v (off by %v)", tm, got, d)
		}
	}
}
