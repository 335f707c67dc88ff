package esent

import (
	"math"
	"time"
)

const (
	//FileTimeUnixEpoch is 1970-01-01T00:00:00Z in 100ns ticks since 1601-01-01
	FileTimeUnixEpoch = 116444736000000000
	//OleTimeUnixEpoch is 1970-01-01T00:00:00Z in days since 1899-12-30
	OleTimeUnixEpoch = 25569.0

	fileTimeUnixSeconds = 11644473600
	secondsPerDay       = 86400
)

var oleEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

//FileTimeToTime converts a FILETIME tick count to UTC
func FileTimeToTime(ft uint64) time.Time {
	secs := int64(ft / 1e7)
	nsec := int64(ft%1e7) * 100
	return time.Unix(secs-fileTimeUnixSeconds, nsec).UTC()
}

//TimeToFileTime converts t to FILETIME ticks. Times before 1601 clamp to 0.
func TimeToFileTime(t time.Time) uint64 {
	secs := t.Unix() + fileTimeUnixSeconds
	if secs < 0 {
		return 0
	}
	return uint64(secs)*1e7 + uint64(t.Nanosecond()/100)
}

//OleTimeToTime converts an OLE automation date to UTC. The fractional part is the time of day,
//also for dates before 1899-12-30 where the integer part is negative.
func OleTimeToTime(d float64) time.Time {
	whole := math.Trunc(d)
	frac := math.Abs(d - whole)
	day := oleEpoch.AddDate(0, 0, int(whole))
	us := math.Round(frac * secondsPerDay * 1e6)
	return day.Add(time.Duration(us) * time.Microsecond)
}

//TimeToOleTime converts t to an OLE automation date
func TimeToOleTime(t time.Time) float64 {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	//whole days counted on the calendar so long spans don't overflow a Duration
	days := math.Round(float64(midnight.Unix()-oleEpoch.Unix()) / secondsPerDay)
	frac := float64(t.Sub(midnight)) / float64(24*time.Hour)
	if days < 0 && frac > 0 {
		return days - frac
	}
	return days + frac
}
