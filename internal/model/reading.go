package model

import (
	"strconv"
	"time"
)

// Header is the first line of a freshly created log file. It is written
// exactly once, when the file does not exist yet.
const Header = "Time (PET),Object Temperature,Ambient Temperature"

// Timestamp is a wall-clock instant as read from the RTC. Year counts from
// 2000, matching the two-digit year register of the clock chip.
type Timestamp struct {
	Year   int // years since 2000
	Month  int
	Day    int
	Hour   int // 24h
	Minute int
	Second int
}

// NewTimestamp builds a Timestamp from a time.Time.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{
		Year:   t.Year() - 2000,
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

// IsZero reports whether the timestamp is the sentinel zero value returned
// when the clock could not be read.
func (ts Timestamp) IsZero() bool {
	return ts == Timestamp{}
}

// String renders the timestamp as a fixed-width "YYYY-MM-DD HH:MM:SS",
// always 19 characters, all fields zero-padded.
func (ts Timestamp) String() string {
	b := make([]byte, 0, 19)
	b = pad(b, 2000+ts.Year, 4)
	b = append(b, '-')
	b = pad(b, ts.Month, 2)
	b = append(b, '-')
	b = pad(b, ts.Day, 2)
	b = append(b, ' ')
	b = pad(b, ts.Hour, 2)
	b = append(b, ':')
	b = pad(b, ts.Minute, 2)
	b = append(b, ':')
	b = pad(b, ts.Second, 2)
	return string(b)
}

func pad(b []byte, v, width int) []byte {
	s := strconv.Itoa(v)
	for n := width - len(s); n > 0; n-- {
		b = append(b, '0')
	}
	return append(b, s...)
}

// Reading is one sample of the thermopile: the object (target) and ambient
// (die) temperatures in Celsius, paired with the clock time at which the
// sample was taken. A Reading is immutable once captured.
type Reading struct {
	Timestamp Timestamp
	ObjectC   float64
	AmbientC  float64
}

// Record serializes the reading as one CSV log line:
// "YYYY-MM-DD HH:MM:SS,<object>,<ambient>". Temperatures carry two decimals,
// the resolution of the sensor.
func (r Reading) Record() string {
	line := r.Timestamp.String()
	line += "," + strconv.FormatFloat(r.ObjectC, 'f', 2, 64)
	line += "," + strconv.FormatFloat(r.AmbientC, 'f', 2, 64)
	return line
}
