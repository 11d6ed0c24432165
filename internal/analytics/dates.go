package analytics

import (
	"time"

	"gorm.io/datatypes"
)

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Day returns the analytics date value for t
func Day(t time.Time) datatypes.Date {
	return datatypes.Date(startOfDay(t))
}

// ParseDay parses YYYY-MM-DD as a UTC date
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

func dateKey(d datatypes.Date) string {
	t := time.Time(d)
	// dates read back from some drivers carry the local zone at midnight
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC).Format(dateLayout)
}
