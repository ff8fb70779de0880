package domain

import "time"

// TimestampLayout is the ISO-8601 form the spreadsheet endpoint stores,
// millisecond precision in UTC (same shape as JavaScript's toISOString).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Entry is one recorded tasbih submission.
type Entry struct {
	Timestamp time.Time
	Name      string
	Count     int
}

// FormatTimestamp renders the entry timestamp in TimestampLayout.
func (e Entry) FormatTimestamp() string {
	return e.Timestamp.UTC().Format(TimestampLayout)
}

// Same reports whether two entries describe the same submission.
// Timestamps are compared at millisecond precision because that is all the
// remote store keeps.
func (e Entry) Same(o Entry) bool {
	return e.Name == o.Name &&
		e.Count == o.Count &&
		e.Timestamp.UTC().Truncate(time.Millisecond).Equal(o.Timestamp.UTC().Truncate(time.Millisecond))
}

// Total sums the counts of entries. Negative counts never reach the store
// through this service, but rows edited by hand in the sheet might carry them;
// they are ignored so the total stays non-negative.
func Total(entries []Entry) int {
	sum := 0
	for _, e := range entries {
		if e.Count > 0 {
			sum += e.Count
		}
	}
	return sum
}
