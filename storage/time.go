package storage

import "time"

// fromMillis converts a stored unix millisecond timestamp to UTC.
func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// toMillis is the inverse of fromMillis.
func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}
