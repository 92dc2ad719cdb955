package storage

import (
	"testing"
	"time"
)

func TestMillisRoundTrip(t *testing.T) {
	local := time.FixedZone("UTC+2", 2*60*60)
	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"utc", time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC), time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)},
		{"zoned", time.Date(2024, 1, 15, 16, 30, 0, 0, local), time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)},
		{"sub millisecond dropped", time.Date(2024, 1, 15, 14, 30, 0, 1_999_999, time.UTC), time.Date(2024, 1, 15, 14, 30, 0, 1_000_000, time.UTC)},
		{"epoch", time.Unix(0, 0), time.Unix(0, 0).UTC()},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := fromMillis(toMillis(c.in))
			if !got.Equal(c.want) {
				t.Errorf("got %v, want %v", got, c.want)
			}
			if got.Location() != time.UTC {
				t.Errorf("location = %v, want UTC", got.Location())
			}
		})
	}
}
