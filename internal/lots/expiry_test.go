package lots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyExpiryBands(t *testing.T) {
	today := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		expires *time.Time
		want    Band
	}{
		{"no date", nil, BandNone},
		{"yesterday", date(2024, 6, 9), BandExpired},
		{"same day", date(2024, 6, 10), BandToday},
		{"next day", date(2024, 6, 11), BandTomorrow},
		{"two days out", date(2024, 6, 12), BandSoon},
		{"three days out", date(2024, 6, 13), BandOK},
		{"far future", date(2025, 1, 1), BandOK},
		{"long expired", date(2023, 12, 24), BandExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyExpiry(tt.expires, today))
		})
	}
}

func TestClassifyExpiryIgnoresTimeOfDay(t *testing.T) {
	// A lot expiring "today at 00:00" is still today even late in the evening.
	today := time.Date(2024, 6, 10, 23, 45, 0, 0, time.UTC)
	assert.Equal(t, BandToday, ClassifyExpiry(date(2024, 6, 10), today))
}

func TestExpiringCutoff(t *testing.T) {
	today := time.Date(2024, 6, 10, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC), ExpiringCutoff(today))
}
