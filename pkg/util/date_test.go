package util

import (
	"testing"
	"time"
)

func TestNormalizeEpochMS(t *testing.T) {
	sec := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	if got := NormalizeEpochMS(sec); got != sec*1000 {
		t.Fatalf("seconds not scaled: %d", got)
	}
	ms := sec * 1000
	if got := NormalizeEpochMS(ms); got != ms {
		t.Fatalf("milliseconds rescaled: %d", got)
	}
}

func TestTruncateDayMS(t *testing.T) {
	noon := time.Date(2024, 10, 10, 12, 34, 56, 0, time.UTC).UnixMilli()
	midnight := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC).UnixMilli()
	if got := TruncateDayMS(noon); got != midnight {
		t.Fatalf("got %d want %d", got, midnight)
	}
	if got := TruncateDayMS(midnight); got != midnight {
		t.Fatalf("midnight moved: %d", got)
	}
}

func TestDayMSToTime(t *testing.T) {
	midnight := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	if got := DayMSToTime(midnight.UnixMilli()); !got.Equal(midnight) {
		t.Fatalf("got %v want %v", got, midnight)
	}
}
