package util

import "time"

const dayMS int64 = 86_400_000

// epochMSThreshold separates second-resolution epochs from millisecond ones.
// Anything below ~2001-09-09 in milliseconds is treated as seconds.
const epochMSThreshold int64 = 1_000_000_000_000

// NormalizeEpochMS converts a timestamp of unknown resolution to epoch
// milliseconds. Values below the threshold are assumed to be seconds.
func NormalizeEpochMS(ts int64) int64 {
	if ts < epochMSThreshold {
		return ts * 1000
	}
	return ts
}

// TruncateDayMS floors an epoch-millisecond timestamp to UTC midnight.
func TruncateDayMS(ts int64) int64 {
	return ts - ts%dayMS
}

// DayMSToTime converts an epoch-millisecond timestamp to UTC time.
func DayMSToTime(ts int64) time.Time {
	return time.UnixMilli(ts).UTC()
}
