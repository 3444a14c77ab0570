package timeconv

import (
	"fmt"
	"time"
)

// Epoch units accepted by FromEpoch.
const (
	UnitSeconds      = "s"
	UnitMilliseconds = "ms"
)

// msEpochThreshold is the largest plausible second-resolution epoch
// (2286-11-20). Bare values above it are treated as milliseconds.
const msEpochThreshold = 9_999_999_999

// FromEpoch converts an integer epoch to a UTC time. When unit is empty the
// millisecond heuristic applies: values above msEpochThreshold are divided by
// 1000. An explicit unit bypasses the heuristic entirely.
func FromEpoch(epoch int64, unit string) (time.Time, error) {
	switch unit {
	case UnitSeconds:
		return time.Unix(epoch, 0).UTC(), nil
	case UnitMilliseconds:
		return time.UnixMilli(epoch).UTC(), nil
	case "":
		if epoch > msEpochThreshold {
			return time.UnixMilli(epoch).UTC(), nil
		}
		return time.Unix(epoch, 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unknown epoch unit %q", unit)
	}
}
