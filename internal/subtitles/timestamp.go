package subtitles

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// maxSeconds is the largest value whose millisecond count fits in an int64.
const maxSeconds = float64(math.MaxInt64/1000) - 1

func checkSeconds(field string, seconds float64) *TimingError {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 || seconds > maxSeconds {
		return &TimingError{Field: field, Value: seconds}
	}
	return nil
}

// FormatSRTTimestamp renders seconds as HH:MM:SS,mmm rounded to the nearest
// millisecond. Hours grow past two digits instead of wrapping.
func FormatSRTTimestamp(seconds float64) (string, error) {
	if err := checkSeconds("seconds", seconds); err != nil {
		return "", err
	}
	totalMs := int64(math.Round(seconds * 1000))
	hours := totalMs / 3_600_000
	minutes := (totalMs / 60_000) % 60
	secs := (totalMs / 1000) % 60
	millis := totalMs % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis), nil
}

// FormatASSTimestamp renders seconds as H:MM:SS.cc rounded to the nearest
// centisecond. The hour field is never padded.
func FormatASSTimestamp(seconds float64) (string, error) {
	if err := checkSeconds("seconds", seconds); err != nil {
		return "", err
	}
	totalCs := int64(math.Round(seconds * 100))
	hours := totalCs / 360_000
	minutes := (totalCs / 6000) % 60
	secs := (totalCs / 100) % 60
	centis := totalCs % 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, secs, centis), nil
}

// ParseSRTTimestamp converts HH:MM:SS,mmm (a period separator is accepted too)
// back to seconds.
func ParseSRTTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	if hours < 0 || minutes < 0 || minutes > 59 || seconds < 0 || seconds > 59 || millis < 0 || millis > 999 {
		return 0, fmt.Errorf("timestamp out of range %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}
